package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aanand-mishra/school-health/internal/http/handlers/medication"
	"github.com/aanand-mishra/school-health/internal/sandbox"
	"github.com/aanand-mishra/school-health/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// console is a seeded sandbox plus a config file pointing at it.
type console struct {
	backend *sandbox.Store
	server  *httptest.Server
	config  string
}

func newConsole(t *testing.T) *console {
	t.Helper()
	backend := sandbox.New(nil)
	sandbox.Seed(backend)

	srv := httptest.NewServer(medication.Routes("/api", "secret", backend, types.NewValidator(time.Now)))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := filepath.Join(dir, "medreq.yaml")
	yaml := fmt.Sprintf("env: prod\nstorage_path: %s\napi:\n  base_url: %s/api\n  token: secret\n  timeout: 5s\n",
		filepath.Join(dir, "data", "medreq.db"), srv.URL)
	require.NoError(t, os.WriteFile(cfg, []byte(yaml), 0o600))

	return &console{backend: backend, server: srv, config: cfg}
}

// run executes one console invocation and returns what it printed.
func (c *console) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := execute(context.Background(), &out, strings.NewReader(stdin), append([]string{"--config", c.config}, args...))
	return out.String(), err
}

func TestPendingListsOnlyPending(t *testing.T) {
	c := newConsole(t)

	out, err := c.run(t, "", "pending")
	require.NoError(t, err)
	assert.Contains(t, out, "R1")
	assert.Contains(t, out, "Minh Anh Nguyen")
	assert.Contains(t, out, "R3")
	assert.NotContains(t, out, "R4")
	assert.NotContains(t, out, "R5")

	out, err = c.run(t, "", "pending", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "R4")
}

func TestApproveAsksFirst(t *testing.T) {
	c := newConsole(t)

	out, err := c.run(t, "n\n", "approve", "R1")
	require.Error(t, err)
	assert.Contains(t, out, "Approve Paracetamol 500mg for Minh Anh Nguyen? [y/N]")
	r, _ := c.backend.Request("R1")
	assert.Equal(t, types.StatusPending, r.Status)

	out, err = c.run(t, "y\n", "approve", "R1")
	require.NoError(t, err)
	assert.Contains(t, out, "✔ Request R1 approved")
	r, _ = c.backend.Request("R1")
	assert.Equal(t, types.StatusApproved, r.Status)
}

func TestRejectWithoutReason(t *testing.T) {
	c := newConsole(t)

	out, err := c.run(t, "", "--yes", "reject", "R2")
	require.NoError(t, err)
	assert.Contains(t, out, "✔ Request R2 rejected")

	r, _ := c.backend.Request("R2")
	assert.Equal(t, types.StatusRejected, r.Status)
	assert.Empty(t, r.RejectionReason)
}

func TestApproveTwiceIsRefusedLocally(t *testing.T) {
	c := newConsole(t)

	_, err := c.run(t, "", "--yes", "approve", "R3")
	require.NoError(t, err)

	// The refreshed list now shows R3 as APPROVED.
	out, err := c.run(t, "", "--yes", "approve", "R3")
	require.Error(t, err)
	assert.Contains(t, out, "✖")
}

func TestAdministerRecordsDose(t *testing.T) {
	c := newConsole(t)

	out, err := c.run(t, "", "--yes", "administer", "R4", "--notes", "after lunch")
	require.NoError(t, err)
	assert.Contains(t, out, "✔ Administration recorded for request R4")

	r, _ := c.backend.Request("R4")
	require.Len(t, r.AdministrationRecords, 2)
	assert.Equal(t, "after lunch", r.AdministrationRecords[1].Notes)
}

func TestAdministerRejectsFutureTime(t *testing.T) {
	c := newConsole(t)

	future := time.Now().Add(2 * time.Hour).Format(time.RFC3339)
	out, err := c.run(t, "", "--yes", "administer", "R4", "--at", future)
	require.Error(t, err)
	assert.Contains(t, out, "cannot be in the future")

	r, _ := c.backend.Request("R4")
	assert.Len(t, r.AdministrationRecords, 1)
}

func TestShowPrintsHistory(t *testing.T) {
	c := newConsole(t)

	out, err := c.run(t, "", "show", "R4")
	require.NoError(t, err)
	assert.Contains(t, out, "Vy Pham (ST1004)")
	assert.Contains(t, out, "Administered:")
	assert.Contains(t, out, "taken with water")
	assert.Contains(t, out, "administer")
}

func TestInventoryAndClamp(t *testing.T) {
	c := newConsole(t)

	out, err := c.run(t, "", "inventory", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Salbutamol")

	out, err = c.run(t, "", "clamp", "Salbutamol", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "quantity: 3 (requested 5 exceeds stock of 3)")

	out, err = c.run(t, "", "clamp", "Vitamin C", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "quantity: 1 (not stocked")

	out, err = c.run(t, "", "inventory", "add", "--name", "Loratadine", "--dosage", "10mg",
		"--form", "tablet", "--quantity", "20", "--expiry", "2027-03-01")
	require.NoError(t, err)
	assert.Contains(t, out, "✔ Loratadine added to inventory")
	assert.Len(t, c.backend.Inventory(), 4)
}

func TestHistoryShowsJournal(t *testing.T) {
	c := newConsole(t)

	_, err := c.run(t, "", "--yes", "approve", "R1")
	require.NoError(t, err)
	_, err = c.run(t, "", "--yes", "administer", "R2")
	require.Error(t, err)

	out, err := c.run(t, "", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "approve")
	assert.Contains(t, out, "precondition")
}

func TestOfflineFallsBackToSnapshot(t *testing.T) {
	c := newConsole(t)

	_, err := c.run(t, "", "pending")
	require.NoError(t, err)

	c.server.Close()
	out, err := c.run(t, "", "pending")
	require.NoError(t, err)
	assert.Contains(t, out, "showing the list saved at")
	assert.Contains(t, out, "R1")
}

func TestParseWhen(t *testing.T) {
	now := time.Date(2024, 9, 2, 14, 30, 0, 0, time.UTC)

	got, err := parseWhen("", now)
	require.NoError(t, err)
	assert.Equal(t, now, got)

	got, err = parseWhen("11:45", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 9, 2, 11, 45, 0, 0, time.UTC), got)

	got, err = parseWhen("2024-09-01T08:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC), got)

	_, err = parseWhen("noon", now)
	assert.Error(t, err)
}
