package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/aanand-mishra/school-health/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stock = []types.MedicationInventoryItem{
	{ID: "M1", MedicationName: "Paracetamol", Quantity: 5},
	{ID: "M2", MedicationName: "Salbutamol", Quantity: 0},
}

func TestClamp(t *testing.T) {
	cases := []struct {
		name      string
		med       string
		requested int
		want      Result
	}{
		{"exceeds stock", "Paracetamol", 999, Result{Quantity: 5, ExceedsStock: true, Managed: true, Available: 5}},
		{"within stock", "Paracetamol", 3, Result{Quantity: 3, Managed: true, Available: 5}},
		{"exactly stock", "Paracetamol", 5, Result{Quantity: 5, Managed: true, Available: 5}},
		{"zero floors to one", "Paracetamol", 0, Result{Quantity: 1, Managed: true, Available: 5}},
		{"negative floors to one", "Paracetamol", -4, Result{Quantity: 1, Managed: true, Available: 5}},
		{"unknown medication untouched", "Unknown", 50, Result{Quantity: 50}},
		{"unknown medication floored", "Unknown", 0, Result{Quantity: 1}},
		{"name match is exact", "paracetamol", 50, Result{Quantity: 50}},
		{"out of stock", "Salbutamol", 2, Result{Quantity: 0, ExceedsStock: true, Managed: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Clamp(tc.med, tc.requested, stock))
		})
	}
}

type fakeLister struct {
	items []types.MedicationInventoryItem
	err   error
}

func (f *fakeLister) Inventory(context.Context) ([]types.MedicationInventoryItem, error) {
	return f.items, f.err
}

func TestCatalogKeepsLastGoodList(t *testing.T) {
	ctx := context.Background()
	l := &fakeLister{items: stock}
	c := NewCatalog(l)

	require.NoError(t, c.Refresh(ctx))
	assert.Len(t, c.Items(), 2)
	assert.Equal(t, 5, c.Clamp("Paracetamol", 10).Quantity)

	l.err = errors.New("connection refused")
	assert.Error(t, c.Refresh(ctx))
	assert.Error(t, c.Err())
	assert.Len(t, c.Items(), 2)

	l.err = nil
	l.items = stock[:1]
	require.NoError(t, c.Refresh(ctx))
	assert.NoError(t, c.Err())
	assert.Len(t, c.Items(), 1)
}
