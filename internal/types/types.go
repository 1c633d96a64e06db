// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// the API client, the request store, the sandbox handlers and storage
// can all import types without depending on each other.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a medication request.
//
// The backend sometimes reports PENDING_APPROVAL for the same state as
// PENDING. ParseStatus folds the alias so the rest of the code only ever
// compares against StatusPending.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"

	statusPendingApproval = "PENDING_APPROVAL"
)

// ParseStatus converts a raw backend status into its canonical value.
// Unknown values are upper-cased and returned as-is so they still render.
func ParseStatus(raw string) Status {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == statusPendingApproval {
		return StatusPending
	}
	return Status(s)
}

// DateLayout is the calendar-date format used for start/end/expiry dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time-of-day component.
// It accepts both "2006-01-02" and full RFC 3339 timestamps when decoding,
// because the backend is not consistent about which one it sends.
type Date struct {
	time.Time
}

// NewDate builds a Date from year/month/day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses "2006-01-02" or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	y, m, d := t.Date()
	return NewDate(y, m, d), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AdministrationRecord is an immutable log entry created by the backend
// when a nurse confirms a dose was given.
type AdministrationRecord struct {
	AdministrationTime      time.Time `json:"administrationTime"`
	AdministeredByNurseName string    `json:"administeredByNurseName"`
	Notes                   string    `json:"notes"`
}

// MedicationRequest is a parent's request for a nurse to give a student
// medication during school hours.
//
// ID holds the backend's requestId. The API client normalises the wire
// shape, so nothing outside internal/api needs to know the field name.
type MedicationRequest struct {
	ID              string `json:"id"`
	StudentCode     string `json:"studentCode"`
	StudentFullName string `json:"studentFullName"`
	MedicationName  string `json:"medicationName"`
	Dosage          string `json:"dosage"`
	Frequency       string `json:"frequency"`
	StartDate       Date   `json:"startDate"`
	EndDate         Date   `json:"endDate"`
	Status          Status `json:"status"`
	RequestedByName string `json:"requestedByName"`

	// RejectionReason is only meaningful when Status is StatusRejected.
	RejectionReason string `json:"rejectionReason,omitempty"`

	// AdministrationRecords is append-only and only ever non-empty for
	// approved requests.
	AdministrationRecords []AdministrationRecord `json:"administrationRecords"`
}

// Administered reports whether at least one dose has been recorded.
func (r MedicationRequest) Administered() bool {
	return len(r.AdministrationRecords) > 0
}

// Clone returns a deep copy so snapshot readers can never alias the
// store's backing arrays.
func (r MedicationRequest) Clone() MedicationRequest {
	if r.AdministrationRecords != nil {
		recs := make([]AdministrationRecord, len(r.AdministrationRecords))
		copy(recs, r.AdministrationRecords)
		r.AdministrationRecords = recs
	}
	return r
}

// MedicationInventoryItem is one medication stocked in the nurse's office.
// Quantity is decremented by the backend on administration.
type MedicationInventoryItem struct {
	ID             string `json:"medicationId"`
	MedicationName string `json:"medicationName"`
	Dosage         string `json:"dosage"`
	Form           string `json:"form"`
	Quantity       int    `json:"quantity"`
	ExpiryDate     Date   `json:"expiryDate"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Action inputs.
//
// validate:"..." tags are checked by go-playground/validator before any
// network call. Optional text fields use "omitempty": an absent value and
// an empty string are both valid, so a rejection without a reason is never
// blocked.
// ─────────────────────────────────────────────────────────────────────────────

// RejectInput is the body of PUT /medication-requests/{id}/reject.
type RejectInput struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// AdministerInput is the body of POST /medication-requests/{id}/administer.
// The backend reads the notes under two names, so both are sent.
type AdministerInput struct {
	AdministrationTime  time.Time `json:"administrationTime"  validate:"required,notfuture"`
	Notes               string    `json:"notes"               validate:"omitempty,max=1000"`
	AdministrationNotes string    `json:"administrationNotes" validate:"omitempty,max=1000"`
}

// InventoryInput creates or updates an inventory item.
type InventoryInput struct {
	MedicationName string `json:"medicationName" validate:"required,max=200"`
	Dosage         string `json:"dosage"         validate:"omitempty,max=100"`
	Form           string `json:"form"           validate:"omitempty,max=100"`
	Quantity       int    `json:"quantity"       validate:"gte=0"`
	ExpiryDate     Date   `json:"expiryDate"     validate:"required"`
}

// Action names recorded in the journal.
const (
	ActionApprove         = "approve"
	ActionReject          = "reject"
	ActionAdminister      = "administer"
	ActionInventoryCreate = "inventory.create"
	ActionInventoryUpdate = "inventory.update"
)

// ActionRecord is one journal entry: what the nurse tried, against which
// request, and how it ended.
type ActionRecord struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	RequestID string    `json:"requestId"`
	Actor     string    `json:"actor"`
	Succeeded bool      `json:"succeeded"`
	ErrorKind string    `json:"errorKind,omitempty"`
	Message   string    `json:"message,omitempty"`
	At        time.Time `json:"at"`
}
