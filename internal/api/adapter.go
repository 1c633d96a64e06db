package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aanand-mishra/school-health/internal/types"
)

// The backend names the medication request identifier "requestId" and
// the inventory identifier "medicationId", while the rest of the console
// uses a plain ID. Everything that crosses the wire goes through the
// functions in this file; nothing else reads these field names.

// WireRequest is a medication request as the backend sends it.
type WireRequest struct {
	RequestID             json.RawMessage `json:"requestId"`
	StudentCode           string          `json:"studentCode"`
	StudentFullName       string          `json:"studentFullName"`
	MedicationName        string          `json:"medicationName"`
	Dosage                string          `json:"dosage"`
	Frequency             string          `json:"frequency"`
	StartDate             types.Date      `json:"startDate"`
	EndDate               types.Date      `json:"endDate"`
	Status                string          `json:"status"`
	ParentFullName        string          `json:"parentFullName,omitempty"`
	RequestedByName       string          `json:"requestedByName,omitempty"`
	RejectionReason       string          `json:"rejectionReason,omitempty"`
	AdministrationRecords []WireRecord    `json:"administrationRecords,omitempty"`
}

// WireRecord is one administration record on the wire. Older backends
// send the note as administrationNotes and omit the time zone.
type WireRecord struct {
	AdministrationTime      string `json:"administrationTime"`
	AdministeredByNurseName string `json:"administeredByNurseName"`
	Notes                   string `json:"notes,omitempty"`
	AdministrationNotes     string `json:"administrationNotes,omitempty"`
}

// WireInventoryItem is an inventory item as the backend sends it.
type WireInventoryItem struct {
	MedicationID   json.RawMessage `json:"medicationId"`
	MedicationName string          `json:"medicationName"`
	Dosage         string          `json:"dosage"`
	Form           string          `json:"form"`
	Quantity       int             `json:"quantity"`
	ExpiryDate     types.Date      `json:"expiryDate"`
}

var recordTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// NormalizeRequest maps a wire request into the console's model.
// A missing or null requestId yields an empty ID, which the dispatcher
// refuses to act on.
func NormalizeRequest(w WireRequest) types.MedicationRequest {
	req := types.MedicationRequest{
		ID:              rawID(w.RequestID),
		StudentCode:     w.StudentCode,
		StudentFullName: w.StudentFullName,
		MedicationName:  w.MedicationName,
		Dosage:          w.Dosage,
		Frequency:       w.Frequency,
		StartDate:       w.StartDate,
		EndDate:         w.EndDate,
		Status:          types.ParseStatus(w.Status),
		RequestedByName: w.ParentFullName,
	}
	if req.RequestedByName == "" {
		req.RequestedByName = w.RequestedByName
	}
	if req.Status == types.StatusRejected {
		req.RejectionReason = w.RejectionReason
	}
	if req.ID == "" {
		slog.Warn("medication request without requestId",
			slog.String("student_code", w.StudentCode),
			slog.String("medication", w.MedicationName))
	}

	for _, r := range w.AdministrationRecords {
		notes := r.Notes
		if notes == "" {
			notes = r.AdministrationNotes
		}
		req.AdministrationRecords = append(req.AdministrationRecords, types.AdministrationRecord{
			AdministrationTime:      parseRecordTime(r.AdministrationTime),
			AdministeredByNurseName: r.AdministeredByNurseName,
			Notes:                   notes,
		})
	}
	return req
}

// DenormalizeRequest is the inverse of NormalizeRequest. The sandbox
// backend uses it to answer in the backend's shape.
func DenormalizeRequest(r types.MedicationRequest) WireRequest {
	w := WireRequest{
		RequestID:       quoteID(r.ID),
		StudentCode:     r.StudentCode,
		StudentFullName: r.StudentFullName,
		MedicationName:  r.MedicationName,
		Dosage:          r.Dosage,
		Frequency:       r.Frequency,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		Status:          string(r.Status),
		ParentFullName:  r.RequestedByName,
		RejectionReason: r.RejectionReason,
	}
	for _, rec := range r.AdministrationRecords {
		w.AdministrationRecords = append(w.AdministrationRecords, WireRecord{
			AdministrationTime:      rec.AdministrationTime.UTC().Format(time.RFC3339),
			AdministeredByNurseName: rec.AdministeredByNurseName,
			Notes:                   rec.Notes,
		})
	}
	return w
}

// NormalizeInventoryItem maps a wire inventory item into the model.
func NormalizeInventoryItem(w WireInventoryItem) types.MedicationInventoryItem {
	return types.MedicationInventoryItem{
		ID:             rawID(w.MedicationID),
		MedicationName: w.MedicationName,
		Dosage:         w.Dosage,
		Form:           w.Form,
		Quantity:       w.Quantity,
		ExpiryDate:     w.ExpiryDate,
	}
}

// DenormalizeInventoryItem is the inverse of NormalizeInventoryItem.
func DenormalizeInventoryItem(it types.MedicationInventoryItem) WireInventoryItem {
	return WireInventoryItem{
		MedicationID:   quoteID(it.ID),
		MedicationName: it.MedicationName,
		Dosage:         it.Dosage,
		Form:           it.Form,
		Quantity:       it.Quantity,
		ExpiryDate:     it.ExpiryDate,
	}
}

// rawID accepts a JSON string or number and returns it as a string.
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		s, err := strconv.Unquote(string(raw))
		if err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return n.String()
}

func quoteID(id string) json.RawMessage {
	if id == "" {
		return json.RawMessage("null")
	}
	return json.RawMessage(strconv.Quote(id))
}

func parseRecordTime(s string) time.Time {
	for _, layout := range recordTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if s != "" {
		slog.Warn("unparseable administration time", slog.String("value", s))
	}
	return time.Time{}
}

// decodeList accepts either a bare JSON array or an object wrapping the
// array under "data".
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	var out []T
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, nil
	}
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var wrapped struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Data == nil {
		return nil, fmt.Errorf("unexpected list payload")
	}
	return wrapped.Data, nil
}
