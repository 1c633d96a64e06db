// Package sandbox is an in-memory stand-in for the medication backend.
//
// It enforces the same transitions the real backend does (approve/reject
// only from PENDING, administer only from APPROVED, stock decremented on
// administration) so the console can be exercised end to end without a
// deployment. State lives for the life of the process.
package sandbox

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aanand-mishra/school-health/internal/clock"
	"github.com/aanand-mishra/school-health/internal/types"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Store holds requests and inventory. Safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	clock     clock.Clock
	requests  map[string]*types.MedicationRequest
	order     []string
	inventory map[string]*types.MedicationInventoryItem
}

// New returns an empty Store.
func New(clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.New()
	}
	return &Store{
		clock:     clk,
		requests:  make(map[string]*types.MedicationRequest),
		inventory: make(map[string]*types.MedicationInventoryItem),
	}
}

// AddRequest inserts r as-is. An empty ID is replaced with a new one.
func (s *Store) AddRequest(r types.MedicationRequest) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = types.StatusPending
	}
	if _, ok := s.requests[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	c := r.Clone()
	s.requests[r.ID] = &c
	return r.ID
}

// Request returns one request regardless of status.
func (s *Store) Request(id string) (types.MedicationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return types.MedicationRequest{}, fmt.Errorf("medication request %s: %w", id, ErrNotFound)
	}
	return r.Clone(), nil
}

// Pending returns requests still awaiting a nurse: PENDING, or APPROVED
// and open for administration. Rejected requests are dropped.
func (s *Store) Pending() []types.MedicationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.MedicationRequest, 0, len(s.order))
	for _, id := range s.order {
		r := s.requests[id]
		if r.Status == types.StatusPending || r.Status == types.StatusApproved {
			out = append(out, r.Clone())
		}
	}
	return out
}

// Approve moves a PENDING request to APPROVED.
func (s *Store) Approve(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.pendingLocked(id)
	if err != nil {
		return err
	}
	r.Status = types.StatusApproved
	return nil
}

// Reject moves a PENDING request to REJECTED. An empty reason is fine.
func (s *Store) Reject(id, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.pendingLocked(id)
	if err != nil {
		return err
	}
	r.Status = types.StatusRejected
	r.RejectionReason = reason
	return nil
}

// Administer appends a record to an APPROVED request and takes one unit
// from the matching inventory item, if any.
func (s *Store) Administer(id string, at time.Time, nurse, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return fmt.Errorf("medication request %s: %w", id, ErrNotFound)
	}
	if r.Status != types.StatusApproved {
		return fmt.Errorf("medication request %s is %s, not APPROVED: %w", id, r.Status, ErrConflict)
	}
	if at.After(s.clock.Now()) {
		return errors.New("administration time cannot be in the future")
	}

	if item, ok := lo.Find(lo.Values(s.inventory), func(it *types.MedicationInventoryItem) bool {
		return it.MedicationName == r.MedicationName
	}); ok {
		if item.Quantity < 1 {
			return fmt.Errorf("%s is out of stock: %w", item.MedicationName, ErrConflict)
		}
		item.Quantity--
	}

	r.AdministrationRecords = append(r.AdministrationRecords, types.AdministrationRecord{
		AdministrationTime:      at,
		AdministeredByNurseName: nurse,
		Notes:                   notes,
	})
	return nil
}

func (s *Store) pendingLocked(id string) (*types.MedicationRequest, error) {
	r, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("medication request %s: %w", id, ErrNotFound)
	}
	if r.Status != types.StatusPending {
		return nil, fmt.Errorf("medication request %s is already %s: %w", id, r.Status, ErrConflict)
	}
	return r, nil
}

// Inventory returns all items sorted by name.
func (s *Store) Inventory() []types.MedicationInventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := lo.Map(lo.Values(s.inventory), func(it *types.MedicationInventoryItem, _ int) types.MedicationInventoryItem {
		return *it
	})
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].MedicationName) < strings.ToLower(out[j].MedicationName)
	})
	return out
}

// CreateItem adds an inventory item with a new ID.
func (s *Store) CreateItem(in types.InventoryInput) types.MedicationInventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := types.MedicationInventoryItem{
		ID:             uuid.NewString(),
		MedicationName: in.MedicationName,
		Dosage:         in.Dosage,
		Form:           in.Form,
		Quantity:       in.Quantity,
		ExpiryDate:     in.ExpiryDate,
	}
	s.inventory[it.ID] = &it
	return it
}

// UpdateItem replaces every field of an existing item.
func (s *Store) UpdateItem(id string, in types.InventoryInput) (types.MedicationInventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.inventory[id]
	if !ok {
		return types.MedicationInventoryItem{}, fmt.Errorf("medication %s: %w", id, ErrNotFound)
	}
	it.MedicationName = in.MedicationName
	it.Dosage = in.Dosage
	it.Form = in.Form
	it.Quantity = in.Quantity
	it.ExpiryDate = in.ExpiryDate
	return *it, nil
}
