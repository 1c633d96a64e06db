// Package storage defines the local persistence contracts the console
// relies on. The backend stays authoritative for every request; what is
// kept here is the nurse's own trail (the action journal) and the last
// list the server returned, so the console can show something when the
// network is down.
package storage

import (
	"context"
	"time"

	"github.com/aanand-mishra/school-health/internal/types"
)

// Journal records every dispatched action, success or failure.
type Journal interface {
	// RecordAction appends one entry. Entries are never updated.
	RecordAction(ctx context.Context, rec types.ActionRecord) error

	// ListActions returns the newest entries first, at most limit of them.
	ListActions(ctx context.Context, limit int) ([]types.ActionRecord, error)
}

// Snapshotter keeps the last-known-good pending-request list.
type Snapshotter interface {
	// SaveSnapshot replaces the stored list wholesale.
	SaveSnapshot(ctx context.Context, reqs []types.MedicationRequest, at time.Time) error

	// LoadSnapshot returns the stored list and when it was saved.
	// A never-saved store returns an empty list and a zero time.
	LoadSnapshot(ctx context.Context) ([]types.MedicationRequest, time.Time, error)
}

// Storage is everything the console persists.
type Storage interface {
	Journal
	Snapshotter
	Close() error
}
