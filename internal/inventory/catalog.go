package inventory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aanand-mishra/school-health/internal/types"
)

// Lister fetches the inventory from the backend.
type Lister interface {
	Inventory(ctx context.Context) ([]types.MedicationInventoryItem, error)
}

// Catalog holds the latest inventory list, used as the guard's lookup
// table. Like the request store it is replaced wholesale on every refresh.
type Catalog struct {
	lister Lister

	mu    sync.RWMutex
	items []types.MedicationInventoryItem
	err   error
}

// NewCatalog returns an empty Catalog; call Refresh to load it.
func NewCatalog(lister Lister) *Catalog {
	return &Catalog{lister: lister}
}

// Refresh reloads the list. On failure the previous list is kept and the
// error is returned and remembered.
func (c *Catalog) Refresh(ctx context.Context) error {
	items, err := c.lister.Inventory(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.err = err
		slog.Warn("inventory refresh failed", slog.String("error", err.Error()))
		return err
	}
	c.items = items
	c.err = nil
	slog.Debug("inventory refreshed", slog.Int("items", len(items)))
	return nil
}

// Items returns a copy of the current list.
func (c *Catalog) Items() []types.MedicationInventoryItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]types.MedicationInventoryItem, len(c.items))
	copy(out, c.items)
	return out
}

// Err is the error from the last Refresh, nil after a success.
func (c *Catalog) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Clamp runs the guard against the current list.
func (c *Catalog) Clamp(name string, requested int) Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Clamp(name, requested, c.items)
}
