package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aanand-mishra/school-health/internal/types"
)

// Inventory fetches GET /medications/inventory.
func (c *Client) Inventory(ctx context.Context) ([]types.MedicationInventoryItem, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, inventoryPath, nil, nil, &raw); err != nil {
		return nil, err
	}

	wire, err := decodeList[WireInventoryItem](raw)
	if err != nil {
		return nil, &Error{Kind: KindServer, StatusCode: http.StatusOK,
			Err: fmt.Errorf("decode inventory: %w", err)}
	}

	out := make([]types.MedicationInventoryItem, 0, len(wire))
	for _, w := range wire {
		out = append(out, NormalizeInventoryItem(w))
	}
	return out, nil
}

// CreateInventoryItem sends POST /medications/inventory.
func (c *Client) CreateInventoryItem(ctx context.Context, in types.InventoryInput) (types.MedicationInventoryItem, error) {
	var w WireInventoryItem
	if err := c.do(ctx, http.MethodPost, inventoryPath, nil, in, &w); err != nil {
		return types.MedicationInventoryItem{}, err
	}
	return NormalizeInventoryItem(w), nil
}

// UpdateInventoryItem sends PUT /medications/inventory/{medicationId}.
func (c *Client) UpdateInventoryItem(ctx context.Context, id string, in types.InventoryInput) (types.MedicationInventoryItem, error) {
	if id == "" {
		return types.MedicationInventoryItem{}, Precondition(errors.New("medication id is empty"))
	}
	var w WireInventoryItem
	path := inventoryPath + "/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPut, path, nil, in, &w); err != nil {
		return types.MedicationInventoryItem{}, err
	}
	return NormalizeInventoryItem(w), nil
}
