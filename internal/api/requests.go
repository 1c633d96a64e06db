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

var errEmptyID = errors.New("medication request id is empty")

// PendingRequests fetches GET /medication-requests/pending?includeDetails=true.
func (c *Client) PendingRequests(ctx context.Context) ([]types.MedicationRequest, error) {
	var raw json.RawMessage
	params := url.Values{"includeDetails": []string{"true"}}
	if err := c.do(ctx, http.MethodGet, requestsPath+"/pending", params, nil, &raw); err != nil {
		return nil, err
	}

	wire, err := decodeList[WireRequest](raw)
	if err != nil {
		return nil, &Error{Kind: KindServer, StatusCode: http.StatusOK,
			Err: fmt.Errorf("decode pending requests: %w", err)}
	}

	out := make([]types.MedicationRequest, 0, len(wire))
	for _, w := range wire {
		out = append(out, NormalizeRequest(w))
	}
	return out, nil
}

// ApproveRequest sends PUT /medication-requests/{id}/approve with no body.
func (c *Client) ApproveRequest(ctx context.Context, id string) error {
	if id == "" {
		return Precondition(errEmptyID)
	}
	return c.do(ctx, http.MethodPut, requestPath(id, "approve"), nil, nil, nil)
}

// RejectRequest sends PUT /medication-requests/{id}/reject with {"reason": ...}.
// An empty reason is sent as "".
func (c *Client) RejectRequest(ctx context.Context, id string, in types.RejectInput) error {
	if id == "" {
		return Precondition(errEmptyID)
	}
	return c.do(ctx, http.MethodPut, requestPath(id, "reject"), nil, in, nil)
}

// AdministerRequest sends POST /medication-requests/{id}/administer.
// AdministrationNotes is filled from Notes when unset.
func (c *Client) AdministerRequest(ctx context.Context, id string, in types.AdministerInput) error {
	if id == "" {
		return Precondition(errEmptyID)
	}
	if in.AdministrationNotes == "" {
		in.AdministrationNotes = in.Notes
	}
	return c.do(ctx, http.MethodPost, requestPath(id, "administer"), nil, in, nil)
}
