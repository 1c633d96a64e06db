// Package medication contains the sandbox HTTP handlers for medication
// requests and the medication inventory.
//
// HANDLER PATTERN: THE CLOSURE / FACTORY PATTERN:
// ────────────────────────────────────────────────
// Each exported function receives its dependencies (the backend and the
// validator) once at startup and returns the http.HandlerFunc the router
// calls on every request:
//
//	router.HandleFunc("PUT /api/medication-requests/{id}/approve", medication.Approve(backend))
//
// Responses use the backend's wire shape (requestId / medicationId), built
// with api.DenormalizeRequest so the console's adapter is exercised for real.
package medication

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aanand-mishra/school-health/internal/api"
	"github.com/aanand-mishra/school-health/internal/auth"
	"github.com/aanand-mishra/school-health/internal/sandbox"
	"github.com/aanand-mishra/school-health/internal/types"
	"github.com/aanand-mishra/school-health/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

// Backend is what the handlers need from the sandbox state.
// *sandbox.Store satisfies it.
type Backend interface {
	Pending() []types.MedicationRequest
	Approve(id string) error
	Reject(id, reason string) error
	Administer(id string, at time.Time, nurse, notes string) error

	Inventory() []types.MedicationInventoryItem
	CreateItem(in types.InventoryInput) types.MedicationInventoryItem
	UpdateItem(id string, in types.InventoryInput) (types.MedicationInventoryItem, error)
}

// defaultNurse labels administration records when the bearer token carries
// no subject.
const defaultNurse = "School Nurse"

// ─────────────────────────────────────────────────────────────────────────────
// Pending handles GET /api/medication-requests/pending
//
// Success response (200 OK): a JSON array of requests, PENDING and
// APPROVED only. Returns [] (not null) when there are none.
// ─────────────────────────────────────────────────────────────────────────────
func Pending(backend Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("listing pending medication requests",
			slog.String("include_details", r.URL.Query().Get("includeDetails")))

		reqs := backend.Pending()
		out := make([]api.WireRequest, 0, len(reqs))
		for _, req := range reqs {
			out = append(out, api.DenormalizeRequest(req))
		}
		response.WriteJSON(w, http.StatusOK, out)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Approve handles PUT /api/medication-requests/{id}/approve
//
// Error responses:
//
//	404 Not Found   unknown id
//	409 Conflict    request is not PENDING
//
// ─────────────────────────────────────────────────────────────────────────────
func Approve(backend Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("approving medication request", slog.String("id", id))

		if err := backend.Approve(id); err != nil {
			writeBackendError(w, id, err)
			return
		}

		slog.Info("medication request approved", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, response.Response{Status: response.StatusOK, Message: "approved"})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Reject handles PUT /api/medication-requests/{id}/reject
//
// Request body (JSON), reason optional and may be empty:
//
//	{ "reason": "no doctor's note" }
//
// ─────────────────────────────────────────────────────────────────────────────
func Reject(backend Backend, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("rejecting medication request", slog.String("id", id))

		var in types.RejectInput
		if !decode(w, r, &in, true) {
			return
		}
		if !valid(w, validate, in) {
			return
		}

		if err := backend.Reject(id, in.Reason); err != nil {
			writeBackendError(w, id, err)
			return
		}

		slog.Info("medication request rejected", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, response.Response{Status: response.StatusOK, Message: "rejected"})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Administer handles POST /api/medication-requests/{id}/administer
//
// Request body (JSON):
//
//	{ "administrationTime": "2024-09-02T10:15:00Z", "notes": "...", "administrationNotes": "..." }
//
// Error responses:
//
//	400 Bad Request  missing/future time, or malformed body
//	404 Not Found    unknown id
//	409 Conflict     request not APPROVED, or medication out of stock
//
// ─────────────────────────────────────────────────────────────────────────────
func Administer(backend Backend, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("administering medication request", slog.String("id", id))

		var in types.AdministerInput
		if !decode(w, r, &in, false) {
			return
		}
		if !valid(w, validate, in) {
			return
		}

		notes := in.Notes
		if notes == "" {
			notes = in.AdministrationNotes
		}
		nurse := nurseName(r)

		if err := backend.Administer(id, in.AdministrationTime, nurse, notes); err != nil {
			writeBackendError(w, id, err)
			return
		}

		slog.Info("medication administered",
			slog.String("id", id),
			slog.String("nurse", nurse))
		response.WriteJSON(w, http.StatusCreated, response.Response{Status: response.StatusOK, Message: "administered"})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Inventory handlers: GET / POST /api/medications/inventory,
// PUT /api/medications/inventory/{id}
// ─────────────────────────────────────────────────────────────────────────────

func ListInventory(backend Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("listing medication inventory")

		items := backend.Inventory()
		out := make([]api.WireInventoryItem, 0, len(items))
		for _, it := range items {
			out = append(out, api.DenormalizeInventoryItem(it))
		}
		response.WriteJSON(w, http.StatusOK, out)
	}
}

func CreateInventory(backend Backend, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating inventory item")

		var in types.InventoryInput
		if !decode(w, r, &in, false) {
			return
		}
		if !valid(w, validate, in) {
			return
		}

		it := backend.CreateItem(in)
		slog.Info("inventory item created", slog.String("id", it.ID))
		response.WriteJSON(w, http.StatusCreated, api.DenormalizeInventoryItem(it))
	}
}

func UpdateInventory(backend Backend, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating inventory item", slog.String("id", id))

		var in types.InventoryInput
		if !decode(w, r, &in, false) {
			return
		}
		if !valid(w, validate, in) {
			return
		}

		it, err := backend.UpdateItem(id, in)
		if err != nil {
			writeBackendError(w, id, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, api.DenormalizeInventoryItem(it))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// RequireBearer rejects requests without "Authorization: Bearer <token>".
// When want is non-empty the token must match it exactly.
// ─────────────────────────────────────────────────────────────────────────────
func RequireBearer(want string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearer(r)
		if !ok || (want != "" && token != want) {
			slog.Warn("unauthorised request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path))
			response.WriteJSON(w, http.StatusUnauthorized,
				response.GeneralError(errors.New("missing or invalid bearer token")))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

func nurseName(r *http.Request) string {
	token, _ := bearer(r)
	if sub := auth.Subject(token); sub != "" {
		return sub
	}
	return defaultNurse
}

// decode reads the JSON body into v. An empty body is an error unless
// allowEmpty is set.
func decode(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		if allowEmpty {
			return true
		}
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("request body is empty")))
		return false
	}
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}
	return true
}

func valid(w http.ResponseWriter, validate *validator.Validate, v any) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(verrs))
		return false
	}
	response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
	return false
}

func writeBackendError(w http.ResponseWriter, id string, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, sandbox.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, sandbox.ErrConflict):
		status = http.StatusConflict
	}
	slog.Error("backend rejected action",
		slog.String("id", id),
		slog.Int("status", status),
		slog.String("error", err.Error()))
	response.WriteJSON(w, status, response.GeneralError(err))
}
