package medreq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aanand-mishra/school-health/internal/api"
	"github.com/aanand-mishra/school-health/internal/clock"
	"github.com/aanand-mishra/school-health/internal/inventory"
	"github.com/aanand-mishra/school-health/internal/notify"
	"github.com/aanand-mishra/school-health/internal/storage"
	"github.com/aanand-mishra/school-health/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Client-side failures. Each is returned wrapped in an *api.Error of kind
// api.KindPrecondition and never reaches the server.
var (
	ErrMissingID    = errors.New("medication request has no id")
	ErrNotLoaded    = errors.New("medication request is not in the current list; refresh and try again")
	ErrInvalidState = errors.New("action not allowed in the request's current state")
	ErrInFlight     = errors.New("an action for this request is already in progress")
	ErrNotConfirmed = errors.New("action cancelled")
)

// Backend performs the mutating calls. *api.Client satisfies it.
type Backend interface {
	ApproveRequest(ctx context.Context, id string) error
	RejectRequest(ctx context.Context, id string, in types.RejectInput) error
	AdministerRequest(ctx context.Context, id string, in types.AdministerInput) error
	CreateInventoryItem(ctx context.Context, in types.InventoryInput) (types.MedicationInventoryItem, error)
	UpdateInventoryItem(ctx context.Context, id string, in types.InventoryInput) (types.MedicationInventoryItem, error)
}

// Confirmer asks the user to acknowledge an irreversible action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AlwaysConfirm accepts every prompt (the console's --yes).
var AlwaysConfirm = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// Actions lists what a request currently allows.
type Actions struct {
	Approve    bool
	Reject     bool
	Administer bool
}

// Available reports the actions allowed for r.
func Available(r types.MedicationRequest) Actions {
	pending := r.Status == types.StatusPending
	return Actions{
		Approve:    pending,
		Reject:     pending,
		Administer: r.Status == types.StatusApproved,
	}
}

// Options carries the Dispatcher's optional collaborators.
type Options struct {
	Confirmer Confirmer
	Notifier  notify.Notifier
	Journal   storage.Journal
	Catalog   *inventory.Catalog
	Clock     clock.Clock

	// Actor labels journal entries, e.g. the token subject.
	Actor string
}

// Dispatcher turns user intents into backend calls.
//
// Every action runs the same pipeline: local precondition checks, an
// in-flight guard per request id, a confirmation prompt, the HTTP call,
// then a full Store refresh. Every outcome becomes a notification and a
// journal entry; the error is also returned.
type Dispatcher struct {
	store    *Store
	backend  Backend
	confirm  Confirmer
	notifier notify.Notifier
	journal  storage.Journal
	catalog  *inventory.Catalog
	clock    clock.Clock
	validate *validator.Validate
	actor    string

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewDispatcher wires a Dispatcher. Unset options fall back to: confirm
// nothing (every action is cancelled), discard notifications, no journal,
// wall clock.
func NewDispatcher(store *Store, backend Backend, opts Options) *Dispatcher {
	d := &Dispatcher{
		store:    store,
		backend:  backend,
		confirm:  opts.Confirmer,
		notifier: opts.Notifier,
		journal:  opts.Journal,
		catalog:  opts.Catalog,
		clock:    opts.Clock,
		actor:    opts.Actor,
		inFlight: make(map[string]struct{}),
	}
	if d.confirm == nil {
		d.confirm = ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })
	}
	if d.notifier == nil {
		d.notifier = notify.Discard{}
	}
	if d.clock == nil {
		d.clock = clock.New()
	}
	d.validate = types.NewValidator(d.clock.Now)
	return d
}

// Approve moves a PENDING request to APPROVED.
func (d *Dispatcher) Approve(ctx context.Context, id string) error {
	return d.run(ctx, action{
		name:    types.ActionApprove,
		id:      id,
		allowed: func(r types.MedicationRequest) bool { return Available(r).Approve },
		prompt: func(r types.MedicationRequest) string {
			return fmt.Sprintf("Approve %s %s for %s?", r.MedicationName, r.Dosage, r.StudentFullName)
		},
		call: func(ctx context.Context) error {
			return d.backend.ApproveRequest(ctx, id)
		},
		success: fmt.Sprintf("Request %s approved", id),
	})
}

// Reject moves a PENDING request to REJECTED. reason may be empty.
func (d *Dispatcher) Reject(ctx context.Context, id, reason string) error {
	in := types.RejectInput{Reason: reason}
	return d.run(ctx, action{
		name:    types.ActionReject,
		id:      id,
		input:   in,
		allowed: func(r types.MedicationRequest) bool { return Available(r).Reject },
		prompt: func(r types.MedicationRequest) string {
			return fmt.Sprintf("Reject %s for %s?", r.MedicationName, r.StudentFullName)
		},
		call: func(ctx context.Context) error {
			return d.backend.RejectRequest(ctx, id, in)
		},
		success: fmt.Sprintf("Request %s rejected", id),
	})
}

// Administer records a dose for an APPROVED request. at must not be in the
// future; the backend appends the administration record.
func (d *Dispatcher) Administer(ctx context.Context, id string, at time.Time, notes string) error {
	in := types.AdministerInput{AdministrationTime: at, Notes: notes, AdministrationNotes: notes}
	return d.run(ctx, action{
		name:    types.ActionAdminister,
		id:      id,
		input:   in,
		allowed: func(r types.MedicationRequest) bool { return Available(r).Administer },
		prompt: func(r types.MedicationRequest) string {
			return fmt.Sprintf("Record %s %s given to %s at %s?",
				r.MedicationName, r.Dosage, r.StudentFullName, at.Local().Format("15:04 02 Jan"))
		},
		call: func(ctx context.Context) error {
			return d.backend.AdministerRequest(ctx, id, in)
		},
		success: fmt.Sprintf("Administration recorded for request %s", id),
	})
}

// ViewDetails returns a request from the current list. It never calls the
// backend.
func (d *Dispatcher) ViewDetails(ctx context.Context, id string) (types.MedicationRequest, error) {
	if id == "" {
		return types.MedicationRequest{}, d.fail(ctx, api.Precondition(ErrMissingID))
	}
	r, ok := d.store.Find(id)
	if !ok {
		return types.MedicationRequest{}, d.fail(ctx, api.Precondition(fmt.Errorf("%s: %w", id, ErrNotLoaded)))
	}
	return r, nil
}

// CreateInventoryItem adds a medication to the inventory and reloads the
// catalog.
func (d *Dispatcher) CreateInventoryItem(ctx context.Context, in types.InventoryInput) (types.MedicationInventoryItem, error) {
	var created types.MedicationInventoryItem
	err := d.mutateInventory(ctx, types.ActionInventoryCreate, "", in, func(ctx context.Context) error {
		var err error
		created, err = d.backend.CreateInventoryItem(ctx, in)
		return err
	}, fmt.Sprintf("%s added to inventory", in.MedicationName))
	return created, err
}

// UpdateInventoryItem replaces an inventory item and reloads the catalog.
func (d *Dispatcher) UpdateInventoryItem(ctx context.Context, id string, in types.InventoryInput) (types.MedicationInventoryItem, error) {
	var updated types.MedicationInventoryItem
	err := d.mutateInventory(ctx, types.ActionInventoryUpdate, id, in, func(ctx context.Context) error {
		if id == "" {
			return api.Precondition(errors.New("medication id is empty"))
		}
		var err error
		updated, err = d.backend.UpdateInventoryItem(ctx, id, in)
		return err
	}, fmt.Sprintf("%s updated", in.MedicationName))
	return updated, err
}

type action struct {
	name    string
	id      string
	input   any
	allowed func(types.MedicationRequest) bool
	prompt  func(types.MedicationRequest) string
	call    func(context.Context) error
	success string
}

// run holds the in-flight guard for a.id until the store has been
// refreshed, so a repeat submission cannot act on the pre-action list.
func (d *Dispatcher) run(ctx context.Context, a action) error {
	held, err := d.execute(ctx, a)
	if held {
		defer d.release(a.id)
	}
	if errors.Is(err, ErrNotConfirmed) {
		slog.Info("action cancelled", slog.String("action", a.name), slog.String("id", a.id))
		return err
	}
	d.record(ctx, a.name, a.id, err)
	if err != nil {
		return d.fail(ctx, err)
	}

	notify.Success(ctx, d.notifier, a.success)
	if rerr := d.store.Refresh(ctx); rerr != nil {
		notify.Warning(ctx, d.notifier, "The list could not be refreshed: "+api.UserMessage(rerr))
	}
	return nil
}

// execute runs every check, confirmation and the backend call. held reports
// whether it took the in-flight guard; the caller releases it.
func (d *Dispatcher) execute(ctx context.Context, a action) (held bool, err error) {
	if a.id == "" {
		return false, api.Precondition(ErrMissingID)
	}
	req, ok := d.store.Find(a.id)
	if !ok {
		return false, api.Precondition(fmt.Errorf("%s: %w", a.id, ErrNotLoaded))
	}
	if !a.allowed(req) {
		return false, api.Precondition(fmt.Errorf("cannot %s request %s while it is %s: %w",
			a.name, a.id, req.Status, ErrInvalidState))
	}
	if a.input != nil {
		if err := d.validate.Struct(a.input); err != nil {
			return false, api.Precondition(err)
		}
	}

	if !d.acquire(a.id) {
		return false, api.Precondition(fmt.Errorf("%s: %w", a.id, ErrInFlight))
	}

	ok, err = d.confirm.Confirm(ctx, a.prompt(req))
	if err != nil {
		return true, api.Precondition(fmt.Errorf("confirmation: %w", err))
	}
	if !ok {
		return true, api.Precondition(ErrNotConfirmed)
	}

	slog.Info("dispatching action", slog.String("action", a.name), slog.String("id", a.id))
	return true, a.call(ctx)
}

func (d *Dispatcher) mutateInventory(ctx context.Context, name, id string, in types.InventoryInput, call func(context.Context) error, success string) error {
	err := d.validate.Struct(in)
	if err != nil {
		err = api.Precondition(err)
	} else {
		err = call(ctx)
	}
	d.record(ctx, name, id, err)
	if err != nil {
		return d.fail(ctx, err)
	}

	notify.Success(ctx, d.notifier, success)
	if d.catalog != nil {
		if rerr := d.catalog.Refresh(ctx); rerr != nil {
			notify.Warning(ctx, d.notifier, "The inventory could not be refreshed: "+api.UserMessage(rerr))
		}
	}
	return nil
}

// acquire marks id as in flight; false if it already was.
func (d *Dispatcher) acquire(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, busy := d.inFlight[id]; busy {
		return false
	}
	d.inFlight[id] = struct{}{}
	return true
}

func (d *Dispatcher) release(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inFlight, id)
}

func (d *Dispatcher) fail(ctx context.Context, err error) error {
	slog.Warn("action failed",
		slog.String("kind", api.KindOf(err).String()),
		slog.String("error", err.Error()))
	notify.Error(ctx, d.notifier, api.UserMessage(err))
	return err
}

func (d *Dispatcher) record(ctx context.Context, name, id string, err error) {
	if d.journal == nil {
		return
	}
	rec := types.ActionRecord{
		ID:        uuid.NewString(),
		Action:    name,
		RequestID: id,
		Actor:     d.actor,
		Succeeded: err == nil,
		At:        d.clock.Now(),
	}
	if err != nil {
		rec.ErrorKind = api.KindOf(err).String()
		rec.Message = api.UserMessage(err)
	}
	if jerr := d.journal.RecordAction(ctx, rec); jerr != nil {
		slog.Warn("failed to record action", slog.String("error", jerr.Error()))
	}
}
