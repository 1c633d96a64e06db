package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aanand-mishra/school-health/internal/api"
	"github.com/aanand-mishra/school-health/internal/auth"
	"github.com/aanand-mishra/school-health/internal/clock"
	"github.com/aanand-mishra/school-health/internal/config"
	"github.com/aanand-mishra/school-health/internal/inventory"
	"github.com/aanand-mishra/school-health/internal/logger"
	"github.com/aanand-mishra/school-health/internal/medreq"
	"github.com/aanand-mishra/school-health/internal/notify"
	"github.com/aanand-mishra/school-health/internal/storage/sqlite"
)

// app holds everything a subcommand needs. It is built once per process in
// the root command's PersistentPreRunE.
type app struct {
	out io.Writer
	in  *bufio.Reader

	configPath string
	yes        bool

	cfg      *config.Config
	clock    clock.Clock
	db       *sqlite.SQLite
	store    *medreq.Store
	catalog  *inventory.Catalog
	dispatch *medreq.Dispatcher
}

func (a *app) open(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	// Logs go to stderr so stdout stays readable (and pipeable).
	slog.SetDefault(logger.New(cfg.Env, os.Stderr))

	if dir := filepath.Dir(cfg.StoragePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create storage dir: %w", err)
		}
	}
	db, err := sqlite.New(cfg.StoragePath)
	if err != nil {
		return err
	}
	a.db = db

	a.clock = clock.New()
	var tokens auth.TokenSource = auth.Static{Value: cfg.API.Token, Clock: a.clock}
	if cfg.API.Token == "" {
		tokens = auth.File{Path: cfg.API.TokenFile, Clock: a.clock}
	}
	var actor string
	if tok, err := tokens.Token(ctx); err == nil {
		actor = auth.Subject(tok)
	}

	client := api.New(cfg.API.BaseURL, tokens, cfg.API.Timeout)

	a.store = medreq.NewStore(client, db, a.clock)
	a.catalog = inventory.NewCatalog(client)

	var confirm medreq.Confirmer = medreq.ConfirmFunc(a.prompt)
	if a.yes {
		confirm = medreq.AlwaysConfirm
	}
	a.dispatch = medreq.NewDispatcher(a.store, client, medreq.Options{
		Confirmer: confirm,
		Notifier:  notify.NewConsole(a.out),
		Journal:   db,
		Catalog:   a.catalog,
		Clock:     a.clock,
		Actor:     actor,
	})

	slog.Debug("console ready",
		slog.String("base_url", cfg.API.BaseURL),
		slog.String("storage", cfg.StoragePath))
	return nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
}

// prompt asks a y/N question on the console.
func (a *app) prompt(_ context.Context, question string) (bool, error) {
	fmt.Fprintf(a.out, "%s [y/N] ", question)
	line, err := a.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// load refreshes the request list, falling back to the saved snapshot
// when the backend cannot be reached.
func (a *app) load(ctx context.Context) error {
	err := a.store.Refresh(ctx)
	if err == nil {
		return nil
	}
	if rerr := a.store.Restore(ctx); rerr != nil {
		slog.Warn("could not restore snapshot", slog.String("error", rerr.Error()))
	}
	if at := a.store.FetchedAt(); !at.IsZero() {
		fmt.Fprintf(a.out, "! %s\n! showing the list saved at %s\n",
			a.store.ErrMessage(), at.Local().Format("2006-01-02 15:04"))
		return nil
	}
	return errors.New(a.store.ErrMessage())
}
