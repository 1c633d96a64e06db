// Package notify delivers user-facing notifications for action outcomes.
//
// Components receive a Notifier instead of writing to a shared alert
// helper, so the console, the tests and any future front end can each
// decide where messages go.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Notification is one message shown to the user.
type Notification struct {
	Level   Level
	Message string
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Success, Error and Warning are shorthands for Notify.
func Success(ctx context.Context, n Notifier, msg string) {
	n.Notify(ctx, Notification{Level: LevelSuccess, Message: msg})
}

func Error(ctx context.Context, n Notifier, msg string) {
	n.Notify(ctx, Notification{Level: LevelError, Message: msg})
}

func Warning(ctx context.Context, n Notifier, msg string) {
	n.Notify(ctx, Notification{Level: LevelWarning, Message: msg})
}

// Console writes one line per notification to W and mirrors it to slog.
type Console struct {
	mu sync.Mutex
	W  io.Writer
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{W: w}
}

func (c *Console) Notify(ctx context.Context, n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var prefix string
	switch n.Level {
	case LevelSuccess:
		prefix = "✔"
	case LevelError:
		prefix = "✖"
	default:
		prefix = "!"
	}
	fmt.Fprintf(c.W, "%s %s\n", prefix, n.Message)

	level := slog.LevelInfo
	switch n.Level {
	case LevelError:
		level = slog.LevelError
	case LevelWarning:
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "notification", slog.String("message", n.Message))
}

// Recorder keeps notifications in memory. Used by tests.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

// All returns a copy of everything recorded so far.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

// Last returns the most recent notification, or the zero value.
func (r *Recorder) Last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return Notification{}
	}
	return r.sent[len(r.sent)-1]
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(context.Context, Notification) {}
