// medreq is the nurse console for medication requests.
//
// It lists pending requests, approves, rejects and records administrations,
// and keeps the medication inventory up to date, all against the school
// health backend configured in the YAML file.
//
//	go run ./cmd/medreq --config=config/local.yaml pending
//	go run ./cmd/medreq approve R1
//	go run ./cmd/medreq reject R3 --reason "no doctor's note"
//	go run ./cmd/medreq administer R4 --at 11:45 --notes "after lunch"
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aanand-mishra/school-health/internal/api"
	"github.com/aanand-mishra/school-health/internal/medreq"
)

func main() {
	if err := execute(context.Background(), os.Stdout, os.Stdin, os.Args[1:]); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// alreadyReported marks errors the dispatcher has shown to the nurse
// through its notifier.
type alreadyReported struct{ err error }

func (e alreadyReported) Error() string { return e.err.Error() }
func (e alreadyReported) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return alreadyReported{err}
}

func printError(w io.Writer, err error) {
	if errors.Is(err, medreq.ErrNotConfirmed) {
		fmt.Fprintln(w, "cancelled")
		return
	}
	var done alreadyReported
	if errors.As(err, &done) {
		return
	}
	fmt.Fprintf(w, "Error: %s\n", api.UserMessage(err))
}
