package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aanand-mishra/school-health/internal/types"
	"github.com/spf13/cobra"
)

// execute runs one console invocation. The app is closed whether or not
// the command succeeded; cobra skips post-run hooks after an error.
func execute(ctx context.Context, out io.Writer, in io.Reader, args []string) error {
	a := &app{out: out, in: bufio.NewReader(in)}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "medreq",
		Short:         "Nurse console for school medication requests",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			return a.open(cmd.Context())
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.out)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to the configuration YAML file (or CONFIG_PATH)")
	root.PersistentFlags().BoolVarP(&a.yes, "yes", "y", false, "skip confirmation prompts")

	root.AddCommand(
		pendingCmd(a),
		showCmd(a),
		approveCmd(a),
		rejectCmd(a),
		administerCmd(a),
		inventoryCmd(a),
		clampCmd(a),
		historyCmd(a),
	)
	return root
}

func pendingCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List medication requests awaiting action",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			reqs := a.store.Pending()
			if all {
				reqs = a.store.Get()
			}
			renderRequests(a.out, reqs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include approved requests awaiting administration")
	return cmd
}

func showCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one request with its administration history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			r, err := a.dispatch.ViewDetails(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderRequest(a.out, r)
			return nil
		},
	}
}

func approveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "approve ID",
		Short: "Approve a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			return reported(a.dispatch.Approve(cmd.Context(), args[0]))
		},
	}
}

func rejectCmd(a *app) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "reject ID",
		Short: "Reject a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			return reported(a.dispatch.Reject(cmd.Context(), args[0], reason))
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason shown to the parent (optional)")
	return cmd
}

func administerCmd(a *app) *cobra.Command {
	var (
		at    string
		notes string
	)
	cmd := &cobra.Command{
		Use:   "administer ID",
		Short: "Record that a dose was given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseWhen(at, a.clock.Now())
			if err != nil {
				return err
			}
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			return reported(a.dispatch.Administer(cmd.Context(), args[0], when, notes))
		},
	}
	cmd.Flags().StringVar(&at, "at", "", `time given: RFC 3339 or "15:04" today (default now)`)
	cmd.Flags().StringVar(&notes, "notes", "", "administration notes")
	return cmd
}

func inventoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "List and edit the medication inventory",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List inventory items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.catalog.Refresh(cmd.Context()); err != nil {
				return fmt.Errorf("load inventory: %w", err)
			}
			renderInventory(a.out, a.catalog.Items())
			return nil
		},
	}

	var (
		in     types.InventoryInput
		expiry string
	)
	itemFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&in.MedicationName, "name", "", "medication name")
		c.Flags().StringVar(&in.Dosage, "dosage", "", "dosage, e.g. 500mg")
		c.Flags().StringVar(&in.Form, "form", "", "form, e.g. tablet")
		c.Flags().IntVar(&in.Quantity, "quantity", 0, "units on hand")
		c.Flags().StringVar(&expiry, "expiry", "", "expiry date (YYYY-MM-DD)")
	}
	parseExpiry := func() error {
		if expiry == "" {
			return nil
		}
		d, err := types.ParseDate(expiry)
		if err != nil {
			return err
		}
		in.ExpiryDate = d
		return nil
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Add an inventory item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := parseExpiry(); err != nil {
				return err
			}
			_, err := a.dispatch.CreateInventoryItem(cmd.Context(), in)
			return reported(err)
		},
	}
	itemFlags(add)

	update := &cobra.Command{
		Use:   "update ID",
		Short: "Replace an inventory item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := parseExpiry(); err != nil {
				return err
			}
			_, err := a.dispatch.UpdateInventoryItem(cmd.Context(), args[0], in)
			return reported(err)
		},
	}
	itemFlags(update)

	cmd.AddCommand(list, add, update)
	return cmd
}

func clampCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clamp NAME QUANTITY",
		Short: "Check a requested quantity against stock",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity must be a whole number: %q", args[1])
			}
			if err := a.catalog.Refresh(cmd.Context()); err != nil {
				return fmt.Errorf("load inventory: %w", err)
			}
			res := a.catalog.Clamp(args[0], qty)
			switch {
			case !res.Managed:
				fmt.Fprintf(a.out, "quantity: %d (not stocked; no limit applied)\n", res.Quantity)
			case res.ExceedsStock:
				fmt.Fprintf(a.out, "quantity: %d (requested %d exceeds stock of %d)\n", res.Quantity, qty, res.Available)
			default:
				fmt.Fprintf(a.out, "quantity: %d (%d in stock)\n", res.Quantity, res.Available)
			}
			return nil
		},
	}
}

func historyCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent actions taken from this console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			recs, err := a.db.ListActions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			renderHistory(a.out, recs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries")
	return cmd
}

// parseWhen reads --at. Empty means now; "15:04" means today at that
// local time; anything else must be RFC 3339.
func parseWhen(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	if t, err := time.ParseInLocation("15:04", s, now.Location()); err == nil {
		y, m, d := now.Date()
		return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, now.Location()), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf(`--at must be RFC 3339 or "15:04": %q`, s)
	}
	return t, nil
}
