package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/aanand-mishra/school-health/internal/medreq"
	"github.com/aanand-mishra/school-health/internal/types"
	"github.com/samber/lo"
)

const timeLayout = "2006-01-02 15:04"

func renderRequests(w io.Writer, reqs []types.MedicationRequest) {
	if len(reqs) == 0 {
		fmt.Fprintln(w, "no requests")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTUDENT\tMEDICATION\tDOSAGE\tSTATUS\tREQUESTED BY")
	for _, r := range reqs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.StudentFullName, r.MedicationName, r.Dosage, r.Status, r.RequestedByName)
	}
	tw.Flush()
}

func renderRequest(w io.Writer, r types.MedicationRequest) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Request:\t%s\n", r.ID)
	fmt.Fprintf(tw, "Student:\t%s (%s)\n", r.StudentFullName, r.StudentCode)
	fmt.Fprintf(tw, "Medication:\t%s %s\n", r.MedicationName, r.Dosage)
	fmt.Fprintf(tw, "Frequency:\t%s\n", r.Frequency)
	fmt.Fprintf(tw, "Dates:\t%s to %s\n", r.StartDate, r.EndDate)
	fmt.Fprintf(tw, "Status:\t%s\n", r.Status)
	fmt.Fprintf(tw, "Requested by:\t%s\n", r.RequestedByName)
	if r.Status == types.StatusRejected && r.RejectionReason != "" {
		fmt.Fprintf(tw, "Reason:\t%s\n", r.RejectionReason)
	}
	fmt.Fprintf(tw, "Actions:\t%s\n", actionList(medreq.Available(r)))
	tw.Flush()

	if !r.Administered() {
		return
	}
	fmt.Fprintln(w, "\nAdministered:")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, rec := range r.AdministrationRecords {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n",
			rec.AdministrationTime.Local().Format(timeLayout), rec.AdministeredByNurseName, rec.Notes)
	}
	tw.Flush()
}

func actionList(a medreq.Actions) string {
	names := lo.Compact([]string{
		lo.Ternary(a.Approve, "approve", ""),
		lo.Ternary(a.Reject, "reject", ""),
		lo.Ternary(a.Administer, "administer", ""),
	})
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func renderInventory(w io.Writer, items []types.MedicationInventoryItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "inventory is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMEDICATION\tDOSAGE\tFORM\tQTY\tEXPIRES")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			it.ID, it.MedicationName, it.Dosage, it.Form, it.Quantity, it.ExpiryDate)
	}
	tw.Flush()
}

func renderHistory(w io.Writer, recs []types.ActionRecord) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "no actions recorded")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tACTION\tTARGET\tRESULT\tMESSAGE")
	for _, rec := range recs {
		result := "ok"
		if !rec.Succeeded {
			result = strings.ToLower(rec.ErrorKind)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			rec.At.Local().Format(timeLayout), rec.Action, rec.RequestID, result, rec.Message)
	}
	tw.Flush()
}
