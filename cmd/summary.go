package cmd

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/lancealx/nanocli/internal/loan"
	"github.com/lancealx/nanocli/internal/render"
	"github.com/lancealx/nanocli/pkg/util"
)

// SummaryService defines the subset of the Nano client that the summary
// command uses.
type SummaryService interface {
	loan.API
	Notes(ctx context.Context, appID string) (gjson.Result, error)
}

// SummaryCmd computes and prints the loan summary.
type SummaryCmd struct {
	svc SummaryService
}

// SummaryInput holds input for the summary command.
type SummaryInput struct {
	LoanID      string
	Output      string
	Notes       bool
	NoLockAlert bool
}

// Run aggregates the summary endpoints for one loan and prints the result.
func (s SummaryCmd) Run(ctx context.Context, in SummaryInput) error {
	variant := loan.LockVariantEager
	if in.NoLockAlert {
		variant = loan.LockVariantStrict
	}

	agg := loan.Aggregator{API: s.svc, LockVariant: variant}
	rec := agg.Run(ctx, in.LoanID, nil)

	for endpoint, err := range rec.Faults() {
		pterm.Warning.Printf("%s unavailable: %v\n", endpoint, err)
	}

	if in.Output == "json" {
		doc, err := recordJSON(rec)
		if err != nil {
			return err
		}
		if err := util.PrintPrettyJSON(doc); err != nil {
			return err
		}
	} else {
		pterm.Println(render.Card(rec))
	}

	if in.Notes {
		return s.printNotes(ctx, in.LoanID)
	}
	return nil
}

// recordJSON flattens a record into a JSON object, labels in insertion
// order.
func recordJSON(rec *loan.Record) (gjson.Result, error) {
	out := []byte(fmt.Sprintf(`{"loan-id":%q}`, rec.LoanID))
	var err error
	for _, label := range rec.Labels() {
		value, _ := rec.Value(label)
		if out, err = sjson.SetBytes(out, label, value); err != nil {
			return gjson.Result{}, fmt.Errorf("encode summary: %w", err)
		}
	}
	return gjson.ParseBytes(out), nil
}

func (s SummaryCmd) printNotes(ctx context.Context, loanID string) error {
	doc, err := s.svc.Notes(ctx, loanID)
	if err != nil {
		return fmt.Errorf("fetch notes: %w", err)
	}

	rows := pterm.TableData{{"Date", "Author", "Note"}}
	doc.Get("data").ForEach(func(_, n gjson.Result) bool {
		rows = append(rows, []string{
			util.OrDash(n.Get("create-date").String()),
			util.OrDash(n.Get("author-name").String()),
			util.OrDash(n.Get("content").String()),
		})
		return true
	})

	if len(rows) == 1 {
		pterm.Info.Println("No notes on this loan")
		return nil
	}
	PrintTableNoPad(rows, true)
	return nil
}

// --- Cobra wiring ---

var summaryCmd = &cobra.Command{
	Use:   "summary <loan-id>",
	Short: "Print the computed summary for a loan",
	Long: `Fetch the summary endpoints for a loan, merge their contributions and
print the derived card: lock status, appraisal pipeline, AUS recommendation
and loan-level P&L.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().StringP("output", "o", "", "Output format (json)")
	summaryCmd.Flags().Bool("notes", false, "Also list the notes on the loan")
	summaryCmd.Flags().Bool("no-lock-alert", false, "Suppress the \"Lock Needed\" status for unlocked loans inside 30 days of closing")
}

func runSummary(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	notes, _ := cmd.Flags().GetBool("notes")
	noLockAlert, _ := cmd.Flags().GetBool("no-lock-alert")

	s := SummaryCmd{svc: getNanoClient(cmd)}
	return s.Run(cmd.Context(), SummaryInput{
		LoanID:      args[0],
		Output:      output,
		Notes:       notes,
		NoLockAlert: noLockAlert,
	})
}
