package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/lancealx/nanocli/internal/loan"
	"github.com/lancealx/nanocli/internal/nano"
	"github.com/lancealx/nanocli/pkg/util"
)

// GridService defines the subset of the Nano client that the grid command
// uses.
type GridService interface {
	QueryDetails(ctx context.Context, query string, limit int) (gjson.Result, error)
}

// GridCmd renders the pipeline grid.
type GridCmd struct {
	svc GridService
}

// GridInput holds input for the grid command.
type GridInput struct {
	Query  string
	Status string
	Limit  int
}

// gridRow is one pipeline loan as the query endpoint reports it.
type gridRow struct {
	LoanID     string
	Borrower   string
	Status     string
	Locked     string
	Closing    string
	LoanAmount string
}

// Run fetches the pipeline and prints it sorted by status progression,
// active pipeline first and terminal outcomes last. A failed fetch becomes
// an inline error row so the grid shape survives outages.
func (g GridCmd) Run(ctx context.Context, in GridInput) error {
	doc, err := g.svc.QueryDetails(ctx, in.Query, in.Limit)
	if err != nil {
		rows := pterm.TableData{gridHeader}
		var se *nano.StatusError
		if errors.As(err, &se) {
			rows = append(rows, []string{"-", "-", fmt.Sprintf("unavailable (HTTP %d): %s", se.Code, se.Body), "-", "-", "-"})
			PrintTableNoPad(rows, true)
			return nil
		}
		return fmt.Errorf("fetch pipeline: %w", err)
	}

	loans := parseGridRows(doc)
	if in.Status != "" {
		loans = lo.Filter(loans, func(r gridRow, _ int) bool {
			return strings.EqualFold(r.Status, in.Status)
		})
	}
	if len(loans) == 0 {
		pterm.Info.Println("No loans in the pipeline")
		return nil
	}

	sort.SliceStable(loans, func(i, j int) bool {
		return loan.StatusRank(loans[i].Status) < loan.StatusRank(loans[j].Status)
	})

	rows := pterm.TableData{gridHeader}
	for _, r := range loans {
		rows = append(rows, []string{
			util.OrDash(r.LoanID),
			util.OrDash(r.Borrower),
			util.OrDash(r.Status),
			r.Locked,
			util.OrDash(r.Closing),
			r.LoanAmount,
		})
	}
	PrintTableNoPad(rows, true)
	return nil
}

var gridHeader = []string{"Loan #", "Borrower", "Status", "Locked", "Closing", "Amount"}

func parseGridRows(doc gjson.Result) []gridRow {
	var loans []gridRow
	doc.Get("data").ForEach(func(_, l gjson.Result) bool {
		row := gridRow{
			LoanID:     l.Get("app-id").String(),
			Borrower:   l.Get("name").String(),
			Status:     l.Get("app-status").String(),
			Locked:     "-",
			Closing:    l.Get("estimated-closing-date").String(),
			LoanAmount: "-",
		}
		if locked := l.Get("is-locked"); locked.Exists() {
			if locked.Bool() {
				row.Locked = "Yes"
			} else {
				row.Locked = "No"
			}
		}
		if amt := l.Get("total-loan-amount"); amt.Exists() && amt.Type == gjson.Number {
			row.LoanAmount = util.FormatMoney(amt.Float())
		}
		loans = append(loans, row)
		return true
	})
	return loans
}

// --- Cobra wiring ---

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Show the loan pipeline grid",
	Long: `List the active pipeline sorted by status progression. Loans early in the
pipeline sort first; unknown statuses sort last in their incoming order.`,
	Args: cobra.NoArgs,
	RunE: runGrid,
}

func init() {
	rootCmd.AddCommand(gridCmd)

	gridCmd.Flags().StringP("query", "q", "", "Restrict the grid to loans matching a search query")
	gridCmd.Flags().String("status", "", "Only show loans with this status label")
	gridCmd.Flags().Int("limit", 0, "Maximum number of loans to fetch")
}

func runGrid(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")

	g := GridCmd{svc: getNanoClient(cmd)}
	return g.Run(cmd.Context(), GridInput{
		Query:  query,
		Status: status,
		Limit:  limit,
	})
}
