package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/lancealx/nanocli/pkg/util"
)

const searchFetchLimit = 500

// SearchService defines the subset of the Nano client that the search
// command uses.
type SearchService interface {
	QueryDetails(ctx context.Context, query string, limit int) (gjson.Result, error)
}

// SearchCmd finds loans in the pipeline by fuzzy borrower match.
type SearchCmd struct {
	svc SearchService
}

// SearchInput holds input for the search command.
type SearchInput struct {
	Term string
	Max  int
}

// Run fetches the pipeline and ranks borrower names against the term.
// Matching is accent- and case-insensitive; closest matches print first.
func (s SearchCmd) Run(ctx context.Context, in SearchInput) error {
	doc, err := s.svc.QueryDetails(ctx, "", searchFetchLimit)
	if err != nil {
		return fmt.Errorf("fetch pipeline: %w", err)
	}

	loans := parseGridRows(doc)
	names := make([]string, len(loans))
	for i, l := range loans {
		names[i] = l.Borrower
	}

	ranks := fuzzy.RankFindNormalizedFold(in.Term, names)
	if len(ranks) == 0 {
		pterm.Info.Printf("No loans match %q\n", in.Term)
		return nil
	}
	sort.Sort(ranks)

	max := in.Max
	if max <= 0 || max > len(ranks) {
		max = len(ranks)
	}

	rows := pterm.TableData{{"Loan #", "Borrower", "Status", "Closing"}}
	for _, rank := range ranks[:max] {
		l := loans[rank.OriginalIndex]
		rows = append(rows, []string{
			util.OrDash(l.LoanID),
			util.OrDash(l.Borrower),
			util.OrDash(l.Status),
			util.OrDash(l.Closing),
		})
	}
	PrintTableNoPad(rows, true)
	return nil
}

// --- Cobra wiring ---

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Fuzzy-search the pipeline by borrower name",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntP("max", "n", 10, "Maximum number of matches to show")
}

func runSearch(cmd *cobra.Command, args []string) error {
	max, _ := cmd.Flags().GetInt("max")

	s := SearchCmd{svc: getNanoClient(cmd)}
	return s.Run(cmd.Context(), SearchInput{Term: args[0], Max: max})
}
