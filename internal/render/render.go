// Package render paints loan records for the terminal. It is purely
// presentational: every value it shows was derived elsewhere, and absent
// values render as placeholders rather than errors.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"

	"github.com/lancealx/nanocli/internal/loan"
	"github.com/lancealx/nanocli/pkg/util"
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().Bold(true)

	labelStyle = lipgloss.NewStyle().Faint(true)

	badgeStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
)

// badgeColors maps display statuses to their bucket color.
var badgeColors = map[string]string{
	"Prospect":             "#808080",
	"Processing":           "#2463eb",
	"Submitted":            "#2463eb",
	"Re-Submitted":         "#f59e0b",
	"Conditional Approval": "#f59e0b",
	"Clear to Close":       "#1fa382",
	"Closing Scheduled":    "#1fa382",
	"Docs Out":             "#1fa382",
	"Funded":               "#1fa382",
	"Post-Funding":         "#1fa382",
	"Shipped":              "#1fa382",
	"Purchased":            "#1fa382",
	"Suspended":            "#ef4444",
	"Restructure":          "#ef4444",
	"Cancelled":            "#ef4444",
	"Withdrawn":            "#ef4444",
	"Denied":               "#ef4444",
	"Referred Out":         "#ef4444",
	"Adverse":              "#ef4444",
	"Brokered Out":         "#808080",
	"Archived":             "#808080",
}

func badge(status string) string {
	color, ok := badgeColors[status]
	if !ok {
		color = "#808080"
	}
	return badgeStyle.Foreground(lipgloss.Color(color)).Render(status)
}

// headlineLabels are rendered in the card's top block, in this order.
var headlineLabels = []string{
	"Borrower",
	"Loan Program",
	"Total Loan Amount",
	"Note Rate",
	"Lock Status",
	"Lock Expiration Date",
	"Closing Date",
	"P&L (bps)",
	"AUS Recommendation",
	"Borrower Priority",
}

// Card renders the summary card for one record snapshot.
func Card(rec *loan.Record) string {
	var b strings.Builder

	status := rec.Display("Status")
	b.WriteString(titleStyle.Render("Loan "+rec.LoanID) + "  " + badge(status) + "\n\n")

	for _, label := range headlineLabels {
		writeRow(&b, label, rec.Display(label))
	}

	if appraisal := appraisalLines(rec); appraisal != "" {
		b.WriteString("\n" + appraisal)
	}

	if faults := rec.Faults(); len(faults) > 0 {
		b.WriteString("\n")
		for endpoint := range faults {
			writeRow(&b, endpoint, "unavailable")
		}
	}

	return cardStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func writeRow(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-24s", label)), value)
}

func appraisalLines(rec *loan.Record) string {
	var b strings.Builder

	if v, ok := rec.Value("Appraisal Status"); ok {
		writeRow(&b, "Appraisal", fmt.Sprintf("%v", v))
		return b.String()
	}

	for i := 1; ; i++ {
		statusLabel := fmt.Sprintf("Appraisal Order %d Status", i)
		if _, ok := rec.Value(statusLabel); !ok {
			break
		}
		writeRow(&b, fmt.Sprintf("Appraisal Order %d", i), rec.Display(statusLabel))
		valueLabel := fmt.Sprintf("Appraisal Order %d Appraised Value", i)
		if v, ok := rec.Float(valueLabel); ok {
			writeRow(&b, "  Appraised Value", util.FormatMoney(v))
		}
	}

	if variance, ok := rec.Float("Appraisal Variance"); ok {
		marker := "✓"
		if variance < 0 {
			marker = "!"
		}
		writeRow(&b, "  Variance", fmt.Sprintf("%s %s", loan.FormatVariance(variance), marker))
	}

	return b.String()
}

// Skeleton renders the placeholder card shown while a refresh cycle runs.
func Skeleton(loanID string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Loan "+loanID) + "  " + badge("Refreshing...") + "\n\n")
	for _, label := range headlineLabels {
		writeRow(&b, label, "···")
	}
	return cardStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// Disconnected renders the card shown while no valid session token exists.
func Disconnected() string {
	return cardStyle.Render(titleStyle.Render("Nano") + "  " + badge("Disconnected") + "\n\n" +
		"Waiting for an authenticated host session...")
}
