package loan

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// LockVariant selects the behavior for unlocked loans approaching closing.
// The two summary surfaces in production disagreed on this branch; both are
// kept selectable until product settles it.
type LockVariant int

const (
	// LockVariantEager reports "Lock Needed" when an unlocked loan closes
	// within 30 days.
	LockVariantEager LockVariant = iota
	// LockVariantStrict never reports "Lock Needed".
	LockVariantStrict
)

// LockStatus derives the rate-lock state for the summary badge. Both dates
// are normalized to midnight and shifted forward one day before comparison.
// The shift is a long-standing quirk of the production calculation; keep it
// unless the comparison rules themselves change.
func LockStatus(lockExp, closing time.Time, locked bool, today time.Time, variant LockVariant) string {
	today = midnight(today)
	lockExp = shift(lockExp)
	closing = shift(closing)

	if locked {
		if lockExp.IsZero() {
			return "-"
		}
		switch {
		case !closing.IsZero() && !closing.After(lockExp):
			return "Locked"
		case lockExp.Before(today):
			return "Expired"
		case !closing.IsZero() && closing.After(lockExp):
			return "Extension Needed"
		default:
			return "-"
		}
	}

	if variant == LockVariantEager && !closing.IsZero() && daysUntil(today, closing) < 30 {
		return "Lock Needed"
	}
	return "-"
}

func shift(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return midnight(t).AddDate(0, 0, 1)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func daysUntil(today, d time.Time) int {
	return int(d.Sub(today).Hours() / 24)
}

// PLInputs carries the components of the loan P&L calculation. Nil pointers
// mark values that never arrived; the calculation is undefined without them.
type PLInputs struct {
	LenderCredits          *float64
	TotalLoanAmount        *float64
	HoldbacksConcessions   float64
	AllocatedLenderCredits float64
}

// PLBasisPoints computes net lender profit/loss in basis points, rounded to
// the nearest integer. The second return is false when lender credits or the
// loan amount are missing, or the amount is zero; callers must render "-"
// rather than a number in that case.
func PLBasisPoints(in PLInputs) (int64, bool) {
	if in.LenderCredits == nil || in.TotalLoanAmount == nil || *in.TotalLoanAmount == 0 {
		return 0, false
	}
	bps := (-*in.LenderCredits / *in.TotalLoanAmount) + in.HoldbacksConcessions - (in.AllocatedLenderCredits / *in.TotalLoanAmount)
	return int64(math.Round(bps * 10000)), true
}

// AppraisalOrder is one order from the appraisal-orders endpoint, in API
// return order (assumed chronological).
type AppraisalOrder struct {
	CreateDate     string
	EffectiveDate  string
	InspectionDate string
	OrderDate      string
	MarketValue    *float64
}

// OrderStatus derives the display status of a single appraisal order:
// a received value wins, then an inspection, then the order itself; with
// none of those, closing within 30 days prompts "Order Appraisal".
func OrderStatus(o AppraisalOrder, daysToClosing int) string {
	switch {
	case o.MarketValue != nil:
		return "Rec: " + o.EffectiveDate
	case o.InspectionDate != "":
		return "Insp: " + o.InspectionDate
	case o.OrderDate != "":
		return "Ord: " + o.OrderDate
	case daysToClosing < 30:
		return "Order Appraisal"
	default:
		return "-"
	}
}

// IsRefinance reports whether the loan purpose is a refinance variant.
func IsRefinance(purpose string) bool {
	switch purpose {
	case "Refinance", "CashOutRefinance", "NoCashOutRefinance", "StreamlineRefinance":
		return true
	}
	return false
}

// AppraisalVariance compares the appraised market value against the sales
// price, or against the total loan amount for refinances (no sales price
// exists). The second return is false when no market value has come back.
func AppraisalVariance(marketValue *float64, salesPrice, totalLoanAmount float64, purpose string) (float64, bool) {
	if marketValue == nil {
		return 0, false
	}
	comparison := salesPrice
	if IsRefinance(purpose) {
		comparison = totalLoanAmount
	}
	return *marketValue - comparison, true
}

// displayStatus maps Nano status-type IDs to the six display buckets. The
// host owns this list; codes it grows that we have not mapped yet render as
// their raw ID (see DisplayStatus).
var displayStatus = map[int64]string{
	1:  "Prospect",
	2:  "Prospect",
	3:  "Processing",
	4:  "Processing",
	5:  "Submitted",
	6:  "Re-Submitted",
	7:  "Processing",
	8:  "Conditional Approval",
	9:  "Clear to Close",
	10: "Closing Scheduled",
	11: "Docs Out",
	12: "Funded",
	13: "Post-Funding",
	14: "Shipped",
	15: "Purchased",
	16: "Cancelled",
	17: "Withdrawn",
	18: "Denied",
	19: "Referred Out",
	20: "Suspended",
	21: "Restructure",
	22: "Adverse",
	23: "Brokered Out",
	24: "Archived",
}

// DisplayStatus maps a raw status-type ID to its display bucket. Unknown
// codes pass through as the raw ID so a host-side addition degrades to
// something visible instead of an error.
func DisplayStatus(code int64) string {
	if label, ok := displayStatus[code]; ok {
		return label
	}
	return strconv.FormatInt(code, 10)
}

// statusRank orders display statuses for the grid: active pipeline first,
// terminal outcomes last. Unknown labels sort after everything.
var statusRank = map[string]int{
	"Prospect":             0,
	"Pre-Qualified":        1,
	"Pre-Approved":         2,
	"Application Taken":    3,
	"Processing":           4,
	"Submitted":            5,
	"Re-Submitted":         6,
	"In Underwriting":      7,
	"Conditional Approval": 8,
	"Conditions Submitted": 9,
	"Final Conditions":     10,
	"Clear to Close":       11,
	"Closing Scheduled":    12,
	"Docs Out":             13,
	"Docs Back":            14,
	"Funding Requested":    15,
	"Funded":               16,
	"Post-Funding":         17,
	"Shipped":              18,
	"Purchased":            19,
	"Archived":             20,
	"Suspended":            21,
	"Restructure":          22,
	"Brokered Out":         23,
	"Referred Out":         24,
	"Withdrawn":            25,
	"Cancelled":            26,
	"Denied":               27,
	"Adverse":              28,
}

// StatusRank returns the sort rank for a display status. Unknown statuses
// rank last.
func StatusRank(label string) int {
	if rank, ok := statusRank[label]; ok {
		return rank
	}
	return math.MaxInt
}

// borrowerPriority maps queue-type codes to the "waiting on" label shown
// next to the status badge.
var borrowerPriority = map[string]string{
	"SetupReview":                      "Setup Review",
	"InitialReview":                    "Initial Review",
	"InitialReviewConditionsSubmitted": "Conditions Submitted",
	"FinalReview":                      "Final Review",
	"FinalConditionsSubmitted":         "Final Conditions",
	"ClosingReview":                    "Closing Review",
	"FundingReview":                    "Funding Review",
	"RestructureLoanFile":              "Restructure",
	"SuspenseReview":                   "Suspense Review",
}

// BorrowerPriority maps a queue-type code to its display label. Unknown
// codes pass through unchanged.
func BorrowerPriority(code string) string {
	if label, ok := borrowerPriority[code]; ok {
		return label
	}
	return code
}

// FormatVariance renders an appraisal variance with its direction.
func FormatVariance(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%s", formatAmount(v))
	}
	return fmt.Sprintf("-%s", formatAmount(-v))
}

func formatAmount(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
