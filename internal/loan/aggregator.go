package loan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/lancealx/nanocli/internal/extract"
)

// API defines the subset of the Nano client that the aggregator uses.
type API interface {
	ManualPriceAdjustments(ctx context.Context, appID string) (gjson.Result, error)
	Loans(ctx context.Context, appID string) (gjson.Result, error)
	AppraisalOrders(ctx context.Context, appID string) (gjson.Result, error)
	UnderwritingDecisions(ctx context.Context, appID string) (gjson.Result, error)
	Queues(ctx context.Context, appID string) (gjson.Result, error)
	AppStatuses(ctx context.Context, appID string) (gjson.Result, error)
	AppDetails(ctx context.Context, appID string) (gjson.Result, error)
	UnderwritingFindings(ctx context.Context, appID string) (gjson.Result, error)
}

// Manual price adjustment type codes.
const (
	adjustmentHoldback      = 34
	adjustmentConcession    = 19
	adjustmentLockExtension = 14
)

// Aggregator fans out to the summary endpoints for one loan and merges
// their contributions into a Record. Every endpoint's failure is trapped
// into the record's fault map; siblings are never aborted and the fields of
// a failed endpoint simply stay absent.
type Aggregator struct {
	API API

	// LockVariant selects the unlocked-loan behavior; see LockVariant.
	LockVariant LockVariant

	// Now is the clock used for date comparisons; defaults to time.Now.
	Now func() time.Time
}

// Run executes one aggregation cycle for loanID. onUpdate, if non-nil, is
// invoked with a fresh snapshot after each endpoint lands and once more
// after derived fields are computed, so partial population reaches the
// renderer as re-renders rather than silent mutation.
func (a Aggregator) Run(ctx context.Context, loanID string, onUpdate func(*Record)) *Record {
	rec := NewRecord(loanID)
	var publishMu sync.Mutex
	publish := func() {
		if onUpdate == nil {
			return
		}
		publishMu.Lock()
		defer publishMu.Unlock()
		onUpdate(rec.Snapshot())
	}

	var orders []AppraisalOrder

	g, ctx := errgroup.WithContext(ctx)

	run := func(endpoint string, fn func() error) {
		g.Go(func() error {
			if err := fn(); err != nil {
				rec.Fault(endpoint, err)
			}
			publish()
			return nil
		})
	}

	run("manual-price-adjustments", func() error {
		doc, err := a.API.ManualPriceAdjustments(ctx, loanID)
		if err != nil {
			return err
		}
		rec.Set("Total Holdbacks / Concessions", sumAdjustments(doc))
		return nil
	})

	run("loans", func() error {
		doc, err := a.API.Loans(ctx, loanID)
		if err != nil {
			return err
		}
		extract.ApplyTable(doc, extract.LoanFields, rec.Set)
		rec.Set("Total Allocated Lender Credits", extract.SumByPredicate(doc, func(n gjson.Result) bool {
			return n.Get("paid-by").String() == "Lender"
		}, "amount"))
		return nil
	})

	run("appraisal-orders", func() error {
		doc, err := a.API.AppraisalOrders(ctx, loanID)
		if err != nil {
			return err
		}
		orders = parseAppraisalOrders(doc)
		return nil
	})

	run("app-statuses", func() error {
		status, priority, err := a.deriveStatus(ctx, loanID, rec)
		if err != nil {
			return err
		}
		rec.Set("Status", status)
		rec.Set("Borrower Priority", priority)
		return nil
	})

	run("underwriting-findings", func() error {
		rec.Set("AUS Recommendation", a.ausRecommendation(ctx, loanID))
		return nil
	})

	_ = g.Wait()

	a.derive(rec, orders)
	publish()
	return rec
}

// sumAdjustments folds manual price adjustments into a single figure:
// holdbacks and concessions add, lock extensions not charged to the
// borrower subtract. Amounts come over the wire in hundredths.
func sumAdjustments(doc gjson.Result) float64 {
	var total float64
	doc.Get("data").ForEach(func(_, adj gjson.Result) bool {
		amount := adj.Get("amount").Float() / 100
		switch adj.Get("price-adjustment-type").Int() {
		case adjustmentHoldback, adjustmentConcession:
			total += amount
		case adjustmentLockExtension:
			if adj.Get("affected-entity").String() != "Borrower" {
				total -= amount
			}
		}
		return true
	})
	return total
}

func parseAppraisalOrders(doc gjson.Result) []AppraisalOrder {
	var orders []AppraisalOrder
	doc.Get("data").ForEach(func(_, o gjson.Result) bool {
		order := AppraisalOrder{
			CreateDate:     o.Get("create-date").String(),
			EffectiveDate:  o.Get("effective-date").String(),
			InspectionDate: o.Get("inspection-date").String(),
			OrderDate:      o.Get("order-date").String(),
		}
		if mv := o.Get("market-value"); mv.Exists() && mv.Type == gjson.Number {
			v := mv.Float()
			order.MarketValue = &v
		}
		orders = append(orders, order)
		return true
	})
	return orders
}

// deriveStatus walks the underwriting chain in precedence order: a suspend
// decision wins outright, then open re-submission queues, then the newest
// app-status mapped through the display table. A failed link is recorded as
// a fault and the chain falls through to the next link.
func (a Aggregator) deriveStatus(ctx context.Context, loanID string, rec *Record) (status, priority string, err error) {
	if decisions, derr := a.API.UnderwritingDecisions(ctx, loanID); derr != nil {
		rec.Fault("underwriting-decisions", derr)
	} else if latestDecision(decisions) == "Suspend" {
		return "Suspended", "", nil
	}

	var resubmitted bool
	if queues, qerr := a.API.Queues(ctx, loanID); qerr != nil {
		rec.Fault("queues", qerr)
	} else {
		entries := parseQueues(queues)

		open := lo.Filter(entries, func(q queueEntry, _ int) bool {
			return q.EndDate == "" && q.QueueType == "" &&
				(q.Code == "InitialReviewConditionsSubmitted" || q.Code == "FinalConditionsSubmitted")
		})
		resubmitted = len(open) > 0

		typed := lo.Filter(entries, func(q queueEntry, _ int) bool { return q.QueueType != "" })
		if len(typed) > 0 {
			newest := lo.MaxBy(typed, func(a, b queueEntry) bool { return a.StartDate > b.StartDate })
			priority = BorrowerPriority(newest.Code)
			if newest.Code == "RestructureLoanFile" {
				return "Restructure", priority, nil
			}
		}
	}
	if resubmitted {
		return "Re-Submitted", priority, nil
	}

	statuses, err := a.API.AppStatuses(ctx, loanID)
	if err != nil {
		return "", "", err
	}
	code, ok := latestStatusCode(statuses)
	if !ok {
		return "-", priority, nil
	}
	return DisplayStatus(code), priority, nil
}

type queueEntry struct {
	Code      string
	QueueType string
	StartDate string
	EndDate   string
}

func parseQueues(doc gjson.Result) []queueEntry {
	var entries []queueEntry
	doc.Get("data").ForEach(func(_, q gjson.Result) bool {
		entries = append(entries, queueEntry{
			Code:      q.Get("code").String(),
			QueueType: q.Get("queue-type").String(),
			StartDate: q.Get("start-date").String(),
			EndDate:   q.Get("end-date").String(),
		})
		return true
	})
	return entries
}

func latestDecision(doc gjson.Result) string {
	var decisions []gjson.Result
	doc.Get("data").ForEach(func(_, d gjson.Result) bool {
		decisions = append(decisions, d)
		return true
	})
	if len(decisions) == 0 {
		return ""
	}
	newest := lo.MaxBy(decisions, func(a, b gjson.Result) bool {
		return a.Get("decision-date").String() > b.Get("decision-date").String()
	})
	return newest.Get("decision").String()
}

func latestStatusCode(doc gjson.Result) (int64, bool) {
	var statuses []gjson.Result
	doc.Get("data").ForEach(func(_, s gjson.Result) bool {
		statuses = append(statuses, s)
		return true
	})
	if len(statuses) == 0 {
		return 0, false
	}
	newest := lo.MaxBy(statuses, func(a, b gjson.Result) bool {
		return a.Get("status-date").String() > b.Get("status-date").String()
	})
	return newest.Get("app-status-type").Int(), true
}

// ausRecommendation resolves the primary AUS for the loan and returns its
// most recent finding. Any gap in the chain collapses to "N/A".
func (a Aggregator) ausRecommendation(ctx context.Context, loanID string) string {
	details, err := a.API.AppDetails(ctx, loanID)
	if err != nil {
		return "N/A"
	}
	primary, ok := extract.FindByKey(details, "type", "app-details", "primary-aus")
	if !ok || primary.String() == "" {
		return "N/A"
	}

	findings, err := a.API.UnderwritingFindings(ctx, loanID)
	if err != nil {
		return "N/A"
	}
	var matching []gjson.Result
	findings.Get("data").ForEach(func(_, f gjson.Result) bool {
		if f.Get("system-type").String() == primary.String() {
			matching = append(matching, f)
		}
		return true
	})
	if len(matching) == 0 {
		return "N/A"
	}
	newest := lo.MaxBy(matching, func(a, b gjson.Result) bool {
		return a.Get("results-date-time").String() > b.Get("results-date-time").String()
	})
	rec := newest.Get("recommendation-description").String()
	if rec == "" {
		return "N/A"
	}
	return rec
}

// derive computes the post-merge fields that depend on more than one
// endpoint: lock status, appraisal statuses and variance, and loan P&L.
func (a Aggregator) derive(rec *Record, orders []AppraisalOrder) {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	today := now()

	closing, haveClosing := rec.Time("Closing Date")
	daysToClosing := 365
	if haveClosing {
		daysToClosing = daysUntil(midnight(today), midnight(closing))
	}

	lockExp, _ := rec.Time("Lock Expiration Date")
	locked, _ := rec.Bool("Locked")
	rec.Set("Lock Status", LockStatus(lockExp, closing, locked, today, a.LockVariant))

	if _, faulted := rec.Faults()["appraisal-orders"]; faulted {
		// a failed fetch is indistinguishable from zero orders; every
		// appraisal field stays absent rather than reading "Not Ordered"
	} else if len(orders) == 0 {
		rec.Set("Appraisal Status", "Not Ordered")
	} else {
		for i, o := range orders {
			prefix := fmt.Sprintf("Appraisal Order %d ", i+1)
			rec.Set(prefix+"CreateDate", orDash(o.CreateDate))
			rec.Set(prefix+"EffectiveDate", orDash(o.EffectiveDate))
			rec.Set(prefix+"InspectionDate", orDash(o.InspectionDate))
			rec.Set(prefix+"OrderDate", orDash(o.OrderDate))
			if o.MarketValue != nil {
				rec.Set(prefix+"MarketValue", *o.MarketValue)
				rec.Set(prefix+"Appraised Value", *o.MarketValue)
			} else {
				rec.Set(prefix+"MarketValue", nil)
				rec.Set(prefix+"Appraised Value", nil)
			}
			rec.Set(prefix+"Status", OrderStatus(o, daysToClosing))
		}

		last := orders[len(orders)-1]
		salesPrice, _ := rec.Float("Sales Price")
		totalLoanAmount, _ := rec.Float("Total Loan Amount")
		purpose, _ := rec.String("Loan Purpose")
		if variance, ok := AppraisalVariance(last.MarketValue, salesPrice, totalLoanAmount, purpose); ok {
			rec.Set("Appraisal Variance", variance)
			if variance >= 0 {
				rec.Set("Appraisal Check", "good")
			} else {
				rec.Set("Appraisal Check", "alert")
			}
		}
	}

	in := PLInputs{
		HoldbacksConcessions:   floatOrZero(rec, "Total Holdbacks / Concessions"),
		AllocatedLenderCredits: floatOrZero(rec, "Total Allocated Lender Credits"),
	}
	if v, ok := rec.Float("Lender Credits"); ok {
		in.LenderCredits = &v
	}
	if v, ok := rec.Float("Total Loan Amount"); ok {
		in.TotalLoanAmount = &v
	}
	if bps, ok := PLBasisPoints(in); ok {
		rec.Set("P&L (bps)", float64(bps))
	} else {
		rec.Set("P&L (bps)", nil)
	}
}

func floatOrZero(rec *Record, label string) float64 {
	v, _ := rec.Float(label)
	return v
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
