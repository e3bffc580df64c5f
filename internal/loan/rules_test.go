package loan

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLockStatus(t *testing.T) {
	today := date(2026, 3, 10)

	tests := []struct {
		name    string
		lockExp time.Time
		closing time.Time
		locked  bool
		variant LockVariant
		want    string
	}{
		{"locked, closing on or before expiration", date(2026, 3, 20), date(2026, 3, 18), true, LockVariantEager, "Locked"},
		{"locked, closing equals expiration", date(2026, 3, 20), date(2026, 3, 20), true, LockVariantEager, "Locked"},
		{"locked, expiration passed", date(2026, 3, 1), date(2026, 3, 25), true, LockVariantEager, "Expired"},
		{"locked, closing after expiration", date(2026, 3, 20), date(2026, 3, 25), true, LockVariantEager, "Extension Needed"},
		{"unlocked, closing within 30 days", time.Time{}, date(2026, 3, 30), false, LockVariantEager, "Lock Needed"},
		{"unlocked, closing within 30 days, strict", time.Time{}, date(2026, 3, 30), false, LockVariantStrict, "-"},
		{"unlocked, closing far out", time.Time{}, date(2026, 6, 1), false, LockVariantEager, "-"},
		{"unlocked, no closing date", time.Time{}, time.Time{}, false, LockVariantEager, "-"},
		{"locked, no expiration date", time.Time{}, date(2026, 3, 25), true, LockVariantEager, "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LockStatus(tt.lockExp, tt.closing, tt.locked, today, tt.variant))
		})
	}
}

func TestLockStatusDayShiftAppliesToBothDates(t *testing.T) {
	// Expiration "yesterday" shifted forward lands on today, and the
	// comparison is strict, so the lock is not yet Expired.
	today := date(2026, 3, 10)
	got := LockStatus(date(2026, 3, 9), date(2026, 3, 25), true, today, LockVariantEager)
	assert.Equal(t, "Extension Needed", got)

	// Two days back stays behind today even after the shift.
	got = LockStatus(date(2026, 3, 8), date(2026, 3, 25), true, today, LockVariantEager)
	assert.Equal(t, "Expired", got)

	// Both dates shift together, so closing <= expiration is unaffected.
	got = LockStatus(date(2026, 3, 20), date(2026, 3, 20), true, today, LockVariantEager)
	assert.Equal(t, "Locked", got)
}

func TestPLBasisPoints(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	t.Run("regression fixture", func(t *testing.T) {
		bps, ok := PLBasisPoints(PLInputs{
			LenderCredits:          f(-2000),
			TotalLoanAmount:        f(400000),
			HoldbacksConcessions:   500,
			AllocatedLenderCredits: 1000,
		})
		assert.True(t, ok)
		assert.Equal(t, int64(5000025), bps)
	})

	t.Run("undefined without lender credits", func(t *testing.T) {
		_, ok := PLBasisPoints(PLInputs{TotalLoanAmount: f(400000)})
		assert.False(t, ok)
	})

	t.Run("undefined without loan amount", func(t *testing.T) {
		_, ok := PLBasisPoints(PLInputs{LenderCredits: f(-2000)})
		assert.False(t, ok)
	})

	t.Run("undefined with zero loan amount", func(t *testing.T) {
		_, ok := PLBasisPoints(PLInputs{LenderCredits: f(-2000), TotalLoanAmount: f(0)})
		assert.False(t, ok)
	})
}

func TestOrderStatusPrecedence(t *testing.T) {
	mv := 450000.0

	tests := []struct {
		name          string
		order         AppraisalOrder
		daysToClosing int
		want          string
	}{
		{"market value wins", AppraisalOrder{MarketValue: &mv, EffectiveDate: "2026-02-01", InspectionDate: "2026-01-20"}, 10, "Rec: 2026-02-01"},
		{"inspection next", AppraisalOrder{InspectionDate: "2026-01-20", OrderDate: "2026-01-10"}, 10, "Insp: 2026-01-20"},
		{"order date next", AppraisalOrder{OrderDate: "2026-01-10"}, 10, "Ord: 2026-01-10"},
		{"nothing, closing soon", AppraisalOrder{}, 10, "Order Appraisal"},
		{"nothing, closing far out", AppraisalOrder{}, 40, "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OrderStatus(tt.order, tt.daysToClosing))
		})
	}
}

func TestAppraisalVariance(t *testing.T) {
	mv := 410000.0

	t.Run("purchase compares sales price", func(t *testing.T) {
		v, ok := AppraisalVariance(&mv, 400000, 360000, "Purchase")
		assert.True(t, ok)
		assert.Equal(t, float64(10000), v)
	})

	t.Run("refinance compares loan amount", func(t *testing.T) {
		v, ok := AppraisalVariance(&mv, 0, 420000, "CashOutRefinance")
		assert.True(t, ok)
		assert.Equal(t, float64(-10000), v)
	})

	t.Run("undefined without market value", func(t *testing.T) {
		_, ok := AppraisalVariance(nil, 400000, 360000, "Purchase")
		assert.False(t, ok)
	})
}

func TestDisplayStatus(t *testing.T) {
	assert.Equal(t, "Prospect", DisplayStatus(1))
	assert.Equal(t, "Clear to Close", DisplayStatus(9))
	assert.Equal(t, "Funded", DisplayStatus(12))

	// Unknown codes pass through as the raw ID, not an error.
	assert.Equal(t, "99", DisplayStatus(99))
}

func TestStatusRank(t *testing.T) {
	assert.Less(t, StatusRank("Prospect"), StatusRank("Processing"))
	assert.Less(t, StatusRank("Submitted"), StatusRank("Clear to Close"))
	assert.Less(t, StatusRank("Clear to Close"), StatusRank("Funded"))
	assert.Less(t, StatusRank("Funded"), StatusRank("Cancelled"))
	assert.Equal(t, math.MaxInt, StatusRank("Made Up Status"), "unknown sorts last")
}

func TestBorrowerPriority(t *testing.T) {
	assert.Equal(t, "Conditions Submitted", BorrowerPriority("InitialReviewConditionsSubmitted"))
	assert.Equal(t, "Restructure", BorrowerPriority("RestructureLoanFile"))
	assert.Equal(t, "SomethingNew", BorrowerPriority("SomethingNew"))
}
