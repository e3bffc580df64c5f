package render

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lancealx/nanocli/internal/loan"
)

func TestCard_ShowsHeadlineAndStatus(t *testing.T) {
	rec := loan.NewRecord("123456")
	rec.Set("Status", "Clear to Close")
	rec.Set("Borrower", "Smith, John")
	rec.Set("Total Loan Amount", 400000.0)

	out := Card(rec)
	assert.Contains(t, out, "Loan 123456")
	assert.Contains(t, out, "Clear to Close")
	assert.Contains(t, out, "Smith, John")
	assert.Contains(t, out, "Total Loan Amount")
}

func TestCard_ListsEndpointFaults(t *testing.T) {
	rec := loan.NewRecord("123456")
	rec.Fault("loans", errors.New("HTTP 500"))

	out := Card(rec)
	assert.Contains(t, out, "loans")
	assert.Contains(t, out, "unavailable")
}

func TestCard_NotOrderedAppraisal(t *testing.T) {
	rec := loan.NewRecord("123456")
	rec.Set("Appraisal Status", "Not Ordered")

	assert.Contains(t, Card(rec), "Not Ordered")
}

func TestSkeletonAndDisconnected(t *testing.T) {
	assert.Contains(t, Skeleton("654321"), "Loan 654321")
	assert.Contains(t, Disconnected(), "Disconnected")
}
