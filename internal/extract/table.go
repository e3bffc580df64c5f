package extract

import "github.com/tidwall/gjson"

// Directive describes one value to pull out of the primary loan document:
// find the first object whose Key property equals Value, project Project off
// it, and store the result under Label.
type Directive struct {
	Key     string
	Value   string
	Project string
	Label   string
}

// LoanFields is the extraction table for the primary loan document. Labels
// are unique; order is preserved for deterministic iteration. Appraisal
// directives are not listed here; they are appended per appraisal order by
// the aggregator.
var LoanFields = []Directive{
	{Key: "type", Value: "borrowers", Project: "full-name", Label: "Borrower"},
	{Key: "type", Value: "loans", Project: "total-loan-amount", Label: "Total Loan Amount"},
	{Key: "type", Value: "loans", Project: "base-loan-amount", Label: "Base Loan Amount"},
	{Key: "type", Value: "loans", Project: "loan-purpose", Label: "Loan Purpose"},
	{Key: "type", Value: "loans", Project: "note-rate", Label: "Note Rate"},
	{Key: "type", Value: "loans", Project: "apr", Label: "APR"},
	{Key: "type", Value: "loan-products", Project: "product-name", Label: "Loan Program"},
	{Key: "type", Value: "locks", Project: "is-locked", Label: "Locked"},
	{Key: "type", Value: "locks", Project: "lock-expiration-date", Label: "Lock Expiration Date"},
	{Key: "type", Value: "locks", Project: "lock-date", Label: "Lock Date"},
	{Key: "type", Value: "closing-details", Project: "estimated-closing-date", Label: "Closing Date"},
	{Key: "type", Value: "properties", Project: "sales-price", Label: "Sales Price"},
	{Key: "type", Value: "properties", Project: "property-type", Label: "Property Type"},
	{Key: "type", Value: "properties", Project: "occupancy-type", Label: "Occupancy"},
	{Key: "type", Value: "pricing-details", Project: "lender-credits", Label: "Lender Credits"},
	{Key: "type", Value: "pricing-details", Project: "discount-points", Label: "Discount Points"},
	{Key: "type", Value: "ratios", Project: "loan-to-value", Label: "LTV"},
	{Key: "type", Value: "ratios", Project: "debt-to-income", Label: "DTI"},
	{Key: "type", Value: "credit-reports", Project: "representative-score", Label: "Credit Score"},
	{Key: "type", Value: "escrows", Project: "is-waived", Label: "Escrow Waived"},
}

// ApplyTable runs every directive against doc and calls set once per label.
// A directive that finds nothing still sets its label, with a nil value, so
// the record always carries a key per table entry.
func ApplyTable(doc gjson.Result, directives []Directive, set func(label string, value any)) {
	for _, d := range directives {
		res, ok := FindByKey(doc, d.Key, d.Value, d.Project)
		if !ok || !res.Exists() || res.Type == gjson.Null {
			set(d.Label, nil)
			continue
		}
		set(d.Label, res.Value())
	}
}
