// Package loan derives the summary metrics for a single loan application:
// it aggregates the Nano API endpoints that feed the summary view and
// encodes the business rules (lock status, P&L, appraisal comparison,
// status precedence) that post-process the merged values.
package loan

import (
	"fmt"
	"sync"
	"time"
)

// Record is the flat label/value mapping built up for one loan during one
// aggregation cycle. It is created fresh per cycle and never patched across
// navigations; partial population is delivered to renderers as whole-record
// snapshots. Values are string, float64, bool or nil.
type Record struct {
	LoanID string

	mu     sync.Mutex
	labels []string
	values map[string]any
	faults map[string]error
}

// NewRecord returns an empty record scoped to loanID.
func NewRecord(loanID string) *Record {
	return &Record{
		LoanID: loanID,
		values: map[string]any{},
		faults: map[string]error{},
	}
}

// Set stores value under label, preserving first-insertion order.
func (r *Record) Set(label string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.values[label]; !ok {
		r.labels = append(r.labels, label)
	}
	r.values[label] = value
}

// Value returns the value stored under label. The second return is false
// when the label was never set; a label set to nil returns (nil, true).
func (r *Record) Value(label string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[label]
	return v, ok
}

// Labels returns the labels in insertion order.
func (r *Record) Labels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.labels))
	copy(out, r.labels)
	return out
}

// Float returns the value under label coerced to float64.
func (r *Record) Float(label string) (float64, bool) {
	v, ok := r.Value(label)
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// String returns the value under label coerced to string.
func (r *Record) String(label string) (string, bool) {
	v, ok := r.Value(label)
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool returns the value under label coerced to bool.
func (r *Record) Bool(label string) (bool, bool) {
	v, ok := r.Value(label)
	if !ok || v == nil {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Time parses the value under label as a date.
func (r *Record) Time(label string) (time.Time, bool) {
	s, ok := r.String(label)
	if !ok {
		return time.Time{}, false
	}
	return ParseDate(s)
}

// Fault records a per-endpoint failure. Failed endpoints leave their fields
// absent; the fault is kept so the UI can surface the gap.
func (r *Record) Fault(endpoint string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faults[endpoint] = err
}

// Faults returns a copy of the endpoint failure map.
func (r *Record) Faults() map[string]error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]error, len(r.faults))
	for k, v := range r.faults {
		out[k] = v
	}
	return out
}

// Snapshot returns an independent copy safe to hand to a renderer while the
// aggregation cycle continues to mutate the original.
func (r *Record) Snapshot() *Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := NewRecord(r.LoanID)
	s.labels = make([]string, len(r.labels))
	copy(s.labels, r.labels)
	for k, v := range r.values {
		s.values[k] = v
	}
	for k, v := range r.faults {
		s.faults[k] = v
	}
	return s
}

// Display renders the value under label for humans: "-" for absent or nil
// values, plain formatting otherwise.
func (r *Record) Display(label string) string {
	v, ok := r.Value(label)
	if !ok || v == nil {
		return "-"
	}
	switch n := v.(type) {
	case float64:
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%.3f", n)
	case bool:
		if n {
			return "Yes"
		}
		return "No"
	case string:
		if n == "" {
			return "-"
		}
		return n
	}
	return fmt.Sprintf("%v", v)
}

// dateLayouts covers the formats the Nano API emits.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// ParseDate parses s against the known Nano date layouts.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
