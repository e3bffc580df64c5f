package cmd

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/pterm/pterm"
	"github.com/tidwall/gjson"

	"github.com/lancealx/nanocli/internal/nano"
)

var outBuf bytes.Buffer

// setupStdoutCapture routes all pterm output into outBuf, including the
// prefix printers, which are package-level values and need rebinding.
func setupStdoutCapture(t *testing.T) {
	t.Helper()
	outBuf.Reset()
	pterm.SetDefaultOutput(&outBuf)
	origInfo, origWarning, origSuccess, origError := pterm.Info, pterm.Warning, pterm.Success, pterm.Error
	pterm.Info = *pterm.Info.WithWriter(&outBuf)
	pterm.Warning = *pterm.Warning.WithWriter(&outBuf)
	pterm.Success = *pterm.Success.WithWriter(&outBuf)
	pterm.Error = *pterm.Error.WithWriter(&outBuf)
	t.Cleanup(func() {
		pterm.SetDefaultOutput(os.Stdout)
		pterm.Info, pterm.Warning, pterm.Success, pterm.Error = origInfo, origWarning, origSuccess, origError
	})
}

// capturedOutput returns the buffer contents with styling stripped, so
// asserts are not broken by escape codes between a styled label and its
// value. Lipgloss resets styles with the bare CSI "\x1b[m", which
// pterm.RemoveColorFromString leaves behind, so strip it separately.
func capturedOutput() string {
	return strings.ReplaceAll(pterm.RemoveColorFromString(outBuf.String()), "\x1b[m", "")
}

func emptyDoc() gjson.Result {
	return gjson.Parse(`{"data":[]}`)
}

// FakeNanoService implements the command service interfaces with overridable
// behavior per endpoint.
type FakeNanoService struct {
	ManualPriceAdjustmentsFunc func(ctx context.Context, appID string) (gjson.Result, error)
	LoansFunc                  func(ctx context.Context, appID string) (gjson.Result, error)
	AppraisalOrdersFunc        func(ctx context.Context, appID string) (gjson.Result, error)
	UnderwritingDecisionsFunc  func(ctx context.Context, appID string) (gjson.Result, error)
	QueuesFunc                 func(ctx context.Context, appID string) (gjson.Result, error)
	AppStatusesFunc            func(ctx context.Context, appID string) (gjson.Result, error)
	AppDetailsFunc             func(ctx context.Context, appID string) (gjson.Result, error)
	UnderwritingFindingsFunc   func(ctx context.Context, appID string) (gjson.Result, error)
	NotesFunc                  func(ctx context.Context, appID string) (gjson.Result, error)
	QueryDetailsFunc           func(ctx context.Context, query string, limit int) (gjson.Result, error)
	ContactsFunc               func(ctx context.Context) (gjson.Result, error)
	CreateContactFunc          func(ctx context.Context, in nano.Contact) (gjson.Result, error)
	UpdateContactFunc          func(ctx context.Context, in nano.Contact) (gjson.Result, error)
	DeleteContactFunc          func(ctx context.Context, id string) error
}

func (f *FakeNanoService) ManualPriceAdjustments(ctx context.Context, appID string) (gjson.Result, error) {
	if f.ManualPriceAdjustmentsFunc != nil {
		return f.ManualPriceAdjustmentsFunc(ctx, appID)
	}
	return emptyDoc(), nil
}

func (f *FakeNanoService) Loans(ctx context.Context, appID string) (gjson.Result, error) {
	if f.LoansFunc != nil {
		return f.LoansFunc(ctx, appID)
	}
	return emptyDoc(), nil
}

func (f *FakeNanoService) AppraisalOrders(ctx context.Context, appID string) (gjson.Result, error) {
	if f.AppraisalOrdersFunc != nil {
		return f.AppraisalOrdersFunc(ctx, appID)
	}
	return emptyDoc(), nil
}

func (f *FakeNanoService) UnderwritingDecisions(ctx context.Context, appID string) (gjson.Result, error) {
	if f.UnderwritingDecisionsFunc != nil {
		return f.UnderwritingDecisionsFunc(ctx, appID)
	}
	return emptyDoc(), nil
}

func (f *FakeNanoService) Queues(ctx context.Context, appID string) (gjson.Result, error) {
	if f.QueuesFunc != nil {
		return f.QueuesFunc(ctx, appID)
	}
	return emptyDoc(), nil
}

func (f *FakeNanoService) AppStatuses(ctx context.Context, appID string) (gjson.Result, error) {
	if f.AppStatusesFunc != nil {
		return f.AppStatusesFunc(ctx, appID)
	}
	return emptyDoc(), nil
}

func (f *FakeNanoService) AppDetails(ctx context.Context, appID string) (gjson.Result, error) {
	if f.AppDetailsFunc != nil {
		return f.AppDetailsFunc(ctx, appID)
	}
	return emptyDoc(), nil
}

func (f *FakeNanoService) UnderwritingFindings(ctx context.Context, appID string) (gjson.Result, error) {
	if f.UnderwritingFindingsFunc != nil {
		return f.UnderwritingFindingsFunc(ctx, appID)
	}
	return emptyDoc(), nil
}

func (f *FakeNanoService) Notes(ctx context.Context, appID string) (gjson.Result, error) {
	if f.NotesFunc != nil {
		return f.NotesFunc(ctx, appID)
	}
	return emptyDoc(), nil
}

func (f *FakeNanoService) QueryDetails(ctx context.Context, query string, limit int) (gjson.Result, error) {
	if f.QueryDetailsFunc != nil {
		return f.QueryDetailsFunc(ctx, query, limit)
	}
	return emptyDoc(), nil
}

func (f *FakeNanoService) Contacts(ctx context.Context) (gjson.Result, error) {
	if f.ContactsFunc != nil {
		return f.ContactsFunc(ctx)
	}
	return emptyDoc(), nil
}

func (f *FakeNanoService) CreateContact(ctx context.Context, in nano.Contact) (gjson.Result, error) {
	if f.CreateContactFunc != nil {
		return f.CreateContactFunc(ctx, in)
	}
	return emptyDoc(), nil
}

func (f *FakeNanoService) UpdateContact(ctx context.Context, in nano.Contact) (gjson.Result, error) {
	if f.UpdateContactFunc != nil {
		return f.UpdateContactFunc(ctx, in)
	}
	return emptyDoc(), nil
}

func (f *FakeNanoService) DeleteContact(ctx context.Context, id string) error {
	if f.DeleteContactFunc != nil {
		return f.DeleteContactFunc(ctx, id)
	}
	return nil
}
