package nano

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ManualPriceAdjustments lists the manual price adjustments for a loan.
func (c *Client) ManualPriceAdjustments(ctx context.Context, appID string) (gjson.Result, error) {
	return c.get(ctx, "/nano/manual-price-adjustments", appQuery(appID))
}

// Loans fetches the primary loan document with the summary include set.
func (c *Client) Loans(ctx context.Context, appID string) (gjson.Result, error) {
	q := appQuery(appID)
	q.Set("includes", loanIncludes)
	q.Set("isDefaultOnly", "true")
	return c.get(ctx, "/nano/loans", q)
}

// AppraisalOrders lists appraisal orders, oldest first.
func (c *Client) AppraisalOrders(ctx context.Context, appID string) (gjson.Result, error) {
	return c.get(ctx, "/nano/appraisal-orders", appQuery(appID))
}

// UnderwritingDecisions lists underwriting decisions for a loan.
func (c *Client) UnderwritingDecisions(ctx context.Context, appID string) (gjson.Result, error) {
	return c.get(ctx, "/nano/underwriting-decisions", appQuery(appID))
}

// Queues lists workflow queue entries for a loan.
func (c *Client) Queues(ctx context.Context, appID string) (gjson.Result, error) {
	return c.get(ctx, "/nano/queues", appQuery(appID))
}

// AppStatuses lists the application status history.
func (c *Client) AppStatuses(ctx context.Context, appID string) (gjson.Result, error) {
	return c.get(ctx, "/nano/app-statuses", appQuery(appID))
}

// AppDetails fetches application details (primary AUS among them).
func (c *Client) AppDetails(ctx context.Context, appID string) (gjson.Result, error) {
	return c.get(ctx, "/nano/app-details", appQuery(appID))
}

// UnderwritingFindings lists AUS findings for a loan.
func (c *Client) UnderwritingFindings(ctx context.Context, appID string) (gjson.Result, error) {
	return c.get(ctx, "/nano/underwriting-findings", appQuery(appID))
}

// QueryDetails runs the loan search. An empty query returns the caller's
// active pipeline.
func (c *Client) QueryDetails(ctx context.Context, query string, limit int) (gjson.Result, error) {
	q := url.Values{}
	if query != "" {
		q.Set("query", query)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	return c.get(ctx, "/nano/app-query-details", q)
}

// Notes lists the notes on a loan.
func (c *Client) Notes(ctx context.Context, appID string) (gjson.Result, error) {
	return c.get(ctx, "/nano/notes", appQuery(appID))
}

// AppProfileValues lists profile values for a loan.
func (c *Client) AppProfileValues(ctx context.Context, appID string) (gjson.Result, error) {
	return c.get(ctx, "/nano/app-profile-values", appQuery(appID))
}

// Properties lists the subject properties for a loan.
func (c *Client) Properties(ctx context.Context, appID string) (gjson.Result, error) {
	return c.get(ctx, "/nano/properties", appQuery(appID))
}

// Providers lists service providers.
func (c *Client) Providers(ctx context.Context) (gjson.Result, error) {
	return c.get(ctx, "/nano/providers", nil)
}

// Users lists Nano users.
func (c *Client) Users(ctx context.Context) (gjson.Result, error) {
	return c.get(ctx, "/nano/users", nil)
}

// LoanProducts lists the loan product catalog.
func (c *Client) LoanProducts(ctx context.Context) (gjson.Result, error) {
	return c.get(ctx, "/nano/loan-products", nil)
}

// CorporatePartners lists corporate partners.
func (c *Client) CorporatePartners(ctx context.Context) (gjson.Result, error) {
	return c.get(ctx, "/nano/corporate-partners", nil)
}

// Contacts lists contacts (referral sources).
func (c *Client) Contacts(ctx context.Context) (gjson.Result, error) {
	return c.get(ctx, "/nano/contacts", nil)
}

// Contact is a referral-source contact.
type Contact struct {
	ID      string
	Name    string
	Company string
	Email   string
	Phone   string
}

func contactBody(in Contact) ([]byte, error) {
	body := `{"data":{"type":"contacts"}}`
	var err error
	for path, value := range map[string]string{
		"data.name":    in.Name,
		"data.company": in.Company,
		"data.email":   in.Email,
		"data.phone":   in.Phone,
	} {
		if value == "" {
			continue
		}
		if body, err = sjson.Set(body, path, value); err != nil {
			return nil, fmt.Errorf("build contact body: %w", err)
		}
	}
	return []byte(body), nil
}

// CreateContact creates a referral-source contact.
func (c *Client) CreateContact(ctx context.Context, in Contact) (gjson.Result, error) {
	body, err := contactBody(in)
	if err != nil {
		return gjson.Result{}, err
	}
	return c.do(ctx, "POST", "/nano/contacts", nil, body)
}

// UpdateContact updates a referral-source contact.
func (c *Client) UpdateContact(ctx context.Context, in Contact) (gjson.Result, error) {
	if in.ID == "" {
		return gjson.Result{}, fmt.Errorf("contact id is required")
	}
	body, err := contactBody(in)
	if err != nil {
		return gjson.Result{}, err
	}
	return c.do(ctx, "PATCH", "/nano/contacts/"+url.PathEscape(in.ID), nil, body)
}

// DeleteContact deletes a referral-source contact.
func (c *Client) DeleteContact(ctx context.Context, id string) error {
	_, err := c.do(ctx, "DELETE", "/nano/contacts/"+url.PathEscape(id), nil, nil)
	return err
}
