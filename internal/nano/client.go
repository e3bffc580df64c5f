// Package nano is a thin client for the Nano loan-origination REST API.
// Responses are returned as gjson documents after a shape check rather than
// decoded into structs: the API's trees are deep and irregular, and the
// extraction layer searches them generically.
package nano

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the production Nano API host.
const DefaultBaseURL = "https://api.nanolos.com"

const requestTimeout = 15 * time.Second

// loanIncludes is the include set the summary view needs from the primary
// loan document.
const loanIncludes = "borrowers,locks,closing-details,properties,pricing-details,fees,loan-products,ratios,credit-reports,escrows"

// TokenProvider hands out the current bearer token and is told when the
// host rejects one.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// StatusError is a non-2xx response from the Nano API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("nano api: HTTP %d: %s", e.Code, body)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	se, ok := err.(*StatusError)
	return ok && se.Code == http.StatusNotFound
}

// Client calls the Nano API. The zero value is not usable; use New.
type Client struct {
	baseURL string
	tokens  TokenProvider
	http    *http.Client
}

// New returns a client for baseURL; an empty baseURL selects production.
func New(baseURL string, tokens TokenProvider) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// get issues an authenticated GET and validates the response document.
// A 401 invalidates the token and retries once with a fresh one; tokens may
// expire mid-sequence and no call may assume otherwise.
func (c *Client) get(ctx context.Context, path string, query url.Values) (gjson.Result, error) {
	doc, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err == nil {
		return doc, nil
	}
	if se, ok := err.(*StatusError); ok && se.Code == http.StatusUnauthorized {
		c.tokens.Invalidate()
		return c.do(ctx, http.MethodGet, path, query, nil)
	}
	return gjson.Result{}, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) (gjson.Result, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("build request: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("no session token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.api+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/vnd.api+json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gjson.Result{}, &StatusError{Code: resp.StatusCode, Body: string(data)}
	}
	if resp.StatusCode == http.StatusNoContent || len(data) == 0 {
		return gjson.Result{}, nil
	}

	doc, err := ValidateDoc(data)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return doc, nil
}

// ValidateDoc checks that data is a JSON document with a top-level data
// member, the shape every Nano list/detail endpoint shares. Malformed
// responses fail here instead of surfacing as missing values deep inside
// derived calculations.
func ValidateDoc(data []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("malformed JSON response")
	}
	doc := gjson.ParseBytes(data)
	if !doc.Get("data").Exists() {
		return gjson.Result{}, fmt.Errorf("unexpected response shape: no data member")
	}
	return doc, nil
}

func appQuery(appID string) url.Values {
	return url.Values{"appId": []string{appID}}
}
