// Package auth acquires the Nano session token. The CLI performs no login
// of its own: the host web application authenticates the user, and its
// session blob (the ember_simple_auth local-storage entry, exported to a
// file) is where the bearer token comes from. Acquired tokens are
// republished to the OS keyring so sibling invocations can skip the poll.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tidwall/gjson"
	"github.com/zalando/go-keyring"
)

// KeyringService is the service name tokens are cached under.
const KeyringService = "nanocli"

const keyringUser = "session-token"

// clockSkew pads expiry checks so a token is not handed out moments before
// the host rejects it.
const clockSkew = 30 * time.Second

// ErrTokenExpired marks a session blob whose token is past its expiry.
var ErrTokenExpired = errors.New("session token expired")

// ErrNoSession marks a missing or unauthenticated session blob.
var ErrNoSession = errors.New("no authenticated session")

// Token is a bearer token with its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the token can still be presented at now.
func (t Token) Valid(now time.Time) bool {
	return t.Value != "" && now.Add(clockSkew).Before(t.ExpiresAt)
}

// Source describes where the session token comes from.
type Source struct {
	// SessionFile is the exported local-storage blob
	// (ember_simple_auth-session shape).
	SessionFile string

	// Interval is the poll cadence; defaults to 1s.
	Interval time.Duration

	// SkipKeyring disables keyring reads and writes.
	SkipKeyring bool
}

// Acquire polls the session source until a valid, unexpired token appears,
// then republishes it to the keyring and returns it. There is no retry
// bound of its own — the host may take arbitrarily long to authenticate —
// so callers needing boundedness must pass a ctx with a deadline.
func (s Source) Acquire(ctx context.Context) (Token, error) {
	now := time.Now()
	if tok, ok := s.cached(); ok && tok.Valid(now) {
		return tok, nil
	}
	if tok, err := s.read(); err == nil && tok.Valid(now) {
		s.publish(tok)
		return tok, nil
	}

	interval := s.Interval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return Token{}, fmt.Errorf("waiting for session token: %w", ctx.Err())
		case <-ticker.C:
			tok, err := s.read()
			if err != nil {
				continue
			}
			if !tok.Valid(time.Now()) {
				continue
			}
			s.publish(tok)
			return tok, nil
		}
	}
}

// read parses the session file without waiting.
func (s Source) read() (Token, error) {
	if s.SessionFile == "" {
		return Token{}, ErrNoSession
	}
	data, err := os.ReadFile(s.SessionFile)
	if err != nil {
		return Token{}, fmt.Errorf("read session file: %w", err)
	}
	return ParseSession(data)
}

// ParseSession extracts the token from an ember_simple_auth session blob.
// The blob's idTokenPayload.exp is authoritative; when the token itself
// parses as a JWT with an earlier exp, the earlier one wins.
func ParseSession(data []byte) (Token, error) {
	if !gjson.ValidBytes(data) {
		return Token{}, fmt.Errorf("%w: malformed session blob", ErrNoSession)
	}
	doc := gjson.ParseBytes(data)

	idToken := doc.Get("authenticated.idToken").String()
	if idToken == "" {
		return Token{}, ErrNoSession
	}

	exp := doc.Get("authenticated.idTokenPayload.exp")
	if !exp.Exists() {
		return Token{}, fmt.Errorf("%w: session has no expiry", ErrNoSession)
	}
	expiresAt := time.Unix(exp.Int(), 0)

	if jwtExp, ok := jwtExpiry(idToken); ok && jwtExp.Before(expiresAt) {
		expiresAt = jwtExp
	}

	tok := Token{Value: idToken, ExpiresAt: expiresAt}
	if !tok.Valid(time.Now()) {
		return tok, ErrTokenExpired
	}
	return tok, nil
}

// jwtExpiry reads the exp claim off the token without verifying the
// signature; we are not the issuer and cannot verify it.
func jwtExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func (s Source) publish(tok Token) {
	if s.SkipKeyring {
		return
	}
	// Cache failures are not fatal; the next invocation just re-polls.
	payload := fmt.Sprintf(`{"token":%q,"exp":%d}`, tok.Value, tok.ExpiresAt.Unix())
	_ = keyring.Set(KeyringService, keyringUser, payload)
}

func (s Source) cached() (Token, bool) {
	if s.SkipKeyring {
		return Token{}, false
	}
	payload, err := keyring.Get(KeyringService, keyringUser)
	if err != nil {
		return Token{}, false
	}
	doc := gjson.Parse(payload)
	tok := Token{
		Value:     doc.Get("token").String(),
		ExpiresAt: time.Unix(doc.Get("exp").Int(), 0),
	}
	return tok, tok.Value != ""
}

// Provider hands out the current token and supports invalidation, for
// clients that must recover from a 401 mid-sequence.
type Provider struct {
	Source Source

	mu  sync.Mutex
	tok Token
}

// Token returns the cached token, acquiring one when none is held or the
// held one has expired.
func (p *Provider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tok.Valid(time.Now()) {
		return p.tok.Value, nil
	}
	tok, err := p.Source.Acquire(ctx)
	if err != nil {
		return "", err
	}
	p.tok = tok
	return tok.Value, nil
}

// Invalidate drops the held token so the next Token call re-acquires. The
// keyring copy is dropped too; the host has already rejected it.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tok = Token{}
	if !p.Source.SkipKeyring {
		_ = keyring.Delete(KeyringService, keyringUser)
	}
}
