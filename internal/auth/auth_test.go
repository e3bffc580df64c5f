package auth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func init() {
	keyring.MockInit()
}

func makeJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user@example.com",
		"exp": exp.Unix(),
	})
	signed, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return signed
}

func sessionBlob(token string, exp time.Time) []byte {
	return []byte(fmt.Sprintf(
		`{"authenticated":{"authenticator":"authenticator:auth0","idToken":%q,"idTokenPayload":{"exp":%d}}}`,
		token, exp.Unix(),
	))
}

func TestParseSession(t *testing.T) {
	exp := time.Now().Add(time.Hour)

	t.Run("valid blob", func(t *testing.T) {
		tok, err := ParseSession(sessionBlob(makeJWT(t, exp), exp))
		require.NoError(t, err)
		assert.Equal(t, exp.Unix(), tok.ExpiresAt.Unix())
		assert.True(t, tok.Valid(time.Now()))
	})

	t.Run("jwt exp earlier than blob exp wins", func(t *testing.T) {
		jwtExp := time.Now().Add(10 * time.Minute)
		tok, err := ParseSession(sessionBlob(makeJWT(t, jwtExp), exp))
		require.NoError(t, err)
		assert.Equal(t, jwtExp.Unix(), tok.ExpiresAt.Unix())
	})

	t.Run("expired token", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		_, err := ParseSession(sessionBlob(makeJWT(t, past), past))
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("no authenticated session", func(t *testing.T) {
		_, err := ParseSession([]byte(`{"authenticated":{}}`))
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("malformed blob", func(t *testing.T) {
		_, err := ParseSession([]byte(`{not json`))
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("opaque token falls back to blob expiry", func(t *testing.T) {
		tok, err := ParseSession(sessionBlob("not-a-jwt", exp))
		require.NoError(t, err)
		assert.Equal(t, exp.Unix(), tok.ExpiresAt.Unix())
	})
}

func TestAcquireWaitsForValidToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.WriteFile(path, sessionBlob(makeJWT(t, past), past), 0o600))

	src := Source{SessionFile: path, Interval: 10 * time.Millisecond, SkipKeyring: true}

	// Swap in a valid session shortly after polling starts.
	go func() {
		time.Sleep(50 * time.Millisecond)
		exp := time.Now().Add(time.Hour)
		_ = os.WriteFile(path, sessionBlob("fresh-token", exp), 0o600)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tok, err := src.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", tok.Value)
}

func TestAcquireHonorsContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")
	src := Source{SessionFile: path, Interval: 10 * time.Millisecond, SkipKeyring: true}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	_, err := src.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAcquirePublishesToKeyring(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	exp := time.Now().Add(time.Hour)
	require.NoError(t, os.WriteFile(path, sessionBlob("keyring-token", exp), 0o600))

	src := Source{SessionFile: path, Interval: 10 * time.Millisecond}
	tok, err := src.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "keyring-token", tok.Value)

	cached, ok := src.cached()
	assert.True(t, ok)
	assert.Equal(t, "keyring-token", cached.Value)

	t.Cleanup(func() { _ = keyring.Delete(KeyringService, keyringUser) })
}

func TestProviderInvalidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	exp := time.Now().Add(time.Hour)
	require.NoError(t, os.WriteFile(path, sessionBlob("first", exp), 0o600))

	p := &Provider{Source: Source{SessionFile: path, Interval: 10 * time.Millisecond, SkipKeyring: true}}

	got, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	// The cached token is reused without re-reading the file.
	require.NoError(t, os.WriteFile(path, sessionBlob("second", exp), 0o600))
	got, err = p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	// Invalidation forces a re-acquire.
	p.Invalidate()
	got, err = p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}
