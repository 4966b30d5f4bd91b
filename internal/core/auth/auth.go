// Package auth implements the bridge's session store and bearer-token
// authentication: login against a single set of bcrypt-hashed credentials,
// sliding-expiration session lookup, and logout. Sessions live in the shared
// storage aggregate rather than a package-local map, so the same Login,
// Logout and Authenticate calls work under a Grant held by any caller.
package auth

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/sasetz/psip-switch/internal/core/domain"
	"github.com/sasetz/psip-switch/internal/core/storage"
)

// ErrInvalidCredentials is returned by Login when the username or password
// does not match the configured credentials.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// ErrTokenExhausted is returned when every draw in a bounded number of
// attempts collided with a live session's token. With a 64-symbol, 32-
// character alphabet this is not expected to happen in practice.
var ErrTokenExhausted = errors.New("auth: could not draw a unique session token")

// maxTokenAttempts bounds the reject-and-retry loop on token collision.
const maxTokenAttempts = 8

// Authenticator holds the single configured login (bcrypt-hashed, never
// cleartext, even though the factory default is root/root) and mints,
// validates and revokes bearer sessions against shared storage.
type Authenticator struct {
	username     string
	passwordHash []byte
}

// New bcrypt-hashes password at construction so the cleartext value is never
// retained past process start.
func New(username, password string) (*Authenticator, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Authenticator{username: username, passwordHash: hash}, nil
}

// Username returns the configured login name, used by callers that need to
// attribute an audited action to "the" operator account.
func (a *Authenticator) Username() string {
	return a.username
}

// Login validates credentials and, on success, mints a fresh session and
// appends it to agg.Sessions. The caller is expected to hold a Grant for the
// duration of this call.
func (a *Authenticator) Login(agg *storage.Aggregate, username, password string) (string, error) {
	if username != a.username {
		return "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	token, err := a.mintToken(agg)
	if err != nil {
		return "", err
	}
	agg.Sessions = append(agg.Sessions, domain.Session{
		Token:   token,
		Timeout: domain.NewTimeout(domain.DefaultSessionTimeout),
	})
	return token, nil
}

// Authenticate validates an `Authorization: Bearer <token>` header against
// the live session list. On success it slides the session's expiration
// forward: every bearer-authenticated request refreshes its own session.
func (a *Authenticator) Authenticate(agg *storage.Aggregate, authorizationHeader string) bool {
	token, ok := BearerToken(authorizationHeader)
	if !ok {
		return false
	}
	session, found := agg.FindSession(token)
	if !found {
		return false
	}
	session.Timeout.Reset()
	return true
}

// Logout removes the session carrying the bearer token in authorizationHeader,
// reporting whether a session was actually found and removed.
func (a *Authenticator) Logout(agg *storage.Aggregate, authorizationHeader string) bool {
	token, ok := BearerToken(authorizationHeader)
	if !ok {
		return false
	}
	return agg.RemoveSession(token)
}

// BearerToken extracts the token from a `Bearer <token>` Authorization
// header, reporting ok=false if the header is absent or malformed.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimPrefix(header, prefix)
	if token == "" {
		return "", false
	}
	return token, true
}

func (a *Authenticator) mintToken(agg *storage.Aggregate) (string, error) {
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token, err := drawToken()
		if err != nil {
			return "", err
		}
		if _, exists := agg.FindSession(token); !exists {
			return token, nil
		}
	}
	return "", ErrTokenExhausted
}

// drawToken samples domain.TokenLength symbols uniformly from crypto/rand,
// mapping each draw in [0,64) onto domain.TokenAlphabet. A draw landing in
// the final two-symbol bucket (62 or 63) is resolved to '-' or '_' by the
// parity of its position in the token rather than the draw value itself.
func drawToken() (string, error) {
	var b strings.Builder
	b.Grow(domain.TokenLength)
	for i := 0; i < domain.TokenLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(64))
		if err != nil {
			return "", err
		}
		v := n.Int64()
		switch {
		case v < 10:
			b.WriteByte("0123456789"[v])
		case v < 36:
			b.WriteByte("abcdefghijklmnopqrstuvwxyz"[v-10])
		case v < 62:
			b.WriteByte("ABCDEFGHIJKLMNOPQRSTUVWXYZ"[v-36])
		case i%2 == 0:
			b.WriteByte('-')
		default:
			b.WriteByte('_')
		}
	}
	return b.String(), nil
}
