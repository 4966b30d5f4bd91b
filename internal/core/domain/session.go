package domain

import "time"

// DefaultSessionTimeout is the lifetime of a freshly issued bearer token.
const DefaultSessionTimeout = 30 * time.Second

// TokenLength is the fixed length of a session token.
const TokenLength = 32

// TokenAlphabet is the 64-symbol alphabet session tokens are drawn from, in
// the order the token generator maps draws [0,64) onto.
const TokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ-_"

// Session is a live, bearer-authenticated login.
type Session struct {
	Token   string
	Timeout Timeout
}
