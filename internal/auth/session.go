// Package auth carries the caller's session and resolves the bearer
// credential sent with every API request.
package auth

import (
	"github.com/riordanpawley/tandem/internal/domain"
	"github.com/riordanpawley/tandem/internal/policy"
	"golang.org/x/oauth2"
)

// Session is the caller context passed explicitly into every engine call
type Session struct {
	UserID       string
	Name         string
	Role         domain.Role
	DepartmentID string
	Token        string // Bearer credential; empty is a valid, degraded state
}

// Actor returns the policy view of the session
func (s Session) Actor() policy.Actor {
	return policy.Actor{Role: s.Role, DepartmentID: s.DepartmentID}
}

// Capabilities is a shortcut for policy.CapabilitiesFor(s.Role)
func (s Session) Capabilities() policy.Capabilities {
	return policy.CapabilitiesFor(s.Role)
}

// Strategy is a shortcut for policy.FetchStrategyFor(s.Role)
func (s Session) Strategy() policy.Strategy {
	return policy.FetchStrategyFor(s.Role)
}

// Credential returns the session's own bearer token, or nil when the
// session carries none.
func (s Session) Credential() *oauth2.Token {
	if s.Token == "" {
		return nil
	}
	return &oauth2.Token{AccessToken: s.Token, TokenType: "Bearer"}
}

// Resolve picks the credential for a request: the session token first,
// then the fallback source (usually the cached token file). It returns nil
// for an anonymous request; a failing fallback is not an error.
func Resolve(s Session, fallback oauth2.TokenSource) *oauth2.Token {
	if tok := s.Credential(); tok != nil {
		return tok
	}
	if fallback == nil {
		return nil
	}
	tok, err := fallback.Token()
	if err != nil || tok == nil || !tok.Valid() {
		return nil
	}
	return tok
}
