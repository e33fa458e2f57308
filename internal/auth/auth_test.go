package auth

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/riordanpawley/tandem/internal/domain"
	"github.com/riordanpawley/tandem/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type failingSource struct{}

func (failingSource) Token() (*oauth2.Token, error) { return nil, errors.New("no token") }

func TestResolve(t *testing.T) {
	cached := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "cached"})

	t.Run("session token wins", func(t *testing.T) {
		tok := Resolve(Session{Token: "live"}, cached)
		require.NotNil(t, tok)
		assert.Equal(t, "live", tok.AccessToken)
	})

	t.Run("falls back to cached credential", func(t *testing.T) {
		tok := Resolve(Session{}, cached)
		require.NotNil(t, tok)
		assert.Equal(t, "cached", tok.AccessToken)
	})

	t.Run("anonymous when nothing available", func(t *testing.T) {
		assert.Nil(t, Resolve(Session{}, nil))
		assert.Nil(t, Resolve(Session{}, failingSource{}))
	})

	t.Run("expired cached token is ignored", func(t *testing.T) {
		expired := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "old", Expiry: time.Now().Add(-time.Hour)})
		assert.Nil(t, Resolve(Session{}, expired))
	})
}

func TestSaveAndLoadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")

	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "abc", TokenType: "Bearer"}))

	tok, err := CachedTokenSource(path).Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)
}

func TestFileTokenSource_Missing(t *testing.T) {
	_, err := FileTokenSource{Path: filepath.Join(t.TempDir(), "none.json")}.Token()
	assert.Error(t, err)
}

func TestSession_PolicyShortcuts(t *testing.T) {
	s := Session{Role: domain.RoleDeveloper, DepartmentID: "3"}

	assert.Equal(t, policy.StrategyAssigned, s.Strategy())
	assert.False(t, s.Capabilities().CanAssignUsers)
	assert.Equal(t, policy.Actor{Role: domain.RoleDeveloper, DepartmentID: "3"}, s.Actor())
	assert.Nil(t, s.Credential())
}
