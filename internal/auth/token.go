package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

const (
	xdgAppName = "tandem"
	tokenFile  = "token.json"
)

// DefaultTokenPath returns ~/.config/tandem/token.json
func DefaultTokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName, tokenFile), nil
}

// FileTokenSource reads a cached oauth2.Token from disk on every call.
// Wrap it in oauth2.ReuseTokenSource to avoid repeated reads.
type FileTokenSource struct {
	Path string
}

// Token implements oauth2.TokenSource
func (f FileTokenSource) Token() (*oauth2.Token, error) {
	return tokenFromFile(f.Path)
}

// CachedTokenSource returns a reusing token source backed by path
func CachedTokenSource(path string) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, FileTokenSource{Path: path})
}

// tokenFromFile reads an oauth2.Token from a JSON file.
func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", path, err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token file %s has no access token", path)
	}
	return tok, nil
}

// SaveToken writes token to path with owner-only permissions
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache token to %s: %w", path, err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}
