package questrade

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/finbridge/investor-agent/pkg/errors"
)

// DefaultLoginURL is the Questrade OAuth token endpoint host.
const DefaultLoginURL = "https://login.questrade.com"

// expiryMargin renews the access token slightly before the server-side
// expiry so in-flight requests never race the cutoff.
const expiryMargin = time.Minute

// Token is the persisted authentication state. Questrade rotates the refresh
// token on every exchange, so the file is rewritten after each handle
// creation.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	APIServer    string    `json:"api_server"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Valid reports whether the access token can still be used for API calls.
func (t *Token) Valid() bool {
	return t != nil && t.AccessToken != "" && t.APIServer != "" &&
		time.Now().Add(expiryMargin).Before(t.ExpiresAt)
}

// TokenStore persists tokens as a JSON file, mirroring the on-disk cache the
// brokerage's own SDKs keep. The file holds a secret and is written 0600.
type TokenStore struct {
	mu   sync.Mutex
	path string
}

// NewTokenStore creates a token store at the given path.
// If path is empty, defaults to ~/.questrade.json.
func NewTokenStore(path string) (*TokenStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		path = filepath.Join(home, ".questrade.json")
	}
	return &TokenStore{path: path}, nil
}

// Path returns the token file location.
func (s *TokenStore) Path() string { return s.path }

// Load reads the stored token. Returns (nil, nil) if no token file exists.
func (s *TokenStore) Load() (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read token file: %w", err)
	}

	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token file %s: %w", s.path, err)
	}
	return &tok, nil
}

// Save writes the token to disk with owner-only permissions.
func (s *TokenStore) Save(tok *Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create token dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Delete removes the token file. Missing files are not an error.
func (s *TokenStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// tokenResponse is the wire shape of the OAuth exchange.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	APIServer    string `json:"api_server"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// exchange trades a refresh token for a fresh access token and API server
// assignment. Transport failures come back retryable from the shared client;
// a structurally incomplete grant is an upstream data error.
func (c *Client) exchange(ctx context.Context, refreshToken string) (*Token, error) {
	endpoint := fmt.Sprintf("%s/oauth2/token?grant_type=refresh_token&refresh_token=%s",
		c.loginURL, url.QueryEscape(refreshToken))

	var resp tokenResponse
	if err := c.Get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.APIServer == "" || resp.RefreshToken == "" {
		return nil, errors.New(errors.ErrCodeUpstreamData, "token grant missing required fields")
	}

	return &Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		APIServer:    resp.APIServer,
		TokenType:    resp.TokenType,
		ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}, nil
}

// handle returns a usable token, creating one lazily on first use.
// Creation is serialized; a valid handle is reused across concurrent calls.
// The resolution order follows the stored-state-first convention: a valid
// persisted access token wins, then the persisted rotated refresh token,
// then the refresh token supplied at construction.
func (c *Client) handle(ctx context.Context) (*Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.Valid() {
		return c.token, nil
	}

	refresh := c.refreshToken
	if stored, err := c.store.Load(); err != nil {
		c.logger.Warn("unreadable token file, falling back to configured refresh token", "err", err)
	} else if stored != nil {
		if stored.Valid() {
			c.token = stored
			return c.token, nil
		}
		if stored.RefreshToken != "" {
			refresh = stored.RefreshToken
		}
	}
	if refresh == "" {
		return nil, errors.New(errors.ErrCodeConfigMissing,
			"no Questrade refresh token available; set QUESTRADE_REFRESH_TOKEN or log in again")
	}

	tok, err := c.exchange(ctx, refresh)
	if err != nil {
		if errors.Is(err, errors.ErrCodeUpstreamAuth) {
			// The refresh token itself was rejected. Remove the persisted copy
			// so the next call falls back to the configured credential instead
			// of retrying the same stale rotation forever.
			if derr := c.store.Delete(); derr != nil {
				c.logger.Warn("failed to remove rejected Questrade token file", "err", derr)
			}
		}
		return nil, err
	}
	if err := c.store.Save(tok); err != nil {
		// The rotated refresh token could not be persisted; the session still
		// works, but the next process start will need a fresh manual token.
		c.logger.Warn("failed to persist rotated Questrade token", "err", err)
	}
	c.token = tok
	c.logger.Debug("questrade handle created", "api_server", tok.APIServer)
	return tok, nil
}

// invalidate drops the current handle so the next call re-derives it from
// the stored credential. Called when the API rejects the access token.
//
// The persisted copy keeps only the refresh token: a rejected access token
// can still look unexpired locally, and reloading it verbatim would loop on
// the same rejection.
func (c *Client) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = nil

	stored, err := c.store.Load()
	if err != nil || stored == nil {
		return
	}
	stored.AccessToken = ""
	stored.ExpiresAt = time.Time{}
	if err := c.store.Save(stored); err != nil {
		c.logger.Warn("failed to clear rejected Questrade access token", "err", err)
	}
}
