package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tidwall/gjson"

	"github.com/mcoot/crcon-linkbot/internal/dependencies/clock"
)

// AuthMode is the configured way of obtaining credentials
type AuthMode int

const (
	AuthModeNone AuthMode = iota
	AuthModeToken
	AuthModeLogin
)

func (m AuthMode) String() string {
	switch m {
	case AuthModeToken:
		return "token"
	case AuthModeLogin:
		return "login"
	default:
		return "none"
	}
}

// loginTokenPaths are probed in order for a token in the login response body
var loginTokenPaths = []string{"result.token", "token", "access_token", "jwt"}

const maxBodyBytes = 4 << 20

// AuthConfig holds configuration for the authenticator
type AuthConfig struct {
	BaseURL    string
	Token      string
	Username   string
	Password   string
	SessionTTL time.Duration
}

// DefaultAuthConfig returns default authenticator configuration
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		SessionTTL: 25 * time.Minute,
	}
}

// Authenticator owns the console credential. In token mode the credential is
// static; in login mode it is obtained from /api/login and refreshed when it
// expires or is invalidated after a 401.
//
// The lock is never held across the login call, so concurrent callers that
// race on an expired credential may each log in. That is harmless.
type Authenticator struct {
	cfg        AuthConfig
	httpClient *http.Client
	clock      clock.Clock
	logger     *slog.Logger

	mu   sync.Mutex
	cred *Credential

	logins atomic.Int64
}

// NewAuthenticator creates an Authenticator
func NewAuthenticator(cfg AuthConfig, httpClient *http.Client, clk clock.Clock, logger *slog.Logger) *Authenticator {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = DefaultAuthConfig().SessionTTL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	a := &Authenticator{
		cfg:        cfg,
		httpClient: httpClient,
		clock:      clk,
		logger:     logger.With(slog.String("component", "console-auth")),
	}
	if cfg.Token != "" {
		a.cred = &Credential{Mode: CredentialBearer, Value: cfg.Token, IssuedAt: clk.Now()}
	}
	return a
}

// Mode reports which credential source is configured. A static token takes
// precedence over a username/password pair.
func (a *Authenticator) Mode() AuthMode {
	switch {
	case a.cfg.Token != "":
		return AuthModeToken
	case a.cfg.Username != "" && a.cfg.Password != "":
		return AuthModeLogin
	default:
		return AuthModeNone
	}
}

// Current returns the live credential if there is one and it has not expired
func (a *Authenticator) Current() (Credential, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cred == nil || !a.cred.Valid(a.clock.Now()) {
		return Credential{}, false
	}
	return *a.cred, true
}

// Authenticate returns a usable credential, logging in if necessary
func (a *Authenticator) Authenticate(ctx context.Context) (Credential, error) {
	switch a.Mode() {
	case AuthModeToken:
		cred, _ := a.Current()
		return cred, nil
	case AuthModeLogin:
		if cred, ok := a.Current(); ok {
			return cred, nil
		}
		return a.login(ctx)
	default:
		return Credential{}, &AuthError{Reason: "no credential source", Err: ErrNoCredentials}
	}
}

// Invalidate drops a login-mode credential so the next call logs in again.
// A static token is never dropped.
func (a *Authenticator) Invalidate() {
	if a.Mode() != AuthModeLogin {
		return
	}
	a.mu.Lock()
	a.cred = nil
	a.mu.Unlock()
}

// LoginCount returns how many login round-trips have been attempted
func (a *Authenticator) LoginCount() int64 {
	return a.logins.Load()
}

func (a *Authenticator) login(ctx context.Context) (Credential, error) {
	a.logins.Add(1)

	cred, err := a.doLogin(ctx)
	if err != nil {
		a.mu.Lock()
		a.cred = nil
		a.mu.Unlock()
		a.logger.Warn("console login failed", slog.Any("error", err))
		return Credential{}, err
	}

	a.mu.Lock()
	a.cred = &cred
	a.mu.Unlock()

	a.logger.Info("console login succeeded",
		slog.String("mode", cred.Mode.String()),
		slog.Time("expires_at", cred.ExpiresAt),
	)
	return cred, nil
}

func (a *Authenticator) doLogin(ctx context.Context) (Credential, error) {
	payload, err := json.Marshal(map[string]string{
		"username": a.cfg.Username,
		"password": a.cfg.Password,
	})
	if err != nil {
		return Credential{}, &AuthError{Reason: "encode login request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+PathLogin, bytes.NewReader(payload))
	if err != nil {
		return Credential{}, &AuthError{Reason: "build login request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return Credential{}, &AuthError{Reason: "login request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Credential{}, &AuthError{Reason: "read login response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Credential{}, &AuthError{
			Reason: fmt.Sprintf("login rejected with status %d", resp.StatusCode),
			Err:    &RemoteError{Status: resp.StatusCode, Endpoint: PathLogin, Message: errorMessage(body)},
		}
	}

	parsed := gjson.ParseBytes(body)
	if parsed.Get("failed").Bool() {
		return Credential{}, &AuthError{Reason: "login rejected: " + errorMessage(body)}
	}

	now := a.clock.Now()
	cred := Credential{IssuedAt: now, ExpiresAt: now.Add(a.cfg.SessionTTL)}

	if cookie := cookieHeader(resp.Cookies()); cookie != "" {
		cred.Mode = CredentialCookie
		cred.Value = cookie
		return cred, nil
	}

	for _, path := range loginTokenPaths {
		if tok := strings.TrimSpace(parsed.Get(path).String()); tok != "" {
			cred.Mode = CredentialBearer
			cred.Value = tok
			if exp := tokenExpiry(tok); !exp.IsZero() && exp.Before(cred.ExpiresAt) {
				cred.ExpiresAt = exp
			}
			return cred, nil
		}
	}

	return Credential{}, &AuthError{Reason: "login response carried neither a session cookie nor a token"}
}

func cookieHeader(cookies []*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c.Value == "" {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// tokenExpiry reads the exp claim of a JWT without verifying it. Opaque
// tokens yield the zero time.
func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
