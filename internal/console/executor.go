package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/mcoot/crcon-linkbot/internal/dependencies/clock"
)

// Request describes a single logical console API call
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// ExecutorConfig holds configuration for the request executor
type ExecutorConfig struct {
	BaseURL string
	// MaxRetries is the number of extra attempts after the first one for
	// transport errors, 5xx and 429 responses
	MaxRetries  int
	BaseBackoff time.Duration
	// RequestsPerSecond limits outgoing requests; zero means unlimited
	RequestsPerSecond float64
}

// DefaultExecutorConfig returns default executor configuration
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		MaxRetries:  3,
		BaseBackoff: time.Second,
	}
}

// Executor performs authenticated console calls with retry, backoff and
// a single re-authentication on 401 in login mode
type Executor struct {
	cfg        ExecutorConfig
	httpClient *http.Client
	auth       *Authenticator
	health     *Health
	clock      clock.Clock
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewExecutor creates an Executor
func NewExecutor(cfg ExecutorConfig, httpClient *http.Client, auth *Authenticator, clk clock.Clock, logger *slog.Logger) *Executor {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseBackoff == 0 {
		cfg.BaseBackoff = DefaultExecutorConfig().BaseBackoff
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Executor{
		cfg:        cfg,
		httpClient: httpClient,
		auth:       auth,
		health:     NewHealth(clk),
		clock:      clk,
		limiter:    limiter,
		logger:     logger.With(slog.String("component", "console-executor")),
	}
}

// Health returns the health tracker updated by every call
func (e *Executor) Health() *Health {
	return e.health
}

// Get performs a GET call
func (e *Executor) Get(ctx context.Context, path string, query url.Values) (gjson.Result, error) {
	return e.Execute(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST call with a JSON body
func (e *Executor) Post(ctx context.Context, path string, body any) (gjson.Result, error) {
	return e.Execute(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Execute performs one logical call. The returned value is the body's
// "result" member when the body is an object that has one, otherwise the
// whole body.
func (e *Executor) Execute(ctx context.Context, req Request) (gjson.Result, error) {
	result, err := e.execute(ctx, req)
	switch {
	case err == nil:
		e.health.RecordSuccess()
	case errors.Is(err, context.Canceled):
		// caller went away; says nothing about the console
	default:
		e.health.RecordFailure()
	}
	return result, err
}

func (e *Executor) execute(ctx context.Context, req Request) (gjson.Result, error) {
	var payload []byte
	if req.Body != nil {
		var err error
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("encode %s request: %w", req.Path, err)
		}
	}

	reauthed := false
	retries := 0

	for {
		cred, err := e.auth.Authenticate(ctx)
		if err != nil {
			return gjson.Result{}, err
		}

		status, body, err := e.send(ctx, req, payload, cred)

		var retryErr error
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return gjson.Result{}, ctxErr
			}
			retryErr = &RemoteError{Endpoint: req.Path, Err: err}

		case status == http.StatusUnauthorized:
			remote := &RemoteError{Status: status, Endpoint: req.Path, Message: errorMessage(body)}
			if e.auth.Mode() != AuthModeLogin {
				return gjson.Result{}, &AuthError{Reason: "api token rejected", Err: remote}
			}
			if reauthed {
				return gjson.Result{}, &AuthError{Reason: "credential rejected after re-authentication", Err: remote}
			}
			e.logger.Info("console session rejected, re-authenticating", slog.String("path", req.Path))
			e.auth.Invalidate()
			reauthed = true
			continue

		case status >= 500 || status == http.StatusTooManyRequests:
			retryErr = &RemoteError{Status: status, Endpoint: req.Path, Message: errorMessage(body)}

		case status >= 400:
			return gjson.Result{}, &RemoteError{Status: status, Endpoint: req.Path, Message: errorMessage(body)}

		default:
			return unwrapResult(req.Path, status, body)
		}

		if retries >= e.cfg.MaxRetries {
			return gjson.Result{}, retryErr
		}
		retries++
		delay := e.backoff(retries)
		e.logger.Warn("console call failed, retrying",
			slog.String("path", req.Path),
			slog.Int("retry", retries),
			slog.Duration("delay", delay),
			slog.Any("error", retryErr),
		)
		if err := e.clock.Sleep(ctx, delay); err != nil {
			return gjson.Result{}, err
		}
	}
}

// backoff returns the delay before the n-th retry (1-based)
func (e *Executor) backoff(n int) time.Duration {
	return e.cfg.BaseBackoff << (n - 1)
}

func (e *Executor) send(ctx context.Context, req Request, payload []byte, cred Credential) (int, []byte, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}

	target := e.cfg.BaseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return 0, nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	switch cred.Mode {
	case CredentialCookie:
		httpReq.Header.Set("Cookie", cred.Value)
	default:
		httpReq.Header.Set("Authorization", "Bearer "+cred.Value)
	}

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

func unwrapResult(path string, status int, body []byte) (gjson.Result, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return gjson.Result{}, nil
	}
	if !gjson.ValidBytes(trimmed) {
		return gjson.Result{}, &RemoteError{Status: status, Endpoint: path, Message: "response is not valid JSON"}
	}

	root := gjson.ParseBytes(trimmed)
	if !root.IsObject() {
		return root, nil
	}
	if root.Get("failed").Bool() {
		return gjson.Result{}, &RemoteError{Status: status, Endpoint: path, Message: errorMessage(trimmed)}
	}
	if result := root.Get("result"); result.Exists() {
		return result, nil
	}
	return root, nil
}

// errorMessage extracts a short human-readable reason from an error body
func errorMessage(body []byte) string {
	parsed := gjson.ParseBytes(body)
	if parsed.IsObject() {
		if msg := FirstString(parsed, "error", "message", "detail"); msg != "" {
			return msg
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
