package resolver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mcoot/crcon-linkbot/internal/console"
	"github.com/mcoot/crcon-linkbot/internal/model"
)

// Console is the subset of the request executor the resolver needs
type Console interface {
	Get(ctx context.Context, path string, query url.Values) (gjson.Result, error)
	Post(ctx context.Context, path string, body any) (gjson.Result, error)
}

// PlatformDetector classifies resolved players
type PlatformDetector interface {
	Detect(stableID, name string) model.Platform
}

// Strategy is one lookup in the resolution cascade: a probe that fetches a
// console response and a parser that looks for an exact name match in it
type Strategy struct {
	Name  string
	Probe func(ctx context.Context, c Console, name string) (gjson.Result, error)
	Parse func(result gjson.Result, name string) (model.PlayerRecord, bool)
}

// Service maps a player name to a canonical PlayerRecord
type Service struct {
	console    Console
	platforms  PlatformDetector
	strategies []Strategy
	logger     *slog.Logger
}

// New creates a resolver using the default strategy table
func New(c Console, platforms PlatformDetector, logger *slog.Logger) *Service {
	return NewWithStrategies(c, platforms, DefaultStrategies(), logger)
}

// NewWithStrategies creates a resolver with an explicit strategy table
func NewWithStrategies(c Console, platforms PlatformDetector, strategies []Strategy, logger *slog.Logger) *Service {
	return &Service{
		console:    c,
		platforms:  platforms,
		strategies: strategies,
		logger:     logger.With(slog.String("component", "player-resolver")),
	}
}

// Resolve tries each strategy in order and returns the first exact
// (case-insensitive) match. It returns model.ErrPlayerNotFound when no
// strategy matched, and an error only when every strategy failed to reach
// the console. A strategy rejected with a 4xx (for example an endpoint this
// server version lacks) counts as a miss, not an outage.
func (s *Service) Resolve(ctx context.Context, name string) (*model.PlayerRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.ErrInvalidName
	}

	var lastErr error
	failures := 0

	for _, strategy := range s.strategies {
		result, err := strategy.Probe(ctx, s.console, name)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.logger.Debug("resolution strategy failed",
				slog.String("strategy", strategy.Name),
				slog.Any("error", err),
			)
			if unreachable(err) {
				failures++
				lastErr = err
			}
			continue
		}

		record, ok := strategy.Parse(result, name)
		if !ok {
			continue
		}

		record.Source = strategy.Name
		if record.DisplayName == "" {
			record.DisplayName = record.Name
		}
		if s.platforms != nil {
			record.Platform = s.platforms.Detect(record.StableID, record.Name)
		}

		s.logger.Info("player resolved",
			slog.String("name", record.Name),
			slog.String("stable_id", record.StableID),
			slog.String("strategy", strategy.Name),
		)
		return &record, nil
	}

	if failures > 0 && failures == len(s.strategies) {
		s.logger.Warn("player resolution failed on every strategy",
			slog.String("name", name),
			slog.Any("error", lastErr),
		)
		return nil, lastErr
	}

	return nil, model.ErrPlayerNotFound
}

func unreachable(err error) bool {
	var remoteErr *console.RemoteError
	if errors.As(err, &remoteErr) {
		status := remoteErr.Status
		return status == 0 || status >= 500 || status == http.StatusTooManyRequests || status == http.StatusUnauthorized
	}
	return true
}
