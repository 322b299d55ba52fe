package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mcoot/crcon-linkbot/internal/console"
	"github.com/mcoot/crcon-linkbot/internal/dependencies/clock"
)

// ErrEmptyMessage is returned for a blank broadcast
var ErrEmptyMessage = errors.New("broadcast message must not be empty")

const clearTimeout = 10 * time.Second

// Console is the subset of the request executor the dispatcher needs
type Console interface {
	Get(ctx context.Context, path string, query url.Values) (gjson.Result, error)
	Post(ctx context.Context, path string, body any) (gjson.Result, error)
}

// Config holds configuration for the broadcast dispatcher
type Config struct {
	// ClearAfter is how long a server banner stays up
	ClearAfter time.Duration
	// MessageDelay separates consecutive direct messages
	MessageDelay time.Duration
	// Sender is shown as the author of direct messages
	Sender string
}

// DefaultConfig returns default dispatcher configuration
func DefaultConfig() Config {
	return Config{
		ClearAfter:   30 * time.Second,
		MessageDelay: 100 * time.Millisecond,
		Sender:       "Discord",
	}
}

// Strategy names, in the order they are tried
const (
	StrategyBanner = "banner"
	StrategyDirect = "direct-message"
	StrategyLegacy = "legacy"
)

// Delivery describes how a broadcast reached the server
type Delivery struct {
	Strategy   string
	Recipients int // direct messages sent; zero for banner and legacy delivery
}

type strategy struct {
	name string
	send func(ctx context.Context, message string) (Delivery, error)
}

// Service delivers a message to everyone on the server, falling back
// through progressively more expensive mechanisms
type Service struct {
	console Console
	clock   clock.Clock
	cfg     Config
	logger  *slog.Logger

	strategies []strategy

	mu           sync.Mutex
	pendingClear clock.Timer
}

// New creates a broadcast dispatcher
func New(c Console, clk clock.Clock, cfg Config, logger *slog.Logger) *Service {
	defaults := DefaultConfig()
	if cfg.ClearAfter == 0 {
		cfg.ClearAfter = defaults.ClearAfter
	}
	if cfg.Sender == "" {
		cfg.Sender = defaults.Sender
	}

	s := &Service{
		console: c,
		clock:   clk,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "broadcast")),
	}
	s.strategies = []strategy{
		{name: StrategyBanner, send: s.sendBanner},
		{name: StrategyDirect, send: s.sendDirect},
		{name: StrategyLegacy, send: s.sendLegacy},
	}
	return s
}

// Broadcast tries each strategy in order until one succeeds. When all of
// them fail the result is a *console.DeliveryError.
func (s *Service) Broadcast(ctx context.Context, message string) (Delivery, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Delivery{}, ErrEmptyMessage
	}

	var lastErr error
	for i, st := range s.strategies {
		delivery, err := st.send(ctx, message)
		if err == nil {
			delivery.Strategy = st.name
			s.logger.Info("broadcast delivered",
				slog.String("strategy", st.name),
				slog.Int("recipients", delivery.Recipients),
			)
			return delivery, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Delivery{}, ctxErr
		}
		s.logger.Warn("broadcast strategy failed",
			slog.String("strategy", st.name),
			slog.Int("attempt", i+1),
			slog.Any("error", err),
		)
		lastErr = err
	}

	return Delivery{}, &console.DeliveryError{Attempts: len(s.strategies), LastErr: lastErr}
}

func (s *Service) sendBanner(ctx context.Context, message string) (Delivery, error) {
	if _, err := s.console.Post(ctx, console.PathSetBroadcast, map[string]string{"message": message}); err != nil {
		return Delivery{}, err
	}
	s.scheduleClear()
	return Delivery{}, nil
}

// scheduleClear blanks the banner after ClearAfter. A newer banner replaces
// any clear still pending so it is not cut short. Clear failures are only
// logged; the broadcast has already been reported as delivered.
func (s *Service) scheduleClear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pendingClear != nil {
		s.pendingClear.Stop()
	}
	s.pendingClear = s.clock.AfterFunc(s.cfg.ClearAfter, func() {
		ctx, cancel := context.WithTimeout(context.Background(), clearTimeout)
		defer cancel()
		if _, err := s.console.Post(ctx, console.PathSetBroadcast, map[string]string{"message": ""}); err != nil {
			s.logger.Warn("failed to clear broadcast banner", slog.Any("error", err))
			return
		}
		s.logger.Debug("broadcast banner cleared")
	})
}

func (s *Service) sendDirect(ctx context.Context, message string) (Delivery, error) {
	roster, err := s.console.Get(ctx, console.PathGetPlayers, nil)
	if err != nil {
		return Delivery{}, fmt.Errorf("list online players: %w", err)
	}

	var names []string
	for _, rec := range console.Records(roster) {
		if name := rec.Name(); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return Delivery{}, nil
	}

	sent := 0
	var lastErr error
	for i, name := range names {
		if i > 0 {
			if err := s.clock.Sleep(ctx, s.cfg.MessageDelay); err != nil {
				return Delivery{}, err
			}
		}
		_, err := s.console.Post(ctx, console.PathMessagePlayer, map[string]string{
			"player_name": name,
			"message":     message,
			"by":          s.cfg.Sender,
		})
		if err != nil {
			s.logger.Debug("direct message failed", slog.String("player", name), slog.Any("error", err))
			lastErr = err
			continue
		}
		sent++
	}

	if sent == 0 {
		return Delivery{}, fmt.Errorf("no direct message delivered: %w", lastErr)
	}
	if sent < len(names) {
		s.logger.Warn("some direct messages failed",
			slog.Int("sent", sent),
			slog.Int("players", len(names)),
		)
	}
	return Delivery{Recipients: sent}, nil
}

func (s *Service) sendLegacy(ctx context.Context, message string) (Delivery, error) {
	if _, err := s.console.Post(ctx, console.PathLegacyBroadcast, map[string]string{"message": message}); err != nil {
		return Delivery{}, err
	}
	return Delivery{}, nil
}
