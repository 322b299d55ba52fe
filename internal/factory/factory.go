package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/crcon-linkbot/internal/api/sse"
	"github.com/mcoot/crcon-linkbot/internal/commands"
	"github.com/mcoot/crcon-linkbot/internal/config"
	"github.com/mcoot/crcon-linkbot/internal/console"
	"github.com/mcoot/crcon-linkbot/internal/dependencies/clock"
	"github.com/mcoot/crcon-linkbot/internal/dependencies/random"
	"github.com/mcoot/crcon-linkbot/internal/jobs"
	"github.com/mcoot/crcon-linkbot/internal/model"
	"github.com/mcoot/crcon-linkbot/internal/services/broadcast"
	"github.com/mcoot/crcon-linkbot/internal/services/contest"
	"github.com/mcoot/crcon-linkbot/internal/services/expiry"
	"github.com/mcoot/crcon-linkbot/internal/services/leaderboard"
	"github.com/mcoot/crcon-linkbot/internal/services/link"
	"github.com/mcoot/crcon-linkbot/internal/services/platform"
	"github.com/mcoot/crcon-linkbot/internal/services/resolver"
	"github.com/mcoot/crcon-linkbot/internal/services/vip"
	"github.com/mcoot/crcon-linkbot/internal/storage"
	"github.com/mcoot/crcon-linkbot/internal/storage/memory"
	redisstorage "github.com/mcoot/crcon-linkbot/internal/storage/redis"
	"github.com/mcoot/crcon-linkbot/internal/storage/sqlite"
)

// Background job names
const (
	JobVipScan            = "vip-scan"
	JobLeaderboardRefresh = "leaderboard-refresh"
	JobContestExpiry      = "contest-expiry"
)

// Poster delivers everything the services post to chat
type Poster interface {
	expiry.Notifier
	contest.Publisher
	leaderboard.Publisher
}

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Console access
	Executor *console.Executor

	// Services
	Platforms    *platform.Detector
	Resolver     *resolver.Service
	Vip          *vip.Service
	Broadcast    *broadcast.Service
	Links        *link.Service
	Expiry       *expiry.Service
	Contests     *contest.Service
	Leaderboards *leaderboard.Service

	// Adapters
	Commands   *commands.Handler
	Scheduler  *jobs.Scheduler
	HubManager *sse.HubManager
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// Console configures the console API client
	Console config.ConsoleConfig
	// Storage selects the storage backend. If Type is empty, memory is used
	Storage config.StorageConfig
	// Jobs configures the background scheduler
	Jobs config.JobsConfig
	// Poster delivers chat messages (optional)
	// If nil, messages are only logged
	Poster Poster
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.Console.Timeout}

	app, err := newWithDependencies(store, clock.New(), random.New(), httpClient, cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

func openStorage(cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Type {
	case "", config.StorageTypeMemory:
		return memory.New(), nil
	case config.StorageTypeRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("redis url required when storage type is redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		if cfg.RedisKeyPrefix != "" {
			redisCfg.KeyPrefix = cfg.RedisKeyPrefix
		}
		return redisstorage.New(redisCfg)
	case config.StorageTypeSQLite:
		return sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("invalid storage type %q: must be memory, redis or sqlite", cfg.Type)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	httpClient *http.Client,
	cfg Config,
	logger *slog.Logger,
) (*App, error) {
	cfg.Jobs = jobDefaults(cfg.Jobs)
	poster := cfg.Poster
	if poster == nil {
		poster = &logPoster{logger: logger.With(slog.String("component", "poster"))}
	}

	auth := console.NewAuthenticator(console.AuthConfig{
		BaseURL:    cfg.Console.BaseURL,
		Token:      cfg.Console.APIToken,
		Username:   cfg.Console.Username,
		Password:   cfg.Console.Password,
		SessionTTL: cfg.Console.SessionTTL,
	}, httpClient, clk, logger)
	executor := console.NewExecutor(console.ExecutorConfig{
		BaseURL:           cfg.Console.BaseURL,
		MaxRetries:        cfg.Console.MaxRetries,
		BaseBackoff:       cfg.Console.BaseBackoff,
		RequestsPerSecond: cfg.Console.RequestsPerSecond,
	}, httpClient, auth, clk, logger)

	platforms := platform.New(cfg.Console.PlayStationPrefixes)
	resolverService := resolver.New(executor, platforms, logger)
	vipService := vip.New(executor, clk, logger)
	broadcastService := broadcast.New(executor, clk, broadcast.Config{
		ClearAfter:   cfg.Console.BroadcastClearAfter,
		MessageDelay: cfg.Console.MessageDelay,
		Sender:       cfg.Console.MessageSender,
	}, logger)
	linkService := link.New(store, resolverService, vipService, clk, logger)
	expiryService := expiry.New(store, vipService, poster, clk, cfg.Jobs.VipWarnDays, logger)
	contestService := contest.New(store, broadcastService, poster, clk, rnd, logger)

	hubManager := sse.NewHubManager(logger)
	leaderboardService := leaderboard.New(executor, store, poster, sse.NewBroadcaster(hubManager, logger), clk, logger)

	handler := commands.New(
		linkService,
		resolverService,
		vipService,
		broadcastService,
		contestService,
		leaderboardService,
		logger,
	)

	scheduler := jobs.New(clk, logger)
	for _, job := range []jobs.Job{
		{
			Name:         JobVipScan,
			Interval:     cfg.Jobs.VipScanInterval,
			InitialDelay: cfg.Jobs.InitialDelay,
			Run: func(ctx context.Context) error {
				_, err := expiryService.Scan(ctx)
				return err
			},
		},
		{
			Name:         JobLeaderboardRefresh,
			Interval:     cfg.Jobs.LeaderboardInterval,
			InitialDelay: cfg.Jobs.InitialDelay,
			Run: func(ctx context.Context) error {
				_, err := leaderboardService.Refresh(ctx)
				return err
			},
		},
		{
			Name:         JobContestExpiry,
			Interval:     cfg.Jobs.ContestInterval,
			InitialDelay: cfg.Jobs.InitialDelay,
			Run: func(ctx context.Context) error {
				_, err := contestService.EndExpired(ctx)
				return err
			},
		},
	} {
		if err := scheduler.Add(job); err != nil {
			return nil, fmt.Errorf("register job %s: %w", job.Name, err)
		}
	}

	return &App{
		Storage:      store,
		Clock:        clk,
		Random:       rnd,
		Executor:     executor,
		Platforms:    platforms,
		Resolver:     resolverService,
		Vip:          vipService,
		Broadcast:    broadcastService,
		Links:        linkService,
		Expiry:       expiryService,
		Contests:     contestService,
		Leaderboards: leaderboardService,
		Commands:     handler,
		Scheduler:    scheduler,
		HubManager:   hubManager,
	}, nil
}

// jobDefaults fills unset intervals from config.Default
func jobDefaults(cfg config.JobsConfig) config.JobsConfig {
	defaults := config.Default().Jobs
	if cfg.VipScanInterval <= 0 {
		cfg.VipScanInterval = defaults.VipScanInterval
	}
	if cfg.LeaderboardInterval <= 0 {
		cfg.LeaderboardInterval = defaults.LeaderboardInterval
	}
	if cfg.ContestInterval <= 0 {
		cfg.ContestInterval = defaults.ContestInterval
	}
	return cfg
}

// Close stops background work and releases storage
func (a *App) Close() error {
	a.Scheduler.Stop()
	a.HubManager.Close()
	return a.Storage.Close()
}

// logPoster stands in for the chat adapter when it is disabled
type logPoster struct {
	logger *slog.Logger
}

func (p *logPoster) NotifyVipExpiring(ctx context.Context, link *model.LinkRecord, status model.VipStatus) error {
	p.logger.Info("vip expiring, chat disabled",
		slog.String("discord_id", link.DiscordID),
		slog.String("player", link.PlayerName),
	)
	return nil
}

func (p *logPoster) NotifyVipExpired(ctx context.Context, link *model.LinkRecord) error {
	p.logger.Info("vip expired, chat disabled",
		slog.String("discord_id", link.DiscordID),
		slog.String("player", link.PlayerName),
	)
	return nil
}

func (p *logPoster) PublishContestResult(ctx context.Context, c *model.Contest) error {
	p.logger.Info("contest finished, chat disabled",
		slog.String("contest_id", string(c.ID)),
		slog.Int("winners", len(c.Winners)),
	)
	return nil
}

func (p *logPoster) PublishLeaderboard(ctx context.Context, ch *model.LeaderboardChannel, board *model.Leaderboard) (string, error) {
	p.logger.Debug("leaderboard refreshed, chat disabled",
		slog.String("channel_id", ch.ChannelID),
		slog.String("metric", string(board.Metric)),
	)
	return ch.MessageID, nil
}
