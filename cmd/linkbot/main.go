package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/mcoot/crcon-linkbot/internal/api"
	"github.com/mcoot/crcon-linkbot/internal/api/middleware"
	"github.com/mcoot/crcon-linkbot/internal/config"
	"github.com/mcoot/crcon-linkbot/internal/discord"
	"github.com/mcoot/crcon-linkbot/internal/factory"
)

func main() {
	fs := flag.NewFlagSet("linkbot", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config file (default: $LINKBOT_CONFIG)")
	hashToken := fs.String("hash-token", "", "print the bcrypt hash of an HTTP API token and exit")
	_ = fs.Parse(os.Args[1:])

	if *hashToken != "" {
		hash, err := middleware.HashToken(*hashToken)
		if err != nil {
			fmt.Fprintln(os.Stderr, "hash token:", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	// Validate already rejected a bad level
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Any("config", cfg))

	if err := run(cfg, logger); err != nil {
		logger.Error("linkbot stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factoryCfg := factory.Config{
		Logger:  logger,
		Console: cfg.Console,
		Storage: cfg.Storage,
		Jobs:    cfg.Jobs,
	}

	var bot *discord.Bot
	if cfg.Discord.Token != "" {
		var err error
		bot, err = discord.New(discord.Config{
			Token:          cfg.Discord.Token,
			GuildID:        cfg.Discord.GuildID,
			AdminRoleID:    cfg.Discord.AdminRoleID,
			CommandTimeout: cfg.Discord.CommandTimeout,
		}, logger)
		if err != nil {
			return fmt.Errorf("create discord bot: %w", err)
		}
		factoryCfg.Poster = bot.Poster()
	} else {
		logger.Warn("DISCORD_TOKEN not set, running without the Discord adapter")
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	defer app.Close()

	if err := app.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	errCh := make(chan error, 1)

	var server *api.Server
	if cfg.HTTP.Enabled {
		router := api.NewRouter(api.RouterConfig{
			Logger:       logger,
			APITokenHash: cfg.HTTP.APITokenHash,
			Health:       app.Executor.Health(),
			Connection:   app.Executor,
			Resolver:     app.Resolver,
			Vip:          app.Vip,
			Broadcaster:  app.Broadcast,
			Links:        app.Links,
			Leaderboards: app.Leaderboards,
			Scheduler:    app.Scheduler,
			HubManager:   app.HubManager,
		})
		if cfg.HTTP.APITokenHash == "" {
			logger.Warn("HTTP_API_TOKEN_HASH not set, protected API routes are locked")
		}

		serverCfg := api.DefaultServerConfig()
		serverCfg.Host = cfg.HTTP.Host
		serverCfg.Port = cfg.HTTP.Port
		server = api.NewServer(router, serverCfg, logger)
		server.OnShutdown(app.HubManager.Close)
		if err := server.Listen(); err != nil {
			return err
		}

		go func() {
			errCh <- server.Serve()
		}()
	}

	if bot != nil {
		if err := bot.Open(app.Commands); err != nil {
			return fmt.Errorf("open discord session: %w", err)
		}
		defer func() {
			if err := bot.Close(); err != nil {
				logger.Warn("closing discord session", slog.String("error", err.Error()))
			}
		}()
	}

	logger.Info("linkbot started")

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	if server != nil {
		if err := server.Shutdown(context.Background()); err != nil {
			return err
		}
	}

	logger.Info("linkbot stopped")
	return nil
}
