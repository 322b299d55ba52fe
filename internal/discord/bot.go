// Package discord connects the command handlers and notifications to Discord.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/mcoot/crcon-linkbot/internal/commands"
)

// CommandHandler runs a slash command
type CommandHandler interface {
	Handle(ctx context.Context, inv commands.Invocation) commands.Response
}

// Config configures the bot connection
type Config struct {
	Token          string
	GuildID        string // empty registers commands globally
	AdminRoleID    string
	CommandTimeout time.Duration
}

// Bot owns the gateway connection and routes interactions to the handler
type Bot struct {
	session *discordgo.Session
	handler CommandHandler
	cfg     Config
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a bot. The connection is opened by Open.
func New(cfg Config, logger *slog.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("discord token is required")
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 60 * time.Second
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bot{
		session: session,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "discord")),
		ctx:     ctx,
		cancel:  cancel,
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteractionCreate)
	return b, nil
}

// Poster returns a Poster that sends through the bot's session
func (b *Bot) Poster() *Poster {
	return NewPoster(b.session, b.logger)
}

// Open connects to the gateway and routes interactions to handler.
// Commands are registered once Ready arrives.
func (b *Bot) Open(handler CommandHandler) error {
	b.handler = handler
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening discord connection: %w", err)
	}
	return nil
}

// Close cancels running commands and disconnects
func (b *Bot) Close() error {
	b.cancel()
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord connected",
		slog.String("user", event.User.Username),
		slog.Int("guilds", len(event.Guilds)),
	)

	cmds := applicationCommands(commands.Definitions())
	if _, err := s.ApplicationCommandBulkOverwrite(event.User.ID, b.cfg.GuildID, cmds); err != nil {
		b.logger.Error("registering slash commands failed", slog.Any("error", err))
		return
	}
	b.logger.Info("slash commands registered",
		slog.Int("count", len(cmds)),
		slog.String("guild_id", b.cfg.GuildID),
	)
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	inv := invocation(i, b.cfg.AdminRoleID)
	def, _ := commands.Lookup(inv.Command, inv.Subcommand)

	// Acknowledge within Discord's three second window, then edit the reply
	deferred := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}
	if def.Ephemeral {
		deferred.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	if err := s.InteractionRespond(i.Interaction, deferred); err != nil {
		b.logger.Error("deferring interaction failed",
			slog.String("command", inv.Command),
			slog.Any("error", err),
		)
		return
	}

	ctx, cancel := context.WithTimeout(b.ctx, b.cfg.CommandTimeout)
	defer cancel()

	start := time.Now()
	resp := b.handler.Handle(ctx, inv)

	edit := &discordgo.WebhookEdit{}
	if resp.Content != "" {
		edit.Content = &resp.Content
	}
	embeds := messageEmbeds(resp.Embeds)
	edit.Embeds = &embeds

	if _, err := s.InteractionResponseEdit(i.Interaction, edit); err != nil {
		b.logger.Error("editing interaction response failed",
			slog.String("command", inv.Command),
			slog.Any("error", err),
		)
		return
	}

	b.logger.Debug("command handled",
		slog.String("command", inv.Command),
		slog.String("subcommand", inv.Subcommand),
		slog.String("user_id", inv.UserID),
		slog.Duration("duration", time.Since(start)),
	)
}
