package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/mcoot/crcon-linkbot/internal/commands"
	"github.com/mcoot/crcon-linkbot/internal/model"
	"github.com/mcoot/crcon-linkbot/internal/services/contest"
	"github.com/mcoot/crcon-linkbot/internal/services/expiry"
	"github.com/mcoot/crcon-linkbot/internal/services/leaderboard"
)

// Messenger is the subset of *discordgo.Session used to post messages
type Messenger interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ Messenger = (*discordgo.Session)(nil)

// Poster delivers VIP notices by DM and posts contest results and
// leaderboards to channels
type Poster struct {
	messenger Messenger
	logger    *slog.Logger
}

var (
	_ expiry.Notifier       = (*Poster)(nil)
	_ contest.Publisher     = (*Poster)(nil)
	_ leaderboard.Publisher = (*Poster)(nil)
)

// NewPoster creates a Poster
func NewPoster(messenger Messenger, logger *slog.Logger) *Poster {
	return &Poster{
		messenger: messenger,
		logger:    logger.With(slog.String("component", "discord-poster")),
	}
}

// NotifyVipExpiring warns a user that their VIP runs out soon
func (p *Poster) NotifyVipExpiring(ctx context.Context, link *model.LinkRecord, status model.VipStatus) error {
	return p.directMessage(ctx, link.DiscordID, commands.Embed{
		Title: "Your VIP is expiring soon",
		Description: fmt.Sprintf("VIP for **%s** is ending.\n%s",
			link.PlayerName, commands.FormatVip(status)),
		Color: commands.ColorWarning,
	})
}

// NotifyVipExpired tells a user their VIP has lapsed
func (p *Poster) NotifyVipExpired(ctx context.Context, link *model.LinkRecord) error {
	return p.directMessage(ctx, link.DiscordID, commands.Embed{
		Title:       "Your VIP has expired",
		Description: fmt.Sprintf("**%s** no longer has VIP on the server.", link.PlayerName),
		Color:       commands.ColorError,
	})
}

// PublishContestResult posts the winners in the contest's channel
func (p *Poster) PublishContestResult(ctx context.Context, c *model.Contest) error {
	if c.ChannelID == "" {
		return nil
	}
	_, err := p.messenger.ChannelMessageSendEmbed(c.ChannelID, messageEmbed(commands.ResultEmbed(c)), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("posting contest result: %w", err)
	}
	return nil
}

// PublishLeaderboard edits the channel's previous board, or posts a new one
// if there is none or it was deleted
func (p *Poster) PublishLeaderboard(ctx context.Context, ch *model.LeaderboardChannel, board *model.Leaderboard) (string, error) {
	embed := messageEmbed(commands.LeaderboardEmbed(board))

	if ch.MessageID != "" {
		msg, err := p.messenger.ChannelMessageEditEmbed(ch.ChannelID, ch.MessageID, embed, discordgo.WithContext(ctx))
		if err == nil {
			return msg.ID, nil
		}
		if !isNotFound(err) {
			return "", fmt.Errorf("editing leaderboard message: %w", err)
		}
		p.logger.Info("leaderboard message gone, posting a new one",
			slog.String("channel_id", ch.ChannelID),
			slog.String("message_id", ch.MessageID),
		)
	}

	msg, err := p.messenger.ChannelMessageSendEmbed(ch.ChannelID, embed, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("posting leaderboard: %w", err)
	}
	return msg.ID, nil
}

func (p *Poster) directMessage(ctx context.Context, userID string, embed commands.Embed) error {
	dm, err := p.messenger.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("opening DM channel: %w", err)
	}
	if _, err := p.messenger.ChannelMessageSendEmbed(dm.ID, messageEmbed(embed), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("sending DM: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
