// Package commands implements the bot's slash commands independently of any
// chat platform. An adapter turns platform interactions into Invocations and
// renders the returned Response.
package commands

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mcoot/crcon-linkbot/internal/model"
	"github.com/mcoot/crcon-linkbot/internal/services/broadcast"
	"github.com/mcoot/crcon-linkbot/internal/services/contest"
	"github.com/mcoot/crcon-linkbot/internal/services/leaderboard"
	"github.com/mcoot/crcon-linkbot/internal/services/link"
)

// Links manages the invoking user's link
type Links interface {
	Link(ctx context.Context, discordID, playerName string) (*model.LinkRecord, error)
	Unlink(ctx context.Context, discordID string) (*model.LinkRecord, error)
	Status(ctx context.Context, discordID string) (*link.Status, error)
}

// Resolver looks up players by name
type Resolver interface {
	Resolve(ctx context.Context, name string) (*model.PlayerRecord, error)
}

// VipChecker evaluates VIP state
type VipChecker interface {
	GetStatus(ctx context.Context, stableID string) model.VipStatus
}

// Broadcaster sends a message to everyone in game
type Broadcaster interface {
	Broadcast(ctx context.Context, message string) (broadcast.Delivery, error)
}

// Contests runs giveaways
type Contests interface {
	Start(ctx context.Context, params contest.StartParams) (*model.Contest, error)
	Enter(ctx context.Context, id model.ContestID, discordID string) (*model.Contest, error)
	End(ctx context.Context, id model.ContestID) (*model.Contest, error)
	Cancel(ctx context.Context, id model.ContestID) (*model.Contest, error)
	Active(ctx context.Context, guildID string) (*model.Contest, error)
}

// Leaderboards manages auto-refreshing channel boards
type Leaderboards interface {
	Register(ctx context.Context, guildID, channelID string, metric model.LeaderboardMetric, size int) (*model.LeaderboardChannel, error)
	Unregister(ctx context.Context, channelID string) error
	Refresh(ctx context.Context) (leaderboard.RefreshResult, error)
}

// Invocation is one command call from a user
type Invocation struct {
	Command    string
	Subcommand string
	Options    map[string]string

	UserID    string
	GuildID   string
	ChannelID string
	IsAdmin   bool
}

// String returns an option value with surrounding space removed
func (inv Invocation) String(name string) string {
	return strings.TrimSpace(inv.Options[name])
}

// Int returns an integer option, or def if it is absent or malformed
func (inv Invocation) Int(name string, def int) int {
	v, err := strconv.Atoi(inv.String(name))
	if err != nil {
		return def
	}
	return v
}

// Response is what the adapter shows the user
type Response struct {
	Content   string
	Embeds    []Embed
	Ephemeral bool
}

// Embed is a platform-neutral rich message block
type Embed struct {
	Title       string
	Description string
	Color       int
	Fields      []Field
	Footer      string
}

// Field is one name/value row of an Embed
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Embed colours
const (
	ColorInfo    = 0x3498db
	ColorSuccess = 0x2ecc71
	ColorWarning = 0xf1c40f
	ColorError   = 0xe74c3c
)

type handlerFunc func(ctx context.Context, inv Invocation) (Response, error)

// Handler dispatches invocations to the services
type Handler struct {
	links        Links
	resolver     Resolver
	vip          VipChecker
	broadcaster  Broadcaster
	contests     Contests
	leaderboards Leaderboards
	logger       *slog.Logger

	handlers map[string]handlerFunc
}

// New creates a command handler
func New(
	links Links,
	resolver Resolver,
	vip VipChecker,
	broadcaster Broadcaster,
	contests Contests,
	leaderboards Leaderboards,
	logger *slog.Logger,
) *Handler {
	h := &Handler{
		links:        links,
		resolver:     resolver,
		vip:          vip,
		broadcaster:  broadcaster,
		contests:     contests,
		leaderboards: leaderboards,
		logger:       logger.With(slog.String("component", "commands")),
	}
	h.handlers = map[string]handlerFunc{
		"link":        h.handleLink,
		"unlink":      h.handleUnlink,
		"vip":         h.handleVip,
		"status":      h.handleStatus,
		"whois":       h.handleWhois,
		"broadcast":   h.handleBroadcast,
		"contest":     h.handleContest,
		"leaderboard": h.handleLeaderboard,
	}
	return h
}

// Handle runs one invocation. It never returns an error: failures are
// rendered as user-facing responses.
func (h *Handler) Handle(ctx context.Context, inv Invocation) Response {
	def, ok := Lookup(inv.Command, inv.Subcommand)
	if !ok {
		return errorResponse("Unknown command.")
	}
	if def.Admin && !inv.IsAdmin {
		return errorResponse("You need the admin role to use this command.")
	}

	logger := h.logger.With(
		slog.String("command", qualifiedName(inv)),
		slog.String("user_id", inv.UserID),
	)

	resp, err := h.handlers[inv.Command](ctx, inv)
	if err != nil {
		resp = renderError(logger, err)
	}
	resp.Ephemeral = resp.Ephemeral || def.Ephemeral
	return resp
}

func qualifiedName(inv Invocation) string {
	if inv.Subcommand == "" {
		return inv.Command
	}
	return inv.Command + " " + inv.Subcommand
}

func errorResponse(msg string) Response {
	return Response{
		Embeds:    []Embed{{Description: msg, Color: ColorError}},
		Ephemeral: true,
	}
}

func successResponse(title, msg string) Response {
	return Response{
		Embeds: []Embed{{Title: title, Description: msg, Color: ColorSuccess}},
	}
}
