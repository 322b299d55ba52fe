package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mcoot/crcon-linkbot/internal/model"
)

func (h *Handler) handleLeaderboard(ctx context.Context, inv Invocation) (Response, error) {
	switch inv.Subcommand {
	case "add":
		metric, err := model.ParseMetric(inv.String("metric"))
		if err != nil {
			return Response{}, err
		}
		ch, err := h.leaderboards.Register(ctx, inv.GuildID, inv.ChannelID, metric, inv.Int("size", 0))
		if err != nil {
			return Response{}, err
		}
		msg := fmt.Sprintf("This channel now shows the top %d by %s.", ch.Size, metric)
		if _, err := h.leaderboards.Refresh(ctx); err != nil {
			h.logger.Warn("initial leaderboard refresh failed",
				slog.String("channel_id", ch.ChannelID),
				slog.Any("error", err),
			)
			msg += " It will be posted at the next refresh."
		}
		return successResponse("Leaderboard added", msg), nil

	case "remove":
		if err := h.leaderboards.Unregister(ctx, inv.ChannelID); err != nil {
			return Response{}, err
		}
		return successResponse("Leaderboard removed", "This channel's leaderboard will no longer be updated."), nil

	default:
		result, err := h.leaderboards.Refresh(ctx)
		if err != nil {
			return Response{}, err
		}
		msg := fmt.Sprintf("Updated %d of %d leaderboards.", result.Updated, result.Channels)
		if result.Failed > 0 {
			msg += fmt.Sprintf(" %d could not be posted.", result.Failed)
		}
		return successResponse("Leaderboards refreshed", msg), nil
	}
}

// LeaderboardEmbed renders a board for posting in a channel
func LeaderboardEmbed(board *model.Leaderboard) Embed {
	embed := Embed{
		Title:  "Top players: " + metricTitle(board.Metric),
		Color:  ColorInfo,
		Footer: "Updated " + formatTime(board.GeneratedAt),
	}
	if len(board.Entries) == 0 {
		embed.Description = "No stats yet for the current match."
		return embed
	}

	var b strings.Builder
	for _, e := range board.Entries {
		fmt.Fprintf(&b, "**%d.** %s: %d\n", e.Rank, e.Name, e.Value)
	}
	embed.Description = strings.TrimSuffix(b.String(), "\n")
	return embed
}

func metricTitle(m model.LeaderboardMetric) string {
	s := strings.ReplaceAll(string(m), "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
