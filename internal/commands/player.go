package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/crcon-linkbot/internal/model"
	"github.com/mcoot/crcon-linkbot/internal/services/broadcast"
)

const dateLayout = "2 Jan 2006 15:04 MST"

func (h *Handler) handleLink(ctx context.Context, inv Invocation) (Response, error) {
	record, err := h.links.Link(ctx, inv.UserID, inv.String("name"))
	if err != nil {
		return Response{}, err
	}
	return successResponse("Linked",
		fmt.Sprintf("Your Discord account is now linked to **%s** (%s).", record.PlayerName, record.Platform)), nil
}

func (h *Handler) handleUnlink(ctx context.Context, inv Invocation) (Response, error) {
	record, err := h.links.Unlink(ctx, inv.UserID)
	if err != nil {
		return Response{}, err
	}
	return successResponse("Unlinked",
		fmt.Sprintf("**%s** is no longer linked to your Discord account.", record.PlayerName)), nil
}

func (h *Handler) handleVip(ctx context.Context, inv Invocation) (Response, error) {
	status, err := h.links.Status(ctx, inv.UserID)
	if err != nil {
		return Response{}, err
	}
	color := ColorInfo
	if status.Vip.IsVip {
		color = ColorSuccess
	}
	return Response{Embeds: []Embed{{
		Title:       "VIP status",
		Description: fmt.Sprintf("**%s**: %s", status.Link.PlayerName, FormatVip(status.Vip)),
		Color:       color,
	}}}, nil
}

func (h *Handler) handleStatus(ctx context.Context, inv Invocation) (Response, error) {
	status, err := h.links.Status(ctx, inv.UserID)
	if err != nil {
		return Response{}, err
	}
	l := status.Link
	return Response{Embeds: []Embed{{
		Title: "Your linked player",
		Color: ColorInfo,
		Fields: []Field{
			{Name: "Player", Value: l.PlayerName, Inline: true},
			{Name: "Platform", Value: string(l.Platform), Inline: true},
			{Name: "Player ID", Value: l.StableID},
			{Name: "VIP", Value: FormatVip(status.Vip)},
			{Name: "Linked since", Value: l.LinkedAt.UTC().Format(dateLayout)},
		},
	}}}, nil
}

func (h *Handler) handleWhois(ctx context.Context, inv Invocation) (Response, error) {
	player, err := h.resolver.Resolve(ctx, inv.String("name"))
	if err != nil {
		return Response{}, err
	}
	vip := h.vip.GetStatus(ctx, player.StableID)
	return Response{Embeds: []Embed{{
		Title: player.DisplayName,
		Color: ColorInfo,
		Fields: []Field{
			{Name: "Player ID", Value: player.StableID},
			{Name: "Platform", Value: string(player.Platform), Inline: true},
			{Name: "VIP", Value: FormatVip(vip), Inline: true},
		},
		Footer: "found via " + player.Source,
	}}}, nil
}

func (h *Handler) handleBroadcast(ctx context.Context, inv Invocation) (Response, error) {
	delivery, err := h.broadcaster.Broadcast(ctx, inv.String("message"))
	if err != nil {
		return Response{}, err
	}
	h.logger.Info("broadcast sent",
		slog.String("user_id", inv.UserID),
		slog.String("strategy", delivery.Strategy),
	)
	return successResponse("Broadcast sent", describeDelivery(delivery)), nil
}

func describeDelivery(d broadcast.Delivery) string {
	switch d.Strategy {
	case broadcast.StrategyDirect:
		if d.Recipients == 0 {
			return "Nobody is on the server right now."
		}
		return fmt.Sprintf("Messaged %d players directly.", d.Recipients)
	case broadcast.StrategyBanner:
		return "Shown as the server banner."
	default:
		return "Sent to the server."
	}
}

// FormatVip renders a VIP status as one line of text
func FormatVip(v model.VipStatus) string {
	switch {
	case !v.IsVip:
		return "Not VIP"
	case v.Permanent || v.ExpiresAt == nil:
		return "Permanent VIP"
	case v.DaysRemaining != nil:
		return fmt.Sprintf("VIP until %s (%s left)", v.ExpiresAt.UTC().Format(dateLayout), pluralDays(*v.DaysRemaining))
	default:
		return "VIP until " + v.ExpiresAt.UTC().Format(dateLayout)
	}
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
