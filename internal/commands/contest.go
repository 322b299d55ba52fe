package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mcoot/crcon-linkbot/internal/model"
	"github.com/mcoot/crcon-linkbot/internal/services/contest"
)

var errWrongCode = errors.New("contest code does not match")

func (h *Handler) handleContest(ctx context.Context, inv Invocation) (Response, error) {
	switch inv.Subcommand {
	case "start":
		return h.contestStart(ctx, inv)
	case "enter":
		return h.contestEnter(ctx, inv)
	case "end":
		return h.contestEnd(ctx, inv)
	case "cancel":
		return h.contestCancel(ctx, inv)
	default:
		return h.contestInfo(ctx, inv)
	}
}

func (h *Handler) contestStart(ctx context.Context, inv Invocation) (Response, error) {
	c, err := h.contests.Start(ctx, contest.StartParams{
		GuildID:     inv.GuildID,
		ChannelID:   inv.ChannelID,
		Title:       inv.String("title"),
		Description: inv.String("description"),
		Prize:       inv.String("prize"),
		Duration:    time.Duration(inv.Int("minutes", 0)) * time.Minute,
		Winners:     inv.Int("winners", 1),
		StartedBy:   inv.UserID,
	})
	if err != nil {
		return Response{}, err
	}

	embed := contestEmbed(c)
	embed.Title = "Contest started: " + c.Title
	embed.Color = ColorSuccess
	embed.Footer = fmt.Sprintf("Enter with /contest enter code:%s", c.Code)
	return Response{Embeds: []Embed{embed}}, nil
}

func (h *Handler) contestEnter(ctx context.Context, inv Invocation) (Response, error) {
	active, err := h.contests.Active(ctx, inv.GuildID)
	if err != nil {
		return Response{}, err
	}
	if code := inv.String("code"); code != "" && !strings.EqualFold(code, active.Code) {
		return Response{}, errWrongCode
	}

	c, err := h.contests.Enter(ctx, active.ID, inv.UserID)
	if err != nil {
		return Response{}, err
	}
	return successResponse("Entered",
		fmt.Sprintf("You're in **%s**. %d entries so far; winners are drawn %s.",
			c.Title, len(c.Entries), formatTime(c.EndsAt))), nil
}

func (h *Handler) contestEnd(ctx context.Context, inv Invocation) (Response, error) {
	active, err := h.contests.Active(ctx, inv.GuildID)
	if err != nil {
		return Response{}, err
	}
	c, err := h.contests.End(ctx, active.ID)
	if err != nil {
		return Response{}, err
	}
	return Response{Embeds: []Embed{ResultEmbed(c)}}, nil
}

func (h *Handler) contestCancel(ctx context.Context, inv Invocation) (Response, error) {
	active, err := h.contests.Active(ctx, inv.GuildID)
	if err != nil {
		return Response{}, err
	}
	c, err := h.contests.Cancel(ctx, active.ID)
	if err != nil {
		return Response{}, err
	}
	return Response{Embeds: []Embed{{
		Title:       "Contest cancelled",
		Description: fmt.Sprintf("**%s** was cancelled. No winners were drawn.", c.Title),
		Color:       ColorWarning,
	}}}, nil
}

func (h *Handler) contestInfo(ctx context.Context, inv Invocation) (Response, error) {
	c, err := h.contests.Active(ctx, inv.GuildID)
	if err != nil {
		return Response{}, err
	}
	return Response{Embeds: []Embed{contestEmbed(c)}}, nil
}

func contestEmbed(c *model.Contest) Embed {
	fields := []Field{
		{Name: "Code", Value: c.Code, Inline: true},
		{Name: "Winners", Value: fmt.Sprint(c.WinnerCount), Inline: true},
		{Name: "Entries", Value: fmt.Sprint(len(c.Entries)), Inline: true},
		{Name: "Ends", Value: formatTime(c.EndsAt)},
	}
	if c.Prize != "" {
		fields = append(fields, Field{Name: "Prize", Value: c.Prize})
	}
	return Embed{
		Title:       c.Title,
		Description: c.Description,
		Color:       ColorInfo,
		Fields:      fields,
	}
}

// ResultEmbed renders a finished contest's winners
func ResultEmbed(c *model.Contest) Embed {
	embed := Embed{
		Title: "Contest ended: " + c.Title,
		Color: ColorSuccess,
	}
	if len(c.Winners) == 0 {
		embed.Description = "Nobody entered, so there are no winners."
		embed.Color = ColorWarning
		return embed
	}

	lines := make([]string, len(c.Winners))
	for i, w := range c.Winners {
		lines[i] = fmt.Sprintf("%d. %s", i+1, w.PlayerName)
	}
	embed.Description = strings.Join(lines, "\n")
	embed.Fields = []Field{{Name: "Entries", Value: fmt.Sprint(len(c.Entries)), Inline: true}}
	if c.Prize != "" {
		embed.Fields = append(embed.Fields, Field{Name: "Prize", Value: c.Prize, Inline: true})
	}
	return embed
}
