package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/crcon-linkbot/internal/commands"
	"github.com/mcoot/crcon-linkbot/internal/model"
	"github.com/mcoot/crcon-linkbot/internal/testutil"
)

type sentMessage struct {
	channelID string
	messageID string
	embed     *discordgo.MessageEmbed
}

type fakeMessenger struct {
	sent    []sentMessage
	edited  []sentMessage
	editErr error
	sendErr error
	nextID  int
}

func (f *fakeMessenger) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeMessenger) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.nextID++
	id := fmt.Sprintf("msg-%d", f.nextID)
	f.sent = append(f.sent, sentMessage{channelID: channelID, messageID: id, embed: embed})
	return &discordgo.Message{ID: id, ChannelID: channelID}, nil
}

func (f *fakeMessenger) ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.editErr != nil {
		return nil, f.editErr
	}
	f.edited = append(f.edited, sentMessage{channelID: channelID, messageID: messageID, embed: embed})
	return &discordgo.Message{ID: messageID, ChannelID: channelID}, nil
}

func notFound() error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}
}

func TestPublishLeaderboard(t *testing.T) {
	ctx := context.Background()
	board := &model.Leaderboard{
		Metric:      model.MetricKills,
		Entries:     []model.LeaderboardEntry{{Rank: 1, Name: "Able", Value: 3}},
		GeneratedAt: time.Now(),
	}

	t.Run("posts when there is no previous message", func(t *testing.T) {
		m := &fakeMessenger{}
		id, err := NewPoster(m, testutil.NopLogger()).PublishLeaderboard(ctx, &model.LeaderboardChannel{ChannelID: "c1"}, board)
		require.NoError(t, err)
		assert.Equal(t, "msg-1", id)
		require.Len(t, m.sent, 1)
		assert.Contains(t, m.sent[0].embed.Description, "Able")
	})

	t.Run("edits the previous message", func(t *testing.T) {
		m := &fakeMessenger{}
		id, err := NewPoster(m, testutil.NopLogger()).PublishLeaderboard(ctx, &model.LeaderboardChannel{ChannelID: "c1", MessageID: "old"}, board)
		require.NoError(t, err)
		assert.Equal(t, "old", id)
		assert.Len(t, m.edited, 1)
		assert.Empty(t, m.sent)
	})

	t.Run("reposts when the previous message was deleted", func(t *testing.T) {
		m := &fakeMessenger{editErr: notFound()}
		id, err := NewPoster(m, testutil.NopLogger()).PublishLeaderboard(ctx, &model.LeaderboardChannel{ChannelID: "c1", MessageID: "old"}, board)
		require.NoError(t, err)
		assert.Equal(t, "msg-1", id)
	})

	t.Run("other edit failures are returned", func(t *testing.T) {
		m := &fakeMessenger{editErr: errors.New("rate limited")}
		_, err := NewPoster(m, testutil.NopLogger()).PublishLeaderboard(ctx, &model.LeaderboardChannel{ChannelID: "c1", MessageID: "old"}, board)
		assert.Error(t, err)
		assert.Empty(t, m.sent)
	})
}

func TestVipNotificationsAreDirectMessages(t *testing.T) {
	m := &fakeMessenger{}
	p := NewPoster(m, testutil.NopLogger())
	link := &model.LinkRecord{DiscordID: "u1", PlayerName: "Able"}
	expires := time.Now().Add(48 * time.Hour)
	days := 2

	require.NoError(t, p.NotifyVipExpiring(context.Background(), link, model.VipStatus{IsVip: true, ExpiresAt: &expires, DaysRemaining: &days}))
	require.NoError(t, p.NotifyVipExpired(context.Background(), link))

	require.Len(t, m.sent, 2)
	assert.Equal(t, "dm-u1", m.sent[0].channelID)
	assert.Contains(t, m.sent[0].embed.Description, "2 days left")
	assert.Equal(t, "Your VIP has expired", m.sent[1].embed.Title)
}

func TestNotifyFailureIsReturned(t *testing.T) {
	m := &fakeMessenger{sendErr: errors.New("cannot send messages to this user")}
	err := NewPoster(m, testutil.NopLogger()).NotifyVipExpired(context.Background(), &model.LinkRecord{DiscordID: "u1"})
	assert.Error(t, err)
}

func TestPublishContestResult(t *testing.T) {
	m := &fakeMessenger{}
	p := NewPoster(m, testutil.NopLogger())

	c := &model.Contest{ChannelID: "c9", Title: "Friday", Winners: []model.ContestEntry{{PlayerName: "Baker"}}}
	require.NoError(t, p.PublishContestResult(context.Background(), c))
	require.Len(t, m.sent, 1)
	assert.Equal(t, "c9", m.sent[0].channelID)
	assert.Equal(t, "1. Baker", m.sent[0].embed.Description)

	// No channel, nothing to post
	require.NoError(t, p.PublishContestResult(context.Background(), &model.Contest{}))
	assert.Len(t, m.sent, 1)
}

func TestInvocationFromSubcommand(t *testing.T) {
	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "g1",
		ChannelID: "c1",
		Member: &discordgo.Member{
			User:  &discordgo.User{ID: "u1"},
			Roles: []string{"r-admin"},
		},
		Data: discordgo.ApplicationCommandInteractionData{
			Name: "contest",
			Options: []*discordgo.ApplicationCommandInteractionDataOption{{
				Name: "start",
				Type: discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: "title", Type: discordgo.ApplicationCommandOptionString, Value: "Friday"},
					{Name: "minutes", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(30)},
				},
			}},
		},
	}}

	inv := invocation(i, "r-admin")
	assert.Equal(t, "contest", inv.Command)
	assert.Equal(t, "start", inv.Subcommand)
	assert.Equal(t, "Friday", inv.String("title"))
	assert.Equal(t, 30, inv.Int("minutes", 0))
	assert.Equal(t, "u1", inv.UserID)
	assert.Equal(t, "g1", inv.GuildID)
	assert.True(t, inv.IsAdmin)
}

func TestIsAdmin(t *testing.T) {
	assert.False(t, isAdmin(nil, "r1"))
	assert.False(t, isAdmin(&discordgo.Member{Roles: []string{"r2"}}, "r1"))
	assert.False(t, isAdmin(&discordgo.Member{Roles: []string{"r2"}}, ""))
	assert.True(t, isAdmin(&discordgo.Member{Roles: []string{"r2", "r1"}}, "r1"))
	assert.True(t, isAdmin(&discordgo.Member{Permissions: discordgo.PermissionAdministrator}, ""))
}

func TestApplicationCommands(t *testing.T) {
	cmds := applicationCommands(commands.Definitions())

	byName := make(map[string]*discordgo.ApplicationCommand)
	for _, c := range cmds {
		byName[c.Name] = c
	}
	require.Contains(t, byName, "leaderboard")

	lb := byName["leaderboard"]
	require.NotEmpty(t, lb.Options)
	add := lb.Options[0]
	assert.Equal(t, discordgo.ApplicationCommandOptionSubCommand, add.Type)
	assert.Equal(t, "add", add.Name)
	assert.Len(t, add.Options[0].Choices, len(model.Metrics))
	assert.Equal(t, discordgo.ApplicationCommandOptionInteger, add.Options[1].Type)
	require.NotNil(t, add.Options[1].MinValue)
	assert.Equal(t, float64(1), *add.Options[1].MinValue)

	link := byName["link"]
	require.Len(t, link.Options, 1)
	assert.True(t, link.Options[0].Required)
}

func TestMessageEmbedFillsEmptyFields(t *testing.T) {
	e := messageEmbed(commands.Embed{
		Title:  "t",
		Fields: []commands.Field{{Name: "Prize", Value: ""}},
		Footer: "f",
	})
	assert.Equal(t, "-", e.Fields[0].Value)
	assert.Equal(t, "f", e.Footer.Text)
}
