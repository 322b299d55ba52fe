// Package storagetest holds the behavioural suite every storage backend must pass.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/crcon-linkbot/internal/model"
	"github.com/mcoot/crcon-linkbot/internal/storage"
)

// Suite runs the shared storage contract against the backend built by NewStorage
type Suite struct {
	suite.Suite
	NewStorage func() storage.Storage

	Storage storage.Storage
	Ctx     context.Context
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func (s *Suite) SetupTest() {
	s.Storage = s.NewStorage()
	s.Ctx = context.Background()
}

func (s *Suite) TearDownTest() {
	if s.Storage != nil {
		_ = s.Storage.Close()
	}
}

func (s *Suite) link(discordID, stableID string) *model.LinkRecord {
	return &model.LinkRecord{
		DiscordID:  discordID,
		PlayerName: "Player " + stableID,
		StableID:   stableID,
		Platform:   model.PlatformPC,
		LinkedAt:   baseTime,
		UpdatedAt:  baseTime,
	}
}

// Link tests

func (s *Suite) TestSaveAndGetLink() {
	expiry := baseTime.Add(72 * time.Hour)
	link := s.link("discord-1", "76561198000000001")
	link.WasVip = true
	link.NotifiedExpiry = &expiry

	s.Require().NoError(s.Storage.SaveLink(s.Ctx, link))

	got, err := s.Storage.GetLink(s.Ctx, "discord-1")
	s.Require().NoError(err)
	s.Equal("76561198000000001", got.StableID)
	s.Equal(model.PlatformPC, got.Platform)
	s.True(got.WasVip)
	s.Require().NotNil(got.NotifiedExpiry)
	s.True(got.NotifiedExpiry.Equal(expiry))
	s.True(got.LinkedAt.Equal(baseTime))
}

func (s *Suite) TestGetLinkNotFound() {
	_, err := s.Storage.GetLink(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrLinkNotFound)
}

func (s *Suite) TestGetLinkByStableID() {
	s.Require().NoError(s.Storage.SaveLink(s.Ctx, s.link("discord-1", "A")))

	got, err := s.Storage.GetLinkByStableID(s.Ctx, "A")
	s.Require().NoError(err)
	s.Equal("discord-1", got.DiscordID)

	_, err = s.Storage.GetLinkByStableID(s.Ctx, "B")
	s.ErrorIs(err, model.ErrLinkNotFound)
}

func (s *Suite) TestRelinkMovesStableIDIndex() {
	s.Require().NoError(s.Storage.SaveLink(s.Ctx, s.link("discord-1", "A")))
	s.Require().NoError(s.Storage.SaveLink(s.Ctx, s.link("discord-1", "B")))

	_, err := s.Storage.GetLinkByStableID(s.Ctx, "A")
	s.ErrorIs(err, model.ErrLinkNotFound)

	got, err := s.Storage.GetLinkByStableID(s.Ctx, "B")
	s.Require().NoError(err)
	s.Equal("discord-1", got.DiscordID)
}

func (s *Suite) TestDeleteLink() {
	s.Require().NoError(s.Storage.SaveLink(s.Ctx, s.link("discord-1", "A")))
	s.Require().NoError(s.Storage.DeleteLink(s.Ctx, "discord-1"))

	_, err := s.Storage.GetLink(s.Ctx, "discord-1")
	s.ErrorIs(err, model.ErrLinkNotFound)
	_, err = s.Storage.GetLinkByStableID(s.Ctx, "A")
	s.ErrorIs(err, model.ErrLinkNotFound)

	s.NoError(s.Storage.DeleteLink(s.Ctx, "discord-1"))
}

func (s *Suite) TestListLinks() {
	s.Require().NoError(s.Storage.SaveLink(s.Ctx, s.link("discord-2", "B")))
	s.Require().NoError(s.Storage.SaveLink(s.Ctx, s.link("discord-1", "A")))

	links, err := s.Storage.ListLinks(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(links, 2)
	s.Equal("discord-1", links[0].DiscordID)
	s.Equal("discord-2", links[1].DiscordID)
}

func (s *Suite) TestReturnedLinkIsACopy() {
	s.Require().NoError(s.Storage.SaveLink(s.Ctx, s.link("discord-1", "A")))

	got, err := s.Storage.GetLink(s.Ctx, "discord-1")
	s.Require().NoError(err)
	got.PlayerName = "mutated"

	again, err := s.Storage.GetLink(s.Ctx, "discord-1")
	s.Require().NoError(err)
	s.Equal("Player A", again.PlayerName)
}

// Contest tests

func (s *Suite) TestSaveAndGetContest() {
	contest := &model.Contest{
		ID:          "c-1",
		Code:        "K7Q2PX",
		GuildID:     "guild-1",
		Title:       "Weekend raffle",
		WinnerCount: 2,
		State:       model.ContestStateActive,
		Entries: []model.ContestEntry{
			{DiscordID: "discord-1", PlayerName: "Bob123", StableID: "A", EnteredAt: baseTime},
		},
		StartedAt: baseTime,
		EndsAt:    baseTime.Add(time.Hour),
	}
	s.Require().NoError(s.Storage.SaveContest(s.Ctx, contest))

	got, err := s.Storage.GetContest(s.Ctx, "c-1")
	s.Require().NoError(err)
	s.Equal("Weekend raffle", got.Title)
	s.Equal(model.ContestStateActive, got.State)
	s.Require().Len(got.Entries, 1)
	s.Equal("Bob123", got.Entries[0].PlayerName)
	s.True(got.EndsAt.Equal(baseTime.Add(time.Hour)))
	s.Nil(got.EndedAt)
}

func (s *Suite) TestGetContestNotFound() {
	_, err := s.Storage.GetContest(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrContestNotFound)
}

func (s *Suite) TestListContestsOrderedByStart() {
	s.Require().NoError(s.Storage.SaveContest(s.Ctx, &model.Contest{ID: "late", StartedAt: baseTime.Add(time.Hour)}))
	s.Require().NoError(s.Storage.SaveContest(s.Ctx, &model.Contest{ID: "early", StartedAt: baseTime}))

	contests, err := s.Storage.ListContests(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(contests, 2)
	s.Equal(model.ContestID("early"), contests[0].ID)
	s.Equal(model.ContestID("late"), contests[1].ID)
}

// Leaderboard channel tests

func (s *Suite) TestLeaderboardChannelLifecycle() {
	ch := &model.LeaderboardChannel{
		GuildID:   "guild-1",
		ChannelID: "chan-1",
		Metric:    model.MetricKills,
		Size:      10,
		CreatedAt: baseTime,
	}
	s.Require().NoError(s.Storage.SaveLeaderboardChannel(s.Ctx, ch))

	ch.MessageID = "msg-1"
	s.Require().NoError(s.Storage.SaveLeaderboardChannel(s.Ctx, ch))

	got, err := s.Storage.GetLeaderboardChannel(s.Ctx, "chan-1")
	s.Require().NoError(err)
	s.Equal("msg-1", got.MessageID)
	s.Equal(model.MetricKills, got.Metric)

	all, err := s.Storage.ListLeaderboardChannels(s.Ctx)
	s.Require().NoError(err)
	s.Len(all, 1)

	s.Require().NoError(s.Storage.DeleteLeaderboardChannel(s.Ctx, "chan-1"))
	_, err = s.Storage.GetLeaderboardChannel(s.Ctx, "chan-1")
	s.ErrorIs(err, model.ErrLeaderboardNotFound)
}
