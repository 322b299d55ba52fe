package leaderboard

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/crcon-linkbot/internal/console"
	"github.com/mcoot/crcon-linkbot/internal/dependencies/mocks"
	"github.com/mcoot/crcon-linkbot/internal/model"
	"github.com/mcoot/crcon-linkbot/internal/storage/memory"
	"github.com/mcoot/crcon-linkbot/internal/testutil"
)

const liveStats = `{"result": {"stats": [
	{"player": "Alice", "player_id": "76561198000000002", "kills": 12, "deaths": 4, "combat": 80},
	{"player": "Bob123", "player_id": "76561198000000001", "kills": 20, "deaths": 9, "combat": 80},
	{"player": "carol", "player_id": "76561198000000003", "kills": 12, "deaths": 1, "combat": 95},
	{"player": "NoStats", "player_id": "76561198000000004"}
], "refresh_interval_sec": 60}}`

type fakePublisher struct {
	posts map[string]*model.Leaderboard
	err   error
	next  string
}

func (p *fakePublisher) PublishLeaderboard(ctx context.Context, ch *model.LeaderboardChannel, board *model.Leaderboard) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.posts[ch.ChannelID] = board
	if ch.MessageID != "" {
		return ch.MessageID, nil
	}
	return p.next, nil
}

type recordingSink struct {
	boards []*model.Leaderboard
}

func (s *recordingSink) BroadcastLeaderboard(board *model.Leaderboard) {
	s.boards = append(s.boards, board)
}

type LeaderboardSuite struct {
	suite.Suite
	fake      *testutil.FakeConsole
	storage   *memory.Storage
	clock     *mocks.MockClock
	publisher *fakePublisher
	sink      *recordingSink
	service   *Service
	ctx       context.Context
}

func TestLeaderboardSuite(t *testing.T) {
	suite.Run(t, new(LeaderboardSuite))
}

func (s *LeaderboardSuite) SetupTest() {
	s.fake = testutil.NewFakeConsole(s.T())
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.publisher = &fakePublisher{posts: map[string]*model.Leaderboard{}, next: "msg-1"}
	s.sink = &recordingSink{}
	s.ctx = context.Background()

	client := s.fake.Server.Client()
	auth := console.NewAuthenticator(console.AuthConfig{BaseURL: s.fake.URL(), Token: "tok"}, client, s.clock, testutil.NopLogger())
	cfg := console.DefaultExecutorConfig()
	cfg.BaseURL = s.fake.URL()
	cfg.MaxRetries = 0
	exec := console.NewExecutor(cfg, client, auth, s.clock, testutil.NopLogger())

	s.service = New(exec, s.storage, s.publisher, s.sink, s.clock, testutil.NopLogger())
}

func (s *LeaderboardSuite) TestBuildRanksByMetricThenName() {
	s.fake.HandleJSON(console.PathGetLiveGameStats, http.StatusOK, liveStats)

	board, err := s.service.Build(s.ctx, model.MetricKills, 10)
	s.Require().NoError(err)

	s.Equal(model.MetricKills, board.Metric)
	s.Equal(s.clock.Now(), board.GeneratedAt)
	s.Require().Len(board.Entries, 3)
	s.Equal(model.LeaderboardEntry{Rank: 1, Name: "Bob123", StableID: "76561198000000001", Value: 20}, board.Entries[0])
	s.Equal("Alice", board.Entries[1].Name)
	s.Equal("carol", board.Entries[2].Name)
	s.Equal(3, board.Entries[2].Rank)
}

func (s *LeaderboardSuite) TestBuildTruncatesToSize() {
	s.fake.HandleJSON(console.PathGetLiveGameStats, http.StatusOK, liveStats)

	board, err := s.service.Build(s.ctx, model.MetricCombat, 1)
	s.Require().NoError(err)
	s.Require().Len(board.Entries, 1)
	s.Equal("carol", board.Entries[0].Name)
}

func (s *LeaderboardSuite) TestBuildAcceptsBareArray() {
	s.fake.HandleJSON(console.PathGetLiveGameStats, http.StatusOK,
		`{"result": [{"name": "Alice", "player_id": "1", "deaths": "7"}]}`)

	board, err := s.service.Build(s.ctx, model.MetricDeaths, 10)
	s.Require().NoError(err)
	s.Require().Len(board.Entries, 1)
	s.EqualValues(7, board.Entries[0].Value)
}

func (s *LeaderboardSuite) TestBuildRejectsUnknownMetric() {
	_, err := s.service.Build(s.ctx, "headshots", 10)
	s.ErrorIs(err, model.ErrInvalidMetric)
	s.Empty(s.fake.Paths())
}

func (s *LeaderboardSuite) TestRefreshPublishesAndStoresMessageID() {
	s.fake.HandleJSON(console.PathGetLiveGameStats, http.StatusOK, liveStats)
	_, err := s.service.Register(s.ctx, "guild-1", "chan-1", model.MetricKills, 2)
	s.Require().NoError(err)
	_, err = s.service.Register(s.ctx, "guild-1", "chan-2", model.MetricKills, 5)
	s.Require().NoError(err)

	result, err := s.service.Refresh(s.ctx)
	s.Require().NoError(err)
	s.Equal(RefreshResult{Channels: 2, Updated: 2}, result)

	// One fetch per metric, not per channel
	s.Equal(1, s.fake.CallCount(console.PathGetLiveGameStats))
	s.Len(s.publisher.posts["chan-1"].Entries, 2)
	s.Len(s.publisher.posts["chan-2"].Entries, 3)
	s.Len(s.sink.boards, 1)

	ch, err := s.storage.GetLeaderboardChannel(s.ctx, "chan-1")
	s.Require().NoError(err)
	s.Equal("msg-1", ch.MessageID)
}

func (s *LeaderboardSuite) TestRefreshBuildFailureTouchesNothing() {
	s.fake.HandleJSON(console.PathGetLiveGameStats, http.StatusInternalServerError, nil)
	_, err := s.service.Register(s.ctx, "guild-1", "chan-1", model.MetricKills, 10)
	s.Require().NoError(err)

	_, err = s.service.Refresh(s.ctx)
	s.Require().Error(err)

	s.Empty(s.publisher.posts)
	ch, err := s.storage.GetLeaderboardChannel(s.ctx, "chan-1")
	s.Require().NoError(err)
	s.Empty(ch.MessageID)
}

func (s *LeaderboardSuite) TestRefreshPublishFailureIsCounted() {
	s.fake.HandleJSON(console.PathGetLiveGameStats, http.StatusOK, liveStats)
	_, err := s.service.Register(s.ctx, "guild-1", "chan-1", model.MetricKills, 10)
	s.Require().NoError(err)
	s.publisher.err = errors.New("missing access")

	result, err := s.service.Refresh(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, result.Failed)
}

func (s *LeaderboardSuite) TestRegisterClampsSizeAndUnregister() {
	ch, err := s.service.Register(s.ctx, "guild-1", "chan-1", model.MetricSupport, 500)
	s.Require().NoError(err)
	s.Equal(MaxSize, ch.Size)

	s.Require().NoError(s.service.Unregister(s.ctx, "chan-1"))
	s.ErrorIs(s.service.Unregister(s.ctx, "chan-1"), model.ErrLeaderboardNotFound)
}
