package resolver

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/crcon-linkbot/internal/console"
	"github.com/mcoot/crcon-linkbot/internal/dependencies/mocks"
	"github.com/mcoot/crcon-linkbot/internal/model"
	"github.com/mcoot/crcon-linkbot/internal/services/platform"
	"github.com/mcoot/crcon-linkbot/internal/testutil"
)

type ResolverSuite struct {
	suite.Suite
	fake    *testutil.FakeConsole
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.fake = testutil.NewFakeConsole(s.T())
	s.clock = mocks.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.ctx = context.Background()

	client := s.fake.Server.Client()
	auth := console.NewAuthenticator(console.AuthConfig{BaseURL: s.fake.URL(), Token: "tok"}, client, s.clock, testutil.NopLogger())
	cfg := console.DefaultExecutorConfig()
	cfg.BaseURL = s.fake.URL()
	exec := console.NewExecutor(cfg, client, auth, s.clock, testutil.NopLogger())

	s.service = New(exec, platform.New(nil), testutil.NopLogger())
}

func (s *ResolverSuite) TestResolvesFromOnlineRoster() {
	s.fake.HandleJSON(console.PathGetPlayers, http.StatusOK, `{"result": [{"name": "Bob123", "player_id": "76561198000000001"}]}`)

	record, err := s.service.Resolve(s.ctx, "Bob123")
	s.Require().NoError(err)

	s.Equal("Bob123", record.Name)
	s.Equal("76561198000000001", record.StableID)
	s.Equal("Bob123", record.DisplayName)
	s.Equal(model.PlatformPC, record.Platform)
	s.Equal("get_players", record.Source)
	s.Equal([]string{console.PathGetPlayers}, s.fake.Paths())
}

func (s *ResolverSuite) TestMatchIsCaseInsensitiveAndKeepsSourceSpelling() {
	s.fake.HandleJSON(console.PathGetPlayers, http.StatusOK, `{"result": [{"name": "Bob123", "player_id": "76561198000000001"}]}`)

	record, err := s.service.Resolve(s.ctx, "  bOB123 ")
	s.Require().NoError(err)
	s.Equal("Bob123", record.Name)
}

func (s *ResolverSuite) TestPartialNamesDoNotMatch() {
	s.fake.HandleJSON(console.PathGetPlayers, http.StatusOK, `{"result": [{"name": "Bob1234", "player_id": "1"}, {"name": "Bob12", "player_id": "2"}]}`)

	_, err := s.service.Resolve(s.ctx, "Bob123")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ResolverSuite) TestFirstMatchingStrategyWins() {
	s.fake.HandleJSON(console.PathGetPlayers, http.StatusOK, `{"result": []}`)
	s.fake.HandleJSON(console.PathGetPlayerIDs, http.StatusOK, `{"result": [["Bob123", "76561198000000001"]]}`)
	s.fake.HandleJSON(console.PathGetVipIDs, http.StatusOK, `{"result": [{"name": "Bob123", "player_id": "76561198000000099"}]}`)

	record, err := s.service.Resolve(s.ctx, "Bob123")
	s.Require().NoError(err)

	s.Equal("76561198000000001", record.StableID)
	s.Equal("get_playerids", record.Source)
	s.Equal(0, s.fake.CallCount(console.PathGetVipIDs))
}

func (s *ResolverSuite) TestDetailedPlayersKeyedByID() {
	s.fake.HandleJSON(console.PathGetDetailedPlayers, http.StatusOK,
		`{"result": {"players": {"0123456789abcdef0123456789abcdef": {"name": "ConsoleBob"}}, "fail_count": 0}}`)

	record, err := s.service.Resolve(s.ctx, "consolebob")
	s.Require().NoError(err)

	s.Equal("0123456789abcdef0123456789abcdef", record.StableID)
	s.Equal(model.PlatformConsole, record.Platform)
}

func (s *ResolverSuite) TestDirectLookupSendsName() {
	s.fake.HandleJSON(console.PathGetPlayerInfo, http.StatusOK,
		`{"result": {"name": "Bob 123", "player_id": "76561198000000001"}}`)

	record, err := s.service.Resolve(s.ctx, "Bob 123")
	s.Require().NoError(err)

	s.Equal("get_player_info", record.Source)
	s.Equal("player_name=Bob+123", s.fake.Calls(console.PathGetPlayerInfo)[0].Query)
}

func (s *ResolverSuite) TestFallsBackToHistoryNames() {
	s.fake.HandleJSON(console.PathGetPlayersHistory, http.StatusOK, `{"result": {"players": [
		{"player_id": "76561198000000001", "names": [{"name": "Bobby"}, {"name": "Bob123"}]}
	], "total": 1}}`)

	record, err := s.service.Resolve(s.ctx, "bob123")
	s.Require().NoError(err)

	s.Equal("Bob123", record.Name)
	s.Equal("Bobby", record.DisplayName)
	s.Equal("get_players_history", record.Source)

	body := s.fake.Calls(console.PathGetPlayersHistory)[0].DecodeBody(s.T())
	s.Equal("bob123", body["player_name"])
	s.Equal(false, body["exact_name_match"])
	s.EqualValues(historyPageSize, body["page_size"])
	s.EqualValues(1, body["page"])
}

func (s *ResolverSuite) TestTriesStrategiesInOrder() {
	_, err := s.service.Resolve(s.ctx, "Nobody")
	s.Require().ErrorIs(err, model.ErrPlayerNotFound)

	s.Equal([]string{
		console.PathGetPlayers,
		console.PathGetDetailedPlayers,
		console.PathGetPlayerIDs,
		console.PathGetVipIDs,
		console.PathGetAdminIDs,
		console.PathGetPlayerInfo,
		console.PathGetDetailedPlayerInfo,
		console.PathGetPlayersHistory,
	}, s.fake.Paths())
}

func (s *ResolverSuite) TestSomeStrategiesUnreachableIsNotFound() {
	s.fake.HandleJSON(console.PathGetPlayers, http.StatusInternalServerError, nil)
	s.fake.HandleJSON(console.PathGetVipIDs, http.StatusOK, `{"result": []}`)

	_, err := s.service.Resolve(s.ctx, "Bob123")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ResolverSuite) TestEveryStrategyUnreachableIsRemoteError() {
	s.fake.Server.Close()

	_, err := s.service.Resolve(s.ctx, "Bob123")

	var remoteErr *console.RemoteError
	s.Require().ErrorAs(err, &remoteErr)
	s.NotErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ResolverSuite) TestEmptyNameIsRejected() {
	_, err := s.service.Resolve(s.ctx, "   ")
	s.ErrorIs(err, model.ErrInvalidName)
	s.Empty(s.fake.Paths())
}

func (s *ResolverSuite) TestCancelledContextAbortsCascade() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.service.Resolve(ctx, "Bob123")
	s.ErrorIs(err, context.Canceled)
}

func (s *ResolverSuite) TestCustomStrategyTable() {
	s.fake.HandleJSON(console.PathGetAdminIDs, http.StatusOK, `{"result": [{"name": "Mod", "steam_id_64": "76561198000000005"}]}`)
	service := NewWithStrategies(
		s.service.console,
		nil,
		DefaultStrategies()[4:5],
		testutil.NopLogger(),
	)

	record, err := service.Resolve(s.ctx, "mod")
	s.Require().NoError(err)
	s.Equal("76561198000000005", record.StableID)
	s.Empty(record.Platform)
}
