package contest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/crcon-linkbot/internal/dependencies/mocks"
	"github.com/mcoot/crcon-linkbot/internal/dependencies/random"
	"github.com/mcoot/crcon-linkbot/internal/model"
	"github.com/mcoot/crcon-linkbot/internal/services/broadcast"
	"github.com/mcoot/crcon-linkbot/internal/storage/memory"
	"github.com/mcoot/crcon-linkbot/internal/testutil"
)

type recordingBroadcaster struct {
	messages []string
	err      error
}

func (b *recordingBroadcaster) Broadcast(ctx context.Context, message string) (broadcast.Delivery, error) {
	b.messages = append(b.messages, message)
	return broadcast.Delivery{Strategy: "banner"}, b.err
}

type recordingPublisher struct {
	published []*model.Contest
	err       error
}

func (p *recordingPublisher) PublishContestResult(ctx context.Context, contest *model.Contest) error {
	p.published = append(p.published, contest)
	return p.err
}

type ContestSuite struct {
	suite.Suite
	storage     *memory.Storage
	clock       *mocks.MockClock
	random      *mocks.MockRandom
	broadcaster *recordingBroadcaster
	publisher   *recordingPublisher
	service     *Service
	ctx         context.Context
}

func TestContestSuite(t *testing.T) {
	suite.Run(t, new(ContestSuite))
}

func (s *ContestSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.broadcaster = &recordingBroadcaster{}
	s.publisher = &recordingPublisher{}
	s.service = New(s.storage, s.broadcaster, s.publisher, s.clock, s.random, testutil.NopLogger())
	s.ctx = context.Background()

	for _, l := range []struct{ discord, name, id string }{
		{"discord-1", "Alice", "A"},
		{"discord-2", "Bob123", "B"},
		{"discord-3", "Carol", "C"},
	} {
		s.Require().NoError(s.storage.SaveLink(s.ctx, &model.LinkRecord{DiscordID: l.discord, PlayerName: l.name, StableID: l.id}))
	}
}

func (s *ContestSuite) start(winners int) *model.Contest {
	s.random.QueueString("K7Q2PX")
	contest, err := s.service.Start(s.ctx, StartParams{
		GuildID:   "guild-1",
		ChannelID: "chan-1",
		Title:     "Weekend raffle",
		Duration:  time.Hour,
		Winners:   winners,
		StartedBy: "admin",
	})
	s.Require().NoError(err)
	return contest
}

func (s *ContestSuite) TestStart() {
	contest := s.start(2)

	s.NotEmpty(contest.ID)
	s.Equal("K7Q2PX", contest.Code)
	s.Equal(model.ContestStateActive, contest.State)
	s.Equal(2, contest.WinnerCount)
	s.Equal(s.clock.Now().Add(time.Hour), contest.EndsAt)

	active, err := s.service.Active(s.ctx, "guild-1")
	s.Require().NoError(err)
	s.Equal(contest.ID, active.ID)
}

func (s *ContestSuite) TestStartValidates() {
	_, err := s.service.Start(s.ctx, StartParams{GuildID: "g", Title: " ", Duration: time.Hour})
	s.ErrorIs(err, model.ErrInvalidContest)

	_, err = s.service.Start(s.ctx, StartParams{GuildID: "g", Title: "x", Duration: 0})
	s.ErrorIs(err, model.ErrInvalidContest)
}

func (s *ContestSuite) TestOneActiveContestPerGuild() {
	s.start(1)

	_, err := s.service.Start(s.ctx, StartParams{GuildID: "guild-1", Title: "Again", Duration: time.Hour})
	s.ErrorIs(err, model.ErrContestActive)

	_, err = s.service.Start(s.ctx, StartParams{GuildID: "guild-2", Title: "Elsewhere", Duration: time.Hour})
	s.NoError(err)
}

func (s *ContestSuite) TestCodeCollisionIsRegenerated() {
	s.start(1)
	s.random.QueueString("K7Q2PX", "ZZ99AB")

	contest, err := s.service.Start(s.ctx, StartParams{GuildID: "guild-2", Title: "Second", Duration: time.Hour})
	s.Require().NoError(err)
	s.Equal("ZZ99AB", contest.Code)
}

func (s *ContestSuite) TestCodeSearchGivesUp() {
	s.start(1)
	codes := make([]string, codeAttempts)
	for i := range codes {
		codes[i] = "K7Q2PX"
	}
	s.random.QueueString(codes...)

	_, err := s.service.Start(s.ctx, StartParams{GuildID: "guild-2", Title: "Second", Duration: time.Hour})
	s.ErrorIs(err, ErrNoFreeCode)
}

func (s *ContestSuite) TestGeneratedCodeUsesAlphabet() {
	svc := New(s.storage, s.broadcaster, s.publisher, s.clock, random.New(), testutil.NopLogger())

	contest, err := svc.Start(s.ctx, StartParams{GuildID: "guild-9", Title: "Real draw", Duration: time.Hour})
	s.Require().NoError(err)
	s.Len(contest.Code, CodeLength)
	for _, c := range contest.Code {
		s.Contains(CodeAlphabet, string(c))
	}
}

func (s *ContestSuite) TestEnterRequiresLink() {
	contest := s.start(1)

	_, err := s.service.Enter(s.ctx, contest.ID, "stranger")
	s.ErrorIs(err, model.ErrNotLinked)
}

func (s *ContestSuite) TestEnterOnce() {
	contest := s.start(1)

	updated, err := s.service.Enter(s.ctx, contest.ID, "discord-1")
	s.Require().NoError(err)
	s.Require().Len(updated.Entries, 1)
	s.Equal("Alice", updated.Entries[0].PlayerName)

	_, err = s.service.Enter(s.ctx, contest.ID, "discord-1")
	s.ErrorIs(err, model.ErrAlreadyEntered)
}

func (s *ContestSuite) TestEnterAfterDeadline() {
	contest := s.start(1)
	s.clock.Advance(time.Hour)

	_, err := s.service.Enter(s.ctx, contest.ID, "discord-1")
	s.ErrorIs(err, model.ErrContestEnded)
}

func (s *ContestSuite) TestEndDrawsDistinctWinners() {
	contest := s.start(2)
	for _, id := range []string{"discord-1", "discord-2", "discord-3"} {
		_, err := s.service.Enter(s.ctx, contest.ID, id)
		s.Require().NoError(err)
	}
	// First draw picks index 2, second picks the new index 1
	s.random.QueueIntn(2, 0)

	ended, err := s.service.End(s.ctx, contest.ID)
	s.Require().NoError(err)

	s.Equal(model.ContestStateEnded, ended.State)
	s.Require().NotNil(ended.EndedAt)
	s.Require().Len(ended.Winners, 2)
	s.Equal("Carol", ended.Winners[0].PlayerName)
	s.Equal("Bob123", ended.Winners[1].PlayerName)
	s.Equal([]int{3, 2}, s.random.IntnBounds())

	s.Equal([]string{`Contest "Weekend raffle" has ended! Winners: Carol, Bob123`}, s.broadcaster.messages)
	s.Len(s.publisher.published, 1)

	_, err = s.service.End(s.ctx, contest.ID)
	s.ErrorIs(err, model.ErrContestEnded)
}

func (s *ContestSuite) TestMoreWinnersThanEntries() {
	contest := s.start(5)
	_, err := s.service.Enter(s.ctx, contest.ID, "discord-1")
	s.Require().NoError(err)

	ended, err := s.service.End(s.ctx, contest.ID)
	s.Require().NoError(err)
	s.Len(ended.Winners, 1)
}

func (s *ContestSuite) TestAnnouncementFailureDoesNotFailEnd() {
	contest := s.start(1)
	s.broadcaster.err = errors.New("console unavailable")
	s.publisher.err = errors.New("discord unavailable")

	ended, err := s.service.End(s.ctx, contest.ID)
	s.Require().NoError(err)
	s.Equal(model.ContestStateEnded, ended.State)
	s.Equal(`Contest "Weekend raffle" has ended with no entries.`, s.broadcaster.messages[0])
}

func (s *ContestSuite) TestCancel() {
	contest := s.start(1)
	_, _ = s.service.Enter(s.ctx, contest.ID, "discord-1")

	cancelled, err := s.service.Cancel(s.ctx, contest.ID)
	s.Require().NoError(err)
	s.Equal(model.ContestStateCancelled, cancelled.State)
	s.Empty(cancelled.Winners)
	s.Empty(s.broadcaster.messages)

	_, err = s.service.Active(s.ctx, "guild-1")
	s.ErrorIs(err, model.ErrContestNotFound)
}

func (s *ContestSuite) TestEndExpired() {
	contest := s.start(1)
	s.random.QueueString("ZZ99AB")
	_, err := s.service.Start(s.ctx, StartParams{GuildID: "guild-2", Title: "Long", Duration: 24 * time.Hour})
	s.Require().NoError(err)

	n, err := s.service.EndExpired(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, n)

	s.clock.Advance(time.Hour)
	n, err = s.service.EndExpired(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)

	ended, err := s.service.Get(s.ctx, contest.ID)
	s.Require().NoError(err)
	s.Equal(model.ContestStateEnded, ended.State)
}
