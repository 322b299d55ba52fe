package contest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/crcon-linkbot/internal/dependencies/clock"
	"github.com/mcoot/crcon-linkbot/internal/dependencies/random"
	"github.com/mcoot/crcon-linkbot/internal/model"
	"github.com/mcoot/crcon-linkbot/internal/services/broadcast"
	"github.com/mcoot/crcon-linkbot/internal/storage"
)

const (
	// CodeLength is the length of generated contest codes
	CodeLength = 6
	// codeAttempts bounds the search for a code no running contest uses
	codeAttempts = 16
	// CodeAlphabet avoids characters that are easy to confuse
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// MaxWinners caps a single draw
	MaxWinners = 25
)

// ErrNoFreeCode is returned when every generated code is taken by a running contest
var ErrNoFreeCode = errors.New("could not generate an unused contest code")

// Broadcaster announces results in game
type Broadcaster interface {
	Broadcast(ctx context.Context, message string) (broadcast.Delivery, error)
}

// Publisher announces results in the contest's chat channel
type Publisher interface {
	PublishContestResult(ctx context.Context, contest *model.Contest) error
}

// StartParams describes a new contest
type StartParams struct {
	GuildID     string
	ChannelID   string
	Title       string
	Description string
	Prize       string
	Duration    time.Duration
	Winners     int
	StartedBy   string
}

// Service runs timed contests among linked players
type Service struct {
	storage     storage.Storage
	broadcaster Broadcaster
	publisher   Publisher
	clock       clock.Clock
	random      random.Random
	logger      *slog.Logger

	mu sync.Mutex
}

// New creates a contest service
func New(
	storage storage.Storage,
	broadcaster Broadcaster,
	publisher Publisher,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Service {
	return &Service{
		storage:     storage,
		broadcaster: broadcaster,
		publisher:   publisher,
		clock:       clock,
		random:      random,
		logger:      logger.With(slog.String("component", "contest-service")),
	}
}

// Start opens a contest. Only one contest may be active per guild.
func (s *Service) Start(ctx context.Context, params StartParams) (*model.Contest, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" || params.Duration <= 0 {
		return nil, model.ErrInvalidContest
	}
	winners := params.Winners
	if winners <= 0 {
		winners = 1
	}
	if winners > MaxWinners {
		winners = MaxWinners
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	contests, err := s.storage.ListContests(ctx)
	if err != nil {
		return nil, err
	}
	codes := make(map[string]bool)
	for _, c := range contests {
		if !c.IsActive() {
			continue
		}
		if c.GuildID == params.GuildID {
			return nil, model.ErrContestActive
		}
		codes[c.Code] = true
	}

	// Generate a code not used by any running contest
	code := ""
	for range codeAttempts {
		if c := s.random.String(CodeLength, CodeAlphabet); !codes[c] {
			code = c
			break
		}
	}
	if code == "" {
		return nil, ErrNoFreeCode
	}

	now := s.clock.Now()
	contest := &model.Contest{
		ID:          model.ContestID(uuid.NewString()),
		Code:        code,
		GuildID:     params.GuildID,
		ChannelID:   params.ChannelID,
		Title:       title,
		Description: params.Description,
		Prize:       params.Prize,
		WinnerCount: winners,
		StartedBy:   params.StartedBy,
		State:       model.ContestStateActive,
		Entries:     []model.ContestEntry{},
		StartedAt:   now,
		EndsAt:      now.Add(params.Duration),
	}

	if err := s.storage.SaveContest(ctx, contest); err != nil {
		return nil, err
	}

	s.logger.Info("contest started",
		slog.String("contest_id", string(contest.ID)),
		slog.String("guild_id", contest.GuildID),
		slog.Duration("duration", params.Duration),
	)
	return contest, nil
}

// Enter adds a linked Discord user to an active contest
func (s *Service) Enter(ctx context.Context, id model.ContestID, discordID string) (*model.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contest, err := s.storage.GetContest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !contest.IsActive() || !s.clock.Now().Before(contest.EndsAt) {
		return nil, model.ErrContestEnded
	}
	if contest.HasEntrant(discordID) {
		return nil, model.ErrAlreadyEntered
	}

	link, err := s.storage.GetLink(ctx, discordID)
	if errors.Is(err, model.ErrLinkNotFound) {
		return nil, model.ErrNotLinked
	}
	if err != nil {
		return nil, err
	}

	contest.Entries = append(contest.Entries, model.ContestEntry{
		DiscordID:  discordID,
		PlayerName: link.PlayerName,
		StableID:   link.StableID,
		EnteredAt:  s.clock.Now(),
	})
	if err := s.storage.SaveContest(ctx, contest); err != nil {
		return nil, err
	}
	return contest, nil
}

// End closes a contest, draws its winners and announces them
func (s *Service) End(ctx context.Context, id model.ContestID) (*model.Contest, error) {
	contest, err := s.finish(ctx, id, model.ContestStateEnded)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, contest)
	return contest, nil
}

// Cancel closes a contest without drawing winners
func (s *Service) Cancel(ctx context.Context, id model.ContestID) (*model.Contest, error) {
	return s.finish(ctx, id, model.ContestStateCancelled)
}

// Get returns a contest by id
func (s *Service) Get(ctx context.Context, id model.ContestID) (*model.Contest, error) {
	return s.storage.GetContest(ctx, id)
}

// Active returns the guild's running contest, or model.ErrContestNotFound
func (s *Service) Active(ctx context.Context, guildID string) (*model.Contest, error) {
	contests, err := s.storage.ListContests(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range contests {
		if c.IsActive() && c.GuildID == guildID {
			return c, nil
		}
	}
	return nil, model.ErrContestNotFound
}

// EndExpired ends every active contest whose end time has passed and
// returns how many were ended
func (s *Service) EndExpired(ctx context.Context) (int, error) {
	contests, err := s.storage.ListContests(ctx)
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	ended := 0
	for _, c := range contests {
		if !c.IsActive() || now.Before(c.EndsAt) {
			continue
		}
		if _, err := s.End(ctx, c.ID); err != nil {
			// Someone else ended it between the list and now
			if errors.Is(err, model.ErrContestEnded) {
				continue
			}
			return ended, err
		}
		ended++
	}
	return ended, nil
}

func (s *Service) finish(ctx context.Context, id model.ContestID, state model.ContestState) (*model.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contest, err := s.storage.GetContest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !contest.IsActive() {
		return nil, model.ErrContestEnded
	}

	now := s.clock.Now()
	contest.State = state
	contest.EndedAt = &now
	contest.Winners = []model.ContestEntry{}
	if state == model.ContestStateEnded {
		for _, i := range random.Sample(s.random, len(contest.Entries), contest.WinnerCount) {
			contest.Winners = append(contest.Winners, contest.Entries[i])
		}
	}

	if err := s.storage.SaveContest(ctx, contest); err != nil {
		return nil, err
	}

	s.logger.Info("contest finished",
		slog.String("contest_id", string(contest.ID)),
		slog.String("state", string(state)),
		slog.Int("entries", len(contest.Entries)),
		slog.Int("winners", len(contest.Winners)),
	)
	return contest, nil
}

// announce is best-effort: the result is already stored
func (s *Service) announce(ctx context.Context, contest *model.Contest) {
	if _, err := s.broadcaster.Broadcast(ctx, ResultMessage(contest)); err != nil {
		s.logger.Warn("in-game contest announcement failed",
			slog.String("contest_id", string(contest.ID)),
			slog.Any("error", err),
		)
	}
	if err := s.publisher.PublishContestResult(ctx, contest); err != nil {
		s.logger.Warn("channel contest announcement failed",
			slog.String("contest_id", string(contest.ID)),
			slog.Any("error", err),
		)
	}
}

// ResultMessage is the plain-text winner announcement
func ResultMessage(contest *model.Contest) string {
	if len(contest.Winners) == 0 {
		return fmt.Sprintf("Contest %q has ended with no entries.", contest.Title)
	}
	names := make([]string, len(contest.Winners))
	for i, w := range contest.Winners {
		names[i] = w.PlayerName
	}
	return fmt.Sprintf("Contest %q has ended! Winners: %s", contest.Title, strings.Join(names, ", "))
}
