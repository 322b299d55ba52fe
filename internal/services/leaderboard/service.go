package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mcoot/crcon-linkbot/internal/console"
	"github.com/mcoot/crcon-linkbot/internal/dependencies/clock"
	"github.com/mcoot/crcon-linkbot/internal/model"
	"github.com/mcoot/crcon-linkbot/internal/storage"
)

const (
	DefaultSize = 10
	MaxSize     = 25
)

// Console is the subset of the request executor the service needs
type Console interface {
	Get(ctx context.Context, path string, query url.Values) (gjson.Result, error)
}

// Publisher posts a board to a registered channel. It returns the id of the
// message now showing the board, which is edited on the next refresh.
type Publisher interface {
	PublishLeaderboard(ctx context.Context, ch *model.LeaderboardChannel, board *model.Leaderboard) (string, error)
}

// Sink receives every refreshed board, e.g. for streaming to HTTP clients
type Sink interface {
	BroadcastLeaderboard(board *model.Leaderboard)
}

// RefreshResult summarises one refresh
type RefreshResult struct {
	Channels int
	Updated  int
	Failed   int
}

// Service builds live-stat leaderboards and keeps registered channels current
type Service struct {
	console   Console
	storage   storage.Storage
	publisher Publisher
	sink      Sink
	clock     clock.Clock
	logger    *slog.Logger
}

// New creates a leaderboard service. sink may be nil.
func New(
	c Console,
	storage storage.Storage,
	publisher Publisher,
	sink Sink,
	clock clock.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		console:   c,
		storage:   storage,
		publisher: publisher,
		sink:      sink,
		clock:     clock,
		logger:    logger.With(slog.String("component", "leaderboard-service")),
	}
}

// Build ranks the players in the current match by metric, highest first,
// ties broken by name
func (s *Service) Build(ctx context.Context, metric model.LeaderboardMetric, size int) (*model.Leaderboard, error) {
	if _, err := model.ParseMetric(string(metric)); err != nil {
		return nil, err
	}
	size = clampSize(size)

	result, err := s.console.Get(ctx, console.PathGetLiveGameStats, nil)
	if err != nil {
		return nil, err
	}

	var entries []model.LeaderboardEntry
	for _, rec := range console.Records(result) {
		name := rec.Name()
		if name == "" || !rec.Value.IsObject() {
			continue
		}
		value, ok := console.FirstInt(rec.Value, string(metric))
		if !ok {
			continue
		}
		entries = append(entries, model.LeaderboardEntry{
			Name:     name,
			StableID: rec.ID(),
			Value:    value,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	if len(entries) > size {
		entries = entries[:size]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}

	return &model.Leaderboard{
		Metric:      metric,
		Entries:     entries,
		GeneratedAt: s.clock.Now(),
	}, nil
}

// Register starts auto-refreshing a board in a channel, replacing any
// existing registration for that channel
func (s *Service) Register(ctx context.Context, guildID, channelID string, metric model.LeaderboardMetric, size int) (*model.LeaderboardChannel, error) {
	if _, err := model.ParseMetric(string(metric)); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	ch := &model.LeaderboardChannel{
		GuildID:   guildID,
		ChannelID: channelID,
		Metric:    metric,
		Size:      clampSize(size),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.storage.SaveLeaderboardChannel(ctx, ch); err != nil {
		return nil, err
	}

	s.logger.Info("leaderboard channel registered",
		slog.String("channel_id", channelID),
		slog.String("metric", string(metric)),
	)
	return ch, nil
}

// Unregister stops refreshing a channel
func (s *Service) Unregister(ctx context.Context, channelID string) error {
	if _, err := s.storage.GetLeaderboardChannel(ctx, channelID); err != nil {
		return err
	}
	return s.storage.DeleteLeaderboardChannel(ctx, channelID)
}

// Channels lists registered channels
func (s *Service) Channels(ctx context.Context) ([]*model.LeaderboardChannel, error) {
	return s.storage.ListLeaderboardChannels(ctx)
}

// Refresh rebuilds each registered metric once and republishes every channel.
// If any board cannot be built nothing is published.
func (s *Service) Refresh(ctx context.Context) (RefreshResult, error) {
	var result RefreshResult

	channels, err := s.storage.ListLeaderboardChannels(ctx)
	if err != nil {
		return result, err
	}
	result.Channels = len(channels)

	boards := make(map[model.LeaderboardMetric]*model.Leaderboard)
	for _, ch := range channels {
		if _, ok := boards[ch.Metric]; ok {
			continue
		}
		board, err := s.Build(ctx, ch.Metric, MaxSize)
		if err != nil {
			return result, fmt.Errorf("build %s leaderboard: %w", ch.Metric, err)
		}
		boards[ch.Metric] = board
	}

	for _, metric := range model.Metrics {
		if board, ok := boards[metric]; ok && s.sink != nil {
			s.sink.BroadcastLeaderboard(board)
		}
	}

	for _, ch := range channels {
		board := truncate(boards[ch.Metric], ch.Size)
		messageID, err := s.publisher.PublishLeaderboard(ctx, ch, board)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return result, err
			}
			s.logger.Warn("leaderboard publish failed",
				slog.String("channel_id", ch.ChannelID),
				slog.Any("error", err),
			)
			result.Failed++
			continue
		}

		ch.MessageID = messageID
		ch.UpdatedAt = s.clock.Now()
		if err := s.storage.SaveLeaderboardChannel(ctx, ch); err != nil {
			return result, err
		}
		result.Updated++
	}

	s.logger.Info("leaderboards refreshed",
		slog.Int("channels", result.Channels),
		slog.Int("updated", result.Updated),
		slog.Int("failed", result.Failed),
	)
	return result, nil
}

func clampSize(size int) int {
	if size <= 0 {
		return DefaultSize
	}
	if size > MaxSize {
		return MaxSize
	}
	return size
}

func truncate(board *model.Leaderboard, size int) *model.Leaderboard {
	out := *board
	if len(out.Entries) > size {
		out.Entries = out.Entries[:size]
	}
	return &out
}
