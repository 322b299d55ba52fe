package sse

import (
	"encoding/json"
	"log/slog"

	"github.com/mcoot/crcon-linkbot/internal/api/response"
	"github.com/mcoot/crcon-linkbot/internal/model"
)

const (
	// TopicLeaderboards carries every refreshed board
	TopicLeaderboards = "leaderboard"

	// EventLeaderboard is the event name for a refreshed board
	EventLeaderboard = "leaderboard"
)

// TopicForMetric is the topic carrying only boards for one metric
func TopicForMetric(metric model.LeaderboardMetric) string {
	return TopicLeaderboards + ":" + string(metric)
}

// Broadcaster is the leaderboard service's sink for live boards
type Broadcaster struct {
	hubs   *HubManager
	logger *slog.Logger
}

// NewBroadcaster creates a Broadcaster publishing through hubs
func NewBroadcaster(hubs *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubs:   hubs,
		logger: logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// BroadcastLeaderboard publishes board on the all-boards topic and on its
// metric topic. Hubs are created even with no subscribers so the board is
// replayed to whoever connects next.
func (b *Broadcaster) BroadcastLeaderboard(board *model.Leaderboard) {
	data, err := json.Marshal(response.LeaderboardFromModel(board))
	if err != nil {
		b.logger.Error("encode leaderboard",
			slog.String("metric", string(board.Metric)),
			slog.Any("error", err))
		return
	}

	for _, topic := range []string{TopicLeaderboards, TopicForMetric(board.Metric)} {
		b.hubs.GetOrCreateHub(topic).Publish(EventLeaderboard, string(data))
	}
}
