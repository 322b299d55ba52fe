package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/mcoot/crcon-linkbot/internal/api/response"
	"github.com/mcoot/crcon-linkbot/internal/api/sse"
	"github.com/mcoot/crcon-linkbot/internal/model"
)

// LeaderboardBuilder ranks live stats
type LeaderboardBuilder interface {
	Build(ctx context.Context, metric model.LeaderboardMetric, size int) (*model.Leaderboard, error)
}

// LeaderboardHandler handles leaderboard endpoints
type LeaderboardHandler struct {
	leaderboards LeaderboardBuilder
	hubManager   *sse.HubManager
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(leaderboards LeaderboardBuilder, hubManager *sse.HubManager) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboards: leaderboards,
		hubManager:   hubManager,
	}
}

// Get handles GET /api/v1/leaderboard?metric=&size=
func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	metric := model.MetricKills
	if m := r.URL.Query().Get("metric"); m != "" {
		parsed, err := model.ParseMetric(m)
		if err != nil {
			WriteError(w, err)
			return
		}
		metric = parsed
	}

	size := 0
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			WriteError(w, NewInvalidRequestError("size must be a positive integer"))
			return
		}
		size = n
	}

	board, err := h.leaderboards.Build(r.Context(), metric, size)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(board))
}

// Events handles GET /api/v1/leaderboard/events, streaming each refreshed
// board. ?metric= limits the stream to one metric.
func (h *LeaderboardHandler) Events(w http.ResponseWriter, r *http.Request) {
	topic := sse.TopicLeaderboards
	if m := r.URL.Query().Get("metric"); m != "" {
		metric, err := model.ParseMetric(m)
		if err != nil {
			WriteError(w, err)
			return
		}
		topic = sse.TopicForMetric(metric)
	}

	hub := h.hubManager.GetOrCreateHub(topic)
	sse.Stream(w, r, hub)
}
