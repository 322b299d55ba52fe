package model

import "time"

// LeaderboardMetric is the live stat a leaderboard ranks players by
type LeaderboardMetric string

const (
	MetricKills      LeaderboardMetric = "kills"
	MetricDeaths     LeaderboardMetric = "deaths"
	MetricCombat     LeaderboardMetric = "combat"
	MetricOffense    LeaderboardMetric = "offense"
	MetricDefense    LeaderboardMetric = "defense"
	MetricSupport    LeaderboardMetric = "support"
	MetricKillStreak LeaderboardMetric = "kills_streak"
)

// Metrics lists every supported metric in display order
var Metrics = []LeaderboardMetric{
	MetricKills, MetricDeaths, MetricCombat, MetricOffense, MetricDefense, MetricSupport, MetricKillStreak,
}

// ParseMetric validates a metric name
func ParseMetric(s string) (LeaderboardMetric, error) {
	for _, m := range Metrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", ErrInvalidMetric
}

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	Rank     int
	Name     string
	StableID string
	Value    int64
}

// Leaderboard is a rendered ranking at a point in time
type Leaderboard struct {
	Metric      LeaderboardMetric
	Entries     []LeaderboardEntry
	GeneratedAt time.Time
}

// LeaderboardChannel is a Discord channel that receives periodic leaderboard posts
type LeaderboardChannel struct {
	GuildID   string
	ChannelID string
	MessageID string // last posted message, edited on refresh
	Metric    LeaderboardMetric
	Size      int
	CreatedAt time.Time
	UpdatedAt time.Time
}
