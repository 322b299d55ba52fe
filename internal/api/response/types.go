package response

import (
	"time"

	"github.com/mcoot/crcon-linkbot/internal/jobs"
	"github.com/mcoot/crcon-linkbot/internal/model"
	"github.com/mcoot/crcon-linkbot/internal/services/broadcast"
)

// Health is the console connection health
type Health struct {
	Status              string     `json:"status"`
	Healthy             bool       `json:"healthy"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
	LastFailureAt       *time.Time `json:"last_failure_at,omitempty"`
}

// HealthFromModel converts a model.HealthState
func HealthFromModel(h model.HealthState) Health {
	status := "ok"
	if !h.IsHealthy() {
		status = "degraded"
	}
	return Health{
		Status:              status,
		Healthy:             h.IsHealthy(),
		ConsecutiveFailures: h.ConsecutiveFailures,
		LastSuccessAt:       h.LastSuccessAt,
		LastFailureAt:       h.LastFailureAt,
	}
}

// ConnectionStatus is the result of a live connection test
type ConnectionStatus struct {
	Connected   bool   `json:"connected"`
	ServerName  string `json:"server_name,omitempty"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
	Error       string `json:"error,omitempty"`
}

// ConnectionStatusFromModel converts a model.ConnectionStatus
func ConnectionStatusFromModel(s model.ConnectionStatus) ConnectionStatus {
	return ConnectionStatus(s)
}

// Player is a resolved player
type Player struct {
	Name        string `json:"name"`
	StableID    string `json:"stable_id"`
	DisplayName string `json:"display_name"`
	Platform    string `json:"platform,omitempty"`
	Source      string `json:"source"`
}

// PlayerFromModel converts a model.PlayerRecord
func PlayerFromModel(p *model.PlayerRecord) Player {
	return Player{
		Name:        p.Name,
		StableID:    p.StableID,
		DisplayName: p.DisplayName,
		Platform:    string(p.Platform),
		Source:      p.Source,
	}
}

// VipStatus is a player's evaluated VIP state
type VipStatus struct {
	StableID      string     `json:"stable_id"`
	IsVip         bool       `json:"is_vip"`
	Permanent     bool       `json:"permanent"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	DaysRemaining *int       `json:"days_remaining,omitempty"`
	Description   string     `json:"description,omitempty"`
}

// VipStatusFromModel converts a model.VipStatus
func VipStatusFromModel(stableID string, v model.VipStatus) VipStatus {
	return VipStatus{
		StableID:      stableID,
		IsVip:         v.IsVip,
		Permanent:     v.Permanent,
		ExpiresAt:     v.ExpiresAt,
		DaysRemaining: v.DaysRemaining,
		Description:   v.Description,
	}
}

// Broadcast reports how a broadcast was delivered
type Broadcast struct {
	Strategy   string `json:"strategy"`
	Recipients int    `json:"recipients"`
}

// BroadcastFromDelivery converts a broadcast.Delivery
func BroadcastFromDelivery(d broadcast.Delivery) Broadcast {
	return Broadcast{
		Strategy:   d.Strategy,
		Recipients: d.Recipients,
	}
}

// Link is a Discord user to player link
type Link struct {
	DiscordID  string    `json:"discord_id"`
	PlayerName string    `json:"player_name"`
	StableID   string    `json:"stable_id"`
	Platform   string    `json:"platform,omitempty"`
	LinkedAt   time.Time `json:"linked_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	WasVip     bool      `json:"was_vip"`
}

// LinkFromModel converts a model.LinkRecord
func LinkFromModel(l *model.LinkRecord) Link {
	return Link{
		DiscordID:  l.DiscordID,
		PlayerName: l.PlayerName,
		StableID:   l.StableID,
		Platform:   string(l.Platform),
		LinkedAt:   l.LinkedAt,
		UpdatedAt:  l.UpdatedAt,
		WasVip:     l.WasVip,
	}
}

// LinkList is the response for listing links
type LinkList struct {
	Links []Link `json:"links"`
}

// LinkListFromModel converts a slice of link records
func LinkListFromModel(links []*model.LinkRecord) LinkList {
	out := LinkList{Links: make([]Link, len(links))}
	for i, l := range links {
		out.Links[i] = LinkFromModel(l)
	}
	return out
}

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Name     string `json:"name"`
	StableID string `json:"stable_id,omitempty"`
	Value    int64  `json:"value"`
}

// Leaderboard is a ranked board for one metric
type Leaderboard struct {
	Metric      string             `json:"metric"`
	GeneratedAt time.Time          `json:"generated_at"`
	Entries     []LeaderboardEntry `json:"entries"`
}

// LeaderboardFromModel converts a model.Leaderboard
func LeaderboardFromModel(b *model.Leaderboard) Leaderboard {
	out := Leaderboard{
		Metric:      string(b.Metric),
		GeneratedAt: b.GeneratedAt,
		Entries:     make([]LeaderboardEntry, len(b.Entries)),
	}
	for i, e := range b.Entries {
		out.Entries[i] = LeaderboardEntry(e)
	}
	return out
}

// Job is one background job's run history
type Job struct {
	Name           string     `json:"name"`
	Interval       string     `json:"interval"`
	Running        bool       `json:"running"`
	Runs           int        `json:"runs"`
	LastRunAt      *time.Time `json:"last_run_at,omitempty"`
	LastDurationMs int64      `json:"last_duration_ms"`
	LastError      string     `json:"last_error,omitempty"`
}

// JobList is the response for listing jobs
type JobList struct {
	Jobs []Job `json:"jobs"`
}

// JobFromStatus converts a jobs.Status
func JobFromStatus(s jobs.Status) Job {
	return Job{
		Name:           s.Name,
		Interval:       s.Interval.String(),
		Running:        s.Running,
		Runs:           s.Runs,
		LastRunAt:      s.LastRunAt,
		LastDurationMs: s.LastDuration.Milliseconds(),
		LastError:      s.LastError,
	}
}

// JobListFromStatus converts scheduler statuses
func JobListFromStatus(statuses []jobs.Status) JobList {
	out := JobList{Jobs: make([]Job, len(statuses))}
	for i, s := range statuses {
		out.Jobs[i] = JobFromStatus(s)
	}
	return out
}
