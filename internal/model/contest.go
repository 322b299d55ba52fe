package model

import "time"

// ContestID uniquely identifies a contest
type ContestID string

// ContestState represents the lifecycle of a contest
type ContestState string

const (
	ContestStateActive    ContestState = "active"
	ContestStateEnded     ContestState = "ended"
	ContestStateCancelled ContestState = "cancelled"
)

// ContestEntry is one linked Discord user taking part in a contest
type ContestEntry struct {
	DiscordID  string
	PlayerName string
	StableID   string
	EnteredAt  time.Time
}

// Contest is a timed giveaway among linked players
type Contest struct {
	ID          ContestID
	Code        string // short code users type to enter
	GuildID     string
	ChannelID   string
	Title       string
	Description string
	Prize       string
	WinnerCount int
	StartedBy   string
	State       ContestState
	Entries     []ContestEntry
	Winners     []ContestEntry
	StartedAt   time.Time
	EndsAt      time.Time
	EndedAt     *time.Time
}

// HasEntrant reports whether the Discord user has already entered
func (c *Contest) HasEntrant(discordID string) bool {
	for _, e := range c.Entries {
		if e.DiscordID == discordID {
			return true
		}
	}
	return false
}

// IsActive reports whether the contest still accepts entries
func (c *Contest) IsActive() bool {
	return c.State == ContestStateActive
}
