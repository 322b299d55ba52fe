package model

import "time"

// LinkRecord ties a Discord user to a game player.
// A stable id may be linked to at most one Discord user.
type LinkRecord struct {
	DiscordID  string
	PlayerName string
	StableID   string
	Platform   Platform
	LinkedAt   time.Time
	UpdatedAt  time.Time

	// WasVip is the VIP state seen by the last expiry scan
	WasVip bool
	// NotifiedExpiry is the expiry the user was last warned about
	NotifiedExpiry *time.Time
}
