package model

// Platform is the coarse platform classification shown to users
type Platform string

const (
	PlatformPC          Platform = "PC"
	PlatformPlayStation Platform = "PlayStation"
	PlatformXbox        Platform = "Xbox"
	PlatformConsole     Platform = "Console"
)

// PlayerRecord is the canonical view of a player returned by name resolution.
// StableID is the console's identity for the player (a Steam64 id or a 32-char
// hex id) and is always kept as its exact textual digits.
type PlayerRecord struct {
	Name        string // display name as matched
	StableID    string
	DisplayName string // most recently observed spelling, defaults to Name
	Platform    Platform
	Source      string // strategy that produced the record
}
