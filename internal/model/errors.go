package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrInvalidName    = errors.New("player name must not be empty")

	// Link errors
	ErrLinkNotFound          = errors.New("link not found")
	ErrNotLinked             = errors.New("discord user is not linked to a player")
	ErrPlayerLinkedElsewhere = errors.New("player is already linked to another discord user")

	// Contest errors
	ErrContestNotFound = errors.New("contest not found")
	ErrContestActive   = errors.New("a contest is already running in this guild")
	ErrContestEnded    = errors.New("contest has already ended")
	ErrAlreadyEntered  = errors.New("already entered this contest")
	ErrInvalidContest  = errors.New("contest needs a title and a positive duration")

	// Leaderboard errors
	ErrLeaderboardNotFound = errors.New("leaderboard not found")
	ErrInvalidMetric       = errors.New("unknown leaderboard metric")
)
