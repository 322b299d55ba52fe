package model

import "time"

// UnhealthyThreshold is the number of consecutive failed console calls
// after which the connection is reported unhealthy
const UnhealthyThreshold = 3

// HealthState tracks recent console API outcomes
type HealthState struct {
	ConsecutiveFailures int
	LastSuccessAt       *time.Time
	LastFailureAt       *time.Time
}

// IsHealthy reports whether fewer than UnhealthyThreshold calls have failed in a row
func (h HealthState) IsHealthy() bool {
	return h.ConsecutiveFailures < UnhealthyThreshold
}

// ConnectionStatus is the result of an explicit connectivity probe
type ConnectionStatus struct {
	Connected   bool
	ServerName  string
	PlayerCount int
	MaxPlayers  int
	Error       string
}
