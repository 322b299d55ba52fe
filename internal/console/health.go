package console

import (
	"sync"

	"github.com/mcoot/crcon-linkbot/internal/dependencies/clock"
	"github.com/mcoot/crcon-linkbot/internal/model"
)

// Health tracks the outcome of recent console calls
type Health struct {
	clock clock.Clock

	mu    sync.RWMutex
	state model.HealthState
}

// NewHealth creates a Health tracker that starts out healthy
func NewHealth(clk clock.Clock) *Health {
	return &Health{clock: clk}
}

// RecordSuccess resets the failure streak
func (h *Health) RecordSuccess() {
	now := h.clock.Now()
	h.mu.Lock()
	h.state.ConsecutiveFailures = 0
	h.state.LastSuccessAt = &now
	h.mu.Unlock()
}

// RecordFailure extends the failure streak
func (h *Health) RecordFailure() {
	now := h.clock.Now()
	h.mu.Lock()
	h.state.ConsecutiveFailures++
	h.state.LastFailureAt = &now
	h.mu.Unlock()
}

// State returns a snapshot of the health state
func (h *Health) State() model.HealthState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// IsHealthy reports whether the failure streak is below the threshold
func (h *Health) IsHealthy() bool {
	return h.State().IsHealthy()
}
