package handler

import (
	"context"
	"net/http"

	"github.com/mcoot/crcon-linkbot/internal/api/response"
	"github.com/mcoot/crcon-linkbot/internal/model"
)

// HealthReporter exposes the console connection health
type HealthReporter interface {
	State() model.HealthState
}

// ConnectionTester probes the console
type ConnectionTester interface {
	TestConnection(ctx context.Context) model.ConnectionStatus
}

// StatusHandler handles health and connectivity endpoints
type StatusHandler struct {
	health     HealthReporter
	connection ConnectionTester
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(health HealthReporter, connection ConnectionTester) *StatusHandler {
	return &StatusHandler{
		health:     health,
		connection: connection,
	}
}

// Health handles GET /api/v1/health. It is always 200 so load balancers
// keep routing while the console is down; the body says how healthy it is.
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.HealthFromModel(h.health.State()))
}

// Status handles GET /api/v1/status
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	status := h.connection.TestConnection(r.Context())
	code := http.StatusOK
	if !status.Connected {
		code = http.StatusBadGateway
	}
	response.JSON(w, code, response.ConnectionStatusFromModel(status))
}
