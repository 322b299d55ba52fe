package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mcoot/crcon-linkbot/internal/api/request"
	"github.com/mcoot/crcon-linkbot/internal/api/response"
	"github.com/mcoot/crcon-linkbot/internal/services/broadcast"
)

// Broadcaster sends a message to everyone in game
type Broadcaster interface {
	Broadcast(ctx context.Context, message string) (broadcast.Delivery, error)
}

// BroadcastHandler handles POST /api/v1/broadcast
type BroadcastHandler struct {
	broadcaster Broadcaster
	logger      *slog.Logger
}

// NewBroadcastHandler creates a new broadcast handler
func NewBroadcastHandler(broadcaster Broadcaster, logger *slog.Logger) *BroadcastHandler {
	return &BroadcastHandler{
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Send delivers the message and reports which strategy was used
func (h *BroadcastHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req request.BroadcastRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		WriteError(w, NewInvalidRequestError("message is required"))
		return
	}

	delivery, err := h.broadcaster.Broadcast(r.Context(), req.Message)
	if err != nil {
		h.logger.Warn("api broadcast failed", slog.Any("error", err))
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.BroadcastFromDelivery(delivery))
}
