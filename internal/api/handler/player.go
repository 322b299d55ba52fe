package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/crcon-linkbot/internal/api/response"
	"github.com/mcoot/crcon-linkbot/internal/model"
)

// Resolver looks up players by name
type Resolver interface {
	Resolve(ctx context.Context, name string) (*model.PlayerRecord, error)
}

// VipChecker evaluates VIP state
type VipChecker interface {
	GetStatus(ctx context.Context, stableID string) model.VipStatus
}

// PlayerHandler handles player lookup endpoints
type PlayerHandler struct {
	resolver Resolver
	vip      VipChecker
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(resolver Resolver, vip VipChecker) *PlayerHandler {
	return &PlayerHandler{
		resolver: resolver,
		vip:      vip,
	}
}

// Resolve handles GET /api/v1/players/resolve?name=
func (h *PlayerHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		WriteError(w, NewInvalidRequestError("name is required"))
		return
	}

	player, err := h.resolver.Resolve(r.Context(), name)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// Vip handles GET /api/v1/vip/{stable_id}
func (h *PlayerHandler) Vip(w http.ResponseWriter, r *http.Request) {
	stableID := mux.Vars(r)["stable_id"]
	status := h.vip.GetStatus(r.Context(), stableID)
	response.JSON(w, http.StatusOK, response.VipStatusFromModel(stableID, status))
}
