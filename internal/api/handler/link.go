package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/crcon-linkbot/internal/api/response"
	"github.com/mcoot/crcon-linkbot/internal/model"
)

// LinkReader reads link records
type LinkReader interface {
	Get(ctx context.Context, discordID string) (*model.LinkRecord, error)
	List(ctx context.Context) ([]*model.LinkRecord, error)
}

// LinkHandler handles link endpoints
type LinkHandler struct {
	links LinkReader
}

// NewLinkHandler creates a new link handler
func NewLinkHandler(links LinkReader) *LinkHandler {
	return &LinkHandler{links: links}
}

// List handles GET /api/v1/links
func (h *LinkHandler) List(w http.ResponseWriter, r *http.Request) {
	links, err := h.links.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.LinkListFromModel(links))
}

// Get handles GET /api/v1/links/{discord_id}
func (h *LinkHandler) Get(w http.ResponseWriter, r *http.Request) {
	link, err := h.links.Get(r.Context(), mux.Vars(r)["discord_id"])
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.LinkFromModel(link))
}
