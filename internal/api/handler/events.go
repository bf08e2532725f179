package handler

import (
	"net/http"

	"github.com/mcoot/gamepoints/internal/model"
	"github.com/mcoot/gamepoints/internal/sse"
)

// EventsHandler streams ledger events over SSE
type EventsHandler struct {
	hub *sse.Hub
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *sse.Hub) *EventsHandler {
	return &EventsHandler{
		hub: hub,
	}
}

// Stream handles GET /api/v1/events?player=ID
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	player := model.Identity(r.URL.Query().Get("player"))
	sse.ServeSSE(w, r, h.hub, player)
}
