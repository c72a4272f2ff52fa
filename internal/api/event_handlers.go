package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

type EventResponse struct {
	ID        int64           `json:"id" example:"123"`
	EventType string          `json:"event_type" example:"file_created"`
	EventTime time.Time       `json:"event_time"`
	Payload   json.RawMessage `json:"payload" swaggertype:"object"`
}

// @Summary      Get new events
// @Description  Retrieves events that occurred since a given event ID. Used for client-side cache synchronization.
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        since  query     int  false  "The ID of the last event received. Omit or use 0 to get all events."
// @Success      200    {array}   EventResponse
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /events [get]
func (s *Server) GetEventsHandler(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())

	sinceStr := r.URL.Query().Get("since")
	if sinceStr == "" {
		sinceStr = "0"
	}

	sinceID, err := strconv.ParseInt(sinceStr, 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'since' parameter, must be a number")
		return
	}

	events, err := s.store.GetEventsSince(r.Context(), identity.UserID, sinceID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve events")
		return
	}

	respondJSON(w, http.StatusOK, events)
}
