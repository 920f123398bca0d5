package handlers

import (
	"net/http"

	"gatherly/internal/auth"
	"gatherly/internal/container"
	"gatherly/internal/models"
)

func SaveRSVP(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status models.RSVPStatus `json:"status"`
			Note   *string           `json:"note"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if !models.ValidRSVPStatus(req.Status) {
			writeError(w, http.StatusBadRequest, "Invalid status")
			return
		}

		rsvp, err := c.RSVPService.Save(r.Context(), r.PathValue("eventId"), auth.UserID(r.Context()), req.Status, req.Note)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"msg": "RSVP saved", "rsvp": rsvp})
	}
}

func ListRSVPs(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rsvps, counts, err := c.RSVPService.ListForOrganizer(r.Context(), r.PathValue("eventId"), auth.UserID(r.Context()))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if rsvps == nil {
			rsvps = []models.RSVP{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"rsvps": rsvps, "counts": counts})
	}
}
