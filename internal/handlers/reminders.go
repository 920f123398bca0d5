package handlers

import (
	"net/http"

	"gatherly/internal/auth"
	"gatherly/internal/container"
	"gatherly/internal/models"
)

// SeedReminders schedules the 24h and 1h reminders for every guest of an
// event the caller organizes.
func SeedReminders(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := c.EventService.GetOwned(r.Context(), r.PathValue("eventId"), auth.UserID(r.Context()))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		count, err := c.ReminderService.SeedReminders(r.Context(), event.ID, event.StartAt, event.Guests)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"msg": "Reminders scheduled", "count": count})
	}
}

func ListEventReminders(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := c.EventService.GetOwned(r.Context(), r.PathValue("eventId"), auth.UserID(r.Context())); err != nil {
			writeServiceError(w, err)
			return
		}

		reminders, err := c.ReminderService.ListEventReminders(r.Context(), r.PathValue("eventId"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if reminders == nil {
			reminders = []models.Reminder{}
		}
		writeJSON(w, http.StatusOK, reminders)
	}
}
