package handlers

import (
	"net/http"

	"gatherly/internal/auth"
	"gatherly/internal/container"
	"gatherly/internal/models"
	"gatherly/internal/services"
)

func CreateEvent(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req services.CreateEventRequest
		if !decodeBody(w, r, &req) {
			return
		}

		event, err := c.EventService.Create(r.Context(), auth.UserID(r.Context()), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"msg": "Event created successfully!", "event": event})
	}
}

func ListEvents(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := c.EventService.List(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if events == nil {
			events = []models.Event{}
		}
		writeJSON(w, http.StatusOK, events)
	}
}

func ListMyEvents(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := c.EventService.ListMine(r.Context(), auth.UserID(r.Context()))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if events == nil {
			events = []models.Event{}
		}
		writeJSON(w, http.StatusOK, events)
	}
}

func GetEvent(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := c.EventService.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, event)
	}
}

func UpdateEvent(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req services.CreateEventRequest
		if !decodeBody(w, r, &req) {
			return
		}

		event, err := c.EventService.Update(r.Context(), r.PathValue("id"), auth.UserID(r.Context()), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"msg": "Event updated", "event": event})
	}
}

func DeleteEvent(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := c.EventService.Delete(r.Context(), r.PathValue("id"), auth.UserID(r.Context())); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"msg": "Event deleted"})
	}
}

func RegisterForEvent(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := c.EventService.Register(r.Context(), r.PathValue("id"), auth.UserID(r.Context()))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"msg": "Registered successfully!", "event": event})
	}
}
