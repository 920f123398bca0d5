package handlers

import (
	"net/http"

	"gatherly/internal/auth"
	"gatherly/internal/container"
)

// NewRouter wires the HTTP surface. Authenticated routes go through
// RequireAuth; organizer-only checks live in the services.
func NewRouter(c *container.Container) *http.ServeMux {
	mux := http.NewServeMux()
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return auth.RequireAuth(c.Tokens, h)
	}

	mux.HandleFunc("POST /api/auth/signup", Signup(c))
	mux.HandleFunc("POST /api/auth/login", Login(c))

	mux.HandleFunc("POST /api/events", authed(CreateEvent(c)))
	mux.HandleFunc("GET /api/events", authed(ListEvents(c)))
	mux.HandleFunc("GET /api/events/mine", authed(ListMyEvents(c)))
	mux.HandleFunc("GET /api/events/{id}", authed(GetEvent(c)))
	mux.HandleFunc("PUT /api/events/{id}", authed(UpdateEvent(c)))
	mux.HandleFunc("DELETE /api/events/{id}", authed(DeleteEvent(c)))
	mux.HandleFunc("POST /api/events/{id}/register", authed(RegisterForEvent(c)))

	mux.HandleFunc("POST /api/rsvps/{eventId}", authed(SaveRSVP(c)))
	mux.HandleFunc("GET /api/rsvps/{eventId}", authed(ListRSVPs(c)))

	mux.HandleFunc("POST /api/reminders/seed/{eventId}", authed(SeedReminders(c)))
	mux.HandleFunc("GET /api/reminders/event/{eventId}", authed(ListEventReminders(c)))

	mux.HandleFunc("GET /api/realtime/events", StreamEvents(c))

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "event-api"})
	})

	return mux
}
