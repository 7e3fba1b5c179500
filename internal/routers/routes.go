package routers

import (
	"github.com/go-chi/chi/v5"

	"partymatch/internal/queue"
	"partymatch/internal/regional"
	"partymatch/internal/sessions"
)

func MatchRoutes(r *chi.Mux, scheduler *queue.Scheduler) {
	r.Route("/api/v1/match", func(r chi.Router) {
		r.Post("/join", scheduler.JoinHandler)
		r.Post("/cancel", scheduler.CancelHandler)
		r.Get("/check", scheduler.CheckHandler)
		r.HandleFunc("/ws", scheduler.WsHandler)
	})
}

func SessionRoutes(r *chi.Mux, h *sessions.Handlers) {
	r.Route("/api/v1/session", func(r chi.Router) {
		r.Post("/create", h.CreateHandler)
		r.Post("/join", h.JoinHandler)
		r.Post("/dm", h.AssignDMHandler)
		r.Post("/start", h.StartHandler)
		r.Get("/get", h.GetHandler)
		r.Post("/code", h.GenerateCodeHandler)
		r.Get("/code/validate", h.ValidateCodeHandler)
		r.Post("/find-or-create", h.FindOrCreateHandler)
		r.Post("/leave", h.LeavePreferenceHandler)
		r.Post("/feedback", h.FeedbackHandler)
		r.Post("/narrate", h.NarrateHandler)
		r.Get("/history", h.HistoryHandler)
	})
}

func RegionalRoutes(r *chi.Mux, m *regional.Matcher) {
	r.Route("/api/v1/regional", func(r chi.Router) {
		r.Post("/preferences", m.SetPreferencesHandler)
		r.Post("/find", m.FindMatchHandler)
		r.Post("/session", m.CreateSessionHandler)
	})
}
