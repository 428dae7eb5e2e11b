package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/tidechat/tidechat/internal/domain/registry"
)

// NewRouter assembles the HTTP surface: auth and message routes, the stats
// endpoint, and the WebSocket upgrade path (passed in as a plain handler to
// keep the transport packages decoupled).
func NewRouter(
	auth *AuthHandler,
	messages *MessageHandler,
	mw *AuthMiddleware,
	wsHandler http.Handler,
	hub registry.Hubber,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", auth.Signup)
		r.Post("/login", auth.Login)
		r.Post("/guest", auth.Guest)
		r.Post("/logout", auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth)
			r.Get("/check", auth.Check)
			r.Put("/update-profile", auth.UpdateProfile)
		})
	})

	r.Route("/api/messages", func(r chi.Router) {
		r.Use(mw.RequireAuth)
		r.Get("/users", messages.Contacts)
		r.Get("/{id}", messages.History)
		r.Post("/send/{id}", messages.Send)
		r.Delete("/{id}", messages.Delete)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAuth)
		r.Handle("/ws", wsHandler)
	})

	r.Get("/api/stats", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, hub.Stats())
	})

	return r
}
