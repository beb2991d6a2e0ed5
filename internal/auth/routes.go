package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ContaSync/CS-Backend/internal/middleware"
)

func SetupRoutes(h *Handler, fetcher middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()

	r.Post("/login", h.Login)
	r.Post("/register", h.Register)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(fetcher))

		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
		r.Put("/change-password", h.ChangePassword)
	})

	return r
}
