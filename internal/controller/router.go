package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(c.requestIdMw)
	r.Use(cors.AllowAll().Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", c.healthz)
		r.Get("/ws", c.serveWs)

		r.Group(func(r chi.Router) {
			r.Use(c.requestLoggingMw)

			r.Get("/search", c.search)
			r.Route("/rooms", func(r chi.Router) {
				r.With(c.rateLimitMw).Post("/", c.createRoom)
				r.Route("/{room-id}", func(r chi.Router) {
					r.Get("/", c.getRoom)
					r.Get("/qr", c.getRoomQr)
				})
			})
		})
	})

	return r
}
