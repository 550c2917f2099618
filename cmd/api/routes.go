package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// apiRoutes groups the handlers and route-scoped middleware the server
// mounts. Kept separate from main so routing (paths, verbs, middleware
// placement) can be exercised in tests without the real dependencies.
type apiRoutes struct {
	Action        http.HandlerFunc
	CreateOrder   http.HandlerFunc
	CreateIntent  http.HandlerFunc
	AttachEwallet http.HandlerFunc
	IntentStatus  http.HandlerFunc

	AdminList   http.HandlerFunc
	AdminGet    http.HandlerFunc
	AdminVerify http.HandlerFunc
	AdminReject http.HandlerFunc

	ActionLimiter func(http.Handler) http.Handler
	Idempotency   func(http.Handler) http.Handler
	RequireAdmin  func(http.Handler) http.Handler
}

func (rt apiRoutes) mount(r chi.Router) {
	r.With(rt.ActionLimiter).Get("/orders/action", rt.Action)

	r.Route("/api/v1", func(v chi.Router) {
		v.Post("/orders", rt.CreateOrder)

		v.Route("/payments", func(p chi.Router) {
			p.Group(func(g chi.Router) {
				g.Use(rt.Idempotency)
				g.Post("/intent", rt.CreateIntent)
				g.Post("/ewallet", rt.AttachEwallet)
			})
			p.Get("/{orderId}/status", rt.IntentStatus)
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(rt.RequireAdmin)
			admin.Get("/orders", rt.AdminList)
			admin.Get("/orders/{id}", rt.AdminGet)
			admin.Post("/orders/{id}/verify", rt.AdminVerify)
			admin.Post("/orders/{id}/reject", rt.AdminReject)
		})
	})
}
