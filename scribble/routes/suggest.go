package routes

import (
	"github.com/go-chi/chi/v5"

	"scribble/scribble/controllers"
	"scribble/scribble/middlewares"
	"scribble/scribble/services/ratelimit"
)

func SuggestRoutes(ctrl *controllers.SuggestController, limiter *ratelimit.Limiter, allowedOrigins []string) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.AllowOrigins(allowedOrigins))
	r.Use(middlewares.RateLimit(limiter))
	r.Post("/", ctrl.Suggest)
	return r
}
