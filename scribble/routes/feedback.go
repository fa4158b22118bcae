package routes

import (
	"github.com/go-chi/chi/v5"

	"scribble/scribble/controllers"
	"scribble/scribble/middlewares"
	"scribble/scribble/services/ratelimit"
)

func FeedbackRoutes(ctrl *controllers.FeedbackController, limiter *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	r.With(middlewares.RateLimit(limiter)).Post("/", ctrl.Submit)
	return r
}
