package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"

	"github.com/soridam/contest-system/handlers"
	"github.com/soridam/contest-system/middleware"
)

func SetupRoutes(
	router *chi.Mux,
	logger *slog.Logger,
	jwtSecret []byte,
	contestHandler *handlers.ContestHandler,
	participantHandler *handlers.ParticipantHandler,
	teamHandler *handlers.TeamHandler,
	gradeHandler *handlers.GradeHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(httplog.RequestLogger(&httplog.Logger{
		Logger:  logger,
		Options: httplog.Options{Concise: true},
	}))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Route("/contests", func(r chi.Router) {
		// Публичные маршруты для просмотра
		r.Get("/", contestHandler.ListHandler)
		r.Get("/{contestID}", contestHandler.GetByIDHandler)
		r.Get("/{contestID}/results", contestHandler.ResultsHandler)
		r.Get("/{contestID}/participants", participantHandler.ListHandler)
		r.Get("/{contestID}/teams", teamHandler.ListHandler)
		r.Get("/{contestID}/grades", gradeHandler.ListHandler)

		// Маршруты, требующие личности вызывающего
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", contestHandler.CreateHandler)
			r.Post("/{contestID}/start", contestHandler.StartHandler)
			r.Post("/{contestID}/close", contestHandler.CloseHandler)
			r.Delete("/{contestID}", contestHandler.DeleteHandler)

			r.Post("/{contestID}/participants", participantHandler.AddHandler)
			r.Delete("/{contestID}/participants/{participantID}", participantHandler.RemoveHandler)

			r.Post("/{contestID}/teams", teamHandler.FormHandler)

			r.Post("/{contestID}/grades", gradeHandler.SubmitHandler)
			r.Get("/{contestID}/ungraded", gradeHandler.UngradedHandler)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Use(authenticate)
		r.Patch("/{teamID}", teamHandler.RenameHandler)
		r.Delete("/{teamID}", teamHandler.DissolveHandler)
	})

	router.Get("/ws/contests/{contestID}", webSocketHandler.ServeWs)
}
