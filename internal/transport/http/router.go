package http

import (
	"net/http"
	"time"

	httpmw "github.com/questroom/progress-service/internal/transport/http/middleware"
	"github.com/questroom/progress-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler, tokens httpmw.TokenParser, wsServer *ws.Server, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// WS endpoint authenticates via access_token query param
	r.Get("/ws/rooms/{id}", wsServer.HandleWS)

	r.Route("/auth", func(ar chi.Router) {
		ar.Use(middleware.Timeout(30 * time.Second))

		ar.Post("/register", h.Register)
		ar.Post("/login", h.Login)

		ar.Group(func(pr chi.Router) {
			pr.Use(httpmw.AuthMiddleware(tokens))
			pr.Get("/me", h.Me)
		})
	})

	// everything below requires a valid access token
	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AuthMiddleware(tokens))
		pr.Use(middleware.Timeout(30 * time.Second))

		pr.Route("/rooms", func(rm chi.Router) {
			rm.With(httpmw.RequireAdmin).Post("/", h.CreateRoom)
			rm.Get("/", h.ListRooms)
			rm.Post("/join", h.JoinRoom)

			rm.Route("/{id}", func(rr chi.Router) {
				rr.Get("/", h.GetRoom)
				rr.With(httpmw.RequireAdmin).Delete("/", h.DeleteRoom)
				rr.Post("/leave", h.LeaveRoom)
				rr.Get("/members", h.GetMembers)
				rr.Get("/progress", h.GetRoomProgress)
				rr.Post("/glossary", h.AddGlossaryEntry)
				rr.Get("/glossary", h.ListGlossary)
			})
		})

		pr.Route("/glossary/{entryID}", func(gr chi.Router) {
			gr.Put("/", h.UpdateGlossaryEntry)
			gr.Delete("/", h.DeleteGlossaryEntry)
		})

		pr.Post("/progress/complete", h.CompleteModule)
		pr.Get("/progress/me", h.MyProgress)

		pr.Route("/quizzes", func(qr chi.Router) {
			qr.Get("/", h.ListQuizzes)
			qr.Get("/attempts/me", h.MyAttempts)

			qr.Route("/{quizID}", func(rr chi.Router) {
				rr.Get("/", h.GetQuiz)
				rr.Post("/attempts", h.SubmitAttempt)
				rr.Get("/leaderboard", h.Leaderboard)
			})
		})
	})

	return r
}
