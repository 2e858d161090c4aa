package http

import (
	"net/http"
	"time"

	httpmw "github.com/careplace/chat-service/internal/transport/http/middleware"
	"github.com/careplace/chat-service/internal/transport/ws"
	"github.com/careplace/chat-service/pkg/httputil"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler, verifier httpmw.Verifier, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(httputil.MiddlewareLogging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// WS endpoint: токен проверяется внутри до апгрейда
	r.Get("/ws", wsServer.HandleWS)

	// REST: все маршруты требуют bearer-токен
	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AuthMiddleware(verifier))
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/conversations", func(cr chi.Router) {
			cr.Get("/", h.ListConversations)
			cr.Post("/", h.CreateConversation)
			cr.Get("/{id}/messages", h.GetMessages)
		})
		pr.Post("/messages", h.SendMessage)
		pr.Get("/unread-count", h.UnreadCount)
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
