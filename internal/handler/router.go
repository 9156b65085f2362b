package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-interview/backend/internal/handler/options"
	"github.com/zhouzirui/z-interview/backend/internal/handler/session"
	"github.com/zhouzirui/z-interview/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/z-interview/backend/internal/middleware"
	"github.com/zhouzirui/z-interview/backend/internal/model/interview"
	interviewService "github.com/zhouzirui/z-interview/backend/internal/service/interview"
	"github.com/zhouzirui/z-interview/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(catalog interview.Store, sessions *interviewService.Service, allowedOrigins []string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(allowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_ = utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": sessions.Len(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		options.New(catalog).RegisterRoutes(api)
		ws.New(sessions, log).RegisterRoutes(api)
		session.New(sessions, log).RegisterRoutes(api)
	})

	return r
}
