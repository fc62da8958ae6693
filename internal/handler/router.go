package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/zhouzirui/codegen-chat/backend/internal/config"
	"github.com/zhouzirui/codegen-chat/backend/internal/handler/chat"
	"github.com/zhouzirui/codegen-chat/backend/internal/handler/language"
	"github.com/zhouzirui/codegen-chat/backend/internal/handler/ws"
	logpkg "github.com/zhouzirui/codegen-chat/backend/internal/log"
	"github.com/zhouzirui/codegen-chat/backend/internal/metrics"
	languageModel "github.com/zhouzirui/codegen-chat/backend/internal/model/language"
	"github.com/zhouzirui/codegen-chat/backend/internal/service/codegen"
	"github.com/zhouzirui/codegen-chat/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services. m may be nil to disable /metrics.
func NewRouter(codegenSvc *codegen.Service, languages languageModel.Store, languageCfg config.LanguageConfig, m *metrics.Metrics, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logpkg.Middleware(logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	chatHandler := chat.New(codegenSvc, languageCfg)
	languageHandler := language.New(languages)
	wsHandler := ws.New(codegenSvc, languageCfg, logger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		languageHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}
