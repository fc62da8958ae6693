package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/codegen-chat/backend/internal/config"
	"github.com/zhouzirui/codegen-chat/backend/internal/handler"
	logpkg "github.com/zhouzirui/codegen-chat/backend/internal/log"
	"github.com/zhouzirui/codegen-chat/backend/internal/metrics"
	"github.com/zhouzirui/codegen-chat/backend/internal/model/language"
	"github.com/zhouzirui/codegen-chat/backend/internal/service/ai"
	"github.com/zhouzirui/codegen-chat/backend/internal/service/chat"
	"github.com/zhouzirui/codegen-chat/backend/internal/service/codegen"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env is optional
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootstrap, _ := logpkg.New(logpkg.DefaultOpts())
		bootstrap.Fatal("failed to load configuration", zap.Error(err))
	}

	logger, err := logpkg.New(logpkg.Opts{Level: cfg.Log.Level})
	if err != nil {
		bootstrap, _ := logpkg.New(logpkg.DefaultOpts())
		bootstrap.Fatal("failed to build logger", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Debug("no .env file loaded, using process environment", zap.Error(envErr))
	}

	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		logger.Fatal("failed to create chat model", zap.String("provider", string(cfg.AI.Provider)), zap.Error(err))
	}

	aiService, err := ai.NewService(ctx, chatModel, string(cfg.AI.Provider), logger)
	if err != nil {
		logger.Fatal("failed to initialize AI service", zap.Error(err))
	}
	logger.Info("AI service initialized",
		zap.String("provider", string(cfg.AI.Provider)),
		zap.String("model", cfg.AI.Model),
		zap.String("baseURL", cfg.AI.BaseURL),
	)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	codegenService := codegen.NewService(chat.NewService(), aiService,
		codegen.WithMetrics(m),
		codegen.WithLogger(logger),
		codegen.WithProvider(string(cfg.AI.Provider)),
	)
	languages := language.NewMemoryStore(language.Seed())

	router := handler.NewRouter(codegenService, languages, cfg.Language, m, logger)

	startServer(ctx, logger, cfg.Server, router)
}

func startServer(ctx context.Context, logger *zap.Logger, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("codegen chat backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
