package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/codegen-chat/backend/internal/config"
	logpkg "github.com/zhouzirui/codegen-chat/backend/internal/log"
	"github.com/zhouzirui/codegen-chat/backend/internal/model/language"
	"github.com/zhouzirui/codegen-chat/backend/internal/service/ai"
	"github.com/zhouzirui/codegen-chat/backend/internal/service/chat"
	"github.com/zhouzirui/codegen-chat/backend/internal/service/codegen"
)

type options struct {
	language string
	provider string
	model    string
	logLevel string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		// a second interrupt kills the process
		<-ctx.Done()
		stop()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "chatcli",
		Short:        "Interactive code generation chat against the configured model",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, opts)
		},
	}

	flags := root.Flags()
	flags.StringVarP(&opts.language, "language", "l", "", "target programming language (defaults to CODEGEN_DEFAULT_LANGUAGE)")
	flags.StringVar(&opts.provider, "provider", "", "model provider: ollama, ark, openai or echo (defaults to AI_PROVIDER)")
	flags.StringVarP(&opts.model, "model", "m", "", "model identifier (defaults to the provider's env setting)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level for diagnostics written to stderr")

	root.AddCommand(newLanguagesCmd())
	return root
}

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the suggested target languages",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printLanguages(cmd.OutOrStdout(), language.NewMemoryStore(language.Seed()))
		},
	}
}

func runChat(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if opts.provider != "" {
		if cfg.AI, err = config.LoadAIConfig(config.Provider(opts.provider)); err != nil {
			return err
		}
	}
	if opts.model != "" {
		cfg.AI.Model = opts.model
	}

	logger, err := logpkg.New(logpkg.Opts{Level: opts.logLevel, Development: true, Output: cmd.ErrOrStderr()})
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		return fmt.Errorf("create chat model: %w", err)
	}
	aiService, err := ai.NewService(ctx, chatModel, string(cfg.AI.Provider), logger)
	if err != nil {
		return fmt.Errorf("initialize AI service: %w", err)
	}

	svc := codegen.NewService(chat.NewService(), aiService,
		codegen.WithLogger(logger),
		codegen.WithProvider(string(cfg.AI.Provider)),
	)

	lang := cfg.Language.Resolve(opts.language)

	r, err := newREPL(ctx, svc, language.NewMemoryStore(language.Seed()), lang)
	if err != nil {
		return err
	}
	defer r.close(context.Background())

	logger.Debug("chat session started",
		zap.String("provider", string(cfg.AI.Provider)),
		zap.String("model", cfg.AI.Model),
		zap.String("session", r.sessionID),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "model %s via %s; language %q. Type :help for commands.\n",
		cfg.AI.Model, cfg.AI.Provider, lang)

	return r.run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}
