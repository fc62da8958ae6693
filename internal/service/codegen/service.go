package codegen

import (
	"context"

	"go.uber.org/zap"

	"github.com/zhouzirui/codegen-chat/backend/internal/metrics"
	"github.com/zhouzirui/codegen-chat/backend/internal/model/chat"
	"github.com/zhouzirui/codegen-chat/backend/internal/service/ai"
	chatservice "github.com/zhouzirui/codegen-chat/backend/internal/service/chat"
	"github.com/zhouzirui/codegen-chat/backend/internal/service/prompt"
)

// Exchange is what one submission added to a transcript.
type Exchange struct {
	SessionID string
	User      chat.Turn
	Assistant chat.Turn
	Params    prompt.Params
	Result    ai.Result
}

// Service handles submissions for sessions held by the chat service.
type Service struct {
	chats     *chatservice.Service
	completer ai.Completer
	provider  string
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithMetrics records completions and turns on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithProvider labels metrics with the model provider.
func WithProvider(provider string) Option {
	return func(s *Service) { s.provider = provider }
}

func NewService(chats *chatservice.Service, completer ai.Completer, opts ...Option) *Service {
	s := &Service{
		chats:     chats,
		completer: completer,
		provider:  "unknown",
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("codegen")
	return s
}

// CreateSession starts a session with an empty transcript.
func (s *Service) CreateSession(ctx context.Context) (chat.Session, error) {
	session, err := s.chats.CreateSession(ctx)
	if err != nil {
		return chat.Session{}, err
	}
	s.metrics.SetActiveSessions(s.chats.SessionCount())
	s.log.Info("session created", zap.String("session", session.ID))
	return session, nil
}

// EndSession discards a session and its transcript.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	if err := s.chats.EndSession(ctx, sessionID); err != nil {
		return err
	}
	s.metrics.SetActiveSessions(s.chats.SessionCount())
	s.log.Info("session ended", zap.String("session", sessionID))
	return nil
}

// Submit appends the user turn, asks the model and appends its answer. The
// prompt context covers the turns that preceded this request. A failed model
// call still yields an assistant turn; the only error is an unknown session.
func (s *Service) Submit(ctx context.Context, sessionID, request, language string) (Exchange, error) {
	exchange := Exchange{SessionID: sessionID}

	err := s.chats.WithSubmission(ctx, sessionID, func(transcript *chatservice.Transcript) error {
		prior := transcript.All()
		exchange.User = transcript.Append(chat.RoleUser, request)
		s.metrics.ObserveTurn(string(chat.RoleUser))

		exchange.Params = prompt.Build(prior, request, language)
		exchange.Result = s.completer.Complete(ctx, exchange.Params)
		s.metrics.ObserveCompletion(s.provider, exchange.Result.Failed(), exchange.Result.Elapsed)

		exchange.Assistant = transcript.Append(chat.RoleAssistant, exchange.Result.Content())
		s.metrics.ObserveTurn(string(chat.RoleAssistant))
		return nil
	})
	if err != nil {
		return Exchange{}, err
	}

	fields := []zap.Field{
		zap.String("session", sessionID),
		zap.String("language", language),
		zap.Duration("elapsed", exchange.Result.Elapsed),
	}
	if exchange.Result.Failed() {
		s.log.Warn("submission answered with model error", append(fields, zap.Error(exchange.Result.Err))...)
	} else {
		s.log.Info("submission answered", fields...)
	}
	return exchange, nil
}

// Transcript returns the current turns of a session.
func (s *Service) Transcript(ctx context.Context, sessionID string) ([]chat.Turn, error) {
	return s.chats.LoadTranscript(ctx, sessionID)
}

// Session looks up a session.
func (s *Service) Session(ctx context.Context, sessionID string) (chat.Session, error) {
	return s.chats.GetSession(ctx, sessionID)
}
