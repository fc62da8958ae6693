package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/zhouzirui/codegen-chat/backend/internal/service/prompt"
)

// ErrEmptyResponse is returned when the model answers with no message.
var ErrEmptyResponse = errors.New("model returned no message")

// Completer turns rendered params into a model reply.
type Completer interface {
	Complete(ctx context.Context, params prompt.Params) Result
}

// Result is the outcome of one completion: either Text or Err is meaningful.
type Result struct {
	Text    string
	Err     error
	Elapsed time.Duration
}

// Failed reports whether the model call failed.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Content is the text shown to the user for this result.
func (r Result) Content() string {
	if r.Err != nil {
		return ErrorContent(r.Err)
	}
	return r.Text
}

// ErrorContent renders a failed model call as transcript text.
func ErrorContent(err error) string {
	return fmt.Sprintf("Error calling model: %v", err)
}

// Service runs the code generation template against a chat model.
type Service struct {
	chatModel model.BaseChatModel
	provider  string
	template  einoprompt.ChatTemplate
	log       *zap.Logger
}

// NewService pairs the code generation template with chatModel.
func NewService(_ context.Context, chatModel model.BaseChatModel, provider string, log *zap.Logger) (*Service, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		chatModel: chatModel,
		provider:  provider,
		template:  prompt.Template(),
		log:       log.Named("ai"),
	}, nil
}

// Provider names the backend this service talks to.
func (s *Service) Provider() string {
	return s.provider
}

// Complete blocks until the model answers or fails. Failures are returned in
// the Result, never as a panic or a separate error. Result.Err is the model's
// own error so the transcript shows its message verbatim.
func (s *Service) Complete(ctx context.Context, params prompt.Params) Result {
	start := time.Now()

	response, err := s.generate(ctx, params)

	result := Result{Elapsed: time.Since(start)}
	if err != nil {
		result.Err = err
		s.log.Warn("model call failed",
			zap.String("provider", s.provider),
			zap.Duration("elapsed", result.Elapsed),
			zap.Error(err),
		)
		return result
	}

	result.Text = response.Content
	s.log.Debug("model call completed",
		zap.String("provider", s.provider),
		zap.Duration("elapsed", result.Elapsed),
		zap.Int("length", len(response.Content)),
	)
	return result
}

func (s *Service) generate(ctx context.Context, params prompt.Params) (*schema.Message, error) {
	messages, err := s.template.Format(ctx, params.Variables())
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	response, err := s.chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, ErrEmptyResponse
	}
	return response, nil
}
