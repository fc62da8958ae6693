package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
)

var (
	ErrNoChoices = errors.New("no completion choices returned")
)

// OpenAIConfig targets any server speaking the OpenAI chat completions API.
// A zero Timeout leaves requests bounded only by their context.
type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature *float32
	TopP        *float32
	MaxTokens   *int
	Timeout     time.Duration
}

// OpenAIChatModel adapts a go-openai client to the eino chat model interface.
type OpenAIChatModel struct {
	client *openai.Client
	cfg    OpenAIConfig
}

var _ model.BaseChatModel = (*OpenAIChatModel)(nil)

func NewOpenAIChatModel(cfg OpenAIConfig) (*OpenAIChatModel, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai-compatible model name is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAIChatModel{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}, nil
}

func (m *OpenAIChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	req := openai.ChatCompletionRequest{
		Model:    m.cfg.Model,
		Messages: toOpenAIMessages(input),
	}
	if m.cfg.Temperature != nil {
		req.Temperature = *m.cfg.Temperature
	}
	if m.cfg.TopP != nil {
		req.TopP = *m.cfg.TopP
	}
	if m.cfg.MaxTokens != nil {
		req.MaxTokens = *m.cfg.MaxTokens
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	return schema.AssistantMessage(resp.Choices[0].Message.Content, nil), nil
}

// Stream delivers the whole completion as a single chunk.
func (m *OpenAIChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func toOpenAIMessages(input []*schema.Message) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}

		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case schema.System:
			role = openai.ChatMessageRoleSystem
		case schema.Assistant:
			role = openai.ChatMessageRoleAssistant
		}

		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	return messages
}
