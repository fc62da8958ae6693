package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// EchoModel is an offline chat model that replies with the prompt it received.
type EchoModel struct{}

var _ model.BaseChatModel = (*EchoModel)(nil)

func NewEchoModel() *EchoModel {
	return &EchoModel{}
}

func (m *EchoModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	parts := make([]string, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}
	return schema.AssistantMessage(strings.Join(parts, "\n"), nil), nil
}

func (m *EchoModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}
