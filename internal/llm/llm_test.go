package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEchoModelRepliesWithPrompt(t *testing.T) {
	msg, err := NewEchoModel().Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("sys"),
		schema.UserMessage("question"),
	})
	require.NoError(t, err)

	assert.Equal(t, schema.Assistant, msg.Role)
	assert.Equal(t, "system: sys\nuser: question", msg.Content)
}

func TestOpenAIChatModelRequiresModel(t *testing.T) {
	_, err := NewOpenAIChatModel(OpenAIConfig{BaseURL: "http://localhost"})
	assert.Error(t, err)
}

func TestOpenAIChatModelGenerate(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		MaxTokens int `json:"max_tokens"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"print('hi')"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	maxTokens := 64
	m, err := NewOpenAIChatModel(OpenAIConfig{BaseURL: srv.URL + "/v1", APIKey: "local", Model: "llama3.2", MaxTokens: &maxTokens})
	require.NoError(t, err)

	msg, err := m.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("sys"),
		schema.UserMessage("write hi"),
	})
	require.NoError(t, err)

	assert.Equal(t, "print('hi')", msg.Content)
	assert.Equal(t, "llama3.2", got.Model)
	assert.Equal(t, 64, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "write hi", got.Messages[1].Content)
}

func TestOpenAIChatModelNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	m, err := NewOpenAIChatModel(OpenAIConfig{BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("x")})
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestOpenAIChatModelTimeout(t *testing.T) {
	unblock := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-unblock:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(unblock)

	m, err := NewOpenAIChatModel(OpenAIConfig{BaseURL: srv.URL, Model: "m", Timeout: 100 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("x")})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
