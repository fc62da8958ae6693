package prompt

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/codegen-chat/backend/internal/model/chat"
)

func turns(pairs ...string) []chat.Turn {
	out := make([]chat.Turn, 0, len(pairs))
	for i, content := range pairs {
		role := chat.RoleUser
		if i%2 == 1 {
			role = chat.RoleAssistant
		}
		out = append(out, chat.Turn{Role: role, Content: content})
	}
	return out
}

func TestRenderContextEmpty(t *testing.T) {
	assert.Equal(t, "", RenderContext(nil))
	assert.Equal(t, "", RenderContext([]chat.Turn{}))
}

func TestRenderContextOneLinePerTurn(t *testing.T) {
	got := RenderContext(turns("hello", "hi there", "more"))

	assert.Equal(t, "Previous conversation:\nUser: hello\nAssistant: hi there\nUser: more\n", got)
}

func TestBuildEmptyTranscript(t *testing.T) {
	params := Build(nil, "write a function that reverses a string", "Python")

	assert.Equal(t, "\nCurrent question: write a function that reverses a string", params.Request)
	assert.Equal(t, "Python", params.Language)
}

func TestBuildAfterOneExchange(t *testing.T) {
	params := Build(turns("hello", "hi there"), "and now?", "Go")

	assert.Equal(t, "Previous conversation:\nUser: hello\nAssistant: hi there\n\nCurrent question: and now?", params.Request)
}

func TestBuildLeavesLanguageUntouched(t *testing.T) {
	for _, language := range []string{"", "  python ", "not-a-language", "C++"} {
		params := Build(turns("a", "b"), "req", language)
		assert.Equal(t, language, params.Language)
		assert.True(t, strings.HasSuffix(params.Request, "Current question: req"))
	}
}

func TestTemplateFormatsTwoMessages(t *testing.T) {
	params := Build(turns("hello", "hi there"), "and now?", "Rust")

	messages, err := Template().Format(context.Background(), params.Variables())
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, schema.System, messages[0].Role)
	assert.Equal(t, SystemDirective, messages[0].Content)
	assert.Equal(t, schema.User, messages[1].Role)
	assert.Equal(t, "Generate the code for: "+params.Request+" in the Rust", messages[1].Content)
}
