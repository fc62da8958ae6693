package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zhouzirui/codegen-chat/backend/internal/llm"
	"github.com/zhouzirui/codegen-chat/backend/internal/model/chat"
	"github.com/zhouzirui/codegen-chat/backend/internal/model/language"
	"github.com/zhouzirui/codegen-chat/backend/internal/service/ai"
	chatservice "github.com/zhouzirui/codegen-chat/backend/internal/service/chat"
	"github.com/zhouzirui/codegen-chat/backend/internal/service/codegen"
)

func newTestREPL(t *testing.T, lang string) (*repl, *codegen.Service) {
	t.Helper()
	ctx := context.Background()

	aiService, err := ai.NewService(ctx, llm.NewEchoModel(), "echo", zap.NewNop())
	require.NoError(t, err)
	svc := codegen.NewService(chatservice.NewService(), aiService)

	r, err := newREPL(ctx, svc, language.NewMemoryStore(language.Seed()), lang)
	require.NoError(t, err)
	return r, svc
}

func TestREPLSubmitsRequestsWithLanguage(t *testing.T) {
	r, svc := newTestREPL(t, "Python")
	var out bytes.Buffer

	err := r.run(context.Background(), strings.NewReader("reverse a string\n:lang Go\nsum a slice\n:quit\n"), &out)
	require.NoError(t, err)

	turns, err := svc.Transcript(context.Background(), r.sessionID)
	require.NoError(t, err)
	require.Len(t, turns, 4)
	assert.Equal(t, chat.RoleUser, turns[0].Role)
	assert.Equal(t, "reverse a string", turns[0].Content)
	assert.Contains(t, turns[1].Content, "in the Python")
	assert.Equal(t, "sum a slice", turns[2].Content)
	assert.Contains(t, turns[3].Content, "in the Go")
	assert.Contains(t, turns[3].Content, "Previous conversation:\nUser: reverse a string\n")

	assert.Contains(t, out.String(), `language set to "Go"`)
	assert.Contains(t, out.String(), "[Assistant ")
}

func TestREPLSkipsBlankLinesAndStopsAtEOF(t *testing.T) {
	r, svc := newTestREPL(t, "")
	var out bytes.Buffer

	require.NoError(t, r.run(context.Background(), strings.NewReader("\n   \n"), &out))

	turns, err := svc.Transcript(context.Background(), r.sessionID)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestREPLHistoryAndLanguageCommands(t *testing.T) {
	r, _ := newTestREPL(t, "")
	var out bytes.Buffer

	input := ":history\n:lang\n:lang golang\n:languages\nhello\n:history\n:bogus\n"
	require.NoError(t, r.run(context.Background(), strings.NewReader(input), &out))

	text := out.String()
	assert.Contains(t, text, "(empty transcript)")
	assert.Contains(t, text, `language: ""`)
	assert.Contains(t, text, `language set to "golang" (catalog: Go)`)
	assert.Contains(t, text, "python       Python (py, python3)")
	assert.Contains(t, text, "[You ")
	assert.Contains(t, text, "unknown command :bogus")
	assert.Equal(t, "golang", r.language)
}

func TestREPLCloseEndsSession(t *testing.T) {
	r, svc := newTestREPL(t, "")

	r.close(context.Background())

	_, err := svc.Session(context.Background(), r.sessionID)
	assert.ErrorIs(t, err, chatservice.ErrSessionNotFound)
}

func TestLanguagesCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"languages"})

	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "python"))
	assert.Contains(t, out.String(), "rust         Rust (rs)")
}

func TestRootCommandRunsEchoProvider(t *testing.T) {
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("CODEGEN_DEFAULT_LANGUAGE", "")

	cmd := newRootCmd()
	var out, diag bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&diag)
	cmd.SetIn(strings.NewReader("print hello\n:quit\n"))
	cmd.SetArgs([]string{"--provider", "echo", "--language", "Rust", "--log-level", "debug"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), `language "Rust"`)
	assert.Contains(t, out.String(), "Generate the code for: \nCurrent question: print hello in the Rust")

	assert.Contains(t, diag.String(), "submission answered")
	assert.NotContains(t, out.String(), "submission answered")
}

func TestREPLReturnsOnCancelWhileWaitingForInput(t *testing.T) {
	r, _ := newTestREPL(t, "")
	in, writer := io.Pipe()
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- r.run(ctx, in, io.Discard)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
}
