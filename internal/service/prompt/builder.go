package prompt

import (
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/codegen-chat/backend/internal/model/chat"
)

const (
	SystemDirective = "You are a code generator using programming skills."
	HumanDirective  = "Generate the code for: {request} in the {language}"

	contextHeader    = "Previous conversation:\n"
	questionMarker   = "\nCurrent question: "
	requestVariable  = "request"
	languageVariable = "language"
)

// Params are the two template slots for one submission.
type Params struct {
	Request  string `json:"request"`
	Language string `json:"language"`
}

// Variables maps the params onto the template variables.
func (p Params) Variables() map[string]any {
	return map[string]any{
		requestVariable:  p.Request,
		languageVariable: p.Language,
	}
}

// RenderContext flattens prior turns into the text block prefixed to a request.
func RenderContext(turns []chat.Turn) string {
	if len(turns) == 0 {
		return ""
	}

	var builder strings.Builder
	builder.WriteString(contextHeader)
	for _, turn := range turns {
		builder.WriteString(speaker(turn.Role))
		builder.WriteString(": ")
		builder.WriteString(turn.Content)
		builder.WriteString("\n")
	}
	return builder.String()
}

// Build renders the params for request given the turns that precede it.
// language is passed through untouched.
func Build(turns []chat.Turn, request, language string) Params {
	return Params{
		Request:  RenderContext(turns) + questionMarker + request,
		Language: language,
	}
}

// Template is the fixed system + human chat template.
func Template() *prompt.DefaultChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(SystemDirective),
		schema.UserMessage(HumanDirective),
	)
}

func speaker(role chat.Role) string {
	if role == chat.RoleUser {
		return "User"
	}
	return "Assistant"
}
