package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/zhouzirui/codegen-chat/backend/internal/model/chat"
	"github.com/zhouzirui/codegen-chat/backend/internal/model/language"
	"github.com/zhouzirui/codegen-chat/backend/internal/service/codegen"
)

const maxLineBytes = 1 << 20

const helpText = `commands:
  :lang <name>   change the target language (":lang" alone shows it)
  :languages     list suggested languages
  :history       print the transcript
  :help          show this help
  :quit          exit
anything else is sent as a request`

// repl binds one in-process session to a line-oriented terminal.
type repl struct {
	svc       *codegen.Service
	languages language.Store
	sessionID string
	language  string
}

func newREPL(ctx context.Context, svc *codegen.Service, languages language.Store, lang string) (*repl, error) {
	session, err := svc.CreateSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &repl{
		svc:       svc,
		languages: languages,
		sessionID: session.ID,
		language:  lang,
	}, nil
}

func (r *repl) close(ctx context.Context) {
	_ = r.svc.EndSession(ctx, r.sessionID)
}

// run reads requests until EOF, :quit or ctx cancellation. Input is read on
// its own goroutine so cancellation does not wait for the next line.
func (r *repl) run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go scanLines(ctx, in, lines, readErr)

	for {
		fmt.Fprint(out, "> ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case err := <-readErr:
			fmt.Fprintln(out)
			return err
		case line = <-lines:
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			quit, err := r.command(ctx, line, out)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
			continue
		}

		exchange, err := r.svc.Submit(ctx, r.sessionID, line, r.language)
		if err != nil {
			return err
		}
		printTurn(out, exchange.Assistant)
	}
}

// scanLines feeds lines until EOF, then reports the scanner error (nil at EOF).
func scanLines(ctx context.Context, in io.Reader, lines chan<- string, readErr chan<- error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
	readErr <- scanner.Err()
}

func (r *repl) command(ctx context.Context, line string, out io.Writer) (bool, error) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ":quit", ":exit", ":q":
		return true, nil
	case ":help":
		fmt.Fprintln(out, helpText)
	case ":lang":
		if arg == "" {
			fmt.Fprintf(out, "language: %q\n", r.language)
			return false, nil
		}
		r.language = arg
		if known, ok := r.languages.FindByID(arg); ok && known.Name != arg {
			fmt.Fprintf(out, "language set to %q (catalog: %s)\n", arg, known.Name)
		} else {
			fmt.Fprintf(out, "language set to %q\n", arg)
		}
	case ":languages":
		printLanguages(out, r.languages)
	case ":history":
		turns, err := r.svc.Transcript(ctx, r.sessionID)
		if err != nil {
			return false, err
		}
		if len(turns) == 0 {
			fmt.Fprintln(out, "(empty transcript)")
		}
		for _, turn := range turns {
			printTurn(out, turn)
		}
	default:
		fmt.Fprintf(out, "unknown command %s, try :help\n", name)
	}
	return false, nil
}

func printTurn(out io.Writer, turn chat.Turn) {
	label := "You"
	if turn.Role == chat.RoleAssistant {
		label = "Assistant"
	}
	fmt.Fprintf(out, "[%s %s]\n%s\n\n", label, turn.Timestamp.Local().Format("15:04:05"), turn.Content)
}

func printLanguages(out io.Writer, store language.Store) {
	for _, item := range store.List() {
		line := fmt.Sprintf("%-12s %s", item.ID, item.Name)
		if len(item.Aliases) > 0 {
			line += " (" + strings.Join(item.Aliases, ", ") + ")"
		}
		fmt.Fprintln(out, line)
	}
}
