package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/codegen-chat/backend/internal/config"
	"github.com/zhouzirui/codegen-chat/backend/internal/model/chat"
	"github.com/zhouzirui/codegen-chat/backend/internal/service/codegen"
)

const (
	defaultReadTimeout = 60 * time.Second
	writeTimeout       = 10 * time.Second
)

// Handler serves the interactive chat surface over a WebSocket.
type Handler struct {
	codegen      *codegen.Service
	languages    config.LanguageConfig
	upgrader     websocket.Upgrader
	log          *zap.Logger
	readTimeout  time.Duration
	pingInterval time.Duration
}

// Option customises a Handler.
type Option func(*Handler)

// WithReadTimeout sets how long a silent peer is kept; pings go out at 9/10 of it.
func WithReadTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.readTimeout = d
			h.pingInterval = d * 9 / 10
		}
	}
}

func New(svc *codegen.Service, languages config.LanguageConfig, log *zap.Logger, opts ...Option) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		codegen:      svc,
		languages:    languages,
		log:          log.Named("websocket"),
		readTimeout:  defaultReadTimeout,
		pingInterval: defaultReadTimeout * 9 / 10,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes mounts the socket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// SubmitMessage asks for code; an empty Language falls back to the connection's.
type SubmitMessage struct {
	Request  string `json:"request"`
	Language string `json:"language"`
}

// ConfigMessage changes the connection's language.
type ConfigMessage struct {
	Language *string `json:"language,omitempty"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type turnPayload struct {
	Turn   chat.Turn `json:"turn"`
	Failed bool      `json:"failed,omitempty"`
}

// connectionState belongs to the read loop; the submission goroutine only
// reads sessionID and clears busy.
type connectionState struct {
	sessionID string
	language  string
	busy      atomic.Bool
	inflight  sync.WaitGroup
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	turns, err := h.codegen.Transcript(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.log.Info("connection opened", zap.String("session", sessionID))

	ctx, cancel := context.WithCancel(r.Context())

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	})

	out := make(chan outgoingMessage, 8)
	go h.writeLoop(ctx, cancel, conn, out)

	state := &connectionState{sessionID: sessionID, language: h.languages.Default}
	defer func() {
		cancel()
		state.inflight.Wait()
	}()

	send(ctx, out, outgoingMessage{Type: "transcript", SessionID: sessionID, Data: turns})

	for {
		_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))

		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("read failed", zap.String("session", sessionID), zap.Error(err))
			}
			return
		}

		h.handleMessage(ctx, out, state, &msg)
	}
}

// handleMessage runs in the read loop. Submissions are handed to a goroutine
// so pongs keep being read while the model works; a connection still runs
// one submission at a time.
func (h *Handler) handleMessage(ctx context.Context, out chan<- outgoingMessage, state *connectionState, msg *inboundMessage) {
	switch msg.Type {
	case "submit":
		h.handleSubmit(ctx, out, state, msg.Data)
	case "config":
		h.handleConfig(ctx, out, state, msg.Data)
	default:
		sendError(ctx, out, "unsupported message type: "+msg.Type)
	}
}

func (h *Handler) handleSubmit(ctx context.Context, out chan<- outgoingMessage, state *connectionState, raw json.RawMessage) {
	var submit SubmitMessage
	if err := json.Unmarshal(raw, &submit); err != nil {
		sendError(ctx, out, "invalid submit payload")
		return
	}
	if strings.TrimSpace(submit.Request) == "" {
		sendError(ctx, out, "request is required")
		return
	}

	if !state.busy.CompareAndSwap(false, true) {
		sendError(ctx, out, "a submission is already in progress")
		return
	}

	language := state.language
	if submit.Language != "" {
		language = submit.Language
	}
	language = h.languages.Resolve(language)

	state.inflight.Add(1)
	go func() {
		defer state.inflight.Done()
		h.runSubmit(ctx, out, state, submit.Request, language)
	}()
}

func (h *Handler) runSubmit(ctx context.Context, out chan<- outgoingMessage, state *connectionState, request, language string) {
	sessionID := state.sessionID
	exchange, err := h.codegen.Submit(ctx, sessionID, request, language)
	// Both turns are in the transcript; a client answering the assistant turn must not be rejected.
	state.busy.Store(false)
	if err != nil {
		sendError(ctx, out, err.Error())
		return
	}

	send(ctx, out, outgoingMessage{Type: "turn", SessionID: sessionID, Data: turnPayload{Turn: exchange.User}})
	send(ctx, out, outgoingMessage{
		Type:      "turn",
		SessionID: sessionID,
		Data:      turnPayload{Turn: exchange.Assistant, Failed: exchange.Result.Failed()},
	})
}

func (h *Handler) handleConfig(ctx context.Context, out chan<- outgoingMessage, state *connectionState, raw json.RawMessage) {
	var cfg ConfigMessage
	if err := json.Unmarshal(raw, &cfg); err != nil {
		sendError(ctx, out, "invalid config payload")
		return
	}

	applyConfig(state, cfg)
	h.log.Debug("config applied", zap.String("session", state.sessionID), zap.String("language", state.language))

	send(ctx, out, outgoingMessage{
		Type:      "config",
		SessionID: state.sessionID,
		Data:      map[string]any{"language": state.language},
	})
}

func applyConfig(state *connectionState, cfg ConfigMessage) {
	if cfg.Language != nil {
		state.language = *cfg.Language
	}
}

// writeLoop owns all writes on conn, including keepalive pings. A failed write
// closes the connection so the read loop unblocks.
func (h *Handler) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, out <-chan outgoingMessage) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	defer func() {
		cancel()
		_ = conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Warn("write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func send(ctx context.Context, out chan<- outgoingMessage, msg outgoingMessage) {
	msg.Timestamp = time.Now().Unix()
	select {
	case out <- msg:
	case <-ctx.Done():
	}
}

func sendError(ctx context.Context, out chan<- outgoingMessage, message string) {
	send(ctx, out, outgoingMessage{Type: "error", Data: map[string]string{"message": message}})
}
