package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/codegen-chat/backend/internal/config"
	"github.com/zhouzirui/codegen-chat/backend/internal/model/chat"
	chatService "github.com/zhouzirui/codegen-chat/backend/internal/service/chat"
	"github.com/zhouzirui/codegen-chat/backend/internal/service/codegen"
	"github.com/zhouzirui/codegen-chat/backend/pkg/utils"
)

// Handler exposes sessions and submissions over HTTP.
type Handler struct {
	codegen   *codegen.Service
	languages config.LanguageConfig
}

func New(svc *codegen.Service, languages config.LanguageConfig) *Handler {
	return &Handler{
		codegen:   svc,
		languages: languages,
	}
}

// RegisterRoutes mounts the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Route("/session/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Delete("/", h.handleEndSession)
		r.Post("/messages", h.handleSubmit)
	})
}

type sessionView struct {
	Session chat.Session `json:"session"`
	Turns   []chat.Turn  `json:"turns"`
}

type submitRequest struct {
	Request  string `json:"request"`
	Language string `json:"language"`
}

type submitResponse struct {
	SessionID string    `json:"sessionId"`
	User      chat.Turn `json:"user"`
	Assistant chat.Turn `json:"assistant"`
	Failed    bool      `json:"failed"`
	Error     string    `json:"error,omitempty"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.codegen.CreateSession(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.codegen.Session(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	turns, err := h.codegen.Transcript(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, sessionView{Session: session, Turns: turns})
}

func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.codegen.EndSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload submitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(payload.Request) == "" {
		utils.RespondError(w, http.StatusBadRequest, "request is required")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	language := h.languages.Resolve(payload.Language)

	exchange, err := h.codegen.Submit(r.Context(), sessionID, payload.Request, language)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := submitResponse{
		SessionID: sessionID,
		User:      exchange.User,
		Assistant: exchange.Assistant,
		Failed:    exchange.Result.Failed(),
	}
	if exchange.Result.Failed() {
		resp.Error = exchange.Result.Err.Error()
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}

func respondServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, chatService.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondError(w, http.StatusInternalServerError, err.Error())
}
