package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-interview/backend/internal/logger"
	"github.com/zhouzirui/z-interview/backend/internal/model/interview"
	interviewService "github.com/zhouzirui/z-interview/backend/internal/service/interview"
	"github.com/zhouzirui/z-interview/backend/pkg/utils"
)

// Service is the part of the session registry the HTTP layer drives.
type Service interface {
	CreateSession(ctx context.Context) (interviewService.View, error)
	GetSession(ctx context.Context, sessionID string) (interviewService.View, error)
	Start(ctx context.Context, sessionID string, profile interview.Profile) (interviewService.View, error)
	SubmitAnswer(ctx context.Context, sessionID, content string, onDelta interviewService.DeltaFunc) (interviewService.Turn, interviewService.View, error)
	RequestFeedback(ctx context.Context, sessionID string) (interview.Feedback, interviewService.View, error)
	Restart(ctx context.Context, sessionID string) (interviewService.View, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// AnswerRequest is the body of POST /sessions/{sessionID}/answers.
type AnswerRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// FeedbackResponse is the body returned by the feedback endpoint.
type FeedbackResponse struct {
	Feedback interview.Feedback    `json:"feedback"`
	Session  interviewService.View `json:"session"`
}

// StreamEvent is the data of the start, delta and end events.
type StreamEvent struct {
	SessionID string `json:"sessionId"`
	Turn      int    `json:"turn,omitempty"`
	Content   string `json:"content,omitempty"`
	Final     bool   `json:"final,omitempty"`
}

// Handler exposes interview sessions over REST and Server-Sent Events.
type Handler struct {
	sessions Service
	validate *validator.Validate
	logger   *zap.Logger
}

// New creates the session handler.
func New(sessions Service, log *zap.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		validate: validator.New(),
		logger:   logger.OrNop(log),
	}
}

// RegisterRoutes registers the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Delete("/", h.handleDeleteSession)
		r.Post("/start", h.handleStart)
		r.Post("/answers", h.handleAnswer)
		r.Post("/feedback", h.handleFeedback)
		r.Post("/restart", h.handleRestart)
	})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.CreateSession(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	_ = utils.RespondJSON(w, http.StatusCreated, view)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	_ = utils.RespondJSON(w, http.StatusOK, view)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStart accepts a profile; an empty body starts with the defaults.
func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var profile interview.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil && !errors.Is(err, io.EOF) {
		_ = utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.sessions.Start(r.Context(), chi.URLParam(r, "sessionID"), profile)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	_ = utils.RespondJSON(w, http.StatusOK, view)
}

// handleAnswer runs one turn and streams the reply as Server-Sent Events:
// start, delta*, message, state, end. Errors raised before the first event
// are answered with a JSON body instead.
func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validateAnswer(&req); err != nil {
		h.respondServiceError(w, err)
		return
	}

	if _, ok := w.(http.Flusher); !ok {
		_ = utils.RespondError(w, http.StatusInternalServerError, utils.ErrStreamingUnsupported.Error())
		return
	}

	// The event-stream headers are set on the first event only, so errors
	// raised before it go out as plain JSON.
	var sse *utils.SSEWriter
	begin := func() {
		if sse != nil {
			return
		}
		sse, _ = utils.NewSSEWriter(w)
		h.writeEvent(sse, "start", StreamEvent{SessionID: sessionID})
	}

	turn, view, err := h.sessions.SubmitAnswer(r.Context(), sessionID, req.Content, func(delta string) {
		begin()
		h.writeEvent(sse, "delta", StreamEvent{SessionID: sessionID, Content: delta})
	})
	if err != nil {
		if sse == nil {
			h.respondServiceError(w, err)
			return
		}
		h.logger.Warn("answer stream aborted", zap.String("session", sessionID), zap.Error(err))
		if writeErr := sse.WriteError(err.Error()); writeErr != nil {
			h.logger.Debug("write sse error failed", zap.Error(writeErr))
		}
		h.writeEvent(sse, "state", view)
		return
	}

	begin()
	if turn.Reply != nil {
		h.writeEvent(sse, "message", turn.Reply)
	}
	h.writeEvent(sse, "state", view)
	h.writeEvent(sse, "end", StreamEvent{SessionID: sessionID, Turn: turn.Number, Final: turn.Final})
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	fb, view, err := h.sessions.RequestFeedback(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	_ = utils.RespondJSON(w, http.StatusOK, FeedbackResponse{Feedback: fb, Session: view})
}

func (h *Handler) handleRestart(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.Restart(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	_ = utils.RespondJSON(w, http.StatusOK, view)
}

// validateAnswer maps validator failures onto the interview errors so the
// HTTP status matches what the session itself would report.
func (h *Handler) validateAnswer(req *AnswerRequest) error {
	req.Content = strings.TrimSpace(req.Content)
	err := h.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if fe.Tag() == "max" {
				return interviewService.ErrInputTooLong
			}
		}
	}
	return interviewService.ErrEmptyInput
}

func (h *Handler) writeEvent(sse *utils.SSEWriter, event string, data interface{}) {
	if err := sse.WriteEvent(event, data); err != nil {
		h.logger.Debug("write sse event failed", zap.String("event", event), zap.Error(err))
	}
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	_ = utils.RespondJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  interviewService.ErrorCode(err),
	})
}

// StatusFor maps interview errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, interviewService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, interviewService.ErrEmptyInput), errors.Is(err, interviewService.ErrInvalidProfile):
		return http.StatusBadRequest
	case errors.Is(err, interviewService.ErrInputTooLong):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, interviewService.ErrNotInterviewing), errors.Is(err, interviewService.ErrFeedbackUnavailable):
		return http.StatusConflict
	case errors.Is(err, interviewService.ErrExternalService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
