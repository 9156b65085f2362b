package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-interview/backend/internal/logger"
	"github.com/zhouzirui/z-interview/backend/internal/model/interview"
	interviewService "github.com/zhouzirui/z-interview/backend/internal/service/interview"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second

	// maxMessageSize bounds one inbound frame. An answer is at most 1000
	// characters; the rest is room for a profile.
	maxMessageSize = 32 << 10
)

// Service is the part of the session registry driven over the socket.
type Service interface {
	GetSession(ctx context.Context, sessionID string) (interviewService.View, error)
	Start(ctx context.Context, sessionID string, profile interview.Profile) (interviewService.View, error)
	SubmitAnswer(ctx context.Context, sessionID, content string, onDelta interviewService.DeltaFunc) (interviewService.Turn, interviewService.View, error)
	RequestFeedback(ctx context.Context, sessionID string) (interview.Feedback, interviewService.View, error)
	Restart(ctx context.Context, sessionID string) (interviewService.View, error)
}

// Inbound message types.
const (
	TypeStart    = "start"
	TypeAnswer   = "answer"
	TypeFeedback = "feedback"
	TypeRestart  = "restart"
	TypeState    = "state"
)

// Outbound message types.
const (
	TypeDelta   = "delta"
	TypeMessage = "message"
	TypeError   = "error"
)

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// AnswerMessage carries one candidate answer.
type AnswerMessage struct {
	Content string `json:"content"`
}

// DeltaMessage carries one reply fragment.
type DeltaMessage struct {
	Content string `json:"content"`
}

// ErrorMessage reports a rejected command. The connection stays open.
type ErrorMessage struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Handler drives one interview session per connection. Commands are handled
// in arrival order on the read loop.
type Handler struct {
	sessions Service
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// New creates the websocket handler.
func New(sessions Service, log *zap.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		logger:   logger.OrNop(log),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the websocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/ws", h.handleWebSocket)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	view, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, interviewService.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("session", sessionID), zap.Error(err))
		return
	}
	defer conn.Close()

	log := h.logger.With(zap.String("session", sessionID))
	log.Info("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go h.pingLoop(ctx, conn)

	h.send(conn, sessionID, TypeState, view)

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read failed", zap.Error(err))
			}
			log.Info("websocket closed")
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			h.sendError(conn, sessionID, errors.New("session mismatch"))
			continue
		}

		h.handleMessage(ctx, conn, sessionID, &msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, sessionID string, msg *inboundMessage) {
	switch msg.Type {
	case TypeStart:
		var profile interview.Profile
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &profile); err != nil {
				h.sendError(conn, sessionID, errors.New("invalid profile payload"))
				return
			}
		}
		view, err := h.sessions.Start(ctx, sessionID, profile)
		h.reply(conn, sessionID, view, err)

	case TypeAnswer:
		var answer AnswerMessage
		if err := json.Unmarshal(msg.Data, &answer); err != nil {
			h.sendError(conn, sessionID, errors.New("invalid answer payload"))
			return
		}
		turn, view, err := h.sessions.SubmitAnswer(ctx, sessionID, answer.Content, func(delta string) {
			h.send(conn, sessionID, TypeDelta, DeltaMessage{Content: delta})
		})
		if err == nil && turn.Reply != nil {
			h.send(conn, sessionID, TypeMessage, turn.Reply)
		}
		h.reply(conn, sessionID, view, err)

	case TypeFeedback:
		fb, view, err := h.sessions.RequestFeedback(ctx, sessionID)
		if err == nil {
			h.send(conn, sessionID, TypeFeedback, fb)
		}
		h.reply(conn, sessionID, view, err)

	case TypeRestart:
		view, err := h.sessions.Restart(ctx, sessionID)
		h.reply(conn, sessionID, view, err)

	case TypeState:
		view, err := h.sessions.GetSession(ctx, sessionID)
		h.reply(conn, sessionID, view, err)

	default:
		h.sendError(conn, sessionID, errors.New("unknown message type: "+msg.Type))
	}
}

// reply sends the error, if any, followed by the current state. A missing
// session has no state to report.
func (h *Handler) reply(conn *websocket.Conn, sessionID string, view interviewService.View, err error) {
	if err != nil {
		h.sendError(conn, sessionID, err)
		if errors.Is(err, interviewService.ErrSessionNotFound) {
			return
		}
	}
	h.send(conn, sessionID, TypeState, view)
}

func (h *Handler) send(conn *websocket.Conn, sessionID, msgType string, data interface{}) {
	msg := outgoingMessage{
		Type:      msgType,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Debug("websocket write failed", zap.String("type", msgType), zap.Error(err))
	}
}

func (h *Handler) sendError(conn *websocket.Conn, sessionID string, err error) {
	h.send(conn, sessionID, TypeError, ErrorMessage{
		Message: err.Error(),
		Code:    interviewService.ErrorCode(err),
	})
}

// pingLoop keeps the connection alive. WriteControl is safe to call
// concurrently with the read loop's writes.
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
