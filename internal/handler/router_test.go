package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-interview/backend/internal/model/interview"
	"github.com/zhouzirui/z-interview/backend/internal/service/ai"
	"github.com/zhouzirui/z-interview/backend/internal/service/feedback"
	interviewService "github.com/zhouzirui/z-interview/backend/internal/service/interview"
	"github.com/zhouzirui/z-interview/backend/internal/testutil"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	fake := &testutil.FakeChatModel{DefaultReply: "ok"}
	client := ai.NewServiceWithModel(fake, "gpt-4o", "gpt-3.5-turbo", nil)
	evaluator, err := feedback.NewService(context.Background(), client, nil)
	require.NoError(t, err)

	sessions := interviewService.NewService(client, evaluator, nil)
	return NewRouter(interview.NewMemoryStore(interview.Seed()), sessions, []string{"*"}, nil)
}

func TestRouterServesAPI(t *testing.T) {
	r := newTestRouter(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/options", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, resp.Code)
	var view interviewService.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/sessions/"+view.ID+"/start", strings.NewReader(`{"name":"Ada"}`)))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/sessions/"+view.ID, nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"sessions":1`)
}

func TestRouterWebSocketRouteNeedsUpgrade(t *testing.T) {
	r := newTestRouter(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	var view interviewService.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))

	// A plain GET reaches the websocket handler, which refuses the non-upgrade request.
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/sessions/"+view.ID+"/ws", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
