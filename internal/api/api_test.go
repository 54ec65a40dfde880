package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/supportflow-dev/supportflow/internal/engine"
	"github.com/supportflow-dev/supportflow/internal/ticket"
	"github.com/supportflow-dev/supportflow/pkg/session"
)

func newTestServer(t *testing.T, limiter *rate.Limiter) (*httptest.Server, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore(time.Hour)
	eng := engine.New(store, engine.Config{
		Ticket: ticket.Options{ProjectKey: "IT", IssueType: "Incident"},
	}, nil)
	srv := httptest.NewServer(New(eng, store, limiter, nil).Router())
	t.Cleanup(srv.Close)
	return srv, store
}

func postChat(t *testing.T, srv *httptest.Server, req ChatRequest) (*http.Response, *engine.Response) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}
	var out engine.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, &out
}

func TestChat_NewSession(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, out := postChat(t, srv, ChatRequest{Message: "my vpn is broken"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, out)
	assert.NotEmpty(t, out.SessionID)
	assert.Contains(t, out.Reply, "operating system")
}

func TestChat_ContinuesSession(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	_, first := postChat(t, srv, ChatRequest{Message: "my vpn is broken"})
	require.NotNil(t, first)

	resp, out := postChat(t, srv, ChatRequest{SessionID: first.SessionID, Message: "Windows"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, out)
	assert.Equal(t, first.SessionID, out.SessionID)
	assert.NotContains(t, out.Reply, "operating system")
}

func TestChat_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/chat", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postChat(t, srv, ChatRequest{Message: ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postChat(t, srv, ChatRequest{Message: strings.Repeat("a", maxMessageLen+1)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChat_StoreUnavailable(t *testing.T) {
	srv, store := newTestServer(t, nil)
	require.NoError(t, store.Close())

	resp, _ := postChat(t, srv, ChatRequest{SessionID: "some-id", Message: "hello"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestChat_RateLimited(t *testing.T) {
	srv, _ := newTestServer(t, rate.NewLimiter(rate.Limit(0.001), 1))

	resp, _ := postChat(t, srv, ChatRequest{Message: "hello"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = postChat(t, srv, ChatRequest{Message: "hello again"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestHistory(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	_, first := postChat(t, srv, ChatRequest{Message: "hello"})
	require.NotNil(t, first)

	resp, err := http.Get(fmt.Sprintf("%s/sessions/%s", srv.URL, first.SessionID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var hist HistoryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&hist))
	assert.Equal(t, first.SessionID, hist.SessionID)
	assert.Equal(t, 2, hist.MessageCount)
	require.Len(t, hist.Messages, 2)
	assert.Equal(t, session.SpeakerUser, hist.Messages[0].Speaker)
	assert.Equal(t, "hello", hist.Messages[0].Text)
}

func TestHistory_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/sessions/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDelete(t *testing.T) {
	srv, store := newTestServer(t, nil)

	_, first := postChat(t, srv, ChatRequest{Message: "hello"})
	require.NotNil(t, first)

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/sessions/%s", srv.URL, first.SessionID), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = store.Get(context.Background(), first.SessionID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestDelete_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/sessions/nope", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}
