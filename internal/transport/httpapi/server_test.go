package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/svim/internal/core"
	"github.com/sandevgo/svim/internal/service/agent"
)

type fakeRunner struct {
	result agent.Result
	err    error
	turns  chan agent.Turn
}

func (f *fakeRunner) Run(ctx context.Context, turn agent.Turn) (agent.Result, error) {
	f.turns <- turn
	return f.result, f.err
}

func newTestServer(t *testing.T, runner *fakeRunner) *httptest.Server {
	t.Helper()
	s := New(":0", runner, NewMetrics("svim"))
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(url+"/v1/reply", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestReply_OK(t *testing.T) {
	runner := &fakeRunner{
		turns: make(chan agent.Turn, 1),
		result: agent.Result{
			Reply:     "Temos horário às 15h!",
			ClientID:  "42",
			SessionID: "s1",
			Messages: []agent.TranscriptEntry{
				{Type: core.RoleTool, Content: `{"items":[]}`},
				{Type: core.RoleTool, Content: `{"error":"TOOL_LIMIT","message":"x"}`},
			},
		},
	}
	srv := newTestServer(t, runner)

	resp, body := post(t, srv.URL, `{"message":"quero cortar o cabelo","clienteId":"42","sessionId":"s1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got agent.Result
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "Temos horário às 15h!", got.Reply)
	assert.Equal(t, "42", got.ClientID)

	turn := <-runner.turns
	assert.Equal(t, "quero cortar o cabelo", turn.Message)
	assert.Equal(t, "s1", turn.SessionID)

	mresp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	metrics, _ := io.ReadAll(mresp.Body)
	assert.Contains(t, string(metrics), `svim_turns_total{outcome="ok"} 1`)
	assert.Contains(t, string(metrics), `svim_tool_results_total{kind="TOOL_LIMIT"} 1`)
}

func TestReply_Invalid(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{turns: make(chan agent.Turn, 1)})

	resp, body := post(t, srv.URL, `{"message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "invalid_request")

	resp, _ = post(t, srv.URL, `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = post(t, srv.URL, ``)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReply_RunnerError(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{turns: make(chan agent.Turn, 1), err: errors.New("boom")})

	resp, body := post(t, srv.URL, `{"message":"oi"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "turn_failed")
	assert.NotContains(t, body, "boom")
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
