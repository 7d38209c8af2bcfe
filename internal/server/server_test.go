package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

func startServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	hub := NewHub(HubOptions{HeartbeatInterval: time.Hour, ClientBuffer: 8})
	srv := httptest.NewServer(New(hub, nil).Handler())
	t.Cleanup(func() {
		srv.CloseClientConnections()
		srv.Close()
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = hub.Run(ctx)
	}()
	return srv, hub
}

type streamReader struct {
	resp  *http.Response
	lines chan string
}

func openStream(t *testing.T, srv *httptest.Server) *streamReader {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + "/events")
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sr := &streamReader{resp: resp, lines: make(chan string, 64)}
	go func() {
		defer close(sr.lines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			sr.lines <- scanner.Text()
		}
	}()
	return sr
}

func (sr *streamReader) next(t *testing.T) Event {
	t.Helper()
	for {
		select {
		case line, ok := <-sr.lines:
			require.True(t, ok, "stream ended")
			payload, found := strings.CutPrefix(line, "data: ")
			if !found {
				continue
			}
			var evt Event
			require.NoError(t, json.Unmarshal([]byte(payload), &evt))
			return evt
		case <-time.After(waitTimeout):
			t.Fatal("no event within timeout")
			return Event{}
		}
	}
}

func postTrigger(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := srv.Client().Post(srv.URL+"/trigger", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestStreamStartsWithWelcome(t *testing.T) {
	srv, _ := startServer(t)
	stream := openStream(t, srv)

	evt := stream.next(t)
	assert.Equal(t, "welcome", evt.Type)
	assert.Equal(t, "Connected to SSE server", evt.Message)
	_, err := time.Parse(time.RFC3339, evt.Timestamp)
	assert.NoError(t, err)
}

func TestTriggerBroadcastsToEveryStream(t *testing.T) {
	srv, _ := startServer(t)
	first := openStream(t, srv)
	second := openStream(t, srv)
	first.next(t)
	second.next(t)

	resp := postTrigger(t, srv, `{"action":"ping"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ack map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
	assert.Equal(t, "ok", ack["status"])

	for _, sr := range []*streamReader{first, second} {
		evt := sr.next(t)
		assert.Equal(t, "ping", evt.Type)
		assert.Equal(t, "Ping received from client", evt.Message)
		assert.Equal(t, map[string]any{"action": "ping"}, evt.Data)
	}
}

func TestTriggerDefaultsToPing(t *testing.T) {
	srv, _ := startServer(t)
	stream := openStream(t, srv)
	stream.next(t)

	resp := postTrigger(t, srv, `{"source":"test"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ping", stream.next(t).Type)
}

func TestTriggerEchoesCustomAction(t *testing.T) {
	srv, _ := startServer(t)
	stream := openStream(t, srv)
	stream.next(t)

	resp := postTrigger(t, srv, `{"action":"deploy"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	evt := stream.next(t)
	assert.Equal(t, "deploy", evt.Type)
	assert.Equal(t, "Deploy received from client", evt.Message)
	assert.Equal(t, map[string]any{"action": "deploy"}, evt.Data)
}

func TestTriggerRejectsInvalidJSON(t *testing.T) {
	srv, _ := startServer(t)
	resp := postTrigger(t, srv, `{not json`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invalid JSON", body["error"])
}

func TestHealthReportsClients(t *testing.T) {
	srv, _ := startServer(t)
	openStream(t, srv).next(t)

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(1), body["clients"])
}

func TestPreflightAllowsAnyOrigin(t *testing.T) {
	srv, _ := startServer(t)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/trigger", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestActionMessage(t *testing.T) {
	assert.Equal(t, "Ping received from client", actionMessage("ping"))
	assert.Equal(t, "Émoji received from client", actionMessage("émoji"))
	assert.Equal(t, "Action received from client", actionMessage(""))
}
