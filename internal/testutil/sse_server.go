package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// SSEServer is an in-process event stream endpoint whose frames and
// disconnects are driven by the test.
type SSEServer struct {
	*httptest.Server

	mu        sync.Mutex
	conns     map[int]*sseConn
	nextID    int
	status    int
	closed    bool
	headers   []http.Header
	connected chan struct{}
}

type sseConn struct {
	frames chan string
	kick   chan struct{}
}

func NewSSEServer() *SSEServer {
	s := &SSEServer{
		conns:     make(map[int]*sseConn),
		status:    http.StatusOK,
		connected: make(chan struct{}, 64),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// EventsURL is the stream endpoint; any path on the server is accepted.
func (s *SSEServer) EventsURL() string {
	return s.Server.URL + "/events"
}

// SetStatus makes later handshakes answer with code instead of a stream.
func (s *SSEServer) SetStatus(code int) {
	s.mu.Lock()
	s.status = code
	s.mu.Unlock()
}

// Send writes payload as a single data frame to every open connection.
func (s *SSEServer) Send(payload string) {
	s.SendRaw(fmt.Sprintf("data: %s\n\n", payload))
}

// SendRaw writes text verbatim to every open connection.
func (s *SSEServer) SendRaw(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		conn.frames <- text
	}
}

// DropAll ends every open response, which the client sees as the server
// closing the stream.
func (s *SSEServer) DropAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, conn := range s.conns {
		close(conn.kick)
		delete(s.conns, id)
	}
}

func (s *SSEServer) OpenConns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// RequestHeaders returns the headers of every handshake seen so far.
func (s *SSEServer) RequestHeaders() []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]http.Header(nil), s.headers...)
}

// WaitConnected blocks until a new stream connection has been accepted.
func (s *SSEServer) WaitConnected(t testing.TB, timeout time.Duration) {
	t.Helper()
	select {
	case <-s.connected:
	case <-time.After(timeout):
		t.Fatalf("no stream connection within %s", timeout)
	}
}

// Close ends open streams and refuses new ones before shutting the server
// down, so a reconnecting client cannot hold Close up.
func (s *SSEServer) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.DropAll()
	s.Server.CloseClientConnections()
	s.Server.Close()
}

func (s *SSEServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.headers = append(s.headers, r.Header.Clone())
	status := s.status
	if s.closed {
		status = http.StatusServiceUnavailable
	}
	s.mu.Unlock()

	if status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	conn := &sseConn{frames: make(chan string, 256), kick: make(chan struct{})}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	id := s.nextID
	s.nextID++
	s.conns[id] = conn
	s.mu.Unlock()

	select {
	case s.connected <- struct{}{}:
	default:
	}

	defer func() {
		s.mu.Lock()
		delete(s.conns, id)
		s.mu.Unlock()
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-conn.kick:
			s.drain(w, conn)
			flusher.Flush()
			return
		case text := <-conn.frames:
			_, _ = fmt.Fprint(w, text)
			flusher.Flush()
		}
	}
}

// drain writes frames queued before the kick so a test's Send always
// lands ahead of its DropAll.
func (s *SSEServer) drain(w http.ResponseWriter, conn *sseConn) {
	for {
		select {
		case text := <-conn.frames:
			_, _ = fmt.Fprint(w, text)
		default:
			return
		}
	}
}
