// Package stream maintains one Server-Sent Events connection and turns it
// into an ordered channel of state changes, decoded events and decode
// failures.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	sse "github.com/tmaxmax/go-sse"

	"github.com/arbhalerao/sse-demo/internal/logging"
	"github.com/arbhalerao/sse-demo/internal/model"
)

type UpdateKind int

const (
	UpdateState UpdateKind = iota
	UpdateEvent
	UpdateDecodeError
)

// Update is one emission of the client. Kind selects which of the other
// fields is meaningful.
type Update struct {
	Kind  UpdateKind
	State model.ConnectionState
	Event model.Event
	Raw   string
	Err   error
}

var (
	ErrUnexpectedStatus = errors.New("stream: unexpected response status")
	ErrNotEventStream   = errors.New("stream: response is not an event stream")
)

const (
	defaultRetryInterval = 3 * time.Second
	defaultMaxFrameBytes = 64 << 10
	updateBuffer         = 64
	logPreviewBytes      = 256
)

type Options struct {
	URL           string
	HTTPClient    *http.Client
	RetryInterval time.Duration
	MaxFrameBytes int
	Logger        *slog.Logger
}

type Client struct {
	url           string
	httpClient    *http.Client
	logger        *slog.Logger
	retry         time.Duration
	maxFrameBytes int

	updates chan Update
	done    chan struct{}
	state   atomic.Int32

	startOnce sync.Once
	closeOnce sync.Once
	cancel    context.CancelFunc

	// Owned by the run goroutine; go-sse invokes every hook on it.
	attempt     int
	connID      string
	lastEmitted model.ConnectionState
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	retry := opts.RetryInterval
	if retry <= 0 {
		retry = defaultRetryInterval
	}
	maxFrame := opts.MaxFrameBytes
	if maxFrame <= 0 {
		maxFrame = defaultMaxFrameBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		url:           opts.URL,
		httpClient:    httpClient,
		logger:        logger,
		retry:         retry,
		maxFrameBytes: maxFrame,
		updates:       make(chan Update, updateBuffer),
		done:          make(chan struct{}),
		lastEmitted:   model.StateConnecting,
	}
}

// Open starts connecting in the background. Only the first call has any
// effect, and none after Close.
func (c *Client) Open(ctx context.Context) {
	c.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		c.cancel = cancel
		c.logger.Info("event stream connecting", "url", c.url)
		go c.run(runCtx)
	})
}

// Updates is closed once the connection has been released.
func (c *Client) Updates() <-chan Update {
	return c.updates
}

func (c *Client) State() model.ConnectionState {
	return model.ConnectionState(c.state.Load())
}

// Close releases the connection exactly once, whatever state it is in, and
// returns after the background goroutine has exited. It is safe to call
// before Open and more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.startOnce.Do(func() {
			c.state.Store(int32(model.StateClosed))
			close(c.updates)
			close(c.done)
		})
		if c.cancel != nil {
			c.cancel()
		}
		<-c.done
		c.logger.Info("event stream released", "url", c.url)
	})
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	defer close(c.updates)
	defer c.state.Store(int32(model.StateClosed))

	transport := &sse.Client{
		HTTPClient:        c.instrumentedHTTPClient(ctx),
		OnRetry:           func(err error, wait time.Duration) { c.fault(ctx, err, wait) },
		ResponseValidator: func(resp *http.Response) error { return c.validate(ctx, resp) },
		Backoff: sse.Backoff{
			InitialInterval: c.retry,
			Multiplier:      1,
			Jitter:          -1,
		},
	}

	// go-sse retries every temporary fault itself; this loop only covers a
	// Connect that gave up, so the policy stays unlimited attempts.
	for {
		err := c.connect(ctx, transport)
		if ctx.Err() != nil {
			return
		}
		c.fault(ctx, err, c.retry)
		timer := time.NewTimer(c.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (c *Client) connect(ctx context.Context, transport *sse.Client) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return fmt.Errorf("stream: build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	conn := transport.NewConnection(req)
	conn.SubscribeToAll(func(evt sse.Event) { c.dispatch(ctx, evt) })
	return conn.Connect()
}

// instrumentedHTTPClient copies the configured client so that every
// handshake after the first reports Connecting before it is sent.
func (c *Client) instrumentedHTTPClient(ctx context.Context) *http.Client {
	base := c.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc := *c.httpClient
	hc.Transport = roundTripFunc(func(req *http.Request) (*http.Response, error) {
		c.attempt++
		if c.attempt > 1 {
			c.setState(ctx, model.StateConnecting)
		}
		return base.RoundTrip(req)
	})
	return &hc
}

func (c *Client) validate(ctx context.Context, resp *http.Response) error {
	if resp.StatusCode != http.StatusOK {
		return temporary{fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)}
	}
	contentType := resp.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err != nil || mediaType != "text/event-stream" {
		return temporary{fmt.Errorf("%w: %q", ErrNotEventStream, contentType)}
	}
	c.connID = uuid.NewString()
	c.logger.Info("event stream open", "url", c.url, "conn", c.connID, "attempt", c.attempt)
	c.setState(ctx, model.StateOpen)
	return nil
}

func (c *Client) fault(ctx context.Context, err error, wait time.Duration) {
	if ctx.Err() != nil {
		return
	}
	c.logger.Warn("event stream fault", "url", c.url, "attempt", c.attempt, "err", err, "retry_in", wait)
	c.setState(ctx, model.StateClosed)
}

func (c *Client) dispatch(ctx context.Context, evt sse.Event) {
	if evt.Type != "" && evt.Type != "message" {
		c.logger.Debug("skipping named event", "conn", c.connID, "event", evt.Type)
		return
	}
	if len(evt.Data) > c.maxFrameBytes {
		c.decodeFailed(ctx, evt.Data, ErrFrameTooLarge)
		return
	}
	decoded, err := DecodeEvent([]byte(evt.Data))
	if err != nil {
		c.decodeFailed(ctx, evt.Data, err)
		return
	}
	c.emit(ctx, Update{Kind: UpdateEvent, Event: decoded})
}

func (c *Client) decodeFailed(ctx context.Context, raw string, err error) {
	c.logger.Warn("dropping undecodable frame", "conn", c.connID, "err", err, "raw", preview(raw))
	c.emit(ctx, Update{Kind: UpdateDecodeError, Raw: raw, Err: err})
}

func (c *Client) setState(ctx context.Context, state model.ConnectionState) {
	if state == c.lastEmitted {
		return
	}
	c.lastEmitted = state
	c.state.Store(int32(state))
	c.emit(ctx, Update{Kind: UpdateState, State: state})
}

func (c *Client) emit(ctx context.Context, update Update) {
	select {
	case c.updates <- update:
	case <-ctx.Done():
	}
}

// temporary marks a handshake rejection as retryable for go-sse.
type temporary struct {
	error
}

func (t temporary) Temporary() bool { return true }

func (t temporary) Unwrap() error { return t.error }

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func preview(raw string) string {
	if len(raw) <= logPreviewBytes {
		return raw
	}
	return raw[:logPreviewBytes] + "..."
}
