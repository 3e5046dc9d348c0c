package detector

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket is a Detector fed by a remote tracker that pushes binary frames (see EncodeFrame) over a
// websocket connection. Frames arrive on the connection goroutine and reach the frame loop through a
// one-slot mailbox: only the newest unpolled frame is kept.
type WebSocket struct {
	base

	upgrader  websocket.Upgrader
	readLimit int64

	connMu sync.Mutex
	conns  map[*websocket.Conn]struct{}

	firstOnce  sync.Once
	first      chan struct{}
	stop       chan struct{}
	resolution int
}

var _ Detector = &WebSocket{}
var _ http.Handler = &WebSocket{}

// NewWebSocket creates a WebSocket detector. Mount it on an HTTP server to accept tracker connections.
//
// Parameters:
//   - opts: WithReadLimit, WithLogger, WithWorkers
//
// Returns:
//   - *WebSocket: the new detector
func NewWebSocket(opts ...DetectorBuilderOption) *WebSocket {
	o := newOptions(opts)
	return &WebSocket{
		base: newBase("websocket", o),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1 << 16,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		readLimit: o.readLimit,
		conns:     make(map[*websocket.Conn]struct{}),
		first:     make(chan struct{}),
		stop:      make(chan struct{}),
	}
}

// Init resolves once the first valid frame has been received.
func (w *WebSocket) Init(ctx context.Context, cfg Config) *Ready {
	return w.init(ctx, cfg, func(ctx context.Context) (BufferInfo, error) {
		select {
		case <-w.first:
			w.mu.Lock()
			defer w.mu.Unlock()
			if w.closed {
				return BufferInfo{}, ErrClosed
			}
			return BufferInfo{Resolution: w.resolution}, nil
		case <-w.stop:
			return BufferInfo{}, ErrClosed
		case <-ctx.Done():
			return BufferInfo{}, fmt.Errorf("detector: waiting for first frame: %w", ctx.Err())
		}
	})
}

// ServeHTTP upgrades a tracker connection and reads frames until it closes.
func (w *WebSocket) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		http.Error(rw, "detector closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	if w.readLimit > 0 {
		conn.SetReadLimit(w.readLimit)
	}

	w.connMu.Lock()
	w.conns[conn] = struct{}{}
	w.connMu.Unlock()
	defer func() {
		w.connMu.Lock()
		delete(w.conns, conn)
		w.connMu.Unlock()
		conn.Close()
	}()

	w.logger.Info("tracker connected", "remote", r.RemoteAddr)
	for {
		kind, payload, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.logger.Debug("tracker read ended", "remote", r.RemoteAddr, "error", err)
			}
			w.logger.Info("tracker disconnected", "remote", r.RemoteAddr)
			return
		}
		if kind != websocket.BinaryMessage {
			w.logger.Debug("discarding non-binary message", "remote", r.RemoteAddr)
			continue
		}

		f, err := DecodeFrame(payload)
		if err != nil {
			w.logger.Warn("discarding malformed frame", "remote", r.RemoteAddr, "error", err)
			continue
		}
		w.firstOnce.Do(func() {
			w.mu.Lock()
			w.resolution = f.Resolution
			w.mu.Unlock()
			close(w.first)
		})
		w.offer(f)
	}
}

// Poll returns the newest frame received since the previous Poll.
func (w *WebSocket) Poll() (Frame, bool) {
	if !w.isReady() {
		return Frame{}, false
	}
	return w.take()
}

// Close drops every tracker connection and rejects new ones.
func (w *WebSocket) Close() error {
	if !w.close() {
		return nil
	}
	close(w.stop)
	w.connMu.Lock()
	defer w.connMu.Unlock()
	for conn := range w.conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "detector closed"),
			time.Now().Add(time.Second))
		conn.Close()
	}
	return nil
}

// Publisher is the tracker side of a WebSocket detector: it dials the detector endpoint and pushes frames.
type Publisher struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

// DialPublisher connects to a WebSocket detector endpoint.
//
// Parameters:
//   - ctx: bounds the handshake
//   - url: the ws:// or wss:// endpoint
//   - opts: WithWriteTimeout
//
// Returns:
//   - *Publisher: the connected publisher
//   - error: an error if the handshake fails
func DialPublisher(ctx context.Context, url string, opts ...DetectorBuilderOption) (*Publisher, error) {
	o := newOptions(opts)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("detector: dial %s: %w", url, err)
	}
	return &Publisher{conn: conn, writeTimeout: o.writeTimeout}, nil
}

// Publish encodes f and sends it as one binary message.
//
// Parameters:
//   - f: the frame to send
//
// Returns:
//   - error: an encoding or write error
func (p *Publisher) Publish(f Frame) error {
	data, err := EncodeFrame(f)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeTimeout > 0 {
		_ = p.conn.SetWriteDeadline(time.Now().Add(p.writeTimeout))
	}
	if err := p.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("detector: publish frame: %w", err)
	}
	return nil
}

// Close sends a normal closure and closes the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return p.conn.Close()
}
