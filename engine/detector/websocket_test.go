package detector

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func websocketURL(serverURL string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http")
}

func startWebSocket(t *testing.T) (*WebSocket, string) {
	t.Helper()
	w := NewWebSocket()
	srv := httptest.NewServer(w)
	t.Cleanup(func() {
		w.Close()
		srv.Close()
	})
	return w, websocketURL(srv.URL)
}

func TestWebSocketReceivesFrames(t *testing.T) {
	w, url := startWebSocket(t)
	ready := w.Init(context.Background(), Config{FollowZRot: true})

	pub, err := DialPublisher(context.Background(), url)
	require.NoError(t, err)
	defer pub.Close()

	for i := 1; i <= 3; i++ {
		require.NoError(t, pub.Publish(Frame{Detected: true, Resolution: 2, Buffer: make([]byte, 16), Rx: float32(i), Rz: 0.5}))
	}
	assert.Equal(t, 2, waitReady(t, ready).Resolution)

	var last Frame
	require.Eventually(t, func() bool {
		f, ok := w.Poll()
		if ok {
			last = f
		}
		return last.Rx == 3
	}, 5*time.Second, 5*time.Millisecond)
	assert.True(t, last.Detected)
	assert.Equal(t, float32(0.5), last.Rz)

	_, ok := w.Poll()
	assert.False(t, ok, "mailbox drained")
}

func TestWebSocketSkipsMalformedMessages(t *testing.T) {
	w, url := startWebSocket(t)
	ready := w.Init(context.Background(), Config{})

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("FDF1 too short")))

	select {
	case <-ready.Done():
		t.Fatal("ready resolved without a valid frame")
	case <-time.After(50 * time.Millisecond):
	}

	data, err := EncodeFrame(Frame{Resolution: 1, Buffer: make([]byte, 4)})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, data))
	assert.Equal(t, 1, waitReady(t, ready).Resolution)
}

func TestWebSocketCloseResolvesPendingInit(t *testing.T) {
	w, _ := startWebSocket(t)
	ready := w.Init(context.Background(), Config{})
	require.NoError(t, w.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := ready.Wait(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestWebSocketInitHonorsContext(t *testing.T) {
	w, _ := startWebSocket(t)
	ctx, cancel := context.WithCancel(context.Background())
	ready := w.Init(ctx, Config{})
	cancel()

	wait, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_, err := ready.Wait(wait)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDialPublisherFails(t *testing.T) {
	_, err := DialPublisher(context.Background(), "ws://127.0.0.1:1/none")
	assert.Error(t, err)
}
