package core

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"gochat/internal/metrics"
	"gochat/internal/transport"
	"gochat/util"
)

// syncBuffer is a bytes.Buffer safe for one writer and one poller.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// startRelay serves a WebSocket endpoint; every frame received is
// pushed to the returned channel and echoed back.
func startRelay(t *testing.T) (string, <-chan string) {
	t.Helper()
	frames := make(chan string, 32)
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			frames <- string(data)
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), frames
}

func newLineMode(addr string, stdin io.Reader, stdout io.Writer) *LineMode {
	return &LineMode{
		Dialer:       &transport.TCPDialer{Timeout: 2 * time.Second},
		Address:      addr,
		Timeout:      2 * time.Second,
		DrainTimeout: 2 * time.Second,
		Logger:       util.NewLogger(0),
		Metrics:      metrics.New(),
		Stdin:        stdin,
		Stdout:       stdout,
	}
}

func waitForOutput(t *testing.T, out *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("output %q never contained %q", out.String(), want)
}

// TestLineMode_PipedInputIsSent verifies that lines read before the
// socket opens are held and sent once it does, and that Run returns
// at EOF.
func TestLineMode_PipedInputIsSent(t *testing.T) {
	addr, frames := startRelay(t)
	out := &syncBuffer{}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mode := newLineMode(addr, strings.NewReader("hello\nworld\n"), out)
	if err := mode.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, want := range []string{`{"Text":"hello"}`, `{"Text":"world"}`} {
		select {
		case got := <-frames:
			if got != want {
				t.Errorf("frame = %q, want %q", got, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("relay never received %s", want)
		}
	}
	if !strings.HasPrefix(out.String(), "Connected\n") {
		t.Errorf("output = %q, want Connected first", out.String())
	}
	if n := mode.Metrics.MessagesSent(); n != 2 {
		t.Errorf("messages sent = %d, want 2", n)
	}
}

// TestLineMode_PrintsInbound verifies the interactive flow: a line is
// sent, the relay echoes it and the echo is printed.
func TestLineMode_PrintsInbound(t *testing.T) {
	addr, _ := startRelay(t)
	out := &syncBuffer{}
	pr, pw := io.Pipe()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- newLineMode(addr, pr, out).Run(ctx) }()

	waitForOutput(t, out, "Connected\n")
	io.WriteString(pw, "ping\n") //nolint:errcheck
	waitForOutput(t, out, "Connected\nping\n")

	pw.Close()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return at EOF")
	}
}

// TestLineMode_ConnectFailure verifies that a refused dial prints the
// disconnect and fails the run.
func TestLineMode_ConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	out := &syncBuffer{}
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := newLineMode(addr, pr, out).Run(ctx)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "connect to") {
		t.Errorf("err = %v", err)
	}
	if out.String() != "Disconnected\n" {
		t.Errorf("output = %q, want %q", out.String(), "Disconnected\n")
	}
}

// TestLineMode_BadAddress verifies that an unusable address fails
// before anything is printed.
func TestLineMode_BadAddress(t *testing.T) {
	out := &syncBuffer{}
	err := newLineMode("http://relay", strings.NewReader(""), out).Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if out.String() != "" {
		t.Errorf("output = %q, want empty", out.String())
	}
}

// TestLineMode_PeerClose verifies Run returns cleanly when the relay
// closes the connection.
func TestLineMode_PeerClose(t *testing.T) {
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"Text":"bye"}`)) //nolint:errcheck
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)) //nolint:errcheck
		conn.ReadMessage()                                                          //nolint:errcheck
	}))
	defer srv.Close()

	out := &syncBuffer{}
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := newLineMode("ws"+strings.TrimPrefix(srv.URL, "http"), pr, out).Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := out.String(), "Connected\nbye\nDisconnected\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestLineMode_ContextCancel verifies that cancelling ctx stops Run.
func TestLineMode_ContextCancel(t *testing.T) {
	addr, _ := startRelay(t)
	out := &syncBuffer{}
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- newLineMode(addr, pr, out).Run(ctx) }()

	waitForOutput(t, out, "Connected\n")
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
