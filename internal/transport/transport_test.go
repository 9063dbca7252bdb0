package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"gochat/tunnel"
	"gochat/util"
)

// TestTCPDialer_Connect verifies that TCPDialer can reach a local
// TCP server and exchange data.
func TestTCPDialer_Connect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	// Server: accept, send greeting, close.
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("hello from server\n")) //nolint:errcheck
	}()

	d := &TCPDialer{Timeout: 2 * time.Second}
	ctx := context.Background()

	conn, err := d.Dial(ctx, "tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		t.Fatalf("read: %v", err)
	}
	if got := string(buf[:n]); got != "hello from server\n" {
		t.Errorf("got %q, want %q", got, "hello from server\n")
	}
}

// TestTCPDialer_ContextCancel verifies that a cancelled context stops the dial.
func TestTCPDialer_ContextCancel(t *testing.T) {
	d := &TCPDialer{Timeout: 5 * time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	_, err := d.Dial(ctx, "tcp", "127.0.0.1:1")
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		s        Status
		want     string
		terminal bool
	}{
		{StatusOpened, "opened", false},
		{StatusClosed, "closed", true},
		{StatusErrored, "errored", true},
		{Status(42), "unknown", false},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		if got := tt.s.Terminal(); got != tt.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tt.want, got, tt.terminal)
		}
	}
}

// fakeTunnel records calls and dials a fixed local address instead of
// forwarding through SSH.
type fakeTunnel struct {
	connects   int
	closes     int
	alive      bool
	connectErr error
	target     string
}

func (f *fakeTunnel) Connect(ctx context.Context) error {
	f.connects++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.alive = true
	return nil
}

func (f *fakeTunnel) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, network, f.target)
}

func (f *fakeTunnel) Close() error {
	f.closes++
	f.alive = false
	return nil
}

func (f *fakeTunnel) IsAlive() bool { return f.alive }

var _ tunnel.Tunnel = (*fakeTunnel)(nil)

func TestSSHDialer_ConnectsOnce(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	ft := &fakeTunnel{target: ln.Addr().String()}
	d := newSSHDialer(ft, &tunnel.SSHConfig{User: "u", Host: "gw", Port: 22}, util.NewLogger(0))

	if err := d.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	for i := 0; i < 2; i++ {
		conn, err := d.Dial(context.Background(), "tcp", "relay:8081")
		if err != nil {
			t.Fatalf("Dial: %v", err)
		}
		conn.Close()
	}
	if ft.connects != 1 {
		t.Errorf("connects = %d, want 1", ft.connects)
	}

	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if ft.closes != 1 {
		t.Errorf("closes = %d, want 1", ft.closes)
	}
}

func TestSSHDialer_ConnectError(t *testing.T) {
	boom := errors.New("handshake refused")
	ft := &fakeTunnel{connectErr: boom}
	d := newSSHDialer(ft, &tunnel.SSHConfig{Host: "gw", Port: 22}, util.NewLogger(0))

	_, err := d.Dial(context.Background(), "tcp", "relay:8081")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapping %v", err, boom)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close after failed connect: %v", err)
	}
	if ft.closes != 0 {
		t.Errorf("closes = %d, want 0", ft.closes)
	}
}
