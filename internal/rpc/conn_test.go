package rpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"
)

// echoServer accepts one websocket and echoes every frame back.
func echoServer(t *testing.T) (url string, shutdown func()) {
	t.Helper()
	// httptest.Server.Close does not touch hijacked connections, so
	// track accepted websockets and close them explicitly on shutdown.
	var mu sync.Mutex
	var accepted []*websocket.Conn
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		accepted = append(accepted, ws)
		mu.Unlock()
		defer ws.CloseNow()
		ctx := r.Context()
		for {
			typ, data, err := ws.Read(ctx)
			if err != nil {
				return
			}
			if err := ws.Write(ctx, typ, data); err != nil {
				return
			}
		}
	}))
	return "ws" + strings.TrimPrefix(srv.URL, "http"), func() {
		srv.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, ws := range accepted {
			ws.CloseNow()
		}
	}
}

func TestConnectOpensAndEchoes(t *testing.T) {
	url, shutdown := echoServer(t)
	defer shutdown()

	opened := make(chan struct{}, 1)
	messages := make(chan []byte, 1)
	conn := NewConn(url, Callbacks{
		OnOpen:    func() { opened <- struct{}{} },
		OnMessage: func(raw []byte) { messages <- raw },
	})
	defer conn.Close()

	conn.Connect(context.Background())

	select {
	case <-opened:
	case <-time.After(2 * time.Second):
		t.Fatal("opened event never fired")
	}
	require.Equal(t, StateOpen, conn.State())

	require.NoError(t, conn.Send([]byte(`{"command":"start_server"}`)))
	select {
	case raw := <-messages:
		require.JSONEq(t, `{"command":"start_server"}`, string(raw))
	case <-time.After(2 * time.Second):
		t.Fatal("message event never fired")
	}
}

func TestConnectUnreachableFailsSilently(t *testing.T) {
	closed := make(chan error, 1)
	conn := NewConn("ws://127.0.0.1:1", Callbacks{
		OnClose: func(err error) { closed <- err },
	})

	// No error surfaces to the caller; the failure becomes a close event.
	conn.Connect(context.Background())

	select {
	case err := <-closed:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("close event never fired")
	}
	require.Equal(t, StateClosed, conn.State())
	require.ErrorIs(t, conn.Send([]byte(`{}`)), ErrNotOpen)
}

func TestReentrantConnectIsNoOp(t *testing.T) {
	url, shutdown := echoServer(t)
	defer shutdown()

	opened := make(chan struct{}, 2)
	conn := NewConn(url, Callbacks{
		OnOpen: func() { opened <- struct{}{} },
	})
	defer conn.Close()

	conn.Connect(context.Background())
	<-opened

	// A second connect while open must not create another handle.
	conn.Connect(context.Background())
	select {
	case <-opened:
		t.Fatal("re-entrant connect opened a second socket")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestServerCloseEmitsCloseEvent(t *testing.T) {
	url, shutdown := echoServer(t)

	opened := make(chan struct{}, 1)
	closed := make(chan error, 1)
	conn := NewConn(url, Callbacks{
		OnOpen:  func() { opened <- struct{}{} },
		OnClose: func(err error) { closed <- err },
	})
	defer conn.Close()

	conn.Connect(context.Background())
	<-opened

	shutdown()

	select {
	case err := <-closed:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("close event never fired")
	}
	require.Equal(t, StateClosed, conn.State())
}

func TestCloseDoesNotEmitCloseEvent(t *testing.T) {
	url, shutdown := echoServer(t)
	defer shutdown()

	opened := make(chan struct{}, 1)
	closed := make(chan error, 1)
	conn := NewConn(url, Callbacks{
		OnOpen:  func() { opened <- struct{}{} },
		OnClose: func(err error) { closed <- err },
	})

	conn.Connect(context.Background())
	<-opened

	// Shutdown via Close is deliberate: no reconnect trigger.
	conn.Close()
	select {
	case <-closed:
		t.Fatal("deliberate close emitted a close event")
	case <-time.After(200 * time.Millisecond):
	}
	require.Equal(t, StateClosed, conn.State())
}
