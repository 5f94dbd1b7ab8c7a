package ws

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/czx-lab/mojo/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeOverWebsocket(t *testing.T) {
	received := make(chan []byte, 1)
	h := NewHandler(&ServerConf{}, func(p system.MessagePipe) {
		go func() {
			if err := p.Wait(context.Background()); err != nil {
				return
			}
			res, _ := p.ReadMessage(nil, nil)
			data, handles := make([]byte, res.NumBytes), make([]system.Handle, res.NumHandles)
			if _, err := p.ReadMessage(data, handles); err == nil {
				received <- data
				p.WriteMessage(append(data, '!'), handles)
			}
		}()
	})
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.WriteMessage([]byte("ping"), []system.Handle{system.Token(1)}))
	select {
	case got := <-received:
		assert.Equal(t, []byte("ping"), got)
	case <-ctx.Done():
		t.Fatal("server did not receive the message")
	}

	require.NoError(t, client.Wait(ctx))
	res, err := client.ReadMessage(nil, nil)
	require.ErrorIs(t, err, system.ErrResourceExhausted)
	assert.Equal(t, system.ReadResult{NumBytes: 5, NumHandles: 1}, res)

	h.Close()
	for {
		if err := client.Wait(ctx); err != nil {
			assert.ErrorIs(t, err, system.ErrFailedPrecondition)
			break
		}
		data, handles := make([]byte, 16), make([]system.Handle, 1)
		_, err := client.ReadMessage(data, handles)
		require.NoError(t, err)
	}
}

func echo(p system.MessagePipe) {
	for {
		if err := p.Wait(context.Background()); err != nil {
			return
		}
		res, err := p.ReadMessage(nil, nil)
		if errors.Is(err, system.ErrResourceExhausted) {
			data, handles := make([]byte, res.NumBytes), make([]system.Handle, res.NumHandles)
			if _, err := p.ReadMessage(data, handles); err != nil {
				return
			}
			p.WriteMessage(data, handles)
		}
	}
}

func roundTrip(t *testing.T, p system.MessagePipe, s string) {
	t.Helper()

	require.NoError(t, p.WriteMessage([]byte(s), nil))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Wait(ctx))

	res, err := p.ReadMessage(nil, nil)
	require.ErrorIs(t, err, system.ErrResourceExhausted)
	data := make([]byte, res.NumBytes)
	_, err = p.ReadMessage(data, nil)
	require.NoError(t, err)
	assert.Equal(t, s, string(data))
}

func TestPipeOutlivesHTTPTimeouts(t *testing.T) {
	h := NewHandler(&ServerConf{}, func(p system.MessagePipe) { go echo(p) })
	srv := httptest.NewUnstartedServer(h)
	srv.Config.ReadTimeout = 200 * time.Millisecond
	srv.Config.WriteTimeout = 200 * time.Millisecond
	srv.Start()
	defer srv.Close()
	defer h.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	roundTrip(t, client, "before")
	time.Sleep(500 * time.Millisecond)
	roundTrip(t, client, "after")
}

func TestServerWithTimeout(t *testing.T) {
	srv := NewServer(&ServerConf{Addr: "127.0.0.1:0", Path: "/mojo", Timeout: 1}, func(p system.MessagePipe) {
		go echo(p)
	})
	require.NoError(t, srv.Start())
	defer srv.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Dial(ctx, "ws://"+srv.Addr().String()+"/mojo", nil)
	require.NoError(t, err)
	defer client.Close()

	roundTrip(t, client, "one")
	time.Sleep(1200 * time.Millisecond)
	roundTrip(t, client, "two")
}

func TestHandlerRejectsPost(t *testing.T) {
	srv := httptest.NewServer(NewHandler(&ServerConf{}, func(system.MessagePipe) {}))
	defer srv.Close()

	resp, err := srv.Client().Post(srv.URL, "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 405, resp.StatusCode)
}
