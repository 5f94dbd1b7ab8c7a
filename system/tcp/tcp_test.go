package tcp

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/czx-lab/mojo/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageParser(t *testing.T) {
	for _, lt := range []LenType{LenType8, LenType16, LenType32} {
		p := NewParser(&MessageParserConf{MsgLengthType: lt, LittleEndian: lt == LenType16})

		var buf bytes.Buffer
		require.NoError(t, p.Write(&buf, []byte("frame")))
		assert.Equal(t, int(lt)+5, buf.Len())

		got, err := p.Read(&buf)
		require.NoError(t, err)
		assert.Equal(t, []byte("frame"), got)
	}

	t.Run("Limits", func(t *testing.T) {
		p := NewParser(&MessageParserConf{MsgLengthType: LenType8, MsgMaxSize: 1000})
		assert.ErrorIs(t, p.Write(&bytes.Buffer{}, make([]byte, 300)), ErrMessageTooLong)
		assert.ErrorIs(t, p.Write(&bytes.Buffer{}, []byte{1}), ErrMessageTooShort)

		_, err := p.Read(bytes.NewReader([]byte{2, 0, 0}))
		assert.ErrorIs(t, err, ErrMessageTooShort)
	})
}

// readOne waits for a message and reads it with exactly sized buffers.
func readOne(t *testing.T, p system.MessagePipe) ([]byte, []system.Handle) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Wait(ctx))

	res, err := p.ReadMessage(nil, nil)
	if err == nil {
		return nil, nil
	}
	require.ErrorIs(t, err, system.ErrResourceExhausted)
	data, handles := make([]byte, res.NumBytes), make([]system.Handle, res.NumHandles)
	_, err = p.ReadMessage(data, handles)
	require.NoError(t, err)
	return data, handles
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

func TestPipeOverConn(t *testing.T) {
	c1, c2 := net.Pipe()
	a, b := NewPipe(c1, nil), NewPipe(c2, nil)
	defer b.Close()

	require.NoError(t, a.WriteMessage([]byte("hello"), []system.Handle{system.Token(3)}))
	data, handles := readOne(t, b)
	assert.Equal(t, []byte("hello"), data)
	assert.Equal(t, []system.Handle{system.Token(3)}, handles)

	a.Close()
	assert.ErrorIs(t, a.WriteMessage(nil, nil), system.ErrClosed)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.ErrorIs(t, b.Wait(ctx), system.ErrFailedPrecondition)
}

func TestServer(t *testing.T) {
	srv := NewServer(&ServerConf{Addr: "127.0.0.1:0", MaxConn: 2}, func(p system.MessagePipe) {
		go echo(p)
	})
	require.NoError(t, srv.Start())
	defer srv.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Dial(ctx, srv.Addr().String(), nil)
	require.NoError(t, err)
	defer client.Close()

	for _, s := range []string{"one", "two"} {
		require.NoError(t, client.WriteMessage([]byte(s), nil))
		data, _ := readOne(t, client)
		assert.Equal(t, s, string(data))
	}
}

func TestServerStop(t *testing.T) {
	srv := NewServer(&ServerConf{Addr: "127.0.0.1:0"}, func(p system.MessagePipe) {})
	require.NoError(t, srv.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Dial(ctx, srv.Addr().String(), nil)
	require.NoError(t, err)
	defer client.Close()

	srv.Stop()
	assert.ErrorIs(t, client.Wait(ctx), system.ErrFailedPrecondition)
	assert.ErrorIs(t, srv.Start(), ErrServerStopped)
}
