package bindings

import (
	"testing"
	"time"

	"github.com/czx-lab/mojo/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectorDeliversInOrder(t *testing.T) {
	a, b := system.CreateMessagePipe(nil)
	defer b.Close()

	rec := &recorder{}
	c := NewConnector(a)
	c.SetIncomingMessageReceiver(rec)
	c.Start()
	defer c.Close()

	for i := 0; i < 5; i++ {
		msg := NewMessageWithHeader(MessageHeader{Ordinal: uint32(i)}, nil, nil).Message()
		require.NoError(t, b.WriteMessage(msg.Data, nil))
	}

	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.msgs) == 5
	}, time.Second, 5*time.Millisecond)

	for i, m := range rec.msgs {
		mh, err := m.AsMessageWithHeader()
		require.NoError(t, err)
		assert.Equal(t, uint32(i), mh.Header().Ordinal)
	}
}

func TestConnectorPeerClosed(t *testing.T) {
	a, b := system.CreateMessagePipe(nil)

	errs := make(chan error, 1)
	c := NewConnector(a)
	c.SetIncomingMessageReceiver(&recorder{})
	c.SetErrorHandler(func(err error) { errs <- err })
	c.Start()

	require.NoError(t, b.Close())

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, system.ErrFailedPrecondition)
	case <-time.After(time.Second):
		t.Fatal("error handler not called")
	}
	<-c.Done()
	assert.True(t, c.Closed())
	assert.ErrorIs(t, c.Write(NewMessage([]byte{0}, nil)), system.ErrClosed)
}

func TestConnectorLocalCloseSkipsErrorHandler(t *testing.T) {
	a, b := system.CreateMessagePipe(nil)
	defer b.Close()

	called := make(chan struct{}, 1)
	c := NewConnector(a)
	c.SetErrorHandler(func(error) { called <- struct{}{} })
	c.Start()

	c.Close()
	<-c.Done()

	select {
	case <-called:
		t.Fatal("error handler called after local close")
	default:
	}
	assert.False(t, c.Accept(NewMessage([]byte{0}, nil)))
}
