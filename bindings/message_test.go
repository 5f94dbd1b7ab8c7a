package bindings

import (
	"testing"

	"github.com/czx-lab/mojo/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageHeader(t *testing.T) {
	t.Run("Plain", func(t *testing.T) {
		mh := NewMessageWithHeader(MessageHeader{InterfaceID: 2, Ordinal: 5}, []byte{1, 2}, nil)
		require.Len(t, mh.Message().Data, MessageHeaderV0Size+2)

		parsed, err := NewMessage(mh.Message().Data, nil).AsMessageWithHeader()
		require.NoError(t, err)
		h := parsed.Header()
		assert.Equal(t, uint32(0), h.Version)
		assert.Equal(t, uint32(5), h.Ordinal)
		assert.Equal(t, uint32(2), h.InterfaceID)
		assert.Equal(t, KindPlain, h.Kind())
		assert.False(t, h.HasRequestID())
		assert.Equal(t, []byte{1, 2}, parsed.Payload().Data)
	})

	t.Run("Request", func(t *testing.T) {
		mh := NewMessageWithHeader(MessageHeader{Ordinal: 1, Flags: FlagExpectsResponse, RequestID: 9}, nil, nil)

		parsed, err := NewMessage(mh.Message().Data, nil).AsMessageWithHeader()
		require.NoError(t, err)
		assert.Equal(t, uint32(MessageHeaderV1Size), parsed.Header().Size)
		assert.Equal(t, KindRequest, parsed.Header().Kind())
		assert.Equal(t, uint64(9), parsed.Header().RequestID)
	})

	t.Run("Cached", func(t *testing.T) {
		msg := NewMessageWithHeader(MessageHeader{Ordinal: 1}, nil, nil).Message()
		a, err := msg.AsMessageWithHeader()
		require.NoError(t, err)
		b, err := msg.AsMessageWithHeader()
		require.NoError(t, err)
		assert.Same(t, a, b)
	})
}

func TestInvalidMessageHeader(t *testing.T) {
	cases := []struct {
		name string
		msg  *Message
		want error
	}{
		{"Truncated", (&builder{}).u32(24, 0).message(), ErrOutOfBounds},
		{"TooSmall", (&builder{}).u32(16, 0, 0, 0).message(), ErrInvalidMessageHeader},
		{"V0WrongSize", (&builder{}).u32(32, 0, 0, 0, 0, 0).u64(0).message(), ErrInvalidMessageHeader},
		{"V1WrongSize", (&builder{}).u32(24, 1, 0, 0, 0, 0).message(), ErrInvalidMessageHeader},
		{"V0WithFlags", (&builder{}).u32(24, 0, 0, 0, FlagExpectsResponse, 0).message(), ErrInvalidMessageHeader},
		{"BothFlags", (&builder{}).u32(32, 1, 0, 0, FlagExpectsResponse|FlagIsResponse, 0).u64(1).message(), ErrInvalidMessageHeader},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := c.msg.AsMessageWithHeader()
			assert.ErrorIs(t, err, c.want)
		})
	}

	t.Run("FutureVersion", func(t *testing.T) {
		msg := (&builder{}).u32(40, 2, 0, 3, FlagIsResponse, 0).u64(7, 0).message()
		mh, err := msg.AsMessageWithHeader()
		require.NoError(t, err)
		assert.Equal(t, KindResponse, mh.Header().Kind())
		assert.Equal(t, uint64(7), mh.Header().RequestID)
		assert.Empty(t, mh.Payload().Data)
	})
}

func TestSetRequestID(t *testing.T) {
	mh := NewMessageWithHeader(MessageHeader{Flags: FlagExpectsResponse}, []byte{0xaa}, nil)
	mh.SetRequestID(77)
	assert.Equal(t, uint64(77), mh.Header().RequestID)

	parsed, err := NewMessage(mh.Message().Data, nil).AsMessageWithHeader()
	require.NoError(t, err)
	assert.Equal(t, uint64(77), parsed.Header().RequestID)
	assert.Equal(t, []byte{0xaa}, parsed.Payload().Data)

	plain := NewMessageWithHeader(MessageHeader{}, nil, nil)
	assert.Panics(t, func() { plain.SetRequestID(1) })
}

func TestPayloadDecodesIndependently(t *testing.T) {
	payload := (&builder{}).u32(16, 0, 3, 4).buf
	mh := NewMessageWithHeader(MessageHeader{Ordinal: 1}, payload, nil)

	var p point
	require.NoError(t, DeserializeStruct(mh.Payload(), &p))
	assert.Equal(t, point{3, 4}, p)
}

func TestReadMessage(t *testing.T) {
	a, b := system.CreateMessagePipe(nil)
	defer a.Close()
	defer b.Close()

	_, err := ReadMessage(b)
	assert.ErrorIs(t, err, system.ErrShouldWait)

	require.NoError(t, a.WriteMessage([]byte("ping"), []system.Handle{system.Token(1)}))
	msg, err := ReadMessage(b)
	require.NoError(t, err)
	assert.Equal(t, []byte("ping"), msg.Data)
	assert.Equal(t, []system.Handle{system.Token(1)}, msg.Handles)

	require.NoError(t, a.WriteMessage(nil, nil))
	msg, err = ReadMessage(b)
	require.NoError(t, err)
	assert.Empty(t, msg.Data)
}

func TestReadAndDispatchMessage(t *testing.T) {
	a, b := system.CreateMessagePipe(nil)
	defer b.Close()

	var got [][]byte
	recv := ReceiverFunc(func(msg *Message) bool {
		got = append(got, msg.Data)
		return true
	})

	require.NoError(t, a.WriteMessage([]byte{1}, nil))
	ok, err := ReadAndDispatchMessage(b, recv)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ReadAndDispatchMessage(b, recv)
	assert.ErrorIs(t, err, system.ErrShouldWait)
	assert.False(t, ok)

	a.Close()
	_, err = ReadAndDispatchMessage(b, recv)
	assert.ErrorIs(t, err, system.ErrFailedPrecondition)
	assert.Equal(t, [][]byte{{1}}, got)
}
