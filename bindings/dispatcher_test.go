package bindings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher(t *testing.T) {
	d := NewDispatcher()

	var plain []uint32
	require.NoError(t, d.Register(1, func(h MessageHeader, payload *Message) bool {
		plain = append(plain, h.Ordinal)
		return true
	}))
	require.NoError(t, d.RegisterWithResponse(2, func(h MessageHeader, payload *Message, r *Responder) bool {
		return r.Respond(payload.Data, nil) && !r.Respond(nil, nil)
	}))
	assert.Error(t, d.Register(1, nil))

	assert.True(t, d.Accept(NewMessageWithHeader(MessageHeader{Ordinal: 1}, nil, nil).Message()))
	assert.False(t, d.Accept(NewMessageWithHeader(MessageHeader{Ordinal: 9}, nil, nil).Message()))
	assert.Equal(t, []uint32{1}, plain)

	sink := &recorder{}
	req := NewMessageWithHeader(MessageHeader{InterfaceID: 4, Ordinal: 2, Flags: FlagExpectsResponse, RequestID: 11}, []byte{5}, nil)
	assert.True(t, d.AcceptWithResponder(req.Message(), sink))
	require.Len(t, sink.msgs, 1)

	mh, err := sink.msgs[0].AsMessageWithHeader()
	require.NoError(t, err)
	assert.Equal(t, KindResponse, mh.Header().Kind())
	assert.Equal(t, uint32(2), mh.Header().Ordinal)
	assert.Equal(t, uint32(4), mh.Header().InterfaceID)
	assert.Equal(t, uint64(11), mh.Header().RequestID)
	assert.Equal(t, []byte{5}, mh.Payload().Data)

	// a request for a plain method has nobody to answer it
	req = NewMessageWithHeader(MessageHeader{Ordinal: 1, Flags: FlagExpectsResponse}, nil, nil)
	assert.False(t, d.AcceptWithResponder(req.Message(), sink))

	d.Close()
	assert.False(t, d.Accept(NewMessageWithHeader(MessageHeader{Ordinal: 1}, nil, nil).Message()))
}
