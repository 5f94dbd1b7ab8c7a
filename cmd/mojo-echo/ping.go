package main

import (
	"encoding/binary"
	"time"

	"github.com/czx-lab/mojo/bindings"
	"github.com/czx-lab/mojo/xlog"
	"go.uber.org/zap"
)

const (
	pingInterfaceID uint32 = 1
	pingOrdinal     uint32 = 0
)

var (
	pingRequestVersions = []bindings.DataHeader{{Size: 16, ElementsOrVersion: 0}}
	pingReplyVersions   = []bindings.DataHeader{{Size: 24, ElementsOrVersion: 0}}
)

type (
	// struct PingRequest { int64 nonce; }
	pingRequest struct {
		Nonce int64
	}

	// struct PingReply { int64 nonce; int64 server_time; }
	pingReply struct {
		Nonce      int64
		ServerTime int64
	}
)

func (p *pingRequest) Decode(d *bindings.Decoder) error {
	if _, err := d.ReadAndValidateDataHeader(pingRequestVersions); err != nil {
		return err
	}
	var err error
	p.Nonce, err = d.ReadInt64(8)
	return err
}

func (p *pingRequest) bytes() []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint32(b, 16)
	binary.LittleEndian.PutUint64(b[8:], uint64(p.Nonce))
	return b
}

func (p *pingReply) Decode(d *bindings.Decoder) error {
	if _, err := d.ReadAndValidateDataHeader(pingReplyVersions); err != nil {
		return err
	}
	var err error
	if p.Nonce, err = d.ReadInt64(8); err != nil {
		return err
	}
	p.ServerTime, err = d.ReadInt64(16)
	return err
}

func (p *pingReply) bytes() []byte {
	b := make([]byte, 24)
	binary.LittleEndian.PutUint32(b, 24)
	binary.LittleEndian.PutUint64(b[8:], uint64(p.Nonce))
	binary.LittleEndian.PutUint64(b[16:], uint64(p.ServerTime))
	return b
}

// newPingService returns the receiver serving the ping interface.
func newPingService() *bindings.Dispatcher {
	d := bindings.NewDispatcher()
	d.RegisterWithResponse(pingOrdinal, func(h bindings.MessageHeader, payload *bindings.Message, r *bindings.Responder) bool {
		var req pingRequest
		if err := bindings.DeserializeStruct(payload, &req); err != nil {
			xlog.Write().Warn("ping: bad request", zap.Uint64("request_id", h.RequestID), zap.Error(err))
			return false
		}
		reply := pingReply{Nonce: req.Nonce, ServerTime: time.Now().UnixNano()}
		return r.Respond(reply.bytes(), nil)
	})
	return d
}

func newPingMessage(nonce int64) *bindings.Message {
	req := pingRequest{Nonce: nonce}
	return bindings.NewMessageWithHeader(bindings.MessageHeader{
		InterfaceID: pingInterfaceID,
		Ordinal:     pingOrdinal,
		Flags:       bindings.FlagExpectsResponse,
	}, req.bytes(), nil).Message()
}
