package bindings

import (
	"fmt"
	"sync"

	"github.com/czx-lab/mojo/system"
	"github.com/czx-lab/mojo/xlog"
	"go.uber.org/zap"
)

type (
	// Handler processes a message that expects no reply.
	Handler func(h MessageHeader, payload *Message) bool

	// ResponseHandler processes a request. The reply goes through responder.
	ResponseHandler func(h MessageHeader, payload *Message, responder *Responder) bool

	method struct {
		handler         Handler
		responseHandler ResponseHandler
	}

	// Dispatcher routes messages of one interface to handlers by ordinal.
	Dispatcher struct {
		mu      sync.RWMutex
		methods map[uint32]*method
		closed  bool
	}

	// Responder sends the reply to one request.
	Responder struct {
		once    sync.Once
		request MessageHeader
		sink    MessageReceiver
	}
)

var _ MessageReceiverWithResponder = (*Dispatcher)(nil)

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		methods: make(map[uint32]*method),
	}
}

// Register binds handler to ordinal.
func (d *Dispatcher) Register(ordinal uint32, handler Handler) error {
	return d.register(ordinal, &method{handler: handler})
}

// RegisterWithResponse binds a request handler to ordinal.
func (d *Dispatcher) RegisterWithResponse(ordinal uint32, handler ResponseHandler) error {
	return d.register(ordinal, &method{responseHandler: handler})
}

func (d *Dispatcher) register(ordinal uint32, m *method) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.methods[ordinal]; ok {
		return fmt.Errorf("bindings: ordinal %d is already registered", ordinal)
	}
	d.methods[ordinal] = m
	return nil
}

func (d *Dispatcher) lookup(msg *Message) (*MessageWithHeader, *method) {
	mh, err := msg.AsMessageWithHeader()
	if err != nil {
		return nil, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return nil, nil
	}
	m, ok := d.methods[mh.Header().Ordinal]
	if !ok {
		xlog.Write().Debug("dispatcher: unknown ordinal", zap.Uint32("ordinal", mh.Header().Ordinal))
		return nil, nil
	}
	return mh, m
}

// Accept implements MessageReceiver.
func (d *Dispatcher) Accept(msg *Message) bool {
	mh, m := d.lookup(msg)
	if m == nil || m.handler == nil || mh.Header().Kind() != KindPlain {
		return false
	}
	return m.handler(mh.Header(), mh.Payload())
}

// AcceptWithResponder implements MessageReceiverWithResponder.
func (d *Dispatcher) AcceptWithResponder(msg *Message, responder MessageReceiver) bool {
	mh, m := d.lookup(msg)
	if m == nil || m.responseHandler == nil || mh.Header().Kind() != KindRequest {
		return false
	}
	return m.responseHandler(mh.Header(), mh.Payload(), &Responder{
		request: mh.Header(),
		sink:    responder,
	})
}

// Close implements MessageReceiver. Later messages are rejected.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
}

// Request returns the header of the request being answered.
func (r *Responder) Request() MessageHeader {
	return r.request
}

// Respond sends payload as the response. Only the first call sends.
func (r *Responder) Respond(payload []byte, handles []system.Handle) bool {
	sent := false
	r.once.Do(func() {
		reply := NewMessageWithHeader(MessageHeader{
			InterfaceID: r.request.InterfaceID,
			Ordinal:     r.request.Ordinal,
			Flags:       FlagIsResponse,
			RequestID:   r.request.RequestID,
		}, payload, handles)
		sent = r.sink.Accept(reply.Message())
	})
	return sent
}
