package bindings

import (
	"fmt"
	"sync"
	"time"

	"github.com/czx-lab/mojo/system"
	"github.com/czx-lab/mojo/xlog"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type (
	RouterOption func(r *Router)

	// Router multiplexes plain messages, requests and responses over one
	// pipe. Responses are matched to the requests it sent by request id.
	Router struct {
		mu            sync.Mutex
		id            string
		connector     *Connector
		receiver      MessageReceiverWithResponder
		nextRequestID uint64
		responders    *pendingTable
		closed        bool

		metrics      RouterMetrics
		logger       *zap.Logger
		errorHandler func(error)
	}
)

var _ MessageReceiverWithResponder = (*Router)(nil)

// WithReceiver sets the receiver of incoming plain messages and requests.
func WithReceiver(receiver MessageReceiverWithResponder) RouterOption {
	return func(r *Router) {
		r.receiver = receiver
	}
}

func WithMetrics(m RouterMetrics) RouterOption {
	return func(r *Router) {
		r.metrics = m
	}
}

func WithLogger(logger *zap.Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithErrorHandler sets the function called after the pipe failed and the
// router closed itself.
func WithErrorHandler(fn func(error)) RouterOption {
	return func(r *Router) {
		r.errorHandler = fn
	}
}

func NewRouter(pipe system.MessagePipe, opts ...RouterOption) *Router {
	r := &Router{
		id:            uuid.NewString(),
		nextRequestID: 1,
		responders:    newPendingTable(),
		metrics:       &NoopRouterMetrics{},
		logger:        xlog.Write(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("router", r.id))

	r.connector = NewConnector(pipe).WithLogger(r.logger)
	r.connector.SetIncomingMessageReceiver(ReceiverFunc(r.handleIncomingMessage))
	r.connector.SetErrorHandler(r.onConnectionError)
	return r
}

// ID returns the unique id of the router.
func (r *Router) ID() string {
	return r.id
}

// Start begins reading from the pipe.
func (r *Router) Start() {
	r.connector.Start()
}

func (r *Router) SetIncomingMessageReceiver(receiver MessageReceiverWithResponder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.receiver = receiver
}

// Done is closed once the router stopped reading from the pipe.
func (r *Router) Done() <-chan struct{} {
	return r.connector.Done()
}

// Accept implements MessageReceiver. It sends msg as is.
func (r *Router) Accept(msg *Message) bool {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return false
	}

	if err := r.connector.Write(msg); err != nil {
		r.logger.Debug("send failed", zap.Error(err))
		return false
	}
	if mh, err := msg.AsMessageWithHeader(); err == nil {
		r.metrics.IncSent(mh.Header().Kind())
	}
	return true
}

// AcceptWithResponder implements MessageReceiverWithResponder. msg must
// expect a response. It is stamped with a fresh request id and responder
// receives the matching response.
func (r *Router) AcceptWithResponder(msg *Message, responder MessageReceiver) bool {
	mh, err := msg.AsMessageWithHeader()
	if err != nil || !mh.Header().HasFlag(FlagExpectsResponse) {
		return false
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false
	}

	id := r.nextRequestID
	r.nextRequestID++
	if r.nextRequestID == 0 {
		r.nextRequestID = 1
	}
	if r.responders.Has(id) {
		r.mu.Unlock()
		panic(fmt.Errorf("%w: %d", ErrDuplicateRequestID, id))
	}

	mh.SetRequestID(id)
	if err := r.connector.Write(msg); err != nil {
		r.mu.Unlock()
		r.logger.Debug("send request failed", zap.Uint64("request_id", id), zap.Error(err))
		return false
	}
	r.responders.Set(id, pendingRequest{
		responder: responder,
		ordinal:   mh.Header().Ordinal,
		sentAt:    time.Now(),
	})
	// before unlock, the response may be handled right after
	r.metrics.AddPending(1)
	r.mu.Unlock()

	r.metrics.IncSent(KindRequest)
	return true
}

func (r *Router) handleIncomingMessage(msg *Message) bool {
	mh, err := msg.AsMessageWithHeader()
	if err != nil {
		r.metrics.IncDropped(DropMalformed)
		r.logger.Warn("dropping malformed message", zap.Error(err))
		return false
	}
	h := mh.Header()
	kind := h.Kind()
	r.metrics.IncReceived(kind)

	r.mu.Lock()
	receiver := r.receiver
	r.mu.Unlock()

	switch kind {
	case KindRequest:
		if receiver == nil {
			// the peer would wait forever for a reply
			r.metrics.IncDropped(DropNoReceiver)
			r.logger.Warn("request without receiver, closing",
				zap.Uint32("ordinal", h.Ordinal), zap.Uint64("request_id", h.RequestID))
			r.Close()
			return false
		}
		return receiver.AcceptWithResponder(msg, r)

	case KindResponse:
		r.mu.Lock()
		p, ok := r.responders.Take(h.RequestID)
		r.mu.Unlock()

		if !ok {
			r.metrics.IncDropped(DropUnknownRequest)
			r.logger.Debug("dropping unmatched response", zap.Uint64("request_id", h.RequestID))
			return false
		}
		r.metrics.AddPending(-1)
		r.metrics.ObserveResponseLatency(time.Since(p.sentAt))
		if p.ordinal != h.Ordinal {
			r.metrics.IncDropped(DropOrdinalMismatch)
			r.logger.Warn("response ordinal mismatch",
				zap.Uint64("request_id", h.RequestID),
				zap.Uint32("ordinal", h.Ordinal), zap.Uint32("expected", p.ordinal))
			p.responder.Close()
			return false
		}
		return p.responder.Accept(msg)

	default:
		if receiver == nil {
			r.metrics.IncDropped(DropNoReceiver)
			return false
		}
		return receiver.Accept(msg)
	}
}

func (r *Router) onConnectionError(err error) {
	r.logger.Info("connection error", zap.Error(err))
	r.Close()

	if r.errorHandler != nil {
		r.errorHandler(err)
	}
}

// Close implements MessageReceiver. It closes the pipe and every responder
// still waiting for a response.
func (r *Router) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	pending := r.responders.Drain()
	r.mu.Unlock()

	r.connector.Close()
	for _, p := range pending {
		p.responder.Close()
	}
	if len(pending) > 0 {
		r.metrics.AddPending(-len(pending))
	}
	r.metrics.IncClosed()
}

// Closed reports whether the router has been closed.
func (r *Router) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.closed
}

// PendingRequests returns the number of requests waiting for a response.
func (r *Router) PendingRequests() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.responders.Len()
}
