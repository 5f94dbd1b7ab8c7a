package bindings

type (
	// MessageReceiver consumes messages. Accept reports whether the message
	// was handled.
	MessageReceiver interface {
		Accept(msg *Message) bool
		Close()
	}

	// MessageReceiverWithResponder additionally takes requests whose reply
	// must be delivered to responder.
	MessageReceiverWithResponder interface {
		MessageReceiver
		AcceptWithResponder(msg *Message, responder MessageReceiver) bool
	}

	// ReceiverFunc adapts a function to MessageReceiver. Close is a no-op.
	ReceiverFunc func(msg *Message) bool
)

var _ MessageReceiver = ReceiverFunc(nil)

// Accept implements MessageReceiver.
func (f ReceiverFunc) Accept(msg *Message) bool {
	return f(msg)
}

// Close implements MessageReceiver.
func (f ReceiverFunc) Close() {}
