package ws

import (
	"context"
	"time"

	"github.com/czx-lab/mojo/system"
	"github.com/gorilla/websocket"
)

var defaultHandshakeTimeout = 10 * time.Second

// Dial connects to a websocket url and returns the local end of the
// message pipe.
func Dial(ctx context.Context, url string, conf *PipeConf) (*system.ConnPipe, error) {
	dialer := websocket.Dialer{HandshakeTimeout: defaultHandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return NewPipe(conn, conf), nil
}
