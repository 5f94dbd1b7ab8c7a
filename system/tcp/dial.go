package tcp

import (
	"context"
	"net"

	"github.com/czx-lab/mojo/system"
)

// Dial connects to addr and returns the local end of the message pipe.
func Dial(ctx context.Context, addr string, conf *PipeConf) (*system.ConnPipe, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewPipe(conn, conf), nil
}
