//go:build !windows

package mpv

import (
	"context"
	"net"
)

func dialPipe(ctx context.Context, address string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", address)
}
