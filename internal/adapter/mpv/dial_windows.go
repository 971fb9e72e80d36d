//go:build windows

package mpv

import (
	"context"
	"net"

	winio "github.com/Microsoft/go-winio"
)

func dialPipe(ctx context.Context, address string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, address)
}
