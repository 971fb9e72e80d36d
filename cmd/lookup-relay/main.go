// Command lookup-relay bridges mpv, the lookup popup and a local Yomitan API.
//
// Usage:
//
//	lookup-relay [--parent-pid=PID] [--pipe=ADDRESS] [--port=PORT] [--config=PATH]
//	lookup-relay config
//	lookup-relay version
//
// mpv's script starts it with its own pid and IPC socket; the relay exits
// on POST /shutdown or when that pid disappears.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
