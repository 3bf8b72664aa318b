// Command wlinspect drives an in-process object table through its
// create/destroy lifecycle and renders its occupancy, standing in for a
// real Wayland compositor or client so the table is exercised the way it
// would be in a protocol implementation.
package main

import (
	"fmt"
	"os"

	"github.com/wl-go/wlgo/cmd/wlinspect/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
