package cmd

import (
	"context"

	"github.com/theirongolddev/kcal/internal/daemon"
)

var flagLocal bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagLocal, "local", false, "Write to the store directly even when `kcal serve` is running")
}

// runningDaemon returns a client for the local daemon when one is running
// and healthy. Mutations go through it so its in-memory log and event
// stream stay current; writing the store underneath it would be overwritten
// by its next save.
func runningDaemon(ctx context.Context) *daemon.Client {
	if flagLocal {
		return nil
	}

	pid, err := readPID(flagServePIDFile)
	if err != nil || !processAlive(pid) {
		return nil
	}

	addr := serveAddr("")
	if st, err := readState(statePath(flagServePIDFile)); err == nil && st.Addr != "" && flagServeAddr == "" {
		addr = st.Addr
	}

	c := daemon.NewClient(addr)
	if err := c.Health(ctx); err != nil {
		newLogger().Warn("daemon pid file present but API unreachable, writing locally", "addr", addr, "err", err)
		return nil
	}
	return c
}
