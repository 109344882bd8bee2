package commands

import (
	"github.com/spf13/cobra"

	"github.com/devchat-app/aidebug/internal/logger"
	"github.com/devchat-app/aidebug/internal/profiler"
)

func addProfileFlags(cmd *cobra.Command) {
	cmd.Flags().String("cpuprofile", "", "Write CPU profile to file")
	cmd.Flags().String("memprofile", "", "Write memory profile to file")
	cmd.Flags().String("pprof-addr", "", "Serve pprof on this address (e.g. localhost:6060)")
}

// startProfiler starts the profiles requested on cmd. The returned stop
// function is always safe to call.
func startProfiler(cmd *cobra.Command) (func(), error) {
	var pc profiler.Config
	pc.CPUProfile, _ = cmd.Flags().GetString("cpuprofile")
	pc.MemProfile, _ = cmd.Flags().GetString("memprofile")
	pc.HTTPAddr, _ = cmd.Flags().GetString("pprof-addr")
	if !pc.Enabled() {
		return func() {}, nil
	}

	session, err := profiler.Start(pc)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := session.Stop(); err != nil {
			logger.Warn("Stopping profiler: %v", err)
		}
	}, nil
}
