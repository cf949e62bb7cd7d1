// Package engcfg holds the session config knobs read at startup, parsed
// with github.com/pborman/getopt/v2.
package engcfg

import (
	"fmt"
	"os"
	"time"

	getopt "github.com/pborman/getopt/v2"

	"github.com/xyproto/memscan/internal/procrw"
)

// Config is the set of session-wide knobs kept as config-time settings
// rather than hardcoded values.
type Config struct {
	PID            int
	Backend        procrw.Backend
	FreezeInterval time.Duration
	ChunkSize      int
	LogFile        string
	Help           bool
}

// Default returns the documented defaults: auto backend, 50ms freeze tick,
// 1MiB scan chunk.
func Default() Config {
	return Config{
		Backend:        procrw.Auto,
		FreezeInterval: 50 * time.Millisecond,
		ChunkSize:      1 << 20,
	}
}

// flagSet builds a fresh getopt.Set bound to cfg's defaults, so repeated
// ParseArgs calls in the same process never collide on shared flag state
// the way package-level getopt.StringLong/Parse calls would.
func flagSet(cfg Config) (set *getopt.Set, optPID *int, optBackend *string, optInterval *time.Duration, optChunk *int, optLog *string, optHelp *bool) {
	set = getopt.New()
	optPID = set.IntLong("pid", 'p', 0, "Target process id")
	optBackend = set.StringLong("backend", 'b', "auto", "Process R/W backend: auto|vm|procfs")
	optInterval = set.DurationLong("freeze-interval", 'f', cfg.FreezeInterval, "Freeze worker tick interval")
	optChunk = set.IntLong("chunk-size", 'c', cfg.ChunkSize, "Scan chunk size in bytes")
	optLog = set.StringLong("log", 'l', "", "Log file path")
	optHelp = set.BoolLong("help", 'h', "Show usage")
	return
}

// ParseArgs parses args (os.Args, including the program name in args[0],
// per getopt convention) into a Config, failing on an unknown flag or an
// unparseable -backend value. -pid is required unless -help is given.
func ParseArgs(args []string) (Config, error) {
	cfg := Default()

	set, optPID, optBackend, optInterval, optChunk, optLog, optHelp := flagSet(cfg)

	if err := set.Getopt(args, nil); err != nil {
		return cfg, fmt.Errorf("parsing arguments: %w", err)
	}

	cfg.Help = *optHelp
	if cfg.Help {
		return cfg, nil
	}

	if *optPID <= 0 {
		return cfg, fmt.Errorf("-pid is required and must be positive")
	}
	cfg.PID = *optPID

	backend, err := procrw.ParseBackend(*optBackend)
	if err != nil {
		return cfg, err
	}
	cfg.Backend = backend

	cfg.FreezeInterval = *optInterval
	cfg.ChunkSize = *optChunk
	cfg.LogFile = *optLog

	return cfg, nil
}

// Usage prints flag usage to os.Stderr.
func Usage() {
	set, _, _, _, _, _, _ := flagSet(Default())
	set.PrintUsage(os.Stderr)
}
