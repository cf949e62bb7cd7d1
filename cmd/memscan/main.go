// Command memscan is the interactive REPL front end for the cheat engine
// core: it parses -pid and friends, attaches an Engine to the target
// process, and dispatches typed command lines to it until EOF, Ctrl-D, or a
// SIGINT/SIGTERM.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterh/liner"

	"github.com/xyproto/memscan/internal/cheatengine"
	"github.com/xyproto/memscan/internal/command"
	"github.com/xyproto/memscan/internal/engcfg"
	"github.com/xyproto/memscan/internal/frontend"
	"github.com/xyproto/memscan/internal/memlog"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := engcfg.ParseArgs(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "memscan: "+err.Error())
		engcfg.Usage()
		return 1
	}
	if cfg.Help {
		engcfg.Usage()
		return 0
	}

	var logFile *os.File
	if cfg.LogFile != "" {
		logFile, err = os.Create(cfg.LogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "memscan: cannot create log file: "+err.Error())
			return 1
		}
		defer logFile.Close()
	}
	log := memlog.New(os.Stderr, logFile, slog.LevelInfo)

	eng, err := cheatengine.NewEngine(cfg.PID, cfg, log)
	if err != nil {
		log.Error("cannot attach to target process", "pid", cfg.PID, "err", err)
		return 1
	}
	defer eng.Close()
	defer eng.UnfreezeAll()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		eng.UnfreezeAll()
		os.Exit(0)
	}()

	out := frontend.NewStdoutFrontend()
	repl(eng, out, log)
	return 0
}

func repl(eng *cheatengine.Engine, out frontend.Frontend, log *slog.Logger) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(partial string) []string {
		return command.CompleteCmd(partial)
	})

	prompt := fmt.Sprintf("memscan[%d]> ", eng.PID())
	for {
		text, err := line.Prompt(prompt)
		if err == nil {
			line.AppendHistory(text)
			if perr := command.ProcessCommand(text, eng, out); perr != nil {
				fmt.Fprintln(os.Stderr, "Error: "+perr.Error())
			}
			continue
		}

		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return
		}
		log.Warn("error reading command line", "err", err)
	}
}
