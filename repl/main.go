// Command plainshell-repl is an interactive terminal client for the
// embedded shell core. It spawns one managed shell session, renders the
// transcript as entries arrive, and routes Tab and Enter through the input
// coordinator. When stdout is redirected the transcript is also written
// there as a plain session log.
//
// Usage:
//
//	./plainshell-repl              # interactive
//	./plainshell-repl > log.txt    # interactive, transcript logged to file
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Kia-Karami/plainshell"
	"github.com/Kia-Karami/plainshell/complete"
	"github.com/Kia-Karami/plainshell/input"
	"github.com/Kia-Karami/plainshell/shell"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const prompt = "$ "

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	verbose := flag.Bool("verbose", false, "log session internals to stderr")
	flag.Parse()

	if *showVersion {
		fmt.Println("plainshell-repl", Version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := plainshell.LoadConfig()
	if err != nil {
		slog.Warn("config unreadable, using defaults", "error", err)
		cfg = plainshell.DefaultConfig()
	}
	for _, w := range plainshell.ValidateConfig(cfg) {
		slog.Warn("config warning", "detail", w)
	}

	// Errors propagate out of run so its defers fire first: the terminal
	// must be out of raw mode again before anything is reported on stderr.
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *plainshell.Config) error {
	editor, err := NewEditor()
	if err != nil {
		return err
	}
	defer editor.Close()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("cannot determine cwd: %w", err)
	}

	mgr := shell.NewManager(cfg)
	defer mgr.Close()

	sess, err := mgr.Create("repl", cwd)
	if err != nil {
		return err
	}

	coord := input.NewCoordinator(
		sess,
		complete.Complete,
		func(candidates []string) {
			editor.WriteBlock(strings.Join(candidates, "  ") + "\n")
		},
		sess.Dir,
	)

	editor.onComplete = func(line string) (string, bool) {
		coord.SetBuffer(line)
		result := coord.CompleteKey()
		switch result.Kind {
		case complete.Unique, complete.CommonPrefix:
			return coord.Buffer(), true
		}
		return "", false
	}

	// Render transcript entries as they arrive. Output blocks go to the
	// tty; command echoes are skipped there because the editor has just
	// shown the typed line. The log writer, when present, gets both.
	entries, cancelSub := sess.Transcript().Subscribe()
	defer cancelSub()
	logw := transcriptLog(os.Stdout)

	go func() {
		for e := range entries {
			switch e.Kind {
			case plainshell.EntryOutput:
				editor.WriteBlock(e.Text)
				if logw != nil {
					io.WriteString(logw, e.Text)
				}
			case plainshell.EntryCommand:
				if logw != nil {
					io.WriteString(logw, prompt+e.Text+"\n")
				}
			}
		}
	}()

	editor.WriteBlock(fmt.Sprintf("plainshell repl\ncwd: %s\n\ncommands:\n  :quit  exit\n\n", cwd))

	for {
		line, err := editor.ReadLine(prompt)
		if err == io.EOF || err == ErrInterrupt {
			break
		}
		if err != nil {
			editor.WriteBlock(fmt.Sprintf("read error: %v\n", err))
			break
		}

		if line == ":quit" || line == ":q" {
			break
		}

		coord.SetBuffer(line)
		if err := coord.CommitKey(); err != nil {
			if errors.Is(err, shell.ErrWrite) {
				editor.WriteBlock("write failed; session degraded\n")
				continue
			}
			editor.WriteBlock(fmt.Sprintf("error: %v\n", err))
		}

		// The shell exiting (e.g. the user typed "exit") closes the
		// output pipe; stop reading input once that happens.
		select {
		case <-sess.Done():
			return nil
		default:
		}
	}

	sess.Stop()
	return nil
}
