// Package shell manages interactive child-shell sessions: spawning the
// process with a pinned environment, feeding it commands, and collecting its
// sanitized output into a transcript.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"unicode/utf8"

	"github.com/Kia-Karami/plainshell"
)

// State is the lifecycle state of a session. Transitions are monotonic:
// NotStarted -> Running -> Stopped. Stopped is terminal.
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateStopped
)

// String returns a short label for logging.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

var (
	// ErrLaunch indicates the shell process could not be spawned.
	ErrLaunch = errors.New("shell: launch failed")
	// ErrStarted indicates Start was called on a session past NotStarted.
	ErrStarted = errors.New("shell: session already started")
	// ErrNotRunning indicates an operation that requires a running session.
	ErrNotRunning = errors.New("shell: session not running")
	// ErrWrite indicates the write to the shell's stdin failed. The session
	// is marked degraded and is not restarted.
	ErrWrite = errors.New("shell: write to shell failed")
)

const readBufSize = 4096

// Session owns one child shell process and its pipes. Commands go in through
// Send; sanitized output comes back asynchronously as transcript entries.
// The reader goroutine is the only writer of output entries, and the
// transcript serializes appends, so entry order is deterministic: a command
// echo always precedes output produced after its write.
type Session struct {
	program string
	args    []string
	initCmd string
	locale  string
	marker  string
	dir     string

	transcript *plainshell.Transcript

	mu       sync.Mutex
	state    State
	degraded bool
	cmd      *exec.Cmd
	stdin    *bufio.Writer
	stdinC   io.Closer
	outR     *os.File

	stopOnce sync.Once
	done     chan struct{}
}

// NewSession creates a session configured by cfg, writing into transcript.
// dir is the working directory the shell starts in and the directory
// completion lookups are resolved against; empty means the current one.
func NewSession(cfg *plainshell.Config, transcript *plainshell.Transcript, dir string) *Session {
	if dir == "" {
		dir, _ = os.Getwd()
	}
	return &Session{
		program:    plainshell.ResolveShellProgram(cfg),
		args:       cfg.Shell.Args,
		initCmd:    cfg.Shell.InitCommand,
		locale:     cfg.Shell.Locale,
		marker:     plainshell.ResolveMarker(cfg),
		dir:        dir,
		transcript: transcript,
		done:       make(chan struct{}),
	}
}

// Transcript returns the transcript this session writes to.
func (s *Session) Transcript() *plainshell.Transcript { return s.transcript }

// Dir returns the working directory the shell was started in.
func (s *Session) Dir() string { return s.dir }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Degraded reports whether a write to the shell has failed. A degraded
// session is still Running but commands are no longer reaching the child.
func (s *Session) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Start spawns the shell non-interactively with a pinned environment: no
// rc files, dumb terminal, no pager, no color, fixed UTF-8 locale. On
// success it transitions to Running, starts the output reader, and sends the
// init command that clears the screen and sets a minimal fixed prompt, so
// later output never depends on shell-specific prompt formatting. A spawn
// failure is reported to the caller; the host keeps running.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateNotStarted {
		return fmt.Errorf("%w (state %s)", ErrStarted, s.state)
	}

	outR, outW, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	cmd := exec.Command(s.program, s.args...)
	cmd.Dir = s.dir
	// stdout and stderr share one pipe so the transcript interleaves them
	// the way a terminal would.
	cmd.Stdout = outW
	cmd.Stderr = outW
	cmd.Env = append(os.Environ(), s.pinnedEnv()...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		outR.Close()
		outW.Close()
		return fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	// The child holds the write end now; closing ours makes the reader see
	// EOF when the child exits.
	outW.Close()

	s.cmd = cmd
	s.stdin = bufio.NewWriter(stdin)
	s.stdinC = stdin
	s.outR = outR
	s.state = StateRunning

	go s.readOutput()

	if s.initCmd != "" {
		if err := s.writeLine(s.initCmd); err != nil {
			s.degraded = true
			slog.Warn("init command failed", "error", err)
		}
	}

	slog.Debug("session started", "program", s.program, "pid", cmd.Process.Pid, "dir", s.dir)
	return nil
}

// pinnedEnv returns the environment overrides that suppress startup noise
// and make byte-to-text decoding deterministic.
func (s *Session) pinnedEnv() []string {
	return []string{
		"PS1=",
		"PS2=",
		"PROMPT_COMMAND=",
		"TERM=dumb",
		"PAGER=cat",
		"GIT_PAGER=cat",
		"NO_COLOR=1",
		"CLICOLOR=0",
		"LC_ALL=" + s.locale,
		"LANG=" + s.locale,
	}
}

// Send echoes command into the transcript and writes it to the shell's
// stdin followed by a newline, flushing the write. The echo is appended
// before the write so it is strictly ordered ahead of any output the
// command produces. An empty command is silently ignored. A write failure
// marks the session degraded and is returned wrapped in ErrWrite; the
// session is not restarted.
func (s *Session) Send(command string) error {
	if command == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return fmt.Errorf("%w (state %s)", ErrNotRunning, s.state)
	}

	s.transcript.Append(plainshell.EntryCommand, command)

	if err := s.writeLine(command); err != nil {
		s.degraded = true
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// writeLine writes one line to the shell's stdin and flushes it.
// Callers must hold s.mu.
func (s *Session) writeLine(line string) error {
	if _, err := s.stdin.WriteString(line + "\n"); err != nil {
		return err
	}
	return s.stdin.Flush()
}

// Stop interrupts the shell and releases its pipes. It is idempotent: the
// second and later calls are no-ops and cannot fail. Output already read
// before the pipes close is delivered best-effort; nothing after it.
func (s *Session) Stop() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.state == StateRunning {
			// Non-destructive interrupt; the child also sees stdin EOF.
			if s.cmd != nil && s.cmd.Process != nil {
				s.cmd.Process.Signal(os.Interrupt)
			}
			if s.stdinC != nil {
				s.stdinC.Close()
			}
			if s.outR != nil {
				s.outR.Close()
			}
			if cmd := s.cmd; cmd != nil {
				go cmd.Wait()
				slog.Debug("session stopped", "pid", cmd.Process.Pid)
			}
		}
		s.state = StateStopped
	})
	return nil
}

// Done is closed when the output reader has exited, either because the
// child closed its side or because Stop released the pipes.
func (s *Session) Done() <-chan struct{} { return s.done }

// readOutput delivers child output to the transcript. Each chunk is decoded
// as UTF-8 (an undecodable chunk is dropped and the stream continues),
// sanitized, and appended as an output entry only when something survives.
// Chunks are appended in read order; nothing coalesces across chunks.
func (s *Session) readOutput() {
	defer close(s.done)

	buf := make([]byte, readBufSize)
	for {
		n, err := s.outR.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if !utf8.Valid(chunk) {
				slog.Warn("dropping undecodable output chunk", "bytes", n)
			} else if clean := Sanitize(string(chunk), s.marker); clean != "" {
				s.transcript.Append(plainshell.EntryOutput, clean)
			}
		}
		if err != nil {
			if err != io.EOF && !errors.Is(err, os.ErrClosed) {
				slog.Debug("output reader exiting", "error", err)
			}
			return
		}
	}
}
