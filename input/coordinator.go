// Package input routes line-editing key events between the completion
// engine and the shell session. Ordinary editing keys are the host's
// concern; the coordinator only owns the transient edit buffer and the
// completion/commit transitions on it.
package input

import (
	"errors"
	"sync"

	"github.com/Kia-Karami/plainshell/complete"
)

// ErrCommitInFlight is returned when a commit arrives before the previous
// one has cleared the buffer.
var ErrCommitInFlight = errors.New("input: commit already in flight")

// Sender accepts a committed command line. *shell.Session satisfies it.
type Sender interface {
	Send(command string) error
}

// CompleteFunc produces a completion result for the current line.
// complete.Complete satisfies it.
type CompleteFunc func(input, cwd string) complete.Result

// DisplayFunc receives the candidate list of an ambiguous completion for
// rendering. The coordinator never renders anything itself.
type DisplayFunc func(candidates []string)

// Coordinator owns the edit buffer and routes the completion key and the
// commit key. All methods are safe for concurrent use.
type Coordinator struct {
	sender   Sender
	complete CompleteFunc
	display  DisplayFunc
	cwd      func() string

	mu         sync.Mutex
	buf        string
	committing bool
}

// NewCoordinator wires a coordinator. display may be nil, in which case
// ambiguous candidate lists are dropped.
func NewCoordinator(sender Sender, completeFn CompleteFunc, display DisplayFunc, cwd func() string) *Coordinator {
	return &Coordinator{
		sender:   sender,
		complete: completeFn,
		display:  display,
		cwd:      cwd,
	}
}

// Buffer returns the current edit buffer.
func (c *Coordinator) Buffer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf
}

// SetBuffer replaces the edit buffer. The host calls this after ordinary
// editing keys it handles itself.
func (c *Coordinator) SetBuffer(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf = text
}

// CompleteKey runs the completion engine on the current buffer. Unique and
// CommonPrefix results replace the buffer (cursor at end); Ambiguous hands
// the candidates to the display sink and leaves the buffer untouched;
// NoMatch is a no-op. The result is returned so the host can reposition
// its cursor.
func (c *Coordinator) CompleteKey() complete.Result {
	c.mu.Lock()
	line := c.buf
	c.mu.Unlock()

	result := c.complete(line, c.cwd())

	switch result.Kind {
	case complete.Unique, complete.CommonPrefix:
		c.mu.Lock()
		c.buf = result.Text
		c.mu.Unlock()
	case complete.Ambiguous:
		if c.display != nil {
			c.display(result.Candidates)
		}
	}
	return result
}

// CommitKey sends the current buffer to the session and clears it. A commit
// that arrives while another is still in flight is rejected with
// ErrCommitInFlight. Empty buffers still clear but send nothing (the
// session ignores empty commands).
func (c *Coordinator) CommitKey() error {
	c.mu.Lock()
	if c.committing {
		c.mu.Unlock()
		return ErrCommitInFlight
	}
	c.committing = true
	line := c.buf
	c.mu.Unlock()

	err := c.sender.Send(line)

	c.mu.Lock()
	c.buf = ""
	c.committing = false
	c.mu.Unlock()
	return err
}
