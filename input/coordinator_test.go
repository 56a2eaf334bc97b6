package input

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Kia-Karami/plainshell/complete"
)

// recordingSender records sent commands and optionally blocks until released.
type recordingSender struct {
	sent    []string
	err     error
	entered chan struct{}
	release chan struct{}
}

func (r *recordingSender) Send(command string) error {
	if r.entered != nil {
		close(r.entered)
		<-r.release
	}
	r.sent = append(r.sent, command)
	return r.err
}

func staticComplete(result complete.Result) CompleteFunc {
	return func(input, cwd string) complete.Result {
		return result
	}
}

func cwdFunc() string { return "/tmp" }

func TestCompleteKeyUniqueReplacesBuffer(t *testing.T) {
	c := NewCoordinator(&recordingSender{},
		staticComplete(complete.Result{Kind: complete.Unique, Text: "cat main.go "}),
		nil, cwdFunc)
	c.SetBuffer("cat main.g")

	result := c.CompleteKey()
	if result.Kind != complete.Unique {
		t.Fatalf("expected Unique, got kind %d", result.Kind)
	}
	if got := c.Buffer(); got != "cat main.go " {
		t.Errorf("expected buffer replaced, got %q", got)
	}
}

func TestCompleteKeyCommonPrefixReplacesBuffer(t *testing.T) {
	c := NewCoordinator(&recordingSender{},
		staticComplete(complete.Result{Kind: complete.CommonPrefix, Text: "main."}),
		nil, cwdFunc)
	c.SetBuffer("mai")

	c.CompleteKey()
	if got := c.Buffer(); got != "main." {
		t.Errorf("expected buffer replaced with common prefix, got %q", got)
	}
}

func TestCompleteKeyAmbiguousLeavesBufferAndDisplays(t *testing.T) {
	candidates := []string{"main.go", "main.py"}
	var displayed []string
	c := NewCoordinator(&recordingSender{},
		staticComplete(complete.Result{Kind: complete.Ambiguous, Candidates: candidates}),
		func(c []string) { displayed = c },
		cwdFunc)
	c.SetBuffer("main.")

	c.CompleteKey()
	if got := c.Buffer(); got != "main." {
		t.Errorf("expected buffer untouched, got %q", got)
	}
	if !reflect.DeepEqual(displayed, candidates) {
		t.Errorf("expected candidates handed to display, got %v", displayed)
	}
}

func TestCompleteKeyNoMatchIsNoOp(t *testing.T) {
	called := false
	c := NewCoordinator(&recordingSender{},
		staticComplete(complete.Result{Kind: complete.NoMatch}),
		func([]string) { called = true },
		cwdFunc)
	c.SetBuffer("zzz")

	c.CompleteKey()
	if got := c.Buffer(); got != "zzz" {
		t.Errorf("expected buffer untouched, got %q", got)
	}
	if called {
		t.Error("display must not be invoked for NoMatch")
	}
}

func TestCompleteKeyNilDisplay(t *testing.T) {
	c := NewCoordinator(&recordingSender{},
		staticComplete(complete.Result{Kind: complete.Ambiguous, Candidates: []string{"a", "b"}}),
		nil, cwdFunc)
	c.SetBuffer("x")
	c.CompleteKey() // must not panic
}

func TestCommitKeySendsAndClears(t *testing.T) {
	sender := &recordingSender{}
	c := NewCoordinator(sender, staticComplete(complete.Result{}), nil, cwdFunc)
	c.SetBuffer("echo hi")

	if err := c.CommitKey(); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(sender.sent, []string{"echo hi"}) {
		t.Errorf("expected command sent, got %v", sender.sent)
	}
	if got := c.Buffer(); got != "" {
		t.Errorf("expected buffer cleared, got %q", got)
	}
}

func TestCommitKeyPropagatesSendError(t *testing.T) {
	wantErr := errors.New("write failed")
	sender := &recordingSender{err: wantErr}
	c := NewCoordinator(sender, staticComplete(complete.Result{}), nil, cwdFunc)
	c.SetBuffer("echo hi")

	if err := c.CommitKey(); !errors.Is(err, wantErr) {
		t.Errorf("expected send error, got %v", err)
	}
	// The buffer clears even on failure; the command was consumed.
	if got := c.Buffer(); got != "" {
		t.Errorf("expected buffer cleared, got %q", got)
	}
}

func TestCommitKeyRejectsReentrantCommit(t *testing.T) {
	sender := &recordingSender{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := NewCoordinator(sender, staticComplete(complete.Result{}), nil, cwdFunc)
	c.SetBuffer("sleep 1")

	firstDone := make(chan error, 1)
	go func() { firstDone <- c.CommitKey() }()

	<-sender.entered // first commit is now in flight

	if err := c.CommitKey(); !errors.Is(err, ErrCommitInFlight) {
		t.Errorf("expected ErrCommitInFlight, got %v", err)
	}

	close(sender.release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first commit failed: %v", err)
	}

	// After the buffer has cleared, commits are accepted again.
	c.SetBuffer("echo next")
	sender.entered = nil
	if err := c.CommitKey(); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(sender.sent, []string{"sleep 1", "echo next"}) {
		t.Errorf("unexpected sends: %v", sender.sent)
	}
}
