package plainshell

import (
	"sync"
	"testing"
)

func TestTranscriptAppendAssignsIncreasingSeq(t *testing.T) {
	tr := NewTranscript(0)

	a := tr.Append(EntryCommand, "ls")
	b := tr.Append(EntryOutput, "> main.go\n")

	if a.Seq != 0 || b.Seq != 1 {
		t.Errorf("expected seq 0 and 1, got %d and %d", a.Seq, b.Seq)
	}

	entries := tr.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0] != a || entries[1] != b {
		t.Errorf("entries out of order: %+v", entries)
	}
}

func TestTranscriptEntriesIsACopy(t *testing.T) {
	tr := NewTranscript(0)
	tr.Append(EntryCommand, "ls")

	entries := tr.Entries()
	entries[0].Text = "mutated"

	if got := tr.Entries()[0].Text; got != "ls" {
		t.Errorf("expected stored entry untouched, got %q", got)
	}
}

func TestTranscriptSubscribeReceivesAppends(t *testing.T) {
	tr := NewTranscript(0)
	ch, cancel := tr.Subscribe()
	defer cancel()

	tr.Append(EntryCommand, "echo hi")
	tr.Append(EntryOutput, "> hi\n")

	first := <-ch
	second := <-ch
	if first.Kind != EntryCommand || second.Kind != EntryOutput {
		t.Errorf("expected command then output, got %v then %v", first.Kind, second.Kind)
	}
	if first.Seq >= second.Seq {
		t.Errorf("expected increasing seq, got %d then %d", first.Seq, second.Seq)
	}
}

func TestTranscriptCancelIdempotent(t *testing.T) {
	tr := NewTranscript(0)
	ch, cancel := tr.Subscribe()

	cancel()
	cancel() // must not panic or double-close

	if _, ok := <-ch; ok {
		t.Error("expected closed channel after cancel")
	}

	// Appends after cancel must not reach the dead subscriber.
	tr.Append(EntryCommand, "ls")
}

func TestTranscriptSlowSubscriberDoesNotBlockWriter(t *testing.T) {
	tr := NewTranscript(1)
	ch, cancel := tr.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			tr.Append(EntryOutput, "> x\n")
		}
		close(done)
	}()

	<-done // would deadlock if fan-out blocked on the full channel

	if got := <-ch; got.Seq != 0 {
		t.Errorf("expected the buffered entry to be the first, got seq %d", got.Seq)
	}
	if tr.Len() != 100 {
		t.Errorf("expected 100 entries recorded, got %d", tr.Len())
	}
}

func TestTranscriptConcurrentAppends(t *testing.T) {
	tr := NewTranscript(0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				tr.Append(EntryOutput, "> x\n")
			}
		}()
	}
	wg.Wait()

	entries := tr.Entries()
	if len(entries) != 400 {
		t.Fatalf("expected 400 entries, got %d", len(entries))
	}
	for i, e := range entries {
		if e.Seq != i {
			t.Fatalf("entry %d has seq %d; appends were lost or reordered", i, e.Seq)
		}
	}
}
