package plainshell

import "sync"

// defaultSubscriberBuffer is the channel capacity handed to subscribers
// when the caller does not specify one.
const defaultSubscriberBuffer = 64

// Transcript is the ordered, append-only record of command echoes and
// sanitized process output. All appends are serialized through one mutex,
// so entries from the session's reader goroutine and from synchronous
// command echoes can never interleave or lose a sequence number.
type Transcript struct {
	mu      sync.Mutex
	entries []Entry
	subs    map[int]chan Entry
	nextSub int
	bufSize int
}

// NewTranscript creates an empty transcript. bufSize is the per-subscriber
// channel capacity; values <= 0 select the default.
func NewTranscript(bufSize int) *Transcript {
	if bufSize <= 0 {
		bufSize = defaultSubscriberBuffer
	}
	return &Transcript{
		subs:    make(map[int]chan Entry),
		bufSize: bufSize,
	}
}

// Append records a new entry and fans it out to subscribers. The assigned
// sequence number is the entry's index; it never repeats or decreases.
// Fan-out is non-blocking: a subscriber whose buffer is full misses the
// entry rather than stalling the writer.
func (t *Transcript) Append(kind EntryKind, text string) Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := Entry{Seq: len(t.entries), Kind: kind, Text: text}
	t.entries = append(t.entries, e)

	for _, ch := range t.subs {
		select {
		case ch <- e:
		default:
		}
	}
	return e
}

// Entries returns a copy of all entries appended so far, in order.
func (t *Transcript) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries appended so far.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Subscribe registers a new subscriber and returns its channel together
// with a cancel function. Cancel is idempotent and closes the channel.
func (t *Transcript) Subscribe() (<-chan Entry, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextSub
	t.nextSub++
	ch := make(chan Entry, t.bufSize)
	t.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			t.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}
