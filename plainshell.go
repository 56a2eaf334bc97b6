// Package plainshell is the embedded shell core of Plain-Editor: it owns the
// transcript of an interactive child-shell session and the configuration for
// spawning one. Session management lives in the shell package, path
// completion in the complete package, and key routing in the input package.
package plainshell

// EntryKind distinguishes the two kinds of transcript entries.
type EntryKind int

const (
	// EntryCommand is the echo of a command the user submitted.
	EntryCommand EntryKind = iota
	// EntryOutput is a sanitized block of child-process output.
	EntryOutput
)

// String returns a short label for logging.
func (k EntryKind) String() string {
	switch k {
	case EntryCommand:
		return "command"
	case EntryOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Entry is one immutable transcript record. Seq is assigned by the
// Transcript at append time and is strictly increasing.
type Entry struct {
	Seq  int
	Kind EntryKind
	Text string
}
