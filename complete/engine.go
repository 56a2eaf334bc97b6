// Package complete implements shell-style path completion for a command
// line. Complete is a pure function of the input, the working directory,
// and the filesystem at call time; no state survives between calls.
package complete

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"mvdan.cc/sh/v3/syntax"
)

// ResultKind tags the outcome of a completion attempt.
type ResultKind int

const (
	// NoMatch means no directory entry matched (or the directory was
	// unreadable, which is folded into NoMatch rather than surfaced).
	NoMatch ResultKind = iota
	// Unique means exactly one entry matched; Text is the full input line
	// ending in a path separator for a directory or a space for a file.
	Unique
	// CommonPrefix means several entries matched and share a prefix
	// strictly longer than what was typed; Text extends the line to it.
	CommonPrefix
	// Ambiguous means several entries matched with no further unambiguous
	// extension; Candidates lists them sorted and the input is left alone.
	Ambiguous
)

// Result is the outcome of one completion attempt.
type Result struct {
	Kind       ResultKind
	Text       string
	Candidates []string
}

// PathContext is the path interpretation of the segment being completed:
// the directory to list and the name prefix to match within it.
type PathContext struct {
	Absolute bool
	Dir      string // up to and including the last separator; may be empty
	Prefix   string // partial name after the last separator
}

// PathContextFor splits a segment at its last path separator.
func PathContextFor(segment string) PathContext {
	sep := string(filepath.Separator)
	pc := PathContext{Absolute: strings.HasPrefix(segment, sep)}
	if i := strings.LastIndex(segment, sep); i >= 0 {
		pc.Dir = segment[:i+1]
		pc.Prefix = segment[i+1:]
	} else {
		pc.Prefix = segment
	}
	return pc
}

// listDir is the directory whose entries are matched: the segment's own
// directory when absolute, otherwise resolved against cwd.
func (pc PathContext) listDir(cwd string) string {
	if pc.Absolute {
		return pc.Dir
	}
	return filepath.Join(cwd, pc.Dir)
}

// Complete completes the final token of input against the filesystem.
// Everything up to and including the last whitespace run is an immutable
// command prefix, reattached verbatim to any returned text; only the final
// token is interpreted as a path. An unreadable directory yields NoMatch.
func Complete(input, cwd string) Result {
	cmdPrefix, segment := splitLastToken(input)
	pc := PathContextFor(segment)

	listDir := pc.listDir(cwd)
	entries, err := os.ReadDir(listDir)
	if err != nil {
		return Result{Kind: NoMatch}
	}

	var matches []string
	dirs := make(map[string]bool)
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, pc.Prefix) {
			continue
		}
		matches = append(matches, name)
		dirs[name] = isDir(entry, listDir)
	}
	sort.Strings(matches)

	switch len(matches) {
	case 0:
		return Result{Kind: NoMatch}
	case 1:
		name := matches[0]
		tail := " " // ready for the next argument
		if dirs[name] {
			tail = string(filepath.Separator) // descend for further completion
		}
		return Result{Kind: Unique, Text: cmdPrefix + quotePath(pc.Dir+name) + tail}
	}

	common := commonPrefix(matches)
	if len(common) > len(pc.Prefix) {
		// Extensible but not yet unique; no trailing separator or space.
		return Result{Kind: CommonPrefix, Text: cmdPrefix + pc.Dir + common}
	}
	return Result{Kind: Ambiguous, Candidates: matches}
}

// splitLastToken splits input after its last whitespace run. The first
// return is the command prefix (possibly empty), the second the segment to
// complete (empty when input ends in whitespace).
func splitLastToken(input string) (prefix, segment string) {
	i := strings.LastIndexFunc(input, unicode.IsSpace)
	if i < 0 {
		return "", input
	}
	return input[:i+1], input[i+1:]
}

// isDir resolves symlinked entries through the filesystem so a link to a
// directory completes like a directory.
func isDir(entry fs.DirEntry, dir string) bool {
	if entry.Type()&fs.ModeSymlink != 0 {
		info, err := os.Stat(filepath.Join(dir, entry.Name()))
		return err == nil && info.IsDir()
	}
	return entry.IsDir()
}

// quotePath quotes path for the shell when it contains metacharacters.
// Plain names pass through unchanged, so completing "main.g" still yields
// literally "main.go".
func quotePath(path string) string {
	quoted, err := syntax.Quote(path, syntax.LangBash)
	if err != nil {
		return path
	}
	return quoted
}

// commonPrefix returns the longest string that is a prefix of every name.
// names must be non-empty.
func commonPrefix(names []string) string {
	common := names[0]
	for _, name := range names[1:] {
		for !strings.HasPrefix(name, common) {
			common = common[:len(common)-1]
		}
	}
	return common
}
