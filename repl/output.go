package main

import (
	"bytes"
	"io"
	"os"

	"golang.org/x/term"
)

// crlfWriter converts \n to \r\n (needed because raw mode disables the
// kernel's NL→CRNL translation).
type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	replaced := bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))
	_, err := c.w.Write(replaced)
	return len(p), err // report original length to caller
}

// transcriptLog returns a writer for teeing transcript entries to f, or nil
// when f is the terminal: the editor already renders entries on the tty and
// duplicating them on screen would be noise. With stdout redirected to a
// file this gives a plain session log.
func transcriptLog(f *os.File) io.Writer {
	if term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return f
}
