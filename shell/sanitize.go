package shell

import (
	"regexp"
	"strings"
)

// DefaultMarker prefixes every line of sanitized output in the transcript.
const DefaultMarker = "> "

// noiseRules are applied in order to each decoded chunk. The order is
// load-bearing: the narrow mode-toggle and cursor rules must run before the
// generic escape-sequence rules, and line-level rules must run before
// sequence-level rules so a separator line is removed whole instead of
// leaving an empty line behind. Without terminal emulation any residual
// escape sequence is unrecoverable noise; a missed pattern is acceptable,
// deleting real output is not.
var noiseRules = []struct {
	name string
	re   *regexp.Regexp
}{
	// Lines consisting only of separator characters.
	{"separator-line", regexp.MustCompile(`(?m)^[-=_~*#]{2,}[ \t]*\r?$\n?`)},
	// Warnings emitted when the terminal type is unset or unusable.
	{"term-warning", regexp.MustCompile(`(?m)^.*(TERM environment variable not set|terminal type not set|No value for \$TERM|terminal is not fully functional).*\r?\n?`)},
	// Bracketed paste, focus tracking, mouse reporting, cursor show/hide.
	{"mode-toggle", regexp.MustCompile(`\x1b\[\?(?:2004|1004|100[0-6]|25)[hl]`)},
	// Cursor positioning and screen clearing.
	{"cursor", regexp.MustCompile(`\x1b\[[0-9;]*[ABCDEFGHJKSTfsu]`)},
	// Operating-system commands (window title etc.), terminated by BEL or ST.
	{"osc", regexp.MustCompile(`\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)`)},
	// Any remaining CSI sequence.
	{"csi", regexp.MustCompile(`\x1b\[[0-9;?=<>]*[ -/]*[@-~]`)},
	// Any remaining two-byte escape sequence.
	{"escape", regexp.MustCompile(`\x1b.`)},
}

// Sanitize strips terminal noise from one decoded output chunk and formats
// the remainder for the transcript: every surviving line is prefixed with
// marker and the block ends with exactly one newline. The chunk need not be
// line-aligned. An all-noise chunk yields the empty string; the caller must
// then append nothing. A sequence split across two chunks is not reassembled.
func Sanitize(chunk, marker string) string {
	text := strings.TrimSpace(chunk)

	for _, rule := range noiseRules {
		text = rule.re.ReplaceAllString(text, "")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(marker)
		b.WriteString(strings.TrimRight(line, "\r"))
		b.WriteString("\n")
	}
	return b.String()
}
