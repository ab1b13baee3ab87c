// Package fasta contains the minimal FASTA handling the analyzer needs:
// dropping a single header line and joining the sequence lines.
// Multi-record input is deliberately not understood.
package fasta

import (
	"strings"
)

// Record is the text of a single-record FASTA input split into its header
// (without the leading '>') and the joined sequence lines.
type Record struct {
	Header   string
	Sequence string
	// HasHeader reports whether a header line was found and removed.
	HasHeader bool
}

// isLineBreak reports whether r ends a line. Besides "\n" and "\r" this
// covers the vertical tab, form feed, the file/group/record separators,
// NEL and the Unicode line and paragraph separators.
func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// Lines splits text into lines. "\r\n" counts as a single break.
// A trailing line terminator does not produce an empty final line.
func Lines(text string) []string {
	var lines []string
	start := 0
	skipLF := false
	for i, r := range text {
		if skipLF {
			skipLF = false
			if r == '\n' {
				start = i + 1
				continue
			}
		}
		if !isLineBreak(r) {
			continue
		}
		lines = append(lines, text[start:i])
		start = i + len(string(r))
		skipLF = r == '\r'
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

// IsHeader reports whether line is a FASTA header line, ignoring
// surrounding whitespace.
func IsHeader(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), ">")
}

// Parse drops the first header line of text, wherever it appears, and
// concatenates the remaining lines in order. Any further header is kept as
// sequence text so callers validating bases will reject it.
func Parse(text string) Record {
	var (
		rec Record
		sb  strings.Builder
	)
	sb.Grow(len(text))
	for _, line := range Lines(text) {
		if !rec.HasHeader && IsHeader(line) {
			rec.HasHeader = true
			rec.Header = strings.TrimPrefix(strings.TrimSpace(line), ">")
			continue
		}
		sb.WriteString(line)
	}
	rec.Sequence = sb.String()
	return rec
}

// Clean returns the sequence of text with the header removed, all space
// characters stripped and letters uppercased.
func Clean(text string) string {
	seq := Parse(text).Sequence
	return strings.ToUpper(strings.ReplaceAll(seq, " ", ""))
}
