// Package analyzer validates a DNA sequence given as raw text and computes
// its length and GC content.
//
// Raw text may start with one FASTA header line. Header removal, space
// stripping and uppercasing happen before validation; only the four
// canonical bases are accepted.
package analyzer

import (
	"io"
	"unicode/utf8"

	"gccontent/internal/fasta"
)

// Result is the summary of a validated sequence.
type Result struct {
	Length    int     `json:"length" yaml:"length"`
	GCCount   int     `json:"gc_count" yaml:"gc_count"`
	ATCount   int     `json:"at_count" yaml:"at_count"`
	GCPercent float64 `json:"gc_percent" yaml:"gc_percent"`
	// Sequence is the cleaned, uppercase sequence the statistics describe.
	Sequence string `json:"sequence,omitempty" yaml:"sequence,omitempty"`
}

// Analyze cleans raw and returns its statistics, or a *ValidationError
// when the cleaned sequence is empty or contains a non-ATGC character.
func Analyze(raw string) (Result, error) {
	return analyzeClean(fasta.Clean(raw))
}

func analyzeClean(seq string) (Result, error) {
	if seq == "" {
		return Result{}, &ValidationError{Kind: EmptySequence}
	}
	var gc, at int
	for i, r := range seq {
		switch r {
		case 'G', 'C':
			gc++
		case 'A', 'T':
			at++
		default:
			return Result{}, &ValidationError{Kind: InvalidCharacters, Offset: i, Char: r}
		}
	}
	n := gc + at
	return Result{
		Length:    n,
		GCCount:   gc,
		ATCount:   at,
		GCPercent: float64(gc) / float64(n) * 100,
		Sequence:  seq,
	}, nil
}

// ReadText reads all of r as UTF-8 text. Failures are returned as *InputError.
func ReadText(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", &InputError{Op: "read input", Err: err}
	}
	if !utf8.Valid(data) {
		return "", &InputError{Op: "decode input", Err: errNotUTF8}
	}
	return string(data), nil
}

// AnalyzeReader reads r and analyzes its content.
func AnalyzeReader(r io.Reader) (Result, error) {
	text, err := ReadText(r)
	if err != nil {
		return Result{}, err
	}
	return Analyze(text)
}
