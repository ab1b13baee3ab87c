// Package report renders analysis results for people and files.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"

	"gccontent/internal/analyzer"
)

// DefaultWidth is the FASTA line width used when none is configured.
const DefaultWidth = 60

// Percent formats a GC percentage with two decimals.
func Percent(p float64) string {
	return fmt.Sprintf("%.2f", p)
}

// Summary is the three-line report shown after a successful analysis.
func Summary(r analyzer.Result) string {
	return fmt.Sprintf("Sequence Length: %d\nTotal G+C Bases: %d\nGC Percentage: %s%%",
		r.Length, r.GCCount, Percent(r.GCPercent))
}

// Export is the content of a saved analysis: the summary followed by the
// full cleaned sequence.
func Export(r analyzer.Result) string {
	return "Analysis Report:\n" + Summary(r) + "\n\nFull Sequence:\n" + r.Sequence
}

// Download is the short report offered by the web form.
func Download(r analyzer.Result) string {
	return fmt.Sprintf("GC Analysis Report\nLength: %d\nGC%%: %s%%", r.Length, Percent(r.GCPercent))
}

// WriteFASTA writes r.Sequence as a single FASTA record named id, wrapped
// at width columns. The description carries length and GC content.
func WriteFASTA(w io.Writer, id string, r analyzer.Result, width int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	id = strings.Join(strings.Fields(id), "_")
	if id == "" {
		id = "sequence"
	}
	s := linear.NewSeq(id, alphabet.BytesToLetters([]byte(r.Sequence)), alphabet.DNA)
	s.Desc = fmt.Sprintf("length=%d gc=%s%%", r.Length, Percent(r.GCPercent))
	if _, err := fasta.NewWriter(w, width).Write(s); err != nil {
		return fmt.Errorf("write fasta record %q: %w", id, err)
	}
	return nil
}
