package analyzer

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeScenarios(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		length    int
		gcCount   int
		gcPercent float64
	}{
		{"header and data", ">seq1\nATGCGC", 6, 4, 400.0 / 6.0},
		{"no gc", "AAAA", 4, 0, 0},
		{"all gc", "GGCC", 4, 4, 100},
		{"multi line", ">h\nATG\nCAT\n", 6, 2, 200.0 / 6.0},
		{"crlf and trailing newline", ">h\r\nGC\r\nAT\r\n", 4, 2, 50},
		{"header after data", "ATGC\n>comment", 4, 2, 50},
		{"header after data with newline", "ATGC\n>comment\n", 4, 2, 50},
		{"form feed line break", "AT\fGC", 4, 2, 50},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Analyze(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.length, res.Length)
			assert.Equal(t, tc.gcCount, res.GCCount)
			assert.InDelta(t, tc.gcPercent, res.GCPercent, 1e-9)
		})
	}
}

func TestAnalyzeCountsAddUp(t *testing.T) {
	inputs := []string{
		"atgc",
		">x\nAAT TGG\ncc\n",
		"  G  \n\nttt",
		strings.Repeat("GATTACA", 100),
	}
	for _, in := range inputs {
		res, err := Analyze(in)
		require.NoError(t, err, in)
		assert.Equal(t, res.Length, res.GCCount+res.ATCount, in)
		assert.Equal(t, res.Length, len(res.Sequence), in)
		assert.InDelta(t, float64(res.GCCount)/float64(res.Length)*100, res.GCPercent, 1e-9, in)
		assert.GreaterOrEqual(t, res.GCPercent, 0.0)
		assert.LessOrEqual(t, res.GCPercent, 100.0)
	}
}

func TestAnalyzeEquivalences(t *testing.T) {
	want, err := Analyze("ATGC")
	require.NoError(t, err)

	for _, in := range []string{"atgc", ">header\nATGC", "AT GC", " a t\ng c "} {
		got, err := Analyze(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n", ">only a header\n", ">h\n   \n"} {
		_, err := Analyze(in)
		require.Error(t, err, "%q", in)
		assert.True(t, errors.Is(err, ErrEmptySequence), "%q", in)
		assert.False(t, errors.Is(err, ErrInvalidCharacters), "%q", in)
		assert.Equal(t, "No valid DNA sequence found.", err.Error())
	}
}

func TestAnalyzeInvalidCharacters(t *testing.T) {
	testCases := []struct {
		input  string
		offset int
		char   rune
	}{
		{"ATGX", 3, 'X'},
		{"ATGU", 3, 'U'},
		{"ATNG", 2, 'N'},
		{"AT\tGC", 2, '\t'},
		{">s1\nATGC\n>s2\nGG", 4, '>'},
		{"ATGC1", 4, '1'},
		{">a\nAT\n>b\nGC", 2, '>'},
		{"AT\x01GC", 2, '\x01'},
	}
	for _, tc := range testCases {
		_, err := Analyze(tc.input)
		require.Error(t, err, "%q", tc.input)
		assert.ErrorIs(t, err, ErrInvalidCharacters)
		assert.Equal(t, "Sequence contains non-DNA characters.", err.Error())

		verr, ok := AsValidation(err)
		require.True(t, ok)
		assert.Equal(t, tc.offset, verr.Offset, "%q", tc.input)
		assert.Equal(t, tc.char, verr.Char, "%q", tc.input)
	}
}

func TestAnalyzeReaderInputError(t *testing.T) {
	_, err := AnalyzeReader(iotest.ErrReader(errors.New("disk gone")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInput)
	_, isValidation := AsValidation(err)
	assert.False(t, isValidation)

	_, err = AnalyzeReader(strings.NewReader("ATG\xffC"))
	assert.ErrorIs(t, err, ErrInput)

	res, err := AnalyzeReader(strings.NewReader(">r\nGGAA\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, res.Length)
}

func TestProcess(t *testing.T) {
	var (
		got     []Result
		invalid []*ValidationError
	)
	sink := SinkFuncs{
		OnResult:  func(r Result) error { got = append(got, r); return nil },
		OnInvalid: func(e *ValidationError) error { invalid = append(invalid, e); return nil },
	}

	require.NoError(t, Process(strings.NewReader("GGCC"), sink))
	require.NoError(t, Process(strings.NewReader("GGCCU"), sink))
	require.Len(t, got, 1)
	require.Len(t, invalid, 1)
	assert.Equal(t, 100.0, got[0].GCPercent)
	assert.Equal(t, InvalidCharacters, invalid[0].Kind)

	err := Process(iotest.ErrReader(errors.New("boom")), sink)
	assert.ErrorIs(t, err, ErrInput)
	assert.Len(t, got, 1)
	assert.Len(t, invalid, 1)

	sinkErr := errors.New("render failed")
	err = Process(strings.NewReader("AT"), SinkFuncs{OnResult: func(Result) error { return sinkErr }})
	assert.ErrorIs(t, err, sinkErr)
}
