package analyzer

import (
	"errors"
	"io"
)

var errNotUTF8 = errors.New("input is not valid UTF-8 text")

// Sink receives the outcome of one analysis. Shells implement it to render
// or export what Process produced.
type Sink interface {
	Result(Result) error
	Invalid(*ValidationError) error
}

// Process reads src, analyzes it and hands the outcome to sink. Input
// errors are returned without touching sink; errors returned by sink are
// passed through.
func Process(src io.Reader, sink Sink) error {
	res, err := AnalyzeReader(src)
	if err != nil {
		if verr, ok := AsValidation(err); ok {
			return sink.Invalid(verr)
		}
		return err
	}
	return sink.Result(res)
}

// SinkFuncs adapts a pair of functions to Sink.
type SinkFuncs struct {
	OnResult  func(Result) error
	OnInvalid func(*ValidationError) error
}

func (s SinkFuncs) Result(r Result) error {
	if s.OnResult == nil {
		return nil
	}
	return s.OnResult(r)
}

func (s SinkFuncs) Invalid(e *ValidationError) error {
	if s.OnInvalid == nil {
		return nil
	}
	return s.OnInvalid(e)
}
