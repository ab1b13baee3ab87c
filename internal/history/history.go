// Package history records completed analyses so front ends can list
// recent runs. It is never the source of an export: exports always take
// the result value produced by the analysis they describe.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gccontent/internal/analyzer"
)

// Entry is one recorded analysis. Error holds the validation message when
// the input was rejected; the counts are zero in that case.
type Entry struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `json:"source"`
	Length    int       `json:"length"`
	GCCount   int       `json:"gc_count"`
	GCPercent float64   `json:"gc_percent"`
	Error     string    `json:"error,omitempty"`
}

// Store persists entries.
type Store interface {
	// Append assigns an ID (and CreatedAt when zero) and stores e.
	Append(ctx context.Context, e Entry) (Entry, error)
	// Recent returns up to limit entries, newest first. limit <= 0 means all.
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Open returns the store named by kind ("json" or "sqlite") at path.
// An empty kind or "none" returns a nil Store and no error.
func Open(kind, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "none":
		return nil, nil
	case "json":
		if path == "" {
			path = "history.json"
		}
		return NewJSONStore(path), nil
	case "sqlite":
		if path == "" {
			path = "history.db"
		}
		st, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown history store %q", kind)
	}
}

// FromResult builds an entry from the outcome of one analysis.
func FromResult(source string, res analyzer.Result, err error) Entry {
	e := Entry{Source: source}
	if err != nil {
		e.Error = err.Error()
		return e
	}
	e.Length = res.Length
	e.GCCount = res.GCCount
	e.GCPercent = res.GCPercent
	return e
}
