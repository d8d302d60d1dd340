// Package retrieval provides the domain types for graph-backed retrieval:
// queries, vector-search hits, graph expansion contexts, and the merge
// policy that joins them into ranked rows.
package retrieval

import "strings"

// Limit defaults. MaxLimit is the hard cap applied to every request.
const (
	DefaultLimit = 5
	MaxLimit     = 50
)

// Query represents a normalized retrieval query.
type Query struct {
	text  string
	limit int
}

// NewQuery creates a Query, trimming the text and clamping the limit.
// A non-positive limit falls back to defaultLimit; anything above maxLimit
// is clamped down. The text may normalize to empty; callers reject that.
func NewQuery(text string, limit, defaultLimit, maxLimit int) Query {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Query{
		text:  strings.TrimSpace(text),
		limit: limit,
	}
}

// Text returns the trimmed query text.
func (q Query) Text() string { return q.text }

// Limit returns the clamped result limit.
func (q Query) Limit() int { return q.limit }

// IsEmpty reports whether the query text normalized to empty.
func (q Query) IsEmpty() bool { return q.text == "" }
