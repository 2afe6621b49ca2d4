// Package mode names the retrieval strategies a search can run.
package mode

import "strings"

// Mode selects keyword, semantic or hybrid retrieval.
type Mode string

const (
	Keyword  Mode = "keyword"
	Semantic Mode = "semantic"
	// Hybrid runs both retrievals concurrently and merges them. It is the
	// default when a request names no mode.
	Hybrid Mode = "hybrid"
)

// Default is used for requests that omit the mode.
const Default = Hybrid

// All lists the accepted modes in documentation order.
var All = []Mode{Semantic, Keyword, Hybrid}

// Parse resolves a requested mode. Empty selects Default; anything else must
// match a mode exactly.
func Parse(s string) (Mode, bool) {
	if s == "" {
		return Default, true
	}
	m := Mode(s)
	return m, m.IsValid()
}

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	switch m {
	case Keyword, Semantic, Hybrid:
		return true
	}
	return false
}

// UsesVectors reports whether the mode embeds the query.
func (m Mode) UsesVectors() bool { return m == Semantic || m == Hybrid }

// Names joins All for error messages.
func Names() string {
	names := make([]string, len(All))
	for i, m := range All {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
