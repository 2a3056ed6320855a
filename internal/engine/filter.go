package engine

import (
	"strings"

	"cash/internal/core"
)

// Filter applies a free-text query over the merged feed. A record
// matches on a case-insensitive substring of its description or of its
// signed display amount. When the query parses as a decimal number
// (dot or comma separator) it also matches on exact equality with the
// raw amount. An empty query returns the feed unchanged. The stage is pure
// and synchronous; callers recompute it whenever the feed or the query
// changes.
func Filter(entries []FeedEntry, query string) []FeedEntry {
	q := strings.TrimSpace(query)
	if q == "" {
		return entries
	}

	lower := strings.ToLower(q)
	cents, centsErr := core.ParseCents(q)

	out := make([]FeedEntry, 0, len(entries))
	for _, e := range entries {
		switch {
		case strings.Contains(strings.ToLower(e.Description), lower):
			out = append(out, e)
		case strings.Contains(strings.ToLower(e.SignedDisplay), lower):
			out = append(out, e)
		case centsErr == nil && e.Amount.Cents == cents:
			out = append(out, e)
		}
	}
	return out
}
