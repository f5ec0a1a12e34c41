package analytics

import (
	"strings"
	"time"

	"scottys/backend/internal/domain"
)

// FilterSpec is a normalized, request-scoped report filter. It is never
// mutated after construction.
type FilterSpec struct {
	From          time.Time
	To            time.Time
	Categories    []string
	Subcategories []string
}

// NewFilterSpec validates the date range and normalizes both selections
// (trimmed, deduplicated, order preserved). Selections may contain the
// domain.SelectionAll sentinel, which lifts the restriction on that dimension.
func NewFilterSpec(from, to time.Time, categories, subcategories []string) (FilterSpec, error) {
	from = Midnight(from)
	to = Midnight(to)
	if from.After(to) {
		return FilterSpec{}, ErrInvalidRange
	}

	return FilterSpec{
		From:          from,
		To:            to,
		Categories:    normalizeSelection(categories),
		Subcategories: normalizeSelection(subcategories),
	}, nil
}

func normalizeSelection(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func containsAll(values []string) bool {
	for _, v := range values {
		if v == domain.SelectionAll {
			return true
		}
	}
	return false
}

// Midnight truncates t to its calendar day in UTC. All report date math is
// done on whole days.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(Midnight(b).Sub(Midnight(a)) / (24 * time.Hour))
}
