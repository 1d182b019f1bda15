// Package terms defines the clinical observation vocabulary the matching
// engine operates on: a Term, the accumulated Set of terms for a
// conversation, and the tolerant matching predicate used against rule tables.
package terms

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Term is a single clinical observation. The simple form carries only a
// name; the detailed form also carries per-dimension details extracted from
// the user's wording (e.g. 部位 → 前额). Scoring only ever looks at Name.
type Term struct {
	Name    string
	Details map[string]string
}

// Simple returns a term with no details.
func Simple(name string) Term {
	return Term{Name: Normalize(name)}
}

// Detailed returns a term with per-dimension details. Empty dimensions and
// values are dropped; a detail map that ends up empty yields a simple term.
func Detailed(name string, details map[string]string) Term {
	t := Term{Name: Normalize(name)}
	for dim, val := range details {
		dim, val = strings.TrimSpace(dim), strings.TrimSpace(val)
		if dim == "" || val == "" {
			continue
		}
		if t.Details == nil {
			t.Details = make(map[string]string, len(details))
		}
		t.Details[dim] = val
	}
	return t
}

// IsDetailed reports whether the term carries any details.
func (t Term) IsDetailed() bool { return len(t.Details) > 0 }

// String renders the term as "name" or "name(dim:val,dim:val)" with
// dimensions in sorted order.
func (t Term) String() string {
	if !t.IsDetailed() {
		return t.Name
	}
	dims := make([]string, 0, len(t.Details))
	for d := range t.Details {
		dims = append(dims, d)
	}
	sort.Strings(dims)

	var b strings.Builder
	b.WriteString(t.Name)
	b.WriteByte('(')
	for i, d := range dims {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(d)
		b.WriteByte(':')
		b.WriteString(t.Details[d])
	}
	b.WriteByte(')')
	return b.String()
}

// Names returns the names of ts in order, skipping empty names.
func Names(ts []Term) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		if t.Name != "" {
			out = append(out, t.Name)
		}
	}
	return out
}

// Normalize folds s to NFKC and trims surrounding whitespace. Full-width
// ASCII variants collapse to their half-width forms, so "（" and "(" or
// "，" and "," compare equal afterwards.
func Normalize(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

// Match reports whether a and b name the same observation under the
// engine's tolerant rule: after normalization, either one is a substring of
// the other. Rule tables are written loosely ("恶寒" vs "恶寒重"), so exact
// equality is not used. Empty strings never match.
func Match(a, b string) bool {
	a, b = Normalize(a), Normalize(b)
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
