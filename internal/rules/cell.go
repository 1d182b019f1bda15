package rules

import (
	"regexp"
	"strings"

	"github.com/abhisek/tcmdx/internal/terms"
)

// parenthetical matches one innermost bracketed aside. Both bracket styles
// are listed even though NFKC folding runs first, so a cell that bypassed
// folding is still handled.
var parenthetical = regexp.MustCompile(`[(（][^()（）]*[)）]`)

// cellStrip removes emphasis markers and stray closing brackets.
var cellStrip = strings.NewReplacer(
	"*", "",
	")", "", "）", "",
)

// isCellSeparator reports whether r separates alternatives inside a cell.
func isCellSeparator(r rune) bool {
	switch r {
	case ';', '；', ',', '，', '、':
		return true
	}
	return false
}

// NormalizeCell cleans a raw rule-table cell into its atomic terms, in order.
//
// The cell is NFKC-folded, bracketed asides are removed (the surrounding
// text is kept), and the remainder is split on half- and full-width
// semicolons and commas and the enumeration comma. An opening bracket left
// unmatched drops the rest of its fragment. Emphasis markers and stray
// closers are stripped, fragments are trimmed and empty ones dropped. Output atoms contain no
// separators, brackets or markers, so normalizing the joined output again
// returns it unchanged.
func NormalizeCell(raw string) []string {
	s := terms.Normalize(raw)
	if s == "" {
		return nil
	}
	for {
		next := parenthetical.ReplaceAllString(s, "")
		if next == s {
			break
		}
		s = next
	}

	parts := strings.FieldsFunc(s, isCellSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if i := strings.IndexAny(p, "(（"); i >= 0 {
			p = p[:i]
		}
		p = strings.TrimSpace(cellStrip.Replace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
