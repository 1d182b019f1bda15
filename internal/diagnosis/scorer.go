package diagnosis

import (
	"sort"
	"strings"

	"github.com/abhisek/tcmdx/internal/rules"
	"github.com/abhisek/tcmdx/internal/terms"
)

// Scores is the result of scoring one category.
type Scores struct {
	// ByPattern maps a pattern name to its score. Patterns scoring zero are
	// absent.
	ByPattern map[string]int
	// Results is sorted by descending score; equal scores keep row order.
	Results []MatchResult
}

// Score returns the score of pattern, or 0 if it did not match.
func (s *Scores) Score(pattern string) int {
	if s == nil {
		return 0
	}
	return s.ByPattern[pattern]
}

// Top returns the highest scoring result.
func (s *Scores) Top() (MatchResult, bool) {
	if s == nil || len(s.Results) == 0 {
		return MatchResult{}, false
	}
	return s.Results[0], true
}

// Scorer scores rule table categories against a term set.
type Scorer struct {
	table *rules.Table
}

// NewScorer returns a scorer reading from table. A nil table behaves as an
// empty one.
func NewScorer(table *rules.Table) *Scorer {
	return &Scorer{table: table}
}

// Score scores every row of category c. An empty or unknown category, or an
// empty set, yields empty Scores.
func (s *Scorer) Score(c rules.Category, set *terms.Set) *Scores {
	out := &Scores{ByPattern: make(map[string]int)}
	if set.Len() == 0 {
		return out
	}
	names := set.Names()
	for _, row := range s.table.Rows(c) {
		r := scoreRow(row, names)
		if r.Score == 0 {
			continue
		}
		r.Category = c
		out.Results = append(out.Results, r)
	}
	sort.SliceStable(out.Results, func(i, j int) bool {
		return out.Results[i].Score > out.Results[j].Score
	})
	for _, r := range out.Results {
		if _, ok := out.ByPattern[r.Pattern]; !ok {
			out.ByPattern[r.Pattern] = r.Score
		}
	}
	return out
}

// ScoreRow scores a single row against set.
func ScoreRow(row rules.Row, set *terms.Set) MatchResult {
	return scoreRow(row, set.Names())
}

// scoreRow awards PointsCore for each core term that some user term matches.
// The first matching user term (in set order) is consumed by that core term.
// Each unconsumed user term then earns PointsSecondary at most once if it
// matches any secondary term.
func scoreRow(row rules.Row, names []string) MatchResult {
	res := MatchResult{Pattern: row.Pattern}
	consumed := make([]bool, len(names))

	for _, core := range row.Core {
		hit := -1
		for i, n := range names {
			if terms.Match(n, core) {
				hit = i
				break
			}
		}
		if hit < 0 {
			res.MissingCore = append(res.MissingCore, core)
			continue
		}
		consumed[hit] = true
		res.Score += PointsCore
		res.MatchedCore = append(res.MatchedCore, core)
	}

	for i, n := range names {
		if consumed[i] {
			continue
		}
		for _, sec := range row.Secondary {
			if terms.Match(n, sec) {
				res.Score += PointsSecondary
				res.MatchedSecondary = append(res.MatchedSecondary, n)
				break
			}
		}
	}

	for _, sec := range row.Secondary {
		found := false
		for _, n := range names {
			if terms.Match(n, sec) {
				found = true
				break
			}
		}
		if !found {
			res.MissingSecondary = append(res.MissingSecondary, sec)
		}
	}

	res.Evidence = evidence(res)
	return res
}

func evidence(r MatchResult) string {
	var parts []string
	if len(r.MatchedCore) > 0 {
		parts = append(parts, "主症: "+strings.Join(r.MatchedCore, "、"))
	}
	if len(r.MatchedSecondary) > 0 {
		parts = append(parts, "兼症: "+strings.Join(r.MatchedSecondary, "、"))
	}
	return strings.Join(parts, "；")
}
