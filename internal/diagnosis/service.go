// Package diagnosis scores rule-table patterns against a symptom term set,
// walks the eight-principle decision tree, and selects how the next reply
// should respond.
package diagnosis

import (
	"github.com/abhisek/tcmdx/internal/rules"
	"github.com/abhisek/tcmdx/internal/terms"
)

// Service runs the decision tree and response policy over one knowledge
// base. It holds no per-conversation state and is safe for concurrent use.
type Service struct {
	walker *Walker
}

// NewService creates a diagnosis service over table.
func NewService(table *rules.Table, axes Axes) *Service {
	return &Service{walker: NewWalker(table, axes)}
}

// Result is the outcome of diagnosing one term set.
type Result struct {
	Walk      *Walk
	Directive Directive
}

// Pattern returns the selected pattern name, or "" when nothing matched.
func (r *Result) Pattern() string {
	if r == nil || r.Walk == nil || r.Walk.Selected == nil {
		return ""
	}
	return r.Walk.Selected.Pattern
}

// Score returns the selected pattern's score, or 0.
func (r *Result) Score() int {
	if r == nil || r.Walk == nil || r.Walk.Selected == nil {
		return 0
	}
	return r.Walk.Selected.Score
}

// Diagnose walks the decision tree for set and picks a response directive.
// It never fails; a nil or empty set yields StatusUnknown.
func (s *Service) Diagnose(set *terms.Set) *Result {
	walk := s.walker.Walk(set)
	return &Result{Walk: walk, Directive: SelectPolicy(walk)}
}
