package diagnosis

import (
	"github.com/abhisek/tcmdx/internal/rules"
	"github.com/abhisek/tcmdx/internal/terms"
)

// Axes names the eight-principle patterns the walker compares. The names
// must match pattern names in the eight-principle table.
type Axes struct {
	Exterior   string `yaml:"exterior" json:"exterior"`
	Interior   string `yaml:"interior" json:"interior"`
	Cold       string `yaml:"cold" json:"cold"`
	Heat       string `yaml:"heat" json:"heat"`
	Deficiency string `yaml:"deficiency" json:"deficiency"`
	Excess     string `yaml:"excess" json:"excess"`
}

// DefaultAxes returns the conventional eight-principle pattern names.
func DefaultAxes() Axes {
	return Axes{
		Exterior:   "表证",
		Interior:   "里证",
		Cold:       "寒证",
		Heat:       "热证",
		Deficiency: "虚证",
		Excess:     "实证",
	}
}

// withDefaults fills empty names from DefaultAxes.
func (a Axes) withDefaults() Axes {
	d := DefaultAxes()
	for _, f := range []struct {
		dst *string
		def string
	}{
		{&a.Exterior, d.Exterior},
		{&a.Interior, d.Interior},
		{&a.Cold, d.Cold},
		{&a.Heat, d.Heat},
		{&a.Deficiency, d.Deficiency},
		{&a.Excess, d.Excess},
	} {
		if *f.dst == "" {
			*f.dst = f.def
		}
	}
	return a
}

// Branch is the first routing decision of the walk.
type Branch string

const (
	BranchExterior Branch = "exterior"
	BranchInterior Branch = "interior"
)

// AxisScore is one eight-principle axis with both sides scored.
type AxisScore struct {
	Key         string `json:"key"`
	First       string `json:"first"`
	Second      string `json:"second"`
	FirstScore  int    `json:"first_score"`
	SecondScore int    `json:"second_score"`
}

// Margin is the absolute score difference between the two sides.
func (a AxisScore) Margin() int {
	if a.FirstScore > a.SecondScore {
		return a.FirstScore - a.SecondScore
	}
	return a.SecondScore - a.FirstScore
}

// Axis keys.
const (
	AxisExteriorInterior = "exterior_interior"
	AxisColdHeat         = "cold_heat"
	AxisDeficiencyExcess = "deficiency_excess"
)

// Walk is the full trace of one decision-tree pass.
type Walk struct {
	EightPrinciple *Scores        `json:"-"`
	Axes           []AxisScore    `json:"axes"`
	Branch         Branch         `json:"branch"`
	Route          rules.Category `json:"route"`

	Secondary *Scores `json:"-"`
	Organ     *Scores `json:"-"`

	Specific *MatchResult `json:"specific,omitempty"`
	Fallback *MatchResult `json:"organ,omitempty"`
	Selected *MatchResult `json:"selected,omitempty"`
}

// Walker resolves a term set to a single best-supported pattern by chaining
// category lookups.
type Walker struct {
	scorer *Scorer
	axes   Axes
}

// NewWalker returns a walker over table. Empty axis names fall back to
// DefaultAxes.
func NewWalker(table *rules.Table, axes Axes) *Walker {
	return &Walker{scorer: NewScorer(table), axes: axes.withDefaults()}
}

// Walk runs the decision tree:
//
//  1. Score eight_principle. Exterior wins if exterior >= interior and
//     exterior > 0, otherwise the walk takes the interior branch. With no
//     evidence at all the interior branch is taken.
//  2. Exterior routes to six_meridian when cold >= heat, else
//     defensive_qi_blood. Interior routes to qi_blood_fluid when
//     deficiency >= excess, else etiology.
//  3. The top row of the routed category is the specific candidate.
//  4. The organ category is always scored; its top row is the fallback.
//  5. Selected is the specific candidate, else the fallback, else nil.
func (w *Walker) Walk(set *terms.Set) *Walk {
	ep := w.scorer.Score(rules.CategoryEightPrinciple, set)
	a := w.axes

	walk := &Walk{
		EightPrinciple: ep,
		Axes: []AxisScore{
			{Key: AxisExteriorInterior, First: a.Exterior, Second: a.Interior, FirstScore: ep.Score(a.Exterior), SecondScore: ep.Score(a.Interior)},
			{Key: AxisColdHeat, First: a.Cold, Second: a.Heat, FirstScore: ep.Score(a.Cold), SecondScore: ep.Score(a.Heat)},
			{Key: AxisDeficiencyExcess, First: a.Deficiency, Second: a.Excess, FirstScore: ep.Score(a.Deficiency), SecondScore: ep.Score(a.Excess)},
		},
	}

	exterior, interior := walk.Axes[0].FirstScore, walk.Axes[0].SecondScore
	if exterior >= interior && exterior > 0 {
		walk.Branch = BranchExterior
		if walk.Axes[1].FirstScore >= walk.Axes[1].SecondScore {
			walk.Route = rules.CategorySixMeridian
		} else {
			walk.Route = rules.CategoryDefensiveQiBlood
		}
	} else {
		walk.Branch = BranchInterior
		if walk.Axes[2].FirstScore >= walk.Axes[2].SecondScore {
			walk.Route = rules.CategoryQiBloodFluid
		} else {
			walk.Route = rules.CategoryEtiology
		}
	}

	walk.Secondary = w.scorer.Score(walk.Route, set)
	if top, ok := walk.Secondary.Top(); ok {
		walk.Specific = &top
	}

	walk.Organ = w.scorer.Score(rules.CategoryOrgan, set)
	if top, ok := walk.Organ.Top(); ok {
		walk.Fallback = &top
	}

	switch {
	case walk.Specific != nil:
		walk.Selected = walk.Specific
	case walk.Fallback != nil:
		walk.Selected = walk.Fallback
	}
	return walk
}

// Ranked returns the routed category's results followed by the organ
// results, each in score order.
func (w *Walk) Ranked() []MatchResult {
	var out []MatchResult
	if w.Secondary != nil {
		out = append(out, w.Secondary.Results...)
	}
	if w.Organ != nil {
		out = append(out, w.Organ.Results...)
	}
	return out
}

// UnderDetermined returns the axis most worth probing: the first axis whose
// sides are tied, else the one with the smallest margin.
func (w *Walk) UnderDetermined() AxisScore {
	if len(w.Axes) == 0 {
		return AxisScore{}
	}
	best := w.Axes[0]
	for _, ax := range w.Axes {
		if ax.Margin() == 0 {
			return ax
		}
		if ax.Margin() < best.Margin() {
			best = ax
		}
	}
	return best
}
