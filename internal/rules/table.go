// Package rules holds the read-only clinical knowledge base: per-category
// pattern rule tables, the symptom vocabulary handed to term extraction, and
// the code book that maps table ids to term names.
//
// A Table is built once and never mutated afterwards; it is safe for
// concurrent readers without locking.
package rules

import (
	"sort"
	"strings"
)

// Category identifies one rule table slice.
type Category string

const (
	CategoryEightPrinciple   Category = "eight_principle"
	CategorySixMeridian      Category = "six_meridian"
	CategoryDefensiveQiBlood Category = "defensive_qi_blood"
	CategoryQiBloodFluid     Category = "qi_blood_fluid"
	CategoryEtiology         Category = "etiology"
	CategoryOrgan            Category = "organ"
)

// KnownCategories lists the categories the decision tree consults, in the
// order they are usually presented.
func KnownCategories() []Category {
	return []Category{
		CategoryEightPrinciple,
		CategorySixMeridian,
		CategoryDefensiveQiBlood,
		CategoryQiBloodFluid,
		CategoryEtiology,
		CategoryOrgan,
	}
}

// RawRow is a rule row as read from a source, before cell normalization.
type RawRow struct {
	Pattern   string `yaml:"pattern"`
	Core      string `yaml:"core"`
	Secondary string `yaml:"secondary"`
}

// Row is a normalized rule row.
type Row struct {
	Pattern   string
	Core      []string
	Secondary []string
}

// Symptom describes a known symptom for the term extractor: its term name,
// an optional code, and up to three collection dimensions.
type Symptom struct {
	Code       string      `yaml:"code" json:"code,omitempty"`
	Name       string      `yaml:"name" json:"name"`
	Dimensions []Dimension `yaml:"dimensions" json:"dimensions,omitempty"`
}

// Dimension is one structured detail of a symptom with its allowed options.
// An empty option list means free text.
type Dimension struct {
	Name    string   `yaml:"name" json:"name"`
	Options []string `yaml:"options" json:"options,omitempty"`
}

// Source is everything a loader produces before a Table is built.
type Source struct {
	Codes      map[string]string     `yaml:"codes"`
	Symptoms   []Symptom             `yaml:"symptoms"`
	Categories map[Category][]RawRow `yaml:"categories"`
}

// Table is the immutable knowledge base.
type Table struct {
	rows     map[Category][]Row
	symptoms []Symptom
	skipped  int
}

// Build normalizes src into a Table. Rows without a pattern name or without
// any terms are skipped; the count is available from Skipped. Cell atoms
// found in the code book are translated to their term names.
func Build(src Source) *Table {
	t := &Table{rows: make(map[Category][]Row, len(src.Categories))}

	for cat, raws := range src.Categories {
		rows := make([]Row, 0, len(raws))
		for _, raw := range raws {
			row, ok := buildRow(raw, src.Codes)
			if !ok {
				t.skipped++
				continue
			}
			rows = append(rows, row)
		}
		if len(rows) > 0 {
			t.rows[cat] = rows
		}
	}

	for _, s := range src.Symptoms {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			continue
		}
		t.symptoms = append(t.symptoms, s)
	}
	return t
}

func buildRow(raw RawRow, codes map[string]string) (Row, bool) {
	name := strings.TrimSpace(raw.Pattern)
	if name == "" {
		return Row{}, false
	}
	row := Row{
		Pattern:   name,
		Core:      translate(NormalizeCell(raw.Core), codes),
		Secondary: translate(NormalizeCell(raw.Secondary), codes),
	}
	if len(row.Core) == 0 && len(row.Secondary) == 0 {
		return Row{}, false
	}
	return row, true
}

func translate(atoms []string, codes map[string]string) []string {
	if len(codes) == 0 {
		return atoms
	}
	for i, a := range atoms {
		if name, ok := codes[a]; ok && strings.TrimSpace(name) != "" {
			atoms[i] = strings.TrimSpace(name)
		}
	}
	return atoms
}

// Rows returns the rows of a category in source order. An unknown or empty
// category yields nil. The returned slice must not be modified.
func (t *Table) Rows(c Category) []Row {
	if t == nil {
		return nil
	}
	return t.rows[c]
}

// Categories returns the categories that have at least one row, sorted.
func (t *Table) Categories() []Category {
	if t == nil {
		return nil
	}
	out := make([]Category, 0, len(t.rows))
	for c := range t.rows {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Symptoms returns the extraction vocabulary.
func (t *Table) Symptoms() []Symptom {
	if t == nil {
		return nil
	}
	return t.symptoms
}

// Skipped returns how many source rows were dropped as malformed.
func (t *Table) Skipped() int {
	if t == nil {
		return 0
	}
	return t.skipped
}
