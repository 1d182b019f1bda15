// Package session holds the per-conversation Diagnosis Context and the
// turn-over-turn merging of newly observed terms into it.
package session

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/abhisek/tcmdx/internal/diagnosis"
	"github.com/abhisek/tcmdx/internal/terms"
)

// Context is the persisted state of one conversation.
type Context struct {
	Symptoms     []string         `json:"symptoms"`
	LastDiagName *string          `json:"last_diag_name"`
	Status       diagnosis.Status `json:"status"`
}

// Empty returns the context of a conversation that has not started.
func Empty() Context {
	return Context{Symptoms: []string{}, Status: diagnosis.StatusUnknown}
}

// Terms returns the symptoms as a fresh term set.
func (c Context) Terms() *terms.Set {
	return terms.NewSet(c.Symptoms...)
}

// Pattern returns the last selected pattern name, or "".
func (c Context) Pattern() string {
	if c.LastDiagName == nil {
		return ""
	}
	return *c.LastDiagName
}

// MarshalJSON always emits symptoms as an array.
func (c Context) MarshalJSON() ([]byte, error) {
	type plain Context
	if c.Symptoms == nil {
		c.Symptoms = []string{}
	}
	if c.Status == "" {
		c.Status = diagnosis.StatusUnknown
	}
	return json.Marshal(plain(c))
}

// DecodeContext reads a saved context leniently. Missing or mistyped fields
// take their empty defaults; input that is not a JSON object yields Empty.
//
// symptoms may also be an object keyed by term name (the older detail-map
// convention); its keys are taken as the terms.
func DecodeContext(raw []byte) Context {
	out := Empty()
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return out
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return out
	}

	set := terms.NewSet()
	sym := doc.Get("symptoms")
	switch {
	case sym.IsArray():
		for _, v := range sym.Array() {
			if v.Type == gjson.String {
				set.Add(v.String())
			}
		}
	case sym.IsObject():
		sym.ForEach(func(key, _ gjson.Result) bool {
			set.Add(key.String())
			return true
		})
	}
	out.Symptoms = set.Names()

	if name := doc.Get("last_diag_name"); name.Type == gjson.String {
		if s := strings.TrimSpace(name.String()); s != "" {
			out.LastDiagName = &s
		}
	}
	if st := doc.Get("status"); st.Type == gjson.String {
		out.Status = diagnosis.ParseStatus(st.String())
	}
	return out
}

// Present reports whether raw carries a saved context: a JSON object with
// at least one of the context fields. An empty object counts as absent.
func Present(raw []byte) bool {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return false
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return false
	}
	for _, key := range []string{"symptoms", "last_diag_name", "status"} {
		if doc.Get(key).Exists() {
			return true
		}
	}
	return false
}

// Next builds the context that follows a turn: the merged term set and the
// outcome of diagnosing it.
func Next(merged *terms.Set, res *diagnosis.Result) Context {
	out := Empty()
	out.Symptoms = merged.Names()
	if res == nil {
		return out
	}
	if p := res.Pattern(); p != "" {
		out.LastDiagName = &p
	}
	out.Status = res.Directive.Status
	return out
}
