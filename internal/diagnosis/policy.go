package diagnosis

import (
	"bytes"
	"strings"
	"text/template"
)

// MaxFollowUps bounds how many symptoms a suspected-pattern reply may ask
// about.
const MaxFollowUps = 2

// Directive tells the reply generator how to respond this turn.
type Directive struct {
	Status   Status `json:"status"`
	Pattern  string `json:"pattern,omitempty"`
	Score    int    `json:"score"`
	Persona  string `json:"persona"`
	Strategy string `json:"strategy"`

	// Probe is set for StatusUnknown.
	Probe *AxisScore `json:"probe,omitempty"`
	// FollowUps is set for StatusSuspected.
	FollowUps []string `json:"follow_ups,omitempty"`
	// Evidence is set for StatusSuspected and StatusConfirmed.
	Evidence string `json:"evidence,omitempty"`
}

// System renders the directive as a system prompt.
func (d Directive) System() string {
	return d.Persona + "\n" + d.Strategy
}

// SelectPolicy maps a walk to one of the three response postures.
func SelectPolicy(w *Walk) Directive {
	if w == nil || w.Selected == nil {
		probe := AxisScore{Key: AxisExteriorInterior}
		if w != nil {
			probe = w.UnderDetermined()
		}
		d := Directive{
			Status:  StatusUnknown,
			Persona: personaUnknown,
			Probe:   &probe,
		}
		d.Strategy = render(unknownTmpl, struct {
			AxisScore
			Hint string
		}{probe, axisHints[probe.Key]})
		return d
	}

	sel := *w.Selected
	if sel.Score < ConfirmThreshold {
		d := Directive{
			Status:    StatusSuspected,
			Pattern:   sel.Pattern,
			Score:     sel.Score,
			Persona:   personaSuspected,
			FollowUps: followUps(sel),
			Evidence:  sel.Evidence,
		}
		d.Strategy = render(suspectedTmpl, d)
		return d
	}

	d := Directive{
		Status:   StatusConfirmed,
		Pattern:  sel.Pattern,
		Score:    sel.Score,
		Persona:  personaConfirmed,
		Evidence: sel.Evidence,
	}
	d.Strategy = render(confirmedTmpl, d)
	return d
}

// followUps picks up to MaxFollowUps missing core terms, falling back to
// missing secondary terms when every core term is already present.
func followUps(r MatchResult) []string {
	src := r.MissingCore
	if len(src) == 0 {
		src = r.MissingSecondary
	}
	if len(src) > MaxFollowUps {
		src = src[:MaxFollowUps]
	}
	return append([]string(nil), src...)
}

const (
	personaUnknown   = "你是一位耐心细致的中医问诊助手。"
	personaSuspected = "你是一位严谨的中医问诊助手。"
	personaConfirmed = "你是一位经验丰富的老中医。"
)

var axisHints = map[string]string{
	AxisExteriorInterior: "是否怕冷、发热，起病是急是缓",
	AxisColdHeat:         "平时更怕冷还是怕热，口渴时喜冷饮还是热饮",
	AxisDeficiencyExcess: "是否容易疲乏气短，病程是长是短",
}

var funcs = template.FuncMap{"join": func(s []string) string { return strings.Join(s, "、") }}

var (
	unknownTmpl = template.Must(template.New("unknown").Funcs(funcs).Parse(
		`目前掌握的症状还不足以判断证型。请只围绕「{{.First}}/{{.Second}}」这一方面，向用户提出一个开放式问题{{if .Hint}}（例如询问{{.Hint}}）{{end}}。不要给出任何诊断结论。`))

	suspectedTmpl = template.Must(template.New("suspected").Funcs(funcs).Parse(
		`根据已知症状，目前怀疑是【{{.Pattern}}】，但证据尚不充分{{if .Evidence}}（{{.Evidence}}）{{end}}。` +
			`{{if .FollowUps}}请向用户追问是否有以下症状：{{join .FollowUps}}。只问这{{len .FollowUps}}个问题。` +
			`{{else}}请追问一个与该证候相关的典型症状。{{end}}用“疑似”来表述，不要下确定结论。`))

	confirmedTmpl = template.Must(template.New("confirmed").Funcs(funcs).Parse(
		`系统辨证结果为【{{.Pattern}}】。依据：{{.Evidence}}。请向用户解释该证型的表现与成因，` +
			`并在结尾附上生活起居与饮食调理建议。不要直接说“确诊”，要说“倾向于”。`))
)

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}
