package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tcmdx/internal/diagnosis"
	"github.com/abhisek/tcmdx/internal/terms"
)

func TestMerge_UnionAndUpdateFlag(t *testing.T) {
	prev := terms.NewSet("恶寒")
	merged, updated := Merge(prev, []terms.Term{terms.Simple("恶寒"), terms.Simple("发热")}, nil, DefaultMergeOptions())

	assert.True(t, updated)
	assert.True(t, merged.Equal(terms.NewSet("恶寒", "发热")))
	assert.Equal(t, []string{"恶寒"}, prev.Names(), "previous set must not be mutated")
}

func TestMerge_RepeatedTermStillCountsAsUpdate(t *testing.T) {
	merged, updated := Merge(terms.NewSet("恶寒"), []terms.Term{terms.Simple("恶寒")}, nil, DefaultMergeOptions())
	assert.True(t, updated)
	assert.Equal(t, 1, merged.Len())
}

func TestMerge_NothingNew(t *testing.T) {
	merged, updated := Merge(nil, []terms.Term{terms.Simple("  ")}, map[string]string{"tongue_color": ""}, DefaultMergeOptions())
	assert.False(t, updated)
	assert.Equal(t, 0, merged.Len())
}

func TestMerge_ImageFeatures(t *testing.T) {
	image := map[string]string{
		"tongue_color": "淡白",
		"tongue_shape": "胖大",
		"coating":      "白腻苔",
		"face_color":   "萎黄",
		"description":  "舌淡胖大，苔白腻，面色萎黄。",
		"unknown_key":  "红",
	}
	merged, updated := Merge(terms.NewSet("乏力"), nil, image, DefaultMergeOptions())
	require.True(t, updated)
	assert.Equal(t, []string{"乏力", "淡白", "胖大", "白腻苔", "萎黄"}, merged.Names())
}

func TestMerge_ImageValueBound(t *testing.T) {
	opts := DefaultMergeOptions()
	opts.MaxFeatureRunes = 4
	merged, updated := Merge(nil, nil, map[string]string{
		"tongue_color": "淡红舌边有齿痕",
		"coating":      "薄白",
	}, opts)
	assert.True(t, updated)
	assert.Equal(t, []string{"薄白"}, merged.Names())
}

func TestMerge_DetailedTermsUseName(t *testing.T) {
	merged, _ := Merge(nil, []terms.Term{terms.Detailed("头痛", map[string]string{"部位": "前额"})}, nil, DefaultMergeOptions())
	assert.Equal(t, []string{"头痛"}, merged.Names())
}

func TestDecodeContext(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		terms   []string
		pattern string
		status  diagnosis.Status
	}{
		{"empty", ``, []string{}, "", diagnosis.StatusUnknown},
		{"not json", `{nope`, []string{}, "", diagnosis.StatusUnknown},
		{"not object", `[1,2]`, []string{}, "", diagnosis.StatusUnknown},
		{"missing fields", `{}`, []string{}, "", diagnosis.StatusUnknown},
		{"full", `{"symptoms":["恶寒","发热"],"last_diag_name":"表证","status":"SUSPECTED"}`, []string{"恶寒", "发热"}, "表证", diagnosis.StatusSuspected},
		{"null name", `{"symptoms":["恶寒"],"last_diag_name":null,"status":"UNKNOWN"}`, []string{"恶寒"}, "", diagnosis.StatusUnknown},
		{"mistyped", `{"symptoms":"恶寒","last_diag_name":3,"status":true}`, []string{}, "", diagnosis.StatusUnknown},
		{"mixed array", `{"symptoms":["恶寒",1,null,"恶寒"," 发热 "]}`, []string{"恶寒", "发热"}, "", diagnosis.StatusUnknown},
		{"detail map", `{"symptoms":{"头痛":{"部位":"前额"},"咳嗽":{}}}`, []string{"头痛", "咳嗽"}, "", diagnosis.StatusUnknown},
		{"bad status", `{"status":"MAYBE"}`, []string{}, "", diagnosis.StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DecodeContext([]byte(tt.raw))
			assert.Equal(t, tt.terms, c.Symptoms)
			assert.Equal(t, tt.pattern, c.Pattern())
			assert.Equal(t, tt.status, c.Status)
		})
	}
}

func TestPresent(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{``, false},
		{`null`, false},
		{`{nope`, false},
		{`[]`, false},
		{`"symptoms"`, false},
		{`{}`, false},
		{`{"other":1}`, false},
		{`{"symptoms":[]}`, true},
		{`{"last_diag_name":null}`, true},
		{`{"status":"UNKNOWN"}`, true},
		{`{"symptoms":[],"last_diag_name":null,"status":"UNKNOWN"}`, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Present([]byte(tt.raw)), tt.raw)
	}
}

func TestContext_MarshalShape(t *testing.T) {
	data, err := json.Marshal(Context{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"symptoms":[],"last_diag_name":null,"status":"UNKNOWN"}`, string(data))

	name := "肝郁气滞证"
	data, err = json.Marshal(Context{Symptoms: []string{"胸闷"}, LastDiagName: &name, Status: diagnosis.StatusSuspected})
	require.NoError(t, err)
	assert.JSONEq(t, `{"symptoms":["胸闷"],"last_diag_name":"肝郁气滞证","status":"SUSPECTED"}`, string(data))

	back := DecodeContext(data)
	assert.Equal(t, "肝郁气滞证", back.Pattern())
	assert.Equal(t, []string{"胸闷"}, back.Symptoms)
}

func TestNext(t *testing.T) {
	res := &diagnosis.Result{
		Walk:      &diagnosis.Walk{Selected: &diagnosis.MatchResult{Pattern: "表证", Score: 10}},
		Directive: diagnosis.Directive{Status: diagnosis.StatusSuspected},
	}
	c := Next(terms.NewSet("恶寒"), res)
	assert.Equal(t, []string{"恶寒"}, c.Symptoms)
	assert.Equal(t, "表证", c.Pattern())
	assert.Equal(t, diagnosis.StatusSuspected, c.Status)

	c = Next(nil, nil)
	assert.Equal(t, Empty(), c)
}
