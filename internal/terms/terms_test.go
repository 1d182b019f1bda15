package terms

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"恶寒", "恶寒", true},
		{"恶寒", "恶寒重", true},
		{"恶寒重", "恶寒", true},
		{"发热", "恶寒", false},
		{" 头痛 ", "头痛", true},
		{"ＡＢ", "AB", true}, // full-width folds to half-width
		{"", "头痛", false},
		{"头痛", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := Match(tt.a, tt.b); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDetailed_DropsEmptyDetails(t *testing.T) {
	term := Detailed("头痛", map[string]string{"部位": "前额", "性质": " ", "": "x"})
	assert.True(t, term.IsDetailed())
	assert.Equal(t, map[string]string{"部位": "前额"}, term.Details)
	assert.Equal(t, "头痛(部位:前额)", term.String())

	plain := Detailed("咳嗽", map[string]string{"痰液": ""})
	assert.False(t, plain.IsDetailed())
	assert.Equal(t, "咳嗽", plain.String())
}

func TestNames_SkipsEmpty(t *testing.T) {
	got := Names([]Term{Simple("恶寒"), Simple("  "), Simple("发热")})
	assert.Equal(t, []string{"恶寒", "发热"}, got)
}

func TestSet_Dedup(t *testing.T) {
	s := NewSet("恶寒", "发热", " 恶寒 ", "")
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"恶寒", "发热"}, s.Names())
	assert.True(t, s.Has("发热"))
	assert.False(t, s.Has("头痛"))
	assert.False(t, s.Add("恶寒"))
	assert.True(t, s.Add("头痛"))
}

func TestSet_NilIsEmpty(t *testing.T) {
	var s *Set
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Has("恶寒"))
	assert.Empty(t, s.Names())
	assert.Equal(t, 0, s.Clone().Len())
}

func TestSet_CloneIsIndependent(t *testing.T) {
	s := NewSet("恶寒")
	c := s.Clone()
	c.Add("发热")
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 2, c.Len())
}

func TestSet_Equal(t *testing.T) {
	assert.True(t, NewSet("a", "b").Equal(NewSet("b", "a")))
	assert.False(t, NewSet("a").Equal(NewSet("a", "b")))
	assert.True(t, NewSet().Equal(nil))
}

func TestSet_JSON(t *testing.T) {
	s := NewSet("恶寒", "发热")
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `["恶寒","发热"]`, string(data))

	var back Set
	require.NoError(t, json.Unmarshal([]byte(`["发热","发热","口渴"]`), &back))
	assert.Equal(t, []string{"发热", "口渴"}, back.Names())
}
