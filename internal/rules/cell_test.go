package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCell(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"whitespace only", "  ；, ", []string{}},
		{"semicolons", "恶寒;发热", []string{"恶寒", "发热"}},
		{"full-width separators", "恶寒；发热，头痛、鼻塞", []string{"恶寒", "发热", "头痛", "鼻塞"}},
		{"emphasis markers", "**恶寒**; *发热*", []string{"恶寒", "发热"}},
		{"half-width aside", "脉浮(浮紧);头痛", []string{"脉浮", "头痛"}},
		{"full-width aside", "脉浮（浮紧或浮数）、头痛", []string{"脉浮", "头痛"}},
		{"aside keeps surrounding text", "舌(边)红", []string{"舌红"}},
		{"nested asides", "口渴（喜饮（冷））", []string{"口渴"}},
		{"aside containing separators", "发热（午后，夜间）；口渴", []string{"发热", "口渴"}},
		{"stray bracket", "恶寒)；发热（", []string{"恶寒", "发热"}},
		{"unclosed aside", "发热(轻", []string{"发热"}},
		{"unclosed aside ends at separator", "恶寒（重；头痛", []string{"恶寒", "头痛"}},
		{"unclosed aside after balanced one", "舌(边)红（甚", []string{"舌红"}},
		{"trims fragments", " 恶寒 ;  发热 ", []string{"恶寒", "发热"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCell(tt.raw)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeCell_Idempotent(t *testing.T) {
	inputs := []string{
		"恶寒；发热，头痛",
		"**脉浮**（浮紧或浮数）、头痛",
		"口渴（喜饮（冷））;;",
		"恶寒)；发热（",
		"ＡＢＣ；ｄｅｆ",
		"舌(边)红, 苔 白 腻",
		"发热(轻；*恶寒*（重",
	}
	for _, in := range inputs {
		once := NormalizeCell(in)
		twice := NormalizeCell(strings.Join(once, ";"))
		assert.Equal(t, once, twice, "input %q", in)
	}
}
