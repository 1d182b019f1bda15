package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_SkipsMalformedRows(t *testing.T) {
	table := Build(Source{
		Categories: map[Category][]RawRow{
			CategoryEtiology: {
				{Pattern: "肝郁气滞证", Core: "胸闷；易怒；叹气", Secondary: "胁痛"},
				{Pattern: "", Core: "口苦"},
				{Pattern: "空证", Core: " ", Secondary: "（备注）"},
				{Pattern: "湿热证", Secondary: "腹胀"},
			},
		},
	})

	rows := table.Rows(CategoryEtiology)
	require.Len(t, rows, 2)
	assert.Equal(t, "肝郁气滞证", rows[0].Pattern)
	assert.Equal(t, []string{"胸闷", "易怒", "叹气"}, rows[0].Core)
	assert.Equal(t, []string{"胁痛"}, rows[0].Secondary)
	assert.Equal(t, "湿热证", rows[1].Pattern)
	assert.Empty(t, rows[1].Core)
	assert.Equal(t, 2, table.Skipped())
}

func TestBuild_TranslatesCodes(t *testing.T) {
	table := Build(Source{
		Codes: map[string]string{"TF01": "恶寒", "TS01": "舌淡"},
		Categories: map[Category][]RawRow{
			CategorySixMeridian: {{Pattern: "太阳伤寒证", Core: "TF01;无汗", Secondary: "TS01;TX99"}},
		},
	})
	rows := table.Rows(CategorySixMeridian)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"恶寒", "无汗"}, rows[0].Core)
	assert.Equal(t, []string{"舌淡", "TX99"}, rows[0].Secondary)
}

func TestTable_EmptyCategory(t *testing.T) {
	table := Build(Source{})
	assert.Nil(t, table.Rows(CategoryOrgan))
	assert.Empty(t, table.Categories())

	var nilTable *Table
	assert.Nil(t, nilTable.Rows(CategoryOrgan))
	assert.Zero(t, nilTable.Skipped())
}

func TestBuild_DropsUnnamedSymptoms(t *testing.T) {
	table := Build(Source{Symptoms: []Symptom{{Name: " 头痛 "}, {Code: "X"}}})
	require.Len(t, table.Symptoms(), 1)
	assert.Equal(t, "头痛", table.Symptoms()[0].Name)
}
