package rules

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// Load reads a knowledge base from path and builds a Table.
//
// An empty path loads the embedded default knowledge base. A directory is
// read as per-category CSV files (see LoadCSVDir); anything else is parsed
// as a YAML knowledge-base file.
func Load(path string, logger *zap.Logger) (*Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		src Source
		err error
	)
	switch {
	case path == "":
		src, err = ParseYAML(defaultRulesYAML)
		path = "(embedded)"
	default:
		info, statErr := os.Stat(path)
		if statErr != nil {
			return nil, fmt.Errorf("stat rules %s: %w", path, statErr)
		}
		if info.IsDir() {
			src, err = LoadCSVDir(path, logger)
		} else {
			var data []byte
			data, err = os.ReadFile(path)
			if err == nil {
				src, err = ParseYAML(data)
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load rules %s: %w", path, err)
	}

	table := Build(src)
	fields := []zap.Field{
		zap.String("source", path),
		zap.Int("symptoms", len(table.Symptoms())),
		zap.Int("skipped_rows", table.Skipped()),
	}
	for _, c := range KnownCategories() {
		fields = append(fields, zap.Int(string(c), len(table.Rows(c))))
	}
	logger.Info("rule table loaded", fields...)
	return table, nil
}

// ParseYAML decodes a YAML knowledge-base document.
func ParseYAML(data []byte) (Source, error) {
	var src Source
	if err := yaml.Unmarshal(data, &src); err != nil {
		return Source{}, fmt.Errorf("decode yaml: %w", err)
	}
	return src, nil
}

// Column aliases accepted in CSV headers. The Chinese names are those used
// by the clinical spreadsheets the tables are exported from.
var (
	patternColumns   = []string{"证候名称", "证型", "pattern", "name"}
	coreColumns      = []string{"核心症状", "核心症状编码", "core"}
	secondaryColumns = []string{"非核心症状", "非核心症状编码", "次要症状", "secondary"}

	codeIDColumns   = []string{"症状编码", "编码", "code", "id"}
	codeNameColumns = []string{"英文代码", "症状英文", "症状名称", "症状中文", "名称", "name"}
)

// LoadCSVDir reads a knowledge base laid out as one CSV file per category
// (<category>.csv), plus optional codes.csv and symptoms.csv. A missing
// category file leaves that category empty; it is not an error.
func LoadCSVDir(dir string, logger *zap.Logger) (Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	src := Source{
		Codes:      make(map[string]string),
		Categories: make(map[Category][]RawRow),
	}

	for _, name := range []string{"codes.csv", "tongue.csv"} {
		header, rows, err := readCSV(filepath.Join(dir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Source{}, err
		}
		idCol, nameCol := findColumn(header, codeIDColumns), findColumn(header, codeNameColumns)
		if idCol < 0 || nameCol < 0 {
			logger.Warn("code book has no id/name columns", zap.String("file", name))
			continue
		}
		for _, row := range rows {
			id, val := cell(row, idCol), cell(row, nameCol)
			if id != "" && val != "" {
				src.Codes[id] = val
			}
		}
	}

	header, rows, err := readCSV(filepath.Join(dir, "symptoms.csv"))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Source{}, err
	default:
		src.Symptoms = parseSymptomRows(header, rows)
	}

	for _, c := range KnownCategories() {
		file := filepath.Join(dir, string(c)+".csv")
		header, rows, err := readCSV(file)
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("category table absent", zap.String("category", string(c)))
			continue
		}
		if err != nil {
			return Source{}, err
		}
		pCol := findColumn(header, patternColumns)
		cCol := findColumn(header, coreColumns)
		sCol := findColumn(header, secondaryColumns)
		if pCol < 0 {
			logger.Warn("category table has no pattern column", zap.String("category", string(c)))
			continue
		}
		for _, row := range rows {
			src.Categories[c] = append(src.Categories[c], RawRow{
				Pattern:   cell(row, pCol),
				Core:      cell(row, cCol),
				Secondary: cell(row, sCol),
			})
		}
	}
	return src, nil
}

// parseSymptomRows reads the symptom vocabulary sheet: a code, a display
// name, and up to three (采集维度N, 选项N) pairs with ';'-separated options.
func parseSymptomRows(header []string, rows [][]string) []Symptom {
	idCol := findColumn(header, []string{"症状编码", "code"})
	nameCol := findColumn(header, []string{"症状中文", "症状英文", "name"})
	if nameCol < 0 {
		return nil
	}
	var out []Symptom
	for _, row := range rows {
		s := Symptom{Code: cell(row, idCol), Name: cell(row, nameCol)}
		if s.Name == "" {
			continue
		}
		for i := 1; i <= 3; i++ {
			dim := cell(row, findColumn(header, []string{fmt.Sprintf("采集维度%d", i), fmt.Sprintf("dimension%d", i)}))
			if dim == "" {
				continue
			}
			d := Dimension{Name: dim}
			opts := cell(row, findColumn(header, []string{fmt.Sprintf("选项%d", i), fmt.Sprintf("options%d", i)}))
			for _, o := range strings.Split(opts, ";") {
				if o = strings.TrimSpace(o); o != "" {
					d.Options = append(d.Options, o)
				}
			}
			s.Dimensions = append(s.Dimensions, d)
		}
		out = append(out, s)
	}
	return out
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return parseCSV(f, filepath.Base(path))
}

func parseCSV(r io.Reader, name string) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return header, records[1:], nil
}

// findColumn returns the index of the first header matching any alias
// (case-insensitive), or -1.
func findColumn(header []string, aliases []string) int {
	for _, a := range aliases {
		for i, h := range header {
			if strings.EqualFold(h, a) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
