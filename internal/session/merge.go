package session

import (
	"strings"
	"unicode/utf8"

	"github.com/abhisek/tcmdx/internal/terms"
)

// Image feature keys that carry a single term-like value.
const (
	FeatureTongueColor = "tongue_color"
	FeatureTongueShape = "tongue_shape"
	FeatureCoating     = "coating"
	FeatureFaceColor   = "face_color"
)

// DefaultMaxFeatureRunes bounds image feature values. Longer values are
// free-text descriptions, not terms.
const DefaultMaxFeatureRunes = 12

// MergeOptions controls which image features become terms.
type MergeOptions struct {
	ImageKeys       []string `yaml:"image_feature_keys"`
	MaxFeatureRunes int      `yaml:"max_feature_runes"`
}

// DefaultMergeOptions returns the standard image allow-list.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{
		ImageKeys:       []string{FeatureTongueColor, FeatureTongueShape, FeatureCoating, FeatureFaceColor},
		MaxFeatureRunes: DefaultMaxFeatureRunes,
	}
}

// Merge unions prev with the terms contributed this turn and reports whether
// anything was contributed. The flag is true whenever extraction or an
// allow-listed image feature produced a non-empty term, even one already in
// prev. prev is never modified.
func Merge(prev *terms.Set, extracted []terms.Term, image map[string]string, opts MergeOptions) (*terms.Set, bool) {
	if opts.MaxFeatureRunes <= 0 {
		opts.MaxFeatureRunes = DefaultMaxFeatureRunes
	}

	merged := prev.Clone()
	updated := false

	for _, t := range extracted {
		name := terms.Normalize(t.Name)
		if name == "" {
			continue
		}
		merged.Add(name)
		updated = true
	}

	for _, key := range opts.ImageKeys {
		v := terms.Normalize(image[key])
		if v == "" || utf8.RuneCountInString(v) > opts.MaxFeatureRunes || strings.ContainsAny(v, "\n。") {
			continue
		}
		merged.Add(v)
		updated = true
	}
	return merged, updated
}
