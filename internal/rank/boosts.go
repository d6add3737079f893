package rank

import (
	"regexp"
	"strings"

	"github.com/localcortex/lattice/internal/classify"
)

// fileTypeBaseline is the baseline multiplier per file-type tag, before any
// intent-specific adjustment (spec §4.4.1).
var fileTypeBaseline = map[classify.Tag]float64{
	classify.DocumentationPrimary: 1.8,
	classify.Documentation:        1.5,
	classify.Example:              1.4,
	classify.Source:               1.0,
	classify.SourceInternal:       0.75,
	classify.Test:                 0.7,
	classify.Config:               0.5,
	classify.Other:                1.0,
}

// intentAdjustment holds the extra multiplier a (intent, tag) pair
// contributes on top of the baseline. Pairs not listed contribute ×1.0.
var intentAdjustment = map[Intent]map[classify.Tag]float64{
	IntentHowTo: {
		classify.Example:       1.5,
		classify.SourceInternal: 0.7,
	},
	IntentImplementation: {
		classify.Source:               1.1,
		classify.DocumentationPrimary: 0.95,
	},
}

// FileTypeBoost composes the baseline and intent-specific multipliers for
// one file-type tag under one query intent.
func FileTypeBoost(tag classify.Tag, intent Intent) float64 {
	boost := fileTypeBaseline[tag]
	if boost == 0 {
		boost = 1.0
	}
	if adj, ok := intentAdjustment[intent]; ok {
		if extra, ok := adj[tag]; ok {
			boost *= extra
		}
	}
	return boost
}

// frameworkFamily maps a query-matching regex to the keyword set that
// identifies results belonging to that framework (spec §4.4.1).
type frameworkFamily struct {
	queryPattern *regexp.Regexp
	keywords     []string
}

var frameworkFamilies = []frameworkFamily{
	{regexp.MustCompile(`(?i)\breact\b`), []string{"react", "reactjs", "react.js"}},
	{regexp.MustCompile(`(?i)\bvue\b`), []string{"vue", "vuejs", "vue.js"}},
	{regexp.MustCompile(`(?i)\bangular\b`), []string{"angular", "angularjs"}},
	{regexp.MustCompile(`(?i)\bnext\.?js\b`), []string{"next", "nextjs", "next.js"}},
	{regexp.MustCompile(`(?i)\bdjango\b`), []string{"django"}},
	{regexp.MustCompile(`(?i)\bexpress\b`), []string{"express", "expressjs", "express.js"}},
}

// FrameworkBoost returns the multiplier for a candidate's path+content given
// the query: 1.0 if no framework family matches the query at all (boost is
// inapplicable), 1.5 if the candidate matches the first matching family's
// keywords, 0.8 otherwise. At most one framework family applies per query
// (the first to match, per spec §4.4.1).
func FrameworkBoost(query, path, content string) float64 {
	for _, fam := range frameworkFamilies {
		if !fam.queryPattern.MatchString(query) {
			continue
		}
		haystack := strings.ToLower(path + " " + content)
		for _, kw := range fam.keywords {
			if strings.Contains(haystack, kw) {
				return 1.5
			}
		}
		return 0.8
	}
	return 1.0
}
