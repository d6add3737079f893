package rank

import "regexp"

// Intent is the classified purpose behind a query, used to pick the
// intent-specific file-type boost adjustment (spec §4.4.1).
type Intent string

const (
	IntentHowTo          Intent = "how-to"
	IntentImplementation Intent = "implementation"
	IntentConceptual     Intent = "conceptual"
	IntentComparison     Intent = "comparison"
	IntentDebugging      Intent = "debugging"
)

// intentFamily pairs an intent with the ordered patterns that identify it.
type intentFamily struct {
	intent   Intent
	patterns []*regexp.Regexp
}

// intentFamilies is evaluated in order; the first family with a matching
// pattern wins. Order matters because some patterns overlap (spec §4.4.1:
// "implementation → debugging → comparison → how-to → conceptual").
var intentFamilies = []intentFamily{
	{
		intent: IntentImplementation,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)how (does|is) .* (implemented|work internally)`),
			regexp.MustCompile(`(?i)internal(ly)?`),
			regexp.MustCompile(`(?i)source code`),
			regexp.MustCompile(`(?i)under the hood`),
		},
	},
	{
		intent: IntentDebugging,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(error|bug|issue|problem|crash|broken)\b`),
			regexp.MustCompile(`(?i)why (is|does|doesn't)`),
			regexp.MustCompile(`(?i)how do i (fix|debug|solve)`),
		},
	},
	{
		intent: IntentComparison,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(vs\.?|versus)\b`),
			regexp.MustCompile(`(?i)difference(s)? between`),
			regexp.MustCompile(`(?i)compare`),
			regexp.MustCompile(`(?i)which (one|is better)`),
		},
	},
	{
		intent: IntentHowTo,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)how (do|can|should) (i|you|we)`),
			regexp.MustCompile(`(?i)how to\b`),
			regexp.MustCompile(`(?i)i (need|want) to`),
		},
	},
	{
		intent: IntentConceptual,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)what (is|are)`),
			regexp.MustCompile(`(?i)explain`),
			regexp.MustCompile(`(?i)how does .* work`),
		},
	},
}

// ClassifyIntent returns the first matching intent family, defaulting to
// how-to when nothing matches (spec §4.4.1).
func ClassifyIntent(query string) Intent {
	for _, fam := range intentFamilies {
		for _, p := range fam.patterns {
			if p.MatchString(query) {
				return fam.intent
			}
		}
	}
	return IntentHowTo
}
