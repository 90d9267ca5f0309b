package content

import "strings"

// intentRule maps question phrasing to an interaction kind. Rules are
// checked in order; the first match wins, which keeps remapping
// deterministic for a given input text.
type intentRule struct {
	kind     Kind
	keywords []string
}

var intentRules = []intentRule{
	{KindSocratic, []string{"why", "how come", "what if"}},
	{KindExample, []string{"example", "show me", "such as"}},
	{KindHint, []string{"hint", "clue", "stuck"}},
	{KindSimplify, []string{"simpler", "too hard", "easier", "slow down", "don't understand", "dont understand"}},
	{KindQuiz, []string{"quiz", "test me"}},
	{KindRepeat, []string{"repeat", "say that again", "one more time"}},
	{KindSummary, []string{"summary", "recap", "sum up"}},
	{KindMoreDetail, []string{"more detail", "tell me more", "go deeper"}},
}

// RemapKind resolves the effective interaction kind. A free-text question
// can re-route the requested kind through keyword heuristics; without a
// question the requested kind stands, defaulting to explain.
func RemapKind(requested Kind, question string) Kind {
	q := strings.ToLower(strings.TrimSpace(question))
	if q != "" {
		for _, rule := range intentRules {
			for _, kw := range rule.keywords {
				if strings.Contains(q, kw) {
					return rule.kind
				}
			}
		}
	}
	if requested.Valid() {
		return requested
	}
	return KindExplain
}
