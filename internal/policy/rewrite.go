package policy

import (
	"regexp"
	"strings"
)

// DefaultKnownRegions are the region names the rewriter recognizes in
// question text, overridable from the rules file.
var DefaultKnownRegions = []string{"APAC", "EMEA", "LATAM", "NA", "ANZ"}

// QueryRewriter rewrites a question to enforce region scoping for callers
// with elevated scope, and suffixes the caller identifier for self lookups.
//
// The rewrite is purely rule-driven: it never interprets the question's
// content beyond matching region names, so instructions embedded in the
// question cannot alter the scoping. The qualifier grammar (" in the X
// region" / " in all allowed regions") is a contract with the downstream
// query constructor; changing it is a breaking change.
type QueryRewriter struct {
	knownRegions []string
}

// NewQueryRewriter creates a rewriter. A nil or empty region list selects
// DefaultKnownRegions.
func NewQueryRewriter(knownRegions []string) *QueryRewriter {
	if len(knownRegions) == 0 {
		knownRegions = DefaultKnownRegions
	}
	return &QueryRewriter{knownRegions: knownRegions}
}

// Rewrite returns the modified query for the given state. privileged reports
// whether the caller's department carries elevated scope.
//
// Self questions and non-privileged callers get the caller-identifier suffix
// so downstream self lookups are unambiguous. Privileged non-self questions
// are scoped to the caller's allowed region(s): a single allowed region
// always wins over whatever the question mentions, and with multiple allowed
// regions a mentioned allowed region is kept while a disallowed or absent
// mention scopes to the union.
func (r *QueryRewriter) Rewrite(st *State, privileged bool) string {
	q := strings.TrimSpace(st.Question)

	if !privileged || st.Intent == IntentSelf || len(st.Regions) == 0 {
		return q + " . My email is " + st.Email
	}

	known := r.allRegionNames(st.Regions)
	mentioned := mentionedRegions(q, known)

	if len(st.Regions) == 1 {
		region := st.Regions[0]
		for _, m := range mentioned {
			if !strings.EqualFold(m, region) {
				q = replaceRegionWord(q, m, region)
			}
		}
		return q + " in the " + region + " region"
	}

	var allowedMention string
	allowedMentions := 0
	for _, m := range mentioned {
		if canonical, ok := matchRegion(m, st.Regions); ok {
			allowedMention = canonical
			allowedMentions++
		} else {
			// Disallowed mention: override it so the downstream query
			// constructor cannot resurrect it from the body text.
			q = replaceRegionWord(q, m, "all allowed regions")
		}
	}

	if allowedMentions == 1 && len(mentioned) == 1 {
		return q + " in the " + allowedMention + " region"
	}
	return q + " in all allowed regions"
}

// allRegionNames merges the configured region vocabulary with the caller's
// allowed regions, deduplicated case-insensitively.
func (r *QueryRewriter) allRegionNames(allowed []string) []string {
	seen := make(map[string]bool, len(r.knownRegions)+len(allowed))
	var out []string
	for _, name := range append(append([]string{}, r.knownRegions...), allowed...) {
		key := strings.ToLower(name)
		if !seen[key] {
			seen[key] = true
			out = append(out, name)
		}
	}
	return out
}

// mentionedRegions returns every known region name occurring as a whole word
// in q, in canonical casing.
func mentionedRegions(q string, known []string) []string {
	var out []string
	for _, name := range known {
		if regionWordRe(name).MatchString(q) {
			out = append(out, name)
		}
	}
	return out
}

// matchRegion finds name in the allowed list, case-insensitively.
func matchRegion(name string, allowed []string) (string, bool) {
	for _, a := range allowed {
		if strings.EqualFold(a, name) {
			return a, true
		}
	}
	return "", false
}

// replaceRegionWord substitutes every whole-word occurrence of a region name.
func replaceRegionWord(q, name, replacement string) string {
	return regionWordRe(name).ReplaceAllString(q, replacement)
}

func regionWordRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
}
