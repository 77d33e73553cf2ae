package mask

import "regexp"

// pattern pairs a compiled regex with the label its matches are registered
// under.
type pattern struct {
	label string
	re    *regexp.Regexp
}

// contentPatterns are applied in this exact order, after entity spans have
// already been masked. Each pass runs on the output of the previous one and
// skips anything already replaced, so the earlier label wins where formats
// overlap; the bare five-digit postal matcher runs last for that reason.
var contentPatterns = []pattern{
	{"EMAIL", regexp.MustCompile(`\b[\w.\-]+@[\w.\-]+\.\w+\b`)},
	{"PHONE", regexp.MustCompile(`\b(?:\+?1[-.\s]?)*\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)},
	{"NATIONAL_ID", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{"CREDIT_CARD", regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`)},
	{"POSTAL_CODE", regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)},
}

// tokenRe matches our own <LABEL_n> placeholders so we never re-mask or
// miscount already-replaced content.
var tokenRe = regexp.MustCompile(`<[A-Z][A-Z0-9_]*_\d+>`)

// ResidualTokens returns every <LABEL_n> placeholder still present in text.
// Unmasking leaves unknown tokens verbatim, so deployments that need proof
// of full restoration scan the final output with this.
func ResidualTokens(text string) []string {
	return tokenRe.FindAllString(text, -1)
}
