package gateway

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	emailSuffixRe = regexp.MustCompile(`(?i)\s*\.\s*my email is\s+\S+\s*$`)
	nonAlnumRe    = regexp.MustCompile(`[^a-z0-9]+`)
)

// CleanQuery normalizes a question for feedback matching: the identifier
// suffix appended by the rewriter is stripped, then the text is lowercased
// and collapsed to single-space alphanumerics.
func CleanQuery(query string) string {
	q := emailSuffixRe.ReplaceAllString(query, "")
	q = strings.ToLower(q)
	q = nonAlnumRe.ReplaceAllString(q, " ")
	return strings.TrimSpace(q)
}

// QueryHash fingerprints a cleaned question so repeated feedback on the same
// wording lands on one record.
func QueryHash(query string) string {
	sum := md5.Sum([]byte(CleanQuery(query)))
	return hex.EncodeToString(sum[:])
}
