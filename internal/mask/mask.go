// Package mask provides reversible PII redaction for the HR query gateway.
// It supports two independent strategies:
//
//   - a field-name allowlist for structured records whose PII-bearing field
//     names are known (employee exports, query result rows), and
//   - a content strategy for free text, combining pluggable named-entity
//     recognizers with a fixed ordered set of regex matchers.
//
// Every replacement is recorded in a request-scoped Vault so the exact
// originals can be restored once the response comes back. Masked output never
// exposes a captured sensitive value; placeholder syntax already present in
// the input is captured as a literal, so forged tokens cannot hijack the
// restoration of somebody else's value.
//
// Usage:
//
//	m := mask.New(nil, recognizers)
//	s := m.NewSession()
//	masked := s.MaskQuery(question)
//	// hand masked text (and s, for record masking) to the query executor
//	answer = s.Unmask(answer)
package mask

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultFields is the built-in PII field allowlist, matched
// case-insensitively against record keys.
var DefaultFields = []string{
	"employee code",
	"first name",
	"last name",
	"primary email",
}

// recognizerBudget is the maximum time we wait for all recognizers to finish.
// Recognizers that miss the deadline are skipped; their goroutines keep
// running in the background but their results are discarded.
const recognizerBudget = 30 * time.Second

// Masker holds the field allowlist and the span recognizers. It is created
// once at startup and is safe for concurrent use; all per-request state lives
// in the Vault.
type Masker struct {
	fields      map[string]bool // lowercased allowlisted field names
	recognizers []Recognizer
}

// New creates a Masker. A nil or empty fields slice selects DefaultFields.
// Recognizers may be empty, in which case the content strategy falls back to
// regex matching alone.
func New(fields []string, recognizers []Recognizer) *Masker {
	if len(fields) == 0 {
		fields = DefaultFields
	}
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[strings.ToLower(strings.TrimSpace(f))] = true
	}
	return &Masker{fields: set, recognizers: recognizers}
}

// MaskText applies the content strategy to free text: pre-existing
// placeholder syntax is captured first, then recognizer spans, then the
// regex matchers on the entity-masked result. Replacements within one pass
// run in descending start-offset order so earlier replacements never shift
// the offsets of spans still to be processed.
func (m *Masker) MaskText(text string, v *Vault) string {
	if text == "" {
		return text
	}

	// Placeholder syntax already present in the input is registered as a
	// literal before anything else. Unmasking restores the literal verbatim,
	// so input data cannot forge a token that collides with one the vault
	// issues later.
	locs := tokenRe.FindAllStringIndex(text, -1)
	for i := len(locs) - 1; i >= 0; i-- {
		start, end := locs[i][0], locs[i][1]
		match := text[start:end]
		text = text[:start] + v.Register(tokenLabel(match), match) + text[end:]
	}

	spans := m.runRecognizers(text)
	spans = validSpans(text, spans)
	sortSpansDesc(spans)
	spans = dropOverlapping(spans)

	for _, sp := range spans {
		tok := v.Register(sp.Label, text[sp.Start:sp.End])
		text = text[:sp.Start] + tok + text[sp.End:]
	}

	for _, p := range contentPatterns {
		locs := p.re.FindAllStringIndex(text, -1)
		for i := len(locs) - 1; i >= 0; i-- {
			start, end := locs[i][0], locs[i][1]
			match := text[start:end]
			// Never mangle an already-masked placeholder.
			if strings.ContainsAny(match, "<>") {
				continue
			}
			tok := v.Register(p.label, match)
			text = text[:start] + tok + text[end:]
		}
	}
	return text
}

// MaskRecords applies the field-allowlist strategy to a structured payload
// (any nesting of map[string]any, []any and scalars), returning a masked
// copy. Non-allowlisted fields pass through unchanged; values under
// allowlisted keys are stringified and replaced with a token labelled after
// the field name. The input must be acyclic.
func (m *Masker) MaskRecords(value any, v *Vault) any {
	switch val := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = m.maskField(k, item, v)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = m.MaskRecords(item, v)
		}
		return out
	}
	return value
}

// maskField masks a single keyed value. Lists under an allowlisted key keep
// the key's semantics for each element.
func (m *Masker) maskField(key string, value any, v *Vault) any {
	switch val := value.(type) {
	case map[string]any:
		return m.MaskRecords(val, v)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = m.maskField(key, item, v)
		}
		return out
	}
	if !m.fields[strings.ToLower(key)] {
		return value
	}
	return v.Register(labelFor(key), fmt.Sprintf("%v", value))
}

// tokenLabel extracts LABEL from a <LABEL_n> placeholder.
func tokenLabel(tok string) string {
	return tok[1:strings.LastIndex(tok, "_")]
}

// labelFor derives the token label from a field name, e.g.
// "Primary Email" → "PRIMARY_EMAIL".
func labelFor(field string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(field)) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// runRecognizers runs all Recognize calls concurrently and merges results.
// Returns after all recognizers finish or recognizerBudget elapses.
func (m *Masker) runRecognizers(text string) []Span {
	if len(m.recognizers) == 0 {
		return nil
	}

	ch := make(chan []Span, len(m.recognizers))
	for _, rec := range m.recognizers {
		go func(r Recognizer) {
			spans, err := r.Recognize(text)
			if err != nil {
				slog.Warn("mask: recognizer error", "err", err)
				ch <- nil
				return
			}
			ch <- spans
		}(rec)
	}

	ctx, cancel := context.WithTimeout(context.Background(), recognizerBudget)
	defer cancel()

	var all []Span
	for range m.recognizers {
		select {
		case spans := <-ch:
			all = append(all, spans...)
		case <-ctx.Done():
			slog.Warn("mask: recognizer budget exceeded, using partial results")
			return all
		}
	}
	return all
}

// validSpans filters out spans with invalid offsets, spans that split a
// UTF-8 rune, and spans that touch an existing token delimiter.
func validSpans(text string, spans []Span) []Span {
	out := make([]Span, 0, len(spans))
	for _, sp := range spans {
		if sp.Start < 0 || sp.End > len(text) || sp.Start >= sp.End {
			continue
		}
		if !isRuneBoundary(text, sp.Start) || !isRuneBoundary(text, sp.End) {
			continue
		}
		if strings.ContainsAny(text[sp.Start:sp.End], "<>") {
			continue
		}
		out = append(out, sp)
	}
	return out
}

// dropOverlapping removes overlapping spans (assumes sorted descending by
// Start).
func dropOverlapping(spans []Span) []Span {
	out := make([]Span, 0, len(spans))
	lastStart := -1
	for _, sp := range spans {
		if lastStart == -1 || sp.End <= lastStart {
			out = append(out, sp)
			lastStart = sp.Start
		}
	}
	return out
}

func isRuneBoundary(s string, i int) bool {
	if i == 0 || i == len(s) {
		return true
	}
	return s[i]&0xC0 != 0x80
}

func sortSpansDesc(spans []Span) {
	for i := 1; i < len(spans); i++ {
		for j := i; j > 0 && spans[j].Start > spans[j-1].Start; j-- {
			spans[j], spans[j-1] = spans[j-1], spans[j]
		}
	}
}
