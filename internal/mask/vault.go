package mask

import "fmt"

// Vault holds the bidirectional token mapping for one request lifecycle.
// It is created at the start of a mask operation and must never be shared
// across concurrent requests; callers keep it only as long as they need to
// unmask the corresponding response.
//
// Register must not be called concurrently. Reading (Lookup, Pairs) is safe
// once all Register calls are done.
type Vault struct {
	tokens   map[string]string // token → original value
	counters map[string]int    // label → next sequence number
}

// NewVault creates an empty Vault.
func NewVault() *Vault {
	return &Vault{
		tokens:   make(map[string]string),
		counters: make(map[string]int),
	}
}

// Register records a mapping and returns a fresh placeholder token of the
// form <LABEL_n>, where n is the per-label sequence starting at 0.
//
// The same original presented twice receives two distinct tokens on purpose:
// deduplicating would let repeated tokens correlate the same person across
// records after masking.
func (v *Vault) Register(label, original string) string {
	seq := v.counters[label]
	v.counters[label] = seq + 1
	tok := fmt.Sprintf("<%s_%d>", label, seq)
	v.tokens[tok] = original
	return tok
}

// Lookup returns the original value for a token.
func (v *Vault) Lookup(token string) (string, bool) {
	orig, ok := v.tokens[token]
	return orig, ok
}

// Len returns the number of registered tokens.
func (v *Vault) Len() int {
	return len(v.tokens)
}

// IsEmpty reports whether no replacements were recorded.
func (v *Vault) IsEmpty() bool {
	return len(v.tokens) == 0
}

// Pair is a single token↔original mapping, for audit display.
type Pair struct {
	Token    string `json:"token"`    // e.g. <EMAIL_0>
	Original string `json:"original"` // the actual sensitive value
}

// Pairs returns all recorded replacements, ordered by token name.
func (v *Vault) Pairs() []Pair {
	out := make([]Pair, 0, len(v.tokens))
	for tok, orig := range v.tokens {
		out = append(out, Pair{Token: tok, Original: orig})
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Token < out[j-1].Token; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// maxTokenLen returns the length in bytes of the longest registered token.
// Used by RestoringReader to size its hold-back window.
func (v *Vault) maxTokenLen() int {
	max := 0
	for tok := range v.tokens {
		if len(tok) > max {
			max = len(tok)
		}
	}
	return max
}
