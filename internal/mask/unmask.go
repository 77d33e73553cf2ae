package mask

// UnmaskText replaces every vault-issued token with its original value in a
// single pass. Restored text is never rescanned, so an original that itself
// contains placeholder syntax cannot trigger a second substitution. Tokens
// with no vault entry are left verbatim: the caller may be relaying text that
// legitimately contains placeholders from another session, and a hard failure
// here would leak nothing and fix nothing. Callers that require proof of full
// restoration scan the result with ResidualTokens.
func UnmaskText(text string, v *Vault) string {
	if v == nil || v.IsEmpty() {
		return text
	}
	return tokenRe.ReplaceAllStringFunc(text, func(tok string) string {
		if orig, ok := v.Lookup(tok); ok {
			return orig
		}
		return tok
	})
}

// Unmask restores originals throughout a structured payload, recursing the
// same shapes MaskRecords produces. Non-string scalars pass through.
func Unmask(value any, v *Vault) any {
	switch val := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Unmask(item, v)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Unmask(item, v)
		}
		return out
	case string:
		return UnmaskText(val, v)
	}
	return value
}
