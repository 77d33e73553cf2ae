package mask

// Session binds a Masker to one request-scoped Vault. It is the unit handed
// across the redaction boundary: downstream query execution masks fetched
// records through the session and the gateway restores the response with the
// same vault. Sessions are not safe for concurrent use and must not outlive
// their request.
type Session struct {
	masker *Masker
	vault  *Vault
}

// NewSession creates a Session with a fresh Vault.
func (m *Masker) NewSession() *Session {
	return &Session{masker: m, vault: NewVault()}
}

// MaskQuery applies the content strategy to the caller's question text.
func (s *Session) MaskQuery(text string) string {
	return s.masker.MaskText(text, s.vault)
}

// MaskRecords applies the field-allowlist strategy to fetched records.
func (s *Session) MaskRecords(value any) any {
	return s.masker.MaskRecords(value, s.vault)
}

// Unmask restores originals in response text.
func (s *Session) Unmask(text string) string {
	return UnmaskText(text, s.vault)
}

// UnmaskRecords restores originals throughout a structured value.
func (s *Session) UnmaskRecords(value any) any {
	return Unmask(value, s.vault)
}

// Vault exposes the session's vault for audit display and streaming
// restoration.
func (s *Session) Vault() *Vault {
	return s.vault
}
