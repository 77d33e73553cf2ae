package mask

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultDistinctTokensForRepeatedOriginal(t *testing.T) {
	v := NewVault()

	t1 := v.Register("EMAIL", "jane@corp.example")
	t2 := v.Register("EMAIL", "jane@corp.example")

	assert.Equal(t, "<EMAIL_0>", t1)
	assert.Equal(t, "<EMAIL_1>", t2)
	assert.NotEqual(t, t1, t2)

	orig, ok := v.Lookup(t1)
	require.True(t, ok)
	assert.Equal(t, "jane@corp.example", orig)
	orig, ok = v.Lookup(t2)
	require.True(t, ok)
	assert.Equal(t, "jane@corp.example", orig)
}

func TestVaultCountersPerLabel(t *testing.T) {
	v := NewVault()

	assert.Equal(t, "<EMAIL_0>", v.Register("EMAIL", "a@x.com"))
	assert.Equal(t, "<PHONE_0>", v.Register("PHONE", "555-123-4567"))
	assert.Equal(t, "<EMAIL_1>", v.Register("EMAIL", "b@x.com"))
	assert.Equal(t, 3, v.Len())
}

func TestVaultPairsOrdered(t *testing.T) {
	v := NewVault()
	v.Register("PHONE", "555-123-4567")
	v.Register("EMAIL", "a@x.com")

	pairs := v.Pairs()
	require.Len(t, pairs, 2)
	assert.Equal(t, "<EMAIL_0>", pairs[0].Token)
	assert.Equal(t, "<PHONE_0>", pairs[1].Token)
}

func TestMaskRecordsAllowlistedFields(t *testing.T) {
	m := New(nil, nil)
	v := NewVault()

	record := map[string]any{
		"First Name":    "Jane",
		"Last Name":     "Doe",
		"Primary Email": "jane@corp.example",
		"Department":    "Engineering",
	}

	masked, ok := m.MaskRecords(record, v).(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "<FIRST_NAME_0>", masked["First Name"])
	assert.Equal(t, "<LAST_NAME_0>", masked["Last Name"])
	assert.Equal(t, "<PRIMARY_EMAIL_0>", masked["Primary Email"])
	assert.Equal(t, "Engineering", masked["Department"])

	// The input is untouched.
	assert.Equal(t, "Jane", record["First Name"])

	restored, ok := Unmask(masked, v).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Jane", restored["First Name"])
	assert.Equal(t, "jane@corp.example", restored["Primary Email"])
}

func TestMaskRecordsNestedAndLists(t *testing.T) {
	m := New(nil, nil)
	v := NewVault()

	payload := []any{
		map[string]any{
			"first name": "Jane",
			"reports": []any{
				map[string]any{"first name": "Ann", "employee code": 1045},
			},
		},
	}

	masked := m.MaskRecords(payload, v)
	out := masked.([]any)[0].(map[string]any)
	inner := out["reports"].([]any)[0].(map[string]any)

	// Map iteration order is unspecified, so only the label prefix and the
	// vault contents are asserted, not the sequence numbers.
	outerTok := out["first name"].(string)
	innerTok := inner["first name"].(string)
	assert.True(t, strings.HasPrefix(outerTok, "<FIRST_NAME_"))
	assert.True(t, strings.HasPrefix(innerTok, "<FIRST_NAME_"))
	assert.NotEqual(t, outerTok, innerTok)

	orig, ok := v.Lookup(outerTok)
	require.True(t, ok)
	assert.Equal(t, "Jane", orig)

	orig, ok = v.Lookup(inner["employee code"].(string))
	require.True(t, ok)
	assert.Equal(t, "1045", orig)
}

func TestMaskRecordsListUnderAllowlistedKey(t *testing.T) {
	m := New([]string{"alias"}, nil)
	v := NewVault()

	masked := m.MaskRecords(map[string]any{
		"alias": []any{"jd", "janed"},
	}, v).(map[string]any)

	aliases := masked["alias"].([]any)
	assert.Equal(t, "<ALIAS_0>", aliases[0])
	assert.Equal(t, "<ALIAS_1>", aliases[1])
}

func TestMaskTextRegexPatterns(t *testing.T) {
	m := New(nil, nil)
	v := NewVault()

	text := "Reach jane@corp.example, SSN 123-45-6789."
	masked := m.MaskText(text, v)

	assert.NotContains(t, masked, "jane@corp.example")
	assert.NotContains(t, masked, "123-45-6789")
	assert.Contains(t, masked, "<EMAIL_0>")
	assert.Contains(t, masked, "<NATIONAL_ID_0>")

	assert.Equal(t, text, UnmaskText(masked, v))
}

func TestMaskTextRepeatedValueTwoTokens(t *testing.T) {
	m := New(nil, nil)
	v := NewVault()

	masked := m.MaskText("mail a@x.com or a@x.com", v)

	assert.Contains(t, masked, "<EMAIL_0>")
	assert.Contains(t, masked, "<EMAIL_1>")
	assert.NotContains(t, masked, "a@x.com")
	assert.Equal(t, 2, v.Len())
	assert.Equal(t, "mail a@x.com or a@x.com", UnmaskText(masked, v))
}

// stubRecognizer returns fixed spans regardless of input.
type stubRecognizer struct {
	spans []Span
}

func (s stubRecognizer) Recognize(string) ([]Span, error) {
	return s.spans, nil
}

func TestMaskTextRecognizerSpans(t *testing.T) {
	text := "Jane Doe works with Ann Lee"
	rec := stubRecognizer{spans: []Span{
		{Start: 0, End: 8, Label: "PERSON", Score: 0.99},
		{Start: 20, End: 27, Label: "PERSON", Score: 0.97},
	}}
	m := New(nil, []Recognizer{rec})
	v := NewVault()

	masked := m.MaskText(text, v)

	assert.NotContains(t, masked, "Jane Doe")
	assert.NotContains(t, masked, "Ann Lee")
	assert.Equal(t, 2, v.Len())
	assert.Equal(t, text, UnmaskText(masked, v))
}

func TestMaskTextSpanOffsetSafety(t *testing.T) {
	// Spans arrive unordered; descending replacement must keep offsets
	// stable so both originals survive the round trip.
	text := "Ann and Jane emailed jane@corp.example"
	rec := stubRecognizer{spans: []Span{
		{Start: 8, End: 12, Label: "PERSON"},
		{Start: 0, End: 3, Label: "PERSON"},
	}}
	m := New(nil, []Recognizer{rec})
	v := NewVault()

	masked := m.MaskText(text, v)

	assert.NotContains(t, masked, "Ann")
	assert.NotContains(t, masked, "Jane")
	assert.Contains(t, masked, "<EMAIL_0>")
	assert.Equal(t, text, UnmaskText(masked, v))
}

func TestMaskTextSkipsSpansWithDelimiters(t *testing.T) {
	text := "value <raw> stays"
	rec := stubRecognizer{spans: []Span{
		{Start: 6, End: 11, Label: "PERSON"},
	}}
	m := New(nil, []Recognizer{rec})
	v := NewVault()

	masked := m.MaskText(text, v)

	assert.Equal(t, text, masked)
	assert.True(t, v.IsEmpty())
}

func TestMaskTextDropsInvalidSpans(t *testing.T) {
	text := "short"
	rec := stubRecognizer{spans: []Span{
		{Start: -1, End: 3, Label: "PERSON"},
		{Start: 2, End: 99, Label: "PERSON"},
		{Start: 4, End: 2, Label: "PERSON"},
	}}
	m := New(nil, []Recognizer{rec})
	v := NewVault()

	assert.Equal(t, text, m.MaskText(text, v))
	assert.True(t, v.IsEmpty())
}

func TestResidualTokens(t *testing.T) {
	found := ResidualTokens("hello <EMAIL_0> and <FIRST_NAME_2>, not <lower_1>")
	assert.Equal(t, []string{"<EMAIL_0>", "<FIRST_NAME_2>"}, found)

	assert.Empty(t, ResidualTokens("nothing here"))
}

func TestMaskTextNeutralizesForgedTokens(t *testing.T) {
	m := New(nil, nil)
	v := NewVault()

	text := "mail a@x.com or <EMAIL_0>"
	masked := m.MaskText(text, v)

	assert.NotContains(t, masked, "a@x.com")
	assert.Equal(t, text, UnmaskText(masked, v))

	// The forged placeholder never resolves to the real address.
	orig, ok := v.Lookup("<EMAIL_0>")
	require.True(t, ok)
	assert.Equal(t, "<EMAIL_0>", orig)
}

func TestMaskTextForgedTokenRoundTrip(t *testing.T) {
	m := New(nil, nil)
	v := NewVault()

	text := "status of <FIRST_NAME_3> is pending, ping b@y.org and a@x.com"
	assert.Equal(t, text, UnmaskText(m.MaskText(text, v), v))
}

func TestUnmaskDoesNotRescanRestoredText(t *testing.T) {
	v := NewVault()
	email := v.Register("EMAIL", "a@x.com")
	note := v.Register("NOTE", "see <EMAIL_0>")

	assert.Equal(t, "a@x.com", UnmaskText(email, v))
	assert.Equal(t, "see <EMAIL_0>", UnmaskText(note, v))
}

func TestUnmaskLeavesUnknownTokens(t *testing.T) {
	v := NewVault()
	v.Register("EMAIL", "a@x.com")

	out := UnmaskText("<EMAIL_0> and <EMAIL_7>", v)
	assert.Equal(t, "a@x.com and <EMAIL_7>", out)
	assert.Equal(t, []string{"<EMAIL_7>"}, ResidualTokens(out))
}

func TestSessionRoundTrip(t *testing.T) {
	m := New(nil, nil)
	s := m.NewSession()

	masked := s.MaskQuery("email ann@corp.example about the review")
	assert.NotContains(t, masked, "ann@corp.example")

	answer := strings.ReplaceAll(masked, "email", "Emailed")
	assert.Contains(t, s.Unmask(answer), "ann@corp.example")

	rows := s.UnmaskRecords([]any{map[string]any{"note": answer}}).([]any)
	assert.Contains(t, rows[0].(map[string]any)["note"], "ann@corp.example")
}
