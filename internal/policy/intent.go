package policy

import (
	"context"
	"strings"

	"github.com/ashdev101/mongo-rag/internal/llm"
)

// IntentClassifier decides whether a question concerns the caller's own
// record or a third party's. Implementations must be safe for concurrent
// use. An error degrades to IntentUnclear at the engine; it never aborts the
// pipeline.
type IntentClassifier interface {
	Classify(ctx context.Context, question string) (Intent, error)
}

// intentPrompt instructs the model to emit exactly one word. The rules mirror
// RuleClassifier: third-party sensitive asks are 'others' even when phrased
// with a first-person possessive, while a superior's name/email/identifier is
// low-risk and counts as 'self'.
const intentPrompt = `You are given a question from an employee.

Determine whether the question is asking for information about:
- the user themselves, or
- another person or entity.

Respond only with one word: 'self' or 'others'.

Rules:
1. Classify as 'self' if the question requests information directly about the user's own details, preferences, or actions.
2. Classify as 'others' if the question is about another person or entity (e.g., manager, colleague, organization), even if the question includes words like "my" (e.g., "my manager," "my company").
3. Work-related queries for a superior's non-sensitive identifying fields (name, email address, employee code) are allowed and must be classified as 'self'.
4. Sensitive or private data about others (their salary, date of birth, phone number, address, schedule, or personal identifiers other than email) must be classified as 'others'. This overrides rule 3.
5. Questions about the user's employing organization in aggregate (location, general facts) that do not name an individual are 'self'.

Examples:
- "What is my name?" -> self
- "What is my date of birth?" -> self
- "Who is my manager?" -> self
- "What is my manager's email address?" -> self
- "What is my manager's salary?" -> others
- "What is my phone number?" -> self
- "What is my company's revenue?" -> others
- "Where am I located?" -> self
- "Where is the head office located?" -> self

Respond with only one word: 'self' or 'others'.`

// LLMClassifier asks a chat model for the classification.
type LLMClassifier struct {
	client *llm.Client
}

// NewLLMClassifier creates an LLMClassifier.
func NewLLMClassifier(client *llm.Client) *LLMClassifier {
	return &LLMClassifier{client: client}
}

// Classify implements IntentClassifier. The model's answer is sanitized by
// substring: anything that is not recognizably self/others becomes unclear.
func (c *LLMClassifier) Classify(ctx context.Context, question string) (Intent, error) {
	answer, err := c.client.Complete(ctx, intentPrompt, "Question: \""+question+"\"")
	if err != nil {
		return IntentUnclear, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	switch {
	case strings.Contains(answer, "self"):
		return IntentSelf, nil
	case strings.Contains(answer, "other"):
		return IntentOthers, nil
	}
	return IntentUnclear, nil
}

// Keyword sets for the deterministic rule classifier. Matching is substring
// based over the lowercased question.
var (
	thirdPartyTerms = []string{
		"manager", "supervisor", "boss", "reviewer", "lead",
		"colleague", "coworker", "co-worker", "teammate",
		"reportee", "subordinate", "head of ",
	}
	// Sensitive third-party attributes (rule 4). "address" is scanned only
	// after email phrasings are normalized away so that "email address"
	// stays an excepted contact field.
	sensitiveTerms = []string{
		"salary", "compensation", "ctc", "pay", "wage",
		"date of birth", "dob", "born",
		"phone", "mobile", "address",
		"schedule", "calendar", "habit", "preference",
		"aadhaar", "pan number", "ssn", "bank",
	}
	// Excepted low-risk identifying fields of a superior (rule 3).
	exceptionTerms = []string{
		"who is", "name", "email", "e-mail",
		"employee code", "employee id", "emp id", "person number",
	}
	orgTerms = []string{
		"company", "organisation", "organization", "head office",
		"office", "employer", "firm",
	}
)

// RuleClassifier is the deterministic keyword fallback used when no model is
// configured or reachable. It implements the same prioritized rules as the
// prompt above.
type RuleClassifier struct{}

// Classify implements IntentClassifier.
func (RuleClassifier) Classify(_ context.Context, question string) (Intent, error) {
	q := normalizeQuestion(question)

	third := containsAny(q, thirdPartyTerms)
	sensitive := containsAny(q, sensitiveTerms)

	if third {
		if sensitive {
			return IntentOthers, nil
		}
		if containsAny(q, exceptionTerms) {
			return IntentSelf, nil
		}
		return IntentOthers, nil
	}

	if sensitive {
		if firstPerson(q) {
			return IntentSelf, nil
		}
		// Sensitive attribute of someone who is not the caller.
		return IntentOthers, nil
	}

	if containsAny(q, orgTerms) {
		if strings.Contains(q, "where") || strings.Contains(q, "located") || strings.Contains(q, "location") {
			return IntentSelf, nil
		}
		return IntentOthers, nil
	}

	if firstPerson(q) {
		return IntentSelf, nil
	}
	return IntentUnclear, nil
}

// normalizeQuestion lowercases, folds curly apostrophes, and rewrites email
// phrasings so the "address" sensitivity term cannot fire on them.
func normalizeQuestion(q string) string {
	q = strings.ToLower(q)
	q = strings.ReplaceAll(q, "’", "'")
	q = strings.ReplaceAll(q, "email address", "email")
	q = strings.ReplaceAll(q, "e-mail address", "email")
	q = strings.ReplaceAll(q, "email id", "email")
	return q
}

func containsAny(q string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}

// firstPerson reports whether the question is phrased about the caller.
func firstPerson(q string) bool {
	padded := " " + q + " "
	for _, marker := range []string{" my ", " i ", " me ", " me? ", " am i ", " do i ", " mine "} {
		if strings.Contains(padded, marker) {
			return true
		}
	}
	return strings.HasPrefix(q, "i ") || strings.HasPrefix(q, "am i") || strings.HasPrefix(q, "do i")
}
