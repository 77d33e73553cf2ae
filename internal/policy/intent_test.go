package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleClassifier(t *testing.T) {
	cases := []struct {
		question string
		want     Intent
	}{
		{"What is my name?", IntentSelf},
		{"What is my date of birth?", IntentSelf},
		{"What is my phone number?", IntentSelf},
		{"Who is my manager?", IntentSelf},
		{"What is my manager's email address?", IntentSelf},
		{"What is my manager's employee code?", IntentSelf},
		{"What is my manager's salary?", IntentOthers},
		{"What is my manager's phone number?", IntentOthers},
		{"What is my colleague's date of birth?", IntentOthers},
		{"What is John's salary?", IntentOthers},
		{"What is my company's revenue?", IntentOthers},
		{"Where is the head office located?", IntentSelf},
		{"Where am I located?", IntentSelf},
		{"List employees in APAC", IntentUnclear},
		{"Hello there", IntentUnclear},
	}

	c := RuleClassifier{}
	for _, tc := range cases {
		t.Run(tc.question, func(t *testing.T) {
			got, err := c.Classify(context.Background(), tc.question)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRuleClassifierCurlyApostrophe(t *testing.T) {
	c := RuleClassifier{}
	got, err := c.Classify(context.Background(), "What is my manager’s salary?")
	require.NoError(t, err)
	assert.Equal(t, IntentOthers, got)
}

func TestNormalizeQuestionEmailPhrasings(t *testing.T) {
	assert.Equal(t, "my manager's email", normalizeQuestion("My manager's EMAIL ADDRESS"))
	assert.Equal(t, "send to their email", normalizeQuestion("send to their e-mail address"))
}
