package policy

import (
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cedar-policy/cedar-go"
)

//go:embed policies.cedar
var policiesContent []byte

// DefaultElevatedDepartments lists the departments exempted from the
// self/others restriction, overridable from the rules file.
var DefaultElevatedDepartments = []string{"Human Resources"}

// Authorizer evaluates the access decision through the Cedar policy engine.
// All query-access decisions flow through this single component.
type Authorizer struct {
	policies *cedar.PolicySet
	elevated map[string]bool // lowercased department names
}

// NewAuthorizer creates an Authorizer with the embedded policies. A nil or
// empty department list selects DefaultElevatedDepartments.
func NewAuthorizer(elevatedDepartments []string) (*Authorizer, error) {
	return newAuthorizerFromBytes(policiesContent, elevatedDepartments)
}

func newAuthorizerFromBytes(policyBytes []byte, elevatedDepartments []string) (*Authorizer, error) {
	ps, err := cedar.NewPolicySetFromBytes("policies.cedar", policyBytes)
	if err != nil {
		return nil, fmt.Errorf("policy: parse policies: %w", err)
	}
	if len(elevatedDepartments) == 0 {
		elevatedDepartments = DefaultElevatedDepartments
	}
	set := make(map[string]bool, len(elevatedDepartments))
	for _, d := range elevatedDepartments {
		set[strings.ToLower(strings.TrimSpace(d))] = true
	}
	return &Authorizer{policies: ps, elevated: set}, nil
}

// Elevated reports whether a department carries elevated (HR-like) scope.
// Comparison is case-insensitive; the unknown sentinel is never elevated.
func (a *Authorizer) Elevated(department string) bool {
	return a.elevated[strings.ToLower(strings.TrimSpace(department))]
}

// Check evaluates the decision for the given state. A Cedar deny maps onto
// the tri-state vocabulary using the classified intent: others means
// NotAllowed, anything else stays Unclear. Evaluation problems fail closed
// to Unclear.
func (a *Authorizer) Check(st *State) Decision {
	start := time.Now()

	req := cedar.Request{
		Principal: cedar.NewEntityUID("Employee", cedar.String(st.Email)),
		Action:    cedar.NewEntityUID("Action", cedar.String("query")),
		Resource:  cedar.NewEntityUID("Datastore", cedar.String("hr")),
		Context: cedar.NewRecord(cedar.RecordMap{
			"elevated":   cedar.Boolean(a.Elevated(st.Department)),
			"intent":     cedar.String(string(st.Intent)),
			"department": cedar.String(st.Department),
		}),
	}

	decision, diagnostic := cedar.Authorize(a.policies, cedar.EntityMap{}, req)

	policyID := ""
	if len(diagnostic.Reasons) > 0 {
		policyID = string(diagnostic.Reasons[0].PolicyID)
	}
	for _, e := range diagnostic.Errors {
		slog.Error("policy: evaluation error", "policy", e.PolicyID, "err", e.Message)
	}

	out := DecisionUnclear
	switch {
	case decision == cedar.Allow:
		out = DecisionAllowed
	case st.Intent == IntentOthers:
		out = DecisionNotAllowed
	}

	slog.Info("policy: access decision",
		"email", st.Email,
		"department", st.Department,
		"intent", st.Intent,
		"decision", out,
		"policy_id", policyID,
		"duration_us", time.Since(start).Microseconds(),
	)
	return out
}
