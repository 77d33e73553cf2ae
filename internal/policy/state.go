// Package policy implements the access-policy pipeline for HR queries: it
// resolves the caller's role attributes, classifies whether the question is
// about the caller or a third party, rewrites the query to enforce region
// scoping, and produces the final Allow/Deny decision.
package policy

// Intent classifies whose data a question concerns.
type Intent string

// Intent values. Unclear is never promoted to an allow.
const (
	IntentSelf    Intent = "self"
	IntentOthers  Intent = "others"
	IntentUnclear Intent = "unclear"
)

// Decision is the terminal outcome of access evaluation. Callers must treat
// anything other than DecisionAllowed as a hard stop before any data-fetching
// step runs.
type Decision string

// Decision vocabulary.
const (
	DecisionAllowed    Decision = "Allowed"
	DecisionNotAllowed Decision = "NotAllowed"
	DecisionUnclear    Decision = "Unclear"
)

// State carries one request through the pipeline. Each field is written
// exactly once by its owning step; the terminal state keeps all intermediate
// attributes for audit.
type State struct {
	Email    string `json:"email"`
	Question string `json:"question"`

	// Written by FetchRole.
	Designation  string   `json:"designation"`
	Department   string   `json:"department"`
	Region       string   `json:"region"`
	Regions      []string `json:"regions,omitempty"`
	EmployeeCode int64    `json:"employee_code,omitempty"`

	// Written by ClassifyIntent.
	Intent Intent `json:"intent"`

	// Written by ModifyQuery.
	ModifiedQuery string `json:"modified_query"`

	// Written by CheckAccess. Terminal.
	Decision Decision `json:"decision"`
}
