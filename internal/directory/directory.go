// Package directory resolves a caller's email to their role attributes. The
// identity store is an external collaborator; the package exposes a narrow
// Resolver interface, an HTTP client for a directory service, and a static
// in-memory resolver for tests and demos.
package directory

import (
	"context"
	"strings"
)

// Unknown is the sentinel value for attributes that could not be resolved.
// Downstream policy evaluation treats it as non-privileged.
const Unknown = "unknown"

// Identity holds the role attributes resolved for one caller.
type Identity struct {
	Designation  string   `json:"designation"`
	Department   string   `json:"department"`
	Region       string   `json:"region"`  // raw attribute, e.g. "APAC" or "APAC, EMEA"
	Regions      []string `json:"regions"` // parsed allowed regions
	EmployeeCode int64    `json:"employee_code"`
	Found        bool     `json:"found"`
}

// UnknownIdentity is returned when no directory record matches. All
// attributes carry the explicit unknown sentinel; absence of a record is a
// normal outcome, never an error that aborts the flow.
func UnknownIdentity() Identity {
	return Identity{
		Designation: Unknown,
		Department:  Unknown,
		Region:      Unknown,
	}
}

// Resolver maps an email to role attributes. Lookup is keyed by the
// case-sensitive primary contact address. Implementations return
// UnknownIdentity (not an error) when no record exists; the error return is
// reserved for conditions the caller could act on, and implementations are
// expected to degrade to UnknownIdentity on transient failures.
type Resolver interface {
	Resolve(ctx context.Context, email string) (Identity, error)
}

// ParseRegions splits a raw region attribute like "APAC, EMEA" into its
// canonical names.
func ParseRegions(raw string) []string {
	if raw == "" || strings.EqualFold(raw, Unknown) {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// StaticResolver serves identities from an in-memory map keyed by email.
type StaticResolver struct {
	byEmail map[string]Identity
}

// NewStaticResolver builds a StaticResolver. Region lists are parsed from
// each Identity's raw Region attribute if Regions is unset.
func NewStaticResolver(byEmail map[string]Identity) *StaticResolver {
	for email, id := range byEmail {
		if len(id.Regions) == 0 {
			id.Regions = ParseRegions(id.Region)
			byEmail[email] = id
		}
	}
	return &StaticResolver{byEmail: byEmail}
}

// Resolve implements Resolver.
func (r *StaticResolver) Resolve(_ context.Context, email string) (Identity, error) {
	id, ok := r.byEmail[email]
	if !ok {
		return UnknownIdentity(), nil
	}
	id.Found = true
	return id, nil
}
