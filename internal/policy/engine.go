package policy

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ashdev101/mongo-rag/internal/directory"
)

// Engine runs the access pipeline as a strict sequence with no back-edges:
//
//	Input → FetchRole → ClassifyIntent → ModifyQuery → CheckAccess → Respond
//
// No step raises a fatal error under normal operation: directory and
// classifier failures degrade to unknown/unclear, which the decision step
// can only map to a non-allow. The terminal State keeps every intermediate
// attribute for audit.
type Engine struct {
	resolver   directory.Resolver
	classifier IntentClassifier
	rewriter   *QueryRewriter
	authorizer *Authorizer
}

// NewEngine composes the pipeline.
func NewEngine(resolver directory.Resolver, classifier IntentClassifier, rewriter *QueryRewriter, authorizer *Authorizer) *Engine {
	return &Engine{
		resolver:   resolver,
		classifier: classifier,
		rewriter:   rewriter,
		authorizer: authorizer,
	}
}

// Evaluate runs one question through the pipeline and returns the terminal
// state.
func (e *Engine) Evaluate(ctx context.Context, email, question string) *State {
	st := &State{Email: email, Question: strings.TrimSpace(question)}

	e.fetchRole(ctx, st)
	e.classifyIntent(ctx, st)
	e.modifyQuery(st)
	e.checkAccess(st)

	return st
}

// fetchRole resolves the caller's role attributes. An absent record
// propagates the explicit unknown sentinel rather than aborting.
func (e *Engine) fetchRole(ctx context.Context, st *State) {
	id, err := e.resolver.Resolve(ctx, st.Email)
	if err != nil {
		slog.Warn("policy: identity resolution failed, treating caller as unknown",
			"email", st.Email, "err", err)
		id = directory.UnknownIdentity()
	}
	st.Designation = strings.ToLower(id.Designation)
	st.Department = id.Department
	st.Region = id.Region
	st.Regions = id.Regions
	st.EmployeeCode = id.EmployeeCode
	slog.Info("policy: fetched role",
		"email", st.Email,
		"designation", st.Designation,
		"department", st.Department,
		"region", st.Region,
	)
}

// classifyIntent runs the intent classifier; ambiguity and failures both
// yield unclear, which never resolves to an allow downstream.
func (e *Engine) classifyIntent(ctx context.Context, st *State) {
	intent, err := e.classifier.Classify(ctx, st.Question)
	if err != nil {
		slog.Warn("policy: intent classification failed, treating as unclear", "err", err)
		intent = IntentUnclear
	}
	st.Intent = intent
}

// modifyQuery applies region scoping and identifier suffixing.
func (e *Engine) modifyQuery(st *State) {
	st.ModifiedQuery = e.rewriter.Rewrite(st, e.authorizer.Elevated(st.Department))
}

// checkAccess writes the terminal decision.
func (e *Engine) checkAccess(st *State) {
	st.Decision = e.authorizer.Check(st)
}
