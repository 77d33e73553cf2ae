// Package router classifies an incoming question into the handler pipeline
// it belongs to: policy reasoning, structured document lookup, or both.
package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ashdev101/mongo-rag/internal/llm"
)

// Route is the destination pipeline for a question.
type Route string

const (
	RoutePolicy   Route = "policy"
	RouteDocument Route = "document"
	RouteBoth     Route = "both"
)

// Result is a routing decision. DocQuery and PolicyQuery are populated only
// when Route is RouteBoth.
type Result struct {
	Route       Route   `json:"route"`
	Confidence  float64 `json:"confidence"`
	Reason      string  `json:"reason"`
	DocQuery    string  `json:"doc_query,omitempty"`
	PolicyQuery string  `json:"policy_query,omitempty"`
}

var policyKeywords = []string{
	"policy", "policies", "compliance", "procedure", "guideline",
	"eligibility", "law", "legal", "regulation", "entitlement",
	"disciplinary", "grievance", "confidentiality", "privacy", "appeal",
	"escalate", "approval", "how should", "can i", "do i have to", "notice period",
	"severance", "probation", "maternity", "paternity", "benefits", "reimbursement",
	"leave policy", "attendance policy", "termination", "resignation", "promotion policy",
}

var documentKeywords = []string{
	"report", "show", "list", "rows", "find", "get", "give me", "count",
	"employee", "person number", "emp code", "classroom", "attendance",
	"pms", "pip", "leave", "transaction", "goal", "status", "requests",
	"table", "data", "value", "document", "balance", "payroll",
	"performance", "manager email", "assigned on", "start date", "end date",
}

const routePrompt = `You are an HR assistant intent classifier used in production.
Goal: decide whether a user's natural-language query should be routed to exactly one of:
 - "policy"   : requires HR policy interpretation, rules, eligibility or prescriptive guidance.
 - "document" : requires fetching/returning factual data from internal structured sources.
 - "both"     : the query legitimately requires both a document lookup AND policy reasoning.

Operational rules:
- Final allowed routes: policy, document, both.
- If the user request includes explicit instructions to fetch records or IDs, prefer document.
- If the request asks for rules/eligibility/what-to-do, prefer policy.
- If the request requires both factual lookup and rule interpretation, mark both.
- Always output JSON only:
  {"route":"policy"|"document"|"both", "confidence":<0-1 float>, "reason":"short justification"}

Examples:
- "What is the leave policy for probation employees?" -> policy
- "Show me my leave balance" -> document
- "Show my leave balance and tell me if unused leaves can be encashed" -> both
- "Who is the manager for person number 293?" -> document
- "How do I apply for reimbursement?" -> policy

Be deterministic, concise and return JSON only.`

const splitPrompt = `You will rewrite the user's single nested query into exactly two concise sub-queries in JSON.
Return ONLY valid JSON with keys "doc_query" and "policy_query".
doc_query should be a short instruction for the document retrieval handler.
policy_query should be a short instruction for the policy reasoning handler.`

// Completer is the slice of the chat client the router needs.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Router decides the destination pipeline for a question. The LLM call is
// the primary path; keyword scoring takes over whenever the model is
// unavailable or answers out of band.
type Router struct {
	llm Completer
}

// New returns a Router. A nil completer makes the keyword fallback the only
// path, which keeps the router usable without an upstream model.
func New(completer Completer) *Router {
	return &Router{llm: completer}
}

// Classify routes a question. It never returns an error: every failure mode
// degrades to the deterministic keyword decision.
func (r *Router) Classify(ctx context.Context, question string) Result {
	q := strings.TrimSpace(question)
	if q == "" {
		return Result{Route: RoutePolicy, Confidence: 0, Reason: "empty query"}
	}
	if r.llm == nil {
		return r.keywordDecision(q)
	}

	raw, err := r.llm.Complete(ctx, routePrompt, `User query:
"`+q+`"

Classify according to the SYSTEM instructions above. Return only JSON.`)
	if err != nil {
		slog.Warn("router: classification call failed, using keyword fallback", "err", err)
		return r.keywordDecision(q)
	}

	var parsed Result
	if err := json.Unmarshal([]byte(llm.ExtractJSONObject(raw)), &parsed); err != nil {
		slog.Warn("router: unparseable classification, using keyword fallback", "err", err)
		return r.keywordDecision(q)
	}
	parsed.Route = Route(strings.ToLower(string(parsed.Route)))
	parsed.Confidence = clamp01(parsed.Confidence)

	switch parsed.Route {
	case RoutePolicy, RouteDocument:
		return parsed
	case RouteBoth:
		parsed.DocQuery, parsed.PolicyQuery = r.splitQueries(ctx, q)
		return parsed
	}

	// Out-of-band route name. Keyword multi-intent detection first, then
	// the deterministic fallback.
	if pol, doc := keywordScores(q); pol > 0 && doc > 0 {
		dq, pq := splitByKeywords(q)
		return Result{
			Route:       RouteBoth,
			Confidence:  0.9,
			Reason:      "both policy and document cues present",
			DocQuery:    dq,
			PolicyQuery: pq,
		}
	}
	return r.keywordDecision(q)
}

// splitQueries asks the model for focused sub-queries and falls back to the
// conjunction heuristic.
func (r *Router) splitQueries(ctx context.Context, question string) (docQ, polQ string) {
	raw, err := r.llm.Complete(ctx, splitPrompt,
		`Original query: "`+question+`". Produce JSON {"doc_query":"...","policy_query":"..."}.`)
	if err == nil {
		var split struct {
			DocQuery    string `json:"doc_query"`
			PolicyQuery string `json:"policy_query"`
		}
		if jerr := json.Unmarshal([]byte(llm.ExtractJSONObject(raw)), &split); jerr == nil &&
			split.DocQuery != "" && split.PolicyQuery != "" {
			return strings.TrimSpace(split.DocQuery), strings.TrimSpace(split.PolicyQuery)
		}
	}
	return splitByKeywords(question)
}

func (r *Router) keywordDecision(question string) Result {
	pol, doc := keywordScores(question)
	switch {
	case pol == 0 && doc == 0:
		return Result{Route: RoutePolicy, Confidence: 0.55, Reason: "no strong keywords, defaulting to policy"}
	case pol > 0 && doc > 0:
		dq, pq := splitByKeywords(question)
		return Result{
			Route:       RouteBoth,
			Confidence:  0.8,
			Reason:      "both policy and document cues present",
			DocQuery:    dq,
			PolicyQuery: pq,
		}
	case pol > doc:
		return Result{Route: RoutePolicy, Confidence: 0.75, Reason: "keyword-based policy detection"}
	default:
		return Result{Route: RouteDocument, Confidence: 0.75, Reason: "keyword-based document detection"}
	}
}

func keywordScores(question string) (pol, doc int) {
	q := strings.ToLower(question)
	for _, kw := range policyKeywords {
		if strings.Contains(q, kw) {
			pol++
		}
	}
	for _, kw := range documentKeywords {
		if strings.Contains(q, kw) {
			doc++
		}
	}
	return pol, doc
}

var conjunctionRe = regexp.MustCompile(`(?i)\band\b|\bthen\b|;|\bor\b`)

// splitByKeywords splits a nested query on conjunctions and buckets each
// clause by its keyword cues. Ambiguous clauses go to both handlers.
func splitByKeywords(question string) (docQ, polQ string) {
	var docs, pols []string
	for _, part := range conjunctionRe.Split(strings.TrimSpace(question), -1) {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}
		pl := strings.ToLower(p)
		switch {
		case containsAnyKeyword(pl, documentKeywords):
			docs = append(docs, p)
		case containsAnyKeyword(pl, policyKeywords):
			pols = append(pols, p)
		default:
			docs = append(docs, p)
			pols = append(pols, p)
		}
	}
	docQ, polQ = strings.Join(docs, " ; "), strings.Join(pols, " ; ")
	if docQ == "" {
		docQ = question
	}
	if polQ == "" {
		polQ = question
	}
	return docQ, polQ
}

func containsAnyKeyword(s string, kws []string) bool {
	for _, kw := range kws {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
