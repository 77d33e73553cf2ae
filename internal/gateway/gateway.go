// Package gateway wraps a downstream HR agent with reversible redaction.
// Every query leaves masked (the rewriter's trailing caller identifier
// excepted, since the agent resolves self lookups by it), every answer comes
// back unmasked, and nothing the agent did not already receive as a token
// can leak through an error.
package gateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ashdev101/mongo-rag/internal/mask"
)

// Executed is the agent's raw reply, still in token form. Rows carry the
// structured records the agent consulted and Operations the pipeline stages
// it ran, both optional.
type Executed struct {
	Answer     string
	Rows       []map[string]any
	Operations []string
}

// Executor runs a masked query against the HR agent. Implementations must
// mask any record data they return through the session before handing it
// back, so that everything crossing the trust boundary stays in tokens.
type Executor interface {
	Execute(ctx context.Context, query string, s *mask.Session) (*Executed, error)
}

// StreamExecutor is the optional streaming counterpart. The returned body is
// still masked; the gateway layers restoration on top.
type StreamExecutor interface {
	ExecuteStream(ctx context.Context, query string, s *mask.Session) (io.ReadCloser, error)
}

// Outcome is the final result of one gateway round trip. The answer is
// restored for the caller; rows stay in token form so the whole record set
// can be persisted or displayed without PII.
type Outcome struct {
	Answer      string           `json:"answer"`
	MaskedRows  []map[string]any `json:"masked_results,omitempty"`
	Operations  []string         `json:"agg_pipeline,omitempty"`
	MaskedQuery string           `json:"masked_query"`
	Redactions  int              `json:"redactions"`
}

// Gateway masks queries on the way out and restores answers on the way
// back. Each Execute call uses a fresh session, so tokens never correlate
// across requests.
type Gateway struct {
	masker   *mask.Masker
	executor Executor
}

func New(masker *mask.Masker, executor Executor) *Gateway {
	return &Gateway{masker: masker, executor: executor}
}

// Execute runs one question through mask, agent, unmask. The error path is
// sanitized: executor failures surface without the original question or any
// unmasked values attached.
func (g *Gateway) Execute(ctx context.Context, query string) (*Outcome, error) {
	s := g.masker.NewSession()
	masked := maskPreservingIdentifier(s, query)

	ex, err := g.executor.Execute(ctx, masked, s)
	if err != nil {
		slog.Error("gateway: agent execution failed", "err", err, "tokens", s.Vault().Len())
		return nil, fmt.Errorf("agent execution failed")
	}

	answer := s.Unmask(ex.Answer)
	if residual := mask.ResidualTokens(answer); len(residual) > 0 {
		slog.Warn("gateway: answer contains unresolved tokens", "tokens", residual)
	}

	return &Outcome{
		Answer:      answer,
		MaskedRows:  ex.Rows,
		Operations:  ex.Operations,
		MaskedQuery: masked,
		Redactions:  s.Vault().Len(),
	}, nil
}

// ExecuteStream runs one question through a streaming agent. The returned
// reader restores tokens incrementally as chunks arrive; callers must close
// it.
func (g *Gateway) ExecuteStream(ctx context.Context, query string) (io.ReadCloser, error) {
	se, ok := g.executor.(StreamExecutor)
	if !ok {
		return nil, fmt.Errorf("agent does not support streaming")
	}

	s := g.masker.NewSession()
	masked := maskPreservingIdentifier(s, query)

	body, err := se.ExecuteStream(ctx, masked, s)
	if err != nil {
		slog.Error("gateway: agent stream failed", "err", err, "tokens", s.Vault().Len())
		return nil, fmt.Errorf("agent execution failed")
	}

	return &restoringBody{
		Reader: mask.NewRestoringReader(body, s.Vault()),
		closer: body,
	}, nil
}

// maskPreservingIdentifier applies the content strategy to the question but
// keeps a trailing caller-identifier suffix intact. The suffix is appended by
// the policy rewriter from the authenticated email, never taken from input,
// and the downstream query constructor resolves the caller's own record by
// it; masking it would leave self lookups unanswerable. Only the trailing
// suffix is exempt: a look-alike phrasing inside the question body is still
// masked.
func maskPreservingIdentifier(s *mask.Session, query string) string {
	if m := emailSuffixRe.FindStringIndex(query); m != nil {
		return s.MaskQuery(query[:m[0]]) + query[m[0]:]
	}
	return s.MaskQuery(query)
}

type restoringBody struct {
	io.Reader
	closer io.Closer
}

func (b *restoringBody) Close() error { return b.closer.Close() }
