// Package api exposes the HTTP surface of the query proxy.
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ashdev101/mongo-rag/internal/gateway"
	"github.com/ashdev101/mongo-rag/internal/policy"
	"github.com/ashdev101/mongo-rag/internal/router"
)

// Handler implements all HTTP endpoints.
type Handler struct {
	router  *router.Router
	engine  *policy.Engine
	gateway *gateway.Gateway
}

// New creates a Handler.
func New(rt *router.Router, engine *policy.Engine, gw *gateway.Gateway) *Handler {
	return &Handler{router: rt, engine: engine, gateway: gw}
}

// Register mounts routes on the given mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("POST /v1/query", h.query)
}

// queryRequest is one caller question.
type queryRequest struct {
	Email    string `json:"email"`
	Question string `json:"question"`
	Stream   bool   `json:"stream"`
}

// queryResponse is the terminal reply for non-streaming calls. The policy
// fields are present whenever the access engine ran; the answer fields only
// when the decision allowed execution.
type queryResponse struct {
	RequestID     string           `json:"request_id"`
	Route         router.Route     `json:"route"`
	RouteReason   string           `json:"route_reason,omitempty"`
	PolicyQuery   string           `json:"policy_query,omitempty"`
	Decision      policy.Decision  `json:"decision,omitempty"`
	Intent        policy.Intent    `json:"intent,omitempty"`
	ModifiedQuery string           `json:"modified_query,omitempty"`
	Answer        string           `json:"answer,omitempty"`
	MaskedRows    []map[string]any `json:"masked_results,omitempty"`
	Operations    []string         `json:"agg_pipeline,omitempty"`
	MaskedQuery   string           `json:"masked_query,omitempty"`
	QueryHash     string           `json:"query_hash,omitempty"`
	Message       string           `json:"message,omitempty"`
}

// ---------- endpoints ----------

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "failed to decode body: "+err.Error())
		return
	}
	defer r.Body.Close()

	req.Email = strings.TrimSpace(req.Email)
	req.Question = strings.TrimSpace(req.Question)
	if req.Email == "" || req.Question == "" {
		writeErr(w, http.StatusBadRequest, "email and question are required")
		return
	}

	reqID := uuid.NewString()
	log := slog.With("request_id", reqID, "email", req.Email)

	route := h.router.Classify(r.Context(), req.Question)
	log.Info("routed query", "route", route.Route, "confidence", route.Confidence)

	resp := queryResponse{
		RequestID:   reqID,
		Route:       route.Route,
		RouteReason: route.Reason,
		QueryHash:   gateway.QueryHash(req.Question),
	}

	// Policy questions carry no record data, so they bypass the access
	// engine entirely. The caller's policy handler consumes the sub-query.
	if route.Route == router.RoutePolicy {
		resp.PolicyQuery = req.Question
		writeJSON(w, http.StatusOK, resp)
		return
	}

	docQuestion := req.Question
	if route.Route == router.RouteBoth {
		docQuestion = route.DocQuery
		resp.PolicyQuery = route.PolicyQuery
	}

	st := h.engine.Evaluate(r.Context(), req.Email, docQuestion)
	resp.Decision = st.Decision
	resp.Intent = st.Intent
	resp.ModifiedQuery = st.ModifiedQuery

	if st.Decision != policy.DecisionAllowed {
		resp.Message = denialMessage(st.Decision)
		log.Info("query denied", "decision", st.Decision, "intent", st.Intent)
		writeJSON(w, http.StatusForbidden, resp)
		return
	}

	if req.Stream {
		h.streamAnswer(w, r, log, st.ModifiedQuery)
		return
	}

	out, err := h.gateway.Execute(r.Context(), st.ModifiedQuery)
	if err != nil {
		log.Error("gateway error", "err", err)
		writeErr(w, http.StatusBadGateway, err.Error())
		return
	}

	resp.Answer = out.Answer
	resp.MaskedRows = out.MaskedRows
	resp.Operations = out.Operations
	resp.MaskedQuery = out.MaskedQuery
	writeJSON(w, http.StatusOK, resp)
}

// streamAnswer proxies the agent's event stream, with token restoration
// already layered in by the gateway.
func (h *Handler) streamAnswer(w http.ResponseWriter, r *http.Request, log *slog.Logger, query string) {
	body, err := h.gateway.ExecuteStream(r.Context(), query)
	if err != nil {
		log.Error("gateway stream error", "err", err)
		writeErr(w, http.StatusBadGateway, err.Error())
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Warn("response writer does not support flushing")
	}

	buf := make([]byte, 4096)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				log.Error("client write error", "err", writeErr)
				return
			}
			if ok {
				flusher.Flush()
			}
		}
		if readErr != nil {
			if readErr != io.EOF {
				log.Error("agent read error", "err", readErr)
			}
			return
		}
	}
}

func denialMessage(d policy.Decision) string {
	if d == policy.DecisionNotAllowed {
		return "You are not allowed to access other employees' information."
	}
	return "Could not determine whether this request is about your own record. Please rephrase."
}

// ---------- helpers ----------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
