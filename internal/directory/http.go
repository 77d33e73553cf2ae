package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// HTTPResolver looks identities up in a directory service over HTTP.
type HTTPResolver struct {
	url  string
	http *http.Client
}

// NewHTTPResolver creates a resolver for the given directory base URL
// (e.g. "http://hr-directory:8002").
func NewHTTPResolver(baseURL string) *HTTPResolver {
	return &HTTPResolver{
		url: baseURL + "/v1/employees",
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type lookupResponse struct {
	Found        bool   `json:"found"`
	Designation  string `json:"designation"`
	Department   string `json:"department"`
	Region       string `json:"region"`
	EmployeeCode int64  `json:"employee_code"`
}

// Resolve implements Resolver. Directory failures degrade to
// UnknownIdentity so that policy evaluation stays fail-closed instead of
// aborting the request.
func (r *HTTPResolver) Resolve(ctx context.Context, email string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		r.url+"?email="+url.QueryEscape(email), nil)
	if err != nil {
		return UnknownIdentity(), fmt.Errorf("directory: request: %w", err)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		slog.Warn("directory: service unreachable, treating caller as unknown", "err", err)
		return UnknownIdentity(), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return UnknownIdentity(), nil
	}
	if resp.StatusCode != http.StatusOK {
		slog.Warn("directory: unexpected status, treating caller as unknown", "code", resp.StatusCode)
		return UnknownIdentity(), nil
	}

	var lr lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		slog.Warn("directory: decode error, treating caller as unknown", "err", err)
		return UnknownIdentity(), nil
	}
	if !lr.Found {
		return UnknownIdentity(), nil
	}

	return Identity{
		Designation:  lr.Designation,
		Department:   lr.Department,
		Region:       lr.Region,
		Regions:      ParseRegions(lr.Region),
		EmployeeCode: lr.EmployeeCode,
		Found:        true,
	}, nil
}
