// Package server exposes the decision engine over HTTP: a check endpoint for
// callers, an invalidation hook for the rule management collaborator, and
// health/metrics endpoints for operators.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/vasan12sp/distributedRateLimiter/pkg/limiter"
)

// Decider is the engine surface the handlers need.
type Decider interface {
	Decide(ctx context.Context, credential, callerID, endpoint, method string) (limiter.Decision, error)
}

// Invalidator is the resolver surface the rule-change hook needs.
type Invalidator interface {
	Invalidate(tenantID string)
}

// CheckRequest is the decision API input. Identifier is optional; anonymous
// callers share one bucket per tenant/endpoint/method.
type CheckRequest struct {
	Identifier string `json:"identifier,omitempty"`
	Endpoint   string `json:"endpoint"`
	Method     string `json:"method"`
}

// CheckResponse is the decision API output.
type CheckResponse struct {
	Allowed           bool  `json:"allowed"`
	RetryAfterSeconds int64 `json:"retryAfterSeconds"`
	Remaining         int64 `json:"remaining"`
}

type invalidateRequest struct {
	Tenant string `json:"tenant"`
}

// AdminTokenHeader carries the shared secret for administrative endpoints.
const AdminTokenHeader = "X-Admin-Token"

// Handler serves the decision API. adminToken guards the invalidation hook;
// when it is empty the hook is disabled rather than left open.
type Handler struct {
	engine     Decider
	resolver   Invalidator
	authHeader string
	adminToken string
}

func NewHandler(engine Decider, resolver Invalidator, authHeader, adminToken string) *Handler {
	if authHeader == "" {
		authHeader = "X-API-Key"
	}
	return &Handler{engine: engine, resolver: resolver, authHeader: authHeader, adminToken: adminToken}
}

// Check handles POST /v1/check. Quota exhaustion is a 200 with allowed=false;
// the HTTP status codes are reserved for request errors.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	credential := strings.TrimSpace(r.Header.Get(h.authHeader))

	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}

	dec, err := h.engine.Decide(r.Context(), credential, req.Identifier, req.Endpoint, req.Method)
	if err != nil {
		code, errCode, msg := mapDecideError(err)
		writeError(w, code, errCode, msg)
		return
	}

	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(dec.Remaining, 10))
	if !dec.Allowed {
		w.Header().Set("Retry-After", strconv.FormatInt(dec.RetryAfterSeconds, 10))
	}
	writeJSON(w, http.StatusOK, CheckResponse{
		Allowed:           dec.Allowed,
		RetryAfterSeconds: dec.RetryAfterSeconds,
		Remaining:         dec.Remaining,
	})
}

// InvalidateRules handles POST /v1/rules/invalidate, fired by the rule
// management collaborator after any rule change so new decisions observe the
// updated rules. Callers authenticate with the shared admin token; without
// one an unauthenticated caller could flush tenant caches at will.
func (h *Handler) InvalidateRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	if h.adminToken == "" {
		writeError(w, http.StatusForbidden, "invalidation_disabled", "no admin token configured")
		return
	}
	token := strings.TrimSpace(r.Header.Get(AdminTokenHeader))
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid_admin_token", "admin token missing or not recognized")
		return
	}

	var req invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Tenant == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "tenant is required")
		return
	}

	h.resolver.Invalidate(req.Tenant)
	w.WriteHeader(http.StatusNoContent)
}

// mapDecideError translates engine errors onto HTTP statuses. The store
// unavailable case is only reachable under the fail-closed policy; fail-open
// never surfaces it.
func mapDecideError(err error) (int, string, string) {
	switch {
	case errors.Is(err, limiter.ErrInvalidCredential):
		return http.StatusUnauthorized, "invalid_api_key", "API key missing or not recognized"
	case errors.Is(err, limiter.ErrMalformedRequest):
		return http.StatusBadRequest, "invalid_request", "endpoint and method are required"
	case errors.Is(err, limiter.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable", "rate limit store unavailable"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, errCode, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":{"code":"` + errCode + `","message":"` + msg + `"}}`))
}
