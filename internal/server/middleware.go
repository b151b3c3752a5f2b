package server

import (
	"net/http"
	"strconv"
	"strings"
)

// Middleware enforces the limiter in front of an arbitrary handler, the way
// the decision API's own callers are expected to: 429 with a Retry-After
// header when the window is full, 401 for an unknown credential. Paths in
// skip (health, metrics) bypass the limiter entirely.
//
// The caller identifier is taken from X-User-ID when present. Without it the
// tenant's anonymous traffic shares one bucket; an ephemeral per-connection
// identifier would hand a reconnecting client a fresh window each time.
func Middleware(h *Handler, skip map[string]struct{}) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			credential := strings.TrimSpace(r.Header.Get(h.authHeader))
			callerID := strings.TrimSpace(r.Header.Get("X-User-ID"))

			dec, err := h.engine.Decide(r.Context(), credential, callerID, r.URL.Path, r.Method)
			if err != nil {
				code, errCode, msg := mapDecideError(err)
				writeError(w, code, errCode, msg)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(dec.Remaining, 10))
			if !dec.Allowed {
				w.Header().Set("Retry-After", strconv.FormatInt(dec.RetryAfterSeconds, 10))
				writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
