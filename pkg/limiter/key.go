package limiter

import "strings"

const (
	keyDelim        = ":"
	anonymousCaller = "anonymous"
	anyMethod       = "ALL"
)

// BuildKey encodes (tenantID, callerID, endpoint, method) into the bucket key
// scoping one sliding window counter. The encoding is deterministic: identical
// inputs always produce the identical key, and differing any component changes
// it. An empty callerID becomes "anonymous", an empty method becomes "ALL".
//
// Components are joined with ":". Free-form identifiers that could contain the
// delimiter are escaped so that two different tuples cannot collapse into the
// same key. Store implementations prepend their own namespace prefix.
func BuildKey(tenantID, callerID, endpoint, method string) string {
	if callerID == "" {
		callerID = anonymousCaller
	}
	if method == "" {
		method = anyMethod
	}

	var b strings.Builder
	b.Grow(len(tenantID) + len(callerID) + len(endpoint) + len(method) + 3)
	b.WriteString(escapeKeyPart(tenantID))
	b.WriteString(keyDelim)
	b.WriteString(escapeKeyPart(callerID))
	b.WriteString(keyDelim)
	b.WriteString(escapeKeyPart(endpoint))
	b.WriteString(keyDelim)
	b.WriteString(escapeKeyPart(method))
	return b.String()
}

// escapeKeyPart keeps the delimiter-joined encoding injective. "%" is escaped
// first so escaped output never aliases a literal input.
func escapeKeyPart(s string) string {
	if !strings.ContainsAny(s, "%"+keyDelim) {
		return s
	}
	s = strings.ReplaceAll(s, "%", "%25")
	return strings.ReplaceAll(s, keyDelim, "%3A")
}
