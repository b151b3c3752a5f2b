package rules

import "strings"

// matchEndpoint reports whether a rule's endpoint pattern covers a concrete
// endpoint. A pattern without "*" must match exactly. A "*" matches any
// substring, including "/" and the empty string; this is glob-style, not
// regex. "/api/*" covers "/api/users" and "/api/users/42"; "*" covers
// everything.
func matchEndpoint(pattern, endpoint string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == endpoint
	}

	parts := strings.Split(pattern, "*")

	if !strings.HasPrefix(endpoint, parts[0]) {
		return false
	}
	endpoint = endpoint[len(parts[0]):]

	last := len(parts) - 1
	for _, part := range parts[1:last] {
		idx := strings.Index(endpoint, part)
		if idx < 0 {
			return false
		}
		endpoint = endpoint[idx+len(part):]
	}

	return strings.HasSuffix(endpoint, parts[last])
}
