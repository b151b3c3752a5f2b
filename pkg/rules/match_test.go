package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchEndpoint(t *testing.T) {
	tests := []struct {
		pattern  string
		endpoint string
		want     bool
	}{
		{"/api/orders", "/api/orders", true},
		{"/api/orders", "/api/orders/42", false},
		{"/api/*", "/api/orders", true},
		{"/api/*", "/api/orders/42", true},
		{"/api/*", "/api/", true},
		{"/api/*", "/other", false},
		{"*", "/anything/at/all", true},
		{"/**", "/anything", true},
		{"/api/*/items", "/api/v1/items", true},
		{"/api/*/items", "/api/v1/other", false},
		{"*/health", "/internal/health", true},
		{"", "/api", false},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"~"+tt.endpoint, func(t *testing.T) {
			assert.Equal(t, tt.want, matchEndpoint(tt.pattern, tt.endpoint))
		})
	}
}
