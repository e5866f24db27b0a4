package mw

import "testing"

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host    string
		pattern string
		want    bool
	}{
		{"bookaimark.com", "bookaimark.com", true},
		{"api.bookaimark.com", "*.bookaimark.com", true},
		{"bookaimark.com", "*.bookaimark.com", false},
		{"evilbookaimark.com", "*.bookaimark.com", false},
		{"other.com", "bookaimark.com", false},
	}

	for _, tt := range tests {
		if got := matchHost(tt.host, tt.pattern); got != tt.want {
			t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
		}
	}
}
