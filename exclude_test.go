package jwtguard

import "testing"

func TestPathMatcher(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		path     string
		want     bool
	}{
		{"exact", []string{"/login"}, "/login", true},
		{"trailing slash on request", []string{"/login"}, "/login/", true},
		{"trailing slash on pattern", []string{"/login/"}, "/login", true},
		{"segment below", []string{"/login"}, "/login/step", true},
		{"deeply below", []string{"/login"}, "/login/a/b/c", true},
		{"sibling with shared prefix", []string{"/login"}, "/login-admin", false},
		{"different path", []string{"/login"}, "/users", false},
		{"root pattern matches all", []string{"/"}, "/anything/at/all", true},
		{"root pattern matches root", []string{"/"}, "/", true},
		{"empty matcher", nil, "/login", false},
		{"second pattern matches", []string{"/health", "/login"}, "/login", true},
		{"empty request path normalizes to root", []string{"/"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matcher, err := newPathMatcher(tt.patterns)
			if err != nil {
				t.Fatalf("newPathMatcher: %v", err)
			}
			if got := matcher.matches(tt.path); got != tt.want {
				t.Fatalf("matches(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestPathMatcherRejectsRelativePatterns(t *testing.T) {
	if _, err := newPathMatcher([]string{"login"}); err == nil {
		t.Fatal("expected error for pattern without leading slash")
	}
}
