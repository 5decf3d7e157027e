package jwtguard

import (
	"fmt"
	"strings"
)

// pathMatcher implements the excluded-path check. Patterns match their exact
// path and everything below them on segment boundaries, so "/login" exempts
// "/login", "/login/" and "/login/step" but never "/login-admin". The
// pattern "/" exempts everything.
type pathMatcher []string

func newPathMatcher(patterns []string) (pathMatcher, error) {
	matcher := make(pathMatcher, 0, len(patterns))
	for _, pattern := range patterns {
		if !strings.HasPrefix(pattern, "/") {
			return nil, fmt.Errorf("excluded path %q must start with a slash", pattern)
		}
		matcher = append(matcher, normalizePath(pattern))
	}
	return matcher, nil
}

func (m pathMatcher) matches(path string) bool {
	path = normalizePath(path)
	for _, pattern := range m {
		if pattern == "/" {
			return true
		}
		if path == pattern || strings.HasPrefix(path, pattern+"/") {
			return true
		}
	}
	return false
}

func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}
