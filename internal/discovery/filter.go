package discovery

import (
	"path/filepath"
	"strings"
)

// Filter filters test IDs by name pattern
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// FilterByName keeps the tests whose name matches pattern. The name is the
// last path element of the test, so for an ID like tests/UserTest.php::testA
// it is "UserTest.php::testA". Supports patterns like "*UserTest.php*",
// "*Payment*" or a plain substring.
func (f *Filter) FilterByName(tests []string, pattern string) []string {
	if pattern == "" {
		return tests
	}

	var filtered []string
	for _, test := range tests {
		if matchName(filepath.Base(test), pattern) {
			filtered = append(filtered, test)
		}
	}
	return filtered
}

func matchName(name, pattern string) bool {
	// filepath.Match supports * and ? wildcards
	if matched, err := filepath.Match(pattern, name); err == nil && matched {
		return true
	}

	if !strings.ContainsAny(pattern, "*?") {
		return strings.Contains(name, pattern)
	}

	if !strings.Contains(pattern, "*") {
		return false
	}

	// More flexible than filepath.Match: every non-empty part between
	// wildcards must appear, in order
	rest := name
	nonEmpty := false
	for _, part := range strings.Split(pattern, "*") {
		if part == "" {
			continue
		}
		nonEmpty = true
		i := strings.Index(rest, part)
		if i < 0 {
			return false
		}
		rest = rest[i+len(part):]
	}
	return nonEmpty
}
