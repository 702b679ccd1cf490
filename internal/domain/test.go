package domain

import "strings"

// TestIDSeparator separates the test file from the test method in a test ID
const TestIDSeparator = "::"

// Test represents a test file to be executed
type Test struct {
	Path     string // Full path to the test file
	FilePath string // Relative file path
	FileName string // Just the filename
}

// TestCase represents a single test case within a test file
type TestCase struct {
	ID       string // Stable identifier, e.g. tests/UserTest.php::testCreate
	Name     string // Test method name
	FilePath string // Path to the test file containing this case
}

// NewTestID builds the identifier of a test method inside a file.
func NewTestID(filePath, method string) string {
	return filePath + TestIDSeparator + method
}

// SplitTestID splits an identifier into its file and method parts.
func SplitTestID(id string) (filePath, method string, ok bool) {
	i := strings.LastIndex(id, TestIDSeparator)
	if i <= 0 || i+len(TestIDSeparator) >= len(id) {
		return "", "", false
	}
	return id[:i], id[i+len(TestIDSeparator):], true
}
