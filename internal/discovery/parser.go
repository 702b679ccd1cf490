package discovery

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var (
	// Matches methods starting with "test", any visibility/static/final order:
	// - public function testCreateUser()
	// - function test_user_login()
	// - final public function testSomething()
	testMethodPattern = regexp.MustCompile(`(?m)^\s*(?:(?:public|protected|private|static|final)\s+)*(?:public|protected|private)?\s*function\s+(test\w+|test_\w+)\s*\(`)

	// Methods marked with an @test annotation
	annotatedPatterns = []*regexp.Regexp{
		// @test on previous line(s) followed by function
		regexp.MustCompile(`(?m)@test\s*\n\s*(?:/\*\*.*?\*/)?\s*(?:(?:public|protected|private|static|final)\s+)*(?:public|protected|private)?\s*function\s+(\w+)\s*\(`),
		// @test in docblock (handles multi-line docblocks)
		regexp.MustCompile(`(?m)/\*\*[\s\S]*?@test[\s\S]*?\*/\s*(?:(?:public|protected|private|static|final)\s+)*(?:public|protected|private)?\s*function\s+(\w+)\s*\(`),
		// @test on same line as function
		regexp.MustCompile(`(?m)@test.*?function\s+(\w+)\s*\(`),
	}
)

// Parser parses test files to extract test cases
type Parser struct{}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{}
}

// FindTestCases finds all test cases in a test file, in declaration order
func (p *Parser) FindTestCases(filePath string) ([]string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", filePath, err)
	}
	return p.parse(string(content)), nil
}

func (p *Parser) parse(fileContent string) []string {
	// method name -> offset of its declaration
	found := make(map[string]int)
	add := func(name string, offset int) {
		if prev, ok := found[name]; !ok || offset < prev {
			found[name] = offset
		}
	}

	for _, m := range testMethodPattern.FindAllStringSubmatchIndex(fileContent, -1) {
		add(fileContent[m[2]:m[3]], m[2])
	}

	for _, pattern := range annotatedPatterns {
		for _, m := range pattern.FindAllStringSubmatchIndex(fileContent, -1) {
			name := fileContent[m[2]:m[3]]
			// Already covered by the test* pattern
			if strings.HasPrefix(name, "test") {
				continue
			}
			add(name, m[2])
		}
	}

	testCases := make([]string, 0, len(found))
	for name := range found {
		testCases = append(testCases, name)
	}
	sort.Slice(testCases, func(i, j int) bool {
		return found[testCases[i]] < found[testCases[j]]
	})
	return testCases
}
