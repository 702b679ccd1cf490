package discovery

import (
	"fmt"
	"path/filepath"

	"ptr/internal/domain"
)

// Collector turns test files into the ordered collection of test cases
type Collector struct {
	projectPath string
	scanner     *Scanner
	parser      *Parser
}

// NewCollector creates a Collector. IDs are relative to projectPath.
func NewCollector(projectPath string, scanner *Scanner, parser *Parser) *Collector {
	return &Collector{
		projectPath: projectPath,
		scanner:     scanner,
		parser:      parser,
	}
}

// Collect scans root and returns every test case, files in walk order and
// cases in declaration order
func (c *Collector) Collect(root string) ([]domain.TestCase, error) {
	files, err := c.scanner.Scan(root)
	if err != nil {
		return nil, err
	}

	var cases []domain.TestCase
	for _, file := range files {
		methods, err := c.parser.FindTestCases(file)
		if err != nil {
			return nil, err
		}
		rel := c.relative(file)
		for _, method := range methods {
			cases = append(cases, domain.TestCase{
				ID:       domain.NewTestID(rel, method),
				Name:     method,
				FilePath: rel,
			})
		}
	}
	return cases, nil
}

// CollectIDs is Collect reduced to test IDs
func (c *Collector) CollectIDs(root string) ([]string, error) {
	cases, err := c.Collect(root)
	if err != nil {
		return nil, fmt.Errorf("collect tests: %w", err)
	}
	ids := make([]string, len(cases))
	for i, tc := range cases {
		ids[i] = tc.ID
	}
	return ids, nil
}

func (c *Collector) relative(path string) string {
	if rel, err := filepath.Rel(c.projectPath, path); err == nil && !filepath.IsAbs(rel) && rel != ".." && !startsWithParent(rel) {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
