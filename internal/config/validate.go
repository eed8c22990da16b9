package config

import (
	"fmt"
	"os"
	"strings"
)

// ValidationResult holds config validation results.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// ValidateDetailed performs thorough config validation with suggestions.
func (c *Config) ValidateDetailed() *ValidationResult {
	result := &ValidationResult{}

	if err := c.Validate(); err != nil {
		result.Errors = append(result.Errors, err.Error())
	}

	for _, pattern := range c.Include {
		if !strings.Contains(pattern, "*") && !strings.HasSuffix(pattern, ".ts") && !strings.HasSuffix(pattern, ".tsx") {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("include: pattern %q has no wildcard or .ts extension; did you mean %q?", pattern, pattern+"/**/*.ts"))
		}
	}

	if c.Recursion.MaxDepth > 1024 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("recursion.maxDepth: %d is very large; deeply nested descriptors can bloat the output", c.Recursion.MaxDepth))
	}

	for _, f := range c.Marker.Files {
		if _, err := os.Stat(f); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("marker.files: %s does not exist", f))
		}
	}

	return result
}

// IsValid returns true if there are no errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}
