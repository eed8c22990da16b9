package diagnostic

import (
	"fmt"
	"strings"
)

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Category classifies diagnostics for filtering.
type Category string

const (
	CategoryMissingTypeArgument Category = "missing-type-argument"
	CategoryCircularType        Category = "circular-type"
	CategoryDepthExceeded       Category = "depth-exceeded"
	CategoryConfigInvalid       Category = "config-invalid"
)

// Diagnostic represents a structured diagnostic message.
type Diagnostic struct {
	Severity Severity `json:"-"`
	Category Category `json:"category,omitzero"`
	File     string   `json:"file,omitzero"`
	Line     int      `json:"line,omitzero"`   // 1-based, 0 = unknown
	Column   int      `json:"column,omitzero"` // 1-based, 0 = unknown
	Message  string   `json:"message"`
	Hint     string   `json:"hint,omitzero"`
}

// String formats the diagnostic for display.
func (d Diagnostic) String() string {
	var sb strings.Builder

	if d.File != "" {
		sb.WriteString(d.File)
		if d.Line > 0 {
			fmt.Fprintf(&sb, ":%d", d.Line)
			if d.Column > 0 {
				fmt.Fprintf(&sb, ":%d", d.Column)
			}
		}
		sb.WriteString(" - ")
	}

	sb.WriteString(d.Severity.String())
	sb.WriteString(": ")

	if d.Category != "" {
		sb.WriteString("[")
		sb.WriteString(string(d.Category))
		sb.WriteString("] ")
	}

	sb.WriteString(d.Message)

	if d.Hint != "" {
		sb.WriteString("\n  hint: ")
		sb.WriteString(d.Hint)
	}

	return sb.String()
}

// Collector collects diagnostics during a transform. A nil *Collector
// discards everything.
type Collector struct {
	diagnostics []Diagnostic
	strict      bool // warnings become errors
	quiet       bool // warnings and infos are dropped
}

// NewCollector creates a new diagnostic collector.
func NewCollector(strict, quiet bool) *Collector {
	return &Collector{
		strict: strict,
		quiet:  quiet,
	}
}

// Add records d, applying the collector's strict and quiet policies.
func (c *Collector) Add(d Diagnostic) {
	if c == nil {
		return
	}
	switch d.Severity {
	case SeverityWarning:
		if c.quiet {
			return
		}
		if c.strict {
			d.Severity = SeverityError
		}
	case SeverityInfo:
		if c.quiet {
			return
		}
	}
	c.diagnostics = append(c.diagnostics, d)
}

// Warn adds a warning diagnostic.
func (c *Collector) Warn(category Category, file string, line, column int, message string) {
	c.Add(Diagnostic{Severity: SeverityWarning, Category: category, File: file, Line: line, Column: column, Message: message})
}

// WarnWithHint adds a warning with a suggestion.
func (c *Collector) WarnWithHint(category Category, file string, line, column int, message, hint string) {
	c.Add(Diagnostic{Severity: SeverityWarning, Category: category, File: file, Line: line, Column: column, Message: message, Hint: hint})
}

// Error adds an error diagnostic.
func (c *Collector) Error(category Category, file string, line, column int, message string) {
	c.Add(Diagnostic{Severity: SeverityError, Category: category, File: file, Line: line, Column: column, Message: message})
}

// Info adds an informational diagnostic.
func (c *Collector) Info(category Category, file string, line, column int, message string) {
	c.Add(Diagnostic{Severity: SeverityInfo, Category: category, File: file, Line: line, Column: column, Message: message})
}

// Merge appends other's diagnostics without re-applying policies.
func (c *Collector) Merge(other *Collector) {
	if c == nil || other == nil {
		return
	}
	c.diagnostics = append(c.diagnostics, other.diagnostics...)
}

// Diagnostics returns all collected diagnostics.
func (c *Collector) Diagnostics() []Diagnostic {
	if c == nil {
		return nil
	}
	return c.diagnostics
}

func (c *Collector) count(sev Severity) int {
	if c == nil {
		return 0
	}
	n := 0
	for _, d := range c.diagnostics {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// HasErrors returns true if any error-level diagnostics exist.
func (c *Collector) HasErrors() bool {
	return c.ErrorCount() > 0
}

// ErrorCount returns the number of error diagnostics.
func (c *Collector) ErrorCount() int {
	return c.count(SeverityError)
}

// WarningCount returns the number of warning diagnostics.
func (c *Collector) WarningCount() int {
	return c.count(SeverityWarning)
}

// FormatAll formats all diagnostics as a multi-line string.
func (c *Collector) FormatAll() string {
	if c == nil || len(c.diagnostics) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, d := range c.diagnostics {
		sb.WriteString(d.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Summary returns a summary line like "1 error(s), 2 warning(s)".
func (c *Collector) Summary() string {
	if c == nil {
		return ""
	}
	warnings := c.WarningCount()
	errors := c.ErrorCount()

	parts := []string{}
	if errors > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", errors))
	}
	if warnings > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", warnings))
	}
	if len(parts) == 0 {
		return "no issues"
	}
	return strings.Join(parts, ", ")
}
