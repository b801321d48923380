// Package validate defines the source-validation contract consumed by the
// modification pipeline: a syntax check plus safety heuristics comparing
// original and modified source. Hard issues block an apply; warnings are
// attached to results but never block.
package validate

// SyntaxError is one syntax problem located in candidate content.
type SyntaxError struct {
	Message string `json:"message"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
}

// SyntaxResult is the outcome of a syntax check. A non-empty Errors list
// always implies Valid=false.
type SyntaxResult struct {
	Valid  bool          `json:"valid"`
	Errors []SyntaxError `json:"errors,omitempty"`
}

// SafetyResult is the outcome of comparing original and modified source.
// Issues are hard failures; Warnings are informational.
type SafetyResult struct {
	Issues   []string `json:"issues,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Result combines both checks for embedding in modification results.
type Result struct {
	Valid    bool          `json:"valid"`
	Errors   []SyntaxError `json:"errors,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
}

// Validator checks candidate content before it is written to disk.
// Implementations must not panic across the boundary; they report
// problems through the result types.
type Validator interface {
	CheckSyntax(code string) SyntaxResult
	CheckSafety(original, modified string) SafetyResult
}
