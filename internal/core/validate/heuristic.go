package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// Heuristic is the default Validator. Its syntax check is a delimiter
// balance scan; its safety checks compare structural signals between the
// original and modified source. It is deliberately language-loose: the
// suggestion engine upstream targets JavaScript/TypeScript first, but
// the same signals hold for most curly-brace languages.
type Heuristic struct{}

// NewHeuristic creates the default validator.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// CheckSyntax scans for unbalanced brackets, braces, and parentheses,
// skipping string literals and comments.
func (h *Heuristic) CheckSyntax(code string) SyntaxResult {
	errs := scanDelimiters(code)
	return SyntaxResult{Valid: len(errs) == 0, Errors: errs}
}

// CheckSafety evaluates the modification against safety heuristics.
// Removed exported symbols are hard issues; everything else is a warning.
func (h *Heuristic) CheckSafety(original, modified string) SafetyResult {
	var result SafetyResult

	for _, sym := range removedExports(original, modified) {
		result.Issues = append(result.Issues, fmt.Sprintf("exported symbol %q was removed", sym))
	}

	origLines := countLines(original)
	newLines := countLines(modified)
	if origLines > 10 && newLines < origLines/2 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("content shrank from %d to %d lines; the modification may be truncating the file", origLines, newLines))
	}

	if before, after := countErrorHandling(original), countErrorHandling(modified); after < before {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("error-handling constructs reduced from %d to %d", before, after))
	}

	if before, after := countTypeAnnotations(original), countTypeAnnotations(modified); before > 0 && after < before {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("type annotations reduced from %d to %d", before, after))
	}

	return result
}

type delimiter struct {
	char byte
	line int
	col  int
}

var matching = map[byte]byte{')': '(', ']': '[', '}': '{'}

// scanDelimiters walks the source tracking open brackets, skipping over
// string literals, template literals, and // and /* */ comments.
func scanDelimiters(code string) []SyntaxError {
	var (
		errs  []SyntaxError
		stack []delimiter
		line  = 1
		col   = 0
	)

	for i := 0; i < len(code); i++ {
		c := code[i]
		col++
		if c == '\n' {
			line++
			col = 0
			continue
		}

		switch c {
		case '"', '\'', '`':
			// Skip to the end of the literal; backtick literals may span lines.
			quote := c
			for i++; i < len(code); i++ {
				col++
				if code[i] == '\\' {
					i++
					col++
					continue
				}
				if code[i] == '\n' {
					if quote != '`' {
						// Unterminated single-line literal; hand the
						// newline back to the outer scan.
						i--
						break
					}
					line++
					col = 0
					continue
				}
				if code[i] == quote {
					break
				}
			}
		case '/':
			if i+1 < len(code) && code[i+1] == '/' {
				for i < len(code) && code[i] != '\n' {
					i++
				}
				line++
				col = 0
			} else if i+1 < len(code) && code[i+1] == '*' {
				i += 2
				for i+1 < len(code) && !(code[i] == '*' && code[i+1] == '/') {
					if code[i] == '\n' {
						line++
						col = 0
					}
					i++
				}
				i++
			}
		case '(', '[', '{':
			stack = append(stack, delimiter{char: c, line: line, col: col})
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1].char != matching[c] {
				errs = append(errs, SyntaxError{
					Message: fmt.Sprintf("unexpected %q", string(c)),
					Line:    line,
					Column:  col,
				})
				continue
			}
			stack = stack[:len(stack)-1]
		}
	}

	for _, d := range stack {
		errs = append(errs, SyntaxError{
			Message: fmt.Sprintf("unclosed %q", string(d.char)),
			Line:    d.line,
			Column:  d.col,
		})
	}

	return errs
}

var exportPatterns = []*regexp.Regexp{
	// JS/TS: export function foo, export const foo, export class Foo, export default foo
	regexp.MustCompile(`(?m)^\s*export\s+(?:default\s+)?(?:async\s+)?(?:function|const|let|var|class|interface|type|enum)\s+([A-Za-z_$][\w$]*)`),
	// CommonJS: exports.foo = / module.exports.foo =
	regexp.MustCompile(`(?m)(?:module\.)?exports\.([A-Za-z_$][\w$]*)\s*=`),
	// Go: top-level declarations with an exported identifier
	regexp.MustCompile(`(?m)^(?:func|type|var|const)\s+([A-Z]\w*)`),
}

// exportedSymbols extracts the set of exported symbol names from source.
func exportedSymbols(code string) map[string]bool {
	symbols := make(map[string]bool)
	for _, re := range exportPatterns {
		for _, match := range re.FindAllStringSubmatch(code, -1) {
			symbols[match[1]] = true
		}
	}
	return symbols
}

// removedExports returns exported symbols present in original but absent
// from modified, sorted by first appearance in the original.
func removedExports(original, modified string) []string {
	before := exportedSymbols(original)
	after := exportedSymbols(modified)

	var removed []string
	for sym := range before {
		if !after[sym] {
			removed = append(removed, sym)
		}
	}
	sortByIndex(removed, original)
	return removed
}

func sortByIndex(symbols []string, source string) {
	for i := 1; i < len(symbols); i++ {
		for j := i; j > 0 && strings.Index(source, symbols[j]) < strings.Index(source, symbols[j-1]); j-- {
			symbols[j], symbols[j-1] = symbols[j-1], symbols[j]
		}
	}
}

var errorHandlingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\btry\s*{`),
	regexp.MustCompile(`\bcatch\s*[({]`),
	regexp.MustCompile(`\.catch\(`),
	regexp.MustCompile(`if\s+err\s*!=\s*nil`),
	regexp.MustCompile(`\brescue\b`),
	regexp.MustCompile(`\bexcept\b`),
}

func countErrorHandling(code string) int {
	count := 0
	for _, re := range errorHandlingPatterns {
		count += len(re.FindAllStringIndex(code, -1))
	}
	return count
}

// typeAnnotation matches TypeScript-style `name: Type` annotations.
var typeAnnotation = regexp.MustCompile(`[A-Za-z_$][\w$]*\s*:\s*[A-Z][\w$]*(?:<[^>]*>)?(?:\[\])?`)

func countTypeAnnotations(code string) int {
	return len(typeAnnotation.FindAllStringIndex(code, -1))
}

func countLines(code string) int {
	if code == "" {
		return 0
	}
	return strings.Count(code, "\n") + 1
}
