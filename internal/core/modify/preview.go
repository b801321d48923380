package modify

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Preview computes the hypothetical result of substituting the first
// literal occurrence of original with replacement in current content.
// It performs no I/O and has no side effects; safe to call repeatedly.
func Preview(current, original, replacement string) PreviewResult {
	if !strings.Contains(current, original) {
		return PreviewResult{
			Code:  CodeNotFound,
			Error: "original text not found in current content",
		}
	}

	preview := strings.Replace(current, original, replacement, 1)

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(current, preview, false)

	return PreviewResult{
		Success: true,
		Preview: preview,
		Diff:    renderDiff(diffs),
	}
}

// Preview is exposed on the service for symmetry with the other entry
// points; it reads nothing from the service.
func (s *Service) Preview(current, original, replacement string) PreviewResult {
	return Preview(current, original, replacement)
}

// renderDiff produces a plain-text rendering of a diff, one hunk per
// line, suitable for logs and JSON output.
func renderDiff(diffs []diffmatchpatch.Diff) string {
	var b strings.Builder
	for _, d := range diffs {
		text := strings.TrimRight(d.Text, "\n")
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			for _, line := range strings.Split(text, "\n") {
				fmt.Fprintf(&b, "+ %s\n", line)
			}
		case diffmatchpatch.DiffDelete:
			for _, line := range strings.Split(text, "\n") {
				fmt.Fprintf(&b, "- %s\n", line)
			}
		case diffmatchpatch.DiffEqual:
			// Equal runs are elided; surrounding context is visible in
			// the preview content itself.
		}
	}
	return b.String()
}
