package folio

import "fmt"

// Warnings accumulates non-fatal diagnostics while an entry is validated and
// applied. A step that fails fatally returns an error instead; warnings and
// errors are deliberately separate channels so that a successful operation can
// still carry discrepancies for the user to review.
type Warnings []string

// Addf appends a formatted warning.
func (w *Warnings) Addf(format string, args ...any) {
	*w = append(*w, fmt.Sprintf(format, args...))
}

// Merge appends all warnings from other.
func (w *Warnings) Merge(other Warnings) {
	*w = append(*w, other...)
}

// Prefixed returns a copy of the warnings with every message prefixed,
// typically with the holding or field the warning relates to.
func (w Warnings) Prefixed(prefix string) Warnings {
	if len(w) == 0 {
		return nil
	}
	out := make(Warnings, 0, len(w))
	for _, msg := range w {
		out = append(out, prefix+": "+msg)
	}
	return out
}
