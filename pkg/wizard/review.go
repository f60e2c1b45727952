package wizard

import (
	"strings"
	"unicode"

	"github.com/gabrielmiguelok/formwizard/pkg/security"
)

// EmptyValuePlaceholder stands in for a field with no value in the review.
const EmptyValuePlaceholder = "—"

// ReviewEntry is one row of the review summary.
type ReviewEntry struct {
	Name  string
	Label string

	// Value is the raw, unescaped value.
	Value string
}

// Empty reports whether the entry has no value.
func (e ReviewEntry) Empty() bool {
	return e.Value == ""
}

// Labelize turns a field name into a display label by putting a space before
// each internal capital letter and upper-casing the first letter:
// "companyName" becomes "Company Name".
func Labelize(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range name {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// RenderReviewHTML renders entries as a two-column definition grid. Labels
// and values are escaped; empty values show EmptyValuePlaceholder.
func RenderReviewHTML(entries []ReviewEntry) string {
	var b strings.Builder
	b.WriteString(`<dl class="review-grid" style="display:grid;grid-template-columns:1fr 1fr;gap:10px">`)
	for _, e := range entries {
		b.WriteString(`<div class="review-item" style="padding:8px 0"><dt><strong>`)
		b.WriteString(security.EscapeHTML(e.Label))
		b.WriteString(`:</strong></dt><dd class="muted">`)
		if e.Empty() {
			b.WriteString(`<span class="placeholder" style="color:#888">` + EmptyValuePlaceholder + `</span>`)
		} else {
			b.WriteString(security.EscapeHTML(e.Value))
		}
		b.WriteString(`</dd></div>`)
	}
	b.WriteString(`</dl>`)
	return b.String()
}

// RenderReviewText renders entries as "Label: value" lines.
func RenderReviewText(entries []ReviewEntry) string {
	var b strings.Builder
	for _, e := range entries {
		value := e.Value
		if e.Empty() {
			value = EmptyValuePlaceholder
		}
		b.WriteString(e.Label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteByte('\n')
	}
	return b.String()
}
