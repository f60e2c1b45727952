package security

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeHelp(t *testing.T) {
	raw := `<h4>Company Info</h4><p class="muted" onclick="x()">Fill fields</p><script>alert(1)</script><ul><li>one</li></ul>`

	got := SanitizeHelp(raw)

	assert.Contains(t, got, "<h4>Company Info</h4>")
	assert.Contains(t, got, `<p class="muted">Fill fields</p>`)
	assert.Contains(t, got, "<li>one</li>")
	assert.NotContains(t, got, "script")
	assert.NotContains(t, got, "onclick")
	assert.Equal(t, "", SanitizeHelp("   "))
}

func TestEscapeHTML(t *testing.T) {
	got := EscapeHTML(`<script>a & b</script>`)
	assert.Equal(t, "&lt;script&gt;a &amp; b&lt;/script&gt;", got)
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "bold", StripTags("<b>bold</b>"))
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.pdf":              "report.pdf",
		"../../etc/passwd":        "passwd",
		`C:\Users\me\invoice.csv`: "invoice.csv",
		"":                        "file",
		"a\x00b.txt":              "a_b.txt",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFilename(in), "input %q", in)
	}

	long := strings.Repeat("x", 300) + ".pdf"
	got := SanitizeFilename(long)
	assert.Len(t, got, 255)
	assert.True(t, strings.HasSuffix(got, ".pdf"))
}

func TestSanitizeFilename_LongExtension(t *testing.T) {
	got := SanitizeFilename("report." + strings.Repeat("x", 300))

	assert.Len(t, got, 255)
	assert.True(t, strings.HasPrefix(got, "report.x"))
}

func TestSanitizeFilename_KeepsRunesWhole(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("é", 200) + ".pdf")

	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), 255)
	assert.True(t, strings.HasSuffix(got, ".pdf"))
	assert.Equal(t, strings.Repeat("é", 125)+".pdf", got)
}
