package website

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderDocument(t *testing.T) {
	cfg := DefaultPageConfig()
	cfg.Title = "Carbon <Report>"
	cfg.Nonce = "abc123"

	doc := RenderDocument(cfg, ".x{}", RenderLiveRoot(cfg, "<p>hi</p>"))

	assert.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"))
	assert.Contains(t, doc, `<html lang="en">`)
	assert.Contains(t, doc, "<title>Carbon &lt;Report&gt;</title>")
	assert.Contains(t, doc, ".x{}")
	assert.Contains(t, doc, `<div data-live-root data-live-path="/" data-upload-url="/uploads"><p>hi</p></div>`)
	assert.Contains(t, doc, `<script src="/_formwizard/formwizard.js" nonce="abc123" defer></script>`)
}

func TestRenderScript_NoNonce(t *testing.T) {
	cfg := DefaultPageConfig()
	assert.Equal(t, `<script src="/_formwizard/formwizard.js" defer></script>`, RenderScript(cfg))

	cfg.ScriptSrc = ""
	assert.Empty(t, RenderScript(cfg))
}

func TestRenderStyles_Stable(t *testing.T) {
	first := RenderStyles()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, RenderStyles())
	}

	custom := RenderStyles(WithCustomColors(map[string]string{"primary": "#000000"}))
	assert.Contains(t, custom, "--color-primary:#000000")
	assert.Contains(t, first, "--color-primary:"+Colors["primary"])
}

func TestRenderHead_ThemeColorDrivesPrimary(t *testing.T) {
	cfg := DefaultPageConfig()
	cfg.ThemeColor = "#0b6b3f"

	head := RenderHead(cfg, "")
	assert.Contains(t, head, `<meta name="theme-color" content="#0b6b3f">`)
	assert.Contains(t, head, "--color-primary:#0b6b3f")
}
