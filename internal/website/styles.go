package website

import (
	"fmt"
	"sort"
	"strings"
)

// Colors is the light palette of the wizard pages.
var Colors = map[string]string{
	"bg":        "#F8FAFC",
	"bgAlt":     "#FFFFFF",
	"text":      "#0F172A",
	"textMuted": "#475569",
	"border":    "#CBD5E1",

	"primary": "#6D28D9",
	"success": "#059669",
	"warning": "#B45309",
	"danger":  "#DC2626",
}

// FontFamily uses the system font stack.
var FontFamily = `system-ui, -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif`

// StyleOption allows customizing the generated CSS
type StyleOption func(*styleConfig)

type styleConfig struct {
	customColors map[string]string
}

// WithCustomColors overrides default colors
func WithCustomColors(colors map[string]string) StyleOption {
	return func(cfg *styleConfig) {
		for k, v := range colors {
			cfg.customColors[k] = v
		}
	}
}

// RenderStyles generates the base stylesheet.
func RenderStyles(opts ...StyleOption) string {
	cfg := &styleConfig{customColors: make(map[string]string)}
	for _, opt := range opts {
		opt(cfg)
	}

	colors := make(map[string]string, len(Colors))
	for k, v := range Colors {
		colors[k] = v
	}
	for k, v := range cfg.customColors {
		colors[k] = v
	}

	var sb strings.Builder
	sb.WriteString(cssReset())
	sb.WriteString(cssVariables(colors))
	sb.WriteString(cssBase())
	sb.WriteString(cssButtons())
	sb.WriteString(cssForms())
	return sb.String()
}

func cssReset() string {
	return `
*,*::before,*::after{box-sizing:border-box;margin:0;padding:0}
html{-webkit-text-size-adjust:100%;scroll-behavior:smooth}
body{line-height:1.6;-webkit-font-smoothing:antialiased}
input,button,textarea,select{font:inherit}
`
}

// cssVariables emits one custom property per color, sorted by name.
func cssVariables(colors map[string]string) string {
	names := make([]string, 0, len(colors))
	for name := range colors {
		names = append(names, name)
	}
	sort.Strings(names)

	vars := make([]string, len(names))
	for i, name := range names {
		vars[i] = fmt.Sprintf("--color-%s:%s", name, colors[name])
	}
	return fmt.Sprintf(":root{%s;--font-sans:%s}\n", strings.Join(vars, ";"), FontFamily)
}

func cssBase() string {
	return `
body{font-family:var(--font-sans);background:var(--color-bg);color:var(--color-text);min-height:100vh}
h1{font-size:1.75rem;font-weight:700;margin-bottom:1rem}
h2{font-size:1.25rem;font-weight:600;margin-bottom:0.75rem}
.muted{color:var(--color-textMuted)}
`
}

func cssButtons() string {
	return `
.btn{display:inline-flex;align-items:center;justify-content:center;padding:0.6rem 1.2rem;font-weight:600;border-radius:0.5rem;border:1px solid var(--color-border);background:var(--color-bgAlt);color:var(--color-text);cursor:pointer;min-height:2.75rem}
.btn:focus-visible{outline:2px solid var(--color-primary);outline-offset:2px}
.btn:disabled{opacity:0.5;cursor:not-allowed}
.btn-primary{background:var(--color-primary);border-color:var(--color-primary);color:#FFFFFF}
`
}

func cssForms() string {
	return `
label{display:block;font-weight:500;margin-bottom:0.25rem}
input,select,textarea{width:100%;padding:0.5rem 0.75rem;border:1px solid var(--color-border);border-radius:0.375rem;background:#FFFFFF}
input:focus,select:focus,textarea:focus{outline:2px solid var(--color-primary);border-color:var(--color-primary)}
.required{color:var(--color-danger)}
`
}
