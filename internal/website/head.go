package website

import (
	"fmt"
	"html"
	"strings"
)

// RenderHead generates the <head> section.
func RenderHead(cfg PageConfig, customCSS string) string {
	var sb strings.Builder

	themeColor := cfg.ThemeColor
	if themeColor == "" {
		themeColor = Colors["primary"]
	}

	sb.WriteString("<head>\n")
	sb.WriteString(`<meta charset="UTF-8">` + "\n")
	sb.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1.0">` + "\n")
	sb.WriteString(fmt.Sprintf("<title>%s</title>\n", html.EscapeString(cfg.Title)))

	if cfg.Description != "" {
		sb.WriteString(fmt.Sprintf(`<meta name="description" content="%s">`+"\n", html.EscapeString(cfg.Description)))
	}
	sb.WriteString(fmt.Sprintf(`<meta name="theme-color" content="%s">`+"\n", html.EscapeString(themeColor)))
	sb.WriteString(`<meta name="robots" content="noindex">` + "\n")

	sb.WriteString("<style>\n")
	sb.WriteString(RenderStyles(WithCustomColors(map[string]string{"primary": themeColor})))
	if customCSS != "" {
		sb.WriteString("\n")
		sb.WriteString(customCSS)
	}
	sb.WriteString("\n</style>\n")

	sb.WriteString("</head>\n")

	return sb.String()
}

// RenderScript returns the live client script tag, carrying the CSP nonce
// when one is set.
func RenderScript(cfg PageConfig) string {
	if cfg.ScriptSrc == "" {
		return ""
	}
	nonce := ""
	if cfg.Nonce != "" {
		nonce = fmt.Sprintf(` nonce="%s"`, html.EscapeString(cfg.Nonce))
	}
	return fmt.Sprintf(`<script src="%s"%s defer></script>`, html.EscapeString(cfg.ScriptSrc), nonce)
}

// RenderLiveRoot wraps rendered component markup in the element the live
// client patches.
func RenderLiveRoot(cfg PageConfig, content string) string {
	return fmt.Sprintf(`<div data-live-root data-live-path="%s" data-upload-url="%s">%s</div>`,
		html.EscapeString(cfg.LivePath), html.EscapeString(cfg.UploadURL), content)
}

// RenderDocument wraps content in a complete HTML document.
func RenderDocument(cfg PageConfig, customCSS, bodyContent string) string {
	lang := cfg.Language
	if lang == "" {
		lang = "en"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="%s">
%s<body>
%s
%s
</body>
</html>`, html.EscapeString(lang), RenderHead(cfg, customCSS), bodyContent, RenderScript(cfg))
}
