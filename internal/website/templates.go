// Package website renders the HTML document around live pages: head
// metadata, the inline stylesheet and the live client script tag.
package website

// PageConfig defines the document around a live page.
type PageConfig struct {
	// Title is the page title (shown in browser tab)
	Title string
	// Description is the meta description
	Description string
	// Language is the page language (default: "en")
	Language string
	// ThemeColor is the mobile browser theme color
	ThemeColor string

	// ScriptSrc is the URL of the live client script.
	ScriptSrc string
	// Nonce is the CSP nonce for the script tag.
	Nonce string

	// LivePath is where the client opens its websocket.
	LivePath string
	// UploadURL receives files from the drop zone and file picker.
	UploadURL string
}

// DefaultPageConfig returns a PageConfig with sensible defaults.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Language:   "en",
		ThemeColor: Colors["primary"],
		ScriptSrc:  "/_formwizard/formwizard.js",
		LivePath:   "/",
		UploadURL:  "/uploads",
	}
}
