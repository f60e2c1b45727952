package wizardview

import (
	"context"
	"io"
	"strings"

	"github.com/gabrielmiguelok/formwizard/internal/website"
	"github.com/gabrielmiguelok/formwizard/pkg/core"
	"github.com/gabrielmiguelok/formwizard/pkg/pool"
	"github.com/gabrielmiguelok/formwizard/pkg/router"
	"github.com/gabrielmiguelok/formwizard/pkg/wizard"
)

// Layout wraps the wizard render in the page document. An empty page title
// falls back to the definition title.
func Layout(page website.PageConfig, def func() *wizard.Definition) router.Layout {
	return func(ctx context.Context, content core.Renderer) core.Renderer {
		return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
			buf := pool.GetBuffer()
			defer pool.PutBuffer(buf)
			if err := content.Render(ctx, buf); err != nil {
				return err
			}

			cfg := page
			cfg.Nonce = router.GetCSPNonce(ctx)
			if cfg.Title == "" && def != nil {
				if d := def(); d != nil {
					cfg.Title = d.Title
				}
			}

			body := website.RenderLiveRoot(cfg, buf.String())
			_, err := io.WriteString(w, website.RenderDocument(cfg, wizardCSS, body))
			return err
		})
	}
}

var wizardCSS = strings.TrimSpace(`
.wizard{max-width:960px;margin:2rem auto;padding:0 1rem}
.steps{display:flex;gap:0.5rem;list-style:none;margin-bottom:1.5rem;flex-wrap:wrap}
.step{padding:0.4rem 0.8rem;border-radius:999px;border:1px solid var(--color-border);cursor:pointer}
.step.current{background:var(--color-primary);border-color:var(--color-primary);color:#FFFFFF}
.step.completed{border-color:var(--color-primary);color:var(--color-primary)}
.step-num{font-weight:700}
.wizard-body{display:grid;grid-template-columns:2fr 1fr;gap:1.5rem}
.field{margin-bottom:1rem}
.actions{display:flex;gap:0.5rem;margin-top:1rem}
.help{padding:1rem;border-radius:0.5rem;background:var(--color-bgAlt)}
.review{margin-bottom:1rem}
.dropzone{padding:1.5rem;border:2px dashed var(--color-border);border-radius:0.5rem;text-align:center;cursor:pointer}
.dropzone.active{border-color:var(--color-primary);background:var(--color-bgAlt)}
.files{margin-top:0.5rem;list-style:none}
.submitted{margin-top:1rem;font-weight:600}
.toast{position:fixed;right:20px;bottom:20px;padding:10px 14px;border-radius:8px;background:#0b6b3f;color:#FFFFFF;z-index:9999}
[hidden]{display:none !important}
@media (max-width:720px){.wizard-body{grid-template-columns:1fr}}
`)
