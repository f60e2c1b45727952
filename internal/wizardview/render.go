package wizardview

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/gabrielmiguelok/formwizard/pkg/forms"
	"github.com/gabrielmiguelok/formwizard/pkg/wizard"
)

// Element ids the client and the tests rely on.
const (
	ContainerID = "wizard"
	FormID      = "multiForm"
	HelpID      = "helpBox"
	ReviewID    = "reviewArea"
	DropZoneID  = "uploadDash"
	FileInputID = "fileInput"
	PrevID      = "prevBtn"
	NextID      = "nextBtn"
	SubmitID    = "submitBtn"
	SaveDraftID = "saveDraft"
)

func fieldID(name string) string {
	return "field-" + name
}

func renderWizard(v wizard.View) string {
	var b strings.Builder

	fmt.Fprintf(&b, `<div id="%s" class="wizard" data-step="%d">`, ContainerID, v.Current)
	fmt.Fprintf(&b, `<h1>%s</h1>`, html.EscapeString(v.Title))

	renderSteps(&b, v.Steps)

	b.WriteString(`<div class="wizard-body">`)
	fmt.Fprintf(&b, `<form id="%s" novalidate>`, FormID)
	for _, s := range v.Sections {
		renderSection(&b, v, s)
	}
	renderActions(&b, v)
	b.WriteString(`</form>`)

	fmt.Fprintf(&b, `<aside id="%s" class="help">%s</aside>`, HelpID, v.Help)
	b.WriteString(`</div>`)

	if v.Submitted {
		b.WriteString(`<p class="submitted" role="status">` + wizard.MsgSubmitted + `</p>`)
	}
	if v.Toast != nil {
		fmt.Fprintf(&b, `<div id="%s" class="toast" role="status">%s</div>`,
			html.EscapeString(v.Toast.ID), html.EscapeString(v.Toast.Text))
	}

	b.WriteString(`</div>`)
	return b.String()
}

func renderSteps(b *strings.Builder, steps []wizard.StepView) {
	b.WriteString(`<ol class="steps">`)
	for _, s := range steps {
		current := ""
		if s.Status == wizard.StatusCurrent {
			current = ` aria-current="step"`
		}
		fmt.Fprintf(b, `<li class="step %s" data-event="goto_step" data-step="%d"%s><span class="step-num">%d</span> %s</li>`,
			s.Status, s.Ordinal, current, s.Ordinal, html.EscapeString(s.Title))
	}
	b.WriteString(`</ol>`)
}

func renderSection(b *strings.Builder, v wizard.View, s wizard.SectionView) {
	hidden := ""
	if !s.Visible {
		hidden = " hidden"
	}
	fmt.Fprintf(b, `<section class="form-step" data-step="%d"%s>`, s.Step, hidden)

	for _, f := range s.Fields {
		renderField(b, f)
	}

	// The last step carries the review and the upload zone.
	if s.Step == v.Total {
		fmt.Fprintf(b, `<div id="%s" class="review">%s</div>`, ReviewID, wizard.RenderReviewHTML(v.Review))
		renderDropZone(b, v)
	}
	b.WriteString(`</section>`)
}

func renderField(b *strings.Builder, f wizard.FieldView) {
	id := fieldID(f.Name)
	name := html.EscapeString(f.Name)
	value := html.EscapeString(f.Value)

	b.WriteString(`<div class="field">`)
	fmt.Fprintf(b, `<label for="%s">%s`, id, html.EscapeString(f.Label))
	if f.Required {
		b.WriteString(` <span class="required">*</span>`)
	}
	b.WriteString(`</label>`)

	required := ""
	if f.Required {
		required = " required"
	}
	placeholder := ""
	if f.Placeholder != "" {
		placeholder = fmt.Sprintf(` placeholder="%s"`, html.EscapeString(f.Placeholder))
	}

	switch f.Type {
	case forms.FieldTextarea:
		fmt.Fprintf(b, `<textarea id="%s" name="%s"%s%s>%s</textarea>`, id, name, placeholder, required, value)
	case forms.FieldSelect:
		fmt.Fprintf(b, `<select id="%s" name="%s"%s>`, id, name, required)
		b.WriteString(`<option value="">Select...</option>`)
		for _, o := range f.Options {
			selected := ""
			if o.Value == f.Value {
				selected = " selected"
			}
			label := o.Label
			if label == "" {
				label = o.Value
			}
			fmt.Fprintf(b, `<option value="%s"%s>%s</option>`, html.EscapeString(o.Value), selected, html.EscapeString(label))
		}
		b.WriteString(`</select>`)
	default:
		typ := f.Type
		if typ == "" {
			typ = forms.FieldText
		}
		fmt.Fprintf(b, `<input id="%s" name="%s" type="%s" value="%s"%s%s>`, id, name, typ, value, placeholder, required)
	}
	b.WriteString(`</div>`)
}

func renderDropZone(b *strings.Builder, v wizard.View) {
	class := "dropzone"
	if v.DropActive {
		class += " active"
	}
	fmt.Fprintf(b, `<div id="%s" class="%s" data-dropzone>`, DropZoneID, class)
	b.WriteString(`<p>Drop files here or click to choose</p>`)
	fmt.Fprintf(b, `<input id="%s" type="file" multiple hidden data-upload>`, FileInputID)
	b.WriteString(`</div>`)

	if len(v.Files) == 0 {
		return
	}
	b.WriteString(`<ul class="files">`)
	for _, f := range v.Files {
		fmt.Fprintf(b, `<li>%s <span class="muted">%s</span></li>`,
			html.EscapeString(f.FileName), formatSize(f.Size))
	}
	b.WriteString(`</ul>`)
}

func renderActions(b *strings.Builder, v wizard.View) {
	b.WriteString(`<div class="actions">`)

	disabled := ""
	if v.PrevDisabled {
		disabled = " disabled"
	}
	fmt.Fprintf(b, `<button type="button" id="%s" class="btn" data-event="prev"%s>Previous</button>`, PrevID, disabled)
	fmt.Fprintf(b, `<button type="button" id="%s" class="btn" data-event="save_draft">Save draft</button>`, SaveDraftID)
	if v.ShowNext {
		fmt.Fprintf(b, `<button type="button" id="%s" class="btn btn-primary" data-event="next">Next</button>`, NextID)
	}
	if v.ShowSubmit {
		fmt.Fprintf(b, `<button type="button" id="%s" class="btn btn-primary" data-event="submit">Submit</button>`, SubmitID)
	}
	b.WriteString(`</div>`)
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return strconv.FormatFloat(float64(n)/(1<<20), 'f', 1, 64) + " MB"
	case n >= 1<<10:
		return strconv.FormatFloat(float64(n)/(1<<10), 'f', 1, 64) + " KB"
	default:
		return strconv.FormatInt(n, 10) + " B"
	}
}
