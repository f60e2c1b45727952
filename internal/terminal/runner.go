// Package terminal drives a wizard controller from interactive prompts.
package terminal

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/gabrielmiguelok/formwizard/pkg/forms"
	"github.com/gabrielmiguelok/formwizard/pkg/security"
	"github.com/gabrielmiguelok/formwizard/pkg/uploads"
	"github.com/gabrielmiguelok/formwizard/pkg/wizard"
)

// Menu actions.
const (
	ActionNext     = "Next"
	ActionPrevious = "Previous"
	ActionJump     = "Jump to step"
	ActionSave     = "Save draft"
	ActionAttach   = "Attach files"
	ActionSubmit   = "Submit"
	ActionQuit     = "Quit"
)

// noneOption lets optional select fields stay empty.
const noneOption = "(none)"

// Runner runs one wizard in the terminal. Prompts go through the Prompter;
// headers, alerts and notices go to Out.
type Runner struct {
	ctrl   *wizard.Controller
	prompt Prompter
	out    io.Writer
}

func NewRunner(ctrl *wizard.Controller, prompt Prompter, out io.Writer) *Runner {
	return &Runner{ctrl: ctrl, prompt: prompt, out: out}
}

// Run loops until the form is submitted or the user quits. Aborting a
// prompt returns ErrAborted.
func (r *Runner) Run(ctx context.Context) error {
	r.apply(r.ctrl.Init(ctx))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.header()
		if err := r.askFields(ctx); err != nil {
			return err
		}
		if r.ctrl.State().IsLast() {
			fmt.Fprintf(r.out, "\nReview\n%s", wizard.RenderReviewText(r.ctrl.PopulateReview()))
		}

		action, err := r.chooseAction(ctx)
		if err != nil {
			return err
		}

		done, err := r.perform(ctx, action)
		if err != nil || done {
			return err
		}
	}
}

func (r *Runner) header() {
	st := r.ctrl.State()
	step, _ := r.ctrl.Definition().Step(st.Current)

	fmt.Fprintf(r.out, "\n== Step %d/%d: %s ==\n", st.Current, st.Total, step.Title)
	if help := strings.TrimSpace(html.UnescapeString(security.StripTags(step.Help))); help != "" {
		fmt.Fprintln(r.out, collapseLines(help))
	}
}

// askFields prompts every field of the current step, defaulting to the
// current value.
func (r *Runner) askFields(ctx context.Context) error {
	view := r.ctrl.View()
	for _, section := range view.Sections {
		if !section.Visible {
			continue
		}
		for _, f := range section.Fields {
			value, err := r.askField(ctx, f)
			if err != nil {
				return err
			}
			r.ctrl.SetValue(f.Name, value)
		}
	}
	return nil
}

func (r *Runner) askField(ctx context.Context, f wizard.FieldView) (string, error) {
	message := f.Label
	if f.Required {
		message += " *"
	}

	switch f.Type {
	case forms.FieldSelect:
		options := make([]string, 0, len(f.Options)+1)
		values := make([]string, 0, len(f.Options)+1)
		if !f.Required {
			options = append(options, noneOption)
			values = append(values, "")
		}
		def := 0
		for _, o := range f.Options {
			if o.Value == f.Value {
				def = len(options)
			}
			label := o.Label
			if label == "" {
				label = o.Value
			}
			options = append(options, label)
			values = append(values, o.Value)
		}
		idx, err := r.prompt.Select(ctx, SelectConfig{Message: message, Options: options, DefaultIndex: def})
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= len(values) {
			return f.Value, nil
		}
		return values[idx], nil

	case forms.FieldTextarea:
		return r.prompt.TextArea(ctx, InputConfig{Message: message, Default: f.Value, Help: f.Placeholder})

	default:
		return r.prompt.Input(ctx, InputConfig{Message: message, Default: f.Value, Help: f.Placeholder})
	}
}

func (r *Runner) chooseAction(ctx context.Context) (string, error) {
	st := r.ctrl.State()

	var actions []string
	if !st.IsLast() {
		actions = append(actions, ActionNext)
	}
	if st.Current > 1 {
		actions = append(actions, ActionPrevious)
	}
	actions = append(actions, ActionJump, ActionSave)
	if st.IsLast() {
		actions = append(actions, ActionAttach, ActionSubmit)
	}
	actions = append(actions, ActionQuit)

	idx, err := r.prompt.Select(ctx, SelectConfig{Message: "What next?", Options: actions})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(actions) {
		return "", fmt.Errorf("invalid choice %d", idx)
	}
	return actions[idx], nil
}

// perform runs action and reports whether the session is over.
func (r *Runner) perform(ctx context.Context, action string) (bool, error) {
	c := r.ctrl
	switch action {
	case ActionNext:
		r.apply(c.HandleNext())
	case ActionPrevious:
		r.apply(c.HandlePrevious())
	case ActionJump:
		k, err := r.chooseStep(ctx)
		if err != nil {
			return false, err
		}
		r.apply(c.HandleStepClick(k))
	case ActionSave:
		r.apply(c.HandleSaveDraft(ctx))
	case ActionAttach:
		if err := r.attach(ctx); err != nil {
			return false, err
		}
	case ActionSubmit:
		r.apply(c.HandleSubmit(ctx))
		return c.State().Submitted, nil
	case ActionQuit:
		save, err := r.prompt.Confirm(ctx, ConfirmConfig{Message: "Save draft before quitting?", Default: true})
		if err != nil {
			return false, err
		}
		if save {
			r.apply(c.HandleSaveDraft(ctx))
		}
		return true, nil
	}
	return false, nil
}

func (r *Runner) chooseStep(ctx context.Context) (int, error) {
	view := r.ctrl.View()
	options := make([]string, len(view.Steps))
	for i, s := range view.Steps {
		options[i] = fmt.Sprintf("%d. %s (%s)", s.Ordinal, s.Title, s.Status)
	}
	idx, err := r.prompt.Select(ctx, SelectConfig{Message: "Go to step", Options: options, DefaultIndex: view.Current - 1})
	if err != nil {
		return 0, err
	}
	return idx + 1, nil
}

// attach asks for comma-separated paths. Unreadable paths are reported and
// skipped.
func (r *Runner) attach(ctx context.Context) error {
	raw, err := r.prompt.Input(ctx, InputConfig{Message: "Files (comma separated paths)"})
	if err != nil {
		return err
	}

	var entries []uploads.Entry
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		entry, err := uploads.NewEntry(p)
		if err != nil {
			fmt.Fprintf(r.out, "! skipping %s: %v\n", p, err)
			continue
		}
		entries = append(entries, entry)
	}
	r.apply(r.ctrl.HandleFilesSelected(entries))
	return nil
}

// apply prints what a browser would show. Toasts are printed once and
// dismissed right away.
func (r *Runner) apply(eff wizard.Effects) {
	if eff.Alert != "" {
		fmt.Fprintf(r.out, "! %s\n", eff.Alert)
		if eff.Focus != "" {
			if f, ok := r.ctrl.Definition().Field(eff.Focus); ok {
				label := f.Label
				if label == "" {
					label = wizard.Labelize(f.Name)
				}
				fmt.Fprintf(r.out, "  missing: %s\n", label)
			}
		}
	}
	if eff.Toast != nil {
		fmt.Fprintf(r.out, "* %s\n", eff.Toast.Text)
		r.ctrl.DismissToast(eff.Toast.ID)
	}
}

func collapseLines(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
