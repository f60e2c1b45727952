package wizard

import (
	"github.com/gabrielmiguelok/formwizard/pkg/forms"
	"github.com/gabrielmiguelok/formwizard/pkg/uploads"
)

// StepView is one step indicator.
type StepView struct {
	Ordinal int
	Title   string
	Status  StepStatus
}

// FieldView is a field with its current value and display label.
type FieldView struct {
	forms.Field
	Label string
	Value string
}

// SectionView is the field section of one step.
type SectionView struct {
	Step    int
	Visible bool
	Fields  []FieldView
}

// View is everything a rendering surface needs to draw the wizard.
type View struct {
	Title    string
	Current  int
	Total    int
	Steps    []StepView
	Sections []SectionView

	// Help is the sanitized help HTML of the current step.
	Help string

	PrevDisabled bool
	ShowNext     bool
	ShowSubmit   bool

	// Review is populated on the last step.
	Review []ReviewEntry

	DropActive bool
	Toast      *Toast
	Files      []uploads.Entry
	Submitted  bool
}

// View projects the controller state for rendering.
func (c *Controller) View() View {
	v := View{
		Title:        c.def.Title,
		Current:      c.state.Current,
		Total:        c.state.Total,
		PrevDisabled: c.state.Current == 1,
		ShowNext:     !c.state.IsLast(),
		ShowSubmit:   c.state.IsLast(),
		DropActive:   c.dropActive,
		Toast:        c.toast,
		Files:        c.Files(),
		Submitted:    c.state.Submitted,
	}
	if c.state.IsLast() {
		v.Review = c.review
	}

	for i, step := range c.def.Steps {
		n := i + 1
		v.Steps = append(v.Steps, StepView{Ordinal: n, Title: step.Title, Status: c.state.Status(n)})

		section := SectionView{Step: n, Visible: n == c.state.Current}
		for _, f := range step.Fields {
			label := f.Label
			if label == "" {
				label = Labelize(f.Name)
			}
			section.Fields = append(section.Fields, FieldView{Field: f, Label: label, Value: c.values.Get(f.Name)})
		}
		v.Sections = append(v.Sections, section)

		if n == c.state.Current {
			v.Help = step.Help
		}
	}
	return v
}
