// Package wizard implements the multi-step form wizard: navigation between
// steps, presence validation of required fields, draft save and restore, the
// review summary and upload feedback.
//
// A Controller is driven by exactly one goroutine. Handlers mutate the
// wizard state and return Effects describing what the rendering surface
// should do; the surface itself is a projection of View.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gabrielmiguelok/formwizard/pkg/forms"
	"github.com/gabrielmiguelok/formwizard/pkg/logging"
	"github.com/gabrielmiguelok/formwizard/pkg/uploads"
)

// ErrMissingCollaborator is returned when a controller is built without one
// of the collaborators it needs.
var ErrMissingCollaborator = errors.New("missing collaborator")

// DragPhase is a drag-and-drop event on the upload zone.
type DragPhase string

const (
	DragEnter DragPhase = "enter"
	DragOver  DragPhase = "over"
	DragLeave DragPhase = "leave"
	DragDrop  DragPhase = "drop"
)

var dropActive = map[DragPhase]bool{
	DragEnter: true,
	DragOver:  true,
	DragLeave: false,
	DragDrop:  false,
}

// Controller owns one wizard instance.
type Controller struct {
	def       *Definition
	drafts    *DraftStore
	submitter Submitter
	logger    logging.Logger

	toastDuration time.Duration
	now           func() time.Time

	state      State
	values     *forms.Values
	files      []uploads.Entry
	review     []ReviewEntry
	dropActive bool
	toast      *Toast
	toastSeq   int
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the diagnostics logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithToastDuration overrides DefaultToastDuration.
func WithToastDuration(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.toastDuration = d
		}
	}
}

// WithClock overrides the clock used to stamp submissions.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// NewController creates a controller positioned on step 1 with every field
// empty. Call Init to restore the saved draft.
func NewController(def *Definition, drafts *DraftStore, submitter Submitter, opts ...Option) (*Controller, error) {
	switch {
	case def == nil:
		return nil, fmt.Errorf("%w: definition", ErrMissingCollaborator)
	case drafts == nil:
		return nil, fmt.Errorf("%w: draft store", ErrMissingCollaborator)
	case submitter == nil:
		return nil, fmt.Errorf("%w: submitter", ErrMissingCollaborator)
	}
	if def.Total() == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrInvalidDefinition)
	}

	c := &Controller{
		def:           def,
		drafts:        drafts,
		submitter:     submitter,
		logger:        logging.DefaultLogger,
		toastDuration: DefaultToastDuration,
		now:           time.Now,
		state:         State{Current: 1, Total: def.Total()},
		values:        forms.NewValues(def.FieldNames()...),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Init restores the saved draft and shows step 1.
func (c *Controller) Init(ctx context.Context) Effects {
	c.LoadDraft(ctx)
	return c.ShowStep(1)
}

// Definition returns the definition the controller was built with.
func (c *Controller) Definition() *Definition {
	return c.def
}

// State returns the navigation state.
func (c *Controller) State() State {
	return c.state
}

// Value returns the value of a field.
func (c *Controller) Value(name string) string {
	return c.values.Get(name)
}

// Values returns a copy of every value.
func (c *Controller) Values() map[string]string {
	return c.values.Map()
}

// Files returns the accepted upload entries.
func (c *Controller) Files() []uploads.Entry {
	out := make([]uploads.Entry, len(c.files))
	copy(out, c.files)
	return out
}

// Review returns the review summary built when the last step was entered.
func (c *Controller) Review() []ReviewEntry {
	return c.review
}

// SetValue records user input. Unknown names are ignored.
func (c *Controller) SetValue(name, value string) bool {
	return c.values.Set(name, value)
}

// ShowStep makes step n current. Out-of-range steps are ignored.
func (c *Controller) ShowStep(n int) Effects {
	if n < 1 || n > c.state.Total {
		c.logger.Debug("ignoring out-of-range step", logging.Int("step", n))
		return Effects{}
	}
	c.state.Current = n

	eff := Effects{Scroll: true}
	if c.state.IsLast() {
		c.PopulateReview()
		eff.ReviewRefreshed = true
	}
	return eff
}

// ValidateCurrent checks the required fields of the current step in order
// and stops at the first empty one, asking for it to be focused.
func (c *Controller) ValidateCurrent() (bool, Effects) {
	step, ok := c.def.Step(c.state.Current)
	if !ok {
		return true, Effects{}
	}
	for _, f := range step.Fields {
		if err := f.Validate(c.values.Get(f.Name)); err != nil {
			return false, Effects{Focus: f.Name}
		}
	}
	return true, Effects{}
}

// HandleNext advances one step if the current step is complete. It never
// moves past the last step.
func (c *Controller) HandleNext() Effects {
	if ok, eff := c.ValidateCurrent(); !ok {
		eff.Alert = MsgCompleteBeforeContinuing
		return eff
	}
	if c.state.Current >= c.state.Total {
		return Effects{}
	}
	return c.ShowStep(c.state.Current + 1)
}

// HandlePrevious goes back one step.
func (c *Controller) HandlePrevious() Effects {
	if c.state.Current <= 1 {
		return Effects{}
	}
	return c.ShowStep(c.state.Current - 1)
}

// HandleStepClick jumps to step k. Completed steps and the one right after
// the last completed step are reachable without validation; anything further
// requires the current step to be complete.
func (c *Controller) HandleStepClick(k int) Effects {
	if k < 1 || k > c.state.Total {
		return Effects{}
	}
	if k <= c.state.LastCompleted()+1 {
		return c.ShowStep(k)
	}
	if ok, eff := c.ValidateCurrent(); !ok {
		eff.Alert = MsgFinishCurrentStep
		return eff
	}
	return c.ShowStep(k)
}

// HandleSaveDraft overwrites the saved draft with every current value.
// Failures are reported to the user, not returned.
func (c *Controller) HandleSaveDraft(ctx context.Context) Effects {
	if err := c.drafts.Save(ctx, c.values.Map()); err != nil {
		c.logger.Warn("draft save failed", logging.String("key", c.drafts.Key()), logging.Err(err))
		return Effects{Alert: fmt.Sprintf("Could not save draft: %v", err)}
	}
	c.logger.Debug("draft saved", logging.String("key", c.drafts.Key()))
	return Effects{Alert: MsgDraftSaved}
}

// LoadDraft applies the saved draft to the declared fields. Keys that are not
// fields are ignored. Missing drafts are not an error; unreadable ones are
// logged and dropped.
func (c *Controller) LoadDraft(ctx context.Context) {
	saved, err := c.drafts.Load(ctx)
	if errors.Is(err, ErrNoDraft) {
		return
	}
	if err != nil {
		c.logger.Warn("discarding unreadable draft", logging.String("key", c.drafts.Key()), logging.Err(err))
		return
	}
	applied := c.values.Apply(saved)
	c.logger.Debug("draft restored",
		logging.String("key", c.drafts.Key()),
		logging.Int("fields", applied),
		logging.Int("ignored", len(saved)-applied),
	)
}

// PopulateReview rebuilds the review summary from the current values in
// definition order.
func (c *Controller) PopulateReview() []ReviewEntry {
	names := c.values.Names()
	entries := make([]ReviewEntry, len(names))
	for i, name := range names {
		entries[i] = ReviewEntry{
			Name:  name,
			Label: Labelize(name),
			Value: c.values.Get(name),
		}
	}
	c.review = entries
	return entries
}

// HandleSubmit validates the final step and hands every value and file to
// the submitter.
func (c *Controller) HandleSubmit(ctx context.Context) Effects {
	if !c.state.IsLast() {
		return Effects{}
	}
	if ok, eff := c.ValidateCurrent(); !ok {
		eff.Alert = MsgCompleteBeforeSubmitting
		return eff
	}

	payload := Payload{
		Values:      c.values.Map(),
		Files:       c.Files(),
		SubmittedAt: c.now(),
	}
	if err := c.submitter.Submit(ctx, payload); err != nil {
		c.logger.Error("submission failed", logging.Err(err))
		return Effects{Alert: fmt.Sprintf("Submission failed: %v", err)}
	}

	c.state.Submitted = true
	c.logger.Info("wizard submitted",
		logging.Int("fields", len(payload.Values)),
		logging.Int("files", len(payload.Files)),
	)
	return Effects{Alert: MsgSubmitted}
}

// HandleFilesSelected accepts files from the picker or the drop zone and
// announces them with a toast.
func (c *Controller) HandleFilesSelected(entries []uploads.Entry) Effects {
	if len(entries) == 0 {
		return Effects{}
	}
	c.files = append(c.files, entries...)

	c.toastSeq++
	c.toast = &Toast{
		ID:       fmt.Sprintf("toast-%d", c.toastSeq),
		Text:     uploads.Feedback(entries),
		Duration: c.toastDuration,
	}
	return Effects{Toast: c.toast}
}

// DismissToast hides the toast with the given id. A stale id does nothing.
func (c *Controller) DismissToast(id string) bool {
	if c.toast == nil || c.toast.ID != id {
		return false
	}
	c.toast = nil
	return true
}

// HandleDrag updates the drop-zone affordance and reports whether it changed.
func (c *Controller) HandleDrag(phase DragPhase) bool {
	active, ok := dropActive[phase]
	if !ok || active == c.dropActive {
		return false
	}
	c.dropActive = active
	return true
}
