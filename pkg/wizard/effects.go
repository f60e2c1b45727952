package wizard

import "time"

// DefaultToastDuration is how long upload feedback stays on screen.
const DefaultToastDuration = 2200 * time.Millisecond

// User-facing messages.
const (
	MsgCompleteBeforeContinuing = "Please complete required fields in this step before continuing."
	MsgFinishCurrentStep        = "Please finish the current step first."
	MsgDraftSaved               = "Draft saved locally."
	MsgCompleteBeforeSubmitting = "Please complete required fields in this step before submitting."
	MsgSubmitted                = "Form submitted."
)

// Toast is a short-lived notice.
type Toast struct {
	ID       string
	Text     string
	Duration time.Duration
}

// Effects are the side effects a handler asks the rendering surface to
// perform. The zero value asks for nothing.
type Effects struct {
	// Alert is a blocking message for the user.
	Alert string

	// Focus names the field that should receive input focus.
	Focus string

	// Scroll asks for the form container to be scrolled into view.
	Scroll bool

	// Toast is a new notice to show.
	Toast *Toast

	// ReviewRefreshed is set when the review summary was rebuilt.
	ReviewRefreshed bool
}

// Empty reports whether e asks for nothing.
func (e Effects) Empty() bool {
	return e == Effects{}
}
