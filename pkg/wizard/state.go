package wizard

// StepStatus is the navigation status of one step.
type StepStatus int

const (
	StatusPending StepStatus = iota
	StatusCurrent
	StatusCompleted
)

func (s StepStatus) String() string {
	switch s {
	case StatusCurrent:
		return "current"
	case StatusCompleted:
		return "completed"
	default:
		return "pending"
	}
}

// State is the navigation state of one wizard instance.
type State struct {
	// Current is the visible step, 1 <= Current <= Total.
	Current int

	Total int

	// Submitted is set once a submission succeeded. It does not lock
	// navigation.
	Submitted bool
}

// Status derives the status of step n from the current step.
func (s State) Status(n int) StepStatus {
	switch {
	case n < s.Current:
		return StatusCompleted
	case n == s.Current:
		return StatusCurrent
	default:
		return StatusPending
	}
}

// LastCompleted is the highest completed step, never less than 1.
func (s State) LastCompleted() int {
	return max(s.Current-1, 1)
}

// IsLast reports whether the current step is the final one.
func (s State) IsLast() bool {
	return s.Current == s.Total
}
