package wizard

import (
	"context"
	"time"

	"github.com/gabrielmiguelok/formwizard/pkg/logging"
	"github.com/gabrielmiguelok/formwizard/pkg/uploads"
)

// Payload is everything collected by a wizard: every named value and every
// accepted file.
type Payload struct {
	Values      map[string]string `json:"values"`
	Files       []uploads.Entry   `json:"files"`
	SubmittedAt time.Time         `json:"submitted_at"`
}

// Submitter receives completed wizards.
type Submitter interface {
	Submit(ctx context.Context, payload Payload) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, payload Payload) error

func (f SubmitterFunc) Submit(ctx context.Context, payload Payload) error {
	return f(ctx, payload)
}

// LogSubmitter logs the payload and reports success. There is no real
// delivery behind it.
type LogSubmitter struct {
	Logger logging.Logger
}

func (s LogSubmitter) Submit(ctx context.Context, payload Payload) error {
	logger := s.Logger
	if logger == nil {
		logger = logging.L(ctx)
	}
	names := make([]string, len(payload.Files))
	for i, f := range payload.Files {
		names[i] = f.FileName
	}
	logger.Info("form submitted",
		logging.Any("values", payload.Values),
		logging.Any("files", names),
	)
	return nil
}
