// Package wizardview runs a wizard controller as a live component.
package wizardview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gabrielmiguelok/formwizard/pkg/core"
	"github.com/gabrielmiguelok/formwizard/pkg/js"
	"github.com/gabrielmiguelok/formwizard/pkg/logging"
	"github.com/gabrielmiguelok/formwizard/pkg/metrics"
	"github.com/gabrielmiguelok/formwizard/pkg/protocol"
	"github.com/gabrielmiguelok/formwizard/pkg/router"
	"github.com/gabrielmiguelok/formwizard/pkg/uploads"
	"github.com/gabrielmiguelok/formwizard/pkg/wizard"
)

// Client events.
const (
	EventNext      = "next"
	EventPrev      = "prev"
	EventGotoStep  = "goto_step"
	EventSaveDraft = "save_draft"
	EventSubmit    = "submit"
	EventChange    = "change"
	EventDrag      = "drag"
)

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrBadPayload   = errors.New("bad event payload")
)

// FilesUploaded is delivered to a live wizard when the upload endpoint has
// stored files for it.
type FilesUploaded struct {
	Entries []uploads.Entry
}

// toastExpired asks the wizard to drop the toast with the given id.
type toastExpired struct {
	ID string
}

// Config holds the collaborators shared by every wizard instance.
type Config struct {
	// Definition returns the current definition. New sessions pick up
	// reloads; running ones keep the definition they mounted with.
	Definition func() *wizard.Definition

	Drafts    *wizard.DraftStore
	Submitter wizard.Submitter
	Logger    logging.Logger

	// Metrics is optional.
	Metrics *metrics.Metrics

	ToastDuration time.Duration
}

// NewFactory returns the component factory for a live route.
func NewFactory(cfg Config) (func() core.Component, error) {
	switch {
	case cfg.Definition == nil:
		return nil, fmt.Errorf("%w: definition", wizard.ErrMissingCollaborator)
	case cfg.Drafts == nil:
		return nil, fmt.Errorf("%w: draft store", wizard.ErrMissingCollaborator)
	case cfg.Submitter == nil:
		return nil, fmt.Errorf("%w: submitter", wizard.ErrMissingCollaborator)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.DefaultLogger
	}
	return func() core.Component {
		return &Wizard{cfg: cfg, logger: cfg.Logger}
	}, nil
}

// Wizard is one live wizard instance.
type Wizard struct {
	core.BaseComponent

	cfg    Config
	logger logging.Logger
	ctrl   *wizard.Controller

	// pending holds client commands for the next AfterRender.
	pending js.Commands

	// live is set while a websocket session is counted in the metrics.
	live bool
}

func (w *Wizard) Name() string { return "wizard" }

// Controller returns the underlying controller, nil before Mount.
func (w *Wizard) Controller() *wizard.Controller {
	return w.ctrl
}

// Mount builds the controller and restores the draft of the browser that
// opened the page.
func (w *Wizard) Mount(ctx context.Context, params core.Params, session core.Session) error {
	drafts := w.cfg.Drafts
	if client := session.Cookie(router.ClientCookie); client != "" {
		drafts = drafts.Scoped(client)
	}

	ctrl, err := wizard.NewController(w.cfg.Definition(), drafts, w.cfg.Submitter,
		wizard.WithLogger(w.logger.With(logging.String("draft", drafts.Key()))),
		wizard.WithToastDuration(w.cfg.ToastDuration),
	)
	if err != nil {
		return err
	}
	w.ctrl = ctrl
	// Plain page renders mount without a socket.
	if w.Socket() != nil {
		w.live = true
		w.cfg.Metrics.SessionOpened()
	}

	// Nothing to scroll to on page load.
	ctrl.Init(ctx)
	return nil
}

func (w *Wizard) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, out io.Writer) error {
		if w.ctrl == nil {
			return errors.New("wizard not mounted")
		}
		start := time.Now()
		html := renderWizard(w.ctrl.View())
		w.cfg.Metrics.ObserveRender(time.Since(start))

		_, err := io.WriteString(out, html)
		return err
	})
}

func (w *Wizard) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	c := w.ctrl
	switch event {
	case EventNext:
		w.apply(c.HandleNext())
	case EventPrev:
		w.apply(c.HandlePrevious())
	case EventGotoStep:
		step, ok := protocol.ToInt(payload["step"])
		if !ok {
			return fmt.Errorf("%w: step", ErrBadPayload)
		}
		w.apply(c.HandleStepClick(step))
	case EventSaveDraft:
		eff := c.HandleSaveDraft(ctx)
		if eff.Alert == wizard.MsgDraftSaved {
			w.cfg.Metrics.DraftSaved()
		}
		w.apply(eff)
	case EventSubmit:
		eff := c.HandleSubmit(ctx)
		w.cfg.Metrics.Submission(submitOutcome(c, eff))
		w.apply(eff)
	case EventChange:
		name, _ := payload["name"].(string)
		value, _ := payload["value"].(string)
		if !c.SetValue(name, value) {
			w.logger.Debug("ignoring change to unknown field", logging.String("field", name))
		}
	case EventDrag:
		phase, _ := payload["phase"].(string)
		c.HandleDrag(wizard.DragPhase(phase))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
	w.cfg.Metrics.Event(event)
	return nil
}

func submitOutcome(c *wizard.Controller, eff wizard.Effects) string {
	switch {
	case eff.Alert == wizard.MsgSubmitted && c.State().Submitted:
		return metrics.SubmitOK
	case eff.Alert == "" || eff.Alert == wizard.MsgCompleteBeforeSubmitting:
		return metrics.SubmitInvalid
	default:
		return metrics.SubmitFailed
	}
}

func (w *Wizard) HandleInfo(ctx context.Context, msg any) error {
	switch m := msg.(type) {
	case FilesUploaded:
		var size int64
		for _, e := range m.Entries {
			size += e.Size
		}
		w.cfg.Metrics.FilesReceived(len(m.Entries), size)
		w.apply(w.ctrl.HandleFilesSelected(m.Entries))
	case toastExpired:
		w.ctrl.DismissToast(m.ID)
	default:
		w.logger.Debug("ignoring info", logging.String("type", fmt.Sprintf("%T", msg)))
	}
	return nil
}

// AfterRender sends the commands queued by the last handler. They run on
// the client once the new render is in place, so focus lands on the
// freshly rendered field.
func (w *Wizard) AfterRender(ctx context.Context) error {
	if w.pending.Empty() {
		return nil
	}
	cmds := w.pending
	w.pending = nil

	socket := w.Socket()
	if socket == nil {
		return nil
	}
	return socket.PushJS(cmds.List())
}

func (w *Wizard) Terminate(ctx context.Context, reason core.TerminateReason) error {
	if w.live {
		w.live = false
		w.cfg.Metrics.SessionClosed()
	}
	w.logger.Debug("wizard closed", logging.String("reason", reason.String()))
	return nil
}

// apply queues client commands for eff and schedules toast dismissal.
func (w *Wizard) apply(eff wizard.Effects) {
	w.pending = append(w.pending, commandsFor(eff)...)

	if eff.Toast == nil {
		return
	}
	socket := w.Socket()
	if socket == nil {
		return
	}
	id := eff.Toast.ID
	logger := w.logger
	time.AfterFunc(eff.Toast.Duration, func() {
		// A closed socket means the session already ended.
		if err := socket.SendInfo(toastExpired{ID: id}); err != nil && !errors.Is(err, core.ErrSocketClosed) {
			logger.Warn("toast dismissal not delivered", logging.String("toast", id), logging.Err(err))
		}
	})
}

// commandsFor translates effects into client commands. The alert comes last
// because it blocks the page.
func commandsFor(eff wizard.Effects) js.Commands {
	var cmds js.Commands
	if eff.Scroll {
		cmds = append(cmds, js.JS.ScrollIntoView("#wizard"))
	}
	if eff.Focus != "" {
		cmds = append(cmds, js.JS.Focus("#"+fieldID(eff.Focus)))
	}
	if eff.Alert != "" {
		cmds = append(cmds, js.JS.Alert(eff.Alert))
	}
	return cmds
}
