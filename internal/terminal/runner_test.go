package terminal

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielmiguelok/formwizard/pkg/forms"
	"github.com/gabrielmiguelok/formwizard/pkg/logging"
	"github.com/gabrielmiguelok/formwizard/pkg/state"
	"github.com/gabrielmiguelok/formwizard/pkg/wizard"
)

// stubPrompter replays scripted answers and aborts once a script runs out.
type stubPrompter struct {
	inputs    []string
	textAreas []string
	selects   []string // option prefixes
	confirms  []bool

	asked []string
}

func (s *stubPrompter) Input(_ context.Context, cfg InputConfig) (string, error) {
	s.asked = append(s.asked, cfg.Message)
	if len(s.inputs) == 0 {
		return "", ErrAborted
	}
	v := s.inputs[0]
	s.inputs = s.inputs[1:]
	return v, nil
}

func (s *stubPrompter) TextArea(_ context.Context, cfg InputConfig) (string, error) {
	s.asked = append(s.asked, cfg.Message)
	if len(s.textAreas) == 0 {
		return "", ErrAborted
	}
	v := s.textAreas[0]
	s.textAreas = s.textAreas[1:]
	return v, nil
}

func (s *stubPrompter) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.asked = append(s.asked, cfg.Message)
	if len(s.selects) == 0 {
		return 0, ErrAborted
	}
	want := s.selects[0]
	s.selects = s.selects[1:]
	for i, opt := range cfg.Options {
		if strings.HasPrefix(opt, want) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no option %q in %v", want, cfg.Options)
}

func (s *stubPrompter) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	s.asked = append(s.asked, cfg.Message)
	if len(s.confirms) == 0 {
		return false, ErrAborted
	}
	v := s.confirms[0]
	s.confirms = s.confirms[1:]
	return v, nil
}

type recordingSubmitter struct {
	payloads []wizard.Payload
}

func (s *recordingSubmitter) Submit(_ context.Context, p wizard.Payload) error {
	s.payloads = append(s.payloads, p)
	return nil
}

func newRunner(t *testing.T, p Prompter) (*Runner, *bytes.Buffer, *state.MemoryStore, *recordingSubmitter) {
	t.Helper()
	store := state.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	sub := &recordingSubmitter{}

	ctrl, err := wizard.NewController(wizard.DefaultDefinition(), wizard.NewDraftStore(store, nil, ""), sub,
		wizard.WithLogger(logging.NopLogger{}))
	require.NoError(t, err)

	var out bytes.Buffer
	return NewRunner(ctrl, p, &out), &out, store, sub
}

func TestRun_FillAndSubmit(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "invoice.pdf")
	require.NoError(t, os.WriteFile(doc, []byte("%PDF"), 0o600))

	p := &stubPrompter{
		inputs: []string{
			// step 1, employees missing
			"Acme", "", "",
			// step 1 again
			"Acme", "", "10",
			// step 2
			"100", "", "5", "",
			// step 3
			"2", "", "",
			// step 4, then attach, then step 4 again
			"ops@acme.test", doc + ", " + filepath.Join(t.TempDir(), "missing.pdf"),
			"ops@acme.test",
		},
		textAreas: []string{"first", "first"},
		selects: []string{
			"Retail", "Next",
			"Retail", "Next",
			"Next",
			"Next",
			"Attach files",
			"Submit",
		},
	}
	r, out, _, sub := newRunner(t, p)

	require.NoError(t, r.Run(context.Background()))

	require.Len(t, sub.payloads, 1)
	payload := sub.payloads[0]
	assert.Equal(t, "Acme", payload.Values["companyName"])
	assert.Equal(t, "retail", payload.Values["industry"])
	assert.Equal(t, "first", payload.Values["notes"])
	require.Len(t, payload.Files, 1)
	assert.Equal(t, "invoice.pdf", payload.Files[0].FileName)

	text := out.String()
	assert.Contains(t, text, "! "+wizard.MsgCompleteBeforeContinuing)
	assert.Contains(t, text, "missing: Employees")
	assert.Contains(t, text, "== Step 4/4: Review & Submit ==")
	assert.Contains(t, text, "Company Name: Acme")
	assert.Contains(t, text, "* invoice.pdf")
	assert.Contains(t, text, "! skipping")
	assert.Contains(t, text, "! "+wizard.MsgSubmitted)
}

func TestRun_QuitSavesDraft(t *testing.T) {
	p := &stubPrompter{
		inputs:   []string{"Acme", "", ""},
		selects:  []string{"Retail", "Quit"},
		confirms: []bool{true},
	}
	r, out, store, _ := newRunner(t, p)

	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, out.String(), "! "+wizard.MsgDraftSaved)

	ok, err := store.Exists(context.Background(), wizard.DefaultDraftKey)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRun_JumpAheadBlocked(t *testing.T) {
	p := &stubPrompter{
		inputs:  []string{"", "", ""},
		selects: []string{"Manufacturing", "Jump", "3."},
	}
	// The second pass over step 1 runs out of inputs and aborts.
	r, out, store, _ := newRunner(t, p)

	err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrAborted)
	assert.Contains(t, out.String(), "! "+wizard.MsgFinishCurrentStep)
	assert.Equal(t, 1, r.ctrl.State().Current)

	ok, err := store.Exists(context.Background(), wizard.DefaultDraftKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRun_OptionalSelectOffersNone(t *testing.T) {
	def := &wizard.Definition{
		Title: "Small",
		Steps: []wizard.Step{{
			Title: "Only",
			Fields: []forms.Field{
				forms.SelectField("size", "", []forms.Option{{Value: "s", Label: "Small"}}),
			},
		}},
	}
	require.NoError(t, def.Validate())

	store := state.NewMemoryStore()
	defer store.Close()
	ctrl, err := wizard.NewController(def, wizard.NewDraftStore(store, nil, ""), wizard.LogSubmitter{Logger: logging.NopLogger{}})
	require.NoError(t, err)

	p := &stubPrompter{selects: []string{"(none)", "Submit"}}
	var out bytes.Buffer
	require.NoError(t, NewRunner(ctrl, p, &out).Run(context.Background()))

	assert.Empty(t, ctrl.Value("size"))
	assert.True(t, ctrl.State().Submitted)
	assert.Contains(t, out.String(), "Size: "+wizard.EmptyValuePlaceholder)
}

func TestRun_WhitespaceCountsAsValue(t *testing.T) {
	def := &wizard.Definition{
		Title: "Small",
		Steps: []wizard.Step{{
			Title:  "Only",
			Fields: []forms.Field{forms.TextField("site", "", forms.WithRequired())},
		}},
	}
	require.NoError(t, def.Validate())

	store := state.NewMemoryStore()
	defer store.Close()
	ctrl, err := wizard.NewController(def, wizard.NewDraftStore(store, nil, ""), wizard.LogSubmitter{Logger: logging.NopLogger{}})
	require.NoError(t, err)

	p := &stubPrompter{inputs: []string{"  "}, selects: []string{"Submit"}}
	var out bytes.Buffer
	require.NoError(t, NewRunner(ctrl, p, &out).Run(context.Background()))

	assert.Equal(t, "  ", ctrl.Value("site"))
	assert.True(t, ctrl.State().Submitted)
	assert.NotContains(t, out.String(), wizard.MsgCompleteBeforeSubmitting)
}
