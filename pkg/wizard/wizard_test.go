package wizard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielmiguelok/formwizard/pkg/logging"
	"github.com/gabrielmiguelok/formwizard/pkg/state"
	"github.com/gabrielmiguelok/formwizard/pkg/uploads"
)

type recordingSubmitter struct {
	payloads []Payload
	err      error
}

func (s *recordingSubmitter) Submit(ctx context.Context, p Payload) error {
	if s.err != nil {
		return s.err
	}
	s.payloads = append(s.payloads, p)
	return nil
}

type failingStore struct {
	*state.MemoryStore
}

func (failingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("quota exceeded")
}

type fixture struct {
	c      *Controller
	store  state.Store
	sub    *recordingSubmitter
	logBuf *bytes.Buffer
}

func newFixture(t *testing.T, store state.Store) *fixture {
	t.Helper()
	if store == nil {
		store = state.NewMemoryStore()
	}
	t.Cleanup(func() { store.Close() })

	f := &fixture{store: store, sub: &recordingSubmitter{}, logBuf: &bytes.Buffer{}}
	logger := logging.NewSlogLogger(logging.WithOutput(f.logBuf), logging.WithJSON(), logging.WithLevel(-4))

	c, err := NewController(DefaultDefinition(), NewDraftStore(store, nil, ""), f.sub, WithLogger(logger))
	require.NoError(t, err)
	c.Init(context.Background())
	f.c = c
	return f
}

// fillStep gives every required field of step n a value.
func fillStep(c *Controller, n int) {
	step, _ := c.Definition().Step(n)
	for _, f := range step.Fields {
		if !f.Required {
			continue
		}
		v := "1"
		if len(f.Options) > 0 {
			v = f.Options[0].Value
		}
		c.SetValue(f.Name, v)
	}
}

func TestNewController_MissingCollaborators(t *testing.T) {
	drafts := NewDraftStore(state.NewMemoryStore(), nil, "")
	sub := LogSubmitter{Logger: logging.NopLogger{}}

	_, err := NewController(nil, drafts, sub)
	assert.ErrorIs(t, err, ErrMissingCollaborator)

	_, err = NewController(DefaultDefinition(), nil, sub)
	assert.ErrorIs(t, err, ErrMissingCollaborator)

	_, err = NewController(DefaultDefinition(), drafts, nil)
	assert.ErrorIs(t, err, ErrMissingCollaborator)

	_, err = NewController(&Definition{}, drafts, sub)
	assert.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestShowStep_ExactlyOneSectionVisible(t *testing.T) {
	f := newFixture(t, nil)
	total := f.c.State().Total
	require.Equal(t, 4, total)

	for n := 1; n <= total; n++ {
		eff := f.c.ShowStep(n)
		assert.True(t, eff.Scroll)
		assert.Equal(t, n == total, eff.ReviewRefreshed)

		v := f.c.View()
		visible := 0
		for _, s := range v.Sections {
			if s.Visible {
				visible++
				assert.Equal(t, n, s.Step)
			}
		}
		assert.Equal(t, 1, visible, "step %d", n)

		for _, s := range v.Steps {
			switch {
			case s.Ordinal < n:
				assert.Equal(t, StatusCompleted, s.Status)
			case s.Ordinal == n:
				assert.Equal(t, StatusCurrent, s.Status)
			default:
				assert.Equal(t, StatusPending, s.Status)
			}
		}

		assert.Equal(t, n == 1, v.PrevDisabled)
		assert.Equal(t, n != total, v.ShowNext)
		assert.Equal(t, n == total, v.ShowSubmit)
		assert.Equal(t, DefaultDefinition().Steps[n-1].Help, v.Help)
	}
}

func TestShowStep_OutOfRangeIgnored(t *testing.T) {
	f := newFixture(t, nil)
	f.c.ShowStep(2)

	for _, n := range []int{0, -1, 5, 99} {
		assert.True(t, f.c.ShowStep(n).Empty())
		assert.Equal(t, 2, f.c.State().Current)
	}
}

func TestValidateCurrent(t *testing.T) {
	f := newFixture(t, nil)

	ok, eff := f.c.ValidateCurrent()
	assert.False(t, ok)
	assert.Equal(t, "companyName", eff.Focus)

	f.c.SetValue("companyName", "Acme")
	ok, eff = f.c.ValidateCurrent()
	assert.False(t, ok)
	assert.Equal(t, "industry", eff.Focus, "first failing field in document order")

	f.c.SetValue("industry", "retail")
	ok, eff = f.c.ValidateCurrent()
	assert.False(t, ok)
	assert.Equal(t, "employeeCount", eff.Focus, "empty number field is missing")

	f.c.SetValue("employeeCount", "0")
	ok, eff = f.c.ValidateCurrent()
	assert.True(t, ok)
	assert.True(t, eff.Empty())

	// The last step has no required fields.
	f.c.ShowStep(4)
	ok, _ = f.c.ValidateCurrent()
	assert.True(t, ok)
}

func TestHandleNext_BlocksOnEmptyRequiredField(t *testing.T) {
	f := newFixture(t, nil)

	eff := f.c.HandleNext()

	assert.Equal(t, MsgCompleteBeforeContinuing, eff.Alert)
	assert.Equal(t, "companyName", eff.Focus)
	assert.Equal(t, 1, f.c.State().Current)
}

func TestHandleNext_AdvancesAndClamps(t *testing.T) {
	f := newFixture(t, nil)

	for n := 1; n < 4; n++ {
		fillStep(f.c, n)
		eff := f.c.HandleNext()
		assert.Empty(t, eff.Alert)
		assert.Equal(t, n+1, f.c.State().Current)
	}

	assert.True(t, f.c.HandleNext().Empty())
	assert.Equal(t, 4, f.c.State().Current)
}

func TestHandlePrevious(t *testing.T) {
	f := newFixture(t, nil)

	assert.True(t, f.c.HandlePrevious().Empty())
	assert.Equal(t, 1, f.c.State().Current)

	f.c.ShowStep(3)
	f.c.HandlePrevious()
	assert.Equal(t, 2, f.c.State().Current)
}

func TestHandleStepClick(t *testing.T) {
	t.Run("backward without validation", func(t *testing.T) {
		f := newFixture(t, nil)
		fillStep(f.c, 1)
		f.c.HandleNext()
		require.Equal(t, 2, f.c.State().Current)

		// Step 2 is incomplete; going back must not validate it.
		eff := f.c.HandleStepClick(1)
		assert.Empty(t, eff.Alert)
		assert.Empty(t, eff.Focus)
		assert.Equal(t, 1, f.c.State().Current)
	})

	t.Run("next after last completed is free", func(t *testing.T) {
		f := newFixture(t, nil)
		f.c.ShowStep(3)

		eff := f.c.HandleStepClick(4)
		assert.Empty(t, eff.Alert)
		assert.Equal(t, 4, f.c.State().Current)
	})

	t.Run("from step one the adjacent step is free", func(t *testing.T) {
		f := newFixture(t, nil)

		f.c.HandleStepClick(2)
		assert.Equal(t, 2, f.c.State().Current)
	})

	t.Run("forward skip requires a valid step", func(t *testing.T) {
		f := newFixture(t, nil)

		eff := f.c.HandleStepClick(4)
		assert.Equal(t, MsgFinishCurrentStep, eff.Alert)
		assert.Equal(t, "companyName", eff.Focus)
		assert.Equal(t, 1, f.c.State().Current)

		fillStep(f.c, 1)
		eff = f.c.HandleStepClick(4)
		assert.Empty(t, eff.Alert)
		assert.Equal(t, 4, f.c.State().Current)
	})

	t.Run("out of range", func(t *testing.T) {
		f := newFixture(t, nil)
		assert.True(t, f.c.HandleStepClick(7).Empty())
		assert.Equal(t, 1, f.c.State().Current)
	})
}

func TestDraft_RoundTrip(t *testing.T) {
	for _, ser := range []state.Serializer{state.NewJSONSerializer(), state.NewMsgPackSerializer()} {
		t.Run(ser.Name(), func(t *testing.T) {
			store := state.NewMemoryStore()
			defer store.Close()
			drafts := NewDraftStore(store, ser, "")

			first, err := NewController(DefaultDefinition(), drafts, LogSubmitter{Logger: logging.NopLogger{}}, WithLogger(logging.NopLogger{}))
			require.NoError(t, err)
			first.SetValue("companyName", `<script>alert("x")</script> & Sons`)
			first.SetValue("headquarters", "Zürich, CH")
			first.SetValue("notes", "line one\nline two")
			assert.Equal(t, MsgDraftSaved, first.HandleSaveDraft(context.Background()).Alert)

			second, err := NewController(DefaultDefinition(), drafts, LogSubmitter{Logger: logging.NopLogger{}}, WithLogger(logging.NopLogger{}))
			require.NoError(t, err)
			second.Init(context.Background())

			if diff := cmp.Diff(first.Values(), second.Values()); diff != "" {
				t.Errorf("restored values mismatch (-saved +restored):\n%s", diff)
			}
		})
	}
}

func TestDraft_OverwritesWholesale(t *testing.T) {
	f := newFixture(t, nil)
	f.c.SetValue("companyName", "Acme")
	f.c.SetValue("industry", "retail")
	f.c.HandleSaveDraft(context.Background())

	f.c.SetValue("industry", "")
	f.c.HandleSaveDraft(context.Background())

	saved, err := NewDraftStore(f.store, nil, "").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Acme", saved["companyName"])
	assert.Equal(t, "", saved["industry"])
	assert.Len(t, saved, len(DefaultDefinition().FieldNames()))
}

func TestLoadDraft_IgnoresUnknownKeys(t *testing.T) {
	store := state.NewMemoryStore()
	err := NewDraftStore(store, nil, "").Save(context.Background(), map[string]string{
		"companyName": "Acme",
		"legacyField": "gone",
	})
	require.NoError(t, err)

	f := newFixture(t, store)

	assert.Equal(t, "Acme", f.c.Value("companyName"))
	_, present := f.c.Values()["legacyField"]
	assert.False(t, present)
}

func TestLoadDraft_CorruptDataDiscarded(t *testing.T) {
	store := state.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), DefaultDraftKey, []byte("{not json"), 0))

	f := newFixture(t, store)

	assert.Equal(t, 1, f.c.State().Current)
	for name, v := range f.c.Values() {
		assert.Empty(t, v, name)
	}
	assert.Contains(t, f.logBuf.String(), "discarding unreadable draft")
}

func TestSaveDraft_FailureSurfaced(t *testing.T) {
	f := newFixture(t, failingStore{state.NewMemoryStore()})

	eff := f.c.HandleSaveDraft(context.Background())

	assert.True(t, strings.HasPrefix(eff.Alert, "Could not save draft:"), eff.Alert)
	assert.Contains(t, eff.Alert, "quota exceeded")
}

func TestDraftStore_Scoped(t *testing.T) {
	store := state.NewMemoryStore()
	defer store.Close()
	base := NewDraftStore(store, nil, "")
	a, b := base.Scoped("browser-a"), base.Scoped("browser-b")

	require.NoError(t, a.Save(context.Background(), map[string]string{"companyName": "A"}))

	_, err := b.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoDraft)
	assert.Equal(t, "browser-a:carbonDraft", a.Key())
	assert.Same(t, base, base.Scoped(""))
}

func TestReview_PopulatedOnLastStep(t *testing.T) {
	f := newFixture(t, nil)
	f.c.SetValue("companyName", "<script>x</script>")
	f.c.SetValue("energyConsumption", "1200")

	assert.Nil(t, f.c.View().Review)

	eff := f.c.ShowStep(4)
	require.True(t, eff.ReviewRefreshed)

	review := f.c.View().Review
	require.Len(t, review, len(DefaultDefinition().FieldNames()))
	assert.Equal(t, ReviewEntry{Name: "companyName", Label: "Company Name", Value: "<script>x</script>"}, review[0])

	html := RenderReviewHTML(review)
	assert.Contains(t, html, "&lt;script&gt;x&lt;/script&gt;")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "<strong>Company Name:</strong>")
	assert.Contains(t, html, "<strong>Energy Consumption:</strong></dt><dd class=\"muted\">1200</dd>")
	assert.Contains(t, html, EmptyValuePlaceholder)
	assert.True(t, strings.HasPrefix(html, `<dl class="review-grid"`))

	// The review is a projection: nothing was mutated.
	assert.Equal(t, "<script>x</script>", f.c.Value("companyName"))
}

func TestLabelize(t *testing.T) {
	tests := map[string]string{
		"companyName":       "Company Name",
		"employeeCount":     "Employee Count",
		"notes":             "Notes",
		"x":                 "X",
		"":                  "",
		"renewablePercent":  "Renewable Percent",
		"energyKWh":         "Energy K Wh",
		"operatingHoursAvg": "Operating Hours Avg",
	}
	for in, want := range tests {
		assert.Equal(t, want, Labelize(in), in)
	}
}

func TestRenderReviewText(t *testing.T) {
	got := RenderReviewText([]ReviewEntry{
		{Name: "companyName", Label: "Company Name", Value: "Acme & Co"},
		{Name: "notes", Label: "Notes"},
	})
	assert.Equal(t, "Company Name: Acme & Co\nNotes: "+EmptyValuePlaceholder+"\n", got)
}

func TestHandleSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("only on the last step", func(t *testing.T) {
		f := newFixture(t, nil)
		assert.True(t, f.c.HandleSubmit(ctx).Empty())
		assert.Empty(t, f.sub.payloads)
	})

	t.Run("blocks when the last step is incomplete", func(t *testing.T) {
		def := DefaultDefinition()
		def.Steps[3].Fields[0].Required = true
		sub := &recordingSubmitter{}
		c, err := NewController(def, NewDraftStore(state.NewMemoryStore(), nil, ""), sub, WithLogger(logging.NopLogger{}))
		require.NoError(t, err)
		c.ShowStep(4)

		eff := c.HandleSubmit(ctx)
		assert.Equal(t, MsgCompleteBeforeSubmitting, eff.Alert)
		assert.Equal(t, "contactEmail", eff.Focus)
		assert.Empty(t, sub.payloads)
		assert.False(t, c.State().Submitted)
	})

	t.Run("hands values and files to the submitter", func(t *testing.T) {
		f := newFixture(t, nil)
		f.c.SetValue("companyName", "Acme")
		f.c.HandleFilesSelected([]uploads.Entry{{FileName: "a.pdf"}, {FileName: "b.csv"}})
		f.c.ShowStep(4)

		eff := f.c.HandleSubmit(ctx)

		assert.Equal(t, MsgSubmitted, eff.Alert)
		require.Len(t, f.sub.payloads, 1)
		p := f.sub.payloads[0]
		assert.Equal(t, "Acme", p.Values["companyName"])
		assert.Len(t, p.Values, len(DefaultDefinition().FieldNames()))
		assert.Len(t, p.Files, 2)
		assert.True(t, f.c.State().Submitted)

		// Backward navigation is still allowed.
		f.c.HandlePrevious()
		assert.Equal(t, 3, f.c.State().Current)
	})

	t.Run("submitter failure is reported", func(t *testing.T) {
		f := newFixture(t, nil)
		f.sub.err = errors.New("endpoint unreachable")
		f.c.ShowStep(4)

		eff := f.c.HandleSubmit(ctx)
		assert.Equal(t, "Submission failed: endpoint unreachable", eff.Alert)
		assert.False(t, f.c.State().Submitted)
	})
}

func TestHandleFilesSelected(t *testing.T) {
	f := newFixture(t, nil)

	assert.True(t, f.c.HandleFilesSelected(nil).Empty())

	eff := f.c.HandleFilesSelected([]uploads.Entry{{FileName: "a.pdf"}, {FileName: "b.pdf"}, {FileName: "c.pdf"}})
	require.NotNil(t, eff.Toast)
	assert.Equal(t, "3 files selected", eff.Toast.Text)
	assert.Equal(t, 2200*time.Millisecond, eff.Toast.Duration)
	assert.Equal(t, eff.Toast, f.c.View().Toast)

	first := eff.Toast.ID
	eff = f.c.HandleFilesSelected([]uploads.Entry{{FileName: "energy-bill.pdf"}})
	assert.Equal(t, "energy-bill.pdf", eff.Toast.Text)
	assert.NotEqual(t, first, eff.Toast.ID)

	assert.False(t, f.c.DismissToast(first), "stale toast")
	assert.NotNil(t, f.c.View().Toast)
	assert.True(t, f.c.DismissToast(eff.Toast.ID))
	assert.Nil(t, f.c.View().Toast)

	many := make([]uploads.Entry, 12)
	for i := range many {
		many[i] = uploads.Entry{FileName: fmt.Sprintf("f%d.pdf", i)}
	}
	eff = f.c.HandleFilesSelected(many)
	assert.Equal(t, "8 files selected", eff.Toast.Text)
	assert.Len(t, f.c.Files(), 16)
}

func TestHandleDrag(t *testing.T) {
	f := newFixture(t, nil)

	steps := []struct {
		phase   DragPhase
		changed bool
		active  bool
	}{
		{DragEnter, true, true},
		{DragOver, false, true},
		{DragLeave, true, false},
		{DragOver, true, true},
		{DragDrop, true, false},
		{DragLeave, false, false},
		{DragPhase("bogus"), false, false},
	}
	for _, s := range steps {
		assert.Equal(t, s.changed, f.c.HandleDrag(s.phase), s.phase)
		assert.Equal(t, s.active, f.c.View().DropActive, s.phase)
	}
}

func TestSetValue_UnknownIgnored(t *testing.T) {
	f := newFixture(t, nil)
	assert.False(t, f.c.SetValue("nope", "x"))
	assert.True(t, f.c.SetValue("companyName", "x"))
}
