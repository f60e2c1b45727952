package wizard

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielmiguelok/formwizard/pkg/forms"
	"github.com/gabrielmiguelok/formwizard/pkg/logging"
)

func TestDefaultDefinition(t *testing.T) {
	def := DefaultDefinition()

	require.Equal(t, 4, def.Total())
	titles := make([]string, 0, def.Total())
	for _, s := range def.Steps {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{"Company Info", "Emissions Data", "Operations", "Review & Submit"}, titles)
	assert.Equal(t, DefaultDraftKey, def.DraftKey)

	f, ok := def.Field("companyName")
	require.True(t, ok)
	assert.True(t, f.Required)
	assert.Equal(t, forms.FieldText, f.Type)

	assert.Contains(t, def.Steps[0].Help, "<h4>Company Info</h4>")
	assert.Contains(t, def.Steps[0].Help, `<p class="muted">`)

	// Each call returns an independent copy.
	def.Steps[0].Title = "changed"
	assert.Equal(t, "Company Info", DefaultDefinition().Steps[0].Title)
}

func TestDefinition_BuiltInCode(t *testing.T) {
	def := &Definition{
		Title: "Inline",
		Steps: []Step{
			{Title: "Contact", Fields: []forms.Field{
				forms.TextField("name", "Name", forms.WithRequired(), forms.WithPlaceholder("Jane")),
				forms.NewField("email", forms.FieldEmail, "Email"),
			}},
			{Title: "Details", Fields: []forms.Field{
				forms.NumberField("seats", "Seats", forms.WithRequired()),
				forms.TextareaField("notes", ""),
				forms.SelectField("plan", "Plan", nil, forms.WithOptions(forms.Option{Value: "pro", Label: "Pro"})),
			}},
		},
	}
	require.NoError(t, def.Validate())

	assert.Equal(t, []string{"name", "email", "seats", "notes", "plan"}, def.FieldNames())
	name, ok := def.Field("name")
	require.True(t, ok)
	assert.Equal(t, "Jane", name.Placeholder)
	assert.True(t, name.Required)

	plan, ok := def.Field("plan")
	require.True(t, ok)
	assert.Equal(t, []forms.Option{{Value: "pro", Label: "Pro"}}, plan.Options)
}

func TestParseDefinition_SanitizesHelp(t *testing.T) {
	def, err := ParseDefinition([]byte(`
steps:
  - title: One
    help: '<p onclick="steal()">Hi</p><script>alert(1)</script>'
    fields:
      - name: a
`))
	require.NoError(t, err)
	assert.Equal(t, "<p>Hi</p>", def.Steps[0].Help)
	assert.Equal(t, DefaultDraftKey, def.DraftKey)
}

func TestParseDefinition_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":   ``,
		"noSteps": `title: x`,
		"untitled": `
steps:
  - fields: [{name: a}]`,
		"unnamed": `
steps:
  - title: One
    fields: [{label: A}]`,
		"bracketName": `
steps:
  - title: One
    fields: [{name: "scope[1]"}]`,
		"leadingDigit": `
steps:
  - title: One
    fields: [{name: 1st}]`,
		"duplicate": `
steps:
  - title: One
    fields: [{name: a}]
  - title: Two
    fields: [{name: a}]`,
		"unknownType": `
steps:
  - title: One
    fields: [{name: a, type: color}]`,
		"selectWithoutOptions": `
steps:
  - title: One
    fields: [{name: a, type: select}]`,
		"unknownKey": `
steps:
  - title: One
    colour: red`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDefinition([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestLoadDefinition(t *testing.T) {
	def, err := LoadDefinition("")
	require.NoError(t, err)
	assert.Equal(t, 4, def.Total())

	_, err = LoadDefinition(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "wizard.yml")
	require.NoError(t, os.WriteFile(path, []byte("steps:\n  - title: Only\n    fields: [{name: a, required: true}]\n"), 0o600))
	def, err = LoadDefinition(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, def.FieldNames())
}

func TestWatchDefinition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wizard.yml")
	require.NoError(t, os.WriteFile(path, []byte("steps:\n  - title: One\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	reloaded := make(chan *Definition, 16)
	done := make(chan error, 1)
	go func() {
		done <- WatchDefinition(ctx, path, logging.NopLogger{}, func(d *Definition) { reloaded <- d })
	}()

	var got *Definition
	require.Eventually(t, func() bool {
		// Rewrite until the watcher is up and sees it.
		_ = os.WriteFile(path, []byte("steps:\n  - title: One\n  - title: Two\n"), 0o600)
		select {
		case got = <-reloaded:
			return true
		default:
			return false
		}
	}, 5*time.Second, 200*time.Millisecond)
	assert.Equal(t, 2, got.Total())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
