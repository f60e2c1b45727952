package wizard

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gabrielmiguelok/formwizard/pkg/forms"
	"github.com/gabrielmiguelok/formwizard/pkg/security"
)

// ErrInvalidDefinition is returned when a wizard definition cannot drive a
// wizard: no steps, unnamed or duplicate fields, unknown field types.
var ErrInvalidDefinition = errors.New("invalid wizard definition")

// fieldName restricts names to what can appear in an element id and a CSS
// id selector unescaped.
var fieldName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

//go:embed carbon.yaml
var defaultDefinition []byte

// Step is one stage of the wizard: a titled section of fields plus the help
// shown while it is current.
type Step struct {
	Title string `yaml:"title"`

	// Help is sanitized HTML.
	Help string `yaml:"help"`

	Fields []forms.Field `yaml:"fields"`
}

// Definition describes a wizard. Steps are numbered from 1 in order.
type Definition struct {
	Title    string `yaml:"title"`
	DraftKey string `yaml:"draft_key"`
	Steps    []Step `yaml:"steps"`
}

// Total returns the number of steps.
func (d *Definition) Total() int {
	return len(d.Steps)
}

// Step returns step n (1-based).
func (d *Definition) Step(n int) (Step, bool) {
	if n < 1 || n > len(d.Steps) {
		return Step{}, false
	}
	return d.Steps[n-1], true
}

// FieldNames returns every field name in document order.
func (d *Definition) FieldNames() []string {
	var names []string
	for _, s := range d.Steps {
		for _, f := range s.Fields {
			names = append(names, f.Name)
		}
	}
	return names
}

// Field looks a field up by name.
func (d *Definition) Field(name string) (forms.Field, bool) {
	for _, s := range d.Steps {
		for _, f := range s.Fields {
			if f.Name == name {
				return f, true
			}
		}
	}
	return forms.Field{}, false
}

// Validate checks the definition and fills defaults: a missing field type is
// text, a missing draft key is DefaultDraftKey.
func (d *Definition) Validate() error {
	if len(d.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidDefinition)
	}
	if d.DraftKey == "" {
		d.DraftKey = DefaultDraftKey
	}

	seen := make(map[string]int)
	for i := range d.Steps {
		step := &d.Steps[i]
		if strings.TrimSpace(step.Title) == "" {
			return fmt.Errorf("%w: step %d has no title", ErrInvalidDefinition, i+1)
		}
		for j := range step.Fields {
			f := &step.Fields[j]
			if f.Name == "" {
				return fmt.Errorf("%w: step %d field %d has no name", ErrInvalidDefinition, i+1, j+1)
			}
			if !fieldName.MatchString(f.Name) {
				return fmt.Errorf("%w: field name %q must start with a letter and use only letters, digits, '_' or '-'", ErrInvalidDefinition, f.Name)
			}
			if prev, dup := seen[f.Name]; dup {
				return fmt.Errorf("%w: field %q declared in steps %d and %d", ErrInvalidDefinition, f.Name, prev, i+1)
			}
			seen[f.Name] = i + 1

			if f.Type == "" {
				f.Type = forms.FieldText
			}
			if !f.Type.Known() {
				return fmt.Errorf("%w: field %q has unknown type %q", ErrInvalidDefinition, f.Name, f.Type)
			}
			if f.Type == forms.FieldSelect && len(f.Options) == 0 {
				return fmt.Errorf("%w: select field %q has no options", ErrInvalidDefinition, f.Name)
			}
		}
	}
	return nil
}

// ParseDefinition decodes a YAML definition, validates it and sanitizes the
// help HTML of every step.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	for i := range def.Steps {
		def.Steps[i].Help = security.SanitizeHelp(def.Steps[i].Help)
	}
	return &def, nil
}

// LoadDefinition reads a definition file. An empty path yields the built-in
// carbon reporting wizard.
func LoadDefinition(path string) (*Definition, error) {
	if path == "" {
		return DefaultDefinition(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}
	def, err := ParseDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// DefaultDefinition returns a fresh copy of the built-in carbon reporting
// wizard: Company Info, Emissions Data, Operations, Review & Submit.
func DefaultDefinition() *Definition {
	def, err := ParseDefinition(defaultDefinition)
	if err != nil {
		panic("wizard: built-in definition: " + err.Error())
	}
	return def
}
