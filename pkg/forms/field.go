package forms

// FieldType identifies the type of form field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldDate     FieldType = "date"
	FieldURL      FieldType = "url"
	FieldTel      FieldType = "tel"
)

var knownTypes = map[FieldType]bool{
	FieldText: true, FieldEmail: true, FieldNumber: true, FieldTextarea: true,
	FieldSelect: true, FieldDate: true, FieldURL: true, FieldTel: true,
}

// Known reports whether t is a supported field type.
func (t FieldType) Known() bool {
	return knownTypes[t]
}

// Field represents a named form field.
type Field struct {
	// Name is the field name; it keys the value in Values and in drafts.
	Name string `yaml:"name"`

	Type FieldType `yaml:"type"`

	// Label is the display label. Empty means derive one from Name.
	Label string `yaml:"label"`

	Placeholder string `yaml:"placeholder"`

	// Required fields must be non-empty before the wizard leaves their step.
	Required bool `yaml:"required"`

	// Options are the choices of a select field.
	Options []Option `yaml:"options"`
}

// Option represents a select option.
type Option struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

// FieldOption is a function that configures a field.
type FieldOption func(*Field)

// NewField creates a new field.
func NewField(name string, fieldType FieldType, label string, opts ...FieldOption) Field {
	field := Field{
		Name:  name,
		Type:  fieldType,
		Label: label,
	}
	for _, opt := range opts {
		opt(&field)
	}
	return field
}

// WithRequired marks the field as required.
func WithRequired() FieldOption {
	return func(f *Field) {
		f.Required = true
	}
}

// WithPlaceholder sets the placeholder text.
func WithPlaceholder(placeholder string) FieldOption {
	return func(f *Field) {
		f.Placeholder = placeholder
	}
}

// WithOptions sets the select options.
func WithOptions(options ...Option) FieldOption {
	return func(f *Field) {
		f.Options = options
	}
}

// TextField creates a text field.
func TextField(name, label string, opts ...FieldOption) Field {
	return NewField(name, FieldText, label, opts...)
}

// NumberField creates a number field.
func NumberField(name, label string, opts ...FieldOption) Field {
	return NewField(name, FieldNumber, label, opts...)
}

// TextareaField creates a textarea field.
func TextareaField(name, label string, opts ...FieldOption) Field {
	return NewField(name, FieldTextarea, label, opts...)
}

// SelectField creates a select field.
func SelectField(name, label string, options []Option, opts ...FieldOption) Field {
	opts = append([]FieldOption{WithOptions(options...)}, opts...)
	return NewField(name, FieldSelect, label, opts...)
}
