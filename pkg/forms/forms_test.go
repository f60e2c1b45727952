package forms

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredValidator(t *testing.T) {
	v := RequiredValidator{}
	assert.ErrorIs(t, v.Validate(""), ErrRequired)
	assert.NoError(t, v.Validate("0"))
	assert.NoError(t, v.Validate(" "))
}

func TestField_Validate(t *testing.T) {
	employees := NumberField("employees", "Employees", WithRequired())

	err := employees.Validate("")
	require.Error(t, err)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "employees", fe.Field)
	assert.ErrorIs(t, err, ErrRequired)

	assert.NoError(t, employees.Validate("42"))
	assert.NoError(t, TextField("notes", "Notes").Validate(""))
}

func TestFieldType_Known(t *testing.T) {
	assert.True(t, FieldNumber.Known())
	assert.False(t, FieldType("file").Known())
}

func TestValues(t *testing.T) {
	v := NewValues("companyName", "industry", "companyName")

	assert.Equal(t, []string{"companyName", "industry"}, v.Names())
	assert.True(t, v.Set("companyName", "Acme"))
	assert.False(t, v.Set("unknown", "x"))
	assert.Equal(t, "Acme", v.Get("companyName"))

	applied := v.Apply(map[string]string{"industry": "Steel", "ghost": "boo"})
	assert.Equal(t, 1, applied)
	assert.Equal(t, map[string]string{"companyName": "Acme", "industry": "Steel"}, v.Map())
}
