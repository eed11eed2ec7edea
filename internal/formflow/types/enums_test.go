package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldTypeCatalog(t *testing.T) {
	t.Run("all twenty types valid", func(t *testing.T) {
		for ft := FieldText; ft <= FieldSection; ft++ {
			assert.True(t, ft.Valid(), "type %d", int(ft))
		}
		assert.False(t, FieldType(0).Valid())
		assert.False(t, FieldType(21).Valid())
	})

	t.Run("options only on choice fields", func(t *testing.T) {
		assert.True(t, FieldDropdown.SupportsOptions())
		assert.True(t, FieldRadioButton.SupportsOptions())
		assert.True(t, FieldCheckbox.SupportsOptions())
		assert.False(t, FieldText.SupportsOptions())
		assert.False(t, FieldFileUpload.SupportsOptions())
	})

	t.Run("multiple values", func(t *testing.T) {
		assert.True(t, FieldCheckbox.SupportsMultipleValues())
		assert.True(t, FieldDropdown.SupportsMultipleValues())
		assert.False(t, FieldRadioButton.SupportsMultipleValues())
	})

	t.Run("section is not input", func(t *testing.T) {
		assert.False(t, FieldSection.IsInput())
		assert.True(t, FieldHidden.IsInput())
	})
}

func TestDefaultSettings(t *testing.T) {
	t.Run("textarea gets dimensions", func(t *testing.T) {
		s := FieldTextArea.DefaultSettings()
		assert.Equal(t, 4, s.Rows)
		assert.Equal(t, 50, s.Columns)
		assert.True(t, s.Visible)
	})

	t.Run("numeric fields get step", func(t *testing.T) {
		assert.Equal(t, "1", FieldNumber.DefaultSettings().Step)
		assert.Equal(t, "1", FieldCurrency.DefaultSettings().Step)
		assert.Equal(t, "1", FieldRating.DefaultSettings().Step)
	})

	t.Run("hidden is invisible", func(t *testing.T) {
		assert.False(t, FieldHidden.DefaultSettings().Visible)
	})
}

func TestValueTypeOf(t *testing.T) {
	assert.Equal(t, ValueDecimal, ValueTypeOf(FieldNumber))
	assert.Equal(t, ValueDecimal, ValueTypeOf(FieldCurrency))
	assert.Equal(t, ValueInt, ValueTypeOf(FieldRating))
	assert.Equal(t, ValueBool, ValueTypeOf(FieldBoolean))
	assert.Equal(t, ValueDatetime, ValueTypeOf(FieldDate))
	assert.Equal(t, ValueString, ValueTypeOf(FieldText))
	assert.Equal(t, ValueString, ValueTypeOf(FieldDropdown))
}

func TestApprovalStatusTerminal(t *testing.T) {
	assert.False(t, ApprovalPending.Terminal())
	assert.False(t, ApprovalInProgress.Terminal())
	assert.True(t, ApprovalApproved.Terminal())
	assert.True(t, ApprovalRejected.Terminal())
	assert.True(t, ApprovalCancelled.Terminal())
	assert.True(t, ApprovalExpired.Terminal())
}

func TestValidationRuleSetHasValidation(t *testing.T) {
	assert.False(t, ValidationRuleSet{}.HasValidation())

	min := 3
	assert.True(t, ValidationRuleSet{MinLength: &min}.HasValidation())
	assert.True(t, ValidationRuleSet{Pattern: `^\d+$`}.HasValidation())
}
