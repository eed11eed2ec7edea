package business

import (
	"errors"
	"testing"

	"github.com/aisa-it/formflow/internal/formflow/apierrors"
	"github.com/aisa-it/formflow/internal/formflow/dao"
	"github.com/aisa-it/formflow/internal/formflow/types"
	"github.com/stretchr/testify/assert"
)

func fieldOf(ft types.FieldType, rules types.ValidationRuleSet) *dao.FormField {
	return &dao.FormField{
		ID:         dao.GenUUID(),
		Name:       "test_field",
		FieldType:  ft,
		Validation: rules,
		Settings:   ft.DefaultSettings(),
	}
}

func assertFieldError(t *testing.T, err error, want apierrors.DefinedError) {
	t.Helper()
	var fieldErr apierrors.FieldError
	if assert.ErrorAs(t, err, &fieldErr) {
		assert.Equal(t, want.Code, fieldErr.Code)
		assert.Equal(t, "test_field", fieldErr.FieldName)
	}
}

func TestValidateRequired(t *testing.T) {
	field := fieldOf(types.FieldText, types.ValidationRuleSet{})

	t.Run("empty required fails", func(t *testing.T) {
		assertFieldError(t, ValidateFieldValue(field, "", true), apierrors.ErrValueRequired)
	})

	t.Run("whitespace only counts as empty", func(t *testing.T) {
		assertFieldError(t, ValidateFieldValue(field, "   ", true), apierrors.ErrValueRequired)
	})

	t.Run("empty optional skips all checks", func(t *testing.T) {
		minLen := 5
		strict := fieldOf(types.FieldText, types.ValidationRuleSet{MinLength: &minLen})
		assert.NoError(t, ValidateFieldValue(strict, "", false))
	})
}

func TestValidateTypeCoercion(t *testing.T) {
	cases := []struct {
		name  string
		ft    types.FieldType
		value string
		ok    bool
	}{
		{"number valid", types.FieldNumber, "42.5", true},
		{"number invalid", types.FieldNumber, "forty two", false},
		{"currency valid", types.FieldCurrency, "199.99", true},
		{"rating valid", types.FieldRating, "4", true},
		{"rating fractional", types.FieldRating, "4.5", false},
		{"boolean valid", types.FieldBoolean, "true", true},
		{"boolean invalid", types.FieldBoolean, "da", false},
		{"date valid", types.FieldDate, "2026-02-14", true},
		{"date wrong layout", types.FieldDate, "14.02.2026", false},
		{"time valid", types.FieldTime, "09:30", true},
		{"datetime rfc3339", types.FieldDateTime, "2026-02-14T09:30:00Z", true},
		{"datetime short", types.FieldDateTime, "2026-02-14 09:30", true},
		{"email valid", types.FieldEmail, "user@example.com", true},
		{"email invalid", types.FieldEmail, "not-an-email", false},
		{"url valid", types.FieldUrl, "https://example.com/page", true},
		{"url no scheme", types.FieldUrl, "example.com", false},
		{"url bad scheme", types.FieldUrl, "ftp://example.com", false},
		{"phone valid", types.FieldPhone, "+7 (900) 123-45-67", true},
		{"phone invalid", types.FieldPhone, "call me", false},
		{"text accepts anything", types.FieldText, "любой текст", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			field := fieldOf(tc.ft, types.ValidationRuleSet{})
			err := ValidateFieldValue(field, tc.value, true)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assertFieldError(t, err, apierrors.ErrValueTypeMismatch)
			}
		})
	}
}

func TestValidateLengthBounds(t *testing.T) {
	minLen, maxLen := 3, 10
	field := fieldOf(types.FieldText, types.ValidationRuleSet{MinLength: &minLen, MaxLength: &maxLen})

	assert.NoError(t, ValidateFieldValue(field, "hello", true))
	assertFieldError(t, ValidateFieldValue(field, "hi", true), apierrors.ErrValueLength)
	assertFieldError(t, ValidateFieldValue(field, "a very long value", true), apierrors.ErrValueLength)

	t.Run("length counted in runes", func(t *testing.T) {
		assert.NoError(t, ValidateFieldValue(field, "привет", true))
	})
}

func TestValidateNumericRange(t *testing.T) {
	minVal, maxVal := 18.0, 120.0
	field := fieldOf(types.FieldNumber, types.ValidationRuleSet{MinValue: &minVal, MaxValue: &maxVal})

	assert.NoError(t, ValidateFieldValue(field, "30", true))
	assert.NoError(t, ValidateFieldValue(field, "18", true))
	assertFieldError(t, ValidateFieldValue(field, "17", true), apierrors.ErrValueRange)
	assertFieldError(t, ValidateFieldValue(field, "121", true), apierrors.ErrValueRange)
}

func TestValidatePattern(t *testing.T) {
	field := fieldOf(types.FieldText, types.ValidationRuleSet{Pattern: `^[A-Z]{3}-\d{4}$`})

	assert.NoError(t, ValidateFieldValue(field, "ABC-1234", true))
	assertFieldError(t, ValidateFieldValue(field, "abc-1234", true), apierrors.ErrValuePattern)

	t.Run("custom message overrides default", func(t *testing.T) {
		field := fieldOf(types.FieldText, types.ValidationRuleSet{
			Pattern:       `^[A-Z]{3}-\d{4}$`,
			CustomMessage: "Артикул должен иметь вид ABC-1234",
		})
		err := ValidateFieldValue(field, "xxx", true)
		var fieldErr apierrors.FieldError
		assert.True(t, errors.As(err, &fieldErr))
		assert.Equal(t, apierrors.ErrValuePattern.Code, fieldErr.Code)
		assert.Equal(t, "Артикул должен иметь вид ABC-1234", fieldErr.Err)
	})

	t.Run("broken pattern rejects value", func(t *testing.T) {
		field := fieldOf(types.FieldText, types.ValidationRuleSet{Pattern: `([`})
		assertFieldError(t, ValidateFieldValue(field, "anything", true), apierrors.ErrValuePattern)
	})
}

func TestValidateOptionMembership(t *testing.T) {
	field := fieldOf(types.FieldDropdown, types.ValidationRuleSet{})
	field.Options = []dao.FormFieldOption{
		{ID: dao.GenUUID(), Label: "Красный", Value: "red"},
		{ID: dao.GenUUID(), Label: "Синий", Value: "blue"},
	}

	assert.NoError(t, ValidateFieldValue(field, "red", true))
	assertFieldError(t, ValidateFieldValue(field, "green", true), apierrors.ErrValueNotOption)

	t.Run("multiple values checked individually", func(t *testing.T) {
		field.Settings.AllowMultiple = true
		assert.NoError(t, ValidateFieldValue(field, "red, blue", true))
		assertFieldError(t, ValidateFieldValue(field, "red, green", true), apierrors.ErrValueNotOption)
	})
}

func TestValidateFileValue(t *testing.T) {
	maxSize := int64(1)
	field := fieldOf(types.FieldFileUpload, types.ValidationRuleSet{
		AllowedFileTypes: []string{".pdf", "image/*"},
		MaxFileSizeMB:    &maxSize,
	})

	t.Run("allowed extension", func(t *testing.T) {
		assert.NoError(t, ValidateFileValue(field, FileMeta{Name: "report.PDF", ContentType: "application/pdf", Size: 100}))
	})

	t.Run("allowed mime wildcard", func(t *testing.T) {
		assert.NoError(t, ValidateFileValue(field, FileMeta{Name: "photo.png", ContentType: "image/png", Size: 100}))
	})

	t.Run("forbidden type", func(t *testing.T) {
		assertFieldError(t,
			ValidateFileValue(field, FileMeta{Name: "run.exe", ContentType: "application/octet-stream", Size: 100}),
			apierrors.ErrFileType)
	})

	t.Run("oversize", func(t *testing.T) {
		assertFieldError(t,
			ValidateFileValue(field, FileMeta{Name: "report.pdf", ContentType: "application/pdf", Size: 2 * 1024 * 1024}),
			apierrors.ErrFileSize)
	})

	t.Run("no restrictions", func(t *testing.T) {
		free := fieldOf(types.FieldFileUpload, types.ValidationRuleSet{})
		assert.NoError(t, ValidateFileValue(free, FileMeta{Name: "anything.bin", ContentType: "application/octet-stream", Size: 100}))
	})
}
