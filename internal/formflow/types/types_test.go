package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrInt(v int) *int { return &v }

func ptrInt64(v int64) *int64 { return &v }

func ptrFloat(v float64) *float64 { return &v }

func TestValidationRuleSetRoundTrip(t *testing.T) {
	rules := ValidationRuleSet{
		MinLength:        ptrInt(2),
		MaxLength:        ptrInt(500),
		MinValue:         ptrFloat(0.5),
		MaxValue:         ptrFloat(99.9),
		Pattern:          `^\+7\d{10}$`,
		AllowedFileTypes: []string{"pdf", "png"},
		MaxFileSizeMB:    ptrInt64(10),
	}

	raw, err := rules.Value()
	require.NoError(t, err)

	var restored ValidationRuleSet
	require.NoError(t, restored.Scan(raw))
	assert.Equal(t, rules, restored)
	assert.True(t, restored.HasValidation())

	t.Run("empty set survives", func(t *testing.T) {
		raw, err := ValidationRuleSet{}.Value()
		require.NoError(t, err)

		var restored ValidationRuleSet
		require.NoError(t, restored.Scan(raw))
		assert.False(t, restored.HasValidation())
	})
}

func TestFieldSettingsRoundTrip(t *testing.T) {
	settings := FieldSettings{
		Placeholder:   "Введите телефон",
		DefaultValue:  "+7",
		Visible:       true,
		Rows:          4,
		Columns:       50,
		AllowMultiple: true,
		Step:          "0.5",
		CSSClass:      "phone-input",
		Extra:         ExtraBag{"mask": StringValue("+7 (999) 999-99-99")},
	}

	raw, err := settings.Value()
	require.NoError(t, err)

	var restored FieldSettings
	require.NoError(t, restored.Scan(raw))
	assert.Equal(t, settings, restored)
}

func TestFieldSettingsVisibleDefault(t *testing.T) {
	t.Run("absent key means visible", func(t *testing.T) {
		var s FieldSettings
		require.NoError(t, json.Unmarshal([]byte(`{"placeholder":"x"}`), &s))
		assert.True(t, s.Visible)
		assert.Equal(t, "x", s.Placeholder)
	})

	t.Run("explicit false kept", func(t *testing.T) {
		var s FieldSettings
		require.NoError(t, json.Unmarshal([]byte(`{"visible":false}`), &s))
		assert.False(t, s.Visible)
	})

	t.Run("zero value detected", func(t *testing.T) {
		assert.True(t, FieldSettings{}.IsZero())
		assert.False(t, FieldSettings{Visible: true}.IsZero())
		assert.False(t, FieldSettings{Placeholder: "x"}.IsZero())
	})
}
