package dao

import (
	"testing"

	"github.com/aisa-it/formflow/internal/formflow/types"
	"github.com/stretchr/testify/assert"
)

func TestGenTrackingNumber(t *testing.T) {
	t.Run("format", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			assert.Regexp(t, `^F\d{10,}\d{4}$`, GenTrackingNumber())
		}
	})

	// суффикс всего 4 цифры, внутри одной секунды коллизии возможны.
	// Терпим единичные повторы, но в серии из 200 номеров их должно быть мало.
	t.Run("mostly unique in bulk", func(t *testing.T) {
		const total = 200
		seen := make(map[string]struct{}, total)
		for i := 0; i < total; i++ {
			seen[GenTrackingNumber()] = struct{}{}
		}
		assert.GreaterOrEqual(t, len(seen), total-10)
	})
}

func TestSubmissionSetValue(t *testing.T) {
	s := Submission{ID: GenUUID()}
	fieldId := GenUUID()

	s.SetValue(fieldId, "amount", "100", types.ValueDecimal)
	assert.Len(t, s.Values, 1)

	// повторная запись перезаписывает на месте
	s.SetValue(fieldId, "amount", "250", types.ValueDecimal)
	assert.Len(t, s.Values, 1)
	assert.Equal(t, "250", s.Values[0].Value)

	value := s.ValueOf(fieldId)
	if assert.NotNil(t, value) {
		assert.Equal(t, "250", value.Value)
	}
	assert.Nil(t, s.ValueOf(GenUUID()))
}
