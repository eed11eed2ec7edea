// Пакет предоставляет вычислитель правил условной логики формы.  По текущему значению поля-триггера и оператору правила решает, сработало ли правило, и какое действие запрошено для целевого поля.  Применение действия (показать/скрыть, сделать обязательным и т.д.) - ответственность вызывающей стороны.
//
// Основные возможности:
//   - Чистая функция Fires без побочных эффектов: неизвестный оператор не срабатывает и не приводит к ошибке.
//   - Регистронезависимое сравнение строк, числовое сравнение с откатом на порядковое.
//   - Накопление эффективного состояния поля: при нескольких правилах на одну цель побеждает последнее сработавшее.
//
// Правила применяются за один проход по полям в порядке sort_order: поле может корректно зависеть только от полей, расположенных раньше. Это ограничение на авторинг форм, а не настраиваемое поведение.
package logic

import (
	"strconv"
	"strings"

	"github.com/aisa-it/formflow/internal/formflow/types"
)

type operatorFunc func(value, compare string) bool

var operators = map[types.ConditionalOperator]operatorFunc{
	types.OpEquals:             opEquals,
	types.OpNotEquals:          func(v, c string) bool { return !opEquals(v, c) },
	types.OpContains:           opContains,
	types.OpNotContains:        func(v, c string) bool { return !opContains(v, c) },
	types.OpGreaterThan:        func(v, c string) bool { return compareNumeric(v, c) > 0 },
	types.OpLessThan:           func(v, c string) bool { return compareNumeric(v, c) < 0 },
	types.OpGreaterThanOrEqual: func(v, c string) bool { return compareNumeric(v, c) >= 0 },
	types.OpLessThanOrEqual:    func(v, c string) bool { return compareNumeric(v, c) <= 0 },
	types.OpIsNotEmpty:         func(v, c string) bool { return true },
	types.OpStartsWith: func(v, c string) bool {
		return strings.HasPrefix(strings.ToLower(v), strings.ToLower(c))
	},
	types.OpEndsWith: func(v, c string) bool {
		return strings.HasSuffix(strings.ToLower(v), strings.ToLower(c))
	},
}

// Fires решает, срабатывает ли правило с оператором op и значением сравнения compare на текущем значении триггера value. Пустое значение триггера срабатывает только на IsEmpty. Неизвестный оператор не срабатывает.
func Fires(op types.ConditionalOperator, compare string, value string) bool {
	if strings.TrimSpace(value) == "" {
		return op == types.OpIsEmpty
	}
	if op == types.OpIsEmpty {
		return false
	}

	fn, ok := operators[op]
	if !ok {
		return false
	}
	return fn(value, compare)
}

func opEquals(value, compare string) bool {
	return strings.EqualFold(value, compare)
}

func opContains(value, compare string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(compare))
}

// compareNumeric сравнивает как числа, если обе стороны парсятся, иначе порядковое сравнение строк.
func compareNumeric(value, compare string) int {
	v, errV := strconv.ParseFloat(strings.TrimSpace(value), 64)
	c, errC := strconv.ParseFloat(strings.TrimSpace(compare), 64)
	if errV == nil && errC == nil {
		switch {
		case v > c:
			return 1
		case v < c:
			return -1
		}
		return 0
	}
	return strings.Compare(value, compare)
}

// FieldState - эффективное состояние целевого поля после применения правил.
type FieldState struct {
	Visible  bool
	Enabled  bool
	Required bool

	// SetValue задано, если последнее сработавшее правило с действием SetValue назначило значение.
	SetValue   *string
	ClearValue bool
}

// NewFieldState возвращает исходное состояние поля до применения правил.
func NewFieldState(visible, required bool) FieldState {
	return FieldState{Visible: visible, Enabled: true, Required: required}
}

// Apply применяет действие сработавшего правила. Вызывается в порядке добавления правил: последнее сработавшее правило побеждает при конфликте.
func (s *FieldState) Apply(action types.ConditionalAction, assignValue string) {
	switch action {
	case types.ActionShow:
		s.Visible = true
	case types.ActionHide:
		s.Visible = false
	case types.ActionEnable:
		s.Enabled = true
	case types.ActionDisable:
		s.Enabled = false
	case types.ActionRequire:
		s.Required = true
	case types.ActionOptional:
		s.Required = false
	case types.ActionSetValue:
		v := assignValue
		s.SetValue = &v
		s.ClearValue = false
	case types.ActionClearValue:
		s.ClearValue = true
		s.SetValue = nil
	}
}
