// Содержит определения типов данных, используемых в приложении: jsonb-объекты настроек и правил валидации полей, вариантные значения расширяемых атрибутов, дата окончания приема ответов.  Предоставляет методы для сериализации и десериализации данных при обмене с базой данных и клиентом.
//
// Основные возможности:
//   - Хранение правил валидации и настроек поля в колонках jsonb.
//   - Вариантный тип ExtraValue для открытых наборов атрибутов.
//   - Работа с датами без времени (окно приема ответов).
package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// TargetDate type
type TargetDate struct {
	Time time.Time
}

func (d *TargetDate) UnmarshalJSON(b []byte) error {
	str := string(b)
	if str != "" && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	if strings.Contains(str, "T") {
		str = strings.Split(str, "T")[0]
	}
	t, err := time.Parse("2006-01-02", str)
	if err != nil {
		return err
	}
	*d = TargetDate{t}
	return nil
}

func (d *TargetDate) MarshalJSON() ([]byte, error) {
	return []byte(d.Time.Format("\"2006-01-02\"")), nil
}

func (d *TargetDate) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return d.Time, nil
}

func (d *TargetDate) Scan(value interface{}) error {
	t, ok := value.(time.Time)
	if !ok {
		return fmt.Errorf("failed to scan TargetDate: %v", value)
	}
	*d = TargetDate{t}
	return nil
}

// ExtraKind - тег варианта ExtraValue.
type ExtraKind int

const (
	ExtraString ExtraKind = iota + 1
	ExtraNumber
	ExtraBool
	ExtraList
	ExtraMap
)

// ExtraValue - вариантное значение для открытых наборов атрибутов (пользовательские правила и настройки). Вместо нетипизированного interface{} граница остается типобезопасной, при этом допускает расширение.
type ExtraValue struct {
	Kind ExtraKind             `json:"kind"`
	Str  string                `json:"str,omitempty"`
	Num  float64               `json:"num,omitempty"`
	Bool bool                  `json:"bool,omitempty"`
	List []ExtraValue          `json:"list,omitempty"`
	Map  map[string]ExtraValue `json:"map,omitempty"`
}

func StringValue(s string) ExtraValue  { return ExtraValue{Kind: ExtraString, Str: s} }
func NumberValue(n float64) ExtraValue { return ExtraValue{Kind: ExtraNumber, Num: n} }
func BoolValue(b bool) ExtraValue      { return ExtraValue{Kind: ExtraBool, Bool: b} }

// ExtraBag - открытый набор атрибутов, хранится в jsonb.
type ExtraBag map[string]ExtraValue

// ValidationRuleSet - правила валидации значения поля. Хранится в jsonb колонке поля формы, неизменяемый объект-значение.
type ValidationRuleSet struct {
	MinLength *int     `json:"min_length,omitempty" extensions:"x-nullable"`
	MaxLength *int     `json:"max_length,omitempty" extensions:"x-nullable"`
	MinValue  *float64 `json:"min_value,omitempty" extensions:"x-nullable"`
	MaxValue  *float64 `json:"max_value,omitempty" extensions:"x-nullable"`

	Pattern       string `json:"pattern,omitempty"`
	CustomMessage string `json:"custom_message,omitempty"`

	AllowedFileTypes pq.StringArray `json:"allowed_file_types,omitempty" swaggertype:"array,string"`
	MaxFileSizeMB    *int64         `json:"max_file_size_mb,omitempty" extensions:"x-nullable"`

	Extra ExtraBag `json:"extra,omitempty"`
}

// HasValidation true если задано хотя бы одно ограничение.
func (r ValidationRuleSet) HasValidation() bool {
	return r.MinLength != nil || r.MaxLength != nil ||
		r.MinValue != nil || r.MaxValue != nil ||
		r.Pattern != "" ||
		len(r.AllowedFileTypes) > 0 || r.MaxFileSizeMB != nil
}

func (r ValidationRuleSet) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *ValidationRuleSet) Scan(value interface{}) error {
	return scanJSON(value, r)
}

// FieldSettings - настройки отображения и поведения поля. Хранится в jsonb.
type FieldSettings struct {
	Placeholder   string `json:"placeholder,omitempty"`
	DefaultValue  string `json:"default_value,omitempty"`
	ReadOnly      bool   `json:"read_only,omitempty"`
	Visible       bool   `json:"visible"`
	Rows          int    `json:"rows,omitempty"`
	Columns       int    `json:"columns,omitempty"`
	AllowMultiple bool   `json:"allow_multiple,omitempty"`
	Step          string `json:"step,omitempty"`
	CSSClass      string `json:"css_class,omitempty"`

	Extra ExtraBag `json:"extra,omitempty"`
}

// UnmarshalJSON считает поле видимым, пока ключ visible не задан явно: отсутствие настройки не превращает поле в скрытое.
func (s *FieldSettings) UnmarshalJSON(data []byte) error {
	type raw FieldSettings
	tmp := raw{Visible: true}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*s = FieldSettings(tmp)
	return nil
}

// IsZero true если ни одна настройка не задана.
func (s FieldSettings) IsZero() bool {
	return !s.Visible && !s.ReadOnly && !s.AllowMultiple &&
		s.Placeholder == "" && s.DefaultValue == "" &&
		s.Rows == 0 && s.Columns == 0 &&
		s.Step == "" && s.CSSClass == "" &&
		len(s.Extra) == 0
}

func (s FieldSettings) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *FieldSettings) Scan(value interface{}) error {
	return scanJSON(value, s)
}

func scanJSON(value interface{}, dst interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}

	return json.Unmarshal(bytes, dst)
}
