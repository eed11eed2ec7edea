// Закрытые перечисления предметной области: типы полей формы, операторы и действия условной логики, статусы ответов и согласований.  Все перечисления хранятся и сериализуются как целочисленные теги — производные строковые представления используются только для отображения и никогда не попадают в БД или JSON.
//
// Основные возможности:
//   - Каталог типов полей с флагами возможностей (опции, множественные значения, обязательная валидация).
//   - Настройки по умолчанию для каждого типа поля.
//   - Проверка корректности тега при десериализации.
package types

import "fmt"

// FieldType - тип поля формы.
type FieldType int

const (
	FieldText FieldType = iota + 1
	FieldEmail
	FieldNumber
	FieldPhone
	FieldTextArea
	FieldDropdown
	FieldRadioButton
	FieldCheckbox
	FieldDate
	FieldTime
	FieldDateTime
	FieldFileUpload
	FieldSignature
	FieldRating
	FieldBoolean
	FieldCurrency
	FieldUrl
	FieldPassword
	FieldHidden
	// FieldSection - разметочный маркер, не принимает значений. Используется для разбиения формы на шаги мастера.
	FieldSection
)

type fieldTypeCaps struct {
	Name                   string
	SupportsOptions        bool
	SupportsMultipleValues bool
	RequiresValidation     bool
}

var fieldTypeCatalog = map[FieldType]fieldTypeCaps{
	FieldText:        {Name: "text", RequiresValidation: true},
	FieldEmail:       {Name: "email", RequiresValidation: true},
	FieldNumber:      {Name: "number", RequiresValidation: true},
	FieldPhone:       {Name: "phone", RequiresValidation: true},
	FieldTextArea:    {Name: "textarea", RequiresValidation: true},
	FieldDropdown:    {Name: "dropdown", SupportsOptions: true, SupportsMultipleValues: true},
	FieldRadioButton: {Name: "radio", SupportsOptions: true},
	FieldCheckbox:    {Name: "checkbox", SupportsOptions: true, SupportsMultipleValues: true},
	FieldDate:        {Name: "date", RequiresValidation: true},
	FieldTime:        {Name: "time", RequiresValidation: true},
	FieldDateTime:    {Name: "datetime", RequiresValidation: true},
	FieldFileUpload:  {Name: "file", SupportsMultipleValues: true, RequiresValidation: true},
	FieldSignature:   {Name: "signature"},
	FieldRating:      {Name: "rating", RequiresValidation: true},
	FieldBoolean:     {Name: "boolean"},
	FieldCurrency:    {Name: "currency", RequiresValidation: true},
	FieldUrl:         {Name: "url", RequiresValidation: true},
	FieldPassword:    {Name: "password", RequiresValidation: true},
	FieldHidden:      {Name: "hidden"},
	FieldSection:     {Name: "section"},
}

func (t FieldType) Valid() bool {
	_, ok := fieldTypeCatalog[t]
	return ok
}

func (t FieldType) String() string {
	if c, ok := fieldTypeCatalog[t]; ok {
		return c.Name
	}
	return fmt.Sprintf("field_type(%d)", int(t))
}

func (t FieldType) SupportsOptions() bool {
	return fieldTypeCatalog[t].SupportsOptions
}

func (t FieldType) SupportsMultipleValues() bool {
	return fieldTypeCatalog[t].SupportsMultipleValues
}

func (t FieldType) RequiresValidation() bool {
	return fieldTypeCatalog[t].RequiresValidation
}

// IsInput false для разметочных полей, которые не принимают значений.
func (t FieldType) IsInput() bool {
	return t != FieldSection
}

// DefaultSettings возвращает настройки по умолчанию для данного типа поля.
func (t FieldType) DefaultSettings() FieldSettings {
	s := FieldSettings{Visible: true}
	switch t {
	case FieldTextArea:
		s.Rows = 4
		s.Columns = 50
	case FieldNumber, FieldCurrency, FieldRating:
		s.Step = "1"
	case FieldHidden:
		s.Visible = false
	}
	return s
}

// ValueType - примитив, в котором хранится значение ответа.
type ValueType int

const (
	ValueString ValueType = iota + 1
	ValueInt
	ValueDecimal
	ValueBool
	ValueDatetime
)

// ValueTypeOf возвращает тег примитива для типа поля.
func ValueTypeOf(t FieldType) ValueType {
	switch t {
	case FieldNumber, FieldCurrency:
		return ValueDecimal
	case FieldRating:
		return ValueInt
	case FieldBoolean:
		return ValueBool
	case FieldDate, FieldTime, FieldDateTime:
		return ValueDatetime
	}
	return ValueString
}

// ConditionalOperator - оператор сравнения в правиле условной логики.
type ConditionalOperator int

const (
	OpEquals ConditionalOperator = iota + 1
	OpNotEquals
	OpContains
	OpNotContains
	OpGreaterThan
	OpLessThan
	OpGreaterThanOrEqual
	OpLessThanOrEqual
	OpIsEmpty
	OpIsNotEmpty
	OpStartsWith
	OpEndsWith
)

func (o ConditionalOperator) Valid() bool {
	return o >= OpEquals && o <= OpEndsWith
}

// ConditionalAction - действие над целевым полем при срабатывании правила.
type ConditionalAction int

const (
	ActionShow ConditionalAction = iota + 1
	ActionHide
	ActionEnable
	ActionDisable
	ActionRequire
	ActionOptional
	ActionSetValue
	ActionClearValue
)

func (a ConditionalAction) Valid() bool {
	return a >= ActionShow && a <= ActionClearValue
}

// SubmissionStatus - статус ответа на форму.
type SubmissionStatus int

const (
	SubmissionDraft SubmissionStatus = iota + 1
	SubmissionSubmitted
	SubmissionPendingApproval
	SubmissionApproved
	SubmissionRejected
	SubmissionProcessing
	SubmissionCompleted
	SubmissionCancelled
)

// ApprovalStatus - статус процесса согласования.
type ApprovalStatus int

const (
	ApprovalPending ApprovalStatus = iota + 1
	ApprovalInProgress
	ApprovalApproved
	ApprovalRejected
	ApprovalCancelled
	ApprovalExpired
)

// Terminal true для конечных состояний процесса.
func (s ApprovalStatus) Terminal() bool {
	switch s {
	case ApprovalApproved, ApprovalRejected, ApprovalCancelled, ApprovalExpired:
		return true
	}
	return false
}

// ApprovalActionType - тип события согласования.
type ApprovalActionType int

const (
	ActionApprove ApprovalActionType = iota + 1
	ActionReject
	ActionRequestChanges
	ActionDelegate
	ActionSkip
	ActionComment
)

func (a ApprovalActionType) Valid() bool {
	return a >= ActionApprove && a <= ActionComment
}

// WorkflowType - заявленная семантика исполнения маршрута. Движок ведет шаги строго по step_order; теги Parallel/Conditional/Hybrid сохраняются для совместимости.
type WorkflowType int

const (
	WorkflowSequential WorkflowType = iota + 1
	WorkflowParallel
	WorkflowConditional
	WorkflowHybrid
)

// StepType - тип шага согласования. Разрешение "кто может согласовать" по approver_criteria выполняет внешний сервис.
type StepType int

const (
	StepUserApproval StepType = iota + 1
	StepRoleApproval
	StepDepartmentApproval
	StepSystemApproval
	StepExternalApproval
)
