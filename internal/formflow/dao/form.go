// DAO для работы с данными форм.  Предоставляет сущности формы, поля, варианта ответа и правила условной логики, а также инварианты агрегата формы (уникальность имен полей, совместимость опций с типом поля, защита опубликованной формы от структурных изменений).
package dao

import (
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/aisa-it/formflow/internal/formflow/apierrors"
	"github.com/aisa-it/formflow/internal/formflow/dto"
	policy "github.com/aisa-it/formflow/internal/formflow/redactor-policy"
	"github.com/aisa-it/formflow/internal/formflow/types"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const (
	maxFieldNameLen  = 50
	maxFieldLabelLen = 100
	maxOptionLen     = 100
)

var fieldNameRegexp = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

type Form struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CreatedById uuid.UUID     `json:"created_by" gorm:"type:uuid;index"`
	UpdatedById uuid.NullUUID `json:"-" gorm:"type:uuid" extensions:"x-nullable"`

	Slug        string `json:"slug" gorm:"uniqueIndex;not null"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	AuthRequire bool   `json:"auth_require"`

	WorkspaceId uuid.UUID `json:"workspace" gorm:"type:uuid;index"`

	IsPublished bool       `json:"is_published"`
	PublishedAt *time.Time `json:"published_at" extensions:"x-nullable"`
	IsActive    bool       `json:"is_active" gorm:"default:true"`

	SubmissionStartDate *types.TargetDate `json:"submission_start_date" extensions:"x-nullable"`
	SubmissionEndDate   *types.TargetDate `json:"submission_end_date" gorm:"index" extensions:"x-nullable"`

	WorkflowId uuid.NullUUID     `json:"workflow_id" gorm:"type:uuid" extensions:"x-nullable"`
	Workflow   *ApprovalWorkflow `json:"workflow_detail,omitempty" gorm:"foreignKey:WorkflowId" extensions:"x-nullable"`

	Fields []FormField            `json:"fields" gorm:"foreignKey:FormId;references:ID"`
	Rules  []ConditionalLogicRule `json:"rules" gorm:"foreignKey:FormId;references:ID"`

	Active bool     `json:"active" gorm:"-"`
	URL    *url.URL `json:"-" gorm:"-" extensions:"x-nullable"`
}

func (Form) TableName() string { return "forms" }

func (f Form) GetId() string {
	return f.ID.String()
}

func (f Form) GetString() string {
	return f.Slug
}

func (f Form) GetWorkspaceId() uuid.UUID {
	return f.WorkspaceId
}

// AfterFind вычисляет признак активности формы: форма активна, если она включена и текущее время попадает в окно приема ответов.
func (form *Form) AfterFind(tx *gorm.DB) error {
	form.Active = form.AcceptsAt(time.Now())
	form.SetUrl()
	return nil
}

// AcceptsAt true если форма принимает ответы в момент t.
func (form *Form) AcceptsAt(t time.Time) bool {
	if !form.IsActive {
		return false
	}
	day := t.Truncate(24 * time.Hour).UTC()
	if form.SubmissionStartDate != nil && day.Before(form.SubmissionStartDate.Time) {
		return false
	}
	if form.SubmissionEndDate != nil && !form.SubmissionEndDate.Time.After(day.Add(-time.Millisecond)) {
		return false
	}
	return true
}

func (form *Form) SetUrl() {
	if Config == nil || Config.WebURL == nil {
		return
	}
	u, _ := url.Parse(fmt.Sprintf("/f/%s/", form.Slug))
	form.URL = Config.WebURL.ResolveReference(u)
}

// BeforeSave преобразует значения полей формы, чтобы предотвратить XSS-атаки.
func (form *Form) BeforeSave(tx *gorm.DB) error {
	form.Title = policy.StripTagsPolicy.Sanitize(form.Title)
	form.Description = policy.UgcPolicy.Sanitize(form.Description)
	return nil
}

// BeforeDelete удаляет связанные записи (правила, поля, ответы) перед удалением формы.
func (form *Form) BeforeDelete(tx *gorm.DB) error {
	if err := tx.Unscoped().Where("form_id = ?", form.ID).Delete(&ConditionalLogicRule{}).Error; err != nil {
		return err
	}

	var fields []FormField
	if err := tx.Where("form_id = ?", form.ID).Find(&fields).Error; err != nil {
		return err
	}
	for _, field := range fields {
		if err := tx.Delete(&field).Error; err != nil {
			return err
		}
	}

	var submissions []Submission
	if err := tx.Where("form_id = ?", form.ID).Find(&submissions).Error; err != nil {
		return err
	}
	for _, submission := range submissions {
		if err := tx.Delete(&submission).Error; err != nil {
			return err
		}
	}
	return nil
}

// EnsureEditable - защита опубликованной формы от структурных изменений. Решение о праве редактировать опубликованную форму принимает вызывающая сторона и передает сюда готовый признак.
func (form *Form) EnsureEditable(canEditPublished bool) error {
	if form.IsPublished && !canEditPublished {
		return apierrors.ErrFormPublished
	}
	return nil
}

// Publish публикует форму. Пустая форма не публикуется; повторная публикация - no-op.
func (form *Form) Publish() error {
	if form.IsPublished {
		return nil
	}
	if len(form.Fields) == 0 {
		return apierrors.ErrFormPublishEmpty
	}
	now := time.Now()
	form.IsPublished = true
	form.PublishedAt = &now
	return nil
}

// AddField добавляет поле в форму. Имя поля должно быть уникальным в пределах формы.
func (form *Form) AddField(field *FormField) error {
	if !field.FieldType.Valid() {
		return apierrors.ErrFieldUnknownType
	}
	if len(field.Name) == 0 || len(field.Name) > maxFieldNameLen || !fieldNameRegexp.MatchString(field.Name) {
		return apierrors.ForField(apierrors.ErrFieldNameInvalid, field.Name)
	}
	if len(field.Label) > maxFieldLabelLen {
		return apierrors.ForField(apierrors.ErrFieldLabelInvalid, field.Name)
	}
	if form.FieldByName(field.Name) != nil {
		return apierrors.ForField(apierrors.ErrFieldNameConflict, field.Name)
	}

	if field.ID == uuid.Nil {
		field.ID = GenUUID()
	}
	if field.Settings.IsZero() {
		field.Settings = field.FieldType.DefaultSettings()
	}
	field.FormId = form.ID
	if field.SortOrder <= 0 {
		field.SortOrder = len(form.Fields) + 1
	}
	form.Fields = append(form.Fields, *field)
	return nil
}

// RemoveField удаляет поле, если оно есть. Отсутствие поля не считается ошибкой.
func (form *Form) RemoveField(fieldId uuid.UUID) bool {
	for i, f := range form.Fields {
		if f.ID == fieldId {
			form.Fields = append(form.Fields[:i], form.Fields[i+1:]...)
			return true
		}
	}
	return false
}

func (form *Form) FieldByName(name string) *FormField {
	for i := range form.Fields {
		if form.Fields[i].Name == name {
			return &form.Fields[i]
		}
	}
	return nil
}

func (form *Form) FieldByID(id uuid.UUID) *FormField {
	for i := range form.Fields {
		if form.Fields[i].ID == id {
			return &form.Fields[i]
		}
	}
	return nil
}

// SortedFields возвращает поля в порядке sort_order.
func (form *Form) SortedFields() []FormField {
	fields := make([]FormField, len(form.Fields))
	copy(fields, form.Fields)
	for i := 1; i < len(fields); i++ {
		for j := i; j > 0 && fields[j-1].SortOrder > fields[j].SortOrder; j-- {
			fields[j-1], fields[j] = fields[j], fields[j-1]
		}
	}
	return fields
}

// AddRule добавляет правило условной логики. Оба поля должны принадлежать форме; на пару (триггер, цель) допускается не более одного правила.
func (form *Form) AddRule(rule *ConditionalLogicRule) error {
	if !rule.Operator.Valid() || !rule.Action.Valid() {
		return apierrors.ErrFormBadRequest
	}
	if form.FieldByID(rule.TriggerFieldId) == nil || form.FieldByID(rule.TargetFieldId) == nil {
		return apierrors.ErrRuleFieldsMismatch
	}
	for _, r := range form.Rules {
		if r.TriggerFieldId == rule.TriggerFieldId && r.TargetFieldId == rule.TargetFieldId {
			return apierrors.ErrRuleConflict
		}
	}

	if rule.ID == uuid.Nil {
		rule.ID = GenUUID()
	}
	rule.FormId = form.ID
	rule.Position = len(form.Rules) + 1
	form.Rules = append(form.Rules, *rule)
	return nil
}

// RulesForTarget возвращает правила, нацеленные на поле, в порядке добавления.
func (form *Form) RulesForTarget(fieldId uuid.UUID) []ConditionalLogicRule {
	var rules []ConditionalLogicRule
	for _, r := range form.Rules {
		if r.TargetFieldId == fieldId {
			rules = append(rules, r)
		}
	}
	for i := 1; i < len(rules); i++ {
		for j := i; j > 0 && rules[j-1].Position > rules[j].Position; j-- {
			rules[j-1], rules[j] = rules[j], rules[j-1]
		}
	}
	return rules
}

// ToLightDTO преобразует Form в FormLight для упрощенной передачи данных.
func (f *Form) ToLightDTO() *dto.FormLight {
	if f == nil {
		return nil
	}
	f.SetUrl()
	ff := &dto.FormLight{
		ID:          f.ID.String(),
		Slug:        f.Slug,
		Title:       f.Title,
		Description: f.Description,
		AuthRequire: f.AuthRequire,
		IsPublished: f.IsPublished,
		WorkspaceId: f.WorkspaceId.String(),
		EndDate:     f.SubmissionEndDate,
		Active:      f.Active,
	}
	if f.URL != nil {
		ff.Url = f.URL.String()
	}
	if f.WorkflowId.Valid {
		workflowIdStr := f.WorkflowId.UUID.String()
		ff.WorkflowId = &workflowIdStr
	}
	return ff
}

// ToDTO преобразует Form в dto.Form для удобной передачи данных в интерфейс.
func (f *Form) ToDTO() *dto.Form {
	if f == nil {
		return nil
	}

	res := &dto.Form{
		FormLight: *f.ToLightDTO(),
		Workflow:  f.Workflow.ToLightDTO(),
	}
	for _, field := range f.SortedFields() {
		res.Fields = append(res.Fields, *field.ToDTO())
	}
	for _, rule := range f.Rules {
		res.Rules = append(res.Rules, *rule.ToDTO())
	}
	return res
}

type FormField struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FormId uuid.UUID `json:"form_id" gorm:"type:uuid;index;uniqueIndex:idx_form_field_name,priority:1"`

	Name        string          `json:"name" gorm:"uniqueIndex:idx_form_field_name,priority:2" validate:"required"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	FieldType   types.FieldType `json:"field_type"`
	Required    bool            `json:"required"`
	SortOrder   int             `json:"sort_order"`

	Validation types.ValidationRuleSet `json:"validation" gorm:"type:jsonb"`
	Settings   types.FieldSettings     `json:"settings" gorm:"type:jsonb"`

	Options []FormFieldOption `json:"options" gorm:"foreignKey:FieldId;references:ID"`
}

func (FormField) TableName() string { return "form_fields" }

func (f FormField) GetId() string {
	return f.ID.String()
}

// BeforeSave - санитация подписи поля для предотвращения XSS.
func (field *FormField) BeforeSave(tx *gorm.DB) error {
	field.Label = policy.StripTagsPolicy.Sanitize(field.Label)
	return nil
}

// BeforeDelete удаляет варианты ответа поля перед удалением самого поля.
func (field *FormField) BeforeDelete(tx *gorm.DB) error {
	return tx.Unscoped().Where("field_id = ?", field.ID).Delete(&FormFieldOption{}).Error
}

// AddOption добавляет вариант ответа. Тип поля должен поддерживать варианты; значение варианта уникально в пределах поля.
func (field *FormField) AddOption(opt *FormFieldOption) error {
	if !field.FieldType.SupportsOptions() {
		return apierrors.ErrOptionsNotSupported
	}
	if opt.Label == "" || opt.Value == "" || len(opt.Label) > maxOptionLen || len(opt.Value) > maxOptionLen {
		return apierrors.ErrOptionInvalid
	}
	for _, o := range field.Options {
		if o.Value == opt.Value {
			return apierrors.ErrOptionValueConflict
		}
	}

	if opt.ID == uuid.Nil {
		opt.ID = GenUUID()
	}
	opt.FieldId = field.ID
	if opt.SortOrder <= 0 {
		opt.SortOrder = len(field.Options) + 1
	}
	field.Options = append(field.Options, *opt)
	return nil
}

// HasOptionValue true если значение входит в список вариантов поля.
func (field *FormField) HasOptionValue(value string) bool {
	for _, o := range field.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

func (f *FormField) ToDTO() *dto.FormField {
	if f == nil {
		return nil
	}
	res := &dto.FormField{
		ID:          f.ID.String(),
		Name:        f.Name,
		Label:       f.Label,
		Description: f.Description,
		FieldType:   f.FieldType,
		Required:    f.Required,
		SortOrder:   f.SortOrder,
		Validation:  f.Validation,
		Settings:    f.Settings,
	}
	for _, o := range f.Options {
		res.Options = append(res.Options, dto.FormFieldOption{
			ID:        o.ID.String(),
			Label:     o.Label,
			Value:     o.Value,
			SortOrder: o.SortOrder,
			IsDefault: o.IsDefault,
		})
	}
	return res
}

type FormFieldOption struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	FieldId uuid.UUID `json:"field_id" gorm:"type:uuid;index"`

	Label     string `json:"label" validate:"required"`
	Value     string `json:"value" validate:"required"`
	SortOrder int    `json:"sort_order"`
	IsDefault bool   `json:"is_default"`
}

func (FormFieldOption) TableName() string { return "form_field_options" }

// BeforeSave - санитация подписи варианта.
func (opt *FormFieldOption) BeforeSave(tx *gorm.DB) error {
	opt.Label = policy.StripTagsPolicy.Sanitize(opt.Label)
	return nil
}

type ConditionalLogicRule struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	FormId uuid.UUID `json:"form_id" gorm:"type:uuid;index;uniqueIndex:idx_form_rule_pair,priority:1"`

	TriggerFieldId uuid.UUID `json:"trigger_field_id" gorm:"type:uuid;uniqueIndex:idx_form_rule_pair,priority:2"`
	TargetFieldId  uuid.UUID `json:"target_field_id" gorm:"type:uuid;uniqueIndex:idx_form_rule_pair,priority:3"`

	Operator     types.ConditionalOperator `json:"operator"`
	TriggerValue string                    `json:"trigger_value"`
	Action       types.ConditionalAction   `json:"action"`

	// Position - порядок добавления правила в форму. Определяет приоритет: последнее сработавшее правило побеждает.
	Position int `json:"position" gorm:"index"`
}

func (ConditionalLogicRule) TableName() string { return "conditional_logic_rules" }

func (r *ConditionalLogicRule) ToDTO() *dto.ConditionalLogicRule {
	if r == nil {
		return nil
	}
	return &dto.ConditionalLogicRule{
		ID:             r.ID.String(),
		TriggerFieldId: r.TriggerFieldId.String(),
		TargetFieldId:  r.TargetFieldId.String(),
		Operator:       r.Operator,
		TriggerValue:   r.TriggerValue,
		Action:         r.Action,
		Position:       r.Position,
	}
}
