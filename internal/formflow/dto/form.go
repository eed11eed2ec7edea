// Содержит структуры данных (DTO) для представления форм, ответов и маршрутов согласования в приложении.  Используется для сериализации/десериализации данных и передачи между слоями приложения.
//
// Основные возможности:
//   - Представление структуры формы, включая поля, варианты ответа и правила условной логики.
//   - Представление ответа на форму со значениями и вложениями.
//   - Представление маршрута согласования с шагами и процесса с историей действий.
package dto

import (
	"github.com/aisa-it/formflow/internal/formflow/types"
)

type FormLight struct {
	ID          string            `json:"id"`
	Slug        string            `json:"slug"`
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description"`
	AuthRequire bool              `json:"auth_require"`
	IsPublished bool              `json:"is_published"`
	EndDate     *types.TargetDate `json:"end_date" extensions:"x-nullable" swaggertype:"string"`
	WorkflowId  *string           `json:"workflow_id,omitempty" extensions:"x-nullable"`
	WorkspaceId string            `json:"workspace"`
	Active      bool              `json:"active"`
	Url         string            `json:"url,omitempty"`
}

type Form struct {
	FormLight
	Fields   []FormField            `json:"fields"`
	Rules    []ConditionalLogicRule `json:"rules,omitempty"`
	Workflow *ApprovalWorkflowLight `json:"workflow_detail,omitempty" extensions:"x-nullable"`
}

type FormField struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Label       string                  `json:"label"`
	Description string                  `json:"description,omitempty"`
	FieldType   types.FieldType         `json:"field_type"`
	Required    bool                    `json:"required"`
	SortOrder   int                     `json:"sort_order"`
	Validation  types.ValidationRuleSet `json:"validation"`
	Settings    types.FieldSettings     `json:"settings"`
	Options     []FormFieldOption       `json:"options,omitempty"`
}

type FormFieldOption struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Value     string `json:"value"`
	SortOrder int    `json:"sort_order"`
	IsDefault bool   `json:"is_default"`
}

type ConditionalLogicRule struct {
	ID             string                    `json:"id"`
	TriggerFieldId string                    `json:"trigger_field_id"`
	TargetFieldId  string                    `json:"target_field_id"`
	Operator       types.ConditionalOperator `json:"operator"`
	TriggerValue   string                    `json:"trigger_value"`
	Action         types.ConditionalAction   `json:"action"`
	Position       int                       `json:"position"`
}
