// Структуры входящих запросов formflow и их привязка к сущностям DAO.
//
// Основные возможности:
//   - Создание и обновление форм, полей, вариантов и правил условной логики.
//   - Создание и изменение маршрутов и шагов согласования.
//   - Передача ответа на форму и действий согласующих.
package formflow

import (
	"github.com/aisa-it/formflow/internal/formflow/dao"
	"github.com/aisa-it/formflow/internal/formflow/types"
	"github.com/gofrs/uuid"
)

type reqForm struct {
	Slug        string `json:"slug" validate:"omitempty,slug"`
	Title       string `json:"title" validate:"formTitle"`
	Description string `json:"description"`
	AuthRequire *bool  `json:"auth_require"`

	SubmissionStartDate *types.TargetDate `json:"submission_start_date"`
	SubmissionEndDate   *types.TargetDate `json:"submission_end_date"`

	WorkflowId *string `json:"workflow_id"`
}

func (req *reqForm) Bind(form *dao.Form) {
	if req.Slug != "" {
		form.Slug = req.Slug
	}
	form.Title = req.Title
	form.Description = req.Description
	if req.AuthRequire != nil {
		form.AuthRequire = *req.AuthRequire
	}
	form.SubmissionStartDate = req.SubmissionStartDate
	form.SubmissionEndDate = req.SubmissionEndDate
	if req.WorkflowId != nil {
		if workflowId, err := uuid.FromString(*req.WorkflowId); err == nil {
			form.WorkflowId = uuid.NullUUID{UUID: workflowId, Valid: true}
		} else {
			form.WorkflowId = uuid.NullUUID{}
		}
	}
}

type reqField struct {
	Name        string `json:"name" validate:"fieldName"`
	Label       string `json:"label"`
	Description string `json:"description"`
	FieldType   int    `json:"field_type" validate:"required"`
	Required    bool   `json:"required"`

	Validation *types.ValidationRuleSet `json:"validation"`
	Settings   *types.FieldSettings     `json:"settings"`

	Options []reqOption `json:"options"`
}

func (req *reqField) Bind(field *dao.FormField) {
	field.Name = req.Name
	field.Label = req.Label
	field.Description = req.Description
	field.FieldType = types.FieldType(req.FieldType)
	field.Required = req.Required
	if req.Validation != nil {
		field.Validation = *req.Validation
	}
	if req.Settings != nil {
		field.Settings = *req.Settings
	} else {
		field.Settings = field.FieldType.DefaultSettings()
	}
}

type reqOption struct {
	Label string `json:"label" validate:"required"`
	Value string `json:"value" validate:"required"`
}

func (req *reqOption) Bind(opt *dao.FormFieldOption) {
	opt.Label = req.Label
	opt.Value = req.Value
}

type reqRule struct {
	TriggerFieldId string `json:"trigger_field_id" validate:"required,uuid"`
	TargetFieldId  string `json:"target_field_id" validate:"required,uuid"`
	Operator       int    `json:"operator" validate:"required"`
	TriggerValue   string `json:"trigger_value"`
	Action         int    `json:"action" validate:"required"`
}

func (req *reqRule) Bind(rule *dao.ConditionalLogicRule) {
	rule.TriggerFieldId, _ = uuid.FromString(req.TriggerFieldId)
	rule.TargetFieldId, _ = uuid.FromString(req.TargetFieldId)
	rule.Operator = types.ConditionalOperator(req.Operator)
	rule.TriggerValue = req.TriggerValue
	rule.Action = types.ConditionalAction(req.Action)
}

type reqWorkflow struct {
	Name         string `json:"name" validate:"required"`
	Description  string `json:"description"`
	WorkflowType int    `json:"workflow_type"`
	IsActive     *bool  `json:"is_active"`
}

func (req *reqWorkflow) Bind(workflow *dao.ApprovalWorkflow) {
	workflow.Name = req.Name
	workflow.Description = req.Description
	if req.WorkflowType != 0 {
		workflow.WorkflowType = types.WorkflowType(req.WorkflowType)
	}
	if req.IsActive != nil {
		workflow.IsActive = *req.IsActive
	}
}

type reqStep struct {
	StepName            string `json:"step_name" validate:"required"`
	StepType            int    `json:"step_type"`
	ApproverCriteria    string `json:"approver_criteria"`
	RequireAllApprovers bool   `json:"require_all_approvers"`
	TimeoutHours        int    `json:"timeout_hours"`
}

func (req *reqStep) Bind(step *dao.ApprovalStep) {
	step.StepName = req.StepName
	step.StepType = types.StepType(req.StepType)
	step.ApproverCriteria = req.ApproverCriteria
	step.RequireAllApprovers = req.RequireAllApprovers
	step.TimeoutHours = req.TimeoutHours
}

type reqReorderSteps struct {
	StepIds []string `json:"step_ids" validate:"required,min=1,dive,uuid"`
}

type reqAnswer struct {
	Values map[string]string `json:"values"`
}

type reqAction struct {
	ActionType int    `json:"action_type" validate:"required"`
	Comments   string `json:"comments"`
}
