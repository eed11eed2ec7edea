package dto

import (
	"time"

	"github.com/aisa-it/formflow/internal/formflow/types"
)

type ApprovalWorkflowLight struct {
	ID           string             `json:"id"`
	Name         string             `json:"name" validate:"required"`
	Description  string             `json:"description"`
	WorkflowType types.WorkflowType `json:"workflow_type"`
	IsActive     bool               `json:"is_active"`
	WorkspaceId  string             `json:"workspace"`
}

type ApprovalWorkflow struct {
	ApprovalWorkflowLight
	Steps []ApprovalStep `json:"steps"`
}

type ApprovalStep struct {
	ID                  string         `json:"id"`
	StepName            string         `json:"step_name"`
	StepType            types.StepType `json:"step_type"`
	StepOrder           int            `json:"step_order"`
	ApproverCriteria    string         `json:"approver_criteria"`
	RequireAllApprovers bool           `json:"require_all_approvers"`
	TimeoutHours        int            `json:"timeout_hours"`
}

type ApprovalProcess struct {
	ID           string `json:"id"`
	SubmissionId string `json:"submission_id"`
	WorkflowId   string `json:"workflow_id"`

	CurrentStepId *string `json:"current_step_id,omitempty" extensions:"x-nullable"`

	Status      types.ApprovalStatus `json:"status"`
	StartedAt   time.Time            `json:"started_at"`
	CompletedAt *time.Time           `json:"completed_at" extensions:"x-nullable"`
	Comments    string               `json:"comments,omitempty"`

	Actions []ApprovalAction `json:"actions,omitempty"`
}

type ApprovalAction struct {
	ID             string                   `json:"id"`
	StepId         string                   `json:"step_id"`
	ActionByUserId string                   `json:"action_by"`
	ActionType     types.ApprovalActionType `json:"action_type"`
	Comments       string                   `json:"comments,omitempty"`
	ActionAt       time.Time                `json:"action_at"`
}
