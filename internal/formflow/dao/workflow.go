// DAO для работы с маршрутами согласования.  Содержит маршрут с упорядоченными шагами, процесс согласования с историей действий и инварианты агрегатов: непрерывная нумерация шагов после удаления, слабые ссылки истории на шаги (удаление шага не трогает историю), оптимистическая блокировка процесса.
package dao

import (
	"time"

	"github.com/aisa-it/formflow/internal/formflow/apierrors"
	"github.com/aisa-it/formflow/internal/formflow/dto"
	policy "github.com/aisa-it/formflow/internal/formflow/redactor-policy"
	"github.com/aisa-it/formflow/internal/formflow/types"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const DefaultStepTimeoutHours = 24

type ApprovalWorkflow struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CreatedById uuid.UUID `json:"created_by" gorm:"type:uuid;index"`
	WorkspaceId uuid.UUID `json:"workspace" gorm:"type:uuid;index"`

	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`

	WorkflowType types.WorkflowType `json:"workflow_type"`
	IsActive     bool               `json:"is_active" gorm:"default:true"`

	Steps []ApprovalStep `json:"steps" gorm:"foreignKey:WorkflowId;references:ID"`
}

func (ApprovalWorkflow) TableName() string { return "approval_workflows" }

func (w ApprovalWorkflow) GetId() string {
	return w.ID.String()
}

func (w ApprovalWorkflow) GetWorkspaceId() uuid.UUID {
	return w.WorkspaceId
}

// BeforeSave - санитация названия маршрута.
func (w *ApprovalWorkflow) BeforeSave(tx *gorm.DB) error {
	w.Name = policy.StripTagsPolicy.Sanitize(w.Name)
	return nil
}

// BeforeDelete удаляет шаги маршрута. Процессы и их история остаются: история ссылается на шаги слабо.
func (w *ApprovalWorkflow) BeforeDelete(tx *gorm.DB) error {
	return tx.Unscoped().Where("workflow_id = ?", w.ID).Delete(&ApprovalStep{}).Error
}

// SortedSteps возвращает шаги в порядке step_order.
func (w *ApprovalWorkflow) SortedSteps() []ApprovalStep {
	steps := make([]ApprovalStep, len(w.Steps))
	copy(steps, w.Steps)
	for i := 1; i < len(steps); i++ {
		for j := i; j > 0 && steps[j-1].StepOrder > steps[j].StepOrder; j-- {
			steps[j-1], steps[j] = steps[j], steps[j-1]
		}
	}
	return steps
}

// FirstStep возвращает шаг с наименьшим порядком или nil для пустого маршрута.
func (w *ApprovalWorkflow) FirstStep() *ApprovalStep {
	var first *ApprovalStep
	for i := range w.Steps {
		if first == nil || w.Steps[i].StepOrder < first.StepOrder {
			first = &w.Steps[i]
		}
	}
	return first
}

func (w *ApprovalWorkflow) StepByID(id uuid.UUID) *ApprovalStep {
	for i := range w.Steps {
		if w.Steps[i].ID == id {
			return &w.Steps[i]
		}
	}
	return nil
}

// NextStepAfter возвращает шаг с наименьшим порядком, строго большим заданного, или nil, если шаг был последним.
func (w *ApprovalWorkflow) NextStepAfter(order int) *ApprovalStep {
	var next *ApprovalStep
	for i := range w.Steps {
		if w.Steps[i].StepOrder <= order {
			continue
		}
		if next == nil || w.Steps[i].StepOrder < next.StepOrder {
			next = &w.Steps[i]
		}
	}
	return next
}

// AddStep добавляет шаг в конец маршрута.
func (w *ApprovalWorkflow) AddStep(step *ApprovalStep) {
	if step.ID == uuid.Nil {
		step.ID = GenUUID()
	}
	step.WorkflowId = w.ID
	if step.TimeoutHours <= 0 {
		step.TimeoutHours = DefaultStepTimeoutHours
	}
	step.StepOrder = len(w.Steps) + 1
	w.Steps = append(w.Steps, *step)
}

// RemoveStep удаляет шаг и перенумеровывает оставшиеся в непрерывный ряд 1..N.
func (w *ApprovalWorkflow) RemoveStep(stepId uuid.UUID) bool {
	removed := false
	for i, s := range w.Steps {
		if s.ID == stepId {
			w.Steps = append(w.Steps[:i], w.Steps[i+1:]...)
			removed = true
			break
		}
	}
	if removed {
		w.Resequence()
	}
	return removed
}

// Resequence перенумеровывает шаги в непрерывный ряд 1..N, сохраняя относительный порядок.
func (w *ApprovalWorkflow) Resequence() {
	sorted := w.SortedSteps()
	for i := range sorted {
		step := w.StepByID(sorted[i].ID)
		step.StepOrder = i + 1
	}
}

// ReorderSteps задает новый порядок шагов. Список должен содержать все шаги маршрута ровно по одному разу.
func (w *ApprovalWorkflow) ReorderSteps(stepIds []uuid.UUID) error {
	if len(stepIds) != len(w.Steps) {
		return apierrors.ErrStepOrderInvalid
	}
	seen := make(map[uuid.UUID]bool, len(stepIds))
	for i, id := range stepIds {
		if seen[id] {
			return apierrors.ErrStepOrderInvalid
		}
		seen[id] = true
		step := w.StepByID(id)
		if step == nil {
			return apierrors.ErrStepNotFound
		}
		step.StepOrder = i + 1
	}
	return nil
}

// ToLightDTO преобразует маршрут в компактное DTO без шагов.
func (w *ApprovalWorkflow) ToLightDTO() *dto.ApprovalWorkflowLight {
	if w == nil {
		return nil
	}
	return &dto.ApprovalWorkflowLight{
		ID:           w.ID.String(),
		Name:         w.Name,
		Description:  w.Description,
		WorkflowType: w.WorkflowType,
		IsActive:     w.IsActive,
		WorkspaceId:  w.WorkspaceId.String(),
	}
}

// ToDTO преобразует маршрут в DTO с шагами в порядке исполнения.
func (w *ApprovalWorkflow) ToDTO() *dto.ApprovalWorkflow {
	if w == nil {
		return nil
	}
	res := &dto.ApprovalWorkflow{
		ApprovalWorkflowLight: *w.ToLightDTO(),
	}
	for _, s := range w.SortedSteps() {
		res.Steps = append(res.Steps, *s.ToDTO())
	}
	return res
}

type ApprovalStep struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	WorkflowId uuid.UUID `json:"workflow_id" gorm:"type:uuid;index"`

	StepName  string         `json:"step_name" validate:"required"`
	StepType  types.StepType `json:"step_type"`
	StepOrder int            `json:"step_order"`

	// ApproverCriteria - непрозрачная строка; кто имеет право согласовать шаг, решает внешний сервис.
	ApproverCriteria    string `json:"approver_criteria"`
	RequireAllApprovers bool   `json:"require_all_approvers"`
	TimeoutHours        int    `json:"timeout_hours" gorm:"default:24"`
}

func (ApprovalStep) TableName() string { return "approval_steps" }

func (s ApprovalStep) GetId() string {
	return s.ID.String()
}

// IsTimeout true, если с начала шага прошло больше timeout_hours. Движок время не опрашивает - проверку вызывает внешний планировщик.
func (s *ApprovalStep) IsTimeout(startedAt time.Time) bool {
	return s.IsTimeoutAt(startedAt, time.Now())
}

func (s *ApprovalStep) IsTimeoutAt(startedAt time.Time, now time.Time) bool {
	hours := s.TimeoutHours
	if hours <= 0 {
		hours = DefaultStepTimeoutHours
	}
	return now.After(startedAt.Add(time.Duration(hours) * time.Hour))
}

func (s *ApprovalStep) ToDTO() *dto.ApprovalStep {
	if s == nil {
		return nil
	}
	return &dto.ApprovalStep{
		ID:                  s.ID.String(),
		StepName:            s.StepName,
		StepType:            s.StepType,
		StepOrder:           s.StepOrder,
		ApproverCriteria:    s.ApproverCriteria,
		RequireAllApprovers: s.RequireAllApprovers,
		TimeoutHours:        s.TimeoutHours,
	}
}

type ApprovalProcess struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SubmissionId uuid.UUID `json:"submission_id" gorm:"type:uuid;uniqueIndex"`
	WorkflowId   uuid.UUID `json:"workflow_id" gorm:"type:uuid;index"`

	// CurrentStepId пуст, пока процесс не стартовал и после перехода в конечное состояние.
	CurrentStepId uuid.NullUUID `json:"current_step_id" gorm:"type:uuid" extensions:"x-nullable"`

	Status      types.ApprovalStatus `json:"status" gorm:"index"`
	StartedAt   time.Time            `json:"started_at"`
	CompletedAt *time.Time           `json:"completed_at" extensions:"x-nullable"`

	// Comments - причина отклонения.
	Comments string `json:"comments"`

	// Version - счетчик оптимистической блокировки. Сохранение с устаревшей версией отклоняется.
	Version int `json:"-" gorm:"default:0"`

	Actions []ApprovalAction `json:"actions" gorm:"foreignKey:ProcessId;references:ID"`
}

func (ApprovalProcess) TableName() string { return "approval_processes" }

func (p ApprovalProcess) GetId() string {
	return p.ID.String()
}

// BeforeDelete удаляет историю действий перед удалением процесса.
func (p *ApprovalProcess) BeforeDelete(tx *gorm.DB) error {
	return tx.Unscoped().Where("process_id = ?", p.ID).Delete(&ApprovalAction{}).Error
}

// SaveVersioned сохраняет процесс с проверкой версии. Возвращает ErrConcurrentUpdate, если запись изменена кем-то другим - вызывающая сторона повторяет операцию с чтения.
func (p *ApprovalProcess) SaveVersioned(tx *gorm.DB) error {
	oldVersion := p.Version
	p.Version++
	res := tx.Model(&ApprovalProcess{}).
		Where("id = ?", p.ID).
		Where("version = ?", oldVersion).
		Select("current_step_id", "status", "started_at", "completed_at", "comments", "version").
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierrors.ErrConcurrentUpdate
	}
	return nil
}

// ToDTO преобразует процесс в DTO с историей действий.
func (p *ApprovalProcess) ToDTO() *dto.ApprovalProcess {
	if p == nil {
		return nil
	}
	res := &dto.ApprovalProcess{
		ID:           p.ID.String(),
		SubmissionId: p.SubmissionId.String(),
		WorkflowId:   p.WorkflowId.String(),
		Status:       p.Status,
		StartedAt:    p.StartedAt,
		CompletedAt:  p.CompletedAt,
		Comments:     p.Comments,
	}
	if p.CurrentStepId.Valid {
		currentStepId := p.CurrentStepId.UUID.String()
		res.CurrentStepId = &currentStepId
	}
	for _, a := range p.Actions {
		res.Actions = append(res.Actions, *a.ToDTO())
	}
	return res
}

// ApprovalAction - неизменяемая запись одного события согласования. После создания допускается только правка комментария.
type ApprovalAction struct {
	ID uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`

	ProcessId uuid.UUID `json:"process_id" gorm:"type:uuid;index"`
	// StepId - слабая ссылка: удаление шага не трогает историю.
	StepId uuid.UUID `json:"step_id" gorm:"type:uuid"`

	ActionByUserId uuid.UUID `json:"action_by" gorm:"type:uuid;index"`

	ActionType types.ApprovalActionType `json:"action_type"`
	Comments   string                   `json:"comments"`
	ActionAt   time.Time                `json:"action_at"`
}

func (ApprovalAction) TableName() string { return "approval_actions" }

// AmendComment - единственная допустимая правка записи истории.
func (a *ApprovalAction) AmendComment(tx *gorm.DB, comments string) error {
	a.Comments = comments
	return tx.Model(&ApprovalAction{}).Where("id = ?", a.ID).Update("comments", comments).Error
}

func (a *ApprovalAction) ToDTO() *dto.ApprovalAction {
	if a == nil {
		return nil
	}
	return &dto.ApprovalAction{
		ID:             a.ID.String(),
		StepId:         a.StepId.String(),
		ActionByUserId: a.ActionByUserId.String(),
		ActionType:     a.ActionType,
		Comments:       a.Comments,
		ActionAt:       a.ActionAt,
	}
}
