package business

import (
	"errors"
	"strings"
	"time"

	"github.com/aisa-it/formflow/internal/formflow/apierrors"
	"github.com/aisa-it/formflow/internal/formflow/dao"
	"github.com/aisa-it/formflow/internal/formflow/notifications"
	"github.com/aisa-it/formflow/internal/formflow/types"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// StartProcess запускает процесс согласования ответа по маршруту. Повторный вызов для того же ответа возвращает существующий процесс без изменений.
func (b *Business) StartProcess(workflow *dao.ApprovalWorkflow, submission *dao.Submission) (*dao.ApprovalProcess, error) {
	var process *dao.ApprovalProcess
	var events []notifications.Event

	err := b.db.Transaction(func(tx *gorm.DB) error {
		var existing dao.ApprovalProcess
		err := tx.Where("submission_id = ?", submission.ID).First(&existing).Error
		if err == nil {
			process = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		events, err = b.startProcessTx(tx, workflow, submission)
		if err != nil {
			return err
		}
		return tx.Where("submission_id = ?", submission.ID).First(&process).Error
	})
	if err != nil {
		return nil, err
	}

	b.publish(events)
	return process, nil
}

// startProcessTx создает процесс в состоянии in_progress на первом шаге маршрута. Вызывается внутри транзакции приема ответа.
func (b *Business) startProcessTx(tx *gorm.DB, workflow *dao.ApprovalWorkflow, submission *dao.Submission) ([]notifications.Event, error) {
	if !workflow.IsActive {
		return nil, apierrors.ErrWorkflowInactive
	}
	first := workflow.FirstStep()
	if first == nil {
		return nil, apierrors.ErrWorkflowNoSteps
	}

	now := time.Now()
	process := dao.ApprovalProcess{
		ID:            dao.GenUUID(),
		SubmissionId:  submission.ID,
		WorkflowId:    workflow.ID,
		CurrentStepId: uuid.NullUUID{UUID: first.ID, Valid: true},
		Status:        types.ApprovalInProgress,
		StartedAt:     now,
	}
	if err := tx.Omit("Actions").Create(&process).Error; err != nil {
		return nil, err
	}

	started := notifications.NewEvent(notifications.EventProcessStarted)
	started.FormId = submission.FormId
	started.SubmissionId = submission.ID
	started.ProcessId = uuid.NullUUID{UUID: process.ID, Valid: true}
	started.StepId = process.CurrentStepId
	return []notifications.Event{started}, nil
}

// ActionInput - одно действие согласующего над процессом.
type ActionInput struct {
	Type     types.ApprovalActionType
	ActorId  uuid.UUID
	Comments string
}

// RecordAction фиксирует действие согласующего и выполняет переход процесса: approve продвигает процесс на следующий шаг или завершает его, reject завершает процесс с обязательным комментарием, остальные действия попадают только в историю. Действия допустимы только над процессом в состоянии in_progress.
//
// Сохранение процесса выполняется с проверкой версии: при конкурентном изменении возвращается ErrConcurrentUpdate и вызывающая сторона повторяет операцию.
func (b *Business) RecordAction(processId uuid.UUID, input ActionInput) (*dao.ApprovalProcess, error) {
	if !input.Type.Valid() {
		return nil, apierrors.ErrActionUnknownType
	}

	var process *dao.ApprovalProcess
	var events []notifications.Event

	err := b.db.Transaction(func(tx *gorm.DB) error {
		var err error
		process, err = loadProcess(tx, processId)
		if err != nil {
			return err
		}
		if process.Status != types.ApprovalInProgress {
			return apierrors.ErrProcessNotInProgress
		}
		if input.Type == types.ActionReject && strings.TrimSpace(input.Comments) == "" {
			return apierrors.ErrRejectCommentEmpty
		}

		var workflow dao.ApprovalWorkflow
		if err := tx.Preload("Steps").Where("id = ?", process.WorkflowId).First(&workflow).Error; err != nil {
			return err
		}

		action := dao.ApprovalAction{
			ID:             dao.GenUUID(),
			ProcessId:      process.ID,
			StepId:         process.CurrentStepId.UUID,
			ActionByUserId: input.ActorId,
			ActionType:     input.Type,
			Comments:       input.Comments,
			ActionAt:       time.Now(),
		}
		if err := tx.Create(&action).Error; err != nil {
			return err
		}

		switch input.Type {
		case types.ActionApprove:
			events, err = b.advanceTx(tx, process, &workflow, input.ActorId)
		case types.ActionReject:
			events, err = b.rejectTx(tx, process, input.ActorId, input.Comments)
		default:
			// request_changes, delegate, skip, comment не меняют состояние процесса
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	b.publish(events)
	return process, nil
}

func (b *Business) advanceTx(tx *gorm.DB, process *dao.ApprovalProcess, workflow *dao.ApprovalWorkflow, actorId uuid.UUID) ([]notifications.Event, error) {
	current := workflow.StepByID(process.CurrentStepId.UUID)
	if current == nil {
		return nil, apierrors.ErrStepNotFound
	}

	actor := uuid.NullUUID{UUID: actorId, Valid: true}

	if next := workflow.NextStepAfter(current.StepOrder); next != nil {
		process.CurrentStepId = uuid.NullUUID{UUID: next.ID, Valid: true}
		if err := process.SaveVersioned(tx); err != nil {
			return nil, err
		}
		event := b.processEvent(notifications.EventStepAdvanced, process, actor)
		return []notifications.Event{event}, nil
	}

	now := time.Now()
	process.Status = types.ApprovalApproved
	process.CurrentStepId = uuid.NullUUID{}
	process.CompletedAt = &now
	if err := process.SaveVersioned(tx); err != nil {
		return nil, err
	}
	if err := syncSubmissionStatus(tx, process.SubmissionId, types.SubmissionApproved); err != nil {
		return nil, err
	}
	event := b.processEvent(notifications.EventProcessApproved, process, actor)
	return []notifications.Event{event}, nil
}

func (b *Business) rejectTx(tx *gorm.DB, process *dao.ApprovalProcess, actorId uuid.UUID, comments string) ([]notifications.Event, error) {
	now := time.Now()
	process.Status = types.ApprovalRejected
	process.CurrentStepId = uuid.NullUUID{}
	process.CompletedAt = &now
	process.Comments = comments
	if err := process.SaveVersioned(tx); err != nil {
		return nil, err
	}
	if err := syncSubmissionStatus(tx, process.SubmissionId, types.SubmissionRejected); err != nil {
		return nil, err
	}
	event := b.processEvent(notifications.EventProcessRejected, process, uuid.NullUUID{UUID: actorId, Valid: true})
	return []notifications.Event{event}, nil
}

// CancelProcess отменяет незавершенный процесс. Для процесса в конечном состоянии ничего не делает.
func (b *Business) CancelProcess(processId uuid.UUID, actorId uuid.UUID) (*dao.ApprovalProcess, error) {
	var process *dao.ApprovalProcess
	var events []notifications.Event

	err := b.db.Transaction(func(tx *gorm.DB) error {
		var err error
		process, err = loadProcess(tx, processId)
		if err != nil {
			return err
		}
		if process.Status.Terminal() {
			return nil
		}

		now := time.Now()
		process.Status = types.ApprovalCancelled
		process.CurrentStepId = uuid.NullUUID{}
		process.CompletedAt = &now
		if err := process.SaveVersioned(tx); err != nil {
			return err
		}
		if err := syncSubmissionStatus(tx, process.SubmissionId, types.SubmissionCancelled); err != nil {
			return err
		}
		events = append(events, b.processEvent(notifications.EventProcessCancelled, process, uuid.NullUUID{UUID: actorId, Valid: true}))
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.publish(events)
	return process, nil
}

// ExpireOverdue переводит в expired процессы, у которых текущий шаг просрочен на момент now. Движок не опрашивает время сам - метод вызывает внешний планировщик. Возвращает число просроченных процессов.
//
// Ответ при этом остается в статусе pending_approval: решение по просроченному ответу принимается вручную.
func (b *Business) ExpireOverdue(now time.Time) (int, error) {
	var expired int
	var events []notifications.Event

	err := b.db.Transaction(func(tx *gorm.DB) error {
		var processes []dao.ApprovalProcess
		if err := tx.Preload("Actions").
			Where("status = ?", types.ApprovalInProgress).
			Find(&processes).Error; err != nil {
			return err
		}

		for i := range processes {
			process := &processes[i]
			if !process.CurrentStepId.Valid {
				continue
			}
			var step dao.ApprovalStep
			if err := tx.Where("id = ?", process.CurrentStepId.UUID).First(&step).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return err
			}
			if !step.IsTimeoutAt(stepStartedAt(process), now) {
				continue
			}

			process.Status = types.ApprovalExpired
			process.CurrentStepId = uuid.NullUUID{}
			completedAt := now
			process.CompletedAt = &completedAt
			if err := process.SaveVersioned(tx); err != nil {
				if errors.Is(err, apierrors.ErrConcurrentUpdate) {
					continue
				}
				return err
			}
			expired++
			events = append(events, b.processEvent(notifications.EventProcessExpired, process, uuid.NullUUID{}))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	b.publish(events)
	return expired, nil
}

// stepStartedAt - момент входа процесса в текущий шаг: время последнего approve либо старт процесса.
func stepStartedAt(process *dao.ApprovalProcess) time.Time {
	startedAt := process.StartedAt
	for _, action := range process.Actions {
		if action.ActionType == types.ActionApprove && action.ActionAt.After(startedAt) {
			startedAt = action.ActionAt
		}
	}
	return startedAt
}

// RemoveWorkflowStep удаляет шаг маршрута и пересчитывает порядок оставшихся шагов. Шаг, на котором стоит незавершенный процесс, удалить нельзя.
func (b *Business) RemoveWorkflowStep(workflow *dao.ApprovalWorkflow, stepId uuid.UUID) error {
	return b.db.Transaction(func(tx *gorm.DB) error {
		var inFlight int64
		if err := tx.Model(&dao.ApprovalProcess{}).
			Where("current_step_id = ?", stepId).
			Where("status IN ?", []types.ApprovalStatus{types.ApprovalPending, types.ApprovalInProgress}).
			Count(&inFlight).Error; err != nil {
			return err
		}
		if inFlight > 0 {
			return apierrors.ErrStepInUse
		}

		if !workflow.RemoveStep(stepId) {
			return apierrors.ErrStepNotFound
		}
		if err := tx.Unscoped().Where("id = ?", stepId).Delete(&dao.ApprovalStep{}).Error; err != nil {
			return err
		}
		for i := range workflow.Steps {
			if err := tx.Model(&dao.ApprovalStep{}).
				Where("id = ?", workflow.Steps[i].ID).
				Update("step_order", workflow.Steps[i].StepOrder).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetProcess возвращает процесс с историей действий.
func (b *Business) GetProcess(processId uuid.UUID) (*dao.ApprovalProcess, error) {
	return loadProcess(b.db, processId)
}

// GetProcessBySubmission возвращает процесс согласования ответа.
func (b *Business) GetProcessBySubmission(submissionId uuid.UUID) (*dao.ApprovalProcess, error) {
	var process dao.ApprovalProcess
	if err := b.db.Preload("Actions").Where("submission_id = ?", submissionId).First(&process).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.ErrProcessNotFound
		}
		return nil, err
	}
	return &process, nil
}

func loadProcess(tx *gorm.DB, processId uuid.UUID) (*dao.ApprovalProcess, error) {
	var process dao.ApprovalProcess
	if err := tx.Preload("Actions").Where("id = ?", processId).First(&process).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.ErrProcessNotFound
		}
		return nil, err
	}
	return &process, nil
}

func (b *Business) processEvent(kind notifications.EventKind, process *dao.ApprovalProcess, actor uuid.NullUUID) notifications.Event {
	event := notifications.NewEvent(kind)
	event.SubmissionId = process.SubmissionId
	event.ProcessId = uuid.NullUUID{UUID: process.ID, Valid: true}
	event.StepId = process.CurrentStepId
	event.ActorId = actor
	return event
}

func syncSubmissionStatus(tx *gorm.DB, submissionId uuid.UUID, status types.SubmissionStatus) error {
	return tx.Model(&dao.Submission{}).Where("id = ?", submissionId).Update("status", status).Error
}
