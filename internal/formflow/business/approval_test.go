package business

import (
	"testing"
	"time"

	"github.com/aisa-it/formflow/internal/formflow/apierrors"
	"github.com/aisa-it/formflow/internal/formflow/dao"
	"github.com/aisa-it/formflow/internal/formflow/types"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB создает тестовую БД SQLite в памяти со всеми таблицами приложения
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&dao.FileAsset{},
		&dao.Form{},
		&dao.FormField{},
		&dao.FormFieldOption{},
		&dao.ConditionalLogicRule{},
		&dao.Submission{},
		&dao.SubmissionValue{},
		&dao.SubmissionAttachment{},
		&dao.ApprovalWorkflow{},
		&dao.ApprovalStep{},
		&dao.ApprovalProcess{},
		&dao.ApprovalAction{},
	))
	return db
}

func seedWorkflow(t *testing.T, db *gorm.DB, stepNames ...string) *dao.ApprovalWorkflow {
	w := &dao.ApprovalWorkflow{
		ID:           dao.GenUUID(),
		Name:         "Согласование",
		WorkflowType: types.WorkflowSequential,
		IsActive:     true,
	}
	for _, name := range stepNames {
		w.AddStep(&dao.ApprovalStep{StepName: name, StepType: types.StepUserApproval})
	}
	require.NoError(t, db.Create(w).Error)
	return w
}

func seedSubmission(t *testing.T, db *gorm.DB, status types.SubmissionStatus) *dao.Submission {
	s := &dao.Submission{
		ID:             dao.GenUUID(),
		SeqId:          1,
		FormId:         dao.GenUUID(),
		Status:         status,
		TrackingNumber: dao.GenTrackingNumber(),
	}
	require.NoError(t, db.Omit("Values", "Attachments", "Form").Create(s).Error)
	return s
}

func submissionStatus(t *testing.T, db *gorm.DB, id interface{}) types.SubmissionStatus {
	var s dao.Submission
	require.NoError(t, db.Where("id = ?", id).First(&s).Error)
	return s.Status
}

func processStatus(t *testing.T, db *gorm.DB, id interface{}) types.ApprovalStatus {
	var p dao.ApprovalProcess
	require.NoError(t, db.Where("id = ?", id).First(&p).Error)
	return p.Status
}

func TestStartProcess(t *testing.T) {
	db := setupTestDB(t)
	bl := NewBL(db, nil, nil)

	w := seedWorkflow(t, db, "Руководитель", "Директор")
	sub := seedSubmission(t, db, types.SubmissionPendingApproval)

	process, err := bl.StartProcess(w, sub)
	require.NoError(t, err)
	assert.Equal(t, types.ApprovalInProgress, process.Status)
	require.True(t, process.CurrentStepId.Valid)
	assert.Equal(t, w.FirstStep().ID, process.CurrentStepId.UUID)

	t.Run("repeated start returns existing process", func(t *testing.T) {
		again, err := bl.StartProcess(w, sub)
		require.NoError(t, err)
		assert.Equal(t, process.ID, again.ID)

		var count int64
		db.Model(&dao.ApprovalProcess{}).Where("submission_id = ?", sub.ID).Count(&count)
		assert.EqualValues(t, 1, count)
	})

	t.Run("inactive workflow rejected", func(t *testing.T) {
		inactive := seedWorkflow(t, db, "Шаг")
		inactive.IsActive = false
		_, err := bl.StartProcess(inactive, seedSubmission(t, db, types.SubmissionPendingApproval))
		assert.ErrorIs(t, err, apierrors.ErrWorkflowInactive)
	})

	t.Run("workflow without steps rejected", func(t *testing.T) {
		empty := &dao.ApprovalWorkflow{ID: dao.GenUUID(), Name: "Пустой", IsActive: true}
		require.NoError(t, db.Create(empty).Error)
		_, err := bl.StartProcess(empty, seedSubmission(t, db, types.SubmissionPendingApproval))
		assert.ErrorIs(t, err, apierrors.ErrWorkflowNoSteps)
	})
}

func TestRecordActionApprove(t *testing.T) {
	db := setupTestDB(t)
	bl := NewBL(db, nil, nil)

	w := seedWorkflow(t, db, "Руководитель", "Директор")
	sub := seedSubmission(t, db, types.SubmissionPendingApproval)
	process, err := bl.StartProcess(w, sub)
	require.NoError(t, err)

	approver := dao.GenUUID()

	process, err = bl.RecordAction(process.ID, ActionInput{Type: types.ActionApprove, ActorId: approver})
	require.NoError(t, err)
	assert.Equal(t, types.ApprovalInProgress, process.Status)
	require.True(t, process.CurrentStepId.Valid)
	assert.Equal(t, w.SortedSteps()[1].ID, process.CurrentStepId.UUID)

	process, err = bl.RecordAction(process.ID, ActionInput{Type: types.ActionApprove, ActorId: approver})
	require.NoError(t, err)
	assert.Equal(t, types.ApprovalApproved, process.Status)
	assert.False(t, process.CurrentStepId.Valid)
	require.NotNil(t, process.CompletedAt)
	assert.Equal(t, types.SubmissionApproved, submissionStatus(t, db, sub.ID))

	t.Run("history keeps both approvals", func(t *testing.T) {
		var count int64
		db.Model(&dao.ApprovalAction{}).Where("process_id = ?", process.ID).Count(&count)
		assert.EqualValues(t, 2, count)
	})

	t.Run("terminal process rejects actions", func(t *testing.T) {
		_, err := bl.RecordAction(process.ID, ActionInput{Type: types.ActionApprove, ActorId: approver})
		assert.ErrorIs(t, err, apierrors.ErrProcessNotInProgress)
	})
}

func TestRecordActionReject(t *testing.T) {
	db := setupTestDB(t)
	bl := NewBL(db, nil, nil)

	w := seedWorkflow(t, db, "Руководитель")
	sub := seedSubmission(t, db, types.SubmissionPendingApproval)
	process, err := bl.StartProcess(w, sub)
	require.NoError(t, err)

	t.Run("reject requires comments", func(t *testing.T) {
		_, err := bl.RecordAction(process.ID, ActionInput{Type: types.ActionReject, ActorId: dao.GenUUID()})
		assert.ErrorIs(t, err, apierrors.ErrRejectCommentEmpty)

		current, err := bl.GetProcess(process.ID)
		require.NoError(t, err)
		assert.Equal(t, types.ApprovalInProgress, current.Status)
	})

	t.Run("whitespace comments rejected too", func(t *testing.T) {
		_, err := bl.RecordAction(process.ID, ActionInput{
			Type:     types.ActionReject,
			ActorId:  dao.GenUUID(),
			Comments: "   \t\n",
		})
		assert.ErrorIs(t, err, apierrors.ErrRejectCommentEmpty)

		var actions int64
		db.Model(&dao.ApprovalAction{}).Where("process_id = ?", process.ID).Count(&actions)
		assert.Zero(t, actions)
		assert.Equal(t, types.ApprovalInProgress, processStatus(t, db, process.ID))
	})

	process, err = bl.RecordAction(process.ID, ActionInput{
		Type:     types.ActionReject,
		ActorId:  dao.GenUUID(),
		Comments: "не хватает обоснования",
	})
	require.NoError(t, err)
	assert.Equal(t, types.ApprovalRejected, process.Status)
	assert.Equal(t, "не хватает обоснования", process.Comments)
	require.NotNil(t, process.CompletedAt)
	assert.Equal(t, types.SubmissionRejected, submissionStatus(t, db, sub.ID))
}

func TestRecordActionHistoryOnly(t *testing.T) {
	db := setupTestDB(t)
	bl := NewBL(db, nil, nil)

	w := seedWorkflow(t, db, "Руководитель")
	process, err := bl.StartProcess(w, seedSubmission(t, db, types.SubmissionPendingApproval))
	require.NoError(t, err)
	stepId := process.CurrentStepId

	process, err = bl.RecordAction(process.ID, ActionInput{
		Type:     types.ActionComment,
		ActorId:  dao.GenUUID(),
		Comments: "посмотрю завтра",
	})
	require.NoError(t, err)
	assert.Equal(t, types.ApprovalInProgress, process.Status)
	assert.Equal(t, stepId, process.CurrentStepId)

	history, err := bl.GetProcess(process.ID)
	require.NoError(t, err)
	require.Len(t, history.Actions, 1)
	assert.Equal(t, types.ActionComment, history.Actions[0].ActionType)

	t.Run("unknown action type rejected", func(t *testing.T) {
		_, err := bl.RecordAction(process.ID, ActionInput{Type: types.ApprovalActionType(99), ActorId: dao.GenUUID()})
		assert.ErrorIs(t, err, apierrors.ErrActionUnknownType)
	})
}

func TestCancelProcess(t *testing.T) {
	db := setupTestDB(t)
	bl := NewBL(db, nil, nil)

	w := seedWorkflow(t, db, "Руководитель")
	sub := seedSubmission(t, db, types.SubmissionPendingApproval)
	process, err := bl.StartProcess(w, sub)
	require.NoError(t, err)

	actor := dao.GenUUID()
	process, err = bl.CancelProcess(process.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, types.ApprovalCancelled, process.Status)
	assert.Equal(t, types.SubmissionCancelled, submissionStatus(t, db, sub.ID))

	t.Run("cancel of terminal process is no-op", func(t *testing.T) {
		again, err := bl.CancelProcess(process.ID, actor)
		require.NoError(t, err)
		assert.Equal(t, types.ApprovalCancelled, again.Status)
	})
}

func TestExpireOverdue(t *testing.T) {
	db := setupTestDB(t)
	bl := NewBL(db, nil, nil)

	w := &dao.ApprovalWorkflow{
		ID:       dao.GenUUID(),
		Name:     "Срочное согласование",
		IsActive: true,
	}
	w.AddStep(&dao.ApprovalStep{StepName: "Руководитель", TimeoutHours: 1})
	require.NoError(t, db.Create(w).Error)

	sub := seedSubmission(t, db, types.SubmissionPendingApproval)
	process, err := bl.StartProcess(w, sub)
	require.NoError(t, err)

	t.Run("fresh process untouched", func(t *testing.T) {
		expired, err := bl.ExpireOverdue(time.Now())
		require.NoError(t, err)
		assert.Zero(t, expired)
	})

	require.NoError(t, db.Model(&dao.ApprovalProcess{}).
		Where("id = ?", process.ID).
		Update("started_at", time.Now().Add(-2*time.Hour)).Error)

	expired, err := bl.ExpireOverdue(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	current, err := bl.GetProcess(process.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ApprovalExpired, current.Status)
	assert.False(t, current.CurrentStepId.Valid)
	require.NotNil(t, current.CompletedAt)

	// ответ остается на ручном разборе
	assert.Equal(t, types.SubmissionPendingApproval, submissionStatus(t, db, sub.ID))

	t.Run("expired process not picked up twice", func(t *testing.T) {
		expired, err := bl.ExpireOverdue(time.Now())
		require.NoError(t, err)
		assert.Zero(t, expired)
	})
}

func TestRemoveWorkflowStep(t *testing.T) {
	db := setupTestDB(t)
	bl := NewBL(db, nil, nil)

	w := seedWorkflow(t, db, "Руководитель", "Бухгалтерия", "Директор")
	process, err := bl.StartProcess(w, seedSubmission(t, db, types.SubmissionPendingApproval))
	require.NoError(t, err)

	t.Run("step with in-flight process protected", func(t *testing.T) {
		assert.ErrorIs(t, bl.RemoveWorkflowStep(w, process.CurrentStepId.UUID), apierrors.ErrStepInUse)
	})

	t.Run("idle step removed and orders resequenced", func(t *testing.T) {
		middle := w.SortedSteps()[1]
		require.NoError(t, bl.RemoveWorkflowStep(w, middle.ID))

		var steps []dao.ApprovalStep
		require.NoError(t, db.Where("workflow_id = ?", w.ID).Order("step_order").Find(&steps).Error)
		require.Len(t, steps, 2)
		assert.Equal(t, "Руководитель", steps[0].StepName)
		assert.Equal(t, 1, steps[0].StepOrder)
		assert.Equal(t, "Директор", steps[1].StepName)
		assert.Equal(t, 2, steps[1].StepOrder)
	})

	t.Run("unknown step rejected", func(t *testing.T) {
		assert.ErrorIs(t, bl.RemoveWorkflowStep(w, dao.GenUUID()), apierrors.ErrStepNotFound)
	})
}
