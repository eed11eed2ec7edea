package business

import (
	"testing"
	"time"

	"github.com/aisa-it/formflow/internal/formflow/apierrors"
	"github.com/aisa-it/formflow/internal/formflow/dao"
	"github.com/aisa-it/formflow/internal/formflow/types"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedForm(t *testing.T, db *gorm.DB, fields ...*dao.FormField) *dao.Form {
	form := &dao.Form{
		ID:          dao.GenUUID(),
		Slug:        "test-form-" + dao.GenUUID().String()[:8],
		Title:       "Заявка на отпуск",
		IsActive:    true,
		IsPublished: true,
	}
	for _, f := range fields {
		require.NoError(t, form.AddField(f))
	}
	require.NoError(t, db.Create(form).Error)
	return form
}

func TestSubmitForm(t *testing.T) {
	db := setupTestDB(t)
	bl := NewBL(db, nil, nil)

	form := seedForm(t, db,
		&dao.FormField{Name: "full_name", FieldType: types.FieldText, Required: true},
		&dao.FormField{Name: "days", FieldType: types.FieldNumber},
	)

	submission, err := bl.SubmitForm(form, SubmissionInput{Values: map[string]string{
		"full_name": "Иванов Иван",
		"days":      "14",
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, submission.SeqId)
	assert.Equal(t, types.SubmissionSubmitted, submission.Status)
	assert.Regexp(t, `^F\d+$`, submission.TrackingNumber)

	var values []dao.SubmissionValue
	require.NoError(t, db.Where("submission_id = ?", submission.ID).Find(&values).Error)
	assert.Len(t, values, 2)

	t.Run("sequence grows per form", func(t *testing.T) {
		second, err := bl.SubmitForm(form, SubmissionInput{Values: map[string]string{"full_name": "Петров"}})
		require.NoError(t, err)
		assert.Equal(t, 2, second.SeqId)
	})

	t.Run("lookup by tracking number", func(t *testing.T) {
		found, err := bl.GetSubmissionByTracking(submission.TrackingNumber)
		require.NoError(t, err)
		assert.Equal(t, submission.ID, found.ID)

		_, err = bl.GetSubmissionByTracking("F00000000000000")
		assert.ErrorIs(t, err, apierrors.ErrSubmissionNotFound)
	})
}

func TestSubmitFormGates(t *testing.T) {
	db := setupTestDB(t)
	bl := NewBL(db, nil, nil)

	t.Run("unpublished form closed", func(t *testing.T) {
		form := seedForm(t, db, &dao.FormField{Name: "comment", FieldType: types.FieldText})
		form.IsPublished = false
		_, err := bl.SubmitForm(form, SubmissionInput{})
		assert.ErrorIs(t, err, apierrors.ErrFormClosed)
	})

	t.Run("disabled form closed", func(t *testing.T) {
		form := seedForm(t, db, &dao.FormField{Name: "comment", FieldType: types.FieldText})
		form.IsActive = false
		_, err := bl.SubmitForm(form, SubmissionInput{})
		assert.ErrorIs(t, err, apierrors.ErrFormClosed)
	})

	t.Run("past end date closes form", func(t *testing.T) {
		form := seedForm(t, db, &dao.FormField{Name: "comment", FieldType: types.FieldText})
		form.SubmissionEndDate = &types.TargetDate{Time: time.Now().AddDate(0, 0, -2)}
		_, err := bl.SubmitForm(form, SubmissionInput{})
		assert.ErrorIs(t, err, apierrors.ErrFormClosed)
	})

	t.Run("auth required rejects anonymous", func(t *testing.T) {
		form := seedForm(t, db, &dao.FormField{Name: "comment", FieldType: types.FieldText})
		form.AuthRequire = true

		_, err := bl.SubmitForm(form, SubmissionInput{})
		assert.ErrorIs(t, err, apierrors.ErrSubmissionForbidden)

		actor := uuid.NullUUID{UUID: dao.GenUUID(), Valid: true}
		submission, err := bl.SubmitForm(form, SubmissionInput{CreatedById: actor})
		require.NoError(t, err)
		assert.Equal(t, actor, submission.CreatedById)
	})

	t.Run("required field without explicit settings still validated", func(t *testing.T) {
		form := seedForm(t, db, &dao.FormField{Name: "email", FieldType: types.FieldEmail, Required: true})

		_, err := bl.SubmitForm(form, SubmissionInput{Values: map[string]string{}})
		var fieldErr apierrors.FieldError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, "email", fieldErr.FieldName)

		var count int64
		db.Model(&dao.Submission{}).Where("form_id = ?", form.ID).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("invalid value rejects whole submission", func(t *testing.T) {
		form := seedForm(t, db, &dao.FormField{
			Name:      "age",
			FieldType: types.FieldNumber,
			Validation: types.ValidationRuleSet{
				MinValue: ptrFloat(18),
				MaxValue: ptrFloat(120),
			},
		})

		_, err := bl.SubmitForm(form, SubmissionInput{Values: map[string]string{"age": "17"}})
		var fieldErr apierrors.FieldError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, "age", fieldErr.FieldName)

		var count int64
		db.Model(&dao.Submission{}).Where("form_id = ?", form.ID).Count(&count)
		assert.Zero(t, count)
	})
}

func ptrFloat(v float64) *float64 { return &v }

func TestSubmitFormConditionalLogic(t *testing.T) {
	db := setupTestDB(t)
	bl := NewBL(db, nil, nil)

	t.Run("hidden target skips required check", func(t *testing.T) {
		form := seedForm(t, db,
			&dao.FormField{Name: "reason", FieldType: types.FieldDropdown},
			&dao.FormField{Name: "details", FieldType: types.FieldText, Required: true},
		)
		trigger := form.FieldByName("reason")
		target := form.FieldByName("details")
		require.NoError(t, form.AddRule(&dao.ConditionalLogicRule{
			TriggerFieldId: trigger.ID,
			TargetFieldId:  target.ID,
			Operator:       types.OpEquals,
			TriggerValue:   "other",
			Action:         types.ActionHide,
		}))

		// правило сработало: обязательное поле скрыто и не требуется
		submission, err := bl.SubmitForm(form, SubmissionInput{Values: map[string]string{"reason": "other"}})
		require.NoError(t, err)
		assert.Nil(t, submission.ValueOf(target.ID))

		// правило не сработало: обязательное поле видимо и пустое
		_, err = bl.SubmitForm(form, SubmissionInput{Values: map[string]string{"reason": "vacation"}})
		var fieldErr apierrors.FieldError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, "details", fieldErr.FieldName)
	})

	t.Run("set value overrides client input", func(t *testing.T) {
		form := seedForm(t, db,
			&dao.FormField{Name: "tier", FieldType: types.FieldText},
			&dao.FormField{Name: "priority", FieldType: types.FieldText},
		)
		require.NoError(t, form.AddRule(&dao.ConditionalLogicRule{
			TriggerFieldId: form.FieldByName("tier").ID,
			TargetFieldId:  form.FieldByName("priority").ID,
			Operator:       types.OpEquals,
			TriggerValue:   "vip",
			Action:         types.ActionSetValue,
		}))

		submission, err := bl.SubmitForm(form, SubmissionInput{Values: map[string]string{
			"tier":     "vip",
			"priority": "low",
		}})
		require.NoError(t, err)
		value := submission.ValueOf(form.FieldByName("priority").ID)
		require.NotNil(t, value)
		assert.Equal(t, "vip", value.Value)
	})

	t.Run("clear value drops client input", func(t *testing.T) {
		form := seedForm(t, db,
			&dao.FormField{Name: "kind", FieldType: types.FieldText},
			&dao.FormField{Name: "discount", FieldType: types.FieldText},
		)
		require.NoError(t, form.AddRule(&dao.ConditionalLogicRule{
			TriggerFieldId: form.FieldByName("kind").ID,
			TargetFieldId:  form.FieldByName("discount").ID,
			Operator:       types.OpEquals,
			TriggerValue:   "internal",
			Action:         types.ActionClearValue,
		}))

		submission, err := bl.SubmitForm(form, SubmissionInput{Values: map[string]string{
			"kind":     "internal",
			"discount": "50",
		}})
		require.NoError(t, err)
		assert.Nil(t, submission.ValueOf(form.FieldByName("discount").ID))
	})

	t.Run("later rules see assigned value of earlier field", func(t *testing.T) {
		form := seedForm(t, db,
			&dao.FormField{Name: "category", FieldType: types.FieldText},
			&dao.FormField{Name: "route", FieldType: types.FieldText},
			&dao.FormField{Name: "approver", FieldType: types.FieldText},
		)
		// category=urgent назначает route=urgent
		require.NoError(t, form.AddRule(&dao.ConditionalLogicRule{
			TriggerFieldId: form.FieldByName("category").ID,
			TargetFieldId:  form.FieldByName("route").ID,
			Operator:       types.OpEquals,
			TriggerValue:   "urgent",
			Action:         types.ActionSetValue,
		}))
		// route=urgent делает approver обязательным
		require.NoError(t, form.AddRule(&dao.ConditionalLogicRule{
			TriggerFieldId: form.FieldByName("route").ID,
			TargetFieldId:  form.FieldByName("approver").ID,
			Operator:       types.OpEquals,
			TriggerValue:   "urgent",
			Action:         types.ActionRequire,
		}))

		// второе правило должно видеть назначенное значение route, а не присланное пустое
		_, err := bl.SubmitForm(form, SubmissionInput{Values: map[string]string{
			"category": "urgent",
			"route":    "",
		}})
		var fieldErr apierrors.FieldError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, "approver", fieldErr.FieldName)

		submission, err := bl.SubmitForm(form, SubmissionInput{Values: map[string]string{
			"category": "urgent",
			"approver": "Сидорова",
		}})
		require.NoError(t, err)
		route := submission.ValueOf(form.FieldByName("route").ID)
		require.NotNil(t, route)
		assert.Equal(t, "urgent", route.Value)
	})

	t.Run("cleared field does not trigger later rules", func(t *testing.T) {
		form := seedForm(t, db,
			&dao.FormField{Name: "kind", FieldType: types.FieldText},
			&dao.FormField{Name: "discount", FieldType: types.FieldText},
			&dao.FormField{Name: "audit_note", FieldType: types.FieldText},
		)
		require.NoError(t, form.AddRule(&dao.ConditionalLogicRule{
			TriggerFieldId: form.FieldByName("kind").ID,
			TargetFieldId:  form.FieldByName("discount").ID,
			Operator:       types.OpEquals,
			TriggerValue:   "internal",
			Action:         types.ActionClearValue,
		}))
		require.NoError(t, form.AddRule(&dao.ConditionalLogicRule{
			TriggerFieldId: form.FieldByName("discount").ID,
			TargetFieldId:  form.FieldByName("audit_note").ID,
			Operator:       types.OpIsNotEmpty,
			Action:         types.ActionRequire,
		}))

		// скидка очищена первым правилом, второе не видит устаревшее "50"
		submission, err := bl.SubmitForm(form, SubmissionInput{Values: map[string]string{
			"kind":     "internal",
			"discount": "50",
		}})
		require.NoError(t, err)
		assert.Nil(t, submission.ValueOf(form.FieldByName("audit_note").ID))

		// без очистки скидка видна и примечание обязательно
		_, err = bl.SubmitForm(form, SubmissionInput{Values: map[string]string{
			"kind":     "external",
			"discount": "50",
		}})
		var fieldErr apierrors.FieldError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, "audit_note", fieldErr.FieldName)
	})
}

func TestSubmitFormStartsWorkflow(t *testing.T) {
	db := setupTestDB(t)
	bl := NewBL(db, nil, nil)

	w := seedWorkflow(t, db, "Руководитель")
	form := seedForm(t, db, &dao.FormField{Name: "comment", FieldType: types.FieldText})
	form.WorkflowId = uuid.NullUUID{UUID: w.ID, Valid: true}
	form.Workflow = w

	submission, err := bl.SubmitForm(form, SubmissionInput{Values: map[string]string{"comment": "прошу согласовать"}})
	require.NoError(t, err)
	assert.Equal(t, types.SubmissionPendingApproval, submission.Status)

	process, err := bl.GetProcessBySubmission(submission.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ApprovalInProgress, process.Status)
	assert.Equal(t, w.FirstStep().ID, process.CurrentStepId.UUID)
}
