package business

import (
	"errors"
	"time"

	"github.com/aisa-it/formflow/internal/formflow/apierrors"
	"github.com/aisa-it/formflow/internal/formflow/dao"
	filestorage "github.com/aisa-it/formflow/internal/formflow/file-storage"
	"github.com/aisa-it/formflow/internal/formflow/logic"
	"github.com/aisa-it/formflow/internal/formflow/notifications"
	"github.com/aisa-it/formflow/internal/formflow/types"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// SubmissionInput - сырой ответ на форму: значения по имени поля и вложения файловых полей.
type SubmissionInput struct {
	Values map[string]string
	Files  map[string]FileMeta

	// CreatedById пуст для анонимного ответа.
	CreatedById uuid.NullUUID
}

// SubmitForm принимает ответ на форму: проверяет доступность формы, применяет условную логику, валидирует значения, сохраняет ответ с вложениями и при наличии маршрута запускает процесс согласования. Выполняется в одной транзакции, при любой ошибке ничего не сохраняется.
//
// Возвращает сохраненный ответ с заполненным трекинг-номером.
func (b *Business) SubmitForm(form *dao.Form, input SubmissionInput) (*dao.Submission, error) {
	now := time.Now()

	if !form.IsPublished || !form.IsActive || !form.AcceptsAt(now) {
		return nil, apierrors.ErrFormClosed
	}
	if form.AuthRequire && !input.CreatedById.Valid {
		return nil, apierrors.ErrSubmissionForbidden
	}

	states := b.resolveFieldStates(form, input.Values)

	submission := &dao.Submission{
		ID:             dao.GenUUID(),
		CreatedById:    input.CreatedById,
		WorkspaceId:    form.WorkspaceId,
		FormId:         form.ID,
		FormDate:       form.UpdatedAt,
		Status:         types.SubmissionSubmitted,
		TrackingNumber: dao.GenTrackingNumber(),
	}

	var attachments []pendingAttachment

	for _, field := range form.SortedFields() {
		if !field.FieldType.IsInput() {
			continue
		}
		state := states[field.ID]

		// невидимые и отключенные поля не принимают значений и не обязательны
		if !state.Visible || !state.Enabled {
			continue
		}

		if field.FieldType == types.FieldFileUpload {
			file, ok := input.Files[field.Name]
			if !ok || len(file.Data) == 0 {
				if state.Required {
					return nil, apierrors.ForField(apierrors.ErrValueRequired, field.Name)
				}
				continue
			}
			if err := ValidateFileValue(&field, file); err != nil {
				return nil, err
			}
			attachments = append(attachments, pendingAttachment{field: field, file: file})
			continue
		}

		value := effectiveValue(input.Values[field.Name], state)
		if err := ValidateFieldValue(&field, value, state.Required); err != nil {
			return nil, err
		}
		if value == "" {
			continue
		}
		submission.SetValue(field.ID, field.Name, value, types.ValueTypeOf(field.FieldType))
	}

	var events []notifications.Event

	err := b.db.Transaction(func(tx *gorm.DB) error {
		var lastSeq int
		if err := tx.Model(&dao.Submission{}).
			Where("form_id = ?", form.ID).
			Select("coalesce(max(seq_id), 0)").
			Scan(&lastSeq).Error; err != nil {
			return err
		}
		submission.SeqId = lastSeq + 1

		if err := tx.Omit("Values", "Attachments", "Form").Create(submission).Error; err != nil {
			return err
		}
		for i := range submission.Values {
			if err := tx.Create(&submission.Values[i]).Error; err != nil {
				return err
			}
		}

		for _, pending := range attachments {
			if err := b.saveAttachment(tx, submission, pending); err != nil {
				return err
			}
		}

		accepted := notifications.NewEvent(notifications.EventSubmissionAccepted)
		accepted.FormId = form.ID
		accepted.SubmissionId = submission.ID
		accepted.ActorId = input.CreatedById
		events = append(events, accepted)

		if form.WorkflowId.Valid && form.Workflow != nil {
			submission.Status = types.SubmissionPendingApproval
			if err := tx.Model(submission).Update("status", submission.Status).Error; err != nil {
				return err
			}
			processEvents, err := b.startProcessTx(tx, form.Workflow, submission)
			if err != nil {
				return err
			}
			events = append(events, processEvents...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.publish(events)
	return submission, nil
}

type pendingAttachment struct {
	field dao.FormField
	file  FileMeta
}

func (b *Business) saveAttachment(tx *gorm.DB, submission *dao.Submission, pending pendingAttachment) error {
	asset := dao.FileAsset{
		Id:          dao.GenUUID(),
		Name:        pending.file.Name,
		ContentType: pending.file.ContentType,
		Size:        pending.file.Size,
		ContentHash: filestorage.ContentHash(pending.file.Data),
		WorkspaceId: submission.WorkspaceId,
	}
	if err := b.storage.Save(pending.file.Data, asset.Id, asset.ContentType, &filestorage.Metadata{
		WorkspaceId:  submission.WorkspaceId.String(),
		FormId:       submission.FormId.String(),
		SubmissionId: submission.ID.String(),
		FieldId:      pending.field.ID.String(),
	}); err != nil {
		return err
	}
	if err := tx.Create(&asset).Error; err != nil {
		return err
	}
	attachment := dao.SubmissionAttachment{
		Id:           dao.GenUUID(),
		SubmissionId: submission.ID,
		FieldId:      pending.field.ID,
		AssetId:      asset.Id,
		WorkspaceId:  submission.WorkspaceId,
	}
	if err := tx.Create(&attachment).Error; err != nil {
		return err
	}
	submission.Attachments = append(submission.Attachments, attachment)
	submission.SetValue(pending.field.ID, pending.field.Name, asset.Id.String(), types.ValueString)
	value := submission.ValueOf(pending.field.ID)
	return tx.Create(value).Error
}

// resolveFieldStates вычисляет эффективное состояние каждого поля за один проход по полям в порядке sort_order. Правила одной цели применяются в порядке добавления: последнее сработавшее побеждает.
//
// Правила читают не сырые присланные значения, а срез уже разрешенных: если предыдущее поле скрыто, очищено или получило значение через SetValue, последующие правила видят именно результат.
func (b *Business) resolveFieldStates(form *dao.Form, values map[string]string) map[uuid.UUID]logic.FieldState {
	states := make(map[uuid.UUID]logic.FieldState, len(form.Fields))

	resolved := make(map[string]string, len(values))
	for name, v := range values {
		resolved[name] = v
	}

	for _, field := range form.SortedFields() {
		state := logic.NewFieldState(field.Settings.Visible, field.Required)
		for _, rule := range form.RulesForTarget(field.ID) {
			trigger := form.FieldByID(rule.TriggerFieldId)
			if trigger == nil {
				continue
			}
			if logic.Fires(rule.Operator, rule.TriggerValue, resolved[trigger.Name]) {
				state.Apply(rule.Action, rule.TriggerValue)
			}
		}
		states[field.ID] = state

		if !state.Visible || !state.Enabled {
			resolved[field.Name] = ""
		} else {
			resolved[field.Name] = effectiveValue(resolved[field.Name], state)
		}
	}
	return states
}

// effectiveValue учитывает действия SetValue и ClearValue поверх присланного значения.
func effectiveValue(raw string, state logic.FieldState) string {
	if state.ClearValue {
		return ""
	}
	if state.SetValue != nil {
		return *state.SetValue
	}
	return raw
}

// GetSubmission возвращает ответ по идентификатору со значениями и вложениями.
func (b *Business) GetSubmission(id uuid.UUID) (*dao.Submission, error) {
	var submission dao.Submission
	if err := b.db.
		Preload("Values").
		Preload("Attachments").
		Preload("Attachments.Asset").
		Preload("Form").
		Where("id = ?", id).
		First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.ErrSubmissionNotFound
		}
		return nil, err
	}
	return &submission, nil
}

// GetSubmissionByTracking возвращает ответ по трекинг-номеру.
func (b *Business) GetSubmissionByTracking(trackingNumber string) (*dao.Submission, error) {
	var submission dao.Submission
	if err := b.db.
		Preload("Values").
		Preload("Form").
		Where("tracking_number = ?", trackingNumber).
		First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.ErrSubmissionNotFound
		}
		return nil, err
	}
	return &submission, nil
}
