// DAO для работы с ответами на формы.  Содержит агрегат ответа со значениями полей и вложениями, генерацию трекинг-номера и каскадные операции удаления.
package dao

import (
	"fmt"
	"time"

	"github.com/aisa-it/formflow/internal/formflow/dto"
	policy "github.com/aisa-it/formflow/internal/formflow/redactor-policy"
	"github.com/aisa-it/formflow/internal/formflow/types"
	"github.com/gofrs/uuid"
	"github.com/sethvargo/go-password/password"
	"gorm.io/gorm"
)

type Submission struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	SeqId     int       `json:"seq_id" gorm:"uniqueIndex:idx_submission_seq,priority:2"`
	CreatedAt time.Time `json:"created_at"`

	CreatedById uuid.NullUUID `json:"created_by_id" gorm:"index;type:uuid" extensions:"x-nullable"`

	WorkspaceId uuid.UUID `json:"workspace" gorm:"index;type:uuid"`

	FormId uuid.UUID `json:"form_id" gorm:"uniqueIndex:idx_submission_seq,priority:1;type:uuid"`
	Form   *Form     `json:"form,omitempty" gorm:"foreignKey:FormId" extensions:"x-nullable"`
	// FormDate - момент последнего изменения формы на момент ответа. Позволяет отличить ответы на разные редакции формы.
	FormDate time.Time `json:"form_date"`

	Status         types.SubmissionStatus `json:"status" gorm:"index"`
	TrackingNumber string                 `json:"tracking_number" gorm:"uniqueIndex"`

	Values      []SubmissionValue      `json:"values" gorm:"foreignKey:SubmissionId;references:ID"`
	Attachments []SubmissionAttachment `json:"attachments" gorm:"foreignKey:SubmissionId;references:ID"`
}

func (Submission) TableName() string { return "submissions" }

func (s Submission) GetId() string {
	return s.ID.String()
}

func (s Submission) GetString() string {
	return fmt.Sprintf("submission #%d", s.SeqId)
}

func (s Submission) GetWorkspaceId() uuid.UUID {
	return s.WorkspaceId
}

// GenTrackingNumber генерирует человекочитаемый трекинг-номер вида F<unix-секунды><4 случайные цифры>.
func GenTrackingNumber() string {
	suffix, err := password.Generate(4, 4, 0, false, true)
	if err != nil {
		suffix = "0000"
	}
	return fmt.Sprintf("F%d%s", time.Now().Unix(), suffix)
}

// SetValue записывает значение поля. Повторная запись по тому же полю перезаписывает значение на месте - на поле хранится не более одного значения.
func (s *Submission) SetValue(fieldId uuid.UUID, fieldName string, value string, valueType types.ValueType) {
	for i := range s.Values {
		if s.Values[i].FieldId == fieldId {
			s.Values[i].Value = value
			s.Values[i].ValueType = valueType
			return
		}
	}
	s.Values = append(s.Values, SubmissionValue{
		ID:           GenUUID(),
		SubmissionId: s.ID,
		FieldId:      fieldId,
		FieldName:    fieldName,
		Value:        value,
		ValueType:    valueType,
	})
}

// ValueOf возвращает значение поля или nil, если поле не заполнено.
func (s *Submission) ValueOf(fieldId uuid.UUID) *SubmissionValue {
	for i := range s.Values {
		if s.Values[i].FieldId == fieldId {
			return &s.Values[i]
		}
	}
	return nil
}

// BeforeDelete удаляет значения и вложения перед удалением ответа.
func (s *Submission) BeforeDelete(tx *gorm.DB) error {
	if err := tx.Unscoped().Where("submission_id = ?", s.ID).Delete(&SubmissionValue{}).Error; err != nil {
		return err
	}

	var attachments []SubmissionAttachment
	if err := tx.Where("submission_id = ?", s.ID).Find(&attachments).Error; err != nil {
		return err
	}
	for _, attachment := range attachments {
		if err := tx.Delete(&attachment).Error; err != nil {
			return err
		}
	}
	return nil
}

// ToDTO преобразует Submission в dto.Submission для удобной передачи данных в интерфейс.
func (s *Submission) ToDTO() *dto.Submission {
	if s == nil {
		return nil
	}
	res := &dto.Submission{
		ID:             s.ID.String(),
		SeqId:          s.SeqId,
		CreatedAt:      s.CreatedAt,
		Status:         s.Status,
		TrackingNumber: s.TrackingNumber,
		Form:           s.Form.ToLightDTO(),
	}
	if s.CreatedById.Valid {
		responderId := s.CreatedById.UUID.String()
		res.ResponderId = &responderId
	}
	for _, v := range s.Values {
		res.Values = append(res.Values, dto.SubmissionValue{
			FieldId:   v.FieldId.String(),
			FieldName: v.FieldName,
			Value:     v.Value,
			ValueType: v.ValueType,
		})
	}
	for _, a := range s.Attachments {
		res.Attachments = append(res.Attachments, *a.ToDTO())
	}
	return res
}

type SubmissionValue struct {
	ID uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`

	SubmissionId uuid.UUID `json:"submission_id" gorm:"type:uuid;uniqueIndex:idx_submission_field,priority:1"`
	FieldId      uuid.UUID `json:"field_id" gorm:"type:uuid;uniqueIndex:idx_submission_field,priority:2"`

	// FieldName - снимок имени поля на момент ответа.
	FieldName string          `json:"field_name"`
	Value     string          `json:"value"`
	ValueType types.ValueType `json:"value_type"`
}

func (SubmissionValue) TableName() string { return "submission_values" }

// BeforeSave - санитация текстовых значений для предотвращения XSS.
func (v *SubmissionValue) BeforeSave(tx *gorm.DB) error {
	if v.ValueType == types.ValueString {
		v.Value = policy.UgcPolicy.Sanitize(v.Value)
	}
	return nil
}

type SubmissionAttachment struct {
	Id        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time `json:"created_at"`

	SubmissionId uuid.UUID `json:"submission_id" gorm:"index;type:uuid"`
	FieldId      uuid.UUID `json:"field_id" gorm:"type:uuid"`

	AssetId uuid.UUID  `json:"asset" gorm:"type:uuid"`
	Asset   *FileAsset `json:"file_details" gorm:"foreignKey:AssetId" extensions:"x-nullable"`

	WorkspaceId uuid.UUID `json:"workspace" gorm:"type:uuid"`
}

func (SubmissionAttachment) TableName() string { return "submission_attachments" }

func (sa SubmissionAttachment) GetId() string {
	return sa.Id.String()
}

func (sa SubmissionAttachment) GetString() string {
	if sa.Asset != nil {
		return sa.Asset.Name
	}
	return "attachment"
}

// AfterDelete удаляет файл, если он больше не используется другими вложениями.
func (attachment *SubmissionAttachment) AfterDelete(tx *gorm.DB) error {
	if attachment.Asset == nil {
		if err := tx.Where("id = ?", attachment.AssetId).First(&attachment.Asset).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
	}

	// Check if this asset used in another attachment
	var count int64
	if err := tx.Model(&SubmissionAttachment{}).
		Where("asset_id = ?", attachment.AssetId).
		Where("id <> ?", attachment.Id).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return tx.Delete(attachment.Asset).Error
	}
	return nil
}

// ToDTO преобразует SubmissionAttachment в dto.Attachment.
func (sa *SubmissionAttachment) ToDTO() *dto.Attachment {
	if sa == nil {
		return nil
	}
	res := &dto.Attachment{
		Id:        sa.Id.String(),
		CreatedAt: sa.CreatedAt,
		FieldId:   sa.FieldId.String(),
	}
	if sa.Asset != nil {
		res.Name = sa.Asset.Name
		res.ContentType = sa.Asset.ContentType
		res.Size = sa.Asset.Size
		res.ContentHash = sa.Asset.ContentHash
	}
	return res
}
