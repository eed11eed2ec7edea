package dto

import (
	"time"

	"github.com/aisa-it/formflow/internal/formflow/types"
)

type Submission struct {
	ID        string    `json:"id"`
	SeqId     int       `json:"seq_id"`
	CreatedAt time.Time `json:"created_at"`

	ResponderId *string `json:"responder_id,omitempty" extensions:"x-nullable"`

	Form *FormLight `json:"form" extensions:"x-nullable"`

	Status         types.SubmissionStatus `json:"status"`
	TrackingNumber string                 `json:"tracking_number"`

	Values      []SubmissionValue `json:"values"`
	Attachments []Attachment      `json:"attachments,omitempty"`
}

type SubmissionValue struct {
	FieldId   string          `json:"field_id"`
	FieldName string          `json:"field_name"`
	Value     string          `json:"value"`
	ValueType types.ValueType `json:"value_type"`
}

type Attachment struct {
	Id        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	FieldId     string `json:"field_id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	ContentHash string `json:"content_hash"`
}
