package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	errStack "github.com/aisa-it/formflow/internal/formflow/stack-error"
	"github.com/gofrs/uuid"
)

// WebhookNotifier доставляет события внешнему сервису HTTP POST-ом. Доставка выполняется по принципу fire-and-forget: ошибка доставки пишется в лог и не влияет на завершенную операцию.
type WebhookNotifier struct {
	endpoint *url.URL
	client   *http.Client
}

func NewWebhookNotifier(endpoint *url.URL) *WebhookNotifier {
	return &WebhookNotifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookPayload struct {
	Event        string  `json:"event"`
	At           string  `json:"at"`
	FormId       string  `json:"form_id,omitempty"`
	SubmissionId string  `json:"submission_id"`
	ProcessId    *string `json:"process_id,omitempty"`
	StepId       *string `json:"step_id,omitempty"`
	ActorId      *string `json:"actor_id,omitempty"`
}

func (n *WebhookNotifier) Notify(events []Event) {
	for _, e := range events {
		payload := webhookPayload{
			Event:        e.Kind.String(),
			At:           e.At.Format(time.RFC3339),
			SubmissionId: e.SubmissionId.String(),
		}
		if e.FormId != uuid.Nil {
			payload.FormId = e.FormId.String()
		}
		if e.ProcessId.Valid {
			id := e.ProcessId.UUID.String()
			payload.ProcessId = &id
		}
		if e.StepId.Valid {
			id := e.StepId.UUID.String()
			payload.StepId = &id
		}
		if e.ActorId.Valid {
			id := e.ActorId.UUID.String()
			payload.ActorId = &id
		}

		body, err := json.Marshal(payload)
		if err != nil {
			errStack.GetError(nil, errStack.TrackErrorStack(err).AddContext("event", payload.Event))
			continue
		}

		resp, err := n.client.Post(n.endpoint.String(), "application/json", bytes.NewReader(body))
		if err != nil {
			errStack.GetError(nil, errStack.TrackErrorStack(err).AddContext("event", payload.Event))
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= http.StatusMultipleChoices {
			err := errStack.TrackErrorStack(fmt.Errorf("webhook answered %d", resp.StatusCode))
			errStack.GetError(nil, err.AddContext("event", payload.Event))
		}
	}
}
