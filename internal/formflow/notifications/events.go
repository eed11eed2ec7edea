// Доменные события, порождаемые операциями над ответами и процессами согласования.  Операции возвращают список событий явным значением; публиковать их или нет - решает вызывающая сторона через интерфейс Notifier.
//
// Основные возможности:
//   - События жизненного цикла ответа и процесса согласования.
//   - Интерфейс Notifier для внешних каналов доставки.
//   - Реализация поверх slog для окружений без внешних уведомлений.
package notifications

import (
	"log/slog"
	"time"

	"github.com/gofrs/uuid"
)

type EventKind int

const (
	EventSubmissionAccepted EventKind = iota + 1
	EventProcessStarted
	EventStepAdvanced
	EventProcessApproved
	EventProcessRejected
	EventProcessCancelled
	EventProcessExpired
)

func (k EventKind) String() string {
	switch k {
	case EventSubmissionAccepted:
		return "submission_accepted"
	case EventProcessStarted:
		return "process_started"
	case EventStepAdvanced:
		return "step_advanced"
	case EventProcessApproved:
		return "process_approved"
	case EventProcessRejected:
		return "process_rejected"
	case EventProcessCancelled:
		return "process_cancelled"
	case EventProcessExpired:
		return "process_expired"
	}
	return "unknown"
}

type Event struct {
	Kind EventKind
	At   time.Time

	FormId       uuid.UUID
	SubmissionId uuid.UUID
	ProcessId    uuid.NullUUID
	StepId       uuid.NullUUID
	ActorId      uuid.NullUUID
}

func NewEvent(kind EventKind) Event {
	return Event{Kind: kind, At: time.Now()}
}

type Notifier interface {
	Notify(events []Event)
}

// SlogNotifier пишет события в структурный лог.
type SlogNotifier struct{}

func (SlogNotifier) Notify(events []Event) {
	for _, e := range events {
		attrs := []any{
			slog.String("event", e.Kind.String()),
			slog.Time("at", e.At),
			slog.String("submission_id", e.SubmissionId.String()),
		}
		if e.ProcessId.Valid {
			attrs = append(attrs, slog.String("process_id", e.ProcessId.UUID.String()))
		}
		if e.StepId.Valid {
			attrs = append(attrs, slog.String("step_id", e.StepId.UUID.String()))
		}
		slog.Info("domain event", attrs...)
	}
}
