// Подключаемые квоты тарифа: сколько форм может создать автор и сколько ответов и вложений принимает форма.  Community-версия не ограничивает ничего; при заданном QUOTA_SERVICE_URL решения принимает внешний сервис тарификации.
package limiter

import (
	"log/slog"

	"github.com/aisa-it/formflow/internal/formflow/config"
	"github.com/gofrs/uuid"
)

type LimiterInt interface {
	CanCreateForm(creatorId uuid.UUID) bool
	CanSubmit(formId uuid.UUID) bool
	CanAddAttachment(formId uuid.UUID) bool

	GetRemainingForms(creatorId uuid.UUID) int
	GetRemainingSubmissions(formId uuid.UUID) int
	GetRemainingAttachments(formId uuid.UUID) int
}

var Limiter LimiterInt = CommunityLimiter{}

func Init(cfg *config.Config) {
	if cfg.QuotaServiceURL == nil {
		slog.Info("Using Community limiter")
		return
	}
	Limiter = NewExternalLimiter(cfg.QuotaServiceURL)
}

type CommunityLimiter struct{}

func (c CommunityLimiter) CanCreateForm(creatorId uuid.UUID) bool {
	return true
}

func (c CommunityLimiter) CanSubmit(formId uuid.UUID) bool {
	return true
}

func (c CommunityLimiter) CanAddAttachment(formId uuid.UUID) bool {
	return true
}

func (c CommunityLimiter) GetRemainingForms(creatorId uuid.UUID) int {
	return 99999999
}

func (c CommunityLimiter) GetRemainingSubmissions(formId uuid.UUID) int {
	return 99999999
}

func (c CommunityLimiter) GetRemainingAttachments(formId uuid.UUID) int {
	return 99999999
}
