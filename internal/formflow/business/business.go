// Бизнес-логика приложения: прием и валидация ответов на формы, движок процессов согласования.  Все публичные операции выполняются внутри одной транзакции БД: при любой ошибке ничего не сохраняется.
package business

import (
	filestorage "github.com/aisa-it/formflow/internal/formflow/file-storage"
	"github.com/aisa-it/formflow/internal/formflow/notifications"
	"gorm.io/gorm"
)

type Business struct {
	db      *gorm.DB
	storage filestorage.FileStorage

	notifier notifications.Notifier
}

func NewBL(db *gorm.DB, storage filestorage.FileStorage, notifier notifications.Notifier) *Business {
	if notifier == nil {
		notifier = notifications.SlogNotifier{}
	}
	return &Business{
		db:       db,
		storage:  storage,
		notifier: notifier,
	}
}

func (b *Business) DB() *gorm.DB {
	return b.db
}

func (b *Business) publish(events []notifications.Event) {
	if len(events) > 0 {
		b.notifier.Notify(events)
	}
}
