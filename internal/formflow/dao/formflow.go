// DAO (Data Access Object) - предоставляет интерфейс для взаимодействия с базой данных.  Содержит сущности приложения (формы, ответы, маршруты согласования, файлы) и общие вспомогательные функции.
//
// Основные возможности:
//   - Генерация уникальных идентификаторов.
//   - Пагинация списочных запросов.
//   - Хранение метаданных файлов, загруженных в объектное хранилище.
package dao

import (
	"time"

	"github.com/aisa-it/formflow/internal/formflow/config"
	filestorage "github.com/aisa-it/formflow/internal/formflow/file-storage"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// GenID генерирует уникальный идентификатор в формате UUID.
// Не принимает параметров и возвращает строку, представляющую собой UUID.
func GenID() string {
	u2, _ := uuid.NewV4()
	return u2.String()
}

// GenUUID генерирует уникальный идентификатор в формате UUID. Не принимает параметров и возвращает UUID.
func GenUUID() uuid.UUID {
	u2, _ := uuid.NewV4()
	return u2
}

var Config *config.Config
var FileStorage filestorage.FileStorage

type PaginationResponse struct {
	Count  int64 `json:"count"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
	Result any   `json:"result"`
}

func PaginationRequest(offset int, limit int, query *gorm.DB, target any) (res PaginationResponse, err error) {
	// Count query
	if err := query.Session(&gorm.Session{}).Model(target).Count(&res.Count).Error; err != nil {
		return res, err
	}

	// Data query
	if err := query.Offset(offset).Limit(limit).Find(target).Error; err != nil {
		return res, err
	}

	res.Result = target
	res.Limit = limit
	res.Offset = offset

	return res, nil
}

// FileAsset - метаданные файла в объектном хранилище. Содержимое лежит в minio/локальном каталоге, в БД только паспорт файла.
type FileAsset struct {
	Id        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time `json:"created_at"`

	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	// ContentHash - sha256 содержимого в hex.
	ContentHash string `json:"content_hash" gorm:"index"`

	WorkspaceId uuid.UUID `json:"workspace" gorm:"type:uuid;index"`
}

func (FileAsset) TableName() string { return "file_assets" }

func (fa FileAsset) GetId() string {
	return fa.Id.String()
}

// AfterDelete удаляет содержимое файла из хранилища после удаления записи.
func (fa *FileAsset) AfterDelete(tx *gorm.DB) error {
	if FileStorage == nil {
		return nil
	}
	return FileStorage.Delete(fa.Id)
}
