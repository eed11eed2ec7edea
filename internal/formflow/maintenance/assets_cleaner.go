// Пакет фоновой очистки данных formflow. Удаляет файлы, на которые больше не ссылается ни одно вложение ответа.
package maintenance

import (
	"log/slog"

	"github.com/aisa-it/formflow/internal/formflow/dao"
	filestorage "github.com/aisa-it/formflow/internal/formflow/file-storage"
	"gorm.io/gorm"
)

type AssetsCleaner struct {
	db *gorm.DB
	si filestorage.FileStorage
}

func NewAssetCleaner(db *gorm.DB, si filestorage.FileStorage) *AssetsCleaner {
	return &AssetsCleaner{db, si}
}

// CleanAssets удаляет записи файлов без единого вложения и сами файлы из хранилища.
func (ac *AssetsCleaner) CleanAssets() {
	slog.Info("Start assets cleaning")

	var orphans []dao.FileAsset
	if err := ac.db.
		Where("id NOT IN (?)",
			ac.db.Model(&dao.SubmissionAttachment{}).Select("asset_id")).
		Find(&orphans).Error; err != nil {
		slog.Error("Clean assets fail", "err", err)
		return
	}

	var removed int
	for i := range orphans {
		if err := ac.db.Delete(&orphans[i]).Error; err != nil {
			slog.Error("Delete orphan asset", "asset", orphans[i].Id, "err", err)
			continue
		}
		removed++
	}

	slog.Info("Finish assets cleaning", "removed", removed)
}
