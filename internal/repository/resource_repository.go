package repository

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// resourceTable はリソースメタデータを保持するテーブル名。
const resourceTable = "t_ds_resources"

// ResourceRepository はリソーステーブルの集計更新を提供する。
type ResourceRepository struct {
	db *gorm.DB
}

// NewResourceRepository は新しいResourceRepositoryを生成する。
func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// UpdateFolderSizes は指定タイプ（0: ファイル, 1: UDF）のフォルダ行のsizeを
// 配下のファイルsize合計で再計算する。集計と更新をGo側で分けているのは、
// 同一テーブルを参照する相関サブクエリ付きUPDATEを許可しないデータベースが
// あるため。
func (r *ResourceRepository) UpdateFolderSizes(ctx context.Context, resourceType int) error {
	var folders []struct {
		ID       int64  `gorm:"column:id"`
		FullName string `gorm:"column:full_name"`
	}
	err := r.db.WithContext(ctx).Raw(
		fmt.Sprintf("SELECT id, full_name FROM %s WHERE type = ? AND is_directory = ?", resourceTable),
		resourceType, true,
	).Scan(&folders).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to list resource folders",
			"operation", "update_folder_sizes",
			"resource_type", resourceType,
			"error", err,
		)
		return fmt.Errorf("failed to list resource folders: %w", err)
	}

	for _, folder := range folders {
		var total int64
		err := r.db.WithContext(ctx).Raw(
			fmt.Sprintf("SELECT COALESCE(SUM(size), 0) FROM %s WHERE type = ? AND is_directory = ? AND full_name LIKE ?", resourceTable),
			resourceType, false, folder.FullName+"/%",
		).Scan(&total).Error
		if err != nil {
			return fmt.Errorf("failed to sum folder size: %s: %w", folder.FullName, err)
		}

		err = r.db.WithContext(ctx).Exec(
			fmt.Sprintf("UPDATE %s SET size = ? WHERE id = ?", resourceTable),
			total, folder.ID,
		).Error
		if err != nil {
			return fmt.Errorf("failed to update folder size: %s: %w", folder.FullName, err)
		}
	}

	return nil
}
