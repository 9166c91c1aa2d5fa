package usecase

import (
	"context"
	"fmt"

	"dolphinscheduler-tools/internal/domain"
)

// ResourceRepository はリソーステーブルの集計更新を行うリポジトリのインターフェース。
type ResourceRepository interface {
	UpdateFolderSizes(ctx context.Context, resourceType int) error
}

// リソースタイプの判別子。
const (
	resourceTypeFile = 0
	resourceTypeUDF  = 1
)

// FixupService は特定の歴史的アップグレード（2.0.6）に紐づく一度限りの
// データ補正を提供する。DDL・DMLパイプラインからは独立して呼ばれる。
type FixupService struct {
	repo ResourceRepository
}

// NewFixupService は新しいFixupServiceを生成する。
func NewFixupService(repo ResourceRepository) *FixupService {
	return &FixupService{repo: repo}
}

// RecalculateResourceFolderSizes はファイル（type=0）とUDF（type=1）の
// 両カテゴリでフォルダの集計サイズを再計算する。
// 失敗はErrFixupFailedを包んで返し、呼び出し側がログに記録して処理を継続する。
func (s *FixupService) RecalculateResourceFolderSizes(ctx context.Context) error {
	for _, resourceType := range []int{resourceTypeFile, resourceTypeUDF} {
		if err := s.repo.UpdateFolderSizes(ctx, resourceType); err != nil {
			return fmt.Errorf("%w: resource type %d: %v", domain.ErrFixupFailed, resourceType, err)
		}
	}
	return nil
}
