package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"dolphinscheduler-tools/internal/dialect"
	"dolphinscheduler-tools/internal/domain"
)

// VersionRepository はバージョンテーブルの単一レコードを読み書きするリポジトリ。
// バージョンテーブルは歴史的に旧名称（t_escheduler_version）から現名称
// （t_ds_version）へリネームされているため、どちらが有効かを解決した上で
// 読み書きする。存在しないテーブルへ書き込むことはない。
type VersionRepository struct {
	db      *gorm.DB
	dialect dialect.Dialect
}

// NewVersionRepository は新しいVersionRepositoryを生成する。
func NewVersionRepository(db *gorm.DB, d dialect.Dialect) *VersionRepository {
	return &VersionRepository{db: db, dialect: d}
}

// CurrentVersion は指定テーブルの単一レコードからスキーマバージョンを取得する。
// テーブルが存在しない場合はErrVersionTableMissing、レコードが存在しない場合は
// ErrVersionNotFoundを返す。
func (r *VersionRepository) CurrentVersion(ctx context.Context, table string) (domain.SchemaVersion, error) {
	exists, err := r.dialect.TableExists(ctx, r.db, table)
	if err != nil {
		return domain.SchemaVersion{}, err
	}
	if !exists {
		return domain.SchemaVersion{}, fmt.Errorf("%w: %s", domain.ErrVersionTableMissing, table)
	}

	var raw string
	query := fmt.Sprintf("SELECT version FROM %s", table)
	err = r.db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		return tx.Raw(query).Scan(&raw).Error
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to read schema version",
			"operation", "current_version",
			"table", table,
			"error", err,
		)
		return domain.SchemaVersion{}, fmt.Errorf("%w: %s: %v", domain.ErrQueryFailed, query, err)
	}
	if raw == "" {
		return domain.SchemaVersion{}, fmt.Errorf("%w: table %s has no version record", domain.ErrVersionNotFound, table)
	}

	return domain.ParseSchemaVersion(raw)
}

// InstalledVersion は現行のバージョンテーブルから導入済みバージョンを取得する。
// 旧名称テーブルが残っている間はそちらを優先して読む。
func (r *VersionRepository) InstalledVersion(ctx context.Context) (domain.SchemaVersion, error) {
	table, err := r.resolveReadTable(ctx)
	if err != nil {
		return domain.SchemaVersion{}, err
	}
	return r.CurrentVersion(ctx, table)
}

// UpdateVersion はバージョンテーブルの単一レコードを指定バージョンへ更新する。
// レコードは初期化スクリプトが作成済みである前提で、UPDATEのみ行いINSERTはしない。
func (r *VersionRepository) UpdateVersion(ctx context.Context, version domain.SchemaVersion) error {
	table, err := r.resolveWriteTable(ctx)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf("UPDATE %s SET version = ?", table)
	err = r.db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		return tx.Exec(stmt, version.String()).Error
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to update schema version",
			"operation", "update_version",
			"table", table,
			"version", version.String(),
			"error", err,
		)
		return fmt.Errorf("%w: %s: %v", domain.ErrQueryFailed, stmt, err)
	}

	slog.InfoContext(ctx, "schema version updated",
		"operation", "update_version",
		"table", table,
		"version", version.String(),
	)
	return nil
}

// resolveReadTable は読み取りに使うテーブルを特定する。
// 旧名称テーブルが存在する間はそちらが権威を持つ。
func (r *VersionRepository) resolveReadTable(ctx context.Context) (string, error) {
	legacyExists, err := r.dialect.TableExists(ctx, r.db, domain.VersionTableLegacy)
	if err != nil {
		return "", err
	}
	if legacyExists {
		return domain.VersionTableLegacy, nil
	}

	currentExists, err := r.dialect.TableExists(ctx, r.db, domain.VersionTableCurrent)
	if err != nil {
		return "", err
	}
	if currentExists {
		return domain.VersionTableCurrent, nil
	}

	return "", fmt.Errorf("%w: neither %s nor %s", domain.ErrVersionTableMissing,
		domain.VersionTableCurrent, domain.VersionTableLegacy)
}

// resolveWriteTable は書き込み先のテーブルを特定する。
// 片方しか存在しない場合はそのテーブルを使う。両方残っている場合は導入済み
// バージョンとリネームしきい値（1.2.0）の比較で決め、導入済みバージョンが
// 不明な場合は現名称を優先する。
func (r *VersionRepository) resolveWriteTable(ctx context.Context) (string, error) {
	legacyExists, err := r.dialect.TableExists(ctx, r.db, domain.VersionTableLegacy)
	if err != nil {
		return "", err
	}
	currentExists, err := r.dialect.TableExists(ctx, r.db, domain.VersionTableCurrent)
	if err != nil {
		return "", err
	}

	switch {
	case !legacyExists && !currentExists:
		return "", fmt.Errorf("%w: neither %s nor %s", domain.ErrVersionTableMissing,
			domain.VersionTableCurrent, domain.VersionTableLegacy)
	case legacyExists && !currentExists:
		return domain.VersionTableLegacy, nil
	case currentExists && !legacyExists:
		return domain.VersionTableCurrent, nil
	}

	installed, err := r.CurrentVersion(ctx, domain.VersionTableLegacy)
	if errors.Is(err, domain.ErrVersionNotFound) {
		return domain.VersionTableCurrent, nil
	}
	if err != nil {
		return "", err
	}
	if installed.PredatesTableRename() {
		return domain.VersionTableLegacy, nil
	}
	return domain.VersionTableCurrent, nil
}
