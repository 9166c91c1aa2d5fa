package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"dolphinscheduler-tools/internal/domain"
)

// sqliteDialect はテスト用のSQLite向けダイアレクト実装。
// 本番のダイアレクト集合には含まれないため、テスト側で定義する。
type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) InitScriptPath() string {
	return "sql/dolphinscheduler_sqlite.sql"
}

func (sqliteDialect) UpgradeDDLPath(stepID string) string {
	return fmt.Sprintf("sql/upgrade/%s/sqlite/dolphinscheduler_ddl.sql", stepID)
}

func (sqliteDialect) UpgradeDMLPath(stepID string) string {
	return fmt.Sprintf("sql/upgrade/%s/sqlite/dolphinscheduler_dml.sql", stepID)
}

func (sqliteDialect) TableExists(ctx context.Context, db *gorm.DB, table string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table,
	).Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: checking table %s: %v", domain.ErrQueryFailed, table, err)
	}
	return count > 0, nil
}

func (sqliteDialect) ColumnExists(ctx context.Context, db *gorm.DB, table, column string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column,
	).Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: checking column %s.%s: %v", domain.ErrQueryFailed, table, column, err)
	}
	return count > 0, nil
}

// setupTestDB はテスト用のインメモリSQLiteデータベースを作成する。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	return db
}

// createVersionTable はバージョンテーブルを作成し、単一レコードを挿入する。
func createVersionTable(t *testing.T, db *gorm.DB, table, version string) {
	t.Helper()

	if err := db.Exec(fmt.Sprintf("CREATE TABLE %s (version VARCHAR(63) NOT NULL)", table)).Error; err != nil {
		t.Fatalf("failed to create version table %s: %v", table, err)
	}
	if version != "" {
		if err := db.Exec(fmt.Sprintf("INSERT INTO %s (version) VALUES (?)", table), version).Error; err != nil {
			t.Fatalf("failed to insert version row: %v", err)
		}
	}
}

// readVersion はテーブルのバージョン値を直接読み出す。
func readVersion(t *testing.T, db *gorm.DB, table string) string {
	t.Helper()

	var version string
	if err := db.Raw(fmt.Sprintf("SELECT version FROM %s", table)).Scan(&version).Error; err != nil {
		t.Fatalf("failed to read version from %s: %v", table, err)
	}
	return version
}

func TestVersionRepository_CurrentVersion(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewVersionRepository(db, sqliteDialect{})

	createVersionTable(t, db, domain.VersionTableCurrent, "1.3.0")

	v, err := repo.CurrentVersion(ctx, domain.VersionTableCurrent)
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if v.String() != "1.3.0" {
		t.Errorf("expected version 1.3.0, got %s", v.String())
	}
}

func TestVersionRepository_CurrentVersion_TableMissing(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewVersionRepository(db, sqliteDialect{})

	// テーブルが存在しない場合は明示的なエラー
	if _, err := repo.CurrentVersion(ctx, domain.VersionTableCurrent); !errors.Is(err, domain.ErrVersionTableMissing) {
		t.Errorf("expected ErrVersionTableMissing, got %v", err)
	}
}

func TestVersionRepository_CurrentVersion_EmptyTable(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewVersionRepository(db, sqliteDialect{})

	createVersionTable(t, db, domain.VersionTableCurrent, "")

	if _, err := repo.CurrentVersion(ctx, domain.VersionTableCurrent); !errors.Is(err, domain.ErrVersionNotFound) {
		t.Errorf("expected ErrVersionNotFound, got %v", err)
	}
}

func TestVersionRepository_InstalledVersion_PrefersLegacy(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewVersionRepository(db, sqliteDialect{})

	// 旧名称テーブルが残っている間はそちらが権威を持つ
	createVersionTable(t, db, domain.VersionTableLegacy, "1.1.0")
	createVersionTable(t, db, domain.VersionTableCurrent, "9.9.9")

	v, err := repo.InstalledVersion(ctx)
	if err != nil {
		t.Fatalf("InstalledVersion failed: %v", err)
	}
	if v.String() != "1.1.0" {
		t.Errorf("expected version 1.1.0 from legacy table, got %s", v.String())
	}
}

func TestVersionRepository_UpdateVersion_LegacyTableOnly(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewVersionRepository(db, sqliteDialect{})

	createVersionTable(t, db, domain.VersionTableLegacy, "1.0.1")

	if err := repo.UpdateVersion(ctx, mustVersion(t, "1.1.0")); err != nil {
		t.Fatalf("UpdateVersion failed: %v", err)
	}

	if got := readVersion(t, db, domain.VersionTableLegacy); got != "1.1.0" {
		t.Errorf("expected legacy table version 1.1.0, got %s", got)
	}
}

func TestVersionRepository_UpdateVersion_CurrentTableOnly(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewVersionRepository(db, sqliteDialect{})

	createVersionTable(t, db, domain.VersionTableCurrent, "1.2.0")

	if err := repo.UpdateVersion(ctx, mustVersion(t, "1.3.0")); err != nil {
		t.Fatalf("UpdateVersion failed: %v", err)
	}

	if got := readVersion(t, db, domain.VersionTableCurrent); got != "1.3.0" {
		t.Errorf("expected current table version 1.3.0, got %s", got)
	}
}

func TestVersionRepository_UpdateVersion_NeitherTable(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewVersionRepository(db, sqliteDialect{})

	err := repo.UpdateVersion(ctx, mustVersion(t, "1.3.0"))
	if !errors.Is(err, domain.ErrVersionTableMissing) {
		t.Errorf("expected ErrVersionTableMissing, got %v", err)
	}
}

func TestVersionRepository_UpdateVersion_BothTables(t *testing.T) {
	ctx := context.Background()

	// 導入済みバージョンがリネームしきい値（1.2.0）より古い場合は旧名称へ書き込む
	db := setupTestDB(t)
	repo := NewVersionRepository(db, sqliteDialect{})
	createVersionTable(t, db, domain.VersionTableLegacy, "1.0.1")
	createVersionTable(t, db, domain.VersionTableCurrent, "1.0.1")

	if err := repo.UpdateVersion(ctx, mustVersion(t, "1.1.0")); err != nil {
		t.Fatalf("UpdateVersion failed: %v", err)
	}
	if got := readVersion(t, db, domain.VersionTableLegacy); got != "1.1.0" {
		t.Errorf("expected legacy table version 1.1.0, got %s", got)
	}
	if got := readVersion(t, db, domain.VersionTableCurrent); got != "1.0.1" {
		t.Errorf("expected current table version unchanged (1.0.1), got %s", got)
	}

	// しきい値以降なら現名称へ書き込む
	db = setupTestDB(t)
	repo = NewVersionRepository(db, sqliteDialect{})
	createVersionTable(t, db, domain.VersionTableLegacy, "1.2.0")
	createVersionTable(t, db, domain.VersionTableCurrent, "1.2.0")

	if err := repo.UpdateVersion(ctx, mustVersion(t, "1.3.0")); err != nil {
		t.Fatalf("UpdateVersion failed: %v", err)
	}
	if got := readVersion(t, db, domain.VersionTableCurrent); got != "1.3.0" {
		t.Errorf("expected current table version 1.3.0, got %s", got)
	}
	if got := readVersion(t, db, domain.VersionTableLegacy); got != "1.2.0" {
		t.Errorf("expected legacy table version unchanged (1.2.0), got %s", got)
	}
}

func mustVersion(t *testing.T, s string) domain.SchemaVersion {
	t.Helper()

	v, err := domain.ParseSchemaVersion(s)
	if err != nil {
		t.Fatalf("ParseSchemaVersion(%q) failed: %v", s, err)
	}
	return v
}
