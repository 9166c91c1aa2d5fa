// Package dialect はサポートするデータベース製品ごとの差異を提供する。
// スクリプトパスの命名規約と、ライブデータベースに対するテーブル・カラムの
// 存在確認クエリをダイアレクトごとに実装する。サポート対象は閉じた集合で、
// New以外の方法でダイアレクトを増やすことはできない。
package dialect

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"dolphinscheduler-tools/internal/domain"
)

// サポートするデータベース種別。
const (
	TypeMySQL      = "mysql"
	TypePostgreSQL = "postgresql"
)

// アップグレードスクリプトのファイル名。
const (
	scriptFileDDL = "dolphinscheduler_ddl.sql"
	scriptFileDML = "dolphinscheduler_dml.sql"
)

// Dialect はデータベース製品ごとのスクリプトパス規約と存在確認クエリを提供する。
type Dialect interface {
	// Name はダイアレクト名（小文字）を返す。スクリプトパスの構成要素になる。
	Name() string
	// InitScriptPath は初期化スクリプトのリソースパスを返す。
	InitScriptPath() string
	// UpgradeDDLPath は指定ステップのDDLスクリプトのリソースパスを返す。
	UpgradeDDLPath(stepID string) string
	// UpgradeDMLPath は指定ステップのDMLスクリプトのリソースパスを返す。
	UpgradeDMLPath(stepID string) string
	// TableExists はテーブルの存在を確認する。
	// テーブルが存在しない場合はエラーではなくfalseを返し、
	// 接続・クエリ失敗の場合のみエラーを返す。
	TableExists(ctx context.Context, db *gorm.DB, table string) (bool, error)
	// ColumnExists はカラムの存在を確認する。エラー規約はTableExistsと同じ。
	ColumnExists(ctx context.Context, db *gorm.DB, table, column string) (bool, error)
}

// New は指定された種別のDialectを生成する。サポート外の種別はエラーを返す。
func New(dbType string) (Dialect, error) {
	switch strings.ToLower(dbType) {
	case TypeMySQL:
		return mysqlDialect{}, nil
	case TypePostgreSQL:
		return postgresqlDialect{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedDatabaseType, dbType)
	}
}

// initScriptPath は初期化スクリプトのパスを構成する。
func initScriptPath(name string) string {
	return fmt.Sprintf("sql/dolphinscheduler_%s.sql", name)
}

// upgradeScriptPath はアップグレードスクリプトのパスを構成する。
func upgradeScriptPath(name, stepID, scriptFile string) string {
	return fmt.Sprintf("sql/upgrade/%s/%s/%s", stepID, name, scriptFile)
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return TypeMySQL }

func (d mysqlDialect) InitScriptPath() string {
	return initScriptPath(d.Name())
}

func (d mysqlDialect) UpgradeDDLPath(stepID string) string {
	return upgradeScriptPath(d.Name(), stepID, scriptFileDDL)
}

func (d mysqlDialect) UpgradeDMLPath(stepID string) string {
	return upgradeScriptPath(d.Name(), stepID, scriptFileDML)
}

func (mysqlDialect) TableExists(ctx context.Context, db *gorm.DB, table string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?",
		table,
	).Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: checking table %s: %v", domain.ErrQueryFailed, table, err)
	}
	return count > 0, nil
}

func (mysqlDialect) ColumnExists(ctx context.Context, db *gorm.DB, table, column string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		"SELECT COUNT(*) FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?",
		table, column,
	).Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: checking column %s.%s: %v", domain.ErrQueryFailed, table, column, err)
	}
	return count > 0, nil
}

type postgresqlDialect struct{}

func (postgresqlDialect) Name() string { return TypePostgreSQL }

func (d postgresqlDialect) InitScriptPath() string {
	return initScriptPath(d.Name())
}

func (d postgresqlDialect) UpgradeDDLPath(stepID string) string {
	return upgradeScriptPath(d.Name(), stepID, scriptFileDDL)
}

func (d postgresqlDialect) UpgradeDMLPath(stepID string) string {
	return upgradeScriptPath(d.Name(), stepID, scriptFileDML)
}

// PostgreSQLは引用符なしの識別子を小文字に畳み込むため、カタログ照会も小文字で行う。
func (postgresqlDialect) TableExists(ctx context.Context, db *gorm.DB, table string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_catalog = current_database() AND table_schema = current_schema() AND table_name = lower(?)",
		table,
	).Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: checking table %s: %v", domain.ErrQueryFailed, table, err)
	}
	return count > 0, nil
}

func (postgresqlDialect) ColumnExists(ctx context.Context, db *gorm.DB, table, column string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		"SELECT COUNT(*) FROM information_schema.columns WHERE table_catalog = current_database() AND table_schema = current_schema() AND table_name = lower(?) AND column_name = lower(?)",
		table, column,
	).Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: checking column %s.%s: %v", domain.ErrQueryFailed, table, column, err)
	}
	return count > 0, nil
}
