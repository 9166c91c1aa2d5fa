package domain

import "errors"

var (
	// ErrScriptNotFound はSQLスクリプトリソースが解決できない場合のエラー。
	ErrScriptNotFound = errors.New("sql script not found")

	// ErrScriptExecutionFailed はSQLスクリプト内のステートメント実行に失敗した場合のエラー。
	ErrScriptExecutionFailed = errors.New("sql script execution failed")

	// ErrVersionTableMissing は必要なバージョンテーブルが存在しない場合のエラー。
	ErrVersionTableMissing = errors.New("version table does not exist")

	// ErrVersionNotFound はバージョンテーブルにレコードが存在しない場合のエラー。
	ErrVersionNotFound = errors.New("schema version not found")

	// ErrQueryFailed は接続・クエリ起因の読み取り失敗を表すエラー。
	ErrQueryFailed = errors.New("schema version query failed")

	// ErrInvalidSchemaVersion はバージョン文字列の形式が不正な場合のエラー。
	ErrInvalidSchemaVersion = errors.New("invalid schema version")

	// ErrInvalidMigrationStep はアップグレードステップ識別子の形式が不正な場合のエラー。
	ErrInvalidMigrationStep = errors.New("invalid migration step")

	// ErrUnsupportedDatabaseType はサポート外のデータベース種別が指定された場合のエラー。
	ErrUnsupportedDatabaseType = errors.New("unsupported database type")

	// ErrFixupFailed はリソースサイズ再計算フィックスアップの失敗を表す。
	// 致命的ではない唯一のエラー種別で、呼び出し側はログに記録して処理を継続する。
	ErrFixupFailed = errors.New("resource size fixup failed")
)
