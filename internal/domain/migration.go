package domain

// MigrationStatus はアップグレードステップの適用状態を表す
type MigrationStatus string

const (
	MigrationStatusPending MigrationStatus = "pending"
	MigrationStatusApplied MigrationStatus = "applied"
)

// MigrationStep は1回分のアップグレード単位を表すドメインモデル。
// ステップ識別子はターゲットバージョンを接頭辞に持つディレクトリ名
// （例: "1.3.0_schema"）で、DDL・DMLスクリプトの組に対応する。
type MigrationStep struct {
	StepID        string          // ステップ識別子（sql/upgrade/配下のディレクトリ名）
	TargetVersion SchemaVersion   // ステップ適用後のスキーマバージョン
	Status        MigrationStatus // 適用状態
}
