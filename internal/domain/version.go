// Package domain はドメインモデルとビジネスルールを定義する。
package domain

import (
	"fmt"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

const (
	// VersionTableLegacy は1.2.0より前のリリースが使用していたバージョンテーブル名。
	VersionTableLegacy = "t_escheduler_version"
	// VersionTableCurrent は1.2.0以降のリリースが使用するバージョンテーブル名。
	VersionTableCurrent = "t_ds_version"
)

// versionTableRenameThreshold はバージョンテーブルがリネームされたリリース。
var versionTableRenameThreshold = goversion.Must(goversion.NewVersion("1.2.0"))

// resourceSizeFixupVersion はリソースサイズ再計算フィックスアップが紐づくリリース。
var resourceSizeFixupVersion = goversion.Must(goversion.NewVersion("2.0.6"))

// SchemaVersion はバージョンテーブルに記録されるスキーマバージョン（major.minor.patch）を表す。
// 比較は各要素の数値比較で行う（"1.10.0" > "1.2.0"）。
type SchemaVersion struct {
	raw string
	v   *goversion.Version
}

// ParseSchemaVersion はドット区切り3要素のバージョン文字列をパースする。
func ParseSchemaVersion(s string) (SchemaVersion, error) {
	if len(strings.Split(s, ".")) != 3 {
		return SchemaVersion{}, fmt.Errorf("%w: %q (expected format: major.minor.patch)", ErrInvalidSchemaVersion, s)
	}
	v, err := goversion.NewVersion(s)
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("%w: %q: %v", ErrInvalidSchemaVersion, s, err)
	}
	return SchemaVersion{raw: s, v: v}, nil
}

// VersionFromStepID はアップグレードステップ識別子の先頭（最初の「_」まで）から
// ターゲットバージョンを抽出する。（例: "1.3.0_schema" → 1.3.0）
func VersionFromStepID(stepID string) (SchemaVersion, error) {
	prefix, _, _ := strings.Cut(stepID, "_")
	return ParseSchemaVersion(prefix)
}

// String はパース時の文字列表現を返す。
func (s SchemaVersion) String() string {
	return s.raw
}

// IsZero は未初期化のバージョンかどうかを返す。
func (s SchemaVersion) IsZero() bool {
	return s.v == nil
}

// Compare は他バージョンとの大小を返す（-1, 0, 1）。
func (s SchemaVersion) Compare(o SchemaVersion) int {
	return s.v.Compare(o.v)
}

// LessThan は自身が他バージョンより古いかどうかを返す。
func (s SchemaVersion) LessThan(o SchemaVersion) bool {
	return s.v.LessThan(o.v)
}

// GreaterThan は自身が他バージョンより新しいかどうかを返す。
func (s SchemaVersion) GreaterThan(o SchemaVersion) bool {
	return s.v.GreaterThan(o.v)
}

// PredatesTableRename はバージョンテーブルのリネーム（1.2.0）より前のバージョンかどうかを返す。
func (s SchemaVersion) PredatesTableRename() bool {
	return s.v.LessThan(versionTableRenameThreshold)
}

// RequiresResourceSizeFixup はリソースサイズ再計算フィックスアップの対象バージョン（2.0.6）かどうかを返す。
func (s SchemaVersion) RequiresResourceSizeFixup() bool {
	return s.v.Equal(resourceSizeFixupVersion)
}
