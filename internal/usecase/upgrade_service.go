package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"dolphinscheduler-tools/internal/dialect"
	"dolphinscheduler-tools/internal/domain"
)

// VersionRegistry はバージョンテーブルを読み書きするリポジトリのインターフェース。
type VersionRegistry interface {
	CurrentVersion(ctx context.Context, table string) (domain.SchemaVersion, error)
	InstalledVersion(ctx context.Context) (domain.SchemaVersion, error)
	UpdateVersion(ctx context.Context, version domain.SchemaVersion) error
}

// ScriptExecutor はSQLスクリプトを実行するインターフェース。
type ScriptExecutor interface {
	Execute(ctx context.Context, scriptPath string) error
}

// ResourceFixup は特定の歴史的アップグレードに紐づくデータ補正のインターフェース。
type ResourceFixup interface {
	RecalculateResourceFolderSizes(ctx context.Context) error
}

// UpgradeService はスキーマの初期化とアップグレードを統括する。
// サービス起動前のブートストラップとして単一プロセスから1回だけ呼ばれる前提で、
// 内部でのロックは行わない。
type UpgradeService struct {
	registry     VersionRegistry
	executor     ScriptExecutor
	fixup        ResourceFixup
	dialect      dialect.Dialect
	resourceRoot string
}

// NewUpgradeService は新しいUpgradeServiceを生成する。
func NewUpgradeService(registry VersionRegistry, executor ScriptExecutor, fixup ResourceFixup, d dialect.Dialect, resourceRoot string) *UpgradeService {
	return &UpgradeService{
		registry:     registry,
		executor:     executor,
		fixup:        fixup,
		dialect:      d,
		resourceRoot: resourceRoot,
	}
}

// InitSchema は初期化スクリプトを実行してスキーマを作成する。
// 失敗は致命的で、スキーマが不完全なままサービスを起動してはならない。
func (s *UpgradeService) InitSchema(ctx context.Context) error {
	scriptPath := s.dialect.InitScriptPath()
	if err := s.executor.Execute(ctx, scriptPath); err != nil {
		slog.ErrorContext(ctx, "failed to initialize schema",
			"operation", "init_schema",
			"script_path", scriptPath,
			"error", err,
		)
		return fmt.Errorf("initialize schema: %w", err)
	}

	slog.InfoContext(ctx, "schema initialized",
		"operation", "init_schema",
		"script_path", scriptPath,
	)
	return nil
}

// Upgrade は単一のアップグレードステップを適用する。
// DDL → DML → バージョン更新を厳密にこの順で実行し、途中で失敗した場合は
// 後続を実行しない。適用済みDDLのロールバックは行わない。
// このメソッド自体は冪等ではなく、同じステップを再実行すると両スクリプトを
// 再度実行する。冪等性が必要な場合はスクリプトのSQL側で担保する。
func (s *UpgradeService) Upgrade(ctx context.Context, stepID string) error {
	target, err := domain.VersionFromStepID(stepID)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", domain.ErrInvalidMigrationStep, stepID, err)
	}

	if err := s.executor.Execute(ctx, s.dialect.UpgradeDDLPath(stepID)); err != nil {
		slog.ErrorContext(ctx, "failed to apply upgrade step",
			"operation", "upgrade",
			"step_id", stepID,
			"phase", "ddl",
			"error", err,
		)
		return fmt.Errorf("upgrade step %s: %w", stepID, err)
	}

	if err := s.executor.Execute(ctx, s.dialect.UpgradeDMLPath(stepID)); err != nil {
		slog.ErrorContext(ctx, "failed to apply upgrade step",
			"operation", "upgrade",
			"step_id", stepID,
			"phase", "dml",
			"error", err,
		)
		return fmt.Errorf("upgrade step %s: %w", stepID, err)
	}

	if err := s.registry.UpdateVersion(ctx, target); err != nil {
		slog.ErrorContext(ctx, "failed to apply upgrade step",
			"operation", "upgrade",
			"step_id", stepID,
			"phase", "version",
			"error", err,
		)
		return fmt.Errorf("upgrade step %s: %w", stepID, err)
	}

	slog.InfoContext(ctx, "upgrade step applied",
		"operation", "upgrade",
		"step_id", stepID,
		"target_version", target.String(),
	)
	return nil
}

// ScanUpgradeSteps はsql/upgrade/配下のディレクトリをアップグレードステップとして
// 列挙し、ターゲットバージョンの昇順（数値比較）で返す。
func (s *UpgradeService) ScanUpgradeSteps() ([]*domain.MigrationStep, error) {
	dir := filepath.Join(s.resourceRoot, "sql", "upgrade")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read upgrade directory: %w", err)
	}

	var steps []*domain.MigrationStep
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		target, err := domain.VersionFromStepID(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidMigrationStep, entry.Name(), err)
		}
		steps = append(steps, &domain.MigrationStep{
			StepID:        entry.Name(),
			TargetVersion: target,
			Status:        domain.MigrationStatusPending,
		})
	}

	sort.Slice(steps, func(i, j int) bool {
		return steps[i].TargetVersion.LessThan(steps[j].TargetVersion)
	})

	return steps, nil
}

// ApplyUpgrades は導入済みバージョンより新しいステップをバージョン順に適用し、
// 適用したステップ数を返す。2.0.6を対象とするステップの適用後はリソースサイズ
// 補正を実行する。
func (s *UpgradeService) ApplyUpgrades(ctx context.Context) (int, error) {
	installed, err := s.registry.InstalledVersion(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to determine installed version",
			"operation", "apply_upgrades",
			"error", err,
		)
		return 0, fmt.Errorf("determine installed version: %w", err)
	}

	steps, err := s.ScanUpgradeSteps()
	if err != nil {
		slog.ErrorContext(ctx, "failed to scan upgrade steps",
			"operation", "apply_upgrades",
			"error", err,
		)
		return 0, err
	}

	applied := 0
	for _, step := range steps {
		if !step.TargetVersion.GreaterThan(installed) {
			continue
		}
		if err := s.Upgrade(ctx, step.StepID); err != nil {
			return applied, err
		}
		applied++

		if step.TargetVersion.RequiresResourceSizeFixup() {
			s.runResourceSizeFixup(ctx)
		}
	}

	return applied, nil
}

// Status は各アップグレードステップの適用状態と導入済みバージョンを返す。
// ターゲットバージョンが導入済みバージョン以下のステップを適用済みとみなす。
func (s *UpgradeService) Status(ctx context.Context) ([]*domain.MigrationStep, domain.SchemaVersion, error) {
	installed, err := s.registry.InstalledVersion(ctx)
	if err != nil {
		return nil, domain.SchemaVersion{}, fmt.Errorf("determine installed version: %w", err)
	}

	steps, err := s.ScanUpgradeSteps()
	if err != nil {
		return nil, domain.SchemaVersion{}, err
	}

	for _, step := range steps {
		if !step.TargetVersion.GreaterThan(installed) {
			step.Status = domain.MigrationStatusApplied
		}
	}

	return steps, installed, nil
}

// runResourceSizeFixup はリソースサイズ補正を実行する。補正はベストエフォートで、
// 失敗してもログに記録するだけで呼び出し元のアップグレードは成功のまま継続する。
// 構造的なマイグレーション失敗が常に致命的なのとは対照的な、意図した非対称。
func (s *UpgradeService) runResourceSizeFixup(ctx context.Context) {
	if err := s.fixup.RecalculateResourceFolderSizes(ctx); err != nil {
		slog.ErrorContext(ctx, "resource folder size fixup failed",
			"operation", "resource_size_fixup",
			"error", err,
		)
		return
	}
	slog.InfoContext(ctx, "resource folder sizes recalculated",
		"operation", "resource_size_fixup",
	)
}
