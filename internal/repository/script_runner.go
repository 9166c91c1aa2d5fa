package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"dolphinscheduler-tools/internal/domain"
)

// ScriptRunner はSQLスクリプトリソースを解決し、その中のステートメントを
// 1本のコネクション上で順次実行する。コネクションは実行の間だけ保持し、
// 成功・失敗いずれの経路でも解放される。
type ScriptRunner struct {
	db           *gorm.DB
	resourceRoot string
}

// NewScriptRunner は新しいScriptRunnerを生成する。
// scriptPathはresourceRootからの相対パスとして解決される。
func NewScriptRunner(db *gorm.DB, resourceRoot string) *ScriptRunner {
	return &ScriptRunner{db: db, resourceRoot: resourceRoot}
}

// Execute は指定パスのスクリプトを読み込み、ステートメントを先頭から順に実行する。
// いずれかのステートメントが失敗した場合、残りは実行せずErrScriptExecutionFailedを返す。
// スクリプト全体を1トランザクションでは包まない。DDLをトランザクション内で
// 実行できないデータベースがあるため、途中失敗時のロールバックは保証しない。
func (r *ScriptRunner) Execute(ctx context.Context, scriptPath string) error {
	fullPath := filepath.Join(r.resourceRoot, filepath.FromSlash(scriptPath))
	content, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrScriptNotFound, scriptPath)
		}
		return fmt.Errorf("%w: %s: %v", domain.ErrScriptNotFound, scriptPath, err)
	}

	statements := splitStatements(string(content))

	err = r.db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		for i, stmt := range statements {
			if execErr := tx.Exec(stmt).Error; execErr != nil {
				return fmt.Errorf("%w: %s: statement %d: %v",
					domain.ErrScriptExecutionFailed, scriptPath, i+1, execErr)
			}
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrScriptExecutionFailed) {
			err = fmt.Errorf("%w: %s: %v", domain.ErrScriptExecutionFailed, scriptPath, err)
		}
		slog.ErrorContext(ctx, "failed to execute sql script",
			"operation", "execute_script",
			"script_path", scriptPath,
			"error", err,
		)
		return err
	}

	slog.InfoContext(ctx, "sql script executed",
		"operation", "execute_script",
		"script_path", scriptPath,
		"statements", len(statements),
	)
	return nil
}

// splitStatements はスクリプトをステートメント単位に分割する。
// 「--」で始まる行コメントと空行を除き、行末の「;」を区切りとして扱う。
func splitStatements(script string) []string {
	var statements []string
	var buf []string
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		buf = append(buf, line)
		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSpace(strings.Join(buf, "\n"))
			statements = append(statements, strings.TrimSuffix(stmt, ";"))
			buf = buf[:0]
		}
	}
	if rest := strings.TrimSpace(strings.Join(buf, "\n")); rest != "" {
		statements = append(statements, rest)
	}
	return statements
}
