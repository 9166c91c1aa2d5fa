// Package main はスキーマ管理CLIツールのエントリポイント。
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"dolphinscheduler-tools/config"
	"dolphinscheduler-tools/internal/infra"
)

const version = "1.0.0"

func main() {
	ctx := context.Background()

	// .envファイルを読み込む（存在しない場合は無視）
	// 既存の環境変数は上書きしない
	_ = godotenv.Load()

	cfg := config.Load()

	// ログレベル設定
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "DEBUG":
		logLevel = slog.LevelDebug
	case "WARN":
		logLevel = slog.LevelWarn
	case "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	// トレーサー初期化（ロガー設定の前に実行）
	tp, err := infra.InitTracer(ctx, cfg)
	if err != nil {
		slog.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}

	// トレース情報付きロガーを設定し、実行単位を識別するrun_idを付与する
	infra.SetupLogger(cfg, logLevel)
	slog.SetDefault(slog.Default().With("run_id", uuid.NewString()))

	rootCmd := &cobra.Command{
		Use:   "schematool",
		Short: "DolphinScheduler schema management tool",
		Long:  "Initialize and upgrade the DolphinScheduler database schema",
	}

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(upgradeCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(versionCmd())

	execErr := rootCmd.ExecuteContext(ctx)

	if tp != nil {
		if err := tp.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown tracer", "error", err)
		}
	}

	if execErr != nil {
		os.Exit(1)
	}
}

// versionCmd はバージョン情報を表示する。
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("schematool version %s\n", version)
		},
	}
}
