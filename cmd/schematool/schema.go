package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dolphinscheduler-tools/config"
	"dolphinscheduler-tools/internal/dialect"
	"dolphinscheduler-tools/internal/infra"
	"dolphinscheduler-tools/internal/repository"
	"dolphinscheduler-tools/internal/usecase"
)

// newUpgradeService は設定からサービス一式を組み立てる。
func newUpgradeService(cfg *config.Config) (*usecase.UpgradeService, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	d, err := dialect.New(cfg.DatabaseType)
	if err != nil {
		return nil, err
	}

	db, err := infra.NewDB(d.Name(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// スクリプトの検索起点を絶対パスに変換
	resourceRoot, err := filepath.Abs(cfg.ResourceRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve resource root: %w", err)
	}

	registry := repository.NewVersionRepository(db, d)
	executor := repository.NewScriptRunner(db, resourceRoot)
	fixup := usecase.NewFixupService(repository.NewResourceRepository(db))

	return usecase.NewUpgradeService(registry, executor, fixup, d, resourceRoot), nil
}

// initCmd はスキーマ初期化コマンド。
func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the database schema",
		Long:  "Execute the full schema initialization script for the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := newUpgradeService(config.Load())
			if err != nil {
				return err
			}

			if err := service.InitSchema(cmd.Context()); err != nil {
				return err
			}

			fmt.Println("Schema initialized successfully.")
			return nil
		},
	}
}

// upgradeCmd はスキーマアップグレードコマンド。
// --stepを指定した場合はそのステップのみ、省略した場合は未適用の全ステップを適用する。
func upgradeCmd() *cobra.Command {
	var stepID string
	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Apply schema upgrade steps",
		Long:  "Apply pending schema upgrade steps in version order, or a single step with --step",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := newUpgradeService(config.Load())
			if err != nil {
				return err
			}

			if stepID != "" {
				if err := service.Upgrade(cmd.Context(), stepID); err != nil {
					return err
				}
				fmt.Printf("Applied upgrade step %s successfully.\n", stepID)
				return nil
			}

			applied, err := service.ApplyUpgrades(cmd.Context())
			if err != nil {
				return err
			}

			if applied == 0 {
				fmt.Println("No pending upgrades.")
			} else {
				fmt.Printf("Applied %d upgrade step(s) successfully.\n", applied)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&stepID, "step", "", "Apply only the named upgrade step (e.g. 1.3.0_schema)")
	return cmd
}

// statusCmd はアップグレードステップの適用状態を表示する。
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show schema upgrade status",
		Long:  "Show the installed schema version and the status of all upgrade steps",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := newUpgradeService(config.Load())
			if err != nil {
				return err
			}

			steps, installed, err := service.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get upgrade status: %w", err)
			}

			fmt.Printf("Installed schema version: %s\n\n", installed)

			// テーブル形式で出力
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "TARGET VERSION\tSTEP\tSTATUS")
			fmt.Fprintln(w, "--------------\t----\t------")

			for _, step := range steps {
				fmt.Fprintf(w, "%s\t%s\t%s\n", step.TargetVersion, step.StepID, step.Status)
			}

			if err := w.Flush(); err != nil {
				return fmt.Errorf("failed to flush output: %w", err)
			}

			return nil
		},
	}
}
