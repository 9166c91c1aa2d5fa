// Package infra は外部サービスとの接続を提供する。
package infra

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"dolphinscheduler-tools/internal/dialect"
	"dolphinscheduler-tools/internal/domain"
)

// NewDB はgormによるデータベース接続を初期化する。
// dbTypeに応じたドライバを選択し、OpenTelemetryのトレーシングを組み込む。
func NewDB(dbType, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch dbType {
	case dialect.TypeMySQL:
		dialector = mysql.Open(dsn)
	case dialect.TypePostgreSQL:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedDatabaseType, dbType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 接続プール設定
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
