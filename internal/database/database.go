package database

import (
	"fmt"

	"github.com/jaylenmareko/topic-funding-sub000/internal/config"
	"github.com/jaylenmareko/topic-funding-sub000/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
		// 唯一约束冲突翻译为 gorm.ErrDuplicatedKey，幂等判断依赖它
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 自动迁移
	if err := db.AutoMigrate(
		&model.Topic{},
		&model.Contribution{},
		&model.SettlementRecord{},
		&model.RefundRecord{},
		&model.FundingMilestone{},
		&model.SweepRecord{},
		&model.Notification{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}
