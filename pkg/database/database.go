package database

import (
	"fmt"
	"uplook_backend/internal/config"
	"uplook_backend/internal/model"
	"uplook_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func DSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)
}

func InitDB(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(DSN(cfg)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
		// 唯一索引冲突翻译成 gorm.ErrDuplicatedKey，徽章发放依赖它
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Database connection established", zap.String("host", cfg.Host), zap.String("db", cfg.DBName))
	return db, nil
}

// Models 参与自动迁移的全部表
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Goal{},
		&model.UserGoal{},
		&model.Content{},
		&model.ActivityLog{},
		&model.Plan{},
		&model.PlanCard{},
		&model.ReviewSession{},
		&model.CardReview{},
		&model.JournalEntry{},
		&model.MoodLog{},
		&model.Badge{},
		&model.UserBadge{},
		&model.ChatMessage{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	logger.Log.Info("Database migration completed")
	return Seed(db)
}

// Seed 补齐徽章目录和默认目标，已存在的不会重复创建
func Seed(db *gorm.DB) error {
	for _, b := range model.DefaultBadges {
		badge := b
		if err := db.Where(model.Badge{BadgeType: badge.BadgeType}).FirstOrCreate(&badge).Error; err != nil {
			return fmt.Errorf("seed badge %s: %w", b.BadgeType, err)
		}
	}

	for _, name := range model.DefaultGoals {
		goal := model.Goal{Name: name}
		if err := db.Where(model.Goal{Name: name}).FirstOrCreate(&goal).Error; err != nil {
			return fmt.Errorf("seed goal %s: %w", name, err)
		}
	}
	return nil
}
