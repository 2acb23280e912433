package database

import (
	"fmt"
	"testgen_backend/internal/config"
	"testgen_backend/internal/model"
	"testgen_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open builds the single shared handle. The pool is bounded by
// MaxOpenConns; every repository call borrows a connection for the
// duration of that call only.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Path + "?_foreign_keys=on")
	default:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		dialector = mysql.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewGormLogger(logger.Log, cfg.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// sqlite 只允许一个写连接
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	logger.Log.Info("Database connection established",
		zap.String("driver", cfg.Driver),
		zap.Int("max_open_conns", cfg.MaxOpenConns))
	return db, nil
}

// Migrate creates or updates every table and seeds the built-in roles.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Role{},
		&model.UserRole{},
		&model.Group{},
		&model.UserGroup{},
		&model.SourceDocument{},
		&model.Question{},
		&model.AnswerOption{},
		&model.Test{},
		&model.TestQuestion{},
		&model.TestAssignment{},
		&model.TestSession{},
		&model.UserAnswer{},
		&model.AuditLog{},
	)
	if err != nil {
		return err
	}

	logger.Log.Info("Database migration completed")

	// 默认角色
	defaultRoles := []model.Role{
		{Name: model.RoleAdmin, Description: "Full access"},
		{Name: model.RoleTeacher, Description: "Creates questions, tests and assignments"},
		{Name: model.RoleStudent, Description: "Takes assigned tests"},
	}
	for _, r := range defaultRoles {
		role := r
		if err := db.Where("name = ?", role.Name).FirstOrCreate(&role).Error; err != nil {
			return err
		}
	}

	return nil
}
