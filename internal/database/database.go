package database

import (
	"strings"
	"time"

	"github.com/arnold/kpigo-api/internal/config"
	"github.com/arnold/kpigo-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config, log *logrus.Logger) error {
	db, err := Open(cfg.DatabaseURL, log)
	if err != nil {
		return err
	}

	DB = db
	return nil
}

// Open picks the driver from the URL scheme: postgres, mysql, otherwise a
// SQLite file path.
func Open(url string, log *logrus.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch {
	case strings.HasPrefix(url, "postgres"):
		dialector = postgres.Open(url)
	case strings.HasPrefix(url, "mysql://"):
		// the mysql driver wants a bare DSN: user:pass@tcp(host:3306)/db?parseTime=true
		dialector = mysql.Open(strings.TrimPrefix(url, "mysql://"))
	default:
		dialector = sqlite.Open(url)
	}

	gormLogger := logger.Default.LogMode(logger.Warn)
	if log != nil {
		gormLogger = logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	return gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Company{},
		&models.User{},
		&models.Goal{},
		&models.GoalStaff{},
		&models.KPI{},
		&models.MonthlyProgress{},
		&models.Notification{},
		&models.Activity{},
		&models.Invite{},
	)
}

// OpenMemory opens a private in-memory SQLite database, migrated and ready.
// Each name gets its own database.
func OpenMemory(name string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared&_foreign_keys=1"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return db, Migrate(db)
}
