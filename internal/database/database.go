package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	sqlitecgo "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"prophet-betting/internal/config"
	"prophet-betting/internal/models"
)

var DB *gorm.DB

// zapWriter routes gorm's logger output to zap
type zapWriter struct {
	log *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.log.Errorf(format, args...)
}

func gormConfig(log *zap.Logger) *gorm.Config {
	gl := logger.Default.LogMode(logger.Error)
	if log != nil {
		gl = logger.New(zapWriter{log: log.Named("gorm").Sugar()}, logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Error,
			IgnoreRecordNotFoundError: true,
		})
	}
	return &gorm.Config{
		Logger:                                   gl,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	}
}

// Connect establishes the database connection selected by cfg.Database.Driver
func Connect(cfg *config.Config, log *zap.Logger) error {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "sqlite":
		dialector = sqlitecgo.Open(cfg.Database.SQLitePath)
	default:
		dialector = postgres.Open(cfg.GetDSN())
	}

	db, err := gorm.Open(dialector, gormConfig(log))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	DB = db

	if log != nil {
		log.Info("database connection established", zap.String("driver", cfg.Database.Driver))
	}
	return nil
}

// OpenMemory opens a private in-memory SQLite database named name and
// migrates it. Handy for tests and throwaway local runs; one connection is
// kept so every query sees the same database.
func OpenMemory(name string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate runs automatic migrations on the global connection
func AutoMigrate() error {
	return Migrate(DB)
}

// Migrate creates or updates the tables of every model
func Migrate(db *gorm.DB) error {
	// Identity and grouping first, the bet graph references them
	coreModels := []interface{}{
		&models.User{},
		&models.Market{},
	}

	betModels := []interface{}{
		&models.Bet{},
		&models.Participant{},
		&models.ArbitratorDecision{},
		&models.Appeal{},
	}

	ledgerModels := []interface{}{
		&models.CreditTransaction{},
	}

	for _, group := range [][]interface{}{coreModels, betModels, ledgerModels} {
		for _, model := range group {
			if err := db.AutoMigrate(model); err != nil {
				return fmt.Errorf("migration failed for %T: %w", model, err)
			}
		}
	}
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// Ping checks the underlying connection
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// IsDuplicate reports whether err is a unique constraint violation, whether
// or not the dialect translated it to gorm.ErrDuplicatedKey.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
