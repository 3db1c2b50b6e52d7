package database

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/entities"
)

type Database struct {
	DB     *gorm.DB
	Driver config.DatabaseDriver

	readOnly *gorm.DB
}

func utcNow() time.Time {
	return time.Now().UTC()
}

func gormConfig(logQueries bool) *gorm.Config {
	level := gormlogger.Warn
	if logQueries {
		level = gormlogger.Info
	}
	return &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		NowFunc:        utcNow,
		TranslateError: true,
	}
}

func sqliteDSN(path string, params ...string) string {
	if len(params) == 0 {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

func NewDatabase(cfg config.Database) (*Database, error) {
	log := logger.New()

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		if cfg.URL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres driver")
		}
		dialector = postgres.Open(cfg.URL)
	case config.DriverSQLite, "":
		cfg.Driver = config.DriverSQLite
		dialector = sqlite.Open(sqliteDSN(cfg.Path, "_foreign_keys=1", "_busy_timeout=5000", "_journal_mode=WAL"))
	default:
		return nil, errors.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig(cfg.LogQueries))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.Student{},
		&entities.BookIssue{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}

	database := &Database{DB: db, Driver: cfg.Driver, readOnly: db}

	// SQLite gets a second connection that refuses writes at the engine level.
	// Postgres relies on READ ONLY transactions instead (see ReadOnlyQuerier).
	if cfg.Driver == config.DriverSQLite {
		ro, err := gorm.Open(sqlite.Open(sqliteDSN(cfg.Path, "_query_only=1", "_busy_timeout=5000")), gormConfig(cfg.LogQueries))
		if err != nil {
			return nil, errors.Wrap(err, "failed to open read-only connection")
		}
		database.readOnly = ro
	}

	log.Info("database initialized", logger.Data{"driver": string(cfg.Driver)})

	return database, nil
}

// NewSQLite opens a migrated SQLite database at path. Used by tests and the seed command.
func NewSQLite(path string) (*Database, error) {
	return NewDatabase(config.Database{Driver: config.DriverSQLite, Path: path})
}

// ReadOnly returns the handle used for assistant-generated queries.
func (d *Database) ReadOnly() *gorm.DB {
	return d.readOnly
}

func (d *Database) Close() error {
	if d.readOnly != nil && d.readOnly != d.DB {
		if sqlDB, err := d.readOnly.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
