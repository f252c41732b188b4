package core

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type LogLevel int

const (
	LogLevelSilent LogLevel = iota + 1
	LogLevelError
	LogLevelWarn
	LogLevelInfo
)

// DatabaseManager owns the connection pool for the gym database. Handlers and
// workers run closures against gorm through Exec/Transaction rather than holding
// raw connections.
type DatabaseManager struct {
	db       *gorm.DB
	SqlDB    *sql.DB
	LogLevel LogLevel
}

// New opens the pool against the gym schema. The dsn includes the schema name
// (single-database deployment, unlike a per-tenant setup).
func New(dsn string, maxConnection int) (*DatabaseManager, error) {
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open pool: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxConnection)
	sqlDB.SetMaxIdleConns(maxConnection)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping pool: %w", err)
	}

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	return &DatabaseManager{db: db, SqlDB: sqlDB}, nil
}

// FromDB wraps an already-open gorm handle. Tests use this with an in-memory
// database.
func FromDB(db *gorm.DB) *DatabaseManager {
	sqlDB, _ := db.DB()
	return &DatabaseManager{db: db, SqlDB: sqlDB}
}

// DB returns a context-bound gorm handle for ad hoc queries.
func (dm *DatabaseManager) DB(ctx context.Context) *gorm.DB {
	return dm.session(ctx)
}

// Exec runs fn against a context-bound gorm handle.
func (dm *DatabaseManager) Exec(ctx context.Context, fn func(db *gorm.DB) error) error {
	return fn(dm.session(ctx))
}

// Transaction runs fn inside a database transaction; fn returning an error
// rolls the whole unit back.
func (dm *DatabaseManager) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return dm.session(ctx).Transaction(fn)
}

func (dm *DatabaseManager) session(ctx context.Context) *gorm.DB {
	db := dm.db.WithContext(ctx)

	gormLogLevel := logger.Silent
	switch dm.LogLevel {
	case LogLevelError:
		gormLogLevel = logger.Error
	case LogLevelWarn:
		gormLogLevel = logger.Warn
	case LogLevelInfo:
		gormLogLevel = logger.Info
	}
	return db.Session(&gorm.Session{Logger: logger.Default.LogMode(gormLogLevel)})
}

// Close closes the pool.
func (dm *DatabaseManager) Close() error {
	if dm.SqlDB == nil {
		return nil
	}
	return dm.SqlDB.Close()
}
