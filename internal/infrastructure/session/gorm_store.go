package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/erp/books/internal/infrastructure/logger"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// sessionRecord is one row of the session table
type sessionRecord struct {
	SessionKey string `gorm:"primaryKey;size:255"`
	Value      string `gorm:"type:text;not null"`
	UpdatedAt  time.Time
}

// TableName returns the session table name
func (sessionRecord) TableName() string {
	return "books_sessions"
}

// GormStore persists credentials in a SQL table
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open database and creates the session table if needed
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&sessionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session table: %w", err)
	}
	return &GormStore{db: db}, nil
}

// OpenSQLite opens (creating if needed) a SQLite session database at path
func OpenSQLite(path string, zapLogger *zap.Logger) (*GormStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}
	return open(sqlite.Open(path), zapLogger)
}

// OpenPostgres connects to a Postgres session database
func OpenPostgres(dsn string, zapLogger *zap.Logger) (*GormStore, error) {
	return open(postgres.Open(dsn), zapLogger)
}

func open(dialector gorm.Dialector, zapLogger *zap.Logger) (*GormStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.NewGormLogger(zapLogger, gormlogger.Warn),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session database: %w", err)
	}
	if err := traceQueries(db, nil); err != nil {
		return nil, err
	}
	return NewGormStore(db)
}

// traceQueries records a span per statement on tp, or on the global provider
// when tp is nil. Bound values are left out since they hold tokens.
func traceQueries(db *gorm.DB, tp trace.TracerProvider) error {
	opts := []otelgorm.Option{
		otelgorm.WithDBName(sessionRecord{}.TableName()),
		otelgorm.WithoutQueryVariables(),
	}
	if tp != nil {
		opts = append(opts, otelgorm.WithTracerProvider(tp))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("failed to register session tracing: %w", err)
	}
	return nil
}

// Load returns the credentials stored under key
func (s *GormStore) Load(ctx context.Context, key string) (Credentials, error) {
	var rec sessionRecord
	err := s.db.WithContext(ctx).Where("session_key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Credentials{}, ErrNoSession
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to load session: %w", err)
	}
	var c Credentials
	if err := json.Unmarshal([]byte(rec.Value), &c); err != nil {
		return Credentials{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return c, nil
}

// Save upserts the credentials stored under key
func (s *GormStore) Save(ctx context.Context, key string, creds Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	rec := sessionRecord{SessionKey: key, Value: string(data), UpdatedAt: time.Now()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the credentials stored under key
func (s *GormStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("session_key = ?", key).Delete(&sessionRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ Store = (*GormStore)(nil)
