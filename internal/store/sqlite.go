package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"jobtracker.local/internal/domain"

	_ "modernc.org/sqlite"
)

// kvEntry is one row of the kv table.
type kvEntry struct {
	Name      string `gorm:"primaryKey"`
	Value     []byte
	Version   int64 `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

func (kvEntry) TableName() string { return "kv" }

// OpenSQLite opens a SQLite DB with the pure Go driver and wraps it in GORM.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite has a single writer.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	return db, nil
}

type SQLiteBackend struct {
	db *gorm.DB
}

var _ Backend = (*SQLiteBackend)(nil)

// NewSQLiteBackend opens the database at path and creates the kv table.
func NewSQLiteBackend(ctx context.Context, path string) (*SQLiteBackend, error) {
	db, err := OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	b := &SQLiteBackend{db: db}
	if err := b.Migrate(ctx); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

func (b *SQLiteBackend) Migrate(ctx context.Context) error {
	if err := b.db.WithContext(ctx).AutoMigrate(&kvEntry{}); err != nil {
		return fmt.Errorf("migrate kv: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Get(ctx context.Context, key string) (Blob, error) {
	var row kvEntry
	err := b.db.WithContext(ctx).Where("name = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Blob{}, ErrKeyNotFound
	}
	if err != nil {
		return Blob{}, fmt.Errorf("sqlite get %s: %w", key, err)
	}
	return Blob{Value: row.Value, Version: row.Version}, nil
}

func (b *SQLiteBackend) Put(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	var next int64
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row kvEntry
		err := tx.Where("name = ?", key).Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if expected != AnyVersion && expected != 0 {
				return domain.ErrVersionConflict
			}
			next = 1
			return tx.Create(&kvEntry{Name: key, Value: value, Version: next}).Error
		}
		if err != nil {
			return err
		}

		if expected != AnyVersion && expected != row.Version {
			return domain.ErrVersionConflict
		}
		next = row.Version + 1
		res := tx.Model(&kvEntry{}).
			Where("name = ? AND version = ?", key, row.Version).
			Updates(map[string]any{
				"value":      value,
				"version":    next,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrVersionConflict
		}
		return nil
	})
	if errors.Is(err, domain.ErrVersionConflict) {
		return 0, err
	}
	if err != nil {
		return 0, fmt.Errorf("sqlite put %s: %w", key, err)
	}
	return next, nil
}

func (b *SQLiteBackend) Ping(ctx context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (b *SQLiteBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("get sqlite handle: %w", err)
	}
	return sqlDB.Close()
}
