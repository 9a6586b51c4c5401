package store

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// DBConfig holds the Postgres connection settings and pool limits.
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

// Value implements the driver.Valuer interface
func (d Document) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements the sql.Scanner interface
func (d *Document) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*d = Document{}
		return nil
	default:
		return fmt.Errorf("unsupported document column type %T", value)
	}
	return json.Unmarshal(data, d)
}

// Record is one row of the records table.
type Record struct {
	Path      string   `gorm:"primaryKey"`
	Parent    string   `gorm:"index;not null"`
	Data      Document `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

func (Record) TableName() string {
	return "records"
}

// PostgresStore keeps every path as a row with a jsonb payload.
type PostgresStore struct {
	db *gorm.DB
}

// OpenPostgres connects, applies pool settings and migrates the records table.
func OpenPostgres(cfg DBConfig) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate records: %w", err)
	}
	return NewPostgresStore(db), nil
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, path string) (Document, error) {
	var rec Record
	if err := s.db.WithContext(ctx).First(&rec, "path = ?", path).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, unavailable("get", path, err)
	}
	return rec.Data, nil
}

func (s *PostgresStore) Set(ctx context.Context, path string, doc Document) error {
	norm, err := normalize(doc)
	if err != nil {
		return err
	}
	parent, _ := Split(path)
	rec := Record{Path: path, Parent: parent, Data: norm}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"parent", "data", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return unavailable("set", path, err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, path string, fields Document) error {
	return s.CompareAndUpdate(ctx, path, nil, fields)
}

// CompareAndUpdate locks the row for the duration of the check and write.
func (s *PostgresStore) CompareAndUpdate(ctx context.Context, path string, expect, fields Document) error {
	patch, err := normalize(fields)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec Record
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rec, "path = ?", path).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if len(expect) > 0 {
			ok, err := matches(rec.Data, expect)
			if err != nil {
				return err
			}
			if !ok {
				return ErrConditionFailed
			}
		}
		return tx.Model(&Record{}).
			Where("path = ?", path).
			Updates(map[string]interface{}{"data": merge(rec.Data, patch), "updated_at": time.Now()}).Error
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConditionFailed):
		return err
	default:
		return unavailable("update", path, err)
	}
}

func (s *PostgresStore) Remove(ctx context.Context, path string) error {
	if err := s.db.WithContext(ctx).Delete(&Record{}, "path = ?", path).Error; err != nil {
		return unavailable("remove", path, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, parent string) (map[string]Document, error) {
	var recs []Record
	if err := s.db.WithContext(ctx).Where("parent = ?", parent).Find(&recs).Error; err != nil {
		return nil, unavailable("list", parent, err)
	}
	out := make(map[string]Document, len(recs))
	for _, rec := range recs {
		_, id := Split(rec.Path)
		out[id] = rec.Data
	}
	return out, nil
}

// HealthCheck pings the database.
func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
