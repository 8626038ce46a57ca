package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// StoredRecord is the gorm model backing GormRecord.
type StoredRecord struct {
	Key       string `gorm:"primaryKey;size:255"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName pins the table name regardless of naming strategy.
func (StoredRecord) TableName() string { return "chat_records" }

// GormRecord stores records through gorm, typically on PostgreSQL.
type GormRecord struct {
	db *gorm.DB
}

// NewPostgresRecord connects to PostgreSQL with the given DSN.
func NewPostgresRecord(dsn string) (*GormRecord, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres store requires a DSN")
	}
	return NewGormRecord(postgres.Open(dsn))
}

// NewGormRecord opens a gorm connection on any dialector and migrates the table.
func NewGormRecord(dialector gorm.Dialector) (*GormRecord, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&StoredRecord{}); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &GormRecord{db: db}, nil
}

func (g *GormRecord) Load(ctx context.Context, key string) ([]byte, error) {
	var rec StoredRecord
	err := g.db.WithContext(ctx).Where("key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}
	return rec.Value, nil
}

func (g *GormRecord) Save(ctx context.Context, key string, data []byte) error {
	rec := StoredRecord{Key: key, Value: data, UpdatedAt: time.Now().UTC()}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

func (g *GormRecord) Clear(ctx context.Context, key string) error {
	if err := g.db.WithContext(ctx).Where("key = ?", key).Delete(&StoredRecord{}).Error; err != nil {
		return fmt.Errorf("failed to clear record: %w", err)
	}
	return nil
}

func (g *GormRecord) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
