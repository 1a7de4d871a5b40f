package kv

import (
	"context"
	"errors"
	"time"

	repo "storefront/internal/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// kv_entriesテーブルの1行
type Entry struct {
	Key       string         `gorm:"primaryKey;type:varchar(255)"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime"`
}

func (Entry) TableName() string { return "kv_entries" }

// Postgres（GORM）版のKVS。値はJSONとして保存する。
type GormStore struct {
	db *gorm.DB
}

var _ repo.KeyValueStore = (*GormStore)(nil)

// DI。テーブルが無ければ作る。
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Get(ctx context.Context, key string) (string, error) {
	var e Entry
	err := s.db.WithContext(ctx).
		Where("key = ?", key).
		First(&e).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", repo.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(e.Value), nil
}

// 同一キーは上書き
func (s *GormStore) Set(ctx context.Context, key string, value string) error {
	e := Entry{
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedAt: time.Now(),
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&e).Error
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).
		Where("key = ?", key).
		Delete(&Entry{}).Error
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
