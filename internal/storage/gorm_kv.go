package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"store-admin/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormKV stores slots in the kv_slots table. Expired rows are ignored on
// read and removed by PurgeExpired.
type GormKV struct {
	db     *gorm.DB
	prefix string
	now    func() time.Time
}

func NewGormKV(db *gorm.DB, prefix string) *GormKV {
	return &GormKV{db: db, prefix: prefix, now: time.Now}
}

func (s *GormKV) Get(ctx context.Context, key string) ([]byte, error) {
	var slot models.KVSlot
	err := s.db.WithContext(ctx).
		Where("slot_key = ? AND (expires_at IS NULL OR expires_at > ?)", s.prefix+key, s.now().UTC()).
		First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("kv get error: %w", err)
	}
	return []byte(slot.Value), nil
}

func (s *GormKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := s.now().UTC()
	slot := models.KVSlot{
		Key:       s.prefix + key,
		Value:     string(value),
		UpdatedAt: now,
	}
	if ttl > 0 {
		expiresAt := now.Add(ttl)
		slot.ExpiresAt = &expiresAt
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&slot).Error
	if err != nil {
		return fmt.Errorf("kv set error: %w", err)
	}
	return nil
}

func (s *GormKV) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("slot_key = ?", s.prefix+key).Delete(&models.KVSlot{}).Error; err != nil {
		return fmt.Errorf("kv delete error: %w", err)
	}
	return nil
}

// PurgeExpired removes expired slots and returns how many were deleted.
func (s *GormKV) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", s.now().UTC()).
		Delete(&models.KVSlot{})
	if res.Error != nil {
		return 0, fmt.Errorf("kv purge error: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Close is a no-op; the database handle is owned by the caller.
func (s *GormKV) Close() error {
	return nil
}
