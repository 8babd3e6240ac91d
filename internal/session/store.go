package session

import (
	"context"
	"errors"
	"time"

	"pamuk-backend/internal/models"

	"gorm.io/gorm"
)

// GormStore: registry'nin kalıcı durum erişiminin Postgres üzerindeki hali.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ScaleByID(ctx context.Context, id uint) (*models.ScaleConfig, error) {
	var scale models.ScaleConfig
	err := s.db.WithContext(ctx).First(&scale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &scale, nil
}

// RecentReadingExists: çakışma penceresi içinde departmandaki başka bir
// kantardan kalıcı okuma var mı? Department kolonu okuma satırına
// kopyalandığı için tek indeksli sorgudur.
func (s *GormStore) RecentReadingExists(ctx context.Context, department int, excludeScaleID uint, since time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Reading{}).
		Where("department = ? AND scale_id <> ? AND created_at >= ?", department, excludeScaleID, since).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) MarkHeartbeat(ctx context.Context, scaleID uint, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.ScaleConfig{}).
		Where("id = ?", scaleID).
		Updates(map[string]interface{}{
			"connection_status": models.ScaleConnected,
			"last_heartbeat_at": at,
		}).Error
}
