package session

import (
	"context"
	"log"
	"time"

	"pamuk-backend/internal/metrics"
	"pamuk-backend/internal/models"

	"gorm.io/gorm"
)

// Sweeper: heartbeat'i eskiyen kantarları connected -> disconnected
// düşüren basit tarama döngüsü. Kantar kaydının Active bayrağına dokunmaz;
// yeni bir heartbeat kantarı tekrar connected yapar.
type Sweeper struct {
	db       *gorm.DB
	interval time.Duration
	timeout  time.Duration
	onDemote func(models.ScaleConfig)
	now      func() time.Time
}

func NewSweeper(db *gorm.DB, interval, timeout time.Duration, onDemote func(models.ScaleConfig)) *Sweeper {
	return &Sweeper{
		db:       db,
		interval: interval,
		timeout:  timeout,
		onDemote: onDemote,
		now:      time.Now,
	}
}

// stale: heartbeat zaman aşımı kararı. Hiç heartbeat görmemiş "connected"
// kayıt da eskimiş sayılır.
func stale(last *time.Time, now time.Time, timeout time.Duration) bool {
	if last == nil {
		return true
	}
	return now.Sub(*last) >= timeout
}

// SweepOnce: tek tarama. Düşürülen kantar sayısını döner.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.now()
	cutoff := now.Add(-s.timeout)

	var scales []models.ScaleConfig
	err := s.db.WithContext(ctx).
		Where("connection_status = ?", models.ScaleConnected).
		Where("last_heartbeat_at IS NULL OR last_heartbeat_at < ?", cutoff).
		Find(&scales).Error
	if err != nil {
		return 0, err
	}

	demoted := 0
	for _, scale := range scales {
		if !stale(scale.LastHeartbeatAt, now, s.timeout) {
			continue
		}
		err := s.db.WithContext(ctx).Model(&models.ScaleConfig{}).
			Where("id = ? AND connection_status = ?", scale.ID, models.ScaleConnected).
			Update("connection_status", models.ScaleDisconnected).Error
		if err != nil {
			log.Printf("Kantar %d disconnected yapılamadı: %v", scale.ID, err)
			continue
		}
		demoted++
		metrics.ScalesDemoted.Inc()
		scale.ConnectionStatus = models.ScaleDisconnected
		if s.onDemote != nil {
			s.onDemote(scale)
		}
	}

	if demoted > 0 {
		log.Printf("Bağlantı süpürücüsü: %d kantar disconnected yapıldı", demoted)
	}
	return demoted, nil
}

// Run: ctx iptal edilene kadar aralıklı tarama.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				log.Printf("Bağlantı süpürücüsü hata: %v", err)
			}
		}
	}
}
