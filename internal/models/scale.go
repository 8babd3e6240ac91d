package models

import "time"

type ScaleConnectionStatus string

const (
	ScaleConnected    ScaleConnectionStatus = "connected"
	ScaleDisconnected ScaleConnectionStatus = "disconnected"
	ScaleError        ScaleConnectionStatus = "error"
)

// ScaleConfig: tek bir departmana bağlı fiziksel kantar. Geçmiş kayıtları
// referans verdiği sürece silinmez, Active=false yapılır.
type ScaleConfig struct {
	ID               uint                  `gorm:"primaryKey"`
	Name             string                `gorm:"size:100;not null"`
	Department       int                   `gorm:"not null;index"`
	Active           bool                  `gorm:"not null;default:true"`
	ConnectionStatus ScaleConnectionStatus `gorm:"size:20;not null;default:disconnected"`
	LastHeartbeatAt  *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
