package models

import "time"

type ReadingSource string

const (
	ReadingSourceChannel ReadingSource = "channel" // canlı kanaldan gelen
	ReadingSourceManual  ReadingSource = "manual"  // elle / çevrimdışı giriş
)

// Reading: bir kantardan gelen anlık ağırlık örneği. Yayınlanan okumaların
// yalnızca bir alt kümesi kalıcıdır (stabil olanlar + 200ms'de bir örnek);
// Department kolonu çakışma sorgusunun tek indeksli sorgu kalması için
// kantardan kopyalanır.
type Reading struct {
	ID         uint `gorm:"primaryKey"`
	ScaleID    uint `gorm:"not null;index"`
	Scale      ScaleConfig
	Department int     `gorm:"not null;index:idx_readings_department_created"`
	BatchID    *uint   `gorm:"index"`
	UnitID     *uint   `gorm:"index"`
	WeightKg   float64 `gorm:"not null"`
	Stable     bool    `gorm:"not null;default:false"`
	Source     ReadingSource `gorm:"size:20;not null;default:channel"`
	CreatedAt  time.Time     `gorm:"index:idx_readings_department_created"`
}
