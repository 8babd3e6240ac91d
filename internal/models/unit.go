package models

import "time"

// Unit: bir partiye ait tartılmış tek toy. Sıra numarası parti içinde
// tekildir ve bir kez verildikten sonra değişmez (net = brüt - dara).
type Unit struct {
	ID         uint `gorm:"primaryKey"`
	BatchID    uint `gorm:"not null;uniqueIndex:idx_units_batch_sequence;index"`
	Batch      Batch
	SequenceNo int     `gorm:"not null;uniqueIndex:idx_units_batch_sequence"` // 1..Batch.Capacity
	GrossKg    float64 `gorm:"not null"`
	TareKg     float64 `gorm:"not null"`
	NetKg      float64 `gorm:"not null"`
	CreatedAt  time.Time
}
