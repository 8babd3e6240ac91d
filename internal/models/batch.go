package models

import "time"

type BatchCategory string

const (
	BatchCategoryLint   BatchCategory = "lint"   // preslenmiş lif pamuk
	BatchCategoryLinter BatchCategory = "linter" // linter
	BatchCategorySeed   BatchCategory = "seed"   // çiğit
)

type BatchStatus string

const (
	BatchStatusActive BatchStatus = "active"
	BatchStatusPaused BatchStatus = "paused"
	BatchStatusClosed BatchStatus = "closed"
)

// Batch: bir üretim partisi (marka). Numara departman içinde tekildir;
// kapanan partinin numarası bir daha kullanılmaz.
type Batch struct {
	ID         uint          `gorm:"primaryKey"`
	Number     int           `gorm:"not null;uniqueIndex:idx_batches_number_department"`
	Department int           `gorm:"not null;uniqueIndex:idx_batches_number_department;index"`
	Category   BatchCategory `gorm:"size:20;not null"`
	SubZone    string        `gorm:"size:10"` // sadece lint için anlamlı ("A" / "B")
	Capacity   int           `gorm:"not null;default:220"` // maksimum toy sayısı
	Used       int           `gorm:"not null;default:0"`   // kayıtlı toy sayısı
	Status     BatchStatus   `gorm:"size:20;not null;default:active"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
