package database

import (
	"log"

	"pamuk-backend/internal/config"
	"pamuk-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	err = DB.AutoMigrate(
		&models.Batch{},
		&models.Unit{},
		&models.ScaleConfig{},
		&models.Reading{},
		&models.AuditLog{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	// Kapasite aşımı DB seviyesinde de reddedilir
	if err := DB.Exec(`
		ALTER TABLE batches
		DROP CONSTRAINT IF EXISTS chk_batches_used_within_capacity
	`).Error; err != nil {
		log.Printf("Eski used/capacity constraint kaldırılırken hata (devam ediliyor): %v", err)
	}
	if err := DB.Exec(`
		ALTER TABLE batches
		ADD CONSTRAINT chk_batches_used_within_capacity
		CHECK (used >= 0 AND used <= capacity)
	`).Error; err != nil {
		log.Printf("used/capacity check constraint eklenirken hata (zaten var olabilir): %v", err)
	}

	// Kantar silinirse geçmiş okumalar yetim kalmasın
	if err := DB.Exec(`
		ALTER TABLE readings
		DROP CONSTRAINT IF EXISTS fk_readings_scale_restrict
	`).Error; err != nil {
		log.Printf("Eski readings constraint kaldırılırken hata (devam ediliyor): %v", err)
	}
	if err := DB.Exec(`
		ALTER TABLE readings
		ADD CONSTRAINT fk_readings_scale_restrict
		FOREIGN KEY (scale_id) REFERENCES scale_configs(id) ON DELETE RESTRICT
	`).Error; err != nil {
		log.Printf("readings foreign key constraint eklenirken hata: %v", err)
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}
