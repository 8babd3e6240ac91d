package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"pamuk-backend/internal/database"
	"pamuk-backend/internal/models"

	"gorm.io/gorm"
)

type LogOptions struct {
	Department  *int
	Operator    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// WriteLogTx: verilen transaction içinde audit kaydı yazar. Toy oluşturma
// gibi işlemlerde audit satırı, entity ile aynı transaction'da commit olmak
// zorunda; ya üçü birden yazılır ya hiçbiri.
func WriteLogTx(tx *gorm.DB, opts LogOptions) error {
	// PostgreSQL jsonb için boş string yerine "null" JSON string'i kullanmalıyız
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		Department:  opts.Department,
		Operator:    opts.Operator,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
		Undone:      false,
		IsUndone:    false,
	}

	if err := tx.Create(&log).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}

	return nil
}

func WriteLog(opts LogOptions) error {
	return WriteLogTx(database.DB, opts)
}

// UndoLog - Bir audit log'u geri al. Toy kayıtlarında geri alma, parti
// kapasite sayacını da aynı transaction'da simetrik günceller.
func UndoLog(logID uint, operator string) error {
	var entry models.AuditLog
	if err := database.DB.First(&entry, "id = ?", logID).Error; err != nil {
		return fmt.Errorf("log bulunamadı: %w", err)
	}

	// Zaten undo edilmiş mi?
	if entry.IsUndone {
		return fmt.Errorf("bu işlem zaten geri alınmış")
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		switch entry.Action {
		case models.AuditActionCreate:
			if err := deleteEntity(tx, entry.EntityType, entry.EntityID); err != nil {
				return fmt.Errorf("entity silinemedi: %w", err)
			}
		case models.AuditActionUpdate:
			if err := restoreEntity(tx, entry.EntityType, entry.EntityID, entry.BeforeData); err != nil {
				return fmt.Errorf("entity geri yüklenemedi: %w", err)
			}
		case models.AuditActionDelete:
			if err := recreateEntity(tx, entry.EntityType, entry.AfterData); err != nil {
				return fmt.Errorf("entity geri oluşturulamadı: %w", err)
			}
		default:
			return fmt.Errorf("bu işlem türü geri alınamaz")
		}

		now := time.Now()
		entry.IsUndone = true
		entry.UndoneAt = &now
		if err := tx.Save(&entry).Error; err != nil {
			return fmt.Errorf("log güncellenemedi: %w", err)
		}

		undoLog := models.AuditLog{
			Department:  entry.Department,
			Operator:    operator,
			EntityType:  entry.EntityType,
			EntityID:    entry.EntityID,
			Action:      models.AuditActionUndo,
			Description: fmt.Sprintf("Geri alındı: %s", entry.Description),
			BeforeData:  entry.AfterData,
			AfterData:   entry.BeforeData,
			Undone:      true,
			IsUndone:    false,
		}
		if err := tx.Create(&undoLog).Error; err != nil {
			return fmt.Errorf("undo log kaydedilemedi: %w", err)
		}
		return nil
	})

	return err
}

// deleteEntity - Entity'yi sil (create işleminin geri alınması)
func deleteEntity(tx *gorm.DB, entityType string, entityID uint) error {
	switch entityType {
	case "unit":
		var unit models.Unit
		if err := tx.First(&unit, "id = ?", entityID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Unit{}, "id = ?", entityID).Error; err != nil {
			return err
		}
		// Kapasite sayacı toy ile birlikte geri sayılır
		return tx.Model(&models.Batch{}).
			Where("id = ? AND used > 0", unit.BatchID).
			UpdateColumn("used", gorm.Expr("used - 1")).Error

	case "batch":
		var count int64
		if err := tx.Model(&models.Unit{}).Where("batch_id = ?", entityID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("partide kayıtlı toy var, parti oluşturma geri alınamaz")
		}
		return tx.Delete(&models.Batch{}, "id = ?", entityID).Error

	case "scale_config":
		return tx.Delete(&models.ScaleConfig{}, "id = ?", entityID).Error

	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}

// recreateEntity - Silinen entity'yi geri oluştur (delete işleminin geri alınması)
func recreateEntity(tx *gorm.DB, entityType string, dataJSON string) error {
	switch entityType {
	case "unit":
		var unit models.Unit
		if err := json.Unmarshal([]byte(dataJSON), &unit); err != nil {
			return err
		}
		unit.ID = 0 // Yeni entity oluştur
		if err := tx.Create(&unit).Error; err != nil {
			return err
		}
		return tx.Model(&models.Batch{}).
			Where("id = ?", unit.BatchID).
			UpdateColumn("used", gorm.Expr("used + 1")).Error

	case "batch":
		var batch models.Batch
		if err := json.Unmarshal([]byte(dataJSON), &batch); err != nil {
			return err
		}
		batch.ID = 0
		return tx.Create(&batch).Error

	case "scale_config":
		var scale models.ScaleConfig
		if err := json.Unmarshal([]byte(dataJSON), &scale); err != nil {
			return err
		}
		scale.ID = 0
		return tx.Create(&scale).Error

	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}

// restoreEntity - Entity'yi önceki haline döndür (update işleminin geri alınması)
func restoreEntity(tx *gorm.DB, entityType string, entityID uint, dataJSON string) error {
	switch entityType {
	case "batch":
		var batch models.Batch
		if err := json.Unmarshal([]byte(dataJSON), &batch); err != nil {
			return err
		}
		// Numara üretim düzenini bozmamak için number/department geri yazılmaz
		return tx.Model(&models.Batch{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"capacity": batch.Capacity,
			"status":   batch.Status,
		}).Error

	case "scale_config":
		var scale models.ScaleConfig
		if err := json.Unmarshal([]byte(dataJSON), &scale); err != nil {
			return err
		}
		return tx.Model(&models.ScaleConfig{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":       scale.Name,
			"department": scale.Department,
			"active":     scale.Active,
		}).Error

	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}
