package batch

import (
	"context"
	"database/sql"
	"fmt"

	"pamuk-backend/internal/audit"
	"pamuk-backend/internal/database"
	"pamuk-backend/internal/models"

	"gorm.io/gorm"
)

const DefaultCapacity = 220

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type CreateInput struct {
	Category models.BatchCategory
	SubZone  string
	Number   *int // boşsa kapsamdaki bir sonraki serbest numara
	Capacity int  // 0 ise DefaultCapacity
	Operator string
}

// NextNumber: kapsamdaki bir sonraki serbest numarayı döner (önizleme,
// rezervasyon yapmaz). Kapanan partilerin numaraları da sayımda kalır,
// bir numara asla yeniden kullanılmaz.
func (s *Service) NextNumber(ctx context.Context, category models.BatchCategory, subZone string) (int, NumberRange, error) {
	r, err := RangeFor(category, subZone)
	if err != nil {
		return 0, NumberRange{}, err
	}
	next, err := s.nextNumberInScope(s.db.WithContext(ctx), r)
	return next, r, err
}

func (s *Service) nextNumberInScope(tx *gorm.DB, r NumberRange) (int, error) {
	var maxNumber sql.NullInt64
	err := tx.Model(&models.Batch{}).
		Where("department = ?", r.Department).
		Select("MAX(number)").
		Scan(&maxNumber).Error
	if err != nil {
		return 0, err
	}
	return nextInRange(r, int(maxNumber.Int64), maxNumber.Valid)
}

// Create: yeni parti açar. Numara verilmemişse kapsamdan çözülür; verilmişse
// aralık üyeliği ve departman içi teklik doğrulanır. Unique index ihlali
// generic bir hata değil, çağırana net bir çakışma olarak döner.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Batch, error) {
	r, err := RangeFor(in.Category, in.SubZone)
	if err != nil {
		return nil, err
	}

	capacity := in.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}

	var created models.Batch
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number := 0
		if in.Number != nil {
			number = *in.Number
			if !r.Contains(number) {
				return ErrNumberOutOfRange
			}
		} else {
			n, err := s.nextNumberInScope(tx, r)
			if err != nil {
				return err
			}
			number = n
		}

		created = models.Batch{
			Number:     number,
			Department: r.Department,
			Category:   in.Category,
			SubZone:    in.SubZone,
			Capacity:   capacity,
			Used:       0,
			Status:     models.BatchStatusActive,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		return audit.WriteLogTx(tx, audit.LogOptions{
			Department:  &created.Department,
			Operator:    in.Operator,
			EntityType:  "batch",
			EntityID:    created.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Parti açıldı: no=%d departman=%d", created.Number, created.Department),
			After:       created,
		})
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrNumberTaken
		}
		return nil, err
	}
	return &created, nil
}

// SetStatus: parti yaşam döngüsü geçişi. Kapanan parti yeniden açılamaz;
// toy kaydı yalnızca active durumda kabul edilir.
func (s *Service) SetStatus(ctx context.Context, id uint, status models.BatchStatus, operator string) (*models.Batch, error) {
	switch status {
	case models.BatchStatusActive, models.BatchStatusPaused, models.BatchStatusClosed:
	default:
		return nil, ErrInvalidStatus
	}

	var batch models.Batch
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&batch, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}
		if batch.Status == models.BatchStatusClosed && status != models.BatchStatusClosed {
			return ErrInvalidStatus
		}
		before := batch
		batch.Status = status
		if err := tx.Model(&models.Batch{}).Where("id = ?", id).Update("status", status).Error; err != nil {
			return err
		}
		return audit.WriteLogTx(tx, audit.LogOptions{
			Department:  &batch.Department,
			Operator:    operator,
			EntityType:  "batch",
			EntityID:    batch.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Parti durumu: %s -> %s", before.Status, status),
			Before:      before,
			After:       batch,
		})
	})
	if err != nil {
		return nil, err
	}
	return &batch, nil
}
