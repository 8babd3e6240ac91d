package unit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pamuk-backend/internal/audit"
	"pamuk-backend/internal/database"
	"pamuk-backend/internal/metrics"
	"pamuk-backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrBatchNotFound    = errors.New("batch not found")
	ErrBatchNotActive   = errors.New("batch is not active")
	ErrBatchFull        = errors.New("batch capacity exhausted")
	ErrSequenceTaken    = errors.New("sequence number already taken")
	ErrInvalidWeights   = errors.New("invalid gross/tare weights")
	ErrInvalidSequence  = errors.New("sequence number must be positive")
	ErrUnitNotFound     = errors.New("unit not found")
	ErrUnitReferenced   = errors.New("unit referenced by persisted readings")
)

// Tekrarlanacak deneme sayısı: serileştirme yarışını kaybeden transaction
// şeffafça yeniden denenir, sonra çakışma olarak yüzeye çıkar.
const defaultMaxRetries = 3

// Allocator: parti içinde sıra numarası üretip toy'u tek transaction'da
// kalıcılaştırır. Doğruluk mekanizması uygulama kilidi değil, serializable
// izolasyon + (batch_id, sequence_no) unique index'idir.
type Allocator struct {
	db         *gorm.DB
	maxRetries int
}

func NewAllocator(db *gorm.DB) *Allocator {
	return &Allocator{db: db, maxRetries: defaultMaxRetries}
}

type CreateInput struct {
	BatchID    uint
	SequenceNo *int // boşsa max+1 önerilir
	GrossKg    float64
	TareKg     float64
	Operator   string
}

// validateWeights: ağırlıklar transaction açılmadan önce doğrulanır.
func validateWeights(gross, tare float64) error {
	if gross < 0 || tare < 0 {
		return fmt.Errorf("%w: negatif ağırlık", ErrInvalidWeights)
	}
	if gross < tare {
		return fmt.Errorf("%w: brüt daradan küçük olamaz", ErrInvalidWeights)
	}
	return nil
}

// proposeSequence: mevcut en büyük sıra numarasından önerilen numarayı ve
// kapasite sınırını denetler. Kapasite hatası terminaldir, tekrar denenmez.
func proposeSequence(explicit *int, maxExisting int, capacity int) (int, error) {
	seq := maxExisting + 1
	if explicit != nil {
		seq = *explicit
	}
	if seq < 1 {
		return 0, ErrInvalidSequence
	}
	if seq > capacity {
		return 0, ErrBatchFull
	}
	return seq, nil
}

// Create: yeni toy kaydı. Numara önerisi, toy satırı, used artışı ve audit
// kaydı aynı serializable transaction'da commit olur; yarışı kaybeden
// deneme sınırlı sayıda yinelenir.
func (a *Allocator) Create(ctx context.Context, in CreateInput) (*models.Unit, error) {
	if err := validateWeights(in.GrossKg, in.TareKg); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		created, err := a.tryCreate(ctx, in)
		if err == nil {
			return created, nil
		}
		if database.IsSerializationFailure(err) {
			metrics.SerializationRetries.Inc()
			lastErr = err
			continue
		}
		if database.IsUniqueViolation(err) {
			// Savunma katmanı: serileştirme mantığı atlasa bile unique
			// index aynı numarayı ikinci kez vermez
			return nil, ErrSequenceTaken
		}
		if database.IsCheckViolation(err) {
			return nil, ErrBatchFull
		}
		return nil, err
	}
	return nil, fmt.Errorf("%w: %v", ErrSequenceTaken, lastErr)
}

func (a *Allocator) tryCreate(ctx context.Context, in CreateInput) (*models.Unit, error) {
	var created models.Unit
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var batch models.Batch
		if err := tx.First(&batch, "id = ?", in.BatchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBatchNotFound
			}
			return err
		}
		if batch.Status != models.BatchStatusActive {
			return ErrBatchNotActive
		}
		if batch.Used >= batch.Capacity {
			return ErrBatchFull
		}

		var maxSeq sql.NullInt64
		if err := tx.Model(&models.Unit{}).
			Where("batch_id = ?", batch.ID).
			Select("MAX(sequence_no)").
			Scan(&maxSeq).Error; err != nil {
			return err
		}

		seq, err := proposeSequence(in.SequenceNo, int(maxSeq.Int64), batch.Capacity)
		if err != nil {
			return err
		}

		created = models.Unit{
			BatchID:    batch.ID,
			SequenceNo: seq,
			GrossKg:    in.GrossKg,
			TareKg:     in.TareKg,
			NetKg:      in.GrossKg - in.TareKg,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Batch{}).
			Where("id = ?", batch.ID).
			UpdateColumn("used", gorm.Expr("used + 1")).Error; err != nil {
			return err
		}

		return audit.WriteLogTx(tx, audit.LogOptions{
			Department:  &batch.Department,
			Operator:    in.Operator,
			EntityType:  "unit",
			EntityID:    created.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Toy kaydı: parti=%d sıra=%d net=%.2f", batch.Number, seq, created.NetKg),
			After:       created,
		})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Delete: toy'u siler ve used sayacını aynı transaction'da geri sayar;
// kalıcı bir okuma toy'a referans veriyorsa silme reddedilir.
func (a *Allocator) Delete(ctx context.Context, unitID uint, operator string) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.Unit
		if err := tx.First(&u, "id = ?", unitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnitNotFound
			}
			return err
		}

		var refCount int64
		if err := tx.Model(&models.Reading{}).Where("unit_id = ?", unitID).Count(&refCount).Error; err != nil {
			return err
		}
		if refCount > 0 {
			return ErrUnitReferenced
		}

		var batch models.Batch
		if err := tx.First(&batch, "id = ?", u.BatchID).Error; err != nil {
			return err
		}

		if err := tx.Delete(&models.Unit{}, "id = ?", unitID).Error; err != nil {
			return err
		}

		// used asla 0'ın altına inmez
		if err := tx.Model(&models.Batch{}).
			Where("id = ? AND used > 0", u.BatchID).
			UpdateColumn("used", gorm.Expr("used - 1")).Error; err != nil {
			return err
		}

		return audit.WriteLogTx(tx, audit.LogOptions{
			Department:  &batch.Department,
			Operator:    operator,
			EntityType:  "unit",
			EntityID:    u.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Toy silindi: parti=%d sıra=%d", batch.Number, u.SequenceNo),
			Before:      u,
			After:       u,
		})
	})
}
