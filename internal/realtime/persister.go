package realtime

import (
	"context"
	"log"
	"time"

	"pamuk-backend/internal/metrics"
	"pamuk-backend/internal/models"

	"gorm.io/gorm"
)

// ReadingStore: persister'ın kalıcılık arayüzü.
type ReadingStore interface {
	SaveReading(ctx context.Context, r *models.Reading) error
	ScaleDepartment(ctx context.Context, scaleID uint) (int, error)
}

type GormReadingStore struct {
	db *gorm.DB
}

func NewGormReadingStore(db *gorm.DB) *GormReadingStore {
	return &GormReadingStore{db: db}
}

func (s *GormReadingStore) SaveReading(ctx context.Context, r *models.Reading) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *GormReadingStore) ScaleDepartment(ctx context.Context, scaleID uint) (int, error) {
	var scale models.ScaleConfig
	if err := s.db.WithContext(ctx).Select("department").First(&scale, "id = ?", scaleID).Error; err != nil {
		return 0, err
	}
	return scale.Department, nil
}

// Persister: yayın sonrası asenkron kalıcılık. Yayın asla veritabanını
// beklemez; kalıcılık hatası loglanır ve yayınlanmış event geri çekilmez
// (nihai tutarlılık sözleşmesi). Sürekli akan stabil olmayan okumalar yazı
// hacmini sınırlamak için kantar başına throttle aralığında örneklenir,
// stabil okumalar her zaman yazılır.
type Persister struct {
	store    ReadingStore
	queue    chan models.Reading
	throttle time.Duration
	now      func() time.Time

	// yalnızca Run goroutine'i dokunur
	lastUnstable map[uint]time.Time
	deptCache    map[uint]int
}

func NewPersister(store ReadingStore, throttle time.Duration, queueSize int) *Persister {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Persister{
		store:        store,
		queue:        make(chan models.Reading, queueSize),
		throttle:     throttle,
		now:          time.Now,
		lastUnstable: make(map[uint]time.Time),
		deptCache:    make(map[uint]int),
	}
}

// Enqueue: non-blocking. Kuyruk doluysa okuma atılır ve sayılır; canlı
// yayın yolu hiçbir koşulda bloklanmaz.
func (p *Persister) Enqueue(r models.Reading) bool {
	select {
	case p.queue <- r:
		return true
	default:
		metrics.ReadingsDropped.Inc()
		countDropped()
		return false
	}
}

// shouldPersist: örnekleme politikası. Stabil okumalar her zaman, stabil
// olmayanlar kantar başına en fazla throttle aralığında bir kalıcıdır.
func shouldPersist(stable bool, last time.Time, hasLast bool, now time.Time, throttle time.Duration) bool {
	if stable {
		return true
	}
	if !hasLast {
		return true
	}
	return now.Sub(last) >= throttle
}

func (p *Persister) persistOne(ctx context.Context, r models.Reading) {
	now := p.now()
	last, hasLast := p.lastUnstable[r.ScaleID]
	if !shouldPersist(r.Stable, last, hasLast, now, p.throttle) {
		return
	}

	if r.Department == 0 {
		dep, ok := p.deptCache[r.ScaleID]
		if !ok {
			var err error
			dep, err = p.store.ScaleDepartment(ctx, r.ScaleID)
			if err != nil {
				metrics.ReadingPersistFailures.Inc()
				countFailed()
				log.Printf("Okuma kalıcılığı: kantar %d departmanı çözülemedi: %v", r.ScaleID, err)
				return
			}
			p.deptCache[r.ScaleID] = dep
		}
		r.Department = dep
	}

	if err := p.store.SaveReading(ctx, &r); err != nil {
		// Yayın zaten yapıldı; hata yalnızca loglanır
		metrics.ReadingPersistFailures.Inc()
		countFailed()
		log.Printf("Okuma kalıcılığı başarısız (kantar %d): %v", r.ScaleID, err)
		return
	}

	metrics.ReadingsPersisted.Inc()
	countPersisted()
	if !r.Stable {
		p.lastUnstable[r.ScaleID] = now
	}
}

// Run: kuyruğu tek goroutine'de tüketir; ctx iptalinde kuyruğu boşaltıp
// çıkar.
func (p *Persister) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case r := <-p.queue:
					p.persistOne(context.Background(), r)
				default:
					return
				}
			}
		case r := <-p.queue:
			p.persistOne(ctx, r)
		}
	}
}
