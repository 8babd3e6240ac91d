package batch

import (
	"errors"

	"pamuk-backend/internal/models"
)

var (
	ErrSubZoneRequired  = errors.New("sub-zone required for lint batches")
	ErrSubZoneForbidden = errors.New("sub-zone only valid for lint batches")
	ErrUnknownCategory  = errors.New("unknown batch category")
	ErrUnknownSubZone   = errors.New("unknown sub-zone")
	ErrRangeExhausted   = errors.New("batch number range exhausted")
	ErrNumberOutOfRange = errors.New("batch number outside scope range")
	ErrNumberTaken      = errors.New("batch number already taken in department")
	ErrNotFound         = errors.New("batch not found")
	ErrInvalidStatus    = errors.New("invalid batch status transition")
	ErrInvalidCapacity  = errors.New("batch capacity must be positive")
)

// NumberRange: bir kategori/alt bölge ikilisinin departman kapsamındaki
// numara aralığı. Ceiling = 0 sınırsız demektir.
type NumberRange struct {
	Department int
	Floor      int
	Ceiling    int
}

// Unbounded: aralığın üst sınırı var mı?
func (r NumberRange) Unbounded() bool { return r.Ceiling == 0 }

// Contains: n bu aralığın içinde mi?
func (r NumberRange) Contains(n int) bool {
	if n < r.Floor {
		return false
	}
	return r.Unbounded() || n <= r.Ceiling
}

type scopeKey struct {
	category models.BatchCategory
	subZone  string
}

// Kapalı tablo: kategori x alt bölge -> aralık. Lint'in iki alt bölgesi
// ayrı departmanlarda ayrık aralıklar kullanır; linter ve çiğit tek ortak
// sayaçla departman 3'ü paylaşır. Yeni kategori eklemek tabloya satır
// eklemekten ibarettir, çalışma zamanı string karşılaştırması yoktur.
var numberRanges = map[scopeKey]NumberRange{
	{models.BatchCategoryLint, "A"}:  {Department: 1, Floor: 1, Ceiling: 200},
	{models.BatchCategoryLint, "B"}:  {Department: 2, Floor: 201, Ceiling: 400},
	{models.BatchCategoryLinter, ""}: {Department: 3, Floor: 401, Ceiling: 0},
	{models.BatchCategorySeed, ""}:   {Department: 3, Floor: 401, Ceiling: 0},
}

// RangeFor: kategori ve alt bölgeden numara aralığını çözer. Alt bölge
// yalnızca lint için zorunludur, diğerleri için yasaktır.
func RangeFor(category models.BatchCategory, subZone string) (NumberRange, error) {
	switch category {
	case models.BatchCategoryLint:
		if subZone == "" {
			return NumberRange{}, ErrSubZoneRequired
		}
	case models.BatchCategoryLinter, models.BatchCategorySeed:
		if subZone != "" {
			return NumberRange{}, ErrSubZoneForbidden
		}
	default:
		return NumberRange{}, ErrUnknownCategory
	}

	r, ok := numberRanges[scopeKey{category, subZone}]
	if !ok {
		return NumberRange{}, ErrUnknownSubZone
	}
	return r, nil
}

// nextInRange: kapsamdaki en büyük mevcut numaradan bir sonrakini önerir.
// Hiç kayıt yoksa tabandan başlar; tavan aşılırsa aralık tükenmiştir ve
// tekrar denemenin anlamı yoktur.
func nextInRange(r NumberRange, maxExisting int, hasExisting bool) (int, error) {
	if !hasExisting {
		return r.Floor, nil
	}
	next := maxExisting + 1
	if next < r.Floor {
		next = r.Floor
	}
	if !r.Unbounded() && next > r.Ceiling {
		return 0, ErrRangeExhausted
	}
	return next, nil
}
