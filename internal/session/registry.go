package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pamuk-backend/internal/metrics"
	"pamuk-backend/internal/models"

	"github.com/google/uuid"
)

var (
	ErrScaleNotFound = errors.New("scale not found")
	ErrScaleInactive = errors.New("scale is not active")
)

// ConflictError: oturum açılışı reddedildiğinde hangi departman/kantarın
// çakıştığını açıkça söyler.
type ConflictError struct {
	Department int
	ScaleID    uint // çakışan kantar (0 = kantar bazlı değil)
	Reason     string
}

func (e *ConflictError) Error() string {
	if e.ScaleID != 0 {
		return fmt.Sprintf("departman %d meşgul: kantar %d (%s)", e.Department, e.ScaleID, e.Reason)
	}
	return fmt.Sprintf("departman %d meşgul (%s)", e.Department, e.Reason)
}

// Store: registry'nin ihtiyaç duyduğu kalıcı durum. Oturumların kendisi
// kalıcı değildir; process yeniden başlarsa tüm oturumlar örtük düşer.
type Store interface {
	ScaleByID(ctx context.Context, id uint) (*models.ScaleConfig, error)
	RecentReadingExists(ctx context.Context, department int, excludeScaleID uint, since time.Time) (bool, error)
	MarkHeartbeat(ctx context.Context, scaleID uint, at time.Time) error
}

// Session: bir kantarı bir operatör akışına bağlayan geçici kayıt.
// Yalnızca process belleğinde yaşar; "şu anki operasyonel iddia"dır,
// tarihsel gerçek değildir.
type Session struct {
	ID         string
	ScaleID    uint
	Department int
	BatchID    *uint
	ConnID     string
	StartedAt  time.Time
}

type connEntry struct {
	connID     string
	department int
	lastSeen   time.Time
}

// Registry: process-yerel oturum ve bağlantı durumu. Veritabanı dışındaki
// tek paylaşımlı mutable durum budur; birden çok koordinatör process'ine
// ölçeklenirken dışarı (TTL'li bir key-value store'a) taşınmalıdır.
type Registry struct {
	mu             sync.Mutex
	store          Store
	conflictWindow time.Duration
	requestTimeout time.Duration
	now            func() time.Time

	sessions  map[string]*Session // sessionID -> oturum
	byScale   map[uint]string     // scaleID -> sessionID
	claims    map[int]string      // department -> sessionID (atomik iddia)
	connected map[uint]*connEntry // scaleID -> canlı bağlantı
}

func NewRegistry(store Store, conflictWindow, requestTimeout time.Duration) *Registry {
	return &Registry{
		store:          store,
		conflictWindow: conflictWindow,
		requestTimeout: requestTimeout,
		now:            time.Now,
		sessions:       make(map[string]*Session),
		byScale:        make(map[uint]string),
		claims:         make(map[int]string),
		connected:      make(map[uint]*connEntry),
	}
}

// StartSession: departman başına tek aktif tartım akışı garantisi.
// Departman iddiası mutex altında tek adımda alınır (yarışan iki açılış
// aynı anda geçemez); okuma penceresi sezgiseli başka process'lerden akan
// kantarlara karşı ikincil kontroldür. sessionID boşsa üretilir.
func (r *Registry) StartSession(ctx context.Context, scaleID uint, sessionID string, batchID *uint, connID string) (*Session, error) {
	scale, err := r.store.ScaleByID(ctx, scaleID)
	if err != nil {
		return nil, err
	}
	if scale == nil {
		return nil, ErrScaleNotFound
	}
	if !scale.Active {
		return nil, ErrScaleInactive
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	// 1. adım: atomik departman iddiası
	r.mu.Lock()
	// Aynı kantarın önceki oturumu örtük olarak devrolur
	if oldSID, ok := r.byScale[scaleID]; ok {
		r.removeSessionLocked(oldSID)
	}
	// İddia sahibinin oturumu henüz kesinleşmemiş olabilir (probe sürüyor);
	// o durumda da departman meşguldür
	if owner, ok := r.claims[scale.Department]; ok && owner != sessionID {
		var ownerScale uint
		if owned := r.sessions[owner]; owned != nil {
			ownerScale = owned.ScaleID
		}
		if ownerScale != scaleID {
			r.mu.Unlock()
			metrics.SessionConflicts.Inc()
			return nil, &ConflictError{Department: scale.Department, ScaleID: ownerScale, Reason: "açık tartım oturumu var"}
		}
	}
	for otherID, entry := range r.connected {
		if otherID != scaleID && entry.department == scale.Department {
			r.mu.Unlock()
			metrics.SessionConflicts.Inc()
			return nil, &ConflictError{Department: scale.Department, ScaleID: otherID, Reason: "başka kantar bağlı"}
		}
	}
	r.claims[scale.Department] = sessionID
	r.mu.Unlock()

	// 2. adım: yakın geçmişte başka kantardan okuma var mı? (DB sorgusu
	// mutex dışında; iddia departmanı tuttuğu için yarış açılmaz)
	probeCtx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	defer cancel()
	since := r.now().Add(-r.conflictWindow)
	busy, err := r.store.RecentReadingExists(probeCtx, scale.Department, scaleID, since)
	if err != nil {
		r.releaseClaim(scale.Department, sessionID)
		return nil, err
	}
	if busy {
		r.releaseClaim(scale.Department, sessionID)
		metrics.SessionConflicts.Inc()
		return nil, &ConflictError{Department: scale.Department, Reason: "çakışma penceresi içinde başka kantardan okuma kaydı var"}
	}

	// 3. adım: oturumu kesinleştir
	s := &Session{
		ID:         sessionID,
		ScaleID:    scaleID,
		Department: scale.Department,
		BatchID:    batchID,
		ConnID:     connID,
		StartedAt:  r.now(),
	}
	r.mu.Lock()
	r.sessions[sessionID] = s
	r.byScale[scaleID] = sessionID
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	return s, nil
}

func (r *Registry) releaseClaim(department int, sessionID string) {
	r.mu.Lock()
	if r.claims[department] == sessionID {
		delete(r.claims, department)
	}
	r.mu.Unlock()
}

// EndSession: oturumu düşürür; oturum yoksa sorun değil (idempotent).
// Yayın için sonlanan oturumu döner, yoksa nil.
func (r *Registry) EndSession(sessionID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeSessionLocked(sessionID)
}

func (r *Registry) removeSessionLocked(sessionID string) *Session {
	s, ok := r.sessions[sessionID]
	if !ok {
		// İddia kesinleşmemiş bir oturuma ait olabilir
		for dep, owner := range r.claims {
			if owner == sessionID {
				delete(r.claims, dep)
			}
		}
		return nil
	}
	delete(r.sessions, sessionID)
	if r.byScale[s.ScaleID] == sessionID {
		delete(r.byScale, s.ScaleID)
	}
	if r.claims[s.Department] == sessionID {
		delete(r.claims, s.Department)
	}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return s
}

// RegisterConn: kantarın canlı kanal bağlantısını kaydeder ve heartbeat
// olarak sayar.
func (r *Registry) RegisterConn(ctx context.Context, scaleID uint, connID string) (*models.ScaleConfig, error) {
	scale, err := r.store.ScaleByID(ctx, scaleID)
	if err != nil {
		return nil, err
	}
	if scale == nil {
		return nil, ErrScaleNotFound
	}
	if !scale.Active {
		return nil, ErrScaleInactive
	}

	now := r.now()
	r.mu.Lock()
	r.connected[scaleID] = &connEntry{connID: connID, department: scale.Department, lastSeen: now}
	r.mu.Unlock()

	if err := r.store.MarkHeartbeat(ctx, scaleID, now); err != nil {
		return nil, err
	}
	return scale, nil
}

// Heartbeat: kantarın canlılık sinyali; bağlantı kaydını tazeler ve
// kalıcı durumda connected işaretler.
func (r *Registry) Heartbeat(ctx context.Context, scaleID uint) error {
	scale, err := r.store.ScaleByID(ctx, scaleID)
	if err != nil {
		return err
	}
	if scale == nil {
		return ErrScaleNotFound
	}

	now := r.now()
	r.mu.Lock()
	if entry, ok := r.connected[scaleID]; ok {
		entry.lastSeen = now
	}
	r.mu.Unlock()

	return r.store.MarkHeartbeat(ctx, scaleID, now)
}

// DropConn: kanal bağlantısı koptuğunda o bağlantıya ait kantar kayıtlarını
// siler ve bağlantının sahip olduğu oturumları zorla sonlandırır.
// Sonlanan oturumlar yayın için döner.
func (r *Registry) DropConn(connID string) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	for scaleID, entry := range r.connected {
		if entry.connID == connID {
			delete(r.connected, scaleID)
		}
	}

	var ended []*Session
	for sid, s := range r.sessions {
		if s.ConnID == connID {
			if removed := r.removeSessionLocked(sid); removed != nil {
				ended = append(ended, removed)
			}
		}
	}
	return ended
}

// SessionsInDepartment: departmandaki açık oturumların anlık görüntüsü.
func (r *Registry) SessionsInDepartment(department int) []Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Session
	for _, s := range r.sessions {
		if s.Department == department {
			out = append(out, *s)
		}
	}
	return out
}

// SessionByID: oturumun anlık kopyası, yoksa nil.
func (r *Registry) SessionByID(sessionID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		copied := *s
		return &copied
	}
	return nil
}
