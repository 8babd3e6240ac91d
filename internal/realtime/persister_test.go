package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pamuk-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fake Store ---

type fakeReadingStore struct {
	mu      sync.Mutex
	saved   []models.Reading
	saveErr error
	depts   map[uint]int
}

func (f *fakeReadingStore) SaveReading(_ context.Context, r *models.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, *r)
	return nil
}

func (f *fakeReadingStore) ScaleDepartment(_ context.Context, scaleID uint) (int, error) {
	if dep, ok := f.depts[scaleID]; ok {
		return dep, nil
	}
	return 0, errors.New("kantar yok")
}

func (f *fakeReadingStore) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

// --- Tests ---

func TestShouldPersist(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	throttle := 200 * time.Millisecond

	testCases := []struct {
		name    string
		stable  bool
		last    time.Time
		hasLast bool
		want    bool
	}{
		{name: "stable always persisted", stable: true, last: now, hasLast: true, want: true},
		{name: "first unstable persisted", stable: false, want: true},
		{name: "unstable inside throttle skipped", stable: false, last: now.Add(-100 * time.Millisecond), hasLast: true, want: false},
		{name: "unstable at throttle persisted", stable: false, last: now.Add(-200 * time.Millisecond), hasLast: true, want: true},
		{name: "unstable past throttle persisted", stable: false, last: now.Add(-time.Second), hasLast: true, want: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, shouldPersist(tc.stable, tc.last, tc.hasLast, now, throttle))
		})
	}
}

func TestPersistOneThrottlesUnstable(t *testing.T) {
	store := &fakeReadingStore{depts: map[uint]int{1: 2}}
	p := NewPersister(store, 200*time.Millisecond, 8)

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return current }

	unstable := models.Reading{ScaleID: 1, WeightKg: 42, Stable: false}

	p.persistOne(context.Background(), unstable)
	p.persistOne(context.Background(), unstable) // throttle içinde, atlanır
	assert.Equal(t, 1, store.savedCount())

	current = current.Add(250 * time.Millisecond)
	p.persistOne(context.Background(), unstable)
	assert.Equal(t, 2, store.savedCount())

	// Stabil okuma throttle'dan bağımsız her zaman yazılır
	p.persistOne(context.Background(), models.Reading{ScaleID: 1, WeightKg: 43, Stable: true})
	assert.Equal(t, 3, store.savedCount())
}

func TestPersistOneResolvesDepartment(t *testing.T) {
	store := &fakeReadingStore{depts: map[uint]int{7: 3}}
	p := NewPersister(store, 200*time.Millisecond, 8)

	p.persistOne(context.Background(), models.Reading{ScaleID: 7, WeightKg: 10, Stable: true})
	require.Equal(t, 1, store.savedCount())
	assert.Equal(t, 3, store.saved[0].Department)
}

// Kalıcılık hatası yayını geri çekmez; yalnızca loglanıp sayılır.
func TestPersistFailureDoesNotPanic(t *testing.T) {
	store := &fakeReadingStore{depts: map[uint]int{1: 1}, saveErr: errors.New("db down")}
	p := NewPersister(store, 200*time.Millisecond, 8)

	assert.NotPanics(t, func() {
		p.persistOne(context.Background(), models.Reading{ScaleID: 1, WeightKg: 5, Stable: true})
	})
	assert.Equal(t, 0, store.savedCount())
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	store := &fakeReadingStore{depts: map[uint]int{1: 1}}
	p := NewPersister(store, 200*time.Millisecond, 2)

	assert.True(t, p.Enqueue(models.Reading{ScaleID: 1, Stable: true}))
	assert.True(t, p.Enqueue(models.Reading{ScaleID: 1, Stable: true}))
	// Kuyruk dolu: yayın yolu bloklanmaz, okuma atılır
	assert.False(t, p.Enqueue(models.Reading{ScaleID: 1, Stable: true}))
}

func TestRunDrainsQueue(t *testing.T) {
	store := &fakeReadingStore{depts: map[uint]int{1: 1}}
	p := NewPersister(store, 200*time.Millisecond, 8)

	p.Enqueue(models.Reading{ScaleID: 1, WeightKg: 1, Stable: true})
	p.Enqueue(models.Reading{ScaleID: 1, WeightKg: 2, Stable: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Run iptalde kuyruğu boşaltıp çıkar
	p.Run(ctx)

	assert.Equal(t, 2, store.savedCount())
}
