package realtime

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// Yayın/kalıcılık mutabakatı: yayın-önce-kalıcılık sözleşmesi atomik değil,
// nihai tutarlıdır. Bu sayaçlar aradaki açığın sınırlı kalıp kalmadığını
// izlemek içindir; fark = bilinçli örnekleme + kuyruk taşması + yazma hatası.
var (
	broadcastTotal int64
	persistedTotal int64
	failedTotal    int64
	droppedTotal   int64
)

func countBroadcast() { atomic.AddInt64(&broadcastTotal, 1) }
func countPersisted() { atomic.AddInt64(&persistedTotal, 1) }
func countFailed()    { atomic.AddInt64(&failedTotal, 1) }
func countDropped()   { atomic.AddInt64(&droppedTotal, 1) }

// Reconciler: periyodik denetim satırı yazar. Kalıcılık hatası ya da kuyruk
// taşması görülen her aralıkta açık raporlanır.
type Reconciler struct {
	interval time.Duration
}

func NewReconciler(interval time.Duration) *Reconciler {
	return &Reconciler{interval: interval}
}

func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b := atomic.LoadInt64(&broadcastTotal)
			p := atomic.LoadInt64(&persistedTotal)
			f := atomic.LoadInt64(&failedTotal)
			d := atomic.LoadInt64(&droppedTotal)
			if f > 0 || d > 0 {
				log.Printf("Okuma mutabakatı: yayın=%d kalıcı=%d hata=%d atılan=%d", b, p, f, d)
			}
		}
	}
}
