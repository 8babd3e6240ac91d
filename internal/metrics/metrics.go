package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Yayın ve kalıcılık sayaçları mutabakat için birlikte okunur:
// Broadcast >= Persisted + PersistFailed + Dropped olmalı (aradaki fark
// bilinçli örnekleme, bkz. okuma kalıcılık politikası).
var (
	ReadingsBroadcast = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pamuk_readings_broadcast_total",
		Help: "Kanala yayınlanan okuma sayısı.",
	})
	ReadingsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pamuk_readings_persisted_total",
		Help: "Veritabanına yazılan okuma sayısı.",
	})
	ReadingPersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pamuk_reading_persist_failures_total",
		Help: "Yayınlandıktan sonra kalıcılığı başarısız olan okuma sayısı.",
	})
	ReadingsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pamuk_readings_dropped_total",
		Help: "Kuyruk dolu olduğu için atılan okuma sayısı.",
	})
	SerializationRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pamuk_unit_serialization_retries_total",
		Help: "Toy numaralandırma işleminde serileştirme çakışması sonrası tekrar sayısı.",
	})
	SessionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pamuk_session_conflicts_total",
		Help: "Departman çakışması nedeniyle reddedilen oturum açılışı sayısı.",
	})
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pamuk_active_sessions",
		Help: "Şu an açık tartım oturumu sayısı.",
	})
	ScalesDemoted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pamuk_scales_demoted_total",
		Help: "Heartbeat zaman aşımı ile disconnected durumuna düşürülen kantar sayısı.",
	})
)
