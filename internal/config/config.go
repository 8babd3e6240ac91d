package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	CORSOrigins string

	// Tartım koordinasyonu ayarları
	ConflictWindow   time.Duration // oturum açılışında "yakın zamanda başka kantar aktif mi" penceresi
	HeartbeatTimeout time.Duration // bu süre heartbeat gelmezse kantar disconnected sayılır
	SweepInterval    time.Duration // bağlantı süpürücüsünün tarama aralığı
	PersistThrottle  time.Duration // stabil olmayan okumalar için kalıcılık aralığı
	RequestTimeout   time.Duration // oturum açılış onayı beklerken DB sorgu zaman aşımı
}

func Load() *Config {
	// .env varsa yükle (local development için); yoksa sorun değil
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:      getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=pamuk port=5432 sslmode=disable"),
		CORSOrigins:      getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		ConflictWindow:   time.Duration(getEnvInt("CONFLICT_WINDOW_SECONDS", 30)) * time.Second,
		HeartbeatTimeout: time.Duration(getEnvInt("HEARTBEAT_TIMEOUT_MINUTES", 5)) * time.Minute,
		SweepInterval:    time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", 30)) * time.Second,
		PersistThrottle:  time.Duration(getEnvInt("PERSIST_THROTTLE_MS", 200)) * time.Millisecond,
		RequestTimeout:   time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 5)) * time.Second,
	}

	// Production güvenlik kontrolleri
	if cfg.DatabaseDSN == "host=localhost user=postgres password=postgres dbname=pamuk port=5432 sslmode=disable" {
		log.Println("[WARN] DATABASE_DSN varsayılan değer kullanılıyor, production için mutlaka kendi Postgres bağlantı bilgisini tanımla.")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS varsayılan değer kullanılıyor, production için mutlaka kendi domain'ini tanımla.")
	}
	if cfg.ConflictWindow <= 0 {
		log.Fatal("[FATAL] CONFLICT_WINDOW_SECONDS pozitif olmalı.")
	}
	if cfg.HeartbeatTimeout <= 0 {
		log.Fatal("[FATAL] HEARTBEAT_TIMEOUT_MINUTES pozitif olmalı.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[WARN] %s sayı değil (%q), varsayılan %d kullanılıyor", key, v, def)
		return def
	}
	return n
}
