package main

import (
	"context"
	"log"
	"strings"

	"pamuk-backend/internal/audit"
	"pamuk-backend/internal/batch"
	"pamuk-backend/internal/config"
	"pamuk-backend/internal/database"
	"pamuk-backend/internal/realtime"
	"pamuk-backend/internal/scale"
	"pamuk-backend/internal/session"
	"pamuk-backend/internal/unit"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	// Tartım koordinasyonu: oturum kayıt defteri, kanal, asenkron kalıcılık
	registry := session.NewRegistry(session.NewGormStore(database.DB), cfg.ConflictWindow, cfg.RequestTimeout)
	persister := realtime.NewPersister(realtime.NewGormReadingStore(database.DB), cfg.PersistThrottle, 256)
	hub := realtime.NewHub(database.DB, registry, persister)
	sweeper := session.NewSweeper(database.DB, cfg.SweepInterval, cfg.HeartbeatTimeout, hub.NotifyScaleDisconnected)
	reconciler := realtime.NewReconciler(cfg.SweepInterval)

	ctx := context.Background()
	go hub.Run(ctx)
	go persister.Run(ctx)
	go sweeper.Run(ctx)
	go reconciler.Run(ctx)

	batchSvc := batch.NewService(database.DB)
	allocator := unit.NewAllocator(database.DB)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, X-Operator",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Canlı kanal
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(hub.HandleConn))

	api := app.Group("/api")

	// Kantar yönetimi
	api.Post("/scales", scale.CreateScaleHandler())
	api.Get("/scales", scale.ListScalesHandler())
	api.Get("/scales/:id", scale.GetScaleHandler())
	api.Put("/scales/:id", scale.UpdateScaleHandler())
	api.Post("/scales/sweep", scale.SweepHandler(sweeper))

	// Okumalar (elle giriş + geçmiş)
	api.Post("/readings", scale.CreateReadingHandler())
	api.Get("/scales/:id/readings", scale.ListReadingsHandler())
	api.Get("/scales/:id/readings/latest", scale.LatestReadingHandler())

	// Parti numaralandırma
	api.Post("/batches", batch.CreateBatchHandler(batchSvc))
	api.Get("/batches", batch.ListBatchesHandler())
	api.Get("/batches/next-number", batch.NextNumberHandler(batchSvc))
	api.Get("/batches/:id", batch.GetBatchHandler())
	api.Put("/batches/:id/status", batch.UpdateBatchStatusHandler(batchSvc))

	// Toy kayıtları (sıra numarası tahsisi)
	api.Post("/batches/:id/units", unit.CreateUnitHandler(allocator))
	api.Get("/batches/:id/units", unit.ListUnitsHandler())
	api.Delete("/units/:id", unit.DeleteUnitHandler(allocator))

	// Audit logs
	api.Get("/audit-logs", audit.ListAuditLogsHandler())
	api.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
