package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"pamuk-backend/internal/metrics"
	"pamuk-backend/internal/models"
	"pamuk-backend/internal/session"

	"gorm.io/gorm"
)

// Hub: tüm kanal abonelerine event dağıtan merkez. Okumalar önce yayınlanır,
// kalıcılık sonradan asenkron denenir; operatörler saniye altı geri bildirim
// bekler, veritabanı gecikmesi yayını asla bloklamaz.
type Hub struct {
	db        *gorm.DB
	registry  *session.Registry
	persister *Persister

	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
}

func NewHub(db *gorm.DB, registry *session.Registry, persister *Persister) *Hub {
	return &Hub{
		db:         db,
		registry:   registry,
		persister:  persister,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
	}
}

// Run: hub döngüsü. Abone kümesine yalnızca bu goroutine dokunur.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.teardownConn(c.id)
		case msg := <-h.broadcast:
			for c := range h.clients {
				c.trySend(msg)
			}
		}
	}
}

// Broadcast: event'i tüm abonelere gönderir.
func (h *Hub) Broadcast(event string, data any) {
	msg, err := marshalEvent(event, data)
	if err != nil {
		log.Printf("Event serileştirilemedi (%s): %v", event, err)
		return
	}
	h.broadcast <- msg
}

// NotifyScaleDisconnected: süpürücünün düşürdüğü kantarı duyurur.
func (h *Hub) NotifyScaleDisconnected(scale models.ScaleConfig) {
	h.Broadcast("scale:disconnected", ScaleDisconnectedPayload{
		ScaleID:    scale.ID,
		Department: scale.Department,
	})
}

// teardownConn: bağlantı koptuğunda o bağlantının sahip olduğu oturumlar
// zorla sonlandırılır ve duyurulur.
func (h *Hub) teardownConn(connID string) {
	ended := h.registry.DropConn(connID)
	for _, s := range ended {
		h.Broadcast("session:ended", SessionEndedPayload{
			SessionID: s.ID,
			ScaleID:   s.ScaleID,
			Reason:    "client disconnected",
		})
	}
}

// handleEvent: tek bir gelen mesajı işler. Okuma yolu kasten en üsttedir
// ve persist'ten önce yayın yapar.
func (h *Hub) handleEvent(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.reply("error", AckPayload{OK: false, Error: "geçersiz mesaj"})
		return
	}

	switch env.Event {
	case "reading":
		h.handleReading(c, env.Data)
	case "register":
		h.handleRegister(c, env.Data)
	case "session:start":
		h.handleSessionStart(c, env.Data)
	case "session:end":
		h.handleSessionEnd(c, env.Data)
	case "heartbeat":
		h.handleHeartbeat(c, env.Data)
	case "department:info":
		h.handleDepartmentInfo(c, env.Data)
	default:
		c.reply("error", AckPayload{OK: false, Error: "bilinmeyen event: " + env.Event})
	}
}

func (h *Hub) handleReading(c *Client, data json.RawMessage) {
	var p ReadingPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ScaleID == 0 {
		c.reply("error", AckPayload{OK: false, Error: "geçersiz okuma"})
		return
	}

	// Önce yayın: abonelere anında, veritabanından bağımsız
	h.Broadcast("reading", p)
	metrics.ReadingsBroadcast.Inc()
	countBroadcast()

	// Sonra asenkron kalıcılık (örnekleme politikası persister'da)
	h.persister.Enqueue(models.Reading{
		ScaleID:  p.ScaleID,
		BatchID:  p.BatchID,
		UnitID:   p.UnitID,
		WeightKg: p.WeightKg,
		Stable:   p.Stable,
		Source:   models.ReadingSourceChannel,
	})
}

func (h *Hub) handleRegister(c *Client, data json.RawMessage) {
	var p RegisterPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ScaleID == 0 {
		c.reply("register:ack", AckPayload{OK: false, Error: "geçersiz kayıt isteği"})
		return
	}

	scale, err := h.registry.RegisterConn(context.Background(), p.ScaleID, c.id)
	if err != nil {
		c.reply("register:ack", AckPayload{OK: false, Error: registerErrorMessage(err)})
		return
	}
	if p.Department != 0 && p.Department != scale.Department {
		c.reply("register:ack", AckPayload{OK: false, Error: "kantar bu departmana bağlı değil"})
		return
	}
	c.reply("register:ack", AckPayload{OK: true})
}

func registerErrorMessage(err error) string {
	switch err {
	case session.ErrScaleNotFound:
		return "kantar tanımlı değil"
	case session.ErrScaleInactive:
		return "kantar pasif durumda"
	default:
		return "kayıt başarısız"
	}
}

func (h *Hub) handleSessionStart(c *Client, data json.RawMessage) {
	var p SessionStartPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ScaleID == 0 {
		c.reply("session:conflict", SessionConflictPayload{Reason: "geçersiz oturum isteği"})
		return
	}

	s, err := h.registry.StartSession(context.Background(), p.ScaleID, p.SessionID, p.BatchID, c.id)
	if err != nil {
		// Çakışma yalnızca isteyene gider, yayına çıkmaz
		var conflict *session.ConflictError
		if errors.As(err, &conflict) {
			c.reply("session:conflict", SessionConflictPayload{
				Department: conflict.Department,
				ScaleID:    conflict.ScaleID,
				Reason:     conflict.Reason,
			})
			return
		}
		c.reply("session:conflict", SessionConflictPayload{Reason: registerErrorMessage(err)})
		return
	}

	h.Broadcast("session:started", SessionStartedPayload{
		SessionID:  s.ID,
		ScaleID:    s.ScaleID,
		Department: s.Department,
		BatchID:    s.BatchID,
		StartedAt:  s.StartedAt.Format(time.RFC3339),
	})
}

func (h *Hub) handleSessionEnd(c *Client, data json.RawMessage) {
	var p SessionEndPayload
	if err := json.Unmarshal(data, &p); err != nil || p.SessionID == "" {
		c.reply("error", AckPayload{OK: false, Error: "geçersiz oturum kapatma isteği"})
		return
	}

	// Oturum yoksa sessizce geç (idempotent)
	if ended := h.registry.EndSession(p.SessionID); ended != nil {
		h.Broadcast("session:ended", SessionEndedPayload{
			SessionID: ended.ID,
			ScaleID:   ended.ScaleID,
			Reason:    "operator",
		})
	}
}

func (h *Hub) handleHeartbeat(c *Client, data json.RawMessage) {
	var p HeartbeatPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ScaleID == 0 {
		c.reply("heartbeat:ack", AckPayload{OK: false, Error: "geçersiz heartbeat"})
		return
	}

	if err := h.registry.Heartbeat(context.Background(), p.ScaleID); err != nil {
		c.reply("heartbeat:ack", AckPayload{OK: false, Error: registerErrorMessage(err)})
		return
	}
	c.reply("heartbeat:ack", AckPayload{OK: true})
}

type departmentInfoResponse struct {
	Department int           `json:"department"`
	Scales     []scaleInfo   `json:"scales"`
	Batches    []batchInfo   `json:"batches"`
	Sessions   []sessionInfo `json:"sessions"`
}

type scaleInfo struct {
	ID               uint                         `json:"id"`
	Name             string                       `json:"name"`
	Active           bool                         `json:"active"`
	ConnectionStatus models.ScaleConnectionStatus `json:"connection_status"`
}

type batchInfo struct {
	ID       uint `json:"id"`
	Number   int  `json:"number"`
	Capacity int  `json:"capacity"`
	Used     int  `json:"used"`
}

type sessionInfo struct {
	SessionID string `json:"session_id"`
	ScaleID   uint   `json:"scale_id"`
	BatchID   *uint  `json:"batch_id,omitempty"`
	StartedAt string `json:"started_at"`
}

func (h *Hub) handleDepartmentInfo(c *Client, data json.RawMessage) {
	var p DepartmentInfoPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Department == 0 {
		c.reply("error", AckPayload{OK: false, Error: "geçersiz departman"})
		return
	}

	resp := departmentInfoResponse{Department: p.Department}

	var scales []models.ScaleConfig
	if err := h.db.Where("department = ?", p.Department).Find(&scales).Error; err != nil {
		c.reply("error", AckPayload{OK: false, Error: "departman bilgisi alınamadı"})
		return
	}
	for _, s := range scales {
		resp.Scales = append(resp.Scales, scaleInfo{
			ID:               s.ID,
			Name:             s.Name,
			Active:           s.Active,
			ConnectionStatus: s.ConnectionStatus,
		})
	}

	var batches []models.Batch
	if err := h.db.
		Where("department = ? AND status = ?", p.Department, models.BatchStatusActive).
		Order("number ASC").Find(&batches).Error; err != nil {
		c.reply("error", AckPayload{OK: false, Error: "departman bilgisi alınamadı"})
		return
	}
	for _, b := range batches {
		resp.Batches = append(resp.Batches, batchInfo{ID: b.ID, Number: b.Number, Capacity: b.Capacity, Used: b.Used})
	}

	for _, s := range h.registry.SessionsInDepartment(p.Department) {
		resp.Sessions = append(resp.Sessions, sessionInfo{
			SessionID: s.ID,
			ScaleID:   s.ScaleID,
			BatchID:   s.BatchID,
			StartedAt: s.StartedAt.Format(time.RFC3339),
		})
	}

	c.reply("department:info", resp)
}
