package realtime

import (
	"log"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Client: tek websocket bağlantısı. Yazma tek goroutine'den yapılır (send
// kanalı), okuma HandleConn'un kendi goroutine'inde döner.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// trySend: non-blocking gönderim. Yavaş abonenin kuyruğu dolarsa mesaj o
// aboneye gitmez; yayın yolu bloklanmaz.
func (c *Client) trySend(msg []byte) {
	select {
	case c.send <- msg:
	default:
	}
}

// reply: yalnızca bu istemciye giden cevap (ack, conflict, info).
func (c *Client) reply(event string, data any) {
	msg, err := marshalEvent(event, data)
	if err != nil {
		log.Printf("Cevap serileştirilemedi (%s): %v", event, err)
		return
	}
	c.trySend(msg)
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// HandleConn: fiber websocket handler gövdesi; bağlantı kapanana kadar
// bloklar. Kopuş hub'a bildirilir, bağlantının sahip olduğu oturumlar
// zorla sonlandırılıp duyurulur.
func (h *Hub) HandleConn(conn *websocket.Conn) {
	c := &Client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, 32),
	}
	h.register <- c
	go c.writePump()

	defer func() {
		h.unregister <- c
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.handleEvent(c, msg)
	}
}
