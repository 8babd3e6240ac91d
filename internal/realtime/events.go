package realtime

import "encoding/json"

// Kanal protokolü: her iki yönde de tek JSON zarfı {event, data}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func marshalEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// Gelen event'ler

type RegisterPayload struct {
	ScaleID    uint `json:"scale_id"`
	Department int  `json:"department"`
}

type ReadingPayload struct {
	ScaleID   uint    `json:"scale_id"`
	WeightKg  float64 `json:"weight_kg"`
	Stable    bool    `json:"stable"`
	UnitID    *uint   `json:"unit_id,omitempty"`
	SessionID string  `json:"session_id,omitempty"`
	BatchID   *uint   `json:"batch_id,omitempty"`
}

type SessionStartPayload struct {
	ScaleID   uint   `json:"scale_id"`
	SessionID string `json:"session_id,omitempty"` // boşsa sunucu üretir
	BatchID   *uint  `json:"batch_id,omitempty"`
}

type SessionEndPayload struct {
	SessionID string `json:"session_id"`
}

type HeartbeatPayload struct {
	ScaleID uint `json:"scale_id"`
}

type DepartmentInfoPayload struct {
	Department int `json:"department"`
}

// Giden event'ler

type AckPayload struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type SessionStartedPayload struct {
	SessionID  string `json:"session_id"`
	ScaleID    uint   `json:"scale_id"`
	Department int    `json:"department"`
	BatchID    *uint  `json:"batch_id,omitempty"`
	StartedAt  string `json:"started_at"`
}

type SessionConflictPayload struct {
	Department int    `json:"department"`
	ScaleID    uint   `json:"scale_id,omitempty"` // çakışan kantar
	Reason     string `json:"reason"`
}

type SessionEndedPayload struct {
	SessionID string `json:"session_id"`
	ScaleID   uint   `json:"scale_id"`
	Reason    string `json:"reason"`
}

type ScaleDisconnectedPayload struct {
	ScaleID    uint `json:"scale_id"`
	Department int  `json:"department"`
}
