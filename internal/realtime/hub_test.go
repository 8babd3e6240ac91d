package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"pamuk-backend/internal/models"
	"pamuk-backend/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessionStore struct {
	scales map[uint]models.ScaleConfig
	recent bool
}

func (f *fakeSessionStore) ScaleByID(_ context.Context, id uint) (*models.ScaleConfig, error) {
	if s, ok := f.scales[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (f *fakeSessionStore) RecentReadingExists(_ context.Context, _ int, _ uint, _ time.Time) (bool, error) {
	return f.recent, nil
}

func (f *fakeSessionStore) MarkHeartbeat(_ context.Context, _ uint, _ time.Time) error {
	return nil
}

func newTestHub(t *testing.T) (*Hub, *fakeReadingStore, *fakeSessionStore) {
	t.Helper()
	readStore := &fakeReadingStore{depts: map[uint]int{1: 1, 2: 1}}
	sessStore := &fakeSessionStore{scales: map[uint]models.ScaleConfig{
		1: {ID: 1, Name: "kantar-1", Department: 1, Active: true},
		2: {ID: 2, Name: "kantar-2", Department: 1, Active: true},
	}}
	registry := session.NewRegistry(sessStore, 30*time.Second, time.Second)
	persister := NewPersister(readStore, 200*time.Millisecond, 8)
	return NewHub(nil, registry, persister), readStore, sessStore
}

func newTestClient() *Client {
	return &Client{id: "test-conn", send: make(chan []byte, 8)}
}

func decodeEnvelope(t *testing.T, raw []byte) (string, json.RawMessage) {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env.Event, env.Data
}

func mustEvent(t *testing.T, event string, data any) []byte {
	t.Helper()
	msg, err := marshalEvent(event, data)
	require.NoError(t, err)
	return msg
}

// Okuma: önce yayın kuyruğuna, sonra kalıcılık kuyruğuna düşmeli.
func TestHandleReadingBroadcastsBeforePersist(t *testing.T) {
	h, _, _ := newTestHub(t)
	c := newTestClient()

	h.handleEvent(c, mustEvent(t, "reading", ReadingPayload{ScaleID: 1, WeightKg: 42.5, Stable: false}))

	select {
	case raw := <-h.broadcast:
		event, data := decodeEnvelope(t, raw)
		assert.Equal(t, "reading", event)
		var p ReadingPayload
		require.NoError(t, json.Unmarshal(data, &p))
		assert.Equal(t, 42.5, p.WeightKg)
	default:
		t.Fatal("okuma yayınlanmadı")
	}

	assert.Len(t, h.persister.queue, 1)
}

func TestHandleSessionStartBroadcastsStarted(t *testing.T) {
	h, _, _ := newTestHub(t)
	c := newTestClient()

	h.handleEvent(c, mustEvent(t, "session:start", SessionStartPayload{ScaleID: 1}))

	select {
	case raw := <-h.broadcast:
		event, data := decodeEnvelope(t, raw)
		assert.Equal(t, "session:started", event)
		var p SessionStartedPayload
		require.NoError(t, json.Unmarshal(data, &p))
		assert.Equal(t, uint(1), p.ScaleID)
		assert.NotEmpty(t, p.SessionID)
	default:
		t.Fatal("session:started yayınlanmadı")
	}
}

// Çakışma yalnızca isteyene gider, yayın kanalına çıkmaz.
func TestSessionConflictOnlyToRequester(t *testing.T) {
	h, _, _ := newTestHub(t)
	first := newTestClient()
	second := &Client{id: "other-conn", send: make(chan []byte, 8)}

	h.handleEvent(first, mustEvent(t, "session:start", SessionStartPayload{ScaleID: 1}))
	<-h.broadcast // session:started

	h.handleEvent(second, mustEvent(t, "session:start", SessionStartPayload{ScaleID: 2}))

	select {
	case raw := <-second.send:
		event, data := decodeEnvelope(t, raw)
		assert.Equal(t, "session:conflict", event)
		var p SessionConflictPayload
		require.NoError(t, json.Unmarshal(data, &p))
		assert.Equal(t, 1, p.Department)
		assert.Equal(t, uint(1), p.ScaleID)
	default:
		t.Fatal("session:conflict isteyene gitmedi")
	}

	select {
	case <-h.broadcast:
		t.Fatal("çakışma yayın kanalına çıkmamalı")
	default:
	}
}

func TestHandleSessionEndIdempotent(t *testing.T) {
	h, _, _ := newTestHub(t)
	c := newTestClient()

	h.handleEvent(c, mustEvent(t, "session:start", SessionStartPayload{ScaleID: 1, SessionID: "sid-1"}))
	<-h.broadcast

	h.handleEvent(c, mustEvent(t, "session:end", SessionEndPayload{SessionID: "sid-1"}))
	select {
	case raw := <-h.broadcast:
		event, data := decodeEnvelope(t, raw)
		assert.Equal(t, "session:ended", event)
		var p SessionEndedPayload
		require.NoError(t, json.Unmarshal(data, &p))
		assert.Equal(t, "operator", p.Reason)
	default:
		t.Fatal("session:ended yayınlanmadı")
	}

	// İkinci kapatma sessizce geçer
	h.handleEvent(c, mustEvent(t, "session:end", SessionEndPayload{SessionID: "sid-1"}))
	select {
	case <-h.broadcast:
		t.Fatal("olmayan oturum için yayın yapılmamalı")
	default:
	}
}

func TestHeartbeatAck(t *testing.T) {
	h, _, _ := newTestHub(t)
	c := newTestClient()

	h.handleEvent(c, mustEvent(t, "heartbeat", HeartbeatPayload{ScaleID: 1}))

	raw := <-c.send
	event, data := decodeEnvelope(t, raw)
	assert.Equal(t, "heartbeat:ack", event)
	var p AckPayload
	require.NoError(t, json.Unmarshal(data, &p))
	assert.True(t, p.OK)
}

func TestRegisterAckFailureForUnknownScale(t *testing.T) {
	h, _, _ := newTestHub(t)
	c := newTestClient()

	h.handleEvent(c, mustEvent(t, "register", RegisterPayload{ScaleID: 99}))

	raw := <-c.send
	event, data := decodeEnvelope(t, raw)
	assert.Equal(t, "register:ack", event)
	var p AckPayload
	require.NoError(t, json.Unmarshal(data, &p))
	assert.False(t, p.OK)
	assert.Equal(t, "kantar tanımlı değil", p.Error)
}

func TestUnknownEventRejected(t *testing.T) {
	h, _, _ := newTestHub(t)
	c := newTestClient()

	h.handleEvent(c, []byte(`{"event":"garip","data":{}}`))

	raw := <-c.send
	event, _ := decodeEnvelope(t, raw)
	assert.Equal(t, "error", event)
}
