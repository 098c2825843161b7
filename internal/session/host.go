package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/playbrawl/party-backend/internal/clock"
)

// Host is a display-screen session attached to one game.
type Host struct {
	deviceID  string
	sessionID string
	clk       clock.Clock

	mu            sync.Mutex
	lastHeartbeat time.Time
	gameGuid      string
}

func NewHost(deviceID, sessionID string, clk clock.Clock) *Host {
	return &Host{
		deviceID:      deviceID,
		sessionID:     sessionID,
		clk:           clk,
		lastHeartbeat: clk.Now(),
	}
}

func (h *Host) DeviceID() string  { return h.deviceID }
func (h *Host) SessionID() string { return h.sessionID }

// Touch records a heartbeat.
func (h *Host) Touch() {
	h.mu.Lock()
	h.lastHeartbeat = h.clk.Now()
	h.mu.Unlock()
}

func (h *Host) LastHeartbeat() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastHeartbeat
}

func (h *Host) AssignGame(guid string) {
	h.mu.Lock()
	h.gameGuid = guid
	h.mu.Unlock()
}

func (h *Host) GameGuid() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.gameGuid
}

func (h *Host) LogFields() []zap.Field {
	return []zap.Field{zap.String("host", h.sessionID)}
}
