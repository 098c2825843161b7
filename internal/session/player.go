package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/playbrawl/party-backend/internal/clock"
)

// NoJoinIndex marks a player that has not been seated in a game yet.
const NoJoinIndex = -1

// Player is one device's active player session. A device re-registering
// under a new session evicts the old one; the device id is the stable key
// inside a game, the session id is the credential-scoped key.
type Player struct {
	deviceID  string
	sessionID string
	createdAt time.Time
	clk       clock.Clock

	mu            sync.Mutex
	lastHeartbeat time.Time
	gameGuid      string
	joinIndex     int
}

func NewPlayer(deviceID, sessionID string, clk clock.Clock) *Player {
	now := clk.Now()
	return &Player{
		deviceID:      deviceID,
		sessionID:     sessionID,
		createdAt:     now,
		clk:           clk,
		lastHeartbeat: now,
		joinIndex:     NoJoinIndex,
	}
}

func (p *Player) DeviceID() string     { return p.deviceID }
func (p *Player) SessionID() string    { return p.sessionID }
func (p *Player) CreatedAt() time.Time { return p.createdAt }

// Touch records a heartbeat.
func (p *Player) Touch() {
	p.mu.Lock()
	p.lastHeartbeat = p.clk.Now()
	p.mu.Unlock()
}

func (p *Player) LastHeartbeat() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastHeartbeat
}

func (p *Player) AssignGame(guid string) {
	p.mu.Lock()
	p.gameGuid = guid
	p.mu.Unlock()
}

func (p *Player) GameGuid() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gameGuid
}

// AssignJoinIndex seats the player. The index sticks once assigned.
func (p *Player) AssignJoinIndex(i int) {
	p.mu.Lock()
	if p.joinIndex == NoJoinIndex {
		p.joinIndex = i
	}
	p.mu.Unlock()
}

func (p *Player) JoinIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.joinIndex
}

// IsMaster reports whether this player was the first to join its room.
func (p *Player) IsMaster() bool { return p.JoinIndex() == 0 }

// LogFields carries session context into log lines.
func (p *Player) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("player", p.sessionID),
		zap.Int("joinIndex", p.JoinIndex()),
		zap.Duration("sinceHeartbeat", p.clk.Since(p.LastHeartbeat())),
	}
}
