package session

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/playbrawl/party-backend/pkg/types"
)

// joinRecord pins a device to its seat for the lifetime of the game, even
// across reconnects. The slice index is the join index; index 0 is master.
type joinRecord struct {
	deviceID string
	name     string
}

// Game is one active room. Players come and go; the join history only grows.
type Game struct {
	guid     string
	roomCode int

	mu      sync.Mutex
	closed  bool
	history []joinRecord
	players map[string]*Player // by device id
	hosts   map[string]*Host   // by device id
}

func NewGame(roomCode int) *Game {
	return &Game{
		guid:     uuid.NewString(),
		roomCode: roomCode,
		players:  make(map[string]*Player),
		hosts:    make(map[string]*Host),
	}
}

func (g *Game) Guid() string  { return g.guid }
func (g *Game) RoomCode() int { return g.roomCode }

func (g *Game) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

func (g *Game) SetClosed(closed bool) {
	g.mu.Lock()
	g.closed = closed
	g.mu.Unlock()
}

func (g *Game) AddHost(h *Host) {
	g.mu.Lock()
	g.hosts[h.DeviceID()] = h
	g.mu.Unlock()
}

// AddPlayer seats the player and returns its join index. A device that was
// seated before keeps its original index.
func (g *Game) AddPlayer(p *Player) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.players[p.DeviceID()] = p
	if i, ok := g.historyIndex(p.DeviceID()); ok {
		return i
	}
	g.history = append(g.history, joinRecord{deviceID: p.DeviceID()})
	return len(g.history) - 1
}

// RemovePlayer drops the player's live session. The seat stays reserved so
// a reconnect keeps the same join index.
func (g *Game) RemovePlayer(p *Player) bool {
	if p.GameGuid() != g.guid {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.players[p.DeviceID()]; !ok {
		return false
	}
	delete(g.players, p.DeviceID())
	return true
}

func (g *Game) Player(deviceID string) (*Player, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.players[deviceID]
	return p, ok
}

// HasJoined reports whether the device ever held a seat in this game,
// whether or not it is currently connected.
func (g *Game) HasJoined(deviceID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.historyIndex(deviceID)
	return ok
}

// Players returns the live players in join order.
func (g *Game) Players() []*Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Player, 0, len(g.players))
	for _, rec := range g.history {
		if p, ok := g.players[rec.deviceID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// PlayerIDs returns live player device ids in join order.
func (g *Game) PlayerIDs() []string {
	players := g.Players()
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.DeviceID()
	}
	return ids
}

func (g *Game) HostIDs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, 0, len(g.hosts))
	for id := range g.hosts {
		ids = append(ids, id)
	}
	return ids
}

func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players)
}

func (g *Game) HasPlayers() bool { return g.PlayerCount() > 0 }

// JoinIndex resolves a device id to its seat, or false if it never joined.
func (g *Game) JoinIndex(deviceID string) (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.historyIndex(deviceID)
}

func (g *Game) PlayerName(deviceID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i, ok := g.historyIndex(deviceID); ok {
		return g.history[i].name
	}
	return ""
}

// SetPlayerName renames a seated device. Returns false if it never joined.
func (g *Game) SetPlayerName(deviceID, name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	i, ok := g.historyIndex(deviceID)
	if !ok {
		return false
	}
	g.history[i].name = name
	return true
}

// Roster lists every live player as a host-facing entry, in join order.
func (g *Game) Roster() []types.RosterEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]types.RosterEntry, 0, len(g.players))
	for i, rec := range g.history {
		if _, ok := g.players[rec.deviceID]; ok {
			out = append(out, types.RosterEntry{PlayerIndex: i, PlayerName: rec.name})
		}
	}
	return out
}

// historyIndex scans the join history. Caller holds the lock.
func (g *Game) historyIndex(deviceID string) (int, bool) {
	for i, rec := range g.history {
		if rec.deviceID == deviceID {
			return i, true
		}
	}
	return 0, false
}

func (g *Game) LogFields() []zap.Field {
	g.mu.Lock()
	hosts, players, closed := len(g.hosts), len(g.players), g.closed
	g.mu.Unlock()
	return []zap.Field{
		zap.String("game", g.guid),
		zap.Int("room", g.roomCode),
		zap.Int("hosts", hosts),
		zap.Int("players", players),
		zap.Bool("closed", closed),
	}
}
