package mailbox

import (
	"sync"

	"github.com/playbrawl/party-backend/pkg/types"
)

// roomQueues holds the pending messages for one game, split by channel.
type roomQueues struct {
	players map[string][]types.Envelope
	hosts   map[string][]types.Envelope
}

// Mailbox buffers messages per (game, recipient, channel) until the
// recipient polls. Queues are unbounded FIFO; delivery order is preserved
// per recipient only.
type Mailbox struct {
	mu    sync.Mutex
	rooms map[string]*roomQueues
}

func New() *Mailbox {
	return &Mailbox{rooms: make(map[string]*roomQueues)}
}

// PushPlayer appends one message to a single player's queue.
func (m *Mailbox) PushPlayer(gameGuid, playerID string, msg types.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.room(gameGuid)
	q.players[playerID] = append(q.players[playerID], msg)
}

// PushHost appends one message to a single host's queue.
func (m *Mailbox) PushHost(gameGuid, hostID string, msg types.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.room(gameGuid)
	q.hosts[hostID] = append(q.hosts[hostID], msg)
}

// FanOutPlayers pushes msg to every listed player.
func (m *Mailbox) FanOutPlayers(gameGuid string, playerIDs []string, msg types.Envelope) {
	m.FanOutPlayersExcept(gameGuid, playerIDs, msg, nil)
}

// FanOutPlayersExcept pushes msg to every listed player not in excluded.
// An empty exclusion set behaves exactly like FanOutPlayers.
func (m *Mailbox) FanOutPlayersExcept(gameGuid string, playerIDs []string, msg types.Envelope, excluded []string) {
	skip := make(map[string]struct{}, len(excluded))
	for _, id := range excluded {
		skip[id] = struct{}{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.room(gameGuid)
	for _, id := range playerIDs {
		if _, ok := skip[id]; ok {
			continue
		}
		q.players[id] = append(q.players[id], msg)
	}
}

// FanOutHosts pushes msg to every listed host.
func (m *Mailbox) FanOutHosts(gameGuid string, hostIDs []string, msg types.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.room(gameGuid)
	for _, id := range hostIDs {
		q.hosts[id] = append(q.hosts[id], msg)
	}
}

// DrainPlayer atomically takes everything queued for the player. A second
// drain with no intervening push returns nil.
func (m *Mailbox) DrainPlayer(gameGuid, playerID string) []types.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.rooms[gameGuid]
	if !ok {
		return nil
	}
	msgs := q.players[playerID]
	if len(msgs) > 0 {
		q.players[playerID] = nil
	}
	return msgs
}

// DrainHost is DrainPlayer for the host channel.
func (m *Mailbox) DrainHost(gameGuid, hostID string) []types.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.rooms[gameGuid]
	if !ok {
		return nil
	}
	msgs := q.hosts[hostID]
	if len(msgs) > 0 {
		q.hosts[hostID] = nil
	}
	return msgs
}

// Destroy removes every queue for a room. Called on expiry/removal so dead
// rooms do not leak queues.
func (m *Mailbox) Destroy(gameGuid string) {
	m.mu.Lock()
	delete(m.rooms, gameGuid)
	m.mu.Unlock()
}

// room returns the queues for a game, creating them on first use. Caller
// holds the lock.
func (m *Mailbox) room(gameGuid string) *roomQueues {
	q, ok := m.rooms[gameGuid]
	if !ok {
		q = &roomQueues{
			players: make(map[string][]types.Envelope),
			hosts:   make(map[string][]types.Envelope),
		}
		m.rooms[gameGuid] = q
	}
	return q
}
