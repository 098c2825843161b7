package session

import (
	"sync"

	"github.com/playbrawl/party-backend/internal/codes"
)

// Store is the canonical in-memory registry of players, hosts, and games.
// Set operations refuse duplicate ids; callers evict stale entries first.
// Cross-entity consistency is the room orchestrator's job, not the store's.
type Store struct {
	mu      sync.RWMutex
	players map[string]*Player // by session id
	hosts   map[string]*Host   // by session id
	games   map[string]*Game   // by game guid
	codes   *codes.Allocator
}

func NewStore(codes *codes.Allocator) *Store {
	return &Store{
		players: make(map[string]*Player),
		hosts:   make(map[string]*Host),
		games:   make(map[string]*Game),
		codes:   codes,
	}
}

func (s *Store) Player(sessionID string) (*Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[sessionID]
	return p, ok
}

func (s *Store) Host(sessionID string) (*Host, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hosts[sessionID]
	return h, ok
}

func (s *Store) Game(guid string) (*Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[guid]
	return g, ok
}

// GameByCode resolves a room code through the allocator binding.
func (s *Store) GameByCode(code int) (*Game, bool) {
	guid, ok := s.codes.Lookup(code)
	if !ok {
		return nil, false
	}
	return s.Game(guid)
}

func (s *Store) AllPlayers() []*Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	return out
}

func (s *Store) AllHosts() []*Host {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Host, 0, len(s.hosts))
	for _, h := range s.hosts {
		out = append(out, h)
	}
	return out
}

// SetPlayer registers a player session. Returns false if the session id is
// already taken.
func (s *Store) SetPlayer(p *Player) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[p.SessionID()]; ok {
		return false
	}
	s.players[p.SessionID()] = p
	return true
}

func (s *Store) SetHost(h *Host) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hosts[h.SessionID()]; ok {
		return false
	}
	s.hosts[h.SessionID()] = h
	return true
}

func (s *Store) RemovePlayer(sessionID string) (*Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[sessionID]
	delete(s.players, sessionID)
	return p, ok
}

func (s *Store) RemoveHost(sessionID string) (*Host, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hosts[sessionID]
	delete(s.hosts, sessionID)
	return h, ok
}

// SetGame registers a game and binds its room code to its guid. Returns
// false if the guid is already taken.
func (s *Store) SetGame(g *Game) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[g.Guid()]; ok {
		return false
	}
	s.games[g.Guid()] = g
	s.codes.Assign(g.RoomCode(), g.Guid())
	return true
}

// RemoveGame deletes a game and releases its room code.
func (s *Store) RemoveGame(guid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[guid]
	if !ok {
		return false
	}
	delete(s.games, guid)
	s.codes.Release(g.RoomCode())
	return true
}
