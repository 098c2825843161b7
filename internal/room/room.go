// Package room composes the session store, room-code allocator, and mailbox
// into the game lifecycle operations: create, join, leave, close, expire.
package room

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/playbrawl/party-backend/internal/clock"
	"github.com/playbrawl/party-backend/internal/codes"
	"github.com/playbrawl/party-backend/internal/mailbox"
	"github.com/playbrawl/party-backend/internal/session"
	"github.com/playbrawl/party-backend/pkg/types"
)

var (
	ErrCreateFailed = errors.New("could not create game")
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomClosed   = errors.New("room is closed")
)

type Config struct {
	// ReadyCountdown is broadcast with the room-ready event when the master
	// closes the room.
	ReadyCountdown time.Duration
}

type Orchestrator struct {
	store *session.Store
	codes *codes.Allocator
	mail  *mailbox.Mailbox
	clk   clock.Clock
	log   *zap.Logger
	cfg   Config
}

func NewOrchestrator(store *session.Store, codes *codes.Allocator, mail *mailbox.Mailbox, clk clock.Clock, log *zap.Logger, cfg Config) *Orchestrator {
	return &Orchestrator{store: store, codes: codes, mail: mail, clk: clk, log: log, cfg: cfg}
}

// RegisterPlayer creates a player session. A duplicate session id is logged
// and the entity still returned; the token layer makes collisions unlikely.
func (o *Orchestrator) RegisterPlayer(deviceID, sessionID string) *session.Player {
	p := session.NewPlayer(deviceID, sessionID, o.clk)
	if !o.store.SetPlayer(p) {
		o.log.Info("identical session id registered for player", p.LogFields()...)
	}
	return p
}

// RegisterHost creates a host session.
func (o *Orchestrator) RegisterHost(deviceID, sessionID string) *session.Host {
	h := session.NewHost(deviceID, sessionID, o.clk)
	if !o.store.SetHost(h) {
		o.log.Info("identical session id registered for host", h.LogFields()...)
	}
	return h
}

// CreateGame claims a room code and stores a new game owned by host, with an
// optional seed player. A claimed code is released again on any failure.
func (o *Orchestrator) CreateGame(host *session.Host, seed *session.Player) (*session.Game, error) {
	code, err := o.codes.Claim()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}
	game := session.NewGame(code)
	game.AddHost(host)
	host.AssignGame(game.Guid())
	if seed != nil {
		o.seatPlayer(seed, game)
	}
	if !o.store.SetGame(game) {
		o.codes.Release(code)
		return nil, ErrCreateFailed
	}
	o.log.Info("created game", game.LogFields()...)
	return game, nil
}

// HostJoin attaches an extra host to an existing open room.
func (o *Orchestrator) HostJoin(code int, host *session.Host) (*session.Game, error) {
	game, ok := o.store.GameByCode(code)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if game.Closed() {
		return nil, ErrRoomClosed
	}
	game.AddHost(host)
	host.AssignGame(game.Guid())
	o.broadcastRoster(game, lastRosterEntry(game))
	return game, nil
}

// PlayerJoin seats a player in the room behind code. A device already seated
// under a different session evicts the stale session first. A closed room
// only admits devices that were seated before (reconnects).
func (o *Orchestrator) PlayerJoin(code int, player *session.Player) (*session.Game, error) {
	game, ok := o.store.GameByCode(code)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if existing, ok := game.Player(player.DeviceID()); ok && existing.SessionID() != player.SessionID() {
		o.log.Info("device rejoined under new session, evicting stale session",
			zap.String("stale", existing.SessionID()), zap.String("device", player.DeviceID()))
		o.store.RemovePlayer(existing.SessionID())
	}
	if game.Closed() && !game.HasJoined(player.DeviceID()) {
		return nil, ErrRoomClosed
	}
	idx := o.seatPlayer(player, game)

	now := o.clk.Now().UnixMilli()
	joined := types.Envelope{Type: types.MsgJoinedPlayer, Payload: types.JoinedPlayerPayload{
		EventTimeMs:     now,
		PlayerJoinIndex: &idx,
		PlayerCount:     game.PlayerCount(),
	}}
	o.mail.FanOutPlayersExcept(game.Guid(), game.PlayerIDs(), joined, []string{player.DeviceID()})
	o.mail.PushPlayer(game.Guid(), player.DeviceID(), types.Envelope{
		Type:    types.MsgJoinedPlayer,
		Payload: types.JoinedPlayerPayload{EventTimeMs: now, PlayerCount: game.PlayerCount()},
	})
	o.broadcastRoster(game, types.RosterEntry{PlayerIndex: idx, PlayerName: game.PlayerName(player.DeviceID())})

	o.log.Info("player joined game", append(game.LogFields(), player.LogFields()...)...)
	return game, nil
}

// Leave removes a player from its game. The game is torn down entirely when
// its last player leaves.
func (o *Orchestrator) Leave(player *session.Player) bool {
	game, ok := o.store.Game(player.GameGuid())
	if !ok {
		return false
	}
	if !game.RemovePlayer(player) {
		o.log.Error("cannot remove player not assigned to room",
			append(game.LogFields(), player.LogFields()...)...)
	}
	if !game.HasPlayers() {
		o.store.RemoveGame(game.Guid())
		o.mail.Destroy(game.Guid())
		o.log.Info("removed game, all players left", game.LogFields()...)
	} else {
		o.broadcastRoster(game, lastRosterEntry(game))
	}
	return true
}

// Expire force-removes every player and tears the game down. No-op against
// an already-gone game.
func (o *Orchestrator) Expire(gameGuid string) bool {
	game, ok := o.store.Game(gameGuid)
	if !ok {
		return false
	}
	for _, p := range game.Players() {
		game.RemovePlayer(p)
		o.store.RemovePlayer(p.SessionID())
	}
	o.store.RemoveGame(game.Guid())
	o.mail.Destroy(game.Guid())
	o.log.Info("expired game", game.LogFields()...)
	return true
}

// ExpirePlayer is the sweeper callback for a stale player session.
func (o *Orchestrator) ExpirePlayer(p *session.Player) {
	o.store.RemovePlayer(p.SessionID())
	o.Leave(p)
}

// ExpireHost is the sweeper callback for a stale host session; the host's
// whole game goes with it.
func (o *Orchestrator) ExpireHost(h *session.Host) {
	o.store.RemoveHost(h.SessionID())
	o.Expire(h.GameGuid())
}

// CloseRoom marks the room closed and broadcasts the room-ready countdown.
// Only the room master may close it.
func (o *Orchestrator) CloseRoom(code int, requester *session.Player) bool {
	game, ok := o.store.GameByCode(code)
	if !ok {
		return false
	}
	if requester.GameGuid() != game.Guid() || !requester.IsMaster() {
		o.log.Info("close room denied for non-master", requester.LogFields()...)
		return false
	}
	game.SetClosed(true)
	msg := types.Envelope{Type: types.MsgRoomReady, Payload: types.RoomReadyPayload{
		StartTimeMs: o.clk.Now().UnixMilli(),
		CountdownMs: o.cfg.ReadyCountdown.Milliseconds(),
	}}
	o.mail.FanOutPlayers(game.Guid(), game.PlayerIDs(), msg)
	o.mail.FanOutHosts(game.Guid(), game.HostIDs(), msg)
	o.log.Info("room closed by master", game.LogFields()...)
	return true
}

// ChangeName renames a seated player and refreshes the host roster.
func (o *Orchestrator) ChangeName(player *session.Player, name string) bool {
	game, ok := o.store.Game(player.GameGuid())
	if !ok {
		return false
	}
	if !game.SetPlayerName(player.DeviceID(), name) {
		return false
	}
	o.broadcastRoster(game, types.RosterEntry{
		PlayerIndex: player.JoinIndex(),
		PlayerName:  name,
	})
	return true
}

// PollPlayer drains the player's mailbox and refreshes its heartbeat. The
// second return is false when the session is not recognized.
func (o *Orchestrator) PollPlayer(sessionID string) ([]types.Envelope, bool) {
	player, ok := o.store.Player(sessionID)
	if !ok {
		o.log.Info("poll from unknown player session", zap.String("session", sessionID))
		return nil, false
	}
	player.Touch()
	guid := player.GameGuid()
	if guid == "" {
		return nil, true
	}
	return o.mail.DrainPlayer(guid, player.DeviceID()), true
}

// PollHost is PollPlayer for host sessions.
func (o *Orchestrator) PollHost(sessionID string) ([]types.Envelope, bool) {
	host, ok := o.store.Host(sessionID)
	if !ok {
		o.log.Info("poll from unknown host session", zap.String("session", sessionID))
		return nil, false
	}
	host.Touch()
	guid := host.GameGuid()
	if guid == "" {
		return nil, true
	}
	return o.mail.DrainHost(guid, host.DeviceID()), true
}

// KeepAlivePlayer refreshes a player heartbeat without draining.
func (o *Orchestrator) KeepAlivePlayer(sessionID string) bool {
	player, ok := o.store.Player(sessionID)
	if !ok {
		return false
	}
	player.Touch()
	return true
}

// KeepAliveHost refreshes a host heartbeat without draining.
func (o *Orchestrator) KeepAliveHost(sessionID string) bool {
	host, ok := o.store.Host(sessionID)
	if !ok {
		return false
	}
	host.Touch()
	return true
}

func (o *Orchestrator) seatPlayer(player *session.Player, game *session.Game) int {
	player.AssignGame(game.Guid())
	idx := game.AddPlayer(player)
	player.AssignJoinIndex(idx)
	return idx
}

func (o *Orchestrator) broadcastRoster(game *session.Game, last types.RosterEntry) {
	msg := types.Envelope{Type: types.MsgPlayerList, Payload: types.PlayerListPayload{
		LastJoined: last,
		Players:    game.Roster(),
	}}
	o.mail.FanOutHosts(game.Guid(), game.HostIDs(), msg)
}

func lastRosterEntry(game *session.Game) types.RosterEntry {
	roster := game.Roster()
	if len(roster) == 0 {
		return types.RosterEntry{}
	}
	return roster[len(roster)-1]
}
