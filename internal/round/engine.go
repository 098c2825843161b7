package round

import (
	"math"
	"math/rand"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/playbrawl/party-backend/internal/clock"
	"github.com/playbrawl/party-backend/internal/mailbox"
	"github.com/playbrawl/party-backend/internal/session"
	"github.com/playbrawl/party-backend/internal/timer"
	"github.com/playbrawl/party-backend/pkg/types"
)

// Engine runs the phase loop for every registered game of one game type.
type Engine struct {
	policy Policy
	timers *timer.Coordinator[Accumulator]
	store  *session.Store
	mail   *mailbox.Mailbox
	clk    clock.Clock
	rng    *rand.Rand
	log    *zap.Logger
	cfg    Config

	mu         sync.Mutex
	registered map[string]struct{}
}

func NewEngine(policy Policy, store *session.Store, mail *mailbox.Mailbox, clk clock.Clock, rng *rand.Rand, log *zap.Logger, cfg Config) *Engine {
	return &Engine{
		policy:     policy,
		timers:     timer.NewCoordinator[Accumulator](clk, log),
		store:      store,
		mail:       mail,
		clk:        clk,
		rng:        rng,
		log:        log,
		cfg:        cfg,
		registered: make(map[string]struct{}),
	}
}

// Register starts the game loop for a closed room. Registering twice, or
// registering a room that is still open, is a no-op.
func (e *Engine) Register(game *session.Game) bool {
	if !game.Closed() {
		e.log.Info("game room not yet closed, refusing to start",
			append(game.LogFields(), zap.String("gameType", e.policy.Name()))...)
		return false
	}
	e.mu.Lock()
	if _, ok := e.registered[game.Guid()]; ok {
		e.mu.Unlock()
		return false
	}
	e.registered[game.Guid()] = struct{}{}
	e.mu.Unlock()
	go e.run(game)
	return true
}

func (e *Engine) run(game *session.Game) {
	e.log.Info("starting game loop",
		append(game.LogFields(), zap.String("gameType", e.policy.Name()))...)
	for game.HasPlayers() {
		e.playRound(game)
	}
	e.timers.Release(game.Guid())
	e.mu.Lock()
	delete(e.registered, game.Guid())
	e.mu.Unlock()
	e.log.Info("game loop ended", game.LogFields()...)
}

// playRound runs one full phase cycle. Returning early aborts the round; the
// loop re-checks for players and may start over.
func (e *Engine) playRound(game *session.Game) {
	// The starter pool is snapshotted here: players joining mid-round wait
	// until the next one.
	players := game.Players()
	if len(players) == 0 {
		return
	}
	starter := players[e.rng.Intn(len(players))]
	e.fanAll(game, e.policy.RoundStartMessage(game, starter))

	sub := e.timers.Queue(game.Guid(), PhasePrompt,
		Accumulator{PromptPlayerID: starter.DeviceID()}, e.cfg.PromptTimeout)
	res := sub.Wait()
	if res.Superseded || res.TimedOut || res.Payload.PromptText == "" {
		e.log.Info("round aborted waiting for prompt", game.LogFields()...)
		return
	}
	acc := res.Payload

	deadline := e.clk.DeadlineAfter(e.cfg.ResponseTimeout)
	e.fanAll(game, e.policy.PromptMessage(acc, deadline))
	sub = e.timers.Queue(game.Guid(), PhaseResponses, acc, e.cfg.ResponseTimeout)
	res = sub.Wait()
	if res.Superseded || len(res.Payload.Responses) == 0 {
		e.log.Info("round aborted with no responses", game.LogFields()...)
		return
	}
	acc = res.Payload
	e.fanAll(game, e.policy.ResponsesMessage(acc))

	sub = e.timers.Queue(game.Guid(), PhaseVotes, acc, e.cfg.VoteTimeout)
	res = sub.Wait()
	if res.Superseded || len(res.Payload.Votes) == 0 {
		e.log.Info("round aborted with no votes", game.LogFields()...)
		return
	}
	acc = res.Payload
	scores := tallyVotes(acc.Votes, game)
	e.fanAll(game, e.policy.ResultsMessage(acc, scores))

	// Restart gate: an explicit restart signal ends the wait early, the
	// timeout starts the next round regardless.
	sub = e.timers.Queue(game.Guid(), PhaseRestart, acc, e.cfg.RestartTimeout)
	sub.Wait()
}

// PromptReceived accepts the round prompt from the starting player.
func (e *Engine) PromptReceived(sessionID string, sub PromptSubmission) bool {
	player, game, ok := e.validate(sessionID)
	if !ok {
		return false
	}
	accepted := false
	e.timers.Mutate(game.Guid(), PhasePrompt, func(acc *Accumulator) {
		if acc.PromptPlayerID != player.DeviceID() {
			return
		}
		accepted = e.policy.AcceptPrompt(acc, sub)
	})
	if !accepted {
		return false
	}
	return e.timers.Dequeue(game.Guid(), PhasePrompt)
}

// ResponseReceived accepts one player's submission for the collect phase.
// Quorum is the live player count; reaching it completes the phase early.
func (e *Engine) ResponseReceived(sessionID, response string) bool {
	player, game, ok := e.validate(sessionID)
	if !ok {
		return false
	}
	accepted, rejected := false, false
	count := 0
	e.timers.Mutate(game.Guid(), PhaseResponses, func(acc *Accumulator) {
		for _, r := range acc.Responses {
			if r.PlayerID == player.DeviceID() {
				return // one submission per player
			}
		}
		if !e.policy.AcceptResponse(acc, player.DeviceID(), response) {
			rejected = true
			return
		}
		acc.Responses = append(acc.Responses, PlayerResponse{
			PlayerID: player.DeviceID(),
			Response: response,
		})
		accepted = true
		count = len(acc.Responses)
	})
	if rejected {
		if msg, ok := e.policy.RejectedResponseMessage(player.DeviceID(), response); ok {
			e.fanAll(game, msg)
		}
		return false
	}
	if accepted && count >= game.PlayerCount() {
		e.timers.Dequeue(game.Guid(), PhaseResponses)
	}
	return accepted
}

// VotesReceived accepts one player's ballot. Ballots over the target limit
// are rejected outright with no state change.
func (e *Engine) VotesReceived(sessionID string, votedPlayerIDs []string) bool {
	if len(votedPlayerIDs) > e.cfg.MaxVoteTargets {
		return false
	}
	player, game, ok := e.validate(sessionID)
	if !ok {
		return false
	}
	ballot := make(map[string]int, len(votedPlayerIDs))
	for _, id := range votedPlayerIDs {
		ballot[id]++
	}
	accepted := false
	count := 0
	e.timers.Mutate(game.Guid(), PhaseVotes, func(acc *Accumulator) {
		for _, v := range acc.Votes {
			if v.PlayerID == player.DeviceID() {
				return
			}
		}
		acc.Votes = append(acc.Votes, PlayerVotes{PlayerID: player.DeviceID(), Votes: ballot})
		accepted = true
		count = len(acc.Votes)
	})
	if accepted && count >= game.PlayerCount() {
		e.timers.Dequeue(game.Guid(), PhaseVotes)
	}
	return accepted
}

// RestartReceived ends the between-rounds wait early.
func (e *Engine) RestartReceived(sessionID string) bool {
	_, game, ok := e.validate(sessionID)
	if !ok {
		return false
	}
	return e.timers.Dequeue(game.Guid(), PhaseRestart)
}

func (e *Engine) validate(sessionID string) (*session.Player, *session.Game, bool) {
	player, ok := e.store.Player(sessionID)
	if !ok || player.GameGuid() == "" {
		e.log.Info("round input from invalid player", zap.String("session", sessionID))
		return nil, nil, false
	}
	game, ok := e.store.Game(player.GameGuid())
	if !ok {
		e.log.Info("round input for missing game", player.LogFields()...)
		return nil, nil, false
	}
	return player, game, true
}

func (e *Engine) fanAll(game *session.Game, msg types.Envelope) {
	e.mail.FanOutPlayers(game.Guid(), game.PlayerIDs(), msg)
	e.mail.FanOutHosts(game.Guid(), game.HostIDs(), msg)
}

// tallyVotes sums every ballot and orders the result by descending vote
// count, ties broken by ascending join index.
func tallyVotes(ballots []PlayerVotes, game *session.Game) []types.VotingResult {
	summed := make(map[string]int)
	for _, b := range ballots {
		for playerID, n := range b.Votes {
			summed[playerID] += n
		}
	}
	out := make([]types.VotingResult, 0, len(summed))
	for playerID, n := range summed {
		out = append(out, types.VotingResult{
			PlayerID:   playerID,
			PlayerName: displayName(game, playerID),
			VoteCount:  n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VoteCount != out[j].VoteCount {
			return out[i].VoteCount > out[j].VoteCount
		}
		return joinIndex(game, out[i].PlayerID) < joinIndex(game, out[j].PlayerID)
	})
	return out
}

func displayName(game *session.Game, playerID string) string {
	if name := game.PlayerName(playerID); name != "" {
		return name
	}
	return anonymousName(game, playerID)
}

func anonymousName(game *session.Game, playerID string) string {
	idx, ok := game.JoinIndex(playerID)
	if !ok {
		idx = -1
	}
	return "Player " + strconv.Itoa(idx+1)
}

func joinIndex(game *session.Game, playerID string) int {
	idx, ok := game.JoinIndex(playerID)
	if !ok {
		return math.MaxInt
	}
	return idx
}
