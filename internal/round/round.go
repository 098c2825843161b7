// Package round drives the per-game phase loop: prompt, collect, vote,
// score, restart. One generic engine runs any game type; the differences
// between game types live in small Policy values.
package round

import (
	"time"

	"github.com/playbrawl/party-backend/internal/session"
	"github.com/playbrawl/party-backend/pkg/types"
)

// Timer discriminant tags, one per phase wait.
const (
	PhasePrompt    = "prompt"
	PhaseResponses = "responses"
	PhaseVotes     = "votes"
	PhaseRestart   = "restart"
)

// PlayerResponse is one collected submission.
type PlayerResponse struct {
	PlayerID string
	Response string
}

// PlayerVotes is one player's ballot: votes cast per target device id.
type PlayerVotes struct {
	PlayerID string
	Votes    map[string]int
}

// Accumulator is the live timer payload for every phase of one round.
// Callers mutate it in place through the coordinator while a phase timer
// runs, so partial progress survives a deadline.
type Accumulator struct {
	PromptPlayerID string
	PromptText     string
	PromptSubject  string
	Answer         string
	ClueEmoji      string
	Responses      []PlayerResponse
	Votes          []PlayerVotes
}

// PromptSubmission is what the prompting player sends in. Emoji rounds use
// Text only; guess-first rounds carry the subject, hidden answer, and clue.
type PromptSubmission struct {
	Text    string
	Subject string
	Answer  string
	Clue    string
}

type Config struct {
	PromptTimeout   time.Duration
	ResponseTimeout time.Duration
	VoteTimeout     time.Duration
	RestartTimeout  time.Duration
	MaxVoteTargets  int
}

// Policy is the per-game-type surface: which messages go out at each phase
// boundary and which responses are admissible. New game types are new
// Policy values, not new engines.
type Policy interface {
	Name() string
	RoundStartMessage(game *session.Game, starter *session.Player) types.Envelope
	// AcceptPrompt folds a submission into the accumulator, or rejects it.
	AcceptPrompt(acc *Accumulator, sub PromptSubmission) bool
	PromptMessage(acc Accumulator, deadline time.Time) types.Envelope
	// AcceptResponse reports whether the submission counts toward quorum.
	AcceptResponse(acc *Accumulator, playerID, response string) bool
	// RejectedResponseMessage optionally turns a rejected submission into a
	// fan-out event (e.g. a wrong guess everyone should see).
	RejectedResponseMessage(playerID, response string) (types.Envelope, bool)
	ResponsesMessage(acc Accumulator) types.Envelope
	ResultsMessage(acc Accumulator, scores []types.VotingResult) types.Envelope
}
