package round

import (
	"strings"
	"time"

	"github.com/playbrawl/party-backend/internal/clock"
	"github.com/playbrawl/party-backend/internal/session"
	"github.com/playbrawl/party-backend/pkg/types"
)

// GuessFirstPolicy: the starter picks a subject with a hidden answer and an
// emoji clue; only guesses matching the answer count, wrong guesses are
// broadcast for everyone's amusement.
type GuessFirstPolicy struct {
	clk clock.Clock
}

func NewGuessFirstPolicy(clk clock.Clock) *GuessFirstPolicy {
	return &GuessFirstPolicy{clk: clk}
}

func (*GuessFirstPolicy) Name() string { return "guessfirst" }

func (p *GuessFirstPolicy) RoundStartMessage(game *session.Game, starter *session.Player) types.Envelope {
	return types.Envelope{Type: types.MsgGuessFirstGameStarted, Payload: types.RoundStartedPayload{
		StartTimeMs: p.clk.Now().UnixMilli(),
		PromptPlayer: types.PromptPlayerRef{
			PlayerID:   starter.DeviceID(),
			PlayerIdx:  starter.JoinIndex(),
			PlayerName: game.PlayerName(starter.DeviceID()),
		},
	}}
}

func (*GuessFirstPolicy) AcceptPrompt(acc *Accumulator, sub PromptSubmission) bool {
	subject := strings.TrimSpace(sub.Subject)
	answer := strings.TrimSpace(sub.Answer)
	if subject == "" || answer == "" {
		return false
	}
	acc.PromptText = answer
	acc.PromptSubject = subject
	acc.Answer = answer
	acc.ClueEmoji = sub.Clue
	return true
}

func (*GuessFirstPolicy) PromptMessage(acc Accumulator, deadline time.Time) types.Envelope {
	// The answer stays server-side; clients see the subject and clue only.
	return types.Envelope{Type: types.MsgGuessFirstNewPrompt, Payload: types.NewPromptPayload{
		PromptText:         acc.PromptSubject,
		PromptSubject:      acc.PromptSubject,
		PromptEmoji:        acc.ClueEmoji,
		PromptFromPlayerID: acc.PromptPlayerID,
		DeadlineMs:         deadline.UnixMilli(),
	}}
}

// AcceptResponse admits a guess only when it matches the hidden answer,
// case-insensitively and ignoring surrounding whitespace.
func (*GuessFirstPolicy) AcceptResponse(acc *Accumulator, playerID, response string) bool {
	return answersMatch(acc.Answer, response)
}

func (*GuessFirstPolicy) RejectedResponseMessage(playerID, response string) (types.Envelope, bool) {
	return types.Envelope{Type: types.MsgGuessFirstWrongGuess, Payload: types.WrongGuessPayload{
		PlayerID: playerID,
		Guess:    response,
	}}, true
}

func (*GuessFirstPolicy) ResponsesMessage(acc Accumulator) types.Envelope {
	return types.Envelope{Type: types.MsgGuessFirstAllResponses, Payload: types.AllResponsesPayload{
		PromptText:         acc.PromptText,
		PromptSubject:      acc.PromptSubject,
		PromptFromPlayerID: acc.PromptPlayerID,
		Responses:          responseEntries(acc.Responses),
	}}
}

func (*GuessFirstPolicy) ResultsMessage(acc Accumulator, scores []types.VotingResult) types.Envelope {
	return types.Envelope{Type: types.MsgGuessFirstVotingResults, Payload: types.VotingResultsPayload{
		PromptText:         acc.PromptText,
		PromptFromPlayerID: acc.PromptPlayerID,
		Votes:              scores,
	}}
}

func answersMatch(expected, observed string) bool {
	normalize := func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return normalize(expected) == normalize(observed)
}
