package round

import (
	"strings"
	"time"

	"github.com/playbrawl/party-backend/internal/clock"
	"github.com/playbrawl/party-backend/internal/session"
	"github.com/playbrawl/party-backend/pkg/types"
)

// EmojiPolicy: the starter writes a free-text prompt, everyone answers in
// emoji, then everyone votes for their favorite answers.
type EmojiPolicy struct {
	clk clock.Clock
}

func NewEmojiPolicy(clk clock.Clock) *EmojiPolicy {
	return &EmojiPolicy{clk: clk}
}

func (*EmojiPolicy) Name() string { return "emoji" }

func (p *EmojiPolicy) RoundStartMessage(game *session.Game, starter *session.Player) types.Envelope {
	return types.Envelope{Type: types.MsgEmojiGameStarted, Payload: types.RoundStartedPayload{
		StartTimeMs: p.clk.Now().UnixMilli(),
		PromptPlayer: types.PromptPlayerRef{
			PlayerID:   starter.DeviceID(),
			PlayerIdx:  starter.JoinIndex(),
			PlayerName: game.PlayerName(starter.DeviceID()),
		},
	}}
}

func (*EmojiPolicy) AcceptPrompt(acc *Accumulator, sub PromptSubmission) bool {
	text := strings.TrimSpace(sub.Text)
	if text == "" {
		return false
	}
	acc.PromptText = text
	return true
}

func (*EmojiPolicy) PromptMessage(acc Accumulator, deadline time.Time) types.Envelope {
	return types.Envelope{Type: types.MsgEmojiNewPrompt, Payload: types.NewPromptPayload{
		PromptText:         acc.PromptText,
		PromptFromPlayerID: acc.PromptPlayerID,
		DeadlineMs:         deadline.UnixMilli(),
	}}
}

func (*EmojiPolicy) AcceptResponse(acc *Accumulator, playerID, response string) bool {
	return strings.TrimSpace(response) != ""
}

func (*EmojiPolicy) RejectedResponseMessage(playerID, response string) (types.Envelope, bool) {
	return types.Envelope{}, false
}

func (*EmojiPolicy) ResponsesMessage(acc Accumulator) types.Envelope {
	return types.Envelope{Type: types.MsgEmojiAllResponses, Payload: types.AllResponsesPayload{
		PromptText:         acc.PromptText,
		PromptFromPlayerID: acc.PromptPlayerID,
		Responses:          responseEntries(acc.Responses),
	}}
}

func (*EmojiPolicy) ResultsMessage(acc Accumulator, scores []types.VotingResult) types.Envelope {
	return types.Envelope{Type: types.MsgEmojiVotingResults, Payload: types.VotingResultsPayload{
		PromptText:         acc.PromptText,
		PromptFromPlayerID: acc.PromptPlayerID,
		Votes:              scores,
	}}
}

func responseEntries(responses []PlayerResponse) []types.PlayerResponseEntry {
	out := make([]types.PlayerResponseEntry, len(responses))
	for i, r := range responses {
		out[i] = types.PlayerResponseEntry{PlayerID: r.PlayerID, Response: r.Response}
	}
	return out
}
