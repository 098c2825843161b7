package types

// Envelope is the unit of mailbox delivery. Payload is one of the typed
// payload structs below, selected by Type.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Room lifecycle message types.
const (
	MsgJoinedPlayer = "JOINED_PLAYER"
	MsgPlayerList   = "PLAYER_LIST"
	MsgRoomReady    = "ROOM_READY"
)

// Emoji game message types.
const (
	MsgEmojiGameStarted   = "EMOJI_GAME_STARTED"
	MsgEmojiNewPrompt     = "EMOJI_NEW_PROMPT"
	MsgEmojiAllResponses  = "EMOJI_ALL_RESPONSES"
	MsgEmojiVotingResults = "EMOJI_VOTING_RESULTS"
)

// Guess-first game message types.
const (
	MsgGuessFirstGameStarted   = "GUESSFIRST_GAME_STARTED"
	MsgGuessFirstNewPrompt     = "GUESSFIRST_NEW_PROMPT"
	MsgGuessFirstWrongGuess    = "GUESSFIRST_WRONG_GUESS"
	MsgGuessFirstAllResponses  = "GUESSFIRST_ALL_RESPONSES"
	MsgGuessFirstVotingResults = "GUESSFIRST_VOTING_RESULTS"
)

// JoinedPlayerPayload is sent to players already in a room when another
// player joins. The copy sent to the joining player carries the count only.
type JoinedPlayerPayload struct {
	EventTimeMs     int64 `json:"eventTimeMs"`
	PlayerJoinIndex *int  `json:"playerJoinIndex,omitempty"`
	PlayerCount     int   `json:"playerCount"`
}

// RosterEntry identifies one player by stable join index.
type RosterEntry struct {
	PlayerIndex int    `json:"playerIndex"`
	PlayerName  string `json:"playerName,omitempty"`
}

// PlayerListPayload is the host-facing roster, ordered by join index.
type PlayerListPayload struct {
	LastJoined RosterEntry   `json:"lastJoinedPlayer"`
	Players    []RosterEntry `json:"players"`
}

// RoomReadyPayload announces that the master closed the room and gameplay
// starts after the countdown.
type RoomReadyPayload struct {
	StartTimeMs int64 `json:"gameStartTimeMs"`
	CountdownMs int64 `json:"gameCountDownMs"`
}

// PromptPlayerRef identifies the player picked to author the round prompt.
type PromptPlayerRef struct {
	PlayerID   string `json:"playerId"`
	PlayerIdx  int    `json:"playerJoinId"`
	PlayerName string `json:"playerName,omitempty"`
}

// RoundStartedPayload opens a round and names the prompting player.
type RoundStartedPayload struct {
	StartTimeMs  int64           `json:"gameStartTimeMs"`
	PromptPlayer PromptPlayerRef `json:"initialPromptPlayer"`
}

// NewPromptPayload broadcasts the chosen prompt. DeadlineMs is the absolute
// wall-clock time the response phase expires at.
type NewPromptPayload struct {
	PromptText         string `json:"promptText"`
	PromptSubject      string `json:"promptSubject,omitempty"`
	PromptEmoji        string `json:"promptEmoji,omitempty"`
	PromptFromPlayerID string `json:"promptFromPlayerId"`
	DeadlineMs         int64  `json:"timeoutMs"`
}

// PlayerResponseEntry is one player's submission during the collect phase.
type PlayerResponseEntry struct {
	PlayerID string `json:"playerId"`
	Response string `json:"playerResponse"`
}

// AllResponsesPayload broadcasts every collected response before voting.
type AllResponsesPayload struct {
	PromptText         string                `json:"promptText"`
	PromptSubject      string                `json:"promptSubject,omitempty"`
	PromptFromPlayerID string                `json:"promptFromPlayerId"`
	Responses          []PlayerResponseEntry `json:"responses"`
}

// WrongGuessPayload is fanned out when a guess-first answer misses.
type WrongGuessPayload struct {
	PlayerID string `json:"playerId"`
	Guess    string `json:"guess"`
}

// VotingResult is one scored player, ordered strictly by descending vote
// count (ties broken by ascending join index).
type VotingResult struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	VoteCount  int    `json:"voteCount"`
}

// VotingResultsPayload closes a round with the tallied scores.
type VotingResultsPayload struct {
	PromptText         string         `json:"promptText"`
	PromptFromPlayerID string         `json:"promptFromPlayerId"`
	Votes              []VotingResult `json:"votes"`
}

// PollResult is the poll/drain response shape. Valid is false when the
// caller's session is no longer recognized.
type PollResult struct {
	Valid    bool       `json:"valid"`
	Messages []Envelope `json:"messages,omitempty"`
}
