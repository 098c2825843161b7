package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/playbrawl/party-backend/internal/auth"
	"github.com/playbrawl/party-backend/internal/room"
	"github.com/playbrawl/party-backend/internal/round"
	"github.com/playbrawl/party-backend/pkg/types"
)

type registerReq struct {
	DeviceID string `json:"deviceId"`
}

type registerPlayerResp struct {
	DeviceID string `json:"deviceId"`
	Token    string `json:"token"`
}

type registerHostResp struct {
	JoinID int    `json:"joinId"`
	Token  string `json:"token"`
}

type hostJoinReq struct {
	DeviceID string `json:"deviceId"`
	RoomID   string `json:"roomId"`
}

type roomReq struct {
	RoomID string `json:"roomId"`
}

type joinRoomResp struct {
	Success    bool   `json:"success"`
	IsMaster   bool   `json:"isMaster"`
	IsOpen     bool   `json:"isOpen"`
	PlayerIdx  *int   `json:"playerIdx"`
	PlayerName string `json:"playerName,omitempty"`
}

type successResp struct {
	Success bool `json:"success"`
}

func (a *api) registerPlayer(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if !decode(w, r, &req) || req.DeviceID == "" {
		badRequest(w)
		return
	}
	sessionID := a.Tokens.NewSessionID()
	player := a.Rooms.RegisterPlayer(req.DeviceID, sessionID)
	token, err := a.Tokens.Issue(auth.Session{
		SessionID: sessionID,
		DeviceID:  req.DeviceID,
		Role:      auth.RolePlayer,
	})
	if err != nil {
		a.Log.Error("failed to issue player token", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	a.Log.Info("registered new player", player.LogFields()...)
	writeJSON(w, http.StatusCreated, registerPlayerResp{DeviceID: req.DeviceID, Token: token})
}

func (a *api) playerKeepAlive(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r.Context())
	writeJSON(w, http.StatusOK, types.PollResult{Valid: a.Rooms.KeepAlivePlayer(s.SessionID)})
}

func (a *api) playerPoll(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r.Context())
	if !a.limiters.allow(s.SessionID) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}
	msgs, valid := a.Rooms.PollPlayer(s.SessionID)
	writeJSON(w, http.StatusOK, types.PollResult{Valid: valid, Messages: msgs})
}

func (a *api) playerJoin(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r.Context())
	var req roomReq
	code, ok := decodeRoomCode(w, r, &req)
	if !ok {
		return
	}
	player, ok := a.Store.Player(s.SessionID)
	if !ok {
		writeJSON(w, http.StatusOK, joinRoomResp{})
		return
	}
	game, err := a.Rooms.PlayerJoin(code, player)
	if err != nil {
		if !errors.Is(err, room.ErrRoomNotFound) && !errors.Is(err, room.ErrRoomClosed) {
			a.Log.Error("player join failed", zap.Error(err))
		}
		writeJSON(w, http.StatusOK, joinRoomResp{})
		return
	}
	player.Touch()
	idx := player.JoinIndex()
	writeJSON(w, http.StatusOK, joinRoomResp{
		Success:    true,
		IsMaster:   player.IsMaster(),
		IsOpen:     !game.Closed(),
		PlayerIdx:  &idx,
		PlayerName: game.PlayerName(player.DeviceID()),
	})
}

func (a *api) changeName(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r.Context())
	var req struct {
		PlayerName string `json:"playerName"`
	}
	if !decode(w, r, &req) || req.PlayerName == "" {
		badRequest(w)
		return
	}
	player, ok := a.Store.Player(s.SessionID)
	if !ok {
		writeJSON(w, http.StatusOK, successResp{})
		return
	}
	player.Touch()
	writeJSON(w, http.StatusOK, successResp{Success: a.Rooms.ChangeName(player, req.PlayerName)})
}

func (a *api) closeRoom(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r.Context())
	var req roomReq
	code, ok := decodeRoomCode(w, r, &req)
	if !ok {
		return
	}
	player, found := a.Store.Player(s.SessionID)
	if !found {
		writeJSON(w, http.StatusOK, successResp{})
		return
	}
	player.Touch()
	writeJSON(w, http.StatusOK, successResp{Success: a.Rooms.CloseRoom(code, player)})
}

func (a *api) registerHost(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if !decode(w, r, &req) || req.DeviceID == "" {
		badRequest(w)
		return
	}
	sessionID := a.Tokens.NewSessionID()
	host := a.Rooms.RegisterHost(req.DeviceID, sessionID)
	game, err := a.Rooms.CreateGame(host, nil)
	if err != nil {
		a.Log.Error("failed to create host game", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	token, err := a.Tokens.Issue(auth.Session{
		SessionID: sessionID,
		DeviceID:  req.DeviceID,
		Role:      auth.RoleHost,
	})
	if err != nil {
		a.Log.Error("failed to issue host token", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, registerHostResp{JoinID: game.RoomCode(), Token: token})
}

func (a *api) hostJoin(w http.ResponseWriter, r *http.Request) {
	var req hostJoinReq
	if !decode(w, r, &req) || req.DeviceID == "" {
		badRequest(w)
		return
	}
	code, err := strconv.Atoi(req.RoomID)
	if err != nil {
		badRequest(w)
		return
	}
	sessionID := a.Tokens.NewSessionID()
	host := a.Rooms.RegisterHost(req.DeviceID, sessionID)
	game, err := a.Rooms.HostJoin(code, host)
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		http.Error(w, "room not found", http.StatusNotFound)
		return
	case errors.Is(err, room.ErrRoomClosed):
		http.Error(w, "room is closed", http.StatusConflict)
		return
	case err != nil:
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	token, err := a.Tokens.Issue(auth.Session{
		SessionID: sessionID,
		DeviceID:  req.DeviceID,
		Role:      auth.RoleHost,
	})
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, registerHostResp{JoinID: game.RoomCode(), Token: token})
}

func (a *api) hostKeepAlive(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r.Context())
	writeJSON(w, http.StatusOK, types.PollResult{Valid: a.Rooms.KeepAliveHost(s.SessionID)})
}

func (a *api) hostPoll(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r.Context())
	if !a.limiters.allow(s.SessionID) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}
	msgs, valid := a.Rooms.PollHost(s.SessionID)
	writeJSON(w, http.StatusOK, types.PollResult{Valid: valid, Messages: msgs})
}

func (a *api) registerGame(e *round.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(r.Context())
		var guid string
		switch s.Role {
		case auth.RolePlayer:
			if p, ok := a.Store.Player(s.SessionID); ok {
				guid = p.GameGuid()
			}
		case auth.RoleHost:
			if h, ok := a.Store.Host(s.SessionID); ok {
				guid = h.GameGuid()
			}
		}
		game, ok := a.Store.Game(guid)
		if !ok {
			writeJSON(w, http.StatusOK, successResp{})
			return
		}
		writeJSON(w, http.StatusOK, successResp{Success: e.Register(game)})
	}
}

func (a *api) prompt(e *round.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(r.Context())
		var req struct {
			PromptText    string `json:"promptText"`
			PromptSubject string `json:"promptSubject"`
			PromptAnswer  string `json:"promptAnswer"`
			PromptEmoji   string `json:"promptEmoji"`
		}
		if !decode(w, r, &req) {
			badRequest(w)
			return
		}
		ok := e.PromptReceived(s.SessionID, round.PromptSubmission{
			Text:    req.PromptText,
			Subject: req.PromptSubject,
			Answer:  req.PromptAnswer,
			Clue:    req.PromptEmoji,
		})
		writeJSON(w, http.StatusOK, successResp{Success: ok})
	}
}

func (a *api) response(e *round.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(r.Context())
		var req struct {
			Response string `json:"response"`
		}
		if !decode(w, r, &req) {
			badRequest(w)
			return
		}
		writeJSON(w, http.StatusOK, successResp{Success: e.ResponseReceived(s.SessionID, req.Response)})
	}
}

func (a *api) vote(e *round.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(r.Context())
		var req struct {
			VotedPlayerIDs []string `json:"votedPlayerIds"`
		}
		if !decode(w, r, &req) {
			badRequest(w)
			return
		}
		writeJSON(w, http.StatusOK, successResp{Success: e.VotesReceived(s.SessionID, req.VotedPlayerIDs)})
	}
}

func (a *api) restart(e *round.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(r.Context())
		writeJSON(w, http.StatusOK, successResp{Success: e.RestartReceived(s.SessionID)})
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return false
	}
	return true
}

func decodeRoomCode(w http.ResponseWriter, r *http.Request, req *roomReq) (int, bool) {
	if !decode(w, r, req) {
		badRequest(w)
		return 0, false
	}
	code, err := strconv.Atoi(req.RoomID)
	if err != nil {
		badRequest(w)
		return 0, false
	}
	return code, true
}

func badRequest(w http.ResponseWriter) {
	http.Error(w, "bad request", http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
