package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/KirkDiggler/hotdice/internal/services/game"
	"github.com/KirkDiggler/hotdice/internal/turn"
	"github.com/go-chi/chi/v5"
)

type createLobbyRequest struct {
	HostID       string          `json:"host_id"`
	HostName     string          `json:"host_name"`
	ChannelID    string          `json:"channel_id"`
	Mode         models.GameMode `json:"mode"`
	WinThreshold int             `json:"win_threshold"`
}

type playerRequest struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Code       string `json:"code"`
}

type actionRequest struct {
	PlayerID string `json:"player_id"`

	// Indices are the dice to hold
	Indices []int `json:"indices"`

	// Index is the die to reroll
	Index int `json:"index"`
}

type lobbyResponse struct {
	Lobby       *models.LobbySnapshot `json:"lobby"`
	Actions     *turn.Available       `json:"actions,omitempty"`
	Reconnected bool                  `json:"reconnected,omitempty"`
	Removed     bool                  `json:"removed,omitempty"`
}

type actionResponse struct {
	Lobby    models.LobbySnapshot `json:"lobby"`
	Won      bool                 `json:"won"`
	Attempts int                  `json:"attempts"`
}

type leaderboardResponse struct {
	Leaderboard *models.Leaderboard            `json:"leaderboard"`
	Stats       map[string]*models.PlayerStats `json:"stats"`
}

type historyResponse struct {
	Rolls []models.Roll `json:"rolls"`
}

func (h *Handler) createLobby(w http.ResponseWriter, r *http.Request) {
	var req createLobbyRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.gameService.CreateLobby(r.Context(), &game.CreateLobbyInput{
		HostID:       req.HostID,
		HostName:     req.HostName,
		ChannelID:    req.ChannelID,
		Mode:         req.Mode,
		WinThreshold: req.WinThreshold,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, lobbyResponse{Lobby: out.Lobby})
}

func (h *Handler) getLobby(w http.ResponseWriter, r *http.Request) {
	h.writeLobby(w, r, &game.GetLobbyInput{LobbyID: chi.URLParam(r, "lobbyID")})
}

func (h *Handler) getLobbyByCode(w http.ResponseWriter, r *http.Request) {
	h.writeLobby(w, r, &game.GetLobbyInput{Code: chi.URLParam(r, "code")})
}

func (h *Handler) writeLobby(w http.ResponseWriter, r *http.Request, input *game.GetLobbyInput) {
	out, err := h.gameService.GetLobby(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lobbyResponse{Lobby: out.Lobby, Actions: &out.Actions})
}

func (h *Handler) deleteLobby(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	err := h.gameService.DeleteLobby(r.Context(), &game.DeleteLobbyInput{
		LobbyID:  chi.URLParam(r, "lobbyID"),
		PlayerID: req.PlayerID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) joinLobby(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.gameService.JoinLobby(r.Context(), &game.JoinLobbyInput{
		LobbyID:    chi.URLParam(r, "lobbyID"),
		Code:       req.Code,
		PlayerID:   req.PlayerID,
		PlayerName: req.PlayerName,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lobbyResponse{Lobby: out.Lobby, Reconnected: out.Reconnected})
}

func (h *Handler) leaveLobby(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.gameService.LeaveLobby(r.Context(), &game.LeaveLobbyInput{
		LobbyID:  chi.URLParam(r, "lobbyID"),
		PlayerID: req.PlayerID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lobbyResponse{Lobby: out.Lobby, Removed: out.Removed})
}

// act runs a turn action. The game service shows the planned result on the
// lobby's live feed before writing it.
func (h *Handler) act(w http.ResponseWriter, r *http.Request) {
	lobbyID := chi.URLParam(r, "lobbyID")
	action := chi.URLParam(r, "action")

	var req actionRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	var (
		out *game.ActionOutput
		err error
	)
	switch action {
	case game.ActionStart:
		out, err = h.gameService.StartGame(ctx, &game.StartGameInput{LobbyID: lobbyID, PlayerID: req.PlayerID})
	case game.ActionRoll:
		out, err = h.gameService.Roll(ctx, &game.RollInput{LobbyID: lobbyID, PlayerID: req.PlayerID})
	case game.ActionHold:
		out, err = h.gameService.Hold(ctx, &game.HoldInput{LobbyID: lobbyID, PlayerID: req.PlayerID, Indices: req.Indices})
	case game.ActionReroll:
		out, err = h.gameService.Reroll(ctx, &game.RerollInput{LobbyID: lobbyID, PlayerID: req.PlayerID, Index: req.Index})
	case game.ActionBank:
		out, err = h.gameService.Bank(ctx, &game.BankInput{LobbyID: lobbyID, PlayerID: req.PlayerID})
	case game.ActionBust:
		out, err = h.gameService.Bust(ctx, &game.BustInput{LobbyID: lobbyID, PlayerID: req.PlayerID})
	case game.ActionEndTurn:
		out, err = h.gameService.EndTurn(ctx, &game.EndTurnInput{LobbyID: lobbyID, PlayerID: req.PlayerID})
	default:
		err = fmt.Errorf("%w: unknown action %q", game.ErrInvalidInput, action)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, actionResponse{
		Lobby:    out.Outcome.Snapshot,
		Won:      out.Outcome.Won(),
		Attempts: out.Attempts,
	})
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	out, err := h.gameService.GetLeaderboard(r.Context(), &game.GetLeaderboardInput{
		LobbyID: chi.URLParam(r, "lobbyID"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Leaderboard: out.Leaderboard, Stats: out.Stats})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	var limit int
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.fail(w, r, fmt.Errorf("%w: limit must be a non-negative number", game.ErrInvalidInput))
			return
		}
		limit = n
	}
	out, err := h.gameService.GetHistory(r.Context(), &game.GetHistoryInput{
		LobbyID:  chi.URLParam(r, "lobbyID"),
		PlayerID: r.URL.Query().Get("player_id"),
		Limit:    limit,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Rolls: out.Rolls})
}
