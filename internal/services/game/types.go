package game

import (
	"time"

	"github.com/KirkDiggler/hotdice/internal/common/clock"
	"github.com/KirkDiggler/hotdice/internal/common/uuid"
	"github.com/KirkDiggler/hotdice/internal/metrics"
	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/KirkDiggler/hotdice/internal/reconcile"
	historyRepo "github.com/KirkDiggler/hotdice/internal/repositories/history"
	lobbyRepo "github.com/KirkDiggler/hotdice/internal/repositories/lobby"
	"github.com/KirkDiggler/hotdice/internal/turn"
	"go.uber.org/zap"
)

const (
	// DefaultMaxAttempts is how many times an action is planned against a
	// fresh snapshot before giving up on conflicts
	DefaultMaxAttempts = 3

	// DefaultRetryInterval is the first wait between conflicting attempts
	DefaultRetryInterval = 100 * time.Millisecond

	// codeAttempts bounds the retries for a join code already in use
	codeAttempts = 3
)

// Config holds configuration for the game service
type Config struct {
	// Repository dependencies
	LobbyRepo   lobbyRepo.Repository
	HistoryRepo historyRepo.Repository

	// Service dependencies
	Machine       *turn.Machine
	Clock         clock.Clock
	UUIDGenerator uuid.UUID

	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// Overlay is optional; when set each planned action is shown through it
	// before it is written
	Overlay reconcile.Overlay

	// MaxAttempts defaults to DefaultMaxAttempts
	MaxAttempts uint

	// RetryInterval defaults to DefaultRetryInterval
	RetryInterval time.Duration
}

// CreateLobbyInput contains parameters for opening a lobby
type CreateLobbyInput struct {
	// HostID is the player opening the lobby, a Discord user ID for bot players
	HostID   string
	HostName string

	// ChannelID is the Discord channel the lobby belongs to, optional
	ChannelID string

	// Mode defaults to six-sided
	Mode models.GameMode

	// WinThreshold defaults to the mode's first allowed threshold
	WinThreshold int
}

// CreateLobbyOutput contains the opened lobby
type CreateLobbyOutput struct {
	Lobby *models.LobbySnapshot
}

// JoinLobbyInput contains parameters for joining a lobby. Either LobbyID or
// Code identifies the lobby.
type JoinLobbyInput struct {
	LobbyID    string
	Code       string
	PlayerID   string
	PlayerName string
}

// JoinLobbyOutput contains the lobby after the join
type JoinLobbyOutput struct {
	Lobby *models.LobbySnapshot

	// Reconnected is set when the player was already seated and away
	Reconnected bool
}

// LeaveLobbyInput contains parameters for leaving a lobby
type LeaveLobbyInput struct {
	LobbyID  string
	PlayerID string
}

// LeaveLobbyOutput contains the lobby after the leave
type LeaveLobbyOutput struct {
	Lobby *models.LobbySnapshot

	// Removed is set when the player lost their seat rather than being
	// marked away
	Removed bool
}

// DeleteLobbyInput contains parameters for deleting a lobby
type DeleteLobbyInput struct {
	LobbyID  string
	PlayerID string
}

// GetLobbyInput identifies a lobby by the first non-empty of LobbyID, Code
// and ChannelID
type GetLobbyInput struct {
	LobbyID   string
	Code      string
	ChannelID string
}

// GetLobbyOutput contains a lobby and what its current player may do
type GetLobbyOutput struct {
	Lobby   *models.LobbySnapshot
	Actions turn.Available
}

type StartGameInput struct {
	LobbyID  string
	PlayerID string
}

type RollInput struct {
	LobbyID  string
	PlayerID string
}

type HoldInput struct {
	LobbyID  string
	PlayerID string

	// Indices are positions in the latest roll
	Indices []int
}

type RerollInput struct {
	LobbyID  string
	PlayerID string
	Index    int
}

type BankInput struct {
	LobbyID  string
	PlayerID string
}

type BustInput struct {
	LobbyID  string
	PlayerID string
}

type EndTurnInput struct {
	LobbyID  string
	PlayerID string
}

// ActionOutput contains the result of a turn action
type ActionOutput struct {
	// Before is the snapshot the action was planned against
	Before models.LobbySnapshot

	// Outcome holds the expected snapshot and the scoring details
	Outcome *turn.Outcome

	// Attempts is how many times the action was planned
	Attempts int
}

type GetLeaderboardInput struct {
	LobbyID string
}

type GetLeaderboardOutput struct {
	Leaderboard *models.Leaderboard

	// Stats are keyed by player ID
	Stats map[string]*models.PlayerStats
}

type GetHistoryInput struct {
	LobbyID string

	// PlayerID filters the history to one player, optional
	PlayerID string

	// Limit keeps the most recent entries, zero for all
	Limit int
}

type GetHistoryOutput struct {
	Rolls []models.Roll
}
