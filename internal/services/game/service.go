package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KirkDiggler/hotdice/internal/common/clock"
	"github.com/KirkDiggler/hotdice/internal/common/logging"
	"github.com/KirkDiggler/hotdice/internal/common/uuid"
	"github.com/KirkDiggler/hotdice/internal/metrics"
	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/KirkDiggler/hotdice/internal/reconcile"
	historyRepo "github.com/KirkDiggler/hotdice/internal/repositories/history"
	lobbyRepo "github.com/KirkDiggler/hotdice/internal/repositories/lobby"
	"github.com/KirkDiggler/hotdice/internal/turn"
	"go.uber.org/zap"
)

// service implements the Service interface
type service struct {
	lobbyRepo     lobbyRepo.Repository
	historyRepo   historyRepo.Repository
	machine       *turn.Machine
	clock         clock.Clock
	uuid          uuid.UUID
	logger        *zap.Logger
	metrics       *metrics.Metrics
	overlay       reconcile.Overlay
	maxAttempts   uint
	retryInterval time.Duration
}

// New creates a new game service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.LobbyRepo == nil {
		return nil, ErrNilLobbyRepo
	}
	if cfg.HistoryRepo == nil {
		return nil, ErrNilHistoryRepo
	}
	if cfg.Machine == nil {
		return nil, ErrNilMachine
	}
	if cfg.Clock == nil {
		return nil, ErrNilClock
	}
	if cfg.UUIDGenerator == nil {
		return nil, ErrNilUUIDGenerator
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxAttempts
	}
	retryInterval := cfg.RetryInterval
	if retryInterval <= 0 {
		retryInterval = DefaultRetryInterval
	}

	return &service{
		lobbyRepo:     cfg.LobbyRepo,
		historyRepo:   cfg.HistoryRepo,
		machine:       cfg.Machine,
		clock:         cfg.Clock,
		uuid:          cfg.UUIDGenerator,
		logger:        logging.OrNop(cfg.Logger),
		metrics:       cfg.Metrics,
		overlay:       cfg.Overlay,
		maxAttempts:   maxAttempts,
		retryInterval: retryInterval,
	}, nil
}

// CreateLobby opens a lobby and seats the host
func (s *service) CreateLobby(ctx context.Context, input *CreateLobbyInput) (*CreateLobbyOutput, error) {
	if input == nil || input.HostID == "" {
		return nil, fmt.Errorf("%w: host ID cannot be empty", ErrInvalidInput)
	}

	mode := input.Mode
	if mode == "" {
		mode = models.GameModeSixSided
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMode, mode)
	}
	threshold := input.WinThreshold
	if threshold == 0 {
		threshold = mode.DefaultThreshold()
	}
	if !mode.ValidThreshold(threshold) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidThreshold, threshold)
	}

	// Only one unfinished lobby per channel
	if input.ChannelID != "" {
		existing, err := s.lobbyRepo.GetLobbyByChannel(ctx, &lobbyRepo.GetLobbyByChannelInput{
			ChannelID: input.ChannelID,
		})
		switch {
		case err == nil && existing.Lobby.Status != models.LobbyStatusFinished:
			return nil, ErrLobbyExists
		case err != nil && !errors.Is(err, lobbyRepo.ErrLobbyNotFound):
			return nil, err
		}
	}

	l := &models.Lobby{
		ID:           s.uuid.NewUUID(),
		HostID:       input.HostID,
		ChannelID:    input.ChannelID,
		Mode:         mode,
		WinThreshold: threshold,
	}

	var err error
	for i := 0; i < codeAttempts; i++ {
		l.Code = s.uuid.NewCode()
		_, err = s.lobbyRepo.CreateLobby(ctx, &lobbyRepo.CreateLobbyInput{Lobby: l})
		if !errors.Is(err, lobbyRepo.ErrCodeTaken) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	_, err = s.lobbyRepo.AddPlayer(ctx, &lobbyRepo.AddPlayerInput{
		LobbyID:  l.ID,
		PlayerID: input.HostID,
		Name:     input.HostName,
	})
	if err != nil {
		return nil, err
	}

	snap, err := s.fetch(ctx, l.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("lobby created",
		zap.String("lobby_id", l.ID),
		zap.String("player_id", input.HostID),
		zap.String("mode", string(mode)),
		zap.String("code", snap.Lobby.Code))

	return &CreateLobbyOutput{Lobby: snap}, nil
}

// JoinLobby seats a player, or reconnects one who is already seated
func (s *service) JoinLobby(ctx context.Context, input *JoinLobbyInput) (*JoinLobbyOutput, error) {
	if input == nil || input.PlayerID == "" {
		return nil, fmt.Errorf("%w: player ID cannot be empty", ErrInvalidInput)
	}

	snap, err := s.resolve(ctx, &GetLobbyInput{LobbyID: input.LobbyID, Code: input.Code})
	if err != nil {
		return nil, err
	}
	lobbyID := snap.Lobby.ID

	if p, _, ok := snap.PlayerByID(input.PlayerID); ok {
		if p.Connected {
			return nil, ErrPlayerAlreadyInLobby
		}
		err = s.lobbyRepo.SetConnected(ctx, &lobbyRepo.SetConnectedInput{
			LobbyID:   lobbyID,
			PlayerID:  input.PlayerID,
			Connected: true,
		})
		if err != nil {
			return nil, s.translate(err)
		}
		snap, err = s.fetch(ctx, lobbyID)
		if err != nil {
			return nil, err
		}
		s.logger.Info("player reconnected", zap.String("lobby_id", lobbyID), zap.String("player_id", input.PlayerID))
		return &JoinLobbyOutput{Lobby: snap, Reconnected: true}, nil
	}

	_, err = s.lobbyRepo.AddPlayer(ctx, &lobbyRepo.AddPlayerInput{
		LobbyID:  lobbyID,
		PlayerID: input.PlayerID,
		Name:     input.PlayerName,
	})
	if err != nil {
		return nil, s.translate(err)
	}

	snap, err = s.fetch(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("player joined", zap.String("lobby_id", lobbyID), zap.String("player_id", input.PlayerID))
	return &JoinLobbyOutput{Lobby: snap}, nil
}

// LeaveLobby unseats a player before the game starts and marks them away after
func (s *service) LeaveLobby(ctx context.Context, input *LeaveLobbyInput) (*LeaveLobbyOutput, error) {
	if input == nil || input.LobbyID == "" || input.PlayerID == "" {
		return nil, fmt.Errorf("%w: lobby ID and player ID cannot be empty", ErrInvalidInput)
	}

	snap, err := s.fetch(ctx, input.LobbyID)
	if err != nil {
		return nil, err
	}
	if _, _, ok := snap.PlayerByID(input.PlayerID); !ok {
		return nil, ErrPlayerNotInLobby
	}

	removed := snap.Lobby.Status == models.LobbyStatusWaiting
	if removed {
		err = s.lobbyRepo.RemovePlayer(ctx, &lobbyRepo.RemovePlayerInput{
			LobbyID:  input.LobbyID,
			PlayerID: input.PlayerID,
		})
	}
	// The game may have started since the fetch; keep the seat then
	if !removed || errors.Is(err, lobbyRepo.ErrLobbyStarted) {
		removed = false
		err = s.lobbyRepo.SetConnected(ctx, &lobbyRepo.SetConnectedInput{
			LobbyID:   input.LobbyID,
			PlayerID:  input.PlayerID,
			Connected: false,
		})
	}
	if err != nil {
		return nil, s.translate(err)
	}

	snap, err = s.fetch(ctx, input.LobbyID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("player left",
		zap.String("lobby_id", input.LobbyID),
		zap.String("player_id", input.PlayerID),
		zap.Bool("removed", removed))
	return &LeaveLobbyOutput{Lobby: snap, Removed: removed}, nil
}

// DeleteLobby removes a lobby and its history; host only
func (s *service) DeleteLobby(ctx context.Context, input *DeleteLobbyInput) error {
	if input == nil || input.LobbyID == "" {
		return fmt.Errorf("%w: lobby ID cannot be empty", ErrInvalidInput)
	}

	snap, err := s.fetch(ctx, input.LobbyID)
	if err != nil {
		return err
	}
	if snap.Lobby.HostID != input.PlayerID {
		return ErrNotHost
	}

	if err := s.lobbyRepo.DeleteLobby(ctx, &lobbyRepo.DeleteLobbyInput{LobbyID: input.LobbyID}); err != nil {
		return s.translate(err)
	}
	if err := s.historyRepo.DeleteRolls(ctx, &historyRepo.DeleteRollsInput{LobbyID: input.LobbyID}); err != nil {
		s.logger.Warn("failed to delete roll history", zap.String("lobby_id", input.LobbyID), zap.Error(err))
	}

	s.logger.Info("lobby deleted", zap.String("lobby_id", input.LobbyID))
	return nil
}

// GetLobby resolves a lobby by id, join code or channel
func (s *service) GetLobby(ctx context.Context, input *GetLobbyInput) (*GetLobbyOutput, error) {
	snap, err := s.resolve(ctx, input)
	if err != nil {
		return nil, err
	}
	return &GetLobbyOutput{
		Lobby:   snap,
		Actions: s.machine.Actions(*snap),
	}, nil
}

// GetLeaderboard returns the standings and per-player stats of a lobby
func (s *service) GetLeaderboard(ctx context.Context, input *GetLeaderboardInput) (*GetLeaderboardOutput, error) {
	if input == nil || input.LobbyID == "" {
		return nil, fmt.Errorf("%w: lobby ID cannot be empty", ErrInvalidInput)
	}

	snap, err := s.fetch(ctx, input.LobbyID)
	if err != nil {
		return nil, err
	}
	stats, err := s.historyRepo.GetPlayerStats(ctx, &historyRepo.GetPlayerStatsInput{LobbyID: input.LobbyID})
	if err != nil {
		return nil, err
	}

	return &GetLeaderboardOutput{
		Leaderboard: models.NewLeaderboard(*snap),
		Stats:       stats.Stats,
	}, nil
}

// GetHistory returns the roll history of a lobby
func (s *service) GetHistory(ctx context.Context, input *GetHistoryInput) (*GetHistoryOutput, error) {
	if input == nil || input.LobbyID == "" {
		return nil, fmt.Errorf("%w: lobby ID cannot be empty", ErrInvalidInput)
	}

	out, err := s.historyRepo.ListRolls(ctx, &historyRepo.ListRollsInput{
		LobbyID:  input.LobbyID,
		PlayerID: input.PlayerID,
		Limit:    input.Limit,
	})
	if err != nil {
		return nil, err
	}
	return &GetHistoryOutput{Rolls: out.Rolls}, nil
}

func (s *service) resolve(ctx context.Context, input *GetLobbyInput) (*models.LobbySnapshot, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}

	var (
		snap *models.LobbySnapshot
		err  error
	)
	switch {
	case input.LobbyID != "":
		snap, err = s.lobbyRepo.FetchLobby(ctx, &lobbyRepo.FetchLobbyInput{LobbyID: input.LobbyID})
	case input.Code != "":
		snap, err = s.lobbyRepo.GetLobbyByCode(ctx, &lobbyRepo.GetLobbyByCodeInput{Code: input.Code})
	case input.ChannelID != "":
		snap, err = s.lobbyRepo.GetLobbyByChannel(ctx, &lobbyRepo.GetLobbyByChannelInput{ChannelID: input.ChannelID})
	default:
		return nil, fmt.Errorf("%w: lobby ID, code or channel ID required", ErrInvalidInput)
	}
	if err != nil {
		return nil, s.translate(err)
	}
	return snap, nil
}

func (s *service) fetch(ctx context.Context, lobbyID string) (*models.LobbySnapshot, error) {
	return s.resolve(ctx, &GetLobbyInput{LobbyID: lobbyID})
}

// translate maps store errors to the service's own
func (s *service) translate(err error) error {
	switch {
	case errors.Is(err, lobbyRepo.ErrLobbyNotFound):
		return ErrLobbyNotFound
	case errors.Is(err, lobbyRepo.ErrPlayerNotFound):
		return ErrPlayerNotInLobby
	case errors.Is(err, lobbyRepo.ErrPlayerExists):
		return ErrPlayerAlreadyInLobby
	case errors.Is(err, lobbyRepo.ErrLobbyFull):
		return ErrLobbyFull
	case errors.Is(err, lobbyRepo.ErrLobbyStarted):
		return ErrLobbyStarted
	}
	return err
}
