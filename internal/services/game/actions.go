package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/KirkDiggler/hotdice/internal/models"
	historyRepo "github.com/KirkDiggler/hotdice/internal/repositories/history"
	"github.com/KirkDiggler/hotdice/internal/reconcile"
	lobbyRepo "github.com/KirkDiggler/hotdice/internal/repositories/lobby"
	"github.com/KirkDiggler/hotdice/internal/scoring"
	"github.com/KirkDiggler/hotdice/internal/turn"
	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// Action names used in logs and metrics
const (
	ActionStart   = "start"
	ActionRoll    = "roll"
	ActionHold    = "hold"
	ActionReroll  = "reroll"
	ActionBank    = "bank"
	ActionBust    = "bust"
	ActionEndTurn = "end_turn"
)

// planFunc computes an action against a snapshot without touching the store
type planFunc func(snap models.LobbySnapshot) (*turn.Outcome, error)

// StartGame moves a waiting lobby to active; host only
func (s *service) StartGame(ctx context.Context, input *StartGameInput) (*ActionOutput, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	return s.act(ctx, ActionStart, input.LobbyID, input.PlayerID, func(snap models.LobbySnapshot) (*turn.Outcome, error) {
		if snap.Lobby.HostID != input.PlayerID {
			return nil, ErrNotHost
		}
		return s.machine.Start(snap)
	})
}

// Roll throws the dice in play for the current player
func (s *service) Roll(ctx context.Context, input *RollInput) (*ActionOutput, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	return s.act(ctx, ActionRoll, input.LobbyID, input.PlayerID, func(snap models.LobbySnapshot) (*turn.Outcome, error) {
		return s.machine.Roll(snap, input.PlayerID)
	})
}

// Hold sets aside scoring dice from the latest roll
func (s *service) Hold(ctx context.Context, input *HoldInput) (*ActionOutput, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	return s.act(ctx, ActionHold, input.LobbyID, input.PlayerID, func(snap models.LobbySnapshot) (*turn.Outcome, error) {
		return s.machine.Hold(snap, input.PlayerID, input.Indices)
	})
}

// Reroll rerolls one die of a tier 2 roll
func (s *service) Reroll(ctx context.Context, input *RerollInput) (*ActionOutput, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	return s.act(ctx, ActionReroll, input.LobbyID, input.PlayerID, func(snap models.LobbySnapshot) (*turn.Outcome, error) {
		return s.machine.Reroll(snap, input.PlayerID, input.Index)
	})
}

// Bank adds the turn score to the player's total and passes the turn
func (s *service) Bank(ctx context.Context, input *BankInput) (*ActionOutput, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	return s.act(ctx, ActionBank, input.LobbyID, input.PlayerID, func(snap models.LobbySnapshot) (*turn.Outcome, error) {
		return s.machine.Bank(snap, input.PlayerID)
	})
}

// Bust forfeits the turn score and passes the turn
func (s *service) Bust(ctx context.Context, input *BustInput) (*ActionOutput, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	return s.act(ctx, ActionBust, input.LobbyID, input.PlayerID, func(snap models.LobbySnapshot) (*turn.Outcome, error) {
		return s.machine.Bust(snap, input.PlayerID)
	})
}

// EndTurn passes the turn after a bust or tier 3 roll has been shown
func (s *service) EndTurn(ctx context.Context, input *EndTurnInput) (*ActionOutput, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	return s.act(ctx, ActionEndTurn, input.LobbyID, input.PlayerID, func(snap models.LobbySnapshot) (*turn.Outcome, error) {
		return s.machine.EndTurn(snap, input.PlayerID)
	})
}

// act fetches the lobby, plans the action and writes the whole plan in one
// transaction guarded by the revision the plan was made against. A conflict
// means nothing was written, so the action is planned again on a fresh
// snapshot.
func (s *service) act(ctx context.Context, action, lobbyID, playerID string, plan planFunc) (*ActionOutput, error) {
	if lobbyID == "" || playerID == "" {
		return nil, fmt.Errorf("%w: lobby ID and player ID cannot be empty", ErrInvalidInput)
	}
	logger := s.logger.With(
		zap.String("lobby_id", lobbyID),
		zap.String("player_id", playerID),
		zap.String("action", action))

	var (
		attempts int
		before   models.LobbySnapshot
	)
	op := func() (*turn.Outcome, error) {
		attempts++
		snap, err := s.fetch(ctx, lobbyID)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		out, err := plan(*snap)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		shown := s.showLocal(logger, action, playerID, *snap, out)
		if err := s.execute(ctx, lobbyID, snap.Revision, out.Plan); err != nil {
			s.discardLocal(logger, lobbyID, shown)
			if errors.Is(err, lobbyRepo.ErrConflict) {
				s.metrics.Conflict()
				logger.Debug("conflicting write, planning again",
					zap.Int("attempt", attempts),
					zap.Int64("revision", snap.Revision))
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		before = *snap
		return out, nil
	}

	out, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(s.maxAttempts))
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Err
		}
		result := resultOf(err)
		s.metrics.Action(action, result)
		switch result {
		case resultConflict:
			logger.Warn("action abandoned after conflicts", zap.Int("attempts", attempts))
			return nil, fmt.Errorf("%w: %w", ErrRetryAction, err)
		case resultRejected:
			logger.Debug("action rejected", zap.Error(err))
		default:
			logger.Error("action failed", zap.Error(err))
		}
		return nil, s.translate(err)
	}

	s.metrics.Action(action, resultOK)
	s.recordHistory(ctx, logger, lobbyID, out.Plan.History)
	logger.Info("action applied",
		zap.Int64("revision", before.Revision),
		zap.Int("attempts", attempts),
		zap.Bool("won", out.Won()))

	return &ActionOutput{
		Before:   before,
		Outcome:  out,
		Attempts: attempts,
	}, nil
}

// showLocal hands the planned state to the overlay and returns the action ID,
// or "" when nothing is shown
func (s *service) showLocal(logger *zap.Logger, action, playerID string, snap models.LobbySnapshot, out *turn.Outcome) string {
	if s.overlay == nil {
		return ""
	}
	local := reconcile.ActionFromOutcome(action, playerID, snap, out)
	local.ID = s.uuid.NewUUID()
	if _, err := s.overlay.ApplyLocal(snap.Lobby.ID, local); err != nil {
		logger.Debug("planned action not shown", zap.Error(err))
		return ""
	}
	return local.ID
}

func (s *service) discardLocal(logger *zap.Logger, lobbyID, actionID string) {
	if actionID == "" {
		return
	}
	if _, err := s.overlay.DiscardLocal(lobbyID, actionID); err != nil {
		logger.Debug("failed to discard planned action", zap.Error(err))
	}
}

// execute commits a plan as one batch: scores, status, winner, turn fields,
// advance, reset
func (s *service) execute(ctx context.Context, lobbyID string, revision int64, plan turn.Plan) error {
	writes := planWrites(plan)
	if len(writes) == 0 {
		return nil
	}
	_, err := s.lobbyRepo.ApplyWrites(ctx, &lobbyRepo.ApplyWritesInput{
		LobbyID:          lobbyID,
		Writes:           writes,
		ExpectedRevision: revision,
	})
	return err
}

func planWrites(plan turn.Plan) []lobbyRepo.Write {
	var writes []lobbyRepo.Write
	for _, su := range plan.Scores {
		writes = append(writes, lobbyRepo.Write{Score: &lobbyRepo.ScoreWrite{
			PlayerID:   su.PlayerID,
			TotalScore: su.TotalScore,
		}})
	}
	if plan.Status != "" {
		writes = append(writes, lobbyRepo.Write{Status: plan.Status})
	}
	if plan.WinnerID != "" {
		writes = append(writes, lobbyRepo.Write{WinnerID: plan.WinnerID})
	}
	if !plan.Turn.IsEmpty() {
		update := plan.Turn
		writes = append(writes, lobbyRepo.Write{Turn: &update})
	}
	if plan.AdvanceTo != nil {
		next := *plan.AdvanceTo
		writes = append(writes, lobbyRepo.Write{AdvanceTo: &next})
	}
	if plan.ResetTurn != nil {
		reset := *plan.ResetTurn
		writes = append(writes, lobbyRepo.Write{ResetTurn: &reset})
	}
	return writes
}

// recordHistory appends the action's roll entries. The game state is already
// committed, so a failure is only logged.
func (s *service) recordHistory(ctx context.Context, logger *zap.Logger, lobbyID string, rolls []models.Roll) {
	if len(rolls) == 0 {
		return
	}
	now := s.clock.Now()
	entries := make([]models.Roll, len(rolls))
	for i, r := range rolls {
		r.ID = s.uuid.NewUUID()
		r.LobbyID = lobbyID
		r.Timestamp = now
		entries[i] = r
	}
	err := s.historyRepo.AppendRolls(ctx, &historyRepo.AppendRollsInput{
		LobbyID: lobbyID,
		Rolls:   entries,
	})
	if err != nil {
		logger.Warn("failed to record roll history", zap.Error(err))
	}
}

func (s *service) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retryInterval
	b.MaxInterval = 10 * s.retryInterval
	return b
}

const (
	resultOK       = "ok"
	resultRejected = "rejected"
	resultConflict = "conflict"
	resultError    = "error"
)

func resultOf(err error) string {
	var (
		turnErr turn.TurnError
		gameErr GameError
	)
	switch {
	case errors.Is(err, lobbyRepo.ErrConflict):
		return resultConflict
	case errors.As(err, &turnErr),
		errors.As(err, &gameErr),
		errors.Is(err, scoring.ErrInvalidInput),
		errors.Is(err, lobbyRepo.ErrInvalidTransition):
		return resultRejected
	}
	return resultError
}
