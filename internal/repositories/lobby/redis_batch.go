package lobby

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/redis/go-redis/v9"
)

// batchState is the lobby as the transaction sees it, moved forward by each
// queued write so later writes validate against earlier ones
type batchState struct {
	lobby   models.Lobby
	players map[string]models.Player
	turn    models.TurnState
}

func loadBatchState(ctx context.Context, tx *redis.Tx, lobbyID string) (*batchState, error) {
	l, err := getLobby(ctx, tx, lobbyID)
	if err != nil {
		return nil, err
	}
	seated, err := tx.HGetAll(ctx, playersKey(lobbyID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}
	players := make(map[string]models.Player, len(seated))
	for id, raw := range seated {
		var p models.Player
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal player: %w", err)
		}
		players[id] = p
	}
	turn, err := readTurn(ctx, tx, lobbyID)
	if err != nil {
		return nil, err
	}
	return &batchState{lobby: *l, players: players, turn: turn}, nil
}

// ApplyWrites commits the writes in order inside one WATCH transaction. The
// revision check applies to the batch as a whole.
func (r *redisRepository) ApplyWrites(ctx context.Context, input *ApplyWritesInput) (*ApplyWritesOutput, error) {
	if input == nil || len(input.Writes) == 0 {
		return nil, fmt.Errorf("%w: batch has no writes", ErrInvalidInput)
	}
	for i, wr := range input.Writes {
		if err := wr.validate(); err != nil {
			return nil, fmt.Errorf("write %d: %w", i, err)
		}
	}

	var revision int64
	err := r.update(ctx, input.LobbyID, input.ExpectedRevision, func(tx *redis.Tx, w *writer) error {
		st, err := loadBatchState(w.ctx, tx, input.LobbyID)
		if err != nil {
			return err
		}
		for i, wr := range input.Writes {
			if i > 0 {
				w.rev++
			}
			if err := r.applyWrite(w, st, wr); err != nil {
				return err
			}
		}
		revision = w.rev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ApplyWritesOutput{Revision: revision}, nil
}

func (r *redisRepository) applyOne(ctx context.Context, lobbyID string, expected int64, wr Write) error {
	_, err := r.ApplyWrites(ctx, &ApplyWritesInput{
		LobbyID:          lobbyID,
		Writes:           []Write{wr},
		ExpectedRevision: expected,
	})
	return err
}

func (wr Write) validate() error {
	set := 0
	if wr.Score != nil {
		set++
		if wr.Score.PlayerID == "" {
			return fmt.Errorf("%w: player ID cannot be empty", ErrInvalidInput)
		}
		if wr.Score.TotalScore < 0 {
			return fmt.Errorf("%w: total score cannot be negative", ErrInvalidInput)
		}
	}
	if wr.Status != "" {
		set++
	}
	if wr.WinnerID != "" {
		set++
	}
	if wr.Turn != nil {
		set++
		if wr.Turn.IsEmpty() {
			return fmt.Errorf("%w: turn update has no fields", ErrInvalidInput)
		}
	}
	if wr.AdvanceTo != nil {
		set++
	}
	if wr.ResetTurn != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("%w: a write sets exactly one field, got %d", ErrInvalidInput, set)
	}
	return nil
}

func (r *redisRepository) applyWrite(w *writer, st *batchState, wr Write) error {
	switch {
	case wr.Score != nil:
		old, ok := st.players[wr.Score.PlayerID]
		if !ok {
			return ErrPlayerNotFound
		}
		next := old
		next.TotalScore = wr.Score.TotalScore
		next.UpdatedAt = w.now
		next.Version = w.rev
		st.players[next.ID] = next
		return r.writePlayer(w, next, &old, models.ChangeOpUpdate)

	case wr.Status != "":
		return st.writeLobby(w, func(l *models.Lobby) error {
			if !l.Status.CanTransition(wr.Status) {
				return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, l.Status, wr.Status)
			}
			l.Status = wr.Status
			return nil
		})

	case wr.WinnerID != "":
		return st.writeLobby(w, func(l *models.Lobby) error {
			if !l.Status.CanTransition(models.LobbyStatusFinished) {
				return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, l.Status, models.LobbyStatusFinished)
			}
			if _, ok := st.players[wr.WinnerID]; !ok {
				return ErrPlayerNotFound
			}
			l.WinnerID = wr.WinnerID
			l.Status = models.LobbyStatusFinished
			return nil
		})

	case wr.AdvanceTo != nil:
		next := *wr.AdvanceTo
		return st.writeLobby(w, func(l *models.Lobby) error {
			if next < 0 || next >= len(st.players) {
				return fmt.Errorf("%w: turn index %d out of range for %d players", ErrInvalidInput, next, len(st.players))
			}
			l.CurrentTurnIndex = next
			return nil
		})

	case wr.Turn != nil:
		fields, err := encodeFields(*wr.Turn)
		if err != nil {
			return err
		}
		if err := stampFields(fields, w); err != nil {
			return err
		}
		next := wr.Turn.Apply(st.turn)
		return st.writeTurn(w, next, fields)

	case wr.ResetTurn != nil:
		next := wr.ResetTurn.Clone()
		next.Version = w.rev
		next.UpdatedAt = w.now
		fields, err := encodeFields(next)
		if err != nil {
			return err
		}
		return st.writeTurn(w, next, fields)
	}
	return fmt.Errorf("%w: empty write", ErrInvalidInput)
}

func (st *batchState) writeLobby(w *writer, mutate func(l *models.Lobby) error) error {
	old := st.lobby
	next := old
	if err := mutate(&next); err != nil {
		return err
	}
	next.Version = w.rev
	next.UpdatedAt = w.now

	lobbyJSON, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to marshal lobby: %w", err)
	}
	w.queue(func(pipe redis.Pipeliner) {
		pipe.Set(w.ctx, lobbyKey(w.lobbyID), lobbyJSON, 0)
		if next.Status == models.LobbyStatusFinished {
			pipe.SRem(w.ctx, activeLobbiesKey, w.lobbyID)
		}
	})
	st.lobby = next
	return w.change(models.ChangeTableLobby, models.ChangeOpUpdate, next, old)
}

func (st *batchState) writeTurn(w *writer, next models.TurnState, fields map[string]interface{}) error {
	old := st.turn
	next.Version = w.rev
	next.UpdatedAt = w.now
	w.queue(func(pipe redis.Pipeliner) {
		pipe.HSet(w.ctx, turnKey(w.lobbyID), fields)
	})
	st.turn = next
	return w.change(models.ChangeTableTurn, models.ChangeOpUpdate, next, old)
}
