package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/redis/go-redis/v9"
)

// AddPlayer seats a player after everyone already in the lobby
func (r *redisRepository) AddPlayer(ctx context.Context, input *AddPlayerInput) (*models.Player, error) {
	if input == nil || input.PlayerID == "" {
		return nil, fmt.Errorf("%w: player ID cannot be empty", ErrInvalidInput)
	}

	var added models.Player
	err := r.update(ctx, input.LobbyID, 0, func(tx *redis.Tx, w *writer) error {
		l, err := getLobby(w.ctx, tx, input.LobbyID)
		if err != nil {
			return err
		}
		if l.Status != models.LobbyStatusWaiting {
			return ErrLobbyStarted
		}

		seated, err := tx.HGetAll(w.ctx, playersKey(input.LobbyID)).Result()
		if err != nil {
			return fmt.Errorf("failed to get players: %w", err)
		}
		if _, ok := seated[input.PlayerID]; ok {
			return ErrPlayerExists
		}
		if len(seated) >= models.MaxPlayers {
			return ErrLobbyFull
		}

		order := 0
		for _, raw := range seated {
			var p models.Player
			if err := json.Unmarshal([]byte(raw), &p); err != nil {
				return fmt.Errorf("failed to unmarshal player: %w", err)
			}
			if p.TurnOrder >= order {
				order = p.TurnOrder + 1
			}
		}

		added = models.Player{
			ID:        input.PlayerID,
			LobbyID:   input.LobbyID,
			Name:      input.Name,
			TurnOrder: order,
			Connected: true,
			JoinedAt:  w.now,
			UpdatedAt: w.now,
			Version:   w.rev,
		}
		return r.writePlayer(w, added, nil, models.ChangeOpInsert)
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// RemovePlayer unseats a player. Only waiting lobbies can lose players; a
// player leaving a running game is marked disconnected instead.
func (r *redisRepository) RemovePlayer(ctx context.Context, input *RemovePlayerInput) error {
	if input == nil || input.PlayerID == "" {
		return fmt.Errorf("%w: player ID cannot be empty", ErrInvalidInput)
	}

	return r.update(ctx, input.LobbyID, 0, func(tx *redis.Tx, w *writer) error {
		l, err := getLobby(w.ctx, tx, input.LobbyID)
		if err != nil {
			return err
		}
		if l.Status != models.LobbyStatusWaiting {
			return ErrLobbyStarted
		}
		old, err := getPlayer(w.ctx, tx, input.LobbyID, input.PlayerID)
		if err != nil {
			return err
		}
		w.queue(func(pipe redis.Pipeliner) {
			pipe.HDel(w.ctx, playersKey(input.LobbyID), input.PlayerID)
		})
		return w.change(models.ChangeTablePlayer, models.ChangeOpDelete, nil, old)
	})
}

// SetConnected flags a player as present or away
func (r *redisRepository) SetConnected(ctx context.Context, input *SetConnectedInput) error {
	if input == nil || input.PlayerID == "" {
		return fmt.Errorf("%w: player ID cannot be empty", ErrInvalidInput)
	}
	return r.updatePlayer(ctx, input.LobbyID, input.PlayerID, 0, func(p *models.Player) {
		p.Connected = input.Connected
	})
}

// SubmitPlayerScoreUpdate sets a player's banked total. The total is absolute,
// so repeating the write is harmless.
func (r *redisRepository) SubmitPlayerScoreUpdate(ctx context.Context, input *SubmitPlayerScoreUpdateInput) error {
	if input == nil {
		return fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	return r.applyOne(ctx, input.LobbyID, input.ExpectedRevision, Write{Score: &ScoreWrite{
		PlayerID:   input.PlayerID,
		TotalScore: input.TotalScore,
	}})
}

func (r *redisRepository) updatePlayer(ctx context.Context, lobbyID, playerID string, expected int64, mutate func(p *models.Player)) error {
	return r.update(ctx, lobbyID, expected, func(tx *redis.Tx, w *writer) error {
		old, err := getPlayer(w.ctx, tx, lobbyID, playerID)
		if err != nil {
			return err
		}
		next := *old
		mutate(&next)
		next.UpdatedAt = w.now
		next.Version = w.rev
		return r.writePlayer(w, next, old, models.ChangeOpUpdate)
	})
}

func (r *redisRepository) writePlayer(w *writer, p models.Player, old *models.Player, op models.ChangeOp) error {
	playerJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal player: %w", err)
	}
	w.queue(func(pipe redis.Pipeliner) {
		pipe.HSet(w.ctx, playersKey(p.LobbyID), p.ID, playerJSON)
	})
	if old == nil {
		return w.change(models.ChangeTablePlayer, op, p, nil)
	}
	return w.change(models.ChangeTablePlayer, op, p, old)
}

func getPlayer(ctx context.Context, tx *redis.Tx, lobbyID, playerID string) (*models.Player, error) {
	raw, err := tx.HGet(ctx, playersKey(lobbyID), playerID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	var p models.Player
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player: %w", err)
	}
	return &p, nil
}
