package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// Key prefixes for Redis
	rollsKeyPrefix = "lobby_rolls:"
	statsKeyPrefix = "lobby_roll_stats:"

	// Entries kept per lobby
	maxRolls = 500
)

// Config holds configuration for the Redis history repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed history repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.RedisClient == nil {
		return nil, ErrNilRedisClient
	}

	// Test connection
	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
	}, nil
}

// AppendRolls pushes the entries onto the lobby list and bumps the stats
// hash in one MULTI
func (r *redisRepository) AppendRolls(ctx context.Context, input *AppendRollsInput) error {
	if input == nil || input.LobbyID == "" {
		return fmt.Errorf("%w: lobby ID cannot be empty", ErrInvalidInput)
	}
	if len(input.Rolls) == 0 {
		return nil
	}

	entries := make([]interface{}, 0, len(input.Rolls))
	for _, roll := range input.Rolls {
		if roll.ID == "" || roll.PlayerID == "" {
			return fmt.Errorf("%w: roll ID and player ID cannot be empty", ErrInvalidInput)
		}
		if roll.LobbyID != input.LobbyID {
			return fmt.Errorf("%w: roll %s belongs to lobby %s", ErrInvalidInput, roll.ID, roll.LobbyID)
		}
		rollJSON, err := json.Marshal(roll)
		if err != nil {
			return fmt.Errorf("failed to marshal roll: %w", err)
		}
		entries = append(entries, rollJSON)
	}

	rollsKey := rollsKeyPrefix + input.LobbyID
	statsKey := statsKeyPrefix + input.LobbyID

	// Best bank needs the current value, so read it before the MULTI
	bestFields := make([]string, 0)
	for _, roll := range input.Rolls {
		if roll.Kind == models.RollKindBank {
			bestFields = append(bestFields, statField(roll.PlayerID, "best_bank"))
		}
	}
	best := make(map[string]int, len(bestFields))
	if len(bestFields) > 0 {
		vals, err := r.client.HMGet(ctx, statsKey, bestFields...).Result()
		if err != nil {
			return fmt.Errorf("failed to read best banks: %w", err)
		}
		for i, v := range vals {
			if s, ok := v.(string); ok {
				n, _ := strconv.Atoi(s)
				best[bestFields[i]] = n
			}
		}
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, rollsKey, entries...)
		pipe.LTrim(ctx, rollsKey, -maxRolls, -1)
		for _, roll := range input.Rolls {
			switch roll.Kind {
			case models.RollKindRoll, models.RollKindReroll, models.RollKindFinale:
				pipe.HIncrBy(ctx, statsKey, statField(roll.PlayerID, "rolls"), 1)
			case models.RollKindBank:
				pipe.HIncrBy(ctx, statsKey, statField(roll.PlayerID, "banks"), 1)
				field := statField(roll.PlayerID, "best_bank")
				if roll.Points > best[field] {
					best[field] = roll.Points
					pipe.HSet(ctx, statsKey, field, roll.Points)
				}
			}
			if roll.Bust {
				pipe.HIncrBy(ctx, statsKey, statField(roll.PlayerID, "busts"), 1)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append rolls: %w", err)
	}

	return nil
}

// ListRolls returns the most recent entries of a lobby, oldest first
func (r *redisRepository) ListRolls(ctx context.Context, input *ListRollsInput) (*ListRollsOutput, error) {
	if input == nil || input.LobbyID == "" {
		return nil, fmt.Errorf("%w: lobby ID cannot be empty", ErrInvalidInput)
	}

	start := int64(0)
	// Filtering happens after the read, so a player filter scans everything
	if input.Limit > 0 && input.PlayerID == "" {
		start = -int64(input.Limit)
	}

	raw, err := r.client.LRange(ctx, rollsKeyPrefix+input.LobbyID, start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get rolls: %w", err)
	}

	rolls := make([]models.Roll, 0, len(raw))
	for _, entry := range raw {
		var roll models.Roll
		if err := json.Unmarshal([]byte(entry), &roll); err != nil {
			return nil, fmt.Errorf("failed to unmarshal roll: %w", err)
		}
		if input.PlayerID != "" && roll.PlayerID != input.PlayerID {
			continue
		}
		rolls = append(rolls, roll)
	}

	if input.Limit > 0 && len(rolls) > input.Limit {
		rolls = rolls[len(rolls)-input.Limit:]
	}

	return &ListRollsOutput{
		Rolls: rolls,
	}, nil
}

// GetPlayerStats returns per-player aggregates for a lobby
func (r *redisRepository) GetPlayerStats(ctx context.Context, input *GetPlayerStatsInput) (*GetPlayerStatsOutput, error) {
	if input == nil || input.LobbyID == "" {
		return nil, fmt.Errorf("%w: lobby ID cannot be empty", ErrInvalidInput)
	}

	fields, err := r.client.HGetAll(ctx, statsKeyPrefix+input.LobbyID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get player stats: %w", err)
	}

	stats := make(map[string]*models.PlayerStats)
	for field, value := range fields {
		i := strings.LastIndex(field, ":")
		if i <= 0 {
			continue
		}
		playerID, name := field[:i], field[i+1:]
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stat %s: %w", field, err)
		}

		s, ok := stats[playerID]
		if !ok {
			s = &models.PlayerStats{PlayerID: playerID}
			stats[playerID] = s
		}
		switch name {
		case "rolls":
			s.Rolls = n
		case "busts":
			s.Busts = n
		case "banks":
			s.Banks = n
		case "best_bank":
			s.BestBank = n
		}
	}

	return &GetPlayerStatsOutput{
		Stats: stats,
	}, nil
}

// DeleteRolls removes a lobby's history and stats
func (r *redisRepository) DeleteRolls(ctx context.Context, input *DeleteRollsInput) error {
	if input == nil || input.LobbyID == "" {
		return fmt.Errorf("%w: lobby ID cannot be empty", ErrInvalidInput)
	}

	if err := r.client.Del(ctx, rollsKeyPrefix+input.LobbyID, statsKeyPrefix+input.LobbyID).Err(); err != nil {
		return fmt.Errorf("failed to delete rolls: %w", err)
	}

	return nil
}

func statField(playerID, name string) string {
	return playerID + ":" + name
}
