package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/KirkDiggler/hotdice/internal/common/clock"
	"github.com/KirkDiggler/hotdice/internal/common/logging"
	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// Key prefixes for Redis
	lobbyKeyPrefix   = "lobby:"
	codeKeyPrefix    = "lobby_code:"
	channelKeyPrefix = "lobby_channel:"
	activeLobbiesKey = "active_lobbies"
)

func lobbyKey(id string) string { return lobbyKeyPrefix + id }
func playersKey(id string) string { return lobbyKeyPrefix + id + ":players" }
func turnKey(id string) string { return lobbyKeyPrefix + id + ":turn" }
func revisionKey(id string) string { return lobbyKeyPrefix + id + ":rev" }
func changesKey(id string) string { return lobbyKeyPrefix + id + ":changes" }
func codeKey(code string) string { return codeKeyPrefix + code }
func channelKey(id string) string { return channelKeyPrefix + id }

// Config holds configuration for the Redis lobby repository
type Config struct {
	// Redis client
	RedisClient *redis.Client

	// Clock stamps UpdatedAt on every write
	Clock clock.Clock

	Logger *zap.Logger
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
	clock  clock.Clock
	logger *zap.Logger

	mu   sync.Mutex
	subs map[string]*subscription
}

// NewRedis creates a new Redis-backed lobby repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.RedisClient == nil {
		return nil, ErrNilRedisClient
	}
	if cfg.Clock == nil {
		return nil, ErrNilClock
	}

	// Test connection
	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
		clock:  cfg.Clock,
		logger: logging.OrNop(cfg.Logger),
		subs:   make(map[string]*subscription),
	}, nil
}

// writer collects the queued commands and change notifications of one write
type writer struct {
	ctx     context.Context
	lobbyID string
	rev     int64
	now     time.Time
	ops     []func(pipe redis.Pipeliner)
	changes []models.RawChange
}

func (w *writer) queue(op func(pipe redis.Pipeliner)) {
	w.ops = append(w.ops, op)
}

// change records a notification; record and old may be nil
func (w *writer) change(table models.ChangeTable, op models.ChangeOp, record, old any) error {
	c := models.RawChange{
		Table:      table,
		Op:         op,
		LobbyID:    w.lobbyID,
		Version:    w.rev,
		CommitTime: w.now,
	}
	if record != nil {
		raw, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal %s record: %w", table, err)
		}
		c.Record = raw
	}
	if old != nil {
		raw, err := json.Marshal(old)
		if err != nil {
			return fmt.Errorf("failed to marshal old %s record: %w", table, err)
		}
		c.OldRecord = raw
	}
	w.changes = append(w.changes, c)
	return nil
}

// update runs fn inside a WATCH transaction on the lobby's revision. The
// revision is bumped and the changes published in the same MULTI block.
func (r *redisRepository) update(ctx context.Context, lobbyID string, expected int64, fn func(tx *redis.Tx, w *writer) error) error {
	if lobbyID == "" {
		return fmt.Errorf("%w: lobby ID cannot be empty", ErrInvalidInput)
	}

	txf := func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, lobbyKey(lobbyID)).Result()
		if err != nil {
			return fmt.Errorf("failed to check lobby: %w", err)
		}
		if exists == 0 {
			return ErrLobbyNotFound
		}

		current, err := tx.Get(ctx, revisionKey(lobbyID)).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to read revision: %w", err)
		}
		if expected != 0 && current != expected {
			return fmt.Errorf("%w: lobby %s at revision %d, expected %d", ErrConflict, lobbyID, current, expected)
		}

		w := &writer{ctx: ctx, lobbyID: lobbyID, rev: current + 1, now: r.clock.Now()}
		if err := fn(tx, w); err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, revisionKey(lobbyID), w.rev, 0)
			for _, op := range w.ops {
				op(pipe)
			}
			for _, c := range w.changes {
				payload, err := json.Marshal(c)
				if err != nil {
					return fmt.Errorf("failed to marshal change: %w", err)
				}
				pipe.Publish(ctx, changesKey(lobbyID), payload)
			}
			return nil
		})
		return err
	}

	err := r.client.Watch(ctx, txf, lobbyKey(lobbyID), revisionKey(lobbyID))
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: lobby %s", ErrConflict, lobbyID)
	}
	return err
}

// CreateLobby persists a new lobby in the waiting state
func (r *redisRepository) CreateLobby(ctx context.Context, input *CreateLobbyInput) (*models.LobbySnapshot, error) {
	if input == nil || input.Lobby == nil {
		return nil, fmt.Errorf("%w: input and lobby cannot be nil", ErrInvalidInput)
	}
	l := *input.Lobby
	if l.ID == "" || l.Code == "" {
		return nil, fmt.Errorf("%w: lobby ID and code cannot be empty", ErrInvalidInput)
	}

	now := r.clock.Now()
	l.Status = models.LobbyStatusWaiting
	l.CurrentTurnIndex = 0
	l.WinnerID = ""
	l.CreatedAt = now
	l.UpdatedAt = now
	l.Version = 1

	lobbyJSON, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lobby: %w", err)
	}
	change, err := json.Marshal(models.RawChange{
		Table:      models.ChangeTableLobby,
		Op:         models.ChangeOpInsert,
		LobbyID:    l.ID,
		Version:    l.Version,
		CommitTime: now,
		Record:     lobbyJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal change: %w", err)
	}

	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, codeKey(l.Code), lobbyKey(l.ID)).Result()
		if err != nil {
			return fmt.Errorf("failed to check lobby code: %w", err)
		}
		if n > 0 {
			return ErrCodeTaken
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, lobbyKey(l.ID), lobbyJSON, 0)
			pipe.Set(ctx, revisionKey(l.ID), l.Version, 0)
			pipe.Set(ctx, codeKey(l.Code), l.ID, 0)
			if l.ChannelID != "" {
				pipe.Set(ctx, channelKey(l.ChannelID), l.ID, 0)
			}
			pipe.SAdd(ctx, activeLobbiesKey, l.ID)
			pipe.Publish(ctx, changesKey(l.ID), change)
			return nil
		})
		return err
	}

	err = r.client.Watch(ctx, txf, codeKey(l.Code), lobbyKey(l.ID))
	if errors.Is(err, redis.TxFailedErr) {
		return nil, ErrCodeTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create lobby: %w", err)
	}

	return &models.LobbySnapshot{
		Lobby:    l,
		Players:  []models.Player{},
		Revision: l.Version,
	}, nil
}

// FetchLobby reads the lobby row, players, turn state and revision in one MULTI
func (r *redisRepository) FetchLobby(ctx context.Context, input *FetchLobbyInput) (*models.LobbySnapshot, error) {
	if input == nil || input.LobbyID == "" {
		return nil, fmt.Errorf("%w: lobby ID cannot be empty", ErrInvalidInput)
	}
	id := input.LobbyID

	var (
		lobbyCmd   *redis.StringCmd
		playersCmd *redis.MapStringStringCmd
		turnCmd    *redis.MapStringStringCmd
		revCmd     *redis.StringCmd
	)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		lobbyCmd = pipe.Get(ctx, lobbyKey(id))
		playersCmd = pipe.HGetAll(ctx, playersKey(id))
		turnCmd = pipe.HGetAll(ctx, turnKey(id))
		revCmd = pipe.Get(ctx, revisionKey(id))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to fetch lobby: %w", err)
	}

	lobbyJSON, err := lobbyCmd.Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrLobbyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lobby: %w", err)
	}

	snap := &models.LobbySnapshot{Players: []models.Player{}}
	if err := json.Unmarshal([]byte(lobbyJSON), &snap.Lobby); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lobby: %w", err)
	}

	for _, raw := range playersCmd.Val() {
		var p models.Player
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal player: %w", err)
		}
		snap.Players = append(snap.Players, p)
	}
	snap.SortPlayers()

	turn, err := decodeTurn(turnCmd.Val())
	if err != nil {
		return nil, err
	}
	snap.Turn = turn

	if rev, err := revCmd.Int64(); err == nil {
		snap.Revision = rev
	}

	return snap, nil
}

// GetLobbyByCode resolves a join code to a snapshot
func (r *redisRepository) GetLobbyByCode(ctx context.Context, input *GetLobbyByCodeInput) (*models.LobbySnapshot, error) {
	if input == nil || input.Code == "" {
		return nil, fmt.Errorf("%w: code cannot be empty", ErrInvalidInput)
	}
	return r.fetchByIndex(ctx, codeKey(input.Code))
}

// GetLobbyByChannel resolves the lobby opened from a Discord channel
func (r *redisRepository) GetLobbyByChannel(ctx context.Context, input *GetLobbyByChannelInput) (*models.LobbySnapshot, error) {
	if input == nil || input.ChannelID == "" {
		return nil, fmt.Errorf("%w: channel ID cannot be empty", ErrInvalidInput)
	}
	return r.fetchByIndex(ctx, channelKey(input.ChannelID))
}

func (r *redisRepository) fetchByIndex(ctx context.Context, key string) (*models.LobbySnapshot, error) {
	id, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrLobbyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve lobby: %w", err)
	}
	return r.FetchLobby(ctx, &FetchLobbyInput{LobbyID: id})
}

// GetActiveLobbies lists lobbies that have not finished
func (r *redisRepository) GetActiveLobbies(ctx context.Context, input *GetActiveLobbiesInput) (*GetActiveLobbiesOutput, error) {
	ids, err := r.client.SMembers(ctx, activeLobbiesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get active lobbies: %w", err)
	}
	return &GetActiveLobbiesOutput{LobbyIDs: ids}, nil
}

// DeleteLobby removes a lobby and its indexes
func (r *redisRepository) DeleteLobby(ctx context.Context, input *DeleteLobbyInput) error {
	if input == nil {
		return fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	id := input.LobbyID
	return r.update(ctx, id, 0, func(tx *redis.Tx, w *writer) error {
		old, err := getLobby(w.ctx, tx, id)
		if err != nil {
			return err
		}
		owner, err := tx.Get(w.ctx, channelKey(old.ChannelID)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to read channel index: %w", err)
		}

		w.queue(func(pipe redis.Pipeliner) {
			pipe.Del(w.ctx, lobbyKey(id), playersKey(id), turnKey(id), revisionKey(id), codeKey(old.Code))
			if old.ChannelID != "" && owner == id {
				pipe.Del(w.ctx, channelKey(old.ChannelID))
			}
			pipe.SRem(w.ctx, activeLobbiesKey, id)
		})
		return w.change(models.ChangeTableLobby, models.ChangeOpDelete, nil, old)
	})
}

// SubmitTurnUpdate writes only the present fields of the update. A present
// field holding a nil slice is written as JSON null.
func (r *redisRepository) SubmitTurnUpdate(ctx context.Context, input *SubmitTurnUpdateInput) error {
	if input == nil {
		return fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	update := input.Update
	return r.applyOne(ctx, input.LobbyID, input.ExpectedRevision, Write{Turn: &update})
}

// ResetTurn overwrites every turn field
func (r *redisRepository) ResetTurn(ctx context.Context, input *ResetTurnInput) error {
	if input == nil {
		return fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	t := input.Turn
	return r.applyOne(ctx, input.LobbyID, input.ExpectedRevision, Write{ResetTurn: &t})
}

// AdvanceTurn moves the current-player index
func (r *redisRepository) AdvanceTurn(ctx context.Context, input *AdvanceTurnInput) error {
	if input == nil {
		return fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	next := input.NextIndex
	return r.applyOne(ctx, input.LobbyID, input.ExpectedRevision, Write{AdvanceTo: &next})
}

// SetStatus moves the lobby status forward
func (r *redisRepository) SetStatus(ctx context.Context, input *SetStatusInput) error {
	if input == nil || input.Status == "" {
		return fmt.Errorf("%w: status cannot be empty", ErrInvalidInput)
	}
	return r.applyOne(ctx, input.LobbyID, input.ExpectedRevision, Write{Status: input.Status})
}

// SetWinner records the winner and finishes the lobby
func (r *redisRepository) SetWinner(ctx context.Context, input *SetWinnerInput) error {
	if input == nil || input.WinnerID == "" {
		return fmt.Errorf("%w: winner ID cannot be empty", ErrInvalidInput)
	}
	return r.applyOne(ctx, input.LobbyID, input.ExpectedRevision, Write{WinnerID: input.WinnerID})
}

func getLobby(ctx context.Context, tx *redis.Tx, id string) (*models.Lobby, error) {
	raw, err := tx.Get(ctx, lobbyKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrLobbyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lobby: %w", err)
	}
	var l models.Lobby
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lobby: %w", err)
	}
	return &l, nil
}

func readTurn(ctx context.Context, tx *redis.Tx, id string) (models.TurnState, error) {
	fields, err := tx.HGetAll(ctx, turnKey(id)).Result()
	if err != nil {
		return models.TurnState{}, fmt.Errorf("failed to get turn state: %w", err)
	}
	return decodeTurn(fields)
}

// decodeTurn rebuilds a turn state from a hash of JSON-encoded fields
func decodeTurn(fields map[string]string) (models.TurnState, error) {
	var t models.TurnState
	if len(fields) == 0 {
		return t, nil
	}
	obj := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		obj[k] = json.RawMessage(v)
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return t, fmt.Errorf("failed to assemble turn state: %w", err)
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("failed to unmarshal turn state: %w", err)
	}
	return t, nil
}

// encodeFields turns a struct into hash fields holding the JSON of each
// marshalled field. Fields dropped by omitempty are not written.
func encodeFields(v any) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal turn fields: %w", err)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("failed to split turn fields: %w", err)
	}
	fields := make(map[string]interface{}, len(obj))
	for k, v := range obj {
		fields[k] = string(v)
	}
	return fields, nil
}

func stampFields(fields map[string]interface{}, w *writer) error {
	at, err := json.Marshal(w.now)
	if err != nil {
		return fmt.Errorf("failed to marshal timestamp: %w", err)
	}
	fields["version"] = strconv.FormatInt(w.rev, 10)
	fields["updated_at"] = string(at)
	return nil
}
