package reconcile

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/KirkDiggler/hotdice/internal/common/clock"
	"github.com/KirkDiggler/hotdice/internal/common/logging"
	"github.com/KirkDiggler/hotdice/internal/metrics"
	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/KirkDiggler/hotdice/internal/realtime"
	"github.com/KirkDiggler/hotdice/internal/turn"
	"go.uber.org/zap"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_overlay.go github.com/KirkDiggler/hotdice/internal/reconcile Overlay

// DefaultTimeout is how long a local action waits for confirmation
const DefaultTimeout = 5 * time.Second

var (
	// ErrNilConfig is returned when the config is nil
	ErrNilConfig = errors.New("config cannot be nil")

	// ErrEmptyLobbyID is returned when the config has no lobby
	ErrEmptyLobbyID = errors.New("lobby ID cannot be empty")
)

// Connection is the sync health shown next to the view
type Connection string

const (
	ConnectionSynced       Connection = "synced"
	ConnectionPending      Connection = "pending"
	ConnectionReconnecting Connection = "reconnecting"
)

// LocalAction is an action already applied locally and not yet seen in the
// store. Expected is the snapshot the action should produce; BaseRevision is
// the revision it was computed from.
type LocalAction struct {
	ID           string               `json:"id,omitempty"`
	Kind         string               `json:"kind"`
	PlayerID     string               `json:"player_id"`
	Expected     models.LobbySnapshot `json:"-"`
	BaseRevision int64                `json:"base_revision"`
}

// ActionFromOutcome builds the local action for a turn machine result
func ActionFromOutcome(kind, playerID string, base models.LobbySnapshot, out *turn.Outcome) LocalAction {
	return LocalAction{
		Kind:         kind,
		PlayerID:     playerID,
		Expected:     out.Snapshot,
		BaseRevision: base.Revision,
	}
}

// Overlay shows planned actions to a lobby's watchers before the store
// confirms them. An action that fails to commit is discarded by ID.
type Overlay interface {
	ApplyLocal(lobbyID string, action LocalAction) (View, error)
	DiscardLocal(lobbyID, actionID string) (View, error)
}

// View is the display-ready state of a lobby
type View struct {
	Snapshot models.LobbySnapshot `json:"snapshot"`

	// Optimistic is set while a local guess is shown instead of the store's
	// state
	Optimistic bool          `json:"optimistic"`
	Pending    int           `json:"pending"`
	Connection Connection    `json:"connection"`
	Mode       realtime.Mode `json:"mode"`
}

// Resynced reports a local action that was never confirmed and whose
// overlay has been dropped
type Resynced struct {
	LobbyID string      `json:"lobby_id"`
	Action  LocalAction `json:"action"`
}

// Config holds configuration for a Reconciler
type Config struct {
	LobbyID string

	// Timeout defaults to DefaultTimeout
	Timeout time.Duration

	Clock   clock.Clock
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

type pending struct {
	action    LocalAction
	appliedAt time.Time

	// superseded is set once a newer store state hides the overlay
	superseded bool
}

// Reconciler merges optimistic local actions with the authoritative
// snapshots of one lobby. The store always wins: an overlay is shown only
// until a newer authoritative snapshot arrives.
type Reconciler struct {
	lobbyID string
	timeout time.Duration
	clock   clock.Clock
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu            sync.Mutex
	authoritative models.LobbySnapshot
	pending       []*pending
	mode          realtime.Mode
	healthy       bool
	listeners     []func(Resynced)
}

// New creates a Reconciler for one lobby
func New(cfg *Config) (*Reconciler, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.LobbyID == "" {
		return nil, ErrEmptyLobbyID
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}

	return &Reconciler{
		lobbyID: cfg.LobbyID,
		timeout: timeout,
		clock:   clk,
		logger:  logging.OrNop(cfg.Logger).With(zap.String("lobby_id", cfg.LobbyID)),
		metrics: cfg.Metrics,
		mode:    realtime.ModePush,
		healthy: true,
	}, nil
}

// OnResync registers a listener for dropped local actions. Listeners run on
// the goroutine that noticed the timeout, outside the reconciler's lock.
func (r *Reconciler) OnResync(fn func(Resynced)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// ApplyLocal shows the action's expected state at once and waits for the
// store to confirm it. An action based on a revision the store has already
// moved past is not shown.
func (r *Reconciler) ApplyLocal(action LocalAction) View {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.authoritative.Revision > action.BaseRevision {
		return r.viewLocked()
	}
	r.pending = append(r.pending, &pending{
		action:    action,
		appliedAt: r.clock.Now(),
	})
	return r.viewLocked()
}

// Discard drops a pending action that will never reach the store, such as
// one whose write was rejected
func (r *Reconciler) Discard(id string) View {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id != "" {
		r.pending = slices.DeleteFunc(r.pending, func(p *pending) bool {
			return p.action.ID == id
		})
	}
	return r.viewLocked()
}

// OnRemoteSnapshot records an authoritative snapshot. Older snapshots than
// the last one seen are ignored. Matching pending actions are confirmed and
// newer state hides the rest.
func (r *Reconciler) OnRemoteSnapshot(snap models.LobbySnapshot) View {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.applyRemoteLocked(snap)
	return r.viewLocked()
}

// HandleEvent feeds a change event from the sync channel
func (r *Reconciler) HandleEvent(e realtime.Event) View {
	r.mu.Lock()
	defer r.mu.Unlock()

	if status, ok := e.(realtime.SyncStatusChanged); ok {
		if status.Mode != r.mode || status.Healthy != r.healthy {
			r.logger.Info("sync status changed",
				zap.String("mode", string(status.Mode)),
				zap.Bool("healthy", status.Healthy))
		}
		r.mode = status.Mode
		r.healthy = status.Healthy
	}
	if snap := e.EventMeta().Snapshot; snap.Lobby.ID != "" {
		r.applyRemoteLocked(snap)
	}
	return r.viewLocked()
}

// Sweep drops actions left unconfirmed past the timeout and notifies the
// resync listeners
func (r *Reconciler) Sweep() View {
	r.mu.Lock()
	now := r.clock.Now()
	var expired []LocalAction
	kept := r.pending[:0]
	for _, p := range r.pending {
		if now.Sub(p.appliedAt) >= r.timeout {
			expired = append(expired, p.action)
			continue
		}
		kept = append(kept, p)
	}
	r.pending = kept
	listeners := slices.Clone(r.listeners)
	view := r.viewLocked()
	r.mu.Unlock()

	for _, action := range expired {
		r.logger.Warn("local action unconfirmed, resynchronized",
			zap.String("kind", action.Kind),
			zap.String("player_id", action.PlayerID),
			zap.Int64("base_revision", action.BaseRevision))
		r.metrics.Resync()
		for _, fn := range listeners {
			fn(Resynced{LobbyID: r.lobbyID, Action: action})
		}
	}
	return view
}

// Run sweeps periodically until ctx is done
func (r *Reconciler) Run(ctx context.Context) {
	interval := r.timeout / 5
	if interval < 50*time.Millisecond {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// View returns the current display state
func (r *Reconciler) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewLocked()
}

func (r *Reconciler) applyRemoteLocked(snap models.LobbySnapshot) {
	if r.authoritative.Lobby.ID != "" && snap.Revision < r.authoritative.Revision {
		return
	}
	r.authoritative = snap

	kept := r.pending[:0]
	for _, p := range r.pending {
		if sameState(snap, p.action.Expected) {
			continue
		}
		if snap.Revision > p.action.BaseRevision {
			p.superseded = true
		}
		kept = append(kept, p)
	}
	r.pending = kept
}

func (r *Reconciler) viewLocked() View {
	v := View{
		Snapshot:   r.authoritative,
		Pending:    len(r.pending),
		Mode:       r.mode,
		Connection: ConnectionSynced,
	}
	for i := len(r.pending) - 1; i >= 0; i-- {
		if !r.pending[i].superseded {
			v.Snapshot = r.pending[i].action.Expected
			v.Optimistic = true
			break
		}
	}
	switch {
	case r.mode == realtime.ModePoll || !r.healthy:
		v.Connection = ConnectionReconnecting
	case len(r.pending) > 0:
		v.Connection = ConnectionPending
	}
	return v
}

// sameState compares what a player can see of two snapshots, ignoring
// versions and timestamps
func sameState(a, b models.LobbySnapshot) bool {
	if a.Lobby.Status != b.Lobby.Status ||
		a.Lobby.CurrentTurnIndex != b.Lobby.CurrentTurnIndex ||
		a.Lobby.WinnerID != b.Lobby.WinnerID {
		return false
	}
	if len(a.Players) != len(b.Players) {
		return false
	}
	for i := range a.Players {
		if a.Players[i].ID != b.Players[i].ID || a.Players[i].TotalScore != b.Players[i].TotalScore {
			return false
		}
	}
	ta, tb := a.Turn, b.Turn
	return ta.PlayerID == tb.PlayerID &&
		ta.Phase == tb.Phase &&
		ta.TurnScore == tb.TurnScore &&
		ta.RollCount == tb.RollCount &&
		ta.Bust == tb.Bust &&
		ta.Tier == tb.Tier &&
		slices.Equal(ta.Dice, tb.Dice) &&
		slices.Equal(ta.Held, tb.Held)
}
