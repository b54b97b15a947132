package live

//go:generate mockgen -package=mocks -destination=mocks/mock_subscriber.go github.com/KirkDiggler/hotdice/internal/services/live Subscriber

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/KirkDiggler/hotdice/internal/common/clock"
	"github.com/KirkDiggler/hotdice/internal/common/logging"
	"github.com/KirkDiggler/hotdice/internal/metrics"
	"github.com/KirkDiggler/hotdice/internal/realtime"
	"github.com/KirkDiggler/hotdice/internal/reconcile"
	"go.uber.org/zap"
)

var (
	ErrNilConfig     = errors.New("config cannot be nil")
	ErrNilSubscriber = errors.New("subscriber cannot be nil")
	ErrNotWatching   = errors.New("lobby is not being watched")
	ErrClosed        = errors.New("hub is closed")
)

// Subscriber is the part of realtime.Channel the hub needs
type Subscriber interface {
	Subscribe(ctx context.Context, lobbyID string, handler realtime.Handler) error
	Unsubscribe(lobbyID string)
}

// Update is delivered to listeners whenever a lobby's view changes. Event is
// set for store changes, Resynced for a dropped local action; both are nil
// for a local action.
type Update struct {
	LobbyID  string              `json:"lobby_id"`
	Event    realtime.Event      `json:"event,omitempty"`
	Resynced *reconcile.Resynced `json:"resynced,omitempty"`
	View     reconcile.View      `json:"view"`
}

// Listener receives updates. Listeners of one lobby may be called from
// several goroutines and must not unwatch from inside the call.
type Listener func(Update)

// Config holds configuration for a Hub
type Config struct {
	Subscriber Subscriber

	// ConfirmTimeout is passed to each lobby's reconciler
	ConfirmTimeout time.Duration

	Clock   clock.Clock
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Hub keeps one subscription and one reconciler per watched lobby and fans
// their updates out to listeners
type Hub struct {
	subscriber Subscriber
	timeout    time.Duration
	clock      clock.Clock
	logger     *zap.Logger
	metrics    *metrics.Metrics

	mu     sync.Mutex
	feeds  map[string]*feed
	closed bool
}

type feed struct {
	lobbyID string
	rec     *reconcile.Reconciler
	cancel  context.CancelFunc

	// ready is closed once the subscription is settled; err is its result
	ready chan struct{}
	err   error

	// closing is set when the last listener left; done is closed once the
	// subscription has been released
	closing  bool
	done     chan struct{}
	doneOnce sync.Once

	listeners map[int]Listener
	nextID    int
}

// New creates a Hub
func New(cfg *Config) (*Hub, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.Subscriber == nil {
		return nil, ErrNilSubscriber
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}

	return &Hub{
		subscriber: cfg.Subscriber,
		timeout:    cfg.ConfirmTimeout,
		clock:      clk,
		logger:     logging.OrNop(cfg.Logger),
		metrics:    cfg.Metrics,
		feeds:      make(map[string]*feed),
	}, nil
}

// Watch registers fn for a lobby's updates, subscribing to the lobby on the
// first watcher. The returned func stops the watch and is safe to call more
// than once.
func (h *Hub) Watch(ctx context.Context, lobbyID string, fn Listener) (func(), error) {
	for {
		h.mu.Lock()
		if h.closed {
			h.mu.Unlock()
			return nil, ErrClosed
		}
		f, ok := h.feeds[lobbyID]
		if ok && f.closing {
			h.mu.Unlock()
			select {
			case <-f.done:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		owner := !ok
		if owner {
			var err error
			f, err = h.newFeed(lobbyID)
			if err != nil {
				h.mu.Unlock()
				return nil, err
			}
			h.feeds[lobbyID] = f
		}
		id := f.nextID
		f.nextID++
		f.listeners[id] = fn
		h.mu.Unlock()

		if owner {
			h.open(ctx, f)
		} else {
			select {
			case <-f.ready:
			case <-ctx.Done():
				h.unwatch(f, id)
				return nil, ctx.Err()
			}
		}
		if f.err != nil {
			return nil, f.err
		}

		var once sync.Once
		return func() {
			once.Do(func() { h.unwatch(f, id) })
		}, nil
	}
}

func (h *Hub) newFeed(lobbyID string) (*feed, error) {
	rec, err := reconcile.New(&reconcile.Config{
		LobbyID: lobbyID,
		Timeout: h.timeout,
		Clock:   h.clock,
		Logger:  h.logger,
		Metrics: h.metrics,
	})
	if err != nil {
		return nil, err
	}
	f := &feed{
		lobbyID:   lobbyID,
		rec:       rec,
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
		listeners: make(map[int]Listener),
	}
	rec.OnResync(func(r reconcile.Resynced) {
		h.fanOut(f, Update{LobbyID: lobbyID, Resynced: &r, View: rec.View()})
	})
	return f, nil
}

// open subscribes the feed's lobby and starts its sweeper
func (h *Hub) open(ctx context.Context, f *feed) {
	defer close(f.ready)

	err := h.subscriber.Subscribe(ctx, f.lobbyID, func(e realtime.Event) {
		view := f.rec.HandleEvent(e)
		h.fanOut(f, Update{LobbyID: f.lobbyID, Event: e, View: view})
	})
	if err != nil {
		h.logger.Warn("failed to watch lobby", zap.String("lobby_id", f.lobbyID), zap.Error(err))
		h.mu.Lock()
		f.err = err
		f.closing = true
		if h.feeds[f.lobbyID] == f {
			delete(h.feeds, f.lobbyID)
		}
		h.mu.Unlock()
		f.finish()
		return
	}

	runCtx, cancel := context.WithCancel(context.Background())
	h.mu.Lock()
	f.cancel = cancel
	h.mu.Unlock()
	go f.rec.Run(runCtx)

	h.logger.Debug("watching lobby", zap.String("lobby_id", f.lobbyID))
}

func (h *Hub) unwatch(f *feed, id int) {
	h.mu.Lock()
	delete(f.listeners, id)
	if len(f.listeners) > 0 || f.closing {
		h.mu.Unlock()
		return
	}
	f.closing = true
	cancel := f.cancel
	h.mu.Unlock()

	h.release(f, cancel)
}

// release ends the lobby's subscription and forgets the feed
func (h *Hub) release(f *feed, cancel context.CancelFunc) {
	if cancel != nil {
		cancel()
	}
	h.subscriber.Unsubscribe(f.lobbyID)

	h.mu.Lock()
	if h.feeds[f.lobbyID] == f {
		delete(h.feeds, f.lobbyID)
	}
	h.mu.Unlock()
	f.finish()

	h.logger.Debug("stopped watching lobby", zap.String("lobby_id", f.lobbyID))
}

// ApplyLocal shows a local action on a watched lobby until the store
// confirms it
func (h *Hub) ApplyLocal(lobbyID string, action reconcile.LocalAction) (reconcile.View, error) {
	f, err := h.feed(lobbyID)
	if err != nil {
		return reconcile.View{}, err
	}
	view := f.rec.ApplyLocal(action)
	h.fanOut(f, Update{LobbyID: lobbyID, View: view})
	return view, nil
}

// DiscardLocal drops a local action that failed to commit
func (h *Hub) DiscardLocal(lobbyID, actionID string) (reconcile.View, error) {
	f, err := h.feed(lobbyID)
	if err != nil {
		return reconcile.View{}, err
	}
	view := f.rec.Discard(actionID)
	h.fanOut(f, Update{LobbyID: lobbyID, View: view})
	return view, nil
}

// View returns the current view of a watched lobby
func (h *Hub) View(lobbyID string) (reconcile.View, error) {
	f, err := h.feed(lobbyID)
	if err != nil {
		return reconcile.View{}, err
	}
	return f.rec.View(), nil
}

func (h *Hub) feed(lobbyID string) (*feed, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.feeds[lobbyID]
	if !ok || f.closing {
		return nil, ErrNotWatching
	}
	return f, nil
}

func (h *Hub) fanOut(f *feed, u Update) {
	h.mu.Lock()
	if f.closing {
		h.mu.Unlock()
		return
	}
	listeners := make([]Listener, 0, len(f.listeners))
	for _, fn := range f.listeners {
		listeners = append(listeners, fn)
	}
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(u)
	}
}

// Close stops every watch. The subscriber itself is left open.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	var feeds []*feed
	for _, f := range h.feeds {
		if f.closing {
			continue
		}
		f.closing = true
		feeds = append(feeds, f)
	}
	h.mu.Unlock()

	for _, f := range feeds {
		<-f.ready
		if f.err != nil {
			continue
		}
		h.mu.Lock()
		cancel := f.cancel
		h.mu.Unlock()
		h.release(f, cancel)
	}
}

func (f *feed) finish() {
	f.doneOnce.Do(func() { close(f.done) })
}
