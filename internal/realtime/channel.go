package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/KirkDiggler/hotdice/internal/common/clock"
	"github.com/KirkDiggler/hotdice/internal/common/logging"
	"github.com/KirkDiggler/hotdice/internal/metrics"
	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/KirkDiggler/hotdice/internal/repositories/lobby"
	"go.uber.org/zap"
)

const (
	// DefaultPollInterval is how often polled lobbies are fetched
	DefaultPollInterval = 2 * time.Second

	// DefaultPushRetry is how long a lobby polls before push is tried again
	DefaultPushRetry = 30 * time.Second

	inboxSize = 64
)

// Handler receives the events of one lobby, in order, on the channel's loop
// goroutine. A handler must not call Unsubscribe or Close for its own lobby
// synchronously; both wait for the running handler to return.
type Handler func(Event)

// Config holds configuration for a Channel
type Config struct {
	Repository lobby.Repository

	// PollInterval defaults to DefaultPollInterval
	PollInterval time.Duration

	// PushRetry defaults to DefaultPushRetry; negative never retries push
	PushRetry time.Duration

	Clock   clock.Clock
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Channel delivers classified change events for any number of lobbies. It
// runs a single loop goroutine that owns every lobby's observed snapshot and
// the polling ticker; push transports feed it through forwarders.
type Channel struct {
	repo         lobby.Repository
	pollInterval time.Duration
	pushRetry    time.Duration
	clock        clock.Clock
	logger       *zap.Logger
	metrics      *metrics.Metrics

	inbox  chan message
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	subs   map[string]*subscription
	closed bool

	// owned by the loop goroutine
	lobbies map[string]*lobbyState
}

type subscription struct {
	lobbyID string
	handler Handler

	// mu is held for the whole of a dispatch
	mu     sync.Mutex
	closed bool

	// strategy is guarded by Channel.mu and mirrors the loop's choice, so
	// Unsubscribe can release the transport before it returns
	strategy strategy
}

type lobbyState struct {
	sub          *subscription
	strategy     strategy
	mirror       models.LobbySnapshot
	primed       bool
	failures     int
	pollingSince time.Time

	// reads in flight and the last one started; see fetch
	fetching int
	seq      int

	// resyncFrom is the first read that can close a gap in the push feed;
	// zero when there is none
	resyncFrom int
}

// New creates a Channel and starts its loop
func New(cfg *Config) (*Channel, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.Repository == nil {
		return nil, ErrNilRepository
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	pushRetry := cfg.PushRetry
	if pushRetry == 0 {
		pushRetry = DefaultPushRetry
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Channel{
		repo:         cfg.Repository,
		pollInterval: pollInterval,
		pushRetry:    pushRetry,
		clock:        clk,
		logger:       logging.OrNop(cfg.Logger),
		metrics:      cfg.Metrics,
		inbox:        make(chan message, inboxSize),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
		subs:         make(map[string]*subscription),
		lobbies:      make(map[string]*lobbyState),
	}
	go c.loop()
	return c, nil
}

// Subscribe starts delivering the lobby's events to handler. Push delivery is
// tried first; if it cannot be established the lobby is polled. Only a missing
// lobby is reported as an error; transport failures select polling instead.
func (c *Channel) Subscribe(ctx context.Context, lobbyID string, handler Handler) error {
	if lobbyID == "" {
		return fmt.Errorf("%w: lobby ID cannot be empty", ErrInvalidInput)
	}
	if handler == nil {
		return ErrNilHandler
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if _, ok := c.subs[lobbyID]; ok {
		c.mu.Unlock()
		return ErrAlreadySubscribed
	}
	sub := &subscription{lobbyID: lobbyID, handler: handler}
	c.subs[lobbyID] = sub
	c.mu.Unlock()

	log := c.logger.With(zap.String("lobby_id", lobbyID))
	state := &lobbyState{sub: sub}

	// Subscribe before fetching so nothing written in between is lost;
	// rows older than the fetched snapshot are dropped by version.
	var (
		push   *pushStrategy
		stream <-chan models.RawChange
		fwdCtx context.Context
	)
	stream, err := c.repo.SubscribeRaw(ctx, &lobby.SubscribeRawInput{LobbyID: lobbyID})
	if err != nil {
		log.Warn("push unavailable, polling", zap.Error(err))
		c.metrics.Fallback()
		state.strategy = &pollStrategy{repo: c.repo, lobbyID: lobbyID}
		state.pollingSince = c.clock.Now()
	} else {
		var cancel context.CancelFunc
		fwdCtx, cancel = context.WithCancel(c.ctx)
		push = &pushStrategy{repo: c.repo, lobbyID: lobbyID, cancel: cancel}
		state.strategy = push
	}

	snap, err := c.repo.FetchLobby(ctx, &lobby.FetchLobbyInput{LobbyID: lobbyID})
	switch {
	case errors.Is(err, lobby.ErrLobbyNotFound):
		state.strategy.stop(ctx)
		c.forget(sub)
		return err
	case err != nil:
		log.Warn("initial fetch failed, priming on next poll", zap.Error(err))
	default:
		state.mirror = *snap
		state.primed = true
	}

	if !c.setStrategy(sub, state.strategy) {
		// unsubscribed while subscribing
		state.strategy.stop(context.Background())
		return nil
	}
	if !c.send(attach{state: state}) {
		state.strategy.stop(context.Background())
		c.forget(sub)
		return ErrClosed
	}
	if push != nil {
		go push.forward(fwdCtx, stream, c.inbox)
	}

	log.Debug("subscribed", zap.String("mode", string(state.strategy.mode())))
	return nil
}

// Unsubscribe stops delivery for the lobby. It waits for a running handler of
// that lobby to return, and no handler runs for it afterwards. The push
// transport is released before it returns, so the lobby can be subscribed
// again at once. Unknown lobbies and repeated calls are ignored.
func (c *Channel) Unsubscribe(lobbyID string) {
	c.mu.Lock()
	sub, ok := c.subs[lobbyID]
	var transport strategy
	if ok {
		delete(c.subs, lobbyID)
		transport = sub.strategy
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	sub.mu.Lock()
	sub.closed = true
	sub.mu.Unlock()

	if transport != nil {
		transport.stop(context.Background())
	}

	msg := detach{sub: sub}
	select {
	case c.inbox <- msg:
	default:
		// The caller may be another lobby's handler, which holds the loop
		go c.send(msg)
	}
}

// Mode reports how the lobby is currently observed
func (c *Channel) Mode(lobbyID string) (Mode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.subs[lobbyID]
	if !ok || sub.strategy == nil {
		return "", false
	}
	return sub.strategy.mode(), true
}

// Close stops the loop and releases every transport. It waits for a running
// handler to return.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	subs := make([]*subscription, 0, len(c.subs))
	for id, sub := range c.subs {
		subs = append(subs, sub)
		delete(c.subs, id)
	}
	c.mu.Unlock()

	c.cancel()
	<-c.done

	for _, sub := range subs {
		sub.mu.Lock()
		sub.closed = true
		sub.mu.Unlock()
	}
}

func (c *Channel) forget(sub *subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subs[sub.lobbyID] == sub {
		delete(c.subs, sub.lobbyID)
	}
}

// setStrategy publishes the lobby's transport; false when the subscription
// has already been removed
func (c *Channel) setStrategy(sub *subscription, s strategy) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subs[sub.lobbyID] != sub {
		return false
	}
	sub.strategy = s
	return true
}

func (c *Channel) send(m message) bool {
	select {
	case c.inbox <- m:
		return true
	case <-c.ctx.Done():
		return false
	}
}

func (sub *subscription) isClosed() bool {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.closed
}
