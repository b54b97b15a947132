package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/KirkDiggler/hotdice/internal/repositories/lobby"
	"go.uber.org/zap"
)

type message interface{ isMessage() }

type attach struct {
	state *lobbyState
}

type detach struct {
	sub *subscription
}

type rawObserved struct {
	lobbyID string
	from    *pushStrategy
	change  models.RawChange
}

type streamEnded struct {
	lobbyID string
	from    *pushStrategy
}

// fetched is the result of a read started by fetch
type fetched struct {
	state *lobbyState
	from  strategy
	seq   int
	snap  *models.LobbySnapshot
	err   error
}

func (attach) isMessage()      {}
func (detach) isMessage()      {}
func (rawObserved) isMessage() {}
func (streamEnded) isMessage() {}
func (fetched) isMessage()     {}

func (c *Channel) loop() {
	defer close(c.done)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			for id, st := range c.lobbies {
				st.strategy.stop(context.Background())
				c.metrics.SubscriptionMoved(string(st.strategy.mode()), "")
				delete(c.lobbies, id)
			}
			return

		case m := <-c.inbox:
			switch msg := m.(type) {
			case attach:
				c.attach(msg.state)
			case detach:
				c.detach(msg.sub)
			case rawObserved:
				c.observeRaw(msg)
			case streamEnded:
				if st := c.lobbies[msg.lobbyID]; st != nil && st.strategy == msg.from {
					c.fallback(st, "push stream closed")
				}
			case fetched:
				c.observeFetch(msg)
			}

		case <-ticker.C:
			c.tick()
		}
	}
}

func (c *Channel) attach(st *lobbyState) {
	if st.sub.isClosed() {
		st.strategy.stop(context.Background())
		return
	}
	if old := c.lobbies[st.sub.lobbyID]; old != nil {
		// resubscribed before the old detach reached the loop; that detach
		// will find a different subscription and do nothing
		c.metrics.SubscriptionMoved(string(old.strategy.mode()), "")
	}
	c.lobbies[st.sub.lobbyID] = st
	c.metrics.SubscriptionMoved("", string(st.strategy.mode()))
	c.dispatch(st, []Event{c.status(st)})
}

// detach forgets the lobby; Unsubscribe has already released the transport
func (c *Channel) detach(sub *subscription) {
	st := c.lobbies[sub.lobbyID]
	if st == nil || st.sub != sub {
		return
	}
	c.metrics.SubscriptionMoved(string(st.strategy.mode()), "")
	delete(c.lobbies, sub.lobbyID)
}

func (c *Channel) observeRaw(msg rawObserved) {
	st := c.lobbies[msg.lobbyID]
	if st == nil || st.strategy != msg.from {
		return
	}
	if msg.change.Op == models.ChangeOpResync {
		c.logger.Info("change feed gap, resyncing", zap.String("lobby_id", msg.lobbyID))
		st.resyncFrom = c.fetch(st, true)
		return
	}
	if !st.primed {
		return
	}
	next := st.mirror.Clone()
	changed, err := merge(&next, msg.change)
	if err != nil {
		c.logger.Warn("dropping undecodable change",
			zap.String("lobby_id", msg.lobbyID),
			zap.Error(err))
		return
	}
	if !changed {
		return
	}
	events := Classify(st.mirror, next)
	st.mirror = next
	c.dispatch(st, events)
}

// fallback switches a lobby from push to polling. The first poll happens on
// the next tick, within one interval.
func (c *Channel) fallback(st *lobbyState, reason string) {
	c.logger.Warn("falling back to polling",
		zap.String("lobby_id", st.sub.lobbyID),
		zap.String("reason", reason))

	st.strategy.stop(c.ctx)
	st.strategy = &pollStrategy{repo: c.repo, lobbyID: st.sub.lobbyID}
	st.pollingSince = c.clock.Now()
	st.failures = 0
	c.setStrategy(st.sub, st.strategy)
	c.metrics.Fallback()
	c.metrics.SubscriptionMoved(string(ModePush), string(ModePoll))
	c.dispatch(st, []Event{c.status(st)})
}

func (c *Channel) tick() {
	for _, st := range c.lobbies {
		switch st.strategy.(type) {
		case *pollStrategy:
			c.fetch(st, false)
			if c.pushRetry > 0 && c.clock.Now().Sub(st.pollingSince) >= c.pushRetry {
				c.restorePush(st)
			}
		case *pushStrategy:
			if !st.primed || st.resyncFrom > 0 {
				c.fetch(st, false)
			}
		}
	}
}

// fetch reads the lobby on its own goroutine and reports back as fetched, so
// a slow store never holds up the loop. Unless forced, nothing is started
// while an earlier read is still out. It returns the read's sequence number,
// or 0 when it was skipped.
func (c *Channel) fetch(st *lobbyState, force bool) int {
	if st.fetching > 0 && !force {
		return 0
	}
	st.fetching++
	st.seq++
	msg := fetched{state: st, from: st.strategy, seq: st.seq}
	p := &pollStrategy{repo: c.repo, lobbyID: st.sub.lobbyID}

	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.pollInterval)
		msg.snap, msg.err = p.fetch(ctx)
		cancel()
		c.send(msg)
	}()
	return st.seq
}

// observeFetch diffs a fetched snapshot against the last observation
func (c *Channel) observeFetch(msg fetched) {
	st := msg.state
	if c.lobbies[st.sub.lobbyID] != st {
		return
	}
	st.fetching--

	if msg.err != nil {
		// a failure under a strategy the lobby has since left says nothing
		// about the current one
		if st.strategy != msg.from {
			return
		}
		st.failures++
		c.metrics.PollError()
		c.logger.Debug("poll failed",
			zap.String("lobby_id", st.sub.lobbyID),
			zap.Int("failures", st.failures),
			zap.Error(msg.err))
		if st.failures == 1 {
			c.dispatch(st, []Event{c.status(st)})
		}
		return
	}

	snap := msg.snap
	var events []Event
	if st.failures > 0 {
		st.failures = 0
		events = append(events, c.status(st))
	}

	applied := true
	switch {
	case !st.primed:
		st.mirror = *snap
		st.primed = true
	case snap.Revision >= st.mirror.Revision:
		events = append(events, Classify(st.mirror, *snap)...)
		st.mirror = *snap
	default:
		// older than what push already delivered
		applied = false
	}
	// a pending resync is settled only by a read started after the gap that
	// is at least as new as the mirror
	if applied && st.resyncFrom > 0 && msg.seq >= st.resyncFrom {
		st.resyncFrom = 0
	}
	c.dispatch(st, events)
}

// restorePush tries to move a polled lobby back onto the change feed. The
// lobby is read again once subscribed so nothing between the last poll and
// the subscription is missed.
func (c *Channel) restorePush(st *lobbyState) {
	id := st.sub.lobbyID
	ctx, cancel := context.WithTimeout(c.ctx, c.pollInterval)
	defer cancel()

	stream, err := c.repo.SubscribeRaw(ctx, &lobby.SubscribeRawInput{LobbyID: id})
	if err != nil {
		st.pollingSince = c.clock.Now()
		c.logger.Debug("push still unavailable",
			zap.String("lobby_id", id),
			zap.Error(err))
		return
	}

	fwdCtx, fwdCancel := context.WithCancel(c.ctx)
	push := &pushStrategy{repo: c.repo, lobbyID: id, cancel: fwdCancel}
	if !c.setStrategy(st.sub, push) {
		// unsubscribed meanwhile; the loop drops the lobby on detach
		push.stop(ctx)
		return
	}
	st.strategy = push
	st.failures = 0
	st.resyncFrom = c.fetch(st, true)
	c.metrics.SubscriptionMoved(string(ModePoll), string(ModePush))
	c.logger.Info("push restored", zap.String("lobby_id", id))
	c.dispatch(st, []Event{c.status(st)})

	go push.forward(fwdCtx, stream, c.inbox)
}

func (c *Channel) status(st *lobbyState) Event {
	return SyncStatusChanged{
		Meta: Meta{
			Kind:     KindSyncStatusChanged,
			LobbyID:  st.sub.lobbyID,
			Revision: st.mirror.Revision,
			Snapshot: st.mirror,
		},
		Mode:    st.strategy.mode(),
		Healthy: st.failures == 0,
	}
}

// dispatch runs the handler for each event while holding the subscription,
// so Unsubscribe can wait for it
func (c *Channel) dispatch(st *lobbyState, events []Event) {
	if len(events) == 0 {
		return
	}
	sub := st.sub
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}

	mode := string(st.strategy.mode())
	for _, e := range events {
		c.metrics.SyncEvent(string(e.EventMeta().Kind), mode)
		c.call(sub, e)
	}
}

func (c *Channel) call(sub *subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("event handler panicked",
				zap.String("lobby_id", sub.lobbyID),
				zap.String("kind", string(e.EventMeta().Kind)),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	sub.handler(e)
}
