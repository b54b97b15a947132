package lobby

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const changeBuffer = 64

type subscription struct {
	pubsub *redis.PubSub
	done   chan struct{}
	once   sync.Once
}

// SubscribeRaw opens a pub/sub subscription on the lobby's change channel.
// A second subscription to the same lobby replaces the first.
func (r *redisRepository) SubscribeRaw(ctx context.Context, input *SubscribeRawInput) (<-chan models.RawChange, error) {
	if input == nil || input.LobbyID == "" {
		return nil, fmt.Errorf("%w: lobby ID cannot be empty", ErrInvalidInput)
	}

	pubsub := r.client.Subscribe(ctx, changesKey(input.LobbyID))
	// Wait for the subscription confirmation so a dead server fails here
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to lobby %s: %w", input.LobbyID, err)
	}

	sub := &subscription{pubsub: pubsub, done: make(chan struct{})}
	r.mu.Lock()
	if prev, ok := r.subs[input.LobbyID]; ok {
		prev.close()
	}
	r.subs[input.LobbyID] = sub
	r.mu.Unlock()

	out := make(chan models.RawChange, changeBuffer)
	go r.forward(input.LobbyID, sub, out)
	return out, nil
}

// forward decodes the subscription's messages. The initial confirmation was
// consumed by SubscribeRaw, so any later subscribe confirmation means go-redis
// reconnected and resubscribed; whatever was published in between is gone and
// the reader is told to resync.
func (r *redisRepository) forward(lobbyID string, sub *subscription, out chan<- models.RawChange) {
	defer close(out)
	defer r.drop(lobbyID, sub)

	for msg := range sub.pubsub.ChannelWithSubscriptions() {
		var change models.RawChange
		switch m := msg.(type) {
		case *redis.Subscription:
			if m.Kind != "subscribe" {
				continue
			}
			r.logger.Warn("change feed resubscribed",
				zap.String("lobby_id", lobbyID),
				zap.String("channel", m.Channel))
			change = models.RawChange{Op: models.ChangeOpResync, LobbyID: lobbyID}
		case *redis.Message:
			if err := json.Unmarshal([]byte(m.Payload), &change); err != nil {
				r.logger.Warn("dropping malformed change",
					zap.String("lobby_id", lobbyID),
					zap.Error(err))
				continue
			}
		default:
			continue
		}
		select {
		case out <- change:
		case <-sub.done:
			return
		}
	}
}

// drop forgets sub if it is still the lobby's current subscription
func (r *redisRepository) drop(lobbyID string, sub *subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subs[lobbyID] == sub {
		delete(r.subs, lobbyID)
	}
	sub.close()
}

// UnsubscribeRaw ends the lobby's subscription. Unknown lobbies are ignored.
func (r *redisRepository) UnsubscribeRaw(ctx context.Context, input *UnsubscribeRawInput) error {
	if input == nil {
		return nil
	}
	r.mu.Lock()
	sub, ok := r.subs[input.LobbyID]
	delete(r.subs, input.LobbyID)
	r.mu.Unlock()
	if ok {
		sub.close()
	}
	return nil
}

func (s *subscription) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.pubsub.Close()
	})
}
