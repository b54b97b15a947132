package realtime

import (
	"context"

	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/KirkDiggler/hotdice/internal/repositories/lobby"
)

// Mode is how a lobby is being observed
type Mode string

const (
	ModePush Mode = "push"
	ModePoll Mode = "poll"
)

// strategy is one way of observing a lobby. A lobby has exactly one at a time.
type strategy interface {
	mode() Mode

	// stop releases the transport; called from the loop
	stop(ctx context.Context)
}

// pushStrategy forwards the store's change feed into the channel inbox
type pushStrategy struct {
	repo    lobby.Repository
	lobbyID string
	cancel  context.CancelFunc
}

func (p *pushStrategy) mode() Mode { return ModePush }

// forward relays raw changes until the stream ends, then reports the end.
// Messages carry p so the loop can ignore a forwarder it already replaced.
func (p *pushStrategy) forward(ctx context.Context, stream <-chan models.RawChange, inbox chan<- message) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-stream:
			if !ok {
				select {
				case inbox <- streamEnded{lobbyID: p.lobbyID, from: p}:
				case <-ctx.Done():
				}
				return
			}
			select {
			case inbox <- rawObserved{lobbyID: p.lobbyID, from: p, change: change}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *pushStrategy) stop(ctx context.Context) {
	p.cancel()
	_ = p.repo.UnsubscribeRaw(ctx, &lobby.UnsubscribeRawInput{LobbyID: p.lobbyID})
}

// pollStrategy is driven by the loop's ticker; it holds no transport
type pollStrategy struct {
	repo    lobby.Repository
	lobbyID string
}

func (p *pollStrategy) mode() Mode { return ModePoll }

func (p *pollStrategy) fetch(ctx context.Context) (*models.LobbySnapshot, error) {
	return p.repo.FetchLobby(ctx, &lobby.FetchLobbyInput{LobbyID: p.lobbyID})
}

func (p *pollStrategy) stop(context.Context) {}
