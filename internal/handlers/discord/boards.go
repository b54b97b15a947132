package discord

import (
	"context"
	"sync"

	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/KirkDiggler/hotdice/internal/services/live"
	"github.com/KirkDiggler/hotdice/internal/services/messaging"
	"github.com/KirkDiggler/hotdice/internal/turn"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const updateBuffer = 256

// channelMessenger is the part of discordgo.Session the boards post with
type channelMessenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// board is a lobby's public message in its channel
type board struct {
	lobbyID   string
	channelID string
	messageID string
	unwatch   func()
}

// boards keeps each tracked lobby's message in step with its live view and
// posts its events to the channel. Discord calls happen on the run goroutine,
// never on the feed's.
type boards struct {
	messenger        channelMessenger
	feed             Feed
	machine          *turn.Machine
	messagingService messaging.Service
	logger           *zap.Logger

	updates chan live.Update

	mu      sync.Mutex
	byLobby map[string]*board
}

func newBoards(messenger channelMessenger, feed Feed, machine *turn.Machine, msgs messaging.Service, logger *zap.Logger) *boards {
	return &boards{
		messenger:        messenger,
		feed:             feed,
		machine:          machine,
		messagingService: msgs,
		logger:           logger,
		updates:          make(chan live.Update, updateBuffer),
		byLobby:          make(map[string]*board),
	}
}

// track follows a lobby and renders it into messageID. Tracking a lobby
// again moves it to the new message.
func (bs *boards) track(ctx context.Context, lobbyID, channelID, messageID string) error {
	bs.mu.Lock()
	if b, ok := bs.byLobby[lobbyID]; ok {
		b.channelID = channelID
		b.messageID = messageID
		bs.mu.Unlock()
		return nil
	}
	b := &board{lobbyID: lobbyID, channelID: channelID, messageID: messageID}
	bs.byLobby[lobbyID] = b
	bs.mu.Unlock()

	unwatch, err := bs.feed.Watch(ctx, lobbyID, bs.enqueue)
	if err != nil {
		bs.mu.Lock()
		delete(bs.byLobby, lobbyID)
		bs.mu.Unlock()
		return err
	}

	bs.mu.Lock()
	current, still := bs.byLobby[lobbyID]
	if still && current == b {
		b.unwatch = unwatch
	}
	bs.mu.Unlock()
	if !still || current != b {
		unwatch()
	}
	return nil
}

// tracked reports whether the lobby has a board
func (bs *boards) tracked(lobbyID string) bool {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	_, ok := bs.byLobby[lobbyID]
	return ok
}

func (bs *boards) untrack(lobbyID string) {
	bs.mu.Lock()
	b, ok := bs.byLobby[lobbyID]
	delete(bs.byLobby, lobbyID)
	bs.mu.Unlock()
	if ok && b.unwatch != nil {
		b.unwatch()
	}
}

// enqueue runs on the feed's goroutine and must not block it
func (bs *boards) enqueue(u live.Update) {
	select {
	case bs.updates <- u:
	default:
		bs.logger.Warn("board update dropped", zap.String("lobby_id", u.LobbyID))
	}
}

// run applies updates until ctx is done
func (bs *boards) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-bs.updates:
			bs.apply(ctx, u)
		}
	}
}

func (bs *boards) apply(ctx context.Context, u live.Update) {
	bs.mu.Lock()
	b, ok := bs.byLobby[u.LobbyID]
	var channelID, messageID string
	if ok {
		channelID, messageID = b.channelID, b.messageID
	}
	bs.mu.Unlock()
	if !ok {
		return
	}
	logger := bs.logger.With(zap.String("lobby_id", u.LobbyID))

	if u.Event != nil {
		bs.postEvent(ctx, logger, channelID, u)
	}
	if u.Resynced != nil {
		logger.Info("board resynchronized after unconfirmed action",
			zap.String("kind", u.Resynced.Action.Kind),
			zap.String("player_id", u.Resynced.Action.PlayerID))
	}

	snap := u.View.Snapshot
	if snap.Lobby.ID == "" {
		return
	}
	embed, components := renderBoard(u.View, bs.machine.Actions(snap), bs.statusLine(ctx, snap))
	_, err := bs.messenger.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})
	if err != nil {
		logger.Warn("failed to update board", zap.Error(err))
	}

	if snap.Lobby.Status == models.LobbyStatusFinished && !u.View.Optimistic {
		bs.untrack(u.LobbyID)
	}
}

func (bs *boards) postEvent(ctx context.Context, logger *zap.Logger, channelID string, u live.Update) {
	out, err := bs.messagingService.GetEventMessage(ctx, &messaging.GetEventMessageInput{Event: u.Event})
	if err != nil {
		logger.Warn("failed to describe event", zap.Error(err))
		return
	}
	if out.Quiet || out.Message == "" {
		return
	}
	if _, err := bs.messenger.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{Content: out.Message}); err != nil {
		logger.Warn("failed to post event", zap.Error(err))
	}
}

func (bs *boards) statusLine(ctx context.Context, snap models.LobbySnapshot) string {
	var winner string
	if p, _, ok := snap.PlayerByID(snap.Lobby.WinnerID); ok {
		winner = p.Name
	}
	out, err := bs.messagingService.GetLobbyStatusMessage(ctx, &messaging.GetLobbyStatusMessageInput{
		Status:      snap.Lobby.Status,
		PlayerCount: len(snap.Players),
		WinnerName:  winner,
	})
	if err != nil {
		return ""
	}
	return out.Message
}

// close stops following every lobby
func (bs *boards) close() {
	bs.mu.Lock()
	all := bs.byLobby
	bs.byLobby = make(map[string]*board)
	bs.mu.Unlock()

	for _, b := range all {
		if b.unwatch != nil {
			b.unwatch()
		}
	}
}
