package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KirkDiggler/hotdice/internal/common/logging"
	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/KirkDiggler/hotdice/internal/reconcile"
	"github.com/KirkDiggler/hotdice/internal/services/game"
	"github.com/KirkDiggler/hotdice/internal/services/live"
	"github.com/KirkDiggler/hotdice/internal/services/messaging"
	"github.com/KirkDiggler/hotdice/internal/turn"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// requestTimeout bounds the game service calls of one interaction
const requestTimeout = 5 * time.Second

// Feed is the part of live.Hub the bot uses
type Feed interface {
	Watch(ctx context.Context, lobbyID string, fn live.Listener) (func(), error)
}

// Bot represents the Discord bot instance
type Bot struct {
	session          *discordgo.Session
	commands         map[string]CommandHandler
	commandIDs       map[string]string // Maps command name to command ID
	gameService      game.Service
	messagingService messaging.Service
	feed             Feed
	boards           *boards
	logger           *zap.Logger
	config           *Config

	cancel context.CancelFunc
}

// Config holds the configuration for the bot
type Config struct {
	// Discord bot token
	Token string

	// Application ID for the bot
	ApplicationID string

	// Optional guild ID for development (server-specific commands)
	GuildID string

	GameService      game.Service
	MessagingService messaging.Service
	Feed             Feed

	// Machine reports which buttons a board shows
	Machine *turn.Machine

	Logger *zap.Logger
}

// New creates a new Discord bot
func New(cfg *Config) (*Bot, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Token == "" {
		return nil, errors.New("token cannot be empty")
	}

	if cfg.GameService == nil {
		return nil, errors.New("game service cannot be nil")
	}

	if cfg.MessagingService == nil {
		return nil, errors.New("messaging service cannot be nil")
	}

	if cfg.Feed == nil {
		return nil, errors.New("feed cannot be nil")
	}

	if cfg.Machine == nil {
		return nil, errors.New("turn machine cannot be nil")
	}

	// Create a new Discord session
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	logger := logging.OrNop(cfg.Logger)
	bot := &Bot{
		session:          session,
		commands:         make(map[string]CommandHandler),
		commandIDs:       make(map[string]string),
		gameService:      cfg.GameService,
		messagingService: cfg.MessagingService,
		feed:             cfg.Feed,
		boards:           newBoards(session, cfg.Feed, cfg.Machine, cfg.MessagingService, logger),
		logger:           logger,
		config:           cfg,
	}

	// Register the interaction handler
	session.AddHandler(bot.handleInteraction)

	return bot, nil
}

// Start initializes the Discord connection and registers commands
func (b *Bot) Start() error {
	// Open the websocket connection to Discord
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	go b.boards.run(ctx)

	if err := b.RegisterCommand(NewHotdiceCommand(b)); err != nil {
		return fmt.Errorf("failed to register hotdice command: %w", err)
	}

	b.logger.Info("discord bot running")
	return nil
}

// Stop gracefully shuts down the Discord connection
func (b *Bot) Stop() error {
	b.boards.close()
	if b.cancel != nil {
		b.cancel()
	}

	appID := b.appID()
	for cmdName, cmdID := range b.commandIDs {
		if err := b.session.ApplicationCommandDelete(appID, b.config.GuildID, cmdID); err != nil {
			b.logger.Warn("failed to delete command",
				zap.String("command", cmdName),
				zap.String("command_id", cmdID),
				zap.Error(err))
		}
	}

	return b.session.Close()
}

func (b *Bot) appID() string {
	if b.config.ApplicationID != "" {
		return b.config.ApplicationID
	}
	// Fall back to session user ID if application ID is not provided
	return b.session.State.User.ID
}

// RegisterCommand registers a command with Discord, for one guild when
// GuildID is set and globally otherwise
func (b *Bot) RegisterCommand(cmd CommandHandler) error {
	createdCmd, err := b.session.ApplicationCommandCreate(b.appID(), b.config.GuildID, cmd.GetCommand())
	if err != nil {
		return fmt.Errorf("failed to create command %s: %w", cmd.GetName(), err)
	}

	b.commands[cmd.GetName()] = cmd
	b.commandIDs[cmd.GetName()] = createdCmd.ID
	b.logger.Info("registered command",
		zap.String("command", cmd.GetName()),
		zap.String("command_id", createdCmd.ID),
		zap.String("guild_id", b.config.GuildID))

	return nil
}

// handleInteraction handles Discord interactions
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		if h, ok := b.commands[name]; ok {
			if err := h.Handle(s, i); err != nil {
				b.logger.Error("failed to handle command", zap.String("command", name), zap.Error(err))
			}
		}
	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		if !strings.HasPrefix(customID, customIDPrefix) {
			return
		}
		if err := b.handleComponentInteraction(s, i); err != nil {
			b.logger.Error("failed to handle component", zap.String("custom_id", customID), zap.Error(err))
		}
	}
}

// handleComponentInteraction handles board buttons and the hold menu
func (b *Bot) handleComponentInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	data := i.MessageComponentData()
	userID, username := member(i)

	lobby, err := b.gameService.GetLobby(ctx, &game.GetLobbyInput{ChannelID: i.ChannelID})
	if data.CustomID == ButtonNewGame {
		input := &game.CreateLobbyInput{HostID: userID, HostName: username, ChannelID: i.ChannelID}
		// a rematch keeps the finished game's settings
		if err == nil {
			input.Mode = lobby.Lobby.Lobby.Mode
			input.WinThreshold = lobby.Lobby.Lobby.WinThreshold
		}
		return b.newGame(ctx, s, i, input)
	}
	if err != nil {
		return b.respondWithFailure(ctx, s, i, err)
	}
	lobbyID := lobby.Lobby.Lobby.ID

	switch {
	case data.CustomID == ButtonJoin:
		return b.join(ctx, s, i, &game.JoinLobbyInput{LobbyID: lobbyID, PlayerID: userID, PlayerName: username})
	case data.CustomID == SelectHold:
		indices, err := parseHold(data.Values)
		if err != nil {
			return b.respondWithFailure(ctx, s, i, fmt.Errorf("%w: %w", game.ErrInvalidInput, err))
		}
		return b.act(ctx, s, i, lobbyID, game.ActionHold, func() (*game.ActionOutput, error) {
			return b.gameService.Hold(ctx, &game.HoldInput{LobbyID: lobbyID, PlayerID: userID, Indices: indices})
		})
	case strings.HasPrefix(data.CustomID, ButtonReroll):
		index, ok := parseReroll(data.CustomID)
		if !ok {
			return RespondWithEphemeralMessage(s, i, "That die is not on the table.")
		}
		return b.act(ctx, s, i, lobbyID, game.ActionReroll, func() (*game.ActionOutput, error) {
			return b.gameService.Reroll(ctx, &game.RerollInput{LobbyID: lobbyID, PlayerID: userID, Index: index})
		})
	}

	action, run := b.turnAction(ctx, data.CustomID, lobbyID, userID)
	if run == nil {
		return RespondWithEphemeralMessage(s, i, fmt.Sprintf("Unknown button: %s", data.CustomID))
	}
	return b.act(ctx, s, i, lobbyID, action, run)
}

// turnAction maps a plain turn button to its game service call
func (b *Bot) turnAction(ctx context.Context, customID, lobbyID, userID string) (string, func() (*game.ActionOutput, error)) {
	switch customID {
	case ButtonStart:
		return game.ActionStart, func() (*game.ActionOutput, error) {
			return b.gameService.StartGame(ctx, &game.StartGameInput{LobbyID: lobbyID, PlayerID: userID})
		}
	case ButtonRoll:
		return game.ActionRoll, func() (*game.ActionOutput, error) {
			return b.gameService.Roll(ctx, &game.RollInput{LobbyID: lobbyID, PlayerID: userID})
		}
	case ButtonBank:
		return game.ActionBank, func() (*game.ActionOutput, error) {
			return b.gameService.Bank(ctx, &game.BankInput{LobbyID: lobbyID, PlayerID: userID})
		}
	case ButtonBust:
		return game.ActionBust, func() (*game.ActionOutput, error) {
			return b.gameService.Bust(ctx, &game.BustInput{LobbyID: lobbyID, PlayerID: userID})
		}
	case ButtonEndTurn:
		return game.ActionEndTurn, func() (*game.ActionOutput, error) {
			return b.gameService.EndTurn(ctx, &game.EndTurnInput{LobbyID: lobbyID, PlayerID: userID})
		}
	}
	return "", nil
}

// act runs a turn action and tells the player how it went. The board is
// tracked first so the planned result shows on it before the store confirms.
// Rejections change nothing and are only shown to the player.
func (b *Bot) act(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, lobbyID, action string, run func() (*game.ActionOutput, error)) error {
	_, username := member(i)

	if !b.boards.tracked(lobbyID) && i.Message != nil {
		if err := b.boards.track(ctx, lobbyID, i.ChannelID, i.Message.ID); err != nil {
			b.logger.Warn("failed to track board", zap.String("lobby_id", lobbyID), zap.Error(err))
		}
	}

	out, err := run()
	if err != nil {
		return b.respondWithFailure(ctx, s, i, err)
	}

	result, err := b.messagingService.GetActionResultMessage(ctx, &messaging.GetActionResultMessageInput{
		PlayerName: username,
		Action:     action,
		Outcome:    out.Outcome,
	})
	if err != nil {
		return RespondWithEphemeralMessage(s, i, "Done!")
	}
	return RespondWithEphemeralEmbed(s, i, &discordgo.MessageEmbed{
		Title:       result.Title,
		Description: result.Message,
		Color:       colorActive,
	})
}

// join seats the player and confirms privately
func (b *Bot) join(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, input *game.JoinLobbyInput) error {
	out, err := b.gameService.JoinLobby(ctx, input)
	if err != nil {
		return b.respondWithFailure(ctx, s, i, err)
	}

	msg, err := b.messagingService.GetJoinLobbyMessage(ctx, &messaging.GetJoinLobbyMessageInput{
		PlayerName:  input.PlayerName,
		Reconnected: out.Reconnected,
		Code:        out.Lobby.Lobby.Code,
	})
	if err != nil {
		return RespondWithEphemeralMessage(s, i, "You're in!")
	}
	return RespondWithEphemeralMessage(s, i, msg.Message)
}

// newGame opens a lobby and posts its board to the channel
func (b *Bot) newGame(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, input *game.CreateLobbyInput) error {
	out, err := b.gameService.CreateLobby(ctx, input)
	if err != nil {
		return b.respondWithFailure(ctx, s, i, err)
	}
	return b.postBoard(ctx, s, i, *out.Lobby)
}

// postBoard answers the interaction with a fresh board and follows the lobby
// in it
func (b *Bot) postBoard(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, snap models.LobbySnapshot) error {
	view := reconcile.View{Snapshot: snap, Connection: reconcile.ConnectionSynced}
	embed, components := renderBoard(view, b.config.Machine.Actions(snap), b.boards.statusLine(ctx, snap))

	msg, err := RespondWithEmbed(s, i, embed, components)
	if err != nil {
		return err
	}
	if snap.Lobby.Status == models.LobbyStatusFinished {
		return nil
	}
	return b.boards.track(context.Background(), snap.Lobby.ID, i.ChannelID, msg.ID)
}

// respondWithFailure shows a rejected action to the player only
func (b *Bot) respondWithFailure(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, err error) error {
	out, msgErr := b.messagingService.GetErrorMessage(ctx, &messaging.GetErrorMessageInput{Err: err})
	if msgErr != nil {
		return RespondWithError(s, i, "Error", "Something went wrong.")
	}
	if out.Reason == messaging.ReasonInternal {
		b.logger.Error("interaction failed", zap.String("channel_id", i.ChannelID), zap.Error(err))
	}
	return RespondWithError(s, i, "Not so fast", out.Message)
}
