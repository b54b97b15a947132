package discord

import (
	"context"

	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/KirkDiggler/hotdice/internal/services/game"
	"github.com/bwmarrin/discordgo"
)

const defaultHistoryLimit = 10

// HotdiceCommand handles the /hotdice command
type HotdiceCommand struct {
	BaseCommand
	bot *Bot
}

// NewHotdiceCommand creates a new hotdice command handler
func NewHotdiceCommand(bot *Bot) *HotdiceCommand {
	minLimit := float64(1)
	return &HotdiceCommand{
		BaseCommand: BaseCommand{
			Name:        "hotdice",
			Description: "Turn-based dice game commands",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "new",
					Description: "Open a lobby in this channel",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "mode",
							Description: "Which dice to play with",
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "Six dice", Value: string(models.GameModeSixSided)},
								{Name: "Tiered d20", Value: string(models.GameModeTiered)},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "target",
							Description: "Score needed to win",
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "join",
					Description: "Join the lobby in this channel or one by code",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "code",
							Description: "Lobby join code",
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "start",
					Description: "Start the game (host only)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "leave",
					Description: "Leave the lobby",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "board",
					Description: "Post the game board again",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "leaderboard",
					Description: "Show standings and stats",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "history",
					Description: "Show the latest rolls",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "limit",
							Description: "How many rolls to show",
							MinValue:    &minLimit,
							MaxValue:    50,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "end",
					Description: "Delete the lobby (host only)",
				},
			},
		},
		bot: bot,
	}
}

// Handle processes a Discord interaction for the hotdice command
func (c *HotdiceCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if i.Type != discordgo.InteractionApplicationCommand {
		return nil
	}

	data := i.ApplicationCommandData()
	if data.Name != c.Name || len(data.Options) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	sub := data.Options[0]
	opts := optionMap(sub.Options)
	userID, username := member(i)

	switch sub.Name {
	case "new":
		input := &game.CreateLobbyInput{HostID: userID, HostName: username, ChannelID: i.ChannelID}
		if o, ok := opts["mode"]; ok {
			input.Mode = models.GameMode(o.StringValue())
		}
		if o, ok := opts["target"]; ok {
			input.WinThreshold = int(o.IntValue())
		}
		return c.bot.newGame(ctx, s, i, input)
	case "join":
		input := &game.JoinLobbyInput{PlayerID: userID, PlayerName: username}
		if o, ok := opts["code"]; ok {
			input.Code = o.StringValue()
		} else {
			lobby, err := c.bot.gameService.GetLobby(ctx, &game.GetLobbyInput{ChannelID: i.ChannelID})
			if err != nil {
				return c.bot.respondWithFailure(ctx, s, i, err)
			}
			input.LobbyID = lobby.Lobby.Lobby.ID
		}
		return c.bot.join(ctx, s, i, input)
	}

	lobby, err := c.bot.gameService.GetLobby(ctx, &game.GetLobbyInput{ChannelID: i.ChannelID})
	if err != nil {
		return c.bot.respondWithFailure(ctx, s, i, err)
	}
	snap := *lobby.Lobby
	lobbyID := snap.Lobby.ID

	switch sub.Name {
	case "start":
		return c.bot.act(ctx, s, i, lobbyID, game.ActionStart, func() (*game.ActionOutput, error) {
			return c.bot.gameService.StartGame(ctx, &game.StartGameInput{LobbyID: lobbyID, PlayerID: userID})
		})
	case "leave":
		out, err := c.bot.gameService.LeaveLobby(ctx, &game.LeaveLobbyInput{LobbyID: lobbyID, PlayerID: userID})
		if err != nil {
			return c.bot.respondWithFailure(ctx, s, i, err)
		}
		if out.Removed {
			return RespondWithEphemeralMessage(s, i, "You left the lobby.")
		}
		return RespondWithEphemeralMessage(s, i, "You're marked as away. Join again to pick up where you left off.")
	case "board":
		return c.bot.postBoard(ctx, s, i, snap)
	case "leaderboard":
		out, err := c.bot.gameService.GetLeaderboard(ctx, &game.GetLeaderboardInput{LobbyID: lobbyID})
		if err != nil {
			return c.bot.respondWithFailure(ctx, s, i, err)
		}
		_, err = RespondWithEmbed(s, i, renderLeaderboard(out.Leaderboard, out.Stats), nil)
		return err
	case "history":
		limit := defaultHistoryLimit
		if o, ok := opts["limit"]; ok {
			limit = int(o.IntValue())
		}
		out, err := c.bot.gameService.GetHistory(ctx, &game.GetHistoryInput{LobbyID: lobbyID, Limit: limit})
		if err != nil {
			return c.bot.respondWithFailure(ctx, s, i, err)
		}
		return RespondWithEphemeralEmbed(s, i, renderHistory(snap, out.Rolls))
	case "end":
		err := c.bot.gameService.DeleteLobby(ctx, &game.DeleteLobbyInput{LobbyID: lobbyID, PlayerID: userID})
		if err != nil {
			return c.bot.respondWithFailure(ctx, s, i, err)
		}
		c.bot.boards.untrack(lobbyID)
		return RespondWithEphemeralMessage(s, i, "Lobby deleted.")
	}

	return RespondWithEphemeralMessage(s, i, "Unknown subcommand.")
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, o := range options {
		m[o.Name] = o
	}
	return m
}
