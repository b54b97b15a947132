package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/KirkDiggler/hotdice/internal/dice"
	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/KirkDiggler/hotdice/internal/realtime"
	"github.com/KirkDiggler/hotdice/internal/scoring"
	"github.com/KirkDiggler/hotdice/internal/services/game"
	"github.com/KirkDiggler/hotdice/internal/turn"
)

// service implements the Service interface
type service struct {
	// roller selects random message variants; it is safe for concurrent use
	roller dice.Roller
}

// New creates a new messaging service
func New(cfg *Config) (*service, error) {
	var roller dice.Roller
	if cfg != nil {
		roller = cfg.Roller
	}
	if roller == nil {
		roller = dice.New(nil)
	}
	return &service{roller: roller}, nil
}

// ReasonFor maps an error from the game service to its reason code
func ReasonFor(err error) Reason {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, turn.ErrNotYourTurn):
		return ReasonNotYourTurn
	case errors.Is(err, turn.ErrInvalidHold):
		return ReasonInvalidHold
	case errors.Is(err, turn.ErrWrongTier):
		return ReasonWrongTier
	case errors.Is(err, turn.ErrNotEnough):
		return ReasonNotEnoughPlayers
	case errors.Is(err, turn.ErrInvalidState):
		return ReasonInvalidState
	case errors.Is(err, game.ErrRetryAction):
		return ReasonRetryAction
	case errors.Is(err, game.ErrLobbyNotFound):
		return ReasonLobbyNotFound
	case errors.Is(err, game.ErrLobbyExists):
		return ReasonLobbyExists
	case errors.Is(err, game.ErrLobbyStarted):
		return ReasonLobbyStarted
	case errors.Is(err, game.ErrLobbyFull):
		return ReasonLobbyFull
	case errors.Is(err, game.ErrPlayerAlreadyInLobby):
		return ReasonAlreadyJoined
	case errors.Is(err, game.ErrPlayerNotInLobby):
		return ReasonNotInLobby
	case errors.Is(err, game.ErrNotHost):
		return ReasonNotHost
	case errors.Is(err, game.ErrInvalidInput),
		errors.Is(err, game.ErrInvalidMode),
		errors.Is(err, game.ErrInvalidThreshold),
		errors.Is(err, scoring.ErrInvalidInput):
		return ReasonInvalidInput
	}
	return ReasonInternal
}

// GetErrorMessage maps a failed action to a reason code and player-facing text
func (s *service) GetErrorMessage(ctx context.Context, input *GetErrorMessageInput) (*GetErrorMessageOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	tone := input.PreferredTone
	if tone == "" {
		tone = ToneFunny
	}

	reason := ReasonFor(input.Err)
	var messages []string

	// Select messages based on the reason
	switch reason {
	case ReasonNotYourTurn:
		messages = []string{
			"Patience! It's not your turn yet.",
			"Hold your horses! Someone else has the dice.",
			"Wait your turn! The dice will come to you soon.",
		}
	case ReasonInvalidState:
		messages = []string{
			"You can't do that right now.",
			"Not now! Check the buttons that are still lit.",
			"The dice aren't ready for that move.",
		}
	case ReasonInvalidHold:
		messages = []string{
			"Those dice don't score together. Pick scoring dice only.",
			"That hold doesn't add up. Every held die has to score.",
		}
	case ReasonWrongTier:
		messages = []string{
			"That move isn't available in your tier.",
		}
	case ReasonNotEnoughPlayers:
		messages = []string{
			"You need at least two players to start. Rope in a friend!",
			"Dice games are better with company. Wait for another player.",
		}
	case ReasonRetryAction:
		messages = []string{
			"The table moved while you were rolling. Try again.",
			"Someone beat you to it. Take another look and try again.",
		}
	case ReasonLobbyNotFound:
		messages = []string{
			"No lobby here. Start one with /hotdice new.",
			"That lobby doesn't exist, or it's already been packed away.",
		}
	case ReasonLobbyExists:
		messages = []string{
			"There's already a game going in this channel. Join that one!",
		}
	case ReasonLobbyStarted:
		messages = []string{
			"This game is already rolling! Catch the next one.",
			"Too late, hotshot! The dice are already in motion.",
		}
	case ReasonLobbyFull:
		messages = []string{
			fmt.Sprintf("This table is full! %d players max.", models.MaxPlayers),
			"No room at the table. Wait for the next game.",
		}
	case ReasonAlreadyJoined:
		messages = []string{
			"You're already at the table, eager beaver!",
			"Double-dipping, are we? You're already in this game!",
		}
	case ReasonNotInLobby:
		messages = []string{
			"You're not in this game. Join first!",
		}
	case ReasonNotHost:
		messages = []string{
			"Only the host can do that.",
		}
	case ReasonInvalidInput:
		messages = []string{
			"That doesn't look right. Check the options and try again.",
		}
	default:
		messages = []string{
			"Something went wrong! Try again later.",
			"Oops! The dice got confused. Try again.",
			"Technical difficulties! The dice are being recalibrated.",
		}
	}

	if tone == ToneNeutral {
		messages = messages[:1]
	}

	return &GetErrorMessageOutput{
		Reason:  reason,
		Message: s.pick(messages),
		Tone:    tone,
	}, nil
}

// GetJoinLobbyMessage returns a message for when a player joins a lobby
func (s *service) GetJoinLobbyMessage(ctx context.Context, input *GetJoinLobbyMessageInput) (*GetJoinLobbyMessageOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	tone := input.PreferredTone
	if tone == "" {
		tone = ToneFunny
	}

	var messages []string
	if input.Reconnected {
		messages = []string{
			fmt.Sprintf("Welcome back, %s! Your seat was still warm.", input.PlayerName),
			fmt.Sprintf("%s is back at the table.", input.PlayerName),
			fmt.Sprintf("Look who came back for their dice! Welcome back, %s.", input.PlayerName),
		}
	} else {
		messages = []string{
			fmt.Sprintf("%s joined the table.", input.PlayerName),
			fmt.Sprintf("A new challenger appears! Welcome, %s.", input.PlayerName),
			fmt.Sprintf("Fresh dice for %s! Get ready to roll when the game begins.", input.PlayerName),
		}
	}
	if tone == ToneNeutral {
		messages = messages[:1]
	}

	message := s.pick(messages)
	if input.Code != "" {
		message += fmt.Sprintf(" Join code: **%s**", input.Code)
	}

	return &GetJoinLobbyMessageOutput{
		Message: message,
		Tone:    tone,
	}, nil
}

// GetLobbyStatusMessage returns a dynamic message based on the lobby status
func (s *service) GetLobbyStatusMessage(ctx context.Context, input *GetLobbyStatusMessageInput) (*GetLobbyStatusMessageOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	var messages []string

	switch input.Status {
	case models.LobbyStatusWaiting:
		if input.PlayerCount < models.MinPlayers {
			messages = []string{
				"Waiting for a second player. Dice games need an audience!",
				"One player at the table. Who's brave enough to join?",
			}
		} else {
			messages = []string{
				fmt.Sprintf("%d players at the table. The host can start whenever ready.", input.PlayerCount),
				fmt.Sprintf("%d players ready to roll. Waiting on the host!", input.PlayerCount),
			}
		}
	case models.LobbyStatusActive:
		messages = []string{
			"The game is afoot! Roll those dice and push your luck.",
			"Game in progress! Bank it or risk it.",
			"The dice are hot. Roll wisely.",
		}
	case models.LobbyStatusFinished:
		if input.WinnerName != "" {
			messages = []string{
				fmt.Sprintf("Game over! %s takes it.", input.WinnerName),
				fmt.Sprintf("The dice have spoken: %s wins!", input.WinnerName),
			}
		} else {
			messages = []string{"Game over!"}
		}
	default:
		return &GetLobbyStatusMessageOutput{
			Message: "Hot dice game in progress. May the odds be in your favor!",
		}, nil
	}

	return &GetLobbyStatusMessageOutput{
		Message: s.pick(messages),
	}, nil
}

// GetActionResultMessage returns the personal message after a turn action
func (s *service) GetActionResultMessage(ctx context.Context, input *GetActionResultMessageInput) (*GetActionResultMessageOutput, error) {
	if input == nil || input.Outcome == nil {
		return nil, errors.New("input and outcome cannot be nil")
	}

	out := input.Outcome
	t := out.Snapshot.Turn
	var title, message string

	switch {
	case out.Won():
		title = s.pick([]string{"WINNER!", "Champion!", "That's game!"})
		message = fmt.Sprintf("%s wins the game!", input.PlayerName)
	case out.Finale != nil:
		title, message = s.finaleMessage(input.PlayerName, out.Snapshot, out.Finale)
	case out.Reroll != nil && out.Reroll.Bust:
		title = "Bust!"
		message = fmt.Sprintf("Rerolled a %d into a %d. Lower is a bust.", out.Reroll.OldValue, out.Reroll.NewValue)
	case out.Reroll != nil:
		title = "Reroll"
		message = fmt.Sprintf("Rerolled a %d into a %d. Now at %d points: %s", out.Reroll.OldValue, out.Reroll.NewValue, out.Reroll.Points, FormatDice(out.Reroll.Dice, t.Tier))
	case out.Result != nil && out.Result.Bust:
		title = s.pick([]string{"Bust!", "Farkle!", "Ouch!"})
		message = fmt.Sprintf("%s: nothing scores. Turn points lost.", FormatDice(t.Dice, t.Tier))
	case t.Phase == models.TurnPhaseHotDice:
		title = s.pick([]string{"HOT DICE!", "All of them!", "On fire!"})
		message = fmt.Sprintf("%s: every die scores. %d points on the line, roll all %d again or bank.", FormatDice(t.Dice, t.Tier), t.TurnScore, t.DiceInPlay)
	case out.Result != nil && t.Phase == models.TurnPhaseRerolling:
		title = "Tier 2"
		message = fmt.Sprintf("%s for %d points. Reroll a die or bank.", FormatDice(t.Dice, t.Tier), t.TurnScore)
	case out.Result != nil:
		title = "Rolled"
		message = fmt.Sprintf("%s. Pick your scoring dice.", FormatDice(t.Dice, t.Tier))
	case input.Action == game.ActionHold:
		title = "Held"
		message = fmt.Sprintf("%d points this turn. Roll %d dice or bank.", t.TurnScore, t.DiceInPlay)
	case input.Action == game.ActionBank && len(out.Plan.Scores) > 0 && len(out.Plan.History) > 0:
		title = "Banked"
		message = fmt.Sprintf("Banked %d points. Total: %d.", out.Plan.History[0].Points, out.Plan.Scores[0].TotalScore)
	case input.Action == game.ActionStart:
		title = "Game on!"
		message = "The game has started."
	default:
		title = "Turn over"
		message = "The dice pass to the next player."
	}

	return &GetActionResultMessageOutput{
		Title:   title,
		Message: message,
	}, nil
}

func (s *service) finaleMessage(playerName string, snap models.LobbySnapshot, fin *scoring.FinaleResult) (string, string) {
	switch fin.Kind {
	case scoring.FinaleReset:
		return "Critical fail!", fmt.Sprintf("%s rolled a 1. Back to zero!", playerName)
	case scoring.FinaleKingmaker:
		return "Kingmaker!", fmt.Sprintf("%s rolled a 20 and handed 20 points to %s.", playerName, nameOf(snap, fin.BeneficiaryID))
	}
	return "Climbing", fmt.Sprintf("%s rolled a %d. Total: %d.", playerName, fin.Face, fin.RollerTotal)
}

// GetEventMessage describes a change event for the lobby's channel
func (s *service) GetEventMessage(ctx context.Context, input *GetEventMessageInput) (*GetEventMessageOutput, error) {
	if input == nil || input.Event == nil {
		return nil, errors.New("input and event cannot be nil")
	}

	meta := input.Event.EventMeta()
	who := nameOf(meta.Snapshot, meta.PlayerID)

	out := &GetEventMessageOutput{}
	switch e := input.Event.(type) {
	case realtime.PlayerJoined:
		if e.Reconnected {
			out.Message = fmt.Sprintf("%s reconnected.", displayName(e.Player))
		} else {
			out.Message = fmt.Sprintf("%s joined the table.", displayName(e.Player))
		}
	case realtime.PlayerLeft:
		if e.Disconnected {
			out.Message = fmt.Sprintf("%s stepped away.", displayName(e.Player))
		} else {
			out.Message = fmt.Sprintf("%s left the table.", displayName(e.Player))
		}
	case realtime.GameStarted:
		out.Message = fmt.Sprintf("Game on! %d players, first to %d.", len(e.Players), meta.Snapshot.Lobby.WinThreshold)
	case realtime.DiceRolled:
		out.Message = fmt.Sprintf("%s rolled %s", who, FormatDice(e.Dice, e.Tier))
		out.Quiet = true
	case realtime.DiceHeld:
		out.Message = fmt.Sprintf("%s is holding %d points", who, e.TurnScore)
		out.Quiet = true
	case realtime.TurnBanked:
		out.Message = fmt.Sprintf("%s banked %d. Total: %d.", who, e.Points, e.TotalScore)
	case realtime.Bust:
		out.Message = fmt.Sprintf("%s busted and lost %d points.", who, e.Lost)
	case realtime.ScoreChanged:
		out.Message = fmt.Sprintf("%s: %d → %d", who, e.Before, e.After)
		out.Quiet = true
	case realtime.TurnChanged:
		out.Message = fmt.Sprintf("%s's turn.", who)
	case realtime.GameWon:
		out.Message = fmt.Sprintf("%s wins with %d points!", who, e.Score)
	case realtime.SyncStatusChanged:
		if e.Mode == realtime.ModePoll || !e.Healthy {
			out.Message = "Reconnecting..."
		} else {
			out.Message = "Live."
		}
		out.Quiet = true
	default:
		out.Message = string(meta.Kind)
		out.Quiet = true
	}
	return out, nil
}

func (s *service) pick(messages []string) string {
	return messages[s.roller.Roll(len(messages))-1]
}

var sixSidedFaces = []string{"⚀", "⚁", "⚂", "⚃", "⚄", "⚅"}

// FormatDice renders a roll; six-sided faces use the die glyphs
func FormatDice(faces []int, tier int) string {
	parts := make([]string, len(faces))
	for i, f := range faces {
		if tier == 0 && f >= 1 && f <= 6 {
			parts[i] = sixSidedFaces[f-1]
			continue
		}
		parts[i] = "[" + strconv.Itoa(f) + "]"
	}
	return strings.Join(parts, " ")
}

func nameOf(snap models.LobbySnapshot, playerID string) string {
	if p, _, ok := snap.PlayerByID(playerID); ok {
		return displayName(p)
	}
	return playerID
}

func displayName(p models.Player) string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}
