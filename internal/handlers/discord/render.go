package discord

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/KirkDiggler/hotdice/internal/reconcile"
	"github.com/KirkDiggler/hotdice/internal/services/messaging"
	"github.com/KirkDiggler/hotdice/internal/turn"
	"github.com/bwmarrin/discordgo"
)

// Component custom IDs. Every ID carries the prefix so the bot can ignore
// components it did not create.
const (
	customIDPrefix = "hotdice:"

	ButtonJoin    = customIDPrefix + "join"
	ButtonStart   = customIDPrefix + "start"
	ButtonRoll    = customIDPrefix + "roll"
	ButtonBank    = customIDPrefix + "bank"
	ButtonBust    = customIDPrefix + "bust"
	ButtonEndTurn = customIDPrefix + "end_turn"
	ButtonNewGame = customIDPrefix + "new"

	// ButtonReroll is followed by the die index
	ButtonReroll = customIDPrefix + "reroll:"

	SelectHold = customIDPrefix + "hold"
)

const (
	colorWaiting  = 0x3498db
	colorActive   = 0x00ff00
	colorFinished = 0xf1c40f
	colorError    = 0xff0000

	// maxButtonsPerRow is Discord's limit for an action row
	maxButtonsPerRow = 5
)

// parseReroll returns the die index of a reroll button
func parseReroll(customID string) (int, bool) {
	raw, ok := strings.CutPrefix(customID, ButtonReroll)
	if !ok {
		return 0, false
	}
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}

// renderBoard renders the public lobby message from a view
func renderBoard(view reconcile.View, actions turn.Available, statusLine string) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	snap := view.Snapshot
	lobby := snap.Lobby

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "Status",
			Value:  string(lobby.Status),
			Inline: true,
		},
		{
			Name:   "Mode",
			Value:  fmt.Sprintf("%s to %d", modeName(lobby.Mode), lobby.WinThreshold),
			Inline: true,
		},
		{
			Name:   "Code",
			Value:  "`" + lobby.Code + "`",
			Inline: true,
		},
	}
	if standings := renderStandings(snap); standings != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Players",
			Value: standings,
		})
	}
	if lobby.Status == models.LobbyStatusActive {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Turn",
			Value: renderTurn(snap),
		})
	}

	var footer *discordgo.MessageEmbedFooter
	switch {
	case view.Connection == reconcile.ConnectionReconnecting:
		footer = &discordgo.MessageEmbedFooter{Text: "Reconnecting, updates may be delayed"}
	case view.Optimistic:
		footer = &discordgo.MessageEmbedFooter{Text: "Saving..."}
	}

	embed := &discordgo.MessageEmbed{
		Title:       boardTitle(lobby.Status),
		Description: statusLine,
		Color:       boardColor(lobby.Status),
		Fields:      fields,
		Footer:      footer,
	}
	return embed, boardComponents(snap, actions)
}

func boardTitle(status models.LobbyStatus) string {
	switch status {
	case models.LobbyStatusWaiting:
		return "Hot Dice: waiting for players"
	case models.LobbyStatusActive:
		return "Hot Dice: game in progress"
	case models.LobbyStatusFinished:
		return "Hot Dice: game over"
	}
	return "Hot Dice"
}

func boardColor(status models.LobbyStatus) int {
	switch status {
	case models.LobbyStatusWaiting:
		return colorWaiting
	case models.LobbyStatusFinished:
		return colorFinished
	}
	return colorActive
}

func modeName(mode models.GameMode) string {
	if mode == models.GameModeTiered {
		return "Tiered d20"
	}
	return "Six dice"
}

// renderStandings lists players in turn order with scores and markers
func renderStandings(snap models.LobbySnapshot) string {
	var sb strings.Builder
	for i, p := range snap.Players {
		marker := "▫️"
		switch {
		case snap.Lobby.WinnerID == p.ID:
			marker = "🏆"
		case snap.Lobby.Status == models.LobbyStatusActive && i == snap.Lobby.CurrentTurnIndex:
			marker = "🎲"
		}
		fmt.Fprintf(&sb, "%s **%s** %d", marker, p.Name, p.TotalScore)
		if !p.Connected {
			sb.WriteString(" (away)")
		}
		if p.ID == snap.Lobby.HostID {
			sb.WriteString(" (host)")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderTurn describes the current turn's dice and score
func renderTurn(snap models.LobbySnapshot) string {
	t := snap.Turn
	name := t.PlayerID
	if p, _, ok := snap.PlayerByID(t.PlayerID); ok {
		name = p.Name
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<@%s> (%s) · %s", t.PlayerID, name, phaseName(t.Phase))
	if t.Tier > 0 {
		fmt.Fprintf(&sb, " · tier %d", t.Tier)
	}
	tier := t.Tier
	if snap.Lobby.Mode == models.GameModeTiered && tier == 0 {
		tier = 1
	}
	if len(t.Dice) > 0 {
		sb.WriteString("\n")
		sb.WriteString(messaging.FormatDice(t.Dice, tier))
		if len(t.Held) > 0 {
			held := make([]int, 0, len(t.Held))
			for _, idx := range t.Held {
				if idx >= 0 && idx < len(t.Dice) {
					held = append(held, t.Dice[idx])
				}
			}
			sb.WriteString(" · held ")
			sb.WriteString(messaging.FormatDice(held, tier))
		}
	}
	fmt.Fprintf(&sb, "\nTurn score: **%d**", t.TurnScore)
	if snap.Lobby.Mode == models.GameModeSixSided {
		fmt.Fprintf(&sb, " · dice left: %d", t.DiceInPlay)
	}
	return sb.String()
}

func phaseName(phase models.TurnPhase) string {
	switch phase {
	case models.TurnPhaseAwaitingRoll:
		return "ready to roll"
	case models.TurnPhaseAwaitingHold:
		return "choosing dice"
	case models.TurnPhaseHotDice:
		return "hot dice!"
	case models.TurnPhaseRerolling:
		return "rerolling"
	case models.TurnPhaseResolved:
		return "resolved"
	case models.TurnPhaseBusted:
		return "bust"
	case models.TurnPhaseBanked:
		return "banked"
	}
	return string(phase)
}

// boardComponents builds the buttons for whatever the lobby allows now
func boardComponents(snap models.LobbySnapshot, actions turn.Available) []discordgo.MessageComponent {
	switch snap.Lobby.Status {
	case models.LobbyStatusWaiting:
		return []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				button("Join", ButtonJoin, discordgo.SuccessButton, "🎲"),
				button("Start", ButtonStart, discordgo.PrimaryButton, "▶️"),
			}},
		}
	case models.LobbyStatusFinished:
		return []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				button("New Game", ButtonNewGame, discordgo.SuccessButton, "🎮"),
			}},
		}
	}

	var rows []discordgo.MessageComponent
	if actions.Hold {
		if menu, ok := holdMenu(snap.Turn); ok {
			rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{menu}})
		}
	}
	if actions.Reroll {
		rows = append(rows, rerollRows(snap.Turn)...)
	}

	var turnButtons []discordgo.MessageComponent
	if actions.Roll {
		turnButtons = append(turnButtons, button("Roll", ButtonRoll, discordgo.PrimaryButton, "🎲"))
	}
	if actions.Bank {
		turnButtons = append(turnButtons, button("Bank", ButtonBank, discordgo.SuccessButton, "💰"))
	}
	if actions.EndTurn {
		turnButtons = append(turnButtons, button("End Turn", ButtonEndTurn, discordgo.SecondaryButton, "⏭️"))
	}
	if actions.Bust {
		turnButtons = append(turnButtons, button("Give Up", ButtonBust, discordgo.DangerButton, "💥"))
	}
	if len(turnButtons) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: turnButtons})
	}
	return rows
}

func button(label, customID string, style discordgo.ButtonStyle, emoji string) discordgo.Button {
	return discordgo.Button{
		Label:    label,
		Style:    style,
		CustomID: customID,
		Emoji: &discordgo.ComponentEmoji{
			Name: emoji,
		},
	}
}

// holdMenu offers the dice of the latest roll that are not yet held
func holdMenu(t models.TurnState) (discordgo.SelectMenu, bool) {
	var options []discordgo.SelectMenuOption
	for i, face := range t.Dice {
		if t.IsHeld(i) {
			continue
		}
		options = append(options, discordgo.SelectMenuOption{
			Label: fmt.Sprintf("Die %d: %d", i+1, face),
			Value: strconv.Itoa(i),
		})
	}
	if len(options) == 0 {
		return discordgo.SelectMenu{}, false
	}
	minValues := 1
	return discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    SelectHold,
		Placeholder: "Choose scoring dice to hold",
		MinValues:   &minValues,
		MaxValues:   len(options),
		Options:     options,
	}, true
}

// rerollRows has one button per die of a tier 2 roll
func rerollRows(t models.TurnState) []discordgo.MessageComponent {
	var (
		rows    []discordgo.MessageComponent
		current []discordgo.MessageComponent
	)
	for i, face := range t.Dice {
		current = append(current, discordgo.Button{
			Label:    fmt.Sprintf("Reroll %d", face),
			Style:    discordgo.SecondaryButton,
			CustomID: ButtonReroll + strconv.Itoa(i),
		})
		if len(current) == maxButtonsPerRow {
			rows = append(rows, discordgo.ActionsRow{Components: current})
			current = nil
		}
	}
	if len(current) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: current})
	}
	return rows
}

// parseHold converts the selected option values to die indices
func parseHold(values []string) ([]int, error) {
	indices := make([]int, 0, len(values))
	for _, v := range values {
		index, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid die %q: %w", v, err)
		}
		indices = append(indices, index)
	}
	return indices, nil
}

// renderLeaderboard renders the standings and per-player stats
func renderLeaderboard(board *models.Leaderboard, stats map[string]*models.PlayerStats) *discordgo.MessageEmbed {
	var sb strings.Builder
	for _, row := range board.Rows {
		fmt.Fprintf(&sb, "%d. **%s** %d", row.Rank, row.PlayerName, row.TotalScore)
		if row.Remaining > 0 {
			fmt.Fprintf(&sb, " (%d to go)", row.Remaining)
		}
		if st, ok := stats[row.PlayerID]; ok && st != nil {
			fmt.Fprintf(&sb, " · %d rolls, %d busts, best bank %d", st.Rolls, st.Busts, st.BestBank)
		}
		sb.WriteString("\n")
	}
	if sb.Len() == 0 {
		sb.WriteString("No players yet")
	}
	return &discordgo.MessageEmbed{
		Title:       "Leaderboard",
		Description: sb.String(),
		Color:       colorFinished,
	}
}

// renderHistory lists the most recent roll entries, oldest first
func renderHistory(snap models.LobbySnapshot, rolls []models.Roll) *discordgo.MessageEmbed {
	// any tier above zero renders d20 faces as numbers
	tier := 0
	if snap.Lobby.Mode == models.GameModeTiered {
		tier = 1
	}

	var sb strings.Builder
	for _, r := range rolls {
		name := r.PlayerID
		if p, _, ok := snap.PlayerByID(r.PlayerID); ok {
			name = p.Name
		}
		fmt.Fprintf(&sb, "**%s** %s", name, r.Kind)
		if len(r.Dice) > 0 {
			sb.WriteString(" ")
			sb.WriteString(messaging.FormatDice(r.Dice, tier))
		}
		switch {
		case r.Bust:
			sb.WriteString(" · bust")
		case r.Points != 0:
			fmt.Fprintf(&sb, " · %+d", r.Points)
		}
		sb.WriteString("\n")
	}
	if sb.Len() == 0 {
		sb.WriteString("Nothing rolled yet")
	}
	return &discordgo.MessageEmbed{
		Title:       "Roll history",
		Description: sb.String(),
		Color:       colorWaiting,
	}
}
