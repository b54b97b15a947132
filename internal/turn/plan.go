package turn

import (
	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/KirkDiggler/hotdice/internal/scoring"
)

// ScoreUpdate sets a player's banked total
type ScoreUpdate struct {
	PlayerID   string
	TotalScore int
}

// Plan is the ordered list of store writes an action needs. Writes must be
// applied in field order: scores, status, winner, turn fields, advance, reset.
// AdvanceTurn always precedes the reset so no observer sees a cleared turn
// next to a stale turn index.
type Plan struct {
	Scores []ScoreUpdate

	// Status moves the lobby forward; empty leaves it alone
	Status models.LobbyStatus

	// WinnerID finishes the lobby with this winner
	WinnerID string

	// Turn is written to the current turn before any advance
	Turn models.TurnUpdate

	// AdvanceTo is the next current-player index
	AdvanceTo *int

	// ResetTurn replaces the turn state once the turn has advanced
	ResetTurn *models.TurnState

	// History are roll log entries; ID and timestamp are filled by the caller
	History []models.Roll
}

// ApplyTo returns the snapshot the store would hold after the plan is written
func (p Plan) ApplyTo(snap models.LobbySnapshot) models.LobbySnapshot {
	next := snap.Clone()
	for _, su := range p.Scores {
		for i := range next.Players {
			if next.Players[i].ID == su.PlayerID {
				next.Players[i].TotalScore = su.TotalScore
			}
		}
	}
	if p.Status != "" {
		next.Lobby.Status = p.Status
	}
	if p.WinnerID != "" {
		next.Lobby.WinnerID = p.WinnerID
		next.Lobby.Status = models.LobbyStatusFinished
	}
	next.Turn = p.Turn.Apply(next.Turn)
	if p.AdvanceTo != nil {
		next.Lobby.CurrentTurnIndex = *p.AdvanceTo
	}
	if p.ResetTurn != nil {
		next.Turn = p.ResetTurn.Clone()
	}
	return next
}

// Outcome is the result of one action
type Outcome struct {
	// Snapshot is the expected state once Plan has been written
	Snapshot models.LobbySnapshot
	Plan     Plan

	// Result is the scoring of a roll or hold
	Result *scoring.Result
	Reroll *scoring.RerollResult
	Finale *scoring.FinaleResult
}

// Won reports whether the action finished the game
func (o *Outcome) Won() bool {
	return o.Plan.WinnerID != ""
}
