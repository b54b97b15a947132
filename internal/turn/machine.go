package turn

import (
	"fmt"
	"slices"

	"github.com/KirkDiggler/hotdice/internal/dice"
	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/KirkDiggler/hotdice/internal/scoring"
)

// Config holds the machine's dependencies
type Config struct {
	// Roller draws faces for Roll and Reroll
	Roller dice.Roller

	// Engines overrides the built-in scoring engines
	Engines scoring.Engines
}

// Machine applies turn actions to lobby snapshots. It keeps no per-lobby
// state: every method takes a snapshot by value and returns the planned
// writes, so a Machine can be shared across goroutines.
type Machine struct {
	roller  dice.Roller
	engines scoring.Engines
}

// tierScorer is implemented by engines with a tiered risk ladder
type tierScorer interface {
	scoring.Engine
	ScoreTier(dice []int, tier int) (*scoring.Result, error)
	Reroll(dice []int, index, face int) (*scoring.RerollResult, error)
}

// New creates a turn machine
func New(cfg *Config) (*Machine, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.Roller == nil {
		return nil, ErrNilDiceRoller
	}

	engines := cfg.Engines
	if engines == nil {
		engines = scoring.DefaultEngines()
	}

	return &Machine{
		roller:  cfg.Roller,
		engines: engines,
	}, nil
}

// Engine returns the scoring engine for a mode
func (m *Machine) Engine(mode models.GameMode) (scoring.Engine, error) {
	return m.engines.ForMode(mode)
}

// Start moves a waiting lobby to active and opens the first player's turn
func (m *Machine) Start(snap models.LobbySnapshot) (*Outcome, error) {
	if snap.Lobby.Status != models.LobbyStatusWaiting {
		return nil, fmt.Errorf("%w: lobby is %s", ErrInvalidState, snap.Lobby.Status)
	}
	if n := len(snap.Players); n < models.MinPlayers {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrNotEnough, n, models.MinPlayers)
	} else if n > models.MaxPlayers {
		return nil, fmt.Errorf("%w: %d players exceeds %d", ErrInvalidState, n, models.MaxPlayers)
	}
	engine, err := m.engines.ForMode(snap.Lobby.Mode)
	if err != nil {
		return nil, err
	}

	first := 0
	fresh := newTurn(snap.Players[first], engine)
	plan := Plan{
		Status:    models.LobbyStatusActive,
		AdvanceTo: &first,
		ResetTurn: &fresh,
	}
	return outcome(snap, plan), nil
}

// Roll throws the dice in play for the current player
func (m *Machine) Roll(snap models.LobbySnapshot, playerID string) (*Outcome, error) {
	_, engine, err := m.authorize(snap, playerID)
	if err != nil {
		return nil, err
	}
	if !canRoll(snap.Turn) {
		return nil, fmt.Errorf("%w: cannot roll while %s", ErrInvalidState, snap.Turn.Phase)
	}

	faces := m.roller.RollMany(snap.Turn.DiceInPlay, engine.DiceType().Sides())
	return m.ApplyRoll(snap, playerID, faces)
}

// ApplyRoll scores faces as the current player's next roll
func (m *Machine) ApplyRoll(snap models.LobbySnapshot, playerID string, faces []int) (*Outcome, error) {
	player, engine, err := m.authorize(snap, playerID)
	if err != nil {
		return nil, err
	}
	t := snap.Turn
	if !canRoll(t) {
		return nil, fmt.Errorf("%w: cannot roll while %s", ErrInvalidState, t.Phase)
	}
	if len(faces) != t.DiceInPlay {
		return nil, fmt.Errorf("%w: expected %d dice, got %d", scoring.ErrInvalidInput, t.DiceInPlay, len(faces))
	}

	if ts, ok := engine.(tierScorer); ok {
		switch t.Tier {
		case scoring.Tier2:
			return m.rollTier2(snap, player, ts, faces)
		case scoring.Tier3:
			return m.rollFinale(snap, player, faces)
		}
	}

	res, err := engine.Score(faces)
	if err != nil {
		return nil, err
	}

	next := t.Clone()
	next.Dice = slices.Clone(faces)
	next.Held = nil
	next.RollBase = t.TurnScore
	next.RollCount++
	next.PreviousDice = nil

	switch {
	case res.Bust:
		next.Phase = models.TurnPhaseBusted
		next.Bust = true
		next.TurnScore = 0
	case engine.IsHotDice(faces, res.ScoringIndices):
		next.Phase = models.TurnPhaseHotDice
		next.Held = slices.Clone(res.ScoringIndices)
		next.TurnScore = t.TurnScore + res.Points
		next.DiceInPlay = engine.DiceCount()
	default:
		next.Phase = models.TurnPhaseAwaitingHold
	}

	plan := Plan{
		Turn: models.DiffTurn(t, next),
		History: []models.Roll{{
			LobbyID:  snap.Lobby.ID,
			PlayerID: player.ID,
			Kind:     models.RollKindRoll,
			Dice:     slices.Clone(faces),
			Points:   res.Points,
			Bust:     res.Bust,
		}},
	}
	out := outcome(snap, plan)
	out.Result = res
	return out, nil
}

func (m *Machine) rollTier2(snap models.LobbySnapshot, player models.Player, ts tierScorer, faces []int) (*Outcome, error) {
	res, err := ts.ScoreTier(faces, scoring.Tier2)
	if err != nil {
		return nil, err
	}

	t := snap.Turn
	next := t.Clone()
	next.Dice = slices.Clone(faces)
	next.Held = nil
	next.RollCount++
	next.Phase = models.TurnPhaseRerolling
	next.TurnScore = res.Points

	plan := Plan{
		Turn: models.DiffTurn(t, next),
		History: []models.Roll{{
			LobbyID:  snap.Lobby.ID,
			PlayerID: player.ID,
			Kind:     models.RollKindRoll,
			Dice:     slices.Clone(faces),
			Points:   res.Points,
		}},
	}
	out := outcome(snap, plan)
	out.Result = res
	return out, nil
}

func (m *Machine) rollFinale(snap models.LobbySnapshot, player models.Player, faces []int) (*Outcome, error) {
	others := make([]scoring.Standing, 0, len(snap.Players))
	for _, p := range snap.Players {
		if p.ID != player.ID {
			others = append(others, standing(p))
		}
	}
	fin, err := scoring.ResolveFinale(faces[0], standing(player), others)
	if err != nil {
		return nil, err
	}

	var plan Plan
	if fin.RollerTotal != player.TotalScore {
		plan.Scores = append(plan.Scores, ScoreUpdate{PlayerID: player.ID, TotalScore: fin.RollerTotal})
	}
	if fin.BeneficiaryID != "" {
		plan.Scores = append(plan.Scores, ScoreUpdate{PlayerID: fin.BeneficiaryID, TotalScore: fin.BeneficiaryTotal})
	}
	for _, su := range plan.Scores {
		if su.TotalScore >= snap.Lobby.WinThreshold {
			plan.WinnerID = su.PlayerID
			break
		}
	}

	t := snap.Turn
	next := t.Clone()
	next.Dice = slices.Clone(faces)
	next.Held = nil
	next.RollCount++
	next.Phase = models.TurnPhaseResolved
	plan.Turn = models.DiffTurn(t, next)
	plan.History = []models.Roll{{
		LobbyID:  snap.Lobby.ID,
		PlayerID: player.ID,
		Kind:     models.RollKindFinale,
		Dice:     slices.Clone(faces),
		Points:   fin.RollerTotal - player.TotalScore,
	}}

	out := outcome(snap, plan)
	out.Finale = fin
	return out, nil
}

// Hold sets aside scoring dice from the latest roll, replacing any earlier
// selection from the same roll. Every held die must score within the held
// group on its own.
func (m *Machine) Hold(snap models.LobbySnapshot, playerID string, indices []int) (*Outcome, error) {
	_, engine, err := m.authorize(snap, playerID)
	if err != nil {
		return nil, err
	}
	t := snap.Turn
	if t.Tier >= scoring.Tier2 {
		return nil, fmt.Errorf("%w: tier %d dice cannot be held", ErrWrongTier, t.Tier)
	}
	switch t.Phase {
	case models.TurnPhaseAwaitingHold, models.TurnPhaseAwaitingRoll, models.TurnPhaseHotDice:
	default:
		return nil, fmt.Errorf("%w: cannot hold while %s", ErrInvalidState, t.Phase)
	}
	if t.RollCount == 0 || len(t.Dice) == 0 {
		return nil, fmt.Errorf("%w: roll before holding", ErrInvalidState)
	}

	rolled, err := engine.Score(t.Dice)
	if err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: hold at least one scoring die", ErrInvalidHold)
	}

	held := slices.Clone(indices)
	slices.Sort(held)
	for i, idx := range held {
		if idx < 0 || idx >= len(t.Dice) {
			return nil, fmt.Errorf("%w: die %d does not exist", ErrInvalidHold, idx)
		}
		if i > 0 && held[i-1] == idx {
			return nil, fmt.Errorf("%w: die %d held twice", ErrInvalidHold, idx)
		}
		if !rolled.Scores(idx) {
			return nil, fmt.Errorf("%w: die %d does not score", ErrInvalidHold, idx)
		}
	}

	faces := make([]int, len(held))
	for i, idx := range held {
		faces[i] = t.Dice[idx]
	}
	group, err := engine.Score(faces)
	if err != nil {
		return nil, err
	}
	if !engine.IsHotDice(faces, group.ScoringIndices) {
		return nil, fmt.Errorf("%w: held dice do not score together", ErrInvalidHold)
	}

	next := t.Clone()
	next.Held = held
	next.TurnScore = t.RollBase + group.Points
	if len(held) == len(t.Dice) {
		next.Phase = models.TurnPhaseHotDice
		next.DiceInPlay = engine.DiceCount()
	} else {
		next.Phase = models.TurnPhaseAwaitingRoll
		next.DiceInPlay = len(t.Dice) - len(held)
	}

	out := outcome(snap, Plan{Turn: models.DiffTurn(t, next)})
	out.Result = group
	return out, nil
}

// Reroll throws one tier 2 die again
func (m *Machine) Reroll(snap models.LobbySnapshot, playerID string, index int) (*Outcome, error) {
	if _, _, err := m.rerollable(snap, playerID); err != nil {
		return nil, err
	}
	return m.ApplyReroll(snap, playerID, index, m.roller.Roll(scoring.D20.Sides()))
}

// ApplyReroll replaces one tier 2 die with face. A lower face busts the turn.
func (m *Machine) ApplyReroll(snap models.LobbySnapshot, playerID string, index, face int) (*Outcome, error) {
	player, ts, err := m.rerollable(snap, playerID)
	if err != nil {
		return nil, err
	}
	t := snap.Turn
	res, err := ts.Reroll(t.Dice, index, face)
	if err != nil {
		return nil, err
	}

	next := t.Clone()
	next.PreviousDice = slices.Clone(t.Dice)
	next.Dice = slices.Clone(res.Dice)
	next.RollCount++
	if res.Bust {
		next.Phase = models.TurnPhaseBusted
		next.Bust = true
		next.TurnScore = 0
	} else {
		next.TurnScore = res.Points
	}

	plan := Plan{
		Turn: models.DiffTurn(t, next),
		History: []models.Roll{{
			LobbyID:  snap.Lobby.ID,
			PlayerID: player.ID,
			Kind:     models.RollKindReroll,
			Dice:     slices.Clone(res.Dice),
			Points:   res.Points,
			Bust:     res.Bust,
		}},
	}
	out := outcome(snap, plan)
	out.Reroll = res
	return out, nil
}

func (m *Machine) rerollable(snap models.LobbySnapshot, playerID string) (models.Player, tierScorer, error) {
	player, engine, err := m.authorize(snap, playerID)
	if err != nil {
		return models.Player{}, nil, err
	}
	ts, ok := engine.(tierScorer)
	if !ok || snap.Turn.Tier != scoring.Tier2 {
		return models.Player{}, nil, fmt.Errorf("%w: rerolls are a tier 2 action", ErrWrongTier)
	}
	if snap.Turn.Phase != models.TurnPhaseRerolling {
		return models.Player{}, nil, fmt.Errorf("%w: cannot reroll while %s", ErrInvalidState, snap.Turn.Phase)
	}
	return player, ts, nil
}

// Bank adds the turn score to the player's total. A total at or above the
// win threshold finishes the lobby and the turn is not advanced.
func (m *Machine) Bank(snap models.LobbySnapshot, playerID string) (*Outcome, error) {
	player, engine, err := m.authorize(snap, playerID)
	if err != nil {
		return nil, err
	}
	t := snap.Turn
	switch t.Phase {
	case models.TurnPhaseAwaitingRoll, models.TurnPhaseHotDice, models.TurnPhaseRerolling:
	case models.TurnPhaseAwaitingHold:
		return nil, fmt.Errorf("%w: hold scoring dice before banking", ErrInvalidState)
	default:
		return nil, fmt.Errorf("%w: cannot bank while %s", ErrInvalidState, t.Phase)
	}
	if t.Bust || t.TurnScore <= 0 {
		return nil, fmt.Errorf("%w: nothing to bank", ErrInvalidState)
	}

	total := player.TotalScore + t.TurnScore
	next := t.Clone()
	next.Phase = models.TurnPhaseBanked
	next.TurnScore = 0
	next.RollBase = 0

	plan := Plan{
		Scores: []ScoreUpdate{{PlayerID: player.ID, TotalScore: total}},
		Turn:   models.DiffTurn(t, next),
		History: []models.Roll{{
			LobbyID:  snap.Lobby.ID,
			PlayerID: player.ID,
			Kind:     models.RollKindBank,
			Points:   t.TurnScore,
		}},
	}
	if total >= snap.Lobby.WinThreshold {
		plan.WinnerID = player.ID
		return outcome(snap, plan), nil
	}

	advance(snap, &plan, engine)
	return outcome(snap, plan), nil
}

// Bust forfeits the turn's unbanked points and passes the turn. It ends a
// busted turn and can also be used to give up a live one.
func (m *Machine) Bust(snap models.LobbySnapshot, playerID string) (*Outcome, error) {
	player, engine, err := m.authorize(snap, playerID)
	if err != nil {
		return nil, err
	}
	t := snap.Turn
	switch t.Phase {
	case models.TurnPhaseBanked, models.TurnPhaseResolved:
		return nil, fmt.Errorf("%w: cannot bust while %s", ErrInvalidState, t.Phase)
	}

	next := t.Clone()
	next.Phase = models.TurnPhaseBusted
	next.Bust = true
	next.TurnScore = 0
	next.RollBase = 0

	plan := Plan{Turn: models.DiffTurn(t, next)}
	if t.Phase != models.TurnPhaseBusted {
		plan.History = []models.Roll{{
			LobbyID:  snap.Lobby.ID,
			PlayerID: player.ID,
			Kind:     models.RollKindBust,
			Bust:     true,
		}}
	}
	advance(snap, &plan, engine)
	return outcome(snap, plan), nil
}

// EndTurn passes the turn after a tier 3 roll or a bust has been shown
func (m *Machine) EndTurn(snap models.LobbySnapshot, playerID string) (*Outcome, error) {
	_, engine, err := m.authorize(snap, playerID)
	if err != nil {
		return nil, err
	}
	switch snap.Turn.Phase {
	case models.TurnPhaseResolved, models.TurnPhaseBusted:
	default:
		return nil, fmt.Errorf("%w: cannot end turn while %s", ErrInvalidState, snap.Turn.Phase)
	}

	var plan Plan
	advance(snap, &plan, engine)
	return outcome(snap, plan), nil
}

// Available lists the actions the current player can take
type Available struct {
	Roll    bool `json:"roll"`
	Hold    bool `json:"hold"`
	Reroll  bool `json:"reroll"`
	Bank    bool `json:"bank"`
	Bust    bool `json:"bust"`
	EndTurn bool `json:"end_turn"`
}

// Actions reports which actions the current turn allows
func (m *Machine) Actions(snap models.LobbySnapshot) Available {
	var a Available
	if snap.Lobby.Status != models.LobbyStatusActive {
		return a
	}
	t := snap.Turn
	a.Roll = canRoll(t)
	a.Hold = t.Tier < scoring.Tier2 && t.RollCount > 0 && len(t.Dice) > 0 &&
		(t.Phase == models.TurnPhaseAwaitingHold || t.Phase == models.TurnPhaseAwaitingRoll || t.Phase == models.TurnPhaseHotDice)
	a.Reroll = t.Tier == scoring.Tier2 && t.Phase == models.TurnPhaseRerolling
	a.Bank = !t.Bust && t.TurnScore > 0 &&
		(t.Phase == models.TurnPhaseAwaitingRoll || t.Phase == models.TurnPhaseHotDice || t.Phase == models.TurnPhaseRerolling)
	a.Bust = t.Phase != models.TurnPhaseBanked && t.Phase != models.TurnPhaseResolved
	a.EndTurn = t.Phase == models.TurnPhaseResolved || t.Phase == models.TurnPhaseBusted
	return a
}

func (m *Machine) authorize(snap models.LobbySnapshot, playerID string) (models.Player, scoring.Engine, error) {
	if snap.Lobby.Status != models.LobbyStatusActive {
		return models.Player{}, nil, fmt.Errorf("%w: lobby is %s", ErrInvalidState, snap.Lobby.Status)
	}
	current, ok := snap.CurrentPlayer()
	if !ok {
		return models.Player{}, nil, fmt.Errorf("%w: no current player", ErrInvalidState)
	}
	if current.ID != playerID {
		return models.Player{}, nil, fmt.Errorf("%w: %w", ErrInvalidState, ErrNotYourTurn)
	}
	// the turn hash and the seat index are written together; a snapshot
	// where they disagree was read mid-handover
	if snap.Turn.PlayerID != current.ID {
		return models.Player{}, nil, fmt.Errorf("%w: turn state belongs to %q, not %q", ErrInvalidState, snap.Turn.PlayerID, current.ID)
	}
	engine, err := m.engines.ForMode(snap.Lobby.Mode)
	if err != nil {
		return models.Player{}, nil, err
	}
	return current, engine, nil
}

func canRoll(t models.TurnState) bool {
	return t.Phase == models.TurnPhaseAwaitingRoll || t.Phase == models.TurnPhaseHotDice
}

// advance hands the turn to the next seat. Planned score updates are applied
// first so the next player's tier reflects them.
func advance(snap models.LobbySnapshot, plan *Plan, engine scoring.Engine) {
	next := snap.NextTurnIndex()
	after := Plan{Scores: plan.Scores}.ApplyTo(snap)
	fresh := newTurn(after.Players[next], engine)
	plan.AdvanceTo = &next
	plan.ResetTurn = &fresh
}

func newTurn(player models.Player, engine scoring.Engine) models.TurnState {
	t := models.TurnState{
		PlayerID:   player.ID,
		Phase:      models.TurnPhaseAwaitingRoll,
		DiceInPlay: engine.DiceCount(),
	}
	if _, ok := engine.(tierScorer); ok {
		t.Tier = scoring.TierForScore(player.TotalScore)
		t.DiceInPlay = scoring.DiceForTier(t.Tier)
	}
	return t
}

func standing(p models.Player) scoring.Standing {
	return scoring.Standing{PlayerID: p.ID, TotalScore: p.TotalScore, TurnOrder: p.TurnOrder}
}

func outcome(snap models.LobbySnapshot, plan Plan) *Outcome {
	return &Outcome{Snapshot: plan.ApplyTo(snap), Plan: plan}
}
