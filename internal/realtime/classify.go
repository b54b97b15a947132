package realtime

import (
	"slices"

	"github.com/KirkDiggler/hotdice/internal/models"
)

// Classify compares two observations of a lobby field by field and returns
// the events that explain the difference, in display order. It looks at
// transitions rather than single fields because push delivery can hand over
// partial rows.
func Classify(prev, next models.LobbySnapshot) []Event {
	c := classifier{prev: prev, next: next}
	c.players()
	c.started()
	c.turn()
	c.scores()
	c.turnChanged()
	c.won()
	return c.events
}

type classifier struct {
	prev, next models.LobbySnapshot
	events     []Event

	// winners already announced by a threshold crossing in this diff
	crossed map[string]bool
}

func (c *classifier) meta(kind Kind, playerID string) Meta {
	return Meta{
		Kind:     kind,
		LobbyID:  c.next.Lobby.ID,
		PlayerID: playerID,
		Revision: c.next.Revision,
		Snapshot: c.next,
	}
}

func (c *classifier) emit(e Event) {
	c.events = append(c.events, e)
}

func (c *classifier) players() {
	for _, p := range c.next.Players {
		old, _, seated := c.prev.PlayerByID(p.ID)
		switch {
		case !seated:
			c.emit(PlayerJoined{Meta: c.meta(KindPlayerJoined, p.ID), Player: p})
		case !old.Connected && p.Connected:
			c.emit(PlayerJoined{Meta: c.meta(KindPlayerJoined, p.ID), Player: p, Reconnected: true})
		case old.Connected && !p.Connected:
			c.emit(PlayerLeft{Meta: c.meta(KindPlayerLeft, p.ID), Player: p, Disconnected: true})
		}
	}
	for _, p := range c.prev.Players {
		if _, _, ok := c.next.PlayerByID(p.ID); !ok {
			c.emit(PlayerLeft{Meta: c.meta(KindPlayerLeft, p.ID), Player: p})
		}
	}
}

func (c *classifier) started() {
	if c.prev.Lobby.Status == models.LobbyStatusWaiting && c.next.Lobby.Status != models.LobbyStatusWaiting &&
		c.next.Lobby.Status != "" {
		c.emit(GameStarted{
			Meta:    c.meta(KindGameStarted, c.next.Lobby.HostID),
			Players: c.next.Players,
		})
	}
}

func (c *classifier) turn() {
	prev, next := c.prev.Turn, c.next.Turn
	samePlayer := prev.PlayerID == next.PlayerID

	rolled := next.RollCount > 0 && len(next.Dice) > 0 &&
		((samePlayer && next.RollCount > prev.RollCount) || (!samePlayer && next.PlayerID != ""))
	if rolled {
		c.emit(DiceRolled{
			Meta:         c.meta(KindDiceRolled, next.PlayerID),
			Dice:         next.Dice,
			PreviousDice: next.PreviousDice,
			RollCount:    next.RollCount,
			Tier:         next.Tier,
			TurnScore:    next.TurnScore,
		})
	}

	if samePlayer && !rolled && len(next.Held) > 0 && !slices.Equal(prev.Held, next.Held) {
		c.emit(DiceHeld{
			Meta:      c.meta(KindDiceHeld, next.PlayerID),
			Held:      next.Held,
			Previous:  prev.Held,
			TurnScore: next.TurnScore,
		})
	}

	if next.Bust && (!prev.Bust || !samePlayer) {
		lost := prev.TurnScore
		if !samePlayer {
			lost = 0
		}
		c.emit(Bust{
			Meta: c.meta(KindBust, next.PlayerID),
			Dice: next.Dice,
			Lost: lost,
		})
	}
}

func (c *classifier) scores() {
	for _, p := range c.next.Players {
		old, _, ok := c.prev.PlayerByID(p.ID)
		if !ok || old.TotalScore == p.TotalScore {
			continue
		}
		c.emit(ScoreChanged{
			Meta:   c.meta(KindScoreChanged, p.ID),
			Before: old.TotalScore,
			After:  p.TotalScore,
		})
	}

	// A bank shows either as the phase itself or, when the advance was
	// already observed, as the previous player's total growing by exactly
	// the turn score they had.
	prev, next := c.prev.Turn, c.next.Turn
	switch {
	case next.Phase == models.TurnPhaseBanked && (prev.Phase != models.TurnPhaseBanked || prev.PlayerID != next.PlayerID):
		total := 0
		if p, _, ok := c.next.PlayerByID(next.PlayerID); ok {
			total = p.TotalScore
		}
		c.emit(TurnBanked{
			Meta:       c.meta(KindTurnBanked, next.PlayerID),
			Points:     c.bankedPoints(next.PlayerID),
			TotalScore: total,
		})
	case prev.PlayerID != "" && prev.PlayerID != next.PlayerID && prev.Phase != models.TurnPhaseBanked && prev.TurnScore > 0:
		before, _, okBefore := c.prev.PlayerByID(prev.PlayerID)
		after, _, okAfter := c.next.PlayerByID(prev.PlayerID)
		if okBefore && okAfter && after.TotalScore-before.TotalScore == prev.TurnScore {
			c.emit(TurnBanked{
				Meta:       c.meta(KindTurnBanked, prev.PlayerID),
				Points:     prev.TurnScore,
				TotalScore: after.TotalScore,
			})
		}
	}
}

// bankedPoints prefers the visible score delta and falls back to the turn
// score held before the bank
func (c *classifier) bankedPoints(playerID string) int {
	before, _, okBefore := c.prev.PlayerByID(playerID)
	after, _, okAfter := c.next.PlayerByID(playerID)
	if okBefore && okAfter && after.TotalScore > before.TotalScore {
		return after.TotalScore - before.TotalScore
	}
	return c.prev.Turn.TurnScore
}

func (c *classifier) turnChanged() {
	from, to := c.prev.Lobby.CurrentTurnIndex, c.next.Lobby.CurrentTurnIndex
	if from == to || c.prev.Lobby.ID == "" {
		return
	}
	playerID := ""
	if p, ok := c.next.CurrentPlayer(); ok {
		playerID = p.ID
	}
	fromID := ""
	if p, ok := c.prev.CurrentPlayer(); ok {
		fromID = p.ID
	}
	c.emit(TurnChanged{
		Meta:         c.meta(KindTurnChanged, playerID),
		FromIndex:    from,
		ToIndex:      to,
		FromPlayerID: fromID,
	})
}

func (c *classifier) won() {
	if c.prev.Lobby.Status == models.LobbyStatusFinished {
		return
	}
	threshold := c.next.Lobby.WinThreshold
	if threshold <= 0 {
		threshold = c.prev.Lobby.WinThreshold
	}

	if threshold > 0 {
		for _, p := range c.next.Players {
			old, _, ok := c.prev.PlayerByID(p.ID)
			if ok && old.TotalScore < threshold && p.TotalScore >= threshold {
				if c.crossed == nil {
					c.crossed = make(map[string]bool)
				}
				c.crossed[p.ID] = true
				c.emit(GameWon{Meta: c.meta(KindGameWon, p.ID), Score: p.TotalScore})
			}
		}
	}

	if c.next.Lobby.Status != models.LobbyStatusFinished || len(c.crossed) > 0 {
		return
	}
	// The crossing may already have been announced from an earlier
	// observation of the score row.
	if threshold > 0 {
		for _, p := range c.prev.Players {
			if p.TotalScore >= threshold {
				return
			}
		}
	}
	score := 0
	if p, _, ok := c.next.PlayerByID(c.next.Lobby.WinnerID); ok {
		score = p.TotalScore
	}
	c.emit(GameWon{Meta: c.meta(KindGameWon, c.next.Lobby.WinnerID), Score: score})
}
