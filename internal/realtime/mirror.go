package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/KirkDiggler/hotdice/internal/models"
)

// merge folds one pushed row into snap. Row versions guard against stale and
// duplicated deliveries; changed is false when the row was ignored.
func merge(snap *models.LobbySnapshot, change models.RawChange) (changed bool, err error) {
	switch change.Table {
	case models.ChangeTableLobby:
		if change.Op == models.ChangeOpDelete {
			return false, nil
		}
		var l models.Lobby
		if err := json.Unmarshal(change.Record, &l); err != nil {
			return false, fmt.Errorf("failed to decode lobby row: %w", err)
		}
		if l.Version <= snap.Lobby.Version {
			return false, nil
		}
		snap.Lobby = l

	case models.ChangeTablePlayer:
		if change.Op == models.ChangeOpDelete {
			var p models.Player
			if err := json.Unmarshal(change.OldRecord, &p); err != nil {
				return false, fmt.Errorf("failed to decode removed player: %w", err)
			}
			_, i, ok := snap.PlayerByID(p.ID)
			if !ok {
				return false, nil
			}
			snap.Players = append(snap.Players[:i:i], snap.Players[i+1:]...)
			break
		}
		var p models.Player
		if err := json.Unmarshal(change.Record, &p); err != nil {
			return false, fmt.Errorf("failed to decode player row: %w", err)
		}
		old, i, ok := snap.PlayerByID(p.ID)
		switch {
		case !ok:
			snap.Players = append(snap.Players, p)
			snap.SortPlayers()
		case p.Version > old.Version:
			snap.Players[i] = p
		default:
			return false, nil
		}

	case models.ChangeTableTurn:
		var t models.TurnState
		if err := json.Unmarshal(change.Record, &t); err != nil {
			return false, fmt.Errorf("failed to decode turn row: %w", err)
		}
		if t.Version <= snap.Turn.Version {
			return false, nil
		}
		snap.Turn = t

	default:
		return false, fmt.Errorf("unknown change table %q", change.Table)
	}

	if change.Version > snap.Revision {
		snap.Revision = change.Version
	}
	return true, nil
}
