package realtime

import (
	"encoding/json"
	"testing"

	"github.com/KirkDiggler/hotdice/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawChange(t *testing.T, table models.ChangeTable, op models.ChangeOp, version int64, record, old any) models.RawChange {
	t.Helper()
	c := models.RawChange{Table: table, Op: op, LobbyID: "lobby-1", Version: version}
	if record != nil {
		raw, err := json.Marshal(record)
		require.NoError(t, err)
		c.Record = raw
	}
	if old != nil {
		raw, err := json.Marshal(old)
		require.NoError(t, err)
		c.OldRecord = raw
	}
	return c
}

func TestMergeLobbyRow(t *testing.T) {
	snap := baseSnapshot()
	l := snap.Lobby
	l.CurrentTurnIndex = 1
	l.Version = 6

	changed, err := merge(&snap, rawChange(t, models.ChangeTableLobby, models.ChangeOpUpdate, 6, l, nil))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, snap.Lobby.CurrentTurnIndex)
	assert.Equal(t, int64(6), snap.Revision)

	stale := l
	stale.CurrentTurnIndex = 0
	stale.Version = 4
	changed, err = merge(&snap, rawChange(t, models.ChangeTableLobby, models.ChangeOpUpdate, 4, stale, nil))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, snap.Lobby.CurrentTurnIndex)
}

func TestMergePlayerRows(t *testing.T) {
	snap := baseSnapshot()

	cara := models.Player{ID: "cara", LobbyID: "lobby-1", TurnOrder: 2, Version: 6}
	changed, err := merge(&snap, rawChange(t, models.ChangeTablePlayer, models.ChangeOpInsert, 6, cara, nil))
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, snap.Players, 3)
	assert.Equal(t, "cara", snap.Players[2].ID)

	bob := snap.Players[1]
	bob.TotalScore = 500
	bob.Version = 7
	changed, err = merge(&snap, rawChange(t, models.ChangeTablePlayer, models.ChangeOpUpdate, 7, bob, snap.Players[1]))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 500, snap.Players[1].TotalScore)

	// redelivery of the same row is ignored
	changed, err = merge(&snap, rawChange(t, models.ChangeTablePlayer, models.ChangeOpUpdate, 7, bob, nil))
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = merge(&snap, rawChange(t, models.ChangeTablePlayer, models.ChangeOpDelete, 8, nil, cara))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, snap.Players, 2)
	assert.Equal(t, int64(8), snap.Revision)
}

func TestMergeDoesNotTouchOtherCopies(t *testing.T) {
	snap := baseSnapshot()
	prev := snap

	changed, err := merge(&snap, rawChange(t, models.ChangeTablePlayer, models.ChangeOpDelete, 6, nil, snap.Players[0]))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "alice", prev.Players[0].ID)
	assert.Equal(t, "bob", snap.Players[0].ID)
}

func TestMergeTurnRow(t *testing.T) {
	snap := baseSnapshot()
	turn := snap.Turn
	turn.Held = nil
	turn.Dice = []int{2, 2, 2}
	turn.Version = 6

	changed, err := merge(&snap, rawChange(t, models.ChangeTableTurn, models.ChangeOpUpdate, 6, turn, nil))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []int{2, 2, 2}, snap.Turn.Dice)
}

func TestMergeRejectsGarbage(t *testing.T) {
	snap := baseSnapshot()
	_, err := merge(&snap, models.RawChange{Table: models.ChangeTableTurn, Record: json.RawMessage(`{`)})
	assert.Error(t, err)

	_, err = merge(&snap, models.RawChange{Table: "scores"})
	assert.Error(t, err)
}
