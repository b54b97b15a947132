package lobby

import "github.com/KirkDiggler/hotdice/internal/models"

// Writes carry an optional ExpectedRevision. When non-zero the write fails
// with ErrConflict unless the lobby is still at that revision.

type CreateLobbyInput struct {
	Lobby *models.Lobby
}

type FetchLobbyInput struct {
	LobbyID string
}

type GetLobbyByCodeInput struct {
	Code string
}

type GetLobbyByChannelInput struct {
	ChannelID string
}

type GetActiveLobbiesInput struct {
}

type GetActiveLobbiesOutput struct {
	LobbyIDs []string
}

type DeleteLobbyInput struct {
	LobbyID string
}

type AddPlayerInput struct {
	LobbyID  string
	PlayerID string
	Name     string
}

type RemovePlayerInput struct {
	LobbyID  string
	PlayerID string
}

type SetConnectedInput struct {
	LobbyID   string
	PlayerID  string
	Connected bool
}

type SubmitTurnUpdateInput struct {
	LobbyID          string
	Update           models.TurnUpdate
	ExpectedRevision int64
}

type ResetTurnInput struct {
	LobbyID          string
	Turn             models.TurnState
	ExpectedRevision int64
}

type SubmitPlayerScoreUpdateInput struct {
	LobbyID          string
	PlayerID         string
	TotalScore       int
	ExpectedRevision int64
}

type AdvanceTurnInput struct {
	LobbyID          string
	NextIndex        int
	ExpectedRevision int64
}

type SetStatusInput struct {
	LobbyID          string
	Status           models.LobbyStatus
	ExpectedRevision int64
}

type SetWinnerInput struct {
	LobbyID          string
	WinnerID         string
	ExpectedRevision int64
}

type SubscribeRawInput struct {
	LobbyID string
}

type UnsubscribeRawInput struct {
	LobbyID string
}

// Write is one step of an ApplyWrites batch; exactly one field is set
type Write struct {
	Score     *ScoreWrite
	Status    models.LobbyStatus
	WinnerID  string
	Turn      *models.TurnUpdate
	AdvanceTo *int
	ResetTurn *models.TurnState
}

// ScoreWrite sets a player's banked total
type ScoreWrite struct {
	PlayerID   string
	TotalScore int
}

// ApplyWritesInput is an ordered batch of writes. Each write takes its own
// revision and publishes its own change, in order, but the batch commits as
// one transaction: either every write lands or none does.
type ApplyWritesInput struct {
	LobbyID          string
	Writes           []Write
	ExpectedRevision int64
}

type ApplyWritesOutput struct {
	// Revision is the lobby revision after the last write
	Revision int64
}
