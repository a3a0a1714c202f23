package model

import (
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// rawID is the shared 128-bit representation behind GameId, GameStateId,
// UserId and LobbyId. It is generated with google/uuid but never rendered
// in canonical dashed form: the wire and storage formats in use here are
// lowercase hex, no dashes.
type rawID [16]byte

func newRawID() rawID {
	return rawID(uuid.New())
}

func (r rawID) hex() string {
	return hex.EncodeToString(r[:])
}

func parseRawID(s string) (rawID, error) {
	var r rawID
	b, err := hex.DecodeString(s)
	if err != nil {
		return r, err
	}
	if len(b) != len(r) {
		return r, errors.New("model: id must decode to 16 bytes")
	}
	copy(r[:], b)
	return r, nil
}

// GameId identifies a single game for its entire lifetime.
type GameId rawID

func NewGameId() GameId                    { return GameId(newRawID()) }
func ParseGameId(s string) (GameId, error) { r, err := parseRawID(s); return GameId(r), err }
func (id GameId) Hex() string              { return rawID(id).hex() }
func (id GameId) IsZero() bool             { return id == GameId{} }
func (id GameId) String() string           { return id.Hex() }
func (id GameId) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Hex())
}
func (id *GameId) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseGameId(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// GameStateId is regenerated on every state-mutating transition; it is the
// sole idempotency token shared by the store, the scheduler and the bus.
type GameStateId rawID

func NewGameStateId() GameStateId                    { return GameStateId(newRawID()) }
func ParseGameStateId(s string) (GameStateId, error) { r, err := parseRawID(s); return GameStateId(r), err }
func (id GameStateId) Hex() string                   { return rawID(id).hex() }
func (id GameStateId) IsZero() bool                  { return id == GameStateId{} }
func (id GameStateId) String() string                { return id.Hex() }
func (id GameStateId) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Hex())
}
func (id *GameStateId) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseGameStateId(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// UserId identifies a player across games.
type UserId rawID

func NewUserId() UserId                    { return UserId(newRawID()) }
func ParseUserId(s string) (UserId, error) { r, err := parseRawID(s); return UserId(r), err }
func (id UserId) Hex() string              { return rawID(id).hex() }
func (id UserId) IsZero() bool             { return id == UserId{} }
func (id UserId) String() string           { return id.Hex() }
func (id UserId) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Hex())
}
func (id *UserId) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseUserId(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// LobbyId identifies the lobby a game was formed from; the engine only
// threads it through to realtime relay channel names.
type LobbyId rawID

func NewLobbyId() LobbyId                    { return LobbyId(newRawID()) }
func ParseLobbyId(s string) (LobbyId, error) { r, err := parseRawID(s); return LobbyId(r), err }
func (id LobbyId) Hex() string               { return rawID(id).hex() }
func (id LobbyId) IsZero() bool              { return id == LobbyId{} }
func (id LobbyId) String() string            { return id.Hex() }
func (id LobbyId) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Hex())
}
func (id *LobbyId) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLobbyId(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
