package messages

import (
	"encoding/json"

	"tilefield/server/models"
)

// MessageType defines the type of message being sent
type MessageType string

const (
	MessageTypeLogin        MessageType = "login"
	MessageTypeLoginSuccess MessageType = "login_success"
	MessageTypeMove         MessageType = "move"
	MessageTypeUpdate       MessageType = "update"
	MessageTypeView         MessageType = "view"
	MessageTypeTiles        MessageType = "tiles"
	MessageTypeProbe        MessageType = "probe"
	MessageTypeProbeResult  MessageType = "probe_result"
	MessageTypeError        MessageType = "error"
)

// Error codes sent in ErrorMessage
const (
	CodeUnknownMessageType = "UNKNOWN_MESSAGE_TYPE"
	CodeInvalidMessage     = "INVALID_MESSAGE"
	CodeNotAuthenticated   = "NOT_AUTHENTICATED"
	CodeLoginFailed        = "LOGIN_FAILED"
	CodeMoveFailed         = "MOVE_FAILED"
	CodeNotWalkable        = "NOT_WALKABLE"
	CodeRadiusTooLarge     = "RADIUS_TOO_LARGE"
	CodeQueryFailed        = "QUERY_FAILED"
	CodeServerShutdown     = "SERVER_SHUTDOWN"
)

// BaseMessage is the base structure for all outgoing messages
type BaseMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// InboundMessage is an incoming envelope whose payload is decoded per type
type InboundMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// LoginMessage represents a login request
type LoginMessage struct {
	Username string `json:"username"`
	World    string `json:"world,omitempty"`
}

// LoginSuccessMessage represents a successful login response
type LoginSuccessMessage struct {
	PlayerID string              `json:"player_id"`
	World    string              `json:"world"`
	Position models.Position     `json:"position"`
	Offsets  models.NoiseOffsets `json:"offsets"`
	Message  string              `json:"message"`
}

// MoveMessage represents a player movement request
type MoveMessage struct {
	Direction string `json:"direction"` // north, south, east, west, northeast, northwest, southeast, southwest
}

// UpdateMessage is sent after login and every successful move
type UpdateMessage struct {
	Position models.Position `json:"position"`
	Map      TilesMessage    `json:"map"`
}

// ViewMessage requests a window of tiles. Center defaults to the player.
type ViewMessage struct {
	Center  *models.Position `json:"center,omitempty"`
	RadiusX int              `json:"radius_x"`
	RadiusY int              `json:"radius_y"`
}

// TilesMessage carries a window of terrain, north row first
type TilesMessage struct {
	World   string                 `json:"world"`
	Center  models.Position        `json:"center"`
	RadiusX int                    `json:"radius_x"`
	RadiusY int                    `json:"radius_y"`
	Rows    [][]models.TerrainKind `json:"rows"`
}

// ProbeMessage asks about a single tile
type ProbeMessage struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ProbeResultMessage answers a ProbeMessage
type ProbeResultMessage struct {
	X        int                `json:"x"`
	Y        int                `json:"y"`
	Terrain  models.TerrainKind `json:"terrain"`
	Walkable bool               `json:"walkable"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewError wraps an error code and text in an envelope
func NewError(code, message string) BaseMessage {
	return BaseMessage{
		Type:    MessageTypeError,
		Payload: ErrorMessage{Code: code, Message: message},
	}
}
