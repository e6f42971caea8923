package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"tilefield/server/messages"
	"tilefield/server/models"
	"tilefield/server/network"
	"tilefield/server/persistence"
	"tilefield/server/services"
)

// Options controls per-connection limits and defaults
type Options struct {
	DefaultWorld   string
	ViewRadius     int
	MaxQueryRadius int
	Audit          *persistence.AuditLog
}

// ClientHandler manages a single client connection
type ClientHandler struct {
	conn          *network.Connection
	playerService *services.PlayerService
	worldService  *services.WorldService
	clientManager *ClientManager
	validator     *messages.Validator
	opts          Options

	// player is the login-time copy; only its ID and Username are used after
	// login. world is the world this session logged into.
	player *models.Player
	world  string
}

// HandleClientConnection serves one client until its connection closes
func HandleClientConnection(conn *network.Connection, playerService *services.PlayerService, worldService *services.WorldService, clientManager *ClientManager, validator *messages.Validator, opts Options) {
	log.Printf("New connection from %s", conn.RemoteAddr())

	handler := &ClientHandler{
		conn:          conn,
		playerService: playerService,
		worldService:  worldService,
		clientManager: clientManager,
		validator:     validator,
		opts:          opts,
	}

	// Start the write pump in a goroutine
	go conn.WritePump()

	// Handle the read pump in the current goroutine
	conn.ReadPump(handler)

	// Clean up when the connection is closed. A session replaced by a newer
	// login for the same player leaves the player in place.
	if handler.player != nil && clientManager.RemoveClient(handler.player.ID, handler) {
		if err := playerService.UpdatePlayer(handler.player.ID); err != nil {
			log.Printf("Error saving player %s on disconnect: %v", handler.player.Username, err)
		}
		playerService.ReleasePlayer(handler.player.ID)
		log.Printf("Player %s disconnected and removed from world", handler.player.Username)
	}
}

// HandleMessage handles incoming messages from the client
func (h *ClientHandler) HandleMessage(conn *network.Connection, message []byte) {
	var inbound messages.InboundMessage
	if err := json.Unmarshal(message, &inbound); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		h.sendError(messages.CodeInvalidMessage, "Malformed message envelope")
		return
	}

	if !h.validator.Known(inbound.Type) {
		log.Printf("Unknown message type: %s", inbound.Type)
		h.sendError(messages.CodeUnknownMessageType, "Unknown message type received")
		return
	}
	if err := h.validator.Validate(inbound.Type, inbound.Payload); err != nil {
		h.sendError(messages.CodeInvalidMessage, fmt.Sprintf("Invalid %s payload: %v", inbound.Type, err))
		return
	}

	if inbound.Type != messages.MessageTypeLogin && h.player == nil {
		h.sendError(messages.CodeNotAuthenticated, "Log in first")
		return
	}

	switch inbound.Type {
	case messages.MessageTypeLogin:
		h.handleLogin(inbound.Payload)
	case messages.MessageTypeMove:
		h.handleMove(inbound.Payload)
	case messages.MessageTypeView:
		h.handleView(inbound.Payload)
	case messages.MessageTypeProbe:
		h.handleProbe(inbound.Payload)
	}
}

// handleLogin handles login requests
func (h *ClientHandler) handleLogin(payload json.RawMessage) {
	var loginMsg messages.LoginMessage
	if err := json.Unmarshal(payload, &loginMsg); err != nil {
		log.Printf("Error unmarshaling login message: %v", err)
		return
	}

	worldName := strings.TrimSpace(loginMsg.World)
	if worldName == "" {
		worldName = h.opts.DefaultWorld
	}

	// A second login on the same connection replaces the first player
	if h.player != nil {
		if h.clientManager.RemoveClient(h.player.ID, h) {
			h.playerService.ReleasePlayer(h.player.ID)
		}
		h.player = nil
	}

	player, err := h.playerService.GetOrCreatePlayer(loginMsg.Username, worldName)
	if err != nil {
		log.Printf("Error getting/creating player: %v", err)
		h.sendError(messages.CodeLoginFailed, "Failed to log in")
		return
	}

	world, err := h.worldService.World(worldName)
	if err != nil {
		log.Printf("Error loading world %s: %v", worldName, err)
		h.sendError(messages.CodeLoginFailed, "Failed to log in")
		return
	}

	h.player = player
	h.world = worldName

	// Register with ClientManager, dropping any older session for this player
	if previous := h.clientManager.AddClient(player.ID, h); previous != nil {
		previous.conn.Close()
	}

	log.Printf("Player %s logged in to %s", player.Username, worldName)

	loginSuccessMsg := messages.BaseMessage{
		Type: messages.MessageTypeLoginSuccess,
		Payload: messages.LoginSuccessMessage{
			PlayerID: player.ID,
			World:    worldName,
			Position: player.Position(),
			Offsets:  world.Offsets(),
			Message:  "Login successful",
		},
	}
	if err := h.conn.SendMessage(loginSuccessMsg); err != nil {
		log.Printf("Error sending login success: %v", err)
		return
	}

	h.sendWorldUpdate()
}

// handleMove handles player movement requests
func (h *ClientHandler) handleMove(payload json.RawMessage) {
	var moveMsg messages.MoveMessage
	if err := json.Unmarshal(payload, &moveMsg); err != nil {
		log.Printf("Error unmarshaling move message: %v", err)
		return
	}

	newPos, err := h.worldService.MovePlayer(h.player.ID, moveMsg.Direction)
	if err != nil {
		entry := persistence.AuditEntry{Action: "move", Error: err.Error()}
		if current, perr := h.worldService.Player(h.player.ID); perr == nil {
			entry.Position = current.Position()
		}
		h.audit(entry)
		code := messages.CodeMoveFailed
		if errors.Is(err, services.ErrNotWalkable) {
			code = messages.CodeNotWalkable
		}
		h.sendError(code, err.Error())
		return
	}

	h.audit(persistence.AuditEntry{Action: "move", Position: *newPos})
	if err := h.playerService.UpdatePlayer(h.player.ID); err != nil {
		log.Printf("Error saving player position: %v", err)
	}

	h.sendWorldUpdate()
}

// handleView answers a window request
func (h *ClientHandler) handleView(payload json.RawMessage) {
	var viewMsg messages.ViewMessage
	if err := json.Unmarshal(payload, &viewMsg); err != nil {
		log.Printf("Error unmarshaling view message: %v", err)
		return
	}

	if viewMsg.RadiusX > h.opts.MaxQueryRadius || viewMsg.RadiusY > h.opts.MaxQueryRadius {
		h.sendError(messages.CodeRadiusTooLarge,
			fmt.Sprintf("radius must not exceed %d", h.opts.MaxQueryRadius))
		return
	}

	view, err := h.worldService.ViewForPlayer(h.player.ID, viewMsg.Center, viewMsg.RadiusX, viewMsg.RadiusY)
	if err != nil {
		log.Printf("Error building view: %v", err)
		h.sendError(messages.CodeQueryFailed, err.Error())
		return
	}

	h.audit(persistence.AuditEntry{
		Action:   "view",
		World:    view.World,
		Position: view.Center,
		RadiusX:  view.RadiusX,
		RadiusY:  view.RadiusY,
	})
	h.send(messages.MessageTypeTiles, tilesFromView(view))
}

// handleProbe answers a single tile lookup
func (h *ClientHandler) handleProbe(payload json.RawMessage) {
	var probeMsg messages.ProbeMessage
	if err := json.Unmarshal(payload, &probeMsg); err != nil {
		log.Printf("Error unmarshaling probe message: %v", err)
		return
	}

	pos := models.Position{X: probeMsg.X, Y: probeMsg.Y}
	probe, err := h.worldService.ProbeForPlayer(h.player.ID, pos)
	if err != nil {
		log.Printf("Error probing tile: %v", err)
		h.sendError(messages.CodeQueryFailed, err.Error())
		return
	}

	walkable := probe.Walkable
	h.audit(persistence.AuditEntry{
		Action:   "probe",
		World:    probe.World,
		Position: pos,
		Terrain:  probe.Terrain.String(),
		Walkable: &walkable,
	})
	h.send(messages.MessageTypeProbeResult, messages.ProbeResultMessage{
		X:        pos.X,
		Y:        pos.Y,
		Terrain:  probe.Terrain,
		Walkable: probe.Walkable,
	})
}

// sendWorldUpdate sends the player's position and surroundings
func (h *ClientHandler) sendWorldUpdate() {
	if h.player == nil {
		return
	}

	view, err := h.worldService.ViewForPlayer(h.player.ID, nil, h.opts.ViewRadius, h.opts.ViewRadius)
	if err != nil {
		log.Printf("Error sending world update: %v", err)
		return
	}

	h.send(messages.MessageTypeUpdate, messages.UpdateMessage{
		Position: view.Center,
		Map:      tilesFromView(view),
	})
}

func (h *ClientHandler) send(t messages.MessageType, payload interface{}) {
	if err := h.conn.SendMessage(messages.BaseMessage{Type: t, Payload: payload}); err != nil {
		log.Printf("Error sending %s: %v", t, err)
	}
}

func (h *ClientHandler) sendError(code, text string) {
	if err := h.conn.SendMessage(messages.NewError(code, text)); err != nil {
		log.Printf("Error sending error %s: %v", code, err)
	}
}

func (h *ClientHandler) audit(e persistence.AuditEntry) {
	if h.player != nil {
		e.PlayerID = h.player.ID
		if e.World == "" {
			e.World = h.world
		}
	}
	if err := h.opts.Audit.Write(e); err != nil {
		log.Printf("Error writing audit entry: %v", err)
	}
}

func tilesFromView(view *services.View) messages.TilesMessage {
	return messages.TilesMessage{
		World:   view.World,
		Center:  view.Center,
		RadiusX: view.RadiusX,
		RadiusY: view.RadiusY,
		Rows:    view.Rows,
	}
}
