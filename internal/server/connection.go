package server

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stacks/internal/network"
	"github.com/gravitas-games/stacks/pkg/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	ws     *websocket.Conn
	server *Server
	player *models.Player
	log    logrus.FieldLogger

	// Buffered channel for outbound messages. Other players' actions can
	// queue messages here, so sends and close are serialized by sendMu.
	send   chan []byte
	sendMu sync.Mutex
	closed bool

	// inventory is set once the player has joined
	inventory *PlayerInventory
}

// NewConnection creates a connection for an authenticated player
func NewConnection(ws *websocket.Conn, server *Server, player *models.Player) *Connection {
	return &Connection{
		ws:     ws,
		server: server,
		player: player,
		log:    server.log.WithField("player", player.ID),
		send:   make(chan []byte, 256),
	}
}

// Handle manages the connection lifecycle
func (c *Connection) Handle() {
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.writePump()
	c.readPump() // Blocking
}

// readPump pumps messages from the WebSocket connection to the server. It is
// the only goroutine that touches c.inventory, so it also performs the leave.
func (c *Connection) readPump() {
	defer func() {
		c.handleLeave()
		c.Close()
	}()

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("WebSocket read error")
			}
			return
		}

		var clientMsg network.ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			c.log.WithError(err).Debug("Failed to parse client message")
			c.SendError(network.ErrCodeInvalidMessage, "Failed to parse message")
			continue
		}

		c.handleMessage(&clientMsg)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.WithError(err).Warn("WebSocket write error")
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.server.ctx.Done():
			return
		}
	}
}

// handleMessage routes messages to appropriate handlers
func (c *Connection) handleMessage(msg *network.ClientMessage) {
	c.log.WithField("type", msg.Type).Debug("Received message")

	switch msg.Type {
	case network.MsgTypeJoin:
		c.handleJoin()
	case network.MsgTypeLeave:
		c.handleLeave()
	case network.MsgTypePing:
		c.handlePing()
	case network.MsgTypeCatalogGet:
		c.SendMessage(&network.ServerMessage{
			Type:    network.MsgTypeCatalog,
			Payload: network.CatalogPayload{Items: c.server.session.Catalog()},
		})
	case network.MsgTypeInventoryGet,
		network.MsgTypeInventoryHas,
		network.MsgTypeInventoryAdd,
		network.MsgTypeInventoryRemove,
		network.MsgTypeInventoryDiscard,
		network.MsgTypeInventoryGive,
		network.MsgTypeInventoryDrop:
		if c.inventory == nil {
			c.SendError(network.ErrCodeNotJoined, "Join the session first")
			return
		}
		c.handleInventory(msg)
	default:
		c.SendError(network.ErrCodeUnknownType, "Unknown message type")
	}
}

// handleJoin adds the player to the session and sends their inventory
func (c *Connection) handleJoin() {
	session := c.server.session

	inv, err := session.Join(c.player, c)
	if err != nil {
		c.log.WithError(err).Warn("Failed to join session")
		msg := "Failed to join session"
		if errors.Is(err, ErrSessionFull) {
			msg = "Session is full"
		}
		c.SendError(network.ErrCodeJoinFailed, msg)
		return
	}
	c.inventory = inv
	c.player.Connected = true
	c.player.ConnectedAt = time.Now()
	c.player.SessionID = session.ID

	c.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeWelcome,
		Payload: network.WelcomePayload{
			PlayerID:    c.player.ID,
			Username:    c.player.Username,
			SessionID:   session.ID,
			InventoryID: inv.ID,
			Inventory:   session.Snapshot(inv),
		},
	})

	session.BroadcastExcept(c, &network.ServerMessage{
		Type: network.MsgTypePlayerJoined,
		Payload: network.PlayerJoinedPayload{
			PlayerID: c.player.ID,
			Username: c.player.Username,
		},
	})
}

// handleLeave removes the player from the session. A connection that was
// replaced by a newer one for the same player leaves silently.
func (c *Connection) handleLeave() {
	if c.inventory == nil {
		return
	}
	c.inventory = nil
	c.player.Connected = false
	if !c.server.session.RemovePlayer(c.player.ID, c) {
		return
	}

	c.server.session.BroadcastExcept(c, &network.ServerMessage{
		Type: network.MsgTypePlayerLeft,
		Payload: network.PlayerLeftPayload{
			PlayerID: c.player.ID,
			Username: c.player.Username,
		},
	})
}

// handlePing handles ping requests
func (c *Connection) handlePing() {
	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypePong,
		Payload: map[string]interface{}{"timestamp": time.Now().Unix()},
	})
}

// SendMessage queues a message for the client
func (c *Connection) SendMessage(msg *network.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.WithError(err).Error("Failed to marshal message")
		return
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.log.Warn("Send buffer full, dropping message")
	}
}

// SendError sends an error message to the client
func (c *Connection) SendError(code, message string) {
	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypeError,
		Payload: network.ErrorPayload{Code: code, Message: message},
	})
}

// Close stops outbound traffic and closes the socket, which ends the read
// loop. Safe to call twice and from any goroutine.
func (c *Connection) Close() {
	c.sendMu.Lock()
	if c.closed {
		c.sendMu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.sendMu.Unlock()

	if c.ws != nil {
		c.ws.Close()
	}
}
