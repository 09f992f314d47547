package network

import "encoding/json"

// Message types - Client → Server
const (
	MsgTypeJoin             = "join"
	MsgTypeLeave            = "leave"
	MsgTypePing             = "ping"
	MsgTypeCatalogGet       = "catalog_get"
	MsgTypeInventoryGet     = "inventory_get"
	MsgTypeInventoryHas     = "inventory_has"
	MsgTypeInventoryAdd     = "inventory_add"
	MsgTypeInventoryRemove  = "inventory_remove"
	MsgTypeInventoryDiscard = "inventory_discard"
	MsgTypeInventoryGive    = "inventory_give"
	MsgTypeInventoryDrop    = "inventory_drop_all"
)

// Message types - Server → Client
const (
	MsgTypeWelcome           = "welcome"
	MsgTypePlayerJoined      = "player_joined"
	MsgTypePlayerLeft        = "player_left"
	MsgTypeInventorySnapshot = "inventory_snapshot"
	MsgTypeInventoryResult   = "inventory_result"
	MsgTypeError             = "error"
	MsgTypePong              = "pong"
	MsgTypeCatalog           = "catalog"
)

// Error codes
const (
	ErrCodeInvalidMessage   = "invalid_message"
	ErrCodeUnknownType      = "unknown_message_type"
	ErrCodeNotJoined        = "not_joined"
	ErrCodeJoinFailed       = "join_failed"
	ErrCodeUnknownItem      = "unknown_item"
	ErrCodeInvalidAmount    = "invalid_amount"
	ErrCodeInvalidSlot      = "invalid_slot"
	ErrCodeNotDiscardable   = "not_discardable"
	ErrCodeForbidden        = "forbidden"
	ErrCodeUnknownRecipient = "unknown_recipient"
)

// ClientMessage represents any message from client to server
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage represents any message from server to client
type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// --- Client Message Payloads ---

// ItemAmountPayload names an item and a quantity. Used by inventory_has,
// inventory_add and inventory_remove. The item is given by catalog ID or,
// when item is empty, by numeric ID. A zero amount means one.
type ItemAmountPayload struct {
	Item      string `json:"item,omitempty"`
	NumericID int64  `json:"numeric_id,omitempty"`
	Amount    int    `json:"amount"`
}

// DiscardPayload addresses a slot by its index in the last snapshot.
type DiscardPayload struct {
	Slot   int `json:"slot"`
	Amount int `json:"amount"`
}

// GivePayload moves the first stack of an item to another player.
type GivePayload struct {
	Item      string `json:"item,omitempty"`
	NumericID int64  `json:"numeric_id,omitempty"`
	To        string `json:"to"`
}

// --- Server Message Payloads ---

// WelcomePayload is sent to client after joining
type WelcomePayload struct {
	PlayerID    string            `json:"player_id"`
	Username    string            `json:"username"`
	SessionID   string            `json:"session_id"`
	InventoryID string            `json:"inventory_id"`
	Inventory   InventorySnapshot `json:"inventory"`
}

// PlayerJoinedPayload notifies clients when a player joins
type PlayerJoinedPayload struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
}

// PlayerLeftPayload notifies clients when a player leaves
type PlayerLeftPayload struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
}

// SlotView is one slot as seen by the client
type SlotView struct {
	Index     int    `json:"index"`
	Item      string `json:"item"`
	NumericID int64  `json:"numeric_id"`
	Name      string `json:"name"`
	Amount    int    `json:"amount"`
	MaxStack  int    `json:"max_stack"`
}

// InventorySnapshot is the full client-visible state of an inventory
type InventorySnapshot struct {
	InventoryID string         `json:"inventory_id"`
	Name        string         `json:"name"`
	Slots       []SlotView     `json:"slots"`
	Totals      map[string]int `json:"totals"`
}

// InventoryResultPayload reports the outcome of an inventory request
type InventoryResultPayload struct {
	Op     string `json:"op"`
	OK     bool   `json:"ok"`
	Item   string `json:"item,omitempty"`
	Amount int    `json:"amount,omitempty"`
}

// CatalogEntry describes one item definition
type CatalogEntry struct {
	NumericID   int64   `json:"numeric_id"`
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Lore        string  `json:"lore,omitempty"`
	MaxStack    int     `json:"max_stack"`
	Discardable bool    `json:"discardable"`
	Sellable    bool    `json:"sellable"`
	Weight      float64 `json:"weight"`
	Value       int     `json:"value"`
}

// CatalogPayload lists every item the server knows, in numeric ID order
type CatalogPayload struct {
	Items []CatalogEntry `json:"items"`
}

// ErrorPayload contains error information
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
