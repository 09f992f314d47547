package server

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stacks/internal/network"
	"github.com/gravitas-games/stacks/pkg/inventory"
	"github.com/gravitas-games/stacks/pkg/models"
)

// handleInventory dispatches inventory requests. Successful mutations reach
// the client through the session's container listener as a snapshot; the
// handlers themselves only report the outcome.
func (c *Connection) handleInventory(msg *network.ClientMessage) {
	c.inventory.mu.Lock()
	defer c.inventory.mu.Unlock()

	switch msg.Type {
	case network.MsgTypeInventoryGet:
		c.sendSnapshot()
	case network.MsgTypeInventoryHas:
		c.handleHas(msg.Payload)
	case network.MsgTypeInventoryAdd:
		c.handleAdd(msg.Payload)
	case network.MsgTypeInventoryRemove:
		c.handleRemove(msg.Payload)
	case network.MsgTypeInventoryDiscard:
		c.handleDiscard(msg.Payload)
	case network.MsgTypeInventoryGive:
		c.handleGive(msg.Payload)
	case network.MsgTypeInventoryDrop:
		c.handleDropAll()
	}
}

func (c *Connection) sendSnapshot() {
	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypeInventorySnapshot,
		Payload: c.server.session.Snapshot(c.inventory),
	})
}

func (c *Connection) sendResult(op string, ok bool, item string, amount int) {
	c.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeInventoryResult,
		Payload: network.InventoryResultPayload{
			Op:     op,
			OK:     ok,
			Item:   item,
			Amount: amount,
		},
	})
}

// parseItemAmount decodes an item/amount payload and resolves the item. It
// sends the error itself and returns false on failure.
func (c *Connection) parseItemAmount(payload json.RawMessage) (*inventory.Item, int, bool) {
	var p network.ItemAmountPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.SendError(network.ErrCodeInvalidMessage, "Invalid inventory payload")
		return nil, 0, false
	}
	if p.Amount == 0 {
		p.Amount = 1
	}
	if p.Amount < 0 {
		c.SendError(network.ErrCodeInvalidAmount, "Amount must be positive")
		return nil, 0, false
	}
	if limit := c.server.config.Session.MaxAmount; limit > 0 && p.Amount > limit {
		c.SendError(network.ErrCodeInvalidAmount, fmt.Sprintf("Amount must not exceed %d", limit))
		return nil, 0, false
	}
	item, ok := c.server.session.LookupItem(p.Item, p.NumericID)
	if !ok {
		c.SendError(network.ErrCodeUnknownItem, "Unknown item: "+itemRef(p.Item, p.NumericID))
		return nil, 0, false
	}
	return item, p.Amount, true
}

func (c *Connection) handleHas(payload json.RawMessage) {
	item, amount, ok := c.parseItemAmount(payload)
	if !ok {
		return
	}
	has := c.inventory.Container.Has(item, amount)
	c.sendResult(network.MsgTypeInventoryHas, has, string(item.ID), amount)
}

func (c *Connection) handleAdd(payload json.RawMessage) {
	if !c.player.Can(models.PermissionInventoryAdmin) {
		c.SendError(network.ErrCodeForbidden, "Granting items requires the inventory admin permission")
		return
	}
	item, amount, ok := c.parseItemAmount(payload)
	if !ok {
		return
	}
	added := c.inventory.Container.Add(item, amount)
	c.logInventory(network.MsgTypeInventoryAdd, item, amount, added)
	c.sendResult(network.MsgTypeInventoryAdd, added, string(item.ID), amount)
}

func (c *Connection) handleRemove(payload json.RawMessage) {
	item, amount, ok := c.parseItemAmount(payload)
	if !ok {
		return
	}
	removed := c.inventory.Container.Remove(item, amount)
	c.logInventory(network.MsgTypeInventoryRemove, item, amount, removed)
	c.sendResult(network.MsgTypeInventoryRemove, removed, string(item.ID), amount)
}

func (c *Connection) handleDiscard(payload json.RawMessage) {
	var p network.DiscardPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.SendError(network.ErrCodeInvalidMessage, "Invalid discard payload")
		return
	}
	if p.Amount <= 0 {
		c.SendError(network.ErrCodeInvalidAmount, "Amount must be positive")
		return
	}

	// Requests against this inventory are serialized by its mu and nobody
	// else removes from it, so the slot found here is still held when
	// Discard runs.
	slots := c.inventory.Container.Slots()
	if p.Slot < 0 || p.Slot >= len(slots) {
		c.SendError(network.ErrCodeInvalidSlot, "No such slot")
		return
	}
	slot := slots[p.Slot]
	if !slot.Item.Discardable {
		c.SendError(network.ErrCodeNotDiscardable, slot.Item.String()+" cannot be discarded")
		return
	}

	c.inventory.Container.Discard(slot, p.Amount)
	c.logInventory(network.MsgTypeInventoryDiscard, slot.Item, p.Amount, true)
	c.sendResult(network.MsgTypeInventoryDiscard, true, string(slot.Item.ID), p.Amount)
}

// handleGive moves the first stack of an item into another player's
// inventory.
func (c *Connection) handleGive(payload json.RawMessage) {
	var p network.GivePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.SendError(network.ErrCodeInvalidMessage, "Invalid give payload")
		return
	}
	item, ok := c.server.session.LookupItem(p.Item, p.NumericID)
	if !ok {
		c.SendError(network.ErrCodeUnknownItem, "Unknown item: "+itemRef(p.Item, p.NumericID))
		return
	}
	target, ok := c.server.session.Inventory(p.To)
	if !ok || target == c.inventory {
		c.SendError(network.ErrCodeUnknownRecipient, "Unknown recipient: "+p.To)
		return
	}

	slot, ok := c.inventory.Container.Transfer(item)
	if !ok {
		c.sendResult(network.MsgTypeInventoryGive, false, string(item.ID), 0)
		return
	}
	target.Container.AddItems(inventory.Stack{Item: slot.Item, Amount: slot.Amount})

	c.log.WithFields(logrus.Fields{
		"item":   item.ID,
		"amount": slot.Amount,
		"to":     p.To,
	}).Info("Stack given")
	c.sendResult(network.MsgTypeInventoryGive, true, string(item.ID), slot.Amount)
}

// handleDropAll empties the inventory.
func (c *Connection) handleDropAll() {
	dropped := c.inventory.Container.TransferAll()
	units := 0
	for _, s := range dropped {
		units += s.Amount
	}
	c.log.WithFields(logrus.Fields{"slots": len(dropped), "units": units}).Info("Inventory dropped")
	c.sendResult(network.MsgTypeInventoryDrop, true, "", units)
}

func itemRef(id string, numericID int64) string {
	if id != "" {
		return id
	}
	return "#" + strconv.FormatInt(numericID, 10)
}

func (c *Connection) logInventory(op string, item *inventory.Item, amount int, ok bool) {
	c.log.WithFields(logrus.Fields{
		"op":        op,
		"item":      item.ID,
		"amount":    amount,
		"ok":        ok,
		"inventory": c.inventory.ID,
	}).Debug("Inventory request")
}
