package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stacks/internal/catalog"
	"github.com/gravitas-games/stacks/internal/config"
	"github.com/gravitas-games/stacks/internal/network"
	"github.com/gravitas-games/stacks/pkg/inventory"
	"github.com/gravitas-games/stacks/pkg/models"
)

var ErrSessionFull = errors.New("session is full")

// listenerKey is the subscription key the session uses on every container.
const listenerKey = "session"

// PlayerInventory is a player's container and its stable ID.
type PlayerInventory struct {
	ID        string
	Owner     string
	Container *inventory.Container

	// mu serializes client requests against this inventory. Other players
	// may add to Container without it but never remove from it.
	mu sync.Mutex
}

// Session holds connected players and their inventories. Inventories outlive
// connections so a player who reconnects finds their items again.
type Session struct {
	ID        string
	CreatedAt time.Time

	players     map[string]*models.Player   // playerID -> Player
	connections map[string]*Connection      // playerID -> Connection
	inventories map[string]*PlayerInventory // playerID -> inventory
	mu          sync.RWMutex

	catalog  *catalog.Catalog
	starter  []inventory.Stack
	notifier Notifier
	config   *config.Config
	log      logrus.FieldLogger
}

// NewSession creates a session. Every starter item must exist in the
// catalog.
func NewSession(id string, cfg *config.Config, cat *catalog.Catalog, notifier Notifier, l logrus.FieldLogger) (*Session, error) {
	starter := make([]inventory.Stack, 0, len(cfg.Session.StarterItems))
	for _, it := range cfg.Session.StarterItems {
		item, ok := cat.Lookup(inventory.ItemID(it.Item))
		if !ok {
			return nil, fmt.Errorf("starter item not in catalog: %s", it.Item)
		}
		starter = append(starter, inventory.Stack{Item: item, Amount: it.Amount})
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}

	s := &Session{
		ID:          id,
		CreatedAt:   time.Now(),
		players:     make(map[string]*models.Player),
		connections: make(map[string]*Connection),
		inventories: make(map[string]*PlayerInventory),
		catalog:     cat,
		starter:     starter,
		notifier:    notifier,
		config:      cfg,
		log:         l.WithField("session", id),
	}
	s.log.WithField("starter_items", len(starter)).Info("Session created")
	return s, nil
}

// Join adds a player and returns their inventory, creating and seeding it on
// first join. A player has at most one connection: if another connection is
// already registered for the player it is closed and replaced by conn.
func (s *Session) Join(player *models.Player, conn *Connection) (*PlayerInventory, error) {
	s.mu.Lock()

	if _, present := s.players[player.ID]; !present && len(s.players) >= s.config.Session.MaxPlayers {
		s.mu.Unlock()
		return nil, ErrSessionFull
	}

	inv, ok := s.inventories[player.ID]
	if !ok {
		inv = &PlayerInventory{
			ID:        uuid.NewString(),
			Owner:     player.ID,
			Container: inventory.New(s.config.Session.InventoryName),
		}
		inv.Container.AddItems(s.starter...)
		inv.Container.Subscribe(listenerKey, func(*inventory.Container) {
			s.inventoryChanged(inv)
		})
		s.inventories[player.ID] = inv
		s.log.WithFields(logrus.Fields{"player": player.ID, "inventory": inv.ID}).Info("Inventory created")
	}

	previous := s.connections[player.ID]
	player.InventoryID = inv.ID
	s.players[player.ID] = player
	s.connections[player.ID] = conn
	s.mu.Unlock()

	if previous != nil && previous != conn {
		s.log.WithField("player", player.ID).Info("Closing previous connection")
		previous.Close()
	}

	s.log.WithField("player", player.ID).Infof("Player %s joined", player.Username)
	return inv, nil
}

// RemovePlayer removes a player if conn is still their registered
// connection. Their inventory is kept. It reports whether the player was
// removed.
func (s *Session) RemovePlayer(playerID string, conn *Connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connections[playerID] != conn {
		return false
	}
	player, exists := s.players[playerID]
	if !exists {
		return false
	}
	s.log.WithField("player", playerID).Infof("Player %s left", player.Username)
	delete(s.players, playerID)
	delete(s.connections, playerID)
	return true
}

// PlayerCount returns the number of connected players
func (s *Session) PlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// Inventory returns a player's inventory, connected or not.
func (s *Session) Inventory(playerID string) (*PlayerInventory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.inventories[playerID]
	return inv, ok
}

// LookupItem resolves an item by its catalog ID, or by its numeric ID when
// id is empty.
func (s *Session) LookupItem(id string, numericID int64) (*inventory.Item, bool) {
	if id != "" {
		return s.catalog.Lookup(inventory.ItemID(id))
	}
	if numericID > 0 {
		return s.catalog.LookupByRegistryID(catalog.RegistryID(numericID))
	}
	return nil, false
}

// Catalog lists every item definition in numeric ID order.
func (s *Session) Catalog() []network.CatalogEntry {
	items := s.catalog.Export()
	out := make([]network.CatalogEntry, 0, len(items))
	for _, it := range items {
		out = append(out, network.CatalogEntry{
			NumericID:   s.numericID(it),
			ID:          string(it.ID),
			Name:        it.Name,
			Description: it.Description,
			Lore:        it.Lore,
			MaxStack:    it.MaxStack,
			Discardable: it.Discardable,
			Sellable:    it.Sellable,
			Weight:      it.Weight,
			Value:       it.Value,
		})
	}
	return out
}

func (s *Session) numericID(item *inventory.Item) int64 {
	n, _ := s.catalog.RegistryID(item.ID)
	return int64(n)
}

// BroadcastExcept sends a message to all players except the specified connection
func (s *Session) BroadcastExcept(exclude *Connection, msg *network.ServerMessage) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, conn := range s.connections {
		if conn != exclude {
			conn.SendMessage(msg)
		}
	}
}

// inventoryChanged runs on the goroutine that mutated the container. It
// pushes a fresh snapshot to the owner and publishes the change.
func (s *Session) inventoryChanged(inv *PlayerInventory) {
	s.mu.RLock()
	conn := s.connections[inv.Owner]
	s.mu.RUnlock()

	if conn != nil {
		conn.SendMessage(&network.ServerMessage{
			Type:    network.MsgTypeInventorySnapshot,
			Payload: s.Snapshot(inv),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	event := InventoryEvent{InventoryID: inv.ID, Owner: inv.Owner, Timestamp: time.Now().Unix()}
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.log.WithError(err).WithField("inventory", inv.ID).Warn("Failed to publish inventory change")
	}
}

// Snapshot renders an inventory for the client.
func (s *Session) Snapshot(inv *PlayerInventory) network.InventorySnapshot {
	stacks := inv.Container.Stacks()
	snap := network.InventorySnapshot{
		InventoryID: inv.ID,
		Name:        inv.Container.Name(),
		Slots:       make([]network.SlotView, 0, len(stacks)),
		Totals:      make(map[string]int),
	}
	for i, st := range stacks {
		snap.Slots = append(snap.Slots, network.SlotView{
			Index:     i,
			Item:      string(st.Item.ID),
			NumericID: s.numericID(st.Item),
			Name:      st.Item.String(),
			Amount:    st.Amount,
			MaxStack:  st.Item.MaxStack,
		})
		snap.Totals[string(st.Item.ID)] += st.Amount
	}
	return snap
}
