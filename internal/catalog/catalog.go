package catalog

import (
	"errors"
	"sort"
	"sync"

	"github.com/gravitas-games/stacks/pkg/inventory"
)

// RegistryID is a numeric handle suitable for compact storage and wire
// messages. IDs start at 1 and increment as items are registered unless one
// is given explicitly.
type RegistryID int64

var (
	ErrMissingID     = errors.New("catalog: item missing id")
	ErrDuplicateItem = errors.New("catalog: item already registered")
	ErrNumericID     = errors.New("catalog: numeric id already assigned to another item")
	ErrMaxStack      = errors.New("catalog: max stack must be at least 1")
)

// Catalog owns the item definitions. Every inventory refers to the *Item
// pointers handed out here, so an item must be registered exactly once.
type Catalog struct {
	mu     sync.RWMutex
	items  map[inventory.ItemID]*inventory.Item
	byID   map[RegistryID]inventory.ItemID
	ids    map[inventory.ItemID]RegistryID
	nextID RegistryID
}

// New constructs an empty catalog.
func New() *Catalog {
	return &Catalog{
		items: make(map[inventory.ItemID]*inventory.Item),
		byID:  make(map[RegistryID]inventory.ItemID),
		ids:   make(map[inventory.ItemID]RegistryID),
	}
}

// Register adds an item definition. A zero numeric ID is assigned
// automatically.
func (c *Catalog) Register(item *inventory.Item, numericID RegistryID) error {
	if item == nil || item.ID == "" {
		return ErrMissingID
	}
	if item.MaxStack < 1 {
		return ErrMaxStack
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[item.ID]; exists {
		return ErrDuplicateItem
	}
	if numericID == 0 {
		c.nextID++
		numericID = c.nextID
	} else {
		if numericID < 0 {
			return errors.New("catalog: numeric id must be positive")
		}
		if _, collision := c.byID[numericID]; collision {
			return ErrNumericID
		}
		if numericID > c.nextID {
			c.nextID = numericID
		}
	}

	c.items[item.ID] = item
	c.byID[numericID] = item.ID
	c.ids[item.ID] = numericID
	return nil
}

// Lookup returns the definition for id.
func (c *Catalog) Lookup(id inventory.ItemID) (*inventory.Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[id]
	return item, ok
}

// RegistryID returns the numeric handle for id.
func (c *Catalog) RegistryID(id inventory.ItemID) (RegistryID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.ids[id]
	return n, ok
}

// LookupByRegistryID resolves a numeric handle.
func (c *Catalog) LookupByRegistryID(n RegistryID) (*inventory.Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byID[n]
	if !ok {
		return nil, false
	}
	item, ok := c.items[id]
	return item, ok
}

// Len returns the number of registered items.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Export returns every definition ordered by numeric ID.
func (c *Catalog) Export() []*inventory.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.items) == 0 {
		return nil
	}
	out := make([]*inventory.Item, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		return c.ids[out[i].ID] < c.ids[out[j].ID]
	})
	return out
}
