package inventory

// Package inventory provides a stacking inventory container. Item types are
// shared by pointer and compared by identity; the container splits and merges
// quantities across slots so that no slot exceeds its item's stack cap.

// ItemID is the catalog identifier of an item. The container never compares
// items by ID; it is carried for lookup and display only.
type ItemID string

// Item describes one kind of item. Instances are owned by the catalog and are
// never mutated by the container.
type Item struct {
	ID          ItemID
	Name        string
	Description string
	Lore        string

	// MaxStack is the largest quantity a single slot may hold. A value of 1
	// marks the item as non-stackable.
	MaxStack int

	Discardable bool
	Sellable    bool
	Weight      float64
	Value       int
}

// IsStackable reports whether more than one unit fits in a slot.
func (it *Item) IsStackable() bool {
	return it.MaxStack > 1
}

func (it *Item) String() string {
	if it == nil {
		return "<nil>"
	}
	if it.Name != "" {
		return it.Name
	}
	return string(it.ID)
}
