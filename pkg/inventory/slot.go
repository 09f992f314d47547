package inventory

import "fmt"

// Slot holds a quantity of one item type. Slots are addressed by pointer:
// two slots with the same contents are still different slots.
type Slot struct {
	Item   *Item
	Amount int

	// maxStack is the item's cap at construction time. It is informational;
	// the container always reads Item.MaxStack.
	maxStack int
}

// NewSlot creates a slot and snapshots the item's stack cap.
func NewSlot(item *Item, amount int) *Slot {
	s := &Slot{Item: item, Amount: amount}
	if item != nil {
		s.maxStack = item.MaxStack
	}
	return s
}

// MaxStack returns the stack cap cached when the slot was created.
func (s *Slot) MaxStack() int { return s.maxStack }

// Unpack returns the slot's item and amount.
func (s *Slot) Unpack() (*Item, int) {
	return s.Item, s.Amount
}

func (s *Slot) String() string {
	return fmt.Sprintf("%s x%d", s.Item, s.Amount)
}
