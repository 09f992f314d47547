package inventory

import (
	"fmt"
	"math"
	"sync"
)

// Stack is an (item, amount) pair used by the batch operations.
type Stack struct {
	Item   *Item
	Amount int
}

// Container is an ordered list of slots plus a per-item total index. The
// totals are derived from the slots and updated on the same write path, so
// Totals()[item] always equals the sum of that item's slot amounts.
//
// All methods are safe for concurrent use; each public call holds the
// container lock for its whole duration. Listeners run after the lock is
// released.
type Container struct {
	mu        sync.Mutex
	name      string
	slots     []*Slot
	totals    map[*Item]int
	listeners listeners
}

// New creates a container seeded with slots. Slots without an item or with a
// non-positive amount are dropped; amounts above the item's stack cap are
// clamped to it. The totals index is rebuilt from what remains.
func New(name string, slots ...*Slot) *Container {
	c := &Container{
		name:   name,
		slots:  make([]*Slot, 0, len(slots)),
		totals: make(map[*Item]int),
	}
	for _, s := range slots {
		if s == nil || s.Item == nil || s.Amount <= 0 {
			continue
		}
		s.maxStack = s.Item.MaxStack
		if limit := stackCap(s.Item); s.Amount > limit {
			s.Amount = limit
		}
		c.slots = append(c.slots, s)
		c.totals[s.Item] += s.Amount
	}
	return c
}

// Name returns the container's display name.
func (c *Container) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

// SetName changes the display name. It does not notify listeners.
func (c *Container) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

// Add puts amount units of item into the container. Stackable items first
// top up the earliest slots that are below the cap, then spill into new
// slots of at most MaxStack units each. A non-stackable item always gets a
// single new slot holding the whole amount.
//
// Add returns false, without changing anything, for a nil item, a
// non-positive amount, or an amount that would overflow the item's total.
func (c *Container) Add(item *Item, amount int) bool {
	c.mu.Lock()
	ok := c.add(item, amount)
	fns := c.changed(ok)
	c.mu.Unlock()

	c.notify(fns)
	return ok
}

// AddOne adds a single unit of item.
func (c *Container) AddOne(item *Item) bool {
	return c.Add(item, 1)
}

// AddItems applies Add to every stack and notifies once. The result is true
// only if every stack was added.
func (c *Container) AddItems(stacks ...Stack) bool {
	c.mu.Lock()
	ok, mutated := true, false
	for _, st := range stacks {
		if c.add(st.Item, st.Amount) {
			mutated = true
		} else {
			ok = false
		}
	}
	fns := c.changed(mutated)
	c.mu.Unlock()

	c.notify(fns)
	return ok
}

// AddFrom adds a copy of every slot held by other. other is left unchanged.
func (c *Container) AddFrom(other *Container) bool {
	if other == nil {
		return false
	}
	return c.AddItems(other.Stacks()...)
}

// Remove takes amount units of item out of the container, draining slots in
// order. If the container holds fewer than amount units, nothing is removed
// and Remove returns false.
func (c *Container) Remove(item *Item, amount int) bool {
	c.mu.Lock()
	ok := c.remove(item, amount)
	fns := c.changed(ok)
	c.mu.Unlock()

	c.notify(fns)
	return ok
}

// RemoveOne removes a single unit of item.
func (c *Container) RemoveOne(item *Item) bool {
	return c.Remove(item, 1)
}

// RemoveItems applies Remove to every stack in order and notifies once. Each
// stack is checked against the quantity present when it is applied; a stack
// that cannot be satisfied is skipped and makes the result false.
func (c *Container) RemoveItems(stacks ...Stack) bool {
	c.mu.Lock()
	ok, mutated := true, false
	for _, st := range stacks {
		if c.remove(st.Item, st.Amount) {
			mutated = true
		} else {
			ok = false
		}
	}
	fns := c.changed(mutated)
	c.mu.Unlock()

	c.notify(fns)
	return ok
}

// RemoveFrom removes the contents of other from c, stack by stack.
func (c *Container) RemoveFrom(other *Container) bool {
	if other == nil {
		return false
	}
	return c.RemoveItems(other.Stacks()...)
}

// Discard lowers the given slot by amount and drops it once it is empty.
// The slot must be one returned by this container; passing any other slot
// panics with an error wrapping ErrSlotNotFound. A non-positive amount is a
// no-op.
func (c *Container) Discard(slot *Slot, amount int) {
	c.mu.Lock()
	idx := c.indexOfSlot(slot)
	if idx < 0 {
		c.mu.Unlock()
		panic(fmt.Errorf("%w: %v", ErrSlotNotFound, slot))
	}
	if amount <= 0 {
		c.mu.Unlock()
		return
	}

	removed := amount
	if removed > slot.Amount {
		removed = slot.Amount
	}
	slot.Amount -= removed
	if slot.Amount == 0 {
		c.removeAt(idx)
	}
	c.subtract(slot.Item, removed)
	fns := c.changed(true)
	c.mu.Unlock()

	c.notify(fns)
}

// Has reports whether the container holds at least amount units of item.
func (c *Container) Has(item *Item, amount int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	total, ok := c.totals[item]
	return ok && total >= amount
}

// HasSlot reports whether slot is held by this container.
func (c *Container) HasSlot(slot *Slot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexOfSlot(slot) >= 0
}

// Count returns the total quantity of item across all slots.
func (c *Container) Count(item *Item) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals[item]
}

// Len returns the number of slots.
func (c *Container) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}

// Transfer removes the first slot holding item and hands it to the caller,
// whole stack included. It returns false when the item is absent.
func (c *Container) Transfer(item *Item) (*Slot, bool) {
	c.mu.Lock()
	idx := c.indexOfItem(item)
	if idx < 0 {
		c.mu.Unlock()
		return nil, false
	}
	slot := c.slots[idx]
	c.removeAt(idx)
	c.subtract(item, slot.Amount)
	fns := c.changed(true)
	c.mu.Unlock()

	c.notify(fns)
	return slot, true
}

// TransferAll empties the container and returns every slot it held. The
// caller owns the returned slots.
func (c *Container) TransferAll() []*Slot {
	c.mu.Lock()
	out := c.slots
	c.slots = make([]*Slot, 0)
	c.totals = make(map[*Item]int)
	fns := c.changed(len(out) > 0)
	c.mu.Unlock()

	c.notify(fns)
	return out
}

// Slots returns the slots in order. The slice is a copy; the slots are the
// container's own instances, usable with Discard and HasSlot.
func (c *Container) Slots() []*Slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Slot, len(c.slots))
	copy(out, c.slots)
	return out
}

// Totals returns a copy of the per-item quantity index.
func (c *Container) Totals() map[*Item]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[*Item]int, len(c.totals))
	for item, n := range c.totals {
		out[item] = n
	}
	return out
}

func (c *Container) add(item *Item, amount int) bool {
	if item == nil || amount <= 0 {
		return false
	}
	if c.totals[item] > math.MaxInt-amount {
		return false
	}
	if !item.IsStackable() {
		c.appendSlot(item, amount)
		return true
	}

	limit := stackCap(item)
	remaining := amount
	for _, s := range c.slots {
		if remaining == 0 {
			break
		}
		if s.Item != item || s.Amount >= limit {
			continue
		}
		room := limit - s.Amount
		if remaining < room {
			room = remaining
		}
		s.Amount += room
		c.totals[item] += room
		remaining -= room
	}
	for remaining > 0 {
		n := remaining
		if n > limit {
			n = limit
		}
		c.appendSlot(item, n)
		remaining -= n
	}
	return true
}

func (c *Container) remove(item *Item, amount int) bool {
	if item == nil || amount <= 0 {
		return false
	}
	if c.totals[item] < amount {
		return false
	}

	// Drain matching slots in order and compact the list in one pass.
	remaining := amount
	kept := c.slots[:0]
	for _, s := range c.slots {
		if remaining > 0 && s.Item == item && s.Amount > 0 {
			if s.Amount > remaining {
				s.Amount -= remaining
				c.subtract(item, remaining)
				remaining = 0
			} else {
				remaining -= s.Amount
				c.subtract(item, s.Amount)
				s.Amount = 0
				continue
			}
		}
		kept = append(kept, s)
	}
	for i := len(kept); i < len(c.slots); i++ {
		c.slots[i] = nil
	}
	c.slots = kept
	return true
}

func (c *Container) appendSlot(item *Item, amount int) {
	c.slots = append(c.slots, NewSlot(item, amount))
	c.totals[item] += amount
}

// subtract lowers the item's total and prunes the entry once it reaches zero.
func (c *Container) subtract(item *Item, amount int) {
	c.totals[item] -= amount
	if c.totals[item] <= 0 {
		delete(c.totals, item)
	}
}

func (c *Container) removeAt(idx int) {
	copy(c.slots[idx:], c.slots[idx+1:])
	c.slots[len(c.slots)-1] = nil
	c.slots = c.slots[:len(c.slots)-1]
}

func (c *Container) indexOfItem(item *Item) int {
	if item == nil {
		return -1
	}
	for i, s := range c.slots {
		if s.Item == item && s.Amount > 0 {
			return i
		}
	}
	return -1
}

func (c *Container) indexOfSlot(slot *Slot) int {
	if slot == nil {
		return -1
	}
	for i, s := range c.slots {
		if s == slot {
			return i
		}
	}
	return -1
}

// Stacks returns the slot contents in order as values, read under one lock
// acquisition. Unlike Slots, the result does not change when the container
// does.
func (c *Container) Stacks() []Stack {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Stack, 0, len(c.slots))
	for _, s := range c.slots {
		out = append(out, Stack{Item: s.Item, Amount: s.Amount})
	}
	return out
}

// changed returns the listeners to call for a call that did (or did not)
// mutate state. Must be called with c.mu held.
func (c *Container) changed(mutated bool) []Listener {
	if !mutated {
		return nil
	}
	return c.listeners.snapshot()
}

func stackCap(item *Item) int {
	if item.MaxStack < 1 {
		return 1
	}
	return item.MaxStack
}
