package inventory

// Listener is called after a public operation changed the container. It
// receives only the container; subscribers re-read Slots or Totals to learn
// what changed.
type Listener func(c *Container)

type subscription struct {
	key string
	fn  Listener
}

// listeners keeps subscriptions in registration order.
type listeners struct {
	subs []subscription
}

func (l *listeners) set(key string, fn Listener) {
	for i := range l.subs {
		if l.subs[i].key == key {
			l.subs[i].fn = fn
			return
		}
	}
	l.subs = append(l.subs, subscription{key: key, fn: fn})
}

func (l *listeners) remove(key string) {
	for i := range l.subs {
		if l.subs[i].key == key {
			l.subs = append(l.subs[:i], l.subs[i+1:]...)
			return
		}
	}
}

func (l *listeners) snapshot() []Listener {
	if len(l.subs) == 0 {
		return nil
	}
	out := make([]Listener, 0, len(l.subs))
	for _, s := range l.subs {
		out = append(out, s.fn)
	}
	return out
}

// Subscribe registers fn under key, replacing any listener already using that
// key. A nil fn is ignored.
func (c *Container) Subscribe(key string, fn Listener) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners.set(key, fn)
}

// Unsubscribe removes the listener registered under key.
func (c *Container) Unsubscribe(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners.remove(key)
}

// notify must be called without holding c.mu so listeners can query the
// container.
func (c *Container) notify(fns []Listener) {
	for _, fn := range fns {
		fn(c)
	}
}
