package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/gravitas-games/stacks/internal/catalog"
	"github.com/gravitas-games/stacks/internal/config"
	"github.com/gravitas-games/stacks/internal/network"
	"github.com/gravitas-games/stacks/pkg/inventory"
	"github.com/gravitas-games/stacks/pkg/models"
)

const testItems = `
items:
  - id: smartmatter
    name: Smart Matter Feedstock
    max_stack: 50
    discardable: true
  - id: energy-cell
    name: Energy Cell Pack
    max_stack: 20
    discardable: true
  - id: knife-missile
    name: Knife Missile
`

type recordingNotifier struct {
	mu     sync.Mutex
	events []InventoryEvent
	err    error
}

func (n *recordingNotifier) Publish(_ context.Context, event InventoryEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

func testConfig() *config.Config {
	return &config.Config{
		Session: config.SessionConfig{
			MaxPlayers:    2,
			MaxAmount:     1000,
			InventoryName: "Backpack",
			StarterItems: []config.StarterItem{
				{Item: "smartmatter", Amount: 75},
				{Item: "knife-missile", Amount: 1},
			},
		},
	}
}

func newTestServer(t *testing.T, validator TokenValidator) (*Server, *recordingNotifier, *logtest.Hook) {
	t.Helper()
	cat, err := catalog.Load(strings.NewReader(testItems))
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	notifier := &recordingNotifier{}
	cfg := testConfig()
	session, err := NewSession("test", cfg, cat, notifier, logger)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return newServer(ctx, cancel, cfg, session, validator, logger), notifier, hook
}

func newPlayer(id string) *models.Player {
	return &models.Player{ID: id, Username: "player-" + id, Activated: 1}
}

type wireMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func request(t *testing.T, c *Connection, msgType string, payload interface{}) {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		raw = data
	}
	c.handleMessage(&network.ClientMessage{Type: msgType, Payload: raw})
}

// drain returns every message queued for the connection so far.
func drain(t *testing.T, c *Connection) []wireMessage {
	t.Helper()
	var out []wireMessage
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return out
			}
			var msg wireMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("decode message: %v", err)
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func types(msgs []wireMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type
	}
	return out
}

func expectTypes(t *testing.T, msgs []wireMessage, want ...string) {
	t.Helper()
	got := types(msgs)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected messages %v, got %v", want, got)
	}
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return v
}

func expectError(t *testing.T, msgs []wireMessage, code string) {
	t.Helper()
	expectTypes(t, msgs, network.MsgTypeError)
	if got := decode[network.ErrorPayload](t, msgs[0].Payload); got.Code != code {
		t.Fatalf("expected error code %s, got %s", code, got.Code)
	}
}

func slotAmounts(snap network.InventorySnapshot) []int {
	out := make([]int, len(snap.Slots))
	for i, s := range snap.Slots {
		out[i] = s.Amount
	}
	return out
}

func joined(t *testing.T, srv *Server, id string) *Connection {
	t.Helper()
	c := NewConnection(nil, srv, newPlayer(id))
	request(t, c, network.MsgTypeJoin, nil)
	msgs := drain(t, c)
	if len(msgs) == 0 || msgs[0].Type != network.MsgTypeWelcome {
		t.Fatalf("expected welcome, got %v", types(msgs))
	}
	return c
}

func TestJoinSendsWelcomeWithStarterInventory(t *testing.T) {
	srv, notifier, _ := newTestServer(t, nil)
	c := NewConnection(nil, srv, newPlayer("1"))

	request(t, c, network.MsgTypeJoin, nil)
	msgs := drain(t, c)
	expectTypes(t, msgs, network.MsgTypeWelcome)

	welcome := decode[network.WelcomePayload](t, msgs[0].Payload)
	if welcome.PlayerID != "1" || welcome.SessionID != "test" || welcome.InventoryID == "" {
		t.Fatalf("unexpected welcome: %+v", welcome)
	}
	if welcome.InventoryID != c.player.InventoryID {
		t.Fatalf("player inventory ID not set")
	}
	snap := welcome.Inventory
	if snap.Name != "Backpack" {
		t.Fatalf("expected inventory name Backpack, got %s", snap.Name)
	}
	if got := slotAmounts(snap); len(got) != 3 || got[0] != 50 || got[1] != 25 || got[2] != 1 {
		t.Fatalf("expected slots [50 25 1], got %v", got)
	}
	if snap.Totals["smartmatter"] != 75 || snap.Totals["knife-missile"] != 1 {
		t.Fatalf("unexpected totals: %v", snap.Totals)
	}
	if notifier.count() != 0 {
		t.Fatalf("seeding the inventory should not publish, got %d events", notifier.count())
	}
}

func TestInventoryRequestsRequireJoin(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	c := NewConnection(nil, srv, newPlayer("1"))

	request(t, c, network.MsgTypeInventoryGet, nil)
	expectError(t, drain(t, c), network.ErrCodeNotJoined)
}

func TestUnknownMessageTypeAndPing(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	c := NewConnection(nil, srv, newPlayer("1"))

	request(t, c, "teleport", nil)
	expectError(t, drain(t, c), network.ErrCodeUnknownType)

	request(t, c, network.MsgTypePing, nil)
	expectTypes(t, drain(t, c), network.MsgTypePong)
}

func TestRemovePushesSnapshotThenResult(t *testing.T) {
	srv, notifier, _ := newTestServer(t, nil)
	c := joined(t, srv, "1")

	request(t, c, network.MsgTypeInventoryRemove, network.ItemAmountPayload{Item: "smartmatter", Amount: 30})
	msgs := drain(t, c)
	expectTypes(t, msgs, network.MsgTypeInventorySnapshot, network.MsgTypeInventoryResult)

	snap := decode[network.InventorySnapshot](t, msgs[0].Payload)
	if got := slotAmounts(snap); len(got) != 3 || got[0] != 20 || got[1] != 25 {
		t.Fatalf("expected slots [20 25 1], got %v", got)
	}
	if snap.Totals["smartmatter"] != 45 {
		t.Fatalf("expected 45 smartmatter, got %d", snap.Totals["smartmatter"])
	}
	res := decode[network.InventoryResultPayload](t, msgs[1].Payload)
	if !res.OK || res.Op != network.MsgTypeInventoryRemove || res.Amount != 30 {
		t.Fatalf("unexpected result: %+v", res)
	}

	if notifier.count() != 1 {
		t.Fatalf("expected one published event, got %d", notifier.count())
	}
	if ev := notifier.events[0]; ev.InventoryID != c.inventory.ID || ev.Owner != "1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestRemoveMoreThanHeldReportsFailure(t *testing.T) {
	srv, notifier, _ := newTestServer(t, nil)
	c := joined(t, srv, "1")

	request(t, c, network.MsgTypeInventoryRemove, network.ItemAmountPayload{Item: "smartmatter", Amount: 76})
	msgs := drain(t, c)
	expectTypes(t, msgs, network.MsgTypeInventoryResult)
	if res := decode[network.InventoryResultPayload](t, msgs[0].Payload); res.OK {
		t.Fatalf("expected failed removal")
	}
	if notifier.count() != 0 {
		t.Fatalf("failed removal should not publish")
	}
	if c.inventory.Container.Count(mustItem(t, srv, "smartmatter")) != 75 {
		t.Fatalf("inventory changed after failed removal")
	}
}

func TestHasAndDefaultAmount(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	c := joined(t, srv, "1")

	cases := []struct {
		payload network.ItemAmountPayload
		want    bool
	}{
		{network.ItemAmountPayload{Item: "smartmatter", Amount: 75}, true},
		{network.ItemAmountPayload{Item: "smartmatter", Amount: 76}, false},
		{network.ItemAmountPayload{Item: "knife-missile"}, true},
		{network.ItemAmountPayload{Item: "energy-cell"}, false},
	}
	for _, tc := range cases {
		request(t, c, network.MsgTypeInventoryHas, tc.payload)
		msgs := drain(t, c)
		expectTypes(t, msgs, network.MsgTypeInventoryResult)
		if res := decode[network.InventoryResultPayload](t, msgs[0].Payload); res.OK != tc.want {
			t.Fatalf("has %+v: expected %v, got %v", tc.payload, tc.want, res.OK)
		}
	}
}

func TestItemRequestValidation(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	c := joined(t, srv, "1")

	cases := []struct {
		name    string
		payload interface{}
		code    string
	}{
		{"unknown item", network.ItemAmountPayload{Item: "lightsaber", Amount: 1}, network.ErrCodeUnknownItem},
		{"negative amount", network.ItemAmountPayload{Item: "smartmatter", Amount: -2}, network.ErrCodeInvalidAmount},
		{"malformed payload", "smartmatter", network.ErrCodeInvalidMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			request(t, c, network.MsgTypeInventoryRemove, tc.payload)
			expectError(t, drain(t, c), tc.code)
		})
	}
}

func TestAddRequiresAdminPermission(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	c := joined(t, srv, "1")
	grant := network.ItemAmountPayload{Item: "energy-cell", Amount: 45}

	request(t, c, network.MsgTypeInventoryAdd, grant)
	expectError(t, drain(t, c), network.ErrCodeForbidden)

	c.player.Permissions |= models.PermissionInventoryAdmin
	request(t, c, network.MsgTypeInventoryAdd, grant)
	msgs := drain(t, c)
	expectTypes(t, msgs, network.MsgTypeInventorySnapshot, network.MsgTypeInventoryResult)

	snap := decode[network.InventorySnapshot](t, msgs[0].Payload)
	if got := slotAmounts(snap); len(got) != 6 || got[3] != 20 || got[4] != 20 || got[5] != 5 {
		t.Fatalf("expected energy cells split as 20/20/5, got %v", got)
	}
	if snap.Totals["energy-cell"] != 45 {
		t.Fatalf("expected 45 energy cells, got %d", snap.Totals["energy-cell"])
	}
}

func TestDiscard(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	c := joined(t, srv, "1")

	request(t, c, network.MsgTypeInventoryDiscard, network.DiscardPayload{Slot: 2, Amount: 1})
	expectError(t, drain(t, c), network.ErrCodeNotDiscardable)

	request(t, c, network.MsgTypeInventoryDiscard, network.DiscardPayload{Slot: 9, Amount: 1})
	expectError(t, drain(t, c), network.ErrCodeInvalidSlot)

	request(t, c, network.MsgTypeInventoryDiscard, network.DiscardPayload{Slot: 0})
	expectError(t, drain(t, c), network.ErrCodeInvalidAmount)

	// Asking for more than the slot holds empties just that slot.
	request(t, c, network.MsgTypeInventoryDiscard, network.DiscardPayload{Slot: 1, Amount: 100})
	msgs := drain(t, c)
	expectTypes(t, msgs, network.MsgTypeInventorySnapshot, network.MsgTypeInventoryResult)
	snap := decode[network.InventorySnapshot](t, msgs[0].Payload)
	if got := slotAmounts(snap); len(got) != 2 || got[0] != 50 || got[1] != 1 {
		t.Fatalf("expected slots [50 1], got %v", got)
	}
	if snap.Totals["smartmatter"] != 50 {
		t.Fatalf("expected 50 smartmatter, got %d", snap.Totals["smartmatter"])
	}
}

func TestGiveMovesFirstStack(t *testing.T) {
	srv, notifier, _ := newTestServer(t, nil)
	giver := joined(t, srv, "1")
	receiver := joined(t, srv, "2")
	drain(t, giver) // player_joined

	request(t, giver, network.MsgTypeInventoryGive, network.GivePayload{Item: "smartmatter", To: "2"})
	msgs := drain(t, giver)
	expectTypes(t, msgs, network.MsgTypeInventorySnapshot, network.MsgTypeInventoryResult)
	if res := decode[network.InventoryResultPayload](t, msgs[1].Payload); !res.OK || res.Amount != 50 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := slotAmounts(decode[network.InventorySnapshot](t, msgs[0].Payload)); len(got) != 2 || got[0] != 25 {
		t.Fatalf("expected giver slots [25 1], got %v", got)
	}

	msgs = drain(t, receiver)
	expectTypes(t, msgs, network.MsgTypeInventorySnapshot)
	snap := decode[network.InventorySnapshot](t, msgs[0].Payload)
	if snap.Totals["smartmatter"] != 125 {
		t.Fatalf("expected receiver to hold 125 smartmatter, got %d", snap.Totals["smartmatter"])
	}
	if got := slotAmounts(snap); len(got) != 4 || got[1] != 50 || got[3] != 25 {
		t.Fatalf("expected receiver slots [50 50 1 25], got %v", got)
	}
	if notifier.count() != 2 {
		t.Fatalf("expected an event per inventory, got %d", notifier.count())
	}
}

func TestGiveValidation(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	c := joined(t, srv, "1")
	joined(t, srv, "2")
	drain(t, c)

	request(t, c, network.MsgTypeInventoryGive, network.GivePayload{Item: "smartmatter", To: "1"})
	expectError(t, drain(t, c), network.ErrCodeUnknownRecipient)

	request(t, c, network.MsgTypeInventoryGive, network.GivePayload{Item: "smartmatter", To: "404"})
	expectError(t, drain(t, c), network.ErrCodeUnknownRecipient)

	request(t, c, network.MsgTypeInventoryGive, network.GivePayload{Item: "plasma", To: "2"})
	expectError(t, drain(t, c), network.ErrCodeUnknownItem)

	request(t, c, network.MsgTypeInventoryGive, network.GivePayload{Item: "energy-cell", To: "2"})
	msgs := drain(t, c)
	expectTypes(t, msgs, network.MsgTypeInventoryResult)
	if res := decode[network.InventoryResultPayload](t, msgs[0].Payload); res.OK {
		t.Fatalf("giving an item not held should fail")
	}
}

func TestDropAll(t *testing.T) {
	srv, notifier, _ := newTestServer(t, nil)
	c := joined(t, srv, "1")

	request(t, c, network.MsgTypeInventoryDrop, nil)
	msgs := drain(t, c)
	expectTypes(t, msgs, network.MsgTypeInventorySnapshot, network.MsgTypeInventoryResult)
	if snap := decode[network.InventorySnapshot](t, msgs[0].Payload); len(snap.Slots) != 0 || len(snap.Totals) != 0 {
		t.Fatalf("expected empty inventory, got %+v", snap)
	}
	if res := decode[network.InventoryResultPayload](t, msgs[1].Payload); res.Amount != 76 {
		t.Fatalf("expected 76 units dropped, got %d", res.Amount)
	}

	request(t, c, network.MsgTypeInventoryDrop, nil)
	expectTypes(t, drain(t, c), network.MsgTypeInventoryResult)
	if notifier.count() != 1 {
		t.Fatalf("dropping an empty inventory should not publish")
	}
}

func TestRejoinKeepsInventory(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	c := joined(t, srv, "1")
	id := c.inventory.ID

	request(t, c, network.MsgTypeInventoryRemove, network.ItemAmountPayload{Item: "smartmatter", Amount: 70})
	request(t, c, network.MsgTypeLeave, nil)
	if srv.session.PlayerCount() != 0 {
		t.Fatalf("expected player to have left")
	}

	again := NewConnection(nil, srv, newPlayer("1"))
	request(t, again, network.MsgTypeJoin, nil)
	msgs := drain(t, again)
	expectTypes(t, msgs, network.MsgTypeWelcome)
	welcome := decode[network.WelcomePayload](t, msgs[0].Payload)
	if welcome.InventoryID != id {
		t.Fatalf("expected inventory %s, got %s", id, welcome.InventoryID)
	}
	if welcome.Inventory.Totals["smartmatter"] != 5 {
		t.Fatalf("expected 5 smartmatter after rejoin, got %d", welcome.Inventory.Totals["smartmatter"])
	}
}

func TestSessionFull(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	joined(t, srv, "1")
	joined(t, srv, "2")

	c := NewConnection(nil, srv, newPlayer("3"))
	request(t, c, network.MsgTypeJoin, nil)
	expectError(t, drain(t, c), network.ErrCodeJoinFailed)
	if _, ok := srv.session.Inventory("3"); ok {
		t.Fatalf("rejected player should not get an inventory")
	}
	if _, err := srv.session.Join(newPlayer("4"), nil); !errors.Is(err, ErrSessionFull) {
		t.Fatalf("expected ErrSessionFull, got %v", err)
	}
}

func TestPublishFailureIsLogged(t *testing.T) {
	srv, notifier, hook := newTestServer(t, nil)
	notifier.err = errors.New("redis down")
	c := joined(t, srv, "1")
	hook.Reset()

	request(t, c, network.MsgTypeInventoryRemove, network.ItemAmountPayload{Item: "knife-missile"})
	expectTypes(t, drain(t, c), network.MsgTypeInventorySnapshot, network.MsgTypeInventoryResult)

	warned := false
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "Failed to publish inventory change" {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected publish failure to be logged")
	}
}

func TestNewSessionRejectsUnknownStarterItem(t *testing.T) {
	cat, err := catalog.Load(strings.NewReader(testItems))
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	cfg := testConfig()
	cfg.Session.StarterItems = append(cfg.Session.StarterItems, config.StarterItem{Item: "lightsaber", Amount: 1})
	logger, _ := logtest.NewNullLogger()
	if _, err := NewSession("test", cfg, cat, nil, logger); err == nil {
		t.Fatalf("expected unknown starter item to be rejected")
	}
}

func mustItem(t *testing.T, srv *Server, id string) *inventory.Item {
	t.Helper()
	item, ok := srv.session.LookupItem(id, 0)
	if !ok {
		t.Fatalf("item %s not in catalog", id)
	}
	return item
}

func TestRejoinReplacesPreviousConnection(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	other := joined(t, srv, "2")
	old := joined(t, srv, "1")
	drain(t, other)

	current := joined(t, srv, "1")
	if current.inventory != old.inventory {
		t.Fatalf("expected both connections to share the player's inventory")
	}
	old.sendMu.Lock()
	closed := old.closed
	old.sendMu.Unlock()
	if !closed {
		t.Fatalf("expected the previous connection to be closed")
	}
	drain(t, other) // player_joined

	// The old socket's read loop ends after the client has reconnected.
	old.handleLeave()
	if srv.session.PlayerCount() != 2 {
		t.Fatalf("expected player to stay registered, got %d players", srv.session.PlayerCount())
	}
	if msgs := drain(t, other); len(msgs) != 0 {
		t.Fatalf("expected no player_left for a replaced connection, got %v", types(msgs))
	}

	request(t, current, network.MsgTypeInventoryRemove, network.ItemAmountPayload{Item: "smartmatter", Amount: 1})
	expectTypes(t, drain(t, current), network.MsgTypeInventorySnapshot, network.MsgTypeInventoryResult)

	request(t, current, network.MsgTypeLeave, nil)
	if srv.session.PlayerCount() != 1 {
		t.Fatalf("expected player to leave, got %d players", srv.session.PlayerCount())
	}
	expectTypes(t, drain(t, other), network.MsgTypePlayerLeft)
}

func TestConcurrentRequestsOnSharedInventory(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	old := joined(t, srv, "1")
	current := joined(t, srv, "1")

	// A replaced connection can still be finishing requests while the new
	// one runs. Discard must never see its slot vanish.
	var wg sync.WaitGroup
	for _, c := range []*Connection{old, current} {
		wg.Add(1)
		go func(c *Connection) {
			defer wg.Done()
			for i := 0; i < 30; i++ {
				request(t, c, network.MsgTypeInventoryDiscard, network.DiscardPayload{Slot: 0, Amount: 1})
				request(t, c, network.MsgTypeInventoryRemove, network.ItemAmountPayload{Item: "smartmatter", Amount: 1})
			}
		}(c)
	}
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-current.send:
			case <-done:
				return
			}
		}
	}()
	wg.Wait()
	close(done)

	// 120 attempts against 75 units: every unit goes, the knife stays.
	container := current.inventory.Container
	if got := container.Count(mustItem(t, srv, "smartmatter")); got != 0 {
		t.Fatalf("expected all smartmatter gone, got %d", got)
	}
	if got := container.Stacks(); len(got) != 1 || got[0].Item.ID != "knife-missile" {
		t.Fatalf("expected only the knife missile to remain, got %+v", got)
	}
}

func TestAmountLimit(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	c := joined(t, srv, "1")
	c.player.Permissions |= models.PermissionInventoryAdmin

	request(t, c, network.MsgTypeInventoryAdd, network.ItemAmountPayload{Item: "smartmatter", Amount: 1001})
	expectError(t, drain(t, c), network.ErrCodeInvalidAmount)

	request(t, c, network.MsgTypeInventoryAdd, network.ItemAmountPayload{Item: "smartmatter", Amount: 1000})
	expectTypes(t, drain(t, c), network.MsgTypeInventorySnapshot, network.MsgTypeInventoryResult)
}

func TestNumericItemIDs(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	c := joined(t, srv, "1")

	request(t, c, network.MsgTypeCatalogGet, nil)
	msgs := drain(t, c)
	expectTypes(t, msgs, network.MsgTypeCatalog)
	entries := decode[network.CatalogPayload](t, msgs[0].Payload).Items
	if len(entries) != 3 || entries[0].ID != "smartmatter" || entries[2].ID != "knife-missile" {
		t.Fatalf("unexpected catalog: %+v", entries)
	}
	knife := entries[2].NumericID
	if knife != 3 || entries[0].MaxStack != 50 || !entries[0].Discardable {
		t.Fatalf("unexpected catalog entries: %+v", entries)
	}

	request(t, c, network.MsgTypeInventoryRemove, network.ItemAmountPayload{NumericID: knife})
	msgs = drain(t, c)
	expectTypes(t, msgs, network.MsgTypeInventorySnapshot, network.MsgTypeInventoryResult)
	snap := decode[network.InventorySnapshot](t, msgs[0].Payload)
	if snap.Totals["knife-missile"] != 0 || snap.Slots[0].NumericID != 1 {
		t.Fatalf("unexpected snapshot after numeric removal: %+v", snap)
	}
	if res := decode[network.InventoryResultPayload](t, msgs[1].Payload); res.Item != "knife-missile" {
		t.Fatalf("expected result to name the item, got %q", res.Item)
	}

	request(t, c, network.MsgTypeInventoryHas, network.ItemAmountPayload{NumericID: 99})
	expectError(t, drain(t, c), network.ErrCodeUnknownItem)
	request(t, c, network.MsgTypeInventoryHas, network.ItemAmountPayload{})
	expectError(t, drain(t, c), network.ErrCodeUnknownItem)
}
