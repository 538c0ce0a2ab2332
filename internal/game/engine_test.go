package game

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catanforge/catan-server-go/internal/game/resources"
	"github.com/catanforge/catan-server-go/internal/game/rules"
	"github.com/catanforge/catan-server-go/internal/game/state"
)

// tamper rewrites the published state of a loaded game in place. Only the
// in-memory copy changes, so games touched by it must not be restored.
func tamper(t *testing.T, e *Engine, id string, fn func(g *state.GameState)) {
	t.Helper()
	s, err := e.session(id)
	require.NoError(t, err)
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.game.State.Clone()
	fn(next)
	s.game.State = next
}

// give moves cards from the bank into a player's hand.
func give(g *state.GameState, idx int, set resources.Set) {
	g.Bank = g.Bank.Subtract(set)
	g.Players[idx].Resources = g.Players[idx].Resources.Combine(set)
}

// takeAll returns a player's hand to the bank.
func takeAll(g *state.GameState, idx int) {
	g.Bank = g.Bank.Combine(g.Players[idx].Resources)
	g.Players[idx].Resources = resources.Set{}
}

func TestCreateGame(t *testing.T) {
	e := newTestEngine(t, nil, Options{WinningPoints: 8})
	g, err := e.CreateGame(context.Background(), testSetup())
	require.NoError(t, err)

	assert.NotEmpty(t, g.ID)
	assert.Zero(t, g.Version)
	assert.Equal(t, 8, g.WinningPoints)
	assert.Equal(t, rules.PhaseFirstRound, g.Phase())
	assert.Contains(t, e.Games(), g.ID)
	requireConserved(t, g)

	_, err = e.CreateGame(context.Background(), state.Setup{Players: []state.PlayerSetup{{Name: "Solo"}}})
	assert.ErrorIs(t, err, state.ErrPlayerCount)
}

func TestSubmitAdvancesVersionOnlyOnAccept(t *testing.T) {
	e := newTestEngine(t, nil, Options{})
	id := createGame(t, e)

	g := submit(t, e, id, &BuildSettlement{Base: base(rules.ActionBuildSettlement, 0), VertexLocation: nw(0, 0)})
	assert.Equal(t, 1, g.Version)

	_, err := e.Submit(context.Background(), id, &BuildSettlement{Base: base(rules.ActionBuildSettlement, 1), VertexLocation: nw(2, -2)})
	rej, ok := rules.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, rules.KindPrecondition, rej.Kind)
	assert.ErrorIs(t, err, rules.ErrNotYourTurn)

	_, err = e.Submit(context.Background(), id, &RollNumber{Base: base(rules.ActionRollNumber, 0)})
	rej, ok = rules.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, rules.KindIllegalTransition, rej.Kind)

	v, err := e.Version(id)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	g = submit(t, e, id, &BuildRoad{Base: base(rules.ActionBuildRoad, 0), RoadLocation: north(0, 0)})
	assert.Equal(t, 2, g.Version)
}

func TestSubmitReturnsACopy(t *testing.T) {
	e := newTestEngine(t, nil, Options{})
	id := createGame(t, e)

	g := submit(t, e, id, &SendChat{Base: base(rules.ActionSendChat, 2), Content: "hello"})
	g.Chat = nil
	g.Players[0].Resources = resources.Set{Ore: 19}

	published, err := e.State(id)
	require.NoError(t, err)
	require.Len(t, published.Chat, 1)
	assert.Equal(t, "Pete", published.Chat[0].Source)
	assert.True(t, published.Players[0].Resources.IsEmpty())
}

func TestSubmitUnknownGame(t *testing.T) {
	e := newTestEngine(t, nil, Options{})
	_, err := e.Submit(context.Background(), "nope", &FinishTurn{Base: base(rules.ActionFinishTurn, 0)})
	assert.ErrorIs(t, err, ErrGameNotFound)

	_, err = e.Summary("nope")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestSubmitJSON(t *testing.T) {
	e := newTestEngine(t, nil, Options{})
	id := createGame(t, e)

	g, err := e.SubmitJSON(context.Background(), id, []byte(`{"type":"buildSettlement","playerIndex":0,"vertexLocation":{"hex":{"x":0,"y":0},"direction":"NW"}}`))
	require.NoError(t, err)
	assert.Len(t, g.Map.Buildings, 1)

	_, err = e.SubmitJSON(context.Background(), id, []byte(`{"type":"finishTurn"}`))
	assert.ErrorIs(t, err, rules.ErrInvalidPlayer)
}

func TestPersistenceFailureIsAtomic(t *testing.T) {
	store := &failingStore{Store: NewMemoryStore()}
	e := newTestEngine(t, store, Options{})
	id := createGame(t, e)
	before, err := e.State(id)
	require.NoError(t, err)

	store.setFail(true)
	_, err = e.Submit(context.Background(), id, &BuildSettlement{Base: base(rules.ActionBuildSettlement, 0), VertexLocation: nw(0, 0)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, errDiskFull)
	_, isRejection := rules.AsRejection(err)
	assert.False(t, isRejection)

	after, err := e.State(id)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	res, err := e.Sync(id, 0, false)
	require.NoError(t, err)
	assert.True(t, res.UpToDate)

	store.setFail(false)
	g := submit(t, e, id, &BuildSettlement{Base: base(rules.ActionBuildSettlement, 0), VertexLocation: nw(0, 0)})
	assert.Equal(t, 1, g.Version)

	stored, err := store.LoadGame(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
	require.Len(t, stored.Commands, 1)
	assert.Equal(t, rules.ActionBuildSettlement, stored.Commands[0].Type)
}

func TestSync(t *testing.T) {
	e := newTestEngine(t, nil, Options{})
	id := createGame(t, e)

	for i := 0; i < MaxSyncDelta+2; i++ {
		submit(t, e, id, &SendChat{Base: base(rules.ActionSendChat, i%4), Content: "gg"})
	}
	latest := MaxSyncDelta + 2

	tests := []struct {
		name          string
		clientVersion int
		full          bool
		upToDate      bool
		commands      int
		snapshot      bool
	}{
		{name: "current", clientVersion: latest, upToDate: true},
		{name: "one behind", clientVersion: latest - 1, commands: 1},
		{name: "at the delta limit", clientVersion: latest - MaxSyncDelta, commands: MaxSyncDelta},
		{name: "past the delta limit", clientVersion: 1, snapshot: true},
		{name: "new client", clientVersion: 0, snapshot: true},
		{name: "negative", clientVersion: -1, snapshot: true},
		{name: "ahead of the server", clientVersion: latest + 3, snapshot: true},
		{name: "forced", clientVersion: latest, full: true, snapshot: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Sync(id, tt.clientVersion, tt.full)
			require.NoError(t, err)
			assert.Equal(t, latest, res.Version)
			assert.Equal(t, tt.upToDate, res.UpToDate)
			assert.Len(t, res.Commands, tt.commands)
			if tt.snapshot {
				require.NotNil(t, res.State)
				assert.Equal(t, latest, res.State.Version)
			} else {
				assert.Nil(t, res.State)
			}
			if tt.commands > 0 {
				assert.Equal(t, tt.clientVersion+1, res.Commands[0].Seq)
				assert.Equal(t, latest, res.Commands[len(res.Commands)-1].Seq)
			}
		})
	}
}

func TestRestore(t *testing.T) {
	store := NewMemoryStore()
	e := newTestEngine(t, store, Options{})
	id := createGame(t, e)
	playSetup(t, e, id)
	live := submit(t, e, id, &RollNumber{Base: base(rules.ActionRollNumber, 0)})

	restored := newTestEngine(t, store, Options{})
	quarantined, err := restored.RestoreAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, quarantined)

	g, err := restored.State(id)
	require.NoError(t, err)
	assert.Equal(t, live.Version, g.Version)
	liveSum, err := Checksum(live)
	require.NoError(t, err)
	restoredSum, err := Checksum(g)
	require.NoError(t, err)
	assert.Equal(t, liveSum, restoredSum)

	res, err := restored.Sync(id, 1, false)
	require.NoError(t, err)
	assert.Len(t, res.Commands, live.Version-1)

	next := submit(t, restored, id, &SendChat{Base: base(rules.ActionSendChat, 1), Content: "back"})
	assert.Equal(t, live.Version+1, next.Version)
}

// corruptStore serves a wrong checksum for every game.
type corruptStore struct {
	Store
}

func (s corruptStore) LoadGame(ctx context.Context, gameID string) (*StoredGame, error) {
	g, err := s.Store.LoadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	g.Checksum = "0000"
	return g, nil
}

func TestRestoreQuarantinesMismatchedGame(t *testing.T) {
	store := NewMemoryStore()
	e := newTestEngine(t, store, Options{})
	id := createGame(t, e)
	submit(t, e, id, &BuildSettlement{Base: base(rules.ActionBuildSettlement, 0), VertexLocation: nw(0, 0)})

	restored := newTestEngine(t, corruptStore{Store: store}, Options{})
	notified := make(chan GameNotification, 1)
	restored.SetNotificationHandler(func(n GameNotification) { notified <- n })

	quarantined, err := restored.RestoreAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{id}, quarantined)

	assert.ErrorIs(t, restored.Quarantined(id), ErrReplayInconsistency)

	g, err := restored.State(id)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Version)
	assert.Len(t, g.Map.Buildings, 1)

	summary, err := restored.Summary(id)
	require.NoError(t, err)
	assert.True(t, summary.Quarantined)

	_, err = restored.Submit(context.Background(), id, &BuildRoad{Base: base(rules.ActionBuildRoad, 0), RoadLocation: north(0, 0)})
	assert.ErrorIs(t, err, ErrReplayInconsistency)

	select {
	case n := <-notified:
		assert.Equal(t, NotifyQuarantined, n.Type)
		assert.Equal(t, id, n.GameID)
	case <-time.After(time.Second):
		t.Fatal("no quarantine notification")
	}

	require.NoError(t, e.Restore(context.Background(), id))
	assert.NoError(t, e.Quarantined(id))
}

func TestRestoreUnknownGame(t *testing.T) {
	e := newTestEngine(t, nil, Options{})
	err := e.Restore(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestNotifications(t *testing.T) {
	e := newTestEngine(t, nil, Options{})
	notified := make(chan GameNotification, 4)
	e.SetNotificationHandler(func(n GameNotification) { notified <- n })

	id := createGame(t, e)
	submit(t, e, id, &BuildSettlement{Base: base(rules.ActionBuildSettlement, 0), VertexLocation: nw(0, 0)})

	got := make(map[string]GameNotification)
	for len(got) < 2 {
		select {
		case n := <-notified:
			got[n.Type] = n
		case <-time.After(time.Second):
			t.Fatalf("got %d notifications, want 2", len(got))
		}
	}
	assert.Equal(t, id, got[NotifyGameCreated].GameID)
	changed := got[NotifyVersionChanged]
	assert.Equal(t, 1, changed.Version)
	assert.Equal(t, "buildSettlement", changed.Data["type"])
	assert.Equal(t, 0, changed.Data["playerIndex"])
}

func TestNotificationsArriveInCommitOrder(t *testing.T) {
	e := newTestEngine(t, nil, Options{})
	notified := make(chan GameNotification, 64)
	e.SetNotificationHandler(func(n GameNotification) { notified <- n })

	id := createGame(t, e)
	const chats = 40
	for i := 0; i < chats; i++ {
		submit(t, e, id, &SendChat{Base: base(rules.ActionSendChat, i%4), Content: "gl"})
	}

	next := func() GameNotification {
		select {
		case n := <-notified:
			return n
		case <-time.After(time.Second):
			t.Fatal("notification not delivered")
			return GameNotification{}
		}
	}
	assert.Equal(t, NotifyGameCreated, next().Type)
	for want := 1; want <= chats; want++ {
		n := next()
		require.Equal(t, NotifyVersionChanged, n.Type)
		require.Equal(t, want, n.Version)
	}
}

// submitConcurrently submits the action built by newAction from many
// goroutines while readers take full snapshots, and returns how many
// submits were accepted. check runs against every snapshot.
func submitConcurrently(t *testing.T, e *Engine, id string, newAction func() Action, check func(g *state.GameState)) int {
	t.Helper()
	const writers, readers = 32, 4

	var (
		accepted atomic.Int32
		writing  sync.WaitGroup
		reading  sync.WaitGroup
		stop     = make(chan struct{})
	)
	for i := 0; i < readers; i++ {
		reading.Add(1)
		go func() {
			defer reading.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				res, err := e.Sync(id, 0, true)
				if !assert.NoError(t, err) {
					return
				}
				check(res.State)
			}
		}()
	}

	start := make(chan struct{})
	for i := 0; i < writers; i++ {
		writing.Add(1)
		go func() {
			defer writing.Done()
			<-start
			_, err := e.Submit(context.Background(), id, newAction())
			if err == nil {
				accepted.Add(1)
				return
			}
			_, isRejection := rules.AsRejection(err)
			assert.True(t, isRejection, "unexpected error: %v", err)
		}()
	}
	close(start)
	writing.Wait()
	close(stop)
	reading.Wait()
	return int(accepted.Load())
}

func TestConcurrentSubmitsShareOneWriter(t *testing.T) {
	e := newTestEngine(t, nil, Options{AllowForcedRolls: true})
	id := createGame(t, e)
	before := playSetup(t, e, id)

	accepted := submitConcurrently(t, e, id,
		func() Action { return &RollNumber{Base: base(rules.ActionRollNumber, 0), Number: 6} },
		func(g *state.GameState) {
			assert.Contains(t, []int{before.Version, before.Version + 1}, g.Version)
			assert.Equal(t, resources.Full(), g.ResourceTotal())
		})
	assert.Equal(t, 1, accepted)

	rolled, err := e.State(id)
	require.NoError(t, err)
	assert.Equal(t, before.Version+1, rolled.Version)
	assert.Equal(t, rules.PhasePlaying, rolled.Phase())
	requireConserved(t, rolled)

	offer := resources.Set{Wood: -1, Ore: 1}
	offered := submit(t, e, id, &OfferTrade{Base: base(rules.ActionOfferTrade, 0), Offer: offer, Receiver: 3})
	sender, receiver := offered.Players[0].Resources, offered.Players[3].Resources

	accepted = submitConcurrently(t, e, id,
		func() Action { return &AcceptTrade{Base: base(rules.ActionAcceptTrade, 3), WillAccept: true} },
		func(g *state.GameState) {
			assert.Equal(t, resources.Full(), g.ResourceTotal())
			if g.Version == offered.Version {
				assert.Equal(t, sender, g.Players[0].Resources)
				assert.Equal(t, receiver, g.Players[3].Resources)
				return
			}
			assert.Equal(t, offered.Version+1, g.Version)
			assert.Nil(t, g.TradeOffer)
			assert.Equal(t, sender.Combine(offer), g.Players[0].Resources)
			assert.Equal(t, receiver.Subtract(offer), g.Players[3].Resources)
		})
	assert.Equal(t, 1, accepted)

	v, err := e.Version(id)
	require.NoError(t, err)
	assert.Equal(t, offered.Version+1, v)
}

func TestStoreAheadOfGameQuarantines(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	first := newTestEngine(t, store, Options{})
	id := createGame(t, first)

	second := newTestEngine(t, store, Options{})
	require.NoError(t, second.Restore(ctx, id))

	chat := func(text string) Action {
		return &SendChat{Base: base(rules.ActionSendChat, 1), Content: text}
	}
	submit(t, first, id, chat("first"))

	_, err := second.Submit(ctx, id, chat("second"))
	assert.ErrorIs(t, err, ErrReplayInconsistency)
	assert.NotErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, second.Quarantined(id), ErrReplayInconsistency)

	_, err = second.Submit(ctx, id, chat("again"))
	assert.ErrorIs(t, err, ErrReplayInconsistency)
	v, err := second.Version(id)
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, second.Restore(ctx, id))
	assert.NoError(t, second.Quarantined(id))
	g := submit(t, second, id, chat("recovered"))
	assert.Equal(t, 2, g.Version)
	require.Len(t, g.Chat, 2)
	assert.Equal(t, "first", g.Chat[0].Message)
}

func TestSetupRoundsThroughEngine(t *testing.T) {
	e := newTestEngine(t, nil, Options{})
	id := createGame(t, e)
	g := playSetup(t, e, id)

	assert.Equal(t, len(setupPlacements)*3, g.Version)
	for i := range g.Players {
		settlements, cities := g.Map.CountBuildings(i)
		assert.Equal(t, 2, settlements)
		assert.Zero(t, cities)
		assert.Equal(t, 2, g.Map.CountRoads(i))
		assert.Equal(t, 2, g.VictoryPoints(i))
	}
	assert.Equal(t, resources.Set{Wood: 1, Brick: 1, Wheat: 1}, g.Players[0].Resources)
	assert.Equal(t, resources.Set{Wheat: 1}, g.Players[1].Resources)
	assert.Equal(t, resources.Set{Ore: 1}, g.Players[2].Resources)
	assert.Equal(t, resources.Set{Wood: 1, Brick: 1, Ore: 1}, g.Players[3].Resources)
	requireConserved(t, g)
}

func TestDomesticTradeScenario(t *testing.T) {
	e := newTestEngine(t, nil, Options{AllowForcedRolls: true})
	id := createGame(t, e)
	playSetup(t, e, id)
	submit(t, e, id, &RollNumber{Base: base(rules.ActionRollNumber, 0), Number: 12})

	sender, err := e.Resources(id, 0)
	require.NoError(t, err)
	receiver, err := e.Resources(id, 3)
	require.NoError(t, err)

	offer := resources.Set{Wood: -1, Ore: 1}
	g := submit(t, e, id, &OfferTrade{Base: base(rules.ActionOfferTrade, 0), Offer: offer, Receiver: 3})
	require.NotNil(t, g.TradeOffer)

	_, err = e.Submit(context.Background(), id, &AcceptTrade{Base: base(rules.ActionAcceptTrade, 2), WillAccept: true})
	assert.ErrorIs(t, err, rules.ErrNotReceiver)

	pending, err := e.PendingTrade(id)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, 3, pending.Receiver)

	g = submit(t, e, id, &AcceptTrade{Base: base(rules.ActionAcceptTrade, 3), WillAccept: true})
	assert.Nil(t, g.TradeOffer)
	assert.Equal(t, sender.Combine(offer), g.Players[0].Resources)
	assert.Equal(t, receiver.Subtract(offer), g.Players[3].Resources)
	requireConserved(t, g)
}

func TestDeclinedTradeMovesNothing(t *testing.T) {
	e := newTestEngine(t, nil, Options{AllowForcedRolls: true})
	id := createGame(t, e)
	playSetup(t, e, id)
	before := submit(t, e, id, &RollNumber{Base: base(rules.ActionRollNumber, 0), Number: 12})

	submit(t, e, id, &OfferTrade{Base: base(rules.ActionOfferTrade, 0), Offer: resources.Set{Wheat: -1, Ore: 1}, Receiver: 2})
	g := submit(t, e, id, &AcceptTrade{Base: base(rules.ActionAcceptTrade, 2), WillAccept: false})

	assert.Nil(t, g.TradeOffer)
	for i := range g.Players {
		assert.Equal(t, before.Players[i].Resources, g.Players[i].Resources)
	}
}

func TestSevenWithOversizedHand(t *testing.T) {
	e := newTestEngine(t, nil, Options{AllowForcedRolls: true})
	id := createGame(t, e)
	playSetup(t, e, id)
	tamper(t, e, id, func(g *state.GameState) {
		give(g, 1, resources.Set{Wood: 3, Brick: 2, Sheep: 3})
	})
	hand, err := e.Resources(id, 1)
	require.NoError(t, err)
	require.Equal(t, 9, hand.Total())

	g := submit(t, e, id, &RollNumber{Base: base(rules.ActionRollNumber, 0), Number: 7})
	assert.Equal(t, rules.PhaseDiscarding, g.Phase())
	assert.Equal(t, 4, g.Players[1].PendingDiscard)
	assert.Zero(t, g.Players[0].PendingDiscard)

	_, err = e.Submit(context.Background(), id, &DiscardCards{Base: base(rules.ActionDiscardCards, 1), DiscardedCards: resources.Set{Wood: 3}})
	assert.ErrorIs(t, err, rules.ErrInvalidDiscard)
	_, err = e.Submit(context.Background(), id, &DiscardCards{Base: base(rules.ActionDiscardCards, 0), DiscardedCards: resources.Set{Wood: 1}})
	assert.ErrorIs(t, err, rules.ErrDiscardNotNeeded)

	g = submit(t, e, id, &DiscardCards{Base: base(rules.ActionDiscardCards, 1), DiscardedCards: resources.Set{Wood: 2, Sheep: 2}})
	assert.Equal(t, rules.PhaseRobbing, g.Phase())
	assert.Equal(t, 5, g.Players[1].HandSize())
	requireConserved(t, g)
}

func TestRobbingAnEmptyHand(t *testing.T) {
	e := newTestEngine(t, nil, Options{AllowForcedRolls: true})
	id := createGame(t, e)
	playSetup(t, e, id)
	tamper(t, e, id, func(g *state.GameState) { takeAll(g, 2) })

	submit(t, e, id, &RollNumber{Base: base(rules.ActionRollNumber, 0), Number: 7})
	before, err := e.State(id)
	require.NoError(t, err)
	require.Equal(t, rules.PhaseRobbing, before.Phase())

	_, err = e.Submit(context.Background(), id, &RobPlayer{Base: base(rules.ActionRobPlayer, 0), Location: before.Map.Robber, VictimIndex: 2})
	assert.ErrorIs(t, err, rules.ErrRobberNotMoved)

	g := submit(t, e, id, &RobPlayer{Base: base(rules.ActionRobPlayer, 0), Location: hexAt(-2, 2), VictimIndex: 2})
	assert.Equal(t, hexAt(-2, 2), g.Map.Robber)
	assert.Equal(t, rules.PhasePlaying, g.Phase())
	for i := range g.Players {
		assert.Equal(t, before.Players[i].Resources, g.Players[i].Resources)
	}
}

func TestMaritimeOptions(t *testing.T) {
	e := newTestEngine(t, nil, Options{AllowForcedRolls: true})
	id := createGame(t, e)
	playSetup(t, e, id)

	opts, err := e.MaritimeOptions(id, 0)
	require.NoError(t, err)
	assert.Empty(t, opts.Send, "cannot trade before rolling")
	for _, k := range resources.Kinds {
		assert.Contains(t, []int{2, 3, 4}, opts.Ratios[k])
	}

	submit(t, e, id, &RollNumber{Base: base(rules.ActionRollNumber, 0), Number: 12})
	tamper(t, e, id, func(g *state.GameState) { give(g, 0, resources.Set{Sheep: 4}) })

	opts, err = e.MaritimeOptions(id, 0)
	require.NoError(t, err)
	assert.Contains(t, opts.Send, resources.Sheep)
	assert.NotContains(t, opts.Receive[resources.Sheep], resources.Sheep)
	assert.Len(t, opts.Receive[resources.Sheep], len(resources.Kinds)-1)

	_, err = e.MaritimeOptions(id, 9)
	assert.ErrorIs(t, err, rules.ErrInvalidPlayer)
}

func TestGameOver(t *testing.T) {
	dir := t.TempDir()
	e := newTestEngine(t, nil, Options{AllowForcedRolls: true, ReplayDir: dir})
	notified := make(chan GameNotification, 64)
	e.SetNotificationHandler(func(n GameNotification) { notified <- n })

	setup := testSetup()
	setup.WinningPoints = 3
	created, err := e.CreateGame(context.Background(), setup)
	require.NoError(t, err)
	id := created.ID
	playSetup(t, e, id)
	submit(t, e, id, &RollNumber{Base: base(rules.ActionRollNumber, 0), Number: 12})
	tamper(t, e, id, func(g *state.GameState) { g.Players[0].OldDevCards.Monument = 1 })

	g := submit(t, e, id, &Monument{Base: base(rules.ActionMonument, 0)})
	assert.Equal(t, rules.PhaseGameOver, g.Phase())
	assert.Equal(t, 0, g.Winner)
	assert.Equal(t, 3, g.VictoryPoints(0))

	_, err = e.Submit(context.Background(), id, &FinishTurn{Base: base(rules.ActionFinishTurn, 0)})
	assert.ErrorIs(t, err, rules.ErrGameOver)
	submit(t, e, id, &SendChat{Base: base(rules.ActionSendChat, 1), Content: "well played"})

	replay, err := LoadReplayFromFile(dir, id)
	require.NoError(t, err)
	assert.Equal(t, g.Version+1, replay.Size())

	deadline := time.After(time.Second)
	for {
		select {
		case n := <-notified:
			if n.Type == NotifyGameOver {
				assert.Equal(t, 0, n.Data["winner"])
				return
			}
		case <-deadline:
			t.Fatal("no game over notification")
		}
	}
}

func TestSummary(t *testing.T) {
	e := newTestEngine(t, nil, Options{})
	id := createGame(t, e)
	playSetup(t, e, id)

	s, err := e.Summary(id)
	require.NoError(t, err)
	assert.Equal(t, id, s.ID)
	assert.Equal(t, rules.PhaseRolling, s.Phase)
	assert.Equal(t, state.NoPlayer, s.Winner)
	require.Len(t, s.Players, 4)
	assert.Equal(t, "Sam", s.Players[0].Name)
	assert.Equal(t, 3, s.Players[0].Cards)
	assert.Equal(t, 2, s.Players[3].Roads)
	assert.False(t, s.Quarantined)
	assert.Contains(t, s.String(), "Rolling")

	phase, err := e.Phase(id)
	require.NoError(t, err)
	assert.Equal(t, rules.PhaseRolling, phase)
	current, err := e.CurrentPlayer(id)
	require.NoError(t, err)
	assert.Zero(t, current)
	points, err := e.VictoryPoints(id, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, points)
	_, err = e.Resources(id, -1)
	assert.True(t, errors.Is(err, rules.ErrInvalidPlayer))
}
