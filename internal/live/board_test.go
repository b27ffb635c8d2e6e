package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesaviva/resto-live/internal/order"
)

// stubRepo implements order.Repository in memory.
type stubRepo struct {
	mu sync.Mutex

	loadOrders []order.Order
	loadErr    error

	items    map[string][]order.Item
	itemsErr error

	updateErr     error
	updateCalls   []string
	updateHook    func() // runs during UpdateStatus, before it returns
	updateStarted chan struct{}
	updateRelease chan struct{}
}

func (s *stubRepo) ListByRestaurant(ctx context.Context, restaurantID string) ([]order.Order, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return append([]order.Order(nil), s.loadOrders...), nil
}

func (s *stubRepo) GetItems(ctx context.Context, orderID string) ([]order.Item, error) {
	if s.itemsErr != nil {
		return nil, s.itemsErr
	}
	return s.items[orderID], nil
}

func (s *stubRepo) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	if s.updateStarted != nil {
		s.updateStarted <- struct{}{}
		<-s.updateRelease
	}
	s.mu.Lock()
	s.updateCalls = append(s.updateCalls, id+":"+string(status))
	s.mu.Unlock()
	if s.updateHook != nil {
		s.updateHook()
	}
	return s.updateErr
}

func (s *stubRepo) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.updateCalls...)
}

type recordNotifier struct {
	mu     sync.Mutex
	infos  []string
	msgs   []string
	errors []string
}

func (n *recordNotifier) Info(title, message string) {
	n.mu.Lock()
	n.infos = append(n.infos, title)
	n.msgs = append(n.msgs, message)
	n.mu.Unlock()
}

func (n *recordNotifier) Error(title, message string) {
	n.mu.Lock()
	n.errors = append(n.errors, title)
	n.mu.Unlock()
}

func mkOrder(id string, status order.Status, total string) order.Order {
	return order.Order{
		ID:           id,
		RestaurantID: "r1",
		CustomerName: "cust-" + id,
		Type:         order.TypeDineIn,
		Status:       status,
		TotalAmount:  decimal.RequireFromString(total),
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
}

func loadedBoard(t *testing.T, repo *stubRepo, notify Notifier) *Board {
	t.Helper()
	b := NewBoard(repo, notify, "r1")
	require.NoError(t, b.Load(context.Background()))
	return b
}

func insertEvent(id, restaurant, status, total string) Event {
	rid := restaurant
	st := status
	tot := total
	name := "cust-" + id
	return Event{
		Entity:    EntityOrder,
		Operation: OpInsert,
		After: &Record{
			ID:           id,
			RestaurantID: rid,
			CustomerName: &name,
			Status:       &st,
			TotalAmount:  &tot,
			Items:        []*ItemRecord{},
		},
	}
}

func updateEvent(id, status string) Event {
	st := status
	return Event{
		Entity:    EntityOrder,
		Operation: OpUpdate,
		After:     &Record{ID: id, RestaurantID: "r1", Status: &st},
	}
}

func TestDispatchInsertMidSession(t *testing.T) {
	repo := &stubRepo{loadOrders: []order.Order{
		mkOrder("a", order.StatusPending, "10"),
		mkOrder("b", order.StatusConfirmed, "20"),
		mkOrder("c", order.StatusCompleted, "30"),
	}}
	notify := &recordNotifier{}
	b := loadedBoard(t, repo, notify)

	b.Dispatch(context.Background(), insertEvent("d", "r1", "pending", "15"))

	orders, stats := b.Snapshot()
	require.Len(t, orders, 4)
	assert.Equal(t, "d", orders[0].ID, "new order goes to the head")
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Pending)
	assert.True(t, stats.TotalRevenue.Equal(decimal.RequireFromString("75")),
		"revenue %s", stats.TotalRevenue)
	assert.True(t, stats.AverageOrderValue.Equal(decimal.RequireFromString("18.75")),
		"average %s", stats.AverageOrderValue)
	assert.Contains(t, notify.infos, "New Order Received")
}

func TestDispatchInsertDuplicateConverges(t *testing.T) {
	repo := &stubRepo{loadOrders: []order.Order{mkOrder("a", order.StatusPending, "10")}}
	b := loadedBoard(t, repo, &recordNotifier{})

	// bulk load and feed both introduce the same order
	b.Dispatch(context.Background(), insertEvent("a", "r1", "confirmed", "12"))
	b.Dispatch(context.Background(), insertEvent("a", "r1", "confirmed", "12"))

	orders, stats := b.Snapshot()
	require.Len(t, orders, 1)
	assert.Equal(t, order.StatusConfirmed, orders[0].Status)
	assert.Equal(t, 1, stats.Total)
	assert.True(t, stats.TotalRevenue.Equal(decimal.RequireFromString("12")))
}

func TestDispatchUpdateWithoutStatusNotifiesCleanly(t *testing.T) {
	repo := &stubRepo{loadOrders: []order.Order{mkOrder("a", order.StatusPending, "10")}}
	notify := &recordNotifier{}
	b := loadedBoard(t, repo, notify)

	// notes-only change: no status in the row image
	notes := "ring the back door"
	b.Dispatch(context.Background(), Event{
		Entity:    EntityOrder,
		Operation: OpUpdate,
		After:     &Record{ID: "a", RestaurantID: "r1", Notes: &notes},
	})

	got, _ := b.Get("a")
	assert.Equal(t, "ring the back door", got.Notes)
	require.Len(t, notify.msgs, 1)
	assert.Equal(t, "order a", notify.msgs[0])

	// with a status the message names it
	b.Dispatch(context.Background(), updateEvent("a", "confirmed"))
	require.Len(t, notify.msgs, 2)
	assert.Equal(t, "order a is now confirmed", notify.msgs[1])
}

func TestDispatchUpdateUnknownOrderIgnored(t *testing.T) {
	repo := &stubRepo{loadOrders: []order.Order{mkOrder("a", order.StatusPending, "10")}}
	notify := &recordNotifier{}
	b := loadedBoard(t, repo, notify)

	b.Dispatch(context.Background(), updateEvent("never-loaded", "confirmed"))

	orders, stats := b.Snapshot()
	assert.Len(t, orders, 1)
	assert.Equal(t, 1, stats.Total)
	assert.Empty(t, notify.infos, "no notification for an ignored update")
}

func TestDispatchDeleteUnknownIDIsNoOp(t *testing.T) {
	repo := &stubRepo{loadOrders: []order.Order{
		mkOrder("a", order.StatusPending, "10"),
		mkOrder("b", order.StatusConfirmed, "20"),
	}}
	b := loadedBoard(t, repo, &recordNotifier{})

	b.Dispatch(context.Background(), Event{
		Entity:    EntityOrder,
		Operation: OpDelete,
		Before:    &Record{ID: "c", RestaurantID: "r1"},
	})

	orders, _ := b.Snapshot()
	require.Len(t, orders, 2)
	assert.Equal(t, "b", orders[0].ID)
	assert.Equal(t, "a", orders[1].ID)
}

func TestDispatchDeleteRemovesAndRecounts(t *testing.T) {
	repo := &stubRepo{loadOrders: []order.Order{
		mkOrder("a", order.StatusPending, "10"),
		mkOrder("b", order.StatusConfirmed, "20"),
	}}
	notify := &recordNotifier{}
	b := loadedBoard(t, repo, notify)

	b.Dispatch(context.Background(), Event{
		Entity:    EntityOrder,
		Operation: OpDelete,
		Before:    &Record{ID: "a", RestaurantID: "r1"},
	})

	orders, stats := b.Snapshot()
	require.Len(t, orders, 1)
	assert.Equal(t, 0, stats.Pending)
	assert.True(t, stats.TotalRevenue.Equal(decimal.RequireFromString("20")))
	assert.Contains(t, notify.infos, "Order Removed")
}

func TestDispatchOtherRestaurantFiltered(t *testing.T) {
	repo := &stubRepo{loadOrders: []order.Order{mkOrder("a", order.StatusPending, "10")}}
	b := loadedBoard(t, repo, &recordNotifier{})

	b.Dispatch(context.Background(), insertEvent("x", "r2", "pending", "99"))

	orders, stats := b.Snapshot()
	assert.Len(t, orders, 1)
	assert.Equal(t, 1, stats.Total)
}

func TestDispatchItemEventRefreshesParent(t *testing.T) {
	o := mkOrder("a", order.StatusPending, "10")
	o.Items = []order.Item{{ID: "i1", OrderID: "a", Quantity: 1, UnitPrice: decimal.RequireFromString("10")}}
	fresh := []order.Item{
		{ID: "i1", OrderID: "a", Quantity: 1, UnitPrice: decimal.RequireFromString("10")},
		{ID: "i2", OrderID: "a", Quantity: 2, UnitPrice: decimal.RequireFromString("4")},
	}
	repo := &stubRepo{
		loadOrders: []order.Order{o},
		items:      map[string][]order.Item{"a": fresh},
	}
	b := loadedBoard(t, repo, &recordNotifier{})

	b.Dispatch(context.Background(), Event{
		Entity:    EntityOrderItem,
		Operation: OpInsert,
		After:     &Record{ID: "i2", OrderID: "a"},
	})

	got, ok := b.Get("a")
	require.True(t, ok)
	assert.Len(t, got.Items, 2)
}

func TestDispatchItemRefetchFailureDropsEvent(t *testing.T) {
	o := mkOrder("a", order.StatusPending, "10")
	o.Items = []order.Item{{ID: "i1", OrderID: "a", Quantity: 1, UnitPrice: decimal.RequireFromString("10")}}
	repo := &stubRepo{
		loadOrders: []order.Order{o},
		items:      map[string][]order.Item{},
	}
	b := loadedBoard(t, repo, &recordNotifier{})
	repo.itemsErr = errors.New("timeout")

	b.Dispatch(context.Background(), Event{
		Entity:    EntityOrderItem,
		Operation: OpUpdate,
		After:     &Record{ID: "i1", OrderID: "a"},
	})

	// stale list stays visible, nothing else changes
	got, _ := b.Get("a")
	assert.Len(t, got.Items, 1)
}

func TestLoadFailureLeavesBoardUntouched(t *testing.T) {
	repo := &stubRepo{loadOrders: []order.Order{mkOrder("a", order.StatusPending, "10")}}
	b := loadedBoard(t, repo, &recordNotifier{})

	repo.loadErr = errors.New("connection refused")
	require.Error(t, b.Load(context.Background()))

	orders, stats := b.Snapshot()
	assert.Len(t, orders, 1)
	assert.Equal(t, 1, stats.Total)
}

func TestTransitionSuccess(t *testing.T) {
	repo := &stubRepo{loadOrders: []order.Order{mkOrder("a", order.StatusPending, "10")}}
	b := loadedBoard(t, repo, &recordNotifier{})

	require.NoError(t, b.Transition(context.Background(), "a", order.StatusConfirmed))

	got, _ := b.Get("a")
	assert.Equal(t, order.StatusConfirmed, got.Status)
	_, stats := b.Snapshot()
	assert.Equal(t, 0, stats.Pending)
	assert.Equal(t, 1, stats.Confirmed)
	assert.Equal(t, []string{"a:confirmed"}, repo.calls())
}

func TestTransitionRejectsIllegalMove(t *testing.T) {
	repo := &stubRepo{loadOrders: []order.Order{mkOrder("a", order.StatusCompleted, "10")}}
	b := loadedBoard(t, repo, &recordNotifier{})

	err := b.Transition(context.Background(), "a", order.StatusPending)
	require.ErrorIs(t, err, order.ErrInvalidTransition)

	// rejected before any network call, store untouched
	assert.Empty(t, repo.calls())
	got, _ := b.Get("a")
	assert.Equal(t, order.StatusCompleted, got.Status)
}

func TestTransitionUnknownOrder(t *testing.T) {
	repo := &stubRepo{}
	b := loadedBoard(t, repo, &recordNotifier{})

	err := b.Transition(context.Background(), "ghost", order.StatusConfirmed)
	require.ErrorIs(t, err, ErrUnknownOrder)
	assert.Empty(t, repo.calls())
}

func TestTransitionRemoteFailureClearsMarker(t *testing.T) {
	repo := &stubRepo{loadOrders: []order.Order{mkOrder("a", order.StatusPending, "10")}}
	notify := &recordNotifier{}
	b := loadedBoard(t, repo, notify)

	repo.updateErr = errors.New("gateway timeout")
	require.Error(t, b.Transition(context.Background(), "a", order.StatusConfirmed))

	got, _ := b.Get("a")
	assert.Equal(t, order.StatusPending, got.Status, "store unchanged on failure")
	assert.Contains(t, notify.errors, "Status Change Failed")

	// marker cleared: the same transition can be retried
	repo.updateErr = nil
	require.NoError(t, b.Transition(context.Background(), "a", order.StatusConfirmed))
	got, _ = b.Get("a")
	assert.Equal(t, order.StatusConfirmed, got.Status)
}

func TestTransitionDuplicateWhileInFlight(t *testing.T) {
	repo := &stubRepo{
		loadOrders:    []order.Order{mkOrder("a", order.StatusPending, "10")},
		updateStarted: make(chan struct{}, 1),
		updateRelease: make(chan struct{}),
	}
	b := loadedBoard(t, repo, &recordNotifier{})

	done := make(chan error, 1)
	go func() { done <- b.Transition(context.Background(), "a", order.StatusConfirmed) }()
	<-repo.updateStarted

	// second submission for the same id while the first is in flight
	err := b.Transition(context.Background(), "a", order.StatusConfirmed)
	require.ErrorIs(t, err, ErrTransitionInFlight)

	close(repo.updateRelease)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"a:confirmed"}, repo.calls(), "only one network call issued")
}

func TestConvergenceUnderDuplicateDelivery(t *testing.T) {
	// Echoed feed event lands during the remote call, before the direct
	// apply: both writers set the same status, and the final state matches
	// the run where the echo arrives after.
	run := func(echoDuringCall bool) order.Order {
		repo := &stubRepo{loadOrders: []order.Order{mkOrder("a", order.StatusPending, "10")}}
		b := loadedBoard(t, repo, &recordNotifier{})
		if echoDuringCall {
			repo.updateHook = func() {
				b.Dispatch(context.Background(), updateEvent("a", "confirmed"))
			}
		}
		require.NoError(t, b.Transition(context.Background(), "a", order.StatusConfirmed))
		if !echoDuringCall {
			b.Dispatch(context.Background(), updateEvent("a", "confirmed"))
		}
		got, ok := b.Get("a")
		require.True(t, ok)
		return got
	}

	first := run(true)
	second := run(false)
	assert.Equal(t, order.StatusConfirmed, first.Status)
	assert.Equal(t, first.Status, second.Status)
	assert.True(t, first.TotalAmount.Equal(second.TotalAmount))
}
