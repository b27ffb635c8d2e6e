package live

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mesaviva/resto-live/internal/order"
)

var (
	ErrUnknownOrder       = errors.New("order not on the board")
	ErrTransitionInFlight = errors.New("a status change for this order is already in flight")
)

// Board is the live view of one restaurant's orders (or every restaurant's,
// when restaurantID is empty): the order store plus its derived stats, kept
// consistent under feed events and staff-driven status changes.
//
// All writers funnel through the one mutex, and a store mutation always
// recomputes stats before the mutex is released, so no reader can observe a
// list and stats that disagree. Async work (the database round-trips) happens
// strictly outside the lock.
type Board struct {
	repo         order.Repository
	notify       Notifier
	restaurantID string

	mu       sync.Mutex
	store    *order.Store
	stats    order.Stats
	inflight map[string]struct{}
}

func NewBoard(repo order.Repository, notify Notifier, restaurantID string) *Board {
	if notify == nil {
		notify = LogNotifier{}
	}
	return &Board{
		repo:         repo,
		notify:       notify,
		restaurantID: restaurantID,
		store:        order.NewStore(),
		stats:        order.ComputeStats(nil),
		inflight:     make(map[string]struct{}),
	}
}

// Load replaces the board contents with a fresh bulk load. On failure the
// previous contents stay intact and the error is returned for the caller to
// surface as retryable.
func (b *Board) Load(ctx context.Context) error {
	list, err := b.repo.ListByRestaurant(ctx, b.restaurantID)
	if err != nil {
		return fmt.Errorf("bulk load: %w", err)
	}
	b.mu.Lock()
	b.store.Reset(list)
	b.stats = order.ComputeStats(list)
	b.mu.Unlock()
	log.Printf("[board] loaded %d orders", len(list))
	return nil
}

// Snapshot returns the current list (most-recent-first) and the stats that
// were computed from exactly that list.
func (b *Board) Snapshot() ([]order.Order, order.Stats) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.List(), b.stats
}

func (b *Board) Get(id string) (order.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.Get(id)
}

// Dispatch applies one feed event to the board. Events are expected to arrive
// one at a time in feed order; the mutex makes that safe even if they do not.
// A dropped event is logged, never returned as an error to the delivery loop.
func (b *Board) Dispatch(ctx context.Context, ev Event) {
	row := ev.row()
	if ev.Operation == OpDelete && ev.Before != nil {
		row = ev.Before
	}
	if row == nil {
		log.Printf("[board] dropping %s %s without a row image", ev.Entity, ev.Operation)
		return
	}
	if b.restaurantID != "" && row.RestaurantID != "" && row.RestaurantID != b.restaurantID {
		return // another restaurant's row
	}

	switch ev.Entity {
	case EntityOrder:
		b.dispatchOrder(ctx, ev, row)
	case EntityOrderItem:
		b.refreshItems(ctx, row.OrderID)
	}
}

func (b *Board) dispatchOrder(ctx context.Context, ev Event, row *Record) {
	switch ev.Operation {
	case OpInsert:
		o, err := orderFromRecord(row)
		if err != nil {
			log.Printf("[board] dropping insert for %s: %v", row.ID, err)
			return
		}
		if o.Items == nil {
			// Feed did not embed the line items; resolve them before
			// touching the store.
			items, err := b.repo.GetItems(ctx, o.ID)
			if err != nil {
				log.Printf("[board] items lookup for new order %s failed: %v", o.ID, err)
			} else {
				o.Items = items
			}
		}
		b.mu.Lock()
		b.store.Insert(o)
		b.stats = order.ComputeStats(b.store.List())
		b.mu.Unlock()
		b.notify.Info("New Order Received", fmt.Sprintf("order %s from %s", o.ID, o.CustomerName))

	case OpUpdate:
		patch, err := patchFromRecord(row)
		if err != nil {
			log.Printf("[board] dropping update for %s: %v", row.ID, err)
			return
		}
		b.mu.Lock()
		applied := b.store.Apply(row.ID, patch)
		if applied {
			b.stats = order.ComputeStats(b.store.List())
		}
		b.mu.Unlock()
		if !applied {
			// Not loaded yet; the next bulk load resolves this race.
			log.Printf("[board] update for unknown order %s ignored", row.ID)
			return
		}
		msg := fmt.Sprintf("order %s", row.ID)
		if patch.Status != nil {
			msg = fmt.Sprintf("order %s is now %s", row.ID, *patch.Status)
		}
		b.notify.Info("Order Updated", msg)

	case OpDelete:
		b.mu.Lock()
		removed := b.store.Remove(row.ID)
		if removed {
			b.stats = order.ComputeStats(b.store.List())
		}
		b.mu.Unlock()
		if removed {
			b.notify.Info("Order Removed", fmt.Sprintf("order %s", row.ID))
		}
	}
}

// refreshItems replaces the parent order's item list wholesale. The feed does
// not carry enough to patch a single line safely, so any item-level event is a
// full re-fetch; if that fails the event is dropped and the stale list stays
// visible until the next successful refresh.
func (b *Board) refreshItems(ctx context.Context, orderID string) {
	items, err := b.repo.GetItems(ctx, orderID)
	if err != nil {
		log.Printf("[board] item refresh for order %s failed, event dropped: %v", orderID, err)
		return
	}
	if items == nil {
		items = []order.Item{}
	}
	b.mu.Lock()
	applied := b.store.Apply(orderID, order.Patch{Items: &items})
	if applied {
		b.stats = order.ComputeStats(b.store.List())
	}
	b.mu.Unlock()
	if !applied {
		log.Printf("[board] item refresh for unknown order %s ignored", orderID)
	}
}

// Transition drives one staff-initiated status change: validate against the
// forward-only lifecycle, guard against a duplicate submission for the same
// order, call the backend, then apply the result directly so the board is
// right even if the echoed feed event is late or lost.
func (b *Board) Transition(ctx context.Context, id string, target order.Status) error {
	b.mu.Lock()
	cur, ok := b.store.Get(id)
	if !ok {
		b.mu.Unlock()
		return ErrUnknownOrder
	}
	if !order.CanTransition(cur.Status, target) {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", order.ErrInvalidTransition, cur.Status, target)
	}
	if _, busy := b.inflight[id]; busy {
		b.mu.Unlock()
		return ErrTransitionInFlight
	}
	b.inflight[id] = struct{}{}
	b.mu.Unlock()

	err := b.repo.UpdateStatus(ctx, id, target)

	b.mu.Lock()
	delete(b.inflight, id)
	if err != nil {
		b.mu.Unlock()
		b.notify.Error("Status Change Failed", fmt.Sprintf("order %s: %v", id, err))
		return err
	}
	now := time.Now().UTC()
	b.store.Apply(id, order.Patch{Status: &target, UpdatedAt: &now})
	b.stats = order.ComputeStats(b.store.List())
	b.mu.Unlock()
	return nil
}
