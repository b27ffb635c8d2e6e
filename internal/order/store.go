package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Store holds the current order list for one restaurant (or all of them on a
// super-admin board), most-recent-first, de-duplicated by id. It is a plain
// container: callers are responsible for serializing mutations.
type Store struct {
	orders []Order
}

func NewStore() *Store { return &Store{} }

// Patch carries the fields of an update; nil fields are preserved on merge.
type Patch struct {
	CustomerName    *string
	CustomerEmail   *string
	CustomerPhone   *string
	Type            *Type
	Status          *Status
	Items           *[]Item
	TotalAmount     *decimal.Decimal
	TaxAmount       *decimal.Decimal
	TipAmount       *decimal.Decimal
	DeliveryAddress *string
	TableNumber     *string
	Notes           *string
	UpdatedAt       *time.Time
	EstimatedAt     *time.Time
	DeliveredAt     *time.Time
}

func (s *Store) indexOf(id string) int {
	for i := range s.orders {
		if s.orders[i].ID == id {
			return i
		}
	}
	return -1
}

// Reset replaces the whole list with a bulk-load result. The input is assumed
// to be sorted descending by creation time already.
func (s *Store) Reset(list []Order) {
	s.orders = append([]Order(nil), list...)
}

// Insert upserts o. A new id goes to the head of the list; an existing id is
// replaced in place, keeping its position. Returns true when the id was new.
func (s *Store) Insert(o Order) bool {
	if i := s.indexOf(o.ID); i >= 0 {
		s.orders[i] = o
		return false
	}
	s.orders = append([]Order{o}, s.orders...)
	return true
}

// Apply shallow-merges p onto the order with the given id, preserving its
// position. Returns false when the id is not present, which is not an error:
// an update for an order not yet loaded is a race resolved by the next bulk
// load.
func (s *Store) Apply(id string, p Patch) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	o := &s.orders[i]
	if p.CustomerName != nil {
		o.CustomerName = *p.CustomerName
	}
	if p.CustomerEmail != nil {
		o.CustomerEmail = *p.CustomerEmail
	}
	if p.CustomerPhone != nil {
		o.CustomerPhone = *p.CustomerPhone
	}
	if p.Type != nil {
		o.Type = *p.Type
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.Items != nil {
		o.Items = *p.Items
	}
	if p.TotalAmount != nil {
		o.TotalAmount = *p.TotalAmount
	}
	if p.TaxAmount != nil {
		o.TaxAmount = *p.TaxAmount
	}
	if p.TipAmount != nil {
		o.TipAmount = *p.TipAmount
	}
	if p.DeliveryAddress != nil {
		o.DeliveryAddress = *p.DeliveryAddress
	}
	if p.TableNumber != nil {
		o.TableNumber = *p.TableNumber
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
	if p.UpdatedAt != nil {
		o.UpdatedAt = *p.UpdatedAt
	}
	if p.EstimatedAt != nil {
		o.EstimatedAt = p.EstimatedAt
	}
	if p.DeliveredAt != nil {
		o.DeliveredAt = p.DeliveredAt
	}
	return true
}

// Remove drops the order if present; no-op otherwise.
func (s *Store) Remove(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.orders = append(s.orders[:i], s.orders[i+1:]...)
	return true
}

func (s *Store) Get(id string) (Order, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.orders[i], true
	}
	return Order{}, false
}

// List returns a copy of the current list, most-recent-first.
func (s *Store) List() []Order {
	return append([]Order(nil), s.orders...)
}

func (s *Store) Len() int { return len(s.orders) }
