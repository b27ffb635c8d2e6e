package live

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mesaviva/resto-live/internal/order"
)

var ErrMalformedEvent = errors.New("malformed feed event")

const (
	EntityOrder     = "order"
	EntityOrderItem = "order_item"

	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Event is one row-level change envelope from the feed. Before/After are the
// row images the backend publishes; which one is present depends on the
// operation.
type Event struct {
	Entity    string  `json:"entity"`
	Operation string  `json:"operation"`
	Before    *Record `json:"before,omitempty"`
	After     *Record `json:"after,omitempty"`
}

// Record is a partial row image. Pointer fields distinguish "absent" from
// "present but zero" so updates merge instead of clobbering.
type Record struct {
	ID              string        `json:"id"`
	RestaurantID    string        `json:"restaurant_id,omitempty"`
	OrderID         string        `json:"order_id,omitempty"` // order_item rows
	CustomerName    *string       `json:"customer_name,omitempty"`
	CustomerEmail   *string       `json:"customer_email,omitempty"`
	CustomerPhone   *string       `json:"customer_phone,omitempty"`
	OrderType       *string       `json:"order_type,omitempty"`
	Status          *string       `json:"status,omitempty"`
	TotalAmount     *string       `json:"total_amount,omitempty"`
	TaxAmount       *string       `json:"tax_amount,omitempty"`
	TipAmount       *string       `json:"tip_amount,omitempty"`
	DeliveryAddress *string       `json:"delivery_address,omitempty"`
	TableNumber     *string       `json:"table_number,omitempty"`
	Notes           *string       `json:"notes,omitempty"`
	CreatedAt       *time.Time    `json:"created_at,omitempty"`
	UpdatedAt       *time.Time    `json:"updated_at,omitempty"`
	EstimatedAt     *time.Time    `json:"estimated_delivery_at,omitempty"`
	DeliveredAt     *time.Time    `json:"delivered_at,omitempty"`
	Items           []*ItemRecord `json:"items,omitempty"` // embedded payload, when the feed includes it
}

type ItemRecord struct {
	ID         string  `json:"id"`
	OrderID    string  `json:"order_id"`
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  string  `json:"unit_price"`
	Notes      *string `json:"notes,omitempty"`
}

// row returns the image that identifies the event's target: After when
// present, Before otherwise.
func (e Event) row() *Record {
	if e.After != nil {
		return e.After
	}
	return e.Before
}

// ParseEvent decodes and validates one feed delivery. A malformed event is a
// dropped event, never a panic into the delivery loop.
func ParseEvent(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.Entity != EntityOrder && ev.Entity != EntityOrderItem {
		return Event{}, fmt.Errorf("%w: unknown entity %q", ErrMalformedEvent, ev.Entity)
	}
	if ev.Operation != OpInsert && ev.Operation != OpUpdate && ev.Operation != OpDelete {
		return Event{}, fmt.Errorf("%w: unknown operation %q", ErrMalformedEvent, ev.Operation)
	}
	row := ev.row()
	if ev.Operation == OpDelete {
		row = ev.Before
	}
	if row == nil || row.ID == "" {
		return Event{}, fmt.Errorf("%w: missing row image for %s %s", ErrMalformedEvent, ev.Entity, ev.Operation)
	}
	if ev.Entity == EntityOrderItem && row.OrderID == "" {
		return Event{}, fmt.Errorf("%w: order_item event without order_id", ErrMalformedEvent)
	}
	return ev, nil
}

func decAmount(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("%w: bad amount %q", ErrMalformedEvent, *s)
	}
	return &d, nil
}

// orderFromRecord builds a full Order from an insert image.
func orderFromRecord(rec *Record) (order.Order, error) {
	o := order.Order{
		ID:           rec.ID,
		RestaurantID: rec.RestaurantID,
		Type:         order.TypeDineIn,
		Status:       order.StatusPending,
	}
	if rec.CustomerName != nil {
		o.CustomerName = *rec.CustomerName
	}
	if rec.CustomerEmail != nil {
		o.CustomerEmail = *rec.CustomerEmail
	}
	if rec.CustomerPhone != nil {
		o.CustomerPhone = *rec.CustomerPhone
	}
	if rec.OrderType != nil {
		o.Type = order.Type(*rec.OrderType)
	}
	if rec.Status != nil {
		o.Status = order.Status(*rec.Status)
	}
	total, err := decAmount(rec.TotalAmount)
	if err != nil {
		return order.Order{}, err
	}
	if total != nil {
		o.TotalAmount = *total
	}
	tax, err := decAmount(rec.TaxAmount)
	if err != nil {
		return order.Order{}, err
	}
	if tax != nil {
		o.TaxAmount = *tax
	}
	tip, err := decAmount(rec.TipAmount)
	if err != nil {
		return order.Order{}, err
	}
	if tip != nil {
		o.TipAmount = *tip
	}
	if rec.DeliveryAddress != nil {
		o.DeliveryAddress = *rec.DeliveryAddress
	}
	if rec.TableNumber != nil {
		o.TableNumber = *rec.TableNumber
	}
	if rec.Notes != nil {
		o.Notes = *rec.Notes
	}
	if rec.CreatedAt != nil {
		o.CreatedAt = *rec.CreatedAt
	}
	if rec.UpdatedAt != nil {
		o.UpdatedAt = *rec.UpdatedAt
	}
	o.EstimatedAt = rec.EstimatedAt
	o.DeliveredAt = rec.DeliveredAt
	items, err := itemsFromRecords(rec.Items)
	if err != nil {
		return order.Order{}, err
	}
	o.Items = items
	return o, nil
}

// patchFromRecord maps an update image onto a shallow-merge patch: only the
// fields present in the image are carried.
func patchFromRecord(rec *Record) (order.Patch, error) {
	var p order.Patch
	p.CustomerName = rec.CustomerName
	p.CustomerEmail = rec.CustomerEmail
	p.CustomerPhone = rec.CustomerPhone
	if rec.OrderType != nil {
		t := order.Type(*rec.OrderType)
		p.Type = &t
	}
	if rec.Status != nil {
		st := order.Status(*rec.Status)
		p.Status = &st
	}
	var err error
	if p.TotalAmount, err = decAmount(rec.TotalAmount); err != nil {
		return order.Patch{}, err
	}
	if p.TaxAmount, err = decAmount(rec.TaxAmount); err != nil {
		return order.Patch{}, err
	}
	if p.TipAmount, err = decAmount(rec.TipAmount); err != nil {
		return order.Patch{}, err
	}
	p.DeliveryAddress = rec.DeliveryAddress
	p.TableNumber = rec.TableNumber
	p.Notes = rec.Notes
	p.UpdatedAt = rec.UpdatedAt
	p.EstimatedAt = rec.EstimatedAt
	p.DeliveredAt = rec.DeliveredAt
	if rec.Items != nil {
		items, err := itemsFromRecords(rec.Items)
		if err != nil {
			return order.Patch{}, err
		}
		p.Items = &items
	}
	return p, nil
}

func itemsFromRecords(recs []*ItemRecord) ([]order.Item, error) {
	if recs == nil {
		return nil, nil
	}
	items := make([]order.Item, 0, len(recs))
	for _, ir := range recs {
		it := order.Item{
			ID:         ir.ID,
			OrderID:    ir.OrderID,
			MenuItemID: ir.MenuItemID,
			Name:       ir.Name,
			Quantity:   ir.Quantity,
		}
		price, err := decimal.NewFromString(ir.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("%w: bad unit_price %q", ErrMalformedEvent, ir.UnitPrice)
		}
		it.UnitPrice = price
		if ir.Notes != nil {
			it.Notes = *ir.Notes
		}
		items = append(items, it)
	}
	return items, nil
}
