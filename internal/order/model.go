package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Type string

const (
	TypeDineIn   Type = "dine_in"
	TypeTakeaway Type = "takeaway"
	TypeDelivery Type = "delivery"
)

type Order struct {
	ID            string          `json:"id"`
	RestaurantID  string          `json:"restaurant_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email,omitempty"`
	CustomerPhone string          `json:"customer_phone,omitempty"`
	Type          Type            `json:"order_type"`
	Status        Status          `json:"status"`
	Items         []Item          `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	TipAmount     decimal.Decimal `json:"tip_amount"`
	// Exactly one of the two is meaningful depending on Type; both may be
	// empty for takeaway.
	DeliveryAddress string     `json:"delivery_address,omitempty"`
	TableNumber     string     `json:"table_number,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	EstimatedAt     *time.Time `json:"estimated_delivery_at,omitempty"`
	DeliveredAt     *time.Time `json:"delivered_at,omitempty"`
}

// Item is one line of an order. Items are owned by their parent order and
// replaced wholesale; there is no partial patching of a single line.
type Item struct {
	ID         string          `json:"id"`
	OrderID    string          `json:"order_id"`
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Notes      string          `json:"notes,omitempty"`
}
