package menu

import (
	"time"

	"github.com/shopspring/decimal"
)

type MenuItem struct {
	ID           string          `json:"id"`
	RestaurantID string          `json:"restaurant_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Category     string          `json:"category,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Available    bool            `json:"available"`
	ImageURL     string          `json:"image_url,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// HTTPError represents a standard error in JSON.
// swagger:model
type HTTPError struct {
	// Error message
	// example: not found
	Error string `json:"error"`
}

// ListResponse represents the paginated response of menu items.
// swagger:model
type ListResponse struct {
	Q      string     `json:"q,omitempty"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
	Items  []MenuItem `json:"items"`
}

// CreateMenuItemRequest payload of creation.
// swagger:model CreateMenuItemRequest
type CreateMenuItemRequest struct {
	Name        string `json:"name"        example:"Margherita"`
	Description string `json:"description" example:"Tomato, mozzarella, basil"`
	Category    string `json:"category"    example:"pizza"`
	Price       string `json:"price"       example:"12.50"`
	Available   *bool  `json:"available"`
	ImageURL    string `json:"image_url"`
}

// UpdateMenuItemRequest payload of partial update.
// swagger:model UpdateMenuItemRequest
type UpdateMenuItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Available   *bool  `json:"available"`
	ImageURL    string `json:"image_url"`
}
