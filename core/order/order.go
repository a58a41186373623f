package order

import "time"

// Status is a closed set; Label is the one place that maps it for
// display, so a new status fails loudly instead of rendering blank.
type Status string

const (
	Pending   Status = "pending"
	Confirmed Status = "confirmed"
	Shipped   Status = "shipped"
	Cancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case Pending, Confirmed, Shipped, Cancelled:
		return true
	}
	return false
}

func (s Status) Label() string {
	switch s {
	case Pending:
		return "Awaiting confirmation"
	case Confirmed:
		return "Confirmed"
	case Shipped:
		return "Shipped"
	case Cancelled:
		return "Cancelled"
	}
	return "Unknown"
}

// Order is the flattened snapshot the checkout flow submits. Everything
// the buyer agreed to (carrier name, delivery price) is denormalized in,
// so later directory edits cannot rewrite history.
type Order struct {
	ID           string    `json:"id" db:"order_id"`
	Reference    string    `json:"reference" db:"reference"`
	FirstName    string    `json:"firstName" db:"first_name"`
	LastName     string    `json:"lastName" db:"last_name"`
	Email        string    `json:"email" db:"email"`
	Phone1       string    `json:"phone1" db:"phone1"`
	Phone2       string    `json:"phone2" db:"phone2"`
	Address      string    `json:"address" db:"address"`
	RegionCode   string    `json:"regionCode" db:"region_code"`
	RegionName   string    `json:"regionName" db:"region_name"`
	Municipality string    `json:"municipality" db:"municipality"`
	DeliveryMode string    `json:"deliveryMode" db:"delivery_mode"`
	CarrierName  string    `json:"carrierName" db:"carrier_name"`
	DeliveryCost int       `json:"deliveryCost" db:"delivery_cost"`
	Subtotal     int       `json:"subtotal" db:"subtotal"`
	Total        int       `json:"total" db:"total"`
	Currency     string    `json:"currency" db:"currency"`
	Status       Status    `json:"status" db:"status"`
	StatusLabel  string    `json:"statusLabel" db:"-"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
	Items        []Item    `json:"items,omitempty" db:"-"`
}

type Item struct {
	ID        string    `json:"id" db:"item_id"`
	OrderID   string    `json:"-" db:"order_id"`
	ProductID string    `json:"productId" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	UnitPrice int       `json:"unitPrice" db:"unit_price"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Color     string    `json:"color" db:"color"`
	Size      string    `json:"size" db:"size"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type StatusUp struct {
	Status Status `json:"status" validate:"required"`
}
