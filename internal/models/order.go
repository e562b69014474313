package models

import "time"

// Order channels. The backoffice only accepts orders placed through one of
// these.
const (
	ChannelWeb   = "web"
	ChannelStore = "store"
	ChannelApp   = "app"
)

// CurrencyCRC is the only supported currency. CRC has no minor unit, so all
// amounts are whole integers.
const CurrencyCRC = "CRC"

// OrderItem is a single line within an order. Items are embedded in their
// parent order; they have no lifecycle of their own.
// ProductID always holds a canonical product identity: resolution of
// alternate codes happens before an item is ever persisted.
type OrderItem struct {
	ID        uint   `json:"-" gorm:"primaryKey;autoIncrement"`
	OrderID   string `json:"-" gorm:"type:varchar(36);index"`
	ProductID string `json:"product_id" gorm:"type:varchar(36);not null"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	UnitPrice int64  `json:"unit_price" validate:"gte=0"`
}

// Order represents a customer order with its embedded item list.
// The declared total is stored as received; it is not re-validated against
// the sum of line totals.
type Order struct {
	ID        string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ClientID  string      `json:"client_id" gorm:"type:varchar(36);not null" validate:"required"`
	PlacedAt  time.Time   `json:"placed_at"`
	Channel   string      `json:"channel" gorm:"type:varchar(10)" validate:"required,oneof=web store app"`
	Currency  string      `json:"currency" gorm:"type:varchar(3)" validate:"required,oneof=CRC"`
	Total     int64       `json:"total" validate:"gte=0"`
	Items     []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" validate:"required,min=1,dive"`
	Coupon    string      `json:"coupon,omitempty" gorm:"type:varchar(50)"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
