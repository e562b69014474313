package models

import (
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// Product represents a product in the catalog.
// Code is the internal catalog code; SKU and AltCode are equivalence fields
// used to match orders created against external systems. Their uniqueness is
// not enforced by the schema.
type Product struct {
	ID       string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Code     string `json:"code" gorm:"uniqueIndex;type:varchar(50)" validate:"required,min=2,max=50"`
	Name     string `json:"name" gorm:"type:varchar(150)" validate:"required,min=2,max=150"`
	Category string `json:"category" gorm:"type:varchar(100)" validate:"required,min=2,max=100"`
	SKU      string `json:"sku,omitempty" gorm:"type:varchar(50)" validate:"omitempty,max=50"`
	AltCode  string `json:"alt_code,omitempty" gorm:"type:varchar(50)" validate:"omitempty,max=50"`

	// WarehouseID is the derived numeric id of this product in the analytical
	// warehouse. It is computed from the SKU, never stored.
	WarehouseID *int64 `json:"warehouse_product_id,omitempty" gorm:"-"`

	gorm.Model
}

// DeriveWarehouseID strips non-digit characters from the SKU and parses the
// remainder as the product's warehouse id. This is a best-effort
// cross-reference, not a foreign key: a missing or digit-free SKU yields
// (0, false).
func (p *Product) DeriveWarehouseID() (int64, bool) {
	if p.SKU == "" {
		return 0, false
	}
	var b strings.Builder
	for _, r := range p.SKU {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
