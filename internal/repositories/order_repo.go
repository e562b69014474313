package repositories

import (
	"backoffice/internal/models"
)

// OrderRepository defines the interface for order data access. Orders are
// persisted together with their embedded item list; items are never
// addressed independently.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	Create(order *models.Order) error
	// Replace overwrites an existing order wholesale, including its item
	// list. The previous items are discarded, not merged.
	Replace(order *models.Order) error
	Delete(id string) error
}
