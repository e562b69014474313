package repositories

import (
	"backoffice/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	// FindByToken returns every product whose canonical identity, internal
	// code, SKU or alternate code equals the token. More than one result is
	// possible because equivalence fields carry no uniqueness constraint.
	FindByToken(token string) ([]models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
