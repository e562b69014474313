package repositories

import (
	"backoffice/internal/models"
)

// ClientRepository defines the interface for client data access.
type ClientRepository interface {
	GetAll() ([]models.Client, error)
	GetByID(id string) (*models.Client, error)
	Create(client *models.Client) error
	Update(client *models.Client) error
	Delete(id string) error
}
