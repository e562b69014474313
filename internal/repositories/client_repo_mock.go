package repositories

import (
	"fmt"
	"sync"

	"backoffice/internal/models"

	"github.com/google/uuid"
)

// MockClientRepository is an in-memory implementation of ClientRepository.
type MockClientRepository struct {
	clients map[string]models.Client
	mu      sync.RWMutex
}

// NewMockClientRepository creates a new instance of MockClientRepository.
func NewMockClientRepository() *MockClientRepository {
	return &MockClientRepository{
		clients: make(map[string]models.Client),
	}
}

// GetAll returns all clients.
func (r *MockClientRepository) GetAll() ([]models.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clientList := make([]models.Client, 0, len(r.clients))
	for _, c := range r.clients {
		clientList = append(clientList, c)
	}
	return clientList, nil
}

// GetByID returns a client by its ID.
func (r *MockClientRepository) GetByID(id string) (*models.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[id]
	if !ok {
		return nil, fmt.Errorf("client with ID %s: %w", id, models.ErrClientNotFound)
	}
	return &client, nil
}

// Create adds a new client.
func (r *MockClientRepository) Create(client *models.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client.ID == "" {
		client.ID = uuid.New().String()
	}
	r.clients[client.ID] = *client
	return nil
}

// Update modifies an existing client.
func (r *MockClientRepository) Update(client *models.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.clients[client.ID]
	if !ok {
		return fmt.Errorf("client with ID %s for update: %w", client.ID, models.ErrClientNotFound)
	}
	r.clients[client.ID] = *client
	return nil
}

// Delete removes a client by its ID.
func (r *MockClientRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.clients[id]
	if !ok {
		return fmt.Errorf("client with ID %s for deletion: %w", id, models.ErrClientNotFound)
	}
	delete(r.clients, id)
	return nil
}
