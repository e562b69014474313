package services_test

import (
	"testing"

	"backoffice/internal/models"
	"backoffice/internal/repositories"
	"backoffice/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedCatalog populates an in-memory product repository with a small catalog
// covering every kind of alternate code.
func seedCatalog(t *testing.T) (*repositories.MockProductRepository, []models.Product) {
	t.Helper()
	repo := repositories.NewMockProductRepository()
	catalog := []models.Product{
		{ID: "aaaaaaaa-1111-4111-8111-111111111111", Code: "PRD-001", Name: "Coffee Beans", Category: "groceries", SKU: "SKU-10", AltCode: "LEGACY-A"},
		{ID: "bbbbbbbb-2222-4222-8222-222222222222", Code: "PRD-002", Name: "Filter Paper", Category: "groceries", SKU: "SKU-20"},
		{ID: "cccccccc-3333-4333-8333-333333333333", Code: "PRD-003", Name: "French Press", Category: "kitchen"},
	}
	for i := range catalog {
		require.NoError(t, repo.Create(&catalog[i]))
	}
	return repo, catalog
}

func newOrderService(t *testing.T) (*services.OrderService, *repositories.MockOrderRepository, []models.Product) {
	t.Helper()
	productRepo, catalog := seedCatalog(t)
	orderRepo := repositories.NewMockOrderRepository()
	service := services.NewOrderService(orderRepo, services.NewProductService(productRepo), nil)
	return service, orderRepo, catalog
}

func validOrderRequest(items ...services.OrderItemRequest) *services.OrderRequest {
	return &services.OrderRequest{
		ClientID: "dddddddd-4444-4444-8444-444444444444",
		Channel:  models.ChannelWeb,
		Currency: models.CurrencyCRC,
		Total:    15000,
		Items:    items,
	}
}

func TestOrderService_CreateOrder_ResolvesTokensInOrder(t *testing.T) {
	service, orderRepo, catalog := newOrderService(t)

	// Mixed token kinds: canonical id, internal code, SKU and alternate code.
	req := validOrderRequest(
		services.OrderItemRequest{Product: catalog[0].ID, Quantity: 2, UnitPrice: 3500},
		services.OrderItemRequest{Product: "PRD-002", Quantity: 1, UnitPrice: 1200},
		services.OrderItemRequest{Product: "SKU-20", Quantity: 4, UnitPrice: 1200},
		services.OrderItemRequest{Product: "LEGACY-A", Quantity: 1, UnitPrice: 3500},
	)

	order, err := service.CreateOrder(req)
	require.NoError(t, err)
	require.Len(t, order.Items, 4)

	// Items keep their input position; quantity and unit price pass through
	// untouched; every product reference is the canonical identity.
	assert.Equal(t, catalog[0].ID, order.Items[0].ProductID)
	assert.Equal(t, catalog[1].ID, order.Items[1].ProductID)
	assert.Equal(t, catalog[1].ID, order.Items[2].ProductID)
	assert.Equal(t, catalog[0].ID, order.Items[3].ProductID)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, int64(3500), order.Items[0].UnitPrice)
	assert.Equal(t, 4, order.Items[2].Quantity)

	// Declared total is stored as received, not recomputed from the lines.
	assert.Equal(t, int64(15000), order.Total)

	stored, err := orderRepo.GetByID(order.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 4)
}

func TestOrderService_CreateOrder_UnresolvableTokenAborts(t *testing.T) {
	service, orderRepo, catalog := newOrderService(t)

	req := validOrderRequest(
		services.OrderItemRequest{Product: catalog[0].ID, Quantity: 1, UnitPrice: 3500},
		services.OrderItemRequest{Product: "NO-SUCH-TOKEN", Quantity: 1, UnitPrice: 100},
		services.OrderItemRequest{Product: "PRD-002", Quantity: 1, UnitPrice: 1200},
	)

	order, err := service.CreateOrder(req)
	assert.Nil(t, order)

	var resErr *models.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "NO-SUCH-TOKEN", resErr.Token)

	// Nothing was persisted: the failed line aborts the whole order.
	orders, err := orderRepo.GetAll()
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderService_CreateOrder_AmbiguousTokenRejected(t *testing.T) {
	productRepo, _ := seedCatalog(t)
	// A second product reusing PRD-001's SKU makes the token ambiguous.
	require.NoError(t, productRepo.Create(&models.Product{
		ID: "eeeeeeee-5555-4555-8555-555555555555", Code: "PRD-099", Name: "Decaf Beans", Category: "groceries", SKU: "SKU-10",
	}))
	orderRepo := repositories.NewMockOrderRepository()
	service := services.NewOrderService(orderRepo, services.NewProductService(productRepo), nil)

	req := validOrderRequest(services.OrderItemRequest{Product: "SKU-10", Quantity: 1, UnitPrice: 3500})

	order, err := service.CreateOrder(req)
	assert.Nil(t, order)

	var ambErr *models.AmbiguousTokenError
	require.ErrorAs(t, err, &ambErr)
	assert.Equal(t, "SKU-10", ambErr.Token)

	orders, _ := orderRepo.GetAll()
	assert.Empty(t, orders)
}

func TestOrderService_CreateOrder_Validation(t *testing.T) {
	service, orderRepo, catalog := newOrderService(t)

	tests := []struct {
		name   string
		mutate func(req *services.OrderRequest)
	}{
		{"missing client", func(req *services.OrderRequest) { req.ClientID = "" }},
		{"unknown channel", func(req *services.OrderRequest) { req.Channel = "phone" }},
		{"unsupported currency", func(req *services.OrderRequest) { req.Currency = "USD" }},
		{"negative total", func(req *services.OrderRequest) { req.Total = -1 }},
		{"empty items", func(req *services.OrderRequest) { req.Items = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validOrderRequest(services.OrderItemRequest{Product: catalog[0].ID, Quantity: 1, UnitPrice: 3500})
			tt.mutate(req)

			order, err := service.CreateOrder(req)
			assert.Nil(t, order)

			var vErrs validator.ValidationErrors
			assert.ErrorAs(t, err, &vErrs)
		})
	}

	// Item-level constraints go through the same validator.
	t.Run("zero quantity", func(t *testing.T) {
		req := validOrderRequest(services.OrderItemRequest{Product: catalog[0].ID, Quantity: 0, UnitPrice: 3500})
		order, err := service.CreateOrder(req)
		assert.Nil(t, order)

		var vErrs validator.ValidationErrors
		assert.ErrorAs(t, err, &vErrs)
	})

	orders, _ := orderRepo.GetAll()
	assert.Empty(t, orders)
}

func TestOrderService_UpdateOrder_ReplacesWholesale(t *testing.T) {
	service, orderRepo, catalog := newOrderService(t)

	created, err := service.CreateOrder(validOrderRequest(
		services.OrderItemRequest{Product: "PRD-001", Quantity: 2, UnitPrice: 3500},
		services.OrderItemRequest{Product: "PRD-002", Quantity: 1, UnitPrice: 1200},
	))
	require.NoError(t, err)

	replacement := validOrderRequest(
		services.OrderItemRequest{Product: catalog[2].ID, Quantity: 1, UnitPrice: 9000},
	)
	replacement.Channel = models.ChannelStore
	replacement.Total = 9000

	updated, err := service.UpdateOrder(created.ID, replacement)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	stored, err := orderRepo.GetByID(created.ID)
	require.NoError(t, err)
	// The previous item list is gone, not merged.
	require.Len(t, stored.Items, 1)
	assert.Equal(t, catalog[2].ID, stored.Items[0].ProductID)
	assert.Equal(t, models.ChannelStore, stored.Channel)
	assert.Equal(t, int64(9000), stored.Total)
}

func TestOrderService_UpdateOrder_NotFoundVsUnresolvable(t *testing.T) {
	service, _, catalog := newOrderService(t)

	// A missing order is a not-found error, not a resolution failure.
	_, err := service.UpdateOrder("ffffffff-0000-4000-8000-000000000000",
		validOrderRequest(services.OrderItemRequest{Product: catalog[0].ID, Quantity: 1, UnitPrice: 3500}))
	assert.ErrorIs(t, err, models.ErrOrderNotFound)

	// And an unresolvable token is a resolution failure, not a not-found.
	created, err := service.CreateOrder(validOrderRequest(
		services.OrderItemRequest{Product: catalog[0].ID, Quantity: 1, UnitPrice: 3500}))
	require.NoError(t, err)

	_, err = service.UpdateOrder(created.ID,
		validOrderRequest(services.OrderItemRequest{Product: "GHOST", Quantity: 1, UnitPrice: 1}))
	var resErr *models.ResolutionError
	assert.ErrorAs(t, err, &resErr)
	assert.NotErrorIs(t, err, models.ErrOrderNotFound)
}

func TestOrderService_DeleteOrder(t *testing.T) {
	service, orderRepo, catalog := newOrderService(t)

	created, err := service.CreateOrder(validOrderRequest(
		services.OrderItemRequest{Product: catalog[0].ID, Quantity: 1, UnitPrice: 3500}))
	require.NoError(t, err)

	require.NoError(t, service.DeleteOrder(created.ID))

	_, err = orderRepo.GetByID(created.ID)
	assert.ErrorIs(t, err, models.ErrOrderNotFound)

	err = service.DeleteOrder(created.ID)
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}
