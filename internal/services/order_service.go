package services

import (
	"fmt"
	"time"

	"backoffice/internal/models"
	"backoffice/internal/repositories"
	"backoffice/internal/util"
	"backoffice/pkg/rabbitmq"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// OrderService handles order ingestion: product token resolution, item
// normalization and the order write path.
type OrderService struct {
	orderRepo      repositories.OrderRepository
	productService *ProductService
	mqClient       *rabbitmq.Client
	validate       *validator.Validate
	logger         *zap.Logger
}

// NewOrderService creates a new OrderService. mqClient may be nil; event
// publication is then skipped.
func NewOrderService(orderRepo repositories.OrderRepository, productService *ProductService, mqClient *rabbitmq.Client) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		productService: productService,
		mqClient:       mqClient,
		validate:       validator.New(),
		logger:         util.GetLogger(),
	}
}

// OrderItemRequest is a raw incoming line item. Product carries an opaque
// token: a canonical product identity or any of its alternate codes.
type OrderItemRequest struct {
	Product   string `json:"product" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	UnitPrice int64  `json:"unit_price" validate:"gte=0"`
}

// OrderRequest is the caller-supplied shape for creating or replacing an
// order. The declared total is stored as-is; it is not checked against the
// sum of line totals.
type OrderRequest struct {
	ClientID string             `json:"client_id" validate:"required"`
	Channel  string             `json:"channel" validate:"required,oneof=web store app"`
	Currency string             `json:"currency" validate:"required,oneof=CRC"`
	Total    int64              `json:"total" validate:"gte=0"`
	Items    []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Coupon   string             `json:"coupon,omitempty"`
}

// GetAllOrders retrieves all orders.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// normalizeItems resolves every line item's product token to a canonical
// product identity, strictly in input order. The first unresolvable token
// aborts the whole normalization; quantity and unit price pass through
// untouched. Lookups run sequentially so the failure always names the first
// offending token.
func (s *OrderService) normalizeItems(items []OrderItemRequest) ([]models.OrderItem, error) {
	normalized := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		product, err := s.productService.LookupByToken(item.Product)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, models.OrderItem{
			ProductID: product.ID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return normalized, nil
}

// buildOrder normalizes the request's items and validates the resulting
// order entity. No write happens here.
func (s *OrderService) buildOrder(req *OrderRequest) (*models.Order, error) {
	items, err := s.normalizeItems(req.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ClientID: req.ClientID,
		PlacedAt: time.Now(),
		Channel:  req.Channel,
		Currency: req.Currency,
		Total:    req.Total,
		Items:    items,
		Coupon:   req.Coupon,
	}

	if err := s.validate.Struct(order); err != nil {
		return nil, err
	}
	return order, nil
}

// CreateOrder normalizes, validates and persists a new order. Normalization
// fully completes (or fails) before any persistence call, so a failed create
// leaves no partial state.
func (s *OrderService) CreateOrder(req *OrderRequest) (*models.Order, error) {
	order, err := s.buildOrder(req)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	if err := s.orderRepo.Create(order); err != nil {
		util.OrdersFailedTotal.WithLabelValues("backend").Inc()
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("client_id", order.ClientID),
		zap.Int("items", len(order.Items)))

	s.publishEvent(rabbitmq.KeyOrderCreated, order)
	return order, nil
}

// UpdateOrder re-runs the full normalize-then-validate pipeline against the
// new payload and replaces the stored order wholesale, items included. It
// does not diff against the previous version.
func (s *OrderService) UpdateOrder(id string, req *OrderRequest) (*models.Order, error) {
	order, err := s.buildOrder(req)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}
	order.ID = id

	if err := s.orderRepo.Replace(order); err != nil {
		return nil, err
	}

	s.logger.Info("order replaced",
		zap.String("order_id", order.ID),
		zap.Int("items", len(order.Items)))

	s.publishEvent(rabbitmq.KeyOrderUpdated, order)
	return order, nil
}

// DeleteOrder removes an order. Items are embedded in the order, so no
// item-level cleanup or resolution is needed.
func (s *OrderService) DeleteOrder(id string) error {
	if err := s.orderRepo.Delete(id); err != nil {
		return err
	}

	s.logger.Info("order deleted", zap.String("order_id", id))

	if s.mqClient != nil {
		if err := s.mqClient.PublishOrderEvent(rabbitmq.KeyOrderDeleted, map[string]interface{}{
			"order_id": id,
		}); err != nil {
			s.logger.Warn("failed to publish order deleted event",
				zap.String("order_id", id), zap.Error(err))
		}
	}
	return nil
}

// publishEvent publishes an order lifecycle event. Publication is
// best-effort: the order is already persisted, so a broker failure only gets
// logged.
func (s *OrderService) publishEvent(routingKey string, order *models.Order) {
	if s.mqClient == nil {
		return
	}
	payload := map[string]interface{}{
		"order_id":  order.ID,
		"client_id": order.ClientID,
		"channel":   order.Channel,
		"currency":  order.Currency,
		"total":     order.Total,
		"items":     len(order.Items),
	}
	if err := s.mqClient.PublishOrderEvent(routingKey, payload); err != nil {
		s.logger.Warn("failed to publish order event",
			zap.String("routing_key", routingKey),
			zap.String("order_id", order.ID),
			zap.Error(err))
	}
}

func failureReason(err error) string {
	switch err.(type) {
	case *models.ResolutionError:
		return "unresolved_token"
	case *models.AmbiguousTokenError:
		return "ambiguous_token"
	case validator.ValidationErrors:
		return "validation"
	default:
		return "backend"
	}
}
