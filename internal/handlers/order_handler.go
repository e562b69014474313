package handlers

import (
	"backoffice/internal/services"
	"backoffice/internal/util"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
	logger  *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  util.GetLogger(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Put("/:id", h.HandleUpdateOrder)
	orderRoutes.Delete("/:id", h.HandleDeleteOrder)
}

// HandleGetOrders retrieves all orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders()
	if err != nil {
		h.logger.Error("error getting all orders", zap.Error(err))
		return respondError(c, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrderByID(orderID)
	if err != nil {
		return respondError(c, "Could not retrieve order", err)
	}
	return c.JSON(order)
}

// HandleCreateOrder creates a new order. Item product fields are opaque
// tokens; the service resolves them to canonical product identities before
// anything is written.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.OrderRequest
	if err := c.BodyParser(&req); err != nil {
		// Non-integer quantities, prices and totals fail here: the numeric
		// fields are integers and CRC has no minor unit.
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	createdOrder, err := h.service.CreateOrder(&req)
	if err != nil {
		h.logger.Warn("error creating order", zap.Error(err))
		return respondError(c, "Could not create order", err)
	}

	return c.Status(fiber.StatusCreated).JSON(createdOrder)
}

// HandleUpdateOrder replaces an existing order wholesale with the new
// payload.
func (h *OrderHandler) HandleUpdateOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")

	var req services.OrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	updatedOrder, err := h.service.UpdateOrder(orderID, &req)
	if err != nil {
		h.logger.Warn("error updating order", zap.String("order_id", orderID), zap.Error(err))
		return respondError(c, "Could not update order", err)
	}

	return c.JSON(updatedOrder)
}

// HandleDeleteOrder deletes an order by its ID.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	if err := h.service.DeleteOrder(orderID); err != nil {
		return respondError(c, "Could not delete order", err)
	}
	return c.JSON(fiber.Map{
		"message": "Order deleted successfully",
	})
}
