package handlers

import (
	"backoffice/internal/services"
	"backoffice/internal/util"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RecommendationHandler serves association-rule recommendations from the
// analytical warehouse.
type RecommendationHandler struct {
	service *services.RecommendationService
	logger  *zap.Logger
}

// NewRecommendationHandler creates a new RecommendationHandler.
func NewRecommendationHandler(service *services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		service: service,
		logger:  util.GetLogger(),
	}
}

// RegisterRoutes registers the recommendation routes with the Fiber app.
func (h *RecommendationHandler) RegisterRoutes(router fiber.Router) {
	recRoutes := router.Group("/recommendations")
	recRoutes.Get("/products/:token", h.HandleForProduct)
	recRoutes.Post("/cart", h.HandleForCart)
	recRoutes.Get("/stats", h.HandleStats)
}

// HandleForProduct returns the top association rules for one product. The
// token may be any resolvable product identifier.
func (h *RecommendationHandler) HandleForProduct(c *fiber.Ctx) error {
	token := c.Params("token")
	topN := c.QueryInt("top_n")

	recs, err := h.service.ForProduct(c.Context(), token, topN)
	if err != nil {
		h.logger.Warn("error getting product recommendations",
			zap.String("token", token), zap.Error(err))
		return respondError(c, "Could not retrieve recommendations", err)
	}
	return c.JSON(recs)
}

// CartRecommendationRequest is the request body for cart recommendations.
type CartRecommendationRequest struct {
	Products []string `json:"products"`
	TopN     int      `json:"top_n"`
}

// HandleForCart returns the top association rules for a cart of products.
func (h *RecommendationHandler) HandleForCart(c *fiber.Ctx) error {
	var req CartRecommendationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if len(req.Products) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "At least one product token is required",
		})
	}

	recs, err := h.service.ForCart(c.Context(), req.Products, req.TopN)
	if err != nil {
		h.logger.Warn("error getting cart recommendations", zap.Error(err))
		return respondError(c, "Could not retrieve cart recommendations", err)
	}
	return c.JSON(recs)
}

// HandleStats returns summary statistics of the warehouse rule set.
func (h *RecommendationHandler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.Context())
	if err != nil {
		h.logger.Warn("error getting warehouse stats", zap.Error(err))
		return respondError(c, "Could not retrieve warehouse stats", err)
	}
	return c.JSON(stats)
}
