package handlers

import (
	"backoffice/internal/models"
	"backoffice/internal/services"
	"backoffice/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ClientHandler handles HTTP requests for clients.
type ClientHandler struct {
	service  *services.ClientService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(service *services.ClientService) *ClientHandler {
	return &ClientHandler{
		service:  service,
		validate: validator.New(),
		logger:   util.GetLogger(),
	}
}

// RegisterRoutes registers the client routes with the Fiber app.
func (h *ClientHandler) RegisterRoutes(router fiber.Router) {
	clientRoutes := router.Group("/clients")
	clientRoutes.Get("/", h.HandleGetClients)
	clientRoutes.Get("/:id", h.HandleGetClientByID)
	clientRoutes.Post("/", h.HandleCreateClient)
	clientRoutes.Put("/:id", h.HandleUpdateClient)
	clientRoutes.Delete("/:id", h.HandleDeleteClient)
}

// HandleGetClients retrieves all clients.
func (h *ClientHandler) HandleGetClients(c *fiber.Ctx) error {
	clients, err := h.service.GetAllClients()
	if err != nil {
		h.logger.Error("error getting all clients", zap.Error(err))
		return respondError(c, "Could not retrieve clients", err)
	}
	return c.JSON(clients)
}

// HandleGetClientByID retrieves a single client by its ID.
func (h *ClientHandler) HandleGetClientByID(c *fiber.Ctx) error {
	clientID := c.Params("id")
	client, err := h.service.GetClientByID(clientID)
	if err != nil {
		return respondError(c, "Could not retrieve client", err)
	}
	return c.JSON(client)
}

// HandleCreateClient creates a new client.
func (h *ClientHandler) HandleCreateClient(c *fiber.Ctx) error {
	var client models.Client
	if err := c.BodyParser(&client); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(client); err != nil {
		return respondError(c, "Validation failed", err)
	}

	if err := h.service.CreateClient(&client); err != nil {
		h.logger.Error("error creating client", zap.Error(err))
		return respondError(c, "Could not create client", err)
	}

	return c.Status(fiber.StatusCreated).JSON(client)
}

// HandleUpdateClient updates an existing client.
func (h *ClientHandler) HandleUpdateClient(c *fiber.Ctx) error {
	var client models.Client
	if err := c.BodyParser(&client); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	client.ID = c.Params("id")

	if err := h.validate.Struct(client); err != nil {
		return respondError(c, "Validation failed", err)
	}

	if err := h.service.UpdateClient(&client); err != nil {
		return respondError(c, "Could not update client", err)
	}

	return c.JSON(client)
}

// HandleDeleteClient deletes a client by its ID. Orders referencing the
// client keep their reference.
func (h *ClientHandler) HandleDeleteClient(c *fiber.Ctx) error {
	clientID := c.Params("id")
	if err := h.service.DeleteClient(clientID); err != nil {
		return respondError(c, "Could not delete client", err)
	}
	return c.JSON(fiber.Map{
		"message": "Client deleted successfully",
	})
}
