package handlers

import (
	"errors"

	"backoffice/internal/models"
	"backoffice/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// respondError maps the service error taxonomy onto HTTP statuses.
//
// ResolutionError (a stale or malformed token) and the not-found sentinels (a
// missing update/delete target) both originate from "no matching record" but
// must stay distinguishable: the former is the caller's payload being wrong,
// the latter the caller's route.
func respondError(c *fiber.Ctx, message string, err error) error {
	var resErr *models.ResolutionError
	var ambErr *models.AmbiguousTokenError
	var valErrs validator.ValidationErrors

	switch {
	case errors.As(err, &resErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": message,
			"error":   resErr.Error(),
			"token":   resErr.Token,
		})
	case errors.As(err, &ambErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": message,
			"error":   ambErr.Error(),
			"token":   ambErr.Token,
		})
	case errors.As(err, &valErrs):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": message,
			"errors":  validationMessages(valErrs),
		})
	case errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrProductNotFound),
		errors.Is(err, models.ErrClientNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrNoWarehouseMapping):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	}
}

func validationMessages(errs validator.ValidationErrors) map[string]string {
	messages := make(map[string]string, len(errs))
	for _, e := range errs {
		messages[e.Field()] = "failed on the '" + e.Tag() + "' tag"
	}
	return messages
}
