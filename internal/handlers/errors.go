package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/profile-matcher/internal/apperrors"
)

var validate = validator.New()

// respondError writes err with the status its kind maps to.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	status := fiber.StatusInternalServerError
	switch appErr.Kind {
	case apperrors.KindValidation:
		status = fiber.StatusBadRequest
	case apperrors.KindNotFound:
		status = fiber.StatusNotFound
	case apperrors.KindTransient:
		status = fiber.StatusServiceUnavailable
	}

	body := fiber.Map{
		"error": appErr.Error(),
		"code":  appErr.Code,
	}
	if appErr.Details != "" {
		body["details"] = appErr.Details
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, format string, args ...interface{}) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": fmt.Sprintf(format, args...),
	})
}

// validateRequest runs struct validation and reports the first failing field.
func validateRequest(c *fiber.Ctx, req interface{}) (bool, error) {
	if err := validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			ve := validationErrors[0]
			return false, badRequest(c, "validation error: %s - %s", ve.Field(), ve.Tag())
		}
		return false, badRequest(c, "validation error: invalid request")
	}
	return true, nil
}
