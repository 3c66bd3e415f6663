package serverutils

import (
	"errors"

	"ai-assistant-be/pkg/errs"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateRequest runs struct-tag validation on a parsed request body.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

func SuccessResponse(message string, data interface{}) fiber.Map {
	return fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	}
}

func ErrorResponse(message string) fiber.Map {
	return fiber.Map{
		"success": false,
		"message": message,
	}
}

// ErrorHandlerMiddleware maps the error taxonomy to HTTP status codes so
// callers can tell a gateway outage from a pipeline bug or a bad request.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		var gatewayErr *errs.GatewayError
		if errors.As(err, &gatewayErr) {
			return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(gatewayErr.Error()))
		}

		var validationErr *errs.ValidationError
		if errors.As(err, &validationErr) {
			return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(validationErr.Error()))
		}

		var routingErr *errs.RoutingError
		if errors.As(err, &routingErr) {
			return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(routingErr.Error()))
		}

		var configErr *errs.ConfigurationError
		if errors.As(err, &configErr) {
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse(configErr.Error()))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(err.Error()))
	}
}
