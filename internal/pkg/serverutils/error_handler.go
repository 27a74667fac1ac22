package serverutils

import (
	"errors"

	"legal-indexer-be/internal/entity"
	"legal-indexer-be/pkg/chunker"

	"github.com/gofiber/fiber/v2"
)

// MapError turns an error into an HTTP status and a client-facing message.
func MapError(err error) (int, string) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return fiber.StatusBadRequest, validationErr.Error()
	}

	switch {
	case errors.Is(err, entity.ErrJobNotFound), errors.Is(err, entity.ErrFlagNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, entity.ErrJobTransition):
		return fiber.StatusConflict, err.Error()
	case errors.Is(err, entity.ErrInvalidThreshold),
		errors.Is(err, entity.ErrNoURLs),
		errors.Is(err, entity.ErrInvalidURL),
		errors.Is(err, entity.ErrEmptyLaw),
		errors.Is(err, entity.ErrInvalidStatus),
		errors.Is(err, chunker.ErrMissingURL):
		return fiber.StatusBadRequest, err.Error()
	}
	return fiber.StatusInternalServerError, err.Error()
}

func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		code, message := MapError(err)
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}
