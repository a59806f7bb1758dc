package serverutils

import (
	"errors"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware renders any error returned down the chain as a BaseResponse.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, log, err)
	}
}

// FiberErrorHandler covers errors raised outside the middleware chain, such as unknown routes.
func FiberErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		return WriteError(ctx, log, err)
	}
}

func WriteError(ctx *fiber.Ctx, log logger.ILogger, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return ctx.Status(fe.Code).JSON(ErrorResponse(fe.Code, fiberErrorType(fe.Code), fe.Message, nil))
	}

	kind := apperror.KindOf(err)
	status := apperror.HTTPStatus(kind)

	var data interface{}
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Kind == apperror.KindIndexing {
		data = fiber.Map{"chunks_indexed": appErr.Indexed}
	}

	message := err.Error()
	if kind == apperror.KindInternal {
		log.Error("HTTP", "Unhandled error", map[string]interface{}{
			"path":  ctx.Path(),
			"error": err.Error(),
		})
		message = "internal server error"
	}
	return ctx.Status(status).JSON(ErrorResponse(status, string(kind), message, data))
}

func fiberErrorType(code int) string {
	switch code {
	case fiber.StatusNotFound:
		return string(apperror.KindNotFound)
	case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge, fiber.StatusUnprocessableEntity:
		return string(apperror.KindValidation)
	default:
		return "http_error"
	}
}
