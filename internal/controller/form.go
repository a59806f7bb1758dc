package controller

import (
	"fmt"
	"io"

	"ai-tutor-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// readFormFile returns the name and content of a multipart file field.
func readFormFile(ctx *fiber.Ctx, field string) (string, []byte, error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		return "", nil, apperror.Validation(fmt.Sprintf("multipart field %q is required", field))
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, apperror.Validation(fmt.Sprintf("cannot read %q: %v", field, err))
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, apperror.Validation(fmt.Sprintf("cannot read %q: %v", field, err))
	}
	if len(data) == 0 {
		return "", nil, apperror.Validation(fmt.Sprintf("%q is empty", field))
	}
	return fh.Filename, data, nil
}

func parseBody(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		return apperror.Validation("invalid request body: " + err.Error())
	}
	return nil
}
