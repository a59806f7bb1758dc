package controller

import (
	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
	Comment(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService service.IDocumentService
}

func NewDocumentController(documentService service.IDocumentService) IDocumentController {
	return &documentController{
		documentService: documentService,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Post("upload", c.Upload)
	h.Get("stats", c.Stats)
	h.Get("", c.List)
	h.Get(":id/comment", c.Comment)
	h.Delete(":id", c.Delete)
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	filename, content, err := readFormFile(ctx, "file")
	if err != nil {
		return err
	}

	req := dto.UploadDocumentRequest{
		DocumentId: ctx.FormValue("document_id"),
		Namespace:  ctx.FormValue("namespace"),
		Filename:   filename,
		Content:    content,
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.documentService.Upload(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Document processed", res))
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	res, err := c.documentService.List(ctx.UserContext(), ctx.Query("namespace"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list documents", res))
}

func (c *documentController) Stats(ctx *fiber.Ctx) error {
	res, err := c.documentService.Stats(ctx.UserContext(), ctx.Query("namespace"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get stats", res))
}

func (c *documentController) Comment(ctx *fiber.Ctx) error {
	res, err := c.documentService.Comment(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get comment", res))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	res, err := c.documentService.Delete(ctx.UserContext(), ctx.Params("id"), ctx.Query("namespace"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Document deleted", res))
}
