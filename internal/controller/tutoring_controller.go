package controller

import (
	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ITutoringController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	Turn(ctx *fiber.Ctx) error
	Answer(ctx *fiber.Ctx) error
	Advance(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type tutoringController struct {
	tutoringService service.ITutoringService
}

func NewTutoringController(tutoringService service.ITutoringService) ITutoringController {
	return &tutoringController{
		tutoringService: tutoringService,
	}
}

func (c *tutoringController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/tutoring/v1")
	h.Post("start", c.Start)
	h.Post("turn", c.Turn)
	h.Post("answer", c.Answer)
	h.Post("advance", c.Advance)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Delete)
}

func (c *tutoringController) Start(ctx *fiber.Ctx) error {
	var req dto.StartTutoringRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.tutoringService.Start(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Tutoring session started", res))
}

func (c *tutoringController) Turn(ctx *fiber.Ctx) error {
	var req dto.TutoringTurnRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.tutoringService.Turn(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *tutoringController) Answer(ctx *fiber.Ctx) error {
	var req dto.SubmitAnswerRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.tutoringService.Answer(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Answer graded", res))
}

func (c *tutoringController) Advance(ctx *fiber.Ctx) error {
	var req dto.AdvanceRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.tutoringService.Advance(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *tutoringController) Show(ctx *fiber.Ctx) error {
	res, err := c.tutoringService.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *tutoringController) Delete(ctx *fiber.Ctx) error {
	if err := c.tutoringService.Delete(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session deleted", nil))
}
