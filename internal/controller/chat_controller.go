package controller

import (
	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Greet(ctx *fiber.Ctx) error
	Text(ctx *fiber.Ctx) error
	Voice(ctx *fiber.Ctx) error
	Transcribe(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Get("greet", c.Greet)
	h.Post("text", c.Text)
	h.Post("voice", c.Voice)

	r.Post("/speech/v1/stt", c.Transcribe)
}

func (c *chatController) Greet(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success", c.chatService.Greet(ctx.UserContext())))
}

func (c *chatController) Text(ctx *fiber.Ctx) error {
	var req dto.ChatTextRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.ChatText(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *chatController) Voice(ctx *fiber.Ctx) error {
	filename, audio, err := readFormFile(ctx, "audio")
	if err != nil {
		return err
	}
	req := dto.ChatVoiceRequest{
		SessionId:  ctx.FormValue("session_id"),
		UseRag:     ctx.FormValue("use_rag"),
		Namespace:  ctx.FormValue("namespace"),
		DocumentId: ctx.FormValue("document_id"),
		Filename:   filename,
		Audio:      audio,
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.ChatVoice(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *chatController) Transcribe(ctx *fiber.Ctx) error {
	filename, audio, err := readFormFile(ctx, "audio")
	if err != nil {
		return err
	}
	res, err := c.chatService.Transcribe(ctx.UserContext(), filename, audio)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}
