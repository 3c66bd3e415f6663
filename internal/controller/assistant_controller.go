package controller

import (
	"ai-assistant-be/internal/dto"
	"ai-assistant-be/internal/pkg/serverutils"
	"ai-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	SendChat(ctx *fiber.Ctx) error
	UpdateConfig(ctx *fiber.Ctx) error
	Ingest(ctx *fiber.Ctx) error
}

type assistantController struct {
	assistantService service.IAssistantService
	ingestService    service.IIngestService
}

func NewAssistantController(assistantService service.IAssistantService, ingestService service.IIngestService) IAssistantController {
	return &assistantController{
		assistantService: assistantService,
		ingestService:    ingestService,
	}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1")
	h.Post("session", c.CreateSession)
	h.Get("session/:id/history", c.GetHistory)
	h.Post("chat", c.SendChat)
	h.Put("config", c.UpdateConfig)
	h.Post("ingest", c.Ingest)
}

func (c *assistantController) CreateSession(ctx *fiber.Ctx) error {
	res, err := c.assistantService.CreateSession(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session created", res))
}

func (c *assistantController) GetHistory(ctx *fiber.Ctx) error {
	sessionID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	res, err := c.assistantService.GetHistory(ctx.Context(), sessionID)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *assistantController) SendChat(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.SendChat(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *assistantController) UpdateConfig(ctx *fiber.Ctx) error {
	var req dto.UpdateConfigRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.assistantService.UpdateConfig(ctx.Context(), &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Configuration applied", c.assistantService.ActiveConfig()))
}

func (c *assistantController) Ingest(ctx *fiber.Ctx) error {
	count, err := c.ingestService.IngestDirectory(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Ingestion started", dto.IngestResponse{Documents: count}))
}
