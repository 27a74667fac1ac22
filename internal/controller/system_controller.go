package controller

import (
	"legal-indexer-be/internal/constant"
	"legal-indexer-be/internal/dto"
	"legal-indexer-be/internal/pkg/serverutils"
	"legal-indexer-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISystemController interface {
	RegisterRoutes(r fiber.Router)
	Reset(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
	GetLogs(ctx *fiber.Ctx) error
}

type systemController struct {
	systemService  service.ISystemService
	adminJWTSecret string
}

func NewSystemController(systemService service.ISystemService, adminJWTSecret string) ISystemController {
	return &systemController{
		systemService:  systemService,
		adminJWTSecret: adminJWTSecret,
	}
}

func (c *systemController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/system/v1")
	h.Get("health", c.Health)

	admin := serverutils.AdminMiddleware(c.adminJWTSecret)
	h.Delete("reset", admin, c.Reset)
	h.Get("logs", admin, c.GetLogs)
}

func (c *systemController) Reset(ctx *fiber.Ctx) error {
	if err := c.systemService.Reset(ctx.Context()); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any](constant.ResetMessage, nil))
}

func (c *systemController) Health(ctx *fiber.Ctx) error {
	res, err := c.systemService.Health(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Service is healthy", res))
}

func (c *systemController) GetLogs(ctx *fiber.Ctx) error {
	var req dto.LogsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query")
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.systemService.GetLogs(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get logs", res))
}
