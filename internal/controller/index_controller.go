package controller

import (
	"legal-indexer-be/internal/dto"
	"legal-indexer-be/internal/pkg/serverutils"
	"legal-indexer-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IIndexController interface {
	RegisterRoutes(r fiber.Router)
	BulkIndex(ctx *fiber.Ctx) error
}

type indexController struct {
	indexService service.IIndexService
}

func NewIndexController(indexService service.IIndexService) IIndexController {
	return &indexController{
		indexService: indexService,
	}
}

func (c *indexController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/index/v1")
	h.Post("bulk", c.BulkIndex)
}

func (c *indexController) BulkIndex(ctx *fiber.Ctx) error {
	var req dto.BulkIndexRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.indexService.SubmitBulkIndex(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse(res.Message, res))
}
