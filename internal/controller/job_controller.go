package controller

import (
	"legal-indexer-be/internal/dto"
	"legal-indexer-be/internal/pkg/serverutils"
	"legal-indexer-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IJobController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
}

type jobController struct {
	jobService service.IJobService
}

func NewJobController(jobService service.IJobService) IJobController {
	return &jobController{
		jobService: jobService,
	}
}

func (c *jobController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/job/v1")
	h.Get(":id", c.Show)
}

func (c *jobController) Show(ctx *fiber.Ctx) error {
	job, err := c.jobService.GetJob(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get job", dto.NewJobResponse(job)))
}
