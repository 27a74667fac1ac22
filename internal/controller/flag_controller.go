package controller

import (
	"legal-indexer-be/internal/dto"
	"legal-indexer-be/internal/pkg/serverutils"
	"legal-indexer-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IFlagController interface {
	RegisterRoutes(r fiber.Router)
	FlagDocuments(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	UpdateStatus(ctx *fiber.Ctx) error
	Unflag(ctx *fiber.Ctx) error
}

type flagController struct {
	flagService service.IFlagService
}

func NewFlagController(flagService service.IFlagService) IFlagController {
	return &flagController{
		flagService: flagService,
	}
}

func (c *flagController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/flag/v1")
	h.Post("", c.FlagDocuments)
	h.Get("", c.List)
	h.Post("status", c.UpdateStatus)
	h.Post("unflag", c.Unflag)
	h.Get(":documentId", c.Show)
}

func (c *flagController) FlagDocuments(ctx *fiber.Ctx) error {
	var req dto.FlagDocumentsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.flagService.SubmitFlagging(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse(res.Message, res))
}

func (c *flagController) List(ctx *fiber.Ctx) error {
	var req dto.ListFlagsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query")
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.flagService.ListFlags(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get flagged documents", res))
}

func (c *flagController) Show(ctx *fiber.Ctx) error {
	res, err := c.flagService.GetFlag(ctx.Context(), ctx.Params("documentId"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get flag", res))
}

func (c *flagController) UpdateStatus(ctx *fiber.Ctx) error {
	var req dto.UpdateFlagStatusRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.flagService.UpdateStatus(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update flag status", res))
}

func (c *flagController) Unflag(ctx *fiber.Ctx) error {
	var req dto.UnflagRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.flagService.Unflag(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success unflag documents", res))
}
