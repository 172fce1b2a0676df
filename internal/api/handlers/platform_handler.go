package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/viralflow/internal/service"
	"github.com/maheshrc27/viralflow/internal/transfer"
)

type PlatformHandler struct {
	ps service.PlatformService
	vs service.ValidationService
}

func NewPlatformHandler(ps service.PlatformService, vs service.ValidationService) *PlatformHandler {
	return &PlatformHandler{ps: ps, vs: vs}
}

func (h *PlatformHandler) Connect(c *fiber.Ctx) error {
	platform := c.Params("platform")

	var req transfer.ConnectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}
	if err := h.vs.ValidateConnect(platform, &req); err != nil {
		return errorResponse(c, err)
	}

	res, err := h.ps.Connect(c.UserContext(), platform, req.Credentials)
	if err != nil {
		return errorResponse(c, err)
	}
	if !res.Success {
		return c.Status(fiber.StatusUnauthorized).JSON(res)
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

func (h *PlatformHandler) ListPlatforms(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.ps.Status(c.UserContext()))
}

func (h *PlatformHandler) Revoke(c *fiber.Ctx) error {
	if err := h.ps.Revoke(c.UserContext(), c.Params("platform")); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
