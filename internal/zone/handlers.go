package zone

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Put("/home", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			UserID   string  `json:"user_id"`
			Lat      float64 `json:"lat"`
			Lng      float64 `json:"lng"`
			RadiusKm float64 `json:"radius_km"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if body.UserID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		z, err := svc.SetHome(c.Context(), body.UserID, body.Lat, body.Lng, body.RadiusKm)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(z)
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Zone
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.UserID == "" || req.Name == "" || req.RadiusKm <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "user_id, name and positive radius_km required")
		}
		z, err := svc.CreateZone(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(z)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		userID := c.Query("user_id")
		if userID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		zones, err := svc.ListZones(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(zones)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		z, err := svc.GetZone(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "zone not found")
		}
		return c.JSON(z)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req Patch
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		z, err := svc.UpdateZone(c.Context(), c.Params("id"), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(z)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeleteZone(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
