package tracking

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"backend-pawtrail/internal/detect"
)

// Routes act on the authenticated user from the JWT claims; a caller
// cannot drive another user's engine by naming them in the body.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/samples", authMiddleware, func(c *fiber.Ctx) error {
		userID := claimedUserID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing user identity")
		}
		var body Sample
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		result, err := svc.Ingest(c.Context(), userID, body)
		if err != nil {
			return trackingError(err)
		}
		return c.JSON(result)
	})

	r.Post("/walks/start", authMiddleware, func(c *fiber.Ctx) error {
		userID := claimedUserID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing user identity")
		}
		var body Sample
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		result, err := svc.StartWalk(c.Context(), userID, body)
		if err != nil {
			return trackingError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(result)
	})

	r.Post("/walks/stop", authMiddleware, func(c *fiber.Ctx) error {
		userID := claimedUserID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing user identity")
		}
		var body struct {
			RecordedAt time.Time `json:"recorded_at"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		result, err := svc.StopWalk(c.Context(), userID, body.RecordedAt)
		if err != nil {
			return trackingError(err)
		}
		return c.JSON(result)
	})

	r.Get("/status", authMiddleware, func(c *fiber.Ctx) error {
		userID := claimedUserID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing user identity")
		}
		return c.JSON(svc.Status(userID))
	})
}

func claimedUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

func trackingError(err error) error {
	switch {
	case errors.Is(err, detect.ErrNoHomeZone):
		return fiber.NewError(fiber.StatusPreconditionFailed, err.Error())
	case errors.Is(err, detect.ErrWalkInProgress), errors.Is(err, detect.ErrNoWalkInProgress):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
