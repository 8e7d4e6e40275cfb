package tracking

import (
	"bytes"
	"errors"

	"backend-ridecoach/internal/advisor"
	"backend-ridecoach/internal/export"
	"backend-ridecoach/internal/recorder"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/", func(c *fiber.Ctx) error {
		var req Session
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.RiderID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "rider_id required")
		}
		session, err := svc.StartSession(c.Context(), req)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	})

	r.Post("/:id/start", func(c *fiber.Ctx) error {
		session, err := svc.RestartSession(c.Context(), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(session)
	})

	r.Post("/:id/points", func(c *fiber.Ctx) error {
		var req TrackPoint
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
			return fiber.NewError(fiber.StatusBadRequest, "lat/lng out of range")
		}
		point, err := svc.AddPoint(c.Context(), c.Params("id"), req)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusAccepted).JSON(point)
	})

	r.Post("/:id/fix-errors", func(c *fiber.Ctx) error {
		var body struct {
			Reason string `json:"reason"`
		}
		_ = c.BodyParser(&body)
		if err := svc.ReportFixError(c.Context(), c.Params("id"), body.Reason); err != nil {
			return httpError(err)
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Post("/:id/stop", func(c *fiber.Ctx) error {
		summary, err := svc.StopSession(c.Context(), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(summary)
	})

	r.Get("/:id/summary", func(c *fiber.Ctx) error {
		summary, err := svc.Summary(c.Context(), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(summary)
	})

	r.Get("/:id/points", func(c *fiber.Ctx) error {
		points, err := svc.Points(c.Context(), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(points)
	})

	r.Post("/:id/advice", func(c *fiber.Ctx) error {
		insight, err := svc.Advise(c.Context(), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(insight)
	})

	r.Get("/:id/advice", func(c *fiber.Ctx) error {
		insight, err := svc.Insight(c.Context(), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(insight)
	})

	r.Get("/:id/export.gpx", func(c *fiber.Ctx) error {
		data, err := svc.ExportGPX(c.Context(), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		c.Attachment(c.Params("id") + ".gpx")
		c.Set(fiber.HeaderContentType, "application/gpx+xml")
		return c.Send(data)
	})

	r.Get("/:id/export.fit", func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		if err := svc.ExportFIT(c.Context(), c.Params("id"), &buf); err != nil {
			return httpError(err)
		}
		c.Attachment(c.Params("id") + ".fit")
		c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
		return c.Send(buf.Bytes())
	})
}

func httpError(err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrNoInsight):
		status = fiber.StatusNotFound
	case errors.Is(err, ErrNotRecording), errors.Is(err, ErrRideActive):
		status = fiber.StatusConflict
	case errors.Is(err, advisor.ErrInsufficientData), errors.Is(err, export.ErrEmptyRoute):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, ErrAdvisorDisabled), errors.Is(err, recorder.ErrBacklogFull), errors.Is(err, recorder.ErrNotSubscribed):
		status = fiber.StatusServiceUnavailable
	case errors.Is(err, advisor.ErrUnavailable), errors.Is(err, advisor.ErrMalformedInsight):
		status = fiber.StatusBadGateway
	}
	return fiber.NewError(status, err.Error())
}
