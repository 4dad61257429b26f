package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/deployeval/internal/dto"
	"github.com/noah-isme/deployeval/internal/service"
	"github.com/noah-isme/deployeval/internal/utils"
)

// NotificationHandler exposes the notification receiver endpoints.
type NotificationHandler struct {
	notifications service.NotificationService
	stats         service.StatsService
	logger        zerolog.Logger
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(notifications service.NotificationService, stats service.StatsService, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		stats:         stats,
		logger:        logger.With().Str("component", "notification_handler").Logger(),
	}
}

// Register wires the receiver routes.
func (h *NotificationHandler) Register(router fiber.Router) {
	router.Post("/notify", h.receive)
	router.Get("/notifications", h.list)
	router.Delete("/notifications", h.clear)
	router.Get("/stats", h.statsOverview)
}

func (h *NotificationHandler) receive(c *fiber.Ctx) error {
	var payload dto.NotificationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.notifications.Receive(c.UserContext(), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidNotification):
			return utils.SendError(c, fiber.StatusBadRequest, "missing or malformed required fields")
		case errors.Is(err, service.ErrUnknownTask):
			return utils.SendError(c, fiber.StatusBadRequest, "invalid task/nonce combination")
		default:
			h.logger.Error().Err(err).Msg("failed to process notification")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to process notification")
		}
	}

	// Protocol response shape, not the generic envelope: participants
	// depend on {status, notification_id}.
	return c.Status(fiber.StatusOK).JSON(response)
}

func (h *NotificationHandler) list(c *fiber.Ctx) error {
	entries := h.notifications.Recent()
	return c.JSON(fiber.Map{
		"notifications": entries,
		"count":         len(entries),
	})
}

func (h *NotificationHandler) clear(c *fiber.Ctx) error {
	dropped := h.notifications.Clear()
	return utils.SendSuccess(c, "notifications cleared", fiber.Map{"cleared": dropped})
}

func (h *NotificationHandler) statsOverview(c *fiber.Ctx) error {
	overview, err := h.stats.Overview(c.UserContext())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build stats overview")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to build stats")
	}

	return c.JSON(overview)
}

// Root reports receiver status; participants use it as a liveness probe.
func (h *NotificationHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message":                "Deploy Eval notification receiver",
		"notifications_received": h.notifications.Received(),
	})
}
