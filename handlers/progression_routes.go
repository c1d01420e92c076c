// handlers/progression_routes.go
package handlers

import (
	"strconv"
	"time"

	"task-reward-system/middleware"
	"task-reward-system/models"
	"task-reward-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupProgressionRoutes(app *fiber.App, progressionService *services.ProgressionService, badgeService *services.BadgeService, authClient *services.AuthServiceClient) {
	// SSE point feed — EventSource cannot set headers, so auth comes from query
	// params validated against the auth service instead of gateway headers.
	// Registered before the secured group so the header check never runs here.
	app.Get("/user/points/stream", middleware.SSEAuthMiddleware(authClient), progressionService.StreamUserPointsSSE)

	// 🔐 Secured routes — require user context (userID, roles)
	// The gateway forwards paths like /api/v1/tasks/user/progress -> /user/progress
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/user/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var prog *models.UserProgress
		var dbProg models.UserProgress

		if err := progressionService.DB.Where("external_user_id = ?", userID).First(&dbProg).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				var createErr error
				prog, createErr = progressionService.EnsureProgressRecord(userID)
				if createErr != nil {
					return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
						"error": "failed to create progress record",
						"cause": createErr.Error(),
					})
				}
			} else {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "DB error fetching progress",
					"cause": err.Error(),
				})
			}
		} else {
			prog = &dbProg
		}

		nextLevelAt := services.NextLevelAt(prog.Level)
		pointsToNext := nextLevelAt - prog.TotalPoints
		if pointsToNext < 0 {
			pointsToNext = 0
		}

		response := fiber.Map{
			"id":                    prog.ID,
			"total_points":          prog.TotalPoints,
			"level":                 prog.Level,
			"next_level_at":         nextLevelAt,
			"points_to_next_level":  pointsToNext,
			"tasks_completed_today": services.DailyTasksCompleted(prog, time.Now()),
			"total_tasks_completed": prog.TotalTasksCompleted,
			"total_submissions":     prog.TotalSubmissions,
			"total_rejected":        prog.TotalRejected,
			"last_level_up_at":      prog.LastLevelUpAt,
		}

		return c.JSON(response)
	})

	securedGroup.Get("/user/progress/history", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))

		history, err := progressionService.GetUserHistory(userID, page, size)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch history",
				"cause": err.Error(),
			})
		}
		return c.JSON(history)
	})

	securedGroup.Get("/user/progress/badges", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		type AwardedBadge struct {
			Code        string `json:"code"`
			Name        string `json:"name"`
			Description string `json:"description"`
			Rarity      string `json:"rarity"`
			AwardedAt   string `json:"awarded_at"`
		}
		var badges []AwardedBadge
		if err := badgeService.DB.Raw(`
		SELECT bt.code, bt.name, bt.description, bt.rarity, ub.awarded_at
		FROM user_badges ub
		INNER JOIN badge_types bt ON bt.id = ub.badge_type_id
		WHERE ub.external_user_id = ?
		ORDER BY ub.awarded_at DESC
	`, userID).Scan(&badges).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch badges",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"badges": badges})
	})

	// 🔒 Admin-only routes
	admin := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	admin.Get("/users/search", progressionService.SearchUsers)

	admin.Post("/points/grant", func(c *fiber.Ctx) error {
		var req struct {
			ExternalUserID string `json:"external_user_id" validate:"required"`
			Points         int    `json:"points" validate:"required"`
			Reason         string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		if req.ExternalUserID == "" || req.Points <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "external_user_id and positive points are required"})
		}

		prog, err := progressionService.GrantPoints(req.ExternalUserID, req.Points, models.PointReasonAdminGrant)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to grant points",
				"cause": err.Error(),
			})
		}
		return c.JSON(prog)
	})

	admin.Get("/users/:external_id/progress", func(c *fiber.Ctx) error {
		externalID := c.Params("external_id")

		var prog models.UserProgress
		if err := progressionService.DB.Where("external_user_id = ?", externalID).First(&prog).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no progress record for user"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error", "cause": err.Error()})
		}
		return c.JSON(prog)
	})
}
