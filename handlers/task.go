// handlers/task_routes.go
package handlers

import (
	"task-reward-system/middleware"
	"task-reward-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTaskRoutes(app *fiber.App, taskService *services.TaskService) {
	// 🔓 Public routes — *no user context*, but **still require Gateway auth**
	app.Get("/tasks", taskService.GetTasks)
	app.Get("/tasks/:id", taskService.GetTask)

	// 🔐 Secured routes — require user context (userID, roles), enforced via middleware
	secured := app.Group("/s", middleware.UserContextMiddleware())

	// 🔒 Admin-only task management — catalog CRUD and drafts
	admin := secured.Group("/admin", middleware.RequireAdmin())
	admin.Get("/tasks", taskService.GetAllTasks)
	admin.Post("/tasks", taskService.CreateTask)
	admin.Put("/tasks/:id", taskService.UpdateTask)
	admin.Patch("/tasks/:id", taskService.UpdateTask)
	admin.Delete("/tasks/:id", taskService.DeleteTask)
}
