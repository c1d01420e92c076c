// handlers/submission_routes.go
package handlers

import (
	"task-reward-system/middleware"
	"task-reward-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupSubmissionRoutes(app *fiber.App, submissionService *services.SubmissionService) {
	// 🔐 Secured routes — require user context (userID, roles)
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Post("/submissions", submissionService.CreateSubmission)
	secured.Get("/submissions/mine", submissionService.GetUserSubmissions)

	// 🔒 Admin review queue
	admin := secured.Group("/admin", middleware.RequireAdmin())
	admin.Get("/submissions/pending", submissionService.ListPendingSubmissions)
	admin.Post("/submissions/bulk-approve", submissionService.BulkApprove)
	admin.Post("/submissions/:id/review", submissionService.ReviewSubmission)

	// Duplicate-evidence flags
	admin.Get("/duplicates", submissionService.ListDuplicateFlags)
	admin.Post("/duplicates/:id/reviewed", submissionService.MarkDuplicateReviewed)
}
