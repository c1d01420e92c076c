// services/task_service.go
package services

import (
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"task-reward-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type TaskService struct {
	DB *gorm.DB
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{DB: db}
}

// MinimalTask struct for lightweight listing
type MinimalTask struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	Category      string `json:"category"`
	Difficulty    string `json:"difficulty"`
	BasePoints    int    `json:"base_points"`
	EstimatedTime string `json:"estimated_time"`
}

// CreateTask creates a new **draft** task (Admin only)
func (s *TaskService) CreateTask(c *fiber.Ctx) error {
	adminID := c.Locals("user_id").(string)

	var req struct {
		Title                string     `json:"title" validate:"required"`
		Description          string     `json:"description"`
		Category             string     `json:"category"`
		Difficulty           string     `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
		BasePoints           int        `json:"base_points" validate:"required,min=1"`
		TaskType             string     `json:"task_type"`
		EstimatedTime        string     `json:"estimated_time"`
		RequiresEvidenceText *bool      `json:"requires_evidence_text"`
		RequiresEvidenceFile *bool      `json:"requires_evidence_file"`
		MaxSubmissions       int        `json:"max_submissions"`
		Status               string     `json:"status" validate:"omitempty,oneof=draft scheduled published"`
		PublishAt            *time.Time `json:"publish_at"`
		Deadline             *time.Time `json:"deadline"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if strings.TrimSpace(req.Title) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}
	if req.BasePoints < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "base_points must be at least 1"})
	}
	if req.Status == "scheduled" && req.PublishAt == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "publish_at is required for scheduled tasks"})
	}

	status := req.Status
	if status == "" {
		status = "draft"
	}
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}

	task := &models.Task{
		ID:            uuid.NewString(),
		Title:         req.Title,
		Slug:          s.uniqueSlug(req.Title),
		Description:   req.Description,
		Category:      strings.ToLower(strings.TrimSpace(req.Category)),
		Difficulty:    difficulty,
		BasePoints:    req.BasePoints,
		TaskType:      req.TaskType,
		EstimatedTime: req.EstimatedTime,
		MaxSubmissions: req.MaxSubmissions,
		Status:        status,
		PublishAt:     req.PublishAt,
		Deadline:      req.Deadline,
		CreatedBy:     adminID,
	}
	task.RequiresEvidenceText = req.RequiresEvidenceText == nil || *req.RequiresEvidenceText
	if req.RequiresEvidenceFile != nil {
		task.RequiresEvidenceFile = *req.RequiresEvidenceFile
	}

	if err := s.DB.Create(task).Error; err != nil {
		log.Printf("DB Error creating task: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create task"})
	}

	return c.Status(fiber.StatusCreated).JSON(task)
}

// uniqueSlug slugifies the title and disambiguates collisions with a short
// uuid suffix.
func (s *TaskService) uniqueSlug(title string) string {
	base := slug.Make(title)
	var count int64
	s.DB.Model(&models.Task{}).Where("slug = ?", base).Count(&count)
	if count == 0 {
		return base
	}
	return base + "-" + uuid.NewString()[:8]
}

// UpdateTask updates an existing task (Admin only)
func (s *TaskService) UpdateTask(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var existing models.Task
	if err := s.DB.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		Title                *string    `json:"title"`
		Description          *string    `json:"description"`
		Category             *string    `json:"category"`
		Difficulty           *string    `json:"difficulty"`
		BasePoints           *int       `json:"base_points"`
		TaskType             *string    `json:"task_type"`
		EstimatedTime        *string    `json:"estimated_time"`
		RequiresEvidenceText *bool      `json:"requires_evidence_text"`
		RequiresEvidenceFile *bool      `json:"requires_evidence_file"`
		MaxSubmissions       *int       `json:"max_submissions"`
		Status               *string    `json:"status"`
		PublishAt            *time.Time `json:"publish_at"`
		Deadline             *time.Time `json:"deadline"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	// Apply updates if provided
	if req.Title != nil {
		existing.Title = *req.Title
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.Category != nil {
		existing.Category = strings.ToLower(strings.TrimSpace(*req.Category))
	}
	if req.Difficulty != nil {
		existing.Difficulty = *req.Difficulty
	}
	if req.BasePoints != nil {
		if *req.BasePoints < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "base_points must be at least 1"})
		}
		existing.BasePoints = *req.BasePoints
	}
	if req.TaskType != nil {
		existing.TaskType = *req.TaskType
	}
	if req.EstimatedTime != nil {
		existing.EstimatedTime = *req.EstimatedTime
	}
	if req.RequiresEvidenceText != nil {
		existing.RequiresEvidenceText = *req.RequiresEvidenceText
	}
	if req.RequiresEvidenceFile != nil {
		existing.RequiresEvidenceFile = *req.RequiresEvidenceFile
	}
	if req.MaxSubmissions != nil {
		existing.MaxSubmissions = *req.MaxSubmissions
	}
	if req.Status != nil {
		existing.Status = *req.Status
	}
	if req.PublishAt != nil {
		existing.PublishAt = req.PublishAt
	}
	if req.Deadline != nil {
		existing.Deadline = req.Deadline
	}

	if err := s.DB.Save(&existing).Error; err != nil {
		log.Printf("DB Error updating task: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update task"})
	}

	return c.JSON(existing)
}

// DeleteTask soft-deletes a task (Admin only)
func (s *TaskService) DeleteTask(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var task models.Task
	if err := s.DB.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if err := s.DB.Delete(&task).Error; err != nil {
		log.Printf("DB Error deleting task: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete task"})
	}

	return c.JSON(fiber.Map{"message": "Task deleted successfully"})
}

// GetTasks lists published tasks with optional filters (public)
func (s *TaskService) GetTasks(c *fiber.Ctx) error {
	limitStr := c.Query("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 50
	}

	query := s.DB.Model(&models.Task{}).Where("status = ?", "published")

	if category := strings.ToLower(c.Query("category")); category != "" {
		query = query.Where("category = ?", category)
	}
	if difficulty := strings.ToLower(c.Query("difficulty")); difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		searchTerm := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	var tasks []models.Task
	if err := query.Order("created_at DESC").Limit(limit).Find(&tasks).Error; err != nil {
		log.Printf("DB Error fetching tasks: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch tasks"})
	}

	res := make([]MinimalTask, len(tasks))
	for i, t := range tasks {
		res[i] = MinimalTask{
			ID:            t.ID,
			Title:         t.Title,
			Slug:          t.Slug,
			Category:      t.Category,
			Difficulty:    t.Difficulty,
			BasePoints:    t.BasePoints,
			EstimatedTime: t.EstimatedTime,
		}
	}
	return c.JSON(res)
}

// GetTask fetches a single task by ID or slug (public)
func (s *TaskService) GetTask(c *fiber.Ctx) error {
	idOrSlug := c.Params("id")

	var task models.Task
	query := s.DB.Where("slug = ?", idOrSlug)
	if _, err := uuid.Parse(idOrSlug); err == nil {
		query = s.DB.Where("id = ?", idOrSlug)
	}
	if err := query.First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	return c.JSON(task)
}

// GetAllTasks fetches all tasks regardless of status (Admin only)
func (s *TaskService) GetAllTasks(c *fiber.Ctx) error {
	var tasks []models.Task
	if err := s.DB.Find(&tasks).Error; err != nil {
		log.Printf("DB Error fetching all tasks: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch tasks"})
	}

	return c.JSON(tasks)
}
