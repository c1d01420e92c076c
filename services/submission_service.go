// services/submission_service.go
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"task-reward-system/models"
	"task-reward-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxEvidenceFileSize = 25 * 1024 * 1024 // 25MB per file

type SubmissionService struct {
	DB          *gorm.DB
	Calculator  *PointsCalculator
	Approval    *AutoApprovalService
	Dedup       *EvidenceDedupService
	Progression *ProgressionService

	// BatchSize caps how many pending submissions one sweep run processes.
	BatchSize int
}

func NewSubmissionService(db *gorm.DB, calc *PointsCalculator, approval *AutoApprovalService, dedup *EvidenceDedupService, progression *ProgressionService) *SubmissionService {
	return &SubmissionService{
		DB:          db,
		Calculator:  calc,
		Approval:    approval,
		Dedup:       dedup,
		Progression: progression,
		BatchSize:   50,
	}
}

// CreateSubmission handles the multipart submission flow: validate the task,
// run the dedup filter over attached evidence, upload what passed to R2,
// persist the submission, register hash usage, then try the auto-approval
// gate inline.
func (s *SubmissionService) CreateSubmission(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "user context missing"})
	}

	taskID := c.FormValue("task_id")
	if taskID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "task_id is required"})
	}

	var task models.Task
	if err := s.DB.First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "task not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching task"})
	}
	if task.Status != "published" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "task is not open for submissions"})
	}
	if task.Deadline != nil && task.Deadline.Before(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "task deadline has passed"})
	}

	// One active submission per user per task
	var existing int64
	if err := s.DB.Model(&models.Submission{}).
		Where("task_id = ? AND external_user_id = ? AND status IN ?", taskID, userID,
			[]models.SubmissionStatus{models.SubmissionStatusPending, models.SubmissionStatusApproved}).
		Count(&existing).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error checking submissions"})
	}
	if existing > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "you already have a submission for this task"})
	}

	if task.MaxSubmissions > 0 {
		var taken int64
		if err := s.DB.Model(&models.Submission{}).
			Where("task_id = ? AND status IN ?", taskID,
				[]models.SubmissionStatus{models.SubmissionStatusPending, models.SubmissionStatusApproved}).
			Count(&taken).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error checking capacity"})
		}
		if taken >= int64(task.MaxSubmissions) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "task has reached its submission limit"})
		}
	}

	evidenceText := strings.TrimSpace(c.FormValue("evidence_text"))
	if task.RequiresEvidenceText && evidenceText == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "evidence_text is required for this task"})
	}

	var timeSpent *int
	if v := c.FormValue("time_spent_minutes"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid time_spent_minutes"})
		}
		timeSpent = &minutes
	}

	// Collect evidence files: evidence_files[0], evidence_files[1], ...
	var files []*multipart.FileHeader
	for i := 0; ; i++ {
		file, err := c.FormFile("evidence_files[" + strconv.Itoa(i) + "]")
		if err != nil {
			break
		}
		if file.Size > maxEvidenceFileSize {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("file %s too large (max 25MB)", file.Filename),
			})
		}
		files = append(files, file)
	}
	if task.RequiresEvidenceFile && len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "an evidence file is required for this task"})
	}

	// Dedup filter runs before anything is uploaded or persisted.
	dedup, err := s.Dedup.CheckDuplicates(files, userID)
	if err != nil {
		log.Printf("[SUBMISSION] dedup check failed for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not verify evidence files"})
	}
	if len(dedup.Duplicates) > 0 {
		// Product policy: any duplicate rejects the whole submission.
		s.flagDuplicates(dedup, userID, taskID)
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":      "one or more evidence files have already been used",
			"duplicates": dedup.Duplicates,
		})
	}

	// Upload accepted files to R2
	urlsByName := make(map[string]string, len(dedup.ValidFiles))
	fileURLs := make([]string, 0, len(dedup.ValidFiles))
	for _, file := range dedup.ValidFiles {
		ext := filepath.Ext(file.Filename)
		if ext == "" {
			ext = ".bin"
		}
		key := "evidence/" + uuid.NewString() + ext
		url, err := storeEvidenceFile(file, key)
		if err != nil {
			log.Printf("[SUBMISSION] upload failed for %s: %v", file.Filename, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload evidence file"})
		}
		urlsByName[file.Filename] = url
		fileURLs = append(fileURLs, url)
	}

	urlsJSON, _ := json.Marshal(fileURLs)
	submission := &models.Submission{
		ID:                uuid.NewString(),
		TaskID:            task.ID,
		ExternalUserID:    userID,
		EvidenceText:      evidenceText,
		EvidenceFileURLs:  string(urlsJSON),
		TimeSpentMinutes:  timeSpent,
		Status:            models.SubmissionStatusPending,
		DeviceFingerprint: c.Get("X-Device-Fingerprint"),
		IPAddress:         c.IP(),
		SubmittedAt:       time.Now(),
	}

	if _, err := s.Progression.EnsureProgressRecord(userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to prepare progress record"})
	}

	if err := s.DB.Create(submission).Error; err != nil {
		log.Printf("DB Error creating submission: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create submission"})
	}

	if err := s.DB.Model(&models.UserProgress{}).
		Where("external_user_id = ?", userID).
		UpdateColumn("total_submissions", gorm.Expr("total_submissions + 1")).Error; err != nil {
		log.Printf("[SUBMISSION] failed to bump submission counter for %s: %v", userID, err)
	}

	// Ledger rows are written only after the submission row exists, so a
	// failed create never leaves orphaned hash entries.
	if err := s.Dedup.StoreUsage(dedup.Hashes, urlsByName, userID, task.ID, submission.ID); err != nil {
		log.Printf("[SUBMISSION] failed to record evidence hashes for %s: %v", submission.ID, err)
	}

	// Try the auto-approval gate inline; failure just leaves it pending.
	eval := s.Approval.Evaluate(EvaluationInput{
		EvidenceText:    evidenceText,
		HasEvidenceFile: len(fileURLs) > 0,
		SubmittedAt:     submission.SubmittedAt,
	}, task.TaskType, time.Now())
	if eval.CanApprove {
		if err := s.approveSubmission(submission.ID, eval.QualityScore, "system", true, eval.Reasons); err != nil {
			log.Printf("[SUBMISSION] inline auto-approval failed for %s: %v", submission.ID, err)
		} else {
			// Re-read so the response carries the awarded points
			s.DB.First(submission, "id = ?", submission.ID)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(submission)
}

// storeEvidenceFile uploads to R2 when configured, otherwise saves under the
// local uploads dir (served statically).
func storeEvidenceFile(file *multipart.FileHeader, key string) (string, error) {
	if utils.R2Enabled() {
		return utils.UploadFileToR2(file, key)
	}
	localPath := utils.GetUploadPath(key)
	if err := utils.SaveFile(file, localPath); err != nil {
		return "", err
	}
	return "/" + localPath, nil
}

// flagDuplicates records the rejected attempt for admin review. Flag-write
// failures are logged, not surfaced — the rejection already stands.
func (s *SubmissionService) flagDuplicates(dedup *DedupResult, userID, taskID string) {
	for i, name := range dedup.Duplicates {
		flag := models.DuplicateFlag{
			ID:          uuid.NewString(),
			AttemptedBy: userID,
			TaskID:      taskID,
			FileName:    name,
		}
		if i < len(dedup.Matches) {
			flag.HashValue = dedup.Matches[i].HashValue
			flag.OriginalSubmissionID = dedup.Matches[i].SubmissionID
			flag.OriginalUserID = dedup.Matches[i].ExternalUserID
		}
		if err := s.DB.Create(&flag).Error; err != nil {
			log.Printf("[SUBMISSION] failed to record duplicate flag for %s: %v", name, err)
		}
	}
}

// approveSubmission runs the full award flow in one transaction: lock the
// submission, compute the reward from current progress, persist the award
// on the submission, then update progress and append the audit row.
func (s *SubmissionService) approveSubmission(submissionID string, qualityScore int, reviewer string, auto bool, reasons []string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var sub models.Submission
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&sub, "id = ?", submissionID).Error; err != nil {
			return err
		}
		if sub.Status != models.SubmissionStatusPending {
			return fmt.Errorf("submission %s is not pending (status=%s)", sub.ID, sub.Status)
		}

		var task models.Task
		if err := tx.First(&task, "id = ?", sub.TaskID).Error; err != nil {
			return fmt.Errorf("task %s not found for submission %s", sub.TaskID, sub.ID)
		}

		var prog models.UserProgress
		if err := tx.Where("external_user_id = ?", sub.ExternalUserID).First(&prog).Error; err != nil {
			return fmt.Errorf("progress record not found for %s", sub.ExternalUserID)
		}

		now := time.Now()
		quality := float64(qualityScore)
		factors := RewardFactors{
			BasePoints:          task.BasePoints,
			Difficulty:          task.Difficulty,
			UserLevel:           prog.Level,
			TasksCompletedToday: DailyTasksCompleted(&prog, now),
			TotalTasksCompleted: prog.TotalTasksCompleted,
			TaskCategory:        task.Category,
			EstimatedTime:       task.EstimatedTime,
			QualityScore:        &quality,
		}
		if sub.TimeSpentMinutes != nil {
			minutes := float64(*sub.TimeSpentMinutes)
			factors.TimeSpentMinutes = &minutes
		}

		result := s.Calculator.Calculate(factors)
		breakdownJSON, _ := json.Marshal(result.Breakdown)
		explanationJSON, _ := json.Marshal(result.Explanation)

		sub.Status = models.SubmissionStatusApproved
		sub.QualityScore = &qualityScore
		sub.AutoApproved = auto
		sub.ReviewedBy = reviewer
		sub.ReviewedAt = &now
		sub.CalculatedPoints = result.FinalPoints
		sub.PointBreakdown = string(breakdownJSON)
		sub.PointExplanation = string(explanationJSON)
		if err := tx.Save(&sub).Error; err != nil {
			return err
		}

		reason := models.PointReasonSubmissionApproved
		if auto {
			reason = models.PointReasonAutoApproved
		}
		award := &models.PointTransaction{
			ID:             uuid.NewString(),
			ExternalUserID: sub.ExternalUserID,
			TaskID:         sub.TaskID,
			SubmissionID:   sub.ID,
			Points:         result.FinalPoints,
			Reason:         reason,
			Breakdown:      string(breakdownJSON),
			Explanation:    string(explanationJSON),
		}
		if _, err := s.Progression.ApplyApprovedSubmission(tx, sub.ExternalUserID, award); err != nil {
			return err
		}

		log.Printf("Points awarded: %s → %d pts for submission %s (auto=%t, reasons=%v)",
			sub.ExternalUserID, result.FinalPoints, sub.ID, auto, reasons)
		return nil
	})
}

// ReviewSubmission is the manual admin path: approve with a reviewer quality
// score, or reject with a reason.
func (s *SubmissionService) ReviewSubmission(c *fiber.Ctx) error {
	adminID := c.Locals("user_id").(string)
	submissionID := c.Params("id")
	if _, err := uuid.Parse(submissionID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid submission ID"})
	}

	var req struct {
		Action       string `json:"action" validate:"required,oneof=approve reject"`
		QualityScore *int   `json:"quality_score"`
		Reason       string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	var sub models.Submission
	if err := s.DB.First(&sub, "id = ?", submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "submission not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if sub.Status != models.SubmissionStatusPending {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "submission has already been reviewed"})
	}

	switch req.Action {
	case "approve":
		quality := 70
		if req.QualityScore != nil {
			if *req.QualityScore < 0 || *req.QualityScore > 100 {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "quality_score must be 0-100"})
			}
			quality = *req.QualityScore
		}
		if _, err := s.Progression.EnsureProgressRecord(sub.ExternalUserID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to prepare progress record"})
		}
		if err := s.approveSubmission(sub.ID, quality, adminID, false, nil); err != nil {
			log.Printf("DB Error approving submission %s: %v", sub.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to approve submission"})
		}

	case "reject":
		now := time.Now()
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			sub.Status = models.SubmissionStatusRejected
			sub.ReviewedBy = adminID
			sub.ReviewedAt = &now
			sub.RejectReason = req.Reason
			if err := tx.Save(&sub).Error; err != nil {
				return err
			}
			return s.Progression.RecordRejection(tx, sub.ExternalUserID)
		})
		if err != nil {
			log.Printf("DB Error rejecting submission %s: %v", sub.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to reject submission"})
		}

	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "action must be approve or reject"})
	}

	s.DB.First(&sub, "id = ?", sub.ID)
	return c.JSON(sub)
}

// BulkApprove applies a caller-supplied quality score to a list of pending
// submissions, bypassing the gate's conditions entirely.
func (s *SubmissionService) BulkApprove(c *fiber.Ctx) error {
	adminID := c.Locals("user_id").(string)

	var req struct {
		SubmissionIDs []string `json:"submission_ids" validate:"required,min=1"`
		QualityScore  int      `json:"quality_score"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if len(req.SubmissionIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "submission_ids is required"})
	}
	if req.QualityScore < 0 || req.QualityScore > 100 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "quality_score must be 0-100"})
	}

	approved := 0
	failed := make(map[string]string)
	for _, id := range req.SubmissionIDs {
		var sub models.Submission
		if err := s.DB.First(&sub, "id = ?", id).Error; err != nil {
			failed[id] = "not found"
			continue
		}
		if _, err := s.Progression.EnsureProgressRecord(sub.ExternalUserID); err != nil {
			failed[id] = "progress record unavailable"
			continue
		}
		if err := s.approveSubmission(id, req.QualityScore, adminID, false, nil); err != nil {
			log.Printf("[BULK_APPROVE] %s failed: %v", id, err)
			failed[id] = err.Error()
			continue
		}
		approved++
	}

	return c.JSON(fiber.Map{
		"approved": approved,
		"failed":   failed,
	})
}

// ProcessPendingBatch is the scheduled sweep: oldest pending submissions
// first, capped at BatchSize per run. One bad record is logged and skipped,
// never aborting the whole batch.
func (s *SubmissionService) ProcessPendingBatch() {
	var pending []models.Submission
	if err := s.DB.Where("status = ?", models.SubmissionStatusPending).
		Order("submitted_at ASC").
		Limit(s.BatchSize).
		Find(&pending).Error; err != nil {
		log.Printf("[AUTO_APPROVE] DB error listing pending submissions: %v", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	tasks := make(map[string]models.Task)
	approved := 0
	for _, sub := range pending {
		task, ok := tasks[sub.TaskID]
		if !ok {
			if err := s.DB.First(&task, "id = ?", sub.TaskID).Error; err != nil {
				log.Printf("[AUTO_APPROVE] task %s missing for submission %s: %v", sub.TaskID, sub.ID, err)
				continue
			}
			tasks[sub.TaskID] = task
		}

		eval := s.Approval.Evaluate(EvaluationInput{
			EvidenceText:    sub.EvidenceText,
			HasEvidenceFile: hasEvidenceFile(&sub),
			SubmittedAt:     sub.SubmittedAt,
		}, task.TaskType, time.Now())
		if !eval.CanApprove {
			continue
		}

		if _, err := s.Progression.EnsureProgressRecord(sub.ExternalUserID); err != nil {
			log.Printf("[AUTO_APPROVE] progress record for %s: %v", sub.ExternalUserID, err)
			continue
		}
		if err := s.approveSubmission(sub.ID, eval.QualityScore, "system", true, eval.Reasons); err != nil {
			log.Printf("[AUTO_APPROVE] failed to approve %s: %v", sub.ID, err)
			continue
		}
		approved++
	}

	log.Printf("[AUTO_APPROVE] sweep done: %d approved of %d pending", approved, len(pending))
}

func hasEvidenceFile(sub *models.Submission) bool {
	urls := strings.TrimSpace(sub.EvidenceFileURLs)
	return urls != "" && urls != "[]" && urls != "null"
}

// ListPendingSubmissions returns the manual-review queue, oldest first.
func (s *SubmissionService) ListPendingSubmissions(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var pending []models.Submission
	if err := s.DB.Where("status = ?", models.SubmissionStatusPending).
		Order("submitted_at ASC").
		Limit(limit).
		Find(&pending).Error; err != nil {
		log.Printf("DB Error fetching pending submissions: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch pending submissions"})
	}

	return c.JSON(pending)
}

// GetUserSubmissions returns the authenticated user's own submissions.
func (s *SubmissionService) GetUserSubmissions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	query := s.DB.Where("external_user_id = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var submissions []models.Submission
	if err := query.Order("submitted_at DESC").Find(&submissions).Error; err != nil {
		log.Printf("DB Error fetching user submissions: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch submissions"})
	}

	return c.JSON(submissions)
}

// ListDuplicateFlags returns recorded duplicate-evidence attempts (admin).
func (s *SubmissionService) ListDuplicateFlags(c *fiber.Ctx) error {
	query := s.DB.Model(&models.DuplicateFlag{})
	switch strings.ToLower(c.Query("reviewed")) {
	case "true":
		query = query.Where("reviewed = ?", true)
	case "false":
		query = query.Where("reviewed = ?", false)
	}

	var flags []models.DuplicateFlag
	if err := query.Order("created_at DESC").Limit(200).Find(&flags).Error; err != nil {
		log.Printf("DB Error fetching duplicate flags: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch duplicate flags"})
	}

	return c.JSON(flags)
}

// MarkDuplicateReviewed marks a duplicate flag as handled (idempotent).
func (s *SubmissionService) MarkDuplicateReviewed(c *fiber.Ctx) error {
	adminID := c.Locals("user_id").(string)
	flagID := c.Params("id")
	if _, err := uuid.Parse(flagID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid flag ID"})
	}

	var flag models.DuplicateFlag
	if err := s.DB.First(&flag, "id = ?", flagID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "duplicate flag not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if !flag.Reviewed {
		now := time.Now()
		flag.Reviewed = true
		flag.ReviewedBy = adminID
		flag.ReviewedAt = &now
		if err := s.DB.Save(&flag).Error; err != nil {
			log.Printf("DB Error updating duplicate flag: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update flag"})
		}
	}

	return c.JSON(flag)
}
