// services/scheduler.go
package services

import (
	"log"
	"time"

	"task-reward-system/models"

	"github.com/go-co-op/gocron/v2"
)

func (s *TaskService) StartPublishScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: publish scheduled tasks
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			var tasks []models.Task
			now := time.Now()
			err := s.DB.Where("status = ? AND publish_at <= ?", "scheduled", now).
				Find(&tasks).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for _, t := range tasks {
				t.Status = "published"
				t.PublishAt = nil
				if err := s.DB.Save(&t).Error; err != nil {
					log.Printf("[Scheduler] Failed to publish task %s: %v", t.ID, err)
				} else {
					log.Printf("Auto-published task: %s", t.Title)
				}
			}
		}),
	)
}

// StartAutoApprovalScheduler runs the pending-submission sweep on an
// interval. Each run is capped at BatchSize items.
func (s *SubmissionService) StartAutoApprovalScheduler(interval time.Duration) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			s.ProcessPendingBatch()
		}),
	)
}
