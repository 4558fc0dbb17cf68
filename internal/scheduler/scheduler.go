package scheduler

import (
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"shoply/internal/logger"
	"shoply/internal/models"
	"shoply/internal/services"
)

// Scheduler runs recurring background jobs, currently the monthly budget
// generation for every user with categories.
type Scheduler struct {
	cron          *cron.Cron
	db            *gorm.DB
	budgetService services.BudgetServicer
}

// New creates a Scheduler backed by the given database.
func New(db *gorm.DB, budgetService services.BudgetServicer) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		db:            db,
		budgetService: budgetService,
	}
}

// ScheduleBudgetGeneration registers the monthly budget job under the given
// cron spec, e.g. "0 2 1 * *" for 02:00 on the first of each month.
func (s *Scheduler) ScheduleBudgetGeneration(spec string) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, s.generateBudgets)
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// generateBudgets creates the current month's default budgets for every user
// that has categories. A failure for one user does not stop the others.
func (s *Scheduler) generateBudgets() {
	log := logger.Get()

	var userIDs []string
	if err := s.db.Model(&models.Category{}).
		Distinct("user_id").
		Pluck("user_id", &userIDs).Error; err != nil {
		log.Errorw("monthly budget job failed to list users", "error", err)
		return
	}

	total := 0
	for _, userID := range userIDs {
		created, err := s.budgetService.GenerateMonthlyBudgets(userID)
		if err != nil {
			log.Errorw("monthly budget generation failed",
				"user_id", userID,
				"error", err,
			)
			continue
		}
		total += created
	}

	log.Infow("monthly budget generation finished",
		"users", len(userIDs),
		"budgets_created", total,
	)
}
