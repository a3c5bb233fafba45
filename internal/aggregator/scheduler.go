package aggregator

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/haeli05/yields.to/internal/logger"
)

// Таймаут одного планового запуску
const runTimeout = 5 * time.Minute

// Scheduler запускає job за cron розкладом
type Scheduler struct {
	cron   *cron.Cron
	job    *Job
	logger *logger.Logger
}

// NewScheduler створює новий scheduler
func NewScheduler(job *Job, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		job:    job,
		logger: log.WithPrefix("SCHEDULER"),
	}
}

// Start реєструє job за розкладом і запускає cron
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.logger.Info("Плановий запуск aggregation job")

		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		if _, err := s.job.Run(ctx); err != nil {
			s.logger.Error("Плановий запуск впав: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("Scheduler запущено з розкладом %s", schedule)

	return nil
}

// Stop зупиняє cron
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("Scheduler зупинено")
}
