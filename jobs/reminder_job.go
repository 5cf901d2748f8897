package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SHREYANK007/LMS-sub003/database"
	"github.com/SHREYANK007/LMS-sub003/metrics"
	"github.com/SHREYANK007/LMS-sub003/models"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const reminderLead = 60 * time.Minute

type ReminderNotifier interface {
	SessionReminder(req *models.SessionRequest, student, tutor *models.User)
}

// ReminderJob e-mails both participants about sessions starting in about an hour.
// Each run covers start times up to an hour past the next tick of its schedule,
// continuing where the previous run stopped, so every session is reminded once
// whatever the schedule and however late a run fires.
type ReminderJob struct {
	requests *database.SessionRequestStore
	notifier ReminderNotifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	schedule cron.Schedule
	now      func() time.Time

	mu           sync.Mutex
	coveredUntil time.Time
}

// NewReminderJob builds the job for the cron spec it will be scheduled with.
func NewReminderJob(requests *database.SessionRequestStore, notifier ReminderNotifier, m *metrics.Metrics, logger *zap.Logger, spec string) (*ReminderJob, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("reminder schedule %q: %w", spec, err)
	}
	return &ReminderJob{
		requests: requests,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		schedule: schedule,
		now:      time.Now,
	}, nil
}

func (j *ReminderJob) Name() string { return "session-reminders" }

func (j *ReminderJob) Run(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	from := now.Add(reminderLead)
	if !j.coveredUntil.IsZero() {
		from = j.coveredUntil
	}
	if from.Before(now) {
		from = now
	}
	until := j.schedule.Next(now).Add(reminderLead)
	if !until.After(from) {
		return nil
	}

	upcoming, err := j.requests.ListScheduledBetween(ctx, from, until.Add(-time.Nanosecond))
	if err != nil {
		return err
	}
	j.coveredUntil = until

	for i := range upcoming {
		req := &upcoming[i]
		j.logger.Info("Sending session reminder",
			zap.String("request_id", req.ID.String()),
			zap.Time("scheduled_at", *req.ScheduledDateTime),
		)
		j.notifier.SessionReminder(req, &req.Student, req.Tutor)
		j.metrics.ReminderSent()
	}
	return nil
}
