package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/scholarship-intake-api/internal/dto"
	"github.com/noah-isme/scholarship-intake-api/internal/models"
	"github.com/noah-isme/scholarship-intake-api/pkg/jobs"
	"github.com/noah-isme/scholarship-intake-api/pkg/mailer"
)

const jobTypeSuitabilityEmail = "suitability_email"

// NotificationService delivers suitability emails through a background
// queue. Delivery is strictly fire-and-forget: enqueue and send failures are
// logged and swallowed, they never reach the ingestion response.
type NotificationService struct {
	queue  *jobs.Queue
	mailer mailer.Mailer
	logger *zap.Logger
}

type suitabilityEmailPayload struct {
	To        string
	FullName  string
	Title     string
	Score     int
	Breakdown []dto.BreakdownItem
}

// NewNotificationService builds the notifier and its queue. Call Start
// before use and Stop on shutdown.
func NewNotificationService(m mailer.Mailer, workers, retries int, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = mailer.Noop{}
	}
	svc := &NotificationService{mailer: m, logger: logger}
	svc.queue = jobs.NewQueue("notifications", svc.handle, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: retries,
		Logger:     logger,
	})
	return svc
}

// Start launches the queue workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// NotifySuitability enqueues the suitability email for an admitted
// application.
func (s *NotificationService) NotifySuitability(app *models.Application, rule *models.Scholarship, score int, breakdown []dto.BreakdownItem) {
	title := "your scholarship"
	if rule != nil {
		title = rule.Title
	}
	payload := suitabilityEmailPayload{
		To:        app.EmailAddress,
		FullName:  app.FullName,
		Title:     title,
		Score:     score,
		Breakdown: breakdown,
	}
	if err := s.queue.Enqueue(jobs.Job{ID: app.ID, Type: jobTypeSuitabilityEmail, Payload: payload}); err != nil {
		s.logger.Warn("suitability email dropped", zap.String("application_id", app.ID), zap.Error(err))
	}
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(suitabilityEmailPayload)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hello %s,\n\n", payload.FullName)
	fmt.Fprintf(&body, "Thank you for applying to %s.\n", payload.Title)
	fmt.Fprintf(&body, "Your suitability score is %d/100:\n\n", payload.Score)
	for _, item := range payload.Breakdown {
		fmt.Fprintf(&body, "  %-20s %d\n", item.Key, item.Points)
	}
	body.WriteString("\nThis score is advisory and does not decide your application.\n")

	err := s.mailer.Send(mailer.Message{
		To:      payload.To,
		Subject: fmt.Sprintf("Your application to %s", payload.Title),
		Body:    body.String(),
	})
	if err != nil {
		s.logger.Warn("suitability email failed", zap.String("to", payload.To), zap.Error(err))
	}
	// Swallow the error: mail delivery must never bubble up or trigger
	// queue retries beyond logging.
	return nil
}
