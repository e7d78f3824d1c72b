package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarship-intake-api/internal/dto"
	"github.com/noah-isme/scholarship-intake-api/internal/models"
	"github.com/noah-isme/scholarship-intake-api/pkg/mailer"
)

type captureMailer struct {
	mu       sync.Mutex
	messages []mailer.Message
	sendErr  error
	sent     chan struct{}
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{sent: make(chan struct{}, 8)}
}

func (m *captureMailer) Send(msg mailer.Message) error {
	m.mu.Lock()
	m.messages = append(m.messages, msg)
	m.mu.Unlock()
	m.sent <- struct{}{}
	return m.sendErr
}

func (m *captureMailer) all() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mailer.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

func waitForSend(t *testing.T, m *captureMailer) {
	t.Helper()
	select {
	case <-m.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("no email was sent")
	}
}

func TestNotificationServiceSendsSuitabilityEmail(t *testing.T) {
	capture := newCaptureMailer()
	svc := NewNotificationService(capture, 1, 1, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.NotifySuitability(
		&models.Application{ID: "app-1", FullName: "Jane Doe", EmailAddress: "jane@example.com"},
		&models.Scholarship{ID: 1, Title: "STEM Excellence"},
		85,
		[]dto.BreakdownItem{{Key: "gpa", Points: 25}, {Key: "academic_level", Points: 20}},
	)
	waitForSend(t, capture)

	messages := capture.all()
	require.Len(t, messages, 1)
	assert.Equal(t, "jane@example.com", messages[0].To)
	assert.Contains(t, messages[0].Subject, "STEM Excellence")
	assert.Contains(t, messages[0].Body, "Jane Doe")
	assert.Contains(t, messages[0].Body, "85/100")
	assert.Contains(t, messages[0].Body, "gpa")
}

func TestNotificationServiceNilRule(t *testing.T) {
	capture := newCaptureMailer()
	svc := NewNotificationService(capture, 1, 1, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.NotifySuitability(
		&models.Application{ID: "app-2", FullName: "Jane Doe", EmailAddress: "jane@example.com"},
		nil,
		40,
		nil,
	)
	waitForSend(t, capture)

	messages := capture.all()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0].Subject, "your scholarship")
}

func TestNotificationServiceSwallowsSendFailure(t *testing.T) {
	capture := newCaptureMailer()
	capture.sendErr = errors.New("smtp unavailable")
	svc := NewNotificationService(capture, 1, 1, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.NotifySuitability(
		&models.Application{ID: "app-3", FullName: "Jane Doe", EmailAddress: "jane@example.com"},
		&models.Scholarship{ID: 1, Title: "STEM Excellence"},
		10,
		nil,
	)
	waitForSend(t, capture)

	// a failed send is logged, not retried
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, capture.all(), 1)
}
