package testhelpers

import (
	"context"
	"fmt"
	"sync"

	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/services"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
)

type SentSMS struct {
	Phone   string
	Message string
}

// FakeSender records every SMS. With Fail set it reports failure instead.
type FakeSender struct {
	mu   sync.Mutex
	sent []SentSMS
	Fail bool
}

func (f *FakeSender) Send(_ context.Context, phone, message string) services.SendResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail {
		return services.SendResult{Error: "gateway unavailable"}
	}
	f.sent = append(f.sent, SentSMS{Phone: phone, Message: message})
	return services.SendResult{Success: true, MessageID: fmt.Sprintf("SM%04d", len(f.sent))}
}

func (f *FakeSender) Sent() []SentSMS {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SentSMS, len(f.sent))
	copy(out, f.sent)
	return out
}

// FakeAlerter records unmatched-payment alerts.
type FakeAlerter struct {
	mu     sync.Mutex
	alerts []*models.UnmatchedPayment
	Err    error
}

func (f *FakeAlerter) AlertUnmatched(_ context.Context, p *models.UnmatchedPayment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, p)
	return f.Err
}

func (f *FakeAlerter) Alerts() []*models.UnmatchedPayment {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.UnmatchedPayment, len(f.alerts))
	copy(out, f.alerts)
	return out
}
