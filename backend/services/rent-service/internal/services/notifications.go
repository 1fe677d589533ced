package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	lookupsv2 "github.com/twilio/twilio-go/rest/lookups/v2"
)

// SendResult is the outcome of one outbound SMS. Senders report failures here
// rather than returning errors so a failed SMS never aborts the caller.
type SendResult struct {
	Success   bool
	MessageID string
	Error     string
}

// NotificationSender delivers one SMS to a local or international number.
type NotificationSender interface {
	Send(ctx context.Context, phone, message string) SendResult
}

// SMSLogger persists the outcome of every SMS attempt.
type SMSLogger interface {
	LogSMS(ctx context.Context, l *models.SMSLog) error
}

// TwilioSender sends through the Twilio Messages API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: from,
	}
}

func (s *TwilioSender) Send(_ context.Context, phone, message string) SendResult {
	to, err := utils.ToKenyanE164(phone)
	if err != nil {
		return SendResult{Error: fmt.Sprintf("invalid recipient %q: %v", phone, err)}
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(message)

	resp, sendErr := s.client.Api.CreateMessage(params)
	if sendErr != nil {
		utils.Logger.WithError(sendErr).Errorf("Failed to send SMS to %s via Twilio", to)
		return SendResult{Error: fmt.Errorf("%w: twilio: %v", utils.ErrExternalServiceFailure, sendErr).Error()}
	}
	res := SendResult{Success: true}
	if resp != nil && resp.Sid != nil {
		res.MessageID = *resp.Sid
	}
	return res
}

// TwilioPhoneLookup checks numbers against the Twilio Lookups v2 API (free
// basic tier).
type TwilioPhoneLookup struct {
	client *twilio.RestClient
}

func NewTwilioPhoneLookup(accountSID, authToken string) *TwilioPhoneLookup {
	return &TwilioPhoneLookup{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
	}
}

// Validate returns (false, nil) when Twilio does not know the number or marks
// it invalid. Transport and API failures are returned as errors.
func (l *TwilioPhoneLookup) Validate(_ context.Context, phone string) (bool, error) {
	e164, err := utils.ToKenyanE164(phone)
	if err != nil {
		return false, nil
	}

	params := &lookupsv2.FetchPhoneNumberParams{}
	params.SetCountryCode("KE")
	resp, err := l.client.LookupsV2.FetchPhoneNumber(e164, params)
	if err != nil {
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) && restErr.Status == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("%w: twilio lookup: %v", utils.ErrExternalServiceFailure, err)
	}
	if resp != nil && resp.Valid != nil && !*resp.Valid {
		return false, nil
	}
	return true, nil
}

// Notifier sends SMS, records each attempt in sms_logs and tracks the
// background sends so shutdown and tests can wait for them.
type Notifier struct {
	sender  NotificationSender
	logs    SMSLogger
	timeout time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

func NewNotifier(sender NotificationSender, logs SMSLogger, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Notifier{sender: sender, logs: logs, timeout: timeout, now: time.Now}
}

var errNoSender = errors.New("no SMS sender configured")

// Send delivers message synchronously and logs the attempt.
func (n *Notifier) Send(ctx context.Context, kind models.SMSKind, tenantID *uuid.UUID, phone, message string) SendResult {
	var res SendResult
	if n.sender == nil {
		res = SendResult{Error: errNoSender.Error()}
	} else {
		res = n.sender.Send(ctx, phone, message)
	}

	entry := &models.SMSLog{
		ID:        uuid.New(),
		Kind:      kind,
		TenantID:  tenantID,
		Phone:     phone,
		Message:   message,
		Success:   res.Success,
		CreatedAt: n.now().UTC(),
	}
	if res.MessageID != "" {
		entry.MessageID = utils.Ptr(res.MessageID)
	}
	if res.Error != "" {
		entry.Error = utils.Ptr(res.Error)
	}

	if n.logs != nil {
		if err := n.logs.LogSMS(ctx, entry); err != nil {
			utils.Logger.WithError(err).Warnf("Failed to record %s SMS log for %s", kind, phone)
		}
	}
	if !res.Success {
		utils.Logger.WithField("kind", kind).Warnf("SMS to %s failed: %s", phone, res.Error)
	}
	return res
}

// SendAsync is Send on a background goroutine with its own deadline.
func (n *Notifier) SendAsync(kind models.SMSKind, tenantID *uuid.UUID, phone, message string) {
	n.Go(func(ctx context.Context) {
		n.Send(ctx, kind, tenantID, phone, message)
	})
}

// Go runs fn in the background under the notifier's timeout.
func (n *Notifier) Go(fn func(ctx context.Context)) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until every background send has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
