package services

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/constants"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// UnmatchedAlerter tells operations about a payment that needs manual review.
type UnmatchedAlerter interface {
	AlertUnmatched(ctx context.Context, p *models.UnmatchedPayment) error
}

type SendgridAlerterOptions struct {
	APIKey      string
	FromEmail   string
	OpsEmail    string
	SandboxMode bool
}

// SendgridAlerter emails the ops inbox through SendGrid.
type SendgridAlerter struct {
	client  *sendgrid.Client
	opts    SendgridAlerterOptions
	loc     *time.Location
	orgName string
}

func NewSendgridAlerter(opts SendgridAlerterOptions, loc *time.Location) *SendgridAlerter {
	if loc == nil {
		loc = time.UTC
	}
	return &SendgridAlerter{
		client:  sendgrid.NewSendClient(opts.APIKey),
		opts:    opts,
		loc:     loc,
		orgName: utils.OrganizationName,
	}
}

func (a *SendgridAlerter) AlertUnmatched(_ context.Context, p *models.UnmatchedPayment) error {
	if a.opts.OpsEmail == "" {
		utils.Logger.Warnf("No ops email configured; unmatched payment %s alert skipped", p.TransactionID)
		return nil
	}

	from := mail.NewEmail(a.orgName, a.opts.FromEmail)
	to := mail.NewEmail(constants.OpsTeamName, a.opts.OpsEmail)
	subject := fmt.Sprintf(constants.EmailSubjectUnmatchedPayment, p.TransactionID)
	received := p.OccurredAt.In(a.loc).Format("02 Jan 2006 15:04")

	plain := fmt.Sprintf(
		"Unmatched payment %s: %s from %s (%s), account number %s, received %s.\n\n%s",
		p.TransactionID, FormatKSh(p.Amount), p.SenderName, p.SenderPhone, p.AccountReference, received, p.RawMessage,
	)
	htmlContent := fmt.Sprintf(
		unmatchedPaymentEmailHTML,
		html.EscapeString(p.TransactionID),
		html.EscapeString(FormatKSh(p.Amount)),
		html.EscapeString(p.SenderName),
		html.EscapeString(p.SenderPhone),
		html.EscapeString(p.AccountReference),
		html.EscapeString(received),
		html.EscapeString(p.RawMessage),
		time.Now().Year(),
		a.orgName,
	)

	msg := mail.NewSingleEmail(from, subject, to, plain, htmlContent)
	if a.opts.SandboxMode {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		msg.MailSettings = ms
	}

	resp, err := a.client.Send(msg)
	if err != nil {
		return fmt.Errorf("%w: sendgrid: %v", utils.ErrExternalServiceFailure, err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: sendgrid status %d", utils.ErrExternalServiceFailure, resp.StatusCode)
	}
	return nil
}
