package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/dtos"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/ledger"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/mpesa"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
	"github.com/sirupsen/logrus"
)

type ReconciliationOptions struct {
	Location            *time.Location
	SenderPhoneFallback bool
	SendConfirmations   bool
	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

// ReconciliationService turns a forwarded M-Pesa SMS into a committed ledger
// update: parse, dedupe, match, allocate, persist, then notify.
type ReconciliationService struct {
	store    Store
	parser   *mpesa.Parser
	matcher  *TenantMatcher
	engine   *ledger.Engine
	notifier *Notifier
	alerter  UnmatchedAlerter
	opts     ReconciliationOptions
}

func NewReconciliationService(
	store Store,
	notifier *Notifier,
	alerter UnmatchedAlerter,
	opts ReconciliationOptions,
) *ReconciliationService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ReconciliationService{
		store:    store,
		parser:   mpesa.NewParser(opts.Location),
		matcher:  NewTenantMatcher(store, opts.SenderPhoneFallback),
		engine:   ledger.NewEngine(opts.Location),
		notifier: notifier,
		alerter:  alerter,
		opts:     opts,
	}
}

// appliedPayment is what a committed transaction hands back for the response
// and the confirmation SMS.
type appliedPayment struct {
	tenant  *models.Tenant
	payment *models.RentalPayment
	ledger  *models.MonthlyLedger
}

// ProcessWebhook reconciles one confirmation SMS. Every failure is returned
// as a *utils.AppError carrying the HTTP status for the rejection.
func (s *ReconciliationService) ProcessWebhook(ctx context.Context, body string) (*dtos.WebhookResponse, error) {
	event, err := s.parser.Parse(body)
	if err != nil {
		return nil, parseAppError(err)
	}
	log := utils.Logger.WithFields(logrus.Fields{
		"transaction_id": event.TransactionID,
		"amount":         event.Amount.String(),
		"period":         event.PaymentPeriod,
	})

	exists, err := s.store.PaymentExists(ctx, event.TransactionID)
	if err != nil {
		return nil, persistenceAppError(err)
	}
	if exists {
		log.Info("Duplicate M-Pesa transaction ignored")
		return nil, duplicateAppError(event.TransactionID)
	}

	match, err := s.matcher.Match(ctx, event.AccountReference, event.SenderPhone)
	if errors.Is(err, ErrTenantNotFound) {
		s.recordUnmatched(ctx, event, log)
		return nil, tenantNotFoundAppError(
			fmt.Errorf("%w: account %q sender %q", ErrTenantNotFound, event.AccountReference, event.SenderPhone),
			map[string]any{"transactionId": event.TransactionID, "accountReference": event.AccountReference},
		)
	}
	if err != nil {
		return nil, persistenceAppError(err)
	}

	var applied *appliedPayment
	txErr := s.store.WithTx(ctx, func(tx StoreTx) error {
		var applyErr error
		applied, applyErr = s.applyPayment(ctx, tx, event, match)
		return applyErr
	})
	if txErr != nil {
		var appErr *utils.AppError
		if errors.As(txErr, &appErr) {
			return nil, appErr
		}
		return nil, persistenceAppError(txErr)
	}

	log.WithFields(logrus.Fields{
		"tenant_id": applied.tenant.ID,
		"strategy":  match.Strategy,
		"status":    applied.ledger.Status,
	}).Info("M-Pesa payment reconciled")

	if s.opts.SendConfirmations && s.notifier != nil {
		msg := paymentConfirmationMessage(applied.tenant, event.TransactionID, event.Amount, applied.ledger)
		s.notifier.SendAsync(models.SMSKindPaymentConfirmation, &applied.tenant.ID, applied.tenant.Phone, msg)
	}

	return &dtos.WebhookResponse{
		Success:       true,
		Message:       "Payment processed successfully",
		TransactionID: event.TransactionID,
		Payment:       newPaymentDTO(applied),
	}, nil
}

// applyPayment runs inside the store transaction. The tenant row lock
// serializes every mutation of that tenant's ledger.
func (s *ReconciliationService) applyPayment(
	ctx context.Context,
	tx StoreTx,
	event *mpesa.PaymentEvent,
	match *MatchResult,
) (*appliedPayment, error) {
	now := s.opts.Now()

	tenant, err := tx.LockTenant(ctx, match.Tenant.ID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, tenantNotFoundAppError(
			fmt.Errorf("%w: %s vanished before lock", ErrTenantNotFound, match.Tenant.ID),
			map[string]any{"tenantId": match.Tenant.ID},
		)
	}

	unit, err := tx.LockUnitByCode(ctx, tenant.UnitCode)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, unitNotFoundAppError(tenant.UnitCode)
	}

	// A payment from a former tenant settles their own balance. The unit
	// may already belong to someone else.
	occupant := tenant.IsActive() && unit.TenantID != nil && *unit.TenantID == tenant.ID
	var res ledger.Resolution
	if tenant.IsActive() {
		res = s.engine.ResolveLedger(tenant, unit, event.PaymentPeriod)
	} else {
		res = s.engine.ResolveFinalLedger(tenant, unit)
	}
	if res.Ledger.HasTransaction(event.TransactionID) {
		return nil, duplicateAppError(event.TransactionID)
	}

	outcome, err := s.engine.AllocatePayment(res.Ledger, unit, tenant, ledger.Payment{
		TransactionID: event.TransactionID,
		Amount:        event.Amount,
		OccurredAt:    event.OccurredAt,
		RecordedAt:    now,
	})
	if errors.Is(err, ledger.ErrTransactionInLedger) {
		return nil, duplicateAppError(event.TransactionID)
	}
	if err != nil {
		return nil, fmt.Errorf("allocate payment: %w", err)
	}

	previousArrears := tenant.Summary.Arrears
	summary := ledger.CloseLedger(tenant.Summary, res.Closed)
	summary = ledger.ApplyExcess(summary, outcome.Allocation.Excess)
	summary.TotalPaid = summary.TotalPaid.Add(event.Amount)
	if summary.LastPaymentAt == nil || event.OccurredAt.After(*summary.LastPaymentAt) {
		summary.LastPaymentAt = utils.Ptr(event.OccurredAt)
	}

	payment := &models.RentalPayment{
		TransactionID:    event.TransactionID,
		TenantID:         tenant.ID,
		TenantName:       tenant.Name,
		UnitCode:         unit.UnitCode,
		PropertyID:       unit.PropertyID,
		Amount:           event.Amount,
		SenderName:       event.SenderName,
		SenderPhone:      event.SenderPhone,
		AccountReference: event.AccountReference,
		OccurredAt:       event.OccurredAt,
		PaymentPeriod:    event.PaymentPeriod,
		LedgerPeriod:     outcome.Ledger.Period,
		Allocation:       outcome.Allocation,
		LedgerStatus:     outcome.Ledger.Status,
		MatchStrategy:    match.Strategy,
		RawMessage:       event.RawMessage,
		CreatedAt:        now,
	}
	created, err := tx.CreatePaymentIfAbsent(ctx, payment)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, duplicateAppError(event.TransactionID)
	}

	tenant.Ledger = outcome.Ledger
	tenant.Deposit = outcome.Deposit
	tenant.Summary = summary
	tenant.PaymentLog = append(tenant.PaymentLog, models.PaymentLogEntry{
		TransactionID:   event.TransactionID,
		Amount:          event.Amount,
		Period:          event.PaymentPeriod,
		LedgerPeriod:    outcome.Ledger.Period,
		OccurredAt:      event.OccurredAt,
		RecordedAt:      now,
		SenderName:      event.SenderName,
		PreviousArrears: previousArrears,
		NewArrears:      summary.Arrears,
		Allocation:      outcome.Allocation,
		LedgerStatus:    outcome.Ledger.Status,
		MatchStrategy:   match.Strategy,
	})
	tenant.UpdatedAt = now
	if err := tx.SaveTenant(ctx, tenant); err != nil {
		return nil, fmt.Errorf("save tenant: %w", err)
	}

	if !occupant {
		return &appliedPayment{tenant: tenant, payment: payment, ledger: outcome.Ledger}, nil
	}

	// The unit counters describe the current business month only.
	if outcome.Ledger.Period == s.engine.CurrentPeriod(now) {
		unit.CurrentPeriodPaid = outcome.Ledger.PaidAmount
		unit.CurrentPeriodStatus = outcome.Ledger.Status
	}
	unit.LastPaymentAt = utils.Ptr(event.OccurredAt)
	unit.LastPaymentAmount = event.Amount
	unit.LastPaymentTransactionID = utils.Ptr(event.TransactionID)
	unit.UpdatedAt = now
	if err := tx.SaveUnit(ctx, unit); err != nil {
		return nil, fmt.Errorf("save unit: %w", err)
	}

	return &appliedPayment{tenant: tenant, payment: payment, ledger: outcome.Ledger}, nil
}

// recordUnmatched queues the payment for manual review. Failures are logged;
// the caller still gets the not-found rejection.
func (s *ReconciliationService) recordUnmatched(ctx context.Context, event *mpesa.PaymentEvent, log *logrus.Entry) {
	rec := &models.UnmatchedPayment{
		TransactionID:    event.TransactionID,
		Amount:           event.Amount,
		SenderName:       event.SenderName,
		SenderPhone:      event.SenderPhone,
		AccountReference: event.AccountReference,
		OccurredAt:       event.OccurredAt,
		RawMessage:       event.RawMessage,
		Reason:           ErrTenantNotFound.Error(),
		CreatedAt:        s.opts.Now(),
	}
	created, err := s.store.RecordUnmatched(ctx, rec)
	if err != nil {
		log.WithError(err).Error("Failed to queue unmatched payment")
		return
	}
	log.Warn("No tenant matched M-Pesa payment; queued for review")
	if !created || s.alerter == nil || s.notifier == nil {
		return
	}
	s.notifier.Go(func(ctx context.Context) {
		if err := s.alerter.AlertUnmatched(ctx, rec); err != nil {
			log.WithError(err).Error("Failed to send unmatched payment alert")
		}
	})
}

func (s *ReconciliationService) ListUnmatched(ctx context.Context) (*dtos.UnmatchedPaymentsResponse, error) {
	payments, err := s.store.ListUnmatched(ctx)
	if err != nil {
		return nil, internalAppError("Failed to list unmatched payments", err)
	}
	if payments == nil {
		payments = []*models.UnmatchedPayment{}
	}
	return &dtos.UnmatchedPaymentsResponse{Payments: payments}, nil
}

func newPaymentDTO(a *appliedPayment) *dtos.PaymentDTO {
	p := a.payment
	return &dtos.PaymentDTO{
		TransactionID: p.TransactionID,
		TenantID:      p.TenantID,
		TenantName:    p.TenantName,
		UnitCode:      p.UnitCode,
		Amount:        p.Amount,
		SenderName:    p.SenderName,
		OccurredAt:    p.OccurredAt,
		PaymentPeriod: p.PaymentPeriod,
		LedgerPeriod:  p.LedgerPeriod,
		Allocation:    p.Allocation,
		LedgerStatus:  p.LedgerStatus,
		Expected:      a.ledger.ExpectedAmount,
		Paid:          a.ledger.PaidAmount,
		Remaining:     a.ledger.RemainingAmount,
		Arrears:       a.tenant.Summary.Arrears,
		CreditBalance: a.tenant.Summary.CreditBalance,
		DepositStatus: a.tenant.Deposit.Status,
		MatchStrategy: p.MatchStrategy,
	}
}
