package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/dtos"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/ledger"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
	"github.com/shopspring/decimal"
)

// EmailChecker is satisfied by *utils.EmailValidator.
type EmailChecker interface {
	Validate(ctx context.Context, email string) (bool, error)
}

// PhoneChecker is satisfied by *TwilioPhoneLookup.
type PhoneChecker interface {
	Validate(ctx context.Context, phone string) (bool, error)
}

type TenancyOptions struct {
	Location      *time.Location
	PaybillNumber string
	SendWelcome   bool
	// Emails is optional; nil skips deliverability checks.
	Emails EmailChecker
	// Phones is optional; nil accepts any well-formed Kenyan number.
	Phones PhoneChecker
	Now    func() time.Time
}

// TenancyService links tenants to units and unlinks them again.
type TenancyService struct {
	store    Store
	engine   *ledger.Engine
	notifier *Notifier
	opts     TenancyOptions
}

func NewTenancyService(store Store, notifier *Notifier, opts TenancyOptions) *TenancyService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &TenancyService{store: store, engine: ledger.NewEngine(opts.Location), notifier: notifier, opts: opts}
}

// MoveIn creates an active tenant on a vacant unit and opens the ledger for
// the move-in month. A unit holds at most one active tenant.
func (s *TenancyService) MoveIn(ctx context.Context, req dtos.MoveInRequest) (*dtos.TenantDTO, error) {
	phone := utils.PhoneVariantsOf(req.Phone)
	if phone.International == "" {
		return nil, utils.NewAppError(
			http.StatusBadRequest, utils.ErrCodeValidation, "Phone must be a Kenyan mobile number", utils.ErrInvalidPhone,
		)
	}
	if s.opts.Phones != nil {
		ok, err := s.opts.Phones.Validate(ctx, phone.Local)
		if err != nil {
			utils.Logger.WithError(err).Warnf("Phone lookup for %s failed; accepting number", phone.Local)
		} else if !ok {
			return nil, utils.NewAppError(
				http.StatusBadRequest, utils.ErrCodeValidation, "Phone number is not in service", utils.ErrInvalidPhone,
			)
		}
	}

	var email *string
	if req.Email != nil && strings.TrimSpace(*req.Email) != "" {
		e := strings.ToLower(strings.TrimSpace(*req.Email))
		if s.opts.Emails != nil {
			ok, err := s.opts.Emails.Validate(ctx, e)
			if err != nil {
				utils.Logger.WithError(err).Warnf("Email check for %s failed; accepting address", e)
			} else if !ok {
				return nil, utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation, "Email address is not deliverable", nil)
			}
		}
		email = &e
	}

	existing, err := s.store.FindTenantByPhone(ctx, phone.Local)
	if err != nil {
		return nil, internalAppError("Failed to check phone", err)
	}
	if existing != nil && existing.IsActive() {
		return nil, utils.NewAppError(
			http.StatusConflict, utils.ErrCodeConflict, "Phone already belongs to an active tenant",
			fmt.Errorf("%w: %s", ErrPhoneInUse, phone.Local),
		)
	}

	now := s.opts.Now()
	moveIn := now
	if req.MoveInDate != nil {
		moveIn = *req.MoveInDate
	}
	unitCode := strings.ToUpper(strings.TrimSpace(req.UnitCode))

	var tenant *models.Tenant
	var unit *models.Unit
	txErr := s.store.WithTx(ctx, func(tx StoreTx) error {
		u, err := tx.LockUnitByCode(ctx, unitCode)
		if err != nil {
			return err
		}
		if u == nil {
			return unitNotFoundAppError(unitCode)
		}
		occupant, err := tx.FindActiveTenantByUnit(ctx, u.UnitCode)
		if err != nil {
			return err
		}
		if !u.IsVacant || occupant != nil {
			return utils.NewAppError(
				http.StatusConflict, utils.ErrCodeUnitOccupied, fmt.Sprintf("Unit %s is already occupied", u.UnitCode),
				fmt.Errorf("%w: %s", ErrUnitOccupied, u.UnitCode),
			)
		}

		t := &models.Tenant{
			ID:         uuid.New(),
			Name:       strings.Join(strings.Fields(req.Name), " "),
			Phone:      phone.Local,
			Email:      email,
			UnitCode:   u.UnitCode,
			PropertyID: u.PropertyID,
			MoveInDate: moveIn,
			Status:     models.TenantStatusActive,
			Deposit: models.DepositState{
				Amount: u.DepositAmount,
				Status: models.DepositStatusNotRequired,
			},
			Summary: models.FinancialSummary{
				Arrears:       decimal.Zero,
				TotalPaid:     decimal.Zero,
				CreditBalance: decimal.Zero,
			},
			PaymentLog: []models.PaymentLogEntry{},
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if u.DepositAmount.IsPositive() {
			t.Deposit.Status = models.DepositStatusPending
		}
		t.Ledger = s.engine.NewLedger(u, t, models.PeriodOf(moveIn.In(s.opts.Location)))

		if err := tx.CreateTenant(ctx, t); err != nil {
			return fmt.Errorf("create tenant: %w", err)
		}

		u.IsVacant = false
		u.TenantID = &t.ID
		u.ResetCurrentPeriod()
		u.UpdatedAt = now
		if err := tx.SaveUnit(ctx, u); err != nil {
			return fmt.Errorf("link unit: %w", err)
		}
		tenant, unit = t, u
		return nil
	})
	if txErr != nil {
		return nil, tenancyTxError(txErr, "Failed to move tenant in")
	}

	utils.Logger.Infof("Tenant %s moved into unit %s", tenant.ID, unit.UnitCode)
	if s.opts.SendWelcome && s.notifier != nil {
		msg := welcomeMessage(tenant, unit, s.opts.PaybillNumber, tenant.Ledger)
		s.notifier.SendAsync(models.SMSKindWelcome, &tenant.ID, tenant.Phone, msg)
	}
	return dtos.NewTenantDTO(tenant), nil
}

// MoveOut ends an active tenancy and frees the unit if it still points at
// this tenant. Balances stay on the tenant record.
func (s *TenancyService) MoveOut(ctx context.Context, id uuid.UUID, req dtos.MoveOutRequest) (*dtos.TenantDTO, error) {
	now := s.opts.Now()
	moveOut := now
	if req.MoveOutDate != nil {
		moveOut = *req.MoveOutDate
	}

	var tenant *models.Tenant
	txErr := s.store.WithTx(ctx, func(tx StoreTx) error {
		t, err := tx.LockTenant(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return tenantNotFoundAppError(fmt.Errorf("%w: %s", ErrTenantNotFound, id), map[string]any{"tenantId": id})
		}
		if !t.IsActive() {
			return utils.NewAppError(
				http.StatusConflict, utils.ErrCodeConflict, "Tenant is not active",
				fmt.Errorf("%w: %s is %s", ErrTenantNotActive, id, t.Status),
			)
		}

		t.Status = models.TenantStatusMovedOut
		t.MoveOutDate = &moveOut
		t.UpdatedAt = now
		if err := tx.SaveTenant(ctx, t); err != nil {
			return fmt.Errorf("save tenant: %w", err)
		}

		u, err := tx.LockUnitByCode(ctx, t.UnitCode)
		if err != nil {
			return err
		}
		if u != nil && u.TenantID != nil && *u.TenantID == t.ID {
			u.IsVacant = true
			u.TenantID = nil
			u.ResetCurrentPeriod()
			u.UpdatedAt = now
			if err := tx.SaveUnit(ctx, u); err != nil {
				return fmt.Errorf("unlink unit: %w", err)
			}
		}
		tenant = t
		return nil
	})
	if txErr != nil {
		return nil, tenancyTxError(txErr, "Failed to move tenant out")
	}

	utils.Logger.Infof("Tenant %s moved out of unit %s", tenant.ID, tenant.UnitCode)
	return dtos.NewTenantDTO(tenant), nil
}

func tenancyTxError(err error, msg string) error {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, ErrUnitOccupied) {
		return utils.NewAppError(http.StatusConflict, utils.ErrCodeUnitOccupied, "Unit is already occupied", err)
	}
	if errors.Is(err, utils.ErrRowVersionConflict) {
		return utils.NewAppError(http.StatusConflict, utils.ErrCodeRowVersionConflict, "Record changed concurrently; retry", err)
	}
	return internalAppError(msg, err)
}
