package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/services"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/testhelpers"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var d = decimal.RequireFromString

func assertDec(t *testing.T, want string, got decimal.Decimal, msg ...any) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s got %s %v", want, got.String(), msg)
}

func requireAppError(t *testing.T, err error, status int, code string) *utils.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *utils.AppError
	require.True(t, errors.As(err, &appErr), "expected *utils.AppError, got %T: %v", err, err)
	assert.Equal(t, status, appErr.StatusCode)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

// harness wires the services over a MemStore with one tenant on unit A1
// who moved in on 2 January 2025. The clock reads 10 January 2025.
type harness struct {
	store    *testhelpers.MemStore
	sender   *testhelpers.FakeSender
	alerter  *testhelpers.FakeAlerter
	notifier *services.Notifier
	clock    *testhelpers.Clock
	unit     *models.Unit
	tenant   *models.Tenant
	recon    *services.ReconciliationService
}

func jan(day, hour int) time.Time {
	return time.Date(2025, time.January, day, hour, 0, 0, 0, testhelpers.Nairobi)
}

func newHarness(t *testing.T, mutate ...func(*services.ReconciliationOptions)) *harness {
	t.Helper()
	h := &harness{
		store:   testhelpers.NewMemStore(),
		sender:  &testhelpers.FakeSender{},
		alerter: &testhelpers.FakeAlerter{},
		clock:   &testhelpers.Clock{T: jan(10, 12)},
	}
	h.unit = testhelpers.NewUnit(testhelpers.UnitCode)
	h.tenant = testhelpers.NewTenant(testhelpers.TenantID, testhelpers.TenantPhone, h.unit, jan(2, 9))
	h.store.AddUnit(h.unit)
	h.store.AddTenant(h.tenant)

	h.notifier = services.NewNotifier(h.sender, h.store, time.Second)
	opts := services.ReconciliationOptions{
		Location:            testhelpers.Nairobi,
		SenderPhoneFallback: true,
		SendConfirmations:   true,
		Now:                 h.clock.Now,
	}
	for _, m := range mutate {
		m(&opts)
	}
	h.recon = services.NewReconciliationService(h.store, h.notifier, h.alerter, opts)
	return h
}

func (h *harness) stored() *models.Tenant {
	return h.store.Tenant(testhelpers.TenantID)
}

func uuidFrom(t *testing.T, suffix string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse("7d9f3f8e-2f4b-4f57-9a57-5d8d0b1a" + suffix)
	require.NoError(t, err)
	return id
}
