package services_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/dtos"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/services"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/testhelpers"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRollover(h *harness) *services.RolloverService {
	return services.NewRolloverService(h.store, services.RolloverOptions{
		Location: testhelpers.Nairobi,
		Now:      h.clock.Now,
	})
}

func TestRolloverPeriod_CarriesBalanceAndResetsUnit(t *testing.T) {
	h := newHarness(t, func(o *services.ReconciliationOptions) { o.SendConfirmations = false })
	ctx := context.Background()

	_, err := h.recon.ProcessWebhook(ctx, sms("QRA0000001", "4,000.00", "0712345678"))
	require.NoError(t, err)

	h.clock.T = time.Date(2025, time.February, 1, 0, 1, 0, 0, testhelpers.Nairobi)
	res, err := newRollover(h).ResetMonthlyTracking(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Period("2025-02"), res.Period)
	assert.Equal(t, 1, res.TenantsUpdated)
	assert.Equal(t, 0, res.Skipped)
	assert.Empty(t, res.Failures)

	tenant := h.stored()
	require.NotNil(t, tenant.Ledger)
	assert.Equal(t, models.Period("2025-02"), tenant.Ledger.Period)
	assertDec(t, "5500", tenant.Ledger.ExpectedAmount)
	assertDec(t, "0", tenant.Ledger.PaidAmount)
	assert.Equal(t, models.LedgerStatusUnpaid, tenant.Ledger.Status)
	assertDec(t, "4500", tenant.Summary.Arrears)

	unit := h.store.Unit(testhelpers.UnitCode)
	assertDec(t, "0", unit.CurrentPeriodPaid)
	assert.Equal(t, models.LedgerStatusUnpaid, unit.CurrentPeriodStatus)
}

func TestRolloverPeriod_IsIdempotent(t *testing.T) {
	h := newHarness(t)
	svc := newRollover(h)
	ctx := context.Background()

	first, err := svc.RolloverPeriod(ctx, "2025-02")
	require.NoError(t, err)
	assert.Equal(t, 1, first.TenantsUpdated)
	version := h.stored().RowVersion

	second, err := svc.RolloverPeriod(ctx, "2025-02")
	require.NoError(t, err)
	assert.Equal(t, 0, second.TenantsUpdated)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, version, h.stored().RowVersion)

	// A later ledger is never rolled back to an earlier period.
	older, err := svc.RolloverPeriod(ctx, "2025-01")
	require.NoError(t, err)
	assert.Equal(t, 0, older.TenantsUpdated)
	assert.Equal(t, models.Period("2025-02"), h.stored().Ledger.Period)
}

func TestRolloverPeriod_MissingUnitIsCountedNotFatal(t *testing.T) {
	h := newHarness(t)
	orphan := testhelpers.NewTenant(uuidFrom(t, "0303"), "0733000333", testhelpers.NewUnit("Z9"), jan(3, 9))
	h.store.AddTenant(orphan)
	moved := testhelpers.NewTenant(uuidFrom(t, "0404"), "0744000444", testhelpers.NewUnit("Z8"), jan(3, 9))
	moved.Status = models.TenantStatusMovedOut
	h.store.AddTenant(moved)

	res, err := newRollover(h).RolloverPeriod(context.Background(), "2025-02")
	require.NoError(t, err)
	assert.Equal(t, 1, res.TenantsUpdated)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, orphan.ID, res.Failures[0].TenantID)
	assert.Equal(t, "Z9", res.Failures[0].UnitCode)

	assert.Equal(t, models.Period("2025-02"), h.stored().Ledger.Period)
	assert.Nil(t, h.store.Tenant(orphan.ID).Ledger)
	assert.Nil(t, h.store.Tenant(moved.ID).Ledger)
}

func TestRolloverReset_PeriodHandling(t *testing.T) {
	h := newHarness(t)
	svc := newRollover(h)

	_, err := svc.Reset(context.Background(), dtos.RolloverRequest{Period: "2025-13"})
	requireAppError(t, err, http.StatusBadRequest, utils.ErrCodeInvalidPeriod)

	resp, err := svc.Reset(context.Background(), dtos.RolloverRequest{Period: "2025-03"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, models.Period("2025-03"), resp.Period)
	assert.Equal(t, 1, resp.ResetCount)

	resp, err = svc.Reset(context.Background(), dtos.RolloverRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.Period("2025-01"), resp.Period)
	assert.Equal(t, 0, resp.ResetCount)
	assert.Equal(t, 1, resp.Skipped)
}
