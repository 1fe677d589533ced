//go:build integration

package integration

import (
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/app"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/dtos"
	internal_repositories "github.com/rentflow/mono-repo/backend/services/rent-service/internal/repositories"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/services"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/testhelpers"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
	seeding "github.com/rentflow/mono-repo/backend/shared/go-seeding"
	shared_testhelpers "github.com/rentflow/mono-repo/backend/shared/go-testhelpers"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "time/tzdata"
)

const migration = "../../migrations/0001_init.sql"

type flow struct {
	h        *shared_testhelpers.TestHelper
	store    *internal_repositories.LedgerStore
	sender   *testhelpers.FakeSender
	notifier *services.Notifier
	clock    *testhelpers.Clock
	tenancy  *services.TenancyService
	recon    *services.ReconciliationService
	rollover *services.RolloverService
}

func newFlow(t *testing.T) *flow {
	h := shared_testhelpers.NewTestHelper(t, migration)
	f := &flow{
		h:      h,
		store:  internal_repositories.NewLedgerStore(h.DB),
		sender: &testhelpers.FakeSender{},
		clock:  &testhelpers.Clock{T: time.Date(2025, time.January, 3, 9, 0, 0, 0, testhelpers.Nairobi)},
	}
	f.notifier = services.NewNotifier(f.sender, f.store, 5*time.Second)
	t.Cleanup(f.notifier.Wait)

	f.tenancy = services.NewTenancyService(f.store, f.notifier, services.TenancyOptions{
		Location: testhelpers.Nairobi, PaybillNumber: "522533", SendWelcome: true, Now: f.clock.Now,
	})
	f.recon = services.NewReconciliationService(f.store, f.notifier, &testhelpers.FakeAlerter{}, services.ReconciliationOptions{
		Location: testhelpers.Nairobi, SenderPhoneFallback: true, SendConfirmations: true, Now: f.clock.Now,
	})
	f.rollover = services.NewRolloverService(f.store, services.RolloverOptions{Location: testhelpers.Nairobi, Now: f.clock.Now})

	require.NoError(t, app.SeedAllTestData(h.Ctx, h.PropertyRepo, h.UnitRepo, f.tenancy, f.store, "522533"))
	return f
}

func (f *flow) demoTenant(t *testing.T) *models.Tenant {
	t.Helper()
	tenant, err := f.store.FindTenantByPhone(f.h.Ctx, seeding.DemoTenantPhone)
	require.NoError(t, err)
	require.NotNil(t, tenant)
	return tenant
}

func TestSeedIsIdempotent(t *testing.T) {
	f := newFlow(t)
	require.NoError(t, app.SeedAllTestData(f.h.Ctx, f.h.PropertyRepo, f.h.UnitRepo, f.tenancy, f.store, "522533"))

	tenants, err := f.store.ListTenants(f.h.Ctx)
	require.NoError(t, err)
	assert.Len(t, tenants, 1)

	unit, err := f.h.UnitRepo.GetByCode(f.h.Ctx, seeding.DemoTenantUnit)
	require.NoError(t, err)
	assert.False(t, unit.IsVacant)
	require.NotNil(t, unit.TenantID)
	assert.Equal(t, tenants[0].ID, *unit.TenantID)

	require.NoError(t, app.SeedAllTestData(f.h.Ctx, f.h.PropertyRepo, f.h.UnitRepo, f.tenancy, f.store, "400200"))
	prop, err := f.h.PropertyRepo.GetByID(f.h.Ctx, uuid.MustParse(seeding.DemoPropertyID))
	require.NoError(t, err)
	assert.Equal(t, "400200", prop.PaybillNumber)
	assert.Equal(t, int64(2), prop.RowVersion)
}

func TestPaymentRoundTrip(t *testing.T) {
	f := newFlow(t)
	f.clock.T = time.Date(2025, time.January, 10, 12, 0, 0, 0, testhelpers.Nairobi)

	sms := testhelpers.ConfirmationSMS("QFT4INT001", "4,000.00", "GRACE WANJIKU", "254712000001", "5/1/25", seeding.DemoTenantPhone)
	resp, err := f.recon.ProcessWebhook(f.h.Ctx, sms)
	require.NoError(t, err)
	require.True(t, resp.Success)

	tenant := f.demoTenant(t)
	require.NotNil(t, tenant.Ledger)
	assert.Equal(t, models.Period("2025-01"), tenant.Ledger.Period)
	assert.True(t, tenant.Ledger.PaidAmount.Equal(resp.Payment.Paid))
	assert.Equal(t, "4000", tenant.Summary.TotalPaid.String())
	require.Len(t, tenant.PaymentLog, 1)
	assert.Equal(t, "QFT4INT001", tenant.PaymentLog[0].TransactionID)

	payment, err := f.h.PaymentRepo.GetByTransactionID(f.h.Ctx, "QFT4INT001")
	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, tenant.ID, payment.TenantID)

	unit, err := f.h.UnitRepo.GetByCode(f.h.Ctx, seeding.DemoTenantUnit)
	require.NoError(t, err)
	assert.True(t, unit.CurrentPeriodPaid.Equal(tenant.Ledger.PaidAmount))
	require.NotNil(t, unit.LastPaymentTransactionID)
	assert.Equal(t, "QFT4INT001", *unit.LastPaymentTransactionID)

	_, err = f.recon.ProcessWebhook(f.h.Ctx, sms)
	var appErr *utils.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusConflict, appErr.StatusCode)

	f.notifier.Wait()
	logs, err := f.h.SMSLogRepo.ListByTenantID(f.h.Ctx, tenant.ID, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 2, "welcome and payment confirmation")
}

func TestConcurrentDuplicateWebhooks(t *testing.T) {
	f := newFlow(t)
	f.clock.T = time.Date(2025, time.January, 10, 12, 0, 0, 0, testhelpers.Nairobi)
	sms := testhelpers.ConfirmationSMS("QFT4INT002", "1,000.00", "GRACE WANJIKU", "254712000001", "6/1/25", seeding.DemoTenantPhone)

	const workers = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.recon.ProcessWebhook(f.h.Ctx, sms)
			mu.Lock()
			defer mu.Unlock()
			var appErr *utils.AppError
			switch {
			case err == nil:
				successes++
			case errors.As(err, &appErr) && appErr.StatusCode == http.StatusConflict:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
	tenant := f.demoTenant(t)
	assert.Equal(t, "1000", tenant.Summary.TotalPaid.String())
	assert.Len(t, tenant.PaymentLog, 1)
}

func TestRolloverCarriesArrears(t *testing.T) {
	f := newFlow(t)
	before := f.demoTenant(t)
	require.NotNil(t, before.Ledger)
	owed := before.Ledger.RemainingAmount

	f.clock.T = time.Date(2025, time.February, 1, 0, 1, 0, 0, testhelpers.Nairobi)
	resp, err := f.rollover.Reset(f.h.Ctx, dtos.RolloverRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.Period("2025-02"), resp.Period)
	assert.Equal(t, 1, resp.ResetCount)
	assert.Empty(t, resp.Failures)

	after := f.demoTenant(t)
	assert.Equal(t, models.Period("2025-02"), after.Ledger.Period)
	assert.True(t, after.Summary.Arrears.Equal(owed), "arrears %s owed %s", after.Summary.Arrears, owed)

	again, err := f.rollover.Reset(f.h.Ctx, dtos.RolloverRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, again.ResetCount)
	assert.Equal(t, 1, again.Skipped)
}

func TestMoveInOccupiedUnit(t *testing.T) {
	f := newFlow(t)
	_, err := f.tenancy.MoveIn(f.h.Ctx, dtos.MoveInRequest{
		Name: "Peter Otieno", Phone: "0722000111", UnitCode: seeding.DemoTenantUnit,
	})
	var appErr *utils.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, utils.ErrCodeUnitOccupied, appErr.Code)

	moved, err := f.tenancy.MoveIn(f.h.Ctx, dtos.MoveInRequest{
		Name: "Peter Otieno", Phone: "0722000111", UnitCode: "b1",
	})
	require.NoError(t, err)
	assert.Equal(t, "B1", moved.UnitCode)
	assert.Equal(t, models.DepositStatusNotRequired, moved.Deposit.Status)
}
