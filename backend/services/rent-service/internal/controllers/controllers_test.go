package controllers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/controllers"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/routes"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/services"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/testhelpers"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type server struct {
	store    *testhelpers.MemStore
	notifier *services.Notifier
	router   *mux.Router
}

// newServer mounts every handler without the admin JWT middleware, which is
// covered in go-middleware.
func newServer(t *testing.T) *server {
	t.Helper()
	clock := &testhelpers.Clock{T: time.Date(2025, time.January, 10, 12, 0, 0, 0, testhelpers.Nairobi)}
	store := testhelpers.NewMemStore()
	store.AddProperty(&models.Property{ID: testhelpers.PropertyID, PropertyName: "Kilimani Court"})

	unit := testhelpers.NewUnit(testhelpers.UnitCode)
	store.AddUnit(unit)
	store.AddTenant(testhelpers.NewTenant(testhelpers.TenantID, testhelpers.TenantPhone, unit,
		time.Date(2025, time.January, 2, 9, 0, 0, 0, testhelpers.Nairobi)))
	vacant := testhelpers.NewUnit("B1")
	vacant.IsVacant = true
	store.AddUnit(vacant)

	notifier := services.NewNotifier(&testhelpers.FakeSender{}, store, time.Second)
	t.Cleanup(notifier.Wait)

	recon := services.NewReconciliationService(store, notifier, &testhelpers.FakeAlerter{}, services.ReconciliationOptions{
		Location:            testhelpers.Nairobi,
		SenderPhoneFallback: true,
		SendConfirmations:   true,
		Now:                 clock.Now,
	})
	rollover := services.NewRolloverService(store, services.RolloverOptions{Location: testhelpers.Nairobi, Now: clock.Now})
	reminders := services.NewReminderService(store, notifier, services.ReminderOptions{
		Location: testhelpers.Nairobi, PaybillNumber: "522533", Now: clock.Now,
	})
	tenancy := services.NewTenancyService(store, notifier, services.TenancyOptions{
		Location: testhelpers.Nairobi, PaybillNumber: "522533", Now: clock.Now,
	})
	ledgers := services.NewLedgerQueryService(store, testhelpers.Nairobi, clock.Now)

	webhook := controllers.NewMpesaWebhookController(recon)
	admin := controllers.NewAdminController(rollover, reminders, recon)
	tenants := controllers.NewTenantController(tenancy, ledgers)

	r := mux.NewRouter()
	r.HandleFunc(routes.MpesaWebhook, webhook.WebhookHandler).Methods(http.MethodPost)
	r.HandleFunc(routes.AdminResetMonthlyPayments, admin.ResetMonthlyPaymentsHandler).Methods(http.MethodPost)
	r.HandleFunc(routes.AdminReminders, admin.SendRemindersHandler).Methods(http.MethodPost)
	r.HandleFunc(routes.AdminOverdue, admin.OverdueHandler).Methods(http.MethodGet)
	r.HandleFunc(routes.AdminUnmatchedPayments, admin.UnmatchedPaymentsHandler).Methods(http.MethodGet)
	r.HandleFunc(routes.AdminArrears, admin.ArrearsHandler).Methods(http.MethodGet)
	r.HandleFunc(routes.AdminTenantReminder, admin.SendTenantReminderHandler).Methods(http.MethodPost)
	r.HandleFunc(routes.AdminTenants, tenants.MoveInHandler).Methods(http.MethodPost)
	r.HandleFunc(routes.AdminTenantMoveOut, tenants.MoveOutHandler).Methods(http.MethodPost)
	r.HandleFunc(routes.TenantLedger, tenants.LedgerHandler).Methods(http.MethodGet)

	return &server{store: store, notifier: notifier, router: r}
}

func (s *server) do(t *testing.T, method, path, contentType, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func smsJSON(t *testing.T, field, sms string) string {
	t.Helper()
	b, err := json.Marshal(map[string]string{field: sms})
	require.NoError(t, err)
	return string(b)
}

var paymentSMS = testhelpers.ConfirmationSMS("QFT4ABC123", "4,000.00", "JANE WANJIKU", "254712345678", "5/1/25", testhelpers.TenantPhone)

func TestWebhookHandler(t *testing.T) {
	t.Run("json body", func(t *testing.T) {
		s := newServer(t)
		status, out := s.do(t, http.MethodPost, routes.MpesaWebhook, "application/json", smsJSON(t, "body", paymentSMS))
		require.Equal(t, http.StatusOK, status, out)
		assert.Equal(t, true, out["success"])
		assert.Equal(t, "QFT4ABC123", out["transactionId"])
		require.NotNil(t, s.store.Payment("QFT4ABC123"))
	})

	t.Run("message alias", func(t *testing.T) {
		s := newServer(t)
		status, out := s.do(t, http.MethodPost, routes.MpesaWebhook, "application/json", smsJSON(t, "message", paymentSMS))
		require.Equal(t, http.StatusOK, status, out)
		assert.Equal(t, "QFT4ABC123", out["transactionId"])
	})

	t.Run("plain text", func(t *testing.T) {
		s := newServer(t)
		status, out := s.do(t, http.MethodPost, routes.MpesaWebhook, "text/plain; charset=utf-8", paymentSMS)
		require.Equal(t, http.StatusOK, status, out)
		assert.Equal(t, 1, s.store.PaymentCount())
	})

	t.Run("duplicate", func(t *testing.T) {
		s := newServer(t)
		status, _ := s.do(t, http.MethodPost, routes.MpesaWebhook, "application/json", smsJSON(t, "body", paymentSMS))
		require.Equal(t, http.StatusOK, status)
		status, out := s.do(t, http.MethodPost, routes.MpesaWebhook, "application/json", smsJSON(t, "body", paymentSMS))
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "duplicate_transaction", out["code"])
		assert.Equal(t, false, out["success"])
		assert.Equal(t, 1, s.store.PaymentCount())
	})

	t.Run("invalid json", func(t *testing.T) {
		s := newServer(t)
		status, out := s.do(t, http.MethodPost, routes.MpesaWebhook, "application/json", "{not json")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "invalid_payload", out["code"])
	})

	t.Run("empty body", func(t *testing.T) {
		s := newServer(t)
		status, out := s.do(t, http.MethodPost, routes.MpesaWebhook, "application/json", `{"body":"   "}`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "parse_error", out["code"])
		details, ok := out["details"].(map[string]any)
		require.True(t, ok, out)
		assert.Equal(t, false, details["success"])
	})

	t.Run("unknown tenant", func(t *testing.T) {
		s := newServer(t)
		sms := testhelpers.ConfirmationSMS("QFT4ABC999", "1,000.00", "JOHN DOE", "254799999999", "5/1/25", "Z9")
		status, out := s.do(t, http.MethodPost, routes.MpesaWebhook, "application/json", smsJSON(t, "body", sms))
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "tenant_not_found", out["code"])

		status, out = s.do(t, http.MethodGet, routes.AdminUnmatchedPayments, "", "")
		require.Equal(t, http.StatusOK, status)
		payments, ok := out["payments"].([]any)
		require.True(t, ok, out)
		assert.Len(t, payments, 1)
	})
}

func TestMoveInAndOutHandlers(t *testing.T) {
	s := newServer(t)

	status, out := s.do(t, http.MethodPost, routes.AdminTenants, "application/json", `{"name":"","phone":"0722000111","unitCode":"B1"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", out["code"])

	status, out = s.do(t, http.MethodPost, routes.AdminTenants, "application/json", `{"name":"Peter Otieno","phone":"0722000111","unitCode":"A1"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "unit_occupied", out["code"])

	status, out = s.do(t, http.MethodPost, routes.AdminTenants, "application/json", `{"name":"Peter  Otieno","phone":"+254722000111","unitCode":"b1"}`)
	require.Equal(t, http.StatusCreated, status, out)
	assert.Equal(t, "Peter Otieno", out["name"])
	assert.Equal(t, "0722000111", out["phone"])
	assert.Equal(t, "B1", out["unitCode"])
	id, _ := out["id"].(string)
	require.NotEmpty(t, id)

	status, out = s.do(t, http.MethodPost, "/api/v1/admin/tenants/"+id+"/move-out", "application/json", "")
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, "moved_out", out["tenantStatus"])
	assert.True(t, s.store.Unit("B1").IsVacant)

	status, out = s.do(t, http.MethodPost, "/api/v1/admin/tenants/not-a-uuid/move-out", "application/json", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_payload", out["code"])
}

func TestLedgerHandler(t *testing.T) {
	s := newServer(t)
	path := "/api/v1/tenants/" + testhelpers.TenantID.String() + "/ledger"

	status, out := s.do(t, http.MethodGet, path, "", "")
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, "2025-01", out["period"])
	assert.Equal(t, false, out["persisted"])

	status, out = s.do(t, http.MethodGet, path+"?period=2025-13", "", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_period", out["code"])
}

func TestAdminHandlers(t *testing.T) {
	s := newServer(t)

	status, out := s.do(t, http.MethodPost, routes.AdminResetMonthlyPayments, "", "")
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "2025-01", out["period"])

	status, out = s.do(t, http.MethodPost, routes.AdminResetMonthlyPayments, "application/json", `{"period":"2025-02"}`)
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, "2025-02", out["period"])
	assert.EqualValues(t, 1, out["resetCount"])

	status, out = s.do(t, http.MethodPost, routes.AdminResetMonthlyPayments, "application/json", `{"period":"Feb"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", out["code"])

	status, out = s.do(t, http.MethodGet, routes.AdminOverdue+"?period=2025-02", "", "")
	require.Equal(t, http.StatusOK, status, out)
	tenants, ok := out["tenants"].([]any)
	require.True(t, ok, out)
	assert.Len(t, tenants, 1)

	status, out = s.do(t, http.MethodPost, routes.AdminReminders+"?period=2025-02", "", "")
	require.Equal(t, http.StatusOK, status, out)
	assert.EqualValues(t, 1, out["sent"])
}

func TestArrearsAndTenantReminderHandlers(t *testing.T) {
	s := newServer(t)
	reminderPath := func(id string) string {
		return strings.Replace(routes.AdminTenantReminder, "{id}", id, 1)
	}

	status, out := s.do(t, http.MethodGet, routes.AdminArrears, "", "")
	require.Equal(t, http.StatusOK, status, out)
	assert.Empty(t, out["tenants"])
	assert.Equal(t, "0", out["totalArrears"])

	status, out = s.do(t, http.MethodPost, reminderPath(testhelpers.TenantID.String()), "", "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "no_arrears", out["code"])

	tenant := s.store.Tenant(testhelpers.TenantID)
	tenant.Summary.Arrears = decimal.NewFromInt(2500)
	s.store.AddTenant(tenant)

	status, out = s.do(t, http.MethodGet, routes.AdminArrears, "", "")
	require.Equal(t, http.StatusOK, status, out)
	tenants, ok := out["tenants"].([]any)
	require.True(t, ok, out)
	require.Len(t, tenants, 1)
	assert.Equal(t, "2500", tenants[0].(map[string]any)["arrears"])
	props, ok := out["properties"].([]any)
	require.True(t, ok, out)
	require.Len(t, props, 1)
	assert.Equal(t, "Kilimani Court", props[0].(map[string]any)["propertyName"])
	assert.Equal(t, "2500", props[0].(map[string]any)["totalArrears"])

	status, out = s.do(t, http.MethodPost, reminderPath(testhelpers.TenantID.String()), "", "")
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, true, out["success"])
	assert.NotEmpty(t, out["messageId"])

	status, out = s.do(t, http.MethodPost, reminderPath("not-a-uuid"), "", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_payload", out["code"])

	status, out = s.do(t, http.MethodPost, reminderPath(uuid.NewString()), "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "tenant_not_found", out["code"])
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthCheckHandler(t *testing.T) {
	for name, tc := range map[string]struct {
		err  error
		want int
	}{
		"up":   {want: http.StatusOK},
		"down": {err: errors.New("connection refused"), want: http.StatusServiceUnavailable},
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			controllers.NewHealthController(stubPinger{tc.err}).HealthCheckHandler(rec, httptest.NewRequest(http.MethodGet, routes.Health, nil))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
