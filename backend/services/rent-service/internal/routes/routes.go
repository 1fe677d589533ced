package routes

const (
	Health = "/health"

	MpesaWebhook = "/api/v1/webhooks/mpesa"

	AdminResetMonthlyPayments = "/api/v1/admin/reset-monthly-payments"
	AdminReminders            = "/api/v1/admin/reminders"
	AdminOverdue              = "/api/v1/admin/overdue"
	AdminUnmatchedPayments    = "/api/v1/admin/unmatched-payments"
	AdminArrears              = "/api/v1/admin/arrears"
	AdminTenants              = "/api/v1/admin/tenants"
	AdminTenantMoveOut        = "/api/v1/admin/tenants/{id}/move-out"
	AdminTenantReminder       = "/api/v1/admin/tenants/{id}/send-reminder"

	TenantLedger = "/api/v1/tenants/{id}/ledger"
)
