package controllers

import (
	"net/http"

	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/dtos"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/services"
	"github.com/rentflow/mono-repo/backend/shared/go-middleware"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
)

type AdminController struct {
	rollover       *services.RolloverService
	reminders      *services.ReminderService
	reconciliation *services.ReconciliationService
}

func NewAdminController(
	rollover *services.RolloverService,
	reminders *services.ReminderService,
	reconciliation *services.ReconciliationService,
) *AdminController {
	return &AdminController{
		rollover:       rollover,
		reminders:      reminders,
		reconciliation: reconciliation,
	}
}

// POST /api/v1/admin/reset-monthly-payments
func (c *AdminController) ResetMonthlyPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "ResetMonthlyPaymentsHandler").
		WithField("adminID", middleware.UserIDFromContext(r))

	var req dtos.RolloverRequest
	if !decodeAndValidate(w, r, &req, true) {
		return
	}

	resp, err := c.rollover.Reset(r.Context(), req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	logger.Infof("Manual rollover to %s: %d reset, %d skipped, %d failed",
		resp.Period, resp.ResetCount, resp.Skipped, len(resp.Failures))
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// POST /api/v1/admin/reminders?period=YYYY-MM
func (c *AdminController) SendRemindersHandler(w http.ResponseWriter, r *http.Request) {
	period, err := c.reminders.ResolvePeriod(r.URL.Query().Get("period"))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	resp, err := c.reminders.SendReminders(r.Context(), period)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// GET /api/v1/admin/overdue?period=YYYY-MM
func (c *AdminController) OverdueHandler(w http.ResponseWriter, r *http.Request) {
	period, err := c.reminders.ResolvePeriod(r.URL.Query().Get("period"))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	resp, err := c.reminders.ListOverdue(r.Context(), period)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// GET /api/v1/admin/unmatched-payments
func (c *AdminController) UnmatchedPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := c.reconciliation.ListUnmatched(r.Context())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// POST /api/v1/admin/tenants/{id}/send-reminder
func (c *AdminController) SendTenantReminderHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantIDFromPath(w, r)
	if !ok {
		return
	}
	resp, err := c.reminders.SendReminder(r.Context(), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// GET /api/v1/admin/arrears
func (c *AdminController) ArrearsHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := c.reminders.ListArrears(r.Context())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
