package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/dtos"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/services"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
)

type TenantController struct {
	tenancy *services.TenancyService
	ledgers *services.LedgerQueryService
}

func NewTenantController(tenancy *services.TenancyService, ledgers *services.LedgerQueryService) *TenantController {
	return &TenantController{tenancy: tenancy, ledgers: ledgers}
}

func tenantIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid tenant id", nil, err)
		return uuid.Nil, false
	}
	return id, true
}

// POST /api/v1/admin/tenants
func (c *TenantController) MoveInHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.MoveInRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}
	tenant, err := c.tenancy.MoveIn(r.Context(), req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, tenant)
}

// POST /api/v1/admin/tenants/{id}/move-out
func (c *TenantController) MoveOutHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantIDFromPath(w, r)
	if !ok {
		return
	}
	var req dtos.MoveOutRequest
	if !decodeAndValidate(w, r, &req, true) {
		return
	}
	tenant, err := c.tenancy.MoveOut(r.Context(), id, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, tenant)
}

// GET /api/v1/tenants/{id}/ledger?period=YYYY-MM
func (c *TenantController) LedgerHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantIDFromPath(w, r)
	if !ok {
		return
	}
	resp, err := c.ledgers.GetLedger(r.Context(), id, r.URL.Query().Get("period"))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
