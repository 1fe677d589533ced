package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/mpesa"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
)

var (
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	ErrTenantNotFound       = errors.New("tenant not found")
	ErrUnitNotFound         = errors.New("unit not found")
	ErrPersistence          = errors.New("persistence failure")
	ErrUnitOccupied         = errors.New("unit already has an active tenant")
	ErrTenantNotActive      = errors.New("tenant is not active")
	ErrPhoneInUse           = errors.New("phone already belongs to an active tenant")
	ErrNoArrears            = errors.New("tenant has no arrears")
	ErrReminderNotSent      = errors.New("reminder sms not sent")
)

func parseAppError(err error) *utils.AppError {
	details := map[string]any{"success": false}
	var pe *mpesa.ParseError
	if errors.As(err, &pe) {
		details["reason"] = pe.Reason
	}
	appErr := utils.NewAppError(http.StatusBadRequest, utils.ErrCodeParseError, "Could not parse M-Pesa message", err)
	appErr.Details = details
	return appErr
}

func duplicateAppError(txID string) *utils.AppError {
	appErr := utils.NewAppError(
		http.StatusConflict,
		utils.ErrCodeDuplicateTransaction,
		fmt.Sprintf("Transaction %s has already been processed", txID),
		fmt.Errorf("%w: %s", ErrDuplicateTransaction, txID),
	)
	appErr.Details = map[string]any{"success": false, "transactionId": txID}
	return appErr
}

func tenantNotFoundAppError(err error, details map[string]any) *utils.AppError {
	if details == nil {
		details = map[string]any{}
	}
	details["success"] = false
	appErr := utils.NewAppError(http.StatusNotFound, utils.ErrCodeTenantNotFound, "No tenant matches this payment", err)
	appErr.Details = details
	return appErr
}

func unitNotFoundAppError(unitCode string) *utils.AppError {
	appErr := utils.NewAppError(
		http.StatusNotFound,
		utils.ErrCodeUnitNotFound,
		fmt.Sprintf("Unit %s not found", unitCode),
		fmt.Errorf("%w: %s", ErrUnitNotFound, unitCode),
	)
	appErr.Details = map[string]any{"success": false, "unitCode": unitCode}
	return appErr
}

func persistenceAppError(err error) *utils.AppError {
	appErr := utils.NewAppError(
		http.StatusInternalServerError,
		utils.ErrCodePersistence,
		"Failed to record payment",
		fmt.Errorf("%w: %v", ErrPersistence, err),
	)
	appErr.Details = map[string]any{"success": false}
	return appErr
}

func invalidPeriodAppError(err error) *utils.AppError {
	return utils.NewAppError(http.StatusBadRequest, utils.ErrCodeInvalidPeriod, "Period must be formatted YYYY-MM", err)
}

func internalAppError(msg string, err error) *utils.AppError {
	return utils.NewAppError(http.StatusInternalServerError, utils.ErrCodeInternal, msg, err)
}
