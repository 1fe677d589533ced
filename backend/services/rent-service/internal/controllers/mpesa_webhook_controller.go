package controllers

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/constants"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/dtos"
	"github.com/rentflow/mono-repo/backend/shared/go-middleware"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
)

// WebhookProcessor is implemented by *services.ReconciliationService.
type WebhookProcessor interface {
	ProcessWebhook(ctx context.Context, body string) (*dtos.WebhookResponse, error)
}

type MpesaWebhookController struct {
	processor WebhookProcessor
}

func NewMpesaWebhookController(p WebhookProcessor) *MpesaWebhookController {
	return &MpesaWebhookController{processor: p}
}

// POST /api/v1/webhooks/mpesa
//
// Accepts {"body": "..."} (or "message"/"text") as JSON, or the raw SMS as
// text/plain.
func (c *MpesaWebhookController) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("request_id", middleware.RequestIDFromContext(r.Context()))

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Failed to read webhook body",
			map[string]any{"success": false}, err)
		return
	}

	body, err := smsBodyFromPayload(r.Header.Get("Content-Type"), payload)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload",
			map[string]any{"success": false}, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.WebhookProcessTimeout)
	defer cancel()

	resp, err := c.processor.ProcessWebhook(ctx, body)
	if err != nil {
		logger.WithError(err).Info("M-Pesa webhook rejected")
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func smsBodyFromPayload(contentType string, payload []byte) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "text/plain" {
		return string(payload), nil
	}
	if len(strings.TrimSpace(string(payload))) == 0 {
		return "", nil
	}

	var req dtos.MpesaWebhookRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return "", err
	}
	switch {
	case strings.TrimSpace(req.Body) != "":
		return req.Body, nil
	case strings.TrimSpace(req.Message) != "":
		return req.Message, nil
	default:
		return req.Text, nil
	}
}
