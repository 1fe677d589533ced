package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/mail"
	"strings"

	"github.com/sendgrid/sendgrid-go"
)

// MXResolver is satisfied by *net.Resolver.
type MXResolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// EmailValidator checks tenant contact addresses before they are stored.
//
// Syntax is always checked. With a resolver set the domain must publish an MX
// record, and with UseSendGrid the address must also pass the SendGrid
// deliverability check ("valid" or "risky").
type EmailValidator struct {
	Resolver       MXResolver
	SendGridAPIKey string
	UseSendGrid    bool
}

// NewEmailValidator uses the default resolver for MX lookups.
func NewEmailValidator(sendgridAPIKey string, useSendGrid bool) *EmailValidator {
	return &EmailValidator{
		Resolver:       net.DefaultResolver,
		SendGridAPIKey: sendgridAPIKey,
		UseSendGrid:    useSendGrid,
	}
}

func isValidEmailSyntax(e string) bool {
	addr, err := mail.ParseAddress(e)
	return err == nil && addr.Address == e
}

// Validate returns (false, nil) for an address that is well-formed but
// undeliverable. Network and SendGrid errors are returned so the caller can
// decide whether to fail open.
func (v *EmailValidator) Validate(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if !isValidEmailSyntax(email) {
		return false, nil
	}
	parts := strings.SplitN(email, "@", 2)
	if len(parts) != 2 || parts[1] == "" {
		return false, nil
	}

	if v.Resolver != nil {
		mx, err := v.Resolver.LookupMX(ctx, parts[1])
		if err != nil || len(mx) == 0 {
			return false, nil
		}
	}

	if !v.UseSendGrid {
		return true, nil
	}

	req := sendgrid.GetRequest(v.SendGridAPIKey, "/v3/validations/email", "https://api.sendgrid.com")
	req.Method = "POST"
	body, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return false, err
	}
	req.Body = body

	resp, err := sendgrid.API(req)
	if err != nil {
		return false, fmt.Errorf("%w: sendgrid validation: %v", ErrExternalServiceFailure, err)
	}

	switch resp.StatusCode {
	case 200:
		var sg struct {
			Result struct {
				Verdict string `json:"verdict"`
			} `json:"result"`
		}
		if jsonErr := json.Unmarshal([]byte(resp.Body), &sg); jsonErr != nil {
			return false, fmt.Errorf("sendgrid JSON decode: %w", jsonErr)
		}
		verdict := strings.ToLower(sg.Result.Verdict)
		return verdict == "valid" || verdict == "risky", nil
	case 400:
		return false, nil
	default:
		return false, fmt.Errorf("%w: sendgrid validation status %d", ErrExternalServiceFailure, resp.StatusCode)
	}
}
