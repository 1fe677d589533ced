// Package mpesa turns M-Pesa paybill confirmation SMS bodies into payment events.
package mpesa

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
	"github.com/shopspring/decimal"
)

// Parse failure reasons.
const (
	ReasonEmptyBody        = "empty_body"
	ReasonTemplateMismatch = "template_mismatch"
	ReasonInvalidAmount    = "invalid_amount"
	ReasonInvalidDate      = "invalid_date"
)

// ParseError is returned for any body that is not a usable confirmation.
type ParseError struct {
	Reason string
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return "mpesa parse: " + e.Reason
	}
	return fmt.Sprintf("mpesa parse: %s: %s", e.Reason, e.Detail)
}

// IsParseError reports whether err is, or wraps, a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// PaymentEvent is a structured paybill confirmation.
type PaymentEvent struct {
	TransactionID    string          `json:"transaction_id"`
	Amount           decimal.Decimal `json:"amount"`
	SenderName       string          `json:"sender_name"`
	SenderPhone      string          `json:"sender_phone"`
	AccountReference string          `json:"account_reference"`
	OccurredAt       time.Time       `json:"occurred_at"`
	PaymentPeriod    models.Period   `json:"payment_period"`
	RawMessage       string          `json:"-"`
}

// AccountVariants are the normalized spellings of the account reference.
func (e *PaymentEvent) AccountVariants() utils.PhoneVariants {
	return utils.PhoneVariantsOf(e.AccountReference)
}

// SenderVariants are the normalized spellings of the payer's phone.
func (e *PaymentEvent) SenderVariants() utils.PhoneVariants {
	return utils.PhoneVariantsOf(e.SenderPhone)
}

//	QFT4ABC123 Confirmed. Ksh4,000.00 received from JOHN DOE 254712345678 on 5/1/25 at 2:15 PM.
//	New Account balance is Ksh10,000.00. Account Number 0712345678
var confirmationRegex = regexp.MustCompile(
	`(?is)(\w+)\s+Confirmed\.?\s+Ksh\s?([\d,]+\.\d{2})\s+received\s+from\s+([^0-9]+?)\s+(\+?\d{10,12})` +
		`\s+on\s+(\d{1,2})/(\d{1,2})/(\d{2})` +
		`(?:\s+at\s+(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([AP]M)?)?` +
		`.*?Account\s+Number\s+(\w+)`,
)

// Parser is stateless apart from the timezone dates are interpreted in.
type Parser struct {
	loc *time.Location
}

func NewParser(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{loc: loc}
}

// Parse extracts a PaymentEvent from body. It never panics on malformed input;
// every failure is a *ParseError.
func (p *Parser) Parse(body string) (*PaymentEvent, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return nil, &ParseError{Reason: ReasonEmptyBody}
	}

	m := confirmationRegex.FindStringSubmatch(trimmed)
	if m == nil {
		return nil, &ParseError{Reason: ReasonTemplateMismatch}
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(m[2], ",", ""))
	if err != nil || !amount.IsPositive() {
		return nil, &ParseError{Reason: ReasonInvalidAmount, Detail: m[2]}
	}

	occurredAt, err := p.buildTimestamp(m[5], m[6], m[7], m[8], m[9], m[10], m[11])
	if err != nil {
		return nil, err
	}

	return &PaymentEvent{
		TransactionID:    strings.ToUpper(m[1]),
		Amount:           amount,
		SenderName:       strings.Join(strings.Fields(m[3]), " "),
		SenderPhone:      m[4],
		AccountReference: m[12],
		OccurredAt:       occurredAt,
		PaymentPeriod:    models.PeriodOf(occurredAt),
		RawMessage:       body,
	}, nil
}

func (p *Parser) buildTimestamp(dayS, monthS, yearS, hourS, minS, secS, meridiem string) (time.Time, error) {
	day, _ := strconv.Atoi(dayS)
	month, _ := strconv.Atoi(monthS)
	yy, _ := strconv.Atoi(yearS)
	year := 2000 + yy

	if month < 1 || month > 12 || day < 1 || day > daysIn(year, time.Month(month)) {
		return time.Time{}, &ParseError{Reason: ReasonInvalidDate, Detail: fmt.Sprintf("%s/%s/%s", dayS, monthS, yearS)}
	}

	hour, minute, second := 0, 0, 0
	if hourS != "" {
		hour, _ = strconv.Atoi(hourS)
		minute, _ = strconv.Atoi(minS)
		if secS != "" {
			second, _ = strconv.Atoi(secS)
		}
		badTime := &ParseError{Reason: ReasonInvalidDate, Detail: "time " + hourS + ":" + minS}
		if meridiem != "" {
			if hour < 1 || hour > 12 {
				return time.Time{}, badTime
			}
			hour %= 12
			if strings.EqualFold(meridiem, "PM") {
				hour += 12
			}
		}
		if hour > 23 || minute > 59 || second > 59 {
			return time.Time{}, badTime
		}
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, p.loc), nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
