package mpesa

import (
	"testing"
	"time"

	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSMS = "QFT4ABC123 Confirmed. Ksh4,000.00 received from JOHN  DOE 254712345678 on 5/1/25 at 2:15 PM. " +
	"New Account balance is Ksh10,000.00. Transaction cost, Ksh0.00. Account Number 0712345678"

func nairobi(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Africa/Nairobi")
	require.NoError(t, err)
	return loc
}

func TestParseFullMessage(t *testing.T) {
	loc := nairobi(t)
	ev, err := NewParser(loc).Parse(sampleSMS)
	require.NoError(t, err)

	assert.Equal(t, "QFT4ABC123", ev.TransactionID)
	assert.True(t, decimal.RequireFromString("4000").Equal(ev.Amount), ev.Amount.String())
	assert.Equal(t, "JOHN DOE", ev.SenderName)
	assert.Equal(t, "254712345678", ev.SenderPhone)
	assert.Equal(t, "0712345678", ev.AccountReference)
	assert.Equal(t, time.Date(2025, time.January, 5, 14, 15, 0, 0, loc), ev.OccurredAt)
	assert.Equal(t, models.Period("2025-01"), ev.PaymentPeriod)
	assert.Equal(t, sampleSMS, ev.RawMessage)

	assert.Equal(t, "0712345678", ev.SenderVariants().Local)
	assert.Equal(t, "712345678", ev.AccountVariants().Bare)
}

func TestParseWithoutTimeAndTwoDigitDate(t *testing.T) {
	loc := nairobi(t)
	body := "RKL9ZZ1XY2 Confirmed. Ksh12,500.50 received from MARY WANJIKU 0722000111 on 28/02/24. Account Number A12"
	ev, err := NewParser(loc).Parse(body)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, time.February, 28, 0, 0, 0, 0, loc), ev.OccurredAt)
	assert.Equal(t, models.Period("2024-02"), ev.PaymentPeriod)
	assert.Equal(t, "12500.5", ev.Amount.String())
	assert.Equal(t, "A12", ev.AccountReference)
}

func TestParseMeridiem(t *testing.T) {
	p := NewParser(time.UTC)
	cases := map[string]int{
		"12:05 AM": 0,
		"12:05 PM": 12,
		"9:05 am":  9,
		"11:05 PM": 23,
		"17:05":    17,
	}
	for clock, wantHour := range cases {
		body := "ABC123 Confirmed. Ksh100.00 received from JANE 0712345678 on 1/3/25 at " + clock + " Account Number 0712345678"
		ev, err := p.Parse(body)
		require.NoError(t, err, clock)
		assert.Equal(t, wantHour, ev.OccurredAt.Hour(), clock)
	}
}

func TestParseFailures(t *testing.T) {
	p := NewParser(time.UTC)
	const tail = " received from JOHN DOE 254712345678 on "
	cases := []struct {
		body   string
		reason string
	}{
		{"", ReasonEmptyBody},
		{"   \n\t", ReasonEmptyBody},
		{"hello there", ReasonTemplateMismatch},
		{"QFT4ABC123 Confirmed." + tail + "5/1/25 Account Number 0712345678", ReasonTemplateMismatch},
		{"QFT4ABC123 Confirmed. Ksh4,000.00" + tail + "5/1/25", ReasonTemplateMismatch},
		{"QFT4ABC123 Confirmed. Ksh0.00" + tail + "5/1/25 Account Number 0712345678", ReasonInvalidAmount},
		{"QFT4ABC123 Confirmed. Ksh10.00" + tail + "31/2/25 Account Number 07123", ReasonInvalidDate},
		{"QFT4ABC123 Confirmed. Ksh10.00" + tail + "1/13/25 Account Number 07123", ReasonInvalidDate},
		{"QFT4ABC123 Confirmed. Ksh10.00" + tail + "1/1/25 at 13:00 PM Account Number 07123", ReasonInvalidDate},
	}
	for _, tc := range cases {
		body, reason := tc.body, tc.reason
		ev, err := p.Parse(body)
		assert.Nil(t, ev, body)
		require.Error(t, err, body)
		assert.True(t, IsParseError(err), body)
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, reason, pe.Reason, body)
	}
}

func TestParseIsDeterministic(t *testing.T) {
	p := NewParser(time.UTC)
	a, err := p.Parse(sampleSMS)
	require.NoError(t, err)
	b, err := p.Parse(sampleSMS)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
