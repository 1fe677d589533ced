package constants

import "time"

// Business calendar
const (
	BusinessTimezone = "Africa/Nairobi"
)

// Scheduling and timeouts
const (
	MonthlyRolloverCronSpec = "1 0 1 * *" // 00:01 on the 1st, business timezone
	RentReminderCronSpec    = "0 9 5 * *" // 09:00 on the 5th, business timezone
	MonthlyRolloverTimeout  = 10 * time.Minute
	RentReminderTimeout     = 10 * time.Minute
	NotificationTimeout     = 15 * time.Second
	WebhookProcessTimeout   = 30 * time.Second
	ShutdownGracePeriod     = 20 * time.Second
)

// Flag defaults used when LaunchDarkly has no value.
const (
	DefaultPaybillNumber = "522533"
	DefaultFromEmail     = "no-reply@rentflow.co.ke"
	DefaultOpsEmail      = "ops@rentflow.co.ke"
	OpsTeamName          = "RentFlow Operations"
)

// Email subjects
const (
	EmailSubjectUnmatchedPayment = "Unmatched M-Pesa payment %s needs review"
)
