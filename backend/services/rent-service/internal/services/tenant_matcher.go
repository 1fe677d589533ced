package services

import (
	"context"
	"fmt"

	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
)

// Match strategies, in the order they are tried.
const (
	MatchByAccountReference = "account_reference"
	MatchBySenderPhone      = "sender_phone"
	MatchByFullScan         = "full_scan"
)

// TenantLookup is the read side the matcher needs.
type TenantLookup interface {
	FindTenantByPhone(ctx context.Context, phone string) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]*models.Tenant, error)
}

type MatchResult struct {
	Tenant   *models.Tenant
	Strategy string
}

// TenantMatcher resolves the tenant a payment belongs to. The account number
// the payer typed is authoritative; the sender's phone is only a fallback.
type TenantMatcher struct {
	lookup         TenantLookup
	senderFallback bool
}

func NewTenantMatcher(lookup TenantLookup, senderFallback bool) *TenantMatcher {
	return &TenantMatcher{lookup: lookup, senderFallback: senderFallback}
}

// Match returns ErrTenantNotFound when no strategy succeeds. Lookup errors
// are returned as is.
func (m *TenantMatcher) Match(ctx context.Context, accountReference, senderPhone string) (*MatchResult, error) {
	acct := utils.PhoneVariantsOf(accountReference)
	sender := utils.PhoneVariantsOf(senderPhone)

	if acct.Local != "" {
		t, err := m.lookup.FindTenantByPhone(ctx, acct.Local)
		if err != nil {
			return nil, fmt.Errorf("lookup by account reference: %w", err)
		}
		if t != nil {
			return &MatchResult{Tenant: t, Strategy: MatchByAccountReference}, nil
		}
	}

	if m.senderFallback && sender.Local != "" {
		t, err := m.lookup.FindTenantByPhone(ctx, sender.Local)
		if err != nil {
			return nil, fmt.Errorf("lookup by sender phone: %w", err)
		}
		if t != nil {
			return &MatchResult{Tenant: t, Strategy: MatchBySenderPhone}, nil
		}
	}

	all, err := m.lookup.ListTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("tenant scan: %w", err)
	}
	var best *models.Tenant
	for _, t := range all {
		stored := utils.PhoneVariantsOf(t.Phone)
		hit := stored.Overlaps(acct) || (m.senderFallback && stored.Overlaps(sender))
		if hit && preferTenant(t, best) {
			best = t
		}
	}
	if best != nil {
		return &MatchResult{Tenant: best, Strategy: MatchByFullScan}, nil
	}
	return nil, ErrTenantNotFound
}

// preferTenant reports whether candidate beats current: active first, then
// the most recently created.
func preferTenant(candidate, current *models.Tenant) bool {
	if current == nil {
		return true
	}
	if candidate.IsActive() != current.IsActive() {
		return candidate.IsActive()
	}
	return candidate.CreatedAt.After(current.CreatedAt)
}
