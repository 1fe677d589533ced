// Package testhelpers holds in-memory doubles for the rent services.
package testhelpers

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rentflow/mono-repo/backend/services/rent-service/internal/services"
	"github.com/rentflow/mono-repo/backend/shared/go-models"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
)

// MemStore is an in-memory services.Store. Transactions are serialized and
// their writes are staged until fn returns nil, so a failing transaction
// leaves no trace. Values are deep-copied on every read and write.
type MemStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	properties map[uuid.UUID]*models.Property
	tenants    map[uuid.UUID]*models.Tenant
	units      map[string]*models.Unit
	payments   map[string]*models.RentalPayment
	unmatched  map[string]*models.UnmatchedPayment
	smsLogs    []*models.SMSLog

	// Failure injection. Set before exercising the service.
	FailPaymentExists error
	FailSaveTenant    error
	FailSaveUnit      error
	FailListTenants   error
	// ClaimPayments marks transaction ids as taken by a concurrent writer:
	// PaymentExists misses them but CreatePaymentIfAbsent reports false.
	ClaimPayments map[string]bool
}

func NewMemStore() *MemStore {
	return &MemStore{
		properties:    map[uuid.UUID]*models.Property{},
		tenants:       map[uuid.UUID]*models.Tenant{},
		units:         map[string]*models.Unit{},
		payments:      map[string]*models.RentalPayment{},
		unmatched:     map[string]*models.UnmatchedPayment{},
		ClaimPayments: map[string]bool{},
	}
}

var _ services.Store = (*MemStore)(nil)

func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	out := new(T)
	if err := json.Unmarshal(b, out); err != nil {
		panic(err)
	}
	return out
}

// Seeding and inspection helpers.

func (s *MemStore) AddUnit(u *models.Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := clone(u)
	c.ApplyDefaults()
	s.units[u.UnitCode] = c
}

func (s *MemStore) AddProperty(p *models.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties[p.ID] = clone(p)
}

func (s *MemStore) AddTenant(t *models.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := clone(t)
	c.ApplyDefaults()
	s.tenants[t.ID] = c
}

func (s *MemStore) Tenant(id uuid.UUID) *models.Tenant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.tenants[id])
}

func (s *MemStore) Unit(code string) *models.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.units[code])
}

func (s *MemStore) Payment(txID string) *models.RentalPayment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.payments[txID])
}

func (s *MemStore) PaymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments)
}

func (s *MemStore) SMSLogs() []*models.SMSLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.SMSLog, 0, len(s.smsLogs))
	for _, l := range s.smsLogs {
		out = append(out, clone(l))
	}
	return out
}

// services.Store

func (s *MemStore) GetTenant(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.Tenant(id), nil
}

func (s *MemStore) FindTenantByPhone(_ context.Context, phone string) (*models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.Tenant
	for _, t := range s.tenants {
		if t.Phone != phone {
			continue
		}
		if best == nil ||
			(t.IsActive() && !best.IsActive()) ||
			(t.IsActive() == best.IsActive() && t.CreatedAt.After(best.CreatedAt)) {
			best = t
		}
	}
	return clone(best), nil
}

func (s *MemStore) sortedTenants(activeOnly bool) []*models.Tenant {
	out := make([]*models.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		if activeOnly && !t.IsActive() {
			continue
		}
		out = append(out, clone(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *MemStore) ListTenants(_ context.Context) ([]*models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailListTenants != nil {
		return nil, s.FailListTenants
	}
	return s.sortedTenants(false), nil
}

func (s *MemStore) ListActiveTenants(_ context.Context) ([]*models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailListTenants != nil {
		return nil, s.FailListTenants
	}
	return s.sortedTenants(true), nil
}

func (s *MemStore) GetUnitByCode(_ context.Context, code string) (*models.Unit, error) {
	return s.Unit(code), nil
}

func (s *MemStore) ListProperties(_ context.Context) ([]*models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Property, 0, len(s.properties))
	for _, p := range s.properties {
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PropertyName < out[j].PropertyName })
	return out, nil
}

func (s *MemStore) PaymentExists(_ context.Context, txID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPaymentExists != nil {
		return false, s.FailPaymentExists
	}
	_, ok := s.payments[txID]
	return ok, nil
}

func (s *MemStore) RecordUnmatched(_ context.Context, p *models.UnmatchedPayment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.unmatched[p.TransactionID]; ok {
		return false, nil
	}
	s.unmatched[p.TransactionID] = clone(p)
	return true, nil
}

func (s *MemStore) ListUnmatched(_ context.Context) ([]*models.UnmatchedPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.UnmatchedPayment, 0, len(s.unmatched))
	for _, p := range s.unmatched {
		if !p.Resolved {
			out = append(out, clone(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) LogSMS(_ context.Context, l *models.SMSLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.smsLogs = append(s.smsLogs, clone(l))
	return nil
}

func (s *MemStore) WithTx(ctx context.Context, fn func(tx services.StoreTx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{
		store:    s,
		tenants:  map[uuid.UUID]*models.Tenant{},
		units:    map[string]*models.Unit{},
		payments: map[string]*models.RentalPayment{},
	}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range tx.tenants {
		s.tenants[id] = t
	}
	for code, u := range tx.units {
		s.units[code] = u
	}
	for id, p := range tx.payments {
		s.payments[id] = p
	}
	return nil
}

// memTx reads through its own staged writes to the committed state.
type memTx struct {
	store    *MemStore
	tenants  map[uuid.UUID]*models.Tenant
	units    map[string]*models.Unit
	payments map[string]*models.RentalPayment
}

func (tx *memTx) tenant(id uuid.UUID) *models.Tenant {
	if t, ok := tx.tenants[id]; ok {
		return t
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	return tx.store.tenants[id]
}

func (tx *memTx) unit(code string) *models.Unit {
	if u, ok := tx.units[code]; ok {
		return u
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	return tx.store.units[code]
}

func (tx *memTx) LockTenant(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	return clone(tx.tenant(id)), nil
}

func (tx *memTx) LockUnitByCode(_ context.Context, code string) (*models.Unit, error) {
	return clone(tx.unit(code)), nil
}

func (tx *memTx) FindActiveTenantByUnit(_ context.Context, code string) (*models.Tenant, error) {
	tx.store.mu.Lock()
	ids := make([]uuid.UUID, 0, len(tx.store.tenants))
	for id := range tx.store.tenants {
		ids = append(ids, id)
	}
	tx.store.mu.Unlock()
	for id := range tx.tenants {
		ids = append(ids, id)
	}
	for _, id := range ids {
		if t := tx.tenant(id); t != nil && t.IsActive() && t.UnitCode == code {
			return clone(t), nil
		}
	}
	return nil, nil
}

func (tx *memTx) CreatePaymentIfAbsent(_ context.Context, p *models.RentalPayment) (bool, error) {
	if tx.store.ClaimPayments[p.TransactionID] {
		return false, nil
	}
	if _, ok := tx.payments[p.TransactionID]; ok {
		return false, nil
	}
	tx.store.mu.Lock()
	_, exists := tx.store.payments[p.TransactionID]
	tx.store.mu.Unlock()
	if exists {
		return false, nil
	}
	tx.payments[p.TransactionID] = clone(p)
	return true, nil
}

func (tx *memTx) CreateTenant(_ context.Context, t *models.Tenant) error {
	if tx.tenant(t.ID) != nil {
		return utils.ErrRowVersionConflict
	}
	c := clone(t)
	c.RowVersion = 1
	t.RowVersion = 1
	tx.tenants[t.ID] = c
	return nil
}

func (tx *memTx) SaveTenant(_ context.Context, t *models.Tenant) error {
	if tx.store.FailSaveTenant != nil {
		return tx.store.FailSaveTenant
	}
	cur := tx.tenant(t.ID)
	if cur == nil || cur.RowVersion != t.RowVersion {
		return utils.ErrRowVersionConflict
	}
	t.RowVersion++
	tx.tenants[t.ID] = clone(t)
	return nil
}

func (tx *memTx) SaveUnit(_ context.Context, u *models.Unit) error {
	if tx.store.FailSaveUnit != nil {
		return tx.store.FailSaveUnit
	}
	cur := tx.unit(u.UnitCode)
	if cur == nil || cur.RowVersion != u.RowVersion {
		return utils.ErrRowVersionConflict
	}
	u.RowVersion++
	tx.units[u.UnitCode] = clone(u)
	return nil
}
