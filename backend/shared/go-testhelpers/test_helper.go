package testhelpers

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rentflow/mono-repo/backend/shared/go-repositories"
	"github.com/stretchr/testify/require"
)

// TestDBURLEnv names the Postgres URL integration tests run against. Tests
// are skipped when it is unset.
const TestDBURLEnv = "TEST_DB_URL"

// TestHelper owns a throwaway schema on the test database and the shared
// repositories bound to it.
type TestHelper struct {
	T      *testing.T
	Ctx    context.Context
	DB     *pgxpool.Pool
	Schema string

	PropertyRepo  repositories.PropertyRepository
	UnitRepo      repositories.UnitRepository
	TenantRepo    repositories.TenantRepository
	PaymentRepo   repositories.RentalPaymentRepository
	UnmatchedRepo repositories.UnmatchedPaymentRepository
	SMSLogRepo    repositories.SMSLogRepository
}

// NewTestHelper creates a fresh schema, applies the given migration files to
// it and returns a pool whose connections use that schema. The schema is
// dropped when the test ends.
func NewTestHelper(t *testing.T, migrationFiles ...string) *TestHelper {
	t.Helper()
	dbURL := os.Getenv(TestDBURLEnv)
	if dbURL == "" {
		t.Skipf("%s not set; skipping integration test", TestDBURLEnv)
	}

	ctx := context.Background()
	schema := "it_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	admin, err := pgxpool.Connect(ctx, dbURL)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, fmt.Sprintf(`CREATE SCHEMA %q`, schema))
	require.NoError(t, err)
	t.Cleanup(func() {
		cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = admin.Exec(cctx, fmt.Sprintf(`DROP SCHEMA IF EXISTS %q CASCADE`, schema))
		admin.Close()
	})

	cfg, err := pgxpool.ParseConfig(dbURL)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	for _, f := range migrationFiles {
		sql, err := os.ReadFile(f)
		require.NoError(t, err, "read migration %s", f)
		_, err = pool.Exec(ctx, string(sql))
		require.NoError(t, err, "apply migration %s", f)
	}

	return &TestHelper{
		T:             t,
		Ctx:           ctx,
		DB:            pool,
		Schema:        schema,
		PropertyRepo:  repositories.NewPropertyRepository(pool),
		UnitRepo:      repositories.NewUnitRepository(pool),
		TenantRepo:    repositories.NewTenantRepository(pool),
		PaymentRepo:   repositories.NewRentalPaymentRepository(pool),
		UnmatchedRepo: repositories.NewUnmatchedPaymentRepository(pool),
		SMSLogRepo:    repositories.NewSMSLogRepository(pool),
	}
}
