package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/rentflow/mono-repo/backend/shared/go-utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntity struct {
	id      string
	version int64
	value   int
}

func (f *fakeEntity) GetID() string         { return f.id }
func (f *fakeEntity) GetRowVersion() int64  { return f.version }
func (f *fakeEntity) SetRowVersion(v int64) { f.version = v }

func TestWithRetrySucceedsAfterConflict(t *testing.T) {
	stored := &fakeEntity{id: "u1", version: 1}
	conflicts := 1

	get := func(ctx context.Context, id string) (*fakeEntity, error) {
		cp := *stored
		return &cp, nil
	}
	update := func(ctx context.Context, e *fakeEntity, expected int64) (pgconn.CommandTag, error) {
		if conflicts > 0 {
			conflicts--
			stored.version++
			return pgconn.CommandTag("UPDATE 0"), nil
		}
		if stored.version != expected {
			return pgconn.CommandTag("UPDATE 0"), nil
		}
		stored.value = e.value
		stored.version++
		return pgconn.CommandTag("UPDATE 1"), nil
	}

	err := WithRetry(context.Background(), 3, "u1", get, update, func(e *fakeEntity) error {
		e.value = 7
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, stored.value)
	assert.Equal(t, int64(3), stored.version)
}

func TestWithRetryGivesUp(t *testing.T) {
	get := func(ctx context.Context, id string) (*fakeEntity, error) {
		return &fakeEntity{id: id, version: 1}, nil
	}
	update := func(ctx context.Context, e *fakeEntity, expected int64) (pgconn.CommandTag, error) {
		return pgconn.CommandTag("UPDATE 0"), nil
	}

	err := WithRetry(context.Background(), 2, "u1", get, update, func(*fakeEntity) error { return nil })
	assert.ErrorIs(t, err, utils.ErrRowVersionConflict)
}

func TestWithRetryMissingRowAndMutateError(t *testing.T) {
	missing := func(ctx context.Context, id string) (*fakeEntity, error) { return nil, nil }
	noUpdate := func(ctx context.Context, e *fakeEntity, expected int64) (pgconn.CommandTag, error) {
		t.Fatal("update must not run")
		return nil, nil
	}

	err := WithRetry(context.Background(), 3, "gone", missing, noUpdate, func(*fakeEntity) error { return nil })
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	boom := errors.New("occupied")
	present := func(ctx context.Context, id string) (*fakeEntity, error) { return &fakeEntity{id: id}, nil }
	err = WithRetry(context.Background(), 3, "u1", present, noUpdate, func(*fakeEntity) error { return boom })
	assert.ErrorIs(t, err, boom)
}
