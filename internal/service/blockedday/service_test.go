package blockedday

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalia/clinic-api/internal/model"
	"github.com/dentalia/clinic-api/internal/realtime"
	apperrors "github.com/dentalia/clinic-api/pkg/errors"
)

type fakeBlockedDayRepo struct {
	days map[string]bool
}

func newFakeBlockedDayRepo() *fakeBlockedDayRepo {
	return &fakeBlockedDayRepo{days: map[string]bool{}}
}

func (r *fakeBlockedDayRepo) Create(_ context.Context, date model.Date) error {
	if r.days[date.String()] {
		return apperrors.Conflict("day is already blocked")
	}
	r.days[date.String()] = true
	return nil
}

func (r *fakeBlockedDayRepo) Delete(_ context.Context, date model.Date) error {
	if !r.days[date.String()] {
		return apperrors.NotFound("blocked day", nil)
	}
	delete(r.days, date.String())
	return nil
}

func (r *fakeBlockedDayRepo) Exists(_ context.Context, date model.Date) (bool, error) {
	return r.days[date.String()], nil
}

func (r *fakeBlockedDayRepo) List(_ context.Context) ([]model.Date, error) {
	var out []model.Date
	for s := range r.days {
		d, _ := model.ParseDate(s)
		out = append(out, d)
	}
	return out, nil
}

func (r *fakeBlockedDayRepo) LastCreatedAt(context.Context) (*time.Time, error) { return nil, nil }

func date(s string) model.Date {
	d, _ := model.ParseDate(s)
	return d
}

func TestBlockAndUnblock(t *testing.T) {
	svc := NewService(newFakeBlockedDayRepo(), realtime.NopPublisher{})
	ctx := context.Background()

	require.NoError(t, svc.Block(ctx, date("2026-09-15")))

	blocked, err := svc.IsBlocked(ctx, date("2026-09-15"))
	require.NoError(t, err)
	assert.True(t, blocked)

	require.NoError(t, svc.Unblock(ctx, date("2026-09-15")))

	blocked, err = svc.IsBlocked(ctx, date("2026-09-15"))
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestBlockDuplicateIsConflict(t *testing.T) {
	svc := NewService(newFakeBlockedDayRepo(), realtime.NopPublisher{})
	ctx := context.Background()

	require.NoError(t, svc.Block(ctx, date("2026-09-15")))

	err := svc.Block(ctx, date("2026-09-15"))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusConflict, appErr.StatusCode())
}

func TestUnblockUnknownDayIsNotFound(t *testing.T) {
	svc := NewService(newFakeBlockedDayRepo(), realtime.NopPublisher{})

	err := svc.Unblock(context.Background(), date("2026-09-15"))
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestListBlockedDays(t *testing.T) {
	svc := NewService(newFakeBlockedDayRepo(), realtime.NopPublisher{})
	ctx := context.Background()

	require.NoError(t, svc.Block(ctx, date("2026-09-15")))
	require.NoError(t, svc.Block(ctx, date("2026-09-16")))

	days, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, days, 2)
}
