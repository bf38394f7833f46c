package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

func TestAdminService_ListAllEvents(t *testing.T) {
	t.Parallel()

	repo := &fakeAdminRepo{events: []domain.Event{
		{ID: "e1", Status: domain.EventStatusDraft},
		{ID: "e2", Status: domain.EventStatusPublished},
		{ID: "e3", Status: domain.EventStatusPublished},
	}}
	svc := NewAdminService(repo)

	t.Run("lists every status by default", func(t *testing.T) {
		page, err := svc.ListAllEvents(context.Background(), admin, "", pagination.Params{})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, 1, page.TotalPages)
	})

	t.Run("filters by status", func(t *testing.T) {
		page, err := svc.ListAllEvents(context.Background(), admin, domain.EventStatusPublished, pagination.Params{})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := svc.ListAllEvents(context.Background(), admin, "archived", pagination.Params{})
		assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	})

	t.Run("requires admin", func(t *testing.T) {
		_, err := svc.ListAllEvents(context.Background(), owner, "", pagination.Params{})
		assert.ErrorIs(t, err, domain.ErrForbidden)

		_, err = svc.ListAllEvents(context.Background(), domain.Actor{}, "", pagination.Params{})
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})
}

func TestAdminService_Stats(t *testing.T) {
	t.Parallel()

	repo := &fakeAdminRepo{stats: domain.PlatformStats{Users: 4, PaidOrders: 2, RevenueByCurrency: map[string]int64{"USD": 5000}}}
	svc := NewAdminService(repo)

	stats, err := svc.Stats(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Users)
	assert.Equal(t, int64(5000), stats.RevenueByCurrency["USD"])

	_, err = svc.Stats(context.Background(), finance)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

type fakeAdminRepo struct {
	events []domain.Event
	stats  domain.PlatformStats
}

func (f *fakeAdminRepo) ListEvents(_ context.Context, status domain.EventStatus, _ pagination.Params) ([]domain.Event, int, error) {
	var out []domain.Event
	for _, e := range f.events {
		if status == "" || e.Status == status {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

func (f *fakeAdminRepo) Stats(context.Context) (domain.PlatformStats, error) {
	return f.stats, nil
}
