package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obichijioke/eventapp/internal/clock"
	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

func TestAuditService(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeAuditRepo{}
	svc := NewAuditService(repo, NewAuthorizer(orgMembers()), clock.NewFixed(now))
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, domain.AuditEntry{OrgID: "org-1", ActorID: owner.UserID, Action: "event.created", Resource: "event", ResourceID: "e1"}))
	require.Len(t, repo.entries, 1)
	assert.NotEmpty(t, repo.entries[0].ID)
	assert.Equal(t, now, repo.entries[0].CreatedAt)
	assert.NotNil(t, repo.entries[0].Metadata, "metadata is always an object")

	page, err := svc.Query(ctx, owner, "org-1", domain.AuditFilter{Action: "event.created"}, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	_, err = svc.Query(ctx, finance, "org-1", domain.AuditFilter{}, pagination.Params{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	since, until := now, now.Add(-time.Hour)
	_, err = svc.Query(ctx, owner, "org-1", domain.AuditFilter{Since: &since, Until: &until}, pagination.Params{})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}

type fakeAuditRepo struct {
	entries []domain.AuditEntry
}

func (f *fakeAuditRepo) CreateAuditEntry(_ context.Context, e domain.AuditEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAuditRepo) QueryAudit(_ context.Context, orgID string, filter domain.AuditFilter, _ pagination.Params) ([]domain.AuditEntry, int, error) {
	var out []domain.AuditEntry
	for _, e := range f.entries {
		if e.OrgID == orgID && (filter.Action == "" || e.Action == filter.Action) {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}
