package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
	"github.com/obichijioke/eventapp/internal/testutil"
)

func TestNotificationRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	repo := NewNotificationRepository(pool)

	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)
	userID := testutil.InsertUser(t, ctx, pool, "fan")
	otherID := testutil.InsertUser(t, ctx, pool, "other")
	now := time.Now().UTC()

	first := domain.Notification{ID: uuid.NewString(), UserID: userID, Kind: domain.NotificationOrderPaid, Title: "Paid", CreatedAt: now.Add(-time.Minute)}
	second := domain.Notification{ID: uuid.NewString(), UserID: userID, Kind: domain.NotificationOrderRefunded, Title: "Refunded", CreatedAt: now}
	require.NoError(t, repo.CreateNotification(ctx, first))
	require.NoError(t, repo.CreateNotification(ctx, second))

	n, err := repo.CountUnread(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ok, err := repo.MarkRead(ctx, otherID, first.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.MarkRead(ctx, userID, first.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	unread, total, err := repo.ListNotifications(ctx, userID, true, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, unread, 1)
	assert.Equal(t, second.ID, unread[0].ID)

	unsent, err := repo.ListUnsent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, unsent, 2)
	assert.Equal(t, first.ID, unsent[0].ID)
	assert.Contains(t, unsent[0].Email, "@example.test")

	require.NoError(t, repo.MarkEmailed(ctx, first.ID, now))
	unsent, err = repo.ListUnsent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, unsent, 1)

	changed, err := repo.MarkAllRead(ctx, userID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
}

func TestAuditRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	repo := NewAuditRepository(pool)

	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)
	actorID := testutil.InsertUser(t, ctx, pool, "owner")
	orgID := testutil.InsertOrg(t, ctx, pool, actorID)
	base := time.Date(2030, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []domain.AuditEntry{
		{ID: uuid.NewString(), OrgID: orgID, ActorID: actorID, Action: "event.created", Resource: "event", ResourceID: "e1", Metadata: map[string]any{"name": "Concert"}, CreatedAt: base},
		{ID: uuid.NewString(), OrgID: orgID, ActorID: actorID, Action: "event.published", Resource: "event", ResourceID: "e1", Metadata: map[string]any{}, CreatedAt: base.Add(time.Hour)},
		{ID: uuid.NewString(), OrgID: orgID, Action: "payout.requested", Resource: "payout", ResourceID: "p1", Metadata: map[string]any{}, CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, e := range entries {
		require.NoError(t, repo.CreateAuditEntry(ctx, e))
	}

	all, total, err := repo.QueryAudit(ctx, orgID, domain.AuditFilter{}, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, all, 3)
	assert.Equal(t, "payout.requested", all[0].Action)
	assert.Equal(t, "", all[0].ActorID)

	since := base.Add(30 * time.Minute)
	filtered, total, err := repo.QueryAudit(ctx, orgID, domain.AuditFilter{Resource: "event", Since: &since}, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, filtered, 1)
	assert.Equal(t, "event.published", filtered[0].Action)

	byAction, _, err := repo.QueryAudit(ctx, orgID, domain.AuditFilter{Action: "event.created", ActorID: actorID}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, byAction, 1)
	assert.Equal(t, "Concert", byAction[0].Metadata["name"])
}
