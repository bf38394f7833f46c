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

func newTestEventService(now time.Time) (*EventService, *fakeEventRepo, *recordingNotifier, *recordingAudit) {
	repo := newFakeEventRepo()
	notifier := &recordingNotifier{}
	audit := &recordingAudit{}
	return NewEventService(repo, NewAuthorizer(orgMembers()), notifier, audit, clock.NewFixed(now)), repo, notifier, audit
}

func TestEventService_CreateEvent(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	starts := now.Add(48 * time.Hour)
	before := starts.Add(-time.Hour)

	tests := []struct {
		name    string
		actor   domain.Actor
		in      CreateEventInput
		wantErr error
	}{
		{name: "owner creates draft", actor: owner, in: CreateEventInput{OrgID: "org-1", Name: "Gig", StartsAt: &starts, Currency: "eur"}},
		{name: "name required", actor: owner, in: CreateEventInput{OrgID: "org-1", Name: "  "}, wantErr: domain.ErrEventNameRequired},
		{name: "bad currency", actor: owner, in: CreateEventInput{OrgID: "org-1", Name: "Gig", Currency: "XYZW"}, wantErr: domain.ErrInvalidCurrency},
		{name: "ends before start", actor: owner, in: CreateEventInput{OrgID: "org-1", Name: "Gig", StartsAt: &starts, EndsAt: &before}, wantErr: domain.ErrInvalidSchedule},
		{name: "staff cannot create", actor: staff, in: CreateEventInput{OrgID: "org-1", Name: "Gig"}, wantErr: domain.ErrForbidden},
		{name: "outsider cannot create", actor: outsider, in: CreateEventInput{OrgID: "org-1", Name: "Gig"}, wantErr: domain.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _, audit := newTestEventService(now)

			event, err := svc.CreateEvent(context.Background(), tt.actor, tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, repo.events)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.EventStatusDraft, event.Status)
			assert.Equal(t, "EUR", event.Currency)
			assert.Equal(t, starts, event.StartsAt)
			assert.Contains(t, repo.events, event.ID)
			assert.Equal(t, []string{"event.created"}, audit.actions())
		})
	}
}

func TestEventService_Publish(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	t.Run("publishes once", func(t *testing.T) {
		svc, repo, _, audit := newTestEventService(now)
		repo.events["e1"] = domain.Event{ID: "e1", OrgID: "org-1", Status: domain.EventStatusDraft}
		repo.zones = append(repo.zones, domain.Zone{ID: "z1", EventID: "e1"})

		first, err := svc.Publish(context.Background(), owner, "e1")
		require.NoError(t, err)
		assert.True(t, first.Changed)
		assert.Equal(t, domain.EventStatusPublished, first.Event.Status)
		require.NotNil(t, first.Event.PublishedAt)

		second, err := svc.Publish(context.Background(), owner, "e1")
		require.NoError(t, err)
		assert.False(t, second.Changed)
		assert.Equal(t, domain.EventStatusPublished, second.Event.Status)
		assert.Equal(t, 1, repo.publishes)
		assert.Equal(t, []string{"event.published"}, audit.actions())
	})

	t.Run("requires a zone", func(t *testing.T) {
		svc, repo, _, _ := newTestEventService(now)
		repo.events["e1"] = domain.Event{ID: "e1", OrgID: "org-1", Status: domain.EventStatusDraft}

		_, err := svc.Publish(context.Background(), owner, "e1")
		assert.ErrorIs(t, err, domain.ErrEventHasNoZones)
	})

	t.Run("seated zones need a seat map", func(t *testing.T) {
		svc, repo, _, audit := newTestEventService(now)
		repo.events["e1"] = domain.Event{ID: "e1", OrgID: "org-1", Status: domain.EventStatusDraft}
		repo.zones = append(repo.zones,
			domain.Zone{ID: "z1", EventID: "e1", Capacity: 100},
			domain.Zone{ID: "z2", EventID: "e1", Seated: true})

		_, err := svc.Publish(context.Background(), owner, "e1")
		assert.ErrorIs(t, err, domain.ErrSeatedZoneEmpty)
		assert.Equal(t, domain.EventStatusDraft, repo.events["e1"].Status)
		assert.Zero(t, repo.publishes)
		assert.Empty(t, audit.actions())

		repo.zones[1].Capacity = 2
		res, err := svc.Publish(context.Background(), owner, "e1")
		require.NoError(t, err)
		assert.True(t, res.Changed)
	})

	t.Run("cancelled events stay cancelled", func(t *testing.T) {
		svc, repo, _, _ := newTestEventService(now)
		repo.events["e1"] = domain.Event{ID: "e1", OrgID: "org-1", Status: domain.EventStatusCancelled}

		_, err := svc.Publish(context.Background(), owner, "e1")
		assert.ErrorIs(t, err, domain.ErrEventCancelled)
	})

	t.Run("lost race reports no change", func(t *testing.T) {
		svc, repo, _, audit := newTestEventService(now)
		repo.events["e1"] = domain.Event{ID: "e1", OrgID: "org-1", Status: domain.EventStatusDraft}
		repo.zones = append(repo.zones, domain.Zone{ID: "z1", EventID: "e1"})
		repo.beforePublish = func() {
			e := repo.events["e1"]
			e.Status = domain.EventStatusPublished
			repo.events["e1"] = e
		}

		res, err := svc.Publish(context.Background(), owner, "e1")
		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.Empty(t, audit.actions())
	})
}

func TestEventService_UpdateAndCancel(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	gbp := "GBP"
	rename := "Renamed"

	t.Run("currency locked after publish", func(t *testing.T) {
		svc, repo, _, _ := newTestEventService(now)
		repo.events["e1"] = domain.Event{ID: "e1", OrgID: "org-1", Currency: "USD", Status: domain.EventStatusPublished, StartsAt: now}

		_, err := svc.UpdateEvent(context.Background(), owner, "e1", UpdateEventInput{Currency: &gbp})
		assert.ErrorIs(t, err, domain.ErrCurrencyLocked)

		updated, err := svc.UpdateEvent(context.Background(), owner, "e1", UpdateEventInput{Name: &rename})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
		assert.Equal(t, "USD", updated.Currency)
	})

	t.Run("cancel notifies ticket holders once", func(t *testing.T) {
		svc, repo, notifier, audit := newTestEventService(now)
		repo.events["e1"] = domain.Event{ID: "e1", OrgID: "org-1", Name: "Gig", Status: domain.EventStatusPublished}
		repo.holders["e1"] = []string{"u1", "u2"}

		event, err := svc.Cancel(context.Background(), owner, "e1")
		require.NoError(t, err)
		assert.Equal(t, domain.EventStatusCancelled, event.Status)
		assert.ElementsMatch(t, []string{"u1", "u2"}, notifier.recipients(domain.NotificationEventCancelled))

		_, err = svc.Cancel(context.Background(), owner, "e1")
		require.NoError(t, err)
		assert.Len(t, notifier.recipients(domain.NotificationEventCancelled), 2)
		assert.Equal(t, []string{"event.cancelled"}, audit.actions())

		_, err = svc.UpdateEvent(context.Background(), owner, "e1", UpdateEventInput{Name: &rename})
		assert.ErrorIs(t, err, domain.ErrEventCancelled)
	})
}

func TestEventService_Visibility(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	svc, repo, _, _ := newTestEventService(now)
	repo.events["draft"] = domain.Event{ID: "draft", OrgID: "org-1", Status: domain.EventStatusDraft}
	repo.events["live"] = domain.Event{ID: "live", OrgID: "org-1", Status: domain.EventStatusPublished}
	repo.zones = append(repo.zones, domain.Zone{ID: "z1", EventID: "live", Capacity: 10, Available: 10})

	_, err := svc.GetEvent(context.Background(), domain.Actor{}, "live")
	assert.NoError(t, err)
	_, err = svc.GetEvent(context.Background(), domain.Actor{}, "draft")
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
	_, err = svc.GetEvent(context.Background(), outsider, "draft")
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
	_, err = svc.GetEvent(context.Background(), staff, "draft")
	assert.NoError(t, err)

	zones, err := svc.ListZones(context.Background(), domain.Actor{}, "live")
	require.NoError(t, err)
	assert.Len(t, zones, 1)

	page, err := svc.ListPublished(context.Background(), pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	_, err = svc.ListOrgEvents(context.Background(), outsider, "org-1", pagination.Params{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	orgPage, err := svc.ListOrgEvents(context.Background(), staff, "org-1", pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, 2, orgPage.Total)
}

func TestEventService_CreateZone(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		in      CreateZoneInput
		wantErr error
	}{
		{name: "general admission", in: CreateZoneInput{EventID: "e1", Name: "Floor", Capacity: 100, PriceCents: 2500}},
		{name: "seated zone starts empty", in: CreateZoneInput{EventID: "e1", Name: "Balcony", Seated: true}},
		{name: "missing event id", in: CreateZoneInput{Name: "Floor", Capacity: 1}, wantErr: domain.ErrInvalidID},
		{name: "missing name", in: CreateZoneInput{EventID: "e1", Capacity: 1}, wantErr: domain.ErrZoneNameRequired},
		{name: "zero capacity", in: CreateZoneInput{EventID: "e1", Name: "Floor"}, wantErr: domain.ErrInvalidCapacity},
		{name: "negative price", in: CreateZoneInput{EventID: "e1", Name: "Floor", Capacity: 1, PriceCents: -1}, wantErr: domain.ErrInvalidPrice},
		{name: "unknown event", in: CreateZoneInput{EventID: "nope", Name: "Floor", Capacity: 1}, wantErr: domain.ErrEventNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _, _ := newTestEventService(now)
			repo.events["e1"] = domain.Event{ID: "e1", OrgID: "org-1", Status: domain.EventStatusDraft}

			zone, err := svc.CreateZone(context.Background(), owner, tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.in.Capacity, zone.Available)
			assert.Len(t, repo.zones, 1)
		})
	}
}

type fakeEventRepo struct {
	events        map[string]domain.Event
	zones         []domain.Zone
	holders       map[string][]string
	publishes     int
	beforePublish func()
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string]domain.Event), holders: make(map[string][]string)}
}

func (f *fakeEventRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeEventRepo) CreateEvent(_ context.Context, e domain.Event) error {
	f.events[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetEvent(_ context.Context, id string) (domain.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return e, nil
}

func (f *fakeEventRepo) GetEventForUpdate(ctx context.Context, id string) (domain.Event, error) {
	return f.GetEvent(ctx, id)
}

func (f *fakeEventRepo) UpdateEvent(_ context.Context, e domain.Event) error {
	f.events[e.ID] = e
	return nil
}

func (f *fakeEventRepo) PublishEvent(_ context.Context, id string, at time.Time) (bool, error) {
	if f.beforePublish != nil {
		f.beforePublish()
	}
	e := f.events[id]
	if e.Status != domain.EventStatusDraft {
		return false, nil
	}
	e.Status = domain.EventStatusPublished
	e.PublishedAt = &at
	f.events[id] = e
	f.publishes++
	return true, nil
}

func (f *fakeEventRepo) CancelEvent(_ context.Context, id string) (bool, error) {
	e := f.events[id]
	if e.Status == domain.EventStatusCancelled {
		return false, nil
	}
	e.Status = domain.EventStatusCancelled
	f.events[id] = e
	return true, nil
}

func (f *fakeEventRepo) ListEventsByOrg(_ context.Context, orgID string, _ pagination.Params) ([]domain.Event, int, error) {
	var out []domain.Event
	for _, e := range f.events {
		if e.OrgID == orgID {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

func (f *fakeEventRepo) ListPublishedEvents(_ context.Context, _ pagination.Params) ([]domain.Event, int, error) {
	var out []domain.Event
	for _, e := range f.events {
		if e.Status == domain.EventStatusPublished {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

func (f *fakeEventRepo) CountZones(_ context.Context, eventID string) (int, error) {
	n := 0
	for _, z := range f.zones {
		if z.EventID == eventID {
			n++
		}
	}
	return n, nil
}

// CountEmptySeatedZones treats a seated zone with no capacity as having no
// seat map, which is what replacing the seat map maintains.
func (f *fakeEventRepo) CountEmptySeatedZones(_ context.Context, eventID string) (int, error) {
	n := 0
	for _, z := range f.zones {
		if z.EventID == eventID && z.Seated && z.Capacity == 0 {
			n++
		}
	}
	return n, nil
}

func (f *fakeEventRepo) CreateZone(_ context.Context, z domain.Zone) error {
	f.zones = append(f.zones, z)
	return nil
}

func (f *fakeEventRepo) ListZonesByEvent(_ context.Context, eventID string, _ time.Time) ([]domain.Zone, error) {
	var out []domain.Zone
	for _, z := range f.zones {
		if z.EventID == eventID {
			out = append(out, z)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) ListTicketHolderIDs(_ context.Context, eventID string) ([]string, error) {
	return f.holders[eventID], nil
}
