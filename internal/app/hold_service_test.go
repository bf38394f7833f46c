package app

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obichijioke/eventapp/internal/clock"
	"github.com/obichijioke/eventapp/internal/domain"
)

func TestHoldService_CreateHold(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	ttl := 15 * time.Minute

	makeSvc := func(zones []domain.Zone, holds []domain.Hold) (*HoldService, *fakeHoldRepo) {
		repo := newFakeHoldRepo(zones, holds)
		svc := NewHoldService(repo, clock.NewFixed(now), WithHoldTTL(ttl))
		return svc, repo
	}

	t.Run("creates hold when capacity available", func(t *testing.T) {
		svc, repo := makeSvc(
			[]domain.Zone{{ID: "zone-1", EventID: "event-1", Capacity: 100}},
			[]domain.Hold{
				{EventID: "event-1", ZoneID: "zone-1", Quantity: 30, Status: domain.HoldStatusActive, ExpiresAt: now.Add(10 * time.Minute)},
				{EventID: "event-1", ZoneID: "zone-1", Quantity: 20, Status: domain.HoldStatusConfirmed},
			},
		)

		hold, err := svc.CreateHold(context.Background(), CreateHoldInput{
			Actor:          buyer,
			EventID:        "event-1",
			ZoneID:         "zone-1",
			Quantity:       10,
			IdempotencyKey: "idem-1",
		})
		require.NoError(t, err)

		assert.NotEmpty(t, hold.ID)
		assert.Equal(t, domain.HoldStatusActive, hold.Status)
		assert.Equal(t, now.Add(ttl), hold.ExpiresAt)
		assert.Equal(t, buyer.UserID, hold.UserID)
		assert.Len(t, repo.holds, 3)
	})

	t.Run("returns existing hold on idempotency key", func(t *testing.T) {
		existing := domain.Hold{
			ID:             "hold-1",
			EventID:        "event-1",
			ZoneID:         "zone-1",
			UserID:         buyer.UserID,
			Quantity:       5,
			Status:         domain.HoldStatusActive,
			ExpiresAt:      now.Add(ttl),
			IdempotencyKey: "idem-1",
			CreatedAt:      now,
		}

		svc, repo := makeSvc(
			[]domain.Zone{{ID: "zone-1", EventID: "event-1", Capacity: 50}},
			[]domain.Hold{existing},
		)

		hold, err := svc.CreateHold(context.Background(), CreateHoldInput{
			Actor:          buyer,
			EventID:        "event-1",
			ZoneID:         "zone-1",
			Quantity:       5,
			IdempotencyKey: "idem-1",
		})
		require.NoError(t, err)
		assert.Equal(t, existing.ID, hold.ID)
		assert.Len(t, repo.holds, 1)
	})

	t.Run("idempotency conflict on quantity mismatch", func(t *testing.T) {
		existing := domain.Hold{
			ID:             "hold-2",
			EventID:        "event-1",
			ZoneID:         "zone-1",
			Quantity:       5,
			Status:         domain.HoldStatusActive,
			ExpiresAt:      now.Add(ttl),
			IdempotencyKey: "idem-2",
			CreatedAt:      now,
		}

		svc, _ := makeSvc(
			[]domain.Zone{{ID: "zone-1", EventID: "event-1", Capacity: 50}},
			[]domain.Hold{existing},
		)

		_, err := svc.CreateHold(context.Background(), CreateHoldInput{
			Actor:          buyer,
			EventID:        "event-1",
			ZoneID:         "zone-1",
			Quantity:       7,
			IdempotencyKey: "idem-2",
		})
		assert.ErrorIs(t, err, domain.ErrIdempotencyConflict)
	})

	t.Run("idempotency conflict when another user reuses the key", func(t *testing.T) {
		existing := domain.Hold{
			ID: "hold-3", EventID: "event-1", ZoneID: "zone-1", UserID: "someone-else",
			Quantity: 2, Status: domain.HoldStatusActive, ExpiresAt: now.Add(ttl), IdempotencyKey: "idem-3",
		}
		svc, _ := makeSvc([]domain.Zone{{ID: "zone-1", EventID: "event-1", Capacity: 50}}, []domain.Hold{existing})

		_, err := svc.CreateHold(context.Background(), CreateHoldInput{
			Actor: buyer, EventID: "event-1", ZoneID: "zone-1", Quantity: 2, IdempotencyKey: "idem-3",
		})
		assert.ErrorIs(t, err, domain.ErrIdempotencyConflict)
	})

	t.Run("fails when capacity exceeded", func(t *testing.T) {
		svc, repo := makeSvc(
			[]domain.Zone{{ID: "zone-1", EventID: "event-1", Capacity: 100}},
			[]domain.Hold{
				{EventID: "event-1", ZoneID: "zone-1", Quantity: 90, Status: domain.HoldStatusActive, ExpiresAt: now.Add(5 * time.Minute)},
			},
		)

		_, err := svc.CreateHold(context.Background(), CreateHoldInput{
			Actor:          buyer,
			EventID:        "event-1",
			ZoneID:         "zone-1",
			Quantity:       20,
			IdempotencyKey: "idem-2",
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientCapacity)
		assert.Len(t, repo.holds, 1, "holds unchanged on failure")
	})

	t.Run("expired holds free capacity", func(t *testing.T) {
		svc, _ := makeSvc(
			[]domain.Zone{{ID: "zone-1", EventID: "event-1", Capacity: 100}},
			[]domain.Hold{
				{EventID: "event-1", ZoneID: "zone-1", Quantity: 80, Status: domain.HoldStatusActive, ExpiresAt: now.Add(-1 * time.Minute)},
			},
		)

		hold, err := svc.CreateHold(context.Background(), CreateHoldInput{
			Actor:          buyer,
			EventID:        "event-1",
			ZoneID:         "zone-1",
			Quantity:       50,
			IdempotencyKey: "idem-3",
		})
		require.NoError(t, err)
		assert.Equal(t, 50, hold.Quantity)
	})

	t.Run("missing idempotency key returns error", func(t *testing.T) {
		svc, _ := makeSvc([]domain.Zone{{ID: "zone-1", EventID: "event-1", Capacity: 100}}, nil)

		_, err := svc.CreateHold(context.Background(), CreateHoldInput{
			Actor:    buyer,
			EventID:  "event-1",
			ZoneID:   "zone-1",
			Quantity: 1,
		})
		assert.ErrorIs(t, err, domain.ErrIdempotencyKeyRequired)
	})

	t.Run("requires an authenticated actor", func(t *testing.T) {
		svc, _ := makeSvc([]domain.Zone{{ID: "zone-1", EventID: "event-1", Capacity: 100}}, nil)

		_, err := svc.CreateHold(context.Background(), CreateHoldInput{
			EventID: "event-1", ZoneID: "zone-1", Quantity: 1, IdempotencyKey: "k",
		})
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("rejects events that are not on sale", func(t *testing.T) {
		svc, repo := makeSvc([]domain.Zone{{ID: "zone-1", EventID: "event-1", Capacity: 100}}, nil)
		repo.events["event-1"] = domain.Event{ID: "event-1", Status: domain.EventStatusDraft}

		_, err := svc.CreateHold(context.Background(), CreateHoldInput{
			Actor: buyer, EventID: "event-1", ZoneID: "zone-1", Quantity: 1, IdempotencyKey: "k",
		})
		assert.ErrorIs(t, err, domain.ErrEventNotOnSale)
	})
}

func TestHoldService_CreateHold_Seated(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	seated := domain.Zone{ID: "zone-s", EventID: "event-1", Capacity: 3, Seated: true}

	newSvc := func() (*HoldService, *fakeHoldRepo) {
		repo := newFakeHoldRepo([]domain.Zone{seated}, nil)
		repo.seats = map[string]string{"seat-a": "zone-s", "seat-b": "zone-s", "seat-c": "zone-s", "seat-x": "zone-other"}
		return NewHoldService(repo, clock.NewFixed(now)), repo
	}

	tests := []struct {
		name    string
		seats   []string
		qty     int
		taken   []string
		wantErr error
	}{
		{name: "holds free seats", seats: []string{"seat-b", "seat-a"}},
		{name: "seats required", seats: nil, qty: 2, wantErr: domain.ErrSeatsRequired},
		{name: "seat from another zone", seats: []string{"seat-a", "seat-x"}, wantErr: domain.ErrSeatNotFound},
		{name: "seat already held", seats: []string{"seat-a", "seat-c"}, taken: []string{"seat-c"}, wantErr: domain.ErrSeatUnavailable},
		{name: "duplicate seats", seats: []string{"seat-a", "seat-a"}, wantErr: domain.ErrInvalidQuantity},
		{name: "quantity disagrees with seats", seats: []string{"seat-a"}, qty: 2, wantErr: domain.ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newSvc()
			repo.taken = tt.taken

			hold, err := svc.CreateHold(context.Background(), CreateHoldInput{
				Actor:          buyer,
				EventID:        "event-1",
				ZoneID:         "zone-s",
				Quantity:       tt.qty,
				SeatIDs:        tt.seats,
				IdempotencyKey: "idem",
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"seat-a", "seat-b"}, hold.SeatIDs)
			assert.Equal(t, 2, hold.Quantity)
		})
	}

	t.Run("replayed key must name the same seats", func(t *testing.T) {
		svc, _ := newSvc()
		in := CreateHoldInput{Actor: buyer, EventID: "event-1", ZoneID: "zone-s", SeatIDs: []string{"seat-a", "seat-b"}, IdempotencyKey: "idem"}
		first, err := svc.CreateHold(context.Background(), in)
		require.NoError(t, err)

		in.SeatIDs = []string{"seat-b", "seat-a"}
		again, err := svc.CreateHold(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)

		in.SeatIDs = []string{"seat-a", "seat-c"}
		_, err = svc.CreateHold(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrIdempotencyConflict)
	})

	t.Run("general admission zone rejects seat ids", func(t *testing.T) {
		repo := newFakeHoldRepo([]domain.Zone{{ID: "zone-ga", EventID: "event-1", Capacity: 10}}, nil)
		svc := NewHoldService(repo, clock.NewFixed(now))

		_, err := svc.CreateHold(context.Background(), CreateHoldInput{
			Actor: buyer, EventID: "event-1", ZoneID: "zone-ga", SeatIDs: []string{"seat-a"}, IdempotencyKey: "idem",
		})
		assert.ErrorIs(t, err, domain.ErrSeatNotFound)
	})
}

func TestHoldService_ExpireHolds(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeHoldRepo(nil, []domain.Hold{
		{ID: "h1", Status: domain.HoldStatusActive, ExpiresAt: now.Add(-time.Second)},
		{ID: "h2", Status: domain.HoldStatusActive, ExpiresAt: now},
		{ID: "h3", Status: domain.HoldStatusActive, ExpiresAt: now.Add(time.Minute)},
		{ID: "h4", Status: domain.HoldStatusConfirmed, ExpiresAt: now.Add(-time.Hour)},
	})
	svc := NewHoldService(repo, clock.NewFixed(now))

	n, err := svc.ExpireHolds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, domain.HoldStatusActive, repo.holds[2].Status)
	assert.Equal(t, domain.HoldStatusConfirmed, repo.holds[3].Status)
}

type fakeHoldRepo struct {
	events map[string]domain.Event
	zones  map[string]domain.Zone
	holds  []domain.Hold
	seats  map[string]string // seatID -> zoneID
	taken  []string
}

func newFakeHoldRepo(zones []domain.Zone, holds []domain.Hold) *fakeHoldRepo {
	z := make(map[string]domain.Zone)
	events := make(map[string]domain.Event)
	for _, zone := range zones {
		z[zoneKey(zone.EventID, zone.ID)] = zone
		events[zone.EventID] = domain.Event{ID: zone.EventID, OrgID: "org-1", Status: domain.EventStatusPublished}
	}
	return &fakeHoldRepo{
		events: events,
		zones:  z,
		holds:  append([]domain.Hold{}, holds...),
	}
}

func (f *fakeHoldRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeHoldRepo) GetEvent(_ context.Context, eventID string) (domain.Event, error) {
	e, ok := f.events[eventID]
	if !ok {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return e, nil
}

func (f *fakeHoldRepo) GetZoneForUpdate(_ context.Context, eventID, zoneID string) (domain.Zone, error) {
	zone, ok := f.zones[zoneKey(eventID, zoneID)]
	if !ok {
		return domain.Zone{}, domain.ErrZoneNotFound
	}
	return zone, nil
}

func (f *fakeHoldRepo) FindHoldByIdempotencyKey(_ context.Context, eventID, zoneID, key string) (*domain.Hold, error) {
	for i := range f.holds {
		h := f.holds[i]
		if h.EventID == eventID && h.ZoneID == zoneID && h.IdempotencyKey == key {
			return &h, nil
		}
	}
	return nil, nil
}

func (f *fakeHoldRepo) SumActiveHolds(_ context.Context, eventID, zoneID string, now time.Time) (int, error) {
	total := 0
	for _, h := range f.holds {
		if h.EventID != eventID || h.ZoneID != zoneID {
			continue
		}
		if !h.ActiveAt(now) {
			continue
		}
		total += h.Quantity
	}
	return total, nil
}

func (f *fakeHoldRepo) SumConfirmed(_ context.Context, eventID, zoneID string) (int, error) {
	total := 0
	for _, h := range f.holds {
		if h.EventID != eventID || h.ZoneID != zoneID {
			continue
		}
		if h.Status != domain.HoldStatusConfirmed {
			continue
		}
		total += h.Quantity
	}
	return total, nil
}

func (f *fakeHoldRepo) CountSeatsInZone(_ context.Context, zoneID string, seatIDs []string) (int, error) {
	n := 0
	for _, id := range seatIDs {
		if f.seats[id] == zoneID {
			n++
		}
	}
	return n, nil
}

func (f *fakeHoldRepo) UnavailableSeats(_ context.Context, seatIDs []string, _ time.Time) ([]string, error) {
	var out []string
	for _, id := range seatIDs {
		if slices.Contains(f.taken, id) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeHoldRepo) CreateHold(_ context.Context, hold domain.Hold) error {
	f.holds = append(f.holds, hold)
	return nil
}

func (f *fakeHoldRepo) ExpireHolds(_ context.Context, now time.Time) (int, error) {
	n := 0
	for i := range f.holds {
		if f.holds[i].Status == domain.HoldStatusActive && !f.holds[i].ExpiresAt.After(now) {
			f.holds[i].Status = domain.HoldStatusExpired
			n++
		}
	}
	return n, nil
}

func zoneKey(eventID, zoneID string) string {
	return eventID + "|" + zoneID
}
