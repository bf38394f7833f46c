package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/obichijioke/eventapp/internal/clock"
	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/money"
	"github.com/obichijioke/eventapp/internal/pagination"
)

type EventRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateEvent(ctx context.Context, event domain.Event) error
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
	GetEventForUpdate(ctx context.Context, eventID string) (domain.Event, error)
	UpdateEvent(ctx context.Context, event domain.Event) error
	PublishEvent(ctx context.Context, eventID string, at time.Time) (bool, error)
	CancelEvent(ctx context.Context, eventID string) (bool, error)
	ListEventsByOrg(ctx context.Context, orgID string, p pagination.Params) ([]domain.Event, int, error)
	ListPublishedEvents(ctx context.Context, p pagination.Params) ([]domain.Event, int, error)
	CountZones(ctx context.Context, eventID string) (int, error)
	CountEmptySeatedZones(ctx context.Context, eventID string) (int, error)
	CreateZone(ctx context.Context, zone domain.Zone) error
	ListZonesByEvent(ctx context.Context, eventID string, now time.Time) ([]domain.Zone, error)
	ListTicketHolderIDs(ctx context.Context, eventID string) ([]string, error)
}

const defaultCurrency = "USD"

// EventService manages an organization's events and their zones, and serves
// the public catalogue.
type EventService struct {
	repo     EventRepository
	authz    *Authorizer
	notifier Notifier
	audit    AuditRecorder
	clock    clock.Clock
}

func NewEventService(repo EventRepository, authz *Authorizer, notifier Notifier, audit AuditRecorder, clk clock.Clock) *EventService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if audit == nil {
		audit = nopAudit{}
	}
	return &EventService{repo: repo, authz: authz, notifier: notifier, audit: audit, clock: clk}
}

type CreateEventInput struct {
	OrgID       string
	Name        string
	Description string
	Venue       string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Currency    string
}

func (s *EventService) CreateEvent(ctx context.Context, actor domain.Actor, in CreateEventInput) (domain.Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Event{}, domain.ErrEventNameRequired
	}
	currency := defaultCurrency
	if in.Currency != "" {
		c, err := parseCurrency(in.Currency)
		if err != nil {
			return domain.Event{}, err
		}
		currency = c
	}
	now := s.clock.Now()
	startsAt := now
	if in.StartsAt != nil {
		startsAt = in.StartsAt.UTC()
	}
	if in.EndsAt != nil && !in.EndsAt.After(startsAt) {
		return domain.Event{}, domain.ErrInvalidSchedule
	}
	if _, err := s.authz.Require(ctx, actor, in.OrgID, RolesManageEvents...); err != nil {
		return domain.Event{}, err
	}

	event := domain.Event{
		ID:          newUUID(),
		OrgID:       in.OrgID,
		Name:        name,
		Description: in.Description,
		Venue:       in.Venue,
		StartsAt:    startsAt,
		EndsAt:      utcPtr(in.EndsAt),
		Currency:    currency,
		Status:      domain.EventStatusDraft,
		CreatedAt:   now,
	}
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateEvent(txCtx, event); err != nil {
			return err
		}
		return s.audit.Record(txCtx, eventAudit(actor, event, "event.created", map[string]any{"name": name}))
	})
	if err != nil {
		return domain.Event{}, err
	}
	return event, nil
}

// UpdateEventInput is a patch: nil fields are left unchanged.
type UpdateEventInput struct {
	Name        *string
	Description *string
	Venue       *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Currency    *string
}

func (s *EventService) UpdateEvent(ctx context.Context, actor domain.Actor, eventID string, in UpdateEventInput) (domain.Event, error) {
	var result domain.Event
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if _, err := s.authz.Require(txCtx, actor, event.OrgID, RolesManageEvents...); err != nil {
			return err
		}
		if event.Status == domain.EventStatusCancelled {
			return domain.ErrEventCancelled
		}

		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return domain.ErrEventNameRequired
			}
			event.Name = name
		}
		if in.Description != nil {
			event.Description = *in.Description
		}
		if in.Venue != nil {
			event.Venue = *in.Venue
		}
		if in.StartsAt != nil {
			event.StartsAt = in.StartsAt.UTC()
		}
		if in.EndsAt != nil {
			event.EndsAt = utcPtr(in.EndsAt)
		}
		if event.EndsAt != nil && !event.EndsAt.After(event.StartsAt) {
			return domain.ErrInvalidSchedule
		}
		if in.Currency != nil {
			c, err := parseCurrency(*in.Currency)
			if err != nil {
				return err
			}
			if c != event.Currency && event.Status != domain.EventStatusDraft {
				return domain.ErrCurrencyLocked
			}
			event.Currency = c
		}

		if err := s.repo.UpdateEvent(txCtx, event); err != nil {
			return err
		}
		result = event
		return s.audit.Record(txCtx, eventAudit(actor, event, "event.updated", nil))
	})
	if err != nil {
		return domain.Event{}, err
	}
	return result, nil
}

type PublishResult struct {
	Event   domain.Event
	Changed bool
}

// Publish moves a draft event on sale. Publishing an already published event
// is not an error: it returns the event with Changed=false.
func (s *EventService) Publish(ctx context.Context, actor domain.Actor, eventID string) (PublishResult, error) {
	var result PublishResult
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEvent(txCtx, eventID)
		if err != nil {
			return err
		}
		if _, err := s.authz.Require(txCtx, actor, event.OrgID, RolesManageEvents...); err != nil {
			return err
		}
		switch event.Status {
		case domain.EventStatusCancelled:
			return domain.ErrEventCancelled
		case domain.EventStatusPublished:
			result = PublishResult{Event: event}
			return nil
		}

		zones, err := s.repo.CountZones(txCtx, eventID)
		if err != nil {
			return err
		}
		if zones == 0 {
			return domain.ErrEventHasNoZones
		}
		// A seated zone without a seat map has nothing to sell.
		empty, err := s.repo.CountEmptySeatedZones(txCtx, eventID)
		if err != nil {
			return err
		}
		if empty > 0 {
			return domain.ErrSeatedZoneEmpty
		}

		now := s.clock.Now()
		changed, err := s.repo.PublishEvent(txCtx, eventID, now)
		if err != nil {
			return err
		}
		if !changed {
			// Lost the race to a concurrent publish or cancel.
			event, err = s.repo.GetEvent(txCtx, eventID)
			if err != nil {
				return err
			}
			if event.Status == domain.EventStatusCancelled {
				return domain.ErrEventCancelled
			}
			result = PublishResult{Event: event}
			return nil
		}

		event.Status = domain.EventStatusPublished
		event.PublishedAt = &now
		result = PublishResult{Event: event, Changed: true}
		return s.audit.Record(txCtx, eventAudit(actor, event, "event.published", nil))
	})
	if err != nil {
		return PublishResult{}, err
	}
	return result, nil
}

// Cancel takes an event off sale for good and tells every ticket holder.
func (s *EventService) Cancel(ctx context.Context, actor domain.Actor, eventID string) (domain.Event, error) {
	var result domain.Event
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if _, err := s.authz.Require(txCtx, actor, event.OrgID, RolesManageEvents...); err != nil {
			return err
		}
		changed, err := s.repo.CancelEvent(txCtx, eventID)
		if err != nil {
			return err
		}
		event.Status = domain.EventStatusCancelled
		result = event
		if !changed {
			return nil
		}

		holders, err := s.repo.ListTicketHolderIDs(txCtx, eventID)
		if err != nil {
			return err
		}
		if err := notifyAll(txCtx, s.notifier, holders, domain.NotificationEventCancelled,
			event.Name+" was cancelled",
			"The organizer cancelled this event. Refunds will follow."); err != nil {
			return err
		}
		return s.audit.Record(txCtx, eventAudit(actor, event, "event.cancelled", map[string]any{"notified": len(holders)}))
	})
	if err != nil {
		return domain.Event{}, err
	}
	return result, nil
}

// GetEvent returns published events to anyone and unpublished ones to
// members of the owning organization.
func (s *EventService) GetEvent(ctx context.Context, actor domain.Actor, eventID string) (domain.Event, error) {
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return domain.Event{}, err
	}
	if event.Status == domain.EventStatusPublished {
		return event, nil
	}
	if actor.UserID == "" {
		return domain.Event{}, domain.ErrEventNotFound
	}
	if _, err := s.authz.Require(ctx, actor, event.OrgID); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, err
	}
	return event, nil
}

func (s *EventService) ListPublished(ctx context.Context, p pagination.Params) (pagination.Page[domain.Event], error) {
	events, total, err := s.repo.ListPublishedEvents(ctx, p)
	if err != nil {
		return pagination.Page[domain.Event]{}, err
	}
	return pagination.NewPage(events, p, total), nil
}

func (s *EventService) ListOrgEvents(ctx context.Context, actor domain.Actor, orgID string, p pagination.Params) (pagination.Page[domain.Event], error) {
	if _, err := s.authz.Require(ctx, actor, orgID); err != nil {
		return pagination.Page[domain.Event]{}, err
	}
	events, total, err := s.repo.ListEventsByOrg(ctx, orgID, p)
	if err != nil {
		return pagination.Page[domain.Event]{}, err
	}
	return pagination.NewPage(events, p, total), nil
}

type CreateZoneInput struct {
	EventID    string
	Name       string
	Capacity   int
	PriceCents int64
	Seated     bool
}

// CreateZone adds a priced area. Seated zones may start at zero capacity;
// importing a seatmap sets it.
func (s *EventService) CreateZone(ctx context.Context, actor domain.Actor, in CreateZoneInput) (domain.Zone, error) {
	if in.EventID == "" {
		return domain.Zone{}, domain.ErrInvalidID
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Zone{}, domain.ErrZoneNameRequired
	}
	if in.Capacity < 0 || (in.Capacity == 0 && !in.Seated) {
		return domain.Zone{}, domain.ErrInvalidCapacity
	}
	if in.PriceCents < 0 {
		return domain.Zone{}, domain.ErrInvalidPrice
	}

	zone := domain.Zone{
		ID:         newUUID(),
		EventID:    in.EventID,
		Name:       name,
		Capacity:   in.Capacity,
		PriceCents: in.PriceCents,
		Seated:     in.Seated,
		Available:  in.Capacity,
	}
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventForUpdate(txCtx, in.EventID)
		if err != nil {
			return err
		}
		if _, err := s.authz.Require(txCtx, actor, event.OrgID, RolesManageEvents...); err != nil {
			return err
		}
		if event.Status == domain.EventStatusCancelled {
			return domain.ErrEventCancelled
		}
		if err := s.repo.CreateZone(txCtx, zone); err != nil {
			return err
		}
		return s.audit.Record(txCtx, domain.AuditEntry{
			OrgID:      event.OrgID,
			ActorID:    actor.UserID,
			Action:     "zone.created",
			Resource:   "zone",
			ResourceID: zone.ID,
			Metadata:   map[string]any{"event_id": event.ID, "name": name, "capacity": in.Capacity, "price_cents": in.PriceCents},
		})
	})
	if err != nil {
		return domain.Zone{}, err
	}
	return zone, nil
}

// ListZones lists zones with live availability, under the same visibility
// rules as GetEvent.
func (s *EventService) ListZones(ctx context.Context, actor domain.Actor, eventID string) ([]domain.Zone, error) {
	if eventID == "" {
		return nil, domain.ErrInvalidID
	}
	if _, err := s.GetEvent(ctx, actor, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListZonesByEvent(ctx, eventID, s.clock.Now())
}

func eventAudit(actor domain.Actor, event domain.Event, action string, metadata map[string]any) domain.AuditEntry {
	return domain.AuditEntry{
		OrgID:      event.OrgID,
		ActorID:    actor.UserID,
		Action:     action,
		Resource:   "event",
		ResourceID: event.ID,
		Metadata:   metadata,
	}
}

func parseCurrency(code string) (string, error) {
	c, err := money.ParseCurrency(code)
	if err != nil {
		return "", domain.ErrInvalidCurrency
	}
	return c, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
