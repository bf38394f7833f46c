package http

import (
	"context"
	"net/http"
	"time"

	"github.com/obichijioke/eventapp/internal/app"
	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

// EventService is the subset of the event service used by the catalogue and
// organizer endpoints.
type EventService interface {
	CreateEvent(ctx context.Context, actor domain.Actor, in app.CreateEventInput) (domain.Event, error)
	UpdateEvent(ctx context.Context, actor domain.Actor, eventID string, in app.UpdateEventInput) (domain.Event, error)
	Publish(ctx context.Context, actor domain.Actor, eventID string) (app.PublishResult, error)
	Cancel(ctx context.Context, actor domain.Actor, eventID string) (domain.Event, error)
	GetEvent(ctx context.Context, actor domain.Actor, eventID string) (domain.Event, error)
	ListPublished(ctx context.Context, p pagination.Params) (pagination.Page[domain.Event], error)
	ListOrgEvents(ctx context.Context, actor domain.Actor, orgID string, p pagination.Params) (pagination.Page[domain.Event], error)
	CreateZone(ctx context.Context, actor domain.Actor, in app.CreateZoneInput) (domain.Zone, error)
	ListZones(ctx context.Context, actor domain.Actor, eventID string) ([]domain.Zone, error)
}

type createEventRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	Venue       string  `json:"venue" validate:"max=200"`
	StartsAt    string  `json:"starts_at,omitempty"`
	EndsAt      *string `json:"ends_at,omitempty"`
	Currency    string  `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
}

type updateEventRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	Venue       *string `json:"venue,omitempty" validate:"omitempty,max=200"`
	StartsAt    *string `json:"starts_at,omitempty"`
	EndsAt      *string `json:"ends_at,omitempty"`
	Currency    *string `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
}

type createZoneRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Capacity   int    `json:"capacity" validate:"gt=0"`
	PriceCents int64  `json:"price_cents" validate:"gte=0"`
	Seated     bool   `json:"seated"`
}

type publishResponse struct {
	eventResponse
	Changed bool `json:"changed"`
}

// parseTimestamp parses an optional RFC 3339 body field.
func parseTimestamp(raw *string) (*time.Time, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}

func HandleCreateEvent(svc EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createEventRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		startsAt, ok := parseTimestamp(&req.StartsAt)
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidTimestamp, "invalid starts_at format")
			return
		}
		endsAt, ok := parseTimestamp(req.EndsAt)
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidTimestamp, "invalid ends_at format")
			return
		}

		event, err := svc.CreateEvent(r.Context(), actorFrom(r.Context()), app.CreateEventInput{
			OrgID:       r.PathValue("orgID"),
			Name:        req.Name,
			Description: req.Description,
			Venue:       req.Venue,
			StartsAt:    startsAt,
			EndsAt:      endsAt,
			Currency:    req.Currency,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toEventResponse(event))
	}
}

func HandleUpdateEvent(svc EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateEventRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		startsAt, ok := parseTimestamp(req.StartsAt)
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidTimestamp, "invalid starts_at format")
			return
		}
		endsAt, ok := parseTimestamp(req.EndsAt)
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidTimestamp, "invalid ends_at format")
			return
		}

		event, err := svc.UpdateEvent(r.Context(), actorFrom(r.Context()), r.PathValue("eventID"), app.UpdateEventInput{
			Name:        req.Name,
			Description: req.Description,
			Venue:       req.Venue,
			StartsAt:    startsAt,
			EndsAt:      endsAt,
			Currency:    req.Currency,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponse(event))
	}
}

// HandlePublishEvent answers 200 for both the first publish and repeats;
// changed tells them apart.
func HandlePublishEvent(svc EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Publish(r.Context(), actorFrom(r.Context()), r.PathValue("eventID"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, publishResponse{eventResponse: toEventResponse(res.Event), Changed: res.Changed})
	}
}

func HandleCancelEvent(svc EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := svc.Cancel(r.Context(), actorFrom(r.Context()), r.PathValue("eventID"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponse(event))
	}
}

func HandleGetEvent(svc EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := svc.GetEvent(r.Context(), actorFrom(r.Context()), r.PathValue("eventID"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponse(event))
	}
}

func HandleListPublishedEvents(svc EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := svc.ListPublished(r.Context(), pageParams(r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newPageResponse(page, toEventResponse))
	}
}

func HandleListOrgEvents(svc EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := svc.ListOrgEvents(r.Context(), actorFrom(r.Context()), r.PathValue("orgID"), pageParams(r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newPageResponse(page, toEventResponse))
	}
}

func HandleCreateZone(svc EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createZoneRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		zone, err := svc.CreateZone(r.Context(), actorFrom(r.Context()), app.CreateZoneInput{
			EventID:    r.PathValue("eventID"),
			Name:       req.Name,
			Capacity:   req.Capacity,
			PriceCents: req.PriceCents,
			Seated:     req.Seated,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toZoneResponse(zone))
	}
}

func HandleListZones(svc EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		zones, err := svc.ListZones(r.Context(), actorFrom(r.Context()), r.PathValue("eventID"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(zones, toZoneResponse))
	}
}
