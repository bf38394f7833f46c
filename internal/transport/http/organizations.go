package http

import (
	"context"
	"net/http"

	"github.com/obichijioke/eventapp/internal/app"
	"github.com/obichijioke/eventapp/internal/domain"
)

type OrganizationService interface {
	CreateOrganization(ctx context.Context, actor domain.Actor, in app.CreateOrganizationInput) (domain.Organization, error)
	ListMyOrganizations(ctx context.Context, actor domain.Actor) ([]domain.Organization, error)
	AddMember(ctx context.Context, actor domain.Actor, in app.AddMemberInput) (domain.Membership, error)
	ListMembers(ctx context.Context, actor domain.Actor, orgID string) ([]domain.Membership, error)
}

type createOrganizationRequest struct {
	Name string `json:"name" validate:"required,max=200"`
	Slug string `json:"slug" validate:"required"`
}

type addMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=owner manager finance staff"`
}

func HandleCreateOrganization(svc OrganizationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrganizationRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		org, err := svc.CreateOrganization(r.Context(), actorFrom(r.Context()), app.CreateOrganizationInput{
			Name: req.Name,
			Slug: req.Slug,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toOrganizationResponse(org))
	}
}

func HandleListMyOrganizations(svc OrganizationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgs, err := svc.ListMyOrganizations(r.Context(), actorFrom(r.Context()))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(orgs, toOrganizationResponse))
	}
}

func HandleAddMember(svc OrganizationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addMemberRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		m, err := svc.AddMember(r.Context(), actorFrom(r.Context()), app.AddMemberInput{
			OrgID: r.PathValue("orgID"),
			Email: req.Email,
			Role:  domain.Role(req.Role),
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toMembershipResponse(m))
	}
}

func HandleListMembers(svc OrganizationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		members, err := svc.ListMembers(r.Context(), actorFrom(r.Context()), r.PathValue("orgID"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(members, toMembershipResponse))
	}
}
