package app

import (
	"context"
	"regexp"
	"strings"

	"github.com/obichijioke/eventapp/internal/clock"
	"github.com/obichijioke/eventapp/internal/domain"
)

type OrganizationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateOrganization(ctx context.Context, org domain.Organization) error
	GetOrganization(ctx context.Context, orgID string) (domain.Organization, error)
	ListOrganizationsForUser(ctx context.Context, userID string) ([]domain.Organization, error)
	AddMembership(ctx context.Context, m domain.Membership) error
	ListMembers(ctx context.Context, orgID string) ([]domain.Membership, error)
}

type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
}

var slugPattern = regexp.MustCompile(`^[a-z0-9-]{3,50}$`)

type OrganizationService struct {
	repo     OrganizationRepository
	users    UserLookup
	authz    *Authorizer
	notifier Notifier
	audit    AuditRecorder
	clock    clock.Clock
}

func NewOrganizationService(repo OrganizationRepository, users UserLookup, authz *Authorizer, notifier Notifier, audit AuditRecorder, clk clock.Clock) *OrganizationService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if audit == nil {
		audit = nopAudit{}
	}
	return &OrganizationService{repo: repo, users: users, authz: authz, notifier: notifier, audit: audit, clock: clk}
}

type CreateOrganizationInput struct {
	Name string
	Slug string
}

// CreateOrganization creates the tenant and makes the actor its owner.
func (s *OrganizationService) CreateOrganization(ctx context.Context, actor domain.Actor, in CreateOrganizationInput) (domain.Organization, error) {
	if actor.UserID == "" {
		return domain.Organization{}, domain.ErrUnauthenticated
	}
	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	if !slugPattern.MatchString(slug) {
		return domain.Organization{}, domain.ErrInvalidSlug
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = slug
	}

	now := s.clock.Now()
	org := domain.Organization{ID: newUUID(), Name: name, Slug: slug, CreatedAt: now}
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateOrganization(txCtx, org); err != nil {
			return err
		}
		owner := domain.Membership{OrgID: org.ID, UserID: actor.UserID, Role: domain.RoleOwner, CreatedAt: now}
		if err := s.repo.AddMembership(txCtx, owner); err != nil {
			return err
		}
		return s.audit.Record(txCtx, domain.AuditEntry{
			OrgID:      org.ID,
			ActorID:    actor.UserID,
			Action:     "org.created",
			Resource:   "organization",
			ResourceID: org.ID,
			Metadata:   map[string]any{"slug": slug},
		})
	})
	if err != nil {
		return domain.Organization{}, err
	}
	return org, nil
}

func (s *OrganizationService) ListMyOrganizations(ctx context.Context, actor domain.Actor) ([]domain.Organization, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.repo.ListOrganizationsForUser(ctx, actor.UserID)
}

type AddMemberInput struct {
	OrgID string
	Email string
	Role  domain.Role
}

func (s *OrganizationService) AddMember(ctx context.Context, actor domain.Actor, in AddMemberInput) (domain.Membership, error) {
	if !in.Role.Valid() {
		return domain.Membership{}, domain.ErrInvalidRole
	}
	if _, err := s.authz.Require(ctx, actor, in.OrgID, RolesOwner...); err != nil {
		return domain.Membership{}, err
	}
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return domain.Membership{}, err
	}
	org, err := s.repo.GetOrganization(ctx, in.OrgID)
	if err != nil {
		return domain.Membership{}, err
	}

	m := domain.Membership{
		OrgID:     in.OrgID,
		UserID:    user.ID,
		Role:      in.Role,
		CreatedAt: s.clock.Now(),
		Email:     user.Email,
		Name:      user.Name,
	}
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.AddMembership(txCtx, m); err != nil {
			return err
		}
		if err := s.notifier.Notify(txCtx, user.ID, domain.NotificationMemberAdded,
			"You were added to "+org.Name,
			"Your role is "+string(in.Role)+"."); err != nil {
			return err
		}
		return s.audit.Record(txCtx, domain.AuditEntry{
			OrgID:      in.OrgID,
			ActorID:    actor.UserID,
			Action:     "member.added",
			Resource:   "membership",
			ResourceID: user.ID,
			Metadata:   map[string]any{"role": string(in.Role), "email": user.Email},
		})
	})
	if err != nil {
		return domain.Membership{}, err
	}
	return m, nil
}

func (s *OrganizationService) ListMembers(ctx context.Context, actor domain.Actor, orgID string) ([]domain.Membership, error) {
	if _, err := s.authz.Require(ctx, actor, orgID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, orgID)
}
