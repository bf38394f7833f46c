package app

import (
	"context"
	"slices"

	"github.com/obichijioke/eventapp/internal/domain"
)

// Role groups allowed to perform each class of organization operation.
var (
	RolesManageEvents = []domain.Role{domain.RoleOwner, domain.RoleManager}
	RolesFinance      = []domain.Role{domain.RoleOwner, domain.RoleFinance}
	RolesCheckIn      = []domain.Role{domain.RoleOwner, domain.RoleManager, domain.RoleStaff}
	RolesOwner        = []domain.Role{domain.RoleOwner}
)

type MembershipReader interface {
	GetMembership(ctx context.Context, orgID, userID string) (*domain.Membership, error)
}

// Authorizer answers whether an actor holds one of a set of roles in an
// organization. Platform administrators pass every check. An empty role list
// admits any member.
type Authorizer struct {
	members MembershipReader
}

func NewAuthorizer(members MembershipReader) *Authorizer {
	return &Authorizer{members: members}
}

func (a *Authorizer) Require(ctx context.Context, actor domain.Actor, orgID string, roles ...domain.Role) (domain.Membership, error) {
	if actor.UserID == "" {
		return domain.Membership{}, domain.ErrUnauthenticated
	}
	if actor.IsAdmin {
		return domain.Membership{OrgID: orgID, UserID: actor.UserID}, nil
	}
	m, err := a.members.GetMembership(ctx, orgID, actor.UserID)
	if err != nil {
		return domain.Membership{}, err
	}
	if m == nil {
		return domain.Membership{}, domain.ErrForbidden
	}
	if len(roles) > 0 && !slices.Contains(roles, m.Role) {
		return domain.Membership{}, domain.ErrForbidden
	}
	return *m, nil
}

// RequireAdmin allows only platform administrators.
func RequireAdmin(actor domain.Actor) error {
	if actor.UserID == "" {
		return domain.ErrUnauthenticated
	}
	if !actor.IsAdmin {
		return domain.ErrForbidden
	}
	return nil
}
