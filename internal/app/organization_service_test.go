package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obichijioke/eventapp/internal/clock"
	"github.com/obichijioke/eventapp/internal/domain"
)

func TestOrganizationService(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	newSvc := func() (*OrganizationService, *fakeOrgRepo, *recordingNotifier, *recordingAudit) {
		repo := newFakeOrgRepo()
		users := fakeUserLookup{
			"new@example.com": {ID: "user-new", Email: "new@example.com", Name: "New"},
		}
		notifier := &recordingNotifier{}
		audit := &recordingAudit{}
		// The repo doubles as the membership reader so created orgs are visible to checks.
		svc := NewOrganizationService(repo, users, NewAuthorizer(repo), notifier, audit, clock.NewFixed(now))
		return svc, repo, notifier, audit
	}

	t.Run("creator becomes owner", func(t *testing.T) {
		svc, repo, _, audit := newSvc()

		org, err := svc.CreateOrganization(context.Background(), owner, CreateOrganizationInput{Name: "Acme Live", Slug: "Acme-Live"})
		require.NoError(t, err)
		assert.Equal(t, "acme-live", org.Slug)

		m, err := repo.GetMembership(context.Background(), org.ID, owner.UserID)
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, domain.RoleOwner, m.Role)
		assert.Equal(t, []string{"org.created"}, audit.actions())

		mine, err := svc.ListMyOrganizations(context.Background(), owner)
		require.NoError(t, err)
		assert.Len(t, mine, 1)
	})

	t.Run("validates slug and uniqueness", func(t *testing.T) {
		svc, _, _, _ := newSvc()

		_, err := svc.CreateOrganization(context.Background(), owner, CreateOrganizationInput{Slug: "no spaces"})
		assert.ErrorIs(t, err, domain.ErrInvalidSlug)

		_, err = svc.CreateOrganization(context.Background(), owner, CreateOrganizationInput{Slug: "taken"})
		require.NoError(t, err)
		_, err = svc.CreateOrganization(context.Background(), buyer, CreateOrganizationInput{Slug: "taken"})
		assert.ErrorIs(t, err, domain.ErrSlugTaken)
	})

	t.Run("owner adds members", func(t *testing.T) {
		svc, _, notifier, audit := newSvc()
		org, err := svc.CreateOrganization(context.Background(), owner, CreateOrganizationInput{Slug: "acme"})
		require.NoError(t, err)

		m, err := svc.AddMember(context.Background(), owner, AddMemberInput{OrgID: org.ID, Email: "NEW@example.com", Role: domain.RoleStaff})
		require.NoError(t, err)
		assert.Equal(t, "user-new", m.UserID)
		assert.Equal(t, []string{"user-new"}, notifier.recipients(domain.NotificationMemberAdded))
		assert.Equal(t, []string{"org.created", "member.added"}, audit.actions())

		members, err := svc.ListMembers(context.Background(), domain.Actor{UserID: "user-new"}, org.ID)
		require.NoError(t, err)
		assert.Len(t, members, 2)

		_, err = svc.AddMember(context.Background(), domain.Actor{UserID: "user-new"}, AddMemberInput{OrgID: org.ID, Email: "new@example.com", Role: domain.RoleOwner})
		assert.ErrorIs(t, err, domain.ErrForbidden)

		_, err = svc.AddMember(context.Background(), owner, AddMemberInput{OrgID: org.ID, Email: "new@example.com", Role: "boss"})
		assert.ErrorIs(t, err, domain.ErrInvalidRole)

		_, err = svc.AddMember(context.Background(), owner, AddMemberInput{OrgID: org.ID, Email: "ghost@example.com", Role: domain.RoleStaff})
		assert.ErrorIs(t, err, domain.ErrUserNotFound)

		_, err = svc.ListMembers(context.Background(), outsider, org.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

type fakeUserLookup map[string]domain.User

func (f fakeUserLookup) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	u, ok := f[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

type fakeOrgRepo struct {
	orgs    map[string]domain.Organization
	members []domain.Membership
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{orgs: make(map[string]domain.Organization)}
}

func (f *fakeOrgRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeOrgRepo) CreateOrganization(_ context.Context, org domain.Organization) error {
	for _, o := range f.orgs {
		if o.Slug == org.Slug {
			return domain.ErrSlugTaken
		}
	}
	f.orgs[org.ID] = org
	return nil
}

func (f *fakeOrgRepo) GetOrganization(_ context.Context, id string) (domain.Organization, error) {
	o, ok := f.orgs[id]
	if !ok {
		return domain.Organization{}, domain.ErrOrganizationMissing
	}
	return o, nil
}

func (f *fakeOrgRepo) ListOrganizationsForUser(_ context.Context, userID string) ([]domain.Organization, error) {
	var out []domain.Organization
	for _, m := range f.members {
		if m.UserID == userID {
			out = append(out, f.orgs[m.OrgID])
		}
	}
	return out, nil
}

func (f *fakeOrgRepo) AddMembership(_ context.Context, m domain.Membership) error {
	for i := range f.members {
		if f.members[i].OrgID == m.OrgID && f.members[i].UserID == m.UserID {
			f.members[i].Role = m.Role
			return nil
		}
	}
	f.members = append(f.members, m)
	return nil
}

func (f *fakeOrgRepo) ListMembers(_ context.Context, orgID string) ([]domain.Membership, error) {
	var out []domain.Membership
	for _, m := range f.members {
		if m.OrgID == orgID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeOrgRepo) GetMembership(_ context.Context, orgID, userID string) (*domain.Membership, error) {
	for _, m := range f.members {
		if m.OrgID == orgID && m.UserID == userID {
			m := m
			return &m, nil
		}
	}
	return nil, nil
}
