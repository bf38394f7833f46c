package app

import (
	"context"
	"sync"

	"github.com/obichijioke/eventapp/internal/domain"
)

type fakeMembers struct {
	roles map[string]domain.Role // orgID|userID -> role
}

func newFakeMembers() *fakeMembers {
	return &fakeMembers{roles: make(map[string]domain.Role)}
}

func (f *fakeMembers) add(orgID, userID string, role domain.Role) *fakeMembers {
	f.roles[orgID+"|"+userID] = role
	return f
}

func (f *fakeMembers) GetMembership(_ context.Context, orgID, userID string) (*domain.Membership, error) {
	role, ok := f.roles[orgID+"|"+userID]
	if !ok {
		return nil, nil
	}
	return &domain.Membership{OrgID: orgID, UserID: userID, Role: role}, nil
}

type sentNotification struct {
	UserID string
	Kind   domain.NotificationKind
	Title  string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingNotifier) Notify(_ context.Context, userID string, kind domain.NotificationKind, title, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{UserID: userID, Kind: kind, Title: title})
	return nil
}

func (r *recordingNotifier) recipients(kind domain.NotificationKind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.sent {
		if n.Kind == kind {
			out = append(out, n.UserID)
		}
	}
	return out
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (r *recordingAudit) Record(_ context.Context, e domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

var (
	buyer    = domain.Actor{UserID: "user-buyer"}
	owner    = domain.Actor{UserID: "user-owner"}
	finance  = domain.Actor{UserID: "user-finance"}
	staff    = domain.Actor{UserID: "user-staff"}
	outsider = domain.Actor{UserID: "user-outsider"}
	admin    = domain.Actor{UserID: "user-admin", IsAdmin: true}
)

// orgMembers returns the membership set shared by the service tests: org-1
// with an owner, a finance member and a staff member.
func orgMembers() *fakeMembers {
	return newFakeMembers().
		add("org-1", owner.UserID, domain.RoleOwner).
		add("org-1", finance.UserID, domain.RoleFinance).
		add("org-1", staff.UserID, domain.RoleStaff)
}
