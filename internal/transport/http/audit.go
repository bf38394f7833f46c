package http

import (
	"context"
	"net/http"

	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/pagination"
)

type AuditService interface {
	Query(ctx context.Context, actor domain.Actor, orgID string, f domain.AuditFilter, p pagination.Params) (pagination.Page[domain.AuditEntry], error)
}

// HandleQueryAudit filters by action, actor_id, resource, since and until
// (RFC 3339).
func HandleQueryAudit(svc AuditService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		since, err := parseTimeParam(r, "since")
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidTimestamp, "invalid since format")
			return
		}
		until, err := parseTimeParam(r, "until")
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidTimestamp, "invalid until format")
			return
		}

		page, err := svc.Query(r.Context(), actorFrom(r.Context()), r.PathValue("orgID"), domain.AuditFilter{
			Action:   q.Get("action"),
			ActorID:  q.Get("actor_id"),
			Resource: q.Get("resource"),
			Since:    since,
			Until:    until,
		}, pageParams(r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newPageResponse(page, toAuditEntryResponse))
	}
}
