package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmamani/cooperativa-backend/api/middleware"
	"github.com/jmamani/cooperativa-backend/api/responses"
	"github.com/jmamani/cooperativa-backend/api/validators"
	"github.com/jmamani/cooperativa-backend/internal/audit"
	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
	pkgerrors "github.com/jmamani/cooperativa-backend/pkg/errors"
	"github.com/jmamani/cooperativa-backend/pkg/logger"
	"github.com/jmamani/cooperativa-backend/pkg/pagination"
)

const defaultAuditStatsWindowDays = 30

type auditListResponse struct {
	Records    any    `json:"records"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// ListAuditRecords pages through the trail newest-first. Filters: user_id,
// action, from, to; cursor pagination via limit and cursor.
func ListAuditRecords(repo *audit.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := auditFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")}

		records, next, err := repo.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not list audit records"))
			return
		}

		responses.WriteSuccess(w, auditListResponse{Records: records, NextCursor: next})
	}
}

// AuditStats summarizes trail activity; the window defaults to the last
// thirty days unless since is given.
func AuditStats(repo *audit.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since := time.Now().AddDate(0, 0, -defaultAuditStatsWindowDays)
		if raw := strings.TrimSpace(r.URL.Query().Get("since")); raw != "" {
			at, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "since must be RFC3339"))
				return
			}
			since = at
		}

		stats, err := repo.Stats(r.Context(), since)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not compute audit stats"))
			return
		}

		responses.WriteSuccess(w, stats)
	}
}

// MyAuditRecords is the self-service view: the trail filtered to the caller.
func MyAuditRecords(repo *audit.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		filter, err := auditFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID := claims.UserID
		filter.UserID = &userID

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")}

		records, next, err := repo.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not list audit records"))
			return
		}

		responses.WriteSuccess(w, auditListResponse{Records: records, NextCursor: next})
	}
}

type sessionResponse struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	IPAddress  string     `json:"ip_address"`
	UserAgent  string     `json:"user_agent"`
	StartedAt  time.Time  `json:"started_at"`
	LastSeenAt time.Time  `json:"last_seen_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	IsActive   bool       `json:"is_active"`
}

func toSessionResponses(sessions []models.UserSession) []sessionResponse {
	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionResponse{
			ID:         s.ID,
			UserID:     s.UserID,
			IPAddress:  s.IPAddress,
			UserAgent:  s.UserAgent,
			StartedAt:  s.StartedAt,
			LastSeenAt: s.LastSeenAt,
			ClosedAt:   s.ClosedAt,
			IsActive:   s.IsActive,
		})
	}
	return out
}

// ListActiveSessions shows every open session. The token itself never leaves
// the server.
func ListActiveSessions(repo *audit.SessionRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := repo.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not list sessions"))
			return
		}
		responses.WriteSuccess(w, toSessionResponses(sessions))
	}
}

// MySessions lists the caller's own sessions, open ones first.
func MySessions(repo *audit.SessionRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		sessions, err := repo.ListByUser(r.Context(), claims.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not list sessions"))
			return
		}
		responses.WriteSuccess(w, toSessionResponses(sessions))
	}
}

type purgeAuditRequest struct {
	RetentionDays int `json:"retention_days" validate:"required,gt=0"`
}

type purgeAuditResponse struct {
	RecordsPurged  int64 `json:"records_purged"`
	SessionsPurged int64 `json:"sessions_purged"`
}

// PurgeAudit removes trail records and stale inactive sessions older than the
// requested retention window.
func PurgeAudit(purger *audit.Purger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload purgeAuditRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := purger.PurgeRecords(r.Context(), payload.RetentionDays)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not purge audit records"))
			return
		}
		sessions, err := purger.PurgeInactiveSessions(r.Context(), payload.RetentionDays)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not purge inactive sessions"))
			return
		}

		ctx := logg.WithFields(r.Context(), map[string]any{
			"retention_days":  payload.RetentionDays,
			"records_purged":  records,
			"sessions_purged": sessions,
		})
		logg.Info(ctx, "audit purge completed")

		responses.WriteSuccess(w, purgeAuditResponse{RecordsPurged: records, SessionsPurged: sessions})
	}
}

func auditFilter(r *http.Request) (audit.ListFilter, error) {
	filter := audit.ListFilter{}

	userID, err := validators.ParseQueryUUID(r, "user_id")
	if err != nil {
		return filter, err
	}
	filter.UserID = userID

	if raw := strings.TrimSpace(r.URL.Query().Get("action")); raw != "" {
		action, err := enums.ParseAuditAction(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid audit action")
		}
		filter.Action = &action
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("success")); raw != "" {
		ok, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "success must be a boolean")
		}
		filter.Success = &ok
	}

	for key, dest := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := strings.TrimSpace(r.URL.Query().Get(key))
		if raw == "" {
			continue
		}
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "date filters must be RFC3339").WithDetails(map[string]any{"field": key})
		}
		*dest = &at
	}

	return filter, nil
}
