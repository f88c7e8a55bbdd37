package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	dbtypes "github.com/jmamani/cooperativa-backend/pkg/db/types"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
	"github.com/jmamani/cooperativa-backend/pkg/logger"
)

// Entry carries everything needed to emit one audit record.
type Entry struct {
	Action      enums.AuditAction
	ActorID     *uuid.UUID
	ActorLabel  string
	IP          string
	UserAgent   string
	Entity      *EntityRef
	Description string
	PriorState  dbtypes.JSONMap
	NewState    dbtypes.JSONMap
	Success     bool
}

// Recorder appends audit records. Emission is best-effort logging: it is
// never transactional with the business mutation it describes.
type Recorder interface {
	Record(ctx context.Context, entry Entry) (*models.AuditRecord, error)
}

type recorder struct {
	repo *Repository
	log  *logger.Logger
}

// RecorderParams bundles the dependencies for the audit recorder.
type RecorderParams struct {
	Repo   *Repository
	Logger *logger.Logger
}

// NewRecorder constructs the audit recorder.
func NewRecorder(params RecorderParams) (Recorder, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("audit repository is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &recorder{repo: params.Repo, log: params.Logger}, nil
}

func (r *recorder) Record(ctx context.Context, entry Entry) (*models.AuditRecord, error) {
	if !entry.Action.IsValid() {
		return nil, fmt.Errorf("invalid audit action %q", entry.Action)
	}

	record := &models.AuditRecord{
		UserID:      entry.ActorID,
		ActorLabel:  entry.ActorLabel,
		Action:      entry.Action,
		Description: entry.Description,
		IPAddress:   entry.IP,
		UserAgent:   entry.UserAgent,
		PriorState:  entry.PriorState,
		NewState:    entry.NewState,
		Success:     entry.Success,
	}
	if entry.Entity != nil {
		kind := entry.Entity.Kind
		id := entry.Entity.ID
		record.EntityKind = &kind
		record.EntityID = &id
	}

	if err := r.repo.Insert(ctx, record); err != nil {
		r.log.Error(ctx, "audit record insert failed", err)
		return nil, err
	}
	return record, nil
}
