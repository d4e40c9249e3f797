package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/glossary-backend/internal/domain"
	domainjobs "github.com/yungbote/glossary-backend/internal/domain/jobs"
	"github.com/yungbote/glossary-backend/internal/pkg/dbctx"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

type RunRepo interface {
	Create(dbc dbctx.Context, run *types.Run) (*types.Run, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Run, error)
	GetByProjectAndID(dbc dbctx.Context, projectID uuid.UUID, id uuid.UUID) (*types.Run, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID, limit int) ([]*types.Run, error)
	ListByStatus(dbc dbctx.Context, statuses []string) ([]*types.Run, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, disallowedStatuses []string, updates map[string]interface{}) (bool, error)
	FailActive(dbc dbctx.Context, message string) (int64, error)
}

type runRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRunRepo(db *gorm.DB, baseLog *logger.Logger) RunRepo {
	return &runRepo{
		db:  db,
		log: baseLog.With("repo", "RunRepo"),
	}
}

func (r *runRepo) Create(dbc dbctx.Context, run *types.Run) (*types.Run, error) {
	transaction := dbc.DB(r.db)
	if run == nil {
		return nil, nil
	}
	if run.Status == "" {
		run.Status = types.RunStatusPending
	}
	if err := transaction.Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *runRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Run, error) {
	transaction := dbc.DB(r.db)
	if id == uuid.Nil {
		return nil, nil
	}
	var run types.Run
	if err := transaction.
		Where("id = ?", id).
		Limit(1).
		Find(&run).Error; err != nil {
		return nil, err
	}
	if run.ID == uuid.Nil {
		return nil, nil
	}
	return &run, nil
}

func (r *runRepo) GetByProjectAndID(dbc dbctx.Context, projectID uuid.UUID, id uuid.UUID) (*types.Run, error) {
	run, err := r.GetByID(dbc, id)
	if err != nil || run == nil {
		return nil, err
	}
	if run.ProjectID != projectID {
		return nil, nil
	}
	return run, nil
}

func (r *runRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID, limit int) ([]*types.Run, error) {
	transaction := dbc.DB(r.db)
	var out []*types.Run
	if projectID == uuid.Nil {
		return out, nil
	}
	q := transaction.
		Where("project_id = ?", projectID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *runRepo) ListByStatus(dbc dbctx.Context, statuses []string) ([]*types.Run, error) {
	transaction := dbc.DB(r.db)
	var out []*types.Run
	if len(statuses) == 0 {
		return out, nil
	}
	if err := transaction.
		Where("status IN ?", statuses).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *runRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.DB(r.db)
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return transaction.
		Model(&types.Run{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateFieldsUnlessStatus applies updates only while the run is not in one of
// disallowedStatuses. It reports whether a row changed.
func (r *runRepo) UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, disallowedStatuses []string, updates map[string]interface{}) (bool, error) {
	transaction := dbc.DB(r.db)
	if id == uuid.Nil {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}

	q := transaction.
		Model(&types.Run{}).
		Where("id = ?", id)
	if len(disallowedStatuses) == 1 {
		q = q.Where("status <> ?", disallowedStatuses[0])
	} else if len(disallowedStatuses) > 1 {
		q = q.Where("status NOT IN ?", disallowedStatuses)
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FailActive marks every pending or running run as failed. Used once at startup,
// when no worker from this process can own them.
func (r *runRepo) FailActive(dbc dbctx.Context, message string) (int64, error) {
	transaction := dbc.DB(r.db)
	now := time.Now().UTC()
	res := transaction.
		Model(&types.Run{}).
		Where("status IN ?", domainjobs.ActiveStatuses()).
		Updates(map[string]interface{}{
			"status":        string(types.RunStatusFailed),
			"error_message": message,
			"completed_at":  now,
			"updated_at":    now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
