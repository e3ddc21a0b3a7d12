package taskauth

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultTasksPerPage caps unbounded list requests.
const DefaultTasksPerPage = 10

type Tasks interface {
	repository.Repository[*Task]

	Create(ctx context.Context, record *Task, criteria ...repository.InsertCriteria) (*Task, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Task, criteria ...repository.InsertCriteria) (*Task, error)

	List(ctx context.Context, page, perPage int) ([]*Task, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, perPage int) ([]*Task, error)
	Summary(ctx context.Context, userID uuid.UUID, now time.Time) (*TaskSummary, error)
}

type tasks struct {
	repository.Repository[*Task]
	db *bun.DB
}

var (
	_ Tasks                        = (*tasks)(nil)
	_ repository.Repository[*Task] = (*tasks)(nil)
)

func NewTasksRepository(db *bun.DB) Tasks {
	repo := repository.NewRepository[*Task](db, repository.ModelHandlers[*Task]{
		NewRecord: func() *Task { return &Task{} },
		GetID: func(t *Task) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *Task, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
	})

	return &tasks{
		Repository: repo,
		db:         db,
	}
}

func (r *tasks) Create(ctx context.Context, record *Task, criteria ...repository.InsertCriteria) (*Task, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *tasks) CreateTx(ctx context.Context, tx bun.IDB, record *Task, criteria ...repository.InsertCriteria) (*Task, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (r *tasks) List(ctx context.Context, page, perPage int) ([]*Task, error) {
	return r.list(ctx, nil, page, perPage)
}

func (r *tasks) ListByUser(ctx context.Context, userID uuid.UUID, page, perPage int) ([]*Task, error) {
	return r.list(ctx, &userID, page, perPage)
}

func (r *tasks) list(ctx context.Context, userID *uuid.UUID, page, perPage int) ([]*Task, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultTasksPerPage
	}

	records := []*Task{}
	q := r.db.NewSelect().
		Model(&records).
		Order("created_at DESC").
		Limit(perPage).
		Offset((page - 1) * perPage)

	if userID != nil {
		q = q.Where("?TableAlias.user_id = ?", *userID)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *tasks) Summary(ctx context.Context, userID uuid.UUID, now time.Time) (*TaskSummary, error) {
	total, err := r.db.NewSelect().
		Model((*Task)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Count(ctx)
	if err != nil {
		return nil, err
	}

	completed, err := r.db.NewSelect().
		Model((*Task)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.status = ?", true).
		Count(ctx)
	if err != nil {
		return nil, err
	}

	overdue, err := r.db.NewSelect().
		Model((*Task)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.status = ?", false).
		Where("?TableAlias.due_date IS NOT NULL").
		Where("?TableAlias.due_date < ?", now).
		Count(ctx)
	if err != nil {
		return nil, err
	}

	return &TaskSummary{
		Total:     total,
		Completed: completed,
		Overdue:   overdue,
		Remaining: total - completed,
	}, nil
}
