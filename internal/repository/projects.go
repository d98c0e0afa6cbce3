package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GeonSoon1/moonshot-myself/internal/domain"
)

var (
	_ ProjectRepository    = (*PostgresProjectRepo)(nil)
	_ MembershipRepository = (*PostgresMembershipRepo)(nil)
)

// PostgresProjectRepo implements ProjectRepository on pgx.
type PostgresProjectRepo struct {
	db *pgxpool.Pool
}

func NewPostgresProjectRepo(pool *pgxpool.Pool) *PostgresProjectRepo {
	return &PostgresProjectRepo{db: pool}
}

const projectColumns = `id, owner_id, name, description, created_at, updated_at`

// Create inserts the project and its owner's OWNER membership in one
// transaction, so no project ever exists without its owner row.
func (r *PostgresProjectRepo) Create(ctx context.Context, project domain.Project) (domain.Project, error) {
	var created domain.Project
	err := pgx.BeginTxFunc(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
INSERT INTO projects (id, owner_id, name, description)
VALUES ($1, $2, $3, $4)
RETURNING `+projectColumns,
			project.ID, project.OwnerID, project.Name, project.Description,
		)
		if err := row.Scan(&created.ID, &created.OwnerID, &created.Name, &created.Description, &created.CreatedAt, &created.UpdatedAt); err != nil {
			return fmt.Errorf("insert project: %w", err)
		}

		if _, err := tx.Exec(ctx, `
INSERT INTO project_members (project_id, member_id, role)
VALUES ($1, $2, $3)`,
			created.ID, created.OwnerID, domain.RoleOwner,
		); err != nil {
			return fmt.Errorf("insert owner membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Project{}, err
	}
	return created, nil
}

func (r *PostgresProjectRepo) GetByID(ctx context.Context, projectID int64) (domain.Project, error) {
	var project domain.Project
	row := r.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, projectID)
	if err := row.Scan(&project.ID, &project.OwnerID, &project.Name, &project.Description, &project.CreatedAt, &project.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Project{}, domain.ErrProjectNotFound
		}
		return domain.Project{}, fmt.Errorf("get project: %w", err)
	}
	return project, nil
}

func (r *PostgresProjectRepo) GetTask(ctx context.Context, taskID int64) (domain.Task, error) {
	var task domain.Task
	row := r.db.QueryRow(ctx, `SELECT id, project_id FROM tasks WHERE id = $1`, taskID)
	if err := row.Scan(&task.ID, &task.ProjectID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, domain.ErrTaskNotFound
		}
		return domain.Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

func (r *PostgresProjectRepo) GetSubTask(ctx context.Context, subTaskID int64) (domain.SubTask, error) {
	var subTask domain.SubTask
	row := r.db.QueryRow(ctx, `SELECT id, task_id FROM sub_tasks WHERE id = $1`, subTaskID)
	if err := row.Scan(&subTask.ID, &subTask.TaskID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SubTask{}, domain.ErrSubTaskNotFound
		}
		return domain.SubTask{}, fmt.Errorf("get sub-task: %w", err)
	}
	return subTask, nil
}

// PostgresMembershipRepo implements MembershipRepository on pgx.
type PostgresMembershipRepo struct {
	db *pgxpool.Pool
}

func NewPostgresMembershipRepo(pool *pgxpool.Pool) *PostgresMembershipRepo {
	return &PostgresMembershipRepo{db: pool}
}

func (r *PostgresMembershipRepo) Get(ctx context.Context, projectID, memberID int64) (domain.Membership, bool, error) {
	var membership domain.Membership
	row := r.db.QueryRow(ctx, `
SELECT project_id, member_id, role, invitation_id, created_at
FROM project_members
WHERE project_id = $1 AND member_id = $2`,
		projectID, memberID,
	)
	if err := row.Scan(&membership.ProjectID, &membership.MemberID, &membership.Role, &membership.InvitationID, &membership.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Membership{}, false, nil
		}
		return domain.Membership{}, false, fmt.Errorf("get membership: %w", err)
	}
	return membership, true, nil
}

func (r *PostgresMembershipRepo) Delete(ctx context.Context, projectID, memberID int64) error {
	_, err := r.db.Exec(ctx, `
DELETE FROM project_members WHERE project_id = $1 AND member_id = $2`,
		projectID, memberID,
	)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}

func (r *PostgresMembershipRepo) AssignedTaskCount(ctx context.Context, projectID, memberID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `
SELECT count(*) FROM tasks WHERE project_id = $1 AND assigned_to = $2`,
		projectID, memberID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count assigned tasks: %w", err)
	}
	return count, nil
}
