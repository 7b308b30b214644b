package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/soridam/contest-system/models"
)

var (
	ErrGradeNotFound       = errors.New("grade not found")
	ErrGradeConflict       = errors.New("grade conflict: evaluator already graded this target")
	ErrGradeContestInvalid = errors.New("grade contest conflict or invalid")
)

type GradeRepository interface {
	Create(ctx context.Context, grade *models.Grade) error
	ListByContest(ctx context.Context, contestID string) ([]*models.Grade, error)
	ListByEvaluator(ctx context.Context, contestID, evaluatorID string) ([]*models.Grade, error)
	ExistsByEvaluatorAndTarget(ctx context.Context, contestID, evaluatorID, targetID string) (bool, error)
	DeleteByContest(ctx context.Context, exec SQLExecutor, contestID string) error
}

type postgresGradeRepository struct {
	db *sql.DB
}

func NewPostgresGradeRepository(db *sql.DB) GradeRepository {
	return &postgresGradeRepository{db: db}
}

func (r *postgresGradeRepository) Create(ctx context.Context, g *models.Grade) error {
	query := `
		INSERT INTO grades (id, contest_id, evaluator_id, evaluator_name, evaluator_role, super_evaluator, target_id, score, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		g.ID, g.ContestID, g.EvaluatorID, g.EvaluatorName, g.EvaluatorRole,
		g.SuperEvaluator, g.TargetID, g.Score, g.Comment,
	).Scan(&g.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation — гонка двух одновременных оценок
				return ErrGradeConflict
			case "23503": // foreign_key_violation
				return ErrGradeContestInvalid
			}
		}
		return fmt.Errorf("failed to create grade: %w", err)
	}

	_ = notifyChange(ctx, r.db, CollectionGrades, g.ContestID, "create")
	return nil
}

func (r *postgresGradeRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Grade, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list grades: %w", err)
	}
	defer rows.Close()

	grades := make([]*models.Grade, 0)
	for rows.Next() {
		var g models.Grade
		if err := rows.Scan(&g.ID, &g.ContestID, &g.EvaluatorID, &g.EvaluatorName,
			&g.EvaluatorRole, &g.SuperEvaluator, &g.TargetID, &g.Score, &g.Comment, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan grade row: %w", err)
		}
		grades = append(grades, &g)
	}
	return grades, rows.Err()
}

func (r *postgresGradeRepository) ListByContest(ctx context.Context, contestID string) ([]*models.Grade, error) {
	query := `
		SELECT id, contest_id, evaluator_id, evaluator_name, evaluator_role, super_evaluator, target_id, score, comment, created_at
		FROM grades WHERE contest_id = $1 ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, contestID)
}

func (r *postgresGradeRepository) ListByEvaluator(ctx context.Context, contestID, evaluatorID string) ([]*models.Grade, error) {
	query := `
		SELECT id, contest_id, evaluator_id, evaluator_name, evaluator_role, super_evaluator, target_id, score, comment, created_at
		FROM grades WHERE contest_id = $1 AND evaluator_id = $2 ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, contestID, evaluatorID)
}

func (r *postgresGradeRepository) ExistsByEvaluatorAndTarget(ctx context.Context, contestID, evaluatorID, targetID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM grades
			WHERE contest_id = $1 AND evaluator_id = $2 AND target_id = $3
		)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, contestID, evaluatorID, targetID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check grade existence: %w", err)
	}
	return exists, nil
}

func (r *postgresGradeRepository) DeleteByContest(ctx context.Context, exec SQLExecutor, contestID string) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}
	if _, err := executor.ExecContext(ctx, `DELETE FROM grades WHERE contest_id = $1`, contestID); err != nil {
		return fmt.Errorf("failed to delete grades by contest: %w", err)
	}
	_ = notifyChange(ctx, executor, CollectionGrades, contestID, "delete")
	return nil
}
