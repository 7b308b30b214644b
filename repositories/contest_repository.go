package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/soridam/contest-system/models"
)

var (
	ErrContestNotFound = errors.New("contest not found")
	ErrContestConflict = errors.New("contest conflict or invalid")
)

type ContestRepository interface {
	Create(ctx context.Context, contest *models.Contest) error
	GetByID(ctx context.Context, id string) (*models.Contest, error)
	List(ctx context.Context, limit, offset int) ([]models.Contest, error)
	MarkStarted(ctx context.Context, id string) error
	MarkEnded(ctx context.Context, id string) error
	SaveTopResults(ctx context.Context, id string, results []models.ContestResult) error
	ListOverdue(ctx context.Context, before time.Time) ([]*models.Contest, error)
	Delete(ctx context.Context, exec SQLExecutor, id string) error
}

type postgresContestRepository struct {
	db *sql.DB
}

func NewPostgresContestRepository(db *sql.DB) ContestRepository {
	return &postgresContestRepository{db: db}
}

func (r *postgresContestRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresContestRepository) Create(ctx context.Context, c *models.Contest) error {
	query := `
		INSERT INTO contests (id, title, type, deadline, creator_id, started, ended)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		c.ID, c.Title, c.Type, c.Deadline, c.CreatorID, c.Started, c.Ended,
	).Scan(&c.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrContestConflict
		}
		return fmt.Errorf("failed to create contest: %w", err)
	}

	_ = notifyChange(ctx, r.db, CollectionContests, c.ID, "create")
	return nil
}

func (r *postgresContestRepository) scanContest(row *sql.Row) (*models.Contest, error) {
	var c models.Contest
	err := row.Scan(&c.ID, &c.Title, &c.Type, &c.Deadline, &c.CreatorID,
		&c.Started, &c.Ended, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContestNotFound
		}
		return nil, fmt.Errorf("failed to scan contest: %w", err)
	}
	return &c, nil
}

func (r *postgresContestRepository) GetByID(ctx context.Context, id string) (*models.Contest, error) {
	query := `
		SELECT id, title, type, deadline, creator_id, started, ended, created_at
		FROM contests WHERE id = $1`
	contest, err := r.scanContest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	results, err := r.loadTopResults(ctx, id)
	if err != nil {
		return nil, err
	}
	contest.TopResults = results
	return contest, nil
}

func (r *postgresContestRepository) loadTopResults(ctx context.Context, contestID string) ([]models.ContestResult, error) {
	query := `
		SELECT rank, target_id, target_name, average, grade_count
		FROM contest_results WHERE contest_id = $1 ORDER BY rank ASC`
	rows, err := r.db.QueryContext(ctx, query, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contest results: %w", err)
	}
	defer rows.Close()

	var results []models.ContestResult
	for rows.Next() {
		var res models.ContestResult
		if err := rows.Scan(&res.Rank, &res.TargetID, &res.TargetName, &res.Average, &res.GradeCount); err != nil {
			return nil, fmt.Errorf("failed to scan contest result row: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func (r *postgresContestRepository) List(ctx context.Context, limit, offset int) ([]models.Contest, error) {
	query := `
		SELECT id, title, type, deadline, creator_id, started, ended, created_at
		FROM contests ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list contests: %w", err)
	}
	defer rows.Close()

	contests := make([]models.Contest, 0)
	for rows.Next() {
		var c models.Contest
		if err := rows.Scan(&c.ID, &c.Title, &c.Type, &c.Deadline, &c.CreatorID,
			&c.Started, &c.Ended, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contest row: %w", err)
		}
		contests = append(contests, c)
	}
	return contests, rows.Err()
}

// MarkStarted устанавливает started=true. Переход только false -> true.
func (r *postgresContestRepository) MarkStarted(ctx context.Context, id string) error {
	query := `UPDATE contests SET started = TRUE WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark contest started: %w", err)
	}
	if err := checkAffectedRows(result, ErrContestNotFound); err != nil {
		return err
	}
	_ = notifyChange(ctx, r.db, CollectionContests, id, "update")
	return nil
}

// MarkEnded устанавливает ended=true. Флаг монотонный, обратно не снимается.
func (r *postgresContestRepository) MarkEnded(ctx context.Context, id string) error {
	query := `UPDATE contests SET ended = TRUE WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark contest ended: %w", err)
	}
	if err := checkAffectedRows(result, ErrContestNotFound); err != nil {
		return err
	}
	_ = notifyChange(ctx, r.db, CollectionContests, id, "update")
	return nil
}

func (r *postgresContestRepository) SaveTopResults(ctx context.Context, id string, results []models.ContestResult) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM contest_results WHERE contest_id = $1`, id); err != nil {
		return fmt.Errorf("failed to clear contest results: %w", err)
	}
	query := `
		INSERT INTO contest_results (contest_id, rank, target_id, target_name, average, grade_count)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, res := range results {
		if _, err := r.db.ExecContext(ctx, query,
			id, res.Rank, res.TargetID, res.TargetName, res.Average, res.GradeCount); err != nil {
			return fmt.Errorf("failed to save contest result: %w", err)
		}
	}
	_ = notifyChange(ctx, r.db, CollectionContests, id, "update")
	return nil
}

// ListOverdue возвращает незакрытые конкурсы, чей дедлайн (календарная дата)
// уже прошёл. Дедлайн включительный: конкурс просрочен только со следующего дня.
func (r *postgresContestRepository) ListOverdue(ctx context.Context, before time.Time) ([]*models.Contest, error) {
	query := `
		SELECT id, title, type, deadline, creator_id, started, ended, created_at
		FROM contests WHERE ended = FALSE AND deadline::date < $1::date`
	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue contests: %w", err)
	}
	defer rows.Close()

	var contests []*models.Contest
	for rows.Next() {
		var c models.Contest
		if err := rows.Scan(&c.ID, &c.Title, &c.Type, &c.Deadline, &c.CreatorID,
			&c.Started, &c.Ended, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan overdue contest row: %w", err)
		}
		contests = append(contests, &c)
	}
	return contests, rows.Err()
}

func (r *postgresContestRepository) Delete(ctx context.Context, exec SQLExecutor, id string) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM contest_results WHERE contest_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete contest results: %w", err)
	}
	result, err := executor.ExecContext(ctx, `DELETE FROM contests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contest: %w", err)
	}
	if err := checkAffectedRows(result, ErrContestNotFound); err != nil {
		return err
	}
	_ = notifyChange(ctx, executor, CollectionContests, id, "delete")
	return nil
}
