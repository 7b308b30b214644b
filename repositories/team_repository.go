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
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamMemberConflict = errors.New("team member conflict: participant already teamed")
	ErrTeamMemberInvalid  = errors.New("team member conflict or invalid")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	FindByID(ctx context.Context, id string) (*models.Team, error)
	FindByMember(ctx context.Context, contestID, participantID string) (*models.Team, error)
	ListByContest(ctx context.Context, contestID string) ([]*models.Team, error)
	CountByContest(ctx context.Context, contestID string) (int, error)
	UpdateName(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	DeleteByContest(ctx context.Context, exec SQLExecutor, contestID string) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Create(ctx context.Context, t *models.Team) error {
	query := `
		INSERT INTO teams (id, contest_id, name, member_a_id, member_b_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		t.ID, t.ContestID, t.Name, t.MemberAID, t.MemberBID,
	).Scan(&t.CreatedAt, &t.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation — участник уже в дуэте
				return ErrTeamMemberConflict
			case "23503": // foreign_key_violation
				return ErrTeamMemberInvalid
			}
		}
		return fmt.Errorf("failed to create team: %w", err)
	}

	_ = notifyChange(ctx, r.db, CollectionTeams, t.ContestID, "create")
	return nil
}

func (r *postgresTeamRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Team, error) {
	var t models.Team
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&t.ID, &t.ContestID, &t.Name, &t.MemberAID, &t.MemberBID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	return &t, nil
}

func (r *postgresTeamRepository) FindByID(ctx context.Context, id string) (*models.Team, error) {
	query := `
		SELECT id, contest_id, name, member_a_id, member_b_id, created_at, updated_at
		FROM teams WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *postgresTeamRepository) FindByMember(ctx context.Context, contestID, participantID string) (*models.Team, error) {
	query := `
		SELECT id, contest_id, name, member_a_id, member_b_id, created_at, updated_at
		FROM teams WHERE contest_id = $1 AND (member_a_id = $2 OR member_b_id = $2)`
	return r.findOne(ctx, query, contestID, participantID)
}

func (r *postgresTeamRepository) ListByContest(ctx context.Context, contestID string) ([]*models.Team, error) {
	query := `
		SELECT id, contest_id, name, member_a_id, member_b_id, created_at, updated_at
		FROM teams WHERE contest_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams by contest: %w", err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.ContestID, &t.Name, &t.MemberAID, &t.MemberBID,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, &t)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) CountByContest(ctx context.Context, contestID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM teams WHERE contest_id = $1`, contestID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count teams by contest: %w", err)
	}
	return count, nil
}

func (r *postgresTeamRepository) UpdateName(ctx context.Context, id, name string) error {
	var contestID string
	err := r.db.QueryRowContext(ctx,
		`UPDATE teams SET name = $1, updated_at = NOW() WHERE id = $2 RETURNING contest_id`,
		name, id).Scan(&contestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to rename team: %w", err)
	}
	_ = notifyChange(ctx, r.db, CollectionTeams, contestID, "update")
	return nil
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id string) error {
	var contestID string
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM teams WHERE id = $1 RETURNING contest_id`, id).Scan(&contestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to delete team: %w", err)
	}
	_ = notifyChange(ctx, r.db, CollectionTeams, contestID, "delete")
	return nil
}

func (r *postgresTeamRepository) DeleteByContest(ctx context.Context, exec SQLExecutor, contestID string) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}
	if _, err := executor.ExecContext(ctx, `DELETE FROM teams WHERE contest_id = $1`, contestID); err != nil {
		return fmt.Errorf("failed to delete teams by contest: %w", err)
	}
	_ = notifyChange(ctx, executor, CollectionTeams, contestID, "delete")
	return nil
}
