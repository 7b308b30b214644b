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
	ErrParticipantNotFound       = errors.New("participant not found")
	ErrParticipantConflict       = errors.New("participant conflict: id already exists")
	ErrParticipantContestInvalid = errors.New("participant contest conflict or invalid")
)

type ParticipantRepository interface {
	Create(ctx context.Context, p *models.Participant) error
	FindByID(ctx context.Context, id string) (*models.Participant, error)
	ListByContest(ctx context.Context, contestID string) ([]*models.Participant, error)
	Delete(ctx context.Context, id string) error
	DeleteByContest(ctx context.Context, exec SQLExecutor, contestID string) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) Create(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO participants (id, contest_id, nickname)
		VALUES ($1, $2, $3)
		RETURNING joined_at`

	err := r.db.QueryRowContext(ctx, query, p.ID, p.ContestID, p.Nickname).Scan(&p.JoinedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrParticipantConflict
			case "23503": // foreign_key_violation
				return ErrParticipantContestInvalid
			}
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}

	_ = notifyChange(ctx, r.db, CollectionParticipants, p.ContestID, "create")
	return nil
}

func (r *postgresParticipantRepository) FindByID(ctx context.Context, id string) (*models.Participant, error) {
	query := `SELECT id, contest_id, nickname, joined_at FROM participants WHERE id = $1`

	var p models.Participant
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.ContestID, &p.Nickname, &p.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}
	return &p, nil
}

// ListByContest возвращает участников в порядке вступления. Дедупликация
// по нормализованному никнейму — забота читающей стороны в сервисе.
func (r *postgresParticipantRepository) ListByContest(ctx context.Context, contestID string) ([]*models.Participant, error) {
	query := `
		SELECT id, contest_id, nickname, joined_at
		FROM participants WHERE contest_id = $1 ORDER BY joined_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants by contest: %w", err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.ContestID, &p.Nickname, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, &p)
	}
	return participants, rows.Err()
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, id string) error {
	var contestID string
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM participants WHERE id = $1 RETURNING contest_id`, id).Scan(&contestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrParticipantNotFound
		}
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	_ = notifyChange(ctx, r.db, CollectionParticipants, contestID, "delete")
	return nil
}

func (r *postgresParticipantRepository) DeleteByContest(ctx context.Context, exec SQLExecutor, contestID string) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}
	if _, err := executor.ExecContext(ctx, `DELETE FROM participants WHERE contest_id = $1`, contestID); err != nil {
		return fmt.Errorf("failed to delete participants by contest: %w", err)
	}
	_ = notifyChange(ctx, executor, CollectionParticipants, contestID, "delete")
	return nil
}
