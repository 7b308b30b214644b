package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/soridam/contest-system/models"
	"github.com/soridam/contest-system/repositories"
)

// ParticipantService — реестр сольных участников конкурса.
type ParticipantService struct {
	repo     repositories.ParticipantRepository
	teamRepo repositories.TeamRepository
	contests *ContestService
	logger   *slog.Logger
}

func NewParticipantService(
	repo repositories.ParticipantRepository,
	teamRepo repositories.TeamRepository,
	contests *ContestService,
	logger *slog.Logger,
) *ParticipantService {
	return &ParticipantService{
		repo:     repo,
		teamRepo: teamRepo,
		contests: contests,
		logger:   logger,
	}
}

// AddParticipant вносит участника по никнейму. Дубликаты на записи
// допустимы: дедупликация по нормализованному никнейму выполняется
// на читающей стороне. Идентификатор синтетический, никогда не выводится
// из никнейма — иначе два одновременных добавления одного имени столкнутся.
func (s *ParticipantService) AddParticipant(ctx context.Context, contestID, nickname string) (*models.Participant, error) {
	if _, err := requireOpenContest(ctx, s.contests, contestID); err != nil {
		return nil, err
	}
	if NormalizeNickname(nickname) == "" {
		return nil, ErrNicknameRequired
	}

	participant := &models.Participant{
		ID:        newEntityID("p"),
		ContestID: contestID,
		Nickname:  nickname,
	}
	if err := s.repo.Create(ctx, participant); err != nil {
		if errors.Is(err, repositories.ErrParticipantContestInvalid) {
			return nil, ErrContestNotFound
		}
		return nil, fmt.Errorf("failed to register participant: %w", err)
	}
	return participant, nil
}

// RemoveParticipant удаляет участника. Только администратор. Если участник
// состоял в дуэте, дуэт распускается каскадно: партнёр снова становится
// сольным участником, его оценки как оценивающего не затрагиваются.
func (s *ParticipantService) RemoveParticipant(ctx context.Context, caller models.Identity, contestID, participantID string) error {
	if !caller.Role.IsAdmin() {
		return ErrPermissionDenied
	}
	participant, err := s.repo.FindByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}
	if participant.ContestID != contestID {
		return ErrParticipantNotFound
	}

	team, err := s.teamRepo.FindByMember(ctx, contestID, participantID)
	if err != nil && !errors.Is(err, repositories.ErrTeamNotFound) {
		return err
	}
	if team != nil {
		if err := s.teamRepo.Delete(ctx, team.ID); err != nil && !errors.Is(err, repositories.ErrTeamNotFound) {
			return fmt.Errorf("failed to dissolve team on member removal: %w", err)
		}
		s.logger.Info("team dissolved on member removal",
			slog.String("team_id", team.ID),
			slog.String("participant_id", participantID))
	}

	if err := s.repo.Delete(ctx, participantID); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}
	return nil
}

// ListParticipants возвращает участников конкурса, дедуплицированных
// по нормализованному никнейму. При совпадении ключа выигрывает
// первый по времени вступления.
func (s *ParticipantService) ListParticipants(ctx context.Context, contestID string) ([]*models.Participant, error) {
	participants, err := s.repo.ListByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(participants))
	deduped := make([]*models.Participant, 0, len(participants))
	for _, p := range participants {
		key := NormalizeNickname(p.Nickname)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, p)
	}
	return deduped, nil
}
