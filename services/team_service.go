package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/soridam/contest-system/models"
	"github.com/soridam/contest-system/repositories"
)

// Префикс имени дуэта по умолчанию: "듀엣1", "듀엣2", ...
const defaultTeamNamePrefix = "듀엣"

// TeamService формирует дуэты из ровно двух сольных участников.
type TeamService struct {
	repo            repositories.TeamRepository
	participantRepo repositories.ParticipantRepository
	contests        *ContestService
}

func NewTeamService(
	repo repositories.TeamRepository,
	participantRepo repositories.ParticipantRepository,
	contests *ContestService,
) *TeamService {
	return &TeamService{
		repo:            repo,
		participantRepo: participantRepo,
		contests:        contests,
	}
}

// FormTeam объединяет двух сольных участников в дуэт. Выбор пары делает
// вызывающий, но выбор не атомарен с формированием, поэтому оба
// предусловия перепроверяются здесь по свежим данным.
func (s *TeamService) FormTeam(ctx context.Context, contestID, participantAID, participantBID string) (*models.Team, error) {
	if _, err := requireOpenContest(ctx, s.contests, contestID); err != nil {
		return nil, err
	}
	if participantAID == participantBID {
		return nil, ErrInvalidTeamSelection
	}

	for _, id := range []string{participantAID, participantBID} {
		participant, err := s.participantRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrParticipantNotFound) {
				return nil, ErrParticipantNotFound
			}
			return nil, err
		}
		if participant.ContestID != contestID {
			return nil, ErrParticipantNotFound
		}
		_, err = s.repo.FindByMember(ctx, contestID, id)
		if err == nil {
			return nil, ErrInvalidTeamSelection
		}
		if !errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, err
		}
	}

	count, err := s.repo.CountByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}

	team := &models.Team{
		ID:        newEntityID("t"),
		ContestID: contestID,
		Name:      fmt.Sprintf("%s%d", defaultTeamNamePrefix, count+1),
		MemberAID: participantAID,
		MemberBID: participantBID,
	}
	if err := s.repo.Create(ctx, team); err != nil {
		// Гонка с параллельным формированием: участник успел попасть в дуэт.
		if errors.Is(err, repositories.ErrTeamMemberConflict) {
			return nil, ErrInvalidTeamSelection
		}
		return nil, fmt.Errorf("failed to form team: %w", err)
	}
	return team, nil
}

// RenameTeam переименовывает дуэт. Имя обязательно, уникальность не требуется.
func (s *TeamService) RenameTeam(ctx context.Context, teamID, newName string) (*models.Team, error) {
	if newName == "" {
		return nil, ErrTeamNameRequired
	}
	team, err := s.repo.FindByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	if err := s.repo.UpdateName(ctx, teamID, newName); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	team.Name = newName
	return team, nil
}

// DissolveTeam распускает дуэт: оба участника снова сольные,
// сами записи участников не удаляются.
func (s *TeamService) DissolveTeam(ctx context.Context, teamID string) error {
	if err := s.repo.Delete(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return err
	}
	return nil
}

// ListTeams возвращает дуэты конкурса в порядке создания.
func (s *TeamService) ListTeams(ctx context.Context, contestID string) ([]*models.Team, error) {
	return s.repo.ListByContest(ctx, contestID)
}
