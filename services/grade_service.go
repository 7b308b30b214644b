package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/soridam/contest-system/models"
	"github.com/soridam/contest-system/repositories"
)

// GradeService — движок взаимного оценивания. Цель оценивания — сольный
// участник (не состоящий в дуэте) либо дуэт; движок различает их только
// при построении производных списков.
type GradeService struct {
	repo            repositories.GradeRepository
	participantRepo repositories.ParticipantRepository
	teamRepo        repositories.TeamRepository
	contests        *ContestService
}

func NewGradeService(
	repo repositories.GradeRepository,
	participantRepo repositories.ParticipantRepository,
	teamRepo repositories.TeamRepository,
	contests *ContestService,
) *GradeService {
	return &GradeService{
		repo:            repo,
		participantRepo: participantRepo,
		teamRepo:        teamRepo,
		contests:        contests,
	}
}

type SubmitGradeInput struct {
	TargetID string `json:"target_id"`
	Score    int    `json:"score"`
	Comment  string `json:"comment"`
}

// SubmitGrade выставляет одну оценку паре (оценивающий, цель).
// Порядок гвард фиксирован: закрытый конкурс, диапазон балла, существование
// цели, самооценивание, дубликат. Супероценивающий освобождён от двух
// последних. Проверка дубликата делается по свежим данным непосредственно
// перед вставкой: редкая гонка двух одновременных отправок принимается
// и добивается уникальным индексом хранилища, а не блокировкой.
func (s *GradeService) SubmitGrade(ctx context.Context, evaluator models.Identity, contestID string, input SubmitGradeInput) (*models.Grade, error) {
	if _, err := requireOpenContest(ctx, s.contests, contestID); err != nil {
		return nil, err
	}
	if input.Score < 0 || input.Score > 100 {
		return nil, ErrInvalidScore
	}

	view, err := s.loadContestView(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if _, ok := view.targetName(input.TargetID); !ok {
		// В том числе участник, уже влившийся в дуэт: как отдельная цель
		// он больше не существует.
		return nil, ErrTargetNotFound
	}

	if !evaluator.SuperEvaluator {
		if view.isOwnTarget(evaluator, input.TargetID) {
			return nil, ErrSelfGradingNotAllowed
		}
		exists, err := s.repo.ExistsByEvaluatorAndTarget(ctx, contestID, evaluator.ID, input.TargetID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrAlreadyGraded
		}
	}

	grade := &models.Grade{
		ID:             newEntityID("g"),
		ContestID:      contestID,
		EvaluatorID:    evaluator.ID,
		EvaluatorName:  evaluator.DisplayName,
		EvaluatorRole:  evaluator.Role,
		SuperEvaluator: evaluator.SuperEvaluator,
		TargetID:       input.TargetID,
		Score:          input.Score,
		Comment:        input.Comment,
	}
	if err := s.repo.Create(ctx, grade); err != nil {
		if errors.Is(err, repositories.ErrGradeConflict) {
			return nil, ErrAlreadyGraded
		}
		return nil, fmt.Errorf("failed to submit grade: %w", err)
	}
	return grade, nil
}

// ListGrades возвращает все оценки конкурса в порядке выставления.
func (s *GradeService) ListGrades(ctx context.Context, contestID string) ([]*models.Grade, error) {
	if _, err := s.contests.GetContest(ctx, contestID); err != nil {
		return nil, err
	}
	return s.repo.ListByContest(ctx, contestID)
}

// ListUngradedTargets — производный вид "кого мне ещё оценить": все текущие
// цели минус собственная личность/дуэт оценивающего минус уже оценённые им.
// Пересчитывается из живых данных при каждом вызове — участники и дуэты
// меняются независимо от оценивания, хранить флаг нельзя.
func (s *GradeService) ListUngradedTargets(ctx context.Context, evaluator models.Identity, contestID string) ([]models.GradingTarget, error) {
	if _, err := s.contests.GetContest(ctx, contestID); err != nil {
		return nil, err
	}
	view, err := s.loadContestView(ctx, contestID)
	if err != nil {
		return nil, err
	}

	graded, err := s.repo.ListByEvaluator(ctx, contestID, evaluator.ID)
	if err != nil {
		return nil, err
	}
	gradedSet := make(map[string]bool, len(graded))
	for _, g := range graded {
		gradedSet[g.TargetID] = true
	}

	targets := make([]models.GradingTarget, 0, len(view.targets))
	for _, target := range view.targets {
		if gradedSet[target.ID] {
			continue
		}
		if view.isOwnTarget(evaluator, target.ID) {
			continue
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// contestView — свежий снимок целей конкурса. Живёт в пределах одного
// вызова: кэшировать его через точку ожидания нельзя.
type contestView struct {
	targets []models.GradingTarget
	// Нормализованный никнейм -> id сольной цели или дуэта участника.
	ownTargetByNickname map[string]string
}

func (v *contestView) targetName(targetID string) (string, bool) {
	for _, t := range v.targets {
		if t.ID == targetID {
			return t.Name, true
		}
	}
	return "", false
}

// isOwnTarget сообщает, является ли цель собственной записью оценивающего:
// его сольной записью либо дуэтом, в котором он состоит. Оценивающий
// сопоставляется с участником по нормализованному никнейму — участников
// вносят по имени, без привязки к учётной записи.
func (v *contestView) isOwnTarget(evaluator models.Identity, targetID string) bool {
	own, ok := v.ownTargetByNickname[NormalizeNickname(evaluator.DisplayName)]
	return ok && own == targetID
}

func (s *GradeService) loadContestView(ctx context.Context, contestID string) (*contestView, error) {
	participants, err := s.participantRepo.ListByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	teams, err := s.teamRepo.ListByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}

	teamByMember := make(map[string]*models.Team, len(teams)*2)
	for _, t := range teams {
		teamByMember[t.MemberAID] = t
		teamByMember[t.MemberBID] = t
	}

	view := &contestView{
		ownTargetByNickname: make(map[string]string, len(participants)),
	}

	// Сольные участники: дедупликация по нормализованному никнейму,
	// участники в дуэтах как отдельные цели не существуют.
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		key := NormalizeNickname(p.Nickname)
		if team, teamed := teamByMember[p.ID]; teamed {
			if _, ok := view.ownTargetByNickname[key]; !ok {
				view.ownTargetByNickname[key] = team.ID
			}
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		view.targets = append(view.targets, models.GradingTarget{
			ID:   p.ID,
			Kind: models.TargetParticipant,
			Name: p.Nickname,
		})
		if _, ok := view.ownTargetByNickname[key]; !ok {
			view.ownTargetByNickname[key] = p.ID
		}
	}
	for _, t := range teams {
		view.targets = append(view.targets, models.GradingTarget{
			ID:   t.ID,
			Kind: models.TargetTeam,
			Name: t.Name,
		})
	}
	return view, nil
}
