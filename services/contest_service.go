package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/soridam/contest-system/models"
	"github.com/soridam/contest-system/repositories"
	"github.com/soridam/contest-system/storage"
)

// ContestService владеет жизненным циклом конкурса:
// waiting -> open -> closed, с ручными переходами и автозакрытием по дедлайну.
type ContestService struct {
	contestRepo     repositories.ContestRepository
	participantRepo repositories.ParticipantRepository
	teamRepo        repositories.TeamRepository
	gradeRepo       repositories.GradeRepository
	archive         storage.ArchiveUploader // nil — архивирование выключено
	logger          *slog.Logger
}

func NewContestService(
	contestRepo repositories.ContestRepository,
	participantRepo repositories.ParticipantRepository,
	teamRepo repositories.TeamRepository,
	gradeRepo repositories.GradeRepository,
	archive storage.ArchiveUploader,
	logger *slog.Logger,
) *ContestService {
	return &ContestService{
		contestRepo:     contestRepo,
		participantRepo: participantRepo,
		teamRepo:        teamRepo,
		gradeRepo:       gradeRepo,
		archive:         archive,
		logger:          logger,
	}
}

type CreateContestInput struct {
	Title    string             `json:"title"`
	Type     models.ContestType `json:"type"`
	Deadline time.Time          `json:"deadline"`
}

// CreateContest создаёт конкурс в состоянии ожидания. Только администратор.
func (s *ContestService) CreateContest(ctx context.Context, caller models.Identity, input CreateContestInput) (*models.Contest, error) {
	if !caller.Role.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if input.Title == "" {
		return nil, ErrContestTitleRequired
	}
	if !models.IsValidContestType(input.Type) {
		return nil, ErrContestTypeInvalid
	}

	contest := &models.Contest{
		ID:        newEntityID("c"),
		Title:     input.Title,
		Type:      input.Type,
		Deadline:  input.Deadline,
		CreatorID: caller.ID,
	}
	if err := s.contestRepo.Create(ctx, contest); err != nil {
		return nil, fmt.Errorf("failed to create contest: %w", err)
	}
	return contest, nil
}

// GetContest возвращает конкурс, по пути применяя автозакрытие: если
// календарная дата дедлайна уже позади и конкурс не закрыт, чтение
// выполняет ту же мутацию, что и ручное закрытие. Дедлайн включительный.
func (s *ContestService) GetContest(ctx context.Context, id string) (*models.Contest, error) {
	contest, err := s.contestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrContestNotFound) {
			return nil, ErrContestNotFound
		}
		return nil, err
	}
	return s.applyDeadline(ctx, contest)
}

func (s *ContestService) applyDeadline(ctx context.Context, contest *models.Contest) (*models.Contest, error) {
	if contest.Ended || sameCalendarDayOrEarlier(time.Now(), contest.Deadline) {
		return contest, nil
	}
	if err := s.closeContest(ctx, contest); err != nil {
		return nil, fmt.Errorf("failed to auto-close contest %s: %w", contest.ID, err)
	}
	s.logger.Info("contest auto-closed by deadline",
		slog.String("contest_id", contest.ID),
		slog.Time("deadline", contest.Deadline))
	return contest, nil
}

// ListContests возвращает страницу конкурсов, применяя автозакрытие к каждому.
func (s *ContestService) ListContests(ctx context.Context, limit, offset int) ([]models.Contest, error) {
	if limit <= 0 {
		limit = 20
	}
	contests, err := s.contestRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range contests {
		if _, err := s.applyDeadline(ctx, &contests[i]); err != nil {
			return nil, err
		}
	}
	return contests, nil
}

// StartContest переводит конкурс из ожидания в открытое состояние.
func (s *ContestService) StartContest(ctx context.Context, caller models.Identity, id string) (*models.Contest, error) {
	if !caller.Role.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	contest, err := s.GetContest(ctx, id)
	if err != nil {
		return nil, err
	}
	if contest.Ended {
		return nil, ErrContestClosed
	}
	if contest.Started {
		return nil, ErrContestAlreadyStarted
	}
	if err := s.contestRepo.MarkStarted(ctx, id); err != nil {
		return nil, err
	}
	contest.Started = true
	return contest, nil
}

// CloseContest закрывает конкурс вручную. Требует ended=false.
func (s *ContestService) CloseContest(ctx context.Context, caller models.Identity, id string) (*models.Contest, error) {
	if !caller.Role.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	contest, err := s.contestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrContestNotFound) {
			return nil, ErrContestNotFound
		}
		return nil, err
	}
	if contest.Ended {
		return nil, ErrContestClosed
	}
	if err := s.closeContest(ctx, contest); err != nil {
		return nil, err
	}
	return contest, nil
}

// closeContest выполняет саму мутацию закрытия, общую для ручного перехода,
// автозакрытия на чтении и планировщика. Перед установкой флага вычисляется
// итоговая тройка по текущим оценкам.
func (s *ContestService) closeContest(ctx context.Context, contest *models.Contest) error {
	results, err := s.computeTopResults(ctx, contest.ID)
	if err != nil {
		return err
	}
	if len(results) > 0 {
		if err := s.contestRepo.SaveTopResults(ctx, contest.ID, results); err != nil {
			return err
		}
	}
	if err := s.contestRepo.MarkEnded(ctx, contest.ID); err != nil {
		return err
	}
	contest.Ended = true
	contest.TopResults = results
	return nil
}

// computeTopResults выводит тройку лидеров из живых данных: средний балл
// по каждой цели, у которой есть хотя бы одна оценка.
func (s *ContestService) computeTopResults(ctx context.Context, contestID string) ([]models.ContestResult, error) {
	grades, err := s.gradeRepo.ListByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if len(grades) == 0 {
		return nil, nil
	}

	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, g := range grades {
		sums[g.TargetID] += g.Score
		counts[g.TargetID]++
	}

	names, err := s.targetNames(ctx, contestID)
	if err != nil {
		return nil, err
	}

	results := make([]models.ContestResult, 0, len(sums))
	for targetID, sum := range sums {
		name, ok := names[targetID]
		if !ok {
			// Цель уже удалена: оценка остаётся в аудите, но в итоги не входит.
			continue
		}
		results = append(results, models.ContestResult{
			TargetID:   targetID,
			TargetName: name,
			Average:    float64(sum) / float64(counts[targetID]),
			GradeCount: counts[targetID],
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Average != results[j].Average {
			return results[i].Average > results[j].Average
		}
		return results[i].TargetID < results[j].TargetID
	})
	if len(results) > 3 {
		results = results[:3]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}

func (s *ContestService) targetNames(ctx context.Context, contestID string) (map[string]string, error) {
	names := make(map[string]string)
	participants, err := s.participantRepo.ListByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	for _, p := range participants {
		names[p.ID] = p.Nickname
	}
	teams, err := s.teamRepo.ListByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		names[t.ID] = t.Name
	}
	return names, nil
}

// DeleteContest удаляет конкурс в любом состоянии с каскадом на участников,
// дуэты и оценки. Операция необратима; подтверждение — забота вызывающего.
// Перед удалением делается best-effort снимок аудита в архив.
func (s *ContestService) DeleteContest(ctx context.Context, caller models.Identity, id string) error {
	if !caller.Role.IsAdmin() {
		return ErrPermissionDenied
	}
	contest, err := s.contestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrContestNotFound) {
			return ErrContestNotFound
		}
		return err
	}

	s.archiveSnapshot(ctx, contest)

	// Оценки и дуэты уходят первыми, участники — после дуэтов
	// (дуэты ссылаются на участников), сам конкурс — последним.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.gradeRepo.DeleteByContest(gctx, nil, id) })
	g.Go(func() error { return s.teamRepo.DeleteByContest(gctx, nil, id) })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to cascade contest deletion: %w", err)
	}
	if err := s.participantRepo.DeleteByContest(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to cascade contest deletion: %w", err)
	}
	if err := s.contestRepo.Delete(ctx, nil, id); err != nil {
		return err
	}
	s.logger.Info("contest deleted", slog.String("contest_id", id))
	return nil
}

// archiveSnapshot выгружает снимок конкурса и его оценок в архив.
// Ошибки только логируются: архив не должен блокировать удаление.
func (s *ContestService) archiveSnapshot(ctx context.Context, contest *models.Contest) {
	if s.archive == nil {
		return
	}
	grades, err := s.gradeRepo.ListByContest(ctx, contest.ID)
	if err != nil {
		s.logger.Warn("failed to collect grades for audit snapshot",
			slog.String("contest_id", contest.ID), slog.Any("error", err))
		return
	}
	snapshot := struct {
		Contest    *models.Contest `json:"contest"`
		Grades     []*models.Grade `json:"grades"`
		ArchivedAt time.Time       `json:"archived_at"`
	}{contest, grades, time.Now().UTC()}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.Warn("failed to marshal audit snapshot",
			slog.String("contest_id", contest.ID), slog.Any("error", err))
		return
	}
	key := fmt.Sprintf("contests/%s/audit-%d.json", contest.ID, time.Now().Unix())
	if _, err := s.archive.Upload(ctx, key, "application/json", bytes.NewReader(payload)); err != nil {
		s.logger.Warn("failed to upload audit snapshot",
			slog.String("contest_id", contest.ID), slog.Any("error", err))
		return
	}
	s.logger.Info("audit snapshot archived",
		slog.String("contest_id", contest.ID), slog.String("key", key))
}

// ReconcileDeadlines закрывает все просроченные конкурсы. Вызывается
// планировщиком по тикеру; делает ту же мутацию, что и автозакрытие на чтении.
func (s *ContestService) ReconcileDeadlines(ctx context.Context) error {
	overdue, err := s.contestRepo.ListOverdue(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to list overdue contests: %w", err)
	}
	for _, contest := range overdue {
		if err := s.closeContest(ctx, contest); err != nil {
			s.logger.Error("failed to close overdue contest",
				slog.String("contest_id", contest.ID), slog.Any("error", err))
			continue
		}
		s.logger.Info("overdue contest closed",
			slog.String("contest_id", contest.ID),
			slog.Time("deadline", contest.Deadline))
	}
	return nil
}

// requireOpenContest — доминирующая гварда пользовательских мутаций:
// сначала ErrContestClosed, затем всё остальное. Используется регистрацией,
// формированием дуэтов и оцениванием.
func requireOpenContest(ctx context.Context, contests *ContestService, contestID string) (*models.Contest, error) {
	contest, err := contests.GetContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if contest.Ended {
		return nil, ErrContestClosed
	}
	return contest, nil
}
