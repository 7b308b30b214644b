package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/soridam/contest-system/models"
	"github.com/soridam/contest-system/repositories"
)

// Фейковые репозитории в памяти: сервисы тестируются против контракта
// хранилища, без Postgres.

type memContestRepo struct {
	mu       sync.Mutex
	contests map[string]*models.Contest
}

func newMemContestRepo() *memContestRepo {
	return &memContestRepo{contests: make(map[string]*models.Contest)}
}

func (r *memContestRepo) Create(ctx context.Context, c *models.Contest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contests[c.ID]; ok {
		return repositories.ErrContestConflict
	}
	c.CreatedAt = time.Now()
	stored := *c
	r.contests[c.ID] = &stored
	return nil
}

func (r *memContestRepo) GetByID(ctx context.Context, id string) (*models.Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contests[id]
	if !ok {
		return nil, repositories.ErrContestNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *memContestRepo) List(ctx context.Context, limit, offset int) ([]models.Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Contest, 0, len(r.contests))
	for _, c := range r.contests {
		out = append(out, *c)
	}
	return out, nil
}

func (r *memContestRepo) MarkStarted(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contests[id]
	if !ok {
		return repositories.ErrContestNotFound
	}
	c.Started = true
	return nil
}

func (r *memContestRepo) MarkEnded(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contests[id]
	if !ok {
		return repositories.ErrContestNotFound
	}
	c.Ended = true
	return nil
}

func (r *memContestRepo) SaveTopResults(ctx context.Context, id string, results []models.ContestResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contests[id]
	if !ok {
		return repositories.ErrContestNotFound
	}
	c.TopResults = results
	return nil
}

func (r *memContestRepo) ListOverdue(ctx context.Context, before time.Time) ([]*models.Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	by, bm, bd := before.Date()
	day := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	var out []*models.Contest
	for _, c := range r.contests {
		dy, dm, dd := c.Deadline.Date()
		deadlineDay := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)
		if !c.Ended && deadlineDay.Before(day) {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memContestRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contests[id]; !ok {
		return repositories.ErrContestNotFound
	}
	delete(r.contests, id)
	return nil
}

type memParticipantRepo struct {
	mu           sync.Mutex
	participants []*models.Participant
	clock        time.Time
}

func newMemParticipantRepo() *memParticipantRepo {
	return &memParticipantRepo{clock: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func (r *memParticipantRepo) Create(ctx context.Context, p *models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.participants {
		if existing.ID == p.ID {
			return repositories.ErrParticipantConflict
		}
	}
	r.clock = r.clock.Add(time.Second)
	p.JoinedAt = r.clock
	stored := *p
	r.participants = append(r.participants, &stored)
	return nil
}

func (r *memParticipantRepo) FindByID(ctx context.Context, id string) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.ID == id {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *memParticipantRepo) ListByContest(ctx context.Context, contestID string) ([]*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Participant, 0)
	for _, p := range r.participants {
		if p.ContestID == contestID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memParticipantRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.participants {
		if p.ID == id {
			r.participants = append(r.participants[:i], r.participants[i+1:]...)
			return nil
		}
	}
	return repositories.ErrParticipantNotFound
}

func (r *memParticipantRepo) DeleteByContest(ctx context.Context, exec repositories.SQLExecutor, contestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.participants[:0]
	for _, p := range r.participants {
		if p.ContestID != contestID {
			kept = append(kept, p)
		}
	}
	r.participants = kept
	return nil
}

type memTeamRepo struct {
	mu    sync.Mutex
	teams []*models.Team
}

func newMemTeamRepo() *memTeamRepo {
	return &memTeamRepo{}
}

func (r *memTeamRepo) Create(ctx context.Context, t *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.teams {
		if existing.ContestID != t.ContestID {
			continue
		}
		if existing.HasMember(t.MemberAID) || existing.HasMember(t.MemberBID) {
			return repositories.ErrTeamMemberConflict
		}
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	stored := *t
	r.teams = append(r.teams, &stored)
	return nil
}

func (r *memTeamRepo) FindByID(ctx context.Context, id string) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teams {
		if t.ID == id {
			copied := *t
			return &copied, nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (r *memTeamRepo) FindByMember(ctx context.Context, contestID, participantID string) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teams {
		if t.ContestID == contestID && t.HasMember(participantID) {
			copied := *t
			return &copied, nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (r *memTeamRepo) ListByContest(ctx context.Context, contestID string) ([]*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Team, 0)
	for _, t := range r.teams {
		if t.ContestID == contestID {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memTeamRepo) CountByContest(ctx context.Context, contestID string) (int, error) {
	teams, _ := r.ListByContest(ctx, contestID)
	return len(teams), nil
}

func (r *memTeamRepo) UpdateName(ctx context.Context, id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teams {
		if t.ID == id {
			t.Name = name
			t.UpdatedAt = time.Now()
			return nil
		}
	}
	return repositories.ErrTeamNotFound
}

func (r *memTeamRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.teams {
		if t.ID == id {
			r.teams = append(r.teams[:i], r.teams[i+1:]...)
			return nil
		}
	}
	return repositories.ErrTeamNotFound
}

func (r *memTeamRepo) DeleteByContest(ctx context.Context, exec repositories.SQLExecutor, contestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.teams[:0]
	for _, t := range r.teams {
		if t.ContestID != contestID {
			kept = append(kept, t)
		}
	}
	r.teams = kept
	return nil
}

type memGradeRepo struct {
	mu     sync.Mutex
	grades []*models.Grade
}

func newMemGradeRepo() *memGradeRepo {
	return &memGradeRepo{}
}

func (r *memGradeRepo) Create(ctx context.Context, g *models.Grade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !g.SuperEvaluator {
		// Эмуляция частичного уникального индекса хранилища.
		for _, existing := range r.grades {
			if existing.ContestID == g.ContestID &&
				existing.EvaluatorID == g.EvaluatorID &&
				existing.TargetID == g.TargetID && !existing.SuperEvaluator {
				return repositories.ErrGradeConflict
			}
		}
	}
	g.CreatedAt = time.Now()
	stored := *g
	r.grades = append(r.grades, &stored)
	return nil
}

func (r *memGradeRepo) ListByContest(ctx context.Context, contestID string) ([]*models.Grade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Grade, 0)
	for _, g := range r.grades {
		if g.ContestID == contestID {
			copied := *g
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memGradeRepo) ListByEvaluator(ctx context.Context, contestID, evaluatorID string) ([]*models.Grade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Grade, 0)
	for _, g := range r.grades {
		if g.ContestID == contestID && g.EvaluatorID == evaluatorID {
			copied := *g
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memGradeRepo) ExistsByEvaluatorAndTarget(ctx context.Context, contestID, evaluatorID, targetID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.grades {
		if g.ContestID == contestID && g.EvaluatorID == evaluatorID && g.TargetID == targetID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memGradeRepo) DeleteByContest(ctx context.Context, exec repositories.SQLExecutor, contestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.grades[:0]
	for _, g := range r.grades {
		if g.ContestID != contestID {
			kept = append(kept, g)
		}
	}
	r.grades = kept
	return nil
}

// testEngine собирает все сервисы поверх общих фейковых репозиториев.
type testEngine struct {
	contestRepo     *memContestRepo
	participantRepo *memParticipantRepo
	teamRepo        *memTeamRepo
	gradeRepo       *memGradeRepo

	contests     *ContestService
	participants *ParticipantService
	teams        *TeamService
	grades       *GradeService
}

func newTestEngine() *testEngine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := &testEngine{
		contestRepo:     newMemContestRepo(),
		participantRepo: newMemParticipantRepo(),
		teamRepo:        newMemTeamRepo(),
		gradeRepo:       newMemGradeRepo(),
	}
	e.contests = NewContestService(e.contestRepo, e.participantRepo, e.teamRepo, e.gradeRepo, nil, logger)
	e.participants = NewParticipantService(e.participantRepo, e.teamRepo, e.contests, logger)
	e.teams = NewTeamService(e.teamRepo, e.participantRepo, e.contests)
	e.grades = NewGradeService(e.gradeRepo, e.participantRepo, e.teamRepo, e.contests)
	return e
}

var (
	adminCaller  = models.Identity{ID: "u-admin", DisplayName: "운영자", Role: models.RoleAdmin}
	leaderCaller = models.Identity{ID: "u-leader", DisplayName: "리더", Role: models.RoleLeader}
	memberCaller = models.Identity{ID: "u-member", DisplayName: "멤버", Role: models.RoleMember}
)

// mustCreateContest создаёт открытый конкурс с дедлайном в будущем.
func (e *testEngine) mustCreateContest(ctx context.Context) *models.Contest {
	contest, err := e.contests.CreateContest(ctx, adminCaller, CreateContestInput{
		Title:    "가을 듀엣 무대",
		Type:     models.TypeCompetition,
		Deadline: time.Now().AddDate(0, 0, 5),
	})
	if err != nil {
		panic(err)
	}
	return contest
}
