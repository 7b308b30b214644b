package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soridam/contest-system/models"
)

func TestCreateContest(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	contest, err := e.contests.CreateContest(ctx, adminCaller, CreateContestInput{
		Title:    "가을 듀엣 무대",
		Type:     models.TypeCompetition,
		Deadline: time.Now().AddDate(0, 0, 7),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, contest.ID)
	assert.False(t, contest.Started)
	assert.False(t, contest.Ended)
	assert.Equal(t, adminCaller.ID, contest.CreatorID)

	// Лидер — тоже администратор.
	_, err = e.contests.CreateContest(ctx, leaderCaller, CreateContestInput{
		Title:    "второй конкурс",
		Type:     models.TypeStandardGrading,
		Deadline: time.Now().AddDate(0, 0, 7),
	})
	assert.NoError(t, err)

	_, err = e.contests.CreateContest(ctx, memberCaller, CreateContestInput{
		Title:    "нельзя",
		Type:     models.TypeCompetition,
		Deadline: time.Now().AddDate(0, 0, 7),
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = e.contests.CreateContest(ctx, adminCaller, CreateContestInput{
		Type:     models.TypeCompetition,
		Deadline: time.Now().AddDate(0, 0, 7),
	})
	assert.ErrorIs(t, err, ErrContestTitleRequired)

	_, err = e.contests.CreateContest(ctx, adminCaller, CreateContestInput{
		Title:    "неизвестный тип",
		Type:     models.ContestType("karaoke"),
		Deadline: time.Now().AddDate(0, 0, 7),
	})
	assert.ErrorIs(t, err, ErrContestTypeInvalid)
}

func TestStartContest(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	contest := e.mustCreateContest(ctx)

	_, err := e.contests.StartContest(ctx, memberCaller, contest.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	started, err := e.contests.StartContest(ctx, adminCaller, contest.ID)
	require.NoError(t, err)
	assert.True(t, started.Started)

	// Повторный запуск открытого конкурса.
	_, err = e.contests.StartContest(ctx, adminCaller, contest.ID)
	assert.ErrorIs(t, err, ErrContestAlreadyStarted)

	_, err = e.contests.CloseContest(ctx, adminCaller, contest.ID)
	require.NoError(t, err)

	// У закрытого конкурса доминирует ErrContestClosed, не AlreadyStarted.
	_, err = e.contests.StartContest(ctx, adminCaller, contest.ID)
	assert.ErrorIs(t, err, ErrContestClosed)

	_, err = e.contests.StartContest(ctx, adminCaller, "c-missing")
	assert.ErrorIs(t, err, ErrContestNotFound)
}

func TestCloseContest(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	contest := e.mustCreateContest(ctx)

	closed, err := e.contests.CloseContest(ctx, adminCaller, contest.ID)
	require.NoError(t, err)
	assert.True(t, closed.Ended)

	// Закрытие терминально и не повторяется.
	_, err = e.contests.CloseContest(ctx, adminCaller, contest.ID)
	assert.ErrorIs(t, err, ErrContestClosed)

	_, err = e.contests.CloseContest(ctx, memberCaller, contest.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestGetContestAutoClosesAfterDeadline(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	overdue, err := e.contests.CreateContest(ctx, adminCaller, CreateContestInput{
		Title:    "вчерашний дедлайн",
		Type:     models.TypeCompetition,
		Deadline: time.Now().AddDate(0, 0, -1),
	})
	require.NoError(t, err)

	got, err := e.contests.GetContest(ctx, overdue.ID)
	require.NoError(t, err)
	assert.True(t, got.Ended, "contest past its deadline must close on read")

	// Дедлайн сегодня — конкурс ещё жив весь день.
	today, err := e.contests.CreateContest(ctx, adminCaller, CreateContestInput{
		Title:    "дедлайн сегодня",
		Type:     models.TypeCompetition,
		Deadline: time.Now(),
	})
	require.NoError(t, err)

	got, err = e.contests.GetContest(ctx, today.ID)
	require.NoError(t, err)
	assert.False(t, got.Ended, "deadline day is inclusive")
}

func TestReconcileDeadlines(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	overdue, err := e.contests.CreateContest(ctx, adminCaller, CreateContestInput{
		Title:    "просроченный",
		Type:     models.TypeCompetition,
		Deadline: time.Now().AddDate(0, 0, -2),
	})
	require.NoError(t, err)
	alive := e.mustCreateContest(ctx)

	require.NoError(t, e.contests.ReconcileDeadlines(ctx))

	stored, err := e.contestRepo.GetByID(ctx, overdue.ID)
	require.NoError(t, err)
	assert.True(t, stored.Ended)

	stored, err = e.contestRepo.GetByID(ctx, alive.ID)
	require.NoError(t, err)
	assert.False(t, stored.Ended)
}

func TestCloseContestComputesTopResults(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	contest := e.mustCreateContest(ctx)
	_, err := e.contests.StartContest(ctx, adminCaller, contest.ID)
	require.NoError(t, err)

	var ids []string
	for _, name := range []string{"김철수", "이영희", "박민수", "최지우"} {
		p, err := e.participants.AddParticipant(ctx, contest.ID, name)
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	judge := models.Identity{ID: "u-judge", DisplayName: "심사위원", Role: models.RoleLeader}
	scores := map[string]int{ids[0]: 90, ids[1]: 80, ids[2]: 70, ids[3]: 60}
	for targetID, score := range scores {
		_, err := e.grades.SubmitGrade(ctx, judge, contest.ID, SubmitGradeInput{TargetID: targetID, Score: score})
		require.NoError(t, err)
	}

	closed, err := e.contests.CloseContest(ctx, adminCaller, contest.ID)
	require.NoError(t, err)
	require.Len(t, closed.TopResults, 3)
	assert.Equal(t, 1, closed.TopResults[0].Rank)
	assert.Equal(t, ids[0], closed.TopResults[0].TargetID)
	assert.Equal(t, "김철수", closed.TopResults[0].TargetName)
	assert.InDelta(t, 90.0, closed.TopResults[0].Average, 1e-9)
	assert.Equal(t, ids[1], closed.TopResults[1].TargetID)
	assert.Equal(t, ids[2], closed.TopResults[2].TargetID)
}

func TestDeleteContestCascades(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	contest := e.mustCreateContest(ctx)
	_, err := e.contests.StartContest(ctx, adminCaller, contest.ID)
	require.NoError(t, err)

	a, err := e.participants.AddParticipant(ctx, contest.ID, "김철수")
	require.NoError(t, err)
	b, err := e.participants.AddParticipant(ctx, contest.ID, "이영희")
	require.NoError(t, err)
	c, err := e.participants.AddParticipant(ctx, contest.ID, "박민수")
	require.NoError(t, err)

	team, err := e.teams.FormTeam(ctx, contest.ID, a.ID, b.ID)
	require.NoError(t, err)

	judge := models.Identity{ID: "u-judge", DisplayName: "심사위원", Role: models.RoleLeader}
	_, err = e.grades.SubmitGrade(ctx, judge, contest.ID, SubmitGradeInput{TargetID: team.ID, Score: 88})
	require.NoError(t, err)
	_, err = e.grades.SubmitGrade(ctx, judge, contest.ID, SubmitGradeInput{TargetID: c.ID, Score: 77})
	require.NoError(t, err)

	_, err = e.contests.GetContest(ctx, contest.ID)
	require.NoError(t, err)

	err = e.contests.DeleteContest(ctx, memberCaller, contest.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, e.contests.DeleteContest(ctx, adminCaller, contest.ID))

	_, err = e.contests.GetContest(ctx, contest.ID)
	assert.ErrorIs(t, err, ErrContestNotFound)

	participants, err := e.participantRepo.ListByContest(ctx, contest.ID)
	require.NoError(t, err)
	assert.Empty(t, participants)
	teams, err := e.teamRepo.ListByContest(ctx, contest.ID)
	require.NoError(t, err)
	assert.Empty(t, teams)
	grades, err := e.gradeRepo.ListByContest(ctx, contest.ID)
	require.NoError(t, err)
	assert.Empty(t, grades)

	err = e.contests.DeleteContest(ctx, adminCaller, contest.ID)
	assert.ErrorIs(t, err, ErrContestNotFound)
}
