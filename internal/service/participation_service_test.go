package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipation_JoinWindowScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	start := e.clock.Now().Add(2 * time.Hour)
	d := e.createExam(t, start, nil)
	student := e.user(t, "Student", model.RoleStudent)

	// Locked exam inside the window.
	e.clock.Set(start.Add(-10 * time.Minute))
	_, err := e.students.Join(ctx, d.Exam.ID, student.ID)
	assert.ErrorIs(t, err, ErrExamLocked)

	_, err = e.exams.Unlock(ctx, d.Exam.ID)
	require.NoError(t, err)

	e.clock.Set(start.Add(-25 * time.Minute))
	_, err = e.students.Join(ctx, d.Exam.ID, student.ID)
	assert.ErrorIs(t, err, ErrJoinWindowNotOpen)

	e.clock.Set(start.Add(-10 * time.Minute))
	p, err := e.students.Join(ctx, d.Exam.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ParticipantJoined, p.Status)
	require.NotNil(t, p.JoinedAt)
	joinedAt := *p.JoinedAt

	// Joining again is idempotent.
	e.clock.Set(start.Add(-5 * time.Minute))
	p, err = e.students.Join(ctx, d.Exam.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ParticipantJoined, p.Status)
	assert.True(t, joinedAt.Equal(*p.JoinedAt))

	e.clock.Set(start.Add(time.Minute))
	_, err = e.students.Join(ctx, d.Exam.ID, e.user(t, "Late", model.RoleStudent).ID)
	assert.ErrorIs(t, err, ErrJoinWindowClosed)
}

func TestParticipation_JoinUnknownExam(t *testing.T) {
	e := newEnv(t)
	_, err := e.students.Join(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, ErrExamNotFound)
}

func TestParticipation_TakeExamHidesAnswers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d := e.createExam(t, e.clock.Now().Add(time.Hour), nil)
	student := e.user(t, "Student", model.RoleStudent)

	_, err := e.students.TakeExam(ctx, d.Exam.ID, student.ID)
	assert.ErrorIs(t, err, ErrExamLocked)

	_, err = e.exams.Unlock(ctx, d.Exam.ID)
	require.NoError(t, err)
	require.NoError(t, e.cache.Invalidate(ctx, d.Exam.ID))

	paper, err := e.students.TakeExam(ctx, d.Exam.ID, student.ID)
	require.NoError(t, err)
	require.Len(t, paper.Questions, 2)
	assert.Equal(t, 1, paper.Questions[0].OrderNum)
	assert.Equal(t, 2, paper.Questions[1].OrderNum)
	assert.False(t, paper.Exam.Locked)
	assert.True(t, e.cache.Has(d.Exam.ID), "miss should populate the cache")

	_, err = e.students.Submit(ctx, d.Exam.ID, student.ID, nil)
	require.NoError(t, err)
	_, err = e.students.TakeExam(ctx, d.Exam.ID, student.ID)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestParticipation_SubmitScoresAndRecords(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d := e.createExam(t, e.clock.Now().Add(time.Hour), boolPtr(false))
	student := e.user(t, "Student", model.RoleStudent)

	res, err := e.students.Submit(ctx, d.Exam.ID, student.ID, []model.SubmittedAnswer{
		{QuestionID: d.Questions[0].ID, SelectedAnswer: model.OptionA},
		{QuestionID: d.Questions[1].ID, SelectedAnswer: model.OptionB},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Participant.MarksObtained)
	assert.Equal(t, model.ParticipantSubmitted, res.Participant.Status)
	assert.NotNil(t, res.Participant.SubmittedAt)
	assert.Equal(t, 3, res.TotalMarks)

	stored, err := e.db.Participants().ListAnswers(ctx, d.Exam.ID, student.ID)
	require.NoError(t, err)
	sum := 0
	for _, a := range stored {
		sum += a.MarksAwarded
	}
	assert.Equal(t, res.Participant.MarksObtained, sum)

	_, err = e.students.Submit(ctx, d.Exam.ID, student.ID, nil)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	e.clock.Set(d.Exam.ScheduledAt.Add(-time.Minute))
	_, err = e.students.Join(ctx, d.Exam.ID, student.ID)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestParticipation_SubmitRejectsForeignQuestion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d := e.createExam(t, e.clock.Now().Add(time.Hour), boolPtr(false))
	student := e.user(t, "Student", model.RoleStudent)

	_, err := e.students.Submit(ctx, d.Exam.ID, student.ID, []model.SubmittedAnswer{
		{QuestionID: uuid.New(), SelectedAnswer: model.OptionA},
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	// Nothing was recorded, a valid submission still goes through.
	_, err = e.students.Submit(ctx, d.Exam.ID, student.ID, nil)
	assert.NoError(t, err)
}

func TestParticipation_SubmitRequiresOpenExam(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	student := e.user(t, "Student", model.RoleStudent)
	answers := func(d *model.ExamDetail) []model.SubmittedAnswer {
		return []model.SubmittedAnswer{{QuestionID: d.Questions[0].ID, SelectedAnswer: model.OptionA}}
	}

	locked := e.createExam(t, e.clock.Now().Add(time.Hour), nil)
	_, err := e.students.Submit(ctx, locked.Exam.ID, student.ID, answers(locked))
	assert.ErrorIs(t, err, ErrExamLocked)

	for _, status := range []model.ExamStatus{model.ExamStatusCancelled, model.ExamStatusCompleted} {
		d := e.createExam(t, e.clock.Now().Add(time.Hour), boolPtr(false))
		if status == model.ExamStatusCompleted {
			_, err = e.exams.UpdateStatus(ctx, d.Exam.ID, model.ExamStatusOngoing, e.adminActor())
			require.NoError(t, err)
		}
		_, err = e.exams.UpdateStatus(ctx, d.Exam.ID, status, e.adminActor())
		require.NoError(t, err)

		_, err = e.students.Submit(ctx, d.Exam.ID, student.ID, answers(d))
		assert.ErrorIs(t, err, ErrExamClosed, status)
		_, err = e.students.TakeExam(ctx, d.Exam.ID, student.ID)
		assert.ErrorIs(t, err, ErrExamClosed, status)

		_, err = e.db.Participants().GetByExamAndStudent(ctx, d.Exam.ID, student.ID)
		assert.Error(t, err, "no participant row is created")
	}
}

func TestParticipation_ConcurrentSubmitOnlyOnceWins(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d := e.createExam(t, e.clock.Now().Add(time.Hour), boolPtr(false))
	student := e.user(t, "Student", model.RoleStudent)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.students.Submit(ctx, d.Exam.ID, student.ID, []model.SubmittedAnswer{
				{QuestionID: d.Questions[1].ID, SelectedAnswer: model.OptionC},
			})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadySubmitted)
	}
	assert.Equal(t, 1, ok)
}

func TestParticipation_ListAvailable(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	start := e.clock.Now().Add(10 * time.Minute)
	open := e.createExam(t, start, boolPtr(false))
	locked := e.createExam(t, start, nil)
	cancelled := e.createExam(t, start, boolPtr(false))
	_, err := e.exams.UpdateStatus(ctx, cancelled.Exam.ID, model.ExamStatusCancelled, e.adminActor())
	require.NoError(t, err)

	student := e.user(t, "Student", model.RoleStudent)
	_, err = e.students.Join(ctx, open.Exam.ID, student.ID)
	require.NoError(t, err)

	list, err := e.students.ListAvailable(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byID := map[uuid.UUID]model.AvailableExam{}
	for _, a := range list {
		byID[a.ID] = a
	}
	assert.True(t, byID[open.Exam.ID].CanJoin)
	require.NotNil(t, byID[open.Exam.ID].ParticipantStatus)
	assert.Equal(t, model.ParticipantJoined, *byID[open.Exam.ID].ParticipantStatus)
	assert.Equal(t, start.Add(-20*time.Minute), byID[open.Exam.ID].JoinOpensAt)

	assert.False(t, byID[locked.Exam.ID].CanJoin)
	assert.Nil(t, byID[locked.Exam.ID].ParticipantStatus)
}

func TestParticipation_MyResult(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d := e.createExam(t, e.clock.Now().Add(time.Hour), boolPtr(false))
	student := e.user(t, "Student", model.RoleStudent)
	outsider := e.user(t, "Outsider", model.RoleStudent)

	_, err := e.students.Submit(ctx, d.Exam.ID, student.ID, []model.SubmittedAnswer{
		{QuestionID: d.Questions[1].ID, SelectedAnswer: model.OptionC},
		{QuestionID: d.Questions[0].ID, SelectedAnswer: model.OptionD},
	})
	require.NoError(t, err)

	_, err = e.students.MyResult(ctx, d.Exam.ID, student.ID)
	assert.ErrorIs(t, err, ErrResultsNotPublished)

	_, err = e.exams.PublishResults(ctx, d.Exam.ID, e.adminActor())
	require.NoError(t, err)

	res, err := e.students.MyResult(ctx, d.Exam.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Participant.MarksObtained)
	require.Len(t, res.Answers, 2)
	assert.Equal(t, d.Questions[0].ID, res.Answers[0].QuestionID, "answers follow question order")

	_, err = e.students.MyResult(ctx, d.Exam.ID, outsider.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}
