package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stemsi/lms-backend/internal/repository/inmem"
	"github.com/stretchr/testify/require"
)

// recordingNotifier captures notifications instead of queueing them.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, ns ...model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, ns...)
	return nil
}

func (r *recordingNotifier) ofType(t model.NotificationType) []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for _, n := range r.sent {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// fakeClock is a settable Clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

var userSeq atomic.Int64

type env struct {
	db       *inmem.DB
	cache    *inmem.PaperCache
	notifier *recordingNotifier
	clock    *fakeClock
	exams    *ExamService
	students *ParticipationService

	admin   *model.User
	teacher *model.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		db:       inmem.NewDB(),
		cache:    inmem.NewPaperCache(),
		notifier: &recordingNotifier{},
		clock:    &fakeClock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
	}
	log := zerolog.Nop()
	clock := Clock(e.clock.Now)

	e.exams = NewExamService(e.db.Exams(), e.db.Questions(), e.db.Participants(), e.db.Users(), e.cache, e.notifier, clock, log)
	e.students = NewParticipationService(e.db.Exams(), e.db.Questions(), e.db.Participants(), e.cache, NewExamGate(DefaultJoinWindow), clock, log)

	e.admin = e.user(t, "Admin", model.RoleAdmin)
	e.teacher = e.user(t, "Teacher", model.RoleTeacher)
	return e
}

func (e *env) user(t *testing.T, name string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: fmt.Sprintf("user%d@school.test", userSeq.Add(1)), Role: role}
	require.NoError(t, e.db.Users().Create(context.Background(), u))
	return u
}

func (e *env) adminActor() Actor   { return Actor{ID: e.admin.ID, Role: model.RoleAdmin} }
func (e *env) teacherActor() Actor { return Actor{ID: e.teacher.ID, Role: model.RoleTeacher} }

// twoQuestions is worth 3 marks: 1 for A, 2 for C.
func twoQuestions() []model.QuestionInput {
	return []model.QuestionInput{
		{QuestionText: "2+2?", OptionA: "4", OptionB: "5", OptionC: "6", OptionD: "7", CorrectAnswer: model.OptionA, Marks: 1, OrderNum: 1},
		{QuestionText: "Capital of France?", OptionA: "Rome", OptionB: "Berlin", OptionC: "Paris", OptionD: "Madrid", CorrectAnswer: model.OptionC, Marks: 2, OrderNum: 2},
	}
}

// createExam creates an exam scheduled at start by the admin.
func (e *env) createExam(t *testing.T, start time.Time, locked *bool) *model.ExamDetail {
	t.Helper()
	d, err := e.exams.Create(context.Background(), &model.CreateExamRequest{
		Title:           "Midterm",
		TeacherID:       e.teacher.ID,
		ScheduledAt:     &start,
		DurationMinutes: 60,
		Locked:          locked,
		Questions:       twoQuestions(),
	}, e.adminActor())
	require.NoError(t, err)
	return d
}

func boolPtr(b bool) *bool { return &b }
