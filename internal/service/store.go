package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/lms-backend/internal/model"
)

// UserStore persists user accounts.
type UserStore interface {
	GetByID(ctx context.Context, id int) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	List(ctx context.Context, role model.Role, limit, offset int) ([]model.User, int, error)
}

// ExamStore persists exams. Multi-row writes are transactional.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	List(ctx context.Context, ownerID, limit, offset int) ([]model.Exam, int, error)
	ListByStatus(ctx context.Context, statuses ...model.ExamStatus) ([]model.Exam, error)
	CreateWithQuestions(ctx context.Context, e *model.Exam, questions []model.Question) error
	ReplaceQuestions(ctx context.Context, examID uuid.UUID, questions []model.Question, totalMarks int) error
	SetLocked(ctx context.Context, id uuid.UUID, locked bool, lockedAt *time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus) error
	// MarkResultsPublished reports false when results were already published.
	MarkResultsPublished(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ClearResultsPublished(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// QuestionStore reads exam questions.
type QuestionStore interface {
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
}

// ParticipantStore persists participants and their graded answers.
type ParticipantStore interface {
	GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.Participant, error)
	Join(ctx context.Context, examID uuid.UUID, studentID int, at time.Time) (*model.Participant, error)
	Submit(ctx context.Context, examID uuid.UUID, studentID int, answers []model.Answer, total int, at time.Time) (*model.Participant, error)
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Participant, error)
	ListByStudent(ctx context.Context, studentID int) ([]model.Participant, error)
	CountByExam(ctx context.Context, examID uuid.UUID) (int, error)
	ListAnswers(ctx context.Context, examID uuid.UUID, studentID int) ([]model.Answer, error)
}

// PaperCache caches student-facing exam papers. Get returns nil, nil on a miss.
type PaperCache interface {
	Get(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error)
	Set(ctx context.Context, paper *model.ExamPaper) error
	Invalidate(ctx context.Context, examID uuid.UUID) error
}

// NotificationStore persists notification inboxes.
type NotificationStore interface {
	InsertBatch(ctx context.Context, batch []model.Notification) error
	ListForUser(ctx context.Context, userID, limit, offset int) ([]model.Notification, int, error)
	MarkRead(ctx context.Context, id int64, userID int) error
}

// AnnouncementStore persists the announcement board.
type AnnouncementStore interface {
	Add(ctx context.Context, a model.Announcement) error
	List(ctx context.Context) ([]model.Announcement, error)
	Delete(ctx context.Context, id string) error
}

// Notifier delivers notifications to recipients.
type Notifier interface {
	Notify(ctx context.Context, notifications ...model.Notification) error
}

// Clock returns the current time. A nil Clock means time.Now.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   int
	Role model.Role
}

func pageBounds(page, perPage int) (limit, offset, p, pp int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}
	return perPage, (page - 1) * perPage, page, perPage
}
