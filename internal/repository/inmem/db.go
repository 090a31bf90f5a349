// Package inmem provides mutex-guarded in-memory stores with the same
// behaviour as the Postgres and Redis repositories. They back the service
// and handler tests.
package inmem

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/lms-backend/internal/model"
)

type participantKey struct {
	examID    uuid.UUID
	studentID int
}

// DB holds every table behind a single lock so multi-table operations are
// atomic, like the transactions of the Postgres repositories.
type DB struct {
	mu sync.Mutex

	users        map[int]model.User
	exams        map[uuid.UUID]model.Exam
	questions    map[uuid.UUID][]model.Question
	participants map[participantKey]model.Participant
	answers      map[participantKey][]model.Answer
	inbox        []model.Notification

	nextUserID         int
	nextParticipantID  int
	nextAnswerID       int
	nextNotificationID int64
}

// NewDB creates an empty DB.
func NewDB() *DB {
	return &DB{
		users:        make(map[int]model.User),
		exams:        make(map[uuid.UUID]model.Exam),
		questions:    make(map[uuid.UUID][]model.Question),
		participants: make(map[participantKey]model.Participant),
		answers:      make(map[participantKey][]model.Answer),
	}
}

// Users returns the user table view.
func (db *DB) Users() *UserStore { return &UserStore{db: db} }

// Exams returns the exam table view.
func (db *DB) Exams() *ExamStore { return &ExamStore{db: db} }

// Questions returns the question table view.
func (db *DB) Questions() *QuestionStore { return &QuestionStore{db: db} }

// Participants returns the participant and answer table view.
func (db *DB) Participants() *ParticipantStore { return &ParticipantStore{db: db} }

// Notifications returns the notification inbox view.
func (db *DB) Notifications() *NotificationStore { return &NotificationStore{db: db} }

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func timePtr(t time.Time) *time.Time { return &t }
