package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stemsi/lms-backend/internal/repository"
)

// ExamStore is the in-memory exam table.
type ExamStore struct {
	db *DB
}

func (s *ExamStore) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	e, ok := s.db.exams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (s *ExamStore) List(_ context.Context, ownerID, limit, offset int) ([]model.Exam, int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var out []model.Exam
	for _, e := range s.db.exams {
		if ownerID > 0 && !e.OwnedBy(ownerID) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.After(out[j].ScheduledAt) })
	return page(out, limit, offset), len(out), nil
}

func (s *ExamStore) ListByStatus(_ context.Context, statuses ...model.ExamStatus) ([]model.Exam, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var out []model.Exam
	for _, e := range s.db.exams {
		for _, st := range statuses {
			if e.Status == st {
				out = append(out, e)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (s *ExamStore) CreateWithQuestions(_ context.Context, e *model.Exam, questions []model.Question) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.users[e.TeacherID]; !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	e.ID = uuid.New()
	e.CreatedAt, e.UpdatedAt = now, now
	s.db.exams[e.ID] = *e
	s.db.questions[e.ID] = withExam(e.ID, questions)
	return nil
}

func (s *ExamStore) ReplaceQuestions(_ context.Context, examID uuid.UUID, questions []model.Question, totalMarks int) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	e, ok := s.db.exams[examID]
	if !ok {
		return repository.ErrNotFound
	}
	s.db.questions[examID] = withExam(examID, questions)
	e.TotalMarks = totalMarks
	e.UpdatedAt = time.Now()
	s.db.exams[examID] = e
	return nil
}

// withExam assigns IDs and the exam reference in place and returns a
// private copy for storage.
func withExam(examID uuid.UUID, questions []model.Question) []model.Question {
	for i := range questions {
		if questions[i].ID == uuid.Nil {
			questions[i].ID = uuid.New()
		}
		questions[i].ExamID = examID
	}
	return append([]model.Question(nil), questions...)
}

func (s *ExamStore) SetLocked(_ context.Context, id uuid.UUID, locked bool, lockedAt *time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	e, ok := s.db.exams[id]
	if !ok {
		return repository.ErrNotFound
	}
	e.Locked = locked
	if lockedAt != nil {
		e.LockedAt = timePtr(*lockedAt)
	}
	e.UpdatedAt = time.Now()
	s.db.exams[id] = e
	return nil
}

func (s *ExamStore) UpdateStatus(_ context.Context, id uuid.UUID, status model.ExamStatus) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	e, ok := s.db.exams[id]
	if !ok {
		return repository.ErrNotFound
	}
	e.Status = status
	e.UpdatedAt = time.Now()
	s.db.exams[id] = e

	if status == model.ExamStatusCompleted {
		for k, p := range s.db.participants {
			if k.examID == id && p.Status != model.ParticipantSubmitted {
				p.Status = model.ParticipantAbsent
				s.db.participants[k] = p
			}
		}
	}
	return nil
}

func (s *ExamStore) MarkResultsPublished(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	e, ok := s.db.exams[id]
	if !ok || e.ResultsPublished {
		return false, nil
	}
	e.ResultsPublished = true
	e.ResultsPublishedAt = timePtr(at)
	s.db.exams[id] = e
	return true, nil
}

func (s *ExamStore) ClearResultsPublished(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	e, ok := s.db.exams[id]
	if !ok {
		return nil
	}
	e.ResultsPublished = false
	e.ResultsPublishedAt = nil
	s.db.exams[id] = e
	return nil
}

func (s *ExamStore) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.exams[id]; !ok {
		return repository.ErrNotFound
	}
	for k := range s.db.participants {
		if k.examID == id {
			delete(s.db.participants, k)
			delete(s.db.answers, k)
		}
	}
	delete(s.db.questions, id)
	delete(s.db.exams, id)
	return nil
}

// QuestionStore is the in-memory question table.
type QuestionStore struct {
	db *DB
}

func (s *QuestionStore) ListByExam(_ context.Context, examID uuid.UUID) ([]model.Question, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	out := append([]model.Question(nil), s.db.questions[examID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderNum < out[j].OrderNum })
	return out, nil
}
