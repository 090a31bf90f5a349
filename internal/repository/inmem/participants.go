package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stemsi/lms-backend/internal/repository"
)

// ParticipantStore is the in-memory participant and answer table.
type ParticipantStore struct {
	db *DB
}

// withName fills the joined student name. Callers hold the lock.
func (s *ParticipantStore) withName(p model.Participant) model.Participant {
	p.StudentName = s.db.users[p.StudentID].Name
	return p
}

// ensure returns the participant row, creating it as registered. Callers hold the lock.
func (s *ParticipantStore) ensure(examID uuid.UUID, studentID int) (model.Participant, error) {
	k := participantKey{examID, studentID}
	if p, ok := s.db.participants[k]; ok {
		return p, nil
	}
	if _, ok := s.db.exams[examID]; !ok {
		return model.Participant{}, repository.ErrNotFound
	}
	s.db.nextParticipantID++
	p := model.Participant{
		ID:        s.db.nextParticipantID,
		ExamID:    examID,
		StudentID: studentID,
		Status:    model.ParticipantRegistered,
	}
	s.db.participants[k] = p
	return p, nil
}

func (s *ParticipantStore) GetByExamAndStudent(_ context.Context, examID uuid.UUID, studentID int) (*model.Participant, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	p, ok := s.db.participants[participantKey{examID, studentID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p = s.withName(p)
	return &p, nil
}

func (s *ParticipantStore) Join(_ context.Context, examID uuid.UUID, studentID int, at time.Time) (*model.Participant, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	p, err := s.ensure(examID, studentID)
	if err != nil {
		return nil, err
	}
	if p.Status == model.ParticipantRegistered {
		p.Status = model.ParticipantJoined
		p.JoinedAt = timePtr(at)
		s.db.participants[participantKey{examID, studentID}] = p
	}
	p = s.withName(p)
	return &p, nil
}

func (s *ParticipantStore) Submit(_ context.Context, examID uuid.UUID, studentID int, answers []model.Answer, total int, at time.Time) (*model.Participant, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	p, err := s.ensure(examID, studentID)
	if err != nil {
		return nil, err
	}
	if p.Status == model.ParticipantSubmitted {
		return nil, repository.ErrAlreadySubmitted
	}

	k := participantKey{examID, studentID}
	stored := make([]model.Answer, len(answers))
	for i, a := range answers {
		s.db.nextAnswerID++
		a.ID = s.db.nextAnswerID
		stored[i] = a
	}
	s.db.answers[k] = stored

	p.Status = model.ParticipantSubmitted
	p.MarksObtained = total
	p.SubmittedAt = timePtr(at)
	s.db.participants[k] = p

	p = s.withName(p)
	return &p, nil
}

func (s *ParticipantStore) ListByExam(_ context.Context, examID uuid.UUID) ([]model.Participant, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var out []model.Participant
	for k, p := range s.db.participants {
		if k.examID == examID {
			out = append(out, s.withName(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StudentName == out[j].StudentName {
			return out[i].ID < out[j].ID
		}
		return out[i].StudentName < out[j].StudentName
	})
	return out, nil
}

func (s *ParticipantStore) ListByStudent(_ context.Context, studentID int) ([]model.Participant, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var out []model.Participant
	for k, p := range s.db.participants {
		if k.studentID == studentID {
			out = append(out, s.withName(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *ParticipantStore) CountByExam(_ context.Context, examID uuid.UUID) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	n := 0
	for k := range s.db.participants {
		if k.examID == examID {
			n++
		}
	}
	return n, nil
}

func (s *ParticipantStore) ListAnswers(_ context.Context, examID uuid.UUID, studentID int) ([]model.Answer, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	order := make(map[uuid.UUID]int)
	for _, q := range s.db.questions[examID] {
		order[q.ID] = q.OrderNum
	}
	out := append([]model.Answer(nil), s.db.answers[participantKey{examID, studentID}]...)
	sort.SliceStable(out, func(i, j int) bool { return order[out[i].QuestionID] < order[out[j].QuestionID] })
	return out, nil
}
