package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stemsi/lms-backend/internal/repository"
)

// ParticipationService handles the student side of exams: joining, taking,
// submitting and reading published results.
type ParticipationService struct {
	exams        ExamStore
	questions    QuestionStore
	participants ParticipantStore
	papers       *paperSource
	gate         ExamGate
	clock        Clock
	log          zerolog.Logger
}

// NewParticipationService creates a new ParticipationService.
func NewParticipationService(
	exams ExamStore,
	questions QuestionStore,
	participants ParticipantStore,
	cache PaperCache,
	gate ExamGate,
	clock Clock,
	log zerolog.Logger,
) *ParticipationService {
	l := log.With().Str("component", "participation_service").Logger()
	return &ParticipationService{
		exams:        exams,
		questions:    questions,
		participants: participants,
		papers:       &paperSource{questions: questions, cache: cache, log: l},
		gate:         gate,
		clock:        clock,
		log:          l,
	}
}

func (s *ParticipationService) exam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e, err := s.exams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return e, nil
}

// participant returns the student's row or nil when there is none.
func (s *ParticipationService) participant(ctx context.Context, examID uuid.UUID, studentID int) (*model.Participant, error) {
	p, err := s.participants.GetByExamAndStudent(ctx, examID, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return p, nil
}

// ListAvailable returns scheduled and ongoing exams with their join state
// for the student.
func (s *ParticipationService) ListAvailable(ctx context.Context, studentID int) ([]model.AvailableExam, error) {
	exams, err := s.exams.ListByStatus(ctx, model.ExamStatusScheduled, model.ExamStatusOngoing)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	mine, err := s.participants.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list participation: %w", err)
	}
	statuses := make(map[uuid.UUID]model.ParticipantStatus, len(mine))
	for _, p := range mine {
		statuses[p.ExamID] = p.Status
	}

	now := s.clock.now()
	out := make([]model.AvailableExam, len(exams))
	for i := range exams {
		e := &exams[i]
		opens, closes := s.gate.Window(e)
		out[i] = model.AvailableExam{
			Exam:         *e,
			CanJoin:      s.gate.CanJoin(e, now),
			JoinOpensAt:  opens,
			JoinClosesAt: closes,
			EndsAt:       e.EndsAt(),
		}
		if st, ok := statuses[e.ID]; ok {
			st := st
			out[i].ParticipantStatus = &st
			if st == model.ParticipantSubmitted {
				out[i].CanJoin = false
			}
		}
	}
	return out, nil
}

// Join registers the student as joined if the gate allows it. Joining twice
// returns the existing record.
func (s *ParticipationService) Join(ctx context.Context, examID uuid.UUID, studentID int) (*model.Participant, error) {
	e, err := s.exam(ctx, examID)
	if err != nil {
		return nil, err
	}
	now := s.clock.now()
	if err := s.gate.CheckJoin(e, now); err != nil {
		return nil, err
	}

	existing, err := s.participant(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == model.ParticipantSubmitted {
		return nil, ErrAlreadySubmitted
	}

	p, err := s.participants.Join(ctx, examID, studentID, now)
	if err != nil {
		return nil, fmt.Errorf("join exam: %w", err)
	}
	s.log.Info().Str("exam_id", examID.String()).Int("student_id", studentID).Msg("Student joined exam")
	return p, nil
}

// TakeExam returns the paper without correct answers.
func (s *ParticipationService) TakeExam(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamPaper, error) {
	e, err := s.exam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.CheckTake(e); err != nil {
		return nil, err
	}

	p, err := s.participant(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	if p != nil && p.Status == model.ParticipantSubmitted {
		return nil, ErrAlreadySubmitted
	}

	return s.papers.get(ctx, e)
}

// Submit grades the answers and records the submission atomically. A
// student can submit an exam only once, and only while it may be taken.
func (s *ParticipationService) Submit(ctx context.Context, examID uuid.UUID, studentID int, submitted []model.SubmittedAnswer) (*model.SubmissionResult, error) {
	e, err := s.exam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.CheckTake(e); err != nil {
		return nil, err
	}
	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	answers, total, err := Grade(examID, studentID, questions, submitted)
	if err != nil {
		return nil, err
	}

	p, err := s.participants.Submit(ctx, examID, studentID, answers, total, s.clock.now())
	if err != nil {
		if errors.Is(err, repository.ErrAlreadySubmitted) {
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("submit exam: %w", err)
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Int("student_id", studentID).
		Int("marks", total).
		Msg("Exam submitted")

	return &model.SubmissionResult{Participant: *p, TotalMarks: e.TotalMarks, Answers: answers}, nil
}

// MyResult returns the student's graded submission once results are published.
func (s *ParticipationService) MyResult(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamResult, error) {
	e, err := s.exam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if !e.ResultsPublished {
		return nil, ErrResultsNotPublished
	}

	p, err := s.participant(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotParticipant
	}

	answers, err := s.participants.ListAnswers(ctx, examID, studentID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	if answers == nil {
		answers = []model.Answer{}
	}
	return &model.ExamResult{Exam: *e, Participant: *p, Answers: answers}, nil
}
