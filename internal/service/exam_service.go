package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stemsi/lms-backend/internal/repository"
	"github.com/stemsi/lms-backend/internal/response"
)

// ExamService handles the staff side of exams: authoring, the lock flag,
// lifecycle and results.
type ExamService struct {
	exams        ExamStore
	participants ParticipantStore
	users        UserStore
	papers       *paperSource
	notifier     Notifier
	clock        Clock
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	exams ExamStore,
	questions QuestionStore,
	participants ParticipantStore,
	users UserStore,
	cache PaperCache,
	notifier Notifier,
	clock Clock,
	log zerolog.Logger,
) *ExamService {
	l := log.With().Str("component", "exam_service").Logger()
	return &ExamService{
		exams:        exams,
		participants: participants,
		users:        users,
		papers:       &paperSource{questions: questions, cache: cache, log: l},
		notifier:     notifier,
		clock:        clock,
		log:          l,
	}
}

// load fetches an exam and, for teachers, checks ownership.
func (s *ExamService) load(ctx context.Context, id uuid.UUID, actor Actor) (*model.Exam, error) {
	e, err := s.exams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if actor.Role != model.RoleAdmin && !e.OwnedBy(actor.ID) {
		return nil, ErrNotExamOwner
	}
	return e, nil
}

func (s *ExamService) reload(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e, err := s.exams.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrExamNotFound
	}
	return e, err
}

func validateQuestions(errs fieldErrors, field string, inputs []model.QuestionInput) {
	if len(inputs) == 0 {
		errs.add(field, "at least one question is required")
	}
	for i, q := range inputs {
		prefix := fmt.Sprintf("%s[%d]", field, i)
		if strings.TrimSpace(q.QuestionText) == "" {
			errs.add(prefix+".question_text", "question_text is required")
		}
		if !q.CorrectAnswer.Valid() {
			errs.add(prefix+".correct_answer", "correct_answer must be one of A, B, C or D")
		}
		if q.Marks < 0 {
			errs.add(prefix+".marks", "marks must be 0 or greater")
		}
	}
}

func toQuestions(inputs []model.QuestionInput) ([]model.Question, int) {
	qs := make([]model.Question, len(inputs))
	total := 0
	for i, in := range inputs {
		order := in.OrderNum
		if order == 0 {
			order = i + 1
		}
		qs[i] = model.Question{
			QuestionText:  in.QuestionText,
			OptionA:       in.OptionA,
			OptionB:       in.OptionB,
			OptionC:       in.OptionC,
			OptionD:       in.OptionD,
			CorrectAnswer: in.CorrectAnswer,
			Marks:         in.Marks,
			OrderNum:      order,
		}
		total += in.Marks
	}
	return qs, total
}

// Create stores a new exam with its questions. Exams are locked unless the
// request explicitly sets locked to false. Every student is notified.
func (s *ExamService) Create(ctx context.Context, req *model.CreateExamRequest, actor Actor) (*model.ExamDetail, error) {
	errs := fieldErrors{}
	if strings.TrimSpace(req.Title) == "" {
		errs.add("title", "title is required")
	}
	if req.ScheduledAt == nil || req.ScheduledAt.IsZero() {
		errs.add("scheduled_at", "scheduled_at is required")
	}
	if req.DurationMinutes <= 0 {
		errs.add("duration_minutes", "duration_minutes must be greater than 0")
	}
	if req.TeacherID <= 0 {
		errs.add("teacher_id", "teacher_id is required")
	}
	validateQuestions(errs, "questions", req.Questions)
	if err := errs.err(); err != nil {
		return nil, err
	}

	teacher, err := s.users.GetByID(ctx, req.TeacherID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find teacher: %w", err)
	}
	if teacher == nil || teacher.Role != model.RoleTeacher {
		return nil, invalid("teacher_id", "teacher_id must reference a teacher")
	}

	questions, sum := toQuestions(req.Questions)
	now := s.clock.now()
	e := &model.Exam{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		ScheduledAt:     req.ScheduledAt.UTC(),
		DurationMinutes: req.DurationMinutes,
		TotalMarks:      req.TotalMarks,
		Locked:          req.Locked == nil || *req.Locked,
		Status:          model.ExamStatusScheduled,
		TeacherID:       req.TeacherID,
		CreatedBy:       actor.ID,
		CreatorRole:     actor.Role,
	}
	if e.TotalMarks == 0 {
		e.TotalMarks = sum
	}
	if e.Locked {
		e.LockedAt = &now
	}

	if err := s.exams.CreateWithQuestions(ctx, e, questions); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}
	s.log.Info().Str("exam_id", e.ID.String()).Int("questions", len(questions)).Bool("locked", e.Locked).Msg("Exam created")

	if !e.Locked {
		s.papers.warm(ctx, e)
	}

	err = s.notifier.Notify(ctx, model.Notification{
		RecipientRole: model.RoleStudent,
		Title:         "New exam scheduled",
		Message:       fmt.Sprintf("%s is scheduled for %s", e.Title, e.ScheduledAt.Format(time.RFC1123)),
		Type:          model.NotificationExamCreated,
		Priority:      model.PriorityNormal,
	})
	if err != nil {
		s.log.Error().Err(err).Str("exam_id", e.ID.String()).Msg("Failed to notify students of new exam")
	}

	return &model.ExamDetail{Exam: *e, Questions: questions}, nil
}

// Get returns an exam with its full questions.
func (s *ExamService) Get(ctx context.Context, id uuid.UUID, actor Actor) (*model.ExamDetail, error) {
	e, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	qs, err := s.papers.questions.ListByExam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if qs == nil {
		qs = []model.Question{}
	}
	return &model.ExamDetail{Exam: *e, Questions: qs}, nil
}

// List returns every exam for admins and owned exams for teachers.
func (s *ExamService) List(ctx context.Context, actor Actor, page, perPage int) ([]model.Exam, *response.Pagination, error) {
	limit, offset, page, perPage := pageBounds(page, perPage)

	ownerID := 0
	if actor.Role != model.RoleAdmin {
		ownerID = actor.ID
	}

	exams, total, err := s.exams.List(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	return exams, response.NewPagination(page, perPage, total), nil
}

// Lock sets the lock flag and stamps locked_at with the current time on
// every call.
func (s *ExamService) Lock(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	now := s.clock.now()
	if err := s.exams.SetLocked(ctx, id, true, &now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("lock exam: %w", err)
	}
	e, err := s.reload(ctx, id)
	if err != nil {
		return nil, err
	}
	s.papers.invalidate(ctx, e)
	s.log.Info().Str("exam_id", id.String()).Msg("Exam locked")
	return e, nil
}

// Unlock clears the lock flag and warms the paper cache.
func (s *ExamService) Unlock(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	if err := s.exams.SetLocked(ctx, id, false, nil); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("unlock exam: %w", err)
	}
	e, err := s.reload(ctx, id)
	if err != nil {
		return nil, err
	}
	s.papers.warm(ctx, e)
	s.log.Info().Str("exam_id", id.String()).Msg("Exam unlocked")
	return e, nil
}

// UpdateStatus moves the exam along its lifecycle.
func (s *ExamService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus, actor Actor) (*model.Exam, error) {
	e, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !e.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, e.Status, status)
	}
	if err := s.exams.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	e, err = s.reload(ctx, id)
	if err != nil {
		return nil, err
	}
	s.papers.invalidate(ctx, e)
	s.log.Info().Str("exam_id", id.String()).Str("status", string(status)).Msg("Exam status updated")
	return e, nil
}

// ReplaceQuestions swaps the question set. Only allowed while the exam is
// locked and nobody has joined or submitted.
func (s *ExamService) ReplaceQuestions(ctx context.Context, id uuid.UUID, inputs []model.QuestionInput, actor Actor) (*model.ExamDetail, error) {
	errs := fieldErrors{}
	validateQuestions(errs, "questions", inputs)
	if err := errs.err(); err != nil {
		return nil, err
	}

	e, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !e.Locked {
		return nil, ErrQuestionsFrozen
	}
	n, err := s.participants.CountByExam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count participants: %w", err)
	}
	if n > 0 {
		return nil, ErrQuestionsFrozen
	}

	questions, total := toQuestions(inputs)
	if err := s.exams.ReplaceQuestions(ctx, id, questions, total); err != nil {
		return nil, fmt.Errorf("replace questions: %w", err)
	}
	e.TotalMarks = total
	s.papers.invalidate(ctx, e)
	return &model.ExamDetail{Exam: *e, Questions: questions}, nil
}

// Delete removes the exam with its questions, participants and answers.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID, actor Actor) error {
	e, err := s.load(ctx, id, actor)
	if err != nil {
		return err
	}
	if err := s.exams.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExamNotFound
		}
		return fmt.Errorf("delete exam: %w", err)
	}
	s.papers.invalidate(ctx, e)
	s.log.Info().Str("exam_id", id.String()).Msg("Exam deleted")
	return nil
}

// PublishResults marks results published and sends one notification to
// each submitted participant. Publishing again is a no-op. If the
// notifications cannot be queued the flag is cleared so the call can be
// retried.
func (s *ExamService) PublishResults(ctx context.Context, id uuid.UUID, actor Actor) (*model.PublishResultsResponse, error) {
	e, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if e.ResultsPublished {
		return &model.PublishResultsResponse{Exam: *e}, nil
	}

	now := s.clock.now()
	claimed, err := s.exams.MarkResultsPublished(ctx, id, now)
	if err != nil {
		return nil, fmt.Errorf("publish results: %w", err)
	}
	if !claimed {
		// A concurrent publish got there first and sends the notifications.
		e, err = s.reload(ctx, id)
		if err != nil {
			return nil, err
		}
		return &model.PublishResultsResponse{Exam: *e}, nil
	}
	e.ResultsPublished = true
	e.ResultsPublishedAt = &now

	participants, err := s.participants.ListByExam(ctx, id)
	if err != nil {
		s.unpublish(ctx, id)
		return nil, fmt.Errorf("list participants: %w", err)
	}

	var batch []model.Notification
	for _, p := range participants {
		if p.Status != model.ParticipantSubmitted {
			continue
		}
		recipient := p.StudentID
		batch = append(batch, model.Notification{
			RecipientRole: model.RoleStudent,
			RecipientID:   &recipient,
			Title:         "Exam results published",
			Message:       fmt.Sprintf("Your result for %s is available: %d/%d", e.Title, p.MarksObtained, e.TotalMarks),
			Type:          model.NotificationResultsPublished,
			Priority:      model.PriorityHigh,
		})
	}
	if len(batch) > 0 {
		if err := s.notifier.Notify(ctx, batch...); err != nil {
			s.unpublish(ctx, id)
			return nil, fmt.Errorf("notify participants: %w", err)
		}
	}

	s.log.Info().Str("exam_id", id.String()).Int("notified", len(batch)).Msg("Results published")
	return &model.PublishResultsResponse{Exam: *e, Notified: len(batch)}, nil
}

// unpublish clears the flag so a failed publish can be retried.
func (s *ExamService) unpublish(ctx context.Context, id uuid.UUID) {
	if err := s.exams.ClearResultsPublished(context.WithoutCancel(ctx), id); err != nil {
		s.log.Error().Err(err).Str("exam_id", id.String()).Msg("Failed to revert results publish")
	}
}

// ListParticipants returns an exam's participants ordered by name.
func (s *ExamService) ListParticipants(ctx context.Context, id uuid.UUID, actor Actor) ([]model.Participant, error) {
	if _, err := s.load(ctx, id, actor); err != nil {
		return nil, err
	}
	ps, err := s.participants.ListByExam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	if ps == nil {
		ps = []model.Participant{}
	}
	return ps, nil
}

// PrewarmCaches loads the paper of every unlocked upcoming or running exam
// into the cache. Called once at startup before traffic is accepted.
func (s *ExamService) PrewarmCaches(ctx context.Context) (int, error) {
	exams, err := s.exams.ListByStatus(ctx, model.ExamStatusScheduled, model.ExamStatusOngoing)
	if err != nil {
		return 0, fmt.Errorf("list exams: %w", err)
	}
	warmed := 0
	for i := range exams {
		if exams[i].Locked {
			continue
		}
		s.papers.warm(ctx, &exams[i])
		warmed++
	}
	s.log.Info().Int("warmed", warmed).Msg("Exam paper caches prewarmed")
	return warmed, nil
}
