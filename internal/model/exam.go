package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the lifecycle states of an exam.
type ExamStatus string

const (
	ExamStatusScheduled ExamStatus = "scheduled"
	ExamStatusOngoing   ExamStatus = "ongoing"
	ExamStatusCompleted ExamStatus = "completed"
	ExamStatusCancelled ExamStatus = "cancelled"
)

var examTransitions = map[ExamStatus][]ExamStatus{
	ExamStatusScheduled: {ExamStatusOngoing, ExamStatusCancelled},
	ExamStatusOngoing:   {ExamStatusCompleted, ExamStatusCancelled},
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Completed and cancelled are terminal.
// Closed reports whether the exam has ended or been cancelled.
func (s ExamStatus) Closed() bool {
	return s == ExamStatusCompleted || s == ExamStatusCancelled
}

func (s ExamStatus) CanTransitionTo(next ExamStatus) bool {
	for _, allowed := range examTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Exam represents an exam entity. The lock flag is independent of Status.
type Exam struct {
	ID                 uuid.UUID  `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	ScheduledAt        time.Time  `json:"scheduled_at"`
	DurationMinutes    int        `json:"duration_minutes"`
	TotalMarks         int        `json:"total_marks"`
	Locked             bool       `json:"locked"`
	LockedAt           *time.Time `json:"locked_at,omitempty"`
	Status             ExamStatus `json:"status"`
	ResultsPublished   bool       `json:"results_published"`
	ResultsPublishedAt *time.Time `json:"results_published_at,omitempty"`
	TeacherID          int        `json:"teacher_id"`
	CreatedBy          int        `json:"created_by"`
	CreatorRole        Role       `json:"creator_role"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// EndsAt is the nominal end of the exam.
func (e *Exam) EndsAt() time.Time {
	return e.ScheduledAt.Add(time.Duration(e.DurationMinutes) * time.Minute)
}

// OwnedBy reports whether userID owns or created the exam.
func (e *Exam) OwnedBy(userID int) bool {
	return e.TeacherID == userID || e.CreatedBy == userID
}

// CreateExamRequest is the payload for creating a new exam.
// Locked is a pointer so an omitted field keeps the locked default.
type CreateExamRequest struct {
	Title           string          `json:"title" binding:"required,min=3,max=255"`
	Description     string          `json:"description" binding:"omitempty,max=2000"`
	TeacherID       int             `json:"teacher_id" binding:"required,min=1"`
	ScheduledAt     *time.Time      `json:"scheduled_at" binding:"required"`
	DurationMinutes int             `json:"duration_minutes" binding:"required,min=1,max=600"`
	TotalMarks      int             `json:"total_marks" binding:"omitempty,min=0"`
	Locked          *bool           `json:"locked"`
	Questions       []QuestionInput `json:"questions" binding:"required,min=1,dive"`
}

// UpdateExamStatusRequest is the payload for a lifecycle transition.
type UpdateExamStatusRequest struct {
	Status ExamStatus `json:"status" binding:"required,oneof=scheduled ongoing completed cancelled"`
}

// ReplaceQuestionsRequest is the payload for bulk replacing an exam's questions.
type ReplaceQuestionsRequest struct {
	Questions []QuestionInput `json:"questions" binding:"required,min=1,dive"`
}

// ExamPaper is the student-facing exam, cached in Redis (no correct answers).
type ExamPaper struct {
	Exam      Exam                 `json:"exam"`
	Questions []QuestionForStudent `json:"questions"`
}

// ExamDetail is the staff view of an exam with full questions.
type ExamDetail struct {
	Exam      Exam       `json:"exam"`
	Questions []Question `json:"questions"`
}

// AvailableExam is an exam as listed to a student with its derived join state.
type AvailableExam struct {
	Exam
	CanJoin           bool               `json:"can_join"`
	JoinOpensAt       time.Time          `json:"join_opens_at"`
	JoinClosesAt      time.Time          `json:"join_closes_at"`
	EndsAt            time.Time          `json:"ends_at"`
	ParticipantStatus *ParticipantStatus `json:"participant_status,omitempty"`
}

// PublishResultsResponse reports a publish call and how many participants were notified.
type PublishResultsResponse struct {
	Exam     Exam `json:"exam"`
	Notified int  `json:"notified"`
}
