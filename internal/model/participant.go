package model

import (
	"time"

	"github.com/google/uuid"
)

// ParticipantStatus enumerates a student's engagement with an exam.
type ParticipantStatus string

const (
	ParticipantRegistered ParticipantStatus = "registered"
	ParticipantJoined     ParticipantStatus = "joined"
	ParticipantSubmitted  ParticipantStatus = "submitted"
	ParticipantAbsent     ParticipantStatus = "absent"
)

// Participant is the per-student record of one exam. Unique per (ExamID, StudentID).
type Participant struct {
	ID            int               `json:"id"`
	ExamID        uuid.UUID         `json:"exam_id"`
	StudentID     int               `json:"student_id"`
	StudentName   string            `json:"student_name,omitempty"`
	Status        ParticipantStatus `json:"status"`
	JoinedAt      *time.Time        `json:"joined_at,omitempty"`
	SubmittedAt   *time.Time        `json:"submitted_at,omitempty"`
	MarksObtained int               `json:"marks_obtained"`
}

// Answer is one graded response. Unique per (ExamID, StudentID, QuestionID).
type Answer struct {
	ID             int       `json:"id"`
	ExamID         uuid.UUID `json:"exam_id"`
	StudentID      int       `json:"student_id"`
	QuestionID     uuid.UUID `json:"question_id"`
	SelectedAnswer OptionTag `json:"selected_answer"`
	IsCorrect      bool      `json:"is_correct"`
	MarksAwarded   int       `json:"marks_awarded"`
}

// SubmittedAnswer is one entry of a submission payload.
type SubmittedAnswer struct {
	QuestionID     uuid.UUID `json:"question_id" binding:"required"`
	SelectedAnswer OptionTag `json:"selected_answer" binding:"required,option_tag"`
}

// SubmitExamRequest is the payload for submitting an exam.
type SubmitExamRequest struct {
	Answers []SubmittedAnswer `json:"answers" binding:"required,dive"`
}

// SubmissionResult is returned to the student right after grading.
type SubmissionResult struct {
	Participant Participant `json:"participant"`
	TotalMarks  int         `json:"total_marks"`
	Answers     []Answer    `json:"answers"`
}

// ExamResult is the student's view of a published result.
type ExamResult struct {
	Exam        Exam        `json:"exam"`
	Participant Participant `json:"participant"`
	Answers     []Answer    `json:"answers"`
}
