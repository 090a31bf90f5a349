package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/stemsi/lms-backend/internal/model"
)

// Grade scores a submission against the exam's questions. Each answer must
// name a question of the exam at most once. A correct option earns the
// question's marks, anything else earns 0.
func Grade(examID uuid.UUID, studentID int, questions []model.Question, submitted []model.SubmittedAnswer) ([]model.Answer, int, error) {
	byID := make(map[uuid.UUID]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	errs := fieldErrors{}
	seen := make(map[uuid.UUID]bool, len(submitted))
	answers := make([]model.Answer, 0, len(submitted))
	total := 0

	for i, s := range submitted {
		q, ok := byID[s.QuestionID]
		switch {
		case !ok:
			errs.add(fmt.Sprintf("answers[%d].question_id", i), "question does not belong to this exam")
			continue
		case seen[s.QuestionID]:
			errs.add(fmt.Sprintf("answers[%d].question_id", i), "question answered more than once")
			continue
		case !s.SelectedAnswer.Valid():
			errs.add(fmt.Sprintf("answers[%d].selected_answer", i), "selected_answer must be one of A, B, C or D")
			continue
		}
		seen[s.QuestionID] = true

		a := model.Answer{
			ExamID:         examID,
			StudentID:      studentID,
			QuestionID:     q.ID,
			SelectedAnswer: s.SelectedAnswer,
			IsCorrect:      s.SelectedAnswer == q.CorrectAnswer,
		}
		if a.IsCorrect {
			a.MarksAwarded = q.Marks
		}
		total += a.MarksAwarded
		answers = append(answers, a)
	}

	if err := errs.err(); err != nil {
		return nil, 0, err
	}
	return answers, total, nil
}
