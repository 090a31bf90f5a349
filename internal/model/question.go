package model

import (
	"github.com/google/uuid"
)

// OptionTag names one of the four answer options.
type OptionTag string

const (
	OptionA OptionTag = "A"
	OptionB OptionTag = "B"
	OptionC OptionTag = "C"
	OptionD OptionTag = "D"
)

// Valid reports whether t is one of A, B, C, D.
func (t OptionTag) Valid() bool {
	switch t {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// Question is a single multiple-choice question of an exam.
type Question struct {
	ID            uuid.UUID `json:"id"`
	ExamID        uuid.UUID `json:"exam_id"`
	QuestionText  string    `json:"question_text"`
	OptionA       string    `json:"option_a"`
	OptionB       string    `json:"option_b"`
	OptionC       string    `json:"option_c"`
	OptionD       string    `json:"option_d"`
	CorrectAnswer OptionTag `json:"correct_answer"`
	Marks         int       `json:"marks"`
	OrderNum      int       `json:"order_num"`
}

// ForStudent strips the correct answer.
func (q *Question) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		OptionA:      q.OptionA,
		OptionB:      q.OptionB,
		OptionC:      q.OptionC,
		OptionD:      q.OptionD,
		Marks:        q.Marks,
		OrderNum:     q.OrderNum,
	}
}

// QuestionForStudent is a question without the correct answer.
type QuestionForStudent struct {
	ID           uuid.UUID `json:"id"`
	QuestionText string    `json:"question_text"`
	OptionA      string    `json:"option_a"`
	OptionB      string    `json:"option_b"`
	OptionC      string    `json:"option_c"`
	OptionD      string    `json:"option_d"`
	Marks        int       `json:"marks"`
	OrderNum     int       `json:"order_num"`
}

// QuestionInput is one question in a create or replace payload.
type QuestionInput struct {
	QuestionText  string    `json:"question_text" binding:"required,min=1,max=2000"`
	OptionA       string    `json:"option_a" binding:"required,max=500"`
	OptionB       string    `json:"option_b" binding:"required,max=500"`
	OptionC       string    `json:"option_c" binding:"required,max=500"`
	OptionD       string    `json:"option_d" binding:"required,max=500"`
	CorrectAnswer OptionTag `json:"correct_answer" binding:"required,option_tag"`
	Marks         int       `json:"marks" binding:"min=0,max=100"`
	OrderNum      int       `json:"order_num" binding:"min=0"`
}
