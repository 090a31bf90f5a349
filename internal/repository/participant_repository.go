package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/lms-backend/internal/model"
)

// ParticipantRepository handles exam participants and their graded answers.
type ParticipantRepository struct {
	pool *pgxpool.Pool
}

// NewParticipantRepository creates a new ParticipantRepository.
func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

const participantColumns = `p.id, p.exam_id, p.student_id, u.name, p.status, p.joined_at, p.submitted_at, p.marks_obtained`

func scanParticipant(row pgx.Row, p *model.Participant) error {
	return row.Scan(&p.ID, &p.ExamID, &p.StudentID, &p.StudentName, &p.Status, &p.JoinedAt, &p.SubmittedAt, &p.MarksObtained)
}

// GetByExamAndStudent retrieves the participant row of one student for one exam.
func (r *ParticipantRepository) GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.Participant, error) {
	p := &model.Participant{}
	err := scanParticipant(r.pool.QueryRow(ctx,
		`SELECT `+participantColumns+`
		 FROM exam_participants p JOIN users u ON u.id = p.student_id
		 WHERE p.exam_id = $1 AND p.student_id = $2`, examID, studentID), p)
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

// Join upserts the participant to joined. Rows that already moved past
// registered are returned unchanged.
func (r *ParticipantRepository) Join(ctx context.Context, examID uuid.UUID, studentID int, at time.Time) (*model.Participant, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO exam_participants (exam_id, student_id, status, joined_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (exam_id, student_id) DO UPDATE
		   SET status = EXCLUDED.status, joined_at = EXCLUDED.joined_at
		   WHERE exam_participants.status = $5`,
		examID, studentID, model.ParticipantJoined, at, model.ParticipantRegistered)
	if err != nil {
		return nil, fmt.Errorf("upsert participant: %w", err)
	}
	return r.GetByExamAndStudent(ctx, examID, studentID)
}

// Submit persists graded answers and marks the participant submitted in one
// transaction. The participant row is created if missing and locked with
// FOR UPDATE so concurrent submissions serialize; the loser gets
// ErrAlreadySubmitted.
func (r *ParticipantRepository) Submit(ctx context.Context, examID uuid.UUID, studentID int, answers []model.Answer, total int, at time.Time) (*model.Participant, error) {
	p := &model.Participant{}
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO exam_participants (exam_id, student_id, status)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (exam_id, student_id) DO NOTHING`,
			examID, studentID, model.ParticipantRegistered); err != nil {
			return fmt.Errorf("ensure participant: %w", err)
		}

		var id int
		var status model.ParticipantStatus
		if err := tx.QueryRow(ctx,
			`SELECT id, status FROM exam_participants
			 WHERE exam_id = $1 AND student_id = $2
			 FOR UPDATE`, examID, studentID).Scan(&id, &status); err != nil {
			return fmt.Errorf("lock participant: %w", mapErr(err))
		}
		if status == model.ParticipantSubmitted {
			return ErrAlreadySubmitted
		}

		if err := insertAnswers(ctx, tx, answers); err != nil {
			return err
		}

		err := scanParticipant(tx.QueryRow(ctx,
			`WITH upd AS (
			   UPDATE exam_participants
			   SET status = $1, marks_obtained = $2, submitted_at = $3
			   WHERE id = $4
			   RETURNING *
			 )
			 SELECT `+participantColumns+` FROM upd p JOIN users u ON u.id = p.student_id`,
			model.ParticipantSubmitted, total, at, id), p)
		if err != nil {
			return fmt.Errorf("mark submitted: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

func insertAnswers(ctx context.Context, tx pgx.Tx, answers []model.Answer) error {
	n := len(answers)
	if n == 0 {
		return nil
	}

	examIDs := make([]uuid.UUID, n)
	students := make([]int, n)
	questions := make([]uuid.UUID, n)
	selected := make([]string, n)
	correct := make([]bool, n)
	marks := make([]int, n)
	for i, a := range answers {
		examIDs[i] = a.ExamID
		students[i] = a.StudentID
		questions[i] = a.QuestionID
		selected[i] = string(a.SelectedAnswer)
		correct[i] = a.IsCorrect
		marks[i] = a.MarksAwarded
	}

	_, err := tx.Exec(ctx,
		`INSERT INTO exam_answers (exam_id, student_id, question_id, selected_answer, is_correct, marks_awarded)
		 SELECT * FROM UNNEST($1::uuid[], $2::int[], $3::uuid[], $4::text[], $5::bool[], $6::int[])`,
		examIDs, students, questions, selected, correct, marks)
	if err != nil {
		return fmt.Errorf("insert answers: %w", err)
	}
	return nil
}

// ListByExam returns every participant of an exam ordered by student name.
func (r *ParticipantRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Participant, error) {
	return r.list(ctx,
		`SELECT `+participantColumns+`
		 FROM exam_participants p JOIN users u ON u.id = p.student_id
		 WHERE p.exam_id = $1
		 ORDER BY u.name, p.id`, examID)
}

// ListByStudent returns all participant rows of a student.
func (r *ParticipantRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Participant, error) {
	return r.list(ctx,
		`SELECT `+participantColumns+`
		 FROM exam_participants p JOIN users u ON u.id = p.student_id
		 WHERE p.student_id = $1
		 ORDER BY p.id DESC`, studentID)
}

// CountByExam returns the number of participant rows of an exam.
func (r *ParticipantRepository) CountByExam(ctx context.Context, examID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exam_participants WHERE exam_id = $1`, examID).Scan(&n)
	return n, err
}

func (r *ParticipantRepository) list(ctx context.Context, sql string, args ...any) ([]model.Participant, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := scanParticipant(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListAnswers returns a student's graded answers for an exam in question order.
func (r *ParticipantRepository) ListAnswers(ctx context.Context, examID uuid.UUID, studentID int) ([]model.Answer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.exam_id, a.student_id, a.question_id, a.selected_answer, a.is_correct, a.marks_awarded
		 FROM exam_answers a JOIN questions q ON q.id = a.question_id
		 WHERE a.exam_id = $1 AND a.student_id = $2
		 ORDER BY q.order_num, q.id`, examID, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.ExamID, &a.StudentID, &a.QuestionID, &a.SelectedAnswer, &a.IsCorrect, &a.MarksAwarded); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
