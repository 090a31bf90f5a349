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

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examColumns = `id, title, description, scheduled_at, duration_minutes, total_marks,
	locked, locked_at, status, results_published, results_published_at,
	teacher_id, created_by, creator_role, created_at, updated_at`

func scanExam(row pgx.Row, e *model.Exam) error {
	return row.Scan(&e.ID, &e.Title, &e.Description, &e.ScheduledAt, &e.DurationMinutes, &e.TotalMarks,
		&e.Locked, &e.LockedAt, &e.Status, &e.ResultsPublished, &e.ResultsPublishedAt,
		&e.TeacherID, &e.CreatedBy, &e.CreatorRole, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	if err := scanExam(r.pool.QueryRow(ctx, `SELECT `+examColumns+` FROM exams WHERE id = $1`, id), e); err != nil {
		return nil, mapErr(err)
	}
	return e, nil
}

// List retrieves exams newest first. ownerID > 0 restricts the result to
// exams the user owns or created.
func (r *ExamRepository) List(ctx context.Context, ownerID, limit, offset int) ([]model.Exam, int, error) {
	where := ``
	args := []any{}
	if ownerID > 0 {
		where = ` WHERE teacher_id = $1 OR created_by = $1`
		args = append(args, ownerID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exams`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM exams%s ORDER BY scheduled_at DESC LIMIT $%d OFFSET $%d`,
		examColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	exams, err := r.query(ctx, query, args...)
	return exams, total, err
}

// ListByStatus returns exams in any of the given statuses ordered by schedule.
func (r *ExamRepository) ListByStatus(ctx context.Context, statuses ...model.ExamStatus) ([]model.Exam, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return r.query(ctx,
		`SELECT `+examColumns+` FROM exams WHERE status = ANY($1) ORDER BY scheduled_at`, names)
}

func (r *ExamRepository) query(ctx context.Context, sql string, args ...any) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := scanExam(rows, &e); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// CreateWithQuestions inserts the exam and its question set in one transaction.
// IDs and timestamps are written back into e and questions.
func (r *ExamRepository) CreateWithQuestions(ctx context.Context, e *model.Exam, questions []model.Question) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO exams (title, description, scheduled_at, duration_minutes, total_marks,
			                    locked, locked_at, status, teacher_id, created_by, creator_role)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 RETURNING id, created_at, updated_at`,
			e.Title, e.Description, e.ScheduledAt, e.DurationMinutes, e.TotalMarks,
			e.Locked, e.LockedAt, e.Status, e.TeacherID, e.CreatedBy, e.CreatorRole,
		).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert exam: %w", err)
		}

		for i := range questions {
			questions[i].ExamID = e.ID
		}
		return insertQuestions(ctx, tx, questions)
	})
}

// insertQuestions bulk inserts questions with UNNEST. IDs are generated
// client-side so callers get them without relying on RETURNING order.
func insertQuestions(ctx context.Context, tx pgx.Tx, questions []model.Question) error {
	n := len(questions)
	if n == 0 {
		return nil
	}

	ids := make([]uuid.UUID, n)
	examIDs := make([]uuid.UUID, n)
	texts := make([]string, n)
	optA := make([]string, n)
	optB := make([]string, n)
	optC := make([]string, n)
	optD := make([]string, n)
	correct := make([]string, n)
	marks := make([]int, n)
	orders := make([]int, n)
	for i := range questions {
		if questions[i].ID == uuid.Nil {
			questions[i].ID = uuid.New()
		}
		q := questions[i]
		ids[i] = q.ID
		examIDs[i] = q.ExamID
		texts[i] = q.QuestionText
		optA[i], optB[i], optC[i], optD[i] = q.OptionA, q.OptionB, q.OptionC, q.OptionD
		correct[i] = string(q.CorrectAnswer)
		marks[i] = q.Marks
		orders[i] = q.OrderNum
	}

	_, err := tx.Exec(ctx,
		`INSERT INTO questions (id, exam_id, question_text, option_a, option_b, option_c, option_d,
		                        correct_answer, marks, order_num)
		 SELECT * FROM UNNEST($1::uuid[], $2::uuid[], $3::text[], $4::text[], $5::text[], $6::text[],
		                      $7::text[], $8::text[], $9::int[], $10::int[])`,
		ids, examIDs, texts, optA, optB, optC, optD, correct, marks, orders)
	if err != nil {
		return fmt.Errorf("insert questions: %w", err)
	}
	return nil
}

// ReplaceQuestions swaps the full question set and the exam's total marks.
func (r *ExamRepository) ReplaceQuestions(ctx context.Context, examID uuid.UUID, questions []model.Question, totalMarks int) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE exam_id = $1`, examID); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		for i := range questions {
			questions[i].ExamID = examID
		}
		if err := insertQuestions(ctx, tx, questions); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`UPDATE exams SET total_marks = $1, updated_at = NOW() WHERE id = $2`, totalMarks, examID)
		if err != nil {
			return fmt.Errorf("update total marks: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// SetLocked flips the lock flag. lockedAt is stored as given (nil keeps the
// previous stamp).
func (r *ExamRepository) SetLocked(ctx context.Context, id uuid.UUID, locked bool, lockedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams SET locked = $1, locked_at = COALESCE($2, locked_at), updated_at = NOW()
		 WHERE id = $3`, locked, lockedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus updates an exam's status. Completing an exam marks every
// participant that never submitted as absent in the same transaction.
func (r *ExamRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE exams SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if status != model.ExamStatusCompleted {
			return nil
		}
		_, err = tx.Exec(ctx,
			`UPDATE exam_participants SET status = $1
			 WHERE exam_id = $2 AND status <> $3`,
			model.ParticipantAbsent, id, model.ParticipantSubmitted)
		if err != nil {
			return fmt.Errorf("mark absent: %w", err)
		}
		return nil
	})
}

// MarkResultsPublished sets the published flag and timestamp if they are not
// set yet. It reports whether this call flipped the flag.
func (r *ExamRepository) MarkResultsPublished(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams SET results_published = TRUE, results_published_at = $1, updated_at = NOW()
		 WHERE id = $2 AND results_published = FALSE`, at, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ClearResultsPublished reverts a publish whose notifications could not be sent.
func (r *ExamRepository) ClearResultsPublished(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams SET results_published = FALSE, results_published_at = NULL, updated_at = NOW()
		 WHERE id = $1`, id)
	return err
}

// Delete removes an exam after its answers, participants and questions.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM exam_answers WHERE exam_id = $1`,
			`DELETE FROM exam_participants WHERE exam_id = $1`,
			`DELETE FROM questions WHERE exam_id = $1`,
		} {
			if _, err := tx.Exec(ctx, stmt, id); err != nil {
				return fmt.Errorf("cascade delete: %w", err)
			}
		}
		tag, err := tx.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete exam: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}
