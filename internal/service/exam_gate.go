package service

import (
	"time"

	"github.com/stemsi/lms-backend/internal/model"
)

// DefaultJoinWindow is how long before the scheduled start students may join.
const DefaultJoinWindow = 20 * time.Minute

// ExamGate decides whether a student may join or take an exam.
type ExamGate struct {
	JoinWindow time.Duration
}

// NewExamGate creates a gate. A non-positive window falls back to DefaultJoinWindow.
func NewExamGate(window time.Duration) ExamGate {
	if window <= 0 {
		window = DefaultJoinWindow
	}
	return ExamGate{JoinWindow: window}
}

// Window returns the inclusive join window [scheduled_at - JoinWindow, scheduled_at].
func (g ExamGate) Window(e *model.Exam) (opens, closes time.Time) {
	return e.ScheduledAt.Add(-g.JoinWindow), e.ScheduledAt
}

// CheckJoin returns nil iff the exam is unlocked and now lies in the join window.
func (g ExamGate) CheckJoin(e *model.Exam, now time.Time) error {
	if e.Locked {
		return ErrExamLocked
	}
	opens, closes := g.Window(e)
	if now.Before(opens) {
		return ErrJoinWindowNotOpen
	}
	if now.After(closes) {
		return ErrJoinWindowClosed
	}
	return nil
}

// CanJoin reports whether CheckJoin passes.
func (g ExamGate) CanJoin(e *model.Exam, now time.Time) bool {
	return g.CheckJoin(e, now) == nil
}

// CheckTake requires the exam to be unlocked and neither completed nor
// cancelled. It guards both taking and submitting.
func (g ExamGate) CheckTake(e *model.Exam) error {
	if e.Locked {
		return ErrExamLocked
	}
	if e.Status.Closed() {
		return ErrExamClosed
	}
	return nil
}
