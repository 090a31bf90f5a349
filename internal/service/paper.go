package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/lms-backend/internal/model"
)

// paperSource builds student-facing papers and keeps them in the cache.
type paperSource struct {
	questions QuestionStore
	cache     PaperCache
	log       zerolog.Logger
}

func (p *paperSource) build(ctx context.Context, e *model.Exam) (*model.ExamPaper, error) {
	qs, err := p.questions.ListByExam(ctx, e.ID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	paper := &model.ExamPaper{Exam: *e, Questions: make([]model.QuestionForStudent, len(qs))}
	for i := range qs {
		paper.Questions[i] = qs[i].ForStudent()
	}
	return paper, nil
}

// get serves the paper from cache, loading and caching it on a miss. Cache
// failures degrade to a direct load.
func (p *paperSource) get(ctx context.Context, e *model.Exam) (*model.ExamPaper, error) {
	cached, err := p.cache.Get(ctx, e.ID)
	if err != nil {
		p.log.Warn().Err(err).Str("exam_id", e.ID.String()).Msg("Paper cache read failed")
	}
	if cached != nil {
		cached.Exam = *e
		return cached, nil
	}

	paper, err := p.build(ctx, e)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(ctx, paper); err != nil {
		p.log.Warn().Err(err).Str("exam_id", e.ID.String()).Msg("Paper cache write failed")
	}
	return paper, nil
}

func (p *paperSource) warm(ctx context.Context, e *model.Exam) {
	paper, err := p.build(ctx, e)
	if err == nil {
		err = p.cache.Set(ctx, paper)
	}
	if err != nil {
		p.log.Warn().Err(err).Str("exam_id", e.ID.String()).Msg("Paper cache warm failed")
	}
}

func (p *paperSource) invalidate(ctx context.Context, e *model.Exam) {
	if err := p.cache.Invalidate(ctx, e.ID); err != nil {
		p.log.Warn().Err(err).Str("exam_id", e.ID.String()).Msg("Paper cache invalidate failed")
	}
}
