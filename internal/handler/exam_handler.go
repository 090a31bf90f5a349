package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stemsi/lms-backend/internal/response"
	"github.com/stemsi/lms-backend/internal/service"
	"github.com/stemsi/lms-backend/internal/validator"
)

// ExamHandler handles the staff exam endpoints.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// CreateExam godoc
// POST /api/v1/exams
// Creates an exam with its questions. Locked unless "locked": false is sent.
func (h *ExamHandler) CreateExam(c *gin.Context) {
	actor, ok := actorOrFail(c)
	if !ok {
		return
	}

	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), &req, actor)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, exam)
}

// ListExams godoc
// GET /api/v1/exams
// Admins see all exams; teachers see the ones they own or created.
func (h *ExamHandler) ListExams(c *gin.Context) {
	actor, ok := actorOrFail(c)
	if !ok {
		return
	}
	page, perPage := pageQuery(c)

	exams, pagination, err := h.examService.List(c.Request.Context(), actor, page, perPage)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, pagination)
}

// GetExam godoc
// GET /api/v1/exams/:exam_id
func (h *ExamHandler) GetExam(c *gin.Context) {
	actor, ok := actorOrFail(c)
	if !ok {
		return
	}
	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	exam, err := h.examService.Get(c.Request.Context(), examID, actor)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, exam)
}

// LockExam godoc
// PUT /api/v1/exams/:exam_id/lock
func (h *ExamHandler) LockExam(c *gin.Context) {
	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	exam, err := h.examService.Lock(c.Request.Context(), examID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// UnlockExam godoc
// PUT /api/v1/exams/:exam_id/unlock
func (h *ExamHandler) UnlockExam(c *gin.Context) {
	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	exam, err := h.examService.Unlock(c.Request.Context(), examID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// UpdateStatus godoc
// PUT /api/v1/exams/:exam_id/status
func (h *ExamHandler) UpdateStatus(c *gin.Context) {
	actor, ok := actorOrFail(c)
	if !ok {
		return
	}
	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	var req model.UpdateExamStatusRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.UpdateStatus(c.Request.Context(), examID, req.Status, actor)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// ReplaceQuestions godoc
// PUT /api/v1/exams/:exam_id/questions
func (h *ExamHandler) ReplaceQuestions(c *gin.Context) {
	actor, ok := actorOrFail(c)
	if !ok {
		return
	}
	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.ReplaceQuestions(c.Request.Context(), examID, req.Questions, actor)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, exam)
}

// DeleteExam godoc
// DELETE /api/v1/exams/:exam_id
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	actor, ok := actorOrFail(c)
	if !ok {
		return
	}
	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), examID, actor); err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// PublishResults godoc
// POST /api/v1/exams/:exam_id/publish-results
// Publishes results and notifies every submitted participant.
func (h *ExamHandler) PublishResults(c *gin.Context) {
	actor, ok := actorOrFail(c)
	if !ok {
		return
	}
	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	res, err := h.examService.PublishResults(c.Request.Context(), examID, actor)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// ListParticipants godoc
// GET /api/v1/exams/:exam_id/participants
func (h *ExamHandler) ListParticipants(c *gin.Context) {
	actor, ok := actorOrFail(c)
	if !ok {
		return
	}
	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	participants, err := h.examService.ListParticipants(c.Request.Context(), examID, actor)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"participants": participants})
}
