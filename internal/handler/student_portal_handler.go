package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stemsi/lms-backend/internal/response"
	"github.com/stemsi/lms-backend/internal/service"
	"github.com/stemsi/lms-backend/internal/validator"
)

// StudentPortalHandler handles the student exam endpoints.
type StudentPortalHandler struct {
	participationService *service.ParticipationService
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(participationService *service.ParticipationService) *StudentPortalHandler {
	return &StudentPortalHandler{participationService: participationService}
}

// ListAvailable godoc
// GET /api/v1/exams/available
// Lists scheduled and ongoing exams with their join state for the student.
func (h *StudentPortalHandler) ListAvailable(c *gin.Context) {
	actor, ok := actorOrFail(c)
	if !ok {
		return
	}

	exams, err := h.participationService.ListAvailable(c.Request.Context(), actor.ID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// JoinExam godoc
// POST /api/v1/exams/:exam_id/join
// Allowed only while the exam is unlocked and inside the join window.
func (h *StudentPortalHandler) JoinExam(c *gin.Context) {
	actor, ok := actorOrFail(c)
	if !ok {
		return
	}
	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	p, err := h.participationService.Join(c.Request.Context(), examID, actor.ID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"participant": p})
}

// TakeExam godoc
// GET /api/v1/exams/:exam_id/take-exam
// Returns the paper without correct answers.
func (h *StudentPortalHandler) TakeExam(c *gin.Context) {
	actor, ok := actorOrFail(c)
	if !ok {
		return
	}
	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	paper, err := h.participationService.TakeExam(c.Request.Context(), examID, actor.ID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, paper)
}

// SubmitExam godoc
// POST /api/v1/exams/:exam_id/submit
// Grades the answers synchronously and records the submission.
func (h *StudentPortalHandler) SubmitExam(c *gin.Context) {
	actor, ok := actorOrFail(c)
	if !ok {
		return
	}
	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.participationService.Submit(c.Request.Context(), examID, actor.ID, req.Answers)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// MyResult godoc
// GET /api/v1/exams/:exam_id/my-result
func (h *StudentPortalHandler) MyResult(c *gin.Context) {
	actor, ok := actorOrFail(c)
	if !ok {
		return
	}
	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	res, err := h.participationService.MyResult(c.Request.Context(), examID, actor.ID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}
