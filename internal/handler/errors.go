package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/lms-backend/internal/middleware"
	"github.com/stemsi/lms-backend/internal/response"
	"github.com/stemsi/lms-backend/internal/service"
)

// failFromError maps service errors onto the response envelope.
func failFromError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, verr.Fields)
		return
	}

	switch {
	case errors.Is(err, service.ErrExamNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrNotParticipant),
		errors.Is(err, service.ErrNotificationNotFound),
		errors.Is(err, service.ErrAnnouncementNotFound):
		response.FailWithError(c, http.StatusNotFound, response.ErrNotFound, err)
	case errors.Is(err, service.ErrExamLocked):
		response.FailWithError(c, http.StatusForbidden, response.ErrExamLocked, err)
	case errors.Is(err, service.ErrExamClosed):
		response.FailWithError(c, http.StatusForbidden, response.ErrExamClosed, err)
	case errors.Is(err, service.ErrJoinWindowNotOpen):
		response.FailWithError(c, http.StatusForbidden, response.ErrJoinWindowNotOpen, err)
	case errors.Is(err, service.ErrJoinWindowClosed):
		response.FailWithError(c, http.StatusForbidden, response.ErrJoinWindowClosed, err)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.FailWithError(c, http.StatusForbidden, response.ErrAlreadySubmitted, err)
	case errors.Is(err, service.ErrNotExamOwner):
		response.FailWithError(c, http.StatusForbidden, response.ErrNotExamOwner, err)
	case errors.Is(err, service.ErrResultsNotPublished):
		response.FailWithError(c, http.StatusForbidden, response.ErrResultsNotPublished, err)
	case errors.Is(err, service.ErrInvalidStatusTransition):
		response.FailWithError(c, http.StatusConflict, response.ErrInvalidStatusTransition, err)
	case errors.Is(err, service.ErrQuestionsFrozen):
		response.FailWithError(c, http.StatusConflict, response.ErrQuestionsFrozen, err)
	case errors.Is(err, service.ErrEmailTaken):
		response.FailWithError(c, http.StatusConflict, response.ErrConflict, err)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.FailWithError(c, http.StatusUnauthorized, response.ErrInvalidCredentials, err)
	default:
		response.FailWithError(c, http.StatusInternalServerError, response.ErrInternal, err)
	}
}

// actorOrFail returns the authenticated caller, or writes 401 and false.
func actorOrFail(c *gin.Context) (service.Actor, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return service.Actor{}, false
	}
	return claims.Actor(), true
}

// examIDParam parses :exam_id, writing 400 on failure.
func examIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func pageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	return page, perPage
}
