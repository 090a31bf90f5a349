package service

import (
	"errors"
	"sort"
	"strings"
)

// Domain errors.
var (
	ErrExamNotFound            = errors.New("exam not found")
	ErrExamLocked              = errors.New("exam is locked")
	ErrExamClosed              = errors.New("exam is completed or cancelled")
	ErrJoinWindowNotOpen       = errors.New("join window has not opened yet")
	ErrJoinWindowClosed        = errors.New("join window has closed")
	ErrAlreadySubmitted        = errors.New("exam already submitted")
	ErrNotExamOwner            = errors.New("not the owner of this exam")
	ErrInvalidStatusTransition = errors.New("invalid exam status transition")
	ErrQuestionsFrozen         = errors.New("questions can only change while the exam is locked and has no participants")
	ErrResultsNotPublished     = errors.New("results are not published yet")
	ErrNotParticipant          = errors.New("student has no record for this exam")

	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrEmailTaken           = errors.New("email already registered")
	ErrSessionInvalid       = errors.New("session invalidated")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrAnnouncementNotFound = errors.New("announcement not found")
)

// ValidationError carries per-field messages for input the service rejects.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// fieldErrors collects validation failures.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}
