package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey holds the JTI of the user's current login.
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("session:%d", userID)
}

// ExamPaperKey holds the student-facing exam paper (no correct answers).
func (r *CacheKeyStruct) ExamPaperKey(examID string) string {
	return fmt.Sprintf("exam:%s:paper", examID)
}

// AnnouncementsKey is the hash of all announcements keyed by ID.
func (r *CacheKeyStruct) AnnouncementsKey() string {
	return "announcements"
}

// UserNotifyChannel is the Pub/Sub channel for notifications addressed to one user.
func (r *CacheKeyStruct) UserNotifyChannel(userID int) string {
	return fmt.Sprintf("notify:user:%d", userID)
}

var CacheKey = NewCacheKeyStruct()
