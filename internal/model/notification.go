package model

import "time"

// Priority ranks notifications for display.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// NotificationType categorises the event behind a notification.
type NotificationType string

const (
	NotificationExamCreated      NotificationType = "exam_created"
	NotificationResultsPublished NotificationType = "results_published"
	NotificationAnnouncement     NotificationType = "announcement"
)

// Notification is addressed to one user, or to every user of RecipientRole
// when RecipientID is nil.
type Notification struct {
	ID            int64            `json:"id"`
	RecipientRole Role             `json:"recipient_role"`
	RecipientID   *int             `json:"recipient_id,omitempty"`
	Title         string           `json:"title"`
	Message       string           `json:"message"`
	Type          NotificationType `json:"type"`
	Priority      Priority         `json:"priority"`
	IsRead        bool             `json:"is_read"`
	CreatedAt     time.Time        `json:"created_at"`
}

// Announcement is a board message visible to every role.
type Announcement struct {
	ID        string    `json:"id"`
	AuthorID  int       `json:"author_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateAnnouncementRequest is the payload for posting an announcement.
type CreateAnnouncementRequest struct {
	Title string `json:"title" binding:"required,min=3,max=255"`
	Body  string `json:"body" binding:"required,min=1,max=5000"`
}
