package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stemsi/lms-backend/internal/repository"
)

// AnnouncementService runs the announcement board.
type AnnouncementService struct {
	store    AnnouncementStore
	notifier Notifier
	clock    Clock
	log      zerolog.Logger
}

// NewAnnouncementService creates a new AnnouncementService.
func NewAnnouncementService(store AnnouncementStore, notifier Notifier, clock Clock, log zerolog.Logger) *AnnouncementService {
	return &AnnouncementService{
		store:    store,
		notifier: notifier,
		clock:    clock,
		log:      log.With().Str("component", "announcement_service").Logger(),
	}
}

// Create posts an announcement and broadcasts it to every role.
func (s *AnnouncementService) Create(ctx context.Context, req *model.CreateAnnouncementRequest, actor Actor) (*model.Announcement, error) {
	errs := fieldErrors{}
	if strings.TrimSpace(req.Title) == "" {
		errs.add("title", "title is required")
	}
	if strings.TrimSpace(req.Body) == "" {
		errs.add("body", "body is required")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	a := model.Announcement{
		ID:        uuid.NewString(),
		AuthorID:  actor.ID,
		Title:     strings.TrimSpace(req.Title),
		Body:      req.Body,
		CreatedAt: s.clock.now().UTC(),
	}
	if err := s.store.Add(ctx, a); err != nil {
		return nil, fmt.Errorf("store announcement: %w", err)
	}

	batch := make([]model.Notification, 0, 3)
	for _, role := range []model.Role{model.RoleStudent, model.RoleTeacher, model.RoleAdmin} {
		batch = append(batch, model.Notification{
			RecipientRole: role,
			Title:         a.Title,
			Message:       a.Body,
			Type:          model.NotificationAnnouncement,
			Priority:      model.PriorityNormal,
		})
	}
	if err := s.notifier.Notify(ctx, batch...); err != nil {
		s.log.Error().Err(err).Str("announcement_id", a.ID).Msg("Failed to broadcast announcement")
	}
	return &a, nil
}

// List returns all announcements newest first.
func (s *AnnouncementService) List(ctx context.Context) ([]model.Announcement, error) {
	return s.store.List(ctx)
}

// Delete removes an announcement.
func (s *AnnouncementService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAnnouncementNotFound
		}
		return err
	}
	return nil
}
