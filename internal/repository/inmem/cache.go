package inmem

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stemsi/lms-backend/internal/repository"
)

// PaperCache is an in-memory exam paper cache.
type PaperCache struct {
	mu     sync.Mutex
	papers map[uuid.UUID]model.ExamPaper
}

// NewPaperCache creates an empty PaperCache.
func NewPaperCache() *PaperCache {
	return &PaperCache{papers: make(map[uuid.UUID]model.ExamPaper)}
}

func (c *PaperCache) Get(_ context.Context, examID uuid.UUID) (*model.ExamPaper, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.papers[examID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *PaperCache) Set(_ context.Context, paper *model.ExamPaper) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.papers[paper.Exam.ID] = *paper
	return nil
}

func (c *PaperCache) Invalidate(_ context.Context, examID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.papers, examID)
	return nil
}

// Has reports whether a paper is cached.
func (c *PaperCache) Has(examID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.papers[examID]
	return ok
}

// AnnouncementStore keeps announcements in memory.
type AnnouncementStore struct {
	mu    sync.Mutex
	items map[string]model.Announcement
}

// NewAnnouncementStore creates an empty AnnouncementStore.
func NewAnnouncementStore() *AnnouncementStore {
	return &AnnouncementStore{items: make(map[string]model.Announcement)}
}

func (s *AnnouncementStore) Add(_ context.Context, a model.Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[a.ID] = a
	return nil
}

func (s *AnnouncementStore) List(_ context.Context) ([]model.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Announcement, 0, len(s.items))
	for _, a := range s.items {
		out = append(out, a)
	}
	repository.SortAnnouncements(out)
	return out, nil
}

func (s *AnnouncementStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.items, id)
	return nil
}
