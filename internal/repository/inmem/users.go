package inmem

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stemsi/lms-backend/internal/repository"
)

// UserStore is the in-memory user table.
type UserStore struct {
	db *DB
}

func (s *UserStore) GetByID(_ context.Context, id int) (*model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	u, ok := s.db.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, u := range s.db.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *UserStore) Create(_ context.Context, u *model.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, existing := range s.db.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrConflict
		}
	}
	s.db.nextUserID++
	now := time.Now()
	u.ID = s.db.nextUserID
	u.CreatedAt, u.UpdatedAt = now, now
	s.db.users[u.ID] = *u
	return nil
}

func (s *UserStore) List(_ context.Context, role model.Role, limit, offset int) ([]model.User, int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var out []model.User
	for _, u := range s.db.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, limit, offset), len(out), nil
}
