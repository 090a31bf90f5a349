package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/lms-backend/internal/config"
	"github.com/stemsi/lms-backend/internal/model"
)

// RedisAnnouncementStore persists announcements in a Redis hash so they
// survive process restarts.
type RedisAnnouncementStore struct {
	rdb *redis.Client
}

// NewRedisAnnouncementStore creates a new RedisAnnouncementStore.
func NewRedisAnnouncementStore(rdb *redis.Client) *RedisAnnouncementStore {
	return &RedisAnnouncementStore{rdb: rdb}
}

// Add stores an announcement keyed by its ID.
func (s *RedisAnnouncementStore) Add(ctx context.Context, a model.Announcement) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal announcement: %w", err)
	}
	return s.rdb.HSet(ctx, config.CacheKey.AnnouncementsKey(), a.ID, data).Err()
}

// List returns all announcements newest first.
func (s *RedisAnnouncementStore) List(ctx context.Context) ([]model.Announcement, error) {
	raw, err := s.rdb.HGetAll(ctx, config.CacheKey.AnnouncementsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}

	out := make([]model.Announcement, 0, len(raw))
	for _, v := range raw {
		var a model.Announcement
		if err := json.Unmarshal([]byte(v), &a); err != nil {
			continue
		}
		out = append(out, a)
	}
	SortAnnouncements(out)
	return out, nil
}

// Delete removes an announcement, returning ErrNotFound if it is absent.
func (s *RedisAnnouncementStore) Delete(ctx context.Context, id string) error {
	n, err := s.rdb.HDel(ctx, config.CacheKey.AnnouncementsKey(), id).Result()
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SortAnnouncements orders announcements newest first, the order every store returns.
func SortAnnouncements(list []model.Announcement) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
