package courses

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// keyPrefix is the keyspace for course documents.
const keyPrefix = "courses:"

// Store persists the course catalog.
type Store interface {
	Get(ctx context.Context, id string) (*Course, error)
	List(ctx context.Context) ([]*Course, error)
	Create(ctx context.Context, course *Course) error
	Update(ctx context.Context, course *Course) error
	Delete(ctx context.Context, id string) error
}

// RedisStore stores courses as JSON blobs, one key per course.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client. The catalog shares a
// connection with the authorization record store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Course, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to read course %s: %w", id, err)
	}

	var course Course
	if err := json.Unmarshal([]byte(data), &course); err != nil {
		return nil, fmt.Errorf("corrupt course document %s: %w", id, err)
	}
	return &course, nil
}

func (s *RedisStore) List(ctx context.Context) ([]*Course, error) {
	var result []*Course

	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Result()
		if err == redis.Nil {
			continue
		} else if err != nil {
			return nil, fmt.Errorf("failed to read course %s: %w", iter.Val(), err)
		}

		var course Course
		if err := json.Unmarshal([]byte(data), &course); err != nil {
			return nil, fmt.Errorf("corrupt course document %s: %w", iter.Val(), err)
		}
		result = append(result, &course)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *RedisStore) Create(ctx context.Context, course *Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	return s.write(ctx, course)
}

func (s *RedisStore) Update(ctx context.Context, course *Course) error {
	existing, err := s.Get(ctx, course.ID)
	if err != nil {
		return err
	}
	course.CreatedAt = existing.CreatedAt
	course.UpdatedAt = time.Now().UTC()
	return s.write(ctx, course)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	deleted, err := s.client.Del(ctx, keyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete course %s: %w", id, err)
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) write(ctx context.Context, course *Course) error {
	data, err := json.Marshal(course)
	if err != nil {
		return fmt.Errorf("failed to marshal course: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+course.ID, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write course %s: %w", course.ID, err)
	}
	return nil
}

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	courses map[string]*Course
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{courses: make(map[string]*Course)}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	course, ok := s.courses[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *course
	return &copied, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Course, 0, len(s.courses))
	for _, course := range s.courses {
		copied := *course
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) Create(ctx context.Context, course *Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	copied := *course
	s.courses[course.ID] = &copied
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, course *Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.courses[course.ID]
	if !ok {
		return ErrNotFound
	}
	course.CreatedAt = existing.CreatedAt
	course.UpdatedAt = time.Now().UTC()

	copied := *course
	s.courses[course.ID] = &copied
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[id]; !ok {
		return ErrNotFound
	}
	delete(s.courses, id)
	return nil
}
