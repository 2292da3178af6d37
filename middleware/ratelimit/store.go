package ratelimit

import (
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Store tracks hit counts per key inside a rolling window. A key whose
// window has passed reads as absent.
type Store interface {
	Get(key string) (count int, resetTime time.Time, exists bool)
	Increment(key string, resetTime time.Time) (count int)
	Reset(key string)
}

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*entry
}

type entry struct {
	count     int
	resetTime time.Time
}

func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		data: make(map[string]*entry),
	}

	go store.cleanup()

	return store
}

func (s *MemoryStore) Get(key string) (count int, resetTime time.Time, exists bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.data[key]; ok && time.Now().Before(e.resetTime) {
		return e.count, e.resetTime, true
	}

	return 0, time.Time{}, false
}

func (s *MemoryStore) Increment(key string, resetTime time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.data[key]; ok && time.Now().Before(e.resetTime) {
		e.count++
		return e.count
	}

	s.data[key] = &entry{
		count:     1,
		resetTime: resetTime,
	}

	return 1
}

func (s *MemoryStore) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
}

func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		now := time.Now()

		for key, e := range s.data {
			if now.After(e.resetTime) {
				delete(s.data, key)
			}
		}

		s.mu.Unlock()
	}
}

// RateLimit is the durable hit counter, one row per key.
type RateLimit struct {
	Key       string    `gorm:"primaryKey;size:255"`
	Hits      int       `gorm:"not null"`
	ResetAt   time.Time `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (RateLimit) TableName() string {
	return "rate_limits"
}

// GormStore keeps counters in the database so limits survive restarts and
// hold across replicas. Expired rows are overwritten on the next hit.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(key string) (count int, resetTime time.Time, exists bool) {
	var row RateLimit
	if err := s.db.Where("key = ?", key).First(&row).Error; err != nil {
		return 0, time.Time{}, false
	}

	if time.Now().After(row.ResetAt) {
		return 0, time.Time{}, false
	}

	return row.Hits, row.ResetAt, true
}

func (s *GormStore) Increment(key string, resetTime time.Time) int {
	var hits int

	_ = s.db.Transaction(func(tx *gorm.DB) error {
		var row RateLimit
		err := tx.Where("key = ?", key).First(&row).Error

		switch {
		case err == nil && time.Now().Before(row.ResetAt):
			row.Hits++
			hits = row.Hits
			return tx.Model(&row).Update("hits", row.Hits).Error

		case err == nil:
			// Window rolled over; start a fresh one on the same row.
			hits = 1
			return tx.Model(&row).Updates(map[string]any{
				"hits":     1,
				"reset_at": resetTime,
			}).Error

		case errors.Is(err, gorm.ErrRecordNotFound):
			hits = 1
			createErr := tx.Create(&RateLimit{Key: key, Hits: 1, ResetAt: resetTime}).Error
			if errors.Is(createErr, gorm.ErrDuplicatedKey) {
				// Lost a concurrent first hit; count against the winner's row.
				return tx.Model(&RateLimit{}).Where("key = ?", key).
					Update("hits", gorm.Expr("hits + 1")).Error
			}
			return createErr

		default:
			return err
		}
	})

	return hits
}

func (s *GormStore) Reset(key string) {
	s.db.Where("key = ?", key).Delete(&RateLimit{})
}
