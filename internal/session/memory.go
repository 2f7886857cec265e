package session

import (
	"context"
	"sync"
	"time"
)

// CleanupInterval is how often expired sessions are dropped from memory.
const CleanupInterval = 30 * time.Second

type memoryEntry struct {
	values    map[string]string
	expiresAt time.Time
}

// MemoryStorage keeps sessions in process memory. Suitable for a single
// instance and for tests.
type MemoryStorage struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]*memoryEntry
	now      func() time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewMemoryStorage(ttl time.Duration) *MemoryStorage {
	s := &MemoryStorage{
		ttl:         ttl,
		sessions:    make(map[string]*memoryEntry),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

func (s *MemoryStorage) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireSessions()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStorage) expireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for sid, entry := range s.sessions {
		if now.After(entry.expiresAt) {
			delete(s.sessions, sid)
		}
	}
}

// live returns the unexpired entry for sid. Caller holds the lock.
func (s *MemoryStorage) live(sid string) *memoryEntry {
	entry, ok := s.sessions[sid]
	if !ok || s.now().After(entry.expiresAt) {
		return nil
	}
	return entry
}

// touch returns the entry for sid, creating it, and slides its expiry.
// Caller holds the write lock.
func (s *MemoryStorage) touch(sid string) *memoryEntry {
	entry := s.live(sid)
	if entry == nil {
		entry = &memoryEntry{values: make(map[string]string)}
		s.sessions[sid] = entry
	}
	entry.expiresAt = s.now().Add(s.ttl)
	return entry
}

func (s *MemoryStorage) Get(ctx context.Context, sid, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry := s.live(sid)
	if entry == nil {
		return "", ErrNotFound
	}
	value, ok := entry.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *MemoryStorage) Set(ctx context.Context, sid, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch(sid).values[key] = value
	return nil
}

func (s *MemoryStorage) SetIfAbsent(ctx context.Context, sid, key, value string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.touch(sid)
	if existing, ok := entry.values[key]; ok {
		return existing, nil
	}
	entry.values[key] = value
	return value, nil
}

func (s *MemoryStorage) Delete(ctx context.Context, sid, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry := s.live(sid); entry != nil {
		delete(entry.values, key)
	}
	return nil
}

func (s *MemoryStorage) Clear(ctx context.Context, sid string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sid)
	return nil
}

// Close stops the cleanup goroutine.
func (s *MemoryStorage) Close() error {
	s.stopOnce.Do(func() { close(s.stopCleanup) })
	s.wg.Wait()
	return nil
}
