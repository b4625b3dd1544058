package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/orbitlearn/orbit-server/internal/models"
)

// MemoryStore keeps users in process memory. It backs tests and local
// tooling that run without Postgres.
type MemoryStore struct {
	mu           sync.RWMutex
	usersByName  map[string]*models.User
	usersByEmail map[string]*models.User
	usersByID    map[string]*models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		usersByName:  make(map[string]*models.User),
		usersByEmail: make(map[string]*models.User),
		usersByID:    make(map[string]*models.User),
	}
}

func (m *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	_ = ctx

	usernameKey := strings.ToLower(user.Username)
	emailKey := normalizeEmail(user.Email)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.usersByName[usernameKey]; exists {
		return ErrUserExists
	}
	if emailKey != "" {
		if _, exists := m.usersByEmail[emailKey]; exists {
			return ErrEmailExists
		}
	}

	stored := *user
	m.usersByName[usernameKey] = &stored
	m.usersByID[stored.ID] = &stored
	if emailKey != "" {
		m.usersByEmail[emailKey] = &stored
	}

	return nil
}

func (m *MemoryStore) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	_ = ctx

	m.mu.RLock()
	defer m.mu.RUnlock()

	if user, ok := m.usersByName[strings.ToLower(identifier)]; ok {
		copied := *user
		return &copied, nil
	}
	if user, ok := m.usersByEmail[normalizeEmail(identifier)]; ok {
		copied := *user
		return &copied, nil
	}

	return nil, nil
}

func (m *MemoryStore) TouchUpdatedAt(ctx context.Context, id string, at time.Time) error {
	_ = ctx

	m.mu.Lock()
	defer m.mu.Unlock()

	if user, ok := m.usersByID[id]; ok {
		user.UpdatedAt = at
	}

	return nil
}
