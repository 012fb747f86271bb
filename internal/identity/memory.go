package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/and161185/goph-auth/internal/errs"
	"github.com/and161185/goph-auth/internal/model"
	"github.com/gofrs/uuid/v5"
)

// Memory is an in-process Resolver keyed by normalized email.
type Memory struct {
	mu    sync.RWMutex
	users map[string]model.Identity
}

// NewMemory constructs an empty resolver.
func NewMemory() *Memory {
	return &Memory{users: make(map[string]model.Identity)}
}

// GetUserByEmail returns the identity registered for email, if any.
func (m *Memory) GetUserByEmail(ctx context.Context, email model.Email) (model.Lookup, error) {
	if err := ctx.Err(); err != nil {
		return model.Lookup{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.users[email.String()]
	return model.Lookup{Found: ok, Identity: id}, nil
}

// CreateUser stores a new identity with a random v4 id.
func (m *Memory) CreateUser(ctx context.Context, email model.Email, name string) (model.Identity, error) {
	if err := ctx.Err(); err != nil {
		return model.Identity{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Identity{}, errs.ErrInvalidName
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return model.Identity{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email.String()]; ok {
		return model.Identity{}, errs.ErrUserAlreadyExists
	}
	id := model.Identity{ID: uid.String(), Email: email.String(), Name: name}
	m.users[email.String()] = id
	return id, nil
}
