package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/neonet-app/go-auth"
)

// MemoryUsers is a process local UserRepository. Records are copied on the
// way in and out.
type MemoryUsers struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*auth.User
	order []uuid.UUID
}

var _ auth.UserRepository = (*MemoryUsers)(nil)

// NewMemoryUsers returns an empty repository
func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{
		byID: make(map[uuid.UUID]*auth.User),
	}
}

func (m *MemoryUsers) Init(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryUsers) Create(ctx context.Context, record *auth.User) (*auth.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if record == nil {
		return nil, auth.NewInvalidSearch("user must not be nil", nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.byID {
		if existing.Username == record.Username {
			return nil, auth.NewDuplicateRecord(map[string]any{
				"username": record.Username,
			}, nil)
		}
	}

	stored := record.Clone()
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}

	if _, exists := m.byID[stored.ID]; exists {
		return nil, auth.NewDuplicateRecord(map[string]any{
			"id": stored.ID.String(),
		}, nil)
	}

	if stored.Role == "" {
		stored.Role = auth.RoleUser
	}

	if stored.RefreshTokens == nil {
		stored.RefreshTokens = []string{}
	}

	now := time.Now().UTC()
	stored.CreatedAt = &now
	stored.UpdatedAt = &now

	m.byID[stored.ID] = stored
	m.order = append(m.order, stored.ID)

	return stored.Clone(), nil
}

func (m *MemoryUsers) FindOne(ctx context.Context, criteria auth.SearchUser) (*auth.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if criteria.IsEmpty() {
		return nil, auth.NewNoRowFound(map[string]any{"criteria": "empty"})
	}

	match, err := criteria.Matcher()
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		if u := m.byID[id]; match(u) {
			return u.Clone(), nil
		}
	}

	return nil, auth.NewNoRowFound(nil)
}

func (m *MemoryUsers) FindAll(ctx context.Context, criteria auth.SearchUser) ([]*auth.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	match, err := criteria.Matcher()
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*auth.User{}
	for _, id := range m.order {
		if u := m.byID[id]; match(u) {
			out = append(out, u.Clone())
		}
	}

	return out, nil
}

func (m *MemoryUsers) Update(ctx context.Context, record *auth.User) (*auth.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if record == nil || record.ID == uuid.Nil {
		return nil, auth.NewInvalidSearch("user id is required", nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.byID[record.ID]
	if !ok {
		return nil, auth.NewNoRowFound(map[string]any{"id": record.ID.String()})
	}

	stored := record.Clone()
	stored.Username = current.Username
	stored.CreatedAt = current.CreatedAt
	if stored.RefreshTokens == nil {
		stored.RefreshTokens = []string{}
	}

	now := time.Now().UTC()
	stored.UpdatedAt = &now

	m.byID[stored.ID] = stored

	return stored.Clone(), nil
}

func (m *MemoryUsers) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	uid, err := uuid.Parse(id)
	if err != nil {
		return auth.NewInvalidSearch("invalid user id", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[uid]; !ok {
		return auth.NewNoRowFound(map[string]any{"id": id})
	}

	m.remove(uid)
	return nil
}

func (m *MemoryUsers) DeleteMany(ctx context.Context, criteria auth.SearchUser) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	match, err := criteria.Matcher()
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []uuid.UUID
	for _, id := range m.order {
		if match(m.byID[id]) {
			ids = append(ids, id)
		}
	}

	for _, id := range ids {
		m.remove(id)
	}

	return int64(len(ids)), nil
}

// Len returns the number of stored users
func (m *MemoryUsers) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

func (m *MemoryUsers) remove(id uuid.UUID) {
	delete(m.byID, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}
