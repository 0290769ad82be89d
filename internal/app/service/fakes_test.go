package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/linkyoself/linkyoself/internal/app/model"
	"github.com/linkyoself/linkyoself/internal/app/repository"
)

type memUserRepository struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*model.User
}

func newMemUserRepository() *memUserRepository {
	return &memUserRepository{users: map[uint]*model.User{}}
}

func (m *memUserRepository) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrDuplicateUser
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *memUserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.ID == id })
}

func (m *memUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Username == username })
}

func (m *memUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Email == email })
}

func (m *memUserRepository) find(match func(u *model.User) bool) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if !u.IsDeleted && match(u) {
			found := *u
			return &found, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memUserRepository) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.User
	for _, u := range m.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if offset >= len(all) {
		return []model.User{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *memUserRepository) ListUsernamesSince(ctx context.Context, afterID uint) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []model.User
	for _, u := range m.users {
		if u.ID > afterID {
			rows = append(rows, model.User{ID: u.ID, Username: u.Username})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (m *memUserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *memUserRepository) UpdatePassword(ctx context.Context, id uint, hashedPassword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.HashedPassword = hashedPassword
	return nil
}

type memTokenRepository struct {
	mu     sync.Mutex
	nextID uint
	tokens map[string]*model.RefreshToken
}

func newMemTokenRepository() *memTokenRepository {
	return &memTokenRepository{tokens: map[string]*model.RefreshToken{}}
}

func (m *memTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	token.ID = m.nextID
	token.CreatedAt = time.Now()
	stored := *token
	m.tokens[token.TokenHash] = &stored
	return nil
}

func (m *memTokenRepository) GetValid(ctx context.Context, tokenHash string, now time.Time) (*model.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenHash]
	if !ok || !t.Valid(now) {
		return nil, repository.ErrTokenNotFound
	}
	found := *t
	return &found, nil
}

func (m *memTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[tokenHash]; ok {
		t.IsRevoked = true
	}
	return nil
}

func (m *memTokenRepository) RevokeAllForUser(ctx context.Context, userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, t := range m.tokens {
		if t.UserID == userID && !t.IsRevoked {
			t.IsRevoked = true
			n++
		}
	}
	return n, nil
}

func (m *memTokenRepository) PurgeStale(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for hash, t := range m.tokens {
		if t.ExpiresAt.Before(cutoff) || (t.IsRevoked && t.CreatedAt.Before(cutoff)) {
			delete(m.tokens, hash)
			n++
		}
	}
	return n, nil
}

func (m *memTokenRepository) activeFor(userID uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tokens {
		if t.UserID == userID && t.Valid(time.Now()) {
			n++
		}
	}
	return n
}

// memLinkRepository keeps the same ordering rules as the GORM repository:
// append at max+1, compact on delete, reorder to 1..N.
type memLinkRepository struct {
	mu     sync.Mutex
	nextID uint
	links  map[uint]*model.Link
	users  *memUserRepository
}

func newMemLinkRepository(users *memUserRepository) *memLinkRepository {
	return &memLinkRepository{links: map[uint]*model.Link{}, users: users}
}

func (m *memLinkRepository) Append(ctx context.Context, link *model.Link) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.users != nil {
		if _, err := m.users.GetByID(ctx, link.UserID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, l := range m.liveLocked(link.UserID) {
		if l.OrderIndex > max {
			max = l.OrderIndex
		}
	}
	m.nextID++
	link.ID = m.nextID
	link.OrderIndex = max + 1
	stored := *link
	m.links[link.ID] = &stored
	return nil
}

func (m *memLinkRepository) GetByID(ctx context.Context, id uint) (*model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[id]
	if !ok || l.IsDeleted {
		return nil, repository.ErrLinkNotFound
	}
	found := *l
	return &found, nil
}

func (m *memLinkRepository) ListByUser(ctx context.Context, userID uint, includeInactive bool) ([]model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Link
	for _, l := range m.liveLocked(userID) {
		if includeInactive || l.IsActive {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memLinkRepository) ListByStatus(ctx context.Context, userID uint, active bool) ([]model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Link
	for _, l := range m.liveLocked(userID) {
		if l.IsActive == active {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memLinkRepository) Search(ctx context.Context, userID uint, term string) ([]model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	term = strings.ToLower(term)
	var out []model.Link
	for _, l := range m.liveLocked(userID) {
		desc := ""
		if l.Description != nil {
			desc = *l.Description
		}
		if strings.Contains(strings.ToLower(l.Title), term) ||
			strings.Contains(strings.ToLower(desc), term) ||
			strings.Contains(strings.ToLower(l.URL), term) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memLinkRepository) Update(ctx context.Context, id, userID uint, patch model.LinkPatch) (*model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[id]
	if !ok || l.IsDeleted || l.UserID != userID {
		return nil, repository.ErrLinkNotFound
	}
	patch.Apply(l)
	l.UpdatedAt = time.Now()
	updated := *l
	return &updated, nil
}

func (m *memLinkRepository) ToggleActive(ctx context.Context, id, userID uint) (*model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[id]
	if !ok || l.IsDeleted || l.UserID != userID {
		return nil, repository.ErrLinkNotFound
	}
	l.IsActive = !l.IsActive
	updated := *l
	return &updated, nil
}

func (m *memLinkRepository) SoftDelete(ctx context.Context, link *model.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[link.ID]
	if !ok || l.IsDeleted || l.UserID != link.UserID {
		return repository.ErrLinkNotFound
	}
	l.IsDeleted = true
	for _, other := range m.liveLocked(l.UserID) {
		if other.OrderIndex > l.OrderIndex {
			other.OrderIndex--
		}
	}
	link.IsDeleted = true
	return nil
}

func (m *memLinkRepository) Reorder(ctx context.Context, userID uint, orderedIDs []uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	live := m.liveLocked(userID)
	current := make([]uint, 0, len(live))
	for _, l := range live {
		current = append(current, l.ID)
	}
	if !repository.SameLinkSet(current, orderedIDs) {
		return repository.ErrLinkSetMismatch
	}
	for i, id := range orderedIDs {
		m.links[id].OrderIndex = i + 1
	}
	return nil
}

func (m *memLinkRepository) IncrementClicks(ctx context.Context, id uint) (*model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[id]
	if !ok || l.IsDeleted {
		return nil, repository.ErrLinkNotFound
	}
	l.ClickCount++
	found := *l
	return &found, nil
}

func (m *memLinkRepository) liveLocked(userID uint) []*model.Link {
	var out []*model.Link
	for _, l := range m.links {
		if l.UserID == userID && !l.IsDeleted {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out
}

type memClickRepository struct {
	mu     sync.Mutex
	events []model.ClickEvent
	err    error
}

func (m *memClickRepository) Create(ctx context.Context, event *model.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, *event)
	return nil
}

func (m *memClickRepository) ListByLink(ctx context.Context, linkID uint, limit int) ([]model.ClickEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ClickEvent
	for _, e := range m.events {
		if e.LinkID == linkID {
			out = append(out, e)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.ClickEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event model.ClickEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type countingMetrics struct {
	mu                          sync.Mutex
	loginOK, loginFail          int
	refreshed, created, clicked int
}

func (c *countingMetrics) LoginAttempt(success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if success {
		c.loginOK++
	} else {
		c.loginFail++
	}
}

func (c *countingMetrics) TokenRefreshed() { c.mu.Lock(); c.refreshed++; c.mu.Unlock() }
func (c *countingMetrics) LinkCreated()    { c.mu.Lock(); c.created++; c.mu.Unlock() }
func (c *countingMetrics) LinkClicked()    { c.mu.Lock(); c.clicked++; c.mu.Unlock() }
