package db

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/errs"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
)

// MemoryStore is a Store held in process memory. It backs handler tests and
// local runs without Postgres; it enforces the same uniqueness rules as the
// schema.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[int]model.User
	masjids  map[int]model.Masjid
	settings map[int]model.Settings
	content  map[int]model.Content
	nextID   int
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int]model.User),
		masjids:  make(map[int]model.Masjid),
		settings: make(map[int]model.Settings),
		content:  make(map[int]model.Content),
		now:      time.Now,
	}
}

func (m *MemoryStore) id() int {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) CreateUser(_ context.Context, email, hashedPassword string, name *string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return 0, fmt.Errorf("email %q: %w", email, errs.ErrConflict)
		}
	}
	now := m.now()
	u := model.User{ID: m.id(), Email: email, HashedPassword: hashedPassword, Name: name, CreatedAt: now, UpdatedAt: now}
	m.users[u.ID] = u
	return u.ID, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *MemoryStore) GetUserByID(_ context.Context, id int) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) UpdateUserProfile(_ context.Context, id int, email string, name *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, errs.ErrNotFound)
	}
	u.Email, u.Name, u.UpdatedAt = email, name, m.now()
	m.users[id] = u
	return nil
}

func (m *MemoryStore) codeTaken(code string, except int) bool {
	for _, ms := range m.masjids {
		if ms.ID != except && strings.EqualFold(ms.Code, code) {
			return true
		}
	}
	return false
}

func (m *MemoryStore) CreateMasjid(_ context.Context, ownerID int, name, code string) (model.Masjid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codeTaken(code, 0) {
		return model.Masjid{}, fmt.Errorf("code %q: %w", code, errs.ErrConflict)
	}
	for _, ms := range m.masjids {
		if ms.CreatedBy == ownerID {
			return model.Masjid{}, fmt.Errorf("user %d already owns a masjid: %w", ownerID, errs.ErrConflict)
		}
	}
	now := m.now()
	ms := model.Masjid{ID: m.id(), Name: name, Code: code, CreatedBy: ownerID, CreatedAt: now, UpdatedAt: now}
	m.masjids[ms.ID] = ms
	return ms, nil
}

func (m *MemoryStore) GetMasjidByOwner(_ context.Context, ownerID int) (model.Masjid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ms := range m.masjids {
		if ms.CreatedBy == ownerID {
			return ms, nil
		}
	}
	return model.Masjid{}, fmt.Errorf("masjid for user %d: %w", ownerID, errs.ErrNotFound)
}

func (m *MemoryStore) GetMasjidByCode(_ context.Context, code string) (model.Masjid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ms := range m.masjids {
		if strings.EqualFold(ms.Code, code) {
			return ms, nil
		}
	}
	return model.Masjid{}, fmt.Errorf("masjid %q: %w", code, errs.ErrNotFound)
}

func (m *MemoryStore) UpdateMasjid(_ context.Context, in model.Masjid) (model.Masjid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.masjids[in.ID]
	if !ok {
		return model.Masjid{}, fmt.Errorf("masjid %d: %w", in.ID, errs.ErrNotFound)
	}
	if m.codeTaken(in.Code, in.ID) {
		return model.Masjid{}, fmt.Errorf("code %q: %w", in.Code, errs.ErrConflict)
	}
	ms.Name, ms.Code = in.Name, in.Code
	ms.Latitude, ms.Longitude, ms.Timezone = in.Latitude, in.Longitude, in.Timezone
	ms.UpdatedAt = m.now()
	m.masjids[ms.ID] = ms
	return ms, nil
}

func (m *MemoryStore) SetMasjidLogo(_ context.Context, masjidID int, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.masjids[masjidID]
	if !ok {
		return fmt.Errorf("masjid %d: %w", masjidID, errs.ErrNotFound)
	}
	ms.LogoURL = &url
	ms.UpdatedAt = m.now()
	m.masjids[masjidID] = ms
	return nil
}

func (m *MemoryStore) GetSettings(_ context.Context, masjidID int) (*model.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[masjidID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryStore) SaveSettings(_ context.Context, s model.Settings) (model.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.masjids[s.MasjidID]; !ok {
		return model.Settings{}, fmt.Errorf("masjid %d: %w", s.MasjidID, errs.ErrNotFound)
	}
	s.UpdatedAt = m.now()
	s.Modules = slices.Clone(s.Modules)
	m.settings[s.MasjidID] = s
	return s, nil
}

func (m *MemoryStore) CreateContent(_ context.Context, c model.Content) (model.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	c.ID, c.CreatedAt, c.UpdatedAt, c.ArchivedAt = m.id(), now, now, nil
	m.content[c.ID] = c
	return c, nil
}

func (m *MemoryStore) GetContent(_ context.Context, masjidID, id int) (model.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.content[id]
	if !ok || c.MasjidID != masjidID {
		return model.Content{}, fmt.Errorf("content %d: %w", id, errs.ErrNotFound)
	}
	return c, nil
}

func (m *MemoryStore) list(masjidID int, kind string, keep func(model.Content) bool) []model.Content {
	out := []model.Content{}
	for _, c := range m.content {
		if c.MasjidID == masjidID && c.Kind == kind && keep(c) {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b model.Content) int { return a.ID - b.ID })
	return out
}

func (m *MemoryStore) ListContent(_ context.Context, masjidID int, kind string, includeArchived bool) ([]model.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.list(masjidID, kind, func(c model.Content) bool { return includeArchived || !c.Archived() })
	slices.Reverse(out)
	return out, nil
}

func (m *MemoryStore) ListVisibleContent(_ context.Context, masjidID int, kind string) ([]model.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(masjidID, kind, func(c model.Content) bool { return c.Visible && !c.Archived() }), nil
}

func (m *MemoryStore) live(masjidID, id int) (model.Content, error) {
	c, ok := m.content[id]
	if !ok || c.MasjidID != masjidID || c.Archived() {
		return model.Content{}, fmt.Errorf("content %d: %w", id, errs.ErrNotFound)
	}
	return c, nil
}

func (m *MemoryStore) UpdateContent(_ context.Context, in model.Content) (model.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.live(in.MasjidID, in.ID)
	if err != nil {
		return model.Content{}, err
	}
	in.Kind, in.CreatedBy, in.CreatedAt = c.Kind, c.CreatedBy, c.CreatedAt
	in.ArchivedAt, in.UpdatedAt = nil, m.now()
	m.content[in.ID] = in
	return in, nil
}

func (m *MemoryStore) ArchiveContent(_ context.Context, masjidID, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.live(masjidID, id)
	if err != nil {
		return err
	}
	now := m.now()
	c.ArchivedAt, c.UpdatedAt = &now, now
	m.content[id] = c
	return nil
}

func (m *MemoryStore) SetContentVisibility(_ context.Context, masjidID, id int, visible bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.live(masjidID, id)
	if err != nil {
		return err
	}
	c.Visible, c.UpdatedAt = visible, m.now()
	m.content[id] = c
	return nil
}

func (m *MemoryStore) ReorderContent(_ context.Context, masjidID int, kind string, ids []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		c, err := m.live(masjidID, id)
		if err != nil {
			return err
		}
		if c.Kind != kind {
			return fmt.Errorf("content %d: %w", id, errs.ErrNotFound)
		}
	}
	now := m.now()
	for idx, id := range ids {
		c := m.content[id]
		order := idx + 1
		c.DisplayOrder, c.UpdatedAt = &order, now
		m.content[id] = c
	}
	return nil
}
