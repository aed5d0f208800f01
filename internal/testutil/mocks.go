package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/serviceinfo/serviceinfo/internal/domain/area"
	"github.com/serviceinfo/serviceinfo/internal/domain/provider"
	"github.com/serviceinfo/serviceinfo/internal/domain/search"
	"github.com/serviceinfo/serviceinfo/internal/domain/service"
	"github.com/serviceinfo/serviceinfo/internal/domain/user"
	"github.com/serviceinfo/serviceinfo/internal/pkg/errors"
	"github.com/serviceinfo/serviceinfo/internal/pkg/i18n"
)

// MockUserRepository is a mock implementation of user.Repository
type MockUserRepository struct {
	mu          sync.Mutex
	Users       map[int64]*user.User
	EmailIndex  map[string]*user.User
	Tokens      map[string]*user.APIToken
	NextID      int64
	CreateError error
	GetError    error
	UpdateError error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:      make(map[int64]*user.User),
		EmailIndex: make(map[string]*user.User),
		Tokens:     make(map[string]*user.APIToken),
		NextID:     1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	if _, ok := m.EmailIndex[u.Email]; ok {
		return errors.Conflict("A user with this email already exists")
	}
	u.ID = m.NextID
	m.NextID++
	m.Users[u.ID] = u
	m.EmailIndex[u.Email] = u
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.Users[id]
	if !ok {
		return nil, errors.NotFound("User")
	}
	return u, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.EmailIndex[email]
	if !ok {
		return nil, errors.NotFound("User")
	}
	return u, nil
}

func (m *MockUserRepository) GetByActivationKey(ctx context.Context, key string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	for _, u := range m.Users {
		if u.ActivationKey != "" && u.ActivationKey == key {
			return u, nil
		}
	}
	return nil, errors.NotFound("User")
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.Users[u.ID]; !ok {
		return errors.NotFound("User")
	}
	m.Users[u.ID] = u
	m.EmailIndex[u.Email] = u
	return nil
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*user.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var users []*user.User
	for _, u := range m.Users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return page(users, limit, offset), int64(len(users)), nil
}

func (m *MockUserRepository) CreateToken(ctx context.Context, t *user.APIToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Tokens {
		if existing.UserID == t.UserID {
			return errors.Conflict("User already has a token")
		}
	}
	m.Tokens[t.Key] = t
	return nil
}

func (m *MockUserRepository) GetToken(ctx context.Context, key string) (*user.APIToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Tokens[key]
	if !ok {
		return nil, errors.NotFound("Token")
	}
	return t, nil
}

func (m *MockUserRepository) GetTokenForUser(ctx context.Context, userID int64) (*user.APIToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.Tokens {
		if t.UserID == userID {
			return t, nil
		}
	}
	return nil, errors.NotFound("Token")
}

// MockProviderRepository is a mock implementation of provider.Repository
type MockProviderRepository struct {
	mu          sync.Mutex
	Providers   map[int64]*provider.Provider
	Types       map[int64]*provider.ProviderType
	NextID      int64
	CreateError error
}

func NewMockProviderRepository() *MockProviderRepository {
	return &MockProviderRepository{
		Providers: make(map[int64]*provider.Provider),
		Types: map[int64]*provider.ProviderType{
			1: {ID: 1, Number: 1, Name: i18nText("Local NGO")},
			2: {ID: 2, Number: 2, Name: i18nText("International NGO")},
		},
		NextID: 1,
	}
}

func (m *MockProviderRepository) Create(ctx context.Context, p *provider.Provider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	for _, existing := range m.Providers {
		if existing.UserID == p.UserID {
			return errors.Conflict("User already has a provider")
		}
	}
	p.ID = m.NextID
	m.NextID++
	m.Providers[p.ID] = p
	return nil
}

func (m *MockProviderRepository) GetByID(ctx context.Context, id int64) (*provider.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Providers[id]
	if !ok {
		return nil, errors.NotFound("Provider")
	}
	return p, nil
}

func (m *MockProviderRepository) GetByUserID(ctx context.Context, userID int64) (*provider.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Providers {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, errors.NotFound("Provider")
}

func (m *MockProviderRepository) Update(ctx context.Context, p *provider.Provider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Providers[p.ID]; !ok {
		return errors.NotFound("Provider")
	}
	m.Providers[p.ID] = p
	return nil
}

func (m *MockProviderRepository) List(ctx context.Context, limit, offset int) ([]*provider.Provider, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var providers []*provider.Provider
	for _, p := range m.Providers {
		providers = append(providers, p)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i].ID < providers[j].ID })
	return page(providers, limit, offset), int64(len(providers)), nil
}

func (m *MockProviderRepository) GetType(ctx context.Context, id int64) (*provider.ProviderType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Types[id]
	if !ok {
		return nil, errors.NotFound("Provider type")
	}
	return t, nil
}

func (m *MockProviderRepository) ListTypes(ctx context.Context) ([]*provider.ProviderType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var types []*provider.ProviderType
	for _, t := range m.Types {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Number < types[j].Number })
	return types, nil
}

// MockServiceRepository is a mock implementation of service.Repository
type MockServiceRepository struct {
	mu       sync.Mutex
	Services map[int64]*service.Service
	Types    map[int64]*service.ServiceType
	NextID   int64
}

func NewMockServiceRepository() *MockServiceRepository {
	return &MockServiceRepository{
		Services: make(map[int64]*service.Service),
		Types: map[int64]*service.ServiceType{
			1: {ID: 1, Number: 1, Name: i18nText("Education")},
			2: {ID: 2, Number: 2, Name: i18nText("Health")},
		},
		NextID: 1,
	}
}

func (m *MockServiceRepository) Create(ctx context.Context, s *service.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.Status == "" {
		s.Status = service.StatusDraft
	}
	s.ID = m.NextID
	m.NextID++
	m.Services[s.ID] = s
	return nil
}

func (m *MockServiceRepository) GetByID(ctx context.Context, id int64) (*service.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Services[id]
	if !ok {
		return nil, errors.NotFound("Service")
	}
	copied := *s
	return &copied, nil
}

func (m *MockServiceRepository) List(ctx context.Context, filter service.Filter, limit, offset int) ([]*service.Service, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var services []*service.Service
	for _, s := range m.Services {
		if filter.ProviderID != 0 && s.ProviderID != filter.ProviderID {
			continue
		}
		if filter.AreaID != 0 && s.AreaID != filter.AreaID {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		copied := *s
		services = append(services, &copied)
	}
	sort.Slice(services, func(i, j int) bool { return services[i].ID < services[j].ID })
	return page(services, limit, offset), int64(len(services)), nil
}

func (m *MockServiceRepository) UpdateStatus(ctx context.Context, id int64, from, to service.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Services[id]
	if !ok {
		return errors.NotFound("Service")
	}
	if s.Status != from {
		return errors.Conflict("Service is " + string(s.Status) + ", not " + string(from))
	}
	s.Status = to
	return nil
}

func (m *MockServiceRepository) GetType(ctx context.Context, id int64) (*service.ServiceType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Types[id]
	if !ok {
		return nil, errors.NotFound("Service type")
	}
	return t, nil
}

func (m *MockServiceRepository) ListTypes(ctx context.Context) ([]*service.ServiceType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var types []*service.ServiceType
	for _, t := range m.Types {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Number < types[j].Number })
	return types, nil
}

// MockAreaRepository is a mock implementation of area.Repository
type MockAreaRepository struct {
	mu     sync.Mutex
	Areas  map[int64]*area.ServiceArea
	NextID int64
}

func NewMockAreaRepository() *MockAreaRepository {
	return &MockAreaRepository{
		Areas:  make(map[int64]*area.ServiceArea),
		NextID: 1,
	}
}

func (m *MockAreaRepository) Create(ctx context.Context, a *area.ServiceArea) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.NextID
	m.NextID++
	m.Areas[a.ID] = a
	return nil
}

func (m *MockAreaRepository) GetByID(ctx context.Context, id int64) (*area.ServiceArea, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Areas[id]
	if !ok {
		return nil, errors.NotFound("Service area")
	}
	return a, nil
}

func (m *MockAreaRepository) List(ctx context.Context, limit, offset int) ([]*area.ServiceArea, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var areas []*area.ServiceArea
	for _, a := range m.Areas {
		areas = append(areas, a)
	}
	sort.Slice(areas, func(i, j int) bool { return areas[i].ID < areas[j].ID })
	return page(areas, limit, offset), int64(len(areas)), nil
}

func (m *MockAreaRepository) ChildIDs(ctx context.Context, parentID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []int64{}
	for _, a := range m.Areas {
		if a.ParentID != nil && *a.ParentID == parentID {
			ids = append(ids, a.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// MockSearchRepository is a mock implementation of search.Repository
type MockSearchRepository struct {
	mu      sync.Mutex
	Entries []search.Entry
	Rebuilds int
}

func NewMockSearchRepository() *MockSearchRepository {
	return &MockSearchRepository{}
}

func (m *MockSearchRepository) Replace(ctx context.Context, entries []search.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append([]search.Entry(nil), entries...)
	m.Rebuilds++
	return nil
}

func (m *MockSearchRepository) Search(ctx context.Context, terms []string, limit int) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []int64{}
	for _, e := range m.Entries {
		doc := strings.ToLower(e.Document)
		match := true
		for _, term := range terms {
			if !strings.Contains(doc, strings.ToLower(term)) {
				match = false
				break
			}
		}
		if match {
			ids = append(ids, e.ServiceID)
		}
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func i18nText(en string) i18n.Text {
	return i18n.Text{EN: en}
}
