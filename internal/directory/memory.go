package directory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"auditline.org/internal/ids"
)

// Memory is an in-memory Store used by tests and single-node deployments.
type Memory struct {
	mu        sync.RWMutex
	companies map[string]Company
	teams     map[string]Team
	projects  map[string]Project
	roles     map[string]RoleDef
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		companies: make(map[string]Company),
		teams:     make(map[string]Team),
		projects:  make(map[string]Project),
		roles:     make(map[string]RoleDef),
	}
}

func (m *Memory) CreateCompany(_ context.Context, name string) (Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.companies {
		if strings.EqualFold(c.Name, name) {
			return Company{}, fmt.Errorf("%w: company %q already exists", ErrConflict, name)
		}
	}
	now := time.Now().UTC()
	c := Company{ID: ids.New(), Name: name, CreatedAt: now, UpdatedAt: now}
	m.companies[c.ID] = c
	return c, nil
}

func (m *Memory) ListCompanies(_ context.Context) ([]Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Company, 0, len(m.companies))
	for _, c := range m.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) GetCompany(_ context.Context, id string) (Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.companies[id]
	if !ok {
		return Company{}, fmt.Errorf("%w: company %s", ErrNotFound, id)
	}
	return c, nil
}

// DeleteCompany removes a company along with its teams and projects.
func (m *Memory) DeleteCompany(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[id]; !ok {
		return fmt.Errorf("%w: company %s", ErrNotFound, id)
	}
	delete(m.companies, id)
	for tid, t := range m.teams {
		if t.CompanyID == id {
			delete(m.teams, tid)
		}
	}
	for pid, p := range m.projects {
		if p.CompanyID == id {
			delete(m.projects, pid)
		}
	}
	return nil
}

func (m *Memory) CreateTeam(_ context.Context, companyID, name string) (Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[companyID]; !ok {
		return Team{}, fmt.Errorf("%w: company %s", ErrNotFound, companyID)
	}
	now := time.Now().UTC()
	t := Team{ID: ids.New(), CompanyID: companyID, Name: name, CreatedAt: now, UpdatedAt: now}
	m.teams[t.ID] = t
	return t, nil
}

func (m *Memory) ListTeams(_ context.Context, companyID string) ([]Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Team, 0)
	for _, t := range m.teams {
		if t.CompanyID == companyID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) DeleteTeam(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.teams[id]; !ok {
		return fmt.Errorf("%w: team %s", ErrNotFound, id)
	}
	delete(m.teams, id)
	return nil
}

func (m *Memory) CreateProject(_ context.Context, companyID, name string) (Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[companyID]; !ok {
		return Project{}, fmt.Errorf("%w: company %s", ErrNotFound, companyID)
	}
	now := time.Now().UTC()
	p := Project{ID: ids.New(), CompanyID: companyID, Name: name, CreatedAt: now, UpdatedAt: now}
	m.projects[p.ID] = p
	return p, nil
}

func (m *Memory) ListProjects(_ context.Context, companyID string) ([]Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Project, 0)
	for _, p := range m.projects {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) DeleteProject(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	delete(m.projects, id)
	return nil
}

func (m *Memory) CreateRole(_ context.Context, name, description string) (RoleDef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.roles {
		if strings.EqualFold(r.Name, name) {
			return RoleDef{}, fmt.Errorf("%w: role %q already exists", ErrConflict, name)
		}
	}
	now := time.Now().UTC()
	r := RoleDef{ID: ids.New(), Name: name, Description: description, Permissions: []string{}, CreatedAt: now, UpdatedAt: now}
	m.roles[r.ID] = r
	return cloneRole(r), nil
}

func (m *Memory) ListRoles(_ context.Context) ([]RoleDef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoleDef, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, cloneRole(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) GetRole(_ context.Context, id string) (RoleDef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.roles[id]
	if !ok {
		return RoleDef{}, fmt.Errorf("%w: role %s", ErrNotFound, id)
	}
	return cloneRole(r), nil
}

func (m *Memory) SetRolePermissions(_ context.Context, roleID string, permissions []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[roleID]
	if !ok {
		return fmt.Errorf("%w: role %s", ErrNotFound, roleID)
	}
	r.Permissions = append([]string(nil), permissions...)
	r.UpdatedAt = time.Now().UTC()
	m.roles[roleID] = r
	return nil
}

func cloneRole(r RoleDef) RoleDef {
	r.Permissions = append([]string(nil), r.Permissions...)
	return r
}
