// Package directory manages the organizational entities auditors work
// with: companies, their teams and projects, and the named roles that
// bundle permission tokens.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"auditline.org/internal/session"
)

var (
	ErrInvalidInput = errors.New("directory: invalid input")
	ErrNotFound     = errors.New("directory: not found")
	ErrConflict     = errors.New("directory: resource conflict")
)

// Company is a customer whose calls get audited.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Team groups agents under a company.
type Team struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Project scopes an audit campaign under a company.
type Project struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoleDef is a named bundle of permission tokens assignable to auditors.
type RoleDef struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store describes the persistence operations the directory needs.
type Store interface {
	CreateCompany(ctx context.Context, name string) (Company, error)
	ListCompanies(ctx context.Context) ([]Company, error)
	GetCompany(ctx context.Context, id string) (Company, error)
	DeleteCompany(ctx context.Context, id string) error

	CreateTeam(ctx context.Context, companyID, name string) (Team, error)
	ListTeams(ctx context.Context, companyID string) ([]Team, error)
	DeleteTeam(ctx context.Context, id string) error

	CreateProject(ctx context.Context, companyID, name string) (Project, error)
	ListProjects(ctx context.Context, companyID string) ([]Project, error)
	DeleteProject(ctx context.Context, id string) error

	CreateRole(ctx context.Context, name, description string) (RoleDef, error)
	ListRoles(ctx context.Context) ([]RoleDef, error)
	GetRole(ctx context.Context, id string) (RoleDef, error)
	SetRolePermissions(ctx context.Context, roleID string, permissions []string) error
}

// Service wraps a Store with input validation. All identifiers and names
// are trimmed; empty required fields map to ErrInvalidInput.
type Service struct {
	store Store
}

// NewService constructs the directory service.
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("directory store is required")
	}
	return &Service{store: store}, nil
}

func (s *Service) CreateCompany(ctx context.Context, name string) (Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Company{}, fmt.Errorf("%w: company name is required", ErrInvalidInput)
	}
	return s.store.CreateCompany(ctx, name)
}

func (s *Service) ListCompanies(ctx context.Context) ([]Company, error) {
	return s.store.ListCompanies(ctx)
}

func (s *Service) GetCompany(ctx context.Context, id string) (Company, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Company{}, fmt.Errorf("%w: company_id is required", ErrInvalidInput)
	}
	return s.store.GetCompany(ctx, id)
}

func (s *Service) DeleteCompany(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: company_id is required", ErrInvalidInput)
	}
	return s.store.DeleteCompany(ctx, id)
}

func (s *Service) CreateTeam(ctx context.Context, companyID, name string) (Team, error) {
	companyID = strings.TrimSpace(companyID)
	name = strings.TrimSpace(name)
	if companyID == "" || name == "" {
		return Team{}, fmt.Errorf("%w: company_id and team name are required", ErrInvalidInput)
	}
	return s.store.CreateTeam(ctx, companyID, name)
}

func (s *Service) ListTeams(ctx context.Context, companyID string) ([]Team, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return nil, fmt.Errorf("%w: company_id is required", ErrInvalidInput)
	}
	return s.store.ListTeams(ctx, companyID)
}

func (s *Service) DeleteTeam(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: team_id is required", ErrInvalidInput)
	}
	return s.store.DeleteTeam(ctx, id)
}

func (s *Service) CreateProject(ctx context.Context, companyID, name string) (Project, error) {
	companyID = strings.TrimSpace(companyID)
	name = strings.TrimSpace(name)
	if companyID == "" || name == "" {
		return Project{}, fmt.Errorf("%w: company_id and project name are required", ErrInvalidInput)
	}
	return s.store.CreateProject(ctx, companyID, name)
}

func (s *Service) ListProjects(ctx context.Context, companyID string) ([]Project, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return nil, fmt.Errorf("%w: company_id is required", ErrInvalidInput)
	}
	return s.store.ListProjects(ctx, companyID)
}

func (s *Service) DeleteProject(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: project_id is required", ErrInvalidInput)
	}
	return s.store.DeleteProject(ctx, id)
}

func (s *Service) CreateRole(ctx context.Context, name, description string) (RoleDef, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return RoleDef{}, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	return s.store.CreateRole(ctx, name, strings.TrimSpace(description))
}

func (s *Service) ListRoles(ctx context.Context) ([]RoleDef, error) {
	return s.store.ListRoles(ctx)
}

func (s *Service) GetRole(ctx context.Context, id string) (RoleDef, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return RoleDef{}, fmt.Errorf("%w: role_id is required", ErrInvalidInput)
	}
	return s.store.GetRole(ctx, id)
}

// SetRolePermissions replaces a role's grant with the given tokens. Tokens
// outside the fixed vocabulary are rejected rather than silently dropped,
// so a typo in an admin request cannot shrink a role unnoticed.
func (s *Service) SetRolePermissions(ctx context.Context, roleID string, permissions []string) error {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return fmt.Errorf("%w: role_id is required", ErrInvalidInput)
	}
	cleaned, err := normalizeTokens(permissions)
	if err != nil {
		return err
	}
	return s.store.SetRolePermissions(ctx, roleID, cleaned)
}

func normalizeTokens(tokens []string) ([]string, error) {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(strings.ToLower(t))
		if t == "" {
			continue
		}
		if !session.ValidPermission(t) {
			return nil, fmt.Errorf("%w: unknown permission %q", ErrInvalidInput, t)
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}
