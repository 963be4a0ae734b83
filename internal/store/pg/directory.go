package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"auditline.org/internal/directory"
	"auditline.org/internal/ids"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

var _ directory.Store = (*Store)(nil)

func (s *Store) CreateCompany(ctx context.Context, name string) (directory.Company, error) {
	id := ids.New()
	var c directory.Company
	row := s.db.QueryRowContext(ctx, `
		insert into companies (id, name)
		values ($1, $2)
		returning id, name, created_at, updated_at
	`, id, name)
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return directory.Company{}, fmt.Errorf("%w: company %q already exists", directory.ErrConflict, name)
		}
		return directory.Company{}, err
	}
	return c, nil
}

func (s *Store) ListCompanies(ctx context.Context) ([]directory.Company, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, created_at, updated_at
		from companies
		order by name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []directory.Company
	for rows.Next() {
		var c directory.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) GetCompany(ctx context.Context, id string) (directory.Company, error) {
	var c directory.Company
	row := s.db.QueryRowContext(ctx, `
		select id, name, created_at, updated_at from companies where id=$1
	`, id)
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return directory.Company{}, fmt.Errorf("%w: company %s", directory.ErrNotFound, id)
		}
		return directory.Company{}, err
	}
	return c, nil
}

// DeleteCompany relies on ON DELETE CASCADE for teams and projects.
func (s *Store) DeleteCompany(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from companies where id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: company %s", directory.ErrNotFound, id)
	}
	return nil
}

func (s *Store) CreateTeam(ctx context.Context, companyID, name string) (directory.Team, error) {
	id := ids.New()
	var t directory.Team
	row := s.db.QueryRowContext(ctx, `
		insert into teams (id, company_id, name)
		values ($1, $2, $3)
		returning id, company_id, name, created_at, updated_at
	`, id, companyID, name)
	if err := row.Scan(&t.ID, &t.CompanyID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return directory.Team{}, fmt.Errorf("%w: company %s", directory.ErrNotFound, companyID)
		}
		return directory.Team{}, err
	}
	return t, nil
}

func (s *Store) ListTeams(ctx context.Context, companyID string) ([]directory.Team, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, company_id, name, created_at, updated_at
		from teams where company_id=$1
		order by name
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []directory.Team
	for rows.Next() {
		var t directory.Team
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (s *Store) DeleteTeam(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from teams where id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: team %s", directory.ErrNotFound, id)
	}
	return nil
}

func (s *Store) CreateProject(ctx context.Context, companyID, name string) (directory.Project, error) {
	id := ids.New()
	var p directory.Project
	row := s.db.QueryRowContext(ctx, `
		insert into projects (id, company_id, name)
		values ($1, $2, $3)
		returning id, company_id, name, created_at, updated_at
	`, id, companyID, name)
	if err := row.Scan(&p.ID, &p.CompanyID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return directory.Project{}, fmt.Errorf("%w: company %s", directory.ErrNotFound, companyID)
		}
		return directory.Project{}, err
	}
	return p, nil
}

func (s *Store) ListProjects(ctx context.Context, companyID string) ([]directory.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, company_id, name, created_at, updated_at
		from projects where company_id=$1
		order by name
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []directory.Project
	for rows.Next() {
		var p directory.Project
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from projects where id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: project %s", directory.ErrNotFound, id)
	}
	return nil
}

func (s *Store) CreateRole(ctx context.Context, name, description string) (directory.RoleDef, error) {
	id := ids.New()
	var (
		r   directory.RoleDef
		raw []byte
	)
	row := s.db.QueryRowContext(ctx, `
		insert into roles (id, name, description, permissions)
		values ($1, $2, $3, '[]'::jsonb)
		returning id, name, description, permissions, created_at, updated_at
	`, id, name, description)
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &raw, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return directory.RoleDef{}, fmt.Errorf("%w: role %q already exists", directory.ErrConflict, name)
		}
		return directory.RoleDef{}, err
	}
	if err := decodePermissions(raw, &r); err != nil {
		return directory.RoleDef{}, err
	}
	return r, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]directory.RoleDef, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, description, permissions, created_at, updated_at
		from roles
		order by name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []directory.RoleDef
	for rows.Next() {
		var (
			r   directory.RoleDef
			raw []byte
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &raw, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		if err := decodePermissions(raw, &r); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *Store) GetRole(ctx context.Context, id string) (directory.RoleDef, error) {
	var (
		r   directory.RoleDef
		raw []byte
	)
	row := s.db.QueryRowContext(ctx, `
		select id, name, description, permissions, created_at, updated_at
		from roles where id=$1
	`, id)
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &raw, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return directory.RoleDef{}, fmt.Errorf("%w: role %s", directory.ErrNotFound, id)
		}
		return directory.RoleDef{}, err
	}
	if err := decodePermissions(raw, &r); err != nil {
		return directory.RoleDef{}, err
	}
	return r, nil
}

func (s *Store) SetRolePermissions(ctx context.Context, roleID string, permissions []string) error {
	if permissions == nil {
		permissions = []string{}
	}
	encoded, err := json.Marshal(permissions)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		update roles set permissions=$2, updated_at=now() where id=$1
	`, roleID, encoded)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: role %s", directory.ErrNotFound, roleID)
	}
	return nil
}

func decodePermissions(raw []byte, r *directory.RoleDef) error {
	r.Permissions = []string{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &r.Permissions); err != nil {
		return fmt.Errorf("decode permissions for role %s: %w", r.ID, err)
	}
	return nil
}

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
