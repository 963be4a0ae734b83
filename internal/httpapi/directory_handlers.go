package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"auditline.org/internal/directory"
	"auditline.org/internal/session"
)

type createCompanyRequest struct {
	Name string `json:"name"`
}

type createNamedRequest struct {
	Name string `json:"name"`
}

type createRoleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateRolePermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

func (a *API) handleCompanies(w http.ResponseWriter, r *http.Request) {
	if a.directory == nil {
		writeError(w, r, http.StatusServiceUnavailable, "directory service unavailable")
		return
	}
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermissions(w, r, session.PermCompanies) {
			return
		}
		companies, err := a.directory.ListCompanies(r.Context())
		if err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": companies})
	case http.MethodPost:
		if !a.ensurePermissions(w, r, session.PermCompanies) {
			return
		}
		var req createCompanyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		company, err := a.directory.CreateCompany(r.Context(), req.Name)
		if err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		a.audit(r.Context(), "directory.company.create", map[string]any{
			"company_id": company.ID,
			"name":       company.Name,
		})
		w.Header().Set("Location", fmt.Sprintf("/v1/companies/%s", company.ID))
		writeJSON(w, http.StatusCreated, company)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleCompanyScoped(w http.ResponseWriter, r *http.Request) {
	if a.directory == nil {
		writeError(w, r, http.StatusServiceUnavailable, "directory service unavailable")
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/v1/companies/")
	path = strings.Trim(path, "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	companyID := parts[0]
	switch {
	case len(parts) == 1:
		a.handleCompanyByID(w, r, companyID)
	case len(parts) == 2 && parts[1] == "teams":
		a.handleCompanyTeams(w, r, companyID)
	case len(parts) == 2 && parts[1] == "projects":
		a.handleCompanyProjects(w, r, companyID)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleCompanyByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermissions(w, r, session.PermCompanies) {
			return
		}
		company, err := a.directory.GetCompany(r.Context(), id)
		if err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, company)
	case http.MethodDelete:
		if !a.ensurePermissions(w, r, session.PermCompanies) {
			return
		}
		if err := a.directory.DeleteCompany(r.Context(), id); err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		a.audit(r.Context(), "directory.company.delete", map[string]any{
			"company_id": id,
		})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}

func (a *API) handleCompanyTeams(w http.ResponseWriter, r *http.Request, companyID string) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermissions(w, r, session.PermTeams) {
			return
		}
		teams, err := a.directory.ListTeams(r.Context(), companyID)
		if err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": teams})
	case http.MethodPost:
		if !a.ensurePermissions(w, r, session.PermTeams) {
			return
		}
		var req createNamedRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		team, err := a.directory.CreateTeam(r.Context(), companyID, req.Name)
		if err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		a.audit(r.Context(), "directory.team.create", map[string]any{
			"company_id": companyID,
			"team_id":    team.ID,
		})
		writeJSON(w, http.StatusCreated, team)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleCompanyProjects(w http.ResponseWriter, r *http.Request, companyID string) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermissions(w, r, session.PermProjects) {
			return
		}
		projects, err := a.directory.ListProjects(r.Context(), companyID)
		if err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": projects})
	case http.MethodPost:
		if !a.ensurePermissions(w, r, session.PermProjects) {
			return
		}
		var req createNamedRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		project, err := a.directory.CreateProject(r.Context(), companyID, req.Name)
		if err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		a.audit(r.Context(), "directory.project.create", map[string]any{
			"company_id": companyID,
			"project_id": project.ID,
		})
		writeJSON(w, http.StatusCreated, project)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTeamResource(w http.ResponseWriter, r *http.Request) {
	if a.directory == nil {
		writeError(w, r, http.StatusServiceUnavailable, "directory service unavailable")
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/teams/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	if !a.ensurePermissions(w, r, session.PermTeams) {
		return
	}
	if err := a.directory.DeleteTeam(r.Context(), id); err != nil {
		handleDirectoryError(w, r, err)
		return
	}
	a.audit(r.Context(), "directory.team.delete", map[string]any{"team_id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleProjectResource(w http.ResponseWriter, r *http.Request) {
	if a.directory == nil {
		writeError(w, r, http.StatusServiceUnavailable, "directory service unavailable")
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/projects/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	if !a.ensurePermissions(w, r, session.PermProjects) {
		return
	}
	if err := a.directory.DeleteProject(r.Context(), id); err != nil {
		handleDirectoryError(w, r, err)
		return
	}
	a.audit(r.Context(), "directory.project.delete", map[string]any{"project_id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleRoles(w http.ResponseWriter, r *http.Request) {
	if a.directory == nil {
		writeError(w, r, http.StatusServiceUnavailable, "directory service unavailable")
		return
	}
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermissions(w, r, session.PermRoles) {
			return
		}
		roles, err := a.directory.ListRoles(r.Context())
		if err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": roles})
	case http.MethodPost:
		if !a.ensurePermissions(w, r, session.PermRoles) {
			return
		}
		var req createRoleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		role, err := a.directory.CreateRole(r.Context(), req.Name, req.Description)
		if err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		a.audit(r.Context(), "directory.role.create", map[string]any{
			"role_id": role.ID,
			"name":    role.Name,
		})
		w.Header().Set("Location", fmt.Sprintf("/v1/roles/%s", role.ID))
		writeJSON(w, http.StatusCreated, role)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleRoleResource(w http.ResponseWriter, r *http.Request) {
	if a.directory == nil {
		writeError(w, r, http.StatusServiceUnavailable, "directory service unavailable")
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/roles/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	roleID := parts[0]
	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		if !a.ensurePermissions(w, r, session.PermRoles) {
			return
		}
		role, err := a.directory.GetRole(r.Context(), roleID)
		if err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, role)
	case len(parts) == 2 && parts[1] == "permissions":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		if !a.ensurePermissions(w, r, session.PermRoles) {
			return
		}
		var req updateRolePermissionsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err := a.directory.SetRolePermissions(r.Context(), roleID, req.Permissions); err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		a.audit(r.Context(), "directory.role.permissions.update", map[string]any{
			"role_id": roleID,
			"count":   len(req.Permissions),
		})
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func handleDirectoryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, directory.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, directory.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, directory.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "directory operation failed")
	}
}
