package session

// Permission tokens gate feature areas of the audit platform. Roles grant
// them in bulk; the checks in this package are advisory UI gating, the API
// applies the same tokens per route.
const (
	PermMonitor       = "monitor"
	PermUpload        = "upload"
	PermReports       = "reports"
	PermTeams         = "teams"
	PermCompanies     = "companies"
	PermProjects      = "projects"
	PermRoles         = "roles"
	PermReviewCalls   = "reviewcalls"
	PermScore         = "score"
	PermNotes         = "notes"
	PermCoachingCalls = "coachingcalls"
	PermUsers         = "users"
	PermScorecard     = "scorecard"
	PermExportInfo    = "exportinfo"
)

// AllPermissions lists the fixed vocabulary in stable order.
var AllPermissions = []string{
	PermMonitor,
	PermUpload,
	PermReports,
	PermTeams,
	PermCompanies,
	PermProjects,
	PermRoles,
	PermReviewCalls,
	PermScore,
	PermNotes,
	PermCoachingCalls,
	PermUsers,
	PermScorecard,
	PermExportInfo,
}

var permissionSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(AllPermissions))
	for _, p := range AllPermissions {
		set[p] = struct{}{}
	}
	return set
}()

// ValidPermission reports whether token belongs to the fixed vocabulary.
func ValidPermission(token string) bool {
	_, ok := permissionSet[token]
	return ok
}
