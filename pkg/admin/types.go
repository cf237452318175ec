package admin

// Record represents the stored fact that an email address has
// administrative rights on the platform, with fine-grained permissions.
type Record struct {
	Key         string          `json:"key"`
	Email       string          `json:"email"`
	Active      bool            `json:"active"`
	Role        string          `json:"role,omitempty"`
	Permissions map[string]bool `json:"permissions"`
}

// Role labels for display/classification. Roles are not used for access
// checks; only the permission map is.
const (
	RoleOwner   = "owner"
	RoleEditor  = "editor"
	RoleSupport = "support"
)

// Permission names for privileged operations. Each privileged endpoint
// declares exactly one of these.
const (
	PermManageCourses = "manage_courses"
	PermManageBlog    = "manage_blog"
	PermManageMedia   = "manage_media"
	PermManageAdmins  = "manage_admins"
)

// HasPermission reports whether the record grants the named permission.
// An inactive record grants nothing.
func (r *Record) HasPermission(name string) bool {
	if r == nil || !r.Active {
		return false
	}
	return r.Permissions[name]
}

// Identity is a verified identity assertion returned by the identity
// provider. Email is the canonical identity; Subject is the provider's
// internal user ID.
type Identity struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
}
