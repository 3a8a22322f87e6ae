package roles

import "strings"

// SuperAdminCode is the reserved role code that can never be deleted
// through the console. Comparison is case-insensitive.
const SuperAdminCode = "SUPER_ADMIN"

// Actions enumerates the four permission booleans every module carries.
var Actions = []string{"view", "create", "edit", "delete"}

// PermissionSet holds the per-module permission booleans.
type PermissionSet struct {
	View   bool `json:"view"`
	Create bool `json:"create"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
}

// Get returns the boolean for a named action.
func (p PermissionSet) Get(action string) bool {
	switch action {
	case "view":
		return p.View
	case "create":
		return p.Create
	case "edit":
		return p.Edit
	case "delete":
		return p.Delete
	}
	return false
}

// Role represents a permission grouping managed by the console. The server
// assigns identifiers; the console never generates them.
type Role struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Code        string                   `json:"code"`
	Permissions map[string]PermissionSet `json:"permissions"`
}

// IsSuperAdmin reports whether a role code names the reserved role.
func IsSuperAdmin(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), SuperAdminCode)
}

// IsSuperAdmin reports whether this role is the reserved one. Templates use
// it to suppress the delete control.
func (r Role) IsSuperAdmin() bool {
	return IsSuperAdmin(r.Code)
}

// Allows reports whether the stored mapping grants an action on a module.
// Missing modules read as all-false.
func (r Role) Allows(module, action string) bool {
	return r.Permissions[module].Get(action)
}

// NormalizeCode canonicalizes a role code: trimmed, uppercased, spaces
// replaced with underscores. "field staff" becomes "FIELD_STAFF".
func NormalizeCode(code string) string {
	code = strings.TrimSpace(code)
	code = strings.ReplaceAll(code, " ", "_")
	return strings.ToUpper(code)
}

// Draft is the editable form state for a role. Its permission mapping is
// total over the configured module list regardless of what the stored
// record contains.
type Draft struct {
	ID          string
	Name        string
	Code        string
	Permissions map[string]PermissionSet
}

// NewDraft returns a blank draft with an all-false entry per module.
func NewDraft(modules []string) Draft {
	return Draft{Permissions: defaultPermissions(modules)}
}

// DraftFrom seeds a draft from a stored role. Modules absent from the
// stored record get all-false defaults so records that predate a newly
// introduced module still edit cleanly.
func DraftFrom(role Role, modules []string) Draft {
	perms := defaultPermissions(modules)
	for _, module := range modules {
		if stored, ok := role.Permissions[module]; ok {
			perms[module] = stored
		}
	}
	return Draft{ID: role.ID, Name: role.Name, Code: role.Code, Permissions: perms}
}

// Has reports whether the draft grants an action on a module.
func (d Draft) Has(module, action string) bool {
	return d.Permissions[module].Get(action)
}

// Toggle flips exactly one (module, action) boolean. Unknown pairs are
// ignored so stale form input cannot grow the mapping.
func (d *Draft) Toggle(module, action string) {
	set, ok := d.Permissions[module]
	if !ok {
		return
	}
	switch action {
	case "view":
		set.View = !set.View
	case "create":
		set.Create = !set.Create
	case "edit":
		set.Edit = !set.Edit
	case "delete":
		set.Delete = !set.Delete
	default:
		return
	}
	d.Permissions[module] = set
}

func defaultPermissions(modules []string) map[string]PermissionSet {
	perms := make(map[string]PermissionSet, len(modules))
	for _, module := range modules {
		perms[module] = PermissionSet{}
	}
	return perms
}
