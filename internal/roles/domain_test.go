package roles_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-admin/meridian/internal/roles"
	_ "github.com/meridian-admin/meridian/internal/testing/guard"
)

var testModules = []string{"user", "role", "project", "report"}

func TestNormalizeCode(t *testing.T) {
	cases := map[string]string{
		"field staff":  "FIELD_STAFF",
		"  admin  ":    "ADMIN",
		"ops manager":  "OPS_MANAGER",
		"ALREADY_DONE": "ALREADY_DONE",
		"a b c":        "A_B_C",
	}
	for input, want := range cases {
		assert.Equal(t, want, roles.NormalizeCode(input), "input %q", input)
	}
}

func TestIsSuperAdminCaseInsensitive(t *testing.T) {
	assert.True(t, roles.IsSuperAdmin("super_admin"))
	assert.True(t, roles.IsSuperAdmin("SUPER_ADMIN"))
	assert.True(t, roles.IsSuperAdmin("Super_Admin"))
	assert.False(t, roles.IsSuperAdmin("SUPER_ADMIN_2"))
	assert.False(t, roles.IsSuperAdmin(""))
}

func TestDraftFromIsTotalOverModules(t *testing.T) {
	stored := roles.Role{
		ID:   "r1",
		Name: "Ops",
		Code: "OPS",
		Permissions: map[string]roles.PermissionSet{
			"user": {View: true, Edit: true},
			// "legacy" predates the current module list and must not leak in.
			"legacy": {Delete: true},
		},
	}

	draft := roles.DraftFrom(stored, testModules)

	require.Len(t, draft.Permissions, len(testModules))
	for _, module := range testModules {
		_, ok := draft.Permissions[module]
		assert.True(t, ok, "module %q missing from draft", module)
	}
	assert.True(t, draft.Permissions["user"].View)
	assert.True(t, draft.Permissions["user"].Edit)
	assert.Equal(t, roles.PermissionSet{}, draft.Permissions["project"])
	assert.Equal(t, roles.PermissionSet{}, draft.Permissions["report"])
	_, leaked := draft.Permissions["legacy"]
	assert.False(t, leaked)
}

func TestDraftFromNilPermissions(t *testing.T) {
	draft := roles.DraftFrom(roles.Role{ID: "r2", Name: "Blank", Code: "BLANK"}, testModules)
	require.Len(t, draft.Permissions, len(testModules))
	for _, module := range testModules {
		assert.Equal(t, roles.PermissionSet{}, draft.Permissions[module])
	}
}

func TestToggleFlipsExactlyOnePair(t *testing.T) {
	draft := roles.NewDraft(testModules)
	draft.Toggle("project", "edit")

	for _, module := range testModules {
		for _, action := range roles.Actions {
			got := draft.Has(module, action)
			if module == "project" && action == "edit" {
				assert.True(t, got)
			} else {
				assert.False(t, got, "unexpected flip at (%s, %s)", module, action)
			}
		}
	}

	draft.Toggle("project", "edit")
	assert.False(t, draft.Has("project", "edit"))
}

func TestToggleIgnoresUnknownPairs(t *testing.T) {
	draft := roles.NewDraft(testModules)
	draft.Toggle("billing", "view")
	draft.Toggle("user", "approve")
	require.Len(t, draft.Permissions, len(testModules))
	for _, module := range testModules {
		assert.Equal(t, roles.PermissionSet{}, draft.Permissions[module])
	}
}

func TestRoleAllowsMissingModule(t *testing.T) {
	role := roles.Role{Code: "OPS"}
	assert.False(t, role.Allows("user", "view"))
}
