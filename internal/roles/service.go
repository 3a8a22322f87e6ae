package roles

import (
	"context"

	"github.com/meridian-admin/meridian/internal/shared"
)

// Input carries the role create/update payload. Permissions always holds
// the complete module mapping.
type Input struct {
	Name        string                   `json:"name"`
	Code        string                   `json:"code"`
	Permissions map[string]PermissionSet `json:"permissions"`
}

// RosterClient defines the back-office API calls the role screen needs.
type RosterClient interface {
	ListRoles(ctx context.Context) ([]Role, error)
	CreateRole(ctx context.Context, input Input) (Role, error)
	UpdateRole(ctx context.Context, id string, input Input) (Role, error)
	DeleteRole(ctx context.Context, id string) error
}

// Service handles role roster logic. The configured module list bounds
// every permission mapping that leaves this package.
type Service struct {
	client  RosterClient
	modules []string
}

// NewService builds Service instance.
func NewService(client RosterClient, modules []string) *Service {
	return &Service{client: client, modules: modules}
}

// Modules returns the configured module list.
func (s *Service) Modules() []string {
	return s.modules
}

// List fetches all roles from the API.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.client.ListRoles(ctx)
}

// Get returns a single role from a fresh list fetch.
func (s *Service) Get(ctx context.Context, id string) (Role, error) {
	list, err := s.client.ListRoles(ctx)
	if err != nil {
		return Role{}, err
	}
	for _, role := range list {
		if role.ID == id {
			return role, nil
		}
	}
	return Role{}, shared.ErrNotFound
}

// Create sends a new role. The code is normalized and the permission
// mapping completed over every configured module before it hits the wire.
func (s *Service) Create(ctx context.Context, input Input) (Role, error) {
	input.Code = NormalizeCode(input.Code)
	input.Permissions = s.completePermissions(input.Permissions)
	return s.client.CreateRole(ctx, input)
}

// Update replaces a role. The stored code wins over whatever the form
// submitted: codes are write-once.
func (s *Service) Update(ctx context.Context, id string, input Input) (Role, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return Role{}, err
	}
	input.Code = existing.Code
	input.Permissions = s.completePermissions(input.Permissions)
	return s.client.UpdateRole(ctx, id, input)
}

// Delete removes a role unless it is the reserved super-admin role.
func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if IsSuperAdmin(existing.Code) {
		return shared.ErrProtectedRole
	}
	return s.client.DeleteRole(ctx, id)
}

// completePermissions reconciles an arbitrary mapping into a total one:
// for every configured module take the given value if present, else
// all-false. Keys outside the module list are dropped.
func (s *Service) completePermissions(given map[string]PermissionSet) map[string]PermissionSet {
	complete := defaultPermissions(s.modules)
	for _, module := range s.modules {
		if set, ok := given[module]; ok {
			complete[module] = set
		}
	}
	return complete
}
