package users

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-admin/meridian/internal/roles"
	"github.com/meridian-admin/meridian/internal/shared"
)

// RosterClient defines the back-office API calls the user screen needs.
type RosterClient interface {
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, input Input) (User, error)
	UpdateUser(ctx context.Context, id string, input Input) (User, error)
	DeleteUser(ctx context.Context, id string) error
	ListRoles(ctx context.Context) ([]roles.Role, error)
}

// Service handles user roster logic.
type Service struct {
	client RosterClient
}

// NewService builds Service instance.
func NewService(client RosterClient) *Service {
	return &Service{client: client}
}

// Load fetches the user and role lists concurrently. A failure on either
// request fails the whole load; there is no partial roster.
func (s *Service) Load(ctx context.Context) ([]User, []roles.Role, error) {
	var (
		userList []User
		roleList []roles.Role
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := s.client.ListUsers(ctx)
		if err != nil {
			return err
		}
		userList = list
		return nil
	})
	g.Go(func() error {
		list, err := s.client.ListRoles(ctx)
		if err != nil {
			return err
		}
		roleList = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	joinRoles(userList, roleList)
	return userList, roleList, nil
}

// Find returns one user from a fresh load along with the role list, so the
// edit form can populate its role select. Missing users map to ErrNotFound.
func (s *Service) Find(ctx context.Context, id string) (User, []roles.Role, error) {
	userList, roleList, err := s.Load(ctx)
	if err != nil {
		return User{}, nil, err
	}
	for _, user := range userList {
		if user.ID == id {
			return user, roleList, nil
		}
	}
	return User{}, nil, shared.ErrNotFound
}

// Roles fetches the role list for the create form's role select.
func (s *Service) Roles(ctx context.Context) ([]roles.Role, error) {
	return s.client.ListRoles(ctx)
}

// Create sends a new user to the API and returns the server record with
// its role resolved.
func (s *Service) Create(ctx context.Context, input Input) (User, error) {
	created, err := s.client.CreateUser(ctx, input)
	if err != nil {
		return User{}, err
	}
	s.resolveRole(ctx, &created)
	return created, nil
}

// Update replaces a user record. An empty password in the input never
// reaches the wire, so the stored password is untouched.
func (s *Service) Update(ctx context.Context, id string, input Input) (User, error) {
	updated, err := s.client.UpdateUser(ctx, id, input)
	if err != nil {
		return User{}, err
	}
	s.resolveRole(ctx, &updated)
	return updated, nil
}

// Delete removes a user by identifier.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.client.DeleteUser(ctx, id)
}

// resolveRole joins a single user against the current role list. Failure to
// fetch roles leaves the reference nil; the UI degrades to "No role".
func (s *Service) resolveRole(ctx context.Context, user *User) {
	if user.RoleID == "" {
		return
	}
	roleList, err := s.client.ListRoles(ctx)
	if err != nil {
		return
	}
	single := []User{*user}
	joinRoles(single, roleList)
	*user = single[0]
}

// joinRoles resolves each user's RoleID against the role list. Users whose
// role is absent keep a nil reference.
func joinRoles(userList []User, roleList []roles.Role) {
	byID := make(map[string]*roles.Role, len(roleList))
	for i := range roleList {
		byID[roleList[i].ID] = &roleList[i]
	}
	for i := range userList {
		userList[i].Role = byID[userList[i].RoleID]
	}
}
