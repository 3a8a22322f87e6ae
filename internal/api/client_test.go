package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-admin/meridian/internal/api"
	"github.com/meridian-admin/meridian/internal/roles"
	"github.com/meridian-admin/meridian/internal/shared"
	"github.com/meridian-admin/meridian/internal/users"
	_ "github.com/meridian-admin/meridian/internal/testing/guard"
)

func TestBearerTokenInjected(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := api.NewClient(server.URL, "tok123")
	_, err := client.ListRoles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", gotAuth)
}

func TestListUsersAcceptsEnvelopeAndBareArray(t *testing.T) {
	bodies := []string{
		`{"users":[{"id":"u1","name":"Ada","email":"ada@x.com","roleId":"r1","isActive":true}]}`,
		`[{"id":"u1","name":"Ada","email":"ada@x.com","roleId":"r1","isActive":true}]`,
	}
	for _, body := range bodies {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		}))
		client := api.NewClient(server.URL, "")
		list, err := client.ListUsers(context.Background())
		server.Close()
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "u1", list[0].ID)
		assert.Equal(t, "Ada", list[0].Name)
		assert.Equal(t, "r1", list[0].RoleID)
		assert.True(t, list[0].IsActive)
	}
}

func TestCreateUserUnwrapsEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users", r.URL.Path)
		_, _ = io.WriteString(w, `{"user":{"id":"u9","name":"Ada","email":"ada@x.com","roleId":"r1"}}`)
	}))
	defer server.Close()

	client := api.NewClient(server.URL, "")
	created, err := client.CreateUser(context.Background(), users.Input{Name: "Ada", Email: "ada@x.com", RoleID: "r1", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "u9", created.ID)
}

func TestUpdateUserOmitsBlankPassword(t *testing.T) {
	var rawBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/users/u1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rawBody))
		_, _ = io.WriteString(w, `{"user":{"id":"u1","name":"Ada","email":"ada@x.com"}}`)
	}))
	defer server.Close()

	client := api.NewClient(server.URL, "")
	_, err := client.UpdateUser(context.Background(), "u1", users.Input{Name: "Ada", Email: "ada@x.com", RoleID: "r1"})
	require.NoError(t, err)

	_, hasPassword := rawBody["password"]
	assert.False(t, hasPassword, "blank password must not reach the wire")
	assert.Equal(t, "Ada", rawBody["name"])
	assert.Equal(t, "r1", rawBody["roleId"])
}

func TestUpdateUserSendsPresentPassword(t *testing.T) {
	var rawBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rawBody))
		_, _ = io.WriteString(w, `{"user":{"id":"u1","name":"Ada","email":"ada@x.com"}}`)
	}))
	defer server.Close()

	client := api.NewClient(server.URL, "")
	_, err := client.UpdateUser(context.Background(), "u1", users.Input{Name: "Ada", Email: "ada@x.com", Password: "newpass1"})
	require.NoError(t, err)
	assert.Equal(t, "newpass1", rawBody["password"])
}

func TestServerMessageSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"message":"email already taken"}`)
	}))
	defer server.Close()

	client := api.NewClient(server.URL, "")
	_, err := client.CreateUser(context.Background(), users.Input{Name: "Ada", Email: "ada@x.com", Password: "secret1"})
	require.Error(t, err)

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "email already taken", apiErr.Message)
	assert.Equal(t, "email already taken", shared.UserMessage(err, "fallback"))
}

func TestErrorWithoutMessageFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := api.NewClient(server.URL, "")
	err := client.DeleteRole(context.Background(), "r1")
	require.Error(t, err)
	assert.Equal(t, "fallback", shared.UserMessage(err, "fallback"))
}

func TestRoleRoundTripShapes(t *testing.T) {
	var rawBody roles.Input
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rawBody))
		_, _ = io.WriteString(w, `{"id":"r1","name":"Field Staff","code":"FIELD_STAFF","permissions":{"user":{"view":true,"create":false,"edit":false,"delete":false}}}`)
	}))
	defer server.Close()

	client := api.NewClient(server.URL, "")
	created, err := client.CreateRole(context.Background(), roles.Input{
		Name: "Field Staff",
		Code: "FIELD_STAFF",
		Permissions: map[string]roles.PermissionSet{
			"user": {View: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "r1", created.ID)
	assert.True(t, created.Permissions["user"].View)
	assert.True(t, rawBody.Permissions["user"].View)
}
