package shared_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-admin/meridian/internal/shared"
)

func TestEnsureTokenIsStableWithinSession(t *testing.T) {
	sm := newManager(t)
	ctx := context.Background()
	csrf := shared.NewCSRFManager("csrfsecret")

	sess, err := sm.Load(ctx, requestWithCookie(sm.CookieName(), ""))
	require.NoError(t, err)

	first, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestVerifyToken(t *testing.T) {
	sm := newManager(t)
	ctx := context.Background()
	csrf := shared.NewCSRFManager("csrfsecret")

	sess, err := sm.Load(ctx, requestWithCookie(sm.CookieName(), ""))
	require.NoError(t, err)
	token, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)

	assert.NoError(t, csrf.VerifyToken(ctx, sess, token))
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, "forged"), shared.ErrCSRFTokenMismatch)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, ""), shared.ErrCSRFTokenMissing)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, nil, token), shared.ErrCSRFTokenMissing)
}

func TestVerifyTokenWithoutIssuedToken(t *testing.T) {
	sm := newManager(t)
	ctx := context.Background()
	csrf := shared.NewCSRFManager("csrfsecret")

	sess, err := sm.Load(ctx, requestWithCookie(sm.CookieName(), ""))
	require.NoError(t, err)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, "anything"), shared.ErrCSRFTokenMissing)
}

func TestSessionContextRoundTrip(t *testing.T) {
	sm := newManager(t)
	sess, err := sm.Load(context.Background(), requestWithCookie(sm.CookieName(), ""))
	require.NoError(t, err)

	ctx := shared.ContextWithSession(context.Background(), sess)
	assert.Same(t, sess, shared.SessionFromContext(ctx))
	assert.Nil(t, shared.SessionFromContext(context.Background()))
}