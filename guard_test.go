package guardkit_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardkit/guardkit"
	"github.com/guardkit/guardkit/memstore"
	"github.com/guardkit/guardkit/session"
)

// wellFormedToken builds a token with the exact shape the engine mints, so
// probes reach the cache instead of being rejected as malformed.
func wellFormedToken(fill string) string {
	return strings.Repeat(fill, 43)
}

// downCache simulates an unreachable remote cache.
type downCache struct{}

func (downCache) Put(context.Context, string, string, time.Duration) error {
	return fmt.Errorf("%w: connection refused", session.ErrUnavailable)
}

func (downCache) Get(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w: connection refused", session.ErrUnavailable)
}

func (downCache) Invalidate(context.Context, string) error {
	return fmt.Errorf("%w: connection refused", session.ErrUnavailable)
}

func (downCache) InvalidateAllForUser(context.Context, string, ...string) error {
	return fmt.Errorf("%w: connection refused", session.ErrUnavailable)
}

// downStore simulates an unreachable credential store.
type downStore struct{}

func (downStore) Create(context.Context, string, string) (*guardkit.User, error) {
	return nil, fmt.Errorf("%w: timeout", guardkit.ErrStoreUnavailable)
}

func (downStore) GetByID(context.Context, string) (*guardkit.User, error) {
	return nil, fmt.Errorf("%w: timeout", guardkit.ErrStoreUnavailable)
}

func (downStore) GetByEmail(context.Context, string) (*guardkit.User, error) {
	return nil, fmt.Errorf("%w: timeout", guardkit.ErrStoreUnavailable)
}

func (downStore) Update(context.Context, string, guardkit.UserPatch) (*guardkit.User, error) {
	return nil, fmt.Errorf("%w: timeout", guardkit.ErrStoreUnavailable)
}

func (downStore) Delete(context.Context, string) error {
	return fmt.Errorf("%w: timeout", guardkit.ErrStoreUnavailable)
}

func TestGuardStateOrdering(t *testing.T) {
	assert.True(t, guardkit.Anonymous < guardkit.AuthenticatedUnverified)
	assert.True(t, guardkit.AuthenticatedUnverified < guardkit.AuthenticatedUser)
	assert.True(t, guardkit.AuthenticatedUser < guardkit.AuthenticatedAdmin)

	assert.Equal(t, "anonymous", guardkit.Anonymous.String())
	assert.Equal(t, "authenticated-admin", guardkit.AuthenticatedAdmin.String())
}

func TestResolveInvalidTokensAreAnonymous(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, token := range []string{"", "garbage", "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"} {
		res, err := env.engine.Resolve(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, guardkit.Anonymous, res.State)
		assert.Nil(t, res.User)
	}
}

func TestResolveFailsClosedOnCacheOutage(t *testing.T) {
	engine, err := guardkit.New().
		WithConfig(testConfig()).
		WithStore(memstore.New()).
		WithSessionCache(downCache{}).
		Build()
	require.NoError(t, err)
	defer engine.Close()

	res, err := engine.Resolve(context.Background(), wellFormedToken("A"))
	assert.ErrorIs(t, err, guardkit.ErrCacheUnavailable)
	assert.Equal(t, guardkit.Anonymous, res.State)
	assert.Nil(t, res.User)
}

func TestResolveFailsClosedOnStoreOutage(t *testing.T) {
	cache := session.NewMemory()
	defer cache.Close()

	engine, err := guardkit.New().
		WithConfig(testConfig()).
		WithStore(downStore{}).
		WithSessionCache(cache).
		Build()
	require.NoError(t, err)
	defer engine.Close()

	ctx := context.Background()
	token := wellFormedToken("B")
	require.NoError(t, cache.Put(ctx, token, "user-1", time.Hour))

	_, err = engine.Resolve(ctx, token)
	assert.ErrorIs(t, err, guardkit.ErrStoreUnavailable)

	// The outage also denies privileged operations instead of guessing.
	assert.Error(t, engine.SetAdmin(ctx, token, "user-2", true))
}

func TestLoginFailsClosedOnCacheOutage(t *testing.T) {
	store := memstore.New()
	working := session.NewMemory()
	defer working.Close()

	// Create the account while everything is healthy.
	setup, err := guardkit.New().
		WithConfig(testConfig()).
		WithStore(store).
		WithSessionCache(working).
		Build()
	require.NoError(t, err)
	_, err = setup.Signup(context.Background(), signupReq("a@x.com", "Secret123"))
	require.NoError(t, err)
	setup.Close()

	engine, err := guardkit.New().
		WithConfig(testConfig()).
		WithStore(store).
		WithSessionCache(downCache{}).
		Build()
	require.NoError(t, err)
	defer engine.Close()

	sess, err := engine.Login(context.Background(), guardkit.LoginRequest{
		Email:    "a@x.com",
		Password: "Secret123",
	})
	assert.ErrorIs(t, err, guardkit.ErrCacheUnavailable)
	assert.Nil(t, sess, "no session may be handed out when registration failed")
}
