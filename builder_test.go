package guardkit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardkit/guardkit"
	"github.com/guardkit/guardkit/memstore"
	"github.com/guardkit/guardkit/session"
)

func TestBuildRequiresStore(t *testing.T) {
	_, err := guardkit.New().WithConfig(testConfig()).Build()
	assert.Error(t, err)
}

func TestBuilderIsSingleUse(t *testing.T) {
	b := guardkit.New().WithConfig(testConfig()).WithStore(memstore.New())

	engine, err := b.Build()
	require.NoError(t, err)
	defer engine.Close()

	_, err = b.Build()
	assert.Error(t, err)
}

func TestBuildRejectsBadConfig(t *testing.T) {
	mutations := []func(*guardkit.Config){
		func(c *guardkit.Config) { c.Session.TTL = 0 },
		func(c *guardkit.Config) { c.Policy.MinLength = 0 },
		func(c *guardkit.Config) { c.Password.Memory = 64 },
		func(c *guardkit.Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 },
	}
	for i, mutate := range mutations {
		cfg := testConfig()
		mutate(&cfg)
		_, err := guardkit.New().WithConfig(cfg).WithStore(memstore.New()).Build()
		assert.Error(t, err, "case %d", i)
	}
}

func TestBuildDefaultsToInProcessCache(t *testing.T) {
	cfg := testConfig()
	engine, err := guardkit.New().WithConfig(cfg).WithStore(memstore.New()).Build()
	require.NoError(t, err)
	defer engine.Close()

	ctx := context.Background()
	sess, err := engine.Signup(ctx, signupReq("a@x.com", "Secret123"))
	require.NoError(t, err)

	res, err := engine.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, guardkit.AuthenticatedUnverified, res.State)
}

func TestAuditEventsReachSink(t *testing.T) {
	sink := guardkit.NewChannelSink(16)
	cache := session.NewMemory()
	defer cache.Close()

	engine, err := guardkit.New().
		WithConfig(testConfig()).
		WithStore(memstore.New()).
		WithSessionCache(cache).
		WithAuditSink(sink).
		Build()
	require.NoError(t, err)

	ctx := context.Background()
	_, err = engine.Signup(ctx, signupReq("a@x.com", "Secret123"))
	require.NoError(t, err)
	_, err = engine.Login(ctx, guardkit.LoginRequest{Email: "a@x.com", Password: "Wrong1pass"})
	assert.ErrorIs(t, err, guardkit.ErrInvalidCredentials)

	// Close drains the dispatcher so both events are observable.
	engine.Close()
	assert.Zero(t, engine.AuditDropped())

	var kinds []string
	var successes []bool
	for len(sink.Events()) > 0 {
		event := <-sink.Events()
		kinds = append(kinds, event.Kind)
		successes = append(successes, event.Success)
	}
	require.Equal(t, []string{"signup", "login"}, kinds)
	assert.Equal(t, []bool{true, false}, successes)
}
