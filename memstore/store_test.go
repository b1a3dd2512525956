package memstore_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardkit/guardkit"
	"github.com/guardkit/guardkit/memstore"
)

func TestCreateAndLookups(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	created, err := s.Create(ctx, "a@x.com", "hash-a")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	byID, err := s.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *created, *byID)

	byEmail, err := s.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = s.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, guardkit.ErrUserNotFound)
	_, err = s.GetByEmail(ctx, "missing@x.com")
	assert.ErrorIs(t, err, guardkit.ErrUserNotFound)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	_, err := s.Create(ctx, "a@x.com", "hash-a")
	require.NoError(t, err)

	_, err = s.Create(ctx, "a@x.com", "hash-b")
	assert.ErrorIs(t, err, guardkit.ErrEmailExists)
	assert.Equal(t, 1, s.Len())
}

func TestConcurrentCreateSameEmail(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	const racers = 16
	errs := make([]error, racers)

	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Create(ctx, "race@x.com", fmt.Sprintf("hash-%d", i))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, guardkit.ErrEmailExists)
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, s.Len())
}

func TestUpdatePatchesMutableFields(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	created, err := s.Create(ctx, "a@x.com", "hash-a")
	require.NoError(t, err)

	verified := true
	updated, err := s.Update(ctx, created.ID, guardkit.UserPatch{Verified: &verified})
	require.NoError(t, err)
	assert.True(t, updated.Verified)
	assert.Equal(t, "hash-a", updated.PasswordHash, "untouched fields keep their value")

	hash := "hash-b"
	admin := true
	updated, err = s.Update(ctx, created.ID, guardkit.UserPatch{PasswordHash: &hash, Admin: &admin})
	require.NoError(t, err)
	assert.Equal(t, "hash-b", updated.PasswordHash)
	assert.True(t, updated.Admin)
	assert.True(t, updated.Verified)

	_, err = s.Update(ctx, "missing", guardkit.UserPatch{Admin: &admin})
	assert.ErrorIs(t, err, guardkit.ErrUserNotFound)
}

func TestDeleteFreesEmail(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	created, err := s.Create(ctx, "a@x.com", "hash-a")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, created.ID))
	assert.ErrorIs(t, s.Delete(ctx, created.ID), guardkit.ErrUserNotFound)

	// The email can be registered again.
	again, err := s.Create(ctx, "a@x.com", "hash-b")
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, again.ID)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	created, err := s.Create(ctx, "a@x.com", "hash-a")
	require.NoError(t, err)

	created.PasswordHash = "tampered"

	stored, err := s.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash-a", stored.PasswordHash)
}
