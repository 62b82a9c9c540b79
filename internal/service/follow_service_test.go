package service

import (
	"context"
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowService_FollowTwiceStoresOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "a")
	testutil.CreateUser(t, f.db, "b")

	for i := 0; i < 2; i++ {
		author, err := f.follows.Follow(ctx, a.ID, "b")
		require.NoError(t, err)
		assert.Equal(t, "b", author.Username)
	}

	var n int64
	require.NoError(t, f.db.Model(&models.Follow{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestFollowService_SelfIsNoop(t *testing.T) {
	f := newFixture(t)
	a := testutil.CreateUser(t, f.db, "a")

	author, err := f.follows.Follow(context.Background(), a.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, a.ID, author.ID)

	var n int64
	require.NoError(t, f.db.Model(&models.Follow{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestFollowService_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "a")
	testutil.CreateUser(t, f.db, "b")

	_, err := f.follows.Follow(ctx, 0, "b")
	assertCode(t, models.CodeUnauthenticated, err)

	_, err = f.follows.Follow(ctx, a.ID, "ghost")
	assertCode(t, models.CodeNotFound, err)

	_, err = f.follows.Unfollow(ctx, a.ID, "b")
	assertCode(t, models.CodeNotFound, err)

	_, err = f.follows.Unfollow(ctx, 0, "b")
	assertCode(t, models.CodeUnauthenticated, err)
}

func TestFollowService_IsFollowing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "a")
	b := testutil.CreateUser(t, f.db, "b")

	ok, err := f.follows.IsFollowing(ctx, 0, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.follows.Follow(ctx, a.ID, "b")
	require.NoError(t, err)
	ok, err = f.follows.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.follows.Unfollow(ctx, a.ID, "b")
	require.NoError(t, err)
	ok, err = f.follows.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
