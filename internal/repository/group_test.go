package repository

import (
	"context"
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewGroupRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Group{Title: "Test", Slug: "g1"}))
	err := repo.Create(ctx, &models.Group{Title: "Again", Slug: "g1"})
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	g, err := repo.GetBySlug(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "Test", g.Title)

	_, err = repo.GetBySlug(ctx, "missing-slug")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	groups, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestGroupRepository_DeleteNullsPosts(t *testing.T) {
	db := testutil.NewTestDB(t)
	groups := NewGroupRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	leo := testutil.CreateUser(t, db, "leo")
	g := testutil.CreateGroup(t, db, "Test", "g1")
	post := testutil.CreatePost(t, db, leo, g, "grouped")

	require.NoError(t, groups.Delete(ctx, "g1"))

	got, err := posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, got.GroupID)
	assert.Nil(t, got.Group)

	page, err := posts.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	_, err = groups.GetBySlug(ctx, "g1")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	err = groups.Delete(ctx, "g1")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}
