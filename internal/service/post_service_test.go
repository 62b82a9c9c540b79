package service

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"yatube/internal/cache"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leo := testutil.CreateUser(t, f.db, "leo")
	g := testutil.CreateGroup(t, f.db, "Test", "g1")

	t.Run("anonymous", func(t *testing.T) {
		_, err := f.posts.Create(ctx, CreatePostInput{Text: "hello"})
		assertCode(t, models.CodeUnauthenticated, err)
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := f.posts.Create(ctx, CreatePostInput{AuthorID: leo.ID, Text: "  "})
		assertCode(t, models.CodeValidation, err)
	})

	t.Run("unknown group", func(t *testing.T) {
		_, err := f.posts.Create(ctx, CreatePostInput{AuthorID: leo.ID, Text: "hi", Group: "999"})
		assertCode(t, models.CodeValidation, err)
	})

	t.Run("non-image upload", func(t *testing.T) {
		_, err := f.posts.Create(ctx, CreatePostInput{
			AuthorID: leo.ID,
			Text:     "hi",
			Image:    &ImageUpload{Filename: "notes.txt", Content: []byte("just some text, not an image")},
		})
		assertCode(t, models.CodeValidation, err)
	})

	assert.Zero(t, f.countPosts(t), "rejected submissions store nothing")

	t.Run("valid with group and image", func(t *testing.T) {
		post, err := f.posts.Create(ctx, CreatePostInput{
			AuthorID: leo.ID,
			Text:     "hello",
			Group:    strconv.FormatUint(uint64(g.ID), 10),
			Image:    &ImageUpload{Filename: "pic.png", Content: testutil.TinyPNG(t, 4, 4)},
		})
		require.NoError(t, err)
		assert.Equal(t, leo.ID, post.AuthorID)
		require.NotNil(t, post.GroupID)
		assert.Equal(t, g.ID, *post.GroupID)
		require.NotEmpty(t, post.Image)

		_, statErr := os.Stat(filepath.Join(f.store.Root, post.Image))
		assert.NoError(t, statErr)
		assert.Equal(t, "/media/"+post.Image, post.ImageURL)
		assert.Equal(t, "/media/"+PreviewRef(post.Image), post.ImagePreviewURL)
		_, statErr = os.Stat(filepath.Join(f.store.Root, PreviewRef(post.Image)))
		assert.NoError(t, statErr)
	})

	assert.Equal(t, int64(1), f.countPosts(t))
}

func TestPostService_TrimsText(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leo := testutil.CreateUser(t, f.db, "leo")

	post, err := f.posts.Create(ctx, CreatePostInput{AuthorID: leo.ID, Text: "  hello \n"})
	require.NoError(t, err)
	assert.Equal(t, "hello", post.Text)

	updated, err := f.posts.Update(ctx, UpdatePostInput{UserID: leo.ID, Username: "leo", PostID: post.ID, Text: "\tedited  "})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Text)

	var stored models.Post
	require.NoError(t, f.db.First(&stored, post.ID).Error)
	assert.Equal(t, "edited", stored.Text)
}

func TestPostService_ListGroupScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, f.db, "u")
	g := testutil.CreateGroup(t, f.db, "Test", "g1")
	testutil.CreatePost(t, f.db, u, nil, "ungrouped")
	post, err := f.posts.Create(ctx, CreatePostInput{AuthorID: u.ID, Text: "hello", Group: strconv.Itoa(int(g.ID))})
	require.NoError(t, err)

	res, err := f.posts.ListGroup(ctx, "g1", 1)
	require.NoError(t, err)
	assert.Equal(t, "g1", res.Group.Slug)
	require.Len(t, res.Page.Items, 1)
	assert.Equal(t, post.ID, res.Page.Items[0].ID)

	_, err = f.posts.ListGroup(ctx, "missing-slug", 1)
	assertCode(t, models.CodeNotFound, err)
}

func TestPostService_IndexCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, f.db, "u")
	testutil.CreatePost(t, f.db, u, nil, "first")

	page, err := f.posts.ListIndex(ctx, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, f.mr.Exists(cache.IndexPageKey(1)))

	// Written behind the service's back: the cached page is served.
	testutil.CreatePost(t, f.db, u, nil, "sneaky")
	page, err = f.posts.ListIndex(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	// Creating through the service invalidates.
	_, err = f.posts.Create(ctx, CreatePostInput{AuthorID: u.ID, Text: "third"})
	require.NoError(t, err)
	page, err = f.posts.ListIndex(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, "third", page.Items[0].Text)
}

func TestPostService_IndexPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, f.db, "u")
	for i := 0; i < 11; i++ {
		testutil.CreatePost(t, f.db, u, nil, "p"+strconv.Itoa(i))
	}

	first, err := f.posts.ListIndex(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, first.Items, 10)

	second, err := f.posts.ListIndex(ctx, repository.ParsePageNumber("2"))
	require.NoError(t, err)
	assert.Len(t, second.Items, 1)
}

func TestPostService_UpdateByNonAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leo := testutil.CreateUser(t, f.db, "leo")
	mia := testutil.CreateUser(t, f.db, "mia")
	post := testutil.CreatePost(t, f.db, leo, nil, "original")

	for _, uid := range []uint{0, mia.ID} {
		got, err := f.posts.Update(ctx, UpdatePostInput{UserID: uid, Username: "leo", PostID: post.ID, Text: "hacked"})
		assertCode(t, models.CodeForbidden, err)
		require.NotNil(t, got, "caller needs the post to redirect to it")
		assert.Equal(t, post.ID, got.ID)
	}

	var stored models.Post
	require.NoError(t, f.db.First(&stored, post.ID).Error)
	assert.Equal(t, "original", stored.Text)
}

func TestPostService_UpdateByAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leo := testutil.CreateUser(t, f.db, "leo")
	g := testutil.CreateGroup(t, f.db, "Test", "g1")
	post := testutil.CreatePost(t, f.db, leo, g, "original")

	_, err := f.posts.Update(ctx, UpdatePostInput{UserID: leo.ID, Username: "leo", PostID: post.ID, Text: ""})
	assertCode(t, models.CodeValidation, err)

	updated, err := f.posts.Update(ctx, UpdatePostInput{UserID: leo.ID, Username: "leo", PostID: post.ID, Text: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Text)
	assert.Nil(t, updated.GroupID, "clearing the group removes the post from the group list")
	assert.Equal(t, leo.ID, updated.AuthorID)

	res, err := f.posts.ListGroup(ctx, "g1", 1)
	require.NoError(t, err)
	assert.Empty(t, res.Page.Items)

	_, err = f.posts.Update(ctx, UpdatePostInput{UserID: leo.ID, Username: "mia", PostID: post.ID, Text: "x"})
	assertCode(t, models.CodeNotFound, err)
}

func TestPostService_Feed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "a")
	b := testutil.CreateUser(t, f.db, "b")
	c := testutil.CreateUser(t, f.db, "c")
	testutil.CreatePost(t, f.db, b, nil, "from b")

	_, err := f.follows.Follow(ctx, a.ID, "b")
	require.NoError(t, err)

	feed, err := f.posts.Feed(ctx, a.ID, 1)
	require.NoError(t, err)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "from b", feed.Items[0].Text)

	feed, err = f.posts.Feed(ctx, c.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, feed.Items)

	_, err = f.posts.Feed(ctx, 0, 1)
	assertCode(t, models.CodeUnauthenticated, err)
}

func TestPostService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leo := testutil.CreateUser(t, f.db, "leo")
	mia := testutil.CreateUser(t, f.db, "mia")
	post := testutil.CreatePost(t, f.db, leo, nil, "bye")
	testutil.CreateComment(t, f.db, post, mia, "c")

	assertCode(t, models.CodeForbidden, f.posts.Delete(ctx, mia.ID, "leo", post.ID))
	require.NoError(t, f.posts.Delete(ctx, leo.ID, "leo", post.ID))
	assert.Zero(t, f.countPosts(t))
	assert.Zero(t, f.countComments(t))
}
