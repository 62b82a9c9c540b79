package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_GetByID_Postgres(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name         string
		userID       uint
		mockBehavior func()
		wantCode     string
		wantUsername string
	}{
		{
			name:   "Found",
			userID: 1,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
					WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(1, "leo"))
			},
			wantUsername: "leo",
		},
		{
			name:   "Not Found",
			userID: 2,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
					WillReturnRows(sqlmock.NewRows([]string{"id", "username"}))
			},
			wantCode: models.CodeNotFound,
		},
		{
			name:   "Store failure",
			userID: 3,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
					WillReturnError(errors.New("connection reset"))
			},
			wantCode: models.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, tt.userID)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, models.ErrorCode(err))
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantUsername, user.Username)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_Create_DuplicatePostgres(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_username" (SQLSTATE 23505)`))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{Username: "leo", Password: "x"})
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Username: "leo", Password: "x"}))
	err := repo.Create(ctx, &models.User{Username: "leo", Password: "y"})
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	u, err := repo.GetByUsername(ctx, "leo")
	require.NoError(t, err)
	assert.Equal(t, "leo", u.Username)

	_, err = repo.GetByUsername(ctx, "ghost")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	leo := testutil.CreateUser(t, db, "leo")
	mia := testutil.CreateUser(t, db, "mia")
	leoPost := testutil.CreatePost(t, db, leo, nil, "by leo")
	miaPost := testutil.CreatePost(t, db, mia, nil, "by mia")
	testutil.CreateComment(t, db, leoPost, mia, "mia on leo")
	testutil.CreateComment(t, db, miaPost, leo, "leo on mia")
	testutil.CreateComment(t, db, miaPost, mia, "mia on mia")
	require.NoError(t, db.Create(&models.Follow{UserID: leo.ID, AuthorID: mia.ID}).Error)
	require.NoError(t, db.Create(&models.Follow{UserID: mia.ID, AuthorID: leo.ID}).Error)

	require.NoError(t, repo.Delete(ctx, leo.ID))

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	require.Len(t, posts, 1)
	assert.Equal(t, miaPost.ID, posts[0].ID)

	var comments []models.Comment
	require.NoError(t, db.Find(&comments).Error)
	require.Len(t, comments, 1)
	assert.Equal(t, "mia on mia", comments[0].Text)

	var follows int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&follows).Error)
	assert.Zero(t, follows)

	_, err := repo.GetByID(ctx, leo.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	err = repo.Delete(ctx, leo.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}
