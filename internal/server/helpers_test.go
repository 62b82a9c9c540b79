package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"yatube/internal/config"
	"yatube/internal/models"
	"yatube/internal/testutil"
	"yatube/internal/validation"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	srv *Server
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		Env:                  "test",
		Port:                 "0",
		JWTSecret:            "test-secret-that-is-long-enough-123",
		MediaRoot:            t.TempDir(),
		MediaURL:             "/media/",
		ImageMaxUploadSizeMB: 1,
		IndexCacheSeconds:    20,
	}
	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	return &testServer{srv: srv, app: srv.App(), db: db, mr: mr}
}

// signup registers username and returns its session token.
func (ts *testServer) signup(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	session, err := ts.srv.authService.Signup(context.Background(), validation.SignupForm{
		Username: username,
		Email:    username + "@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	return session.User, session.Token
}

func (ts *testServer) do(t *testing.T, req *http.Request, token string) *http.Response {
	t.Helper()
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (ts *testServer) get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	return ts.do(t, httptest.NewRequest(http.MethodGet, path, nil), token)
}

func (ts *testServer) postForm(t *testing.T, path, token string, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return ts.do(t, req, token)
}

func (ts *testServer) postMultipart(t *testing.T, path, token string, fields map[string]string, filename string, file []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return ts.do(t, req, token)
}

func (ts *testServer) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, ts.db.Model(model).Count(&n).Error)
	return n
}

func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, dst), string(body))
}

func assertRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, location, resp.Header.Get(fiber.HeaderLocation))
}

// pageBody mirrors the JSON of a paginated post listing.
type pageBody struct {
	Items       []models.Post `json:"items"`
	Number      int           `json:"number"`
	NumPages    int           `json:"num_pages"`
	Count       int64         `json:"count"`
	HasNext     bool          `json:"has_next"`
	HasPrevious bool          `json:"has_previous"`
}

func postIDs(items []models.Post) []uint {
	ids := make([]uint, 0, len(items))
	for _, p := range items {
		ids = append(ids, p.ID)
	}
	return ids
}

func httptestGet(path string) *http.Request {
	return httptest.NewRequest(http.MethodGet, path, nil)
}
