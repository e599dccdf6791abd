package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postboard-dev/postboard/internal/config"
	"github.com/postboard-dev/postboard/internal/models"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{URL: filepath.Join(t.TempDir(), "postboard.sqlite")},
		HTTP:     config.HTTPConfig{ListenAddr: "127.0.0.1:0", CORSOrigins: []string{"http://localhost:3000"}},
		Auth:     config.AuthConfig{TokenTTL: time.Hour},
	}

	srv, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[map[string]string](t, rec)["error"]
}

// signUpAndIn registers an account with roleKey and returns its token
func signUpAndIn(t *testing.T, srv *Server, username, roleKey string) string {
	t.Helper()

	email := username + "@example.com"
	rec := doJSON(t, srv, http.MethodPost, "/v1/auth/sign-up", "", SignUpRequest{
		Username:        username,
		Email:           email,
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Role:            roleKey,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodPost, "/v1/auth/sign-in", "", SignInRequest{Email: email, Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	return decode[SignInResponse](t, rec).Token
}

func firstCategoryID(t *testing.T, srv *Server) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodGet, "/v1/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	categories := decode[[]models.Category](t, rec)
	require.NotEmpty(t, categories)
	return categories[0].ID
}

func createTheme(t *testing.T, srv *Server, adminToken, name string) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/v1/themes", adminToken, CreateThemeRequest{
		Name:        name,
		Description: name + " things",
		Category:    firstCategoryID(t, srv),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Theme](t, rec).ID
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "online", decode[map[string]any](t, rec)["status"])
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "trace-123")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "trace-123", rec.Header().Get("X-Request-ID"))
}

func TestListRoles(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/v1/roles", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	roles := decode[[]RoleDetail](t, rec)
	require.Len(t, roles, 3)

	keys := []string{roles[0].Key, roles[1].Key, roles[2].Key}
	assert.ElementsMatch(t, []string{"ADMIN", "CREATOR", "READER"}, keys)
}

func TestSignUpSignInMe(t *testing.T) {
	srv := newTestServer(t)

	token := signUpAndIn(t, srv, "gopher", models.RoleCreator)
	require.NotEmpty(t, token)

	rec := doJSON(t, srv, http.MethodGet, "/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	me := decode[UserDetail](t, rec)
	assert.Equal(t, "gopher", me.Username)
	assert.Equal(t, "gopher@example.com", me.Email)
	require.NotNil(t, me.Role)
	assert.Equal(t, "CREATOR", me.Role.Key)
	assert.Equal(t, []string{"C", "R", "U"}, me.Role.Permissions)
}

func TestSignUp_Rejects(t *testing.T) {
	srv := newTestServer(t)
	signUpAndIn(t, srv, "gopher", models.RoleReader)

	tests := []struct {
		name   string
		req    SignUpRequest
		status int
	}{
		{
			name:   "duplicate email",
			req:    SignUpRequest{Username: "another", Email: "gopher@example.com", Password: "secret1", Role: "READER"},
			status: http.StatusConflict,
		},
		{
			name:   "short username",
			req:    SignUpRequest{Username: "abc", Email: "abc@example.com", Password: "secret1", Role: "READER"},
			status: http.StatusBadRequest,
		},
		{
			name:   "short password",
			req:    SignUpRequest{Username: "abcd", Email: "abcd@example.com", Password: "1234", Role: "READER"},
			status: http.StatusBadRequest,
		},
		{
			name:   "password mismatch",
			req:    SignUpRequest{Username: "abcd", Email: "abcd@example.com", Password: "secret1", ConfirmPassword: "secret2", Role: "READER"},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown role",
			req:    SignUpRequest{Username: "abcd", Email: "abcd@example.com", Password: "secret1", Role: "ROOT"},
			status: http.StatusBadRequest,
		},
		{
			name:   "invalid email",
			req:    SignUpRequest{Username: "abcd", Email: "not-an-email", Password: "secret1", Role: "READER"},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/v1/auth/sign-up", "", tt.req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, errorOf(t, rec))
		})
	}
}

func TestSignIn_WrongPassword(t *testing.T) {
	srv := newTestServer(t)
	signUpAndIn(t, srv, "gopher", models.RoleReader)

	rec := doJSON(t, srv, http.MethodPost, "/v1/auth/sign-in", "", SignInRequest{Email: "gopher@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", errorOf(t, rec))

	rec = doJSON(t, srv, http.MethodPost, "/v1/auth/sign-in", "", SignInRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe_RequiresValidToken(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Missing authorization header", errorOf(t, rec))

	rec = doJSON(t, srv, http.MethodGet, "/v1/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", errorOf(t, rec))
}

func TestCreateTheme_RequiresAdmin(t *testing.T) {
	srv := newTestServer(t)
	creator := signUpAndIn(t, srv, "creator", models.RoleCreator)
	admin := signUpAndIn(t, srv, "admin", models.RoleAdmin)

	req := CreateThemeRequest{Name: "Go", Description: "Gophers", Category: firstCategoryID(t, srv)}

	rec := doJSON(t, srv, http.MethodPost, "/v1/themes", creator, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/v1/themes", admin, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	theme := decode[models.Theme](t, rec)
	assert.Equal(t, "Go", theme.Name)
	require.NotNil(t, theme.Category)

	rec = doJSON(t, srv, http.MethodPost, "/v1/themes", admin, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	req.Category = "missing"
	req.Name = "Rust"
	rec = doJSON(t, srv, http.MethodPost, "/v1/themes", admin, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePost_RequiresCreatePermission(t *testing.T) {
	srv := newTestServer(t)
	admin := signUpAndIn(t, srv, "admin", models.RoleAdmin)
	reader := signUpAndIn(t, srv, "reader", models.RoleReader)
	creator := signUpAndIn(t, srv, "creator", models.RoleCreator)
	themeID := createTheme(t, srv, admin, "Go")

	req := CreatePostRequest{
		Title:       "Hello",
		Description: "World",
		Themes:      []string{themeID},
		Content: []ContentRequest{
			{Type: "text", Value: "first"},
			{Type: "video", Value: "https://www.youtube.com/watch?v=abc"},
		},
	}

	rec := doJSON(t, srv, http.MethodPost, "/v1/posts", "", req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/v1/posts", reader, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/v1/posts", creator, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	post := decode[PostDetail](t, rec)
	assert.Equal(t, "Hello", post.Title)
	require.Len(t, post.Themes, 1)
	assert.Equal(t, themeID, post.Themes[0].ID)
	require.Len(t, post.Content, 2)
	assert.Equal(t, "text", post.Content[0].Type)
	assert.Equal(t, "video", post.Content[1].Type)
	require.NotNil(t, post.CreatedBy)
	assert.Equal(t, "creator", post.CreatedBy.Username)
}

func TestCreatePost_Validation(t *testing.T) {
	srv := newTestServer(t)
	creator := signUpAndIn(t, srv, "creator", models.RoleCreator)

	rec := doJSON(t, srv, http.MethodPost, "/v1/posts", creator, CreatePostRequest{Title: "t", Description: "d"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "at least one theme")

	rec = doJSON(t, srv, http.MethodPost, "/v1/posts", creator, CreatePostRequest{Title: "t", Description: "d", Themes: []string{"missing"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unknown theme", errorOf(t, rec))
}

func TestListPosts_Filters(t *testing.T) {
	srv := newTestServer(t)
	admin := signUpAndIn(t, srv, "admin", models.RoleAdmin)
	goTheme := createTheme(t, srv, admin, "Go")
	rustTheme := createTheme(t, srv, admin, "Rust")

	for _, req := range []CreatePostRequest{
		{Title: "Channels explained", Description: "Concurrency in Go", Themes: []string{goTheme}},
		{Title: "Borrow checker", Description: "Ownership rules", Themes: []string{rustTheme}},
		{Title: "Interop", Description: "Calling Rust from Go", Themes: []string{goTheme, rustTheme}},
	} {
		rec := doJSON(t, srv, http.MethodPost, "/v1/posts", admin, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	titles := func(path string) []string {
		rec := doJSON(t, srv, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var out []string
		for _, post := range decode[[]PostDetail](t, rec) {
			out = append(out, post.Title)
		}
		return out
	}

	assert.Len(t, titles("/v1/posts"), 3)
	assert.ElementsMatch(t, []string{"Channels explained", "Interop"}, titles("/v1/posts?themeId="+goTheme))
	assert.ElementsMatch(t, []string{"Borrow checker", "Interop"}, titles("/v1/posts?themeId="+rustTheme))
	assert.ElementsMatch(t, []string{"Interop"}, titles("/v1/posts?themeId="+goTheme+"&search=rust"))
	assert.ElementsMatch(t, []string{"Borrow checker"}, titles("/v1/posts?search=OWNERSHIP"))
	assert.Empty(t, titles("/v1/posts?search=python"))
}

func TestListPosts_SearchMatchesWildcardsLiterally(t *testing.T) {
	srv := newTestServer(t)
	admin := signUpAndIn(t, srv, "admin", models.RoleAdmin)
	themeID := createTheme(t, srv, admin, "Go")

	for _, req := range []CreatePostRequest{
		{Title: "100% coverage", Description: "Testing everything", Themes: []string{themeID}},
		{Title: "snake_case names", Description: "Style notes", Themes: []string{themeID}},
		{Title: "Plain post", Description: "Nothing special", Themes: []string{themeID}},
	} {
		rec := doJSON(t, srv, http.MethodPost, "/v1/posts", admin, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	titles := func(search string) []string {
		rec := doJSON(t, srv, http.MethodGet, "/v1/posts?search="+url.QueryEscape(search), "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var out []string
		for _, post := range decode[[]PostDetail](t, rec) {
			out = append(out, post.Title)
		}
		return out
	}

	assert.Equal(t, []string{"100% coverage"}, titles("%"))
	assert.Equal(t, []string{"snake_case names"}, titles("_"))
	assert.Empty(t, titles(`\`))
}

func TestGetPost(t *testing.T) {
	srv := newTestServer(t)
	admin := signUpAndIn(t, srv, "admin", models.RoleAdmin)
	themeID := createTheme(t, srv, admin, "Go")

	rec := doJSON(t, srv, http.MethodPost, "/v1/posts", admin, CreatePostRequest{Title: "Hello", Description: "World", Themes: []string{themeID}})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[PostDetail](t, rec).ID

	rec = doJSON(t, srv, http.MethodGet, "/v1/posts/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello", decode[PostDetail](t, rec).Title)

	rec = doJSON(t, srv, http.MethodGet, "/v1/posts/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Post not found", errorOf(t, rec))
}

func TestJWTSecretPersistsAcrossRestarts(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "postboard.sqlite")
	cfg := &config.Config{
		Database: config.DatabaseConfig{URL: dbPath},
		HTTP:     config.HTTPConfig{CORSOrigins: []string{"http://localhost:3000"}},
		Auth:     config.AuthConfig{TokenTTL: time.Hour},
	}

	first, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)
	token := signUpAndIn(t, first, "gopher", models.RoleReader)
	require.NoError(t, first.Close())

	second, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)
	defer second.Close()

	rec := doJSON(t, second, http.MethodGet, "/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
