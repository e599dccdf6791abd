package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens string

func (s staticTokens) Get() (string, bool) {
	return string(s), s != ""
}

func TestFetchProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/auth/me", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		if r.Header.Get("Authorization") != "Bearer tok123" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "Invalid or expired token"}`))
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"id":       "1",
			"username": "ana",
			"role": map[string]any{
				"key":         "ADMIN",
				"permissions": []string{"C", "R", "U", "D"},
			},
		})
	}))
	defer server.Close()

	c := New(server.URL)

	user, err := c.FetchProfile(context.Background(), "tok123")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "ana", user.Username)
	assert.True(t, user.HasRole("ADMIN"))

	_, err = c.FetchProfile(context.Background(), "expired")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid or expired token", apiErr.Message)
}

func TestFetchProfile_NullBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("null"))
	}))
	defer server.Close()

	user, err := New(server.URL).FetchProfile(context.Background(), "tok123")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestErrorNormalization(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "string error", status: http.StatusBadRequest, body: `{"error":"Invalid request body"}`, message: "Invalid request body"},
		{name: "object error", status: http.StatusConflict, body: `{"error":{"message":"Email already registered"}}`, message: "Email already registered"},
		{name: "plain text", status: http.StatusBadGateway, body: `upstream unavailable`, message: "upstream unavailable"},
		{name: "empty body", status: http.StatusServiceUnavailable, body: ``, message: "request failed with status 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New(server.URL).ListThemes(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.status, StatusCode(err))

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}

func TestTransportFailureIs500(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := New(url).ListCategories(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
}

func TestSignIn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/auth/sign-in", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var req SignInRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.Email != "ana@example.com" || req.Password != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Invalid email or password"}`))
			return
		}

		w.Write([]byte(`{"_id":"1","id":"1","username":"ana","email":"ana@example.com","role":{"key":"CREATOR","permissions":["C","R","U"]},"token":"abc"}`))
	}))
	defer server.Close()

	c := New(server.URL)

	creds, err := c.SignIn(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "abc", creds.Token)
	assert.True(t, creds.User.HasPermission("C", "R"))

	_, err = c.SignIn(context.Background(), "ana@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
}

func TestAuthenticatedCallsUseTokenSource(t *testing.T) {
	var gotAuth, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "/v2/posts", r.URL.Path)
		w.Write([]byte(`[{"id":"p1","title":"Hello","themes":[{"id":"t1","name":"Go"}]}]`))
	}))
	defer server.Close()

	c := New(server.URL + "/")
	c.SetVersion("v2")
	c.SetTokenSource(staticTokens("abc"))

	posts, err := c.ListPosts(context.Background(), PostQuery{ThemeID: "t1"})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Hello", posts[0].Title)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "themeId=t1", gotQuery)

	c.SetTokenSource(staticTokens(""))
	_, err = c.ListPosts(context.Background(), PostQuery{})
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
	assert.Empty(t, gotQuery)
}

func TestCreatePost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))

		var req CreatePostRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"t1"}, req.Themes)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Post{ID: "p9", Title: req.Title})
	}))
	defer server.Close()

	c := New(server.URL)
	c.SetTokenSource(staticTokens("abc"))

	post, err := c.CreatePost(context.Background(), CreatePostRequest{Title: "Hello", Description: "World", Themes: []string{"t1"}})
	require.NoError(t, err)
	assert.Equal(t, "p9", post.ID)
}
