package client

import (
	"context"
	"net/http"
	"net/url"
)

// Author is the public profile attached to a post
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Category groups themes
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Theme is a topic posts are filed under
type Theme struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CoverURL    string    `json:"coverUrl"`
	Category    *Category `json:"category,omitempty"`
}

// Content is one block of a post's body
type Content struct {
	Type  string `json:"type"` // image, video or text
	Value string `json:"value"`
}

// Post represents a published post
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CoverURL    string    `json:"coverUrl"`
	Content     []Content `json:"content"`
	Themes      []Theme   `json:"themes"`
	CreatedBy   *Author   `json:"createdBy,omitempty"`
	CreatedAt   string    `json:"createdAt"`
}

// PostQuery filters the post list. Empty fields are not sent.
type PostQuery struct {
	ThemeID string
	Search  string
}

func (q PostQuery) values() url.Values {
	values := url.Values{}
	if q.ThemeID != "" {
		values.Set("themeId", q.ThemeID)
	}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	return values
}

// ListPosts returns posts matching q
func (c *Client) ListPosts(ctx context.Context, q PostQuery) ([]Post, error) {
	var posts []Post
	err := c.getJSON(ctx, request{
		method: http.MethodGet,
		path:   "posts",
		query:  q.values(),
		auth:   true,
	}, &posts)
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost returns a single post by ID
func (c *Client) GetPost(ctx context.Context, id string) (*Post, error) {
	var post Post
	err := c.getJSON(ctx, request{
		method: http.MethodGet,
		path:   "posts/" + url.PathEscape(id),
		auth:   true,
	}, &post)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePostRequest represents the post creation request
type CreatePostRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CoverURL    string    `json:"coverUrl,omitempty"`
	Themes      []string  `json:"themes"`
	Content     []Content `json:"content,omitempty"`
}

// CreatePost publishes a post as the signed-in user
func (c *Client) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	var post Post
	err := c.getJSON(ctx, request{
		method: http.MethodPost,
		path:   "posts",
		body:   req,
		auth:   true,
	}, &post)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ListThemes returns all themes
func (c *Client) ListThemes(ctx context.Context) ([]Theme, error) {
	var themes []Theme
	if err := c.getJSON(ctx, request{method: http.MethodGet, path: "themes", auth: true}, &themes); err != nil {
		return nil, err
	}
	return themes, nil
}

// CreateThemeRequest represents the theme creation request
type CreateThemeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	CoverURL    string `json:"coverUrl,omitempty"`
}

// CreateTheme creates a theme (admins only)
func (c *Client) CreateTheme(ctx context.Context, req CreateThemeRequest) (*Theme, error) {
	var theme Theme
	err := c.getJSON(ctx, request{
		method: http.MethodPost,
		path:   "themes",
		body:   req,
		auth:   true,
	}, &theme)
	if err != nil {
		return nil, err
	}
	return &theme, nil
}

// ListCategories returns all categories
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.getJSON(ctx, request{method: http.MethodGet, path: "categories", auth: true}, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}
