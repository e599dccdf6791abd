package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/postboard-dev/postboard/internal/models"
)

// ContentRequest is one block of a post body
type ContentRequest struct {
	Type  string `json:"type" validate:"required,oneof=image video text"`
	Value string `json:"value" validate:"required"`
}

// CreatePostRequest represents a request to publish a post
type CreatePostRequest struct {
	Title       string           `json:"title" binding:"required" validate:"required,max=200"`
	Description string           `json:"description" binding:"required" validate:"required"`
	CoverURL    string           `json:"coverUrl" validate:"omitempty,url"`
	Themes      []string         `json:"themes" validate:"min=1,dive,required"`
	Content     []ContentRequest `json:"content" validate:"dive"`
}

// CreateThemeRequest represents a request to create a theme
type CreateThemeRequest struct {
	Name        string `json:"name" binding:"required" validate:"required,max=100"`
	Description string `json:"description" binding:"required" validate:"required"`
	Category    string `json:"category" binding:"required"`
	CoverURL    string `json:"coverUrl" validate:"omitempty,url"`
}

// AuthorDetail is the public profile attached to a post
type AuthorDetail struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// PostDetail represents a post returned in responses
type PostDetail struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	CoverURL    string           `json:"coverUrl"`
	Content     []models.Content `json:"content"`
	Themes      []models.Theme   `json:"themes"`
	CreatedBy   *AuthorDetail    `json:"createdBy,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

func postDetail(post models.Post) PostDetail {
	detail := PostDetail{
		ID:          post.ID,
		Title:       post.Title,
		Description: post.Description,
		CoverURL:    post.CoverURL,
		Content:     post.Content,
		Themes:      post.Themes,
		CreatedAt:   post.CreatedAt,
	}
	if detail.Content == nil {
		detail.Content = []models.Content{}
	}
	if detail.Themes == nil {
		detail.Themes = []models.Theme{}
	}
	if post.CreatedBy != nil {
		detail.CreatedBy = &AuthorDetail{
			ID:       post.CreatedBy.ID,
			Username: post.CreatedBy.Username,
			Email:    post.CreatedBy.Email,
		}
	}
	return detail
}

// postsQuery preloads everything a post response carries
// likeEscaper makes LIKE wildcards in user input match literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (s *Server) postsQuery() *gorm.DB {
	return s.db.Model(&models.Post{}).
		Preload("Themes").
		Preload("Themes.Category").
		Preload("Content", func(db *gorm.DB) *gorm.DB {
			return db.Order("position")
		}).
		Preload("CreatedBy")
}

// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {array} models.Category
// @Router /categories [get]
func (s *Server) listCategories(c *gin.Context) {
	var categories []models.Category
	if err := s.db.Order("name").Find(&categories).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list categories")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, categories)
}

// @Summary List themes
// @Tags themes
// @Produce json
// @Success 200 {array} models.Theme
// @Router /themes [get]
func (s *Server) listThemes(c *gin.Context) {
	var themes []models.Theme
	if err := s.db.Preload("Category").Order("name").Find(&themes).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list themes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, themes)
}

// @Summary Create theme
// @Description Create a theme (ADMIN role only)
// @Tags themes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateThemeRequest true "Create theme request"
// @Success 201 {object} models.Theme
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /themes [post]
func (s *Server) createTheme(c *gin.Context) {
	var req CreateThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var category models.Category
	if err := models.FindByID(s.db, req.Category, &category); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find category")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var count int64
	if err := s.db.Model(&models.Theme{}).Where("name = ?", req.Name).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count themes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Theme already exists"})
		return
	}

	theme := models.Theme{
		Name:        req.Name,
		Description: req.Description,
		CoverURL:    req.CoverURL,
		CategoryID:  category.ID,
	}
	if err := s.db.Create(&theme).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create theme")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create theme"})
		return
	}
	theme.Category = &category

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("theme_id", theme.ID).
		Str("created_by", sessionData.UserID).
		Msg("Theme created")

	c.JSON(http.StatusCreated, theme)
}

// @Summary List posts
// @Description List posts, newest first, optionally filtered by theme and a search term
// @Tags posts
// @Produce json
// @Param themeId query string false "Theme ID"
// @Param search query string false "Matches title or description"
// @Success 200 {array} PostDetail
// @Router /posts [get]
func (s *Server) listPosts(c *gin.Context) {
	query := s.postsQuery()

	if themeID := c.Query("themeId"); themeID != "" {
		query = query.Where("id IN (?)",
			s.db.Table("post_themes").Select("post_id").Where("theme_id = ?", themeID))
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, pattern, pattern)
	}

	var posts []models.Post
	if err := query.Order("created_at DESC").Order("id DESC").Find(&posts).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list posts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	details := make([]PostDetail, len(posts))
	for i, post := range posts {
		details[i] = postDetail(post)
	}

	c.JSON(http.StatusOK, details)
}

// @Summary Get post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} PostDetail
// @Failure 404 {object} map[string]interface{}
// @Router /posts/{id} [get]
func (s *Server) getPost(c *gin.Context) {
	var post models.Post
	if err := s.postsQuery().Where("id = ?", c.Param("id")).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, postDetail(post))
}

// @Summary Create post
// @Description Publish a post as the signed-in user (requires permission C)
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreatePostRequest true "Create post request"
// @Success 201 {object} PostDetail
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /posts [post]
func (s *Server) createPost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var themes []models.Theme
	if err := s.db.Where("id IN ?", req.Themes).Find(&themes).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to find themes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if len(themes) != len(uniqueStrings(req.Themes)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown theme"})
		return
	}

	sessionData, _ := GetSessionData(c)

	contents := make([]models.Content, len(req.Content))
	for i, block := range req.Content {
		contents[i] = models.Content{Position: i, Type: block.Type, Value: block.Value}
	}

	post := models.Post{
		Title:       req.Title,
		Description: req.Description,
		CoverURL:    req.CoverURL,
		CreatedByID: sessionData.UserID,
		Content:     contents,
		Themes:      themes,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Themes.*").Create(&post).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	var created models.Post
	if err := s.postsQuery().Where("id = ?", post.ID).First(&created).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to reload post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.logger.Info().
		Str("post_id", post.ID).
		Str("created_by", sessionData.UserID).
		Msg("Post created")

	c.JSON(http.StatusCreated, postDetail(created))
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var unique []string
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		unique = append(unique, value)
	}
	return unique
}
