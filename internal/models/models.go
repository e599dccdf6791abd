package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Permission keys carried by roles
const (
	PermissionCreate = "C"
	PermissionRead   = "R"
	PermissionUpdate = "U"
	PermissionDelete = "D"
)

// Role keys seeded on first start
const (
	RoleAdmin   = "ADMIN"
	RoleCreator = "CREATOR"
	RoleReader  = "READER"
)

// Content block types
const (
	ContentImage = "image"
	ContentVideo = "video"
	ContentText  = "text"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Setting is the singleton row holding server-generated secrets
type Setting struct {
	BaseModel
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // 64 hex chars
}

// Role grants a set of permissions to its users
type Role struct {
	BaseModel
	Key         string   `json:"key" gorm:"uniqueIndex;not null"`
	Name        string   `json:"name" gorm:"not null"`
	Permissions []string `json:"permissions" gorm:"serializer:json;not null"`
}

// User represents a registered account
type User struct {
	BaseModel
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	RoleID       string    `json:"-" gorm:"not null"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	// Relationships
	Role Role `json:"role" gorm:"foreignKey:RoleID"`
}

// Category groups themes
type Category struct {
	BaseModel
	Name string `json:"name" gorm:"uniqueIndex;not null"`
}

// Theme is a topic posts are filed under
type Theme struct {
	BaseModel
	Name        string `json:"name" gorm:"uniqueIndex;not null"`
	Description string `json:"description" gorm:"type:text;not null"`
	CoverURL    string `json:"coverUrl"`
	CategoryID  string `json:"-" gorm:"not null"`

	// Relationships
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

// Content is one block of a post body
type Content struct {
	BaseModel
	PostID   string `json:"-" gorm:"index;not null"`
	Position int    `json:"-" gorm:"not null;default:0"`
	Type     string `json:"type" gorm:"not null"`
	Value    string `json:"value" gorm:"type:text;not null"`
}

// Post represents a published post
type Post struct {
	BaseModel
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text;not null"`
	CoverURL    string `json:"coverUrl"`
	CreatedByID string `json:"-" gorm:"index;not null"`

	// Relationships
	Content   []Content `json:"content" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	Themes    []Theme   `json:"themes" gorm:"many2many:post_themes;constraint:OnDelete:CASCADE"`
	CreatedBy *User     `json:"createdBy,omitempty" gorm:"foreignKey:CreatedByID"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&Setting{}, &Role{}, &User{}, &Category{}, &Theme{}, &Post{}, &Content{},
	}

	return db.AutoMigrate(models...)
}

// DefaultRoles are the roles every deployment starts with
func DefaultRoles() []Role {
	return []Role{
		{Key: RoleAdmin, Name: "Administrator", Permissions: []string{PermissionCreate, PermissionRead, PermissionUpdate, PermissionDelete}},
		{Key: RoleCreator, Name: "Creator", Permissions: []string{PermissionCreate, PermissionRead, PermissionUpdate}},
		{Key: RoleReader, Name: "Reader", Permissions: []string{PermissionRead}},
	}
}

// DefaultCategories are the categories every deployment starts with
func DefaultCategories() []Category {
	return []Category{
		{Name: "Images"},
		{Name: "Videos"},
		{Name: "Texts"},
	}
}

// Seed inserts the default roles and categories that do not exist yet
func Seed(db *gorm.DB) error {
	roles := DefaultRoles()
	if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "key"}}, DoNothing: true}).Create(&roles).Error; err != nil {
		return fmt.Errorf("failed to seed roles: %w", err)
	}

	categories := DefaultCategories()
	if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).Create(&categories).Error; err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	return nil
}

// EnsureJWTSecret returns the configured secret, or the one persisted in the
// Setting row, generating and storing it on first start
func EnsureJWTSecret(db *gorm.DB, configured string, generate func() (string, error)) (string, error) {
	if configured != "" {
		return configured, nil
	}

	var setting Setting
	err := db.First(&setting).Error
	if err == nil {
		return setting.JWTSecret, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}

	secret, err := generate()
	if err != nil {
		return "", err
	}

	setting = Setting{JWTSecret: secret}
	if err := db.Create(&setting).Error; err != nil {
		return "", fmt.Errorf("failed to persist settings: %w", err)
	}
	return secret, nil
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}

// FindByIDWithPreload finds a record by ID with preloading
func FindByIDWithPreload[T any](db *gorm.DB, id string, model *T, preloads ...string) error {
	query := db
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	return query.Where("id = ?", id).First(model).Error
}
