package commands

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/postboard-dev/postboard/internal/cli/client"
	"github.com/postboard-dev/postboard/internal/cli/pages"
	"github.com/postboard-dev/postboard/internal/cli/prompt"
	"github.com/postboard-dev/postboard/internal/session"
)

// parseContent turns "type=value" flags into content blocks
func parseContent(blocks []string) ([]client.Content, error) {
	contents := make([]client.Content, 0, len(blocks))
	for _, block := range blocks {
		kind, value, ok := strings.Cut(block, "=")
		if !ok || value == "" {
			return nil, fmt.Errorf("invalid content %q (expected type=value)", block)
		}

		switch kind {
		case "text", "image":
		case "video":
			if _, err := pages.EmbeddedYouTubeURL(value); err != nil {
				return nil, fmt.Errorf("invalid video %q: %w", value, err)
			}
		default:
			return nil, fmt.Errorf("invalid content type %q (use text, image or video)", kind)
		}

		contents = append(contents, client.Content{Type: kind, Value: value})
	}
	return contents, nil
}

// NewCreatePostCmd creates the create-post command
func NewCreatePostCmd() *cobra.Command {
	var (
		req     client.CreatePostRequest
		content []string
	)

	cmd := &cobra.Command{
		Use:   "create-post",
		Short: "Publish a post (requires the C permission)",
		Example: `  postboard create-post --title "Hello" --description "First post" \
    --theme 01J9ZK... --content text="Some words" \
    --content video=https://www.youtube.com/watch?v=dQw4w9WgXcQ`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			contents, err := parseContent(content)
			if err != nil {
				return err
			}
			req.Content = contents
			return runCreatePost(cmd, req)
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "Post title")
	cmd.Flags().StringVar(&req.Description, "description", "", "Post description")
	cmd.Flags().StringVar(&req.CoverURL, "cover", "", "Cover image URL")
	cmd.Flags().StringSliceVar(&req.Themes, "theme", nil, "Theme ID (repeatable, will prompt if not provided)")
	cmd.Flags().StringArrayVar(&content, "content", nil, "Content block as type=value, type is text, image or video (repeatable)")

	return cmd
}

func runCreatePost(cmd *cobra.Command, req client.CreatePostRequest) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	if err := a.requireAuth(cmd, pages.PathCreatePost); err != nil {
		return err
	}
	if err := a.requirePermission(cmd, "C"); err != nil {
		return err
	}

	if req.Title == "" || req.Description == "" {
		return fmt.Errorf("--title and --description are required")
	}

	if len(req.Themes) == 0 {
		themeID, err := selectTheme(cmd, a)
		if err != nil {
			return err
		}
		req.Themes = []string{themeID}
	}

	post, err := a.client.CreatePost(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	success.Fprintf(a.out, "✓ Post %s published\n\n", post.ID)

	return a.pages.Navigate(cmd.Context(), "/posts/"+url.PathEscape(post.ID))
}

func selectTheme(cmd *cobra.Command, a *app) (string, error) {
	themes, err := a.client.ListThemes(cmd.Context())
	if err != nil {
		return "", fmt.Errorf("failed to load themes: %w", err)
	}

	options := make([]prompt.Option, len(themes))
	for i, theme := range themes {
		options[i] = prompt.Option{Label: theme.Name, Value: theme.ID}
	}

	themeID, err := prompt.Select("Select a theme", options)
	if errors.Is(err, prompt.ErrNotInteractive) {
		return "", fmt.Errorf("at least one theme is required in non-interactive mode (use --theme flag)")
	}
	return themeID, err
}

// NewCreateThemeCmd creates the create-theme command
func NewCreateThemeCmd() *cobra.Command {
	var req client.CreateThemeRequest

	cmd := &cobra.Command{
		Use:   "create-theme",
		Short: "Create a theme (ADMIN only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateTheme(cmd, req)
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Theme name")
	cmd.Flags().StringVar(&req.Description, "description", "", "Theme description")
	cmd.Flags().StringVar(&req.Category, "category", "", "Category ID (will prompt if not provided)")
	cmd.Flags().StringVar(&req.CoverURL, "cover", "", "Cover image URL")

	return cmd
}

func runCreateTheme(cmd *cobra.Command, req client.CreateThemeRequest) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	if err := a.requireAuth(cmd, pages.PathCreateTheme); err != nil {
		return err
	}
	if err := a.requireRole(cmd, "ADMIN"); err != nil {
		return err
	}

	if req.Name == "" || req.Description == "" {
		return fmt.Errorf("--name and --description are required")
	}

	if req.Category == "" {
		categoryID, err := selectCategory(cmd, a)
		if err != nil {
			return err
		}
		req.Category = categoryID
	}

	theme, err := a.client.CreateTheme(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("failed to create theme: %w", err)
	}

	success.Fprintf(a.out, "✓ Theme %s created (%s)\n\n", theme.Name, theme.ID)

	return a.pages.Navigate(cmd.Context(), session.PathHome+"?themeId="+url.QueryEscape(theme.ID))
}

func selectCategory(cmd *cobra.Command, a *app) (string, error) {
	categories, err := a.client.ListCategories(cmd.Context())
	if err != nil {
		return "", fmt.Errorf("failed to load categories: %w", err)
	}

	options := make([]prompt.Option, len(categories))
	for i, category := range categories {
		options[i] = prompt.Option{Label: category.Name, Value: category.ID}
	}

	categoryID, err := prompt.Select("Select a category", options)
	if errors.Is(err, prompt.ErrNotInteractive) {
		return "", fmt.Errorf("category is required in non-interactive mode (use --category flag)")
	}
	return categoryID, err
}
