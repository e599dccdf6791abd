// Package pages renders the client's pages to a terminal and implements the
// navigator the session provider sends users around with.
package pages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"

	"github.com/postboard-dev/postboard/internal/cli/client"
	"github.com/postboard-dev/postboard/internal/session"
)

// Pages that are not in session's navigation targets
const (
	PathSignUp      = "/sign-up"
	PathCreatePost  = "/create-post"
	PathCreateTheme = "/create-theme"
	postPathPrefix  = "/posts/"
)

// ErrPageNotFound is returned for unknown paths and missing posts
var ErrPageNotFound = errors.New("page not found")

// Content is the part of the API client pages read from
type Content interface {
	ListPosts(ctx context.Context, q client.PostQuery) ([]client.Post, error)
	GetPost(ctx context.Context, id string) (*client.Post, error)
}

// Guard is the part of the session provider guarded pages consult
type Guard interface {
	RequireAuth(ctx context.Context, path string) (bool, error)
	RequireRole(ctx context.Context, roleKey string) (bool, error)
	RequirePermission(ctx context.Context, required ...string) (bool, error)
}

var (
	title   = color.New(color.Bold)
	warning = color.New(color.FgRed)
)

// Navigator renders pages to out and remembers where it has been
type Navigator struct {
	out      io.Writer
	content  Content
	guard    Guard
	markdown *glamour.TermRenderer

	mu      sync.Mutex
	history []string
}

// New creates a navigator. Bind must be called before guarded pages are visited.
func New(out io.Writer, content Content) *Navigator {
	n := &Navigator{out: out, content: content}

	// Text blocks are markdown; without a renderer they are printed as is
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath("notty"),
		glamour.WithWordWrap(80),
	)
	if err == nil {
		n.markdown = renderer
	}

	return n
}

// Bind attaches the session guard. The provider needs the navigator and the
// navigator needs the provider, so the guard is attached after construction.
func (n *Navigator) Bind(guard Guard) {
	n.guard = guard
}

// Current returns the last visited path
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.history) == 0 {
		return ""
	}
	return n.history[len(n.history)-1]
}

// History returns every visited path in order
func (n *Navigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.history...)
}

// Navigate visits path and renders it
func (n *Navigator) Navigate(ctx context.Context, path string) error {
	u, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}

	n.mu.Lock()
	n.history = append(n.history, path)
	n.mu.Unlock()

	switch {
	case u.Path == session.PathHome || u.Path == "":
		return n.renderPosts(ctx, client.PostQuery{
			ThemeID: u.Query().Get("themeId"),
			Search:  u.Query().Get("search"),
		})
	case u.Path == session.PathSignIn:
		fmt.Fprintln(n.out, "Sign in to continue: postboard login --email <email>")
		return nil
	case u.Path == PathSignUp:
		fmt.Fprintln(n.out, "Create an account: postboard sign-up --username <name> --email <email>")
		return nil
	case u.Path == session.PathUnauthorized:
		warning.Fprintln(n.out, "401: you are not authorized to view this page.")
		return nil
	case u.Path == PathCreatePost:
		return n.guarded(ctx, path, func(ctx context.Context) (bool, error) {
			return n.guard.RequirePermission(ctx, "C")
		}, "Publish with: postboard create-post --title <title> --description <text> --theme <id>")
	case u.Path == PathCreateTheme:
		return n.guarded(ctx, path, func(ctx context.Context) (bool, error) {
			return n.guard.RequireRole(ctx, "ADMIN")
		}, "Create a theme with: postboard create-theme --name <name> --description <text> --category <id>")
	case strings.HasPrefix(u.Path, postPathPrefix):
		return n.renderPost(ctx, strings.TrimPrefix(u.Path, postPathPrefix))
	default:
		return fmt.Errorf("%w: %s", ErrPageNotFound, path)
	}
}

func (n *Navigator) guarded(ctx context.Context, path string, check func(context.Context) (bool, error), hint string) error {
	if n.guard == nil {
		return fmt.Errorf("page %s requires a session", path)
	}

	ok, err := n.guard.RequireAuth(ctx, path)
	if err != nil || !ok {
		return err
	}

	ok, err = check(ctx)
	if err != nil || !ok {
		return err
	}

	fmt.Fprintln(n.out, hint)
	return nil
}

func (n *Navigator) renderPosts(ctx context.Context, q client.PostQuery) error {
	posts, err := n.content.ListPosts(ctx, q)
	if err != nil {
		return fmt.Errorf("failed to list posts: %w", err)
	}

	fmt.Fprintf(n.out, "%d posts\n\n", len(posts))
	if len(posts) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(n.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTHEMES\tAUTHOR")
	fmt.Fprintln(w, "──\t─────\t──────\t──────")

	for _, post := range posts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			post.ID,
			post.Title,
			themeNames(post.Themes),
			authorName(post.CreatedBy),
		)
	}

	return w.Flush()
}

func (n *Navigator) renderPost(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: missing post id", ErrPageNotFound)
	}

	post, err := n.content.GetPost(ctx, id)
	if err != nil {
		if client.StatusCode(err) == http.StatusNotFound {
			return fmt.Errorf("%w: post %s", ErrPageNotFound, id)
		}
		return fmt.Errorf("failed to load post: %w", err)
	}

	title.Fprintln(n.out, post.Title)
	fmt.Fprintf(n.out, "by %s", authorName(post.CreatedBy))
	if themes := themeNames(post.Themes); themes != "" {
		fmt.Fprintf(n.out, " in %s", themes)
	}
	fmt.Fprint(n.out, "\n\n")
	fmt.Fprintln(n.out, post.Description)

	if post.CoverURL != "" {
		fmt.Fprintf(n.out, "\ncover: %s\n", post.CoverURL)
	}

	for _, block := range post.Content {
		switch block.Type {
		case "video":
			embedded, err := EmbeddedYouTubeURL(block.Value)
			if err != nil {
				fmt.Fprintf(n.out, "\n[video] %s (%v)\n", block.Value, err)
				continue
			}
			fmt.Fprintf(n.out, "\n[video] %s\n", embedded)
		case "image":
			fmt.Fprintf(n.out, "\n[image] %s\n", block.Value)
		default:
			fmt.Fprintf(n.out, "\n%s\n", n.renderText(block.Value))
		}
	}

	return nil
}

func (n *Navigator) renderText(text string) string {
	if n.markdown == nil {
		return text
	}

	rendered, err := n.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(rendered, "\n")
}

func themeNames(themes []client.Theme) string {
	names := make([]string, 0, len(themes))
	for _, theme := range themes {
		names = append(names, theme.Name)
	}
	return strings.Join(names, ", ")
}

func authorName(author *client.Author) string {
	if author == nil || author.Username == "" {
		return "unknown"
	}
	return author.Username
}
