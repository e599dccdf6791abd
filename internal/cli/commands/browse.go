package commands

import (
	"fmt"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/postboard-dev/postboard/internal/session"
)

// NewOpenCmd creates the open command
func NewOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Open a page, e.g. /, /posts/<id>, /create-post",
		Long: `Open a page the way the web client would. Guarded pages remember where
you were going and send you to sign in first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return a.pages.Navigate(cmd.Context(), args[0])
		},
	}
}

// NewPostsCmd creates the posts command
func NewPostsCmd() *cobra.Command {
	var themeID, search string

	cmd := &cobra.Command{
		Use:     "posts",
		Aliases: []string{"ls"},
		Short:   "List posts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			query := url.Values{}
			if themeID != "" {
				query.Set("themeId", themeID)
			}
			if search != "" {
				query.Set("search", search)
			}

			path := session.PathHome
			if encoded := query.Encode(); encoded != "" {
				path += "?" + encoded
			}
			return a.pages.Navigate(cmd.Context(), path)
		},
	}

	cmd.Flags().StringVar(&themeID, "theme", "", "Only show posts filed under this theme ID")
	cmd.Flags().StringVar(&search, "search", "", "Only show posts whose title or description matches")

	return cmd
}

// NewPostCmd creates the post command
func NewPostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post <id>",
		Short: "Show a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return a.pages.Navigate(cmd.Context(), "/posts/"+url.PathEscape(args[0]))
		},
	}
}

// NewThemesCmd creates the themes command
func NewThemesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			themes, err := a.client.ListThemes(cmd.Context())
			if err != nil {
				return err
			}

			if len(themes) == 0 {
				fmt.Fprintln(a.out, "No themes found.")
				fmt.Fprintln(a.out, "\nAdmins can create one with: postboard create-theme")
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tDESCRIPTION")
			fmt.Fprintln(w, "──\t────\t────────\t───────────")

			for _, theme := range themes {
				category := ""
				if theme.Category != nil {
					category = theme.Category.Name
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					theme.ID,
					theme.Name,
					category,
					theme.Description,
				)
			}

			return w.Flush()
		},
	}
}

// NewCategoriesCmd creates the categories command
func NewCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			categories, err := a.client.ListCategories(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME")
			fmt.Fprintln(w, "──\t────")
			for _, category := range categories {
				fmt.Fprintf(w, "%s\t%s\n", category.ID, category.Name)
			}

			return w.Flush()
		},
	}
}
